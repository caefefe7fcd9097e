package main

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"potbrainz/dial"
	"potbrainz/render"
)

// ============================================================================
// Daemon State
// ============================================================================
// daemonState is owned by the daemon loop goroutine. Nothing else may touch
// the surface; other goroutines get StateSnapshot copies via
// RequestStateSnapshot, and value changes leave as StateBroadcast values.
// ============================================================================

// StateSnapshot is a copy of daemon-owned state, safe to share.
type StateSnapshot struct {
	Value        float64
	Angle        float64
	Width        float64
	Height       float64
	Variant      string
	Proportional bool
	LineWidth    float64
	Gap          float64
	At           time.Time
}

// StateBroadcast is a state change published to websocket subscribers.
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastValueChanged is emitted from the surface observer on every accepted value change.
type BroadcastValueChanged struct {
	Value float64
	Angle float64
	At    time.Time
}

func (BroadcastValueChanged) broadcastMarker() {}

// BroadcastLayoutChanged is emitted after a resize or line width mode switch.
type BroadcastLayoutChanged struct {
	Width     float64
	Height    float64
	LineWidth float64
	Gap       float64
	At        time.Time
}

func (BroadcastLayoutChanged) broadcastMarker() {}

type daemonState struct {
	cfg      Config
	surface  *dial.Surface
	renderer *render.Renderer
	rotary   *rotaryState

	duration     time.Duration
	easing       dial.Easing
	proportional bool

	pending []StateBroadcast
	logger  *slog.Logger
}

// newDaemonState builds the control surface on r from a validated config.
func newDaemonState(cfg Config, r *render.Renderer, logger *slog.Logger) (*daemonState, error) {
	dcfg, err := cfg.ToDialConfig()
	if err != nil {
		return nil, fmt.Errorf("dial config: %w", err)
	}

	d := &daemonState{
		cfg:          cfg,
		renderer:     r,
		rotary:       newRotaryState(),
		duration:     cfg.AnimationDuration(),
		easing:       dcfg.DragEasing,
		proportional: dcfg.Variant.LineWidthProportional,
		logger:       logger,
	}

	s, err := dial.NewSurface(dcfg, r, dial.WithObserver(d.onValueChanged), dial.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create dial: %w", err)
	}
	d.surface = s
	d.updateLabel()
	return d, nil
}

func (d *daemonState) onValueChanged(value float64) {
	d.pending = append(d.pending, BroadcastValueChanged{
		Value: value,
		Angle: d.surface.State().IndicatorAngle,
		At:    time.Now().UTC(),
	})
	d.updateLabel()
}

func (d *daemonState) updateLabel() {
	if !d.cfg.View.Label {
		return
	}
	d.renderer.SetLabel(fmt.Sprintf(defaultLabelFormat, d.surface.Value()))
}

func (d *daemonState) layoutChanged() {
	w, h := d.surface.Size()
	d.pending = append(d.pending, BroadcastLayoutChanged{
		Width:     w,
		Height:    h,
		LineWidth: d.surface.LineWidth(),
		Gap:       d.surface.Gap(),
		At:        time.Now().UTC(),
	})
}

// apply executes one event against the surface. Per-event problems are logged,
// never fatal.
func (d *daemonState) apply(ev Event, now time.Time) {
	switch e := ev.(type) {
	case Drag:
		d.surface.Drag(dial.DragSample{X: e.X, Y: e.Y, Phase: e.Phase})

	case AxisDrag:
		_, h := d.surface.Size()
		d.surface.Drag(dial.DragSample{Y: e.Fraction * h, Phase: e.Phase})

	case SetValue:
		duration := d.duration
		if e.DurationMS != nil {
			duration = time.Duration(*e.DurationMS) * time.Millisecond
		}
		easing := d.easing
		if e.Easing != "" {
			parsed, err := dial.ParseEasing(e.Easing)
			if err != nil {
				d.logger.Warn("set_value ignored", "error", err)
				return
			}
			easing = parsed
		}
		d.surface.SetValue(e.Value, duration, easing)

	case RotaryTurn:
		if e.Steps == 0 {
			return
		}
		dir := 1
		if e.Steps < 0 {
			dir = -1
		}
		count := d.rotary.addStepAt(dir, d.cfg.Rotary.VelocityWindowMS, now)
		next := clamp01(d.surface.Value() + rotaryValueDelta(e.Steps, count, d.cfg.Rotary))
		d.surface.SetValue(next, d.duration, d.easing)

	case Resize:
		if err := d.renderer.Resize(e.Width, e.Height); err != nil {
			d.logger.Warn("resize ignored", "error", err)
			return
		}
		if err := d.surface.Layout(float64(e.Width), float64(e.Height)); err != nil {
			d.logger.Warn("resize ignored", "error", err)
			return
		}
		d.layoutChanged()

	case SetLineWidthMode:
		if e.Proportional == d.proportional {
			return
		}
		d.proportional = e.Proportional
		d.surface.SetLineWidthProportional(e.Proportional)
		d.layoutChanged()

	case RequestStateSnapshot:
		if e.Reply == nil {
			return
		}
		select {
		case e.Reply <- d.snapshot(now):
		default:
			d.logger.Warn("state snapshot reply dropped (receiver not ready)")
		}

	default:
		d.logger.Debug("unhandled event", "type", fmt.Sprintf("%T", ev))
	}
}

func (d *daemonState) snapshot(now time.Time) StateSnapshot {
	st := d.surface.State()
	w, h := d.surface.Size()
	return StateSnapshot{
		Value:        st.Value,
		Angle:        st.IndicatorAngle,
		Width:        w,
		Height:       h,
		Variant:      d.surface.Variant().Name,
		Proportional: d.proportional,
		LineWidth:    d.surface.LineWidth(),
		Gap:          d.surface.Gap(),
		At:           now.UTC(),
	}
}

// drain returns and clears the broadcasts produced since the last call.
func (d *daemonState) drain() []StateBroadcast {
	out := d.pending
	d.pending = nil
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
