package dial

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// ============================================================================
// Control Surface
// ============================================================================
// Owns ControlState and orchestrates Geometry -> Gap -> Track Animator ->
// Renderer. Not safe for concurrent use: one goroutine owns a Surface, the
// same way the daemon loop owns its state.
// ============================================================================

// ErrInvalidSize is returned for a non-positive or non-finite view size.
var ErrInvalidSize = errors.New("dial: invalid view size")

// Phase is the phase of a drag gesture sample.
type Phase string

const (
	PhaseBegan   Phase = "began"
	PhaseChanged Phase = "changed"
	PhaseEnded   Phase = "ended"
)

// DragSample is one sample of a drag gesture in view-local coordinates.
type DragSample struct {
	X     float64
	Y     float64
	Phase Phase
}

// State is the authoritative control state. IndicatorAngle is always the
// geometry's image of Value once any in-flight animation settles.
type State struct {
	Value          float64
	IndicatorAngle float64
}

// Observer is notified synchronously after each accepted value change.
type Observer func(value float64)

// Config holds construction parameters.
type Config struct {
	StartAngle float64
	EndAngle   float64
	Value      float64

	Width  float64
	Height float64

	Variant Variant
	Style   Style

	// DragDuration and DragEasing apply to drag-derived value changes.
	DragDuration time.Duration
	DragEasing   Easing
}

// DefaultConfig returns a base dial of 200x200 at the center value.
func DefaultConfig() Config {
	return Config{
		StartAngle: DefaultStartAngle,
		EndAngle:   DefaultEndAngle,
		Value:      0.5,
		Width:      200,
		Height:     200,
		Variant:    Base,
		Style:      DefaultStyle(),
		DragEasing: DefaultEasing,
	}
}

// Validate checks construction-time invariants.
func (c Config) Validate() error {
	if err := (Geometry{StartAngle: c.StartAngle, EndAngle: c.EndAngle}).Validate(); err != nil {
		return err
	}
	if err := validateSize(c.Width, c.Height); err != nil {
		return err
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return fmt.Errorf("dial: initial value must be finite, got %v", c.Value)
	}
	if c.Variant.BuildTrack == nil || c.Variant.PlanTrack == nil {
		return fmt.Errorf("dial: variant %q has no track strategy", c.Variant.Name)
	}
	if c.Style.Track == nil || c.Style.Highlight == nil || c.Style.Indicator == nil {
		return errors.New("dial: style colors must be set")
	}
	return nil
}

func validateSize(w, h float64) error {
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidSize, w, h)
	}
	return nil
}

// Option configures a Surface.
type Option func(*Surface)

// WithObserver sets the single value observer.
func WithObserver(o Observer) Option {
	return func(s *Surface) { s.observer = o }
}

// WithLogger sets the logger. A nil logger discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Surface) {
		if l != nil {
			s.logger = l
		}
	}
}

// Surface is the stateful dial control.
type Surface struct {
	cfg      Config
	variant  Variant
	renderer Renderer
	observer Observer
	logger   *slog.Logger

	state State

	geometry     Geometry
	lineWidth    float64
	proportional bool
	gap          float64

	layers    map[Segment]LayerHandle
	indicator LayerHandle
}

// NewSurface validates cfg, lays out the scene on r, and returns the surface.
func NewSurface(cfg Config, r Renderer, opts ...Option) (*Surface, error) {
	if r == nil {
		return nil, errors.New("dial: renderer is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Surface{
		cfg:          cfg,
		variant:      cfg.Variant,
		renderer:     r,
		logger:       slog.New(slog.DiscardHandler),
		proportional: cfg.Variant.LineWidthProportional,
		state:        State{Value: cfg.Value},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Layout(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	return s, nil
}

// State returns a copy of the control state.
func (s *Surface) State() State { return s.state }

// Value is shorthand for State().Value.
func (s *Surface) Value() float64 { return s.state.Value }

// Gap returns the current gap.
func (s *Surface) Gap() float64 { return s.gap }

// LineWidth returns the current stroke width.
func (s *Surface) LineWidth() float64 { return s.lineWidth }

// Geometry returns the current layout geometry.
func (s *Surface) Geometry() Geometry { return s.geometry }

// Variant returns the variant the surface was built with.
func (s *Surface) Variant() Variant { return s.variant }

// Size returns the current view size.
func (s *Surface) Size() (width, height float64) { return s.cfg.Width, s.cfg.Height }

// Scene builds the scene for the current state without touching the renderer.
func (s *Surface) Scene() Scene {
	style := s.cfg.Style
	style.LineWidth = s.lineWidth
	return BuildScene(s.geometry, style, s.variant, s.state.Value, s.gap)
}

// Layout recomputes radius, line width and gap for a new view size, then
// rebuilds every layer on the renderer. Calling it twice with the same size
// yields the same scene.
func (s *Surface) Layout(width, height float64) error {
	if err := validateSize(width, height); err != nil {
		return err
	}
	s.layout(width, height)
	return nil
}

// layout applies an already validated size.
func (s *Surface) layout(width, height float64) {
	s.cfg.Width, s.cfg.Height = width, height

	size := ViewSize(width, height)
	s.lineWidth = LineWidth(s.variant, s.proportional, width, height)
	s.gap = Gap(s.lineWidth, size)
	s.geometry = Geometry{
		StartAngle: s.cfg.StartAngle,
		EndAngle:   s.cfg.EndAngle,
		CenterX:    width / 2,
		CenterY:    height / 2,
		Radius:     math.Max(0, (size-s.lineWidth)/2),
	}

	s.rebuild()

	s.logger.Debug("dial layout",
		"width", width,
		"height", height,
		"line_width", s.lineWidth,
		"gap", s.gap,
		"radius", s.geometry.Radius,
	)
}

// SetLineWidthProportional switches between fixed and proportional line width
// and re-lays out the scene, since the gap depends on it.
func (s *Surface) SetLineWidthProportional(proportional bool) {
	if s.proportional == proportional {
		return
	}
	s.proportional = proportional
	s.layout(s.cfg.Width, s.cfg.Height)
}

func (s *Surface) rebuild() {
	scene := s.Scene()
	s.renderer.Reset()
	s.layers = make(map[Segment]LayerHandle, len(scene.Arcs))
	for _, arc := range scene.Arcs {
		s.layers[arc.Segment] = s.renderer.DrawArc(arc)
	}
	s.indicator = s.renderer.DrawIndicator(scene.Indicator)
	s.state.IndicatorAngle = scene.Indicator.Rotation
}

// SetValue moves the control to value, animating over duration with easing.
// value is not clamped. The state changes immediately; only visuals animate.
// The observer fires only when the value actually changes.
func (s *Surface) SetValue(value float64, duration time.Duration, easing Easing) {
	old := s.state.Value
	if value == old {
		return
	}
	s.state.Value = value

	target := s.geometry.IndicatorAngle(value, s.variant.RotationOffset)
	s.renderer.Animate(s.indicator, Animation{
		Property:       Rotation,
		From:           s.state.IndicatorAngle,
		To:             target,
		Duration:       duration,
		Easing:         easing,
		RetainEndValue: true,
	})
	s.state.IndicatorAngle = target

	plan := s.variant.PlanTrack(old, value, s.gap, duration)
	s.dispatch(plan, easing)

	s.logger.Debug("dial value changed",
		"from", old,
		"to", value,
		"angle", target,
		"crossing", Classify(old, value).String(),
		"duration", duration,
	)

	if s.observer != nil {
		s.observer(value)
	}
}

// dispatch is the only place a Plan reaches the renderer.
func (s *Surface) dispatch(plan Plan, easing Easing) {
	for _, ch := range plan.Channels {
		layer, ok := s.layers[ch.Segment]
		if !ok {
			s.logger.Warn("plan references a segment with no layer", "segment", ch.Segment.String())
			continue
		}
		s.renderer.Animate(layer, Animation{
			Property:       ch.Property,
			Values:         ch.Values(),
			KeyTimes:       ch.KeyTimes(),
			Duration:       plan.Duration,
			Easing:         easing,
			RetainEndValue: true,
		})
	}
}

// DragValue converts a vertical drag position into a clamped normalized value:
// the bottom of the view is 0, the top is 1.
func DragValue(localY, viewHeight float64) float64 {
	if viewHeight <= 0 {
		return 0
	}
	p := (viewHeight - localY) / viewHeight
	return math.Max(0, math.Min(1, p))
}

// Drag applies one drag sample. Only PhaseChanged samples move the value;
// each sample is independent (no inertia).
func (s *Surface) Drag(sample DragSample) {
	if sample.Phase != PhaseChanged {
		return
	}
	s.SetValue(DragValue(sample.Y, s.cfg.Height), s.cfg.DragDuration, s.cfg.DragEasing)
}
