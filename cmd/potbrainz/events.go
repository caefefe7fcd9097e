package main

import (
	"encoding/json"
	"fmt"

	"potbrainz/dial"
	"potbrainz/ipc"
)

// ============================================================================
// Events
// ============================================================================
// Events represent intent from every input source (evdev, IPC, websocket
// clients). The daemon loop is the only consumer; it applies them to the
// control surface in arrival order.
// ============================================================================

// Event is a marker interface for everything the daemon loop consumes.
type Event interface {
	eventMarker()
}

// Drag is one drag gesture sample in view-local coordinates.
type Drag struct {
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	Phase dial.Phase `json:"phase"`
}

func (Drag) eventMarker() {}

// SetValue moves the dial to an absolute value. DurationMS nil uses the
// configured animation duration; Easing empty uses the configured easing.
type SetValue struct {
	Value      float64 `json:"value"`
	DurationMS *int    `json:"duration_ms,omitempty"`
	Easing     string  `json:"easing,omitempty"`
}

func (SetValue) eventMarker() {}

// RotaryTurn represents a raw rotary encoder movement (detents/steps).
// The daemon owns policy for converting this into a value change (including velocity scaling).
type RotaryTurn struct {
	Steps int `json:"steps"` // positive=clockwise, negative=counter-clockwise
}

func (RotaryTurn) eventMarker() {}

// Resize changes the view size and re-lays out the dial.
type Resize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (Resize) eventMarker() {}

// SetLineWidthMode switches between fixed and proportional stroke width.
type SetLineWidthMode struct {
	Proportional bool `json:"proportional"`
}

func (SetLineWidthMode) eventMarker() {}

// RequestStateSnapshot asks the daemon loop for a copy of its state. Internal
// only: websocket connects use it for state_init.
type RequestStateSnapshot struct {
	Reply chan<- StateSnapshot
}

func (RequestStateSnapshot) eventMarker() {}

// ============================================================================
// JSON Decoding
// ============================================================================
// Wire events arrive in an ipc.Envelope from the unix socket and from
// websocket clients. Internal events (AxisDrag, RequestStateSnapshot) have no
// wire form.
// ============================================================================

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event
func UnmarshalEvent(data []byte) (Event, error) {
	var env ipc.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case ipc.TypeDrag:
		var e Drag
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal Drag: %w", err)
		}
		switch e.Phase {
		case dial.PhaseBegan, dial.PhaseChanged, dial.PhaseEnded:
		default:
			return nil, fmt.Errorf("unmarshal Drag: invalid phase %q", e.Phase)
		}
		return e, nil

	case ipc.TypeSetValue:
		var e SetValue
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal SetValue: %w", err)
		}
		if e.DurationMS != nil && *e.DurationMS < 0 {
			return nil, fmt.Errorf("unmarshal SetValue: duration_ms must be >= 0")
		}
		if _, err := dial.ParseEasing(e.Easing); err != nil {
			return nil, fmt.Errorf("unmarshal SetValue: %w", err)
		}
		return e, nil

	case ipc.TypeRotaryTurn:
		var e RotaryTurn
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal RotaryTurn: %w", err)
		}
		return e, nil

	case ipc.TypeResize:
		var e Resize
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal Resize: %w", err)
		}
		if e.Width <= 0 || e.Height <= 0 {
			return nil, fmt.Errorf("unmarshal Resize: width and height must be > 0")
		}
		return e, nil

	case ipc.TypeSetLineWidthMode:
		var e SetLineWidthMode
		if err := unmarshalData(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal SetLineWidthMode: %w", err)
		}
		return e, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing data")
	}
	return json.Unmarshal(data, v)
}
