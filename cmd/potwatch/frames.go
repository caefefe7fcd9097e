package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire frames pushed by the daemon on /ws: {type, ts, data}.

type wireFrame struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type stateInit struct {
	Value        float64 `json:"value"`
	Angle        float64 `json:"angle"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Variant      string  `json:"variant"`
	Proportional bool    `json:"proportional"`
	LineWidth    float64 `json:"line_width"`
	Gap          float64 `json:"gap"`
}

type valueChanged struct {
	Value float64 `json:"value"`
	Angle float64 `json:"angle"`
}

type layoutChanged struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	LineWidth float64 `json:"line_width"`
	Gap       float64 `json:"gap"`
}

// decodeFrame turns a raw text frame into one of stateInit, valueChanged or
// layoutChanged. Unknown types are returned as an error.
func decodeFrame(raw []byte) (any, error) {
	var f wireFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch f.Type {
	case "state_init":
		var v stateInit
		err := decodeData(f, &v)
		return v, err
	case "value_changed":
		var v valueChanged
		err := decodeData(f, &v)
		return v, err
	case "layout_changed":
		var v layoutChanged
		err := decodeData(f, &v)
		return v, err
	default:
		return nil, fmt.Errorf("unknown frame type %q", f.Type)
	}
}

func decodeData(f wireFrame, v any) error {
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", f.Type, err)
	}
	return nil
}

// formatPlain renders a decoded frame as one log line for -plain mode.
func formatPlain(v any) string {
	switch f := v.(type) {
	case stateInit:
		return fmt.Sprintf("[INIT] value=%.3f variant=%s size=%gx%g line_width=%.1f gap=%.4f",
			f.Value, f.Variant, f.Width, f.Height, f.LineWidth, f.Gap)
	case valueChanged:
		return fmt.Sprintf("[VALUE] %.3f angle=%.3f", f.Value, f.Angle)
	case layoutChanged:
		return fmt.Sprintf("[LAYOUT] %gx%g line_width=%.1f gap=%.4f", f.Width, f.Height, f.LineWidth, f.Gap)
	default:
		return fmt.Sprintf("[?] %v", v)
	}
}
