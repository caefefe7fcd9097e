package main

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"potbrainz/dial"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var inputEventSize = binary.Size(inputEvent{})

func decodeInputEvent(buf []byte) (inputEvent, error) {
	var ev inputEvent
	if len(buf) < inputEventSize {
		return ev, fmt.Errorf("short input event: %d bytes", len(buf))
	}
	err := binary.Read(bytes.NewReader(buf[:inputEventSize]), binary.LittleEndian, &ev)
	return ev, err
}

// AxisDrag is a drag sample expressed as a fraction of the touch axis. The
// daemon scales it to the current view height, so it survives resizes.
type AxisDrag struct {
	Fraction float64
	Phase    dial.Phase
}

func (AxisDrag) eventMarker() {}

// inputTranslator turns raw evdev events into daemon events.
//
// Touch devices report BTN_TOUCH (or BTN_LEFT) press/release around ABS_Y
// motion; the axis position is emitted on each SYN_REPORT while touching.
// Devices that never report a touch button (a slide potentiometer behind an
// ADC, say) emit a changed sample for every axis report.
type inputTranslator struct {
	absMin, absMax int32

	touching  bool
	sawTouch  bool
	axisDirty bool
	fraction  float64
}

func newInputTranslator(cfg InputConfig) *inputTranslator {
	return &inputTranslator{absMin: cfg.AbsMin, absMax: cfg.AbsMax}
}

func (t *inputTranslator) axisFraction(v int32) float64 {
	span := float64(t.absMax - t.absMin)
	if span <= 0 {
		return 0
	}
	return clamp01(float64(v-t.absMin) / span)
}

// translate returns the daemon event for ev, or nil.
func (t *inputTranslator) translate(ev inputEvent) Event {
	switch ev.Type {
	case EV_KEY:
		if ev.Code != BTN_TOUCH && ev.Code != BTN_LEFT {
			return nil
		}
		t.sawTouch = true
		switch ev.Value {
		case evValuePress:
			if t.touching {
				return nil
			}
			t.touching = true
			return AxisDrag{Fraction: t.fraction, Phase: dial.PhaseBegan}
		case evValueRelease:
			if !t.touching {
				return nil
			}
			t.touching = false
			t.axisDirty = false
			return AxisDrag{Fraction: t.fraction, Phase: dial.PhaseEnded}
		}
		// Autorepeat (value 2) carries no new information.
		return nil

	case EV_ABS:
		if ev.Code != ABS_Y {
			return nil
		}
		t.fraction = t.axisFraction(ev.Value)
		t.axisDirty = true
		return nil

	case EV_SYN:
		if !t.axisDirty || (t.sawTouch && !t.touching) {
			return nil
		}
		t.axisDirty = false
		return AxisDrag{Fraction: t.fraction, Phase: dial.PhaseChanged}

	case EV_REL:
		if ev.Code != REL_DIAL && ev.Code != REL_WHEEL {
			return nil
		}
		if ev.Value == 0 {
			return nil
		}
		return RotaryTurn{Steps: int(ev.Value)}
	}
	return nil
}
