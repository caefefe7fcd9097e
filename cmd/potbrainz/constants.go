package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03

	BTN_TOUCH = 0x14a
	BTN_LEFT  = 0x110

	ABS_Y = 0x01

	// Rotary encoder relative axis codes
	REL_DIAL  = 0x07
	REL_WHEEL = 0x08
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
)

// Dial and animation defaults
const (
	defaultViewSize       = 200
	defaultStartAngleDeg  = 120.0
	defaultEndAngleDeg    = 60.0
	defaultAnimationMS    = 300
	defaultDragDurationMS = 0
	defaultLabelFormat    = "%.2f"

	// Rotary encoder configuration defaults
	defaultRotaryValuePerStep       = 0.02 // Value change per encoder step
	defaultRotaryVelocityWindowMS   = 200  // Time window for velocity detection (ms)
	defaultRotaryVelocityMultiplier = 2.0  // Multiplier for "fast spinning"
	defaultRotaryVelocityThreshold  = 3    // Steps in window to trigger velocity mode

	// Touch axis range used when a device does not report one
	defaultAbsMin = 0
	defaultAbsMax = 4095
)
