package dial

import (
	"fmt"
	"math"
	"strings"
)

// Easing names a timing curve applied over an animation's whole duration.
type Easing string

const (
	EaseLinear    Easing = "linear"
	EaseIn        Easing = "ease_in"
	EaseOut       Easing = "ease_out"
	EaseInOut     Easing = "ease_in_out"
	DefaultEasing        = EaseInOut
)

// ParseEasing converts a config/IPC string into an Easing. Empty selects DefaultEasing.
func ParseEasing(s string) (Easing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultEasing, nil
	case "linear":
		return EaseLinear, nil
	case "ease_in", "easein":
		return EaseIn, nil
	case "ease_out", "easeout":
		return EaseOut, nil
	case "ease_in_out", "easeinout":
		return EaseInOut, nil
	default:
		return "", fmt.Errorf("invalid easing: %s (must be linear, ease_in, ease_out, or ease_in_out)", s)
	}
}

// Apply maps linear progress t in [0,1] to eased progress in [0,1].
// Unknown easings behave as linear.
func (e Easing) Apply(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	switch e {
	case EaseIn:
		return t * t * t
	case EaseOut:
		u := 1 - t
		return 1 - u*u*u
	case EaseInOut:
		return -2*t*t*t + 3*t*t
	default:
		return t
	}
}
