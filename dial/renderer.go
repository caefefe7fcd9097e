package dial

import "time"

// LayerHandle is an opaque reference to a drawable owned by a Renderer.
type LayerHandle uint64

// Animation instructs a renderer to animate one property of one layer.
//
// With Values empty the property animates From -> To. Otherwise Values are
// keyframes reached at the matching KeyTimes (fractions of Duration, first 0,
// last 1). Easing applies over the whole duration. RetainEndValue keeps the
// final value once the animation completes instead of reverting.
//
// Issuing a new animation for the same layer and property replaces the old one.
type Animation struct {
	Property       Property
	From           float64
	To             float64
	Values         []float64
	KeyTimes       []float64
	Duration       time.Duration
	Easing         Easing
	RetainEndValue bool
}

// Final is the value the animation ends on.
func (a Animation) Final() float64 {
	if len(a.Values) > 0 {
		return a.Values[len(a.Values)-1]
	}
	return a.To
}

// Renderer is the rendering backend capability the Surface drives.
// Implementations own layer lifetime; Reset discards every layer.
type Renderer interface {
	Reset()
	DrawArc(spec ArcSpec) LayerHandle
	DrawIndicator(spec IndicatorSpec) LayerHandle
	Animate(layer LayerHandle, a Animation)
}
