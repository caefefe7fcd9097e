package dial

import (
	"errors"
	"fmt"
	"math"
)

// ============================================================================
// Geometry Engine
// ============================================================================
// Pure functions mapping between normalized value, arc length, circumference
// and rotation angle. Angles are radians, 0 at 3 o'clock, increasing clockwise
// (screen coordinates, y grows downward).
// ============================================================================

const (
	// DefaultStartAngle is the lower-left end of the track (larger angle).
	DefaultStartAngle = 4 * math.Pi / 6
	// DefaultEndAngle is the lower-right end of the track (smaller angle).
	DefaultEndAngle = 2 * math.Pi / 6

	// IndicatorRestAngle is where the indicator points at rotation 0 (12 o'clock).
	IndicatorRestAngle = -math.Pi / 2
)

// ErrInvalidAngles is returned when the track angles are non-finite or not ordered start > end.
var ErrInvalidAngles = errors.New("dial: invalid track angles")

// ArcLength returns radius * (endAngle - startAngle). The result is signed;
// the track span is computed as ArcLength(endAngle, startAngle, radius).
func ArcLength(startAngle, endAngle, radius float64) float64 {
	return radius * (endAngle - startAngle)
}

// Circumference returns 2*pi*radius.
func Circumference(radius float64) float64 {
	return 2 * math.Pi * radius
}

// Normalize remaps value from [0,1] into [minValue, maxValue]. Values outside
// [0,1] extrapolate linearly.
func Normalize(value, minValue, maxValue float64) float64 {
	return minValue + (maxValue-minValue)*value
}

// AngleFromArcLength converts a distance along the full circle into a rotation angle.
func AngleFromArcLength(lengthAlongCircle, circumference float64) float64 {
	return (lengthAlongCircle * 2 * math.Pi) / circumference
}

// ValueToAngle maps a normalized value to the indicator rotation angle.
//
// rotationOffset is a per-variant calibration that places the track's zero
// point relative to the indicator's rest pose (see Variant). A zero radius
// has no circumference to measure along and maps every value to 0.
func ValueToAngle(value, radius, trackArcLength, rotationOffset float64) float64 {
	c := Circumference(radius)
	if c == 0 {
		return 0
	}
	length := Normalize(value-rotationOffset, 0, c-trackArcLength)
	return AngleFromArcLength(length, c)
}

// AngleToValue is the exact inverse of ValueToAngle for the same radius,
// trackArcLength and rotationOffset. A degenerate track (no drawable span)
// maps every angle to rotationOffset.
func AngleToValue(angle, radius, trackArcLength, rotationOffset float64) float64 {
	c := Circumference(radius)
	span := c - trackArcLength
	if span == 0 {
		return rotationOffset
	}
	length := angle * c / (2 * math.Pi)
	return length/span + rotationOffset
}

// Geometry is the fixed angular layout of a dial plus its current radius and center.
type Geometry struct {
	StartAngle float64
	EndAngle   float64
	CenterX    float64
	CenterY    float64
	Radius     float64
}

// Validate checks the construction-time angle contract.
func (g Geometry) Validate() error {
	if math.IsNaN(g.StartAngle) || math.IsInf(g.StartAngle, 0) ||
		math.IsNaN(g.EndAngle) || math.IsInf(g.EndAngle, 0) {
		return fmt.Errorf("%w: non-finite angle (start=%v end=%v)", ErrInvalidAngles, g.StartAngle, g.EndAngle)
	}
	if g.StartAngle <= g.EndAngle {
		return fmt.Errorf("%w: start angle %.4f must be greater than end angle %.4f", ErrInvalidAngles, g.StartAngle, g.EndAngle)
	}
	if g.StartAngle-g.EndAngle >= 2*math.Pi {
		return fmt.Errorf("%w: opening %.4f leaves no track", ErrInvalidAngles, g.StartAngle-g.EndAngle)
	}
	return nil
}

// TrackArcLength is the positive span between the two track ends, measured
// across the opening.
func (g Geometry) TrackArcLength() float64 {
	return ArcLength(g.EndAngle, g.StartAngle, g.Radius)
}

// Sweep is the angle covered by the drawn track, clockwise from StartAngle to EndAngle.
func (g Geometry) Sweep() float64 {
	return 2*math.Pi - (g.StartAngle - g.EndAngle)
}

// AngleAt returns the absolute angle of a stroke fraction along the drawn track.
func (g Geometry) AngleAt(strokeFraction float64) float64 {
	return g.StartAngle + strokeFraction*g.Sweep()
}

// IndicatorAngle returns the indicator rotation for value. It equals
// ValueToAngle for any positive radius, but the radius cancels out, so a view
// too small to draw the track still yields a finite angle.
func (g Geometry) IndicatorAngle(value, rotationOffset float64) float64 {
	return (value - rotationOffset) * g.Sweep()
}
