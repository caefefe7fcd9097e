package dial

import "math"

// MaxGap is the largest gap the dial will use. A gap of 0.5 or more would
// consume the whole track.
const MaxGap = 0.49

// proportionalLineWidthFactor ties stroke width to view size in proportional mode.
const proportionalLineWidthFactor = 0.1

// ViewSize is the smaller of the two view dimensions.
func ViewSize(width, height float64) float64 {
	return math.Min(width, height)
}

// Gap returns the stroke-fraction buffer kept between the indicator and the
// track: strokeWidth / viewSize, clamped to MaxGap when it would reach 0.5.
// A non-positive view size yields MaxGap.
func Gap(strokeWidth, viewSize float64) float64 {
	if viewSize <= 0 || math.IsNaN(strokeWidth) {
		return MaxGap
	}
	g := strokeWidth / viewSize
	switch {
	case g >= 0.5:
		return MaxGap
	case g < 0:
		return 0
	}
	return g
}

// EndStrokeStart is where the trailing end cap begins (a quarter gap before the end).
func EndStrokeStart(gap float64) float64 {
	return 1 - gap*0.25
}

// EndStrokeEnd is where the leading end cap stops (a quarter gap after the start).
func EndStrokeEnd(gap float64) float64 {
	return gap * 0.25
}

// LineWidth resolves the stroke width for a variant at the given view size.
func LineWidth(v Variant, proportional bool, width, height float64) float64 {
	if proportional {
		return ViewSize(width, height) * proportionalLineWidthFactor
	}
	return v.LineWidth
}
