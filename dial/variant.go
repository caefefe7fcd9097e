package dial

import (
	"fmt"
	"strings"
	"time"
)

// TrackBuilder produces the track arcs of a scene at a resting value.
type TrackBuilder func(g Geometry, style Style, value, gap float64) []ArcSpec

// TrackPlanner produces the animation plan for a track transition.
type TrackPlanner func(from, to, gap float64, duration time.Duration) Plan

// Variant selects calibration and track strategy for a dial.
type Variant struct {
	Name string

	// RotationOffset places the track's zero point relative to the indicator rest pose.
	RotationOffset float64

	// LineWidth is the fixed stroke width; LineWidthProportional ties it to view size instead.
	LineWidth             float64
	LineWidthProportional bool

	BuildTrack TrackBuilder
	PlanTrack  TrackPlanner
}

var (
	// Base is the single-arc dial.
	Base = Variant{
		Name:           "base",
		RotationOffset: 0.5,
		LineWidth:      10,
		BuildTrack:     buildSingleTrack,
		PlanTrack:      PlanSingle,
	}

	// Small is the compact single-arc dial.
	Small = Variant{
		Name:           "small",
		RotationOffset: 2.0,
		LineWidth:      4,
		BuildTrack:     buildSingleTrack,
		PlanTrack:      PlanSingle,
	}

	// Centered splits the track at the center so the highlight grows toward either end.
	Centered = Variant{
		Name:           "centered",
		RotationOffset: 0.5,
		LineWidth:      10,
		BuildTrack:     buildTwoSidedTrack,
		PlanTrack:      PlanTwoSided,
	}
)

// VariantByName returns a preset variant.
func VariantByName(name string) (Variant, error) {
	switch strings.ToLower(name) {
	case "", "base":
		return Base, nil
	case "small":
		return Small, nil
	case "centered", "centred", "two_sided":
		return Centered, nil
	default:
		return Variant{}, fmt.Errorf("unknown dial variant %q (must be base, small, or centered)", name)
	}
}
