package dial

import (
	"image/color"
)

// Style is the color and stroke configuration shared by every segment.
type Style struct {
	Track     color.Color
	Highlight color.Color
	Indicator color.Color
	LineWidth float64
}

// DefaultStyle is a dark track with a bright highlight.
func DefaultStyle() Style {
	return Style{
		Track:     color.NRGBA{R: 0x3a, G: 0x3f, B: 0x4b, A: 0xff},
		Highlight: color.NRGBA{R: 0x2e, G: 0xc4, B: 0xb6, A: 0xff},
		Indicator: color.NRGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff},
		LineWidth: Base.LineWidth,
	}
}

// ArcSpec describes one arc layer: the full track arc trimmed to [StrokeStart, StrokeEnd].
type ArcSpec struct {
	Segment     Segment
	Geometry    Geometry
	Width       float64
	Color       color.Color
	RoundCap    bool
	StrokeStart float64
	StrokeEnd   float64
}

// IndicatorSpec describes the rotating indicator: a radial line from Inner to
// Outer (distances from center) at IndicatorRestAngle + Rotation.
type IndicatorSpec struct {
	Geometry Geometry
	Inner    float64
	Outer    float64
	Width    float64
	Color    color.Color
	Rotation float64
}

// Scene is a complete, freshly built set of drawables for one layout pass.
type Scene struct {
	Arcs      []ArcSpec
	Indicator IndicatorSpec
}

// Arc looks up a segment in the scene.
func (s Scene) Arc(seg Segment) (ArcSpec, bool) {
	for _, a := range s.Arcs {
		if a.Segment == seg {
			return a, true
		}
	}
	return ArcSpec{}, false
}

// BuildScene builds the drawables for a variant at a resting value, in paint
// order: caps, track, highlight. The indicator paints last.
func BuildScene(g Geometry, style Style, v Variant, value, gap float64) Scene {
	arcs := capArcs(g, style, gap)
	arcs = append(arcs, v.BuildTrack(g, style, value, gap)...)

	return Scene{
		Arcs: arcs,
		Indicator: IndicatorSpec{
			Geometry: g,
			Inner:    g.Radius * 0.45,
			Outer:    g.Radius - style.LineWidth,
			Width:    style.LineWidth * 0.6,
			Color:    style.Indicator,
			Rotation: g.IndicatorAngle(value, v.RotationOffset),
		},
	}
}

func capArcs(g Geometry, style Style, gap float64) []ArcSpec {
	return []ArcSpec{
		{
			Segment:     SegmentStartCap,
			Geometry:    g,
			Width:       style.LineWidth,
			Color:       style.Track,
			RoundCap:    true,
			StrokeStart: 0,
			StrokeEnd:   EndStrokeEnd(gap),
		},
		{
			Segment:     SegmentEndCap,
			Geometry:    g,
			Width:       style.LineWidth,
			Color:       style.Track,
			RoundCap:    true,
			StrokeStart: EndStrokeStart(gap),
			StrokeEnd:   1,
		},
	}
}

func buildSingleTrack(g Geometry, style Style, value, gap float64) []ArcSpec {
	st := SingleStateAt(value, gap)
	return []ArcSpec{
		{
			Segment:     SegmentTrack,
			Geometry:    g,
			Width:       style.LineWidth,
			Color:       style.Track,
			StrokeStart: st.TrackStart,
			StrokeEnd:   1,
		},
		{
			Segment:     SegmentHighlight,
			Geometry:    g,
			Width:       style.LineWidth,
			Color:       style.Highlight,
			StrokeStart: 0,
			StrokeEnd:   st.HighlightEnd,
		},
	}
}

func buildTwoSidedTrack(g Geometry, style Style, value, gap float64) []ArcSpec {
	st := TwoSidedStateAt(value, gap)
	return []ArcSpec{
		{
			Segment:     SegmentLeftTrack,
			Geometry:    g,
			Width:       style.LineWidth,
			Color:       style.Track,
			StrokeStart: 0,
			StrokeEnd:   st.LeftTrackEnd,
		},
		{
			Segment:     SegmentRightTrack,
			Geometry:    g,
			Width:       style.LineWidth,
			Color:       style.Track,
			StrokeStart: st.RightTrackStart,
			StrokeEnd:   1,
		},
		{
			Segment:     SegmentHighlight,
			Geometry:    g,
			Width:       style.LineWidth,
			Color:       style.Highlight,
			StrokeStart: st.HighlightStart,
			StrokeEnd:   st.HighlightEnd,
		},
	}
}
