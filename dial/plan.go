package dial

import (
	"fmt"
	"math"
	"time"
)

// ============================================================================
// Track Animator
// ============================================================================
// Planners are pure: (from, to, gap, duration) -> Plan. Nothing here talks to
// a renderer; Surface.dispatch is the only step that hands a Plan over.
//
// Stroke fractions run 0 -> 1 along the drawn track, clockwise from the start
// angle. The two-sided track treats 0.5 as its center.
// ============================================================================

// Segment identifies one drawable arc of a dial scene.
type Segment int

const (
	// SegmentTrack is the single-arc track of the base and small variants.
	SegmentTrack Segment = iota
	// SegmentLeftTrack and SegmentRightTrack split the two-sided track at the center.
	SegmentLeftTrack
	SegmentRightTrack
	// SegmentStartCap and SegmentEndCap are the short decorative caps at each extremity.
	SegmentStartCap
	SegmentEndCap
	// SegmentHighlight reflects the current value.
	SegmentHighlight
)

func (s Segment) String() string {
	switch s {
	case SegmentTrack:
		return "track"
	case SegmentLeftTrack:
		return "left_track"
	case SegmentRightTrack:
		return "right_track"
	case SegmentStartCap:
		return "start_cap"
	case SegmentEndCap:
		return "end_cap"
	case SegmentHighlight:
		return "highlight"
	default:
		return fmt.Sprintf("segment(%d)", int(s))
	}
}

// Property is an animatable layer property.
type Property int

const (
	// StrokeStart and StrokeEnd trim an arc to a stroke-fraction range.
	StrokeStart Property = iota
	StrokeEnd
	// Rotation is the indicator angle in radians, relative to IndicatorRestAngle.
	Rotation
)

func (p Property) String() string {
	switch p {
	case StrokeStart:
		return "stroke_start"
	case StrokeEnd:
		return "stroke_end"
	case Rotation:
		return "rotation"
	default:
		return fmt.Sprintf("property(%d)", int(p))
	}
}

// Waypoint is one keyframe: Value is reached at KeyTime (fraction of duration).
type Waypoint struct {
	KeyTime float64
	Value   float64
}

// Channel is the keyframe sequence for one (segment, property) pair.
type Channel struct {
	Segment   Segment
	Property  Property
	Waypoints []Waypoint
}

// Values returns the waypoint values in order.
func (c Channel) Values() []float64 {
	out := make([]float64, len(c.Waypoints))
	for i, w := range c.Waypoints {
		out[i] = w.Value
	}
	return out
}

// KeyTimes returns the waypoint key-times in order.
func (c Channel) KeyTimes() []float64 {
	out := make([]float64, len(c.Waypoints))
	for i, w := range c.Waypoints {
		out[i] = w.KeyTime
	}
	return out
}

// Plan is the full animation plan for one transition. All channels share key-times.
// A Plan with no channels is a no-op.
type Plan struct {
	Duration time.Duration
	Channels []Channel
}

// Empty reports whether the plan animates nothing.
func (p Plan) Empty() bool {
	return len(p.Channels) == 0
}

// Channel looks up the channel for (seg, prop).
func (p Plan) Channel(seg Segment, prop Property) (Channel, bool) {
	for _, c := range p.Channels {
		if c.Segment == seg && c.Property == prop {
			return c, true
		}
	}
	return Channel{}, false
}

// KeyTimes returns the shared key-times, or nil for an empty plan.
func (p Plan) KeyTimes() []float64 {
	if p.Empty() {
		return nil
	}
	return p.Channels[0].KeyTimes()
}

// Crossing classifies a transition relative to the track center.
type Crossing int

const (
	SameSide Crossing = iota
	CrossesLeftToRight
	CrossesRightToLeft
)

func (c Crossing) String() string {
	switch c {
	case CrossesLeftToRight:
		return "left_to_right"
	case CrossesRightToLeft:
		return "right_to_left"
	default:
		return "same_side"
	}
}

const center = 0.5

// Classify decides whether from -> to crosses the center. The "from" side is
// boundary-inclusive, the "to" side strict, so a transition starting exactly
// at the center can only match the direction its target lies in.
func Classify(from, to float64) Crossing {
	switch {
	case from <= center && to > center:
		return CrossesLeftToRight
	case from >= center && to < center:
		return CrossesRightToLeft
	default:
		return SameSide
	}
}

// CenterKeyTime is the fraction of the animation at which a crossing transition
// passes the center: proportional to the value distance already travelled.
// Callers must not pass from == to.
func CenterKeyTime(from, to float64) float64 {
	dTotal := math.Abs(from - to)
	dFrom := math.Abs(center - from)
	dTo := math.Abs(center - to)
	pFrom := dFrom / dTotal
	pTo := dTo / dTotal
	if dFrom > dTo {
		return math.Max(pFrom, pTo)
	}
	return math.Min(pFrom, pTo)
}

// TwoSidedState is the resting trim of every animated two-sided property at a value.
type TwoSidedState struct {
	LeftTrackEnd    float64
	RightTrackStart float64
	HighlightStart  float64
	HighlightEnd    float64
}

// TwoSidedStateAt returns the resting trims for value. The gap is carved out
// on whichever side of the indicator faces away from the center.
func TwoSidedStateAt(value, gap float64) TwoSidedState {
	switch {
	case value < center:
		return TwoSidedState{
			LeftTrackEnd:    value - gap,
			RightTrackStart: value,
			HighlightStart:  value,
			HighlightEnd:    center,
		}
	case value > center:
		return TwoSidedState{
			LeftTrackEnd:    value,
			RightTrackStart: value + gap,
			HighlightStart:  center,
			HighlightEnd:    value,
		}
	default:
		return TwoSidedState{
			LeftTrackEnd:    center - gap,
			RightTrackStart: center + gap,
			HighlightStart:  center,
			HighlightEnd:    center,
		}
	}
}

// PlanTwoSided plans the center-split track transition from -> to.
func PlanTwoSided(from, to, gap float64, duration time.Duration) Plan {
	if from == to {
		return Plan{Duration: duration}
	}

	var leftEnd, rightStart, hlStart, hlEnd []float64
	var keyTimes []float64

	switch Classify(from, to) {
	case CrossesLeftToRight:
		leftEnd = []float64{from - gap, center - gap, to}
		rightStart = []float64{from, center + gap, to + gap}
		hlStart = []float64{from, center, center}
		hlEnd = []float64{center, center, to}
		keyTimes = []float64{0, CenterKeyTime(from, to), 1}

	case CrossesRightToLeft:
		leftEnd = []float64{from, center - gap, to - gap}
		rightStart = []float64{from + gap, center + gap, to}
		hlStart = []float64{center, center, to}
		hlEnd = []float64{from, center, center}
		keyTimes = []float64{0, CenterKeyTime(from, to), 1}

	default:
		keyTimes = []float64{0, 1}
		switch {
		case to == center && from > center:
			leftEnd = []float64{from, to - gap}
			rightStart = []float64{from + gap, to + gap}
			hlStart = []float64{center, center}
			hlEnd = []float64{from, center}
		case to == center:
			leftEnd = []float64{from - gap, to - gap}
			rightStart = []float64{from, to + gap}
			hlStart = []float64{from, center}
			hlEnd = []float64{center, center}
		case to < center:
			leftEnd = []float64{from - gap, to - gap}
			rightStart = []float64{from, to}
			hlStart = []float64{from, to}
			hlEnd = []float64{center, center}
		default:
			leftEnd = []float64{from, to}
			rightStart = []float64{from + gap, to + gap}
			hlStart = []float64{center, center}
			hlEnd = []float64{from, to}
		}
	}

	// A crossing that starts exactly on the center reaches the center at t=0.
	// Keep key-times strictly increasing by starting from the center waypoint.
	if len(keyTimes) == 3 && keyTimes[1] <= 0 {
		keyTimes = keyTimes[1:]
		leftEnd, rightStart, hlStart, hlEnd = leftEnd[1:], rightStart[1:], hlStart[1:], hlEnd[1:]
		keyTimes[0] = 0
	}

	return Plan{
		Duration: duration,
		Channels: []Channel{
			newChannel(SegmentLeftTrack, StrokeEnd, keyTimes, leftEnd),
			newChannel(SegmentRightTrack, StrokeStart, keyTimes, rightStart),
			newChannel(SegmentHighlight, StrokeStart, keyTimes, hlStart),
			newChannel(SegmentHighlight, StrokeEnd, keyTimes, hlEnd),
		},
	}
}

// SingleState is the resting trim of the single-arc track at a value.
type SingleState struct {
	TrackStart   float64
	HighlightEnd float64
}

// SingleStateAt returns the resting trims for value: highlight covers [0, value],
// the track resumes one gap past the indicator.
func SingleStateAt(value, gap float64) SingleState {
	return SingleState{TrackStart: value + gap, HighlightEnd: value}
}

// PlanSingle plans the single-arc track transition from -> to.
func PlanSingle(from, to, gap float64, duration time.Duration) Plan {
	if from == to {
		return Plan{Duration: duration}
	}
	keyTimes := []float64{0, 1}
	return Plan{
		Duration: duration,
		Channels: []Channel{
			newChannel(SegmentTrack, StrokeStart, keyTimes, []float64{from + gap, to + gap}),
			newChannel(SegmentHighlight, StrokeEnd, keyTimes, []float64{from, to}),
		},
	}
}

func newChannel(seg Segment, prop Property, keyTimes, values []float64) Channel {
	wps := make([]Waypoint, len(values))
	for i, v := range values {
		wps[i] = Waypoint{KeyTime: keyTimes[i], Value: v}
	}
	return Channel{Segment: seg, Property: prop, Waypoints: wps}
}
