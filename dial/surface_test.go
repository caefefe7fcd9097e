package dial

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRenderer captures every call the surface makes.
type recordingRenderer struct {
	resets     int
	arcs       map[LayerHandle]ArcSpec
	indicators map[LayerHandle]IndicatorSpec
	anims      []recordedAnim
	next       LayerHandle
}

type recordedAnim struct {
	layer LayerHandle
	anim  Animation
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{
		arcs:       make(map[LayerHandle]ArcSpec),
		indicators: make(map[LayerHandle]IndicatorSpec),
	}
}

func (r *recordingRenderer) Reset() {
	r.resets++
	r.arcs = make(map[LayerHandle]ArcSpec)
	r.indicators = make(map[LayerHandle]IndicatorSpec)
}

func (r *recordingRenderer) DrawArc(spec ArcSpec) LayerHandle {
	r.next++
	r.arcs[r.next] = spec
	return r.next
}

func (r *recordingRenderer) DrawIndicator(spec IndicatorSpec) LayerHandle {
	r.next++
	r.indicators[r.next] = spec
	return r.next
}

func (r *recordingRenderer) Animate(layer LayerHandle, a Animation) {
	r.anims = append(r.anims, recordedAnim{layer: layer, anim: a})
}

func (r *recordingRenderer) segmentOf(h LayerHandle) (Segment, bool) {
	a, ok := r.arcs[h]
	return a.Segment, ok
}

func newTestSurface(t *testing.T, mutate func(*Config), opts ...Option) (*Surface, *recordingRenderer) {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	r := newRecordingRenderer()
	s, err := NewSurface(cfg, r, opts...)
	require.NoError(t, err)
	return s, r
}

func TestNewSurface_Defaults(t *testing.T) {
	s, r := newTestSurface(t, nil)

	assert.Equal(t, 0.5, s.Value())
	assert.Equal(t, 10.0, s.LineWidth())
	assert.InDelta(t, 0.05, s.Gap(), 1e-12)
	assert.InDelta(t, 95.0, s.Geometry().Radius, 1e-12)
	assert.InDelta(t, 0, s.State().IndicatorAngle, 1e-12)

	assert.Equal(t, 1, r.resets)
	assert.Len(t, r.arcs, 4) // caps, track, highlight
	assert.Len(t, r.indicators, 1)
	assert.Empty(t, r.anims)
}

func TestNewSurface_RejectsBadConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"angles":  func(c *Config) { c.StartAngle, c.EndAngle = 1, 2 },
		"width":   func(c *Config) { c.Width = 0 },
		"height":  func(c *Config) { c.Height = math.Inf(1) },
		"value":   func(c *Config) { c.Value = math.NaN() },
		"variant": func(c *Config) { c.Variant = Variant{Name: "empty"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := NewSurface(cfg, newRecordingRenderer())
			assert.Error(t, err)
		})
	}

	_, err := NewSurface(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestNewSurface_SizeErrorIsTyped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width = -1
	_, err := NewSurface(cfg, newRecordingRenderer())
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestSurface_SetValueNotifiesOnce(t *testing.T) {
	var got []float64
	s, _ := newTestSurface(t, nil, WithObserver(func(v float64) { got = append(got, v) }))

	s.SetValue(0.7, 0, EaseLinear)
	s.SetValue(0.7, 0, EaseLinear)
	s.SetValue(0.2, 0, EaseLinear)

	assert.Equal(t, []float64{0.7, 0.2}, got)
}

func TestSurface_SetValueSameValueIsNoOp(t *testing.T) {
	calls := 0
	s, r := newTestSurface(t, nil, WithObserver(func(float64) { calls++ }))

	s.SetValue(0.5, time.Second, EaseInOut)

	assert.Zero(t, calls)
	assert.Empty(t, r.anims)
}

func TestSurface_SetValueAnimatesIndicatorAndTrack(t *testing.T) {
	s, r := newTestSurface(t, nil)
	before := s.State().IndicatorAngle

	s.SetValue(0.8, 250*time.Millisecond, EaseOut)

	require.NotEmpty(t, r.anims)
	rot := r.anims[0]
	_, isIndicator := r.indicators[rot.layer]
	require.True(t, isIndicator)
	assert.Equal(t, Rotation, rot.anim.Property)
	assert.InDelta(t, before, rot.anim.From, 1e-12)
	assert.InDelta(t, s.Geometry().IndicatorAngle(0.8, Base.RotationOffset), rot.anim.To, 1e-12)
	assert.True(t, rot.anim.RetainEndValue)
	assert.Equal(t, EaseOut, rot.anim.Easing)
	assert.InDelta(t, rot.anim.To, s.State().IndicatorAngle, 1e-12)

	// Base track: track start and highlight end.
	require.Len(t, r.anims, 3)
	for _, ra := range r.anims[1:] {
		seg, ok := r.segmentOf(ra.layer)
		require.True(t, ok)
		assert.Equal(t, 250*time.Millisecond, ra.anim.Duration)
		assert.True(t, ra.anim.RetainEndValue)
		switch seg {
		case SegmentTrack:
			assert.Equal(t, StrokeStart, ra.anim.Property)
			assert.InDelta(t, 0.85, ra.anim.Final(), 1e-9)
		case SegmentHighlight:
			assert.Equal(t, StrokeEnd, ra.anim.Property)
			assert.InDelta(t, 0.8, ra.anim.Final(), 1e-9)
		default:
			t.Fatalf("unexpected segment %s", seg)
		}
	}
}

func TestSurface_CenteredDispatchesFourChannels(t *testing.T) {
	s, r := newTestSurface(t, func(c *Config) {
		c.Variant = Centered
		c.Value = 0.3
	})

	s.SetValue(0.7, time.Second, EaseInOut)

	require.Len(t, r.anims, 5)
	seen := map[Segment]int{}
	for _, ra := range r.anims[1:] {
		seg, ok := r.segmentOf(ra.layer)
		require.True(t, ok)
		seen[seg]++
		require.Len(t, ra.anim.KeyTimes, 3)
		assert.InDelta(t, 0.5, ra.anim.KeyTimes[1], 1e-9)
	}
	assert.Equal(t, map[Segment]int{SegmentLeftTrack: 1, SegmentRightTrack: 1, SegmentHighlight: 2}, seen)
}

func TestSurface_ValueNotClamped(t *testing.T) {
	s, _ := newTestSurface(t, nil)
	s.SetValue(1.3, 0, EaseLinear)
	assert.Equal(t, 1.3, s.Value())
	s.SetValue(-0.2, 0, EaseLinear)
	assert.Equal(t, -0.2, s.Value())
}

func TestDragValue(t *testing.T) {
	assert.InDelta(t, 0.0, DragValue(200, 200), 1e-12)
	assert.InDelta(t, 1.0, DragValue(0, 200), 1e-12)
	assert.InDelta(t, 0.75, DragValue(50, 200), 1e-12)
	assert.Equal(t, 0.0, DragValue(260, 200))
	assert.Equal(t, 1.0, DragValue(-40, 200))
	assert.Equal(t, 0.0, DragValue(10, 0))
}

func TestSurface_DragOnlyChangedMoves(t *testing.T) {
	var got []float64
	s, _ := newTestSurface(t, nil, WithObserver(func(v float64) { got = append(got, v) }))

	s.Drag(DragSample{Y: 20, Phase: PhaseBegan})
	s.Drag(DragSample{Y: 50, Phase: PhaseChanged})
	s.Drag(DragSample{Y: 300, Phase: PhaseChanged})
	s.Drag(DragSample{Y: -300, Phase: PhaseChanged})
	s.Drag(DragSample{Y: 100, Phase: PhaseEnded})

	assert.Equal(t, []float64{0.75, 0, 1}, got)
	assert.Equal(t, 1.0, s.Value())
}

func TestSurface_LayoutIdempotent(t *testing.T) {
	s, r := newTestSurface(t, nil)
	s.SetValue(0.3, 0, EaseLinear)

	require.NoError(t, s.Layout(300, 180))
	first := s.Scene()
	firstArcs := len(r.arcs)
	require.NoError(t, s.Layout(300, 180))

	assert.Equal(t, first, s.Scene())
	assert.Equal(t, firstArcs, len(r.arcs))
	assert.Equal(t, 3, r.resets)
	assert.InDelta(t, 85.0, s.Geometry().Radius, 1e-12)
	assert.InDelta(t, 150.0, s.Geometry().CenterX, 1e-12)
	assert.InDelta(t, 90.0, s.Geometry().CenterY, 1e-12)
}

func TestSurface_LayoutRejectsBadSize(t *testing.T) {
	s, _ := newTestSurface(t, nil)
	assert.ErrorIs(t, s.Layout(0, 100), ErrInvalidSize)
	w, h := s.Size()
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 200.0, h)
}

func TestSurface_TinyViewClampsGap(t *testing.T) {
	s, _ := newTestSurface(t, func(c *Config) {
		c.Width, c.Height = 8, 8
	})
	assert.Equal(t, MaxGap, s.Gap())
	assert.Equal(t, 0.0, s.Geometry().Radius)
}

func TestSurface_ViewNoLargerThanLineWidthKeepsAngleFinite(t *testing.T) {
	s, r := newTestSurface(t, func(c *Config) {
		c.Width, c.Height = 10, 10
	})
	require.Equal(t, 0.0, s.Geometry().Radius)

	s.SetValue(0.8, 0, EaseLinear)

	angle := s.State().IndicatorAngle
	assert.False(t, math.IsNaN(angle) || math.IsInf(angle, 0), "angle = %v", angle)
	assert.InDelta(t, (0.8-Base.RotationOffset)*s.Geometry().Sweep(), angle, 1e-12)
	require.NotEmpty(t, r.anims)
	assert.False(t, math.IsNaN(r.anims[0].anim.To))

	// Growing the view back keeps the same angle for the same value.
	require.NoError(t, s.Layout(200, 200))
	assert.InDelta(t, angle, s.State().IndicatorAngle, 1e-12)
}

func TestSurface_ProportionalSwitchOnTinyView(t *testing.T) {
	s, r := newTestSurface(t, func(c *Config) {
		c.Width, c.Height = 4, 4
		c.Value = 0.3
	})

	s.SetLineWidthProportional(true)

	assert.Equal(t, 2, r.resets)
	assert.InDelta(t, 0.4, s.LineWidth(), 1e-12)
	w, h := s.Size()
	assert.Equal(t, 4.0, w)
	assert.Equal(t, 4.0, h)
	assert.False(t, math.IsNaN(s.State().IndicatorAngle))
}

func TestSurface_ProportionalLineWidth(t *testing.T) {
	s, r := newTestSurface(t, nil)
	s.SetLineWidthProportional(true)

	assert.InDelta(t, 20.0, s.LineWidth(), 1e-12)
	assert.InDelta(t, 0.1, s.Gap(), 1e-12)
	assert.Equal(t, 2, r.resets)

	// Unchanged mode does not rebuild.
	s.SetLineWidthProportional(true)
	assert.Equal(t, 2, r.resets)
}

func TestBuildScene_RestingTrims(t *testing.T) {
	g := testGeometry(95)
	style := DefaultStyle()

	sc := BuildScene(g, style, Base, 0.3, 0.05)
	track, ok := sc.Arc(SegmentTrack)
	require.True(t, ok)
	assert.InDelta(t, 0.35, track.StrokeStart, 1e-12)
	assert.Equal(t, 1.0, track.StrokeEnd)

	hl, ok := sc.Arc(SegmentHighlight)
	require.True(t, ok)
	assert.Equal(t, 0.0, hl.StrokeStart)
	assert.InDelta(t, 0.3, hl.StrokeEnd, 1e-12)

	startCap, ok := sc.Arc(SegmentStartCap)
	require.True(t, ok)
	assert.True(t, startCap.RoundCap)
	assert.InDelta(t, 0.0125, startCap.StrokeEnd, 1e-12)

	endCap, ok := sc.Arc(SegmentEndCap)
	require.True(t, ok)
	assert.InDelta(t, 0.9875, endCap.StrokeStart, 1e-12)

	_, ok = sc.Arc(SegmentLeftTrack)
	assert.False(t, ok)
}

func TestBuildScene_TwoSided(t *testing.T) {
	sc := BuildScene(testGeometry(95), DefaultStyle(), Centered, 0.7, 0.05)

	left, _ := sc.Arc(SegmentLeftTrack)
	right, _ := sc.Arc(SegmentRightTrack)
	hl, _ := sc.Arc(SegmentHighlight)

	assert.InDelta(t, 0.7, left.StrokeEnd, 1e-12)
	assert.InDelta(t, 0.75, right.StrokeStart, 1e-12)
	assert.InDelta(t, 0.5, hl.StrokeStart, 1e-12)
	assert.InDelta(t, 0.7, hl.StrokeEnd, 1e-12)
	assert.Len(t, sc.Arcs, 5)
}

func TestVariantByName(t *testing.T) {
	for name, want := range map[string]string{"": "base", "SMALL": "small", "centred": "centered"} {
		v, err := VariantByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, v.Name)
	}
	_, err := VariantByName("dual")
	assert.Error(t, err)
}
