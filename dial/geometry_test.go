package dial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry(radius float64) Geometry {
	return Geometry{
		StartAngle: DefaultStartAngle,
		EndAngle:   DefaultEndAngle,
		CenterX:    100,
		CenterY:    100,
		Radius:     radius,
	}
}

func TestArcLength_Basics(t *testing.T) {
	assert.InDelta(t, math.Pi, ArcLength(0, math.Pi, 1), 1e-12)
	assert.InDelta(t, -math.Pi, ArcLength(math.Pi, 0, 1), 1e-12)
	assert.InDelta(t, 2*math.Pi*10, Circumference(10), 1e-12)
}

func TestNormalize_Extrapolates(t *testing.T) {
	assert.InDelta(t, 5.0, Normalize(0.5, 0, 10), 1e-12)
	assert.InDelta(t, -5.0, Normalize(-0.5, 0, 10), 1e-12)
	assert.InDelta(t, 15.0, Normalize(1.5, 0, 10), 1e-12)
}

func TestAngleFromArcLength_FullCircle(t *testing.T) {
	c := Circumference(42)
	assert.InDelta(t, 2*math.Pi, AngleFromArcLength(c, c), 1e-12)
	assert.InDelta(t, math.Pi/2, AngleFromArcLength(c/4, c), 1e-12)
}

func TestValueToAngle_OffsetIsRestPose(t *testing.T) {
	g := testGeometry(95)
	for _, v := range []Variant{Base, Small, Centered} {
		assert.InDelta(t, 0, g.IndicatorAngle(v.RotationOffset, v.RotationOffset), 1e-12, v.Name)
	}
}

func TestValueToAngle_Monotonic(t *testing.T) {
	g := testGeometry(95)
	prev := math.Inf(-1)
	for i := 0; i <= 100; i++ {
		v := float64(i) / 100
		a := g.IndicatorAngle(v, Base.RotationOffset)
		require.Greater(t, a, prev, "value %.2f", v)
		prev = a
	}
}

func TestValueToAngle_SweepMatchesTrack(t *testing.T) {
	g := testGeometry(95)
	lo := g.IndicatorAngle(0, Base.RotationOffset)
	hi := g.IndicatorAngle(1, Base.RotationOffset)
	assert.InDelta(t, g.Sweep(), hi-lo, 1e-9)

	// The base variant points the value extremes at the track ends.
	assert.InDelta(t, g.StartAngle, IndicatorRestAngle+lo+2*math.Pi, 1e-9)
	assert.InDelta(t, g.EndAngle, IndicatorRestAngle+hi, 1e-9)
}

func TestIndicatorAngle_MatchesValueToAngle(t *testing.T) {
	for _, radius := range []float64{0.5, 30, 95} {
		g := testGeometry(radius)
		for _, v := range []float64{-0.2, 0, 0.35, 1, 1.5} {
			want := ValueToAngle(v, radius, g.TrackArcLength(), Small.RotationOffset)
			assert.InDelta(t, want, g.IndicatorAngle(v, Small.RotationOffset), 1e-9)
		}
	}
}

func TestValueToAngle_ZeroRadius(t *testing.T) {
	assert.Equal(t, 0.0, ValueToAngle(0.7, 0, 0, 0.5))

	a := testGeometry(0).IndicatorAngle(0.7, 0.5)
	assert.False(t, math.IsNaN(a))
}

func TestAngleToValue_RoundTrip(t *testing.T) {
	g := testGeometry(70)
	track := g.TrackArcLength()
	for _, offset := range []float64{0.5, 2.0} {
		for _, v := range []float64{-0.25, 0, 0.1, 0.5, 0.73, 1, 1.4} {
			a := ValueToAngle(v, g.Radius, track, offset)
			assert.InDelta(t, v, AngleToValue(a, g.Radius, track, offset), 1e-9)
		}
	}
}

func TestAngleToValue_DegenerateSpan(t *testing.T) {
	c := Circumference(10)
	assert.Equal(t, 0.5, AngleToValue(1.2, 10, c, 0.5))
}

func TestGeometry_TrackArcLength(t *testing.T) {
	g := testGeometry(30)
	assert.InDelta(t, 30*(2*math.Pi/6), g.TrackArcLength(), 1e-12)
	assert.InDelta(t, 2*math.Pi-2*math.Pi/6, g.Sweep(), 1e-12)
}

func TestGeometry_AngleAt(t *testing.T) {
	g := testGeometry(30)
	assert.InDelta(t, g.StartAngle, g.AngleAt(0), 1e-12)
	assert.InDelta(t, g.EndAngle+2*math.Pi, g.AngleAt(1), 1e-12)
	// Halfway along the track is 12 o'clock.
	assert.InDelta(t, 3*math.Pi/2, g.AngleAt(0.5), 1e-12)
}

func TestGeometry_Validate(t *testing.T) {
	require.NoError(t, testGeometry(10).Validate())

	cases := []struct {
		name       string
		start, end float64
	}{
		{"equal", 1, 1},
		{"reversed", 1, 2},
		{"nan", math.NaN(), 1},
		{"inf", 1, math.Inf(-1)},
		{"full circle", 2 * math.Pi, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Geometry{StartAngle: tc.start, EndAngle: tc.end}.Validate()
			assert.ErrorIs(t, err, ErrInvalidAngles)
		})
	}
}
