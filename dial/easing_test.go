package dial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEasing(t *testing.T) {
	cases := map[string]Easing{
		"":             DefaultEasing,
		"linear":       EaseLinear,
		"ease_in":      EaseIn,
		"EaseOut":      EaseOut,
		" ease_in_out": EaseInOut,
	}
	for in, want := range cases {
		got, err := ParseEasing(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseEasing("bounce")
	assert.Error(t, err)
}

func TestEasing_Endpoints(t *testing.T) {
	for _, e := range []Easing{EaseLinear, EaseIn, EaseOut, EaseInOut, Easing("unknown")} {
		assert.InDelta(t, 0, e.Apply(0), 1e-12, string(e))
		assert.InDelta(t, 1, e.Apply(1), 1e-12, string(e))
		assert.InDelta(t, 0, e.Apply(-3), 1e-12, string(e))
		assert.InDelta(t, 1, e.Apply(7), 1e-12, string(e))
	}
}

func TestEasing_Shapes(t *testing.T) {
	assert.InDelta(t, 0.25, EaseLinear.Apply(0.25), 1e-12)
	assert.InDelta(t, 0.125, EaseIn.Apply(0.5), 1e-12)
	assert.InDelta(t, 0.875, EaseOut.Apply(0.5), 1e-12)
	assert.InDelta(t, 0.5, EaseInOut.Apply(0.5), 1e-12)
	assert.Less(t, EaseInOut.Apply(0.2), 0.2)
	assert.Greater(t, EaseInOut.Apply(0.8), 0.8)
}

func TestEasing_Monotonic(t *testing.T) {
	for _, e := range []Easing{EaseLinear, EaseIn, EaseOut, EaseInOut} {
		prev := -1.0
		for i := 0; i <= 50; i++ {
			v := e.Apply(float64(i) / 50)
			require.GreaterOrEqual(t, v, prev, string(e))
			prev = v
		}
	}
}
