package watermark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToRGB(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
	}{
		{"#ffffff", RGB{255, 255, 255}},
		{"#000000", RGB{0, 0, 0}},
		{"#1a2b3c", RGB{26, 43, 60}},
		{"1a2b3c", RGB{26, 43, 60}},
		{"#abc", RGB{170, 187, 204}},
		{"f0f", RGB{255, 0, 255}},
		{" #ff0000 ", RGB{255, 0, 0}},
	}

	for _, tt := range tests {
		got, err := HexToRGB(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestHexToRGB_Invalid(t *testing.T) {
	for _, in := range []string{"", "#", "#ab", "#abcd", "#zzzzzz", "#12345"} {
		_, err := HexToRGB(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestHexRoundTrip(t *testing.T) {
	colors := []RGB{
		{0, 0, 0},
		{255, 255, 255},
		{1, 2, 3},
		{170, 187, 204},
		{99, 200, 7},
	}

	for _, c := range colors {
		back, err := HexToRGB(c.Hex())
		require.NoError(t, err)
		assert.Equal(t, c, back)
	}
}

func TestHexRoundTrip_ShortForm(t *testing.T) {
	// 3-digit colors expand to their 6-digit equivalent and survive the trip.
	c, err := HexToRGB("#abc")
	require.NoError(t, err)
	assert.Equal(t, "#aabbcc", c.Hex())

	back, err := HexToRGB(c.Hex())
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestAlphaFromOpacity(t *testing.T) {
	assert.Equal(t, uint8(0), AlphaFromOpacity(0))
	assert.Equal(t, uint8(255), AlphaFromOpacity(100))
	assert.Equal(t, uint8(128), AlphaFromOpacity(50))
	assert.Equal(t, uint8(0), AlphaFromOpacity(-5))
	assert.Equal(t, uint8(255), AlphaFromOpacity(150))

	// Monotone over the whole range.
	prev := uint8(0)
	for op := 0; op <= 100; op++ {
		a := AlphaFromOpacity(op)
		assert.GreaterOrEqual(t, a, prev, "opacity %d", op)
		prev = a
	}
}
