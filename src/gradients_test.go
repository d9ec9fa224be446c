package gowled

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_rgb_from_hex(t *testing.T) {
	var c, err = rgb_from_hex("FF8800")
	require.NoError(t, err)
	assert.Equal(t, rgb_t{R: 0xFF, G: 0x88, B: 0x00}, c)

	c, err = rgb_from_hex("#00ff41")
	require.NoError(t, err)
	assert.Equal(t, rgb_t{R: 0x00, G: 0xFF, B: 0x41}, c)

	_, err = rgb_from_hex("XYZ")
	assert.Error(t, err)

	_, err = rgb_from_hex("FFF")
	assert.Error(t, err)
}

func Test_resolve_color_string(t *testing.T) {
	assert.Equal(t, default_rainbow, resolve_color_string("rainbow"))
	assert.Equal(t, default_rainbow, resolve_color_string(" Rainbow "))
	assert.Equal(t, "AABBCC,DDEEFF", resolve_color_string("AABBCC,DDEEFF"))
}

func Test_build_gradient_from_color(t *testing.T) {
	// Single stop: solid colour, no gradient.
	var grad, colors, solid, err = build_gradient_from_color("FF0000", true, INTERP_LINEAR)
	require.NoError(t, err)
	assert.Nil(t, grad)
	assert.Len(t, colors, 1)
	assert.Equal(t, rgb_t{R: 255}, solid)

	// Multiple stops with gradients enabled.
	grad, colors, _, err = build_gradient_from_color("000000,FFFFFF", true, INTERP_LINEAR)
	require.NoError(t, err)
	require.NotNil(t, grad)
	assert.Len(t, colors, 2)

	// Gradients disabled: discrete colour list only.
	grad, colors, _, err = build_gradient_from_color("000000,FFFFFF", false, INTERP_LINEAR)
	require.NoError(t, err)
	assert.Nil(t, grad)
	assert.Len(t, colors, 2)

	_, _, _, err = build_gradient_from_color("", true, INTERP_LINEAR)
	assert.Error(t, err)
}

func Test_gradient_at_Linear(t *testing.T) {
	var grad, _, _, err = build_gradient_from_color("000000,FFFFFF", true, INTERP_LINEAR)
	require.NoError(t, err)

	assert.Equal(t, rgb_t{}, grad.at(0))
	assert.Equal(t, rgb_t{R: 255, G: 255, B: 255}, grad.at(1))

	var mid = grad.at(0.5)
	assert.InDelta(t, 127, int(mid.R), 2)
	assert.InDelta(t, 127, int(mid.G), 2)
}

func Test_gradient_at_CatmullRomHitsStops(t *testing.T) {
	var grad, colors, _, err = build_gradient_from_color("FF0000,00FF00,0000FF", true, INTERP_CATMULLROM)
	require.NoError(t, err)

	// Catmull-Rom passes through every control stop.
	for i, want := range colors {
		var pos = float64(i) / float64(len(colors)-1)
		var got = grad.at(pos)
		assert.InDeltaf(t, int(want.R), int(got.R), 1, "stop %d R", i)
		assert.InDeltaf(t, int(want.G), int(got.G), 1, "stop %d G", i)
		assert.InDeltaf(t, int(want.B), int(got.B), 1, "stop %d B", i)
	}
}

func Test_animated_gradient_pos(t *testing.T) {
	assert.InDelta(t, 0.7, animated_gradient_pos(0.5, 0.2, "left"), 1e-9)
	assert.InDelta(t, 0.3, animated_gradient_pos(0.5, 0.2, "right"), 1e-9)

	// Wraps into [0,1).
	assert.InDelta(t, 0.1, animated_gradient_pos(0.9, 0.2, "left"), 1e-9)
}

// With animation_speed = s, the offset advances s/(total/2) per frame,
// so it returns to its start after total/(2s) frames.
func Test_AnimationOffsetPeriod(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var totalLEDs = rapid.SampledFrom([]int{100, 200, 300, 600}).Draw(t, "leds")
		var speed = float64(rapid.IntRange(1, 10).Draw(t, "speed"))

		if totalLEDs%(2*int(speed)) != 0 {
			t.Skip()
		}
		var period = totalLEDs / (2 * int(speed))

		var offset = 0.0
		for i := 0; i < period; i++ {
			offset = advance_animation_offset(offset, speed, totalLEDs)
		}

		// One full wrap lands back on the start modulo float error.
		var dist = math.Min(offset, 1.0-offset)
		assert.InDelta(t, 0.0, dist, 1e-6)
	})
}

func Test_gradient_sample_IntensityColors(t *testing.T) {
	var grad, colors, solid, err = build_gradient_from_color("000000,FFFFFF", true, INTERP_LINEAR)
	require.NoError(t, err)

	// With intensity colours, position is ignored: everything uses
	// the colour at the level.
	// Positions wrap into [0,1), so 1.0 would sample the first stop;
	// mid-range values keep the lookups unambiguous.
	var a = gradient_sample(grad, colors, solid, 0.1, 0, "left", true, 0.5)
	var b = gradient_sample(grad, colors, solid, 0.9, 0, "left", true, 0.5)
	assert.Equal(t, a, b)
	assert.Equal(t, grad.at(0.5), a)

	// Without it, position matters.
	a = gradient_sample(grad, colors, solid, 0.0, 0, "left", false, 0.5)
	b = gradient_sample(grad, colors, solid, 0.5, 0, "left", false, 0.5)
	assert.NotEqual(t, a, b)
}

func Test_resolve_tx_rx_colors(t *testing.T) {
	var cfg = default_config()
	cfg.Color = "FF0000"
	cfg.TXColor = ""
	cfg.RXColor = "00FF00"

	var tx, rx = resolve_tx_rx_colors(cfg)
	assert.Equal(t, "FF0000", tx, "empty tx_color falls back to color")
	assert.Equal(t, "00FF00", rx)

	cfg.Color = ""
	tx, _ = resolve_tx_rx_colors(cfg)
	assert.Equal(t, default_rainbow, tx)
}
