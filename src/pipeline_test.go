package gowled

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_frame_queue_Ordering(t *testing.T) {
	var q frame_queue_s
	var base = time.Unix(2000, 0)

	q.push(base.Add(10*time.Millisecond), []byte{1})
	q.push(base.Add(20*time.Millisecond), []byte{2})
	q.push(base.Add(30*time.Millisecond), []byte{3})

	// Nothing mature yet.
	assert.Empty(t, q.pop_ready(base))
	assert.Equal(t, 3, q.len())

	// Two mature, strictly in enqueue order.
	var ready = q.pop_ready(base.Add(25 * time.Millisecond))
	require.Len(t, ready, 2)
	assert.Equal(t, []byte{1}, ready[0])
	assert.Equal(t, []byte{2}, ready[1])

	ready = q.pop_ready(base.Add(time.Second))
	require.Len(t, ready, 1)
	assert.Equal(t, []byte{3}, ready[0])
	assert.Zero(t, q.len())
}

func Test_frame_queue_ZeroDelayImmediate(t *testing.T) {
	var q frame_queue_s
	var now = time.Now()

	q.push(now.Add(delay_duration(0)), []byte{9})
	assert.Len(t, q.pop_ready(now), 1, "zero delay frames leave on the same tick")
}

func Test_delay_duration_SubMillisecond(t *testing.T) {
	assert.Equal(t, 1500*time.Microsecond, delay_duration(1.5))
}

func Test_apply_global_brightness(t *testing.T) {
	var frame = []byte{255, 200, 100, 1}

	apply_global_brightness(frame, 0.5)
	assert.Equal(t, []byte{128, 100, 50, 1}, frame)

	// Full brightness leaves bytes untouched.
	frame = []byte{255, 200}
	apply_global_brightness(frame, 1.0)
	assert.Equal(t, []byte{255, 200}, frame)
}

func Test_smoothing_factor(t *testing.T) {
	// frame_time / settle_time, clamped to 1.
	assert.InDelta(t, 0.1, smoothing_factor(10, 100), 1e-9)
	assert.InDelta(t, 1.0, smoothing_factor(100, 10), 1e-9)
	assert.InDelta(t, 1.0, smoothing_factor(10, 0), 1e-9)
}

/*
 * Settle time: a step from 0 to 1 reaches ~(1 - 1/e) after one time
 * constant; after several it is within epsilon of the target.  The
 * alpha formulation makes the constant equal attack_ms regardless of
 * frame rate, which is the whole point.
 */
func Test_SmoothingSettleTime(t *testing.T) {
	for _, fps := range []float64{30, 60, 144} {
		var frameTime = 1000.0 / fps
		var attack = smoothing_factor(frameTime, 100) // attack_ms = 100
		var decay = smoothing_factor(frameTime, 100)

		var v = 0.0
		var frames = int(100 / frameTime) // one attack_ms of wall clock
		for i := 0; i < frames; i++ {
			v = smooth_step(v, 1.0, attack, decay)
		}
		assert.InDeltaf(t, 0.63, v, 0.08, "one time constant at %v fps", fps)

		// Five time constants later the step has settled.
		for i := 0; i < frames*5; i++ {
			v = smooth_step(v, 1.0, attack, decay)
		}
		assert.InDeltaf(t, 1.0, v, 0.01, "settled at %v fps", fps)
	}
}

func Test_smooth_step_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var current = rapid.Float64Range(0, 1).Draw(t, "current")
		var target = rapid.Float64Range(0, 1).Draw(t, "target")
		var attack = rapid.Float64Range(0, 1).Draw(t, "attack")
		var decay = rapid.Float64Range(0, 1).Draw(t, "decay")

		var next = smooth_step(current, target, attack, decay)

		// Never overshoots, always moves toward the target.
		if target > current {
			assert.GreaterOrEqual(t, next, current)
			assert.LessOrEqual(t, next, target)
		} else {
			assert.LessOrEqual(t, next, current)
			assert.GreaterOrEqual(t, next, target)
		}
	})
}

func Test_smoothing_buffers_Resize(t *testing.T) {
	var b = new_smoothing_buffers(10)
	b.smoothed[5] = 0.5

	b.resize(20)
	assert.Len(t, b.smoothed, 20)
	assert.Len(t, b.target, 20)
	assert.Len(t, b.base_color, 20)
	assert.Equal(t, 0.5, b.smoothed[5], "resize keeps surviving values")

	b.resize(3)
	assert.Len(t, b.smoothed, 3)
	assert.Len(t, b.base_color, 3)
}

func Test_smoothing_buffers_Render(t *testing.T) {
	var b = new_smoothing_buffers(2)
	b.smoothed[0] = 1.0
	b.base_color[0] = rgb_t{R: 200, G: 100, B: 50}
	b.smoothed[1] = 0.5
	b.base_color[1] = rgb_t{R: 200, G: 100, B: 50}

	var frame = make([]byte, 6)
	b.render(frame)

	assert.Equal(t, []byte{200, 100, 50, 100, 50, 25}, frame)
}
