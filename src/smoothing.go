package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Attack/decay smoothing for level-driven renderers.
 *
 * Description:	A raw target level snaps; a smoothed one glides.  The
 *		per-frame step is
 *
 *		  smoothed += (target - smoothed) * alpha
 *
 *		with alpha = frame_time_ms / attack_ms while rising
 *		and frame_time_ms / decay_ms while falling, each
 *		clamped to [0,1].  Writing alpha this way makes the
 *		settle time track the configured milliseconds no
 *		matter what the frame rate is.
 *
 *------------------------------------------------------------------*/

/*-------------------------------------------------------------------
 *
 * Name:        smoothing_factor
 *
 * Purpose:     Per-frame alpha for a configured time constant.
 *
 *--------------------------------------------------------------------*/

func smoothing_factor(frameTimeMS float64, settleMS float64) float64 {
	if settleMS <= 0 {
		return 1
	}
	var a = frameTimeMS / settleMS
	if a > 1 {
		return 1
	}
	return a
}

func smooth_step(current float64, target float64, attack float64, decay float64) float64 {
	if target > current {
		return current + (target-current)*attack
	}
	return current + (target-current)*decay
}

/*
 * Three parallel per-LED arrays: the smoothed brightness actually
 * shown, the instantaneous target, and the base colour the brightness
 * multiplies.  All three stay sized to the current total_leds.
 */

type smoothing_buffers_s struct {
	smoothed   []float64
	target     []float64
	base_color []rgb_t
}

func new_smoothing_buffers(n int) *smoothing_buffers_s {
	var b = &smoothing_buffers_s{}
	b.resize(n)
	return b
}

func (b *smoothing_buffers_s) resize(n int) {
	if len(b.smoothed) == n {
		return
	}

	var grow = func(f []float64) []float64 {
		if len(f) > n {
			return f[:n]
		}
		return append(f, make([]float64, n-len(f))...)
	}

	b.smoothed = grow(b.smoothed)
	b.target = grow(b.target)

	if len(b.base_color) > n {
		b.base_color = b.base_color[:n]
	} else {
		b.base_color = append(b.base_color, make([]rgb_t, n-len(b.base_color))...)
	}
}

// step advances every LED toward its target with the given factors.
func (b *smoothing_buffers_s) step(attack float64, decay float64) {
	for i := range b.smoothed {
		b.smoothed[i] = smooth_step(b.smoothed[i], b.target[i], attack, decay)
	}
}

// render writes base_color * smoothed into an RGB frame.
func (b *smoothing_buffers_s) render(frame []byte) {
	for i := range b.smoothed {
		var level = b.smoothed[i]
		var c = b.base_color[i]
		frame[i*3] = uint8(float64(c.R) * level)
		frame[i*3+1] = uint8(float64(c.G) * level)
		frame[i*3+2] = uint8(float64(c.B) * level)
	}
}
