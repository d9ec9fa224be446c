package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Live audio renderers: VU meter, spectrogram, and FFT
 *		spectrum.
 *
 * Description:	All three consume a window of interleaved samples per
 *		tick and write a full frame.  They are pure over their
 *		state structs so the mode loop stays a thin driver and
 *		the maths is testable without an audio device.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"time"
)

// Magnitudes below this never light an LED; keeps noise floors dark.
const spectrum_threshold = 0.12

// Fixed gain between raw peak level and meter deflection.
const vu_gain = 4.0

/*
 * live_params_s distills the config fields the renderers read each
 * tick, so a reload swaps one struct instead of threading a config
 * pointer everywhere.
 */

type live_params_s struct {
	total_leds int

	direction              string
	intensity_colors       bool
	animation_speed        float64
	scale_animation_speed  bool
	tx_animation_direction string
	rx_animation_direction string

	attack_factor float64
	decay_factor  float64
	frame_time_ms float64

	strobe_on_max      bool
	strobe_rate_hz     float64
	strobe_duration_ms float64
	strobe_color       string

	peak_hold             bool
	peak_hold_duration_ms float64
	peak_hold_color       string
	peak_direction_toggle bool

	matrix_enabled     bool
	matrix_width       int
	matrix_height      int
	matrix_gradient_direction string

	spectrogram_color_mode      string
	spectrogram_scroll_speed    float64
	spectrogram_scroll_direction string
}

func live_params_from(cfg *led_config_s) live_params_s {
	var frameTime = 1000.0 / cfg.FPS

	return live_params_s{
		total_leds:             cfg.TotalLEDs,
		direction:              cfg.Direction,
		intensity_colors:       cfg.IntensityColors,
		animation_speed:        cfg.AnimationSpeed,
		scale_animation_speed:  cfg.ScaleAnimationSpeed,
		tx_animation_direction: cfg.TXAnimationDirection,
		rx_animation_direction: cfg.RXAnimationDirection,
		attack_factor:          smoothing_factor(frameTime, cfg.AttackMS),
		decay_factor:           smoothing_factor(frameTime, cfg.DecayMS),
		frame_time_ms:          frameTime,
		strobe_on_max:          cfg.StrobeOnMax,
		strobe_rate_hz:         cfg.StrobeRateHz,
		strobe_duration_ms:     cfg.StrobeDurationMS,
		strobe_color:           cfg.StrobeColor,
		peak_hold:              cfg.PeakHold,
		peak_hold_duration_ms:  cfg.PeakHoldDurationMS,
		peak_hold_color:        cfg.PeakHoldColor,
		peak_direction_toggle:  cfg.PeakDirectionToggle,
		matrix_enabled:         cfg.Matrix2DEnabled,
		matrix_width:           cfg.Matrix2DWidth,
		matrix_height:          cfg.Matrix2DHeight,
		matrix_gradient_direction: cfg.Matrix2DGradientDirection,
		spectrogram_color_mode:      cfg.SpectrogramColorMode,
		spectrogram_scroll_speed:    cfg.SpectrogramScrollSpeed,
		spectrogram_scroll_direction: cfg.SpectrogramScrollDirection,
	}
}

/*====================================================================
 *  VU meter
 *====================================================================*/

type vu_channel_state_s struct {
	smoothed         float64
	animation_offset float64
	animation_dir    string

	peak_lit   int
	peak_until time.Time
	peak_held  bool
}

type vu_state_s struct {
	left  vu_channel_state_s
	right vu_channel_state_s
}

func new_vu_state(cfg *led_config_s) *vu_state_s {
	return &vu_state_s{
		left:  vu_channel_state_s{animation_dir: cfg.RXAnimationDirection},
		right: vu_channel_state_s{animation_dir: cfg.TXAnimationDirection},
	}
}

// channel_peaks pulls the per-channel peak level out of a sample
// window.  Mono input drives both meters with the same signal.
func channel_peaks(samples []float32, channels int) (float64, float64) {
	var left, right float64

	if channels >= 2 {
		for i := 0; i+1 < len(samples); i += channels {
			var l = math.Abs(float64(samples[i]))
			var r = math.Abs(float64(samples[i+1]))
			if l > left {
				left = l
			}
			if r > right {
				right = r
			}
		}
		return left, right
	}

	for _, s := range samples {
		var v = math.Abs(float64(s))
		if v > left {
			left = v
		}
	}
	return left, left
}

/*-------------------------------------------------------------------
 *
 * Name:        fill_top_index
 *
 * Purpose:     Strip index of the highest-level lit LED for a fill.
 *
 * Description:	Mirrors the index arithmetic in fill_channel: the
 *		LED at fill distance lit-1.
 *
 *--------------------------------------------------------------------*/

func fill_top_index(start int, end int, lit int, direction string, isLeftHalf bool) int {
	var k = lit - 1
	if k < 0 {
		k = 0
	}

	switch direction {
	case "mirrored":
		if isLeftHalf {
			return end - 1 - k
		}
		return start + k
	case "opposing":
		if isLeftHalf {
			return start + k
		}
		return end - 1 - k
	case "right":
		return end - 1 - k
	default:
		return start + k
	}
}

// update_peak maintains the peak-hold record for one channel and
// flips the animation direction on a fresh peak when configured.
func (ch *vu_channel_state_s) update_peak(lit int, p live_params_s, now time.Time) {
	if !p.peak_hold {
		ch.peak_held = false
		return
	}

	var expired = ch.peak_held && now.After(ch.peak_until)

	if lit > 0 && (!ch.peak_held || expired || lit > ch.peak_lit) {
		if p.peak_direction_toggle && (!ch.peak_held || ch.peak_lit != lit) {
			if ch.animation_dir == "left" {
				ch.animation_dir = "right"
			} else {
				ch.animation_dir = "left"
			}
		}
		ch.peak_lit = lit
		ch.peak_until = now.Add(time.Duration(p.peak_hold_duration_ms * float64(time.Millisecond)))
		ch.peak_held = true
	} else if expired {
		ch.peak_held = false
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        render_vu
 *
 * Purpose:     One VU tick: smooth the channel peaks, fill the two
 *		halves, overlay peak-hold markers, strobe on clip.
 *
 *--------------------------------------------------------------------*/

func render_vu(st *vu_state_s, samples []float32, channels int, p live_params_s, left_pal channel_palette_s, right_pal channel_palette_s, frameCount uint64, now time.Time) []byte {
	var frame = make([]byte, p.total_leds*3)
	var half = p.total_leds / 2

	var leftPeak, rightPeak = channel_peaks(samples, channels)

	st.left.smoothed = smooth_step(st.left.smoothed, leftPeak, p.attack_factor, p.decay_factor)
	st.right.smoothed = smooth_step(st.right.smoothed, rightPeak, p.attack_factor, p.decay_factor)

	var rawLeft = st.left.smoothed * vu_gain
	var rawRight = st.right.smoothed * vu_gain
	var leftClip = rawLeft > 1.0
	var rightClip = rawRight > 1.0
	var left = math.Min(rawLeft, 1.0)
	var right = math.Min(rawRight, 1.0)

	// Reset per-channel animation direction when toggling is off.
	if !p.peak_direction_toggle {
		st.left.animation_dir = p.rx_animation_direction
		st.right.animation_dir = p.tx_animation_direction
	}

	var leftSpeed, rightSpeed = p.animation_speed, p.animation_speed
	if p.scale_animation_speed {
		leftSpeed *= left
		rightSpeed *= right
	}
	st.left.animation_offset = advance_animation_offset(st.left.animation_offset, leftSpeed, p.total_leds)
	st.right.animation_offset = advance_animation_offset(st.right.animation_offset, rightSpeed, p.total_leds)

	fill_channel(frame, 0, half, p.direction, true, left, func(pos float64, level float64) rgb_t {
		return gradient_sample(left_pal.grad, left_pal.colors, left_pal.solid,
			pos, st.left.animation_offset, st.left.animation_dir, p.intensity_colors, level)
	})
	fill_channel(frame, half, p.total_leds, p.direction, false, right, func(pos float64, level float64) rgb_t {
		return gradient_sample(right_pal.grad, right_pal.colors, right_pal.solid,
			pos, st.right.animation_offset, st.right.animation_dir, p.intensity_colors, level)
	})

	// Peak-hold markers ride on top of the gradient.
	var leftLit = int(math.Round(left * float64(half)))
	var rightLit = int(math.Round(right * float64(half)))
	st.left.update_peak(leftLit, p, now)
	st.right.update_peak(rightLit, p, now)

	if p.peak_hold {
		var peakColor = rgb_from_hex_or(p.peak_hold_color, rgb_t{R: 255, G: 255, B: 255})
		if st.left.peak_held {
			var idx = fill_top_index(0, half, st.left.peak_lit, p.direction, true)
			paint_range(frame, idx, idx+1, peakColor)
		}
		if st.right.peak_held {
			var idx = fill_top_index(half, p.total_leds, st.right.peak_lit, p.direction, false)
			paint_range(frame, idx, idx+1, peakColor)
		}
	}

	// Clipping strobe.
	if p.strobe_on_max && (leftClip || rightClip) && p.strobe_rate_hz > 0 {
		var cycleMS = 1000.0 / p.strobe_rate_hz
		var phase = math.Mod(float64(frameCount)*p.frame_time_ms, cycleMS)
		if phase < p.strobe_duration_ms {
			var strobe = rgb_from_hex_or(p.strobe_color, rgb_t{R: 255, G: 0, B: 0})
			if leftClip {
				paint_range(frame, 0, half, strobe)
			}
			if rightClip {
				paint_range(frame, half, p.total_leds, strobe)
			}
		}
	}

	return frame
}

/*====================================================================
 *  Spectrogram
 *====================================================================*/

type spectrogram_state_s struct {
	width  int
	height int

	// buffer[column][row] = magnitude; column 0 is the insert edge
	// for rightward scrolling.
	buffer [][]float64

	scroll_accumulator float64
}

func new_spectrogram_state(width int, height int) *spectrogram_state_s {
	var st = &spectrogram_state_s{width: width, height: height}
	st.buffer = make([][]float64, width)
	for i := range st.buffer {
		st.buffer[i] = make([]float64, height)
	}
	return st
}

/*-------------------------------------------------------------------
 *
 * Name:        spectrogram_rows
 *
 * Purpose:     Map FFT bins onto vertical rows.
 *
 * Description:	row/height is squared before indexing the bins, which
 *		spends most of the axis on the low end where music
 *		lives.
 *
 *--------------------------------------------------------------------*/

func spectrogram_rows(mags []float64, height int) []float64 {
	var rows = make([]float64, height)
	if len(mags) == 0 {
		return rows
	}

	for row := 0; row < height; row++ {
		var ratio = math.Pow(float64(row)/float64(height), 2.0)
		var bin = int(ratio * float64(len(mags)))
		if bin >= len(mags) {
			bin = len(mags) - 1
		}
		rows[row] = mags[bin] * 4.0
	}

	return rows
}

/*-------------------------------------------------------------------
 *
 * Name:        (st) scroll
 *
 * Purpose:     Advance the ring by the accumulated fractional pixels
 *		and insert the new column/row at the leading edge.
 *
 *--------------------------------------------------------------------*/

func (st *spectrogram_state_s) scroll(rows []float64, p live_params_s) {
	st.scroll_accumulator += p.spectrogram_scroll_speed * (p.frame_time_ms / 1000.0)
	var pixels = int(st.scroll_accumulator)
	st.scroll_accumulator -= float64(pixels)

	for n := 0; n < pixels; n++ {
		switch p.spectrogram_scroll_direction {
		case "right":
			copy(st.buffer[1:], st.buffer[:st.width-1])
			st.buffer[0] = append([]float64(nil), rows...)
		case "left":
			copy(st.buffer, st.buffer[1:])
			st.buffer[st.width-1] = append([]float64(nil), rows...)
		case "down":
			for col := 0; col < st.width; col++ {
				copy(st.buffer[col][1:], st.buffer[col][:st.height-1])
				var freqIdx = (col * st.height) / st.width
				if freqIdx >= st.height {
					freqIdx = st.height - 1
				}
				st.buffer[col][0] = rows[freqIdx]
			}
		case "up":
			for col := 0; col < st.width; col++ {
				copy(st.buffer[col], st.buffer[col][1:])
				var freqIdx = (col * st.height) / st.width
				if freqIdx >= st.height {
					freqIdx = st.height - 1
				}
				st.buffer[col][st.height-1] = rows[freqIdx]
			}
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        render_spectrogram
 *
 * Purpose:     One spectrogram tick: FFT, scroll, colour-map onto
 *		the matrix with serpentine indexing.
 *
 * Description:	Colour modes:
 *		  intensity - magnitude picks the gradient position.
 *		  frequency - the row picks the position; magnitude
 *		              scales brightness.
 *		  volume    - mean magnitude shifts the hue; local
 *		              magnitude scales brightness.
 *
 *--------------------------------------------------------------------*/

func render_spectrogram(st *spectrogram_state_s, samples []float32, channels int, windowSize int, p live_params_s, pal channel_palette_s) []byte {
	var frame = make([]byte, p.total_leds*3)

	var n = windowSize
	if n > len(samples)/max_int(channels, 1) {
		n = len(samples) / max_int(channels, 1)
	}
	if n < 2 {
		return frame
	}

	var mono = mono_mix(samples, channels, n)
	var mags = fft_magnitudes(mono, false)

	var rows = spectrogram_rows(mags, st.height)
	st.scroll(rows, p)

	// Normalise against the loudest cell in the whole ring so old
	// columns keep their relative level as they age out.
	var bufferMax = 0.0
	for _, col := range st.buffer {
		for _, v := range col {
			if v > bufferMax {
				bufferMax = v
			}
		}
	}
	var norm = 1.0
	if bufferMax > 0 {
		norm = 1.0 / bufferMax
	}

	var meanMag = 0.0
	for _, v := range rows {
		meanMag += v
	}
	if len(rows) > 0 {
		meanMag /= float64(len(rows))
	}

	for x := 0; x < st.width; x++ {
		for y := 0; y < st.height; y++ {
			var mag = math.Min(st.buffer[x][y]*norm, 1.0)

			var c rgb_t
			switch p.spectrogram_color_mode {
			case "frequency":
				c = pal.lookup(float64(y) / float64(st.height))
				c = scale_rgb(c, mag)
			case "volume":
				var hueShift = meanMag * norm * 0.5
				c = pal.lookup(math.Min(hueShift+mag*0.5, 1.0))
				c = scale_rgb(c, mag)
			default: // intensity
				c = pal.lookup(mag)
			}

			// Low frequencies at the bottom of the matrix.
			var ledIdx = serpentine_index(x, st.height-1-y, st.width)
			if ledIdx < p.total_leds {
				frame[ledIdx*3] = c.R
				frame[ledIdx*3+1] = c.G
				frame[ledIdx*3+2] = c.B
			}
		}
	}

	return frame
}

func (pal channel_palette_s) lookup(pos float64) rgb_t {
	if pal.grad != nil {
		return pal.grad.at(pos)
	}
	if len(pal.colors) > 1 {
		var idx = int(pos * float64(len(pal.colors)))
		if idx >= len(pal.colors) {
			idx = len(pal.colors) - 1
		}
		return pal.colors[idx]
	}
	if len(pal.colors) == 1 {
		return pal.colors[0]
	}
	return pal.solid
}

func scale_rgb(c rgb_t, level float64) rgb_t {
	return rgb_t{
		R: uint8(float64(c.R) * level),
		G: uint8(float64(c.G) * level),
		B: uint8(float64(c.B) * level),
	}
}

func max_int(a, b int) int {
	if a > b {
		return a
	}
	return b
}

/*====================================================================
 *  FFT spectrum
 *====================================================================*/

type spectrum_state_s struct {
	smoothed []float64
}

func new_spectrum_state(totalLEDs int) *spectrum_state_s {
	return &spectrum_state_s{smoothed: make([]float64, totalLEDs)}
}

func (st *spectrum_state_s) resize(n int) {
	if len(st.smoothed) == n {
		return
	}
	if len(st.smoothed) > n {
		st.smoothed = st.smoothed[:n]
	} else {
		st.smoothed = append(st.smoothed, make([]float64, n-len(st.smoothed))...)
	}
}

// spectrum_led_mapping resolves which LED a frequency position lands
// on for one half of a stereo layout.
func spectrum_led_mapping(i int, half int, totalLEDs int, direction string, leftHalf bool) (int, int) {
	if leftHalf {
		switch direction {
		case "mirrored":
			return half - 1 - i, i
		case "right":
			return i, half - 1 - i
		default: // opposing, left
			return i, i
		}
	}

	switch direction {
	case "mirrored":
		return half + i, i
	case "opposing":
		return totalLEDs - 1 - i, i
	case "right":
		return half + i, half - 1 - i
	default: // left
		return half + i, i
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        render_spectrum
 *
 * Purpose:     FFT spectrum across the strip.
 *
 * Description:	Stereo input analyses the two channels separately,
 *		one per half; mono uses the whole strip.  Each LED's
 *		magnitude goes through the 0.12 threshold, then
 *		attack/decay, then scales its gradient colour.
 *
 *--------------------------------------------------------------------*/

func render_spectrum(st *spectrum_state_s, samples []float32, channels int, windowSize int, p live_params_s, pal channel_palette_s) []byte {
	var frame = make([]byte, p.total_leds*3)
	st.resize(p.total_leds)

	if channels >= 2 {
		var half = p.total_leds / 2

		var leftMags = fft_magnitudes(extract_channel(samples, 0, channels, windowSize), true)
		var rightMags = fft_magnitudes(extract_channel(samples, 1, channels, windowSize), true)
		normalize_max(leftMags)
		normalize_max(rightMags)

		st.render_half(frame, leftMags, half, p, pal, true)
		st.render_half(frame, rightMags, half, p, pal, false)
		return frame
	}

	var mags = fft_magnitudes(mono_mix(samples, channels, windowSize), true)
	normalize_max(mags)

	for i := 0; i < p.total_leds; i++ {
		var led, freqPos = i, i
		if p.direction == "right" {
			led = p.total_leds - 1 - i
		}

		var bin = (freqPos * len(mags)) / max_int(p.total_leds, 1)
		if bin >= len(mags) {
			bin = max_int(len(mags)-1, 0)
		}

		var mag = 0.0
		if len(mags) > 0 {
			mag = math.Min(mags[bin], 1.0)
		}

		st.apply_led(frame, led, freqPos, p.total_leds, mag, p, pal)
	}

	return frame
}

func (st *spectrum_state_s) render_half(frame []byte, mags []float64, half int, p live_params_s, pal channel_palette_s, leftHalf bool) {
	for i := 0; i < half; i++ {
		var led, freqPos = spectrum_led_mapping(i, half, p.total_leds, p.direction, leftHalf)

		var bin = 0
		if half > 0 && len(mags) > 0 {
			bin = (freqPos * len(mags)) / half
			if bin >= len(mags) {
				bin = len(mags) - 1
			}
		}

		var mag = 0.0
		if len(mags) > 0 {
			mag = math.Min(mags[bin], 1.0)
		}

		st.apply_led(frame, led, freqPos, half, mag, p, pal)
	}
}

// apply_led runs one LED through threshold, smoothing, and colour.
func (st *spectrum_state_s) apply_led(frame []byte, led int, freqPos int, span int, mag float64, p live_params_s, pal channel_palette_s) {
	if led < 0 || led >= len(st.smoothed) {
		return
	}

	var target = 0.0
	if mag > spectrum_threshold {
		target = mag
	}

	st.smoothed[led] = smooth_step(st.smoothed[led], target, p.attack_factor, p.decay_factor)
	var brightness = st.smoothed[led]

	var gradientPos = 0.0
	if span > 1 {
		gradientPos = float64(freqPos) / float64(span-1)
	}

	var c = scale_rgb(pal.lookup(gradientPos), brightness)
	frame[led*3] = c.R
	frame[led*3+1] = c.G
	frame[led*3+2] = c.B
}

/*-------------------------------------------------------------------
 *
 * Name:        render_spectrum_matrix
 *
 * Purpose:     Column-bar spectrum on a 2-D matrix: frequency on X,
 *		amplitude as bar height.
 *
 *--------------------------------------------------------------------*/

func render_spectrum_matrix(st *spectrum_state_s, samples []float32, channels int, windowSize int, p live_params_s, pal channel_palette_s) []byte {
	var width, height = p.matrix_width, p.matrix_height
	var frame = make([]byte, p.total_leds*3)
	st.resize(width)

	var mags = fft_magnitudes(mono_mix(samples, channels, windowSize), true)
	normalize_max(mags)

	for i := 0; i < width; i++ {
		// Direction remaps physical columns to frequency positions.
		var physCol, freqCol = i, i
		var half = width / 2
		switch p.direction {
		case "right":
			freqCol = width - 1 - i
		case "mirrored":
			if i < half {
				freqCol = half - 1 - i
			} else {
				freqCol = i - half
			}
		case "opposing":
			if i >= half {
				freqCol = width - 1 - i
			}
		}

		var bin = 0
		if width > 0 && len(mags) > 0 {
			bin = (freqCol * len(mags)) / width
			if bin >= len(mags) {
				bin = len(mags) - 1
			}
		}
		var mag = 0.0
		if len(mags) > 0 {
			mag = math.Min(mags[bin], 1.0)
		}

		var target = 0.0
		if mag > spectrum_threshold {
			target = mag
		}
		st.smoothed[freqCol] = smooth_step(st.smoothed[freqCol], target, p.attack_factor, p.decay_factor)
		var level = st.smoothed[freqCol]

		var litHeight = int(level * float64(height))

		var gradientPos float64
		if p.matrix_gradient_direction == "vertical" {
			gradientPos = level
		} else if width > 1 {
			gradientPos = float64(freqCol) / float64(width-1)
		}
		var c = pal.lookup(gradientPos)

		for row := 0; row < height; row++ {
			var ledIdx = serpentine_index(physCol, row, width)
			if ledIdx >= p.total_leds {
				continue
			}

			// Row 0 is the top of the matrix; bars rise from the bottom.
			if row >= height-litHeight {
				frame[ledIdx*3] = c.R
				frame[ledIdx*3+1] = c.G
				frame[ledIdx*3+2] = c.B
			}
		}
	}

	return frame
}
