package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Bandwidth-mode renderer.
 *
 * Description:	Runs in its own goroutine at fps, independently of
 *		the 1 Hz-ish sample stream.  Each tick it snapshots
 *		the shared state, interpolates the level between the
 *		previous and current samples, fills the RX/TX halves
 *		of the strip, schedules the frame on the delay queue,
 *		and flushes every mature frame to the fan-out.
 *
 *		The strip splits into an RX half and a TX half at
 *		rx_split_percent.  RX occupies the low indices unless
 *		swap exchanges the halves.  Four fill patterns:
 *
 *		  mirrored - each half grows outward from the centre
 *		  opposing - each half grows inward from its end
 *		  left     - both halves grow left to right
 *		  right    - both halves grow right to left
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"sync/atomic"
	"time"
)

type channel_palette_s struct {
	grad   *gradient_s
	colors []rgb_t
	solid  rgb_t
}

type renderer_s struct {
	state    *shared_render_state_s
	manager  *multi_device_manager_s
	shutdown *atomic.Bool
	done     chan struct{}

	queue frame_queue_s

	// Animation offsets persist across ticks, one per channel.
	rx_offset float64
	tx_offset float64

	// Gradient caches, rebuilt when the generation moves.
	cached_generation uint64
	have_cache        bool
	rx_palette        channel_palette_s
	tx_palette        channel_palette_s

	frame_count uint64
}

func new_renderer(state *shared_render_state_s, manager *multi_device_manager_s, shutdown *atomic.Bool) *renderer_s {
	return &renderer_s{
		state:    state,
		manager:  manager,
		shutdown: shutdown,
		done:     make(chan struct{}),
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (r) run
 *
 * Purpose:     Render loop body; call as a goroutine.
 *
 *--------------------------------------------------------------------*/

func (r *renderer_s) run() {
	defer close(r.done)

	for !r.shutdown.Load() {
		var tickStart = time.Now()
		var snap = r.state.snapshot()

		var frameDuration = time.Second
		if snap.fps > 0 {
			frameDuration = time.Duration(float64(time.Second) / snap.fps)
		}

		var frame = r.render_tick(snap, tickStart)

		r.queue.push(tickStart.Add(delay_duration(snap.ddp_delay_ms)), frame)

		for _, ready := range r.queue.pop_ready(time.Now()) {
			apply_global_brightness(ready, snap.global_brightness)
			r.manager.send_frame(ready)
		}

		r.frame_count++

		var elapsed = time.Since(tickStart)
		if elapsed < frameDuration {
			time.Sleep(frameDuration - elapsed)
		}
	}
}

// wait_done blocks until the loop drains, bounded by the timeout.
func (r *renderer_s) wait_done(timeout time.Duration) {
	select {
	case <-r.done:
	case <-time.After(timeout):
		logger.Warn("render thread did not drain in time")
	}
}

func (r *renderer_s) render_tick(snap render_snapshot_s, now time.Time) []byte {
	r.refresh_palettes(snap)

	var rxLevel = interpolated_level(snap.start_rx_kbps, snap.current_rx_kbps,
		snap.last_bandwidth_update, now, snap.enable_interpolation,
		snap.interpolation_time_ms, snap.max_bandwidth_kbps)
	var txLevel = interpolated_level(snap.start_tx_kbps, snap.current_tx_kbps,
		snap.last_bandwidth_update, now, snap.enable_interpolation,
		snap.interpolation_time_ms, snap.max_bandwidth_kbps)

	var rxPct, txPct float64
	if snap.max_bandwidth_kbps > 0 {
		rxPct = rxLevel / snap.max_bandwidth_kbps
		txPct = txLevel / snap.max_bandwidth_kbps
	}

	// Scroll the palettes.
	var rxSpeed, txSpeed = snap.animation_speed, snap.animation_speed
	if snap.scale_animation_speed {
		rxSpeed *= math.Min(rxPct, 1)
		txSpeed *= math.Min(txPct, 1)
	}
	r.rx_offset = advance_animation_offset(r.rx_offset, rxSpeed, snap.total_leds)
	r.tx_offset = advance_animation_offset(r.tx_offset, txSpeed, snap.total_leds)

	return render_bandwidth_frame(snap, r.rx_palette, r.tx_palette, r.rx_offset, r.tx_offset, rxPct, txPct, r.frame_count)
}

func (r *renderer_s) refresh_palettes(snap render_snapshot_s) {
	if r.have_cache && snap.generation == r.cached_generation {
		return
	}

	var build = func(colorStr string) channel_palette_s {
		var grad, colors, solid, err = build_gradient_from_color(colorStr, snap.use_gradient, snap.interp_mode)
		if err != nil {
			logger.Warn("bad colour config, using white", "colour", colorStr, "err", err)
			return channel_palette_s{solid: rgb_t{R: 255, G: 255, B: 255}}
		}
		return channel_palette_s{grad: grad, colors: colors, solid: solid}
	}

	r.rx_palette = build(snap.rx_color)
	r.tx_palette = build(snap.tx_color)
	r.cached_generation = snap.generation
	r.have_cache = true
}

/*-------------------------------------------------------------------
 *
 * Name:        interpolated_level
 *
 * Purpose:     Level shown this tick, in kbps.
 *
 * Description:	t = clamp((now-last)/interp_time, 0, 1) walks the
 *		value from the previous sample to the current one, so
 *		the meter glides instead of stepping once a second.
 *		Disabled interpolation shows the current sample
 *		directly.  Output is capped at the configured max.
 *
 *--------------------------------------------------------------------*/

func interpolated_level(start float64, current float64, last time.Time, now time.Time, enabled bool, interpMS float64, maxKbps float64) float64 {
	var v = current

	if enabled && interpMS > 0 && !last.IsZero() {
		var t = now.Sub(last).Seconds() * 1000.0 / interpMS
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		v = start + (current-start)*t
	}

	if maxKbps > 0 && v > maxKbps {
		v = maxKbps
	}
	return v
}

/*-------------------------------------------------------------------
 *
 * Name:        render_bandwidth_frame
 *
 * Purpose:     Produce the full 3*total_leds frame for one tick.
 *
 * Inputs:	rxPct/txPct - channel levels as a fraction of max.
 *		Values above 1.0 are legal (test injection) and light
 *		the whole half plus arm the strobe.
 *
 *--------------------------------------------------------------------*/

func render_bandwidth_frame(snap render_snapshot_s, rxPal channel_palette_s, txPal channel_palette_s, rxOffset float64, txOffset float64, rxPct float64, txPct float64, frameCount uint64) []byte {
	var frame = make([]byte, snap.total_leds*3)

	var rxCount = int(math.Round(float64(snap.total_leds) * snap.rx_split_percent / 100.0))
	if rxCount > snap.total_leds {
		rxCount = snap.total_leds
	}

	// RX normally owns the low indices; swap exchanges the halves.
	var rxStart, rxEnd = 0, rxCount
	var txStart, txEnd = rxCount, snap.total_leds
	if snap.swap {
		txStart, txEnd = 0, snap.total_leds-rxCount
		rxStart, rxEnd = snap.total_leds-rxCount, snap.total_leds
	}

	var rxIsLeft = rxStart < txStart || txStart == txEnd

	fill_channel(frame, rxStart, rxEnd, snap.direction, rxIsLeft, rxPct,
		func(pos float64, level float64) rgb_t {
			return gradient_sample(rxPal.grad, rxPal.colors, rxPal.solid, pos, rxOffset,
				snap.rx_animation_direction, snap.intensity_colors, level)
		})
	fill_channel(frame, txStart, txEnd, snap.direction, !rxIsLeft, txPct,
		func(pos float64, level float64) rgb_t {
			return gradient_sample(txPal.grad, txPal.colors, txPal.solid, pos, txOffset,
				snap.tx_animation_direction, snap.intensity_colors, level)
		})

	// Strobe replaces a maxed channel's half for the configured slice
	// of each cycle.  Cycle time counts in rendered frames.
	if snap.strobe_on_max && snap.strobe_rate_hz > 0 && snap.fps > 0 {
		var frameTimeMS = 1000.0 / snap.fps
		var cycleMS = 1000.0 / snap.strobe_rate_hz
		var phase = math.Mod(float64(frameCount)*frameTimeMS, cycleMS)

		if phase < snap.strobe_duration_ms {
			var strobe = rgb_from_hex_or(snap.strobe_color, rgb_t{R: 255, G: 255, B: 255})
			if rxPct >= 1.0 {
				paint_range(frame, rxStart, rxEnd, strobe)
			}
			if txPct >= 1.0 {
				paint_range(frame, txStart, txEnd, strobe)
			}
		}
	}

	return frame
}

/*-------------------------------------------------------------------
 *
 * Name:        fill_channel
 *
 * Purpose:     Light one half of the strip according to its level
 *		and the configured fill pattern.
 *
 * Inputs:	colorAt(pos, level) - palette lookup; pos 0 is the
 *		base of the fill, 1 its far end.
 *
 * Description:	k counts LEDs outward from the fill origin:
 *
 *		  mirrored - origin at the centre boundary
 *		  opposing - origin at the outer end
 *		  left     - origin at the low-index edge
 *		  right    - origin at the high-index edge
 *
 *		isLeftHalf flips which physical end "centre" means.
 *
 *--------------------------------------------------------------------*/

func fill_channel(frame []byte, start int, end int, direction string, isLeftHalf bool, pct float64, colorAt func(pos float64, level float64) rgb_t) {
	var n = end - start
	if n <= 0 {
		return
	}

	var level = math.Min(pct, 1.0)
	var lit = int(math.Round(level * float64(n)))
	if lit > n {
		lit = n
	}

	for k := 0; k < lit; k++ {
		var idx int

		switch direction {
		case "mirrored":
			if isLeftHalf {
				idx = end - 1 - k
			} else {
				idx = start + k
			}
		case "opposing":
			if isLeftHalf {
				idx = start + k
			} else {
				idx = end - 1 - k
			}
		case "right":
			idx = end - 1 - k
		default: // "left"
			idx = start + k
		}

		var c = colorAt(float64(k)/float64(n), level)
		frame[idx*3] = c.R
		frame[idx*3+1] = c.G
		frame[idx*3+2] = c.B
	}
}

func paint_range(frame []byte, start int, end int, c rgb_t) {
	for i := start; i < end; i++ {
		frame[i*3] = c.R
		frame[i*3+1] = c.G
		frame[i*3+2] = c.B
	}
}
