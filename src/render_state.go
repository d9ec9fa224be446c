package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	State shared between the bandwidth main loop and the
 *		render thread.
 *
 * Description:	The main loop owns ingest and configuration changes;
 *		the render thread only ever reads.  One mutex guards
 *		the record, critical sections are a snapshot copy or
 *		a handful of field writes, and the render thread
 *		never touches I/O while holding the lock.
 *
 *		The generation counter increments whenever a
 *		renderer-visible field changes, so the render thread
 *		can invalidate caches (pre-built gradients) without
 *		diffing every field.
 *
 *------------------------------------------------------------------*/

import (
	"sync"
	"time"
)

type shared_render_state_s struct {
	mu sync.Mutex

	// Interpolation inputs.  A zero last_bandwidth_update means no
	// sample has arrived yet.
	current_rx_kbps       float64
	current_tx_kbps       float64
	start_rx_kbps         float64
	start_tx_kbps         float64
	last_bandwidth_update time.Time

	animation_speed        float64
	scale_animation_speed  bool
	tx_animation_direction string
	rx_animation_direction string

	interpolation_time_ms float64
	enable_interpolation  bool
	max_bandwidth_kbps    float64

	tx_color         string
	rx_color         string
	use_gradient     bool
	intensity_colors bool
	interp_mode      interp_mode_t

	direction string
	swap      bool

	fps               float64
	ddp_delay_ms      float64
	global_brightness float64
	total_leds        int
	rx_split_percent  float64

	strobe_on_max      bool
	strobe_rate_hz     float64
	strobe_duration_ms float64
	strobe_color       string

	test_mode bool

	generation uint64
}

// render_snapshot_s is the lock-free copy the render thread works
// from for one tick.
type render_snapshot_s struct {
	current_rx_kbps       float64
	current_tx_kbps       float64
	start_rx_kbps         float64
	start_tx_kbps         float64
	last_bandwidth_update time.Time

	animation_speed        float64
	scale_animation_speed  bool
	tx_animation_direction string
	rx_animation_direction string

	interpolation_time_ms float64
	enable_interpolation  bool
	max_bandwidth_kbps    float64

	tx_color         string
	rx_color         string
	use_gradient     bool
	intensity_colors bool
	interp_mode      interp_mode_t

	direction string
	swap      bool

	fps               float64
	ddp_delay_ms      float64
	global_brightness float64
	total_leds        int
	rx_split_percent  float64

	strobe_on_max      bool
	strobe_rate_hz     float64
	strobe_duration_ms float64
	strobe_color       string

	test_mode bool

	generation uint64
}

/*-------------------------------------------------------------------
 *
 * Name:        new_shared_render_state
 *
 * Purpose:     Seed the record from a config snapshot at mode entry.
 *
 *--------------------------------------------------------------------*/

func new_shared_render_state(cfg *led_config_s) *shared_render_state_s {
	var txColor, rxColor = resolve_tx_rx_colors(cfg)

	return &shared_render_state_s{
		animation_speed:        cfg.AnimationSpeed,
		scale_animation_speed:  cfg.ScaleAnimationSpeed,
		tx_animation_direction: cfg.TXAnimationDirection,
		rx_animation_direction: cfg.RXAnimationDirection,
		interpolation_time_ms:  cfg.InterpolationTimeMS,
		enable_interpolation:   cfg.EnableInterpolation,
		max_bandwidth_kbps:     cfg.MaxGbps * 1000.0 * 1000.0,
		tx_color:               txColor,
		rx_color:               rxColor,
		use_gradient:           cfg.UseGradient,
		intensity_colors:       cfg.IntensityColors,
		interp_mode:            parse_interp_mode(cfg.Interpolation),
		direction:              cfg.Direction,
		swap:                   cfg.Swap,
		fps:                    cfg.FPS,
		ddp_delay_ms:           cfg.DDPDelayMS,
		global_brightness:      cfg.GlobalBrightness,
		total_leds:             cfg.TotalLEDs,
		rx_split_percent:       cfg.RXSplitPercent,
		strobe_on_max:          cfg.StrobeOnMax,
		strobe_rate_hz:         cfg.StrobeRateHz,
		strobe_duration_ms:     cfg.StrobeDurationMS,
		strobe_color:           cfg.StrobeColor,
		test_mode:              cfg.TestTX || cfg.TestRX,
	}
}

func (s *shared_render_state_s) snapshot() render_snapshot_s {
	s.mu.Lock()
	defer s.mu.Unlock()

	return render_snapshot_s{
		current_rx_kbps:        s.current_rx_kbps,
		current_tx_kbps:        s.current_tx_kbps,
		start_rx_kbps:          s.start_rx_kbps,
		start_tx_kbps:          s.start_tx_kbps,
		last_bandwidth_update:  s.last_bandwidth_update,
		animation_speed:        s.animation_speed,
		scale_animation_speed:  s.scale_animation_speed,
		tx_animation_direction: s.tx_animation_direction,
		rx_animation_direction: s.rx_animation_direction,
		interpolation_time_ms:  s.interpolation_time_ms,
		enable_interpolation:   s.enable_interpolation,
		max_bandwidth_kbps:     s.max_bandwidth_kbps,
		tx_color:               s.tx_color,
		rx_color:               s.rx_color,
		use_gradient:           s.use_gradient,
		intensity_colors:       s.intensity_colors,
		interp_mode:            s.interp_mode,
		direction:              s.direction,
		swap:                   s.swap,
		fps:                    s.fps,
		ddp_delay_ms:           s.ddp_delay_ms,
		global_brightness:      s.global_brightness,
		total_leds:             s.total_leds,
		rx_split_percent:       s.rx_split_percent,
		strobe_on_max:          s.strobe_on_max,
		strobe_rate_hz:         s.strobe_rate_hz,
		strobe_duration_ms:     s.strobe_duration_ms,
		strobe_color:           s.strobe_color,
		test_mode:              s.test_mode,
		generation:             s.generation,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (s) push_sample
 *
 * Purpose:     Install a new bandwidth sample.
 *
 * Description:	The previous target becomes the interpolation start
 *		point; the clock restarts.  Two identical samples in
 *		a row therefore interpolate to a constant.
 *
 *--------------------------------------------------------------------*/

func (s *shared_render_state_s) push_sample(rxKbps float64, txKbps float64, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.start_rx_kbps = s.current_rx_kbps
	s.start_tx_kbps = s.current_tx_kbps
	s.current_rx_kbps = rxKbps
	s.current_tx_kbps = txKbps
	s.last_bandwidth_update = now
}

// update applies a reloaded config in place and bumps the generation
// when anything renderer-visible changed.
func (s *shared_render_state_s) update(cfg *led_config_s) {
	var txColor, rxColor = resolve_tx_rx_colors(cfg)

	s.mu.Lock()
	defer s.mu.Unlock()

	var next = shared_render_state_s{
		animation_speed:        cfg.AnimationSpeed,
		scale_animation_speed:  cfg.ScaleAnimationSpeed,
		tx_animation_direction: cfg.TXAnimationDirection,
		rx_animation_direction: cfg.RXAnimationDirection,
		interpolation_time_ms:  cfg.InterpolationTimeMS,
		enable_interpolation:   cfg.EnableInterpolation,
		max_bandwidth_kbps:     cfg.MaxGbps * 1000.0 * 1000.0,
		tx_color:               txColor,
		rx_color:               rxColor,
		use_gradient:           cfg.UseGradient,
		intensity_colors:       cfg.IntensityColors,
		interp_mode:            parse_interp_mode(cfg.Interpolation),
		direction:              cfg.Direction,
		swap:                   cfg.Swap,
		fps:                    cfg.FPS,
		ddp_delay_ms:           cfg.DDPDelayMS,
		global_brightness:      cfg.GlobalBrightness,
		total_leds:             cfg.TotalLEDs,
		rx_split_percent:       cfg.RXSplitPercent,
		strobe_on_max:          cfg.StrobeOnMax,
		strobe_rate_hz:         cfg.StrobeRateHz,
		strobe_duration_ms:     cfg.StrobeDurationMS,
		strobe_color:           cfg.StrobeColor,
		test_mode:              cfg.TestTX || cfg.TestRX,
	}

	var changed = next.animation_speed != s.animation_speed ||
		next.scale_animation_speed != s.scale_animation_speed ||
		next.tx_animation_direction != s.tx_animation_direction ||
		next.rx_animation_direction != s.rx_animation_direction ||
		next.interpolation_time_ms != s.interpolation_time_ms ||
		next.enable_interpolation != s.enable_interpolation ||
		next.max_bandwidth_kbps != s.max_bandwidth_kbps ||
		next.tx_color != s.tx_color ||
		next.rx_color != s.rx_color ||
		next.use_gradient != s.use_gradient ||
		next.intensity_colors != s.intensity_colors ||
		next.interp_mode != s.interp_mode ||
		next.direction != s.direction ||
		next.swap != s.swap ||
		next.fps != s.fps ||
		next.ddp_delay_ms != s.ddp_delay_ms ||
		next.global_brightness != s.global_brightness ||
		next.total_leds != s.total_leds ||
		next.rx_split_percent != s.rx_split_percent ||
		next.strobe_on_max != s.strobe_on_max ||
		next.strobe_rate_hz != s.strobe_rate_hz ||
		next.strobe_duration_ms != s.strobe_duration_ms ||
		next.strobe_color != s.strobe_color ||
		next.test_mode != s.test_mode

	s.animation_speed = next.animation_speed
	s.scale_animation_speed = next.scale_animation_speed
	s.tx_animation_direction = next.tx_animation_direction
	s.rx_animation_direction = next.rx_animation_direction
	s.interpolation_time_ms = next.interpolation_time_ms
	s.enable_interpolation = next.enable_interpolation
	s.max_bandwidth_kbps = next.max_bandwidth_kbps
	s.tx_color = next.tx_color
	s.rx_color = next.rx_color
	s.use_gradient = next.use_gradient
	s.intensity_colors = next.intensity_colors
	s.interp_mode = next.interp_mode
	s.direction = next.direction
	s.swap = next.swap
	s.fps = next.fps
	s.ddp_delay_ms = next.ddp_delay_ms
	s.global_brightness = next.global_brightness
	s.total_leds = next.total_leds
	s.rx_split_percent = next.rx_split_percent
	s.strobe_on_max = next.strobe_on_max
	s.strobe_rate_hz = next.strobe_rate_hz
	s.strobe_duration_ms = next.strobe_duration_ms
	s.strobe_color = next.strobe_color
	s.test_mode = next.test_mode

	if changed {
		s.generation++
	}
}
