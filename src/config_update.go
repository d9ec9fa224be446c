package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Typed single-field configuration updates.
 *
 * Description:	The control plane patches one field at a time.  Each
 *		field name maps to a typed setter; range-bounded
 *		numeric fields are clamped silently on write, coupled
 *		fields are kept consistent here (strobe duration vs
 *		rate, spectrogram vs matrix mode), and anything not in
 *		the table fails with ErrUnknownField.
 *
 *		Values arrive as whatever the transport produced -
 *		string, bool, or number - so every setter goes through
 *		a coercion helper.  Web form controls are notorious
 *		for sending numbers as strings.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"strconv"
)

func as_f64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		var f, err = strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func as_int(v any) (int, bool) {
	var f, ok = as_f64(v)
	return int(f), ok
}

func as_bool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		var b, err = strconv.ParseBool(x)
		return b, err == nil
	}
	return false, false
}

func as_str(v any) (string, bool) {
	var s, ok = v.(string)
	return s, ok
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

/*-------------------------------------------------------------------
 *
 * Name:        config_update_field
 *
 * Purpose:     Apply one field write to an in-memory config record.
 *
 * Inputs:	cfg   - record to mutate.
 *		field - field name from the enumerated set.
 *		value - new value in transport form.
 *
 * Errors:	ErrUnknownField for names outside the set, or a typed
 *		error when the value cannot be coerced or an enum
 *		value is invalid.  The caller is responsible for
 *		config_save and the change broadcast.
 *
 *--------------------------------------------------------------------*/

func config_update_field(cfg *led_config_s, field string, value any) error {
	var bad = func() error {
		return fmt.Errorf("field %s: invalid value %v", field, value)
	}

	var set_f64 = func(dst *float64) error {
		var f, ok = as_f64(value)
		if !ok {
			return bad()
		}
		*dst = f
		return nil
	}
	var set_f64_clamped = func(dst *float64, lo, hi float64) error {
		var f, ok = as_f64(value)
		if !ok {
			return bad()
		}
		*dst = clampf(f, lo, hi)
		return nil
	}
	var set_int = func(dst *int) error {
		var i, ok = as_int(value)
		if !ok {
			return bad()
		}
		*dst = i
		return nil
	}
	var set_int_clamped = func(dst *int, lo, hi int) error {
		var i, ok = as_int(value)
		if !ok {
			return bad()
		}
		*dst = clampi(i, lo, hi)
		return nil
	}
	var set_bool = func(dst *bool) error {
		var b, ok = as_bool(value)
		if !ok {
			return bad()
		}
		*dst = b
		return nil
	}
	var set_str = func(dst *string) error {
		var s, ok = as_str(value)
		if !ok {
			return bad()
		}
		*dst = s
		return nil
	}
	var set_enum = func(dst *string, allowed ...string) error {
		var s, ok = as_str(value)
		if !ok {
			return bad()
		}
		for _, a := range allowed {
			if s == a {
				*dst = s
				return nil
			}
		}
		return fmt.Errorf("field %s: %q not in %v", field, s, allowed)
	}

	switch field {
	// Connectivity
	case "wled_ip":
		return set_str(&cfg.WLEDIP)
	case "multi_device_enabled":
		return set_bool(&cfg.MultiDeviceEnabled)
	case "multi_device_send_parallel":
		return set_bool(&cfg.MultiDeviceSendParallel)
	case "multi_device_fail_fast":
		return set_bool(&cfg.MultiDeviceFailFast)
	case "wled_devices":
		var devices, ok = value.([]wled_device_s)
		if !ok {
			return bad()
		}
		if err := validate_device_overlap(devices); err != nil {
			return err
		}
		cfg.WLEDDevices = devices
		return nil

	// Strip geometry
	case "total_leds":
		return set_int(&cfg.TotalLEDs)
	case "matrix_2d_enabled":
		return set_bool(&cfg.Matrix2DEnabled)
	case "matrix_2d_width":
		return set_int(&cfg.Matrix2DWidth)
	case "matrix_2d_height":
		return set_int(&cfg.Matrix2DHeight)
	case "matrix_2d_gradient_direction":
		return set_enum(&cfg.Matrix2DGradientDirection, "horizontal", "vertical")

	// Timing
	case "fps":
		var f, ok = as_f64(value)
		if !ok {
			return bad()
		}
		if f < 1 {
			f = 1
		}
		cfg.FPS = f
		return nil
	case "ddp_delay_ms":
		var f, ok = as_f64(value)
		if !ok {
			return bad()
		}
		if f < 0 {
			f = 0
		}
		cfg.DDPDelayMS = f
		return nil
	case "attack_ms":
		return set_f64(&cfg.AttackMS)
	case "decay_ms":
		return set_f64(&cfg.DecayMS)
	case "interpolation_time_ms":
		return set_f64(&cfg.InterpolationTimeMS)
	case "enable_interpolation":
		return set_bool(&cfg.EnableInterpolation)

	// Appearance
	case "color":
		return set_str(&cfg.Color)
	case "tx_color":
		return set_str(&cfg.TXColor)
	case "rx_color":
		return set_str(&cfg.RXColor)
	case "use_gradient":
		return set_bool(&cfg.UseGradient)
	case "intensity_colors":
		return set_bool(&cfg.IntensityColors)
	case "interpolation":
		return set_enum(&cfg.Interpolation, "linear", "basis", "catmullrom")
	case "global_brightness":
		return set_f64_clamped(&cfg.GlobalBrightness, 0, 1)

	// Animation
	case "animation_speed":
		return set_f64(&cfg.AnimationSpeed)
	case "scale_animation_speed":
		return set_bool(&cfg.ScaleAnimationSpeed)
	case "tx_animation_direction":
		return set_enum(&cfg.TXAnimationDirection, "left", "right")
	case "rx_animation_direction":
		return set_enum(&cfg.RXAnimationDirection, "left", "right")

	// Layout
	case "direction":
		return set_enum(&cfg.Direction, "mirrored", "opposing", "left", "right")
	case "swap":
		return set_bool(&cfg.Swap)
	case "rx_split_percent":
		return set_f64_clamped(&cfg.RXSplitPercent, 0, 100)

	// Strobe.  Writing the rate re-caps the duration so the duty
	// cycle can never exceed one full cycle.
	case "strobe_on_max":
		return set_bool(&cfg.StrobeOnMax)
	case "strobe_rate_hz":
		var f, ok = as_f64(value)
		if !ok {
			return bad()
		}
		cfg.StrobeRateHz = f
		if cfg.StrobeRateHz > 0 {
			var maxDuration = 1000.0 / cfg.StrobeRateHz
			if cfg.StrobeDurationMS > maxDuration {
				cfg.StrobeDurationMS = maxDuration
			}
		}
		return nil
	case "strobe_duration_ms":
		var f, ok = as_f64(value)
		if !ok {
			return bad()
		}
		var maxDuration = 1000.0
		if cfg.StrobeRateHz > 0 {
			maxDuration = 1000.0 / cfg.StrobeRateHz
		}
		cfg.StrobeDurationMS = clampf(f, 0, maxDuration)
		return nil
	case "strobe_color":
		return set_str(&cfg.StrobeColor)

	// Mode
	case "mode":
		return set_enum(&cfg.Mode, "bandwidth", "midi", "live", "relay", "webcam", "tron", "geometry", "sand")

	// Bandwidth source
	case "max_gbps":
		return set_f64(&cfg.MaxGbps)
	case "interface":
		return set_str(&cfg.Interface)
	case "ssh_host":
		return set_str(&cfg.SSHHost)
	case "ssh_user":
		return set_str(&cfg.SSHUser)
	case "sample_log_dir":
		return set_str(&cfg.SampleLogDir)

	// MIDI
	case "midi_device":
		return set_str(&cfg.MIDIDevice)
	case "midi_gradient":
		return set_bool(&cfg.MIDIGradient)
	case "midi_random_colors":
		return set_bool(&cfg.MIDIRandomColors)
	case "midi_velocity_colors":
		return set_bool(&cfg.MIDIVelocityColors)
	case "midi_one_to_one":
		return set_bool(&cfg.MIDIOneToOne)
	case "midi_channel_mode":
		return set_bool(&cfg.MIDIChannelMode)

	// Live audio
	case "audio_device":
		return set_str(&cfg.AudioDevice)
	case "audio_gain":
		return set_f64_clamped(&cfg.AudioGain, -200, 200)
	case "vu":
		return set_bool(&cfg.VU)
	case "peak_hold":
		return set_bool(&cfg.PeakHold)
	case "peak_hold_duration_ms":
		return set_f64(&cfg.PeakHoldDurationMS)
	case "peak_hold_color":
		return set_str(&cfg.PeakHoldColor)
	case "peak_direction_toggle":
		return set_bool(&cfg.PeakDirectionToggle)
	case "fft_window_size":
		return set_int(&cfg.FFTWindowSize)

	// Spectrogram.  Enabling it forces matrix mode; when the current
	// matrix shape does not cover the strip exactly, pick a
	// near-square factor pair of total_leds.
	case "spectrogram":
		var b, ok = as_bool(value)
		if !ok {
			return bad()
		}
		cfg.Spectrogram = b
		if b {
			cfg.Matrix2DEnabled = true
			if cfg.Matrix2DWidth*cfg.Matrix2DHeight != cfg.TotalLEDs {
				cfg.Matrix2DWidth, cfg.Matrix2DHeight = near_square_dims(cfg.TotalLEDs)
			}
		}
		return nil
	case "spectrogram_scroll_direction":
		return set_enum(&cfg.SpectrogramScrollDirection, "left", "right", "up", "down")
	case "spectrogram_scroll_speed":
		var f, ok = as_f64(value)
		if !ok {
			return bad()
		}
		if f < 1 {
			f = 1
		}
		cfg.SpectrogramScrollSpeed = f
		return nil
	case "spectrogram_window_size":
		return set_int(&cfg.SpectrogramWindowSize)
	case "spectrogram_color_mode":
		return set_enum(&cfg.SpectrogramColorMode, "intensity", "frequency", "volume")

	// Relay
	case "relay_listen_ip":
		return set_str(&cfg.RelayListenIP)
	case "relay_listen_port":
		return set_int(&cfg.RelayListenPort)
	case "relay_frame_width":
		return set_int(&cfg.RelayFrameWidth)
	case "relay_frame_height":
		return set_int(&cfg.RelayFrameHeight)

	// Webcam
	case "webcam_listen_addr":
		return set_str(&cfg.WebcamListenAddr)
	case "webcam_frame_width":
		return set_int(&cfg.WebcamFrameWidth)
	case "webcam_frame_height":
		return set_int(&cfg.WebcamFrameHeight)
	case "webcam_target_fps":
		var f, ok = as_f64(value)
		if !ok {
			return bad()
		}
		if f < 1 {
			f = 1
		}
		cfg.WebcamTargetFPS = f
		return nil
	case "webcam_brightness":
		return set_f64_clamped(&cfg.WebcamBrightness, 0, 2)

	// Tron
	case "tron_width":
		return set_int(&cfg.TronWidth)
	case "tron_height":
		return set_int(&cfg.TronHeight)
	case "tron_speed_ms":
		return set_f64(&cfg.TronSpeedMS)
	case "tron_reset_delay_ms":
		return set_int(&cfg.TronResetDelayMS)
	case "tron_look_ahead":
		return set_int(&cfg.TronLookAhead)
	case "tron_trail_length":
		return set_int(&cfg.TronTrailLength)
	case "tron_ai_aggression":
		return set_f64_clamped(&cfg.TronAIAggression, 0, 1)
	case "tron_num_players":
		return set_int_clamped(&cfg.TronNumPlayers, 1, 8)
	case "tron_food_mode":
		return set_bool(&cfg.TronFoodMode)
	case "tron_food_max_count":
		return set_int(&cfg.TronFoodMaxCount)
	case "tron_food_ttl_seconds":
		return set_int(&cfg.TronFoodTTLSeconds)
	case "tron_trail_fade":
		return set_bool(&cfg.TronTrailFade)
	case "tron_player_colors":
		return set_str(&cfg.TronPlayerColors)
	case "tron_diagonal_movement":
		return set_bool(&cfg.TronDiagonalMovement)

	// Geometry
	case "geometry_grid_width":
		return set_int(&cfg.GeometryGridWidth)
	case "geometry_grid_height":
		return set_int(&cfg.GeometryGridHeight)
	case "geometry_mode_select":
		return set_str(&cfg.GeometryModeSelect)
	case "geometry_mode_duration_seconds":
		var f, ok = as_f64(value)
		if !ok {
			return bad()
		}
		if f < 1 {
			f = 1
		}
		cfg.GeometryModeDurationSeconds = f
		return nil
	case "geometry_randomize_order":
		return set_bool(&cfg.GeometryRandomizeOrder)

	// Boids
	case "boid_count":
		return set_int_clamped(&cfg.BoidCount, 1, 200)
	case "boid_separation_distance":
		return set_f64_clamped(&cfg.BoidSeparationDistance, 0.01, 0.5)
	case "boid_alignment_distance":
		return set_f64_clamped(&cfg.BoidAlignmentDistance, 0.01, 1.0)
	case "boid_cohesion_distance":
		return set_f64_clamped(&cfg.BoidCohesionDistance, 0.01, 1.0)
	case "boid_max_speed":
		return set_f64_clamped(&cfg.BoidMaxSpeed, 0.001, 0.1)
	case "boid_max_force":
		return set_f64_clamped(&cfg.BoidMaxForce, 0.0001, 0.01)
	case "boid_predator_enabled":
		return set_bool(&cfg.BoidPredatorEnabled)
	case "boid_predator_count":
		return set_int_clamped(&cfg.BoidPredatorCount, 1, 20)
	case "boid_predator_speed":
		return set_f64_clamped(&cfg.BoidPredatorSpeed, 0.001, 0.15)
	case "boid_avoidance_distance":
		return set_f64_clamped(&cfg.BoidAvoidanceDistance, 0.1, 1.0)
	case "boid_chase_force":
		return set_f64_clamped(&cfg.BoidChaseForce, 0.0001, 0.01)

	// Sand
	case "sand_restart":
		return set_bool(&cfg.SandRestart)
	case "sand_grid_width":
		return set_int_clamped(&cfg.SandGridWidth, 8, 128)
	case "sand_grid_height":
		return set_int_clamped(&cfg.SandGridHeight, 8, 64)
	case "sand_spawn_enabled":
		return set_bool(&cfg.SandSpawnEnabled)
	case "sand_particle_type":
		return set_enum(&cfg.SandParticleType, "sand", "water", "stone", "fire", "smoke", "wood", "lava")
	case "sand_spawn_rate":
		return set_f64_clamped(&cfg.SandSpawnRate, 0, 1)
	case "sand_spawn_radius":
		return set_int_clamped(&cfg.SandSpawnRadius, 1, 10)
	case "sand_spawn_x":
		var hi = cfg.SandGridWidth - 1
		if hi < 0 {
			hi = 0
		}
		return set_int_clamped(&cfg.SandSpawnX, 0, hi)
	case "sand_obstacles_enabled":
		return set_bool(&cfg.SandObstaclesEnabled)
	case "sand_obstacle_density":
		return set_f64_clamped(&cfg.SandObstacleDensity, 0, 1)
	case "sand_fire_enabled":
		return set_bool(&cfg.SandFireEnabled)
	case "sand_color_sand":
		return set_str(&cfg.SandColorSand)
	case "sand_color_water":
		return set_str(&cfg.SandColorWater)
	case "sand_color_stone":
		return set_str(&cfg.SandColorStone)
	case "sand_color_fire":
		return set_str(&cfg.SandColorFire)
	case "sand_color_smoke":
		return set_str(&cfg.SandColorSmoke)
	case "sand_color_wood":
		return set_str(&cfg.SandColorWood)
	case "sand_color_lava":
		return set_str(&cfg.SandColorLava)

	// Test injection.  101% is legal: forces the over-max strobe path.
	case "test_tx":
		return set_bool(&cfg.TestTX)
	case "test_rx":
		return set_bool(&cfg.TestRX)
	case "test_tx_percent":
		return set_f64_clamped(&cfg.TestTXPercent, 0, 101)
	case "test_rx_percent":
		return set_f64_clamped(&cfg.TestRXPercent, 0, 101)
	}

	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}
