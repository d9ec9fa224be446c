package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Live audio mode main loop.
 *
 * Description:	The audio device callback fills the sample ring on
 *		its own thread; this loop ticks at fps, copies the
 *		window it needs off the tail, applies gain, and hands
 *		the window to whichever sub-renderer the config picks:
 *
 *		  vu           - stereo peak meters
 *		  spectrogram  - scrolling 2-D voiceprint (needs matrix)
 *		  (neither)    - FFT spectrum, 2-D bars when matrix
 *		                 mode is on, 1-D strip otherwise
 *
 *		The VU window is fixed at 512 samples for fast
 *		response; the FFT spectrum uses fft_window_size and
 *		the spectrogram spectrogram_window_size.
 *
 *------------------------------------------------------------------*/

import (
	"time"
)

const vu_window_samples = 512

/*-------------------------------------------------------------------
 *
 * Name:        run_live_mode
 *
 * Purpose:     Drive the strip from live audio until quit or a
 *		config change forces an exit.
 *
 *--------------------------------------------------------------------*/

func run_live_mode(cfg *led_config_s, ctx mode_ctx_s) (mode_exit_reason_t, error) {
	var capture, err = open_audio_capture(cfg.AudioDevice)
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer capture.close()

	manager, err := new_multi_device_manager(multi_device_config_from(cfg))
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer manager.close()

	var sub = ctx.bus.subscribe()
	defer sub.unsubscribe()

	var current = cfg
	var params = live_params_from(cfg)

	var txColor, rxColor = resolve_tx_rx_colors(cfg)
	var interp = parse_interp_mode(cfg.Interpolation)
	var leftPal = build_palette(rxColor, cfg.UseGradient, interp)
	var rightPal = build_palette(txColor, cfg.UseGradient, interp)
	var spectrumPal = build_spectrum_palette(cfg)

	var vuState = new_vu_state(cfg)
	var spectrumState = new_spectrum_state(cfg.TotalLEDs)
	var specState = new_spectrogram_state(max_int(cfg.Matrix2DWidth, 1), max_int(cfg.Matrix2DHeight, 1))

	var queue frame_queue_s
	var frameCount uint64

	logger.Info("live audio mode running",
		"device", capture.device_name, "rate", capture.sample_rate,
		"channels", capture.channels, "vu", cfg.VU, "spectrogram", cfg.Spectrogram)

	for {
		var tickStart = time.Now()
		frameCount++

		select {
		case <-ctx.quit:
			return MODE_EXIT_USER_QUIT, nil
		default:
		}

		if sub.changed() {
			var next, err = config_load()
			if err != nil {
				logger.Warn("config reload failed", "err", err)
			} else {
				if next.Mode != "live" {
					logger.Info("mode changed", "to", next.Mode)
					return MODE_EXIT_MODE_CHANGED, nil
				}
				if structural_change(current, next) {
					logger.Info("structural config change, recycling live mode")
					return MODE_EXIT_MODE_CHANGED, nil
				}

				if next.Color != current.Color || next.TXColor != current.TXColor ||
					next.RXColor != current.RXColor || next.UseGradient != current.UseGradient ||
					next.Interpolation != current.Interpolation {
					txColor, rxColor = resolve_tx_rx_colors(next)
					interp = parse_interp_mode(next.Interpolation)
					leftPal = build_palette(rxColor, next.UseGradient, interp)
					rightPal = build_palette(txColor, next.UseGradient, interp)
					spectrumPal = build_spectrum_palette(next)
				}

				if next.Matrix2DWidth != current.Matrix2DWidth ||
					next.Matrix2DHeight != current.Matrix2DHeight {
					specState = new_spectrogram_state(max_int(next.Matrix2DWidth, 1), max_int(next.Matrix2DHeight, 1))
				}

				params = live_params_from(next)
				current = next
			}
		}

		// Copy the tail window and apply gain.
		var window = vu_window_samples
		if !current.VU {
			window = current.FFTWindowSize
		}
		if current.Spectrogram {
			window = current.SpectrogramWindowSize
		}
		var samples = capture.ring.tail(window * capture.channels)

		if current.AudioGain != 0 {
			var gain = float32(1.0 + current.AudioGain/100.0)
			for i := range samples {
				samples[i] *= gain
			}
		}

		var frame []byte
		switch {
		case current.Spectrogram && current.Matrix2DEnabled:
			frame = render_spectrogram(specState, samples, capture.channels, current.SpectrogramWindowSize, params, spectrumPal)
		case current.VU:
			frame = render_vu(vuState, samples, capture.channels, params, leftPal, rightPal, frameCount, tickStart)
		case current.Matrix2DEnabled:
			frame = render_spectrum_matrix(spectrumState, samples, capture.channels, current.FFTWindowSize, params, spectrumPal)
		default:
			frame = render_spectrum(spectrumState, samples, capture.channels, current.FFTWindowSize, params, spectrumPal)
		}

		queue.push(tickStart.Add(delay_duration(current.DDPDelayMS)), frame)
		for _, ready := range queue.pop_ready(time.Now()) {
			apply_global_brightness(ready, current.GlobalBrightness)
			manager.send_frame(ready)
		}

		var frameDuration = time.Duration(float64(time.Second) / current.FPS)
		var elapsed = time.Since(tickStart)
		if elapsed < frameDuration {
			time.Sleep(frameDuration - elapsed)
		}
	}
}

func build_palette(colorStr string, useGradient bool, mode interp_mode_t) channel_palette_s {
	var grad, colors, solid, err = build_gradient_from_color(colorStr, useGradient, mode)
	if err != nil {
		logger.Warn("bad colour config, using white", "colour", colorStr, "err", err)
		return channel_palette_s{solid: rgb_t{R: 255, G: 255, B: 255}}
	}
	return channel_palette_s{grad: grad, colors: colors, solid: solid}
}

// build_spectrum_palette always produces a usable gradient; spectrum
// views look wrong with a single flat colour, so an empty colour
// config falls back to the rainbow.
func build_spectrum_palette(cfg *led_config_s) channel_palette_s {
	var colorStr = cfg.Color
	if colorStr == "" {
		colorStr = default_rainbow
	}
	return build_palette(resolve_color_string(colorStr), true, parse_interp_mode(cfg.Interpolation))
}
