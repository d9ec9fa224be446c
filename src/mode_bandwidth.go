package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Bandwidth mode main loop.
 *
 * Description:	Two clocks run here.  The render goroutine ticks at
 *		fps against the shared state; this loop consumes raw
 *		counter lines (typically 1 Hz), parses them into kbps
 *		samples, and promotes each sample into the shared
 *		state for the renderer to interpolate toward.
 *
 *		Config changes reconfigure the shared state in place.
 *		A mode change or a structural field change shuts the
 *		render goroutine down and returns to the orchestrator.
 *
 *------------------------------------------------------------------*/

import (
	"sync/atomic"
	"time"
)

/*-------------------------------------------------------------------
 *
 * Name:        run_bandwidth_mode
 *
 * Purpose:     Drive the strip from bandwidth samples until quit or
 *		a config change forces an exit.
 *
 *--------------------------------------------------------------------*/

func run_bandwidth_mode(cfg *led_config_s, ctx mode_ctx_s) (mode_exit_reason_t, error) {
	var manager, err = new_multi_device_manager(multi_device_config_from(cfg))
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer manager.close()

	var shutdown atomic.Bool
	var state = new_shared_render_state(cfg)

	apply_test_levels(state, cfg, time.Now())

	var renderer = new_renderer(state, manager, &shutdown)
	go renderer.run()

	var stop = func() {
		shutdown.Store(true)
		renderer.wait_done(100 * time.Millisecond)
	}

	var sub = ctx.bus.subscribe()
	defer sub.unsubscribe()

	var tracker = new_bandwidth_tracker()
	var samples = new_sample_log(cfg.SampleLogDir)
	defer samples.close()

	var current = cfg
	var noSample uint64

	logger.Info("bandwidth mode running",
		"leds", cfg.TotalLEDs, "fps", cfg.FPS, "max_gbps", cfg.MaxGbps,
		"devices", manager.device_count())

	var poll = time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-ctx.quit:
			stop()
			return MODE_EXIT_USER_QUIT, nil

		case line, ok := <-ctx.bandwidth_lines:
			if !ok {
				// Source went away.  Keep rendering; the meter
				// decays to black plus keepalives.
				ctx.bandwidth_lines = nil
				logger.Warn("bandwidth source closed")
				continue
			}

			var rxKbps, txKbps, parsed = parse_bandwidth_line(line, tracker)
			if !parsed {
				// Parse misses and first counter readings both land
				// here; neither is fatal.
				noSample++
				if noSample%100 == 1 {
					logger.Debug("bandwidth line yielded no sample", "total", noSample)
				}
				continue
			}

			var now = time.Now()
			var maxKbps = current.MaxGbps * 1000.0 * 1000.0
			if current.TestRX {
				rxKbps = maxKbps * current.TestRXPercent / 100.0
			}
			if current.TestTX {
				txKbps = maxKbps * current.TestTXPercent / 100.0
			}

			state.push_sample(rxKbps, txKbps, now)
			samples.log_sample(now, rxKbps, txKbps)

		case <-poll.C:
			if !sub.changed() {
				continue
			}

			var next, err = config_load()
			if err != nil {
				logger.Warn("config reload failed", "err", err)
				continue
			}

			if next.Mode != "bandwidth" {
				logger.Info("mode changed", "to", next.Mode)
				stop()
				return MODE_EXIT_MODE_CHANGED, nil
			}

			if structural_change(current, next) {
				logger.Info("structural config change, recycling bandwidth mode")
				stop()
				return MODE_EXIT_MODE_CHANGED, nil
			}

			state.update(next)
			apply_test_levels(state, next, time.Now())

			if next.SampleLogDir != current.SampleLogDir {
				samples.close()
				samples = new_sample_log(next.SampleLogDir)
			}

			current = next
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        apply_test_levels
 *
 * Purpose:     Seed the shared state with injected test levels.
 *
 * Description:	Test values replace the live signal for the flagged
 *		channel.  start and current are set equal so the test
 *		level shows immediately instead of ramping; values
 *		over 100% are the documented way to force strobe.
 *
 *--------------------------------------------------------------------*/

func apply_test_levels(state *shared_render_state_s, cfg *led_config_s, now time.Time) {
	if !cfg.TestRX && !cfg.TestTX {
		return
	}

	var maxKbps = cfg.MaxGbps * 1000.0 * 1000.0

	state.mu.Lock()
	defer state.mu.Unlock()

	if cfg.TestRX {
		var v = maxKbps * cfg.TestRXPercent / 100.0
		state.current_rx_kbps = v
		state.start_rx_kbps = v
	}
	if cfg.TestTX {
		var v = maxKbps * cfg.TestTXPercent / 100.0
		state.current_tx_kbps = v
		state.start_tx_kbps = v
	}
	state.last_bandwidth_update = now
}
