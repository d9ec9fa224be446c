package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Relay mode main loop.
 *
 *------------------------------------------------------------------*/

import "time"

func run_relay_mode(cfg *led_config_s, ctx mode_ctx_s) (mode_exit_reason_t, error) {
	var listener, err = relay_listen(cfg.RelayListenIP, cfg.RelayListenPort,
		cfg.RelayFrameWidth, cfg.RelayFrameHeight)
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer listener.close()

	manager, err := new_multi_device_manager(multi_device_config_from(cfg))
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer manager.close()

	var sub = ctx.bus.subscribe()
	defer sub.unsubscribe()

	var current = cfg
	var queue frame_queue_s

	logger.Info("relay mode running",
		"listen", cfg.RelayListenIP, "port", cfg.RelayListenPort,
		"frame", cfg.RelayFrameWidth*cfg.RelayFrameHeight)

	for {
		var tickStart = time.Now()

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
				if next.Mode != "relay" {
					logger.Info("mode changed", "to", next.Mode)
					return MODE_EXIT_MODE_CHANGED, nil
				}
				if structural_change(current, next) ||
					next.RelayListenIP != current.RelayListenIP ||
					next.RelayListenPort != current.RelayListenPort ||
					next.RelayFrameWidth != current.RelayFrameWidth ||
					next.RelayFrameHeight != current.RelayFrameHeight {
					logger.Info("structural config change, recycling relay mode")
					return MODE_EXIT_MODE_CHANGED, nil
				}
				current = next
			}
		}

		// No source yet (or source gone quiet) renders black, which
		// the fan-out turns into pure keepalives.
		var frame []byte
		if src := listener.latest(); src != nil {
			frame = relay_map_frame(src, current.RelayFrameWidth, current.RelayFrameHeight, current.TotalLEDs)
		} else {
			frame = make([]byte, current.TotalLEDs*3)
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
