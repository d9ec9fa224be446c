package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Geometry mode main loop.
 *
 *------------------------------------------------------------------*/

import "time"

func run_geometry_mode(cfg *led_config_s, ctx mode_ctx_s) (mode_exit_reason_t, error) {
	var manager, err = new_multi_device_manager(multi_device_config_from(cfg))
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer manager.close()

	var state = new_geometry_state(cfg)

	var sub = ctx.bus.subscribe()
	defer sub.unsubscribe()

	var current = cfg
	var queue frame_queue_s

	logger.Info("geometry mode running",
		"grid", cfg.GeometryGridWidth, "x", cfg.GeometryGridHeight,
		"select", cfg.GeometryModeSelect)

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
				if next.Mode != "geometry" {
					logger.Info("mode changed", "to", next.Mode)
					return MODE_EXIT_MODE_CHANGED, nil
				}
				if structural_change(current, next) ||
					next.GeometryGridWidth != current.GeometryGridWidth ||
					next.GeometryGridHeight != current.GeometryGridHeight {
					logger.Info("structural config change, recycling geometry mode")
					return MODE_EXIT_MODE_CHANGED, nil
				}

				// Everything else re-parameterises the running
				// animation without resetting its state.
				state.update_tunables(next)
				current = next
			}
		}

		var frame = state.tick(current.AnimationSpeed, current.TXAnimationDirection)

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
