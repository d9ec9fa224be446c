package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Webcam mode main loop.
 *
 * Description:	Unlike the rendered modes, frames originate outside
 *		the process: the WebSocket ingest pushes them to the
 *		fan-out as they arrive.  This loop only watches the
 *		config plane, swapping the active config into the
 *		shared ingest state and recycling when something
 *		structural moves.
 *
 *------------------------------------------------------------------*/

import "time"

func run_webcam_mode(cfg *led_config_s, ctx mode_ctx_s) (mode_exit_reason_t, error) {
	var manager, err = new_multi_device_manager(multi_device_config_from(cfg))
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer manager.close()

	var state = new_webcam_state(cfg, manager)

	server, err := serve_webcam_ingest(cfg.WebcamListenAddr, state)
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer server.close()

	var sub = ctx.bus.subscribe()
	defer sub.unsubscribe()

	var current = cfg

	logger.Info("webcam mode running",
		"listen", cfg.WebcamListenAddr,
		"frame", cfg.WebcamFrameWidth, "x", cfg.WebcamFrameHeight,
		"target_fps", cfg.WebcamTargetFPS)

	var poll = time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-ctx.quit:
			return MODE_EXIT_USER_QUIT, nil

		case <-poll.C:
			if !sub.changed() {
				continue
			}

			var next, err = config_load()
			if err != nil {
				logger.Warn("config reload failed", "err", err)
				continue
			}

			if next.Mode != "webcam" {
				logger.Info("mode changed", "to", next.Mode)
				return MODE_EXIT_MODE_CHANGED, nil
			}

			if structural_change(current, next) ||
				next.WebcamListenAddr != current.WebcamListenAddr {
				logger.Info("structural config change, recycling webcam mode")
				return MODE_EXIT_MODE_CHANGED, nil
			}

			// Brightness, fps cap and frame size apply live.
			state.update_config(next, nil)
			current = next
		}
	}
}
