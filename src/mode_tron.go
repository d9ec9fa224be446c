package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Tron mode main loop.
 *
 * Description:	The game advances on its own cadence (tron_speed_ms);
 *		frames still render at fps so fades stay smooth.
 *
 *------------------------------------------------------------------*/

import "time"

func run_tron_mode(cfg *led_config_s, ctx mode_ctx_s) (mode_exit_reason_t, error) {
	var manager, err = new_multi_device_manager(multi_device_config_from(cfg))
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer manager.close()

	var game = new_tron_game(cfg)

	var sub = ctx.bus.subscribe()
	defer sub.unsubscribe()

	var current = cfg
	var queue frame_queue_s
	var lastStep = time.Now()

	logger.Info("tron mode running",
		"grid", cfg.TronWidth, "x", cfg.TronHeight,
		"players", cfg.TronNumPlayers, "snake", cfg.TronNumPlayers == 1)

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
				if next.Mode != "tron" {
					logger.Info("mode changed", "to", next.Mode)
					return MODE_EXIT_MODE_CHANGED, nil
				}
				if structural_change(current, next) ||
					next.TronWidth != current.TronWidth ||
					next.TronHeight != current.TronHeight ||
					next.TronNumPlayers != current.TronNumPlayers {
					logger.Info("structural config change, recycling tron mode")
					return MODE_EXIT_MODE_CHANGED, nil
				}

				// Tunables apply to the running game in place;
				// rebuilding it mid-round would erase live trails.
				// The trail length is read only when the game is
				// built.
				game.trail_fade = next.TronTrailFade
				game.food_mode = next.TronFoodMode
				game.food_max = next.TronFoodMaxCount
				game.food_ttl = time.Duration(next.TronFoodTTLSeconds) * time.Second
				game.look_ahead = max_int(next.TronLookAhead, 1)
				game.aggression = next.TronAIAggression
				game.diagonal = next.TronDiagonalMovement
				current = next
			}
		}

		if time.Since(lastStep) >= time.Duration(current.TronSpeedMS*float64(time.Millisecond)) {
			lastStep = tickStart
			game.step(tickStart)
		}

		var frame = game.render(current.TotalLEDs)

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
