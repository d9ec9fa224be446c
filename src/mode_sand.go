package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Falling sand mode main loop.
 *
 * Description:	Ticks the automaton at fps.  Grid size changes
 *		rebuild the simulation; every other sand knob applies
 *		in place, preserving the material already on screen.
 *
 *------------------------------------------------------------------*/

import "time"

func run_sand_mode(cfg *led_config_s, ctx mode_ctx_s) (mode_exit_reason_t, error) {
	var manager, err = new_multi_device_manager(multi_device_config_from(cfg))
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer manager.close()

	var sim = new_sand_sim(cfg)
	sim.place_obstacles(cfg.SandObstaclesEnabled, cfg.SandObstacleDensity)

	var sub = ctx.bus.subscribe()
	defer sub.unsubscribe()

	var current = cfg
	var queue frame_queue_s

	logger.Info("sand mode running",
		"grid", cfg.SandGridWidth, "x", cfg.SandGridHeight,
		"particle", cfg.SandParticleType)

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
				if next.Mode != "sand" {
					logger.Info("mode changed", "to", next.Mode)
					return MODE_EXIT_MODE_CHANGED, nil
				}
				if structural_change(current, next) {
					logger.Info("structural config change, recycling sand mode")
					return MODE_EXIT_MODE_CHANGED, nil
				}

				if next.SandGridWidth != current.SandGridWidth ||
					next.SandGridHeight != current.SandGridHeight {
					sim = new_sand_sim(next)
					sim.place_obstacles(next.SandObstaclesEnabled, next.SandObstacleDensity)
				} else {
					sim.update_config(next)

					// One-shot restart trigger; the flag resets so the
					// next write can fire again.
					if next.SandRestart && !current.SandRestart {
						sim.restart(next.SandObstaclesEnabled, next.SandObstacleDensity)
						if err := UpdateConfigField("sand_restart", false); err != nil {
							logger.Warn("could not clear sand restart flag", "err", err)
						}
					}
				}
				current = next
			}
		}

		if current.SandSpawnEnabled {
			sim.spawn_particles()
		}
		sim.update()

		var frame = sim.render(current.TotalLEDs)

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
