package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	MIDI mode main loop.
 *
 * Description:	The MIDI callback thread keeps the note map current;
 *		this loop ticks at fps, lays the active notes out as
 *		per-LED targets, runs attack/decay, and ships the
 *		frame through the delay queue.
 *
 *------------------------------------------------------------------*/

import (
	"time"
)

/*-------------------------------------------------------------------
 *
 * Name:        run_midi_mode
 *
 * Purpose:     Drive the strip from MIDI notes until quit or a
 *		config change forces an exit.
 *
 *--------------------------------------------------------------------*/

func run_midi_mode(cfg *led_config_s, ctx mode_ctx_s) (mode_exit_reason_t, error) {
	var notes = new_note_state()

	var stopMIDI, err = midi_listen(cfg.MIDIDevice, notes)
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer stopMIDI()

	manager, err := new_multi_device_manager(multi_device_config_from(cfg))
	if err != nil {
		return MODE_EXIT_USER_QUIT, err
	}
	defer manager.close()

	var sub = ctx.bus.subscribe()
	defer sub.unsubscribe()

	var current = cfg
	var buffers = new_smoothing_buffers(cfg.TotalLEDs)
	var frameTime = 1000.0 / cfg.FPS
	var attack = smoothing_factor(frameTime, cfg.AttackMS)
	var decay = smoothing_factor(frameTime, cfg.DecayMS)

	var queue frame_queue_s

	logger.Info("midi mode running",
		"device", cfg.MIDIDevice, "leds", cfg.TotalLEDs, "fps", cfg.FPS,
		"attack_ms", cfg.AttackMS, "decay_ms", cfg.DecayMS)

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
				if next.Mode != "midi" {
					logger.Info("mode changed", "to", next.Mode)
					return MODE_EXIT_MODE_CHANGED, nil
				}
				if structural_change(current, next) {
					logger.Info("structural config change, recycling midi mode")
					return MODE_EXIT_MODE_CHANGED, nil
				}

				buffers.resize(next.TotalLEDs)
				frameTime = 1000.0 / next.FPS
				attack = smoothing_factor(frameTime, next.AttackMS)
				decay = smoothing_factor(frameTime, next.DecayMS)
				current = next
			}
		}

		render_midi_targets(notes.snapshot(), buffers,
			current.MIDIOneToOne, current.MIDIChannelMode, current.MIDIVelocityColors)
		buffers.step(attack, decay)

		var frame = make([]byte, current.TotalLEDs*3)
		buffers.render(frame)

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
