package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Top-level mode orchestration.
 *
 * Description:	Load config, dispatch to the mode loop named by the
 *		mode field, and keep doing that until a loop reports
 *		UserQuit.  Config is reloaded from disk between
 *		iterations - in-memory state is never trusted for
 *		mode selection, and that also picks up structural
 *		fields that matter at mode startup.
 *
 *		Two extra goroutines live for the process:
 *
 *		  * a signal handler that closes the quit channel on
 *		    SIGINT/SIGTERM;
 *		  * a config file watcher that publishes a change
 *		    event when the file's mtime moves (manual edits
 *		    count as much as API writes).
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
)

/* One change bus per process.  Mode loops subscribe through the run
   context; the config API publishes after every successful save. */

var process_bus = new_config_bus()

// RunOptions wires the daemon together.  BandwidthLines carries raw
// counter lines from whatever acquisition the caller set up; nil is
// legal and leaves the bandwidth meter dark.
type RunOptions struct {
	ConfigPath     string
	ModeOverride   string
	BandwidthLines <-chan string
}

/*-------------------------------------------------------------------
 *
 * Name:        Run
 *
 * Purpose:     Daemon entry point.  Returns nil on orderly quit;
 *		any error is fatal for the process.
 *
 *--------------------------------------------------------------------*/

func Run(opts RunOptions) error {
	SetConfigPath(opts.ConfigPath)

	var cfg, err = config_load()
	if errors.Is(err, ErrConfigNotFound) {
		cfg = default_config()
		if err := config_save(cfg); err != nil {
			return err
		}
		var path, _ = config_file_path()
		logger.Info("wrote default config", "path", path)
		err = nil
	}
	if err != nil {
		// A broken config file on startup is fatal, pointing at the
		// file rather than limping along with defaults.
		return err
	}

	if opts.ModeOverride != "" && opts.ModeOverride != cfg.Mode {
		if err := config_update_field(cfg, "mode", opts.ModeOverride); err != nil {
			return err
		}
		if err := config_save(cfg); err != nil {
			return err
		}
	}

	var quit = make(chan struct{})
	go watch_signals(quit)
	go watch_config_file(quit)

	var ctx = mode_ctx_s{
		bus:             process_bus,
		quit:            quit,
		bandwidth_lines: opts.BandwidthLines,
	}

	for {
		cfg, err = config_load()
		if err != nil {
			return err
		}

		logger.Info("starting mode", "mode", cfg.Mode)

		var reason mode_exit_reason_t
		switch cfg.Mode {
		case "bandwidth":
			reason, err = run_bandwidth_mode(cfg, ctx)
		case "midi":
			reason, err = run_midi_mode(cfg, ctx)
		case "live":
			reason, err = run_live_mode(cfg, ctx)
		case "relay":
			reason, err = run_relay_mode(cfg, ctx)
		case "webcam":
			reason, err = run_webcam_mode(cfg, ctx)
		case "tron":
			reason, err = run_tron_mode(cfg, ctx)
		case "geometry":
			reason, err = run_geometry_mode(cfg, ctx)
		case "sand":
			reason, err = run_sand_mode(cfg, ctx)
		default:
			logger.Error("unknown mode in config, falling back", "mode", cfg.Mode)
			if err := UpdateConfigField("mode", "bandwidth"); err != nil {
				return err
			}
			continue
		}

		if err != nil {
			return err
		}
		if reason == MODE_EXIT_USER_QUIT {
			logger.Info("exiting")
			return nil
		}
		// ModeChanged: fall through and re-dispatch from disk.
	}
}

func watch_signals(quit chan struct{}) {
	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
	logger.Info("signal received, shutting down")
	close(quit)
}

/*-------------------------------------------------------------------
 *
 * Name:        watch_config_file
 *
 * Purpose:     Publish a change event when the file is edited by
 *		hand (or by another process).
 *
 * Description:	Saves go through rename, so mtime polling at 500 ms
 *		is plenty; the subscribers re-read the file anyway.
 *
 *--------------------------------------------------------------------*/

func watch_config_file(quit <-chan struct{}) {
	var path, err = config_file_path()
	if err != nil {
		return
	}

	var last time.Time
	if info, err := os.Stat(path); err == nil {
		last = info.ModTime()
	}

	var tick = time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-quit:
			return
		case <-tick.C:
			var info, err = os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime() != last {
				last = info.ModTime()
				process_bus.publish()
			}
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        UpdateConfigField
 *
 * Purpose:     The write path of the control plane: load from disk,
 *		apply one typed field update, save atomically, notify
 *		subscribers.
 *
 *--------------------------------------------------------------------*/

func UpdateConfigField(field string, value any) error {
	var cfg, err = config_load()
	if err != nil {
		return err
	}

	if err := config_update_field(cfg, field, value); err != nil {
		return err
	}

	if err := config_save(cfg); err != nil {
		return err
	}

	process_bus.publish()
	return nil
}
