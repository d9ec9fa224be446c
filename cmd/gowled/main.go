package main

/*-------------------------------------------------------------------
 *
 * Name:        main
 *
 * Purpose:     Main program for gowled: a multi-mode LED
 *		visualization daemon driving WLED controllers over
 *		DDP.  Modes include:
 *
 *			Network bandwidth metering.
 *			Live audio (VU / spectrum / spectrogram).
 *			MIDI note display.
 *			Webcam streaming ingest.
 *			Frame relay from another instance.
 *			Tron, geometry and falling-sand animations.
 *
 * Inputs:	Command line arguments; a YAML config file which is
 *		created with defaults on first run.
 *
 * Description:	The daemon itself has no interactive surface: it is
 *		steered entirely through the config file, which can
 *		be edited by hand or via the config API while the
 *		process runs.
 *
 *--------------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"os"
	"time"

	gowled "github.com/dlnetworks/gowled/src"
	"github.com/spf13/pflag"
)

func main() {
	var configFile = pflag.StringP("config-file", "c", "", "Configuration file path.  Default is the per-user config directory.")
	var mode = pflag.StringP("mode", "m", "", "Override the configured mode for this run (persisted to the config file).")
	var counters = pflag.StringP("counters", "C", "/proc/net/dev", "File re-read once per second for bandwidth counter lines.  Empty disables the built-in reader; pipe lines to stdin with '-' instead.")
	var debug = pflag.BoolP("debug", "d", false, "Verbose logging.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\nOptions:\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	gowled.SetDebugLogging(*debug)

	var lines chan string
	switch *counters {
	case "":
		// No built-in source.
	case "-":
		lines = make(chan string, 64)
		go stdin_lines(lines)
	default:
		lines = make(chan string, 64)
		go counter_file_lines(*counters, lines)
	}

	var err = gowled.Run(gowled.RunOptions{
		ConfigPath:     *configFile,
		ModeOverride:   *mode,
		BandwidthLines: lines,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gowled: %v\n", err)
		os.Exit(1)
	}
}

// stdin_lines forwards piped counter lines, for remote setups like
//
//	ssh router cat-counters | gowled -C -
func stdin_lines(out chan<- string) {
	defer close(out)

	var scanner = bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// counter_file_lines re-reads a counter file once per second and
// emits its lines.  /proc/net/dev gives the delta tracker fresh
// 64-bit byte counters each pass.
func counter_file_lines(path string, out chan<- string) {
	var tick = time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for range tick.C {
		var fp, err = os.Open(path)
		if err != nil {
			continue
		}

		var scanner = bufio.NewScanner(fp)
		for scanner.Scan() {
			// Non-bandwidth modes never drain this channel; drop
			// rather than wedge the reader.
			select {
			case out <- scanner.Text():
			default:
			}
		}
		fp.Close()
	}
}
