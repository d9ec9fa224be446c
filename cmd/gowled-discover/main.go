package main

/*-------------------------------------------------------------------
 *
 * Name:        main
 *
 * Purpose:     Browse the local network for WLED controllers and
 *		print what answers, ready to paste into the
 *		wled_devices section of the config file.
 *
 *--------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"time"

	gowled "github.com/dlnetworks/gowled/src"
	"github.com/spf13/pflag"
)

func main() {
	var timeout = pflag.DurationP("timeout", "t", 3*time.Second, "How long to browse before printing results.")
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

	var devices, err = gowled.DiscoverWLEDDevices(*timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "discover: %v\n", err)
		os.Exit(1)
	}

	if len(devices) == 0 {
		fmt.Println("No WLED controllers found.")
		return
	}

	fmt.Printf("Found %d controller(s):\n\n", len(devices))
	for _, d := range devices {
		fmt.Printf("  %-24s %s\n", d.Name, d.IP)
	}

	fmt.Println("\nExample config:")
	fmt.Println("wled_devices:")
	var offset = 0
	for _, d := range devices {
		fmt.Printf("  - ip: %s\n    led_offset: %d\n    led_count: 150\n    enabled: true\n", d.IP, offset)
		offset += 150
	}
}
