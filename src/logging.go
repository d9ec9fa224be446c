package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Package-wide structured logger.
 *
 *------------------------------------------------------------------*/

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "gowled",
})

// SetDebugLogging raises the log level; wired to the --debug flag.
func SetDebugLogging(enabled bool) {
	if enabled {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}
