package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Parse raw bandwidth counter lines into kbps samples.
 *
 * Description:	The monitoring side hands us plain text lines from
 *		whatever produced them (a local netstat/proc reader, a
 *		remote shell, a test harness).  Two formats appear in
 *		the wild:
 *
 *		* Seven space-separated columns, sampled at 1 Hz
 *		  (BSD netstat -w 1 style).  Columns 3 and 6 are
 *		  bytes/second in and out.
 *
 *		* "iface: rxBytes ... txBytes ..." with raw 64-bit
 *		  counters (/proc/net/dev style).  These need a delta
 *		  against the previous reading, so a tracker keeps
 *		  per-interface history.  The first reading of an
 *		  interface yields no sample.
 *
 *		A line that fits neither format is a per-line parse
 *		miss: counted by the caller, never fatal.
 *
 *------------------------------------------------------------------*/

import (
	"strconv"
	"strings"
	"time"
)

type iface_state_s struct {
	prev_rx_bytes uint64
	prev_tx_bytes uint64
	prev_time     time.Time
}

type bandwidth_tracker_s struct {
	interfaces map[string]*iface_state_s
	now        func() time.Time
}

func new_bandwidth_tracker() *bandwidth_tracker_s {
	return &bandwidth_tracker_s{
		interfaces: make(map[string]*iface_state_s),
		now:        time.Now,
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (t) update_from_counters_line
 *
 * Purpose:     Digest one "iface: counters" line.
 *
 * Outputs:	(rx_kbps, tx_kbps, true) when a delta is available;
 *		ok=false on the first reading or a malformed line.
 *
 *--------------------------------------------------------------------*/

func (t *bandwidth_tracker_s) update_from_counters_line(line string) (float64, float64, bool) {
	var parts = strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	var iface = strings.TrimSpace(parts[0])
	var fields = strings.Fields(parts[1])

	// /proc/net/dev carries 8 RX then 8 TX columns; bytes are the
	// first of each group.
	if len(fields) < 16 {
		return 0, 0, false
	}

	var rxBytes, err1 = strconv.ParseUint(fields[0], 10, 64)
	var txBytes, err2 = strconv.ParseUint(fields[8], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}

	var now = t.now()

	var state, seen = t.interfaces[iface]
	t.interfaces[iface] = &iface_state_s{
		prev_rx_bytes: rxBytes,
		prev_tx_bytes: txBytes,
		prev_time:     now,
	}

	if !seen {
		return 0, 0, false
	}

	var dt = now.Sub(state.prev_time).Seconds()
	if dt <= 0 {
		return 0, 0, false
	}

	var rxDelta = float64(rxBytes - min_u64(rxBytes, state.prev_rx_bytes))
	var txDelta = float64(txBytes - min_u64(txBytes, state.prev_tx_bytes))

	var rxKbps = (rxDelta * 8.0) / (dt * 1000.0)
	var txKbps = (txDelta * 8.0) / (dt * 1000.0)

	return rxKbps, txKbps, true
}

func min_u64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

/*-------------------------------------------------------------------
 *
 * Name:        parse_bandwidth_line
 *
 * Purpose:     Dispatch one raw line to the matching format parser.
 *
 *--------------------------------------------------------------------*/

func parse_bandwidth_line(line string, tracker *bandwidth_tracker_s) (float64, float64, bool) {
	var fields = strings.Fields(strings.TrimSpace(line))

	if len(fields) == 7 {
		// Rate columns are already per-second.
		var rxBps, err1 = strconv.ParseFloat(fields[2], 64)
		var txBps, err2 = strconv.ParseFloat(fields[5], 64)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return rxBps * 8.0 / 1000.0, txBps * 8.0 / 1000.0, true
	}

	if strings.Contains(line, ":") && tracker != nil {
		return tracker.update_from_counters_line(line)
	}

	return 0, 0, false
}
