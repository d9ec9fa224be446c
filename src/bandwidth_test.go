package gowled

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parse_bandwidth_line_SevenColumn(t *testing.T) {
	// netstat -w 1 style: columns 3 and 6 are bytes/sec in and out.
	var rx, tx, ok = parse_bandwidth_line("  500 0 125000 400 0 250000 0", nil)
	require.True(t, ok)
	assert.InDelta(t, 1000.0, rx, 1e-9) // 125000 B/s * 8 / 1000
	assert.InDelta(t, 2000.0, tx, 1e-9)
}

func Test_parse_bandwidth_line_Garbage(t *testing.T) {
	var tracker = new_bandwidth_tracker()

	var _, _, ok = parse_bandwidth_line("", tracker)
	assert.False(t, ok)

	_, _, ok = parse_bandwidth_line("hello world", tracker)
	assert.False(t, ok)

	_, _, ok = parse_bandwidth_line("1 2 three 4 5 6 7", nil)
	assert.False(t, ok)

	// Counter format with too few fields.
	_, _, ok = parse_bandwidth_line("eth0: 1 2 3", tracker)
	assert.False(t, ok)
}

func Test_bandwidth_tracker_Deltas(t *testing.T) {
	var tracker = new_bandwidth_tracker()
	var now = time.Unix(5000, 0)
	tracker.now = func() time.Time { return now }

	var line1 = "  eth0: 1000000 100 0 0 0 0 0 0 2000000 200 0 0 0 0 0 0"
	var line2 = "  eth0: 1125000 110 0 0 0 0 0 0 2250000 220 0 0 0 0 0 0"

	// First reading per interface yields no sample.
	var _, _, ok = parse_bandwidth_line(line1, tracker)
	assert.False(t, ok)

	now = now.Add(time.Second)
	rx, tx, ok := parse_bandwidth_line(line2, tracker)
	require.True(t, ok)

	// 125000 bytes over 1 s -> 1000 kbps; 250000 -> 2000 kbps.
	assert.InDelta(t, 1000.0, rx, 1e-6)
	assert.InDelta(t, 2000.0, tx, 1e-6)
}

func Test_bandwidth_tracker_PerInterface(t *testing.T) {
	var tracker = new_bandwidth_tracker()
	var now = time.Unix(5000, 0)
	tracker.now = func() time.Time { return now }

	parse_bandwidth_line("eth0: 100 0 0 0 0 0 0 0 100 0 0 0 0 0 0 0", tracker)

	// A different interface's first line also yields nothing.
	var _, _, ok = parse_bandwidth_line("wlan0: 100 0 0 0 0 0 0 0 100 0 0 0 0 0 0 0", tracker)
	assert.False(t, ok, "each interface tracks independently")

	now = now.Add(2 * time.Second)
	rx, _, ok := parse_bandwidth_line("eth0: 350 0 0 0 0 0 0 0 100 0 0 0 0 0 0 0", tracker)
	require.True(t, ok)
	// 250 bytes over 2 s -> 1 kbps.
	assert.InDelta(t, 1.0, rx, 1e-6)
}

func Test_bandwidth_tracker_CounterReset(t *testing.T) {
	var tracker = new_bandwidth_tracker()
	var now = time.Unix(5000, 0)
	tracker.now = func() time.Time { return now }

	parse_bandwidth_line("eth0: 5000 0 0 0 0 0 0 0 5000 0 0 0 0 0 0 0", tracker)

	// Counters going backwards (interface bounce) clamp to zero
	// instead of producing a huge bogus delta.
	now = now.Add(time.Second)
	rx, tx, ok := parse_bandwidth_line("eth0: 100 0 0 0 0 0 0 0 100 0 0 0 0 0 0 0", tracker)
	require.True(t, ok)
	assert.Zero(t, rx)
	assert.Zero(t, tx)
}
