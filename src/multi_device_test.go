package gowled

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* Recording writer standing in for a DDP socket. */

type record_writer_s struct {
	mu     sync.Mutex
	writes [][]byte
	fail   bool
}

func (w *record_writer_s) write(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("socket closed")
	}
	w.writes = append(w.writes, append([]byte(nil), p...))
	return nil
}

func (w *record_writer_s) close() {}

func (w *record_writer_s) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

type fake_clock_s struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fake_clock_s) get() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fake_clock_s) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func test_manager(t *testing.T, devices []wled_device_s, parallel bool, failFast bool) (*multi_device_manager_s, map[string]*record_writer_s, *fake_clock_s) {
	t.Helper()

	var writers = make(map[string]*record_writer_s)
	var clock = &fake_clock_s{now: time.Unix(1000, 0)}

	var m, err = new_multi_device_manager_dialer(
		multi_device_config_s{Devices: devices, SendParallel: parallel, FailFast: failFast},
		func(ip string) (frame_writer_i, error) {
			var w = &record_writer_s{}
			writers[ip] = w
			return w, nil
		},
		clock.get,
	)
	require.NoError(t, err)
	return m, writers, clock
}

func Test_validate_device_overlap(t *testing.T) {
	// The literal rejection scenario: [0,50) overlaps [40,60).
	var err = validate_device_overlap([]wled_device_s{
		{IP: "10.0.0.1", LEDOffset: 0, LEDCount: 50, Enabled: true},
		{IP: "10.0.0.2", LEDOffset: 40, LEDCount: 20, Enabled: true},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigValidation)

	// Disabling one side of the overlap makes it legal.
	err = validate_device_overlap([]wled_device_s{
		{IP: "10.0.0.1", LEDOffset: 0, LEDCount: 50, Enabled: true},
		{IP: "10.0.0.2", LEDOffset: 40, LEDCount: 20, Enabled: false},
	})
	assert.NoError(t, err)

	// Adjacent half-open ranges do not overlap.
	err = validate_device_overlap([]wled_device_s{
		{IP: "10.0.0.1", LEDOffset: 0, LEDCount: 50, Enabled: true},
		{IP: "10.0.0.2", LEDOffset: 50, LEDCount: 50, Enabled: true},
	})
	assert.NoError(t, err)
}

func Test_manager_RejectsOverlap(t *testing.T) {
	var _, err = new_multi_device_manager_dialer(
		multi_device_config_s{Devices: []wled_device_s{
			{IP: "a", LEDOffset: 0, LEDCount: 50, Enabled: true},
			{IP: "b", LEDOffset: 40, LEDCount: 20, Enabled: true},
		}},
		func(string) (frame_writer_i, error) { return &record_writer_s{}, nil },
		time.Now,
	)
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func Test_manager_NoDevices(t *testing.T) {
	var _, err = new_multi_device_manager_dialer(
		multi_device_config_s{},
		func(string) (frame_writer_i, error) { return &record_writer_s{}, nil },
		time.Now,
	)
	assert.ErrorIs(t, err, ErrConstructFailed)
}

func Test_manager_SkipsUnreachableDevices(t *testing.T) {
	var dialCount = 0
	var m, err = new_multi_device_manager_dialer(
		multi_device_config_s{Devices: []wled_device_s{
			{IP: "dead", LEDOffset: 0, LEDCount: 10, Enabled: true},
			{IP: "alive", LEDOffset: 10, LEDCount: 10, Enabled: true},
		}},
		func(ip string) (frame_writer_i, error) {
			dialCount++
			if ip == "dead" {
				return nil, errors.New("no route")
			}
			return &record_writer_s{}, nil
		},
		time.Now,
	)
	require.NoError(t, err)
	assert.Equal(t, 2, dialCount)
	assert.Equal(t, 1, m.device_count())
}

func Test_send_frame_Slicing(t *testing.T) {
	var m, writers, _ = test_manager(t, []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 2, Enabled: true},
		{IP: "b", LEDOffset: 2, LEDCount: 3, Enabled: true},
	}, false, false)

	var frame = []byte{
		1, 2, 3, 4, 5, 6, // device a: LEDs 0-1
		7, 8, 9, 10, 11, 12, 13, 14, 15, // device b: LEDs 2-4
	}
	var errs = m.send_frame(frame)
	assert.Empty(t, errs)

	require.Len(t, writers["a"].writes, 1)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, writers["a"].writes[0])

	require.Len(t, writers["b"].writes, 1)
	assert.Equal(t, []byte{7, 8, 9, 10, 11, 12, 13, 14, 15}, writers["b"].writes[0])
}

func Test_send_frame_Ordering(t *testing.T) {
	var m, writers, clock = test_manager(t, []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 1, Enabled: true},
	}, false, false)

	// Frames tagged by their red byte; frame 3 is all-zero and
	// must be skipped (no keepalive due yet).
	for i, r := range []byte{1, 2, 0, 4, 5} {
		_ = i
		m.send_frame([]byte{r, 0, 0})
		clock.advance(16 * time.Millisecond)
	}

	var got []byte
	for _, w := range writers["a"].writes {
		got = append(got, w[0])
	}
	assert.Equal(t, []byte{1, 2, 4, 5}, got,
		"socket writes must be the non-skipped subsequence in enqueue order")
}

func Test_send_frame_ZeroSkipAndKeepalive(t *testing.T) {
	var m, writers, clock = test_manager(t, []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 10, Enabled: true},
	}, false, false)

	var black = make([]byte, 30)

	// Render all-black for 2 seconds at 60 fps.  Expected: a send
	// at least every KEEPALIVE_INTERVAL + one frame period.
	var sendTimes []time.Time
	var before = writers["a"].count()
	for i := 0; i < 120; i++ {
		m.send_frame(black)
		if writers["a"].count() > before {
			before = writers["a"].count()
			sendTimes = append(sendTimes, clock.get())
		}
		clock.advance(time.Second / 60)
	}

	require.NotEmpty(t, sendTimes, "keepalives must fire on an all-black stream")

	var last = time.Unix(1000, 0) // manager construction time
	for _, ts := range sendTimes {
		assert.LessOrEqual(t, ts.Sub(last), KEEPALIVE_INTERVAL+time.Second/60+time.Millisecond)
		last = ts
	}

	// And black frames between keepalives were skipped.
	assert.Less(t, writers["a"].count(), 10)
}

func Test_send_frame_RangeExceeded(t *testing.T) {
	var m, _, _ = test_manager(t, []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 100, Enabled: true},
	}, false, false)

	var errs = m.send_frame(make([]byte, 30)) // only 10 LEDs provided
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrSendFailed)
}

func Test_send_frame_BadLength(t *testing.T) {
	var m, _, _ = test_manager(t, []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 1, Enabled: true},
	}, false, false)

	var errs = m.send_frame([]byte{1, 2, 3, 4})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrBadFrameLength)
}

func Test_send_frame_FailFast(t *testing.T) {
	var m, writers, _ = test_manager(t, []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 1, Enabled: true},
		{IP: "b", LEDOffset: 1, LEDCount: 1, Enabled: true},
	}, false, true)

	writers["a"].fail = true

	var errs = m.send_frame([]byte{1, 2, 3, 4, 5, 6})
	require.Len(t, errs, 1)
	assert.Zero(t, writers["b"].count(), "fail_fast must abort before the second device")
}

func Test_send_frame_SequentialContinuesOnError(t *testing.T) {
	var m, writers, _ = test_manager(t, []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 1, Enabled: true},
		{IP: "b", LEDOffset: 1, LEDCount: 1, Enabled: true},
	}, false, false)

	writers["a"].fail = true

	var errs = m.send_frame([]byte{1, 2, 3, 4, 5, 6})
	assert.Len(t, errs, 1)
	assert.Equal(t, 1, writers["b"].count(), "later devices still get their slice")
}

func Test_send_frame_Parallel(t *testing.T) {
	var m, writers, _ = test_manager(t, []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 1, Enabled: true},
		{IP: "b", LEDOffset: 1, LEDCount: 1, Enabled: true},
		{IP: "c", LEDOffset: 2, LEDCount: 1, Enabled: true},
	}, true, false)

	var errs = m.send_frame([]byte{1, 1, 1, 2, 2, 2, 3, 3, 3})
	assert.Empty(t, errs)

	for ip, w := range writers {
		assert.Equalf(t, 1, w.count(), "device %s", ip)
	}
	assert.Equal(t, []byte{2, 2, 2}, writers["b"].writes[0])
}

func Test_send_frame_Brightness(t *testing.T) {
	var m, writers, _ = test_manager(t, []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 1, Enabled: true},
	}, false, false)

	m.send_frame_with_brightness([]byte{200, 100, 50}, 0.5)

	require.Len(t, writers["a"].writes, 1)
	assert.Equal(t, []byte{100, 50, 25}, writers["a"].writes[0])
}

func Test_effective_devices_LegacyFallback(t *testing.T) {
	var cfg = default_config()
	cfg.WLEDIP = "192.168.1.50"
	cfg.TotalLEDs = 120

	var devices = cfg.effective_devices()
	require.Len(t, devices, 1)
	assert.Equal(t, wled_device_s{IP: "192.168.1.50", LEDOffset: 0, LEDCount: 120, Enabled: true}, devices[0])

	cfg.WLEDDevices = []wled_device_s{{IP: "10.0.0.1", LEDOffset: 0, LEDCount: 60, Enabled: true}}
	devices = cfg.effective_devices()
	require.Len(t, devices, 1)
	assert.Equal(t, "10.0.0.1", devices[0].IP, "explicit device list wins over the legacy ip")
}
