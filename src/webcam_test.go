package gowled

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// For any BGRA pixel, the rendered pixel is
// (min(255, r*B), min(255, g*B), min(255, b*B)).
func Test_bgra_to_rgb_Mapping(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var b = rapid.Byte().Draw(t, "b")
		var g = rapid.Byte().Draw(t, "g")
		var r = rapid.Byte().Draw(t, "r")
		var a = rapid.Byte().Draw(t, "a")
		var brightness = rapid.Float64Range(0, 2).Draw(t, "brightness")

		var out = bgra_to_rgb([]byte{b, g, r, a}, brightness)
		require.Len(t, out, 3)

		assert.Equal(t, byte(math.Min(255, float64(r)*brightness)), out[0])
		assert.Equal(t, byte(math.Min(255, float64(g)*brightness)), out[1])
		assert.Equal(t, byte(math.Min(255, float64(b)*brightness)), out[2])
	})
}

func Test_bgra_to_rgb_AlphaDiscarded(t *testing.T) {
	var out = bgra_to_rgb([]byte{10, 20, 30, 255, 10, 20, 30, 0}, 1.0)
	assert.Equal(t, []byte{30, 20, 10, 30, 20, 10}, out, "alpha never leaks into the output")
}

func webcam_test_state(t *testing.T, width int, height int, targetFPS float64) (*webcam_state_s, *record_writer_s) {
	t.Helper()

	var cfg = default_config()
	cfg.WebcamFrameWidth = width
	cfg.WebcamFrameHeight = height
	cfg.WebcamTargetFPS = targetFPS
	cfg.WebcamBrightness = 1.0
	cfg.GlobalBrightness = 1.0

	var writer = &record_writer_s{}
	var manager, err = new_multi_device_manager_dialer(
		multi_device_config_s{Devices: []wled_device_s{
			{IP: "a", LEDOffset: 0, LEDCount: width * height, Enabled: true},
		}},
		func(string) (frame_writer_i, error) { return writer, nil },
		time.Now,
	)
	require.NoError(t, err)

	return new_webcam_state(cfg, manager), writer
}

func Test_webcam_process_frame_LengthCheck(t *testing.T) {
	var state, writer = webcam_test_state(t, 4, 4, 30)

	var err = state.process_frame(make([]byte, 10), time.Unix(100, 0))
	assert.ErrorIs(t, err, ErrBadFrameLength)
	assert.Zero(t, writer.count())
	assert.Equal(t, uint64(1), state.bad_frames.Load())

	// A correct frame right after is accepted.
	var frame = make([]byte, 4*4*4)
	frame[2] = 200 // one red pixel
	require.NoError(t, state.process_frame(frame, time.Unix(101, 0)))
	assert.Equal(t, 1, writer.count())
}

func Test_webcam_process_frame_RateLimit(t *testing.T) {
	var state, writer = webcam_test_state(t, 2, 2, 10) // 100 ms slots

	var frame = make([]byte, 2*2*4)
	frame[2] = 255

	var now = time.Unix(100, 0)
	require.NoError(t, state.process_frame(frame, now))

	// 50 ms later: too soon, dropped.
	require.NoError(t, state.process_frame(frame, now.Add(50*time.Millisecond)))
	assert.Equal(t, uint64(1), state.frames_dropped.Load())
	assert.Equal(t, 1, writer.count())

	// 100 ms later: next slot open.
	require.NoError(t, state.process_frame(frame, now.Add(150*time.Millisecond)))
	assert.Equal(t, 2, writer.count())

	assert.Equal(t, uint64(3), state.frames_received.Load())
	assert.Equal(t, uint64(2), state.frames_sent.Load())
}

func Test_webcam_process_frame_Brightness(t *testing.T) {
	var state, writer = webcam_test_state(t, 1, 1, 1000)
	state.config.WebcamBrightness = 0.5

	require.NoError(t, state.process_frame([]byte{100, 100, 100, 255}, time.Unix(100, 0)))

	require.Equal(t, 1, writer.count())
	assert.Equal(t, []byte{50, 50, 50}, writer.writes[0])
}
