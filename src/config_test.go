package gowled

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func with_temp_config(t *testing.T) string {
	t.Helper()
	var path = filepath.Join(t.TempDir(), "config.yaml")
	SetConfigPath(path)
	t.Cleanup(func() { SetConfigPath("") })
	return path
}

func Test_config_RoundTrip(t *testing.T) {
	with_temp_config(t)

	var cfg = default_config()
	cfg.WLEDIP = "10.1.2.3"
	cfg.WLEDDevices = []wled_device_s{
		{IP: "10.1.2.3", LEDOffset: 0, LEDCount: 150, Enabled: true},
		{IP: "10.1.2.4", LEDOffset: 150, LEDCount: 150, Enabled: false},
	}
	cfg.TotalLEDs = 300
	cfg.Mode = "live"
	cfg.VU = true
	cfg.Color = "rainbow"
	cfg.TXColor = "FF0000,00FF00"
	cfg.RXSplitPercent = 30
	cfg.DDPDelayMS = 2.5
	cfg.GlobalBrightness = 0.8

	require.NoError(t, config_save(cfg))

	var loaded, err = config_load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded, "a saved config reloads structurally equal")
}

func Test_config_load_NotFound(t *testing.T) {
	with_temp_config(t)

	var _, err = config_load()
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func Test_config_load_ParseError(t *testing.T) {
	var path = with_temp_config(t)
	require.NoError(t, os.WriteFile(path, []byte("mode: [unclosed"), 0644))

	var _, err = config_load()
	assert.ErrorIs(t, err, ErrConfigParse)
}

func Test_config_load_UnknownKeyRejected(t *testing.T) {
	var path = with_temp_config(t)
	require.NoError(t, os.WriteFile(path, []byte("total_leds: 10\nno_such_knob: 3\n"), 0644))

	var _, err = config_load()
	assert.ErrorIs(t, err, ErrConfigParse)
}

func Test_config_load_ValidationError(t *testing.T) {
	var path = with_temp_config(t)

	var cfg = default_config()
	cfg.WLEDDevices = []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 50, Enabled: true},
		{IP: "b", LEDOffset: 40, LEDCount: 20, Enabled: true},
	}
	// Save never validates; only load does.
	require.NoError(t, config_save_file(cfg, path))

	var _, err = config_load()
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func Test_config_save_Atomic(t *testing.T) {
	var path = with_temp_config(t)

	require.NoError(t, config_save(default_config()))

	// No temp droppings next to the config after a save.
	var entries, err = os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "config.yaml", entries[0].Name())
}

func Test_update_field_UnknownField(t *testing.T) {
	var err = config_update_field(default_config(), "warp_factor", 9)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func Test_update_field_Clamping(t *testing.T) {
	var cfg = default_config()

	require.NoError(t, config_update_field(cfg, "global_brightness", 7.0))
	assert.Equal(t, 1.0, cfg.GlobalBrightness)

	require.NoError(t, config_update_field(cfg, "rx_split_percent", -20.0))
	assert.Equal(t, 0.0, cfg.RXSplitPercent)

	require.NoError(t, config_update_field(cfg, "audio_gain", 1000.0))
	assert.Equal(t, 200.0, cfg.AudioGain)

	require.NoError(t, config_update_field(cfg, "test_tx_percent", 150.0))
	assert.Equal(t, 101.0, cfg.TestTXPercent, "101 is the legal above-max value")

	require.NoError(t, config_update_field(cfg, "ddp_delay_ms", -4.0))
	assert.Equal(t, 0.0, cfg.DDPDelayMS)
}

func Test_update_field_StringCoercion(t *testing.T) {
	var cfg = default_config()

	// Web form controls send numbers as strings.
	require.NoError(t, config_update_field(cfg, "fps", "30"))
	assert.Equal(t, 30.0, cfg.FPS)

	require.NoError(t, config_update_field(cfg, "vu", "true"))
	assert.True(t, cfg.VU)

	require.NoError(t, config_update_field(cfg, "spectrogram_window_size", "4096"))
	assert.Equal(t, 4096, cfg.SpectrogramWindowSize)
}

func Test_update_field_EnumValidation(t *testing.T) {
	var cfg = default_config()

	require.NoError(t, config_update_field(cfg, "direction", "opposing"))
	assert.Equal(t, "opposing", cfg.Direction)

	assert.Error(t, config_update_field(cfg, "direction", "sideways"))
	assert.Error(t, config_update_field(cfg, "mode", "disco"))
	assert.Error(t, config_update_field(cfg, "interpolation", "cubic"))
}

// After any write of strobe_rate_hz, the stored duration never
// exceeds one cycle.
func Test_update_field_StrobeDutyCap(t *testing.T) {
	var cfg = default_config()
	cfg.StrobeDurationMS = 800
	cfg.StrobeRateHz = 1

	require.NoError(t, config_update_field(cfg, "strobe_rate_hz", 4.0))
	assert.Equal(t, 4.0, cfg.StrobeRateHz)
	assert.LessOrEqual(t, cfg.StrobeDurationMS, 1000.0/4.0)

	// Direct duration writes clamp against the current rate.
	require.NoError(t, config_update_field(cfg, "strobe_duration_ms", 900.0))
	assert.Equal(t, 250.0, cfg.StrobeDurationMS)
}

// Enabling the spectrogram forces matrix mode and, when the current
// matrix does not cover the strip, picks a near-square factor pair.
func Test_update_field_SpectrogramForcesMatrix(t *testing.T) {
	var cfg = default_config()
	cfg.TotalLEDs = 256
	cfg.Matrix2DEnabled = false
	cfg.Matrix2DWidth = 0
	cfg.Matrix2DHeight = 0

	require.NoError(t, config_update_field(cfg, "spectrogram", true))

	assert.True(t, cfg.Matrix2DEnabled)
	assert.Equal(t, 256, cfg.Matrix2DWidth*cfg.Matrix2DHeight)
	assert.Equal(t, 16, cfg.Matrix2DWidth)
	assert.Equal(t, 16, cfg.Matrix2DHeight)
}

func Test_update_field_SpectrogramKeepsValidMatrix(t *testing.T) {
	var cfg = default_config()
	cfg.TotalLEDs = 512
	cfg.Matrix2DWidth = 64
	cfg.Matrix2DHeight = 8

	require.NoError(t, config_update_field(cfg, "spectrogram", true))
	assert.Equal(t, 64, cfg.Matrix2DWidth, "an exact-cover matrix is left alone")
	assert.Equal(t, 8, cfg.Matrix2DHeight)
}

func Test_update_field_Devices(t *testing.T) {
	var cfg = default_config()

	var err = config_update_field(cfg, "wled_devices", []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 50, Enabled: true},
		{IP: "b", LEDOffset: 40, LEDCount: 20, Enabled: true},
	})
	assert.ErrorIs(t, err, ErrConfigValidation, "overlapping device writes are rejected")

	err = config_update_field(cfg, "wled_devices", []wled_device_s{
		{IP: "a", LEDOffset: 0, LEDCount: 50, Enabled: true},
		{IP: "b", LEDOffset: 50, LEDCount: 20, Enabled: true},
	})
	require.NoError(t, err)
	assert.Len(t, cfg.WLEDDevices, 2)
}

func Test_UpdateConfigField_EndToEnd(t *testing.T) {
	with_temp_config(t)
	require.NoError(t, config_save(default_config()))

	var sub = process_bus.subscribe()
	defer sub.unsubscribe()

	require.NoError(t, UpdateConfigField("mode", "sand"))

	var cfg, err = config_load()
	require.NoError(t, err)
	assert.Equal(t, "sand", cfg.Mode)
	assert.True(t, sub.changed(), "a successful save publishes a change event")
}
