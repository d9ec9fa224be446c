package gowled

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geometry_test_config() *led_config_s {
	var cfg = default_config()
	cfg.TotalLEDs = 512
	cfg.GeometryGridWidth = 32
	cfg.GeometryGridHeight = 16
	cfg.GeometryModeSelect = "lissajous"
	cfg.BoidCount = 10
	return cfg
}

func Test_geometry_tick_FrameLength(t *testing.T) {
	var st = new_geometry_state(geometry_test_config())

	for _, mode := range []string{"lissajous", "rose", "phyllotaxis", "kaleidoscope", "spiral", "boids"} {
		var m, ok = geometry_mode_from_string(mode)
		require.True(t, ok)
		st.current_mode = m
		st.fixed_mode = &m

		var frame = st.tick(0, "left")
		assert.Lenf(t, frame, 512*3, "mode %s", mode)
		assert.Positivef(t, lit_count(frame), "mode %s must draw something", mode)
	}
}

func Test_geometry_FixedModeNeverCycles(t *testing.T) {
	var st = new_geometry_state(geometry_test_config())
	require.NotNil(t, st.fixed_mode)

	// Force the cycle clock far past any boundary.
	st.mode_start = time.Now().Add(-time.Hour)
	st.tick(0, "left")

	assert.Equal(t, GEOMETRY_LISSAJOUS, st.current_mode)
	assert.Nil(t, st.next_mode)
}

func Test_geometry_CycleAdvances(t *testing.T) {
	var cfg = geometry_test_config()
	cfg.GeometryModeSelect = "cycle"
	cfg.GeometryRandomizeOrder = false

	var st = new_geometry_state(cfg)
	require.Nil(t, st.fixed_mode)
	var before = st.current_mode

	st.mode_start = time.Now().Add(-time.Hour)
	st.tick(0, "left")

	assert.NotEqual(t, before, st.current_mode, "the cycle moves to the next figure")
}

func Test_geometry_BoidsStayInBounds(t *testing.T) {
	var cfg = geometry_test_config()
	cfg.GeometryModeSelect = "boids"
	cfg.BoidPredatorEnabled = true

	var st = new_geometry_state(cfg)

	for i := 0; i < 100; i++ {
		st.step_boids()
	}

	for _, b := range st.boids {
		assert.GreaterOrEqual(t, b.x, 0.0)
		assert.Less(t, b.x, 1.0)
		assert.GreaterOrEqual(t, b.y, 0.0)
		assert.Less(t, b.y, 1.0)
	}
	for _, p := range st.predators {
		assert.GreaterOrEqual(t, p.x, 0.0)
		assert.Less(t, p.x, 1.0)
	}
}

func Test_geometry_update_tunables_KeepsBoids(t *testing.T) {
	var cfg = geometry_test_config()
	var st = new_geometry_state(cfg)

	var posBefore = st.boids[0]

	cfg.BoidCount = 12
	st.update_tunables(cfg)

	assert.Len(t, st.boids, 12)
	assert.Equal(t, posBefore, st.boids[0], "existing boids keep their state")

	cfg.BoidCount = 4
	st.update_tunables(cfg)
	assert.Len(t, st.boids, 4)
}
