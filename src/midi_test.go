package gowled

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_note_state(t *testing.T) {
	var ns = new_note_state()
	assert.Zero(t, ns.count())

	ns.note_on(0, 60, 100)
	ns.note_on(1, 60, 80)
	assert.Equal(t, 2, ns.count(), "same note on different channels is two entries")

	ns.note_off(0, 60)
	assert.Equal(t, 1, ns.count())

	var snap = ns.snapshot()
	assert.Equal(t, uint8(80), snap[note_key(1, 60)])

	// The snapshot is a copy; mutating the state afterwards does
	// not change it.
	ns.note_off(1, 60)
	assert.Len(t, snap, 1)
}

func Test_render_midi_targets_OneToOne(t *testing.T) {
	var buffers = new_smoothing_buffers(128)
	var notes = map[note_key_t]uint8{
		note_key(0, 64): 127,
	}

	render_midi_targets(notes, buffers, true, false, false)

	assert.InDelta(t, 1.0, buffers.target[64], 1e-9)
	assert.Zero(t, buffers.target[63])
	assert.Zero(t, buffers.target[65])
}

func Test_render_midi_targets_Spread(t *testing.T) {
	var buffers = new_smoothing_buffers(256)
	var notes = map[note_key_t]uint8{
		note_key(0, 0): 127,
	}

	render_midi_targets(notes, buffers, false, false, false)

	// Note 0 owns the first 256/128 = 2 LED band.
	assert.InDelta(t, 1.0, buffers.target[0], 1e-9)
	assert.InDelta(t, 1.0, buffers.target[1], 1e-9)
	assert.Zero(t, buffers.target[2])
}

func Test_render_midi_targets_ChannelMode(t *testing.T) {
	var buffers = new_smoothing_buffers(160) // 10 LEDs per channel lane
	var notes = map[note_key_t]uint8{
		note_key(0, 0):  127,
		note_key(15, 0): 127,
	}

	render_midi_targets(notes, buffers, false, true, false)

	assert.InDelta(t, 1.0, buffers.target[0], 1e-9, "channel 0 lane starts at 0")
	assert.InDelta(t, 1.0, buffers.target[150], 1e-9, "channel 15 lane starts at 150")
}

func Test_render_midi_targets_VelocityScalesBrightness(t *testing.T) {
	var buffers = new_smoothing_buffers(128)

	render_midi_targets(map[note_key_t]uint8{note_key(0, 10): 64}, buffers, true, false, false)
	assert.InDelta(t, 64.0/127.0, buffers.target[10], 1e-9)

	// Velocity-colour mode pins brightness and encodes velocity in
	// the colour instead.
	render_midi_targets(map[note_key_t]uint8{note_key(0, 10): 64}, buffers, true, false, true)
	assert.InDelta(t, 1.0, buffers.target[10], 1e-9)
}

func Test_render_midi_targets_ClearsStaleTargets(t *testing.T) {
	var buffers = new_smoothing_buffers(128)

	render_midi_targets(map[note_key_t]uint8{note_key(0, 5): 127}, buffers, true, false, false)
	require.InDelta(t, 1.0, buffers.target[5], 1e-9)

	// Note released: the target drops to zero and decay takes over.
	render_midi_targets(map[note_key_t]uint8{}, buffers, true, false, false)
	assert.Zero(t, buffers.target[5])
}

func Test_note_color(t *testing.T) {
	// Pitch-class colouring repeats every octave.
	assert.Equal(t, note_color(60, 100, false), note_color(72, 50, false))

	// Velocity colouring sweeps green to red.
	var quiet = note_color(60, 1, true)
	var loud = note_color(60, 127, true)
	assert.Greater(t, quiet.G, quiet.R)
	assert.Greater(t, loud.R, loud.G)
}
