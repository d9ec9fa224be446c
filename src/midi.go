package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	MIDI note tracking and LED rendering.
 *
 * Description:	The MIDI driver delivers NoteOn/NoteOff callbacks on
 *		its own thread; note_state_s is the mutex-guarded map
 *		from (channel, note) to velocity that the render side
 *		reads.  Rendering derives a target brightness and a
 *		base colour per LED under one of three layouts:
 *
 *		  spread    - the 128-note range maps across the strip,
 *		              each note lighting a band.
 *		  one-to-one- LED index = note number.
 *		  channel   - the strip splits into 16 channel lanes.
 *
 *		Targets then run through attack/decay in the shared
 *		smoothing buffers, so releases fade instead of snap.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type note_key_t uint16

func note_key(channel uint8, note uint8) note_key_t {
	return note_key_t(channel)<<8 | note_key_t(note)
}

type note_state_s struct {
	mu    sync.Mutex
	notes map[note_key_t]uint8
}

func new_note_state() *note_state_s {
	return &note_state_s{notes: make(map[note_key_t]uint8)}
}

func (ns *note_state_s) note_on(channel uint8, note uint8, velocity uint8) {
	ns.mu.Lock()
	ns.notes[note_key(channel, note)] = velocity
	ns.mu.Unlock()
}

func (ns *note_state_s) note_off(channel uint8, note uint8) {
	ns.mu.Lock()
	delete(ns.notes, note_key(channel, note))
	ns.mu.Unlock()
}

func (ns *note_state_s) count() int {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return len(ns.notes)
}

// snapshot copies the active notes so rendering never holds the
// callback-side lock.
func (ns *note_state_s) snapshot() map[note_key_t]uint8 {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	var out = make(map[note_key_t]uint8, len(ns.notes))
	for k, v := range ns.notes {
		out[k] = v
	}
	return out
}

/*-------------------------------------------------------------------
 *
 * Name:        midi_listen
 *
 * Purpose:     Attach the note state to a MIDI input port.
 *
 * Inputs:	device - case-insensitive port name fragment; empty
 *		picks the first input port.
 *
 * Outputs:	stop function tearing the listener down.
 *
 *--------------------------------------------------------------------*/

func midi_listen(device string, ns *note_state_s) (func(), error) {
	var in, err = find_midi_in(device)
	if err != nil {
		return nil, err
	}

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var channel, key, velocity uint8

		switch {
		case msg.GetNoteOn(&channel, &key, &velocity):
			// Some keyboards send NoteOn velocity 0 for release.
			if velocity == 0 {
				ns.note_off(channel, key)
			} else {
				ns.note_on(channel, key, velocity)
			}
		case msg.GetNoteOff(&channel, &key, &velocity):
			ns.note_off(channel, key)
		}
	})
	if err != nil {
		return nil, err
	}

	logger.Info("midi listening", "port", in.String())

	return func() {
		stop()
		midi.CloseDriver()
	}, nil
}

func find_midi_in(device string) (drivers.In, error) {
	if device == "" {
		var ports = midi.GetInPorts()
		if len(ports) == 0 {
			return nil, fmt.Errorf("no midi input ports available")
		}
		return ports[0], nil
	}
	return midi.FindInPort(device)
}

/*-------------------------------------------------------------------
 *
 * Name:        note_color
 *
 * Purpose:     Base colour for a note.
 *
 * Description:	Without velocity colours, hue follows the pitch class
 *		(12 semitones around the wheel).  With them, velocity
 *		sweeps green through red like a level meter.
 *
 *--------------------------------------------------------------------*/

func note_color(note uint8, velocity uint8, velocityColors bool) rgb_t {
	if velocityColors {
		var v = float64(velocity) / 127.0
		return rgb_t{R: uint8(255 * v), G: uint8(255 * (1 - v)), B: 40}
	}
	return hue_to_rgb(float64(note%12) / 12.0)
}

func hue_to_rgb(h float64) rgb_t {
	var f = func(offset float64) uint8 {
		var x = math.Mod(h+offset, 1.0) * 6.0
		var v = math.Max(0, math.Min(1, math.Min(x, 4.0-x)))
		return uint8(255 * v)
	}
	return rgb_t{R: f(0), G: f(2.0 / 3.0), B: f(1.0 / 3.0)}
}

func velocity_brightness(velocity uint8) float64 {
	return float64(velocity) / 127.0
}

/*-------------------------------------------------------------------
 *
 * Name:        render_midi_targets
 *
 * Purpose:     Translate the active note set into per-LED targets
 *		and base colours in the smoothing buffers.
 *
 * Description:	Only targets and colours are written here; the mode
 *		loop runs the attack/decay step and paints the frame,
 *		so layout maths stays independent of timing.
 *
 *--------------------------------------------------------------------*/

func render_midi_targets(notes map[note_key_t]uint8, buffers *smoothing_buffers_s, oneToOne bool, channelMode bool, velocityColors bool) {
	var n = len(buffers.target)
	for i := range buffers.target {
		buffers.target[i] = 0
	}
	if n == 0 {
		return
	}

	for key, velocity := range notes {
		var channel = uint8(key >> 8)
		var note = uint8(key & 0xff)
		var color = note_color(note, velocity, velocityColors)
		var level = velocity_brightness(velocity)
		if velocityColors {
			level = 1.0
		}

		switch {
		case channelMode:
			// One lane per MIDI channel; notes spread within it.
			var laneSize = n / 16
			if laneSize == 0 {
				laneSize = 1
			}
			var laneStart = int(channel) * laneSize
			var pos = laneStart + int(note)*laneSize/128
			set_midi_led(buffers, pos, level, color)

		case oneToOne:
			set_midi_led(buffers, int(note), level, color)

		default:
			// Spread: each note owns a band of the strip.
			var start = int(note) * n / 128
			var end = (int(note) + 1) * n / 128
			if end <= start {
				end = start + 1
			}
			for i := start; i < end; i++ {
				set_midi_led(buffers, i, level, color)
			}
		}
	}
}

func set_midi_led(buffers *smoothing_buffers_s, idx int, level float64, color rgb_t) {
	if idx < 0 || idx >= len(buffers.target) {
		return
	}
	if level >= buffers.target[idx] {
		buffers.target[idx] = level
		buffers.base_color[idx] = color
	}
}
