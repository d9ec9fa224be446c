package gowled

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_audio_ring_TailZeroPads(t *testing.T) {
	var ring = new_audio_ring(100, 1)
	ring.append([]float32{1, 2, 3})

	var tail = ring.tail(5)
	assert.Equal(t, []float32{0, 0, 1, 2, 3}, tail, "short buffers pad at the front")

	tail = ring.tail(2)
	assert.Equal(t, []float32{2, 3}, tail, "the newest samples win")
}

func Test_audio_ring_OverflowDrainsOldest(t *testing.T) {
	var ring = new_audio_ring(2, 1) // capacity 4 samples

	ring.append([]float32{1, 2, 3, 4})
	ring.append([]float32{5, 6})

	assert.Equal(t, 4, ring.len())
	assert.Equal(t, []float32{3, 4, 5, 6}, ring.tail(4))
}

func Test_audio_ring_Int16Normalised(t *testing.T) {
	var ring = new_audio_ring(100, 1)
	ring.append_i16([]int16{-32768, 0, 16384})

	var tail = ring.tail(3)
	assert.InDelta(t, -1.0, float64(tail[0]), 1e-6)
	assert.InDelta(t, 0.0, float64(tail[1]), 1e-6)
	assert.InDelta(t, 0.5, float64(tail[2]), 1e-6)
}
