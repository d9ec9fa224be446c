package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Interleaved audio sample ring.
 *
 * Description:	Single producer (the audio device callback), single
 *		consumer (the live-mode loop).  Capacity is two
 *		seconds of interleaved samples; overflow drains the
 *		oldest so the callback never blocks for long.  Both
 *		sides hold the mutex only for an append or a copy.
 *
 *------------------------------------------------------------------*/

import "sync"

type audio_ring_s struct {
	mu       sync.Mutex
	samples  []float32
	capacity int
}

func new_audio_ring(sampleRate int, channels int) *audio_ring_s {
	var capacity = sampleRate * 2 * channels
	if capacity <= 0 {
		capacity = 96000
	}
	return &audio_ring_s{capacity: capacity}
}

// append is the device-callback side.  Samples arrive in whatever
// interleaving the device delivers.
func (r *audio_ring_s) append(in []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples = append(r.samples, in...)

	if len(r.samples) > r.capacity {
		var drop = len(r.samples) - r.capacity
		r.samples = append(r.samples[:0], r.samples[drop:]...)
	}
}

// append_i16 normalises 16-bit samples into [-1,1] on the way in.
func (r *audio_ring_s) append_i16(in []int16) {
	var f = make([]float32, len(in))
	for i, s := range in {
		f[i] = float32(s) / 32768.0
	}
	r.append(f)
}

/*-------------------------------------------------------------------
 *
 * Name:        (r) tail
 *
 * Purpose:     Copy out the newest n samples.
 *
 * Description:	Returns exactly n values; a short buffer is
 *		zero-padded at the front so callers can always run a
 *		full analysis window.
 *
 *--------------------------------------------------------------------*/

func (r *audio_ring_s) tail(n int) []float32 {
	var out = make([]float32, n)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) >= n {
		copy(out, r.samples[len(r.samples)-n:])
	} else {
		copy(out[n-len(r.samples):], r.samples)
	}

	return out
}

func (r *audio_ring_s) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}
