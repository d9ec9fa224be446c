package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	FFT helpers for the live audio renderers.
 *
 * Description:	Thin wrappers over gonum's real-input FFT.  Input is
 *		one channel extracted from the interleaved stream,
 *		Hann-windowed to tame spectral leakage; output is the
 *		magnitude per positive-frequency bin.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

/*-------------------------------------------------------------------
 *
 * Name:        extract_channel
 *
 * Purpose:     Pull every channels-th sample starting at ch from an
 *		interleaved buffer, up to n values.
 *
 *--------------------------------------------------------------------*/

func extract_channel(samples []float32, ch int, channels int, n int) []float64 {
	var out = make([]float64, n)

	for i := 0; i < n; i++ {
		var idx = i*channels + ch
		if idx < len(samples) {
			out[i] = float64(samples[idx])
		}
	}

	return out
}

// mono_mix averages the first two channels (or passes mono through).
func mono_mix(samples []float32, channels int, n int) []float64 {
	var out = make([]float64, n)

	for i := 0; i < n; i++ {
		var idx = i * channels
		if idx >= len(samples) {
			break
		}
		if channels >= 2 && idx+1 < len(samples) {
			out[i] = float64(samples[idx]+samples[idx+1]) / 2.0
		} else {
			out[i] = float64(samples[idx])
		}
	}

	return out
}

func apply_hann_window(seq []float64) {
	var n = len(seq)
	if n < 2 {
		return
	}
	for i := range seq {
		var w = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
		seq[i] *= w
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        fft_magnitudes
 *
 * Purpose:     Magnitude spectrum of one windowed channel.
 *
 * Outputs:	len(seq)/2 positive-frequency bin magnitudes.
 *
 *--------------------------------------------------------------------*/

func fft_magnitudes(seq []float64, window bool) []float64 {
	if len(seq) == 0 {
		return nil
	}

	if window {
		apply_hann_window(seq)
	}

	var fft = fourier.NewFFT(len(seq))
	var coeffs = fft.Coefficients(nil, seq)

	var bins = len(seq) / 2
	var mags = make([]float64, bins)
	for i := 0; i < bins && i < len(coeffs); i++ {
		mags[i] = cmplx.Abs(coeffs[i])
	}

	return mags
}

// normalize_max scales bins so the loudest is 1.0.  Silence stays
// silent instead of blowing up.
func normalize_max(bins []float64) {
	var max = 0.0
	for _, v := range bins {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return
	}
	for i := range bins {
		bins[i] /= max
	}
}
