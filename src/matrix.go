package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Canonical 2-D to 1-D LED index mapping.
 *
 * Description:	Matrix installations are wired as a single strip that
 *		snakes through the grid: even rows run left to right,
 *		odd rows right to left.  Every renderer that thinks in
 *		(x,y) and every consumer that reads 2-D state back out
 *		of a frame must go through this mapping, or columns
 *		come out mirrored on alternate rows.
 *
 *------------------------------------------------------------------*/

import "math"

/*-------------------------------------------------------------------
 *
 * Name:        serpentine_index
 *
 * Purpose:     Map logical (x,y) on a width-wide grid to the strip index.
 *
 *--------------------------------------------------------------------*/

func serpentine_index(x int, y int, width int) int {
	if y%2 == 0 {
		return y*width + x
	}
	return y*width + (width - 1 - x)
}

/*-------------------------------------------------------------------
 *
 * Name:        near_square_dims
 *
 * Purpose:     Pick matrix dimensions for n LEDs whose product is
 *		exactly n with |width-height| as small as possible.
 *
 * Description:	Used when enabling the spectrogram forces 2-D mode on
 *		a config that has no sensible matrix shape yet.  Walks
 *		down from sqrt(n) to the nearest divisor; n=256 gives
 *		16x16, a prime n degrades to 1 x n (one column).
 *
 *--------------------------------------------------------------------*/

func near_square_dims(n int) (int, int) {
	if n <= 0 {
		return 0, 0
	}

	var w = int(math.Sqrt(float64(n)))
	for w > 1 && n%w != 0 {
		w--
	}
	return w, n / w
}
