package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Basic RGB colour type and hex parsing.
 *
 * Description:	Every frame in the pipeline is a flat run of 8-bit
 *		RGB triples.  Colour configuration arrives as hex
 *		strings ("FF8800" or "#FF8800"), either standalone or
 *		as comma-separated gradient stops.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"strconv"
	"strings"
)

type rgb_t struct {
	R uint8
	G uint8
	B uint8
}

/*-------------------------------------------------------------------
 *
 * Name:        rgb_from_hex
 *
 * Purpose:     Parse a 6-digit hex colour, with or without a leading '#'.
 *
 *--------------------------------------------------------------------*/

func rgb_from_hex(s string) (rgb_t, error) {
	var hex = strings.TrimPrefix(strings.TrimSpace(s), "#")

	if len(hex) != 6 {
		return rgb_t{}, fmt.Errorf("colour %q: want 6 hex digits", s)
	}

	var v, err = strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rgb_t{}, fmt.Errorf("colour %q: %w", s, err)
	}

	return rgb_t{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// rgb_from_hex_or is the forgiving variant used for cosmetic fields
// where a typo should not take the mode down.
func rgb_from_hex_or(s string, fallback rgb_t) rgb_t {
	var c, err = rgb_from_hex(s)
	if err != nil {
		return fallback
	}
	return c
}
