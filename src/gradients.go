package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Gradient construction and animated sampling.
 *
 * Description:	Colour configuration strings are either a named
 *		palette ("rainbow"), a single hex colour, or a list
 *		of comma-separated hex stops.  A gradient interpolates
 *		over the ordered stops with one of three curves:
 *
 *		  linear     - straight RGB segment interpolation.
 *		  basis      - uniform cubic B-spline over the stops.
 *		  catmullrom - Catmull-Rom spline through the stops.
 *
 *		Animated sampling shifts the lookup position by a
 *		wrapping offset each frame so the palette appears to
 *		scroll along the strip.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

type interp_mode_t int

const (
	INTERP_LINEAR interp_mode_t = iota
	INTERP_BASIS
	INTERP_CATMULLROM
)

func parse_interp_mode(s string) interp_mode_t {
	switch strings.ToLower(s) {
	case "basis":
		return INTERP_BASIS
	case "catmullrom":
		return INTERP_CATMULLROM
	default:
		return INTERP_LINEAR
	}
}

// Built-in palettes selectable by name anywhere a colour string is accepted.
var named_gradients = map[string]string{
	"rainbow":    "FF0000,FF7F00,FFFF00,00FF00,0000FF,4B0082,9400D3",
	"sunset":     "FF5E62,FF9966,FFC371",
	"ocean":      "000046,1CB5E0",
	"forest":     "134E5E,71B280",
	"fire":       "F00000,FF8C00,FFD700",
	"ice":        "74EBD5,ACB6E5",
	"purplehaze": "7303C0,EC38BC,FDEFF9",
	"matrix":     "000000,00FF41",
}

/*-------------------------------------------------------------------
 *
 * Name:        resolve_color_string
 *
 * Purpose:     Turn a configured colour string into a concrete list
 *		of hex stops.  Named palettes are expanded; anything
 *		else passes through untouched.
 *
 *--------------------------------------------------------------------*/

func resolve_color_string(s string) string {
	if stops, ok := named_gradients[strings.ToLower(strings.TrimSpace(s))]; ok {
		return stops
	}
	return s
}

const default_rainbow = "FF0000,FF7F00,FFFF00,00FF00,0000FF,4B0082,9400D3"

/*-------------------------------------------------------------------
 *
 * Name:        resolve_tx_rx_colors
 *
 * Purpose:     Per-channel colour strings with the shared fallback.
 *
 * Description:	Empty tx_color / rx_color mean "use color".  An empty
 *		color on top of that means the default rainbow.
 *
 *--------------------------------------------------------------------*/

func resolve_tx_rx_colors(cfg *led_config_s) (string, string) {
	var base = cfg.Color
	if base == "" {
		base = default_rainbow
	}

	var tx = cfg.TXColor
	if tx == "" {
		tx = base
	}
	var rx = cfg.RXColor
	if rx == "" {
		rx = base
	}

	return resolve_color_string(tx), resolve_color_string(rx)
}

type gradient_s struct {
	stops []colorful.Color
	mode  interp_mode_t
}

/*-------------------------------------------------------------------
 *
 * Name:        build_gradient_from_color
 *
 * Purpose:     Build the render-time colour lookup for one channel.
 *
 * Inputs:	colorStr     - resolved colour string (hex stops).
 *		useGradient  - false forces discrete colour segments.
 *		mode         - interpolation curve for gradients.
 *
 * Outputs:	grad   - smooth gradient, or nil when not applicable.
 *		colors - the parsed stop list (used for discrete mode).
 *		solid  - fallback single colour.
 *
 * Description: The three-way colour resolution every renderer shares:
 *		a real gradient when there are 2+ stops and gradients
 *		are enabled, a segmented colour list when gradients
 *		are off, and a single solid colour otherwise.
 *
 *--------------------------------------------------------------------*/

func build_gradient_from_color(colorStr string, useGradient bool, mode interp_mode_t) (*gradient_s, []rgb_t, rgb_t, error) {
	var solid = rgb_t{R: 255, G: 255, B: 255}

	var parts = strings.Split(resolve_color_string(colorStr), ",")
	var colors []rgb_t
	var stops []colorful.Color

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var c, err = rgb_from_hex(p)
		if err != nil {
			return nil, nil, solid, fmt.Errorf("gradient stop: %w", err)
		}
		colors = append(colors, c)
		stops = append(stops, colorful.Color{
			R: float64(c.R) / 255.0,
			G: float64(c.G) / 255.0,
			B: float64(c.B) / 255.0,
		})
	}

	if len(colors) == 0 {
		return nil, nil, solid, fmt.Errorf("colour string %q has no stops", colorStr)
	}

	solid = colors[0]

	if len(colors) == 1 || !useGradient {
		return nil, colors, solid, nil
	}

	return &gradient_s{stops: stops, mode: mode}, colors, solid, nil
}

/*-------------------------------------------------------------------
 *
 * Name:        (g) at
 *
 * Purpose:     Sample the gradient at position t in [0,1].
 *
 * Description: Linear mode lerps within the containing segment.
 *		The spline modes treat the stops as control points of
 *		a uniform cubic curve evaluated per RGB channel.
 *
 *--------------------------------------------------------------------*/

func (g *gradient_s) at(t float64) rgb_t {
	t = math.Min(1, math.Max(0, t))

	var n = len(g.stops)
	if n == 1 {
		return color_to_rgb(g.stops[0])
	}

	switch g.mode {
	case INTERP_BASIS:
		return g.spline_at(t, basis_blend)
	case INTERP_CATMULLROM:
		return g.spline_at(t, catmullrom_blend)
	default:
		var pos = t * float64(n-1)
		var i = int(pos)
		if i >= n-1 {
			i = n - 2
		}
		var frac = pos - float64(i)
		var a, b = g.stops[i], g.stops[i+1]
		return color_to_rgb(colorful.Color{
			R: a.R + (b.R-a.R)*frac,
			G: a.G + (b.G-a.G)*frac,
			B: a.B + (b.B-a.B)*frac,
		})
	}
}

// spline_at evaluates a cubic blend over the four control stops
// surrounding t.  End stops are duplicated so the curve spans the
// full [0,1] range.
func (g *gradient_s) spline_at(t float64, blend func(p0, p1, p2, p3, u float64) float64) rgb_t {
	var n = len(g.stops)
	var pos = t * float64(n-1)
	var i = int(pos)
	if i >= n-1 {
		i = n - 2
	}
	var u = pos - float64(i)

	var pick = func(j int) colorful.Color {
		if j < 0 {
			j = 0
		}
		if j > n-1 {
			j = n - 1
		}
		return g.stops[j]
	}

	var p0, p1, p2, p3 = pick(i - 1), pick(i), pick(i + 1), pick(i + 2)

	var clamp01 = func(v float64) float64 { return math.Min(1, math.Max(0, v)) }

	return color_to_rgb(colorful.Color{
		R: clamp01(blend(p0.R, p1.R, p2.R, p3.R, u)),
		G: clamp01(blend(p0.G, p1.G, p2.G, p3.G, u)),
		B: clamp01(blend(p0.B, p1.B, p2.B, p3.B, u)),
	})
}

// Uniform cubic B-spline basis.  Smooths across stops without
// necessarily passing through them.
func basis_blend(p0, p1, p2, p3, u float64) float64 {
	var u2 = u * u
	var u3 = u2 * u
	return ((1-u)*(1-u)*(1-u)*p0 +
		(3*u3-6*u2+4)*p1 +
		(-3*u3+3*u2+3*u+1)*p2 +
		u3*p3) / 6.0
}

// Catmull-Rom: passes through every stop.
func catmullrom_blend(p0, p1, p2, p3, u float64) float64 {
	var u2 = u * u
	var u3 = u2 * u
	return 0.5 * ((2 * p1) +
		(-p0+p2)*u +
		(2*p0-5*p1+4*p2-p3)*u2 +
		(-p0+3*p1-3*p2+p3)*u3)
}

func color_to_rgb(c colorful.Color) rgb_t {
	var r, g, b = c.RGB255()
	return rgb_t{R: r, G: g, B: b}
}

/*-------------------------------------------------------------------
 *
 * Name:        animated_gradient_pos
 *
 * Purpose:     Apply the animation offset to a gradient position.
 *
 * Description: "left" (the default) scrolls the palette toward lower
 *		positions, "right" the other way.  Both results wrap
 *		into [0,1).
 *
 *--------------------------------------------------------------------*/

func animated_gradient_pos(t float64, offset float64, direction string) float64 {
	if direction == "right" {
		return math.Mod(1.0+t-offset, 1.0)
	}
	return math.Mod(t+offset, 1.0)
}

// advance_animation_offset steps an offset by speed expressed in LEDs
// per frame over half the strip, so one unit of speed moves the
// palette one LED per frame and a full wrap takes total/2 frames.
// Zero or negative speeds leave the offset unchanged.
func advance_animation_offset(offset float64, speed float64, totalLEDs int) float64 {
	var half = totalLEDs / 2
	if half <= 0 || speed <= 0 {
		return offset
	}
	return math.Mod(offset+speed/float64(half), 1.0)
}

/*-------------------------------------------------------------------
 *
 * Name:        gradient_sample
 *
 * Purpose:     One-stop colour lookup shared by the renderers.
 *
 * Inputs:	pos    - spatial position in [0,1] along the fill.
 *		level  - channel level in [0,1], for intensity mode.
 *
 * Description:	With intensity_colors set, every lit LED takes the
 *		single colour at the level position, so the whole fill
 *		shifts hue together instead of spreading the palette.
 *
 *--------------------------------------------------------------------*/

func gradient_sample(grad *gradient_s, colors []rgb_t, solid rgb_t, pos float64, offset float64, direction string, intensityColors bool, level float64) rgb_t {
	if intensityColors {
		pos = level
	}

	if grad != nil {
		return grad.at(animated_gradient_pos(pos, offset, direction))
	}

	if len(colors) > 1 {
		var n = len(colors)
		var idx = int(pos * float64(n))
		if idx >= n {
			idx = n - 1
		}
		return colors[idx]
	}

	if len(colors) == 1 {
		return colors[0]
	}

	return solid
}
