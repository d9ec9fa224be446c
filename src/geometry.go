package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Geometry mode: mathematical line-art animations on a
 *		2-D grid.
 *
 * Description:	A catalogue of parametric figures rendered as point
 *		clouds into a float accumulation buffer, then exposed
 *		as a strip frame through the serpentine mapping.  In
 *		cycle mode the figure changes every mode_duration
 *		seconds with a short cross-fade; the animation clock
 *		never resets, so motion stays continuous across
 *		figure changes.
 *
 *		Figures: lissajous, rose, phyllotaxis, kaleidoscope,
 *		spiral, and a boids flock with optional predators.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"math/rand"
	"strings"
	"time"
)

type geometry_mode_t int

const (
	GEOMETRY_LISSAJOUS geometry_mode_t = iota
	GEOMETRY_ROSE
	GEOMETRY_PHYLLOTAXIS
	GEOMETRY_KALEIDOSCOPE
	GEOMETRY_SPIRAL
	GEOMETRY_BOIDS

	geometry_mode_count
)

func geometry_mode_from_string(s string) (geometry_mode_t, bool) {
	switch strings.ToLower(s) {
	case "lissajous":
		return GEOMETRY_LISSAJOUS, true
	case "rose":
		return GEOMETRY_ROSE, true
	case "phyllotaxis":
		return GEOMETRY_PHYLLOTAXIS, true
	case "kaleidoscope":
		return GEOMETRY_KALEIDOSCOPE, true
	case "spiral":
		return GEOMETRY_SPIRAL, true
	case "boids":
		return GEOMETRY_BOIDS, true
	}
	return 0, false
}

func (m geometry_mode_t) next() geometry_mode_t {
	return (m + 1) % geometry_mode_count
}

/* Boids operate in unit [0,1)^2 space with toroidal wrap. */

type boid_s struct {
	x, y   float64
	vx, vy float64
}

type geometry_state_s struct {
	total_leds int
	width      int
	height     int

	fixed_mode   *geometry_mode_t
	current_mode geometry_mode_t
	next_mode    *geometry_mode_t

	mode_duration       time.Duration
	transition_duration time.Duration
	randomize_order     bool

	mode_start      time.Time
	animation_start time.Time

	animation_offset    float64
	animation_direction string

	// Accumulation buffer, (r,g,b) floats per cell.
	frame_buffer []float64

	palette []rgb_t

	boids     []boid_s
	predators []boid_s
	boid_cfg  boid_config_s

	rng *rand.Rand
}

type boid_config_s struct {
	separation_distance float64
	alignment_distance  float64
	cohesion_distance   float64
	max_speed           float64
	max_force           float64
	predator_enabled    bool
	predator_speed      float64
	avoidance_distance  float64
	chase_force         float64
}

/*-------------------------------------------------------------------
 *
 * Name:        new_geometry_state
 *
 * Purpose:     Build the animator from config: figure selection,
 *		cycle timing, boid parameters, palette.
 *
 *--------------------------------------------------------------------*/

func new_geometry_state(cfg *led_config_s) *geometry_state_s {
	var st = &geometry_state_s{
		total_leds:          cfg.TotalLEDs,
		width:               max_int(cfg.GeometryGridWidth, 1),
		height:              max_int(cfg.GeometryGridHeight, 1),
		mode_duration:       time.Duration(cfg.GeometryModeDurationSeconds * float64(time.Second)),
		transition_duration: 2 * time.Second,
		randomize_order:     cfg.GeometryRandomizeOrder,
		mode_start:          time.Now(),
		animation_start:     time.Now(),
		rng:                 rand.New(rand.NewSource(rand.Int63())),
	}
	st.frame_buffer = make([]float64, st.width*st.height*3)

	if mode, ok := geometry_mode_from_string(cfg.GeometryModeSelect); ok {
		st.fixed_mode = &mode
		st.current_mode = mode
	}

	st.boid_cfg = boid_config_s{
		separation_distance: cfg.BoidSeparationDistance,
		alignment_distance:  cfg.BoidAlignmentDistance,
		cohesion_distance:   cfg.BoidCohesionDistance,
		max_speed:           cfg.BoidMaxSpeed,
		max_force:           cfg.BoidMaxForce,
		predator_enabled:    cfg.BoidPredatorEnabled,
		predator_speed:      cfg.BoidPredatorSpeed,
		avoidance_distance:  cfg.BoidAvoidanceDistance,
		chase_force:         cfg.BoidChaseForce,
	}

	st.boids = make([]boid_s, cfg.BoidCount)
	for i := range st.boids {
		st.boids[i] = st.random_boid(cfg.BoidMaxSpeed)
	}
	st.predators = make([]boid_s, cfg.BoidPredatorCount)
	for i := range st.predators {
		st.predators[i] = st.random_boid(cfg.BoidPredatorSpeed)
	}

	st.set_palette_from(cfg)
	return st
}

func (st *geometry_state_s) random_boid(speed float64) boid_s {
	var angle = st.rng.Float64() * 2 * math.Pi
	return boid_s{
		x:  st.rng.Float64(),
		y:  st.rng.Float64(),
		vx: math.Cos(angle) * speed,
		vy: math.Sin(angle) * speed,
	}
}

func (st *geometry_state_s) set_palette_from(cfg *led_config_s) {
	var colorStr = cfg.Color
	if colorStr == "" {
		colorStr = default_rainbow
	}
	var _, colors, solid, err = build_gradient_from_color(colorStr, cfg.UseGradient, parse_interp_mode(cfg.Interpolation))
	if err != nil || len(colors) == 0 {
		st.palette = []rgb_t{solid}
		return
	}
	st.palette = colors
}

// update_tunables applies in-place parameter changes without
// disturbing positions or the cycle clock.
func (st *geometry_state_s) update_tunables(cfg *led_config_s) {
	st.mode_duration = time.Duration(cfg.GeometryModeDurationSeconds * float64(time.Second))
	st.randomize_order = cfg.GeometryRandomizeOrder

	if mode, ok := geometry_mode_from_string(cfg.GeometryModeSelect); ok {
		st.fixed_mode = &mode
		st.current_mode = mode
	} else {
		st.fixed_mode = nil
	}

	st.boid_cfg.separation_distance = cfg.BoidSeparationDistance
	st.boid_cfg.alignment_distance = cfg.BoidAlignmentDistance
	st.boid_cfg.cohesion_distance = cfg.BoidCohesionDistance
	st.boid_cfg.max_speed = cfg.BoidMaxSpeed
	st.boid_cfg.max_force = cfg.BoidMaxForce
	st.boid_cfg.predator_enabled = cfg.BoidPredatorEnabled
	st.boid_cfg.predator_speed = cfg.BoidPredatorSpeed
	st.boid_cfg.avoidance_distance = cfg.BoidAvoidanceDistance
	st.boid_cfg.chase_force = cfg.BoidChaseForce

	for len(st.boids) < cfg.BoidCount {
		st.boids = append(st.boids, st.random_boid(cfg.BoidMaxSpeed))
	}
	if len(st.boids) > cfg.BoidCount {
		st.boids = st.boids[:cfg.BoidCount]
	}
	for len(st.predators) < cfg.BoidPredatorCount {
		st.predators = append(st.predators, st.random_boid(cfg.BoidPredatorSpeed))
	}
	if len(st.predators) > cfg.BoidPredatorCount {
		st.predators = st.predators[:cfg.BoidPredatorCount]
	}

	st.set_palette_from(cfg)
}

/*-------------------------------------------------------------------
 *
 * Name:        (st) tick
 *
 * Purpose:     Advance the cycle clock and render one frame.
 *
 *--------------------------------------------------------------------*/

func (st *geometry_state_s) tick(animationSpeed float64, animationDirection string) []byte {
	st.animation_offset = advance_animation_offset(st.animation_offset, animationSpeed, st.total_leds)
	st.animation_direction = animationDirection

	var elapsed = time.Since(st.mode_start)
	var totalCycle = st.mode_duration + st.transition_duration

	if st.fixed_mode == nil && elapsed >= totalCycle {
		if st.next_mode != nil {
			st.current_mode = *st.next_mode
		} else {
			st.current_mode = st.pick_next()
		}
		st.next_mode = nil
		st.mode_start = time.Now()
		elapsed = 0
		// The animation clock keeps running so motion never jumps.
	}

	var transition = 0.0
	if st.fixed_mode == nil && elapsed >= st.mode_duration && st.transition_duration > 0 {
		if st.next_mode == nil {
			var n = st.pick_next()
			st.next_mode = &n
		}
		transition = float64(elapsed-st.mode_duration) / float64(st.transition_duration)
	}

	for i := range st.frame_buffer {
		st.frame_buffer[i] = 0
	}

	var t = time.Since(st.animation_start).Seconds()

	st.render_figure(st.current_mode, t, 1.0-transition)
	if st.next_mode != nil && transition > 0 {
		st.render_figure(*st.next_mode, t, transition)
	}

	return st.to_frame()
}

func (st *geometry_state_s) pick_next() geometry_mode_t {
	if st.randomize_order {
		return geometry_mode_t(st.rng.Intn(int(geometry_mode_count)))
	}
	return st.current_mode.next()
}

/*-------------------------------------------------------------------
 *
 * Name:        (st) plot
 *
 * Purpose:     Accumulate one point into the float buffer.
 *
 * Inputs:	x, y in unit space; colorPos picks from the palette
 *		with the animation offset applied.
 *
 *--------------------------------------------------------------------*/

func (st *geometry_state_s) plot(x float64, y float64, colorPos float64, brightness float64) {
	if x < 0 || x >= 1 || y < 0 || y >= 1 {
		return
	}

	var px = int(x * float64(st.width))
	var py = int(y * float64(st.height))
	if px >= st.width {
		px = st.width - 1
	}
	if py >= st.height {
		py = st.height - 1
	}

	var c = st.palette_color(colorPos)
	var idx = (py*st.width + px) * 3

	st.frame_buffer[idx] = math.Min(1, st.frame_buffer[idx]+float64(c.R)/255.0*brightness)
	st.frame_buffer[idx+1] = math.Min(1, st.frame_buffer[idx+1]+float64(c.G)/255.0*brightness)
	st.frame_buffer[idx+2] = math.Min(1, st.frame_buffer[idx+2]+float64(c.B)/255.0*brightness)
}

func (st *geometry_state_s) palette_color(pos float64) rgb_t {
	if len(st.palette) == 0 {
		return rgb_t{R: 255, G: 255, B: 255}
	}
	pos = animated_gradient_pos(pos, st.animation_offset, st.animation_direction)
	var idx = int(pos * float64(len(st.palette)))
	if idx >= len(st.palette) {
		idx = len(st.palette) - 1
	}
	return st.palette[idx]
}

func (st *geometry_state_s) render_figure(mode geometry_mode_t, t float64, weight float64) {
	const points = 720

	switch mode {
	case GEOMETRY_LISSAJOUS:
		var a, b = 3.0, 4.0
		var phase = t * 0.7
		for i := 0; i < points; i++ {
			var u = float64(i) / points * 2 * math.Pi
			var x = 0.5 + 0.45*math.Sin(a*u+phase)
			var y = 0.5 + 0.45*math.Sin(b*u)
			st.plot(x, y, float64(i)/points, weight)
		}

	case GEOMETRY_ROSE:
		var k = 5.0
		var spin = t * 0.4
		for i := 0; i < points; i++ {
			var u = float64(i) / points * 2 * math.Pi
			var r = 0.45 * math.Cos(k*u)
			var x = 0.5 + r*math.Cos(u+spin)
			var y = 0.5 + r*math.Sin(u+spin)
			st.plot(x, y, float64(i)/points, weight)
		}

	case GEOMETRY_PHYLLOTAXIS:
		const golden = 2.39996322972865332
		var n = 200
		var grow = 0.5 + 0.5*math.Sin(t*0.3)
		for i := 0; i < n; i++ {
			var r = 0.47 * math.Sqrt(float64(i)/float64(n)) * grow
			var theta = float64(i)*golden + t*0.2
			var x = 0.5 + r*math.Cos(theta)
			var y = 0.5 + r*math.Sin(theta)
			st.plot(x, y, float64(i)/float64(n), weight)
		}

	case GEOMETRY_KALEIDOSCOPE:
		const segments = 6
		for i := 0; i < points/segments; i++ {
			var u = float64(i) / float64(points/segments)
			var r = 0.1 + 0.35*math.Abs(math.Sin(u*7+t))
			for s := 0; s < segments; s++ {
				var theta = u*math.Pi/segments + float64(s)*2*math.Pi/segments + t*0.3
				var x = 0.5 + r*math.Cos(theta)
				var y = 0.5 + r*math.Sin(theta)
				st.plot(x, y, u, weight)
			}
		}

	case GEOMETRY_SPIRAL:
		for i := 0; i < points; i++ {
			var u = float64(i) / points
			var r = 0.47 * u
			var theta = u*6*math.Pi + t*0.8
			var x = 0.5 + r*math.Cos(theta)
			var y = 0.5 + r*math.Sin(theta)
			st.plot(x, y, u, weight)
		}

	case GEOMETRY_BOIDS:
		st.step_boids()
		for i, b := range st.boids {
			st.plot(b.x, b.y, float64(i)/float64(len(st.boids)), weight)
		}
		if st.boid_cfg.predator_enabled {
			for _, p := range st.predators {
				st.plot(p.x, p.y, 0, weight)
			}
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (st) step_boids
 *
 * Purpose:     One step of the classic three-rule flock, plus
 *		predator avoidance and chase.
 *
 *--------------------------------------------------------------------*/

func (st *geometry_state_s) step_boids() {
	var cfg = st.boid_cfg

	// wrap_delta gives the shortest toroidal displacement.
	var wrapDelta = func(d float64) float64 {
		if d > 0.5 {
			return d - 1
		}
		if d < -0.5 {
			return d + 1
		}
		return d
	}

	for i := range st.boids {
		var b = &st.boids[i]
		var sepX, sepY, aliX, aliY, cohX, cohY float64
		var aliN, cohN int

		for j := range st.boids {
			if i == j {
				continue
			}
			var dx = wrapDelta(st.boids[j].x - b.x)
			var dy = wrapDelta(st.boids[j].y - b.y)
			var dist = math.Hypot(dx, dy)

			if dist < cfg.separation_distance && dist > 0 {
				sepX -= dx / dist
				sepY -= dy / dist
			}
			if dist < cfg.alignment_distance {
				aliX += st.boids[j].vx
				aliY += st.boids[j].vy
				aliN++
			}
			if dist < cfg.cohesion_distance {
				cohX += dx
				cohY += dy
				cohN++
			}
		}

		var fx = sepX * cfg.max_force
		var fy = sepY * cfg.max_force
		if aliN > 0 {
			fx += (aliX/float64(aliN) - b.vx) * 0.5
			fy += (aliY/float64(aliN) - b.vy) * 0.5
		}
		if cohN > 0 {
			fx += cohX / float64(cohN) * cfg.max_force
			fy += cohY / float64(cohN) * cfg.max_force
		}

		// Flee predators.
		if cfg.predator_enabled {
			for _, p := range st.predators {
				var dx = wrapDelta(p.x - b.x)
				var dy = wrapDelta(p.y - b.y)
				var dist = math.Hypot(dx, dy)
				if dist < cfg.avoidance_distance && dist > 0 {
					fx -= dx / dist * cfg.max_force * 3
					fy -= dy / dist * cfg.max_force * 3
				}
			}
		}

		b.vx += fx
		b.vy += fy

		var speed = math.Hypot(b.vx, b.vy)
		if speed > cfg.max_speed && speed > 0 {
			b.vx = b.vx / speed * cfg.max_speed
			b.vy = b.vy / speed * cfg.max_speed
		}

		b.x = math.Mod(b.x+b.vx+1, 1)
		b.y = math.Mod(b.y+b.vy+1, 1)
	}

	if !cfg.predator_enabled {
		return
	}

	for i := range st.predators {
		var p = &st.predators[i]

		// Chase the nearest boid.
		var bestDist = math.Inf(1)
		var bestDX, bestDY float64
		for _, b := range st.boids {
			var dx = wrapDelta(b.x - p.x)
			var dy = wrapDelta(b.y - p.y)
			var dist = math.Hypot(dx, dy)
			if dist < bestDist {
				bestDist = dist
				bestDX, bestDY = dx, dy
			}
		}

		if bestDist > 0 && !math.IsInf(bestDist, 1) {
			p.vx += bestDX / bestDist * cfg.chase_force
			p.vy += bestDY / bestDist * cfg.chase_force
		}

		var speed = math.Hypot(p.vx, p.vy)
		if speed > cfg.predator_speed && speed > 0 {
			p.vx = p.vx / speed * cfg.predator_speed
			p.vy = p.vy / speed * cfg.predator_speed
		}

		p.x = math.Mod(p.x+p.vx+1, 1)
		p.y = math.Mod(p.y+p.vy+1, 1)
	}
}

// to_frame exposes the accumulation buffer as strip bytes.
func (st *geometry_state_s) to_frame() []byte {
	var frame = make([]byte, st.total_leds*3)

	for y := 0; y < st.height; y++ {
		for x := 0; x < st.width; x++ {
			var led = serpentine_index(x, y, st.width)
			if led >= st.total_leds {
				continue
			}
			var src = (y*st.width + x) * 3
			frame[led*3] = uint8(st.frame_buffer[src] * 255)
			frame[led*3+1] = uint8(st.frame_buffer[src+1] * 255)
			frame[led*3+2] = uint8(st.frame_buffer[src+2] * 255)
		}
	}

	return frame
}
