package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Falling-sand cellular automaton.
 *
 * Description:	A width x height grid of particles stepped once per
 *		frame, bottom row first so a grain falls at most one
 *		cell per step.  Particle kinds:
 *
 *		  sand   - falls, slides diagonally
 *		  water  - falls, disperses sideways
 *		  stone  - falls, then sits
 *		  fire   - falls, spreads to flammables, becomes smoke
 *		  smoke  - rises, dissipates
 *		  wood   - falls, flammable
 *		  lava   - falls, disperses, ignites wood; water turns
 *		           it to stone and boils off as smoke
 *
 *		Heavier particles displace lighter ones below them,
 *		which is what makes sand sink through water.  Fixed
 *		obstacle cells never move.
 *
 *		Spawning and rendering both speak physical (visual)
 *		coordinates; rendering runs the grid through the
 *		serpentine mapping.
 *
 *------------------------------------------------------------------*/

import "math/rand"

type sand_particle_t uint8

const (
	PARTICLE_EMPTY sand_particle_t = iota
	PARTICLE_SAND
	PARTICLE_WATER
	PARTICLE_STONE
	PARTICLE_FIRE
	PARTICLE_SMOKE
	PARTICLE_WOOD
	PARTICLE_LAVA
)

func parse_sand_particle(s string) sand_particle_t {
	switch s {
	case "water":
		return PARTICLE_WATER
	case "stone":
		return PARTICLE_STONE
	case "fire":
		return PARTICLE_FIRE
	case "smoke":
		return PARTICLE_SMOKE
	case "wood":
		return PARTICLE_WOOD
	case "lava":
		return PARTICLE_LAVA
	default:
		return PARTICLE_SAND
	}
}

func (p sand_particle_t) falls() bool {
	switch p {
	case PARTICLE_SAND, PARTICLE_WATER, PARTICLE_LAVA, PARTICLE_WOOD, PARTICLE_STONE, PARTICLE_FIRE:
		return true
	}
	return false
}

func (p sand_particle_t) disperses() bool {
	return p == PARTICLE_WATER || p == PARTICLE_LAVA
}

func (p sand_particle_t) rises() bool {
	return p == PARTICLE_SMOKE
}

// density orders displacement: heavier sinks through lighter.
func (p sand_particle_t) density() uint8 {
	switch p {
	case PARTICLE_SMOKE:
		return 1
	case PARTICLE_FIRE:
		return 2
	case PARTICLE_WATER:
		return 10
	case PARTICLE_WOOD:
		return 15
	case PARTICLE_SAND:
		return 20
	case PARTICLE_LAVA:
		return 25
	case PARTICLE_STONE:
		return 30
	}
	return 0
}

func (p sand_particle_t) flammability() uint8 {
	if p == PARTICLE_WOOD {
		return 200
	}
	return 0
}

type sand_sim_s struct {
	width  int
	height int

	grid  []sand_particle_t
	fixed []bool

	spawn_particle sand_particle_t
	spawn_rate     float64
	spawn_radius   int
	spawn_x        int
	fire_enabled   bool

	colors map[sand_particle_t]rgb_t

	rng *rand.Rand
}

/*-------------------------------------------------------------------
 *
 * Name:        new_sand_sim
 *
 * Purpose:     Empty grid plus the knobs and palette from config.
 *
 *--------------------------------------------------------------------*/

func new_sand_sim(cfg *led_config_s) *sand_sim_s {
	var s = &sand_sim_s{
		width:  cfg.SandGridWidth,
		height: cfg.SandGridHeight,
		grid:   make([]sand_particle_t, cfg.SandGridWidth*cfg.SandGridHeight),
		fixed:  make([]bool, cfg.SandGridWidth*cfg.SandGridHeight),
		rng:    rand.New(rand.NewSource(rand.Int63())),
	}
	s.update_config(cfg)
	return s
}

// update_config applies the non-structural knobs; grid size changes
// need a rebuild by the caller.
func (s *sand_sim_s) update_config(cfg *led_config_s) {
	s.spawn_particle = parse_sand_particle(cfg.SandParticleType)
	s.spawn_rate = clampf(cfg.SandSpawnRate, 0, 1)
	s.spawn_radius = cfg.SandSpawnRadius
	s.spawn_x = clampi(cfg.SandSpawnX, 0, max_int(s.width-1, 0))
	s.fire_enabled = cfg.SandFireEnabled

	s.colors = map[sand_particle_t]rgb_t{
		PARTICLE_EMPTY: {},
		PARTICLE_SAND:  rgb_from_hex_or(cfg.SandColorSand, rgb_t{R: 194, G: 178, B: 128}),
		PARTICLE_WATER: rgb_from_hex_or(cfg.SandColorWater, rgb_t{R: 51, G: 153, B: 255}),
		PARTICLE_STONE: rgb_from_hex_or(cfg.SandColorStone, rgb_t{R: 128, G: 128, B: 128}),
		PARTICLE_FIRE:  rgb_from_hex_or(cfg.SandColorFire, rgb_t{R: 255, G: 69, B: 0}),
		PARTICLE_SMOKE: rgb_from_hex_or(cfg.SandColorSmoke, rgb_t{R: 85, G: 85, B: 85}),
		PARTICLE_WOOD:  rgb_from_hex_or(cfg.SandColorWood, rgb_t{R: 139, G: 69, B: 19}),
		PARTICLE_LAVA:  rgb_from_hex_or(cfg.SandColorLava, rgb_t{R: 207, G: 16, B: 32}),
	}
}

func (s *sand_sim_s) get(x int, y int) sand_particle_t {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		// Out of bounds acts as solid so nothing leaks off the grid.
		return PARTICLE_STONE
	}
	return s.grid[y*s.width+x]
}

func (s *sand_sim_s) set(x int, y int, p sand_particle_t) {
	if x >= 0 && x < s.width && y >= 0 && y < s.height {
		s.grid[y*s.width+x] = p
	}
}

func (s *sand_sim_s) is_fixed(x int, y int) bool {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return false
	}
	return s.fixed[y*s.width+x]
}

func (s *sand_sim_s) swap(x1, y1, x2, y2 int) {
	if x1 < 0 || x1 >= s.width || y1 < 0 || y1 >= s.height ||
		x2 < 0 || x2 >= s.width || y2 < 0 || y2 >= s.height {
		return
	}
	if s.is_fixed(x1, y1) || s.is_fixed(x2, y2) {
		return
	}
	var i1 = y1*s.width + x1
	var i2 = y2*s.width + x2
	s.grid[i1], s.grid[i2] = s.grid[i2], s.grid[i1]
}

/*-------------------------------------------------------------------
 *
 * Name:        (s) interact
 *
 * Purpose:     Chemistry between two adjacent cells.
 *
 * Description:	Water meeting lava quenches it (stone + smoke, 30%
 *		per contact step); lava meeting wood ignites it (50%
 *		when fire is enabled).  Returns true when the cells
 *		transformed, which suppresses normal movement.
 *
 *--------------------------------------------------------------------*/

func (s *sand_sim_s) interact(x1, y1, x2, y2 int) bool {
	var p1 = s.get(x1, y1)
	var p2 = s.get(x2, y2)

	if (p1 == PARTICLE_WATER && p2 == PARTICLE_LAVA) || (p1 == PARTICLE_LAVA && p2 == PARTICLE_WATER) {
		if s.rng.Float64() < 0.3 {
			if p1 == PARTICLE_LAVA {
				s.set(x1, y1, PARTICLE_STONE)
				s.set(x2, y2, PARTICLE_SMOKE)
			} else {
				s.set(x1, y1, PARTICLE_SMOKE)
				s.set(x2, y2, PARTICLE_STONE)
			}
			return true
		}
	}

	if (p1 == PARTICLE_LAVA && p2 == PARTICLE_WOOD) || (p1 == PARTICLE_WOOD && p2 == PARTICLE_LAVA) {
		if s.fire_enabled && s.rng.Float64() < 0.5 {
			if p2 == PARTICLE_WOOD {
				s.set(x2, y2, PARTICLE_FIRE)
			} else {
				s.set(x1, y1, PARTICLE_FIRE)
			}
			return true
		}
	}

	return false
}

/*-------------------------------------------------------------------
 *
 * Name:        (s) spawn_particles
 *
 * Purpose:     Drop new material near the top around spawn_x.
 *
 * Description:	spawn_x is a physical position; odd rows mirror the
 *		x coordinate so the stream looks straight despite the
 *		serpentine wiring.
 *
 *--------------------------------------------------------------------*/

func (s *sand_sim_s) spawn_particles() {
	if s.rng.Float64() > s.spawn_rate {
		return
	}

	const spawnY = 2

	for dx := -s.spawn_radius; dx <= s.spawn_radius; dx++ {
		for dy := 0; dy <= s.spawn_radius; dy++ {
			var y = spawnY + dy
			if y >= s.height {
				continue
			}

			var x = s.spawn_x + dx
			if y%2 == 1 && x >= 0 && x < s.width {
				x = s.width - 1 - x
			}
			if x < 0 || x >= s.width {
				continue
			}

			var distSq = dx*dx + dy*dy
			if distSq > s.spawn_radius*s.spawn_radius {
				continue
			}

			if s.get(x, y) == PARTICLE_EMPTY && s.rng.Float64() < 0.3 {
				s.set(x, y, s.spawn_particle)
			}
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (s) update
 *
 * Purpose:     One physics step.
 *
 * Description:	Bottom-up scan; horizontal order alternates randomly
 *		per row so flow has no left/right bias.
 *
 *--------------------------------------------------------------------*/

func (s *sand_sim_s) update() {
	for y := s.height - 1; y >= 0; y-- {
		var leftToRight = s.rng.Intn(2) == 0

		for i := 0; i < s.width; i++ {
			var x = i
			if !leftToRight {
				x = s.width - 1 - i
			}

			var p = s.get(x, y)
			if p == PARTICLE_EMPTY || s.is_fixed(x, y) {
				continue
			}

			if p.falls() {
				s.step_falling(x, y)

				if p == PARTICLE_FIRE && s.fire_enabled {
					s.step_fire(x, y)
					if s.get(x, y) == PARTICLE_FIRE && s.rng.Float64() < 0.05 {
						s.set(x, y, PARTICLE_SMOKE)
					}
				}
			} else if p.rises() {
				s.step_rising(x, y)
			}
		}
	}
}

func (s *sand_sim_s) step_falling(x int, y int) {
	var p = s.get(x, y)

	if y+1 >= s.height {
		return
	}

	if s.interact(x, y, x, y+1) {
		return
	}

	var below = s.get(x, y+1)

	if below == PARTICLE_EMPTY {
		s.swap(x, y, x, y+1)
		return
	}

	if p.density() > below.density() && !s.is_fixed(x, y+1) {
		s.swap(x, y, x, y+1)
		return
	}

	var leftOK = x > 0 && s.get(x-1, y+1) == PARTICLE_EMPTY
	var rightOK = x+1 < s.width && s.get(x+1, y+1) == PARTICLE_EMPTY

	if p.disperses() {
		switch {
		case leftOK && rightOK:
			if s.rng.Intn(2) == 0 {
				s.swap(x, y, x-1, y+1)
			} else {
				s.swap(x, y, x+1, y+1)
			}
		case leftOK:
			s.swap(x, y, x-1, y+1)
		case rightOK:
			s.swap(x, y, x+1, y+1)
		default:
			// Level out sideways.
			var leftSame = x > 0 && s.get(x-1, y) == PARTICLE_EMPTY
			var rightSame = x+1 < s.width && s.get(x+1, y) == PARTICLE_EMPTY
			switch {
			case leftSame && rightSame:
				if s.rng.Intn(2) == 0 {
					s.swap(x, y, x-1, y)
				} else {
					s.swap(x, y, x+1, y)
				}
			case leftSame:
				s.swap(x, y, x-1, y)
			case rightSame:
				s.swap(x, y, x+1, y)
			}
		}
		return
	}

	// Granular slide.
	switch {
	case leftOK && rightOK:
		if s.rng.Intn(2) == 0 {
			s.swap(x, y, x-1, y+1)
		} else {
			s.swap(x, y, x+1, y+1)
		}
	case leftOK:
		s.swap(x, y, x-1, y+1)
	case rightOK:
		s.swap(x, y, x+1, y+1)
	}
}

func (s *sand_sim_s) step_rising(x int, y int) {
	if y > 0 {
		if s.get(x, y-1) == PARTICLE_EMPTY {
			s.swap(x, y, x, y-1)
		} else {
			var leftOK = x > 0 && s.get(x-1, y-1) == PARTICLE_EMPTY
			var rightOK = x+1 < s.width && s.get(x+1, y-1) == PARTICLE_EMPTY

			switch {
			case leftOK && rightOK:
				if s.rng.Intn(2) == 0 {
					s.swap(x, y, x-1, y-1)
				} else {
					s.swap(x, y, x+1, y-1)
				}
			case leftOK:
				s.swap(x, y, x-1, y-1)
			case rightOK:
				s.swap(x, y, x+1, y-1)
			}
		}
	}

	if s.get(x, y) == PARTICLE_SMOKE && s.rng.Float64() < 0.02 {
		s.set(x, y, PARTICLE_EMPTY)
	}
}

// step_fire spreads to flammable 4-neighbours proportionally to
// their flammability.
func (s *sand_sim_s) step_fire(x int, y int) {
	var neighbors = [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}

	for _, n := range neighbors {
		var nx, ny = n[0], n[1]
		if nx < 0 || nx >= s.width || ny < 0 || ny >= s.height {
			continue
		}

		var flam = s.get(nx, ny).flammability()
		if flam > 0 && uint8(s.rng.Intn(256)) < flam/10 {
			s.set(nx, ny, PARTICLE_FIRE)
		}
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (s) render
 *
 * Purpose:     Paint the grid into a strip frame via the serpentine
 *		mapping.
 *
 *--------------------------------------------------------------------*/

func (s *sand_sim_s) render(totalLEDs int) []byte {
	var frame = make([]byte, totalLEDs*3)

	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			var c = s.colors[s.get(x, y)]
			var led = serpentine_index(x, y, s.width)
			if led >= totalLEDs {
				continue
			}
			frame[led*3] = c.R
			frame[led*3+1] = c.G
			frame[led*3+2] = c.B
		}
	}

	return frame
}

// restart empties the grid and lays fresh obstacles.
func (s *sand_sim_s) restart(obstaclesEnabled bool, density float64) {
	s.clear()
	s.place_obstacles(obstaclesEnabled, density)
}

func (s *sand_sim_s) clear() {
	for i := range s.grid {
		s.grid[i] = PARTICLE_EMPTY
	}
	for i := range s.fixed {
		s.fixed[i] = false
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (s) place_obstacles
 *
 * Purpose:     Scatter fixed wood/stone cells over the bottom
 *		quarter of the grid.
 *
 *--------------------------------------------------------------------*/

func (s *sand_sim_s) place_obstacles(enabled bool, density float64) {
	if !enabled {
		return
	}

	var startY = (s.height * 3) / 4

	for y := startY; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			if s.rng.Float64() >= density {
				continue
			}

			var p = PARTICLE_STONE
			if s.rng.Intn(2) == 0 {
				p = PARTICLE_WOOD
			}
			s.set(x, y, p)
			s.fixed[y*s.width+x] = true
		}
	}
}
