package gowled

/*------------------------------------------------------------------
 *
 * Purpose:   	Tron light-cycle game on the LED matrix.
 *
 * Description:	AI players ride a W x H grid leaving coloured trails.
 *		One player is snake rules (trail capped, grows by
 *		eating); more players are tron rules (trails persist
 *		until the round resets).  Steering looks ahead a few
 *		cells and turns away from walls and trails; the
 *		aggression knob is the chance of biasing a step toward
 *		the nearest food.  Players do not try to cut each
 *		other off.
 *
 *		The game steps on its own clock (tron_speed_ms); the
 *		mode loop renders at fps in between, so a slow game
 *		still animates trail fades smoothly.
 *
 *------------------------------------------------------------------*/

import (
	"math/rand"
	"strings"
	"time"
)

type tron_player_s struct {
	x, y  int
	dx, dy int
	color rgb_t
	alive bool

	// Trail cells, newest last.
	trail [][2]int

	// Snake: allowed trail length; grows by eating.
	max_trail int
	score     int
}

type tron_food_s struct {
	x, y    int
	expires time.Time
}

type tron_game_s struct {
	width  int
	height int

	players []tron_player_s
	food    []tron_food_s

	snake_rules bool
	trail_limit int
	trail_fade  bool
	food_mode   bool
	food_max    int
	food_ttl    time.Duration
	look_ahead  int
	aggression  float64
	diagonal    bool

	reset_at    time.Time
	round_over  bool
	reset_delay time.Duration

	rng *rand.Rand
}

/*-------------------------------------------------------------------
 *
 * Name:        new_tron_game
 *
 * Purpose:     Set up the board and place the players.
 *
 *--------------------------------------------------------------------*/

func new_tron_game(cfg *led_config_s) *tron_game_s {
	var g = &tron_game_s{
		width:       max_int(cfg.TronWidth, 4),
		height:      max_int(cfg.TronHeight, 4),
		snake_rules: cfg.TronNumPlayers == 1,
		trail_limit: cfg.TronTrailLength,
		trail_fade:  cfg.TronTrailFade,
		food_mode:   cfg.TronFoodMode,
		food_max:    cfg.TronFoodMaxCount,
		food_ttl:    time.Duration(cfg.TronFoodTTLSeconds) * time.Second,
		look_ahead:  max_int(cfg.TronLookAhead, 1),
		aggression:  cfg.TronAIAggression,
		diagonal:    cfg.TronDiagonalMovement,
		reset_delay: time.Duration(cfg.TronResetDelayMS) * time.Millisecond,
		rng:         rand.New(rand.NewSource(rand.Int63())),
	}

	var colors = parse_player_colors(cfg.TronPlayerColors)
	var n = clampi(cfg.TronNumPlayers, 1, 8)

	for i := 0; i < n; i++ {
		g.players = append(g.players, tron_player_s{color: colors[i%len(colors)]})
	}
	g.reset_round()

	return g
}

func parse_player_colors(s string) []rgb_t {
	var out []rgb_t
	for _, part := range strings.Split(s, ",") {
		if c, err := rgb_from_hex(part); err == nil {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = []rgb_t{{R: 255}, {G: 255}, {B: 255}}
	}
	return out
}

func (g *tron_game_s) reset_round() {
	g.food = nil
	g.round_over = false

	for i := range g.players {
		var p = &g.players[i]
		p.x = (i*2 + 1) * g.width / (len(g.players)*2)
		p.y = g.height / 2
		p.dx, p.dy = 1, 0
		if i%2 == 1 {
			p.dx = -1
		}
		p.alive = true
		p.trail = p.trail[:0]
		p.max_trail = max_int(g.trail_limit, 3)
		p.score = 0
	}
}

func (g *tron_game_s) occupied(x int, y int) bool {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return true
	}
	for i := range g.players {
		for _, c := range g.players[i].trail {
			if c[0] == x && c[1] == y {
				return true
			}
		}
		if g.players[i].alive && g.players[i].x == x && g.players[i].y == y {
			return true
		}
	}
	return false
}

func (g *tron_game_s) directions() [][2]int {
	var dirs = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	if g.diagonal {
		dirs = append(dirs, [2]int{1, 1}, [2]int{1, -1}, [2]int{-1, 1}, [2]int{-1, -1})
	}
	return dirs
}

/*-------------------------------------------------------------------
 *
 * Name:        (g) steer
 *
 * Purpose:     Pick a direction for one AI player.
 *
 * Description:	Scores every legal direction by open distance up to
 *		look_ahead; aggression-weighted chance of biasing
 *		toward the nearest food instead of the safest lane.
 *
 *--------------------------------------------------------------------*/

func (g *tron_game_s) steer(p *tron_player_s) {
	var bestScore = -1
	var bestDX, bestDY = p.dx, p.dy

	var wantFood = g.food_mode && len(g.food) > 0 && g.rng.Float64() < g.aggression

	for _, d := range g.directions() {
		// No reversing into yourself.
		if d[0] == -p.dx && d[1] == -p.dy {
			continue
		}

		var open = 0
		for step := 1; step <= g.look_ahead; step++ {
			if g.occupied(p.x+d[0]*step, p.y+d[1]*step) {
				break
			}
			open++
		}

		var score = open * 10
		if wantFood && open > 0 {
			var f = g.food[0]
			var distNow = abs_int(f.x-p.x) + abs_int(f.y-p.y)
			var distNext = abs_int(f.x-(p.x+d[0])) + abs_int(f.y-(p.y+d[1]))
			if distNext < distNow {
				score += 15
			}
		}
		// Small jitter so equal lanes don't produce loops.
		score += g.rng.Intn(3)

		if score > bestScore {
			bestScore = score
			bestDX, bestDY = d[0], d[1]
		}
	}

	p.dx, p.dy = bestDX, bestDY
}

func abs_int(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

/*-------------------------------------------------------------------
 *
 * Name:        (g) step
 *
 * Purpose:     One game tick: steer, move, eat, collide.
 *
 *--------------------------------------------------------------------*/

func (g *tron_game_s) step(now time.Time) {
	if g.round_over {
		if now.After(g.reset_at) {
			g.reset_round()
		}
		return
	}

	// Food bookkeeping.
	if g.food_mode {
		var kept = g.food[:0]
		for _, f := range g.food {
			if now.Before(f.expires) {
				kept = append(kept, f)
			}
		}
		g.food = kept

		for len(g.food) < g.food_max {
			var placed = false
			for try := 0; try < 10; try++ {
				var x, y = g.rng.Intn(g.width), g.rng.Intn(g.height)
				if !g.occupied(x, y) {
					g.food = append(g.food, tron_food_s{x: x, y: y, expires: now.Add(g.food_ttl)})
					placed = true
					break
				}
			}
			if !placed {
				break
			}
		}
	}

	var alive = 0
	for i := range g.players {
		var p = &g.players[i]
		if !p.alive {
			continue
		}

		g.steer(p)

		var nx, ny = p.x + p.dx, p.y + p.dy
		if g.occupied(nx, ny) {
			p.alive = false
			continue
		}

		p.trail = append(p.trail, [2]int{p.x, p.y})
		if g.snake_rules {
			for len(p.trail) > p.max_trail {
				p.trail = p.trail[1:]
			}
		}

		p.x, p.y = nx, ny

		// Eat.
		for fi := range g.food {
			if g.food[fi].x == p.x && g.food[fi].y == p.y {
				g.food = append(g.food[:fi], g.food[fi+1:]...)
				p.score++
				p.max_trail += 2
				break
			}
		}

		alive++
	}

	var lastStanding = 1
	if g.snake_rules {
		lastStanding = 0
	}
	if alive <= lastStanding {
		g.round_over = true
		g.reset_at = now.Add(g.reset_delay)
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        (g) render
 *
 * Purpose:     Paint trails, heads and food into a strip frame.
 *
 *--------------------------------------------------------------------*/

func (g *tron_game_s) render(totalLEDs int) []byte {
	var frame = make([]byte, totalLEDs*3)

	var put = func(x int, y int, c rgb_t) {
		var led = serpentine_index(x, y, g.width)
		if led < totalLEDs {
			frame[led*3] = c.R
			frame[led*3+1] = c.G
			frame[led*3+2] = c.B
		}
	}

	for i := range g.players {
		var p = &g.players[i]

		for ti, cell := range p.trail {
			var c = p.color
			if g.trail_fade && len(p.trail) > 1 {
				// Oldest trail cells dim toward a quarter brightness.
				var age = float64(ti) / float64(len(p.trail)-1)
				c = scale_rgb(c, 0.25+0.75*age)
			}
			put(cell[0], cell[1], c)
		}

		if p.alive {
			put(p.x, p.y, rgb_t{R: 255, G: 255, B: 255})
		}
	}

	for _, f := range g.food {
		put(f.x, f.y, rgb_t{R: 255, G: 255, B: 180})
	}

	return frame
}
