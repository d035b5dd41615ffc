package layout

import "math"

// applyLinks pulls linked nodes toward LinkDistance, using positions
// advanced by the current velocity. The correction is split between the
// endpoints by degree bias.
func (s *Simulation) applyLinks() {
	for _, l := range s.links {
		a, b := &s.bodies[l.s], &s.bodies[l.t]
		dx := b.x + b.vx - a.x - a.vx
		dy := b.y + b.vy - a.y - a.vy
		if dx == 0 {
			dx = s.jiggle()
		}
		if dy == 0 {
			dy = s.jiggle()
		}
		d := math.Sqrt(dx*dx + dy*dy)
		k := (d - l.distance) / d * s.alpha * l.strength
		dx, dy = dx*k, dy*k
		s.forceX[l.t] -= dx * l.bias
		s.forceY[l.t] -= dy * l.bias
		s.forceX[l.s] += dx * (1 - l.bias)
		s.forceY[l.s] += dy * (1 - l.bias)
	}
}

// cellKey addresses one square of the neighbour grid.
type cellKey struct{ cx, cy int }

// grid bins body indexes into square cells of the given size.
func (s *Simulation) grid(size float64) map[cellKey][]int {
	cells := make(map[cellKey][]int, len(s.bodies))
	for i, b := range s.bodies {
		k := cellKey{int(math.Floor(b.x / size)), int(math.Floor(b.y / size))}
		cells[k] = append(cells[k], i)
	}
	return cells
}

// forEachNearPair calls fn once for every unordered pair of bodies whose
// grid cells are adjacent. With size <= 0 every pair is visited.
func (s *Simulation) forEachNearPair(size float64, fn func(i, j int)) {
	n := len(s.bodies)
	if size <= 0 || n < 64 {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				fn(i, j)
			}
		}
		return
	}
	cells := s.grid(size)
	for i, b := range s.bodies {
		cx, cy := int(math.Floor(b.x/size)), int(math.Floor(b.y/size))
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, j := range cells[cellKey{cx + dx, cy + dy}] {
					if i < j {
						fn(i, j)
					}
				}
			}
		}
	}
}

// applyCharge applies pairwise repulsion (attraction for positive
// strength) to pairs within ChargeDistanceMax.
func (s *Simulation) applyCharge() {
	maxD := s.cfg.ChargeDistanceMax
	maxD2 := maxD * maxD
	minD2 := s.cfg.ChargeDistanceMin * s.cfg.ChargeDistanceMin
	strength := s.cfg.ChargeStrength * s.alpha

	s.forEachNearPair(maxD, func(i, j int) {
		a, b := &s.bodies[i], &s.bodies[j]
		dx, dy := b.x-a.x, b.y-a.y
		if dx == 0 {
			dx = s.jiggle()
		}
		if dy == 0 {
			dy = s.jiggle()
		}
		l := dx*dx + dy*dy
		if maxD > 0 && l >= maxD2 {
			return
		}
		if l < minD2 {
			l = math.Sqrt(minD2 * l)
		}
		w := strength / l
		s.forceX[i] += dx * w
		s.forceY[i] += dy * w
		s.forceX[j] -= dx * w
		s.forceY[j] -= dy * w
	})
}

// applyCenter pulls every body toward (CenterX, CenterY).
func (s *Simulation) applyCenter() {
	k := s.cfg.CenterStrength * s.alpha
	if k == 0 {
		return
	}
	for i, b := range s.bodies {
		s.forceX[i] += (s.cfg.CenterX - b.x) * k
		s.forceY[i] += (s.cfg.CenterY - b.y) * k
	}
}

// applyCollide separates overlapping bodies. Larger bodies move less.
// Collision is positional and independent of alpha.
func (s *Simulation) applyCollide() {
	if s.cfg.CollideStrength == 0 {
		return
	}
	maxR := 0.0
	for _, b := range s.bodies {
		maxR = math.Max(maxR, b.radius)
	}
	if maxR == 0 {
		return
	}
	s.forEachNearPair(2*maxR, func(i, j int) {
		a, b := &s.bodies[i], &s.bodies[j]
		r := a.radius + b.radius
		dx := (a.x + a.vx) - (b.x + b.vx)
		dy := (a.y + a.vy) - (b.y + b.vy)
		l := dx*dx + dy*dy
		if l >= r*r {
			return
		}
		if dx == 0 {
			dx = s.jiggle()
			l += dx * dx
		}
		if dy == 0 {
			dy = s.jiggle()
			l += dy * dy
		}
		d := math.Sqrt(l)
		k := (r - d) / d * s.cfg.CollideStrength
		ra, rb := a.radius*a.radius, b.radius*b.radius
		share := rb / (ra + rb)
		if ra+rb == 0 {
			share = 0.5
		}
		s.forceX[i] += dx * k * share
		s.forceY[i] += dy * k * share
		s.forceX[j] -= dx * k * (1 - share)
		s.forceY[j] -= dy * k * (1 - share)
	})
}
