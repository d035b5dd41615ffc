package layout

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/vanderheijden86/strata/pkg/metrics"
	"github.com/vanderheijden86/strata/pkg/model"
)

// ErrInvalidInput reports a rejected pin or drag request: unknown node or
// non-finite coordinates. Out-of-range coordinates are clamped instead.
var ErrInvalidInput = errors.New("invalid simulation input")

const (
	initialRadius = 10.0
	jiggleScale   = 1e-6
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

type body struct {
	id         string
	importance float64
	radius     float64
	x, y       float64
	vx, vy     float64
	pinned     bool
	fx, fy     float64
}

type spring struct {
	s, t     int
	distance float64
	strength float64
	bias     float64
}

// Simulation integrates node positions under link, charge, center and
// collision forces. It is not safe for concurrent use; Engine confines it
// to one goroutine.
type Simulation struct {
	cfg    Config
	bodies []body
	index  map[string]int
	edges  []model.Edge
	links  []spring
	rng    *rand.Rand

	alpha       float64
	alphaTarget float64
	ticks       int
	cold        bool
	stopped     bool

	// scratch force accumulators, reused across ticks
	forceX, forceY []float64
}

// NewSimulation places the nodes and sets alpha to 1. Nodes with seed
// coordinates keep them; pinned nodes start at their pin; the rest are laid
// out on a phyllotaxis spiral around the center.
func NewSimulation(nodes []model.Node, edges []model.Edge, cfg Config) *Simulation {
	cfg = cfg.Validate()
	s := &Simulation{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	s.load(nodes, edges, nil)
	s.alpha = 1
	s.cold = true
	return s
}

// load replaces bodies and links. Bodies listed in prev keep their state.
func (s *Simulation) load(nodes []model.Node, edges []model.Edge, prev map[string]body) {
	s.bodies = make([]body, 0, len(nodes))
	s.index = make(map[string]int, len(nodes))
	for _, n := range nodes {
		if _, dup := s.index[n.ID]; dup {
			continue
		}
		b := body{
			id:         n.ID,
			importance: n.Importance,
			radius:     s.cfg.CollideRadius + n.Importance/10,
		}
		if old, ok := prev[n.ID]; ok {
			b.x, b.y, b.vx, b.vy = old.x, old.y, old.vx, old.vy
			b.pinned, b.fx, b.fy = old.pinned, old.fx, old.fy
		} else {
			i := float64(len(s.bodies))
			switch {
			case n.Pinned():
				b.x, b.y = s.clampCoord(*n.FX), s.clampCoord(*n.FY)
			case n.HasSeed():
				b.x, b.y = s.clampCoord(n.X), s.clampCoord(n.Y)
			default:
				r := initialRadius * math.Sqrt(0.5+i)
				a := i * initialAngle
				b.x = s.cfg.CenterX + r*math.Cos(a)
				b.y = s.cfg.CenterY + r*math.Sin(a)
			}
		}
		if n.Pinned() {
			b.pinned, b.fx, b.fy = true, s.clampCoord(*n.FX), s.clampCoord(*n.FY)
		}
		if b.pinned {
			b.x, b.y, b.vx, b.vy = b.fx, b.fy, 0, 0
		}
		s.index[n.ID] = len(s.bodies)
		s.bodies = append(s.bodies, b)
	}
	s.forceX = make([]float64, len(s.bodies))
	s.forceY = make([]float64, len(s.bodies))

	s.edges = s.edges[:0]
	for _, e := range edges {
		_, okS := s.index[e.Source]
		_, okT := s.index[e.Target]
		if okS && okT && e.Source != e.Target {
			s.edges = append(s.edges, e)
		}
	}
	s.buildSprings()
}

// buildSprings derives per-edge stiffness and bias from node degrees, so
// hubs are not pulled apart by their many springs.
func (s *Simulation) buildSprings() {
	degree := make([]int, len(s.bodies))
	for _, e := range s.edges {
		degree[s.index[e.Source]]++
		degree[s.index[e.Target]]++
	}
	s.links = make([]spring, 0, len(s.edges))
	for _, e := range s.edges {
		a, b := s.index[e.Source], s.index[e.Target]
		stiffness := s.cfg.LinkStrength * edgeWeight(e.Strength) / float64(min(degree[a], degree[b]))
		s.links = append(s.links, spring{
			s:        a,
			t:        b,
			distance: s.cfg.LinkDistance,
			strength: math.Min(1, stiffness),
			bias:     float64(degree[a]) / float64(degree[a]+degree[b]),
		})
	}
}

// edgeWeight maps an edge strength to a stiffness multiplier. Unset
// strength counts as 1.
func edgeWeight(strength float64) float64 {
	if strength <= 0 {
		return 1
	}
	return clamp(strength/25, 0.2, 2)
}

// Tick advances the integrator n steps (at least one).
func (s *Simulation) Tick(n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		s.step()
	}
}

func (s *Simulation) step() {
	defer metrics.Timer(metrics.SimulationTick)()

	for i := range s.forceX {
		s.forceX[i], s.forceY[i] = 0, 0
	}
	s.applyLinks()
	s.applyCharge()
	s.applyCenter()
	s.applyCollide()

	keep := 1 - s.cfg.VelocityDecay
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.pinned {
			b.x, b.y, b.vx, b.vy = b.fx, b.fy, 0, 0
			continue
		}
		b.vx = (b.vx + s.forceX[i]) * keep
		b.vy = (b.vy + s.forceY[i]) * keep
		b.x = s.clampCoord(b.x + b.vx)
		b.y = s.clampCoord(b.y + b.vy)
	}

	if s.alpha > s.alphaTarget {
		s.alpha = math.Max(s.alphaTarget, s.alpha-s.cfg.AlphaDecay)
	} else {
		s.alpha = s.alphaTarget
	}
	s.alpha = clamp(s.alpha, 0, 1)
	s.ticks++
	s.cold = false
}

// Pin fixes a node at (x, y), raising alphaTarget so the rest of the
// layout keeps reacting while the pin is held.
func (s *Simulation) Pin(id string, x, y float64) error {
	i, err := s.lookup(id, x, y)
	if err != nil {
		return err
	}
	b := &s.bodies[i]
	b.pinned, b.fx, b.fy = true, s.clampCoord(x), s.clampCoord(y)
	s.alphaTarget = s.cfg.AlphaTargetDrag
	s.alpha = math.Max(s.alpha, s.alphaTarget)
	s.stopped = false
	return nil
}

// Drag moves an existing pin. Unpinned nodes are pinned first.
func (s *Simulation) Drag(id string, x, y float64) error {
	i, err := s.lookup(id, x, y)
	if err != nil {
		return err
	}
	if !s.bodies[i].pinned {
		return s.Pin(id, x, y)
	}
	s.bodies[i].fx, s.bodies[i].fy = s.clampCoord(x), s.clampCoord(y)
	return nil
}

// EndDrag finishes a drag. The node stays pinned; alphaTarget returns to
// zero so the layout cools.
func (s *Simulation) EndDrag(id string) error {
	if _, ok := s.index[id]; !ok {
		return fmt.Errorf("%w: unknown node %q", ErrInvalidInput, id)
	}
	s.alphaTarget = 0
	return nil
}

// Unpin releases a node back to the integrator and reheats the layout so
// it resettles.
func (s *Simulation) Unpin(id string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: unknown node %q", ErrInvalidInput, id)
	}
	s.bodies[i].pinned = false
	s.alphaTarget = 0
	s.alpha = math.Max(s.alpha, s.cfg.ReheatAlpha)
	s.stopped = false
	return nil
}

// Reheat raises alpha without touching velocities.
func (s *Simulation) Reheat(alpha float64) {
	if math.IsNaN(alpha) {
		return
	}
	s.alpha = clamp(alpha, 0, 1)
	s.stopped = false
}

// Stop marks the simulation as halted. Positions are kept; Tick still
// works but an Engine stops auto ticking.
func (s *Simulation) Stop() {
	s.stopped = true
}

// Update swaps in a new node/edge set. Surviving IDs keep position,
// velocity and pin; new nodes are placed next to an already-placed
// neighbour when one exists. Alpha restarts at 1.
func (s *Simulation) Update(nodes []model.Node, edges []model.Edge, cfg *Config) {
	if cfg != nil {
		s.cfg = cfg.Validate()
	}
	prev := make(map[string]body, len(s.bodies))
	for _, b := range s.bodies {
		prev[b.id] = b
	}
	s.load(nodes, edges, prev)
	s.placeNewcomers(prev)
	s.alpha = 1
	s.alphaTarget = 0
	s.cold = true
	s.stopped = false
}

func (s *Simulation) placeNewcomers(prev map[string]body) {
	if len(prev) == 0 {
		return
	}
	for _, e := range s.edges {
		for _, pair := range [][2]string{{e.Source, e.Target}, {e.Target, e.Source}} {
			newID, anchorID := pair[0], pair[1]
			_, newWasKnown := prev[newID]
			anchor, anchorKnown := prev[anchorID]
			if newWasKnown || !anchorKnown {
				continue
			}
			b := &s.bodies[s.index[newID]]
			if b.pinned {
				continue
			}
			a := s.rng.Float64() * 2 * math.Pi
			b.x = s.clampCoord(anchor.x + s.cfg.LinkDistance*math.Cos(a))
			b.y = s.clampCoord(anchor.y + s.cfg.LinkDistance*math.Sin(a))
			// Mark as placed so later edges do not move it again.
			prev[newID] = *b
		}
	}
}

func (s *Simulation) lookup(id string, x, y float64) (int, error) {
	i, ok := s.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: unknown node %q", ErrInvalidInput, id)
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: non-finite coordinates for %q", ErrInvalidInput, id)
	}
	return i, nil
}

func (s *Simulation) clampCoord(v float64) float64 {
	return clamp(v, -s.cfg.MaxCoordinate, s.cfg.MaxCoordinate)
}

// jiggle returns a tiny random offset used to separate coincident nodes.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * jiggleScale
}

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// AlphaTarget returns the current alpha floor.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// Ticks returns the number of integrator steps taken so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Config returns the validated configuration.
func (s *Simulation) Config() Config { return s.cfg }

// Stopped reports whether Stop was called since the last restart.
func (s *Simulation) Stopped() bool { return s.stopped }

// Rested reports whether alpha has cooled below AlphaMin with no floor.
func (s *Simulation) Rested() bool {
	return s.alpha < s.cfg.AlphaMin && s.alphaTarget == 0
}

// Nodes returns the node IDs in simulation order.
func (s *Simulation) Nodes() []string {
	out := make([]string, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.id
	}
	return out
}

// Edges returns the edges the simulation is using.
func (s *Simulation) Edges() []model.Edge {
	out := make([]model.Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Position returns the current position of a node.
func (s *Simulation) Position(id string) (x, y float64, ok bool) {
	i, ok := s.index[id]
	if !ok {
		return 0, 0, false
	}
	return s.bodies[i].x, s.bodies[i].y, true
}
