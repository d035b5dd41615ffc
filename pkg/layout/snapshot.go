package layout

// Phase is the settling state of a simulation.
type Phase int

const (
	// PhaseCold: just started or updated, no tick taken yet.
	PhaseCold Phase = iota
	// PhaseSettling: alpha is cooling toward rest.
	PhaseSettling
	// PhasePinnedActive: a drag holds alphaTarget above zero.
	PhasePinnedActive
	// PhaseRested: alpha fell below AlphaMin.
	PhaseRested
	// PhaseStopped: Stop was requested.
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseCold:
		return "cold"
	case PhaseSettling:
		return "settling"
	case PhasePinnedActive:
		return "pinned-active"
	case PhaseRested:
		return "rested"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// NodeState is one node in a Snapshot.
type NodeState struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Pinned bool     `json:"pinned,omitempty"`
	FX     *float64 `json:"fx,omitempty"`
	FY     *float64 `json:"fy,omitempty"`
}

// Snapshot is an immutable copy of the simulation state. Nothing in it
// aliases the simulation's buffers.
type Snapshot struct {
	Tick        int         `json:"tick"`
	Alpha       float64     `json:"alpha"`
	AlphaTarget float64     `json:"alpha_target"`
	Phase       Phase       `json:"phase"`
	Nodes       []NodeState `json:"nodes"`
}

// Lookup returns the state of node id. It scans linearly; build an index
// with ByID when looking up many nodes.
func (s Snapshot) Lookup(id string) (NodeState, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeState{}, false
}

// ByID indexes the snapshot nodes.
func (s Snapshot) ByID() map[string]NodeState {
	out := make(map[string]NodeState, len(s.Nodes))
	for _, n := range s.Nodes {
		out[n.ID] = n
	}
	return out
}

// Bounds returns the bounding box of all node positions.
func (s Snapshot) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	for i, n := range s.Nodes {
		if i == 0 {
			minX, maxX, minY, maxY = n.X, n.X, n.Y, n.Y
			continue
		}
		minX, maxX = min(minX, n.X), max(maxX, n.X)
		minY, maxY = min(minY, n.Y), max(maxY, n.Y)
	}
	return minX, minY, maxX, maxY, len(s.Nodes) > 0
}

// Phase reports the current settling state.
func (s *Simulation) Phase() Phase {
	switch {
	case s.stopped:
		return PhaseStopped
	case s.alphaTarget > 0:
		return PhasePinnedActive
	case s.cold:
		return PhaseCold
	case s.alpha < s.cfg.AlphaMin:
		return PhaseRested
	default:
		return PhaseSettling
	}
}

// Snapshot copies the current state out by value.
func (s *Simulation) Snapshot() Snapshot {
	nodes := make([]NodeState, len(s.bodies))
	for i, b := range s.bodies {
		nodes[i] = NodeState{ID: b.id, X: b.x, Y: b.y, VX: b.vx, VY: b.vy}
		if b.pinned {
			fx, fy := b.fx, b.fy
			nodes[i].Pinned, nodes[i].FX, nodes[i].FY = true, &fx, &fy
		}
	}
	return Snapshot{
		Tick:        s.ticks,
		Alpha:       s.alpha,
		AlphaTarget: s.alphaTarget,
		Phase:       s.Phase(),
		Nodes:       nodes,
	}
}
