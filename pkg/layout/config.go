// Package layout runs the force-directed graph simulation. Simulation is the
// single-threaded integrator; Engine owns one on its own goroutine and talks
// to callers only through commands and events.
package layout

import (
	"math"
	"time"
)

// Config holds force and cooling parameters. Zero values are replaced by
// defaults in Validate.
type Config struct {
	LinkDistance      float64 `yaml:"link_distance"`
	LinkStrength      float64 `yaml:"link_strength"`
	ChargeStrength    float64 `yaml:"charge_strength"`
	ChargeDistanceMin float64 `yaml:"charge_distance_min"`
	// ChargeDistanceMax bounds repulsion to pairs closer than this. Zero
	// means unbounded, which costs O(n²) per tick.
	ChargeDistanceMax float64 `yaml:"charge_distance_max"`
	CenterX           float64 `yaml:"center_x"`
	CenterY           float64 `yaml:"center_y"`
	CenterStrength    float64 `yaml:"center_strength"`
	CollideRadius     float64 `yaml:"collide_radius"`
	CollideStrength   float64 `yaml:"collide_strength"`

	AlphaMin        float64 `yaml:"alpha_min"`
	AlphaDecay      float64 `yaml:"alpha_decay"`
	AlphaTargetDrag float64 `yaml:"alpha_target_drag"`
	ReheatAlpha     float64 `yaml:"reheat_alpha"`
	VelocityDecay   float64 `yaml:"velocity_decay"`

	// MaxCoordinate clamps positions and pins to ±MaxCoordinate.
	MaxCoordinate float64 `yaml:"max_coordinate"`
	Seed          int64   `yaml:"seed"`
	// TickInterval is the auto-tick period of an Engine. Zero disables
	// auto ticking; only explicit Tick commands advance the simulation.
	TickInterval time.Duration `yaml:"tick_interval"`
}

// DefaultConfig returns d3-like parameters.
func DefaultConfig() Config {
	return Config{
		LinkDistance:      30,
		LinkStrength:      1,
		ChargeStrength:    -30,
		ChargeDistanceMin: 1,
		ChargeDistanceMax: 400,
		CenterStrength:    0.05,
		CollideRadius:     4,
		CollideStrength:   0.7,
		AlphaMin:          0.001,
		AlphaDecay:        1.0 / 300,
		AlphaTargetDrag:   0.3,
		ReheatAlpha:       0.3,
		VelocityDecay:     0.4,
		MaxCoordinate:     1e6,
		Seed:              1,
		TickInterval:      16 * time.Millisecond,
	}
}

// Validate fills unset fields from DefaultConfig and clamps out-of-range
// values. It never fails.
func (c Config) Validate() Config {
	d := DefaultConfig()
	fill := func(v *float64, def float64) {
		if *v == 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = def
		}
	}
	fill(&c.LinkDistance, d.LinkDistance)
	fill(&c.LinkStrength, d.LinkStrength)
	fill(&c.ChargeStrength, d.ChargeStrength)
	fill(&c.ChargeDistanceMin, d.ChargeDistanceMin)
	fill(&c.AlphaMin, d.AlphaMin)
	fill(&c.AlphaDecay, d.AlphaDecay)
	fill(&c.AlphaTargetDrag, d.AlphaTargetDrag)
	fill(&c.ReheatAlpha, d.ReheatAlpha)
	fill(&c.VelocityDecay, d.VelocityDecay)
	fill(&c.MaxCoordinate, d.MaxCoordinate)
	fill(&c.CollideStrength, d.CollideStrength)

	c.LinkDistance = math.Abs(c.LinkDistance)
	c.ChargeDistanceMin = math.Abs(c.ChargeDistanceMin)
	c.ChargeDistanceMax = math.Max(0, c.ChargeDistanceMax)
	c.CenterStrength = clamp(c.CenterStrength, 0, 1)
	c.CollideRadius = math.Max(0, c.CollideRadius)
	c.CollideStrength = clamp(c.CollideStrength, 0, 1)
	c.AlphaMin = clamp(c.AlphaMin, 0, 1)
	c.AlphaDecay = clamp(c.AlphaDecay, 1e-6, 1)
	c.AlphaTargetDrag = clamp(c.AlphaTargetDrag, 0, 1)
	c.ReheatAlpha = clamp(c.ReheatAlpha, 0, 1)
	c.VelocityDecay = clamp(c.VelocityDecay, 0, 1)
	c.MaxCoordinate = math.Abs(c.MaxCoordinate)
	if c.TickInterval < 0 {
		c.TickInterval = 0
	}
	return c
}

// TicksToRest is the number of natural ticks alpha needs to fall from 1
// below AlphaMin.
func (c Config) TicksToRest() int {
	c = c.Validate()
	return int(math.Ceil((1-c.AlphaMin)/c.AlphaDecay)) + 1
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
