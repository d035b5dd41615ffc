package layout

import (
	"github.com/vanderheijden86/strata/pkg/analysis"
	"github.com/vanderheijden86/strata/pkg/model"
)

// Command is a request sent to an Engine.
type Command interface{ command() }

// Start (re)initialises the simulation and alpha to 1. A nil Config keeps
// the engine's current one.
type Start struct {
	Nodes  []model.Node
	Edges  []model.Edge
	Config *Config
}

// Tick advances N steps immediately and reports once for the batch.
type Tick struct{ N int }

// Pin fixes a node and raises alphaTarget.
type Pin struct {
	ID   string
	X, Y float64
}

// Drag moves a pin.
type Drag struct {
	ID   string
	X, Y float64
}

// EndDrag ends a drag; the node stays pinned.
type EndDrag struct{ ID string }

// Unpin releases a node.
type Unpin struct{ ID string }

// Reheat sets alpha without resetting velocities.
type Reheat struct{ Alpha float64 }

// Stop halts auto ticking.
type Stop struct{}

// Update swaps the node/edge set in place.
type Update struct {
	Nodes  []model.Node
	Edges  []model.Edge
	Config *Config
}

// Analyze runs an analytics request over the current node/edge set.
type Analyze struct {
	RequestID int64
	Request   analysis.Request
}

func (Start) command()   {}
func (Tick) command()    {}
func (Pin) command()     {}
func (Drag) command()    {}
func (EndDrag) command() {}
func (Unpin) command()   {}
func (Reheat) command()  {}
func (Stop) command()    {}
func (Update) command()  {}
func (Analyze) command() {}

// Event is a report published by an Engine.
type Event interface{ event() }

// TickEvent carries the state after one auto step or one Tick batch.
type TickEvent struct{ Snapshot Snapshot }

// EndEvent is published once when alpha cools below AlphaMin.
type EndEvent struct{ Snapshot Snapshot }

// AnalyticsEvent answers an Analyze command.
type AnalyticsEvent struct {
	RequestID int64
	Result    analysis.Result
	Err       error
}

func (TickEvent) event()      {}
func (EndEvent) event()       {}
func (AnalyticsEvent) event() {}
