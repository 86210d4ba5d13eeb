package core

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// Component drives a Core from an Akita engine, one core cycle per tick.
type Component struct {
	*sim.TickingComponent

	core *Core
}

// NewComponent wraps core as a ticking component on engine.
func NewComponent(name string, engine sim.Engine, freq sim.Freq, core *Core) *Component {
	c := &Component{core: core}
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)
	return c
}

// Tick advances the core by one cycle. It stops requesting ticks once the
// core halts.
func (c *Component) Tick() bool {
	return c.core.Tick()
}

// Core returns the wrapped core.
func (c *Component) Core() *Core {
	return c.core
}

// Simulate runs core to completion on a serial Akita engine.
func Simulate(core *Core, freq sim.Freq) error {
	engine := sim.NewSerialEngine()
	comp := NewComponent("Core", engine, freq, core)

	comp.TickLater()
	if err := engine.Run(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	if !core.Halted() {
		return fmt.Errorf("engine drained before the core halted")
	}
	return core.Err()
}
