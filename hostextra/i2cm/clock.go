// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"periph.io/x/periph/conn/gpio"
)

// Edge is the registered strobe emitted by Clock alongside a level change.
type Edge uint8

// Valid Edge values.
const (
	NoEdge Edge = iota
	// RisingSoon is latched on the tick the bus clock goes high.
	RisingSoon
	// FallingSoon is latched on the tick the bus clock goes low.
	FallingSoon
)

func (e Edge) String() string {
	switch e {
	case NoEdge:
		return "NoEdge"
	case RisingSoon:
		return "RisingSoon"
	case FallingSoon:
		return "FallingSoon"
	default:
		return "Edge(?)"
	}
}

// Clock divides the base tick into the bus clock.
//
// The counter runs over [0, 2*half-1]. The level goes high on the tick the
// counter reaches half-1 and low on the tick it reaches 2*half-1, where the
// counter wraps to 0. The strobe matching the new level is latched on that
// same tick and stays visible for exactly one tick.
//
// Clock never stops; gating SCL while the bus is idle is done by Master.
type Clock struct {
	half  int
	count int
	level gpio.Level
	edge  Edge
}

// NewClock returns a Clock producing a 2*half base ticks period.
//
// half must be at least 2; a smaller value is a programming error and panics.
func NewClock(half int) *Clock {
	if half < 2 {
		panic("i2cm: half period must be at least 2 base ticks")
	}
	return &Clock{half: half}
}

// HalfPeriod returns the number of base ticks per half bus clock cycle.
func (c *Clock) HalfPeriod() int {
	return c.half
}

// Level returns the current bus clock level.
func (c *Clock) Level() gpio.Level {
	return c.level
}

// Edge returns the strobe latched by the last Tick.
func (c *Clock) Edge() Edge {
	return c.edge
}

// Count returns the divider counter.
func (c *Clock) Count() int {
	return c.count
}

// Tick advances the divider by one base tick.
func (c *Clock) Tick() {
	c.edge = NoEdge
	switch c.count {
	case 2*c.half - 1:
		c.level = gpio.Low
		c.edge = FallingSoon
		c.count = 0
	case c.half - 1:
		c.level = gpio.High
		c.edge = RisingSoon
		c.count++
	default:
		c.count++
	}
}

// Reset puts the divider back at the start of a period with the clock low.
func (c *Clock) Reset() {
	c.count = 0
	c.level = gpio.Low
	c.edge = NoEdge
}
