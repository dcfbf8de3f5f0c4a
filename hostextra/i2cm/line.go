// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"periph.io/x/periph/conn/gpio"
)

// Line is the shared, half duplex SDA wire as seen by one party.
//
// Drive and Release never block. Sample returns the electrical value of the
// wire whether this party drives it or not.
type Line interface {
	Drive(l gpio.Level)
	Release()
	Sample() gpio.Level
}

// Wire is a simulated open-drain wire with a pull-up.
//
// A low driver always wins; the wire reads high when nobody pulls it low.
// Contention is not reported.
type Wire struct {
	taps []*Tap
}

// Tap connects a new party to the wire. The Tap starts released.
func (w *Wire) Tap() *Tap {
	t := &Tap{w: w}
	w.taps = append(w.taps, t)
	return t
}

// Level returns the resolved value of the wire.
func (w *Wire) Level() gpio.Level {
	for _, t := range w.taps {
		if t.drive && t.v == gpio.Low {
			return gpio.Low
		}
	}
	return gpio.High
}

// Tap is one party's connection to a Wire.
//
// Tap implements Line.
type Tap struct {
	w     *Wire
	drive bool
	v     gpio.Level
}

// Drive implements Line.
func (t *Tap) Drive(l gpio.Level) {
	t.drive = true
	t.v = l
}

// Release implements Line.
func (t *Tap) Release() {
	t.drive = false
}

// Sample implements Line.
func (t *Tap) Sample() gpio.Level {
	return t.w.Level()
}

// Driving returns true if this party asserts the wire.
func (t *Tap) Driving() bool {
	return t.drive
}

// PinLine drives a GPIO as an open-drain line.
//
// Hardware which doesn't support tristate alternates between Out(Low) and
// In(PullUp), which achieves the same effect. The internal pull up is likely
// too weak at high speed, so an external resistor is still recommended.
//
// Errors returned by the pin are sticky and reported by Err.
type PinLine struct {
	p   gpio.PinIO
	err error
}

// NewPinLine returns a released PinLine.
func NewPinLine(p gpio.PinIO) *PinLine {
	l := &PinLine{p: p}
	l.Release()
	return l
}

// Drive implements Line.
func (l *PinLine) Drive(v gpio.Level) {
	if v == gpio.High {
		l.check(l.p.In(gpio.PullUp, gpio.NoEdge))
		return
	}
	l.check(l.p.Out(gpio.Low))
}

// Release implements Line.
func (l *PinLine) Release() {
	l.check(l.p.In(gpio.PullUp, gpio.NoEdge))
}

// Sample implements Line.
func (l *PinLine) Sample() gpio.Level {
	return l.p.Read()
}

// Err returns the first error reported by the pin.
func (l *PinLine) Err() error {
	return l.err
}

func (l *PinLine) check(err error) {
	if l.err == nil {
		l.err = err
	}
}

var _ Line = &Tap{}
var _ Line = &PinLine{}
