// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf8574

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"periph.io/x/bitbang/hostextra/i2cm"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// Sim is a simulated PCF8574 attached to an i2cm simulated bus.
//
// The outside world is modeled by the port pins returned by Pins: Out(Low)
// on one of them is an external pull down, In() or Out(High) removes it.
type Sim struct {
	mu     sync.Mutex
	addr   uint16
	latch  byte
	pulled byte
	writes int
	pins   [8]simPin
}

// NewSim attaches a simulated chip at addr to b. The latch starts at 0xFF.
func NewSim(b *i2cm.Bus, addr uint16) *Sim {
	s := &Sim{addr: addr, latch: 0xFF}
	for i := range s.pins {
		s.pins[i] = simPin{s: s, n: uint(i)}
	}
	t := i2cm.NewTarget(b, addr)
	t.OnWrite = s.onWrite
	t.OnRead = s.onRead
	b.Attach(t)
	return s
}

func (s *Sim) String() string {
	return "PCF8574@" + strconv.FormatUint(uint64(s.addr), 16)
}

// Latch returns the last byte written by the master.
func (s *Sim) Latch() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latch
}

// Port returns the pin levels; a pin is high only if latched high and not
// pulled low externally.
func (s *Sim) Port() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latch &^ s.pulled
}

// Writes returns the number of bytes written by the master.
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Pull sets the external pull downs at once, bit set meaning pulled low.
func (s *Sim) Pull(mask byte) {
	s.mu.Lock()
	s.pulled = mask
	s.mu.Unlock()
}

// Pins returns the port pins P0 to P7.
func (s *Sim) Pins() []gpio.PinIO {
	out := make([]gpio.PinIO, len(s.pins))
	for i := range s.pins {
		out[i] = &s.pins[i]
	}
	return out
}

func (s *Sim) onWrite(v uint32) bool {
	s.mu.Lock()
	s.latch = byte(v)
	s.writes++
	s.mu.Unlock()
	return true
}

func (s *Sim) onRead() uint32 {
	return uint32(s.Port())
}

//

// simPin is one port pin as seen from the outside world.
type simPin struct {
	s *Sim
	n uint
}

// String implements conn.Resource.
func (p *simPin) String() string {
	return p.s.String() + "." + p.Name()
}

// Halt implements conn.Resource.
func (p *simPin) Halt() error {
	return p.In(gpio.PullNoChange, gpio.NoEdge)
}

// Name implements pin.Pin.
func (p *simPin) Name() string {
	return "P" + strconv.Itoa(int(p.n))
}

// Number implements pin.Pin.
func (p *simPin) Number() int {
	return int(p.n)
}

// Function implements pin.Pin.
func (p *simPin) Function() string {
	return "In/Out"
}

// In implements gpio.PinIn.
func (p *simPin) In(pull gpio.Pull, e gpio.Edge) error {
	if e != gpio.NoEdge {
		return errors.New("pcf8574: edge triggering is not supported")
	}
	p.s.mu.Lock()
	p.s.pulled &^= 1 << p.n
	p.s.mu.Unlock()
	return nil
}

// Read implements gpio.PinIn.
func (p *simPin) Read() gpio.Level {
	return gpio.Level(p.s.Port()&(1<<p.n) != 0)
}

// WaitForEdge implements gpio.PinIn.
func (p *simPin) WaitForEdge(t time.Duration) bool {
	return false
}

// DefaultPull implements gpio.PinIn.
func (p *simPin) DefaultPull() gpio.Pull {
	return gpio.PullUp
}

// Pull implements gpio.PinIn.
func (p *simPin) Pull() gpio.Pull {
	return gpio.PullUp
}

// Out implements gpio.PinOut.
func (p *simPin) Out(l gpio.Level) error {
	p.s.mu.Lock()
	if l == gpio.Low {
		p.s.pulled |= 1 << p.n
	} else {
		p.s.pulled &^= 1 << p.n
	}
	p.s.mu.Unlock()
	return nil
}

// PWM implements gpio.PinOut.
func (p *simPin) PWM(d gpio.Duty, f physic.Frequency) error {
	return errors.New("pcf8574: not implemented")
}

var _ gpio.PinIO = &simPin{}
