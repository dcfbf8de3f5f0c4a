// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// Opts is the construction-time configuration of a Master.
type Opts struct {
	// HalfPeriod is the number of base ticks per half bus clock cycle. It
	// must be at least 2.
	HalfPeriod int
	// AddrBits is the address width, excluding the R/W bit.
	AddrBits int
	// DataBits is the width of the data byte.
	DataBits int
	// Tick is the base tick rate. It is only used to convert to and from
	// physical frequencies and to pace GPIO backed buses.
	Tick physic.Frequency
	// Logger defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// DefaultOpts is a 400kHz bus with 7 bit addresses and 8 bit data.
var DefaultOpts = Opts{
	HalfPeriod: 2,
	AddrBits:   7,
	DataBits:   8,
	Tick:       1600 * physic.KiloHertz,
}

// BusFrequency returns the SCL frequency.
func (o *Opts) BusFrequency() physic.Frequency {
	return o.Tick / physic.Frequency(2*o.HalfPeriod)
}

// Validate returns an error if the options can't be used to build a Master.
func (o *Opts) Validate() error {
	if o.HalfPeriod < 2 {
		return fmt.Errorf("i2cm: invalid half period %d; must be at least 2 base ticks", o.HalfPeriod)
	}
	if o.AddrBits < 1 || o.AddrBits > 16 {
		return fmt.Errorf("i2cm: invalid address width %d; must be within [1, 16]", o.AddrBits)
	}
	if o.DataBits < 1 || o.DataBits > 32 {
		return fmt.Errorf("i2cm: invalid data width %d; must be within [1, 32]", o.DataBits)
	}
	if o.Tick < 0 {
		return fmt.Errorf("i2cm: invalid tick rate %s", o.Tick)
	}
	return nil
}

// Master is the bus clock generator and the transaction state machine wired
// together.
//
// Master is not safe for concurrent use; it is meant to be advanced from a
// single fixed rate loop or interrupt handler.
type Master struct {
	opts  Opts
	clk   *Clock
	fsm   machine
	reset bool
	// Host inputs.
	enable bool
	req    Request
	// gate is the SCL output enable as seen on the pin. It follows
	// fsm.sclEnable at the next falling edge of the clock, and drops
	// immediately.
	gate bool
}

// NewMaster returns an idle Master driving sda.
//
// Invalid options are a programming error and panic.
func NewMaster(sda Line, opts *Opts) *Master {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.Validate(); err != nil {
		panic(err)
	}
	m := &Master{opts: *opts, clk: NewClock(opts.HalfPeriod)}
	if m.opts.Logger == nil {
		m.opts.Logger = logrus.StandardLogger()
	}
	m.fsm = machine{
		line:     sda,
		log:      m.opts.Logger,
		addrBits: uint(opts.AddrBits),
		dataBits: uint(opts.DataBits),
	}
	m.fsm.reset()
	return m
}

func (m *Master) String() string {
	return fmt.Sprintf("i2cm(%s)", m.opts.BusFrequency())
}

// Opts returns the options the Master was built with.
func (m *Master) Opts() Opts {
	return m.opts
}

// Tick advances the master by one base tick.
//
// The clock is advanced first; the state machine consumes the strobe the clock
// latched on the previous tick, so SDA never changes on the tick SCL does.
func (m *Master) Tick() {
	if m.reset {
		return
	}
	e := m.clk.Edge()
	m.clk.Tick()
	m.fsm.step(e, m.enable, m.req)
	if !m.fsm.sclEnable {
		m.gate = false
	} else if m.clk.Edge() == FallingSoon {
		m.gate = true
	}
}

// SetReset asserts or releases reset.
//
// While asserted the master is held Idle with SDA released, SCL high, and the
// frames cleared; Tick has no effect.
func (m *Master) SetReset(b bool) {
	m.reset = b
	if b {
		m.clk.Reset()
		m.fsm.reset()
		m.gate = false
	}
}

// InReset returns true while reset is asserted.
func (m *Master) InReset() bool {
	return m.reset
}

// SetEnable sets the enable input. It is only observed in Idle, to start a
// transaction, and in LoadAck, to restart without a STOP.
func (m *Master) SetEnable(b bool) {
	m.enable = b
}

// SetRequest sets the direction, address and data inputs. They are latched on
// the start of the next transaction.
func (m *Master) SetRequest(r Request) {
	m.req = r
}

// Ready returns true when the master is Idle and out of reset.
func (m *Master) Ready() bool {
	return !m.reset && m.fsm.state == Idle
}

// State returns the current protocol state.
func (m *Master) State() State {
	return m.fsm.state
}

// ReadData returns the byte of the last acknowledged read transaction.
func (m *Master) ReadData() uint32 {
	return m.fsm.readData
}

// Outcome returns how the last transaction ended.
func (m *Master) Outcome() Outcome {
	return m.fsm.last
}

// Faults returns the number of invalid states recovered from.
func (m *Master) Faults() int {
	return m.fsm.faults
}

// SCL returns the level to present on the clock pin.
func (m *Master) SCL() gpio.Level {
	if !m.gate {
		return gpio.High
	}
	return m.clk.Level()
}

// SCLEnabled returns the SCL output enable owned by the state machine.
func (m *Master) SCLEnabled() bool {
	return m.fsm.sclEnable
}

// SDA returns what the master does with the data line.
func (m *Master) SDA() LineState {
	return m.fsm.sda
}

// Clock returns the bus clock generator.
func (m *Master) Clock() *Clock {
	return m.clk
}
