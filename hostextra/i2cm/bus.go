// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// ErrAddrNACK signals that no device responded with an ACK at the desired
// address.
var ErrAddrNACK = errors.New("i2cm: address not acknowledged")

// ErrDataNACK signals that the device did not ACK the written byte.
var ErrDataNACK = errors.New("i2cm: data not acknowledged")

// Result is the outcome of Bus.Transact.
type Result struct {
	Outcome Outcome
	// Data is the byte read; only valid for a Read that ended in Done.
	Data uint32
	// Ticks is the number of base ticks the transaction took.
	Ticks int
}

// Bus ties a Master to its lines.
//
// On each base tick the master is advanced first, then the SCL pin is updated,
// then the peers observe the lines and finally the probes see the settled
// result.
type Bus struct {
	mu     sync.Mutex
	name   string
	opts   Opts
	m      *Master
	sda    Line
	wire   *Wire
	sclPin gpio.PinIO
	sdaPin gpio.PinIO
	sdaTap *sdaPin
	scl    gpio.Level
	peers  []Peer
	probes []Probe
	ticks  uint64
	pace   *time.Ticker
	err    error
}

// NewSim returns a Bus on a simulated open-drain wire.
func NewSim(name string, opts *Opts) *Bus {
	if opts == nil {
		opts = &DefaultOpts
	}
	w := &Wire{}
	b := &Bus{name: name, wire: w, sda: w.Tap(), scl: gpio.High}
	b.m = NewMaster(b.sda, opts)
	b.opts = b.m.Opts()
	return b
}

// NewPins returns a Bus bit-banging two GPIOs.
//
// SCL is driven push-pull, SDA as open-drain through PinLine. When opts.Tick
// is set, ticks are paced at that rate.
func NewPins(name string, scl, sda gpio.PinIO, opts *Opts) (*Bus, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := scl.Out(gpio.High); err != nil {
		return nil, errors.Wrapf(err, "i2cm: %s: failed to drive SCL", name)
	}
	l := NewPinLine(sda)
	if err := l.Err(); err != nil {
		return nil, errors.Wrapf(err, "i2cm: %s: failed to release SDA", name)
	}
	b := &Bus{name: name, sda: l, sclPin: scl, sdaPin: sda, scl: gpio.High}
	b.m = NewMaster(b.sda, opts)
	b.opts = b.m.Opts()
	if b.opts.Tick > 0 {
		b.pace = time.NewTicker(tickPeriod(b.opts.Tick))
	}
	return b, nil
}

func (b *Bus) String() string {
	return b.name
}

// Close stops pacing and releases the lines.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pace != nil {
		b.pace.Stop()
		b.pace = nil
	}
	b.m.SetReset(true)
	b.scl = gpio.High
	if b.sclPin != nil {
		if err := b.sclPin.Out(gpio.High); err != nil {
			return err
		}
	}
	return b.pinErr()
}

// reopen undoes Close.
func (b *Bus) reopen() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m.SetReset(false)
	if b.pace == nil && b.sclPin != nil && b.opts.Tick > 0 {
		b.pace = time.NewTicker(tickPeriod(b.opts.Tick))
	}
}

// Opts returns the options of the current Master.
func (b *Bus) Opts() Opts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts
}

// Master returns the engine driving the bus.
func (b *Bus) Master() *Master {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m
}

// Tap connects a new party to the simulated SDA wire.
//
// It panics on a GPIO backed bus.
func (b *Bus) Tap() *Tap {
	if b.wire == nil {
		panic("i2cm: Tap requires a simulated bus")
	}
	return b.wire.Tap()
}

// Attach adds a simulated device.
func (b *Bus) Attach(p Peer) {
	b.mu.Lock()
	b.peers = append(b.peers, p)
	b.mu.Unlock()
}

// AddProbe adds an observer of the settled lines.
func (b *Bus) AddProbe(p Probe) {
	b.mu.Lock()
	b.probes = append(b.probes, p)
	b.mu.Unlock()
}

// Ticks returns the number of base ticks run since creation.
func (b *Bus) Ticks() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ticks
}

// Tick advances the bus by one base tick.
func (b *Bus) Tick() {
	b.mu.Lock()
	b.tick()
	b.mu.Unlock()
}

// Reset asserts or releases the master reset.
func (b *Bus) Reset(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m.SetReset(v)
	b.updateSCL()
}

// Transact runs one transaction to completion.
//
// The enable input is raised until the request is latched, then lowered so
// the machine always ends with a STOP. A NACK is reported as an error whose
// cause is ErrAddrNACK or ErrDataNACK, along with the Result.
func (b *Bus) Transact(ctx context.Context, r Request) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transact(ctx, r)
}

func (b *Bus) transact(ctx context.Context, r Request) (Result, error) {
	if b.m.InReset() {
		return Result{}, errors.Errorf("i2cm: %s: held in reset", b.name)
	}
	if uint32(r.Addr) > mask(uint(b.opts.AddrBits)) {
		return Result{}, errors.Errorf("i2cm: %s: invalid address %#x; maximum is %#x", b.name, r.Addr, mask(uint(b.opts.AddrBits)))
	}
	// Generous upper bound: the address frame, the data byte, both
	// acknowledges, start, end and the wait for the latch, twice over.
	limit := 4 * 2 * b.opts.HalfPeriod * (b.opts.AddrBits + b.opts.DataBits + 8)
	n := 0
	for !b.m.Ready() {
		if err := b.wait(ctx, &n, limit); err != nil {
			return Result{Ticks: n}, err
		}
	}
	b.m.SetRequest(r)
	b.m.SetEnable(true)
	for b.m.Ready() {
		if err := b.wait(ctx, &n, limit); err != nil {
			b.m.SetEnable(false)
			return Result{Ticks: n}, err
		}
	}
	b.m.SetEnable(false)
	for !b.m.Ready() {
		if err := b.wait(ctx, &n, limit); err != nil {
			return Result{Ticks: n}, err
		}
	}
	res := Result{Outcome: b.m.Outcome(), Ticks: n}
	switch res.Outcome {
	case AddrNACK:
		return res, errors.Wrapf(ErrAddrNACK, "%s: %s", b.name, r)
	case DataNACK:
		return res, errors.Wrapf(ErrDataNACK, "%s: %s", b.name, r)
	}
	if r.Dir == Read {
		res.Data = b.m.ReadData()
	}
	return res, b.pinErr()
}

// wait runs one tick, honoring pacing, ctx and the tick budget.
func (b *Bus) wait(ctx context.Context, n *int, limit int) error {
	if *n >= limit {
		return errors.Errorf("i2cm: %s: transaction did not complete in %d ticks; stuck in %s", b.name, limit, b.m.State())
	}
	if b.pace != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.pace.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	b.tick()
	*n++
	return nil
}

func (b *Bus) tick() {
	b.m.Tick()
	b.ticks++
	b.updateSCL()
	scl := b.scl
	sda := b.sda.Sample()
	for _, p := range b.peers {
		p.Observe(scl, sda)
	}
	if len(b.probes) != 0 {
		sda = b.sda.Sample()
		for _, p := range b.probes {
			p.Probe(scl, sda)
		}
	}
}

func (b *Bus) updateSCL() {
	l := b.m.SCL()
	if l == b.scl {
		return
	}
	b.scl = l
	if b.sclPin != nil {
		if err := b.sclPin.Out(l); err != nil && b.err == nil {
			b.err = err
		}
	}
}

func (b *Bus) pinErr() error {
	if b.err != nil {
		return errors.Wrapf(b.err, "i2cm: %s: SCL", b.name)
	}
	if l, ok := b.sda.(*PinLine); ok && l.Err() != nil {
		return errors.Wrapf(l.Err(), "i2cm: %s: SDA", b.name)
	}
	return nil
}

// setHalfPeriod rebuilds the master with a new bus clock divider. The bus
// must be idle. The last read byte, outcome and fault count carry over.
func (b *Bus) setHalfPeriod(h int) error {
	if !b.m.Ready() {
		return errors.Errorf("i2cm: %s: can't change speed while %s", b.name, b.m.State())
	}
	o := b.opts
	o.HalfPeriod = h
	if err := o.Validate(); err != nil {
		return err
	}
	old := b.m
	b.m = NewMaster(b.sda, &o)
	b.m.fsm.readData = old.fsm.readData
	b.m.fsm.last = old.fsm.last
	b.m.fsm.faults = old.fsm.faults
	b.opts = b.m.Opts()
	if b.pace != nil {
		b.pace.Stop()
		b.pace = time.NewTicker(tickPeriod(b.opts.Tick))
	}
	return nil
}

func tickPeriod(f physic.Frequency) time.Duration {
	return time.Duration(int64(time.Second) * int64(physic.Hertz) / int64(f))
}
