// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"periph.io/x/periph/conn/gpio"
)

// Peer is a device attached to a simulated Bus.
//
// Observe is called once per base tick with the lines as left by the master on
// that tick. A Peer changes SDA through its own Tap.
type Peer interface {
	Observe(scl, sda gpio.Level)
}

// targetState records how incoming bits are interpreted.
type targetState uint8

const (
	targetIdle targetState = iota
	targetAddr
	targetAddrAck
	targetWrite
	targetWriteAck
	targetRead
	targetMasterAck
	targetIgnore
)

// Target is the slave side of the protocol, for simulated peripherals.
//
// It samples SDA on SCL rising edges and changes SDA one tick after SCL
// falling edges. A START is SDA falling and a STOP is SDA rising while SCL
// stays high. Each transaction carries one data byte.
type Target struct {
	// Addr is the address the target answers to.
	Addr uint16
	// OnWrite is called with each byte written by the master; returning false
	// NACKs it. A nil OnWrite ACKs everything.
	OnWrite func(b uint32) bool
	// OnRead returns the byte to send to the master.
	OnRead func() uint32

	tap      *Tap
	addrBits uint
	dataBits uint

	state   targetState
	prevSCL gpio.Level
	prevSDA gpio.Level
	bits    uint32
	n       uint
	dir     Direction
	ack     bool
	clocked bool
	// pending is the SDA change scheduled on the last SCL falling edge.
	pending func()
}

// NewTarget returns a Target answering at addr on the bus b.
func NewTarget(b *Bus, addr uint16) *Target {
	o := b.Opts()
	return &Target{
		Addr:     addr,
		tap:      b.Tap(),
		addrBits: uint(o.AddrBits),
		dataBits: uint(o.DataBits),
		prevSCL:  gpio.High,
		prevSDA:  gpio.High,
	}
}

// Busy returns true while the target takes part in a transaction.
func (t *Target) Busy() bool {
	return t.state != targetIdle && t.state != targetIgnore
}

// Observe implements Peer.
func (t *Target) Observe(scl, sda gpio.Level) {
	if t.pending != nil {
		t.pending()
		t.pending = nil
		sda = t.tap.Sample()
	}
	prevSCL, prevSDA := t.prevSCL, t.prevSDA
	t.prevSCL, t.prevSDA = scl, sda

	switch {
	case prevSCL == gpio.High && scl == gpio.High && prevSDA == gpio.High && sda == gpio.Low:
		t.tap.Release()
		t.state = targetAddr
		t.bits, t.n = 0, 0
		return
	case prevSCL == gpio.High && scl == gpio.High && prevSDA == gpio.Low && sda == gpio.High:
		t.tap.Release()
		t.state = targetIdle
		return
	case prevSCL == gpio.Low && scl == gpio.High:
		t.rising(sda)
	case prevSCL == gpio.High && scl == gpio.Low:
		t.falling()
	}
}

func (t *Target) rising(sda gpio.Level) {
	switch t.state {
	case targetAddr:
		t.shift(sda)
		if t.n != t.addrBits+1 {
			return
		}
		if uint16(t.bits>>1) != t.Addr {
			t.state = targetIgnore
			return
		}
		t.dir = Direction(t.bits & 1)
		t.ack = true
		t.clocked = false
		t.state = targetAddrAck
	case targetWrite:
		t.shift(sda)
		if t.n != t.dataBits {
			return
		}
		t.ack = t.OnWrite == nil || t.OnWrite(t.bits)
		t.clocked = false
		t.state = targetWriteAck
	case targetAddrAck, targetWriteAck:
		t.clocked = true
	case targetRead:
		t.n++
	case targetMasterAck:
		// The byte is done whether the master ACKed it or not.
		t.state = targetIdle
	}
}

func (t *Target) falling() {
	switch t.state {
	case targetAddrAck:
		if !t.clocked {
			t.later(gpio.Low, true)
			return
		}
		if t.dir == Write {
			t.bits, t.n = 0, 0
			t.state = targetWrite
			t.later(gpio.High, false)
			return
		}
		t.bits, t.n = 0, 0
		if t.OnRead != nil {
			t.bits = t.OnRead() & mask(t.dataBits)
		}
		t.state = targetRead
		t.later(bit(t.bits, t.dataBits-1), true)
	case targetWriteAck:
		if !t.clocked {
			t.later(gpio.Low, t.ack)
			return
		}
		t.state = targetIdle
		t.later(gpio.High, false)
	case targetRead:
		if t.n < t.dataBits {
			t.later(bit(t.bits, t.dataBits-1-t.n), true)
			return
		}
		t.state = targetMasterAck
		t.later(gpio.High, false)
	}
}

func (t *Target) shift(sda gpio.Level) {
	t.bits <<= 1
	if sda == gpio.High {
		t.bits |= 1
	}
	t.n++
}

// later schedules SDA for the next tick, modeling the data hold time after
// SCL falls.
func (t *Target) later(l gpio.Level, drive bool) {
	t.pending = func() {
		if drive {
			t.tap.Drive(l)
		} else {
			t.tap.Release()
		}
	}
}

var _ Peer = &Target{}
