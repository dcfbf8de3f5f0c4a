// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio"
)

// machine is the transaction state machine.
//
// It only moves on the strobes of Clock: sampling and state transitions
// happen on RisingSoon, SDA changes on FallingSoon, i.e. data changes while
// SCL is low and is sampled while SCL is high. The exceptions are the START,
// driven while SCL is still gated high, and the STOP, driven on the last
// RisingSoon of End.
type machine struct {
	line     Line
	log      logrus.FieldLogger
	addrBits uint
	dataBits uint

	state State
	// addrFrame is the address followed by the R/W bit as LSB.
	addrFrame uint32
	dataFrame uint32
	// index is the bit of the current frame being shifted, MSB first.
	index     uint
	sda       LineState
	sclEnable bool
	readData  uint32
	// outcome is the result of the transaction in flight, published to last
	// when the machine returns to Idle.
	outcome Outcome
	last    Outcome
	faults  int
}

func (m *machine) step(e Edge, enable bool, r Request) {
	switch e {
	case RisingSoon:
		m.rising(enable, r)
	case FallingSoon:
		m.falling()
	}
}

func (m *machine) rising(enable bool, r Request) {
	switch m.state {
	case Idle:
		if enable {
			m.latch(r)
			m.state = Start
		}
	case Start:
		m.index = m.addrBits
		m.state = SendAddress
	case SendAddress:
		if m.index == 0 {
			m.state = AddrAck
		} else {
			m.index--
		}
	case AddrAck:
		if m.line.Sample() == gpio.High {
			m.outcome = AddrNACK
			m.state = End
			return
		}
		m.index = m.dataBits - 1
		if m.addrFrame&1 == uint32(Write) {
			m.state = WriteData
		} else {
			m.state = ReadData
		}
	case WriteData:
		if m.index == 0 {
			m.state = LoadAck
		} else {
			m.index--
		}
	case ReadData:
		if m.line.Sample() == gpio.High {
			m.dataFrame |= 1 << m.index
		} else {
			m.dataFrame &^= 1 << m.index
		}
		if m.index == 0 {
			m.state = SendAck
		} else {
			m.index--
		}
	case LoadAck:
		ack := m.line.Sample() == gpio.Low
		if !ack {
			m.outcome = DataNACK
			m.state = End
			return
		}
		m.outcome = Done
		if enable {
			// Restart without a STOP; the next rising edge latches the new
			// request.
			m.idle()
			return
		}
		m.state = End
	case SendAck:
		m.outcome = Done
		m.state = End
	case End:
		if m.outcome == Done && m.addrFrame&1 == uint32(Read) {
			m.readData = m.dataFrame
		}
		// SCL is high: SDA rising is the STOP condition.
		m.drive(gpio.High)
		m.idle()
	default:
		m.fault()
	}
}

func (m *machine) falling() {
	switch m.state {
	case Idle:
	case Start:
		m.drive(gpio.Low)
		m.sclEnable = true
	case SendAddress:
		m.drive(bit(m.addrFrame, m.index))
	case AddrAck, ReadData, LoadAck:
		m.release()
	case WriteData:
		m.drive(bit(m.dataFrame, m.index))
	case SendAck:
		m.drive(gpio.Low)
	case End:
		// Hold SDA low through the last clock pulse.
		m.drive(gpio.Low)
	default:
		m.fault()
	}
}

func (m *machine) latch(r Request) {
	m.addrFrame = uint32(r.Addr)&mask(m.addrBits)<<1 | uint32(r.Dir&1)
	m.dataFrame = r.Data & mask(m.dataBits)
	m.index = 0
	m.outcome = None
	m.log.WithFields(logrus.Fields{"addr": r.Addr, "dir": r.Dir, "data": m.dataFrame}).Debug("i2cm: start")
}

func (m *machine) idle() {
	m.state = Idle
	m.sclEnable = false
	m.last = m.outcome
	m.log.WithFields(logrus.Fields{"addr": m.addrFrame >> 1, "outcome": m.outcome}).Debug("i2cm: done")
}

// fault recovers from a state value outside of the enumeration.
func (m *machine) fault() {
	m.log.WithField("state", m.state).Error("i2cm: invalid state, forcing Idle")
	m.faults++
	m.state = Idle
	m.sclEnable = false
	m.release()
}

func (m *machine) reset() {
	m.state = Idle
	m.addrFrame = 0
	m.dataFrame = 0
	m.index = 0
	m.readData = 0
	m.outcome = None
	m.last = None
	m.sclEnable = false
	m.release()
}

func (m *machine) drive(l gpio.Level) {
	m.sda = LineState{Value: l, Drive: true}
	m.line.Drive(l)
}

func (m *machine) release() {
	m.sda = LineState{Value: m.sda.Value}
	m.line.Release()
}

func bit(v uint32, i uint) gpio.Level {
	return gpio.Level(v>>i&1 != 0)
}

func mask(bits uint) uint32 {
	return uint32(1)<<bits - 1
}
