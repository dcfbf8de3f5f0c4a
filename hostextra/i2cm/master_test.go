// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"io/ioutil"
	"testing"

	"github.com/sirupsen/logrus"
	"periph.io/x/periph/conn/gpio"
)

func TestMaster_Ready(t *testing.T) {
	m := newTestMaster(gpio.Low)
	if !m.Ready() {
		t.Fatal("Ready() = false after creation")
	}
	m.SetRequest(Request{Dir: Write, Addr: 0x50, Data: 0xA5})
	m.SetEnable(true)
	left := false
	for i := 0; i < 200; i++ {
		m.Tick()
		if m.Ready() != (m.State() == Idle) {
			t.Fatalf("tick %d: Ready() = %t in %s", i, m.Ready(), m.State())
		}
		if m.State() != Idle {
			left = true
			m.SetEnable(false)
		} else if left {
			break
		}
	}
	if !left || !m.Ready() {
		t.Fatalf("transaction did not complete; in %s", m.State())
	}
	m.SetReset(true)
	if m.Ready() {
		t.Fatal("Ready() = true during reset")
	}
}

func TestMaster_IdleSCL(t *testing.T) {
	m := newTestMaster(gpio.Low)
	for i := 0; i < 40; i++ {
		m.Tick()
		if m.SCL() != gpio.High {
			t.Fatalf("tick %d: SCL = %s while idle", i, m.SCL())
		}
	}
}

func TestMaster_Restart(t *testing.T) {
	m := newTestMaster(gpio.Low)
	m.SetRequest(Request{Dir: Write, Addr: 0x50, Data: 0xA5})
	m.SetEnable(true)
	for i := 0; m.State() != LoadAck; i++ {
		if i == 500 {
			t.Fatalf("never reached LoadAck; in %s", m.State())
		}
		m.Tick()
	}
	m.SetRequest(Request{Dir: Write, Addr: 0x51, Data: 0x3C})
	var got []State
	for i := 0; len(got) != 2; i++ {
		if i == 100 {
			t.Fatalf("stuck after %v", got)
		}
		e := m.Clock().Edge()
		m.Tick()
		if m.State() == End {
			t.Fatal("STOP generated on the restart path")
		}
		if e == RisingSoon {
			got = append(got, m.State())
		}
	}
	if got[0] != Idle || got[1] != Start {
		t.Fatalf("states after LoadAck = %v; want [Idle Start]", got)
	}
	if m.Outcome() != Done {
		t.Fatalf("Outcome() = %s", m.Outcome())
	}
	if m.fsm.addrFrame != 0x51<<1 || m.fsm.dataFrame != 0x3C {
		t.Fatalf("latched %#x %#x", m.fsm.addrFrame, m.fsm.dataFrame)
	}
}

func TestMaster_NoRestartWithoutEnable(t *testing.T) {
	m := newTestMaster(gpio.Low)
	m.SetRequest(Request{Dir: Write, Addr: 0x50, Data: 0xA5})
	m.SetEnable(true)
	for i := 0; m.State() == Idle; i++ {
		if i == 20 {
			t.Fatal("transaction never started")
		}
		m.Tick()
	}
	m.SetEnable(false)
	seen := map[State]bool{}
	for i := 0; !m.Ready(); i++ {
		if i == 500 {
			t.Fatalf("stuck in %s", m.State())
		}
		m.Tick()
		seen[m.State()] = true
	}
	if !seen[End] {
		t.Fatal("LoadAck did not go through End")
	}
	if m.SDA() != (LineState{Value: gpio.High, Drive: true}) {
		t.Fatalf("SDA() = %s after STOP", m.SDA())
	}
}

func TestMaster_ReadData(t *testing.T) {
	// An always low line reads 0 and ACKs.
	m := newTestMaster(gpio.Low)
	m.fsm.readData = 0xFF
	m.SetRequest(Request{Dir: Read, Addr: 0x50})
	m.SetEnable(true)
	for i := 0; m.State() == Idle; i++ {
		if i == 20 {
			t.Fatal("transaction never started")
		}
		m.Tick()
	}
	m.SetEnable(false)
	for i := 0; !m.Ready(); i++ {
		if i == 500 {
			t.Fatalf("stuck in %s", m.State())
		}
		if m.State() != End && m.ReadData() != 0xFF {
			t.Fatalf("ReadData() changed to %#x in %s", m.ReadData(), m.State())
		}
		m.Tick()
	}
	if m.ReadData() != 0 {
		t.Fatalf("ReadData() = %#x", m.ReadData())
	}
}

func TestMaster_AddrNACK(t *testing.T) {
	m := newTestMaster(gpio.High)
	m.fsm.readData = 0x42
	m.SetRequest(Request{Dir: Read, Addr: 0x50})
	m.SetEnable(true)
	var states []State
	for i := 0; i < 500; i++ {
		e := m.Clock().Edge()
		m.Tick()
		if e == RisingSoon {
			states = append(states, m.State())
			m.SetEnable(false)
		}
		if len(states) != 0 && m.Ready() {
			break
		}
	}
	want := []State{Start, SendAddress, SendAddress, SendAddress, SendAddress, SendAddress, SendAddress, SendAddress, SendAddress, AddrAck, End, Idle}
	if len(states) != len(want) {
		t.Fatalf("states = %v; want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v; want %v", states, want)
		}
	}
	if m.Outcome() != AddrNACK {
		t.Fatalf("Outcome() = %s", m.Outcome())
	}
	if m.ReadData() != 0x42 {
		t.Fatalf("ReadData() = %#x", m.ReadData())
	}
}

func TestMaster_Reset(t *testing.T) {
	for stop := 0; stop < 90; stop += 7 {
		m := newTestMaster(gpio.Low)
		m.SetRequest(Request{Dir: Read, Addr: 0x7F, Data: 0xFF})
		m.SetEnable(true)
		for i := 0; i < stop; i++ {
			m.Tick()
		}
		m.SetReset(true)
		for i := 0; i < 10; i++ {
			m.Tick()
		}
		if m.State() != Idle || m.Ready() {
			t.Fatalf("stop=%d: %s Ready()=%t", stop, m.State(), m.Ready())
		}
		if m.fsm.addrFrame != 0 || m.fsm.dataFrame != 0 || m.fsm.index != 0 || m.ReadData() != 0 {
			t.Fatalf("stop=%d: frames not cleared", stop)
		}
		if m.SDA().Drive || m.fsm.line.(*fakeLine).s.Drive {
			t.Fatalf("stop=%d: SDA still driven", stop)
		}
		if m.SCLEnabled() || m.SCL() != gpio.High {
			t.Fatalf("stop=%d: SCL enabled", stop)
		}
		if m.Clock().Count() != 0 {
			t.Fatalf("stop=%d: clock ran during reset", stop)
		}
		m.SetReset(false)
		if !m.Ready() {
			t.Fatalf("stop=%d: not ready after reset", stop)
		}
	}
}

func TestMaster_InvalidState(t *testing.T) {
	m := newTestMaster(gpio.Low)
	m.fsm.state = State(42)
	m.fsm.drive(gpio.Low)
	m.fsm.sclEnable = true
	for i := 0; m.Faults() == 0; i++ {
		if i == 10 {
			t.Fatal("invalid state not detected")
		}
		m.Tick()
	}
	if m.State() != Idle || m.SDA().Drive || m.SCLEnabled() {
		t.Fatalf("not recovered: %s %s %t", m.State(), m.SDA(), m.SCLEnabled())
	}
}

func TestNewMaster_Panic(t *testing.T) {
	data := []Opts{
		{HalfPeriod: 1, AddrBits: 7, DataBits: 8},
		{HalfPeriod: 2, AddrBits: 0, DataBits: 8},
		{HalfPeriod: 2, AddrBits: 7, DataBits: 33},
	}
	for i, o := range data {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("#%d: expected panic", i)
				}
			}()
			NewMaster(&fakeLine{}, &o)
		}()
	}
}

func TestOpts_BusFrequency(t *testing.T) {
	if f := DefaultOpts.BusFrequency(); f.String() != "400kHz" {
		t.Fatalf("BusFrequency() = %s", f)
	}
}

//

// fakeLine presents ext when the master doesn't pull the line low.
type fakeLine struct {
	ext gpio.Level
	s   LineState
}

func (f *fakeLine) Drive(l gpio.Level) {
	f.s = LineState{Value: l, Drive: true}
}

func (f *fakeLine) Release() {
	f.s.Drive = false
}

func (f *fakeLine) Sample() gpio.Level {
	if f.s.Drive && f.s.Value == gpio.Low {
		return gpio.Low
	}
	return f.ext
}

func newTestMaster(ext gpio.Level) *Master {
	o := DefaultOpts
	o.Logger = quiet()
	return NewMaster(&fakeLine{ext: ext}, &o)
}

func quiet() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}
