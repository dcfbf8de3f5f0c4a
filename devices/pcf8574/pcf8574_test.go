// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf8574

import (
	"io/ioutil"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/bitbang/hostextra/i2cm"
	"periph.io/x/periph/conn/gpio"
)

func TestDev(t *testing.T) {
	b, s := newBus(DefaultAddr)
	d, err := New(b.I2C(), DefaultAddr)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := d.Read(); err != nil || v != 0xFF {
		t.Fatalf("Read() = %#x, %v; want 0xff at power on", v, err)
	}
	if err := d.Write(0x0F); err != nil {
		t.Fatal(err)
	}
	if s.Latch() != 0x0F || s.Writes() != 1 {
		t.Fatalf("Latch() = %#x after %d writes", s.Latch(), s.Writes())
	}
	if v, err := d.Read(); err != nil || v != 0x0F {
		t.Fatalf("Read() = %#x, %v", v, err)
	}
	p := s.Pins()
	if err := p[1].Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	// P7 is latched low, an external pull down changes nothing.
	if err := p[7].Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if v, err := d.Read(); err != nil || v != 0x0D {
		t.Fatalf("Read() = %#x, %v", v, err)
	}
	if p[1].Read() != gpio.Low || p[0].Read() != gpio.High {
		t.Fatal("pin levels")
	}
	if err := p[1].In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if v, err := d.Read(); err != nil || v != 0x7F {
		t.Fatalf("Read() = %#x, %v", v, err)
	}
}

func TestNew_Missing(t *testing.T) {
	b, _ := newBus(DefaultAddr)
	if _, err := New(b.I2C(), 0x21); errors.Cause(err) != i2cm.ErrAddrNACK {
		t.Fatalf("New() = %v", err)
	}
}

func TestNew_InvalidAddr(t *testing.T) {
	b, _ := newBus(DefaultAddr)
	for _, a := range []uint16{0, 0x1F, 0x28, 0x37, 0x40} {
		if _, err := New(b.I2C(), a); err == nil {
			t.Fatalf("New(%#x) succeeded", a)
		}
	}
}

func TestSim_Pins(t *testing.T) {
	b, s := newBus(0x38)
	s.Pull(0xA0)
	d, err := New(b.I2C(), 0x38)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := d.Read(); err != nil || v != 0x5F {
		t.Fatalf("Read() = %#x, %v", v, err)
	}
	p := s.Pins()
	if len(p) != 8 {
		t.Fatalf("%d pins", len(p))
	}
	if n := p[5].String(); n != "PCF8574@38.P5" {
		t.Fatal(n)
	}
	if p[5].In(gpio.PullUp, gpio.BothEdges) == nil {
		t.Fatal("edges are not supported")
	}
	if err := p[5].Halt(); err != nil {
		t.Fatal(err)
	}
	if s.Port() != 0x7F {
		t.Fatalf("Port() = %#x", s.Port())
	}
}

//

func newBus(addr uint16) (*i2cm.Bus, *Sim) {
	l := logrus.New()
	l.Out = ioutil.Discard
	o := i2cm.DefaultOpts
	o.Logger = l
	b := i2cm.NewSim("test", &o)
	return b, NewSim(b, addr)
}
