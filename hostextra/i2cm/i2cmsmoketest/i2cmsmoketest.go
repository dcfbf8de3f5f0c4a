// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cmsmoketest verifies that the bit-banged I²C master works end to
// end against a simulated PCF8574.
package i2cmsmoketest

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/bitbang/devices/pcf8574"
	"periph.io/x/bitbang/hostextra/i2cm"
)

// SmokeTest is imported by i2cm smoketest.
type SmokeTest struct {
	// Logger is passed to the bus; defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
}

// Name implements the SmokeTest interface.
func (s *SmokeTest) Name() string {
	return "i2cm"
}

// Description implements the SmokeTest interface.
func (s *SmokeTest) Description() string {
	return "Tests the bit-banged I²C master against a simulated PCF8574"
}

// Run implements the SmokeTest interface.
func (s *SmokeTest) Run(f *flag.FlagSet, args []string) error {
	addr := f.Uint("addr", uint(pcf8574.DefaultAddr), "address of the simulated PCF8574")
	half := f.Int("half", i2cm.DefaultOpts.HalfPeriod, "base ticks per half SCL period")
	if err := f.Parse(args); err != nil {
		return err
	}
	if f.NArg() != 0 {
		f.Usage()
		return errors.New("unrecognized arguments")
	}
	o := i2cm.DefaultOpts
	o.HalfPeriod = *half
	o.Logger = s.Logger
	if err := o.Validate(); err != nil {
		return err
	}
	b := i2cm.NewSim("smoketest", &o)
	chip := pcf8574.NewSim(b, uint16(*addr))
	d := &i2cm.Decoder{}
	b.AddProbe(d)
	if err := testWriteRead(b, chip, uint16(*addr)); err != nil {
		return err
	}
	if err := testFrame(b, d, uint16(*addr)); err != nil {
		return err
	}
	return testNACK(b, uint16(*addr))
}

// testWriteRead writes patterns through the periph.io interface and reads
// them back.
func testWriteRead(b *i2cm.Bus, chip *pcf8574.Sim, addr uint16) error {
	dev, err := pcf8574.New(b.I2C(), addr)
	if err != nil {
		return err
	}
	for _, v := range []byte{0x00, 0xFF, 0x55, 0xAA, 0x81} {
		if err := dev.Write(v); err != nil {
			return err
		}
		if chip.Latch() != v {
			return fmt.Errorf("wrote %#02x, chip latched %#02x", v, chip.Latch())
		}
		got, err := dev.Read()
		if err != nil {
			return err
		}
		if got != v {
			return fmt.Errorf("wrote %#02x, read back %#02x", v, got)
		}
	}
	chip.Pull(0x0F)
	defer chip.Pull(0)
	got, err := dev.Read()
	if err != nil {
		return err
	}
	if got != 0x80 {
		return fmt.Errorf("expected the external pull downs to read %#02x, got %#02x", 0x80, got)
	}
	return dev.Halt()
}

// testFrame verifies the bits on the wire of a single write.
func testFrame(b *i2cm.Bus, d *i2cm.Decoder, addr uint16) error {
	d.Reset()
	if _, err := b.Transact(context.Background(), i2cm.Request{Dir: i2cm.Write, Addr: addr, Data: 0xC3}); err != nil {
		return err
	}
	want := &i2cm.Decoder{Symbols: []i2cm.Symbol{{Kind: i2cm.StartCond}}}
	want.Symbols = append(want.Symbols, i2cm.Bits(uint32(addr)<<1, 8)...)
	want.Symbols = append(want.Symbols, i2cm.Bits(0, 1)...)
	want.Symbols = append(want.Symbols, i2cm.Bits(0xC3, 8)...)
	want.Symbols = append(want.Symbols, i2cm.Bits(0, 1)...)
	want.Symbols = append(want.Symbols, i2cm.Symbol{Kind: i2cm.StopCond})
	if d.String() != want.String() {
		return fmt.Errorf("on the wire %s, expected %s", d, want)
	}
	return nil
}

// testNACK verifies that an absent device is reported.
func testNACK(b *i2cm.Bus, addr uint16) error {
	other := addr ^ 1
	res, err := b.Transact(context.Background(), i2cm.Request{Dir: i2cm.Read, Addr: other})
	if errors.Cause(err) != i2cm.ErrAddrNACK {
		return fmt.Errorf("expected a NACK at %#x, got %v", other, err)
	}
	if res.Outcome != i2cm.AddrNACK {
		return fmt.Errorf("expected outcome %s, got %s", i2cm.AddrNACK, res.Outcome)
	}
	return nil
}
