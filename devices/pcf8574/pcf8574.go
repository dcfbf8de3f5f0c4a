// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pcf8574 controls a PCF8574 8 bit I/O expander.
//
// The port is quasi-bidirectional: writing 1 to a bit weakly pulls the pin up
// so it can be used as an input, writing 0 sinks it. Reading returns the pin
// levels, not the written value.
//
// The chip has no register: every access is a single byte, which makes it a
// good match for a single byte per transaction master like i2cm.
//
// Datasheet
//
// http://www.ti.com/lit/ds/symlink/pcf8574.pdf
package pcf8574 // import "periph.io/x/bitbang/devices/pcf8574"

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/i2c"
)

// DefaultAddr is the address with A0, A1 and A2 tied low.
const DefaultAddr uint16 = 0x20

// Dev is a handle to a PCF8574 or PCF8574A.
type Dev struct {
	c i2c.Dev
}

// New returns a handle to the expander at addr.
//
// The chip is probed with a read so a missing device is reported right away.
// Valid addresses are 0x20 to 0x27 (PCF8574) and 0x38 to 0x3F (PCF8574A).
func New(b i2c.Bus, addr uint16) (*Dev, error) {
	if (addr < 0x20 || addr > 0x27) && (addr < 0x38 || addr > 0x3F) {
		return nil, fmt.Errorf("pcf8574: invalid address %#x", addr)
	}
	d := &Dev{c: i2c.Dev{Bus: b, Addr: addr}}
	if _, err := d.Read(); err != nil {
		return nil, errors.Wrap(err, "pcf8574: probe failed")
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("PCF8574{%s}", &d.c)
}

// Read returns the levels of the 8 pins, P0 as the LSB.
func (d *Dev) Read() (byte, error) {
	var b [1]byte
	if err := d.c.Tx(nil, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Write sets the port latch, P0 as the LSB. Bits set to 1 are inputs.
func (d *Dev) Write(v byte) error {
	return d.c.Tx([]byte{v}, nil)
}

// Halt implements conn.Resource.
//
// It turns all the pins into inputs, the power on state.
func (d *Dev) Halt() error {
	return d.Write(0xFF)
}
