// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"context"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/physic"
)

// I2C returns the bus as a periph.io I²C bus.
//
// The engine transfers a single byte per transaction, so every byte of w then
// every byte of r is sent as its own transaction, each framed by START and
// STOP. This works with register-less devices like I/O expanders, not with
// devices expecting a register address followed by a repeated start.
func (b *Bus) I2C() i2c.BusCloser {
	return &i2cBus{b: b}
}

type i2cBus struct {
	b *Bus
}

// Close resets the master and releases the lines.
func (d *i2cBus) Close() error {
	return d.b.Close()
}

// Halt implements conn.Resource.
func (d *i2cBus) Halt() error {
	return nil
}

// Duplex implements conn.Conn.
func (d *i2cBus) Duplex() conn.Duplex {
	return conn.Half
}

func (d *i2cBus) String() string {
	return d.b.String()
}

// SetSpeed implements i2c.Bus.
//
// The resulting clock is the fastest one not above f that a whole number of
// base ticks per half period can produce. The master is rebuilt while idle;
// ReadData, Outcome and Faults are preserved.
func (d *i2cBus) SetSpeed(f physic.Frequency) error {
	d.b.mu.Lock()
	defer d.b.mu.Unlock()
	tick := d.b.opts.Tick
	if tick <= 0 {
		return errors.New("i2cm: no base tick rate configured")
	}
	if f <= 0 {
		return errors.Errorf("i2cm: invalid speed %s", f)
	}
	if max := tick / 4; f > max {
		return errors.Errorf("i2cm: invalid speed %s; maximum supported clock is %s with a %s tick", f, max, tick)
	}
	return d.b.setHalfPeriod(int((tick + 2*f - 1) / (2 * f)))
}

// Tx implements i2c.Bus.
func (d *i2cBus) Tx(addr uint16, w, r []byte) error {
	d.b.mu.Lock()
	defer d.b.mu.Unlock()
	ctx := context.Background()
	for i, c := range w {
		if _, err := d.b.transact(ctx, Request{Dir: Write, Addr: addr, Data: uint32(c)}); err != nil {
			return errors.Wrapf(err, "write byte %d", i)
		}
	}
	for i := range r {
		res, err := d.b.transact(ctx, Request{Dir: Read, Addr: addr})
		if err != nil {
			return errors.Wrapf(err, "read byte %d", i)
		}
		r[i] = byte(res.Data)
	}
	return nil
}

// SCL implements i2c.Pins.
func (d *i2cBus) SCL() gpio.PinIO {
	if d.b.sclPin != nil {
		return d.b.sclPin
	}
	return &sclPin{b: d.b}
}

// SDA implements i2c.Pins.
func (d *i2cBus) SDA() gpio.PinIO {
	if d.b.sdaPin != nil {
		return d.b.sdaPin
	}
	return d.b.simSDA()
}

var _ i2c.BusCloser = &i2cBus{}
var _ i2c.Pins = &i2cBus{}
