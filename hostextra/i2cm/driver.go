// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/periph"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/pin"
	"periph.io/x/periph/conn/pin/pinreg"
)

// All enumerates all the registered buses.
func All() []*Bus {
	mu.Lock()
	defer mu.Unlock()
	out := make([]*Bus, len(all))
	copy(out, all)
	return out
}

// Register makes b available through i2creg and its lines through pinreg.
//
// Buses registered before periph.Init() are published when the driver is
// initialized.
func Register(b *Bus) error {
	mu.Lock()
	defer mu.Unlock()
	for _, o := range all {
		if o.name == b.name {
			return errors.Errorf("i2cm: bus %q already registered", b.name)
		}
	}
	all = append(all, b)
	if !initialized {
		return nil
	}
	return registerBus(b)
}

//

var (
	mu          sync.Mutex
	all         []*Bus
	initialized bool
)

// registerBus registers the header and the bus in the relevant registries.
// GPIO backed buses have no header of their own; their pins belong to the
// host.
//
// Must be called with mu held.
func registerBus(b *Bus) error {
	if b.wire != nil {
		p := b.I2C().(i2c.Pins)
		hdr := [][]pin.Pin{{p.SCL()}, {p.SDA()}}
		if err := pinreg.Register(b.name, hdr); err != nil {
			return err
		}
	}
	return i2creg.Register(b.name, nil, -1, func() (i2c.BusCloser, error) {
		b.reopen()
		return b.I2C(), nil
	})
}

// driver implements periph.Driver.
type driver struct {
}

func (d *driver) String() string {
	return "i2cm"
}

func (d *driver) Prerequisites() []string {
	return nil
}

func (d *driver) After() []string {
	return nil
}

func (d *driver) Init() (bool, error) {
	mu.Lock()
	defer mu.Unlock()
	initialized = true
	for _, b := range all {
		if err := registerBus(b); err != nil {
			return true, err
		}
	}
	return true, nil
}

func init() {
	periph.MustRegister(&drv)
}

var drv driver

var _ periph.Driver = &driver{}
