// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Emulate the bus lines as GPIOs.

package i2cm

import (
	"errors"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

// sclPin exposes the clock of a simulated bus. It is owned by the master and
// can only be read.
type sclPin struct {
	b *Bus
}

// String implements conn.Resource.
func (s *sclPin) String() string {
	return s.b.name + ".SCL"
}

// Halt implements conn.Resource.
func (s *sclPin) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (s *sclPin) Name() string {
	return s.b.name + "_SCL"
}

// Number implements pin.Pin.
func (s *sclPin) Number() int {
	return 0
}

// Function implements pin.Pin.
func (s *sclPin) Function() string {
	return "I2C_SCL"
}

// In implements gpio.PinIn.
func (s *sclPin) In(pull gpio.Pull, e gpio.Edge) error {
	if e != gpio.NoEdge {
		return errors.New("i2cm: edge triggering is not supported")
	}
	if pull != gpio.PullNoChange && pull != gpio.Float {
		return errors.New("i2cm: SCL is driven push-pull by the master")
	}
	return nil
}

// Read implements gpio.PinIn.
func (s *sclPin) Read() gpio.Level {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.b.scl
}

// WaitForEdge implements gpio.PinIn.
func (s *sclPin) WaitForEdge(t time.Duration) bool {
	return false
}

// DefaultPull implements gpio.PinIn.
func (s *sclPin) DefaultPull() gpio.Pull {
	return gpio.Float
}

// Pull implements gpio.PinIn.
func (s *sclPin) Pull() gpio.Pull {
	return gpio.Float
}

// Out implements gpio.PinOut.
func (s *sclPin) Out(l gpio.Level) error {
	return errors.New("i2cm: SCL is owned by the bus master")
}

// PWM implements gpio.PinOut.
func (s *sclPin) PWM(d gpio.Duty, f physic.Frequency) error {
	return errors.New("i2cm: not implemented")
}

//

// sdaPin is an extra party on the simulated SDA wire. Out(Low) pulls the wire
// low, Out(High) and In() release it; Read returns the wire.
type sdaPin struct {
	b   *Bus
	tap *Tap
}

func (b *Bus) simSDA() *sdaPin {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sdaTap == nil {
		b.sdaTap = &sdaPin{b: b, tap: b.wire.Tap()}
	}
	return b.sdaTap
}

// String implements conn.Resource.
func (s *sdaPin) String() string {
	return s.b.name + ".SDA"
}

// Halt implements conn.Resource.
func (s *sdaPin) Halt() error {
	s.b.mu.Lock()
	s.tap.Release()
	s.b.mu.Unlock()
	return nil
}

// Name implements pin.Pin.
func (s *sdaPin) Name() string {
	return s.b.name + "_SDA"
}

// Number implements pin.Pin.
func (s *sdaPin) Number() int {
	return 1
}

// Function implements pin.Pin.
func (s *sdaPin) Function() string {
	return "I2C_SDA"
}

// In implements gpio.PinIn.
func (s *sdaPin) In(pull gpio.Pull, e gpio.Edge) error {
	if e != gpio.NoEdge {
		return errors.New("i2cm: edge triggering is not supported")
	}
	if pull != gpio.PullUp && pull != gpio.PullNoChange {
		return errors.New("i2cm: SDA has a fixed pull-up")
	}
	s.b.mu.Lock()
	s.tap.Release()
	s.b.mu.Unlock()
	return nil
}

// Read implements gpio.PinIn.
func (s *sdaPin) Read() gpio.Level {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.b.wire.Level()
}

// WaitForEdge implements gpio.PinIn.
func (s *sdaPin) WaitForEdge(t time.Duration) bool {
	return false
}

// DefaultPull implements gpio.PinIn.
func (s *sdaPin) DefaultPull() gpio.Pull {
	return gpio.PullUp
}

// Pull implements gpio.PinIn.
func (s *sdaPin) Pull() gpio.Pull {
	return gpio.PullUp
}

// Out implements gpio.PinOut.
func (s *sdaPin) Out(l gpio.Level) error {
	s.b.mu.Lock()
	if l == gpio.Low {
		s.tap.Drive(gpio.Low)
	} else {
		s.tap.Release()
	}
	s.b.mu.Unlock()
	return nil
}

// PWM implements gpio.PinOut.
func (s *sdaPin) PWM(d gpio.Duty, f physic.Frequency) error {
	return errors.New("i2cm: not implemented")
}

var _ gpio.PinIO = &sclPin{}
var _ gpio.PinIO = &sdaPin{}
