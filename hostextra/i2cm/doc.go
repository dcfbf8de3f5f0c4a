// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cm implements a bit-level I²C bus master that runs off a fixed
// rate tick.
//
// The engine is made of two clocked components evaluated in lock step: a bus
// clock divider, which produces SCL and registered strobes announcing each of
// its edges, and a transaction state machine, which walks START, address,
// acknowledge, data, acknowledge and STOP one bit per bus clock cycle.
//
// SDA is accessed through the Line interface so the same machine can drive a
// simulated open-drain Wire or a real GPIO via PinLine.
//
// Timing
//
// Each bit is changed one base tick after SCL falls and sampled one base tick
// after SCL rises. The bus clock period is 2*HalfPeriod base ticks, so the
// base tick must run at least 4x the bus frequency.
//
// SDA and SCL never change on the same base tick. The STOP holds SDA low
// through one last clock pulse and releases it while SCL is high, after an
// ACK or a NACK alike.
//
// Limitations
//
// Only single byte transactions are generated, with 7 bit addresses unless
// Opts.AddrBits says otherwise. Clock stretching, multi-master arbitration and
// general call are not supported.

//
// Simulation
//
// Bus ties a Master to its SDA line, its SCL output, simulated peripherals
// (Peer) and probes. Target implements the slave side of the protocol for
// simulated peripherals and Decoder turns the wires back into symbols.
//
// Bus.I2C() exposes the engine as a periph.io i2c.Bus and Register() makes it
// available through i2creg.
package i2cm
