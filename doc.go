// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitbang is for documentation only.
//
// It is a software I²C master meant for hosts or simulations without an I²C
// controller. The engine lives in hostextra/i2cm and advances one base tick
// at a time: a clock divider produces SCL and a state machine frames single
// byte transactions on SDA.
//
// Simulation
//
// i2cm.NewSim builds a bus on an emulated open-drain wire. Devices are
// attached with i2cm.NewTarget; devices/pcf8574 provides a simulated I/O
// expander and devices/scope prints the waveforms.
//
// GPIO
//
// i2cm.NewPins bit-bangs two real GPIOs, paced at Opts.Tick. Register the bus
// with i2cm.Register then call hostextra.Init() so it is available through
// i2creg.
//
// Command line
//
// cmd/i2cm exercises everything above:
//
//  i2cm -scope write 0x20 0x5a
//  i2cm read 0x20
//  i2cm scan
//  i2cm smoketest
package bitbang
