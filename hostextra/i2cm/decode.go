// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"strings"

	"periph.io/x/periph/conn/gpio"
)

// Probe observes the settled lines once per base tick.
type Probe interface {
	Probe(scl, sda gpio.Level)
}

// SymbolKind is a bus event recognized by Decoder.
type SymbolKind uint8

// Valid SymbolKind values.
const (
	StartCond SymbolKind = iota
	StopCond
	BitSym
)

// Symbol is a START, a STOP or one bit clocked on SCL rising.
type Symbol struct {
	Kind SymbolKind
	Bit  gpio.Level
}

func (s Symbol) String() string {
	switch s.Kind {
	case StartCond:
		return "S"
	case StopCond:
		return "P"
	default:
		if s.Bit {
			return "1"
		}
		return "0"
	}
}

// Bits returns the Symbols for v, MSB first.
func Bits(v uint32, n int) []Symbol {
	out := make([]Symbol, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, Symbol{Kind: BitSym, Bit: bit(v, uint(i))})
	}
	return out
}

// Decoder turns SCL/SDA samples back into Symbols.
//
// A bit is sampled when SCL rises and recorded when SCL falls, so the clock
// pulse that carries a STOP is not mistaken for a bit. SDA changing while SCL
// stays high is a START (falling) or a STOP (rising).
//
// Decoder implements Probe.
type Decoder struct {
	Symbols []Symbol

	init    bool
	prevSCL gpio.Level
	prevSDA gpio.Level
	pending bool
	bit     gpio.Level
}

// Probe implements Probe.
func (d *Decoder) Probe(scl, sda gpio.Level) {
	if !d.init {
		d.init = true
		d.prevSCL, d.prevSDA = gpio.High, gpio.High
	}
	prevSCL, prevSDA := d.prevSCL, d.prevSDA
	d.prevSCL, d.prevSDA = scl, sda
	switch {
	case prevSCL == gpio.High && scl == gpio.High && prevSDA == gpio.High && sda == gpio.Low:
		d.pending = false
		d.Symbols = append(d.Symbols, Symbol{Kind: StartCond})
	case prevSCL == gpio.High && scl == gpio.High && prevSDA == gpio.Low && sda == gpio.High:
		d.pending = false
		d.Symbols = append(d.Symbols, Symbol{Kind: StopCond})
	case prevSCL == gpio.Low && scl == gpio.High:
		d.pending, d.bit = true, sda
	case prevSCL == gpio.High && scl == gpio.Low && d.pending:
		d.pending = false
		d.Symbols = append(d.Symbols, Symbol{Kind: BitSym, Bit: d.bit})
	}
}

// Reset forgets the decoded symbols.
func (d *Decoder) Reset() {
	d.Symbols = nil
	d.pending = false
}

func (d *Decoder) String() string {
	var b strings.Builder
	for _, s := range d.Symbols {
		b.WriteString(s.String())
	}
	return b.String()
}

var _ Probe = &Decoder{}
