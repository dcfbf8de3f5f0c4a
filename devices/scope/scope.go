// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package scope implements a two channel logic analyzer that outputs SCL and
// SDA to the terminal (stdout) using ANSI color codes.
//
// Attach it to an i2cm.Bus as a probe, run transactions, then Flush to print
// the waveform with the decoded symbols under it.
package scope // import "periph.io/x/bitbang/devices/scope"

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/bitbang/hostextra/i2cm"
	"periph.io/x/periph/conn/gpio"
)

// Dev records both lines once per base tick.
type Dev struct {
	w     io.Writer
	color bool
	scl   []gpio.Level
	sda   []gpio.Level
	marks []byte
	dec   i2cm.Decoder
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
//
// Colors are only used when stdout is a terminal.
func New() *Dev {
	return NewWriter(colorable.NewColorableStdout(), isatty.IsTerminal(os.Stdout.Fd()))
}

// NewWriter returns a Dev that displays to w.
func NewWriter(w io.Writer, color bool) *Dev {
	return &Dev{w: w, color: color}
}

func (d *Dev) String() string {
	return "Scope"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	if !d.color {
		return nil
	}
	_, err := d.w.Write([]byte("\033[0m"))
	return err
}

// Probe implements i2cm.Probe.
func (d *Dev) Probe(scl, sda gpio.Level) {
	d.scl = append(d.scl, scl)
	d.sda = append(d.sda, sda)
	n := len(d.dec.Symbols)
	d.dec.Probe(scl, sda)
	m := byte(' ')
	if len(d.dec.Symbols) != n {
		m = d.dec.Symbols[n].String()[0]
	}
	d.marks = append(d.marks, m)
}

// Len returns the number of ticks recorded since the last Flush.
func (d *Dev) Len() int {
	return len(d.scl)
}

// Decoded returns the symbols decoded since the last Flush.
func (d *Dev) Decoded() string {
	return string(bytes.Replace(d.marks, []byte{' '}, nil, -1))
}

// Flush writes the recorded ticks and forgets them.
//
// Each tick is one column; idle ticks at both ends are trimmed down to one.
func (d *Dev) Flush() error {
	first, last := 0, len(d.scl)
	for first < last-1 && d.idle(first) && d.idle(first+1) {
		first++
	}
	for last > first+1 && d.idle(last-1) && d.idle(last-2) {
		last--
	}
	d.buf.Reset()
	d.row("SCL ", d.scl[first:last])
	d.row("SDA ", d.sda[first:last])
	_, _ = d.buf.WriteString("    ")
	_, _ = d.buf.Write(bytes.TrimRight(d.marks[first:last], " "))
	_, _ = d.buf.WriteString("\n")
	_, err := d.buf.WriteTo(d.w)
	d.scl, d.sda, d.marks = d.scl[:0], d.sda[:0], d.marks[:0]
	return err
}

func (d *Dev) idle(i int) bool {
	return d.scl[i] == gpio.High && d.sda[i] == gpio.High && d.marks[i] == ' '
}

func (d *Dev) row(name string, l []gpio.Level) {
	_, _ = d.buf.WriteString(name)
	for _, v := range l {
		switch {
		case d.color && v == gpio.High:
			_, _ = io.WriteString(&d.buf, ansi256.Default.Block(high))
		case d.color:
			_, _ = io.WriteString(&d.buf, ansi256.Default.Block(low))
		case v == gpio.High:
			_, _ = d.buf.WriteString("‾")
		default:
			_, _ = d.buf.WriteString("_")
		}
	}
	if d.color {
		_, _ = d.buf.WriteString("\033[0m")
	}
	_, _ = d.buf.WriteString("\n")
}

var (
	high = color.NRGBA{0, 200, 0, 255}
	low  = color.NRGBA{0, 40, 0, 255}
)

var _ i2cm.Probe = &Dev{}
var _ fmt.Stringer = &Dev{}
