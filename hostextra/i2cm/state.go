// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
)

// State is the protocol phase of the transaction state machine.
//
// Exactly one State is active at any time.
type State uint8

// Valid State values.
const (
	Idle State = iota
	Start
	SendAddress
	AddrAck
	WriteData
	ReadData
	LoadAck
	SendAck
	End
)

var stateNames = [...]string{
	Idle:        "Idle",
	Start:       "Start",
	SendAddress: "SendAddress",
	AddrAck:     "AddrAck",
	WriteData:   "WriteData",
	ReadData:    "ReadData",
	LoadAck:     "LoadAck",
	SendAck:     "SendAck",
	End:         "End",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Direction is the R/W bit appended to the address.
type Direction uint8

// Valid Direction values.
const (
	Write Direction = 0
	Read  Direction = 1
)

func (d Direction) String() string {
	if d == Read {
		return "Read"
	}
	return "Write"
}

// Outcome describes how the last transaction ended.
type Outcome uint8

// Valid Outcome values.
const (
	// None means no transaction completed since reset.
	None Outcome = iota
	// Done means the address and, for a write, the data byte were acknowledged.
	Done
	// AddrNACK means no target acknowledged the address.
	AddrNACK
	// DataNACK means the target did not acknowledge the written byte.
	DataNACK
)

func (o Outcome) String() string {
	switch o {
	case None:
		return "None"
	case Done:
		return "Done"
	case AddrNACK:
		return "AddrNACK"
	case DataNACK:
		return "DataNACK"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Request is a transaction as presented by the host.
//
// It is latched by value when the transaction starts.
type Request struct {
	Dir  Direction
	Addr uint16
	Data uint32
}

func (r Request) String() string {
	return fmt.Sprintf("%s@%#x:%#x", r.Dir, r.Addr, r.Data)
}

// LineState is what the master currently does with SDA.
type LineState struct {
	Value gpio.Level
	Drive bool
}

func (l LineState) String() string {
	if !l.Drive {
		return "released"
	}
	return l.Value.String()
}
