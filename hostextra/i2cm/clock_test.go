// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"testing"

	"periph.io/x/periph/conn/gpio"
)

func TestClock(t *testing.T) {
	for half := 2; half < 8; half++ {
		c := NewClock(half)
		const periods = 5
		var rising, falling, high []int
		for i := 1; i <= periods*2*half; i++ {
			c.Tick()
			switch c.Edge() {
			case RisingSoon:
				if c.Level() != gpio.High {
					t.Fatalf("half=%d tick %d: RisingSoon with level %s", half, i, c.Level())
				}
				rising = append(rising, i)
			case FallingSoon:
				if c.Level() != gpio.Low {
					t.Fatalf("half=%d tick %d: FallingSoon with level %s", half, i, c.Level())
				}
				if c.Count() != 0 {
					t.Fatalf("half=%d tick %d: counter %d after FallingSoon", half, i, c.Count())
				}
				falling = append(falling, i)
			}
			if c.Level() == gpio.High {
				high = append(high, i)
			}
			if c.Count() < 0 || c.Count() > 2*half-1 {
				t.Fatalf("half=%d: counter %d out of range", half, c.Count())
			}
		}
		if len(rising) != periods || len(falling) != periods {
			t.Fatalf("half=%d: %d rising, %d falling; want %d each", half, len(rising), len(falling), periods)
		}
		for i := 0; i < periods; i++ {
			if falling[i]-rising[i] != half {
				t.Fatalf("half=%d: high phase lasts %d ticks", half, falling[i]-rising[i])
			}
			if i != 0 && rising[i]-rising[i-1] != 2*half {
				t.Fatalf("half=%d: period is %d ticks", half, rising[i]-rising[i-1])
			}
		}
		if len(high) != periods*half {
			t.Fatalf("half=%d: high for %d ticks out of %d", half, len(high), periods*2*half)
		}
	}
}

func TestClock_Reset(t *testing.T) {
	c := NewClock(3)
	for i := 0; i < 4; i++ {
		c.Tick()
	}
	c.Reset()
	if c.Count() != 0 || c.Level() != gpio.Low || c.Edge() != NoEdge {
		t.Fatalf("Reset() left %d %s %s", c.Count(), c.Level(), c.Edge())
	}
}

func TestNewClock_Panic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewClock(1)
}
