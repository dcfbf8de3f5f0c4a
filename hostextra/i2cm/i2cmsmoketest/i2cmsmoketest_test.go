// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cmsmoketest

import (
	"flag"
	"io/ioutil"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSmokeTest(t *testing.T) {
	l := logrus.New()
	l.Out = ioutil.Discard
	data := [][]string{
		nil,
		{"-addr", "0x3a"},
		{"-half", "5"},
	}
	for i, args := range data {
		s := SmokeTest{Logger: l}
		f := flag.NewFlagSet(s.Name(), flag.ContinueOnError)
		if err := s.Run(f, args); err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
	}
}

func TestSmokeTest_Errors(t *testing.T) {
	l := logrus.New()
	l.Out = ioutil.Discard
	data := [][]string{
		{"-half", "1"},
		{"extra"},
	}
	for i, args := range data {
		s := SmokeTest{Logger: l}
		f := flag.NewFlagSet(s.Name(), flag.ContinueOnError)
		f.SetOutput(ioutil.Discard)
		if err := s.Run(f, args); err == nil {
			t.Fatalf("#%d: expected error", i)
		}
	}
}
