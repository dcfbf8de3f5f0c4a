// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// i2cm drives a bit-banged I²C master on a simulated bus with a PCF8574
// attached.
//
// Configuration is read from an optional file (-config), then from I2CM_*
// environment variables, e.g. I2CM_BUS_HALF_PERIOD=4.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli"
	"periph.io/x/bitbang/devices/pcf8574"
	"periph.io/x/bitbang/devices/scope"
	"periph.io/x/bitbang/hostextra"
	"periph.io/x/bitbang/hostextra/i2cm"
	"periph.io/x/bitbang/hostextra/i2cm/i2cmsmoketest"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
)

const busName = "SIM"

// env is what every command works with.
type env struct {
	sim   *i2cm.Bus
	bus   i2c.BusCloser
	scope *scope.Dev
}

func (e *env) close() error {
	if e.scope != nil {
		if err := e.scope.Flush(); err != nil {
			return err
		}
		if err := e.scope.Halt(); err != nil {
			return err
		}
	}
	return e.bus.Close()
}

func setup(c *cli.Context) error {
	viper.SetDefault("bus.half_period", i2cm.DefaultOpts.HalfPeriod)
	viper.SetDefault("bus.addr_bits", i2cm.DefaultOpts.AddrBits)
	viper.SetDefault("bus.data_bits", i2cm.DefaultOpts.DataBits)
	viper.SetDefault("bus.tick", int64(i2cm.DefaultOpts.Tick/physic.Hertz))
	viper.SetDefault("sim.addr", int(pcf8574.DefaultAddr))
	viper.SetDefault("sim.input", 0xFF)
	viper.SetEnvPrefix("i2cm")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if f := c.String("config"); f != "" {
		viper.SetConfigFile(f)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read %s", f)
		}
	}
	if c.IsSet("half-period") {
		viper.Set("bus.half_period", c.Int("half-period"))
	}

	log.SetFormatter(&log.TextFormatter{DisableColors: true})
	log.SetOutput(os.Stderr)
	if c.Bool("v") || viper.GetBool("log.debug") {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	return nil
}

func opts() i2cm.Opts {
	return i2cm.Opts{
		HalfPeriod: viper.GetInt("bus.half_period"),
		AddrBits:   viper.GetInt("bus.addr_bits"),
		DataBits:   viper.GetInt("bus.data_bits"),
		Tick:       physic.Frequency(viper.GetInt64("bus.tick")) * physic.Hertz,
		Logger:     log.WithField("bus", busName),
	}
}

func open(c *cli.Context) (*env, error) {
	o := opts()
	if err := o.Validate(); err != nil {
		return nil, err
	}
	e := &env{sim: i2cm.NewSim(busName, &o)}
	chip := pcf8574.NewSim(e.sim, uint16(viper.GetInt("sim.addr")))
	chip.Pull(^byte(viper.GetInt("sim.input")))
	if c.GlobalBool("scope") {
		e.scope = scope.New()
		e.sim.AddProbe(e.scope)
	}
	if err := i2cm.Register(e.sim); err != nil {
		return nil, err
	}
	if _, err := hostextra.Init(); err != nil {
		return nil, err
	}
	var err error
	if e.bus, err = i2creg.Open(busName); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"speed": o.BusFrequency(), "chip": chip}).Debug("bus ready")
	return e, nil
}

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid value %q", s)
	}
	return v, nil
}

// withBus opens the bus, runs fn and closes it.
func withBus(c *cli.Context, fn func(e *env) error) error {
	e, err := open(c)
	if err != nil {
		return err
	}
	err = fn(e)
	if err2 := e.close(); err == nil {
		err = err2
	}
	return err
}

func writeCmd(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("write requires an address and a byte")
	}
	addr, err := parseUint(c.Args().Get(0), 16)
	if err != nil {
		return err
	}
	v, err := parseUint(c.Args().Get(1), 8)
	if err != nil {
		return err
	}
	return withBus(c, func(e *env) error {
		d := i2c.Dev{Bus: e.bus, Addr: uint16(addr)}
		_, err := d.Write([]byte{byte(v)})
		return err
	})
}

func readCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("read requires an address")
	}
	addr, err := parseUint(c.Args().Get(0), 16)
	if err != nil {
		return err
	}
	return withBus(c, func(e *env) error {
		var r [1]byte
		d := i2c.Dev{Bus: e.bus, Addr: uint16(addr)}
		if err := d.Tx(nil, r[:]); err != nil {
			return err
		}
		fmt.Printf("%#02x\n", r[0])
		return nil
	})
}

// scanCmd reads one byte at every non reserved 7 bit address.
func scanCmd(c *cli.Context) error {
	return withBus(c, func(e *env) error {
		found := 0
		var r [1]byte
		last := uint16(1)<<uint(e.sim.Opts().AddrBits) - 1
		if last > 0x77 {
			last = 0x77
		}
		for addr := uint16(0x08); addr <= last; addr++ {
			err := e.bus.Tx(addr, nil, r[:])
			if errors.Cause(err) == i2cm.ErrAddrNACK {
				continue
			}
			if err != nil {
				return err
			}
			fmt.Printf("%#02x\n", addr)
			found++
		}
		log.WithField("found", found).Debug("scan done")
		return nil
	})
}

func smoketestCmd(c *cli.Context) error {
	s := i2cmsmoketest.SmokeTest{Logger: log.StandardLogger()}
	f := flag.NewFlagSet(s.Name(), flag.ContinueOnError)
	if err := s.Run(f, []string(c.Args())); err != nil {
		return err
	}
	fmt.Printf("%s: %s: PASS\n", s.Name(), s.Description())
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "i2cm"
	app.Usage = "bit-banged I²C master on a simulated bus"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.BoolFlag{
			Name:  "v",
			Usage: "verbose mode",
		},
		cli.IntFlag{
			Name:  "half-period",
			Usage: "base ticks per half SCL period",
		},
		cli.BoolFlag{
			Name:  "scope",
			Usage: "print the SCL and SDA waveforms",
		},
	}
	app.Before = setup
	app.Commands = []cli.Command{
		{
			Name:      "write",
			Usage:     "write one byte",
			ArgsUsage: "ADDR BYTE",
			Action:    writeCmd,
		},
		{
			Name:      "read",
			Usage:     "read one byte",
			ArgsUsage: "ADDR",
			Action:    readCmd,
		},
		{
			Name:   "scan",
			Usage:  "list the addresses that ACK",
			Action: scanCmd,
		},
		{
			Name:            "smoketest",
			Usage:           "run the end to end smoke test",
			SkipFlagParsing: true,
			Action:          smoketestCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "i2cm: %s.\n", err)
		os.Exit(1)
	}
}
