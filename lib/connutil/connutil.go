// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package connutil wires flags, discovery and port setup together for the
// example programs.
package connutil

import (
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daniel-freiermuth/fleascope"
	"github.com/daniel-freiermuth/fleascope/driver/vcp"
	"github.com/daniel-freiermuth/fleascope/lib/find"
)

type Conn struct {
	SerialPort string
	Baud       int
	Timeout    time.Duration
	Debug      bool
	NoFlashCal bool

	tty     string
	finderr error
}

// AddFlags is to be called before [flag.Parse].
func (c *Conn) AddFlags() {
	c.tty, c.finderr = find.Find(find.FleaScope)
	if c.finderr != nil {
		logrus.Debugf("locating FleaScope failed, guessing /dev/ttyACM0: %s", c.finderr)
		c.tty = "/dev/ttyACM0"
	}

	flag.StringVar(&c.SerialPort, "port", c.tty, "Serial port of the FleaScope")
	flag.IntVar(&c.Baud, "baud", vcp.DefaultBaudRate, "baud rate")
	flag.DurationVar(&c.Timeout, "timeout", fleascope.DefaultTimeout, "per-command timeout")
	flag.BoolVar(&c.Debug, "debug", false, "log commands and responses")
	flag.BoolVar(&c.NoFlashCal, "nocal", false, "skip loading calibration from flash")
}

// Setup is to be called after [flag.Parse]. It opens the port, brings up a
// session and returns it together with a cleanup func that restores the
// instrument terminal and closes the port.
func (c *Conn) Setup(opts ...fleascope.Option) (*fleascope.FleaScope, func(), error) {
	nocleanup := func() {}

	if c.finderr != nil && c.SerialPort == "/dev/ttyACM0" {
		// Only worth mentioning if the guess wasn't overridden via flag.
		logrus.Warnf("locating FleaScope failed, guessing %s: %s", c.SerialPort, c.finderr)
	}
	if c.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		opts = append(opts, fleascope.WithDebug())
	}
	if c.NoFlashCal {
		opts = append(opts, fleascope.WithoutFlashCalibration())
	}
	opts = append(opts, fleascope.WithTimeout(c.Timeout))

	logrus.Infof("serial port = %s", c.SerialPort)
	port, err := vcp.NewVCP(c.SerialPort, vcp.WithBaudRate(c.Baud))
	if err != nil {
		return nil, nocleanup, err
	}

	fs, err := fleascope.New(port, opts...)
	if err != nil {
		port.Close()
		return nil, nocleanup, err
	}

	cleanup := func() {
		fs.Close()

		// Discard any unread data on the serial port and then close.
		if err := port.Flush(); err != nil {
			logrus.Warnf("error flushing serial port: %s", err)
		}
		if err := port.Close(); err != nil {
			logrus.Warnf("error closing serial port: %s", err)
		}
	}
	return fs, cleanup, nil
}
