// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package fleascope drives a FleaScope USB oscilloscope / logic analyzer
// over its line-oriented serial command protocol: prompt-synchronized
// command execution, trigger encoding, capture timing quantization, and
// per-probe voltage calibration.
package fleascope

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Defaults for a freshly attached instrument.
const (
	DefaultPrompt  = "> "
	DefaultTimeout = 10 * time.Second
)

// Waveform names the wave shapes the on-board generator can produce.
type Waveform string

// Available generator waveforms.
const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Triangle Waveform = "triangle"
	EKG      Waveform = "ekg"
)

// FleaScope is one session with an attached instrument. It exclusively owns
// the byte stream for its lifetime; the protocol has no pipelining, so all
// use must be sequential. Create with New, release with Close.
type FleaScope struct {
	// Probe1 and Probe10 are the x1 and x10 attenuation inputs.
	Probe1  *Probe
	Probe10 *Probe

	term      *Terminal
	log       *logrus.Logger
	version   string
	hostname  string
	closeOnce sync.Once

	prompt  string
	timeout time.Duration
	debug   bool
	readCal bool
}

// Option applies an option to the session.
type Option func(*FleaScope)

// WithTimeout sets the default per-command timeout for prompt detection.
func WithTimeout(d time.Duration) Option {
	return func(fs *FleaScope) { fs.timeout = d }
}

// WithPrompt overrides the prompt sentinel the instrument appends after
// each command.
func WithPrompt(s string) Option {
	return func(fs *FleaScope) { fs.prompt = s }
}

// WithDebug causes commands and responses to be logged at debug level.
func WithDebug() Option { return func(fs *FleaScope) { fs.debug = true } }

// WithLogger replaces the standard logrus logger.
func WithLogger(l *logrus.Logger) Option {
	return func(fs *FleaScope) { fs.log = l }
}

// WithoutFlashCalibration skips loading the probes' calibration from the
// instrument's flash during New. Useful when the unit is known to be
// uncalibrated and calibration is about to be acquired.
func WithoutFlashCalibration() Option { return func(fs *FleaScope) { fs.readCal = false } }

// New takes ownership of an open port to a FleaScope and brings the session
// up: any in-flight command is interrupted, the prompt and echo settings
// are configured for machine use, the firmware version and hostname are
// read, and both probes' calibrations are loaded from flash (unless
// disabled). The port stays owned by the caller and is not closed by this
// package.
func New(port Port, opts ...Option) (*FleaScope, error) {
	fs := &FleaScope{
		prompt:  DefaultPrompt,
		timeout: DefaultTimeout,
		log:     logrus.StandardLogger(),
		readCal: true,
	}

	// Apply options using the functional option pattern.
	for _, opt := range opts {
		opt(fs)
	}

	fs.term = newTerminal(port, fs.prompt, fs.timeout, fs.log)
	fs.term.debug = fs.debug

	// Abort whatever a previous session may have left running, then put the
	// terminal into machine mode: prompt on for framing, echo off so
	// responses are not polluted by our own commands.
	if err := fs.term.Interrupt(); err != nil {
		return nil, err
	}
	for _, cmd := range []string{"prompt on", "echo off"} {
		if _, err := fs.term.Exec(cmd); err != nil {
			return nil, fmt.Errorf("error configuring terminal with %q: %w", cmd, err)
		}
	}

	var err error
	fs.version, err = fs.term.Exec("ver")
	if err != nil {
		return nil, err
	}
	fs.log.Debugf("fleascope version: %s", fs.version)
	fs.hostname, err = fs.term.Exec("hostname")
	if err != nil {
		return nil, err
	}
	fs.log.Debugf("fleascope hostname: %s", fs.hostname)

	fs.Probe1 = &Probe{fs: fs, multiplier: 1}
	fs.Probe10 = &Probe{fs: fs, multiplier: 10}

	if fs.readCal {
		if err := fs.Probe1.ReadCalibrationFromFlash(); err != nil {
			return nil, err
		}
		if err := fs.Probe10.ReadCalibrationFromFlash(); err != nil {
			return nil, err
		}
	}

	return fs, nil
}

// Close restores the instrument's interactive terminal settings (echo and
// prompt back on). It runs exactly once no matter how often it is called,
// so it is safe to defer alongside error-path calls. Restoration failures
// are logged and swallowed: the session is over either way.
func (fs *FleaScope) Close() {
	fs.closeOnce.Do(func() {
		_, err1 := fs.term.Exec("echo on")
		_, err2 := fs.term.Exec("prompt on")
		if err := multierr.Combine(err1, err2); err != nil {
			fs.log.Warnf("error restoring terminal settings: %s", err)
		}
	})
}

// Version returns the firmware version string read at session start.
func (fs *FleaScope) Version() string { return fs.version }

// Hostname returns the instrument hostname read at session start.
func (fs *FleaScope) Hostname() string { return fs.hostname }

// Query executes a command and returns its response, satisfying the
// gotmc/query Queryer interface for typed reads of on-device variables.
func (fs *FleaScope) Query(s string) (string, error) {
	return fs.term.Exec(s)
}

// SetWaveform makes the on-board generator produce the given waveform at
// the given frequency.
func (fs *FleaScope) SetWaveform(w Waveform, hz int) error {
	_, err := fs.term.Exec(fmt.Sprintf("wave %s %d", w, hz))
	return err
}

// Unblock aborts an outstanding command and resynchronizes the connection.
// It is the way out after an Exec times out mid-response.
func (fs *FleaScope) Unblock() error {
	return fs.term.Interrupt()
}

// Reset reboots the instrument. No response is awaited; the serial link
// drops with the reboot and the session is no longer usable.
func (fs *FleaScope) Reset() error {
	return fs.term.Reset()
}

// Terminal exposes the underlying transport for callers that need explicit
// per-command timeouts.
func (fs *FleaScope) Terminal() *Terminal {
	return fs.term
}
