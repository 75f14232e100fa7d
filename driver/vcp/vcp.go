// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package vcp opens the FleaScope's USB virtual COM port.
package vcp

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the instrument's power-on baud rate.
const DefaultBaudRate = 9600

// VCP is an open virtual COM port. It satisfies the fleascope Port
// interface.
type VCP struct {
	port serial.Port
}

// Option applies an option when opening the port.
type Option func(*serial.Mode)

// WithBaudRate overrides the default baud rate.
func WithBaudRate(baud int) Option {
	return func(m *serial.Mode) { m.BaudRate = baud }
}

// NewVCP opens the serial port with the given name (e.g. /dev/ttyACM0).
func NewVCP(name string, opts ...Option) (*VCP, error) {
	mode := &serial.Mode{BaudRate: DefaultBaudRate}
	for _, opt := range opts {
		opt(mode)
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %s: %w", name, err)
	}
	return &VCP{port: port}, nil
}

// Read reads from the port.
func (v *VCP) Read(p []byte) (n int, err error) {
	return v.port.Read(p)
}

// Write writes to the port.
func (v *VCP) Write(p []byte) (n int, err error) {
	return v.port.Write(p)
}

// SetReadTimeout sets the deadline for subsequent reads. A zero timeout
// makes Read non-blocking; an elapsed deadline surfaces as a zero-byte
// read.
func (v *VCP) SetReadTimeout(d time.Duration) error {
	return v.port.SetReadTimeout(d)
}

// Flush discards any unread input buffered on the port.
func (v *VCP) Flush() error {
	return v.port.ResetInputBuffer()
}

// Close closes the port.
func (v *VCP) Close() error {
	return v.port.Close()
}
