// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package fleascope

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fakePort is an in-memory Port. Every written command line is passed to
// respond, and whatever it returns is queued for subsequent reads. An empty
// queue behaves like an elapsed read deadline (zero-byte read), matching
// the serial driver's timeout semantics.
type fakePort struct {
	respond     func(cmd string) []byte
	pending     bytes.Buffer
	writes      []string
	readTimeout time.Duration
	chunk       int // max bytes returned per Read; 0 means unlimited
}

const ctrlCMarker = "<ctrl-c>"

func (p *fakePort) Write(b []byte) (int, error) {
	if len(b) == 1 && b[0] == ctrlC {
		p.writes = append(p.writes, ctrlCMarker)
		return 1, nil
	}
	cmd := strings.TrimSuffix(string(b), "\n")
	p.writes = append(p.writes, cmd)
	if p.respond != nil {
		p.pending.Write(p.respond(cmd))
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.pending.Len() == 0 {
		return 0, nil
	}
	if p.chunk > 0 && len(b) > p.chunk {
		b = b[:p.chunk]
	}
	return p.pending.Read(b)
}

func (p *fakePort) SetReadTimeout(d time.Duration) error {
	p.readTimeout = d
	return nil
}

// commandCount counts how often a command was written.
func (p *fakePort) commandCount(cmd string) int {
	n := 0
	for _, w := range p.writes {
		if w == cmd {
			n++
		}
	}
	return n
}

// fleaSim scripts the instrument side of the protocol: prompt-terminated
// responses, flash variables, and capture rows.
type fleaSim struct {
	vars      map[string]int
	scopeRows []string
	// scopeCmds records every scope command the sim served.
	scopeCmds []string
}

// Stored calibration forms for a unit with x1 zero=2104, span=621 and
// x10 zero=2160, span=108.
func newFleaSim() *fleaSim {
	return &fleaSim{
		vars: map[string]int{
			"cal_zero_x1":  1056,
			"cal_3v3_x1":   1621,
			"cal_zero_x10": 1112,
			"cal_3v3_x10":  2080,
		},
		scopeRows: []string{"2104,0"},
	}
}

// setScopeSamples scripts the rows returned by the next scope commands.
func (s *fleaSim) setScopeSamples(codes []float64, bits uint16) {
	s.scopeRows = s.scopeRows[:0]
	for _, c := range codes {
		s.scopeRows = append(s.scopeRows, fmt.Sprintf("%g,%x", c, bits))
	}
}

func (s *fleaSim) handle(cmd string) (resp string, ok bool) {
	switch {
	case cmd == "prompt on" || cmd == "echo off" || cmd == "echo on":
		return "", true
	case cmd == "ver":
		return "FleaScope 2.1", true
	case cmd == "hostname":
		return "flea-bench", true
	case strings.HasPrefix(cmd, "dim "):
		return "", true
	case strings.HasPrefix(cmd, "print "):
		return strconv.Itoa(s.vars[strings.TrimPrefix(cmd, "print ")]), true
	case strings.Contains(cmd, " = "):
		name, value, _ := strings.Cut(cmd, " = ")
		n, err := strconv.Atoi(value)
		if err != nil {
			return "syntax error", true
		}
		s.vars[name] = n
		return "", true
	case strings.HasPrefix(cmd, "scope "):
		s.scopeCmds = append(s.scopeCmds, cmd)
		return strings.Join(s.scopeRows, "\r\n"), true
	case strings.HasPrefix(cmd, "wave "):
		return "", true
	case cmd == "reset":
		// The device reboots; nothing comes back.
		return "", false
	}
	return "", true
}

func (s *fleaSim) port() *fakePort {
	return &fakePort{respond: func(cmd string) []byte {
		resp, ok := s.handle(cmd)
		if !ok {
			return nil
		}
		return []byte(resp + "\r\n> ")
	}}
}

// newTestScope brings up a session against a fresh sim.
func newTestScope(opts ...Option) (*FleaScope, *fleaSim, *fakePort, error) {
	sim := newFleaSim()
	port := sim.port()
	opts = append([]Option{WithTimeout(100 * time.Millisecond)}, opts...)
	fs, err := New(port, opts...)
	return fs, sim, port, err
}
