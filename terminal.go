// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package fleascope

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Port models the serial byte stream to the instrument. It is satisfied by
// go.bug.st/serial ports and by the vcp driver. A read deadline of zero must
// make Read non-blocking; an elapsed deadline must surface as a zero-byte
// read with a nil error.
type Port interface {
	io.ReadWriter
	SetReadTimeout(time.Duration) error
}

// ctrlC aborts whatever command the instrument is currently running.
const ctrlC = 0x03

// Terminal is the synchronous request/response engine over one Port. The
// protocol has no request identifiers: exactly one command may be
// outstanding at a time, and issuing a second Exec before the first one's
// prompt has been observed (or the command interrupted) is a caller error.
// Terminal does not serialize callers.
type Terminal struct {
	port    Port
	prompt  string
	timeout time.Duration
	log     *logrus.Logger
	debug   bool
}

func newTerminal(port Port, prompt string, timeout time.Duration, log *logrus.Logger) *Terminal {
	return &Terminal{
		port:    port,
		prompt:  prompt,
		timeout: timeout,
		log:     log,
	}
}

// Exec writes cmd followed by a newline and reads until the prompt sentinel
// is observed, using the terminal's default timeout. The response is
// returned with the trailing sentinel and surrounding whitespace stripped.
func (t *Terminal) Exec(cmd string) (string, error) {
	return t.ExecTimeout(cmd, t.timeout)
}

// ExecTimeout is Exec with an explicit deadline for the prompt to appear.
// On timeout it returns a *TimeoutError carrying the partial response; the
// stream is then mid-response and must be resynchronized with Interrupt
// before the next Exec.
func (t *Terminal) ExecTimeout(cmd string, timeout time.Duration) (string, error) {
	if t.debug {
		t.log.Debugf("exec %q", cmd)
	}
	if _, err := t.port.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("error writing command %q: %w", cmd, err)
	}

	deadline := time.Now().Add(timeout)
	sentinel := []byte(t.prompt)
	var buf []byte
	chunk := make([]byte, 256)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", &TimeoutError{Command: cmd, Timeout: timeout, Partial: string(buf)}
		}
		if err := t.port.SetReadTimeout(remaining); err != nil {
			return "", fmt.Errorf("error setting read deadline: %w", err)
		}
		n, err := t.port.Read(chunk)
		if err != nil {
			return "", fmt.Errorf("error reading response to %q: %w", cmd, err)
		}
		if n == 0 {
			// Deadline elapsed inside the port.
			return "", &TimeoutError{Command: cmd, Timeout: timeout, Partial: string(buf)}
		}
		buf = append(buf, chunk[:n]...)
		if bytes.HasSuffix(buf, sentinel) {
			body := buf[:len(buf)-len(sentinel)]
			resp := strings.TrimSpace(string(body))
			if t.debug {
				t.log.Debugf("resp [%d] %q", len(resp), resp)
			}
			return resp, nil
		}
	}
}

// Interrupt aborts any outstanding command by sending ctrl-C and then
// discards whatever input is buffered, without waiting for a prompt. It is
// the recovery primitive after a TimeoutError.
func (t *Terminal) Interrupt() error {
	if _, err := t.port.Write([]byte{ctrlC}); err != nil {
		return fmt.Errorf("error writing interrupt: %w", err)
	}
	return t.drain()
}

// drain discards all currently buffered input using a zero read deadline so
// it never blocks waiting for more.
func (t *Terminal) drain() error {
	if err := t.port.SetReadTimeout(0); err != nil {
		return fmt.Errorf("error setting drain deadline: %w", err)
	}
	chunk := make([]byte, 256)
	for {
		n, err := t.port.Read(chunk)
		if err != nil {
			return fmt.Errorf("error draining input: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
}

// Reset sends the reset command without waiting for a response. The
// instrument reboots and the serial link itself resets, so there is no
// prompt to synchronize on.
func (t *Terminal) Reset() error {
	_, err := t.port.Write([]byte("reset\n"))
	return err
}
