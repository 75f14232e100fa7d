// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package fleascope

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCaptureParameters indicates a capture time frame or delay
	// outside the instrument's limits. The error is returned before any
	// command is written to the device.
	ErrInvalidCaptureParameters = errors.New("invalid capture parameters")

	// ErrCalibrationMissing indicates a voltage conversion was attempted on
	// a probe that has not been fully calibrated.
	ErrCalibrationMissing = errors.New("calibration values are not set")

	// ErrZeroNotCalibrated indicates a span calibration was attempted before
	// the zero reference was calibrated.
	ErrZeroNotCalibrated = errors.New("zero calibration must be performed first")
)

// TimeoutError indicates the prompt sentinel was not observed within the
// exec timeout. Partial holds whatever bytes were read before the deadline,
// for diagnosis. The connection is in an undefined state until Interrupt is
// called.
type TimeoutError struct {
	Command string
	Timeout time.Duration
	Partial string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no prompt within %s after %q (partial response %q)",
		e.Timeout, e.Command, e.Partial)
}

// UnstableSignalError indicates the raw readings of a calibration window
// spread wider than the allowed range.
type UnstableSignalError struct {
	Min, Max float64
	Allowed  float64
}

func (e *UnstableSignalError) Error() string {
	return fmt.Sprintf("signal not stable enough for calibration: values ranged from %g to %g (allowed spread %g)",
		e.Min, e.Max, e.Allowed)
}

// DegenerateCalibrationError indicates the zero and span calibration values
// decoded from flash are equal, which makes the voltage transform undefined.
// Freshly programmed units that were never calibrated read back this way.
type DegenerateCalibrationError struct {
	Multiplier int
	Value      float64
}

func (e *DegenerateCalibrationError) Error() string {
	return fmt.Sprintf("calibration values for probe x%d are equal (%g)", e.Multiplier, e.Value)
}
