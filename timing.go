// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package fleascope

import (
	"fmt"
	"math"
	"time"
)

// ticksPerMicrosecond is the instrument's sample clock, approximately
// 18.18 million ticks per second (3.6375 MHz crystal times 5).
const ticksPerMicrosecond = 18

// Capture limits enforced before any command reaches the instrument.
const (
	// MinTimeFrame is the shortest capturable window.
	MinTimeFrame = 111 * time.Microsecond
	// MaxTimeFrame is the longest capturable window.
	MaxTimeFrame = 2 * time.Second
	// MaxDelay is the longest pre-trigger delay.
	MaxDelay = time.Second
)

// captureQuantum is the protocol's capture-length unit: a window is always
// 2000 samples, so the tick count per sample is the window length in ticks
// divided by 2000.
const captureQuantum = 2000

// toTicks converts a wall-clock span into device sample-clock ticks.
func toTicks(d time.Duration) int64 {
	return d.Microseconds() * ticksPerMicrosecond
}

// captureTiming is the device-native form of a capture request's timing.
type captureTiming struct {
	ticksPerSample int
	delaySamples   int
}

// quantizeCapture validates a requested time frame and pre-trigger delay and
// converts them into tick counts. Out-of-bounds values fail with
// ErrInvalidCaptureParameters before anything is sent. A non-positive
// ticks-per-sample quantization cannot be produced by any in-bounds time
// frame; hitting it means the clock constants are wrong and is a defect, so
// it panics rather than returning an error.
func quantizeCapture(frame, delay time.Duration) (captureTiming, error) {
	switch {
	case frame < 0:
		return captureTiming{}, fmt.Errorf("%w: time frame cannot be negative, got %s",
			ErrInvalidCaptureParameters, frame)
	case frame > MaxTimeFrame:
		return captureTiming{}, fmt.Errorf("%w: time frame %s too large, max %s",
			ErrInvalidCaptureParameters, frame, MaxTimeFrame)
	case frame < MinTimeFrame:
		return captureTiming{}, fmt.Errorf("%w: time frame %s too small, min %s",
			ErrInvalidCaptureParameters, frame, MinTimeFrame)
	}
	switch {
	case delay < 0:
		return captureTiming{}, fmt.Errorf("%w: delay cannot be negative, got %s",
			ErrInvalidCaptureParameters, delay)
	case delay > MaxDelay:
		return captureTiming{}, fmt.Errorf("%w: delay %s too large, max %s",
			ErrInvalidCaptureParameters, delay, MaxDelay)
	}

	ticksPerSample := int(math.Round(float64(toTicks(frame)) / captureQuantum))
	if ticksPerSample <= 0 {
		panic(fmt.Sprintf("ticks per sample must be positive, got %d from time frame %s",
			ticksPerSample, frame))
	}
	delaySamples := int(math.Round(float64(toTicks(delay)) / float64(ticksPerSample)))
	return captureTiming{ticksPerSample: ticksPerSample, delaySamples: delaySamples}, nil
}
