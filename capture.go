// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package fleascope

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DigitalChannels is the number of digital inputs reported in each sample's
// bitmap.
const DigitalChannels = 10

// RawSample is one acquisition as reported by the instrument: the analog
// code before calibration and the digital channel bitmap.
type RawSample struct {
	Code float64
	Bits uint16
}

// Bit reports the state of digital channel n in the sample.
func (s RawSample) Bit(n int) bool {
	return s.Bits>>n&1 == 1
}

// RawCapture is an ordered capture window of uncalibrated samples. Sample
// spacing is implied by TicksPerSample; timestamps are derived, not stored.
type RawCapture struct {
	TicksPerSample int
	Samples        []RawSample
}

// TimeAt returns the time offset of sample i from the start of the window.
func (c *RawCapture) TimeAt(i int) time.Duration {
	return sampleOffset(i, c.TicksPerSample)
}

// Sample is one calibrated acquisition: the analog input in volts and the
// digital channel bitmap.
type Sample struct {
	Volts float64
	Bits  uint16
}

// Bit reports the state of digital channel n in the sample.
func (s Sample) Bit(n int) bool {
	return s.Bits>>n&1 == 1
}

// Capture is an ordered capture window of calibrated samples.
type Capture struct {
	TicksPerSample int
	Samples        []Sample
}

// TimeAt returns the time offset of sample i from the start of the window.
func (c *Capture) TimeAt(i int) time.Duration {
	return sampleOffset(i, c.TicksPerSample)
}

// BitSeries extracts digital channel n across the whole window.
func (c *Capture) BitSeries(n int) []bool {
	series := make([]bool, len(c.Samples))
	for i, s := range c.Samples {
		series[i] = s.Bit(n)
	}
	return series
}

func sampleOffset(i, ticksPerSample int) time.Duration {
	ticks := int64(i) * int64(ticksPerSample)
	return time.Duration(ticks) * time.Microsecond / ticksPerMicrosecond
}

// RawCapture validates and quantizes the requested window, issues the scope
// command with the given pre-encoded trigger fields, and returns the
// uncalibrated result. Most callers want Probe.Read instead, which encodes
// the trigger and rescales the analog column.
func (fs *FleaScope) RawCapture(frame time.Duration, triggerFields string, delay time.Duration) (*RawCapture, error) {
	timing, err := quantizeCapture(frame, delay)
	if err != nil {
		return nil, err
	}
	return fs.rawCapture(timing, triggerFields)
}

func (fs *FleaScope) rawCapture(timing captureTiming, triggerFields string) (*RawCapture, error) {
	cmd := fmt.Sprintf("scope %d %s %d", timing.ticksPerSample, triggerFields, timing.delaySamples)
	data, err := fs.term.Exec(cmd)
	if err != nil {
		return nil, err
	}
	return parseCaptureRows(data, timing.ticksPerSample)
}

// parseCaptureRows decodes the capture response, one
// "<rawAnalog>,<hexBitmap>" row per sample, ordered by acquisition time.
func parseCaptureRows(data string, ticksPerSample int) (*RawCapture, error) {
	capture := &RawCapture{TicksPerSample: ticksPerSample}
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		codeField, bitsField, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("malformed sample row %q: missing separator", line)
		}
		code, err := strconv.ParseFloat(strings.TrimSpace(codeField), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed sample row %q: %w", line, err)
		}
		bitsField = strings.TrimPrefix(strings.TrimSpace(bitsField), "0x")
		bits, err := strconv.ParseUint(bitsField, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("malformed sample row %q: %w", line, err)
		}
		capture.Samples = append(capture.Samples, RawSample{Code: code, Bits: uint16(bits)})
	}
	return capture, nil
}
