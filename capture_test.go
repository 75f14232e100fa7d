// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package fleascope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaptureRows(t *testing.T) {
	data := "2104.5,3ff\r\n2110,0x2a\r\n\r\n2098,000\r\n"
	capture, err := parseCaptureRows(data, 180)
	require.NoError(t, err)
	require.Len(t, capture.Samples, 3)
	assert.Equal(t, RawSample{Code: 2104.5, Bits: 0x3ff}, capture.Samples[0])
	assert.Equal(t, RawSample{Code: 2110, Bits: 0x2a}, capture.Samples[1])
	assert.Equal(t, RawSample{Code: 2098, Bits: 0}, capture.Samples[2])
	assert.Equal(t, 180, capture.TicksPerSample)
}

func TestParseCaptureRowsEmpty(t *testing.T) {
	capture, err := parseCaptureRows("", 180)
	require.NoError(t, err)
	assert.Empty(t, capture.Samples)
}

func TestParseCaptureRowsMalformed(t *testing.T) {
	cases := []string{
		"2104.5",       // missing separator
		"abc,3ff",      // bad analog code
		"2104.5,zz",    // bad bitmap
		"2104.5,13ff0", // bitmap overflows 16 bits
	}
	for _, data := range cases {
		_, err := parseCaptureRows(data, 180)
		assert.Error(t, err, "input %q", data)
		if err != nil {
			assert.Contains(t, err.Error(), "malformed sample row")
		}
	}
}

func TestTimeAt(t *testing.T) {
	capture := &RawCapture{TicksPerSample: 180}
	assert.Equal(t, time.Duration(0), capture.TimeAt(0))
	// 180 ticks at 18 ticks/µs is 10µs per sample.
	assert.Equal(t, 10*time.Microsecond, capture.TimeAt(1))
	assert.Equal(t, time.Millisecond, capture.TimeAt(100))

	calibrated := &Capture{TicksPerSample: 180}
	assert.Equal(t, capture.TimeAt(42), calibrated.TimeAt(42))
}

func TestBitExtraction(t *testing.T) {
	s := Sample{Bits: 0b1000000001}
	assert.True(t, s.Bit(0))
	assert.False(t, s.Bit(1))
	assert.True(t, s.Bit(9))

	capture := &Capture{Samples: []Sample{
		{Bits: 0b01},
		{Bits: 0b10},
		{Bits: 0b11},
	}}
	assert.Equal(t, []bool{true, false, true}, capture.BitSeries(0))
	assert.Equal(t, []bool{false, true, true}, capture.BitSeries(1))
}
