// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package fleascope

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noConversion(float64) (float64, error) {
	return 0, fmt.Errorf("digital triggers must not convert voltages")
}

func TestDigitalTriggerEncoding(t *testing.T) {
	trig := OnBits().SetBit(0, Positive).SetBit(1, Negative).WhileMatching()
	fields, err := trig.triggerFields(noConversion)
	require.NoError(t, err)
	assert.Equal(t, "0x01 0x03", fields)
}

func TestDigitalBehaviorFlags(t *testing.T) {
	b := OnBits().SetBit(7, Positive)
	cases := []struct {
		trig DigitalTrigger
		want string
	}{
		{b.Auto(), "~0x80 0x80"},
		{b.WhileMatching(), "0x80 0x80"},
		{b.WhenStartMatching(), "+0x80 0x80"},
		{b.WhenStopMatching(), "-0x80 0x80"},
	}
	for _, c := range cases {
		fields, err := c.trig.triggerFields(noConversion)
		require.NoError(t, err)
		assert.Equal(t, c.want, fields)
	}
}

func TestDigitalTriggerAllIgnored(t *testing.T) {
	fields, err := OnBits().WhileMatching().triggerFields(noConversion)
	require.NoError(t, err)
	assert.Equal(t, "0x00 0x00", fields)
}

// decodeMasks parses an encoded digital trigger back into its active and
// relevant masks.
func decodeMasks(t *testing.T, fields string) (active, relevant uint8) {
	t.Helper()
	parts := strings.Fields(strings.TrimLeft(fields, "~+-"))
	require.Len(t, parts, 2)
	a, err := strconv.ParseUint(strings.TrimPrefix(parts[0], "0x"), 16, 8)
	require.NoError(t, err)
	r, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 8)
	require.NoError(t, err)
	return uint8(a), uint8(r)
}

func TestDigitalEncodingRoundTrip(t *testing.T) {
	states := []BitState{Ignore, Positive, Negative}
	// Walk a spread of assignments: every bit gets every state against a
	// varying background.
	for seed := 0; seed < 27; seed++ {
		var want [8]BitState
		b := OnBits()
		n := seed
		for bit := 0; bit < 8; bit++ {
			s := states[n%3]
			n /= 3
			want[bit] = s
			b = b.SetBit(bit, s)
		}
		fields, err := b.WhileMatching().triggerFields(noConversion)
		require.NoError(t, err)
		active, relevant := decodeMasks(t, fields)
		for bit := 0; bit < 8; bit++ {
			var got BitState
			switch {
			case relevant>>bit&1 == 0:
				got = Ignore
			case active>>bit&1 == 1:
				got = Positive
			default:
				got = Negative
			}
			assert.Equal(t, want[bit], got, "bit %d of %q", bit, fields)
		}
	}
}

func TestBuilderDoesNotAlias(t *testing.T) {
	base := OnBits().SetBit(0, Positive)
	withNeg := base.SetBit(1, Negative).WhileMatching()
	plain := base.WhileMatching()

	fields, err := withNeg.triggerFields(noConversion)
	require.NoError(t, err)
	assert.Equal(t, "0x01 0x03", fields)

	fields, err = plain.triggerFields(noConversion)
	require.NoError(t, err)
	assert.Equal(t, "0x01 0x01", fields, "deriving a trigger must not mutate the shared prefix")
}

func TestSetBitRange(t *testing.T) {
	assert.Panics(t, func() { OnBits().SetBit(8, Positive) })
	assert.Panics(t, func() { OnBits().SetBit(-1, Ignore) })
}

func TestAnalogTriggerEncoding(t *testing.T) {
	p := &Probe{multiplier: 1}
	require.NoError(t, p.SetCalibration(2048, 620.9))

	// 1.65V is mid-rail: raw = 1.65/3.3*620.9 + 2048 = 2358.45, and the
	// trigger granularity of 4 raw units makes the level round(2358.45/4).
	trig := AtLevel(1.65).RisingEdge()
	fields, err := trig.triggerFields(p.VoltsToRaw)
	require.NoError(t, err)
	assert.Equal(t, "+590 0", fields)
}

func TestAnalogBehaviorFlags(t *testing.T) {
	p := &Probe{multiplier: 1}
	require.NoError(t, p.SetCalibration(2048, 620.9))

	b := AtLevel(0)
	cases := []struct {
		trig AnalogTrigger
		want string
	}{
		{b.Auto(), "~512 0"},
		{b.Level(), "512 0"},
		{b.RisingEdge(), "+512 0"},
		{b.FallingEdge(), "-512 0"},
	}
	for _, c := range cases {
		fields, err := c.trig.triggerFields(p.VoltsToRaw)
		require.NoError(t, err)
		assert.Equal(t, c.want, fields)
	}
}

func TestAnalogTriggerNeedsCalibration(t *testing.T) {
	p := &Probe{multiplier: 1}
	_, err := AtLevel(1.0).RisingEdge().triggerFields(p.VoltsToRaw)
	assert.ErrorIs(t, err, ErrCalibrationMissing)
}
