// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package fleascope

import (
	"fmt"
	"math"
	"time"

	"github.com/gotmc/query"
)

// referenceVolts is the full-span calibration reference, the instrument's
// 3.3V rail.
const referenceVolts = 3.3

// Calibration-point acquisition: a short window of raw readings whose
// spread must stay within maxCalSpread raw units to count as stable.
const (
	calWindow    = 20 * time.Millisecond
	maxCalSpread = 14
)

// Flash storage offsets. The instrument stores both calibration scalars
// biased by flashBias, and the zero point additionally relative to the ADC
// midpoint.
const (
	flashBias   = 1000
	adcMidpoint = 2048
)

// Calibration captures issue a literal zero trigger field instead of an
// encoded analog trigger, which would need the very calibration being
// acquired.
const calTriggerFields = "0"

type calState int

const (
	uncalibrated calState = iota
	zeroCalibrated
	fullyCalibrated
)

// Probe is one analog input channel, distinguished by its attenuation
// multiplier (x1 or x10). Voltage conversions are only possible once both
// calibration points are known, either acquired through CalibrateZero and
// CalibrateSpan or loaded from the instrument's flash. Calibration state is
// written only by the calibration methods; concurrent use requires external
// serialization, like everything else on the session.
type Probe struct {
	fs         *FleaScope
	multiplier int

	state calState
	zero  float64
	span  float64
}

// Multiplier returns the probe's attenuation multiplier.
func (p *Probe) Multiplier() int { return p.multiplier }

// Calibrated reports whether both calibration points are set.
func (p *Probe) Calibrated() bool { return p.state == fullyCalibrated }

// Calibration returns the current zero and span scalars, or
// ErrCalibrationMissing if the probe is not fully calibrated.
func (p *Probe) Calibration() (zero, span float64, err error) {
	if p.state != fullyCalibrated {
		return 0, 0, ErrCalibrationMissing
	}
	return p.zero, p.span, nil
}

// SetCalibration installs known calibration scalars directly, bypassing
// acquisition. Equal zero and span describe no usable transform and are
// rejected.
func (p *Probe) SetCalibration(zero, span float64) error {
	if zero == span {
		return &DegenerateCalibrationError{Multiplier: p.multiplier, Value: zero}
	}
	p.zero = zero
	p.span = span
	p.state = fullyCalibrated
	return nil
}

// CalibrateZero acquires the zero-reference point. Connect the probe to
// ground first. A previously acquired span is kept, matching the
// instrument's own calibration flow where the two points are redone
// together.
func (p *Probe) CalibrateZero() (float64, error) {
	mean, err := p.stableReading()
	if err != nil {
		return 0, err
	}
	p.zero = mean
	if p.state == uncalibrated {
		p.state = zeroCalibrated
	}
	p.fs.log.Debugf("probe x%d zero calibration: %g", p.multiplier, p.zero)
	return p.zero, nil
}

// CalibrateSpan acquires the full-span reference point relative to the zero
// point. Connect the probe to the 3.3V reference first. Fails with
// ErrZeroNotCalibrated if CalibrateZero has not run.
func (p *Probe) CalibrateSpan() (float64, error) {
	if p.state == uncalibrated {
		return 0, ErrZeroNotCalibrated
	}
	mean, err := p.stableReading()
	if err != nil {
		return 0, err
	}
	p.span = mean - p.zero
	p.state = fullyCalibrated
	p.fs.log.Debugf("probe x%d span calibration: %g", p.multiplier, p.span)
	return p.span, nil
}

// stableReading samples a short window and returns its mean raw code,
// failing with *UnstableSignalError if the readings spread too wide.
func (p *Probe) stableReading() (float64, error) {
	capture, err := p.fs.RawCapture(calWindow, calTriggerFields, 0)
	if err != nil {
		return 0, err
	}
	if len(capture.Samples) == 0 {
		return 0, fmt.Errorf("calibration window returned no samples")
	}
	min, max, sum := capture.Samples[0].Code, capture.Samples[0].Code, 0.0
	for _, s := range capture.Samples {
		if s.Code < min {
			min = s.Code
		}
		if s.Code > max {
			max = s.Code
		}
		sum += s.Code
	}
	if max-min > maxCalSpread {
		return 0, &UnstableSignalError{Min: min, Max: max, Allowed: maxCalSpread}
	}
	return sum / float64(len(capture.Samples)), nil
}

// RawToVolts converts a raw instrument code into volts.
func (p *Probe) RawToVolts(raw float64) (float64, error) {
	if p.state != fullyCalibrated {
		return 0, ErrCalibrationMissing
	}
	return (raw - p.zero) / p.span * referenceVolts, nil
}

// VoltsToRaw converts a voltage into the raw instrument code, the inverse
// of RawToVolts.
func (p *Probe) VoltsToRaw(volts float64) (float64, error) {
	if p.state != fullyCalibrated {
		return 0, ErrCalibrationMissing
	}
	return volts/referenceVolts*p.span + p.zero, nil
}

// flash variable names; the span variable keeps its historical on-device
// name cal_3v3.
func (p *Probe) zeroVar() string { return fmt.Sprintf("cal_zero_x%d", p.multiplier) }
func (p *Probe) spanVar() string { return fmt.Sprintf("cal_3v3_x%d", p.multiplier) }

// declareFlashVars declares the probe's calibration variables in flash.
// The dim is declare-or-reuse on the instrument, so it is safe to repeat.
func (p *Probe) declareFlashVars() error {
	_, err := p.fs.term.Exec(fmt.Sprintf("dim %s as flash, %s as flash", p.zeroVar(), p.spanVar()))
	return err
}

// ReadCalibrationFromFlash loads both calibration points from the
// instrument's flash storage, undoing the stored-form offsets. Equal
// decoded values mean the unit was never calibrated and fail with
// *DegenerateCalibrationError.
func (p *Probe) ReadCalibrationFromFlash() error {
	if err := p.declareFlashVars(); err != nil {
		return err
	}
	storedZero, err := query.Int(p.fs, "print "+p.zeroVar())
	if err != nil {
		return fmt.Errorf("error reading %s: %w", p.zeroVar(), err)
	}
	storedSpan, err := query.Int(p.fs, "print "+p.spanVar())
	if err != nil {
		return fmt.Errorf("error reading %s: %w", p.spanVar(), err)
	}
	zero := float64(storedZero-flashBias) + adcMidpoint
	span := float64(storedSpan-flashBias) / float64(p.multiplier)
	p.fs.log.Debugf("probe x%d calibration from flash: zero=%g span=%g", p.multiplier, zero, span)
	if zero == span {
		return &DegenerateCalibrationError{Multiplier: p.multiplier, Value: zero}
	}
	p.zero = zero
	p.span = span
	p.state = fullyCalibrated
	return nil
}

// WriteCalibrationToFlash stores both calibration points in the
// instrument's flash in their offset stored form, so they survive power
// cycles and round-trip through ReadCalibrationFromFlash.
func (p *Probe) WriteCalibrationToFlash() error {
	if p.state != fullyCalibrated {
		return ErrCalibrationMissing
	}
	if err := p.declareFlashVars(); err != nil {
		return err
	}
	storedZero := int(math.Round(p.zero - adcMidpoint + flashBias))
	if _, err := p.fs.term.Exec(fmt.Sprintf("%s = %d", p.zeroVar(), storedZero)); err != nil {
		return fmt.Errorf("error writing %s: %w", p.zeroVar(), err)
	}
	storedSpan := int(math.Round(p.span*float64(p.multiplier) + flashBias))
	if _, err := p.fs.term.Exec(fmt.Sprintf("%s = %d", p.spanVar(), storedSpan)); err != nil {
		return fmt.Errorf("error writing %s: %w", p.spanVar(), err)
	}
	return nil
}

// Read captures one window on this probe. The trigger may be a
// DigitalTrigger, an AnalogTrigger, or nil for an auto analog trigger at
// 0V. Analog levels are resolved through this probe's calibration, and the
// analog column of the result is returned in volts.
func (p *Probe) Read(frame time.Duration, trig Trigger, delay time.Duration) (*Capture, error) {
	timing, err := quantizeCapture(frame, delay)
	if err != nil {
		return nil, err
	}
	if trig == nil {
		trig = AtLevel(0).Auto()
	}
	fields, err := trig.triggerFields(p.VoltsToRaw)
	if err != nil {
		return nil, err
	}
	raw, err := p.fs.rawCapture(timing, fields)
	if err != nil {
		return nil, err
	}
	capture := &Capture{
		TicksPerSample: raw.TicksPerSample,
		Samples:        make([]Sample, len(raw.Samples)),
	}
	for i, s := range raw.Samples {
		volts, err := p.RawToVolts(s.Code)
		if err != nil {
			return nil, err
		}
		capture.Samples[i] = Sample{Volts: volts, Bits: s.Bits}
	}
	return capture, nil
}
