// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package fleascope

import (
	"fmt"
	"math"
)

// BitState is the required state of one digital input in a digital trigger.
type BitState int

const (
	// Ignore excludes the bit from the trigger condition.
	Ignore BitState = iota
	// Positive requires the bit to be high.
	Positive
	// Negative requires the bit to be low.
	Negative
)

// DigitalBehavior selects when a digital trigger condition fires.
type DigitalBehavior int

// Available behaviors for a digital trigger.
const (
	// DigitalAuto triggers immediately if the condition never matches.
	DigitalAuto DigitalBehavior = iota
	// While captures while the condition matches.
	While
	// WhenStart captures when the condition starts matching.
	WhenStart
	// WhenStop captures when the condition stops matching.
	WhenStop
)

var digitalFlags = map[DigitalBehavior]string{
	DigitalAuto: "~",
	While:       "",
	WhenStart:   "+",
	WhenStop:    "-",
}

// AnalogBehavior selects when an analog trigger condition fires. It shares
// the digital flag alphabet on the wire but is a distinct enumeration.
type AnalogBehavior int

// Available behaviors for an analog trigger.
const (
	// AnalogAuto triggers immediately if the level is never reached.
	AnalogAuto AnalogBehavior = iota
	// Level captures while the signal is above the level.
	Level
	// Rising captures on a rising edge through the level.
	Rising
	// Falling captures on a falling edge through the level.
	Falling
)

var analogFlags = map[AnalogBehavior]string{
	AnalogAuto: "~",
	Level:      "",
	Rising:     "+",
	Falling:    "-",
}

// Trigger is a capture start/stop condition, either digital or analog. The
// zero value of a capture call's trigger (nil) means analog level 0 with
// Auto behavior.
type Trigger interface {
	// triggerFields renders the protocol's textual trigger encoding.
	// Analog levels are resolved to raw codes through voltsToRaw, which is
	// supplied by the probe issuing the capture.
	triggerFields(voltsToRaw func(float64) (float64, error)) (string, error)
}

// DigitalTrigger is a condition over the 8 digital inputs. Construct one
// through OnBits.
type DigitalTrigger struct {
	bits     [8]BitState
	behavior DigitalBehavior
}

func (t DigitalTrigger) triggerFields(_ func(float64) (float64, error)) (string, error) {
	var active, relevant uint8
	for i, s := range t.bits {
		if s != Ignore {
			relevant |= 1 << i
		}
		if s == Positive {
			active |= 1 << i
		}
	}
	return fmt.Sprintf("%s0x%02x 0x%02x", digitalFlags[t.behavior], active, relevant), nil
}

// AnalogTrigger is a condition on the analog input crossing or holding a
// voltage level. Construct one through AtLevel.
type AnalogTrigger struct {
	level    float64
	behavior AnalogBehavior
}

// Device trigger levels are quantized to 4 raw units per step.
const triggerLevelStep = 4

func (t AnalogTrigger) triggerFields(voltsToRaw func(float64) (float64, error)) (string, error) {
	raw, err := voltsToRaw(t.level)
	if err != nil {
		return "", err
	}
	rawLevel := int(math.Round(raw / triggerLevelStep))
	return fmt.Sprintf("%s%d 0", analogFlags[t.behavior], rawLevel), nil
}

// BitTriggerBuilder assembles a DigitalTrigger one bit at a time, starting
// with every bit ignored. The builder has value semantics: each setter
// returns a new builder, so triggers derived from a shared prefix never
// alias each other.
type BitTriggerBuilder struct {
	bits [8]BitState
}

// OnBits returns a builder with all 8 bits set to Ignore.
func OnBits() BitTriggerBuilder {
	return BitTriggerBuilder{}
}

// SetBit returns a copy of the builder with the given bit set to state.
// Bits are numbered 0 through 7; anything else panics, since the bit index
// is always a literal at the call site.
func (b BitTriggerBuilder) SetBit(bit int, state BitState) BitTriggerBuilder {
	if bit < 0 || bit > 7 {
		panic(fmt.Sprintf("trigger bit must be between 0 and 7, got %d", bit))
	}
	b.bits[bit] = state
	return b
}

// WhileMatching completes the trigger to capture while the bits match.
func (b BitTriggerBuilder) WhileMatching() DigitalTrigger {
	return DigitalTrigger{bits: b.bits, behavior: While}
}

// WhenStartMatching completes the trigger to capture when the bits start
// matching.
func (b BitTriggerBuilder) WhenStartMatching() DigitalTrigger {
	return DigitalTrigger{bits: b.bits, behavior: WhenStart}
}

// WhenStopMatching completes the trigger to capture when the bits stop
// matching.
func (b BitTriggerBuilder) WhenStopMatching() DigitalTrigger {
	return DigitalTrigger{bits: b.bits, behavior: WhenStop}
}

// Auto completes the trigger to capture immediately when the bits never
// match within the window.
func (b BitTriggerBuilder) Auto() DigitalTrigger {
	return DigitalTrigger{bits: b.bits, behavior: DigitalAuto}
}

// AnalogTriggerBuilder assembles an AnalogTrigger around a voltage level.
type AnalogTriggerBuilder struct {
	level float64
}

// AtLevel returns a builder for a trigger on the given voltage level.
func AtLevel(volts float64) AnalogTriggerBuilder {
	return AnalogTriggerBuilder{level: volts}
}

// RisingEdge completes the trigger to fire on a rising edge through the
// level.
func (b AnalogTriggerBuilder) RisingEdge() AnalogTrigger {
	return AnalogTrigger{level: b.level, behavior: Rising}
}

// FallingEdge completes the trigger to fire on a falling edge through the
// level.
func (b AnalogTriggerBuilder) FallingEdge() AnalogTrigger {
	return AnalogTrigger{level: b.level, behavior: Falling}
}

// Level completes the trigger to capture while the signal is above the
// level.
func (b AnalogTriggerBuilder) Level() AnalogTrigger {
	return AnalogTrigger{level: b.level, behavior: Level}
}

// Auto completes the trigger to capture immediately when the level is never
// reached within the window.
func (b AnalogTriggerBuilder) Auto() AnalogTrigger {
	return AnalogTrigger{level: b.level, behavior: AnalogAuto}
}
