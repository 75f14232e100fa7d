// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package find locates the FleaScope's serial port among the USB serial
// devices attached to the machine.
package find

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// FilterFn narrows the enumerated USB serial ports down to the wanted
// device.
type FilterFn func(*enumerator.PortDetails) bool

// usbID is a vendor/product identifier pair.
type usbID struct {
	vid, pid string
}

// FleaScopes have shipped under several vendor/product identifiers
// (FTDI-, SparkFun- and Microchip-allocated).
var fleaScopeIDs = []usbID{
	{"0403", "A660"},
	{"1B4F", "A660"},
	{"1B4F", "E66E"},
	{"04D8", "E66E"},
}

// FleaScope matches any known FleaScope vendor/product identifier.
func FleaScope(pd *enumerator.PortDetails) bool {
	if !pd.IsUSB {
		return false
	}
	for _, id := range fleaScopeIDs {
		if strings.EqualFold(pd.VID, id.vid) && strings.EqualFold(pd.PID, id.pid) {
			return true
		}
	}
	return false
}

// SerialNumber matches a specific unit by its USB serial number, for hosts
// with more than one FleaScope attached.
func SerialNumber(s string) FilterFn {
	return func(pd *enumerator.PortDetails) bool {
		return pd.IsUSB && pd.SerialNumber == s
	}
}

// Find searches for a USB serial device and returns its port name. If
// filter is nil all USB serial ports are candidates. Exactly one candidate
// must remain; zero or several is an error naming what was seen.
func Find(filter FilterFn) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", err
	}
	return match(ports, filter)
}

func match(ports []*enumerator.PortDetails, filter FilterFn) (string, error) {
	var candidates []*enumerator.PortDetails
	for _, pd := range ports {
		if !pd.IsUSB {
			continue
		}
		if filter == nil || filter(pd) {
			candidates = append(candidates, pd)
		}
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no matching USB serial ports found")
	case 1:
		return candidates[0].Name, nil
	}
	names := make([]string, 0, len(candidates))
	for _, pd := range candidates {
		names = append(names, describe(pd))
	}
	return "", fmt.Errorf("multiple matching USB serial ports: %s", strings.Join(names, ", "))
}

func describe(pd *enumerator.PortDetails) string {
	return fmt.Sprintf("%s (vid/pid %s/%s serial %s)", pd.Name, pd.VID, pd.PID, pd.SerialNumber)
}
