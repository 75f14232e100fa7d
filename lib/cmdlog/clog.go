// Copyright (c) 2025–2026 The fleascope developers. All rights reserved.
// Project site: https://github.com/daniel-freiermuth/fleascope
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package cmdlog provides styled command/response echoing for interactive
// use of a FleaScope session.
package cmdlog

import (
	"log"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/daniel-freiermuth/fleascope"
)

func isAscii(s string) bool {
	return !strings.ContainsFunc(s, func(r rune) bool {
		switch {
		case r < 7:
			return true
		case r > 6 && r < 14:
			return false
		case r > 13 && r < 32:
			return true
		case r > 127:
			return true
		}
		return false
	})
}

var (
	CmdStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	RespStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
)

// PrettyFuncs returns closures that run commands on the scope and log them
// with styling: query returns the response, bquery logs it, cmd discards
// it.
func PrettyFuncs(fs *fleascope.FleaScope) (
	query func(string) string,
	bquery func(string),
	cmd func(string),
) {
	query = func(q string) string {
		s, err := fs.Query(q)
		if err != nil {
			q = CmdStyle.Render(q)
			log.Printf("query %q: error %s", q, err)
		}
		return s
	}
	bquery = func(q string) {
		a := query(q)
		q = CmdStyle.Render(q)

		if len(a) == 0 {
			log.Print(RespStyle.Render("<no response>"))
			return
		}

		if isAscii(a) {
			log.Printf("%s: [%d] %q", q, len(a), a)
		} else if len(a) < 32 {
			log.Printf("%s: [%d] %q (% 2x)", q, len(a), a, []byte(a))
		} else {
			log.Printf("%s: [%d] % 2x", q, len(a), []byte(a))
		}
	}

	cmd = func(c string) {
		if _, err := fs.Query(c); err != nil {
			log.Printf("cmd %s: error %s", CmdStyle.Render(c), err)
		} else {
			log.Printf("%s()", CmdStyle.Render(c))
		}
	}
	return query, bquery, cmd
}
