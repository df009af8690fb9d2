// merge.go: global merge-dump across all recorders
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import "regexp"

// compiledPattern is the regex engine used to full-match recorder and
// tweak names: patterns are compiled as a case-insensitive regular
// expression that must fully match. Go's regexp (RE2) has no
// catastrophic-backtracking failure mode, which matters because pattern
// strings here are typically sourced from environment variables (see
// directive.go).
type compiledPattern = regexp.Regexp

func compilePattern(pattern string) (*compiledPattern, error) {
	return regexp.Compile("(?i)^(?:" + pattern + ")$")
}

// Dump merge-dumps every registered recorder.
func Dump() int {
	n, _ := DumpFor(".*")
	return n
}

// DumpFor merge-dumps every recorder whose name fully matches pattern:
// repeatedly peek the smallest-order head entry across all matching,
// non-empty recorders; read it (skipping on catch-up without advancing
// anything else); format and emit it; repeat until no recorder has data.
func DumpFor(pattern string) (int, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return 0, err
	}
	return sortDump(defaultRegistry.findRecorders(re)), nil
}

// sortDump runs the merge-dump loop over an already-filtered recorder set.
func sortDump(recorders []*Recorder) int {
	count := 0
	for {
		var chosen *Recorder
		var chosenEntry Entry
		var chosenOK bool

		for _, r := range recorders {
			cursor := r.cursorM.Load()
			e, ok, err := r.ring.peek(&cursor)
			r.cursorM.Store(cursor)
			if err != nil || !ok {
				continue
			}
			if !chosenOK || e.Order < chosenEntry.Order {
				chosen = r
				chosenEntry = e
				chosenOK = true
			}
		}

		if !chosenOK {
			return count
		}

		cursor := chosen.cursorM.Load()
		var out [1]Entry
		n, err := chosen.ring.read(out[:], &cursor)
		chosen.cursorM.Store(cursor)
		if err != nil || n == 0 {
			// Overrun raced ahead of our peek; skip and retry without
			// counting or advancing anything else.
			continue
		}

		// A sink short-write reduces the returned count rather than
		// aborting the dump.
		if emitToSink(chosen.Name, &out[0]) == nil {
			count++
		}
	}
}
