// directive.go: trace/tweak configuration language
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// defaultSharePath is the fallback shared-memory file path.
const defaultSharePath = "/tmp/recorder_share"

// sharedChannelsSet is the lazily-created, process-wide channel set used
// by the string form of TraceSet to export recorder argument slots. It is
// created on first export, not at package init.
var (
	sharedChannelsMu  sync.Mutex
	sharedChannelsSet *ChannelSet
)

// ensureSharedChannels returns the process-wide channel set, creating it
// on first use at $RECORDER_SHARE, or at defaultSharePath when that is
// unset.
func ensureSharedChannels() (*ChannelSet, error) {
	sharedChannelsMu.Lock()
	defer sharedChannelsMu.Unlock()
	if sharedChannelsSet != nil {
		return sharedChannelsSet, nil
	}
	path := os.Getenv("RECORDER_SHARE")
	if path == "" {
		path = defaultSharePath
	}
	set, err := ChansNew(path)
	if err != nil {
		return nil, err
	}
	sharedChannelsSet = set
	return set, nil
}

// setSharedChannels installs set as the process-wide channel set,
// replacing (and leaking — this is a process-lifetime set, torn down at
// exit rather than mid-run while other code may still hold handles into
// it) any previous one.
func setSharedChannels(set *ChannelSet) {
	sharedChannelsMu.Lock()
	defer sharedChannelsMu.Unlock()
	sharedChannelsSet = set
}

// TraceSet parses cfg as a colon-or-space-separated list of directives and
// applies them. It is idempotent: applying the same configuration string
// twice in a row is equivalent to applying it once.
//
// Invalid directives are reported but do not abort the remaining ones:
// the returned result is the worst status seen across all directives,
// preferring ResultInvalidName over ResultInvalidValue over ResultOK so a
// caller checking != ResultOK never misses a failure.
func TraceSet(cfg string) (TraceSetResult, error) {
	result := ResultOK
	var firstErr error

	for _, directive := range splitDirectives(cfg) {
		if directive == "" {
			continue
		}
		r, err := applyDirective(directive)
		if r != ResultOK && (result == ResultOK || r == ResultInvalidName) {
			result = r
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return result, firstErr
}

// splitDirectives splits on runs of ':' and whitespace.
func splitDirectives(cfg string) []string {
	return strings.FieldsFunc(cfg, func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t' || r == '\n'
	})
}

// applyDirective applies one directive string.
func applyDirective(directive string) (TraceSetResult, error) {
	switch {
	case directive == "help" || directive == "list":
		printHelp()
		return ResultOK, nil
	case strings.HasPrefix(directive, "share="):
		return applyShare(strings.TrimPrefix(directive, "share="))
	case strings.HasPrefix(directive, "output="):
		return applyOutput(strings.TrimPrefix(directive, "output="))
	}

	name, rhs, hasRHS := strings.Cut(directive, "=")
	pattern := name
	if name == "all" {
		pattern = ".*"
	}

	re, err := compilePattern(pattern)
	if err != nil {
		return ResultInvalidName, err
	}

	if !hasRHS {
		return applyNumeric(re, 1)
	}

	if n, err := strconv.ParseInt(rhs, 0, 64); err == nil {
		return applyNumeric(re, n)
	} else if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
		return ResultInvalidValue, err
	} else if digits := strings.TrimLeft(rhs, "+-"); digits != "" && digits[0] >= '0' && digits[0] <= '9' {
		// An integer followed by trailing garbage is a bad value, not an
		// export list.
		return ResultInvalidValue, err
	}

	return applyExport(re, rhs)
}

// applyNumeric implements the numeric form: set every matching recorder's
// trace and every matching tweak's value to n.
func applyNumeric(re *compiledPattern, n int64) (TraceSetResult, error) {
	for _, r := range defaultRegistry.findRecorders(re) {
		r.SetTrace(TraceLevel(n))
	}
	for _, t := range defaultRegistry.findTweaks(re) {
		t.SetValue(n)
	}
	return ResultOK, nil
}

// applyExport implements the string form: parse rhs as up to NumArgs
// comma-separated channel names and export slots 0..NumArgs-1 of every
// matching recorder under those names.
func applyExport(re *compiledPattern, rhs string) (TraceSetResult, error) {
	names := strings.SplitN(rhs, ",", NumArgs)

	recorders := defaultRegistry.findRecorders(re)
	if len(recorders) == 0 {
		return ResultOK, nil
	}

	set, err := ensureSharedChannels()
	if err != nil {
		return ResultOK, err
	}

	disambiguate := len(recorders) > 1
	for _, r := range recorders {
		for i, chanName := range names {
			if i >= NumArgs || chanName == "" {
				continue
			}
			fullName := chanName
			if disambiguate {
				fullName = r.Name + "/" + chanName
			}
			ch, err := set.ChanNew(fullName, "exported by trace_set", "", 4096)
			if err != nil {
				continue
			}
			r.setExported(i, ch)
		}
		if r.Trace() == 0 {
			r.SetTrace(TraceExportedOnly)
		}
	}
	return ResultOK, nil
}

// applyShare (re)opens the shared-memory channel set at path as the
// process-wide export target.
func applyShare(path string) (TraceSetResult, error) {
	set, err := ChansNew(path)
	if err != nil {
		return ResultOK, err
	}
	setSharedChannels(set)
	return ResultOK, nil
}

// applyOutput redirects dumped output to a FileSink at path, replacing
// whatever sink was previously installed via ConfigureOutput.
func applyOutput(path string) (TraceSetResult, error) {
	sink, err := NewFileSink(path)
	if err != nil {
		return ResultInvalidValue, err
	}
	ConfigureOutput(sink)
	return ResultOK, nil
}

// printHelp prints every registered recorder and tweak with its current
// value through the configured sink.
func printHelp() {
	sink := *currentSink.Load()
	for _, r := range defaultRegistry.Recorders() {
		_, _ = sink.Write([]byte(r.Name + ": " + r.Description + " (trace=" + strconv.Itoa(int(r.Trace())) + ")\n"))
	}
	for _, t := range defaultRegistry.Tweaks() {
		_, _ = sink.Write([]byte(t.Name + ": " + t.Description + " (value=" + strconv.FormatInt(t.Value(), 10) + ")\n"))
	}
}
