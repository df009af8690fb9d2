// sink.go: pluggable output sink and formatter hooks
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"os"
	"sync/atomic"
)

// Sink is the destination for dumped output: a small trait-like interface
// in place of a function-pointer hook. Write should be safe to call from
// the emit path when synchronous printing is enabled, so implementations
// used there must not block unboundedly (FileSink buffers through a
// bufio.Writer for exactly this reason).
type Sink interface {
	Write(line []byte) (int, error)
}

// sinkFunc adapts a ShowFunc to the Sink interface.
type sinkFunc func(line []byte) (int, error)

func (f sinkFunc) Write(line []byte) (int, error) { return f(line) }

// stderrSink is the default sink: output goes to standard error until a
// caller installs something else.
var stderrSink Sink = sinkFunc(func(line []byte) (int, error) { return os.Stderr.Write(line) })

var (
	currentSink   atomic.Pointer[Sink]
	currentFormat atomic.Pointer[FormatFunc]
)

func init() {
	currentSink.Store(&stderrSink)
	var f FormatFunc = defaultFormat
	currentFormat.Store(&f)
}

// ConfigureOutput installs sink as the current output destination,
// returning the previous one.
func ConfigureOutput(sink Sink) Sink {
	prev := currentSink.Load()
	currentSink.Store(&sink)
	if prev == nil {
		return nil
	}
	return *prev
}

// ConfigureShow installs fn as the current byte-writer, wrapping it as a
// Sink. Returns the previous sink adapted to a ShowFunc-compatible form.
func ConfigureShow(fn ShowFunc) Sink {
	var s Sink = sinkFunc(fn)
	return ConfigureOutput(s)
}

// ConfigureFormat installs fn as the current entry formatter, returning
// the previous one.
func ConfigureFormat(fn FormatFunc) FormatFunc {
	prev := currentFormat.Load()
	currentFormat.Store(&fn)
	if prev == nil {
		return nil
	}
	return *prev
}

// emitToSink formats e using the current FormatFunc and writes it through
// the current Sink. Errors propagate as a reduced dump count, never a
// panic or abort.
func emitToSink(label string, e *Entry) error {
	format := *currentFormat.Load()
	sink := *currentSink.Load()
	message := formatMessage(e)
	return format(sink.Write, label, e.Where, e.Order, e.Timestamp, message)
}
