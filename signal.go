// signal.go: signal-triggered dump
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// signalRecorder records every signal-triggered dump request in a
// dedicated recorder before the dump itself runs. It is registered lazily
// on first use.
var signalRecorder = sync.OnceValue(func() *Recorder {
	r := NewRecorder("recorder_signal", "signals that triggered a dump", 64)
	_ = Register(r)
	return r
})

// signalsTweak is the recorder_signals tweak: an additional bitmask of
// signals OR-ed into dump_on_common_signals.
var signalsTweak = sync.OnceValue(func() *Tweak {
	t := NewTweak("recorder_signals", "additional signal bitmask OR-ed into dump_on_common_signals", 0)
	_ = RegisterTweak(t)
	return t
})

// DumpOnSignal registers sig so that receiving it triggers Dump() in a
// dedicated goroutine.
//
// Go has no sigaction-style "install and return the previous handler"
// primitive; os/signal.Notify is additive registration, not replacement.
// Every process-wide registration for sig (this one and any the
// application installs itself) keeps receiving the signal, because
// os/signal fans out to all registered channels instead of chaining
// through a single handler slot — a previously installed handler is never
// clobbered, without attempting to model signal-table manipulation that Go
// does not expose.
func DumpOnSignal(sig os.Signal) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig)
	go func() {
		for range ch {
			rec := signalRecorder()
			Emit(rec, "signal.go", "dump triggered by signal %d", Args{uint64(signalNumber(sig))})
			Dump()
		}
	}()
	return nil
}

// signalNumber extracts the numeric signal value for recording, falling
// back to 0 for a non-Unix os.Signal implementation.
func signalNumber(sig os.Signal) int {
	if s, ok := sig.(unix.Signal); ok {
		return int(s)
	}
	return 0
}

// commonSignals is the portable "crash and user signals" set, guarded
// per-platform by golang.org/x/sys/unix's named constants (all present on
// the Unix targets this module supports).
func commonSignals() []unix.Signal {
	return []unix.Signal{
		unix.SIGQUIT, unix.SIGILL, unix.SIGABRT, unix.SIGBUS, unix.SIGSEGV,
		unix.SIGSYS, unix.SIGXCPU, unix.SIGXFSZ, unix.SIGUSR1, unix.SIGUSR2,
	}
}

// DumpOnCommonSignals installs DumpOnSignal for the portable crash/user
// signal set, OR-ed with the recorder_signals tweak and minus remove, then
// reads RECORDER_TRACES, RECORDER_TWEAKS, and RECORDER_DUMP from the
// environment and activates the background dumper if RECORDER_DUMP is set.
func DumpOnCommonSignals(add, remove uint64) error {
	// The portable crash/user signal set is on by default; add and the
	// recorder_signals tweak OR in extra bits, remove masks bits out.
	mask := add | uint64(signalsTweak().Value())
	for _, s := range commonSignals() {
		mask |= uint64(1) << uint(s)
	}
	mask &^= remove

	for s := 1; s < 64; s++ {
		if mask&(uint64(1)<<uint(s)) != 0 {
			if err := DumpOnSignal(unix.Signal(s)); err != nil {
				return err
			}
		}
	}

	if spec := os.Getenv("RECORDER_TRACES"); spec != "" {
		TraceSet(spec)
	}
	if spec := os.Getenv("RECORDER_TWEAKS"); spec != "" {
		TraceSet(spec)
	}
	if dump := os.Getenv("RECORDER_DUMP"); dump != "" {
		return BackgroundDump(".*")
	}
	return nil
}
