// emit.go: the hot emit path
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import "sync/atomic"

// Emit writes one entry into rec's ring and, depending on rec's current
// trace level, optionally prints it synchronously and/or pushes samples
// into rec's export channels. Async-signal-safe: no
// allocation on the common path, no locks beyond the ring's own
// commit-in-order spin, no standard I/O unless synchronous print is
// configured.
func Emit(rec *Recorder, where, format string, args Args) {
	ts := tick()
	order := defaultRegistry.nextOrder()

	e := Entry{
		Timestamp: ts,
		Order:     order,
		Where:     where,
		Format:    format,
		Args:      args,
	}
	rec.ring.write([]Entry{e})

	trace := rec.Trace()
	if trace != 0 && trace != TraceExportedOnly {
		_ = emitToSink(rec.Name, &e)
	}

	for i := 0; i < NumArgs; i++ {
		ch := rec.exported[i].Load()
		if ch == nil {
			continue
		}
		if ch.Type() == ChanNone {
			if ch.casType(ChanInvalid) {
				atomic.StoreInt32(&ch.header().typ, int32(inferConversionType(format, i)))
			}
		}
		ch.Write(ts, args[i])
	}
}
