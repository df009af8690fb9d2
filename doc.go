// Package recorder is a non-blocking in-process flight recorder: named,
// fixed-capacity ring buffers that application code emits structured trace
// entries into from arbitrarily hot paths, including signal handlers, and
// dumps — globally ordered across every recorder — on demand, on a
// background schedule, or from a crash signal.
//
// # Quick Start
//
//	rec := recorder.NewRecorder("net", "network subsystem events", 4096)
//	recorder.Register(rec)
//	rec.SetTrace(1)
//
//	recorder.Emit(rec, "conn.go:88", "accepted fd=%d from=%d", recorder.Args{uint64(fd), uint64(addr)})
//	recorder.Dump()
//
// # Recorders and tweaks
//
// A recorder is a named ring plus a trace level; a tweak is a named
// runtime-mutable integer. Both are registered once, at process lifetime,
// via a lock-free push onto a global list:
//
//	tw := recorder.NewTweak("sample_rate", "1-in-N sampling divisor", 1)
//	recorder.RegisterTweak(tw)
//
// # Configuration language
//
// recorder.TraceSet parses a colon-or-space-separated directive string,
// typically sourced from RECORDER_TRACES / RECORDER_TWEAKS:
//
//	recorder.TraceSet("net=1:disk=0:sample_rate=10")
//	recorder.TraceSet("net=latency_us,throughput") // export argument slots
//
// # Shared-memory export
//
// Exported argument slots are published as time-series samples in a
// memory-mapped file that a separate process can subscribe to:
//
//	set, _ := recorder.ChansNew("/tmp/recorder_share")
//	ch, _ := set.ChanNew("latency_us", "p50 request latency", "us", 4096)
//
//	sub, _ := recorder.ChansOpen("/tmp/recorder_share")
//	found, _ := sub.Find("latency_us")
//	n, _ := sub.Read(found[0], make([]recorder.Sample, 16))
//
// # Signal-triggered dump
//
//	recorder.DumpOnCommonSignals(0, 0)
//
// # Output
//
// The default sink writes to standard error; ConfigureOutput, a FileSink
// (see sink_file.go) wired in through the "output=" trace directive, or any
// other type implementing Sink may replace it. ConfigureFormat replaces the
// default "<location>: [<order> <secs>] <label>: <message>" rendering.
package recorder
