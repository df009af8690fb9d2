// clock.go: monotonic tick source
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// TicksPerSecond is the resolution of the integers returned by tick().
// Ticks are nanoseconds, so this is always 1e9; kept as a named constant
// because the formatter (format.go) divides by it to recover seconds.
const TicksPerSecond = uint64(time.Second)

var (
	clockOnce  sync.Once
	clockCache *timecache.TimeCache
)

// initClock lazily starts the shared time cache, mirroring the
// sync.Once-guarded lazy init FileSink uses for its own backing file: the
// cache is only worth the background refresh goroutine once something
// actually emits.
func initClock() {
	clockOnce.Do(func() {
		clockCache = timecache.NewWithResolution(time.Microsecond)
	})
}

// tick returns the current wall-clock time in nanoseconds since the Unix
// epoch, read from a cached, low-overhead clock source rather than calling
// time.Now() on every emit, which matters on the ring's hot write path.
// The value follows the wall clock and is not monotonic: a backward step
// of the system clock makes later ticks smaller than earlier ones.
func tick() uint64 {
	initClock()
	return uint64(clockCache.CachedTime().UnixNano()) // #nosec G115 -- UnixNano() is positive for any real wall clock
}

// stopClock releases the background refresh goroutine started by tick().
func stopClock() {
	clockOnce = sync.Once{}
	if clockCache != nil {
		clockCache.Stop()
		clockCache = nil
	}
}
