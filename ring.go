// ring.go: lock-free multi-producer/multi-consumer ring buffer
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"math/bits"
	"runtime"
	"sync/atomic"
)

// ring is a bounded array of size fixed-size items plus four counters:
// writer, commit, reader, overflow. size must be a power of two; positions
// index the array modulo size.
//
// Unlike a single-reader MPSC ring with one reader cursor baked into the
// struct, this ring keeps no reader cursor of its own — callers pass their
// own *cursor, so independent subscribers (the dumper, a background
// dumper, a crash handler) can each read the same recorder's ring at their
// own pace.
//
// Concurrency invariants:
//   - reader <= commit <= writer at all times.
//   - writer - reader <= size + overflow*size (overrun is counted, not
//     blocked).
//   - a slot at index i%size is safe to read iff commit > i >= reader.
//
// The commit-in-order rule is the ring's one wait-free-sacrificing point: a
// writer that has reserved slot [reserved, reserved+n) must spin until
// commit == reserved before it may store commit forward. This is the generic
// equivalent of a per-slot availability marker, expressed here as an
// explicit counter so that readable() can report a contiguous committed
// range without scanning per-slot markers.
type ring[T any] struct {
	items []T
	mask  uint64

	writer   atomic.Uint64
	commit   atomic.Uint64
	reader   atomic.Uint64 // most recently observed reader position, used for overrun accounting
	overflow atomic.Uint64
}

// reader tracks whichever cursor most recently called read/peek; a recorder
// ring has exactly one real reader (the merge-dump algorithm) so this is
// exact for that case. A channel ring may have several subscriber
// processes each with an independent in-process cursor; their own
// catch-up detection in read()/peek() only compares against writer, so it
// stays correct even if r.reader reflects a different subscriber's
// progress — the shared field only affects how eagerly the writer counts
// overflow, not correctness of any individual subscriber's view.

// newRing creates a ring of the given size, rounded up to the next power
// of two. A size of 1 is legal as a boundary case: every second write
// overruns exactly once.
func newRing[T any](size int) *ring[T] {
	n := nextPow2(uint64(size))
	if n == 0 {
		n = 1
	}
	return &ring[T]{
		items: make([]T, n),
		mask:  n - 1,
	}
}

func nextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	return 1 << (64 - bits.LeadingZeros64(x-1))
}

func (r *ring[T]) size() uint64 { return uint64(len(r.items)) }

// write reserves n consecutive slots, copies items into them, then
// advances commit in publication order. Writers never stall waiting for a
// reader: an overrun is recorded (overflow++) and the ring proceeds,
// forcing the lagging reader forward on its next read.
func (r *ring[T]) write(items []T) {
	n := uint64(len(items))
	if n == 0 {
		return
	}
	size := r.size()

	reserved := r.writer.Add(n) - n

	// Overrun accounting: if this reservation would lap the last known
	// reader position, count it. The reader itself detects and corrects
	// its own lag on its next read (see read below) — the writer
	// never blocks to wait for it.
	readerPos := r.reader.Load()
	if reserved+n-readerPos > size {
		r.overflow.Add(1)
		// Force the tracked reader position forward so readable() and
		// future overrun checks stay consistent with the live window.
		for {
			cur := r.reader.Load()
			target := reserved + n - size
			if cur >= target {
				break
			}
			if r.reader.CompareAndSwap(cur, target) {
				break
			}
		}
	}

	for i, it := range items {
		r.items[(reserved+uint64(i))&r.mask] = it
	}

	// Commit-in-order spin: wait until every earlier reservation has
	// published, then advance commit by n. Progress is guaranteed because
	// every in-flight reservation is destined to reach this point.
	spins := 0
	for {
		if r.commit.Load() == reserved {
			break
		}
		spins++
		if spins > 64 {
			runtime.Gosched()
			spins = 0
		}
	}
	r.commit.Store(reserved + n)
}

// readable returns commit - cursor, clamped to size.
func (r *ring[T]) readable(cursor uint64) uint64 {
	avail := r.commit.Load() - cursor
	if avail > r.size() {
		return r.size()
	}
	return avail
}

// read copies up to len(out) items starting at *cursor into out, advancing
// *cursor by the number read. If *cursor has fallen more than one wrap
// behind the writer, the cursor is snapped forward to writer-size and
// ErrCatchUp is returned with zero items copied; the caller should discard
// and retry.
func (r *ring[T]) read(out []T, cursor *uint64) (int, error) {
	writer := r.writer.Load()
	size := r.size()

	if writer-*cursor > size {
		*cursor = writer - size
		r.reader.Store(*cursor)
		return 0, ErrCatchUp
	}

	commit := r.commit.Load()
	avail := commit - *cursor
	n := uint64(len(out))
	if n > avail {
		n = avail
	}
	for i := uint64(0); i < n; i++ {
		out[i] = r.items[(*cursor+i)&r.mask]
	}
	*cursor += n
	r.reader.Store(*cursor)
	return int(n), nil
}

// peek returns the item at *cursor without advancing it. ok is false if
// nothing is committed yet at that position, or if the cursor needs a
// catch-up (in which case it is snapped forward and ErrCatchUp returned).
func (r *ring[T]) peek(cursor *uint64) (item T, ok bool, err error) {
	writer := r.writer.Load()
	size := r.size()

	if writer-*cursor > size {
		*cursor = writer - size
		r.reader.Store(*cursor)
		var zero T
		return zero, false, ErrCatchUp
	}

	if r.commit.Load() <= *cursor {
		var zero T
		return zero, false, nil
	}

	return r.items[*cursor&r.mask], true, nil
}

// stats exposes the four counters for introspection and tests.
func (r *ring[T]) stats() (writer, commit, reader, overflow uint64) {
	return r.writer.Load(), r.commit.Load(), r.reader.Load(), r.overflow.Load()
}
