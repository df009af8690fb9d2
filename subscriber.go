// subscriber.go: read-only-ish subscriber side of a shared-memory channel set
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"regexp"
	"sync"
	"sync/atomic"
)

// ChannelSubscriber opens an existing channel set file for reading. It
// maps the file read-write (so it can see
// atomic counter updates from the writer) but never allocates or mutates
// channel metadata itself.
type ChannelSubscriber struct {
	mm   *mapping
	path string

	mu      sync.Mutex
	cursors map[uint64]*uint64 // channel offset -> this subscriber's read cursor
	closed  atomic.Bool
}

// ChansOpen maps the channel set file at path, validates its magic and
// version, and returns a subscriber handle.
func ChansOpen(path string) (*ChannelSubscriber, error) {
	mm, err := openMapping(path)
	if err != nil {
		return nil, err
	}
	h := (*shareHeader)(mm.ptr(0))
	if h.magic != shareMagic || h.version != shareVersion {
		mm.close()
		return nil, ErrBadMagic
	}
	return &ChannelSubscriber{mm: mm, path: path, cursors: make(map[uint64]*uint64)}, nil
}

// Close unmaps the subscriber's view. It does not touch the backing file.
func (s *ChannelSubscriber) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return s.mm.close()
}

// channelAt builds a handle for the channel at offset. Subscriber handles
// reuse the writer-side Channel type (its methods already re-derive
// addresses from the live mapping on every access) but are never used to
// allocate or delete.
func (s *ChannelSubscriber) channelAt(offset uint64) *Channel {
	return &Channel{set: &ChannelSet{mm: s.mm}, offset: offset}
}

// Find walks the channel list and full-regex-matches names against
// pattern. Paging through new results is modeled by the caller simply
// skipping entries it has already seen in the returned slice, since the
// list never shrinks from a subscriber's point of view.
func (s *ChannelSubscriber) Find(pattern string) ([]*Channel, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, err
	}
	var out []*Channel
	header := (*shareHeader)(s.mm.ptr(0))
	for off := atomic.LoadUint64(&header.head); off != 0; {
		ch := s.channelAt(off)
		if re.MatchString(ch.Name()) {
			out = append(out, ch)
		}
		off = ch.header().next
	}
	if len(out) == 0 {
		return nil, ErrNoSuchChannel
	}
	return out, nil
}

// cursorFor returns (creating if necessary) this subscriber's private read
// cursor for ch, starting at 0 (the oldest retained sample) on first use.
func (s *ChannelSubscriber) cursorFor(ch *Channel) *uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursors[ch.offset]
	if !ok {
		c = new(uint64)
		s.cursors[ch.offset] = c
	}
	return c
}

// Read copies up to len(out) samples from ch into out, advancing this
// subscriber's own cursor for ch. Each subscriber maintains its own
// independent reader cursor.
func (s *ChannelSubscriber) Read(ch *Channel, out []Sample) (int, error) {
	cursor := s.cursorFor(ch)
	return ch.r().read(out, cursor)
}

// Readable reports how many samples are available to this subscriber's
// cursor for ch.
func (s *ChannelSubscriber) Readable(ch *Channel) uint64 {
	cursor := s.cursorFor(ch)
	return ch.r().readable(atomic.LoadUint64(cursor))
}

// Reader returns this subscriber's current cursor position for ch.
func (s *ChannelSubscriber) Reader(ch *Channel) uint64 {
	return atomic.LoadUint64(s.cursorFor(ch))
}
