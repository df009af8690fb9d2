// channel_mmap.go: mmap lifecycle for shared-memory channel files
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// mapPageSize is the growth granularity: the file is extended to the next
// page-aligned multiple of 4 KiB.
const mapPageSize = 4096

// mapping owns one MAP_SHARED mmap of a channel-set file and its growth
// lifecycle. It uses golang.org/x/sys/unix rather than the frozen syscall
// package, matching the convention observed in sakateka-yanet2's
// neighbour-discovery code.
//
// ptr/cstring/samples always recompute addresses from the current data
// slice, never from a cached unsafe.Pointer, because growth can relocate
// the mapping.
type mapping struct {
	file *os.File
	data []byte // current mmap'd region
}

// createMapping creates (truncating if it exists) the file at path with at
// least minSize bytes, and maps it MAP_SHARED.
func createMapping(path string, minSize uint64) (*mapping, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	size := alignUp(minSize, mapPageSize)
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mapping{file: f, data: data}, nil
}

// openMapping maps an existing file read-write for reading or extending.
func openMapping(path string) (*mapping, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := st.Size()
	if size < shareHeaderSize {
		f.Close()
		return nil, ErrBadMagic
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mapping{file: f, data: data}, nil
}

// ensure grows the mapping, via ftruncate + re-mmap, so that at least
// needed bytes are addressable.
func (m *mapping) ensure(needed uint64) error {
	if needed <= uint64(len(m.data)) {
		return nil
	}
	newSize := alignUp(needed, mapPageSize)
	if err := unix.Ftruncate(int(m.file.Fd()), int64(newSize)); err != nil {
		return err
	}
	if err := unix.Munmap(m.data); err != nil {
		return err
	}
	data, err := unix.Mmap(int(m.file.Fd()), 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	// Every outstanding Channel handle stores only a byte offset, never a
	// pointer, so relocation here (the kernel choosing a different base)
	// never invalidates a handle — the next dereference recomputes from
	// m.data's new base.
	m.data = data
	return nil
}

func (m *mapping) close() error {
	if err := unix.Munmap(m.data); err != nil {
		return err
	}
	return m.file.Close()
}

// ptr returns the live address of offset within the current mapping.
func (m *mapping) ptr(offset uint64) unsafe.Pointer {
	return unsafe.Pointer(&m.data[offset])
}

// samples returns a slice of n Sample values starting at byte offset,
// backed directly by the mapping (writes through it are visible to every
// process sharing the file).
func (m *mapping) samples(offset, n uint64) []Sample {
	return unsafe.Slice((*Sample)(m.ptr(offset)), n)
}

// cstring reads a NUL-terminated string starting at byte offset.
func (m *mapping) cstring(offset uint64) string {
	if offset == 0 || offset >= uint64(len(m.data)) {
		return ""
	}
	end := offset
	for end < uint64(len(m.data)) && m.data[end] != 0 {
		end++
	}
	return string(m.data[offset:end])
}

// writeCString writes s followed by a NUL byte at offset and returns the
// number of bytes written including the terminator.
func (m *mapping) writeCString(offset uint64, s string) uint64 {
	copy(m.data[offset:], s)
	m.data[offset+uint64(len(s))] = 0
	return uint64(len(s)) + 1
}

// removeFile deletes the backing file of a deleted channel set.
func removeFile(path string) error {
	return os.Remove(path)
}
