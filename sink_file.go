// sink_file.go: file-backed Sink implementation
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package recorder

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// FileSink is a Sink that appends dumped lines to a file, buffering writes
// through a bufio.Writer. The file (and its parent directory) is created
// lazily on the first Write, using the same double-checked-lock pattern
// other package-level singletons in this package use to avoid paying an
// init cost until something actually emits.
type FileSink struct {
	path     string
	fileMode os.FileMode

	initOnce sync.Once
	initErr  error

	mu     sync.Mutex // serializes Write/Flush/Close against the buffered writer
	file   *os.File
	writer *bufio.Writer

	writeCount   atomic.Uint64
	bytesWritten atomic.Uint64
	closed       atomic.Bool
}

// NewFileSink creates a FileSink that will write to path. The file is not
// opened until the first Write; a path that cannot eventually be created
// only surfaces its error there, matching the lazy-init behavior of the
// package's other sinks.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, errors.New("recorder: filename cannot be empty")
	}
	if err := ValidatePathLength(path); err != nil {
		return nil, err
	}
	dir, base := filepath.Split(path)
	return &FileSink{
		path:     filepath.Join(dir, SanitizeFilename(base)),
		fileMode: GetDefaultFileMode(),
	}, nil
}

// init lazily opens (creating parent directories as needed) the backing
// file and wraps it in a buffered writer. Retries transient filesystem
// errors the same way the teacher's file initialization does.
func (s *FileSink) init() error {
	s.initOnce.Do(func() {
		if dir := filepath.Dir(s.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				s.initErr = err
				return
			}
		}
		var file *os.File
		s.initErr = RetryFileOperation(func() error {
			var err error
			file, err = os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, s.fileMode) // #nosec G304 -- path sanitized by NewFileSink
			return err
		}, 3, 0)
		if s.initErr != nil {
			return
		}
		s.file = file
		s.writer = bufio.NewWriter(file)
	})
	return s.initErr
}

// Write appends data to the file's buffer, satisfying the Sink interface
// directly. It is safe for concurrent use.
func (s *FileSink) Write(data []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if err := s.init(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.writer.Write(data)
	s.writeCount.Add(1)
	s.bytesWritten.Add(uint64(n)) // #nosec G115 -- n is bounded by len(data)
	return n, err
}

// Flush pushes any buffered bytes to the underlying file.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return nil
	}
	return s.writer.Flush()
}

// Close flushes and closes the backing file. Safe to call more than once.
func (s *FileSink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer != nil {
		if err := s.writer.Flush(); err != nil {
			return err
		}
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// WriteCount returns the number of Write calls accepted so far.
func (s *FileSink) WriteCount() uint64 { return s.writeCount.Load() }

// BytesWritten returns the number of bytes accepted so far (buffered or
// already flushed).
func (s *FileSink) BytesWritten() uint64 { return s.bytesWritten.Load() }
