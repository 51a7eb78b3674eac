// Package errs defines the error taxonomy shared by all npview packages.
//
// Errors come in two layers: typed errors carrying diagnostic fields
// (FormatError, BufferUnderrunError, MemoryLimitError) and the sentinel
// values they match through errors.Is (ErrFormat, ErrBufferUnderrun,
// ErrMemoryLimit, ErrIO). Callers branch on the sentinels and read the
// fields only when they need the details:
//
//	if errors.Is(err, errs.ErrMemoryLimit) {
//	    // retry with a head-only read, or give up
//	}
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is the match target for all FormatError values: bad magic,
	// unsupported version, malformed header dictionary, unknown dtype code.
	ErrFormat = errors.New("invalid file format")

	// ErrBufferUnderrun is the match target for BufferUnderrunError values.
	ErrBufferUnderrun = errors.New("buffer underrun")

	// ErrMemoryLimit is the match target for MemoryLimitError values.
	ErrMemoryLimit = errors.New("memory limit exceeded")

	// ErrIO is the match target for IOError values wrapping storage-layer
	// failures. The underlying error stays reachable through Unwrap.
	ErrIO = errors.New("i/o error")
)

// FormatError reports that a buffer does not conform to the expected file
// format. It is always fatal to that single file's parse and is never
// retried.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid file format: %s", e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Formatf creates a FormatError with a formatted reason.
func Formatf(format string, args ...any) *FormatError {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// BufferUnderrunError reports that a batched read would run past the end of
// the buffer. The check happens before any element is decoded, so a failed
// batch never produces partial side effects.
type BufferUnderrunError struct {
	Requested int
	Available int
}

func (e *BufferUnderrunError) Error() string {
	return fmt.Sprintf("buffer underrun: requested %d bytes, %d available", e.Requested, e.Available)
}

func (e *BufferUnderrunError) Is(target error) bool {
	return target == ErrBufferUnderrun
}

// MemoryLimitError reports that a streamed read session crossed its memory
// ceiling. The in-flight read is aborted; there is no partial-result
// recovery.
type MemoryLimitError struct {
	Limit int64
	Used  int64
}

func (e *MemoryLimitError) Error() string {
	return fmt.Sprintf("memory limit exceeded: %d bytes used, limit %d", e.Used, e.Limit)
}

func (e *MemoryLimitError) Is(target error) bool {
	return target == ErrMemoryLimit
}

// IOError wraps an error from the storage layer. It is propagated unchanged
// apart from the wrapping; this core never retries I/O.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// WrapIO wraps a storage-layer error with the operation and path that
// produced it. Returns nil if err is nil.
func WrapIO(op, path string, err error) error {
	if err == nil {
		return nil
	}

	return &IOError{Op: op, Path: path, Err: err}
}
