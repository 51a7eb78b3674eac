// Package reader streams bytes from files under a hard memory ceiling.
//
// A Reader owns a running byte counter for one logical read session. The
// counter accumulates across ReadChunks calls on the same instance and is
// NOT reset automatically; start a new session with a fresh instance or an
// explicit Reset, otherwise a prior session's bytes count against the
// ceiling and surface as spurious memory-limit failures.
//
// A Reader is not safe for concurrent use across overlapping read sessions.
package reader

import (
	"errors"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/minghsu/npview/errs"
)

const (
	// DefaultChunkSize is the per-chunk read size for streamed reads.
	DefaultChunkSize = 1 << 20
	// DefaultMaxMemory is the default ceiling on bytes delivered through
	// the chunked path in one session.
	DefaultMaxMemory = 512 << 20
)

// Reader streams a file in fixed-size chunks or arbitrary byte ranges. The
// zero value is not usable; construct with New.
type Reader struct {
	chunkSize int
	maxMemory int64
	used      int64
	logger    log.Logger
}

// New creates a Reader with the given chunk size and memory ceiling.
// Non-positive values fall back to the defaults. A nil logger is replaced
// with a nop logger.
func New(chunkSize int, maxMemory int64, logger log.Logger) *Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if maxMemory <= 0 {
		maxMemory = DefaultMaxMemory
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Reader{chunkSize: chunkSize, maxMemory: maxMemory, logger: logger}
}

// Reset starts a new accounting session by zeroing the running byte
// counter.
func (r *Reader) Reset() {
	r.used = 0
}

// Used returns the bytes delivered through the chunked path in the current
// session.
func (r *Reader) Used() int64 {
	return r.used
}

// ReadChunks streams the file at path in file order, invoking onChunk for
// each chunk. The sequence is finite, lazy, and not restartable.
//
// Before each chunk is delivered, the session counter is checked against
// the ceiling; crossing it closes the file and returns MemoryLimitError.
// This is a hard stop, not throttling: the in-flight read is lost and this
// core does not retry. An error returned by onChunk also stops the read
// and is returned as-is.
func (r *Reader) ReadChunks(path string, onChunk func(chunk []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.WrapIO("open", path, err)
	}
	defer f.Close()

	buf := make([]byte, r.chunkSize)
	for {
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			r.used += int64(n)
			if r.used > r.maxMemory {
				level.Debug(r.logger).Log("msg", "aborting chunked read, memory ceiling crossed",
					"path", path, "used", r.used, "limit", r.maxMemory)

				return &errs.MemoryLimitError{Limit: r.maxMemory, Used: r.used}
			}
			if cbErr := onChunk(buf[:n]); cbErr != nil {
				return cbErr
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}

			return errs.WrapIO("read", path, err)
		}
	}
}

// ReadAll streams the whole file through the chunked path and concatenates
// the chunks. The memory ceiling applies; a file larger than the remaining
// session budget fails with MemoryLimitError.
func (r *Reader) ReadAll(path string) ([]byte, error) {
	var out []byte
	err := r.ReadChunks(path, func(chunk []byte) error {
		out = append(out, chunk...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// ReadRange returns the inclusive byte range [start, end] of the file at
// path. A range extending past the end of the file is clamped to it, so
// the result may be shorter than requested; a start at or past the end
// returns an empty slice.
func (r *Reader) ReadRange(path string, start, end int64) ([]byte, error) {
	if start < 0 || end < start {
		return nil, errs.Formatf("invalid byte range [%d, %d]", start, end)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapIO("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errs.WrapIO("stat", path, err)
	}

	if start >= info.Size() {
		return []byte{}, nil
	}
	if end >= info.Size() {
		end = info.Size() - 1
	}

	buf := make([]byte, end-start+1)
	if _, err := io.ReadFull(io.NewSectionReader(f, start, int64(len(buf))), buf); err != nil {
		return nil, errs.WrapIO("read", path, err)
	}

	return buf, nil
}

// ReadHeader returns the first n bytes of the file, clamped to the file
// size. Sugar for ReadRange(path, 0, n-1).
func (r *Reader) ReadHeader(path string, n int64) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}

	return r.ReadRange(path, 0, n-1)
}

// SampleData reads at most sampleCount elements of elemWidth bytes from the
// payload that starts at dataOffset, by uniform stride over the element
// domain. One bounded range read is issued per sampled element and the
// results are concatenated in sampled order.
//
// When the payload holds no more than sampleCount elements the whole
// payload is returned instead.
func (r *Reader) SampleData(path string, sampleCount, elemWidth int, dataOffset int64) ([]byte, error) {
	if elemWidth <= 0 {
		return nil, errs.Formatf("invalid element width %d", elemWidth)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapIO("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errs.WrapIO("stat", path, err)
	}

	payload := info.Size() - dataOffset
	if payload <= 0 {
		return []byte{}, nil
	}

	total := payload / int64(elemWidth)
	if sampleCount <= 0 || total <= int64(sampleCount) {
		return r.ReadRange(path, dataOffset, info.Size()-1)
	}

	step := (total + int64(sampleCount) - 1) / int64(sampleCount)
	level.Debug(r.logger).Log("msg", "stride-sampling payload",
		"path", path, "elements", total, "bound", sampleCount, "stride", step)

	out := make([]byte, 0, sampleCount*elemWidth)
	elem := make([]byte, elemWidth)
	for i := int64(0); i < total; i += step {
		off := dataOffset + i*int64(elemWidth)
		if _, err := f.ReadAt(elem, off); err != nil {
			return nil, errs.WrapIO("read", path, err)
		}
		out = append(out, elem...)
	}

	return out, nil
}
