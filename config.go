package npview

import (
	"github.com/go-kit/log"

	"github.com/minghsu/npview/errs"
	"github.com/minghsu/npview/internal/options"
	"github.com/minghsu/npview/reader"
)

const (
	// DefaultSampleSize is the maximum number of elements materialized for
	// a 1-D preview.
	DefaultSampleSize = 100
	// DefaultMaxRows and DefaultMaxCols bound the 2-D table window.
	DefaultMaxRows = 20
	DefaultMaxCols = 10
)

// Config holds the recognized parse options. Construct through Parse's
// option arguments; zero fields fall back to the defaults.
type Config struct {
	// ChunkSize is the bytes per streamed chunk (default 1 MiB).
	ChunkSize int
	// MaxMemory is the ceiling on bytes held in flight during one
	// streamed read session (default 512 MiB).
	MaxMemory int64
	// SampleSize is the maximum previewed element count (default 100).
	SampleSize int
	// MaxSampleSize, when set, overrides SampleSize for this call.
	MaxSampleSize int
	// MaxRows and MaxCols window 2-D tables (defaults 20 and 10).
	MaxRows int
	MaxCols int
	// Logger receives debug events; nil means no logging.
	Logger log.Logger
}

// Option represents a functional option for configuring a parse call.
type Option = options.Option[*Config]

func defaultConfig() Config {
	return Config{
		ChunkSize:  reader.DefaultChunkSize,
		MaxMemory:  reader.DefaultMaxMemory,
		SampleSize: DefaultSampleSize,
		MaxRows:    DefaultMaxRows,
		MaxCols:    DefaultMaxCols,
		Logger:     log.NewNopLogger(),
	}
}

// sampleBound resolves the effective per-call preview bound.
func (c *Config) sampleBound() int {
	if c.MaxSampleSize > 0 {
		return c.MaxSampleSize
	}

	return c.SampleSize
}

// WithChunkSize sets the bytes read per streamed chunk.
func WithChunkSize(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return errs.Formatf("chunk size must be positive, got %d", n)
		}
		c.ChunkSize = n

		return nil
	})
}

// WithMaxMemory sets the memory ceiling for one read session.
func WithMaxMemory(n int64) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return errs.Formatf("memory limit must be positive, got %d", n)
		}
		c.MaxMemory = n

		return nil
	})
}

// WithSampleSize sets the maximum previewed element count.
func WithSampleSize(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return errs.Formatf("sample size must be positive, got %d", n)
		}
		c.SampleSize = n

		return nil
	})
}

// WithMaxSampleSize overrides the sample size for a single call without
// touching the configured default.
func WithMaxSampleSize(n int) Option {
	return options.NoError(func(c *Config) {
		c.MaxSampleSize = n
	})
}

// WithTableWindow sets the 2-D window: at most rows rows and cols columns,
// both taken from the front.
func WithTableWindow(rows, cols int) Option {
	return options.New(func(c *Config) error {
		if rows <= 0 || cols <= 0 {
			return errs.Formatf("table window must be positive, got %dx%d", rows, cols)
		}
		c.MaxRows = rows
		c.MaxCols = cols

		return nil
	})
}

// WithLogger routes debug events to the given logger.
func WithLogger(logger log.Logger) Option {
	return options.NoError(func(c *Config) {
		c.Logger = logger
	})
}
