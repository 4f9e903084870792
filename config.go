package fecparse

import "fmt"

// defaultBufferSize is the size, in bytes, of the LineBuffer's internal
// refill buffer and of each output stream's bufio.Writer when the caller
// does not override it.
const defaultBufferSize = 64 * 1024

// WriteFunc receives the raw bytes written to a form's output stream,
// in the same chunks the underlying bufio.Writer flushes them in. It is
// invoked in addition to (not instead of) file output when OutputDir is
// also set.
type WriteFunc func(form, extension string, chunk []byte) error

// LineFunc receives one fully-assembled, CSV-escaped output row plus the
// schema type codes used to emit it, once per row.
type LineFunc func(form, line string, types []byte) error

// Config holds the options accepted by New. It is built exclusively through
// NewConfig and the With* functional options below, so there is no way to
// construct one carrying an option this package doesn't recognize.
type Config struct {
	// BufferSize sizes both the LineBuffer's refill buffer and each output
	// stream's write buffer.
	BufferSize int

	// OutputDir, if non-empty, is the directory under which <form>.csv
	// files are created, inside a <filing-id>/ subdirectory when FilingID
	// is set.
	OutputDir string

	// WriteFunc, if non-nil, is called with every chunk of bytes written to
	// any form's output stream.
	WriteFunc WriteFunc

	// LineFunc, if non-nil, is called once per completed output row.
	LineFunc LineFunc

	// FilingID, if non-nil, is prefixed as an extra leading column on every
	// row this filing emits, including header rows.
	FilingID *string

	// Silent suppresses all diagnostics, including those Warn would
	// otherwise enable.
	Silent bool

	// Warn enables soft-warning diagnostics (bad dates, bad floats, unknown
	// forms, over-long rows) on standard error.
	Warn bool
}

// Option configures a Config constructed by NewConfig.
type Option func(*Config) error

// WithBufferSize overrides the default input/output buffer size. Sizes less
// than 1 are a configuration error.
func WithBufferSize(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("fecparse: buffer size must be positive, got %d", n)
		}
		c.BufferSize = n
		return nil
	}
}

// WithOutputDir enables file-sink mode: <dir>/<form>.csv, or
// <dir>/<filing-id>/<form>.csv when a filing ID is also configured.
func WithOutputDir(dir string) Option {
	return func(c *Config) error {
		c.OutputDir = dir
		return nil
	}
}

// WithWriteFunc enables byte-callback sink mode.
func WithWriteFunc(fn WriteFunc) Option {
	return func(c *Config) error {
		c.WriteFunc = fn
		return nil
	}
}

// WithLineFunc enables per-row callback mode.
func WithLineFunc(fn LineFunc) Option {
	return func(c *Config) error {
		c.LineFunc = fn
		return nil
	}
}

// WithFilingID prefixes every emitted row (including headers) with an extra
// filing_id column.
func WithFilingID(id string) Option {
	return func(c *Config) error {
		c.FilingID = &id
		return nil
	}
}

// WithSilent suppresses all diagnostics.
func WithSilent(silent bool) Option {
	return func(c *Config) error {
		c.Silent = silent
		return nil
	}
}

// WithWarnings enables soft-warning diagnostics.
func WithWarnings(warn bool) Option {
	return func(c *Config) error {
		c.Warn = warn
		return nil
	}
}

// NewConfig applies opts over a set of sane defaults and validates the
// result. At least one of OutputDir, WriteFunc, or LineFunc must end up
// configured, or ErrNoSink is returned.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{BufferSize: defaultBufferSize}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.OutputDir == "" && cfg.WriteFunc == nil && cfg.LineFunc == nil {
		return nil, ErrNoSink
	}
	return cfg, nil
}
