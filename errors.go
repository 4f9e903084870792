package fecparse

import "errors"

// Sentinel errors returned by NewConfig and Orchestrator.Parse. Callers
// compare against these with errors.Is: ErrOpenStream is wrapped with the
// form code that failed, the others are returned as they are.
var (
	// ErrNoSink is returned by NewConfig when neither an output directory
	// nor a write/line callback was configured.
	ErrNoSink = errors.New("fecparse: no output sink configured")

	// ErrFirstLine is fatal: the filing's first line could not be read.
	ErrFirstLine = errors.New("fecparse: could not read first line of filing")

	// ErrOpenStream is fatal: an output stream could not be opened.
	ErrOpenStream = errors.New("fecparse: could not open output stream")

	// ErrUnknownType is fatal: a FormSchema declared a type code other than
	// 's', 'd', or 'f'. This indicates a bug in the Mappings implementation,
	// not a malformed filing.
	ErrUnknownType = errors.New("fecparse: unknown field type code")

	// ErrNilSource is fatal: Parse was called with a nil io.Reader.
	ErrNilSource = errors.New("fecparse: input source is nil")
)
