// Package fecparse streams a single FEC (U.S. Federal Election Commission)
// electronic filing and converts it into one normalized CSV file per form
// code.
//
// # Pipeline
//
// A filing is a header followed by many records, delimited by either commas
// (older filing versions) or the ASCII file-separator byte 0x1C (newer
// versions). fecparse reads the filing one line at a time, classifies each
// record by its form code (SA11A1, F3XA, ...), resolves the expected column
// layout and per-column types for the filing's declared version through a
// Mappings implementation, and writes a typed, CSV-escaped row to the
// corresponding output stream.
//
// # Usage
//
//	cfg, err := fecparse.NewConfig(fecparse.WithOutputDir("./out"))
//	orch := fecparse.New(mappings, cfg)
//	err = orch.Parse(r)
//
// The package never validates the semantic correctness of a filing; it only
// reshapes it into CSV. Mappings is supplied by the caller: fecparse treats
// the FEC version/form-code regex table as an opaque collaborator.
package fecparse
