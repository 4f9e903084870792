package fecparse

import "io"

// decodedLineSource adapts a lineBuffer into a lineSource by running every
// line it yields through decodeLine, so the Parser only ever sees
// well-formed UTF-8.
type decodedLineSource struct {
	lb *lineBuffer
}

func (s *decodedLineSource) next() (line []byte, ascii28 bool, ok bool, err error) {
	raw, more := s.lb.readLine()
	if !more {
		return nil, false, false, nil
	}
	decoded, hasASCII28, err := decodeLine(raw)
	if err != nil {
		return nil, false, false, err
	}
	return decoded, hasASCII28, true, nil
}

// Orchestrator wires a byte source to a Parser and Writer for one filing,
// per spec §4.8. It owns no state across filings: a fresh Orchestrator
// should be created per Parse call's worth of independent state, though a
// single instance may safely be reused sequentially since New captures only
// the immutable Mappings and Config.
type Orchestrator struct {
	mappings Mappings
	cfg      *Config
}

// New builds an Orchestrator that resolves schemas through mappings and
// configures output per cfg.
func New(mappings Mappings, cfg *Config) *Orchestrator {
	return &Orchestrator{mappings: mappings, cfg: cfg}
}

// Parse reads one filing from src to completion: first line -> header
// dispatch -> successive data rows until EOF. It returns the first fatal
// error encountered (see errors.go); soft conditions are reported through
// diagnostics and do not stop the parse.
func (o *Orchestrator) Parse(src io.Reader) (err error) {
	if src == nil {
		return ErrNilSource
	}

	diag := newDiagnostics(o.cfg)
	w := NewWriter(o.cfg)
	defer func() {
		if closeErr := w.Close(); err == nil {
			err = closeErr
		}
	}()

	lines := &decodedLineSource{lb: newLineBuffer(src, o.cfg.BufferSize)}

	first, ascii28, ok, firstErr := lines.next()
	if firstErr != nil {
		return firstErr
	}
	if !ok {
		return ErrFirstLine
	}

	p := newParser(o.mappings, w, diag, o.cfg.FilingID)
	if err := p.DispatchHeader(first, ascii28, lines); err != nil {
		return err
	}

	for {
		line, ascii28, ok, lineErr := lines.next()
		if lineErr != nil {
			return lineErr
		}
		if !ok {
			break
		}
		if err := p.ProcessDataRow(line, ascii28, lines); err != nil {
			return err
		}
	}

	return nil
}
