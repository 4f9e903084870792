package fecparse

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// csvExtension is the output file extension for every per-form data stream.
// The header.csv synthetic form (§4.6) and F3-family data forms all share
// it; nothing in this package ever needs a second extension.
const csvExtension = ".csv"

// callbackWriter adapts a WriteFunc into an io.Writer so it can sit
// alongside a file in an io.MultiWriter, receiving the exact same chunks
// bufio.Writer flushes to the file.
type callbackWriter struct {
	form, ext string
	fn        WriteFunc
}

func (c callbackWriter) Write(p []byte) (int, error) {
	if err := c.fn(c.form, c.ext, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// outStream is one form's output: a buffered writer fanning out to a file
// and/or a WriteFunc callback, plus (when a LineFunc is configured) an
// accumulator for the row currently being assembled.
type outStream struct {
	form, ext string
	file      *os.File
	buf       *bufio.Writer
	lineAccum []byte
}

// Writer buffers and fans rows for N forms out to named output streams: a
// per-filing-id directory of <form>.csv files, a byte-chunk callback, a
// per-row callback, or any combination, per spec §4.4/§6. It mirrors the
// teacher's bufio-backed Writer (writer.go), generalized from one CSV stream
// to many keyed by form code, plus an in-memory divert mode the legacy
// header parser uses to assemble a values row in parallel with a keys row.
type Writer struct {
	cfg *Config

	streams map[string]*outStream
	mruForm string
	mru     *outStream

	diverting bool
	divertBuf *bytes.Buffer
}

// NewWriter builds a Writer from cfg. It does not open any streams itself;
// streams are opened lazily by EnsureStream as forms are first seen.
func NewWriter(cfg *Config) *Writer {
	return &Writer{cfg: cfg, streams: make(map[string]*outStream)}
}

// normalizeFormCode replaces path separators with '-' so a form code can
// never escape the output directory or collide with a subdirectory, per
// spec §4.4/§6 and original_source/src/writer.c's normalize_filename.
func normalizeFormCode(form string) string {
	r := strings.NewReplacer("/", "-", "\\", "-")
	return r.Replace(form)
}

// EnsureStream looks up or lazily creates the output stream for form,
// returning true if this call created it (so the caller knows to write the
// header row first). A single most-recently-used slot short-circuits the
// common case of many consecutive rows under one form.
func (w *Writer) EnsureStream(form, ext string) (fresh bool, err error) {
	if w.mru != nil && w.mruForm == form && w.mru.ext == ext {
		return false, nil
	}
	key := form + "\x00" + ext
	if s, ok := w.streams[key]; ok {
		w.mruForm, w.mru = form, s
		return false, nil
	}

	s, err := w.openStream(form, ext)
	if err != nil {
		return false, fmt.Errorf("%w: form %s: %v", ErrOpenStream, form, err)
	}
	w.streams[key] = s
	w.mruForm, w.mru = form, s
	return true, nil
}

func (w *Writer) openStream(form, ext string) (*outStream, error) {
	var sinks []io.Writer

	if w.cfg.OutputDir != "" {
		dir := w.cfg.OutputDir
		if w.cfg.FilingID != nil {
			dir = filepath.Join(dir, *w.cfg.FilingID)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, normalizeFormCode(form)+ext)
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, f)
		s := &outStream{form: form, ext: ext, file: f}
		if w.cfg.WriteFunc != nil {
			sinks = append(sinks, callbackWriter{form: form, ext: ext, fn: w.cfg.WriteFunc})
		}
		s.buf = bufio.NewWriterSize(io.MultiWriter(sinks...), w.cfg.BufferSize)
		return s, nil
	}

	if w.cfg.WriteFunc != nil {
		s := &outStream{form: form, ext: ext}
		s.buf = bufio.NewWriterSize(callbackWriter{form: form, ext: ext, fn: w.cfg.WriteFunc}, w.cfg.BufferSize)
		return s, nil
	}

	// Line-callback-only configuration: nothing needs to hit a byte sink.
	s := &outStream{form: form, ext: ext}
	s.buf = bufio.NewWriterSize(io.Discard, w.cfg.BufferSize)
	return s, nil
}

// writeTo routes bytes either into the active divert buffer or to form's
// stream, accumulating into the stream's line buffer when a LineFunc is
// configured.
func (w *Writer) writeTo(form, ext string, p []byte) error {
	if w.diverting {
		w.divertBuf.Write(p)
		return nil
	}
	if _, err := w.EnsureStream(form, ext); err != nil {
		return err
	}
	s := w.mru
	if w.cfg.LineFunc != nil {
		s.lineAccum = append(s.lineAccum, p...)
	}
	_, err := s.buf.Write(p)
	return err
}

// WriteBytes writes raw bytes to form's stream (or the active divert
// buffer).
func (w *Writer) WriteBytes(form, ext string, p []byte) error {
	return w.writeTo(form, ext, p)
}

// WriteStr writes a string to form's stream.
func (w *Writer) WriteStr(form, ext, s string) error {
	return w.writeTo(form, ext, []byte(s))
}

// WriteChar writes a single byte to form's stream.
func (w *Writer) WriteChar(form, ext string, c byte) error {
	return w.writeTo(form, ext, []byte{c})
}

// WriteDouble formats v with two fixed decimal places and writes it to
// form's CSV stream, per original_source/src/writer.c's
// NUMBER_FORMAT = "%.2f".
func (w *Writer) WriteDouble(form string, v float64) error {
	return w.WriteStr(form, csvExtension, strconv.FormatFloat(v, 'f', 2, 64))
}

// EndLine flushes the just-completed row to the configured LineFunc, if
// any, passing along the schema's type codes so a caller can reinterpret
// the emitted values. It is a no-op when no LineFunc is configured or while
// diverting.
func (w *Writer) EndLine(form string, ext string, types []byte) error {
	if w.cfg.LineFunc == nil || w.diverting {
		return nil
	}
	if _, err := w.EnsureStream(form, ext); err != nil {
		return err
	}
	s := w.mru
	line := string(s.lineAccum)
	s.lineAccum = s.lineAccum[:0]
	return w.cfg.LineFunc(form, line, types)
}

// BeginDivert redirects all subsequent writes into buf instead of any
// form's stream, until EndDivert is called. Used by the legacy header
// parser (§4.6) to assemble a values row in parallel with a keys row.
func (w *Writer) BeginDivert(buf *bytes.Buffer) {
	w.diverting = true
	w.divertBuf = buf
}

// EndDivert stops redirecting writes into the divert buffer.
func (w *Writer) EndDivert() {
	w.diverting = false
	w.divertBuf = nil
}

// Close flushes and closes every stream opened so far. The first error
// encountered is returned; Close still attempts to close every remaining
// stream.
func (w *Writer) Close() error {
	var firstErr error
	for _, s := range w.streams {
		if err := s.buf.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		if s.file != nil {
			if err := s.file.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
