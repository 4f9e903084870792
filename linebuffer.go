package fecparse

import (
	"bytes"
	"io"
)

// lineBuffer pulls bytes from a byte source and re-segments them into
// logical lines on '\n'. It mirrors the teacher's Reader field layout
// (buf/bufPos/bufLen/bufErr) but exposes whole lines instead of CSV fields.
//
// A line terminates at the first '\n', which is included in the returned
// slice. An incomplete final line with no trailing '\n' is returned as-is.
// Source errors are treated as end-of-input; lineBuffer never surfaces a
// partial-line error separately from EOF.
type lineBuffer struct {
	src io.Reader

	buf    []byte
	bufPos int
	bufLen int
	bufErr error

	scratch []byte
}

// newLineBuffer creates a lineBuffer reading from src, refilling in chunks
// of at most size bytes. size <= 0 falls back to defaultBufferSize.
func newLineBuffer(src io.Reader, size int) *lineBuffer {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &lineBuffer{
		src:     src,
		buf:     make([]byte, size),
		scratch: make([]byte, 0, 512),
	}
}

// fill pulls the next chunk from src into buf. It returns the first error
// encountered; a subsequent call after a stored error returns that same
// error without touching src again.
func (lb *lineBuffer) fill() error {
	if lb.bufErr != nil {
		return lb.bufErr
	}
	n, err := lb.src.Read(lb.buf)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		lb.bufErr = err
		lb.bufPos, lb.bufLen = 0, 0
		return err
	}
	lb.bufPos, lb.bufLen = 0, n
	if err != nil {
		// Bytes were delivered alongside an error (permitted by io.Reader);
		// keep them, but remember the error for the refill after they're
		// drained.
		lb.bufErr = err
	}
	return nil
}

// readLine returns the next logical line and true, or (nil, false) at
// end-of-input. The returned slice is only valid until the next readLine
// call: callers that need to retain it must copy it.
func (lb *lineBuffer) readLine() ([]byte, bool) {
	lb.scratch = lb.scratch[:0]
	for {
		if lb.bufPos >= lb.bufLen {
			if err := lb.fill(); err != nil {
				if len(lb.scratch) == 0 {
					return nil, false
				}
				return lb.scratch, true
			}
		}
		data := lb.buf[lb.bufPos:lb.bufLen]
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			lb.scratch = append(lb.scratch, data[:idx+1]...)
			lb.bufPos += idx + 1
			return lb.scratch, true
		}
		lb.scratch = append(lb.scratch, data...)
		lb.bufPos = lb.bufLen
	}
}
