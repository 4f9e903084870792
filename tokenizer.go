package fecparse

// fieldInfo counts raw commas and quotes observed inside a field's value
// before any unescaping, so the emitter can decide whether CSV escaping is
// needed without rescanning the decoded value.
type fieldInfo struct {
	NumCommas int
	NumQuotes int
}

// field is a short-lived copy of one tokenized value. The teacher's Field
// views (reader.go's fieldBounds-into-dataBuf approach) are borrowed slices
// for performance; here fields are copied out immediately into an owned
// string, the "acceptable simplification" spec §9 calls out for a GC'd
// language, since filing fields are small (tens of bytes).
type field struct {
	Value string
	Info  fieldInfo
}

// tokenizer splits one decoded line into successive fields, in either CSV
// (RFC-4180-style quote escaping) or ASCII-28 delimited mode. It scans the
// line left to right exactly once; line is mutated in place while unescaping
// quoted CSV fields, so the bytes of line after the cursor are not the
// original input. Each field returned by next holds its own copy of the
// value and stays valid after later calls.
type tokenizer struct {
	line    []byte
	pos     int
	count   int
	ascii28 bool
}

// newTokenizer creates a tokenizer over line starting at byte offset start,
// operating in ASCII-28 mode when ascii28 is true and CSV mode otherwise.
func newTokenizer(line []byte, start int, ascii28 bool) *tokenizer {
	return &tokenizer{line: line, pos: start, ascii28: ascii28}
}

// byteAt returns the byte at i, or 0 if i is out of range - the Go
// equivalent of the teacher C source's reliance on a NUL line terminator.
func (t *tokenizer) byteAt(i int) byte {
	if i < 0 || i >= len(t.line) {
		return 0
	}
	return t.line[i]
}

// done reports whether the cursor sits at the line terminator or end of
// input, i.e. there are no more fields to read.
func (t *tokenizer) done() bool {
	c := t.byteAt(t.pos)
	return c == 0 || c == '\n'
}

func processFieldChar(c byte, info *fieldInfo) {
	switch c {
	case '"':
		info.NumQuotes++
	case ',':
		info.NumCommas++
	}
}

// stripQuotes removes a single layer of surrounding quotes when both the
// first and last byte of the field are '"'. This is the ASCII-28 mode quote
// handling spec §9 (Open Question ii) flags as lossy for legitimately
// quoted content; it is kept because it is the source's observable
// behavior and no §8 scenario exercises the lossy case.
func stripQuotes(value []byte, info *fieldInfo) []byte {
	if len(value) > 1 && value[0] == '"' && value[len(value)-1] == '"' {
		info.NumQuotes -= 2
		return value[1 : len(value)-1]
	}
	return value
}

// readASCII28Field runs from the cursor to the next 0x1C, '\n', or end of
// input, counting raw commas/quotes as it goes, then applies stripQuotes.
func (t *tokenizer) readASCII28Field() field {
	start := t.pos
	var info fieldInfo
	for {
		c := t.byteAt(t.pos)
		if c == 0 || c == ascii28 || c == '\n' {
			break
		}
		processFieldChar(c, &info)
		t.pos++
	}
	value := stripQuotes(t.line[start:t.pos], &info)
	return field{Value: string(value), Info: info}
}

// readCSVSubfield reads one CSV field starting at the cursor, unescaping a
// leading-quote "escaped" field in place (each "" collapses to a single ")
// and stopping at the first unescaped ',', '\n', or end of input. This is a
// direct port of the teacher's ancestor C routine (original_source's
// readCsvSubfield in csv.c): quoted fields are always longer escaped than
// decoded, so the in-place left-shift is always safe.
func (t *tokenizer) readCSVSubfield() field {
	escaped := t.byteAt(t.pos) == '"'
	if escaped {
		t.pos++
	}
	start := t.pos
	offset := 0
	var info fieldInfo

	for {
		if offset != 0 && t.pos < len(t.line) {
			t.line[t.pos-offset] = t.line[t.pos]
		}
		c := t.byteAt(t.pos)
		isEOF := t.pos >= len(t.line) || c == 0
		isEOL := !escaped && (c == ',' || c == '\n')
		if isEOF || isEOL {
			length := (t.pos - start) - offset
			return field{Value: string(t.line[start : start+length]), Info: info}
		}
		processFieldChar(c, &info)
		if escaped && c == '"' {
			if t.byteAt(t.pos+1) != '"' {
				length := (t.pos - start) - offset
				value := string(t.line[start : start+length])
				t.pos++
				info.NumQuotes--
				return field{Value: value, Info: info}
			}
			t.pos++
			offset++
		}
		t.pos++
	}
}

// readCSVField reads a CSV field and strips one surrounding layer of quotes
// if present, mirroring the teacher's ancestor readCsvField = readCsvSubfield
// + stripQuotes in csv.c. Stripping is unconditional on the result, not just
// on one of readCSVSubfield's return paths: a field like `"""FEC"""` closes
// via the escaped-quote-mismatch path yet still carries an outer quote pair
// that must come off.
func (t *tokenizer) readCSVField() field {
	f := t.readCSVSubfield()
	value := []byte(f.Value)
	stripped := stripQuotes(value, &f.Info)
	if len(stripped) != len(value) {
		f.Value = string(stripped)
	}
	return f
}

// next returns the field at the cursor and advances past it plus one
// trailing delimiter, if the cursor isn't already at the line terminator.
func (t *tokenizer) next() field {
	var f field
	if t.ascii28 {
		f = t.readASCII28Field()
	} else {
		f = t.readCSVField()
	}
	t.count++
	if !t.done() {
		t.pos++
	}
	return f
}

// all drains every remaining field from the tokenizer, in order. Parser
// processes a full line's fields before emitting any of them (see parser.go
// ProcessDataRow), which lets it examine the final field count before
// deciding between an exact-match row and an F99 continuation without
// re-scanning the line.
func (t *tokenizer) all() []field {
	var fields []field
	for !t.done() {
		fields = append(fields, t.next())
	}
	return fields
}
