package fecparse

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// headerForm is the synthetic form code both header styles write under;
// the resulting file is always header.csv regardless of which dispatch
// path produced it.
const headerForm = "header"

// reBeginText and reEndText recognize the F99 free-text markers per spec
// §4.7. They are fixed patterns, unlike the data-driven regexes a Mappings
// implementation compiles, so they're compiled once at package init rather
// than through StaticMappings's compileCaseInsensitive.
var (
	reBeginText = regexp.MustCompile(`(?i)^\s*\[BEGIN\s?TEXT\]\s*$`)
	reEndText   = regexp.MustCompile(`(?i)^\s*\[END\s?TEXT\]\s*$`)
)

// asciiLowerTable maps each byte to its lowercase form for the ASCII
// letters and leaves every other byte untouched, a direct port of
// original_source/src/fec.c's lowercaseTable. Used only on legacy-header
// lines: filing text elsewhere is handled as UTF-8.
var asciiLowerTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	for c := byte('A'); c <= 'Z'; c++ {
		t[c] = c - 'A' + 'a'
	}
	return t
}()

func asciiToLower(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b[i] = asciiLowerTable[s[i]]
	}
	return string(b)
}

// validateUTF8 round-trips s through the x/text UTF-8 decoder, catching
// malformed multibyte sequences that asciiToLower's byte-table pass leaves
// untouched (it only rewrites the ASCII letter range). Used on
// schedule_counts keys before they're lower-cased, since those keys can
// carry a form code with non-ASCII characters.
func validateUTF8(s string) (string, bool) {
	decoded, _, err := transform.String(unicode.UTF8.NewDecoder(), s)
	if err != nil {
		return s, false
	}
	return decoded, true
}

// makeField wraps a plain string (one assembled outside the tokenizer, e.g.
// a legacy header key or an F99 text body) into a field with freshly
// counted FIELD_INFO, so it can go through fieldEmitter like any tokenized
// value.
func makeField(s string) field {
	var info fieldInfo
	for i := 0; i < len(s); i++ {
		processFieldChar(s[i], &info)
	}
	return field{Value: s, Info: info}
}

// lineSource supplies successive decoded lines to the Parser. The F99
// continuation protocol (§4.7) needs to pull lines beyond the one it was
// handed, so the Parser is given direct access to the source rather than
// returning a "next line already consumed" flag the way the teacher
// ancestor's C implementation does (see spec §9, Open Question iii).
type lineSource interface {
	next() (line []byte, ascii28 bool, ok bool, err error)
}

// Parser is the top-level per-filing state machine: header-style dispatch,
// row classification, schema resolution, and F99 continuation, per spec
// §4.6/§4.7. It holds the filing's version and a single-slot schema cache,
// matching ParserState in spec §3.
type Parser struct {
	mappings Mappings
	w        *Writer
	emit     *fieldEmitter
	diag     *diagnostics
	filingID *string

	version string
	lineNo  int

	cachedForm   string
	cachedSchema *FormSchema
}

// newParser builds a Parser bound to one filing's Writer and Mappings.
func newParser(mappings Mappings, w *Writer, diag *diagnostics, filingID *string) *Parser {
	return &Parser{
		mappings: mappings,
		w:        w,
		emit:     newFieldEmitter(w, diag),
		diag:     diag,
		filingID: filingID,
	}
}

// DispatchHeader inspects the filing's first line and routes it to the
// legacy or inline header path per spec §4.6.
func (p *Parser) DispatchHeader(first []byte, ascii28 bool, lines lineSource) error {
	trimmed := strings.TrimSpace(strings.TrimRight(string(first), "\r\n"))
	if strings.HasPrefix(trimmed, "/*") {
		return p.processLegacyHeader(lines)
	}
	return p.processInlineHeader(first, ascii28)
}

// processLegacyHeader consumes lines starting after the opening "/* ..."
// marker already identified by DispatchHeader, until a line starting with
// "/*" closes the block. Each line becomes one key=value pair; a
// "schedule_counts" line switches subsequent keys into the
// SCHEDULE_COUNTS_ prefix mode. Keys are written to header.csv as they're
// parsed; values are assembled into valuesBuf via the Writer's divert mode
// so the values row can be emitted as a whole once the keys row is
// complete, per spec §4.4/§4.6.
func (p *Parser) processLegacyHeader(lines lineSource) error {
	if _, err := p.w.EnsureStream(headerForm, csvExtension); err != nil {
		return err
	}

	scheduleCounts := false
	firstKey := true
	var valuesBuf bytes.Buffer

	if p.filingID != nil {
		if err := p.emit.emitString(headerForm, makeField("filing_id")); err != nil {
			return err
		}
		p.w.BeginDivert(&valuesBuf)
		err := p.emit.emitString(headerForm, makeField(*p.filingID))
		p.w.EndDivert()
		if err != nil {
			return err
		}
		firstKey = false
	}

	for {
		line, _, ok, err := lines.next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		raw := strings.TrimRight(string(line), "\r\n")
		lower := asciiToLower(raw)
		lowerTrimmed := strings.TrimSpace(lower)

		if strings.HasPrefix(lowerTrimmed, "/*") {
			break
		}
		if strings.HasPrefix(lowerTrimmed, "schedule_counts") {
			scheduleCounts = true
			continue
		}

		eq := strings.IndexByte(lower, '=')
		if eq < 0 {
			continue
		}
		rawKey := raw[:eq]
		keySource := lower
		if scheduleCounts {
			if _, ok := validateUTF8(rawKey); !ok {
				p.diag.warnf(headerForm, 0, "schedule_counts key %q is not valid UTF-8, using raw bytes", rawKey)
				keySource = raw
			}
		}
		key := strings.TrimSpace(keySource[:eq])
		value := strings.TrimSpace(raw[eq+1:])
		if scheduleCounts {
			key = "SCHEDULE_COUNTS_" + key
		}
		if key == "fec_ver_#" {
			p.version = value
		}

		if !firstKey {
			if err := p.w.WriteChar(headerForm, csvExtension, ','); err != nil {
				return err
			}
			valuesBuf.WriteByte(',')
		}
		firstKey = false

		if err := p.emit.emitString(headerForm, makeField(key)); err != nil {
			return err
		}

		p.w.BeginDivert(&valuesBuf)
		err = p.emit.emitString(headerForm, makeField(value))
		p.w.EndDivert()
		if err != nil {
			return err
		}
	}

	if err := p.w.WriteChar(headerForm, csvExtension, '\n'); err != nil {
		return err
	}
	if err := p.w.EndLine(headerForm, csvExtension, nil); err != nil {
		return err
	}
	if err := p.w.WriteBytes(headerForm, csvExtension, valuesBuf.Bytes()); err != nil {
		return err
	}
	if err := p.w.WriteChar(headerForm, csvExtension, '\n'); err != nil {
		return err
	}
	return p.w.EndLine(headerForm, csvExtension, nil)
}

// processInlineHeader tokenizes the HDR row, captures the version from
// field 2 (or field 3 when field 2 is the literal "FEC"), then re-parses
// the same fields as an ordinary schema-driven row written to header.csv
// under form "HDR", per spec §4.6.
func (p *Parser) processInlineHeader(line []byte, ascii28 bool) error {
	fields := newTokenizer(line, 0, ascii28).all()
	if len(fields) < 2 {
		return nil
	}

	version := fields[1].Value
	if strings.EqualFold(fields[1].Value, "FEC") {
		if len(fields) < 3 {
			return nil
		}
		version = fields[2].Value
	}
	p.version = version

	return p.emitRow(0, "HDR", headerForm, fields, ascii28, nil)
}

// ProcessDataRow implements spec §4.7 steps 1-7 for one ordinary line: the
// first field is the form code, the rest are matched positionally against
// the resolved schema's type list.
func (p *Parser) ProcessDataRow(line []byte, ascii28 bool, lines lineSource) error {
	p.lineNo++
	t := newTokenizer(line, 0, ascii28)
	if t.done() {
		return nil
	}
	formField := t.next()
	form := strings.TrimSpace(formField.Value)
	formField.Value = form
	fields := append([]field{formField}, t.all()...)
	if len(fields) < 2 {
		// Fewer than two fields: not fully specified, abandon quietly.
		return nil
	}
	return p.emitRow(p.lineNo, form, form, fields, ascii28, lines)
}

// emitRow writes one schema-driven row. schemaForm is looked up in
// Mappings; outputForm names the Writer stream the row lands in. These
// differ only for the inline header path, where schema lookup happens
// under form "HDR" but the output file is header.csv.
func (p *Parser) emitRow(lineNo int, schemaForm, outputForm string, fields []field, ascii28 bool, lines lineSource) error {
	schema := p.resolveSchema(schemaForm)
	if schema == nil {
		p.diag.warnf(schemaForm, lineNo, "no schema for version %q form %q", p.version, schemaForm)
		return nil
	}

	fresh, err := p.w.EnsureStream(outputForm, csvExtension)
	if err != nil {
		return err
	}
	if fresh {
		if err := p.writeHeaderRow(outputForm, schema); err != nil {
			return err
		}
	}

	if p.filingID != nil {
		if err := p.emit.emitString(outputForm, makeField(*p.filingID)); err != nil {
			return err
		}
		if err := p.w.WriteChar(outputForm, csvExtension, ','); err != nil {
			return err
		}
	}
	if err := p.emit.emitString(outputForm, fields[0]); err != nil {
		return err
	}

	// schema.Types[0] is the form-code column written above; remaining
	// fields map one-based into schema.Types, i.e. data[i] pairs with
	// schema.Types[i+1].
	data := fields[1:]
	schemaLen := len(schema.Types)
	for i, f := range data {
		if err := p.w.WriteChar(outputForm, csvExtension, ','); err != nil {
			return err
		}
		if typeIdx := i + 1; typeIdx < schemaLen {
			if err := p.emit.emit(outputForm, lineNo, f, schema.Types[typeIdx]); err != nil {
				return err
			}
			continue
		}
		p.diag.warnf(outputForm, lineNo, "field %q beyond schema length %d, writing as string", f.Value, schemaLen)
		if err := p.emit.emitString(outputForm, f); err != nil {
			return err
		}
	}

	total := len(fields)
	switch {
	case total == schemaLen:
		return p.finishRow(outputForm, schema)
	case total == schemaLen-1 && lines != nil:
		return p.continueF99(outputForm, schema, lineNo, lines)
	default:
		if total < schemaLen {
			p.diag.warnf(outputForm, lineNo, "row has %d fields, schema %s expects %d", total, schemaForm, schemaLen)
		}
		return p.finishRow(outputForm, schema)
	}
}

// writeHeaderRow writes schema's canonical header string as the first line
// of outputForm's stream, prefixed with a filing_id column when configured.
func (p *Parser) writeHeaderRow(outputForm string, schema *FormSchema) error {
	if p.filingID != nil {
		if err := p.emit.emitString(outputForm, makeField("filing_id")); err != nil {
			return err
		}
		if err := p.w.WriteChar(outputForm, csvExtension, ','); err != nil {
			return err
		}
	}
	if err := p.w.WriteStr(outputForm, csvExtension, schema.Header); err != nil {
		return err
	}
	return p.w.WriteChar(outputForm, csvExtension, '\n')
}

// finishRow terminates the current row with a newline and forwards it to
// the configured LineFunc, if any.
func (p *Parser) finishRow(outputForm string, schema *FormSchema) error {
	if err := p.w.WriteChar(outputForm, csvExtension, '\n'); err != nil {
		return err
	}
	return p.w.EndLine(outputForm, csvExtension, schema.Types)
}

// resolveSchema looks up form's schema, reusing the single-slot MRU cache
// when form matches the previous lookup, per spec §3/§9.
func (p *Parser) resolveSchema(form string) *FormSchema {
	if p.cachedSchema != nil && p.cachedForm == form {
		return p.cachedSchema
	}
	schema, ok := p.mappings.LookupSchema(p.version, form)
	if !ok {
		return nil
	}
	p.cachedForm, p.cachedSchema = form, schema
	return schema
}

// continueF99 implements the free-text continuation protocol of spec §4.7.
// It is only reached when the row was short by exactly the trailing
// free-text column, which is this package's reading of "the form declares
// an F99 free-text tail" (FormSchema carries no separate flag for it; see
// DESIGN.md).
func (p *Parser) continueF99(outputForm string, schema *FormSchema, lineNo int, lines lineSource) error {
	for {
		line, ascii28, ok, err := lines.next()
		if err != nil {
			return err
		}
		if !ok {
			p.diag.warnf(outputForm, lineNo, "input ended before [BEGIN TEXT]")
			return p.finishRow(outputForm, schema)
		}
		text := strings.TrimRight(string(line), "\r\n")
		if reBeginText.MatchString(text) {
			break
		}
		trimmed := strings.TrimSpace(text)
		if trimmed != "" && !strings.HasPrefix(trimmed, "[") {
			p.diag.warnf(outputForm, lineNo, "unexpected line before [BEGIN TEXT]: %q", text)
			if err := p.finishRow(outputForm, schema); err != nil {
				return err
			}
			// The line was already pulled from the source: process it as
			// the next data row rather than dropping it.
			return p.ProcessDataRow(line, ascii28, lines)
		}
	}

	var body bytes.Buffer
	for {
		line, _, ok, err := lines.next()
		if err != nil {
			return err
		}
		if !ok {
			p.diag.warnf(outputForm, lineNo, "input ended before [END TEXT]")
			break
		}
		text := strings.TrimRight(string(line), "\r\n")
		if reEndText.MatchString(text) {
			break
		}
		body.WriteString(text)
		body.WriteByte('\n')
	}

	if err := p.w.WriteChar(outputForm, csvExtension, ','); err != nil {
		return err
	}
	if err := p.emit.emitString(outputForm, makeField(body.String())); err != nil {
		return err
	}
	return p.finishRow(outputForm, schema)
}
