package fecparse

import (
	"fmt"
	"regexp"
	"strings"
)

// FormSchema is the immutable column layout and type list for one
// (version, form code) pair, obtained exclusively from a Mappings
// implementation and cached by Parser for the duration of a run of
// matching rows.
type FormSchema struct {
	// Form is the form code this schema was resolved for, e.g. "SA11A1".
	Form string

	// Header is the comma-separated, CSV-safe column-name list written
	// verbatim as the first line of the form's output file.
	Header string

	// Types holds one type code per declared column, including the form
	// code column itself at index 0: 's' (string), 'd' (date,
	// YYYYMMDD -> YYYY-MM-DD), or 'f' (decimal). A data row's field i
	// (1-based among the fields after the form code) is emitted using
	// Types[i].
	Types []byte
}

// Mappings resolves a filing's declared version and a row's form code into
// the FormSchema that describes how to parse and emit that row. It is an
// opaque collaborator: this package ships no concrete regex table, only the
// interface and a small reference implementation (StaticMappings) usable in
// tests and as a template for a production table.
type Mappings interface {
	// LookupSchema returns the schema for (version, form), or
	// (nil, false) if no schema is registered for that pair.
	LookupSchema(version, form string) (*FormSchema, bool)
}

// HeaderRule pairs a (version, form) regex match with the header string to
// use when both match. Rules are tried in order; the first match wins.
type HeaderRule struct {
	VersionPattern string
	FormPattern    string
	Header         string
}

// TypeRule pairs a (version, form, field name) regex match with the type
// code to use for that column when all three match. Rules are tried in
// order; the first match wins. A column matching no rule defaults to 's'.
type TypeRule struct {
	VersionPattern string
	FormPattern    string
	FieldPattern   string
	Type           byte
}

// StaticMappings is a reference Mappings implementation, ported from
// original_source/src/mappings.c's formSchemaLookup/lookupType. Regex
// patterns are matched case-insensitively, standing in for the PCRE
// case-insensitivity flag the C ancestor passes to pcre_compile; Go's RE2
// engine (regexp) gets the same effect via an "(?i)" prefix, which is why
// this package reaches for the standard library here instead of a
// third-party regex engine (see DESIGN.md).
type StaticMappings struct {
	headers []compiledHeaderRule
	types   []compiledTypeRule
}

type compiledHeaderRule struct {
	version *regexp.Regexp
	form    *regexp.Regexp
	header  string
}

type compiledTypeRule struct {
	version *regexp.Regexp
	form    *regexp.Regexp
	field   *regexp.Regexp
	typ     byte
}

// NewStaticMappings compiles headers and types into a StaticMappings. It
// fails closed: any invalid regex pattern is a construction-time error
// rather than a lookup-time panic.
func NewStaticMappings(headers []HeaderRule, types []TypeRule) (*StaticMappings, error) {
	m := &StaticMappings{
		headers: make([]compiledHeaderRule, 0, len(headers)),
		types:   make([]compiledTypeRule, 0, len(types)),
	}
	for _, h := range headers {
		version, err := compileCaseInsensitive(h.VersionPattern)
		if err != nil {
			return nil, fmt.Errorf("fecparse: header version pattern %q: %w", h.VersionPattern, err)
		}
		form, err := compileCaseInsensitive(h.FormPattern)
		if err != nil {
			return nil, fmt.Errorf("fecparse: header form pattern %q: %w", h.FormPattern, err)
		}
		m.headers = append(m.headers, compiledHeaderRule{version: version, form: form, header: h.Header})
	}
	for _, t := range types {
		version, err := compileCaseInsensitive(t.VersionPattern)
		if err != nil {
			return nil, fmt.Errorf("fecparse: type version pattern %q: %w", t.VersionPattern, err)
		}
		form, err := compileCaseInsensitive(t.FormPattern)
		if err != nil {
			return nil, fmt.Errorf("fecparse: type form pattern %q: %w", t.FormPattern, err)
		}
		fieldRe, err := compileCaseInsensitive(t.FieldPattern)
		if err != nil {
			return nil, fmt.Errorf("fecparse: type field pattern %q: %w", t.FieldPattern, err)
		}
		m.types = append(m.types, compiledTypeRule{version: version, form: form, field: fieldRe, typ: t.Type})
	}
	return m, nil
}

func compileCaseInsensitive(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

// LookupSchema implements Mappings.
func (m *StaticMappings) LookupSchema(version, form string) (*FormSchema, bool) {
	for _, rule := range m.headers {
		if !rule.version.MatchString(version) || !rule.form.MatchString(form) {
			continue
		}
		columns := strings.Split(rule.header, ",")
		types := make([]byte, len(columns))
		for i, col := range columns {
			types[i] = m.lookupType(version, form, col)
		}
		return &FormSchema{Form: form, Header: rule.header, Types: types}, true
	}
	return nil, false
}

// lookupType finds the first type rule whose three regexes all match,
// defaulting to 's' (string) per spec §6.
func (m *StaticMappings) lookupType(version, form, fieldName string) byte {
	for _, rule := range m.types {
		if !rule.version.MatchString(version) {
			continue
		}
		if !rule.form.MatchString(form) {
			continue
		}
		if !rule.field.MatchString(fieldName) {
			continue
		}
		return rule.typ
	}
	return 's'
}
