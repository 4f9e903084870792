package fecparse

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriterFileSink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(WithOutputDir(dir))
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	w := NewWriter(cfg)
	fresh, err := w.EnsureStream("SA11A1", csvExtension)
	if err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if !fresh {
		t.Fatalf("EnsureStream() fresh = false, want true on first call")
	}

	if err := w.WriteStr("SA11A1", csvExtension, "form_type,amount\n"); err != nil {
		t.Fatalf("WriteStr() error = %v", err)
	}
	if err := w.WriteStr("SA11A1", csvExtension, "SA11A1,100.00\n"); err != nil {
		t.Fatalf("WriteStr() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "SA11A1.csv"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "form_type,amount\nSA11A1,100.00\n"
	if string(got) != want {
		t.Fatalf("file contents = %q, want %q", got, want)
	}
}

func TestWriterNormalizesFormCodeInFilename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(WithOutputDir(dir))
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	w := NewWriter(cfg)
	if _, err := w.EnsureStream("SA/11A1", csvExtension); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "SA-11A1.csv")); err != nil {
		t.Fatalf("expected normalized filename SA-11A1.csv: %v", err)
	}
}

func TestWriterFilingIDSubdirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := NewConfig(WithOutputDir(dir), WithFilingID("123456"))
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	w := NewWriter(cfg)
	if _, err := w.EnsureStream("F3XA", csvExtension); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "123456", "F3XA.csv")); err != nil {
		t.Fatalf("expected filing-id subdirectory: %v", err)
	}
}

func TestWriterCallbackSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg, err := NewConfig(WithWriteFunc(func(form, ext string, chunk []byte) error {
		if form != "F3XA" || ext != csvExtension {
			t.Fatalf("WriteFunc() called with form=%q ext=%q", form, ext)
		}
		buf.Write(chunk)
		return nil
	}))
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	w := NewWriter(cfg)
	if err := w.WriteStr("F3XA", csvExtension, "hello\n"); err != nil {
		t.Fatalf("WriteStr() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if buf.String() != "hello\n" {
		t.Fatalf("callback buffer = %q, want %q", buf.String(), "hello\n")
	}
}

func TestWriterLineCallback(t *testing.T) {
	t.Parallel()

	var gotLine string
	var gotTypes []byte
	cfg, err := NewConfig(WithLineFunc(func(form, line string, types []byte) error {
		gotLine = line
		gotTypes = types
		return nil
	}))
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	w := NewWriter(cfg)
	if err := w.WriteStr("F3XA", csvExtension, "F3XA,100.00"); err != nil {
		t.Fatalf("WriteStr() error = %v", err)
	}
	if err := w.EndLine("F3XA", csvExtension, []byte{'s', 'f'}); err != nil {
		t.Fatalf("EndLine() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if gotLine != "F3XA,100.00" {
		t.Fatalf("LineFunc() line = %q, want %q", gotLine, "F3XA,100.00")
	}
	if string(gotTypes) != "sf" {
		t.Fatalf("LineFunc() types = %q, want %q", gotTypes, "sf")
	}
}

func TestWriterDivertRedirectsWrites(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg, err := NewConfig(WithWriteFunc(func(form, ext string, chunk []byte) error {
		buf.Write(chunk)
		return nil
	}))
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	w := NewWriter(cfg)
	var diverted bytes.Buffer
	w.BeginDivert(&diverted)
	if err := w.WriteStr("header", csvExtension, "diverted-value"); err != nil {
		t.Fatalf("WriteStr() error = %v", err)
	}
	w.EndDivert()
	if err := w.WriteStr("header", csvExtension, "normal-value"); err != nil {
		t.Fatalf("WriteStr() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if diverted.String() != "diverted-value" {
		t.Fatalf("diverted buffer = %q, want %q", diverted.String(), "diverted-value")
	}
	if buf.String() != "normal-value" {
		t.Fatalf("callback buffer = %q, want %q", buf.String(), "normal-value")
	}
}

func TestWriterDouble(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg, err := NewConfig(WithWriteFunc(func(form, ext string, chunk []byte) error {
		buf.Write(chunk)
		return nil
	}))
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	w := NewWriter(cfg)
	if err := w.WriteDouble("F3XA", 1500.5); err != nil {
		t.Fatalf("WriteDouble() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if buf.String() != "1500.50" {
		t.Fatalf("WriteDouble() wrote %q, want %q", buf.String(), "1500.50")
	}
}

func TestWriterEnsureStreamMRUShortCircuits(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(WithWriteFunc(func(form, ext string, chunk []byte) error { return nil }))
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	w := NewWriter(cfg)

	fresh, err := w.EnsureStream("F3XA", csvExtension)
	if err != nil || !fresh {
		t.Fatalf("first EnsureStream() = (%v, %v), want (true, nil)", fresh, err)
	}
	fresh, err = w.EnsureStream("F3XA", csvExtension)
	if err != nil || fresh {
		t.Fatalf("second EnsureStream() = (%v, %v), want (false, nil)", fresh, err)
	}
}
