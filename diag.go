package fecparse

import (
	"fmt"
	"io"
	"os"
)

// diagnostics is the soft-warning channel described in spec §7: unknown
// forms, malformed dates/floats, and over-long rows are reported here and
// parsing continues. Nothing written through it ever aborts a parse.
type diagnostics struct {
	w      io.Writer
	warn   bool
	silent bool
}

// newDiagnostics builds a diagnostics channel from a Config's Warn and
// Silent flags. Warnings are always written to os.Stderr; Config has no
// option to redirect them.
func newDiagnostics(cfg *Config) *diagnostics {
	return &diagnostics{w: os.Stderr, warn: cfg.Warn, silent: cfg.Silent}
}

// warnf reports a soft condition. It is a no-op unless Warn is set and
// Silent is not.
func (d *diagnostics) warnf(form string, lineNo int, format string, args ...any) {
	if d == nil || d.silent || !d.warn {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(d.w, "fecparse: warning: form %s, line %d: %s\n", form, lineNo, msg)
}
