package logging

import (
	"io"
	"sync"

	"github.com/RedHatProductSecurity/osim/internal/redaction"
)

// Redactor scrubs credentials from everything written through it. Values
// registered with AddSecret are redacted verbatim in addition to the
// pattern-based categories.
type Redactor struct {
	mu  sync.RWMutex
	cfg redaction.Config
}

// DefaultRedactor is shared by loggers created with DefaultLoggerOptions.
var DefaultRedactor = NewRedactor(redaction.DefaultConfig())

// NewRedactor returns a Redactor using cfg.
func NewRedactor(cfg redaction.Config) *Redactor {
	return &Redactor{cfg: cfg}
}

// SetMode switches the redaction mode.
func (r *Redactor) SetMode(m redaction.Mode) {
	r.mu.Lock()
	r.cfg.Mode = m
	r.mu.Unlock()
}

// AddSecret registers literal values to redact. Empty values are ignored.
func (r *Redactor) AddSecret(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range values {
		if v != "" {
			r.cfg.Literals = append(r.cfg.Literals, v)
		}
	}
}

// Config returns a copy of the current configuration.
func (r *Redactor) Config() redaction.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg := r.cfg
	cfg.Literals = append([]string(nil), r.cfg.Literals...)
	return cfg
}

// String redacts s according to the current mode. Warn mode leaves s as is.
func (r *Redactor) String(s string) string {
	return redaction.ScanAndRedact(s, r.Config()).Output
}

// Writer wraps w so every write is redacted first.
func (r *Redactor) Writer(w io.Writer) io.Writer {
	return &redactWriter{r: r, w: w}
}

type redactWriter struct {
	r *Redactor
	w io.Writer
}

// Write reports len(p) on success even when the redacted output differs in
// length, so callers never see a short write.
func (rw *redactWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(rw.w, rw.r.String(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
