package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/RedHatProductSecurity/osim/internal/redaction"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"unknown", log.InfoLevel},
	}

	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Fatalf("parseLevel(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestNew_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	r := NewRedactor(redaction.DefaultConfig())
	r.AddSecret("bz-0123456789", "")
	logger := New(LoggerOptions{
		Level:  "debug",
		Output: &buf,
		Prefix: "test",
		Redact: r,
	})

	logger.Info("settings saved", "bugzilla", "bz-0123456789")
	out := buf.String()
	if !strings.Contains(out, "settings saved") {
		t.Fatalf("expected message in output; got %q", out)
	}
	if strings.Contains(out, "bz-0123456789") {
		t.Fatalf("secret leaked into log: %q", out)
	}
	if !strings.Contains(out, "[REDACTED:LITERAL:") {
		t.Fatalf("expected placeholder; got %q", out)
	}
}

func TestRedactorWarnMode(t *testing.T) {
	r := NewRedactor(redaction.Config{Mode: redaction.ModeWarn})
	r.AddSecret("literal-secret")
	if got := r.String("x literal-secret"); got != "x literal-secret" {
		t.Fatalf("warn mode must not modify output, got %q", got)
	}
	r.SetMode(redaction.ModeRedact)
	if got := r.String("x literal-secret"); strings.Contains(got, "literal-secret") {
		t.Fatalf("redact mode left secret: %q", got)
	}
}

func TestNewDefault_RespectsEnvOverride(t *testing.T) {
	t.Setenv(EnvLevel, "debug")
	if logger := NewDefault(); logger.GetLevel() != log.DebugLevel {
		t.Fatalf("level = %v, want debug", logger.GetLevel())
	}
}

func TestNewFile_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "suite.log")
	logger, closer, err := NewFile(path, LoggerOptions{Level: "info"})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	logger.Info("scenario started")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "scenario started") {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestDefaultWrappers(t *testing.T) {
	old := Default()
	t.Cleanup(func() { SetDefault(old) })

	var buf bytes.Buffer
	SetDefault(New(LoggerOptions{Level: "debug", Output: &buf}))

	Debug("debug-msg")
	Info("info-msg")
	Warn("warn-msg")
	Error("error-msg")
	_ = WithPrefix("p")

	for _, want := range []string{"debug-msg", "info-msg", "warn-msg", "error-msg"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected output to contain %q; got %q", want, buf.String())
		}
	}
}
