// Package artifacts writes failure evidence (a screenshot and the page
// HTML) for a scenario.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/logging"
	"github.com/RedHatProductSecurity/osim/internal/redaction"
)

// DefaultDir is where evidence lands when nothing is configured.
const DefaultDir = "~/.osim-e2e/artifacts"

// Capture lists the files written for one capture.
type Capture struct {
	Screenshot string `json:"screenshot,omitempty"`
	HTML       string `json:"html,omitempty"`
}

// Recorder captures evidence from a browser session.
type Recorder struct {
	dir      string
	redactor *logging.Redactor
	logger   *log.Logger
}

// NewRecorder returns a recorder writing under dir. A nil redactor
// writes HTML with the default redaction config.
func NewRecorder(dir string, redactor *logging.Redactor, logger *log.Logger) *Recorder {
	if dir == "" {
		dir = DefaultDir
	}
	if redactor == nil {
		redactor = logging.NewRedactor(redaction.DefaultConfig())
	}
	if logger == nil {
		logger = logging.WithPrefix("artifacts")
	}
	return &Recorder{dir: ExpandPath(dir), redactor: redactor, logger: logger}
}

// Dir returns the expanded output directory.
func (r *Recorder) Dir() string { return r.dir }

// Capture saves <slug(scenario)>-<label>.png and .html. Both files are
// attempted; the first error is returned alongside whatever was written.
func (r *Recorder) Capture(ctx context.Context, drv browser.Driver, scenario, label string) (Capture, error) {
	var out Capture
	if err := EnsureDir(r.dir); err != nil {
		return out, fmt.Errorf("create artifacts dir: %w", err)
	}
	base := filepath.Join(r.dir, Slug(scenario)+"-"+Slug(label))

	var errs []error
	if png, err := drv.Screenshot(ctx); err != nil {
		errs = append(errs, fmt.Errorf("screenshot: %w", err))
	} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		errs = append(errs, fmt.Errorf("write screenshot: %w", err))
	} else {
		out.Screenshot = base + ".png"
	}

	if html, err := drv.HTML(ctx); err != nil {
		errs = append(errs, fmt.Errorf("page html: %w", err))
	} else if err := os.WriteFile(base+".html", []byte(r.redactor.String(html)), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("write html: %w", err))
	} else {
		out.HTML = base + ".html"
	}

	if len(errs) > 0 {
		r.logger.Warn("capture incomplete", "scenario", scenario, "error", errors.Join(errs...))
		return out, errs[0]
	}
	r.logger.Info("captured failure evidence", "scenario", scenario, "screenshot", out.Screenshot, "html", out.HTML)
	return out, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and collapses every run of other characters to "-".
func Slug(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	if slug == "" {
		return "scenario"
	}
	return slug
}

// ExpandPath expands a leading "~/" to the current user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// EnsureDir creates path if it does not exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
