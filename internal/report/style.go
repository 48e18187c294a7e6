package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var statusColors = map[Status]lipgloss.Color{
	StatusPassed:    lipgloss.Color("2"),
	StatusFailed:    lipgloss.Color("1"),
	StatusSkipped:   lipgloss.Color("6"),
	StatusPending:   lipgloss.Color("3"),
	StatusUndefined: lipgloss.Color("3"),
}

// styler colours statuses for w. Writers that are not terminals get
// plain text.
type styler struct {
	r *lipgloss.Renderer
}

func newStyler(w io.Writer) styler {
	return styler{r: lipgloss.NewRenderer(w)}
}

func (s styler) status(st Status) string {
	style := s.r.NewStyle().Foreground(statusColors[st])
	if st == StatusFailed {
		style = style.Bold(true)
	}
	return style.Render(string(st))
}

func (s styler) summary(ok bool, text string) string {
	st := StatusPassed
	if !ok {
		st = StatusFailed
	}
	return s.r.NewStyle().Foreground(statusColors[st]).Render(text)
}
