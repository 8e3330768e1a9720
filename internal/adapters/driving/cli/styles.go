package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/docstruct/internal/core/domain"
)

// theme is the colour palette for terminal output.
type theme struct {
	Primary lipgloss.Color
	Head    lipgloss.Color
	Body    lipgloss.Color
	Tail    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

func defaultTheme() theme {
	return theme{
		Primary: lipgloss.Color("#7C3AED"), // Purple
		Head:    lipgloss.Color("#06B6D4"), // Cyan
		Body:    lipgloss.Color("#CDD6F4"), // Light gray
		Tail:    lipgloss.Color("#F9E2AF"), // Yellow
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Success: lipgloss.Color("#A6E3A1"), // Green
		Warning: lipgloss.Color("#FAB387"), // Orange
		Error:   lipgloss.Color("#F38BA8"), // Red
	}
}

// styles renders for one writer. The renderer drops colours when the
// writer is not a terminal, so piped output stays plain.
type styles struct {
	Heading lipgloss.Style
	Head    lipgloss.Style
	Body    lipgloss.Style
	Tail    lipgloss.Style
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	r := lipgloss.NewRenderer(w)
	t := defaultTheme()

	return &styles{
		Heading: r.NewStyle().Bold(true).Foreground(t.Primary),
		Head:    r.NewStyle().Foreground(t.Head),
		Body:    r.NewStyle().Foreground(t.Body),
		Tail:    r.NewStyle().Foreground(t.Tail),
		Title:   r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(t.Muted),
		Success: r.NewStyle().Foreground(t.Success),
		Warning: r.NewStyle().Foreground(t.Warning),
		Error:   r.NewStyle().Foreground(t.Error),
	}
}

// region returns the style for elements in the named region.
func (s *styles) region(r domain.Region) lipgloss.Style {
	switch r {
	case domain.RegionHead:
		return s.Head
	case domain.RegionTail:
		return s.Tail
	default:
		return s.Body
	}
}

// status returns the style for a run outcome.
func (s *styles) status(status domain.RunStatus) lipgloss.Style {
	switch status {
	case domain.RunApplied:
		return s.Success
	case domain.RunFailed:
		return s.Error
	default:
		return s.Muted
	}
}

// terminalWidth returns the column count of w, or 0 when w is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
