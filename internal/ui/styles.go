package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
const (
	ColorLime     = "154" // Primary accent
	ColorLimeDim  = "106" // Stage tags
	ColorGray     = "245" // Secondary text
	ColorDarkGray = "238" // Separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds the text styles for terminal output.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Stage   lipgloss.Style
	Label   lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Stage:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
	}
}

// NoColorStyles returns unstyled components.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:  plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Dim:     plain,
		Stage:   plain,
		Label:   plain,
	}
}

// GetStyles returns the styles for the color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}

// StyledRenderer writes colored lines to an interactive terminal.
type StyledRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
}

// NewStyledRenderer creates a colored renderer.
func NewStyledRenderer(out io.Writer) *StyledRenderer {
	return &StyledRenderer{out: out, styles: DefaultStyles()}
}

// UpdateProgress implements Renderer.
func (r *StyledRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tag := r.styles.Stage.Render(fmt.Sprintf("%-7s", event.Stage.Icon()))
	msg := event.Message
	if msg == "" {
		msg = event.File
	}
	if event.Total > 0 {
		count := r.styles.Label.Render(fmt.Sprintf("%d/%d", event.Current, event.Total))
		_, _ = fmt.Fprintf(r.out, "%s %s %s\n", tag, count, msg)
		return
	}
	if msg != "" {
		_, _ = fmt.Fprintf(r.out, "%s %s\n", tag, msg)
	}
}

// AddError implements Renderer.
func (r *StyledRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	style, prefix := r.styles.Error, "error"
	if event.IsWarn {
		style, prefix = r.styles.Warning, "warn"
	}
	line := fmt.Sprintf("%s %v", prefix, event.Err)
	if event.File != "" {
		line = fmt.Sprintf("%s %s: %v", prefix, event.File, event.Err)
	}
	_, _ = fmt.Fprintln(r.out, style.Render(line))
}

// Complete implements Renderer.
func (r *StyledRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	head := r.styles.Header.Render("Indexed")
	body := fmt.Sprintf("%d files, %d symbols", s.Files, s.Symbols)
	if s.Deleted > 0 {
		body += fmt.Sprintf(", %d removed", s.Deleted)
	}
	took := r.styles.Dim.Render("in " + s.Duration.Round(100*time.Millisecond).String())
	_, _ = fmt.Fprintf(r.out, "%s %s %s\n", head, body, took)
	if s.Warnings > 0 {
		_, _ = fmt.Fprintln(r.out, r.styles.Warning.Render(fmt.Sprintf("%d files skipped with warnings", s.Warnings)))
	}
}
