package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles groups the lipgloss styles used across prompts and status
// output. With color disabled every style renders plain text.
type Styles struct {
	Title   lipgloss.Style
	Option  lipgloss.Style
	Cursor  lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the standard palette, or unstyled text when
// noColor is set or stdout is not a terminal.
func DefaultStyles(noColor bool) Styles {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		plain := lipgloss.NewStyle()
		return Styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		Option:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Cursor:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// IsTerminal reports whether stdout is attached to a terminal. The
// interactive wizard refuses to run without one.
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}
