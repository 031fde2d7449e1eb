package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Theme defines the terminal color scheme.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	Warn    lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Warn:    lipgloss.Color("#e3b341"),
	Error:   lipgloss.Color("#f85149"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Warn   lipgloss.Style
	Error  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(t.Dim),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Warn:   lipgloss.NewStyle().Foreground(t.Warn),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// DefaultStyles are the styles of DefaultTheme.
var DefaultStyles = NewStyles(DefaultTheme)

// Table renders rows under headers with a rounded border.
func (s Styles) Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return s.Cell
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

// Print helpers for terminal status lines. They write to w, usually stderr,
// so stdout carries only results.

// PrintSuccess prints a success message with checkmark
func (s Styles) PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, s.Title.Render("✓ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints an info message
func (s Styles) PrintInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, s.Help.Render(fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func (s Styles) PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, s.Warn.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintError prints an error message
func (s Styles) PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, s.Error.Render("Error: "+fmt.Sprintf(format, args...)))
}
