// Package output provides styled terminal rendering helpers for purrwatch.
package output

import "github.com/charmbracelet/lipgloss"

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#f4a261")

	// ColorSuccess is used for healthy values and productive time.
	ColorSuccess = lipgloss.Color("#66bb6a")

	// ColorError is used for critical values and unproductive time.
	ColorError = lipgloss.Color("#ef5350")

	// ColorWarning is used for caution indicators.
	ColorWarning = lipgloss.Color("#fff59d")

	// ColorMuted is used for secondary text, borders and neutral time.
	ColorMuted = lipgloss.Color("#888888")
)

// Styles provides reusable lipgloss styles. SetNoColor rebuilds them.
var (
	StyleHeader  lipgloss.Style
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleBold    lipgloss.Style

	// StyleLabel is used for metric labels.
	StyleLabel lipgloss.Style

	// StyleValue is used for metric values.
	StyleValue lipgloss.Style
)

func init() {
	applyStyles(true)
}

// noColor tracks whether color output is disabled.
var noColor bool

// SetNoColor disables or enables color output globally.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(!disabled)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

func applyStyles(color bool) {
	fg := func(c lipgloss.Color) lipgloss.Style {
		if !color {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(c)
	}

	StyleHeader = fg(ColorPrimary).Bold(color)
	StyleSuccess = fg(ColorSuccess)
	StyleError = fg(ColorError)
	StyleWarning = fg(ColorWarning)
	StyleMuted = fg(ColorMuted)
	StyleBold = lipgloss.NewStyle().Bold(color)
	StyleLabel = lipgloss.NewStyle().Width(18)
	StyleValue = lipgloss.NewStyle().Bold(color).Width(12)
}

// CategoryStyle returns the style for a category name.
func CategoryStyle(category string) lipgloss.Style {
	switch category {
	case "productive":
		return StyleSuccess
	case "unproductive":
		return StyleError
	default:
		return StyleMuted
	}
}
