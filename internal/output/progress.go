package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HealthBar renders a visual bar for a 0-100 pet score.
// Example: "████████░░ 80/100"
func HealthBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int((score / 100.0) * float64(width))
	filled = max(0, min(filled, width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", ScoreStyle(score).Render(bar), StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// ScoreStyle colors a score by band: healthy at 50 and above, warning
// from 25, critical below.
func ScoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 50:
		return StyleSuccess
	case score >= 25:
		return StyleWarning
	default:
		return StyleError
	}
}

// DeltaArrow returns a styled indicator for a day-over-day health change.
// Zero shows a dash.
func DeltaArrow(delta float64) string {
	switch {
	case delta > 0:
		return StyleSuccess.Render(fmt.Sprintf("▲ +%.0f", delta))
	case delta < 0:
		return StyleError.Render(fmt.Sprintf("▼ %.0f", delta))
	default:
		return StyleMuted.Render("─")
	}
}

// Metric renders one "label  value" line.
func Metric(label, value string) string {
	return " " + StyleLabel.Render(label) + value
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 48))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
