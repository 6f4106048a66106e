package output

import (
	"strings"
	"testing"
)

func TestHealthBar(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tests := []struct {
		score      float64
		width      int
		wantFilled int
		wantLabel  string
	}{
		{80, 10, 8, "80/100"},
		{0, 10, 0, "0/100"},
		{100, 10, 10, "100/100"},
		{150, 10, 10, "150/100"},
		{-5, 10, 0, "-5/100"},
		{50, 0, 10, "50/100"},
	}
	for _, tc := range tests {
		got := HealthBar(tc.score, tc.width)
		if n := strings.Count(got, "█"); n != tc.wantFilled {
			t.Errorf("HealthBar(%v, %d) filled = %d, want %d", tc.score, tc.width, n, tc.wantFilled)
		}
		if !strings.HasSuffix(got, tc.wantLabel) {
			t.Errorf("HealthBar(%v, %d) = %q, want suffix %q", tc.score, tc.width, got, tc.wantLabel)
		}
	}
}

func TestScoreStyle_Bands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{90, "success"},
		{50, "success"},
		{49, "warning"},
		{25, "warning"},
		{24.9, "error"},
	}
	for _, tc := range tests {
		var want = map[string]any{
			"success": StyleSuccess.GetForeground(),
			"warning": StyleWarning.GetForeground(),
			"error":   StyleError.GetForeground(),
		}[tc.want]
		if got := ScoreStyle(tc.score).GetForeground(); got != want {
			t.Errorf("ScoreStyle(%v) foreground = %v, want %s", tc.score, got, tc.want)
		}
	}
}

func TestDeltaArrow(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := DeltaArrow(4); got != "▲ +4" {
		t.Errorf("DeltaArrow(4) = %q", got)
	}
	if got := DeltaArrow(-2.4); got != "▼ -2" {
		t.Errorf("DeltaArrow(-2.4) = %q", got)
	}
	if got := DeltaArrow(0); got != "─" {
		t.Errorf("DeltaArrow(0) = %q", got)
	}
}

func TestCategoryStyle(t *testing.T) {
	if CategoryStyle("productive").GetForeground() != StyleSuccess.GetForeground() {
		t.Error("productive should use success style")
	}
	if CategoryStyle("unproductive").GetForeground() != StyleError.GetForeground() {
		t.Error("unproductive should use error style")
	}
	if CategoryStyle("neutral").GetForeground() != StyleMuted.GetForeground() {
		t.Error("neutral should use muted style")
	}
}

func TestMetricAndSection(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := Metric("Health", "80"); !strings.Contains(got, "Health") || !strings.HasSuffix(got, "80") {
		t.Errorf("Metric = %q", got)
	}
	if got := Section("Today"); !strings.Contains(got, "Today") || !strings.Contains(got, "─") {
		t.Errorf("Section = %q", got)
	}
}
