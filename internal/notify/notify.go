// Package notify shows desktop notifications when no browser view can
// display the nag popup.
package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"runtime"

	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

// Alert is one desktop notification.
type Alert struct {
	Level   string // "warning", "critical"
	Title   string
	Message string
}

// PopupAlert builds the notification for a pet in poor health.
func PopupAlert(pet tracker.PetState) Alert {
	health := int(math.Round(pet.Health))
	switch {
	case pet.Health < 15:
		return Alert{
			Level:   "critical",
			Title:   "URGENT: your cat is critically ill",
			Message: fmt.Sprintf("Health is %d%%. Step away from the distractions.", health),
		}
	case pet.Health < 25:
		return Alert{
			Level:   "warning",
			Title:   "Your cat is quite unwell",
			Message: fmt.Sprintf("Health is %d%%. Some focused time would help.", health),
		}
	default:
		return Alert{
			Level:   "warning",
			Title:   "Your cat needs attention",
			Message: fmt.Sprintf("Health is %d%%.", health),
		}
	}
}

// Desktop delivers popups through the OS notification system.
type Desktop struct {
	// Enabled false routes every alert to Stderr.
	Enabled bool
	Stderr  io.Writer
}

// NewDesktop returns a Desktop writing fallbacks to os.Stderr.
func NewDesktop(enabled bool) *Desktop {
	return &Desktop{Enabled: enabled, Stderr: os.Stderr}
}

// Popup shows the notification for pet.
func (d *Desktop) Popup(ctx context.Context, pet tracker.PetState) error {
	return d.Notify(ctx, PopupAlert(pet))
}

// Notify sends a desktop notification. On macOS it uses osascript, on Linux
// it tries notify-send. Anything else, or a failure, prints to stderr.
func (d *Desktop) Notify(ctx context.Context, alert Alert) error {
	if !d.Enabled {
		return d.fallback(alert)
	}
	switch runtime.GOOS {
	case "darwin":
		return d.notifyMacOS(ctx, alert)
	case "linux":
		return d.notifyLinux(ctx, alert)
	default:
		return d.fallback(alert)
	}
}

func (d *Desktop) notifyMacOS(ctx context.Context, alert Alert) error {
	script := fmt.Sprintf(
		`display notification %q with title "purrwatch" subtitle %q`,
		alert.Message, alert.Title,
	)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return d.fallback(alert)
	}
	return nil
}

func (d *Desktop) notifyLinux(ctx context.Context, alert Alert) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return d.fallback(alert)
	}

	args := []string{"purrwatch: " + alert.Title, alert.Message}
	if alert.Level == "critical" {
		args = append([]string{"--urgency=critical"}, args...)
	}
	if err := exec.CommandContext(ctx, "notify-send", args...).Run(); err != nil {
		return d.fallback(alert)
	}
	return nil
}

func (d *Desktop) fallback(alert Alert) error {
	w := d.Stderr
	if w == nil {
		w = os.Stderr
	}
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}
