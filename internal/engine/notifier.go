package engine

import (
	"context"
	"time"

	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

// Notifier delivers outbound messages to connected views. Implementations
// must be safe to call from the engine goroutine; errors are logged and
// otherwise ignored.
type Notifier interface {
	SiteCategoryUpdate(ctx context.Context, tabID int, domain string, category tracker.Category) error
	ShowPopup(ctx context.Context, tabID int, pet tracker.PetState) error
	StatsUpdate(ctx context.Context, snap tracker.StatsSnapshot) error
}

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) SiteCategoryUpdate(context.Context, int, string, tracker.Category) error {
	return nil
}
func (NopNotifier) ShowPopup(context.Context, int, tracker.PetState) error  { return nil }
func (NopNotifier) StatsUpdate(context.Context, tracker.StatsSnapshot) error { return nil }

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
