package tracker

import (
	"time"

	"github.com/blackwell-systems/purrwatch/internal/config"
	"github.com/google/uuid"
)

// dateLayout is the calendar-day key format for DailyStats and history.
const dateLayout = "2006-01-02"

// retentionDays is how long archived history is kept.
const retentionDays = 30

// Tracker applies the configured tracking rules to a State. It holds only
// immutable configuration; a new Tracker is built when configuration changes.
type Tracker struct {
	tracking config.Tracking
	scoring  config.Scoring
	popup    config.Popup
	topSites int
	loc      *time.Location
	newID    func() string
}

// New builds a Tracker from cfg. Calendar days are computed in loc; a nil
// loc means the host's local time zone.
func New(cfg *config.Config, loc *time.Location) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	scoring := cfg.Scoring
	scoring.PenaltyBands = append([]config.PenaltyBand(nil), cfg.Scoring.PenaltyBands...)
	return &Tracker{
		tracking: cfg.Tracking,
		scoring:  scoring,
		popup:    cfg.Popup,
		topSites: cfg.Snapshot.TopSites,
		loc:      loc,
		newID:    uuid.NewString,
	}
}

// DayKey returns the calendar-day key for t.
func (t *Tracker) DayKey(ts time.Time) string {
	return ts.In(t.loc).Format(dateLayout)
}

// Baseline returns the pet state a fresh day starts with.
func (t *Tracker) Baseline() PetState {
	return PetState{Health: t.scoring.BaselineHealth, Happiness: t.scoring.BaselineHappiness}
}

// MuteDuration is how long a user-initiated mute lasts.
func (t *Tracker) MuteDuration() time.Duration {
	return t.popup.MuteDuration
}

// dayOffset returns the key for the calendar day n days from ts. It walks
// calendar dates rather than 24h steps so DST transitions do not skip days.
func (t *Tracker) dayOffset(ts time.Time, n int) string {
	local := ts.In(t.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d+n, 12, 0, 0, 0, t.loc).Format(dateLayout)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
