// Package tracker holds the browsing-time state machine: domain
// classification, the time ledger, day rollover, health scoring, popup
// gating and the stats projection. Every function here operates on an
// explicit State value and performs no I/O.
package tracker

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidInput is returned for settings or requests that cannot be applied.
var ErrInvalidInput = errors.New("invalid input")

// Category is the productivity classification of a domain.
type Category string

const (
	Productive   Category = "productive"
	Unproductive Category = "unproductive"
	Neutral      Category = "neutral"
)

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case Productive, Unproductive, Neutral:
		return true
	}
	return false
}

// Millis is a duration that serializes as whole milliseconds.
type Millis time.Duration

// Duration converts m back to a time.Duration.
func (m Millis) Duration() time.Duration { return time.Duration(m) }

// MarshalJSON implements json.Marshaler.
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).Milliseconds())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Millis) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	*m = Millis(time.Duration(ms) * time.Millisecond)
	return nil
}

// CategoryLists are the user-editable domain substrings for each category.
type CategoryLists struct {
	Productive   []string `json:"productive"`
	Unproductive []string `json:"unproductive"`
}

// ActiveSession points at what is currently being timed. An empty Domain
// means tracking is paused.
type ActiveSession struct {
	Domain    string    `json:"domain,omitempty"`
	StartedAt time.Time `json:"startedAt,omitzero"`
	// SessionStart is when the current uninterrupted run of tracking began.
	SessionStart time.Time `json:"sessionStart,omitzero"`
}

// Tracking reports whether an interval is open.
func (a ActiveSession) Tracking() bool {
	return a.Domain != "" && !a.StartedAt.IsZero()
}

// WebsiteStat accumulates time per domain for one day.
type WebsiteStat struct {
	Time     Millis   `json:"time"`
	Category Category `json:"category"`
	Visits   int      `json:"visits"`
}

// SessionRecord is one closed, recorded interval.
type SessionRecord struct {
	ID       string    `json:"id"`
	Domain   string    `json:"domain"`
	Category Category  `json:"category"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration Millis    `json:"duration"`
}

// DailyStats is the mutable per-day ledger.
type DailyStats struct {
	Date         string                  `json:"date"`
	Productive   Millis                  `json:"productive"`
	Unproductive Millis                  `json:"unproductive"`
	Neutral      Millis                  `json:"neutral"`
	Websites     map[string]*WebsiteStat `json:"websites"`
	Sessions     []SessionRecord         `json:"sessions"`
}

// NewDailyStats returns an empty ledger for date.
func NewDailyStats(date string) *DailyStats {
	return &DailyStats{
		Date:     date,
		Websites: make(map[string]*WebsiteStat),
		Sessions: []SessionRecord{},
	}
}

// Total is the sum of all category totals.
func (d *DailyStats) Total() time.Duration {
	return d.Productive.Duration() + d.Unproductive.Duration() + d.Neutral.Duration()
}

// HistoricalRecord is the archived snapshot of a finished day.
type HistoricalRecord struct {
	Date         string                 `json:"date"`
	Productive   Millis                 `json:"productive"`
	Unproductive Millis                 `json:"unproductive"`
	Neutral      Millis                 `json:"neutral"`
	Websites     map[string]WebsiteStat `json:"websites"`
	Sessions     int                    `json:"sessions"`
	Health       float64                `json:"health"`
	Happiness    float64                `json:"happiness"`
	ArchivedAt   time.Time              `json:"archivedAt"`
}

// PetState is the derived health and happiness, each in [0, 100].
type PetState struct {
	Health    float64 `json:"health"`
	Happiness float64 `json:"happiness"`
}

// PopupCooldown gates the nag popup. Zero times mean "never".
type PopupCooldown struct {
	LastShownAt time.Time `json:"lastShownAt,omitzero"`
	MutedUntil  time.Time `json:"mutedUntil,omitzero"`
}

// State is the full persisted state the tracker operates on.
type State struct {
	Pet            PetState
	Daily          map[string]*DailyStats
	History        map[string]HistoricalRecord
	Categories     CategoryLists
	ScreenTimeGoal time.Duration
	Active         ActiveSession
	LastResetDate  string
	Popup          PopupCooldown
}

// Day returns the ledger for date, creating it if needed.
func (s *State) Day(date string) *DailyStats {
	if s.Daily == nil {
		s.Daily = make(map[string]*DailyStats)
	}
	d, ok := s.Daily[date]
	if !ok || d == nil {
		d = NewDailyStats(date)
		s.Daily[date] = d
	}
	if d.Websites == nil {
		d.Websites = make(map[string]*WebsiteStat)
	}
	return d
}
