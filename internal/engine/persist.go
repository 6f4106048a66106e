package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/blackwell-systems/purrwatch/internal/config"
	"github.com/blackwell-systems/purrwatch/internal/tracker"
)

// Store is the flat key-value persistence the engine reads and writes.
// Set must write all keys or none.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, values map[string][]byte) error
}

// Persisted keys.
const (
	KeyHealth         = "catHealth"
	KeyHappiness      = "catHappiness"
	KeyDailyStats     = "dailyStats"
	KeyHistory        = "historicalData"
	KeyCategories     = "websiteCategories"
	KeyScreenTimeGoal = "dailyScreenTimeGoal"
	KeyActiveDomain   = "lastActiveDomain"
	KeyActiveTime     = "lastActiveTime"
	KeyLastReset      = "lastResetDate"
	KeyPopupShown     = "popupLastShown"
	KeyMutedUntil     = "mutedUntil"
	KeySessionStart   = "sessionStartTime"
)

// AllKeys lists every persisted key.
var AllKeys = []string{
	KeyHealth, KeyHappiness, KeyDailyStats, KeyHistory, KeyCategories,
	KeyScreenTimeGoal, KeyActiveDomain, KeyActiveTime, KeyLastReset,
	KeyPopupShown, KeyMutedUntil, KeySessionStart,
}

// loadState reads every key, falling back to defaults for missing or
// unreadable values. Only a store failure is an error.
func loadState(ctx context.Context, st Store, baseline tracker.PetState, seed config.Seed) (*tracker.State, error) {
	raw, err := st.Get(ctx, AllKeys...)
	if err != nil {
		return nil, err
	}

	defaultLists := tracker.NormalizeLists(tracker.CategoryLists{
		Productive:   seed.ProductiveSites,
		Unproductive: seed.UnproductiveSites,
	})

	s := &tracker.State{
		Pet: tracker.PetState{
			Health:    clampScore(decode(raw, KeyHealth, baseline.Health)),
			Happiness: clampScore(decode(raw, KeyHappiness, baseline.Happiness)),
		},
		Daily:          decode(raw, KeyDailyStats, map[string]*tracker.DailyStats{}),
		History:        decode(raw, KeyHistory, map[string]tracker.HistoricalRecord{}),
		Categories:     decode(raw, KeyCategories, defaultLists),
		ScreenTimeGoal: decode(raw, KeyScreenTimeGoal, tracker.Millis(seed.ScreenTimeGoal)).Duration(),
		Active: tracker.ActiveSession{
			Domain:       decode(raw, KeyActiveDomain, ""),
			StartedAt:    fromMillis(decode(raw, KeyActiveTime, int64(0))),
			SessionStart: fromMillis(decode(raw, KeySessionStart, int64(0))),
		},
		LastResetDate: decode(raw, KeyLastReset, ""),
		Popup: tracker.PopupCooldown{
			LastShownAt: fromMillis(decode(raw, KeyPopupShown, int64(0))),
			MutedUntil:  fromMillis(decode(raw, KeyMutedUntil, int64(0))),
		},
	}
	if s.Daily == nil {
		s.Daily = map[string]*tracker.DailyStats{}
	}
	if s.History == nil {
		s.History = map[string]tracker.HistoricalRecord{}
	}
	if s.ScreenTimeGoal <= 0 {
		s.ScreenTimeGoal = seed.ScreenTimeGoal
	}
	return s, nil
}

// saveState writes every key in one store call.
func saveState(ctx context.Context, st Store, s *tracker.State) error {
	values := map[string]any{
		KeyHealth:         s.Pet.Health,
		KeyHappiness:      s.Pet.Happiness,
		KeyDailyStats:     s.Daily,
		KeyHistory:        s.History,
		KeyCategories:     s.Categories,
		KeyScreenTimeGoal: tracker.Millis(s.ScreenTimeGoal),
		KeyActiveDomain:   s.Active.Domain,
		KeyActiveTime:     toMillis(s.Active.StartedAt),
		KeyLastReset:      s.LastResetDate,
		KeyPopupShown:     toMillis(s.Popup.LastShownAt),
		KeyMutedUntil:     toMillis(s.Popup.MutedUntil),
		KeySessionStart:   toMillis(s.Active.SessionStart),
	}

	encoded := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", k, err)
		}
		encoded[k] = b
	}
	return st.Set(ctx, encoded)
}

// decode unmarshals raw[key] into a T, returning def when the key is
// missing, null, or malformed.
func decode[T any](raw map[string][]byte, key string, def T) T {
	b, ok := raw[key]
	if !ok || len(b) == 0 || string(b) == "null" {
		return def
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		log.Printf("[engine] ignoring unreadable %s: %v", key, err)
		return def
	}
	return v
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func clampScore(v float64) float64 {
	return max(0, min(v, 100))
}
