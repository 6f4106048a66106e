package tracker

import "time"

// MaxHistoryDays bounds history queries to the retention window.
const MaxHistoryDays = retentionDays

// DefaultHistoryDays is used when a history query names no day count.
const DefaultHistoryDays = 7

// DayRecord is one row of the history view.
type DayRecord struct {
	Date              string  `json:"date"`
	Productive        Millis  `json:"productive"`
	Unproductive      Millis  `json:"unproductive"`
	Neutral           Millis  `json:"neutral"`
	ProductivityScore int     `json:"productivityScore"`
	Health            float64 `json:"health"`
	Happiness         float64 `json:"happiness"`
	Sessions          int     `json:"sessions"`
	InProgress        bool    `json:"inProgress"`
}

// History returns up to daysBack per-day records, most recent first. Today
// is always included as an in-progress entry; past days without an archived
// record are skipped. daysBack is clamped to [1, MaxHistoryDays].
func (t *Tracker) History(s *State, now time.Time, daysBack int) []DayRecord {
	daysBack = max(1, min(daysBack, MaxHistoryDays))

	today := t.DayKey(now)
	day, ok := s.Daily[today]
	if !ok || day == nil {
		day = NewDailyStats(today)
	}
	out := []DayRecord{{
		Date:              today,
		Productive:        day.Productive,
		Unproductive:      day.Unproductive,
		Neutral:           day.Neutral,
		ProductivityScore: t.ProductivityScore(day.Productive.Duration(), day.Unproductive.Duration(), day.Neutral.Duration()),
		Health:            s.Pet.Health,
		Happiness:         s.Pet.Happiness,
		Sessions:          len(day.Sessions),
		InProgress:        true,
	}}

	for i := 1; i < daysBack; i++ {
		date := t.dayOffset(now, -i)
		rec, ok := s.History[date]
		if !ok {
			continue
		}
		out = append(out, t.recordRow(rec))
	}
	return out
}

// WeeklyProgress returns the last seven days, oldest first, ending today.
// Days with no data are present with zero totals.
func (t *Tracker) WeeklyProgress(s *State, now time.Time) []DayRecord {
	out := make([]DayRecord, 0, 7)
	for i := 6; i >= 1; i-- {
		date := t.dayOffset(now, -i)
		if rec, ok := s.History[date]; ok {
			out = append(out, t.recordRow(rec))
			continue
		}
		out = append(out, DayRecord{Date: date, ProductivityScore: 100})
	}
	return append(out, t.History(s, now, 1)[0])
}

func (t *Tracker) recordRow(rec HistoricalRecord) DayRecord {
	return DayRecord{
		Date:              rec.Date,
		Productive:        rec.Productive,
		Unproductive:      rec.Unproductive,
		Neutral:           rec.Neutral,
		ProductivityScore: t.ProductivityScore(rec.Productive.Duration(), rec.Unproductive.Duration(), rec.Neutral.Duration()),
		Health:            rec.Health,
		Happiness:         rec.Happiness,
		Sessions:          rec.Sessions,
	}
}
