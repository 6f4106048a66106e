package tracker

import "time"

// CheckRollover archives the previous day and resets per-day state when the
// calendar day of now differs from the last rollover. It returns true when a
// rollover happened. Calling it again within the same day is a no-op.
func (t *Tracker) CheckRollover(s *State, now time.Time) bool {
	today := t.DayKey(now)
	if s.LastResetDate == today {
		return false
	}

	if s.History == nil {
		s.History = make(map[string]HistoricalRecord)
	}

	yesterday := t.dayOffset(now, -1)
	if day, ok := s.Daily[yesterday]; ok && day != nil && day.Total() > 0 {
		s.History[yesterday] = archive(yesterday, day, s.Pet, now)
	}

	cutoff := t.dayOffset(now, -retentionDays)
	for date := range s.History {
		// Keys are ISO dates, so lexical order is calendar order.
		if date < cutoff || date >= today {
			delete(s.History, date)
		}
	}

	s.Daily = map[string]*DailyStats{today: NewDailyStats(today)}
	s.Pet = t.Baseline()

	if s.Active.Domain != "" {
		s.Active.StartedAt = now
	} else {
		s.Active.StartedAt = time.Time{}
	}
	s.LastResetDate = today
	return true
}

func archive(date string, day *DailyStats, pet PetState, now time.Time) HistoricalRecord {
	sites := make(map[string]WebsiteStat, len(day.Websites))
	for domain, w := range day.Websites {
		if w != nil {
			sites[domain] = *w
		}
	}
	return HistoricalRecord{
		Date:         date,
		Productive:   day.Productive,
		Unproductive: day.Unproductive,
		Neutral:      day.Neutral,
		Websites:     sites,
		Sessions:     len(day.Sessions),
		Health:       pet.Health,
		Happiness:    pet.Happiness,
		ArchivedAt:   now,
	}
}
