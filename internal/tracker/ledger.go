package tracker

import "time"

// Activate closes the interval attributed to the currently active domain
// and starts timing domain (or pauses tracking when domain is empty).
//
// The closed interval is clamped to the configured maximum and recorded only
// when it is strictly longer than the minimum. The returned record and true
// are reported when an interval was recorded. Persistence is the caller's job.
func (t *Tracker) Activate(s *State, domain string, now time.Time) (SessionRecord, bool) {
	rec, recorded := t.closeInterval(s, now)

	switch {
	case domain == "":
		s.Active = ActiveSession{}
	case s.Active.Domain == "":
		s.Active = ActiveSession{Domain: domain, StartedAt: now, SessionStart: now}
	default:
		start := s.Active.SessionStart
		if start.IsZero() {
			start = now
		}
		s.Active = ActiveSession{Domain: domain, StartedAt: now, SessionStart: start}
	}

	return rec, recorded
}

func (t *Tracker) closeInterval(s *State, now time.Time) (SessionRecord, bool) {
	if !s.Active.Tracking() {
		return SessionRecord{}, false
	}

	elapsed := now.Sub(s.Active.StartedAt)
	if elapsed < 0 {
		// Clock moved backwards; nothing measurable happened.
		elapsed = 0
	}
	clamped := min(elapsed, t.tracking.MaxInterval)
	if clamped <= t.tracking.MinInterval {
		return SessionRecord{}, false
	}

	domain := s.Active.Domain
	category := Classify(s.Categories, domain)
	day := s.Day(t.DayKey(now))

	switch category {
	case Productive:
		day.Productive += Millis(clamped)
	case Unproductive:
		day.Unproductive += Millis(clamped)
	default:
		day.Neutral += Millis(clamped)
	}

	site, ok := day.Websites[domain]
	if !ok || site == nil {
		site = &WebsiteStat{}
		day.Websites[domain] = site
	}
	site.Time += Millis(clamped)
	site.Category = category
	site.Visits++

	start := s.Active.StartedAt
	rec := SessionRecord{
		ID:       t.newID(),
		Domain:   domain,
		Category: category,
		Start:    start,
		End:      start.Add(clamped),
		Duration: Millis(clamped),
	}
	day.Sessions = append(day.Sessions, rec)
	return rec, true
}
