package tracker

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// SiteSummary is one row of the top-sites list.
type SiteSummary struct {
	Domain        string   `json:"domain"`
	Time          Millis   `json:"time"`
	TimeFormatted string   `json:"timeFormatted"`
	Category      Category `json:"category"`
	Visits        int      `json:"visits"`
}

// StatsSnapshot is the display-ready projection of today's state.
type StatsSnapshot struct {
	Date              string        `json:"date"`
	Health            int           `json:"catHealth"`
	Happiness         int           `json:"catHappiness"`
	ProductiveTime    string        `json:"productiveTime"`
	UnproductiveTime  string        `json:"unproductiveTime"`
	NeutralTime       string        `json:"neutralTime"`
	TotalTime         string        `json:"totalTime"`
	ProductiveRaw     Millis        `json:"productiveTimeRaw"`
	UnproductiveRaw   Millis        `json:"unproductiveTimeRaw"`
	NeutralRaw        Millis        `json:"neutralTimeRaw"`
	ProductivityScore int           `json:"productivityScore"`
	TargetHealth      int           `json:"targetHealth"`
	Websites          []SiteSummary `json:"websites"`
	CurrentDomain     string        `json:"currentDomain,omitempty"`
	CurrentCategory   Category      `json:"currentCategory,omitempty"`
	SessionDuration   string        `json:"sessionDuration"`
	ScreenTimeGoal    string        `json:"screenTimeGoal"`
	Muted             bool          `json:"muted"`
}

// Snapshot projects s into a StatsSnapshot for the day containing now.
// It does not modify s.
func (t *Tracker) Snapshot(s *State, now time.Time) StatsSnapshot {
	today := t.DayKey(now)
	day, ok := s.Daily[today]
	if !ok || day == nil {
		day = NewDailyStats(today)
	}

	snap := StatsSnapshot{
		Date:             today,
		Health:           int(math.Round(clamp(s.Pet.Health, 0, 100))),
		Happiness:        int(math.Round(clamp(s.Pet.Happiness, 0, 100))),
		ProductiveTime:   FormatDuration(day.Productive.Duration()),
		UnproductiveTime: FormatDuration(day.Unproductive.Duration()),
		NeutralTime:      FormatDuration(day.Neutral.Duration()),
		TotalTime:        FormatDuration(day.Total()),
		ProductiveRaw:    day.Productive,
		UnproductiveRaw:  day.Unproductive,
		NeutralRaw:       day.Neutral,
		ProductivityScore: t.ProductivityScore(
			day.Productive.Duration(), day.Unproductive.Duration(), day.Neutral.Duration()),
		TargetHealth:    int(math.Round(t.Score(s, now).Target)),
		Websites:        t.topSitesOf(day),
		SessionDuration: "0m",
		ScreenTimeGoal:  FormatDuration(s.ScreenTimeGoal),
		Muted:           Muted(s, now),
	}

	if s.Active.Domain != "" {
		snap.CurrentDomain = s.Active.Domain
		snap.CurrentCategory = Classify(s.Categories, s.Active.Domain)
		if !s.Active.SessionStart.IsZero() && now.After(s.Active.SessionStart) {
			snap.SessionDuration = FormatDuration(now.Sub(s.Active.SessionStart))
		}
	}
	return snap
}

// ProductivityScore is round(productive / (productive + unproductive) * 100)
// with neutral time folded in per the neutral policy. It is 100 when nothing
// counting toward either side has been tracked.
func (t *Tracker) ProductivityScore(prod, unprod, neutral time.Duration) int {
	p, u := splitMinutes(prod, unprod, neutral, t.scoring.NeutralPolicy)
	if p+u <= 0 {
		return 100
	}
	return int(math.Round(p / (p + u) * 100))
}

func (t *Tracker) topSitesOf(day *DailyStats) []SiteSummary {
	sites := make([]SiteSummary, 0, len(day.Websites))
	for domain, w := range day.Websites {
		if w == nil {
			continue
		}
		sites = append(sites, SiteSummary{
			Domain:        domain,
			Time:          w.Time,
			TimeFormatted: FormatDuration(w.Time.Duration()),
			Category:      w.Category,
			Visits:        w.Visits,
		})
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Time != sites[j].Time {
			return sites[i].Time > sites[j].Time
		}
		return sites[i].Domain < sites[j].Domain
	})
	if len(sites) > t.topSites {
		sites = sites[:t.topSites]
	}
	return sites
}

// FormatDuration renders d as "0m", "42m" or "1h 5m". Seconds are dropped.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
