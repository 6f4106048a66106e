package engine

import "github.com/blackwell-systems/purrwatch/internal/tracker"

// Request is the closed set of messages the engine processes. Only types in
// this package implement it; Engine.handle switches over every one of them.
type Request interface {
	request()
}

// GetStatus returns the current tracker.PetState.
type GetStatus struct{}

// GetSnapshot returns a tracker.StatsSnapshot for today.
type GetSnapshot struct{}

// GetDailyStats returns a DailyStatsResponse.
type GetDailyStats struct{}

// GetHistoricalData returns []tracker.DayRecord, most recent first. Zero
// DaysBack means tracker.DefaultHistoryDays.
type GetHistoricalData struct {
	DaysBack int
}

// GetSettings returns tracker.Settings.
type GetSettings struct{}

// UpdateSettings applies a partial settings change and returns Ack.
type UpdateSettings struct {
	Update tracker.SettingsUpdate
}

// UpdateWebsiteCategories replaces both category lists and returns Ack.
type UpdateWebsiteCategories struct {
	Lists tracker.CategoryLists
}

// UpdatePopupThresholds replaces the popup rules for the rest of the
// process lifetime and returns Ack. The previous rules are not mutated.
type UpdatePopupThresholds struct {
	Update tracker.PopupUpdate
}

// MuteNotifications suppresses popups for the mute duration and returns MuteResult.
type MuteNotifications struct{}

// PopupDismissed restarts the popup cooldown and returns Ack.
type PopupDismissed struct{}

// ForceCheckThresholds runs the popup rules immediately and returns tracker.Decision.
type ForceCheckThresholds struct{}

// ForceMidnightReset runs a rollover as if the day had just changed and returns Ack.
type ForceMidnightReset struct{}

// TabActivated reports that the user switched to a tab.
type TabActivated struct {
	TabID int
	URL   string
}

// NavigationCompleted reports that a tab finished loading URL.
type NavigationCompleted struct {
	TabID int
	URL   string
}

// FocusLost reports that the browser window lost focus.
type FocusLost struct{}

// FocusGained reports that the browser regained focus on a tab. Zero TabID
// means the last active tab; an empty URL resumes that tab's last domain.
type FocusGained struct {
	TabID int
	URL   string
}

// Internal ticks submitted by schedules and debounce timers.
type (
	recomputeTick struct{}
	rolloverTick  struct{}
	thresholdTick struct{}
	broadcastTick struct{}
)

func (GetStatus) request()               {}
func (GetSnapshot) request()             {}
func (GetDailyStats) request()           {}
func (GetHistoricalData) request()       {}
func (GetSettings) request()             {}
func (UpdateSettings) request()          {}
func (UpdateWebsiteCategories) request() {}
func (UpdatePopupThresholds) request()   {}
func (MuteNotifications) request()       {}
func (PopupDismissed) request()          {}
func (ForceCheckThresholds) request()    {}
func (ForceMidnightReset) request()      {}
func (TabActivated) request()            {}
func (NavigationCompleted) request()     {}
func (FocusLost) request()               {}
func (FocusGained) request()             {}
func (recomputeTick) request()           {}
func (rolloverTick) request()            {}
func (thresholdTick) request()           {}
func (broadcastTick) request()           {}

// Ack acknowledges a request with no other result.
type Ack struct {
	Success bool `json:"success"`
}

// MuteResult reports when the mute expires.
type MuteResult struct {
	Success    bool   `json:"success"`
	MutedUntil string `json:"mutedUntil"`
}

// DailyStatsResponse answers GetDailyStats.
type DailyStatsResponse struct {
	DailyStats     map[string]*tracker.DailyStats `json:"dailyStats"`
	WeeklyProgress []tracker.DayRecord            `json:"weeklyProgress"`
}
