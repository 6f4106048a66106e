package tracker

import (
	"fmt"
	"time"
)

// maxScreenTimeGoal is the largest daily goal accepted.
const maxScreenTimeGoal = 24 * time.Hour

// Settings is the user-editable configuration persisted with the state.
type Settings struct {
	ScreenTimeGoal    Millis        `json:"screenTimeGoal"`
	WebsiteCategories CategoryLists `json:"websiteCategories"`
}

// SettingsUpdate carries a partial settings change. Nil fields are left alone.
type SettingsUpdate struct {
	ScreenTimeGoal    *Millis        `json:"screenTimeGoal,omitempty"`
	WebsiteCategories *CategoryLists `json:"websiteCategories,omitempty"`
}

// CurrentSettings returns the settings held in s.
func CurrentSettings(s *State) Settings {
	return Settings{
		ScreenTimeGoal:    Millis(s.ScreenTimeGoal),
		WebsiteCategories: s.Categories,
	}
}

// ApplySettings validates u and applies it to s. Nothing is applied when
// validation fails.
func ApplySettings(s *State, u SettingsUpdate) error {
	if u.ScreenTimeGoal != nil {
		goal := u.ScreenTimeGoal.Duration()
		if goal <= 0 || goal > maxScreenTimeGoal {
			return fmt.Errorf("%w: screen time goal %s outside (0, %s]", ErrInvalidInput, goal, maxScreenTimeGoal)
		}
	}
	if u.ScreenTimeGoal != nil {
		s.ScreenTimeGoal = u.ScreenTimeGoal.Duration()
	}
	if u.WebsiteCategories != nil {
		s.Categories = NormalizeLists(*u.WebsiteCategories)
	}
	return nil
}
