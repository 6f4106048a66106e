package tracker

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/purrwatch/internal/config"
)

// Suppression reasons reported by PopupDecision.
const (
	ReasonMuted    = "muted"
	ReasonCooldown = "cooldown"
	ReasonHealthy  = "healthy"
)

// Decision is the outcome of evaluating the popup rules.
type Decision struct {
	Show   bool   `json:"show"`
	Reason string `json:"reason,omitempty"`
}

// PopupDecision evaluates, in order: an active mute, the cooldown since the
// last popup, and the health threshold. The first rule that fails
// suppresses the popup.
func (t *Tracker) PopupDecision(s *State, now time.Time) Decision {
	if Muted(s, now) {
		return Decision{Reason: ReasonMuted}
	}
	if !s.Popup.LastShownAt.IsZero() && now.Sub(s.Popup.LastShownAt) < t.popup.Cooldown {
		return Decision{Reason: ReasonCooldown}
	}
	if s.Pet.Health >= t.popup.HealthThreshold {
		return Decision{Reason: ReasonHealthy}
	}
	return Decision{Show: true}
}

// PopupConfig returns the popup rules this Tracker applies.
func (t *Tracker) PopupConfig() config.Popup {
	return t.popup
}

// PopupUpdate is a partial change to the popup rules. Nil fields keep
// their current value.
type PopupUpdate struct {
	HealthThreshold *float64 `json:"healthThreshold,omitempty"`
	Cooldown        *Millis  `json:"cooldown,omitempty"`
}

// WithPopup returns a copy of t with u applied to its popup rules. t is
// left unchanged.
func (t *Tracker) WithPopup(u PopupUpdate) (*Tracker, error) {
	p := t.popup
	if u.HealthThreshold != nil {
		h := *u.HealthThreshold
		if h < 0 || h > 100 {
			return nil, fmt.Errorf("%w: health threshold %v outside [0, 100]", ErrInvalidInput, h)
		}
		p.HealthThreshold = h
	}
	if u.Cooldown != nil {
		if *u.Cooldown < 0 {
			return nil, fmt.Errorf("%w: negative popup cooldown", ErrInvalidInput)
		}
		p.Cooldown = u.Cooldown.Duration()
	}
	c := *t
	c.popup = p
	return &c, nil
}

// MarkShown records that a popup was shown (or dismissed) at now.
func MarkShown(s *State, now time.Time) {
	s.Popup.LastShownAt = now
}

// Mute suppresses popups until now plus the configured mute duration.
func (t *Tracker) Mute(s *State, now time.Time) time.Time {
	s.Popup.MutedUntil = now.Add(t.popup.MuteDuration)
	return s.Popup.MutedUntil
}

// Muted reports whether popups are muted at now.
func Muted(s *State, now time.Time) bool {
	return !s.Popup.MutedUntil.IsZero() && now.Before(s.Popup.MutedUntil)
}
