package tracker

import (
	"math"
	"time"

	"github.com/blackwell-systems/purrwatch/internal/config"
)

// Breakdown itemizes how a target health score was derived.
type Breakdown struct {
	ProductiveMinutes   float64 `json:"productiveMinutes"`
	UnproductiveMinutes float64 `json:"unproductiveMinutes"`
	TotalMinutes        float64 `json:"totalMinutes"`
	Baseline            float64 `json:"baseline"`
	UnproductivePenalty float64 `json:"unproductivePenalty"`
	ProductiveBonus     float64 `json:"productiveBonus"`
	ScreenTimePenalty   float64 `json:"screenTimePenalty"`
	Target              float64 `json:"target"`
	// Sufficient is false when too little time was tracked to score.
	Sufficient bool `json:"sufficient"`
}

// Score computes today's target health without touching the pet state.
func (t *Tracker) Score(s *State, now time.Time) Breakdown {
	var prod, unprod, neutral time.Duration
	if day, ok := s.Daily[t.DayKey(now)]; ok && day != nil {
		prod, unprod, neutral = day.Productive.Duration(), day.Unproductive.Duration(), day.Neutral.Duration()
	}
	prodMin, unprodMin := splitMinutes(prod, unprod, neutral, t.scoring.NeutralPolicy)
	totalMin := (prod + unprod + neutral).Minutes()

	sc := t.scoring
	b := Breakdown{
		ProductiveMinutes:   prodMin,
		UnproductiveMinutes: unprodMin,
		TotalMinutes:        totalMin,
		Baseline:            sc.Baseline,
		Sufficient:          totalMin >= sc.ActivityFloorMinutes,
	}

	b.UnproductivePenalty = unproductivePenalty(unprodMin, sc.GraceMinutes, sc.PenaltyBands)

	if prodMin > sc.ProductiveFloorMinutes {
		b.ProductiveBonus = math.Min((prodMin-sc.ProductiveFloorMinutes)*sc.ProductiveRatePerMinute, sc.MaxProductiveBonus)
	}

	goalMin := s.ScreenTimeGoal.Minutes()
	if excess := totalMin - goalMin - sc.ScreenTimeMarginMinutes; goalMin > 0 && excess > 0 {
		b.ScreenTimePenalty = math.Min(excess*sc.ScreenTimeRatePerMinute, sc.MaxScreenTimePenalty)
	}

	b.Target = clamp(b.Baseline-b.UnproductivePenalty+b.ProductiveBonus-b.ScreenTimePenalty, 0, 100)
	return b
}

// Recompute moves the pet state one smoothing step toward today's target
// and stores the result in s. When today has less tracked time than the
// activity floor the pet state is returned unchanged.
func (t *Tracker) Recompute(s *State, now time.Time) PetState {
	b := t.Score(s, now)
	if !b.Sufficient {
		return s.Pet
	}

	health := clamp(s.Pet.Health, 0, 100)
	delta := b.Target - health
	if math.Abs(delta) > t.scoring.MaxStep {
		delta = math.Copysign(t.scoring.MaxStep, delta)
	}
	health = clamp(health+delta, 0, 100)

	happiness := clamp(s.Pet.Happiness, 0, 100)
	target := math.Min(health+t.scoring.HappinessOffset, 100)
	happiness = clamp(happiness+(target-happiness)*t.scoring.HappinessLag, 0, 100)

	s.Pet = PetState{Health: health, Happiness: happiness}
	return s.Pet
}

// unproductivePenalty applies the banded per-minute rates to minutes past
// the grace allowance.
func unproductivePenalty(minutes, grace float64, bands []config.PenaltyBand) float64 {
	if minutes <= grace {
		return 0
	}
	penalty := 0.0
	lower := grace
	for _, b := range bands {
		if minutes <= lower {
			break
		}
		upper := b.UpToMinutes
		if upper == 0 {
			upper = math.Inf(1)
		}
		penalty += (math.Min(minutes, upper) - lower) * b.RatePerMinute
		lower = upper
	}
	return penalty
}

// splitMinutes returns productive and unproductive minutes with neutral
// time folded in according to policy.
func splitMinutes(prod, unprod, neutral time.Duration, policy string) (float64, float64) {
	switch policy {
	case config.NeutralProductive:
		prod += neutral
	case config.NeutralUnproductive:
		unprod += neutral
	}
	return prod.Minutes(), unprod.Minutes()
}
