package tracker

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/blackwell-systems/purrwatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stateWith returns a state whose today ledger holds the given minutes.
func stateWith(prod, unprod, neutral float64) *State {
	s := newTestState()
	day := s.Day("2026-03-10")
	day.Productive = Millis(time.Duration(prod * float64(time.Minute)))
	day.Unproductive = Millis(time.Duration(unprod * float64(time.Minute)))
	day.Neutral = Millis(time.Duration(neutral * float64(time.Minute)))
	return s
}

func TestRecompute_BelowActivityFloorIsUnchanged(t *testing.T) {
	tr := newTestTracker(t)
	s := stateWith(0, 2.5, 0)
	s.Pet = PetState{Health: 61, Happiness: 33}

	got := tr.Recompute(s, t0)
	assert.Equal(t, PetState{Health: 61, Happiness: 33}, got)
	assert.Equal(t, got, s.Pet)
}

func TestRecompute_TwentyUnproductiveMinutes(t *testing.T) {
	tr := newTestTracker(t)
	s := stateWith(0, 20, 0)

	b := tr.Score(s, t0)
	assert.InDelta(t, 2.5, b.UnproductivePenalty, 1e-9)
	assert.InDelta(t, 97.5, b.Target, 1e-9)

	got := tr.Recompute(s, t0)
	assert.Less(t, got.Health, 100.0)
	assert.LessOrEqual(t, 100-got.Health, 2.0)
	assert.InDelta(t, 98, got.Health, 1e-9)
	// Happiness moves a quarter of the way toward min(98+10, 100).
	assert.InDelta(t, 77.5, got.Happiness, 1e-9)
}

func TestRecompute_ConvergesToTarget(t *testing.T) {
	tr := newTestTracker(t)
	s := stateWith(0, 20, 0)

	for i := 0; i < 10; i++ {
		tr.Recompute(s, t0)
	}
	assert.InDelta(t, 97.5, s.Pet.Health, 1e-9)
}

func TestUnproductivePenalty_Bands(t *testing.T) {
	bands := config.DefaultScoring.PenaltyBands
	tests := []struct {
		minutes float64
		want    float64
	}{
		{0, 0},
		{15, 0},
		{45, 15},
		{90, 15 + 33.75},
		{180, 15 + 33.75 + 90},
		{200, 15 + 33.75 + 90 + 30},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, unproductivePenalty(tc.minutes, 15, bands), 1e-9, "minutes=%v", tc.minutes)
	}

	// Each successive band is steeper.
	prev := 0.0
	for _, b := range bands {
		assert.Greater(t, b.RatePerMinute, prev)
		prev = b.RatePerMinute
	}
}

func TestScore_ProductiveBonusIsCapped(t *testing.T) {
	tr := newTestTracker(t)

	b := tr.Score(stateWith(4, 0, 0), t0)
	assert.Zero(t, b.ProductiveBonus)

	b = tr.Score(stateWith(25, 0, 0), t0)
	assert.InDelta(t, 5, b.ProductiveBonus, 1e-9)

	b = tr.Score(stateWith(200, 0, 0), t0)
	assert.InDelta(t, 15, b.ProductiveBonus, 1e-9)
	assert.Equal(t, 100.0, b.Target)
}

func TestScore_BonusCannotOffsetHeavyUse(t *testing.T) {
	tr := newTestTracker(t)
	b := tr.Score(stateWith(120, 240, 0), t0)
	assert.Less(t, b.Target, 50.0)
}

func TestScore_ScreenTimePenalty(t *testing.T) {
	tr := newTestTracker(t)

	// Goal 4h plus 30m margin: 270 neutral minutes is right at the margin.
	b := tr.Score(stateWith(0, 0, 270), t0)
	assert.Zero(t, b.ScreenTimePenalty)

	b = tr.Score(stateWith(0, 0, 300), t0)
	assert.InDelta(t, 6, b.ScreenTimePenalty, 1e-9)

	b = tr.Score(stateWith(0, 0, 900), t0)
	assert.InDelta(t, 20, b.ScreenTimePenalty, 1e-9)
}

func TestScore_NeutralPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Scoring.NeutralPolicy = config.NeutralUnproductive
	tr := newTrackerWith(t, cfg)

	b := tr.Score(stateWith(0, 0, 20), t0)
	assert.InDelta(t, 20, b.UnproductiveMinutes, 1e-9)
	assert.InDelta(t, 2.5, b.UnproductivePenalty, 1e-9)

	cfg = config.Default()
	cfg.Scoring.NeutralPolicy = config.NeutralProductive
	tr = newTrackerWith(t, cfg)
	b = tr.Score(stateWith(0, 0, 25), t0)
	assert.InDelta(t, 5, b.ProductiveBonus, 1e-9)

	tr = newTestTracker(t)
	b = tr.Score(stateWith(0, 0, 25), t0)
	assert.Zero(t, b.ProductiveBonus)
	assert.Zero(t, b.UnproductivePenalty)
}

func TestRecompute_BoundsAndStepProperty(t *testing.T) {
	tr := newTestTracker(t)
	rng := rand.New(rand.NewSource(7))

	s := newTestState()
	for i := 0; i < 1000; i++ {
		day := s.Day("2026-03-10")
		day.Productive = Millis(time.Duration(rng.Int63n(int64(8 * time.Hour))))
		day.Unproductive = Millis(time.Duration(rng.Int63n(int64(8 * time.Hour))))
		day.Neutral = Millis(3*time.Minute + time.Duration(rng.Int63n(int64(2*time.Hour))))
		if rng.Intn(10) == 0 {
			// Out-of-range stored values must still come back clamped.
			s.Pet = PetState{Health: rng.Float64()*300 - 100, Happiness: rng.Float64()*300 - 100}
		}
		before := clamp(s.Pet.Health, 0, 100)

		got := tr.Recompute(s, t0)
		require.GreaterOrEqual(t, got.Health, 0.0)
		require.LessOrEqual(t, got.Health, 100.0)
		require.GreaterOrEqual(t, got.Happiness, 0.0)
		require.LessOrEqual(t, got.Happiness, 100.0)
		require.LessOrEqual(t, math.Abs(got.Health-before), 2.0+1e-9)
	}
}

func TestRecompute_RecoversUpward(t *testing.T) {
	tr := newTestTracker(t)
	s := stateWith(60, 0, 0)
	s.Pet = PetState{Health: 40, Happiness: 40}

	got := tr.Recompute(s, t0)
	assert.InDelta(t, 42, got.Health, 1e-9)
	assert.Greater(t, got.Happiness, 40.0)
}
