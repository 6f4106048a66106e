// Package config provides configuration loading and defaults for purrwatch.
package config

import "time"

// DefaultConfigDir is the default location for purrwatch configuration.
const DefaultConfigDir = "~/.config/purrwatch"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "purrwatch.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultListenAddr is where the daemon serves its API.
const DefaultListenAddr = "127.0.0.1:7878"

// DefaultTracking bounds the length of a recorded interval.
var DefaultTracking = Tracking{
	MinInterval: 5 * time.Second,
	MaxInterval: 10 * time.Minute,
}

// DefaultScoring holds the hand-tuned health scoring constants.
var DefaultScoring = Scoring{
	ActivityFloorMinutes: 3,
	Baseline:             100,
	GraceMinutes:         15,
	PenaltyBands: []PenaltyBand{
		{UpToMinutes: 45, RatePerMinute: 0.5},
		{UpToMinutes: 90, RatePerMinute: 0.75},
		{UpToMinutes: 180, RatePerMinute: 1.0},
		{UpToMinutes: 0, RatePerMinute: 1.5},
	},
	ProductiveFloorMinutes:  5,
	ProductiveRatePerMinute: 0.25,
	MaxProductiveBonus:      15,
	ScreenTimeMarginMinutes: 30,
	ScreenTimeRatePerMinute: 0.2,
	MaxScreenTimePenalty:    20,
	MaxStep:                 2,
	HappinessOffset:         10,
	HappinessLag:            0.25,
	BaselineHealth:          100,
	BaselineHappiness:       70,
	NeutralPolicy:           NeutralIgnore,
}

// DefaultPopup holds the nag popup gating constants.
var DefaultPopup = Popup{
	HealthThreshold: 25,
	Cooldown:        10 * time.Minute,
	MuteDuration:    24 * time.Hour,
}

// DefaultSchedule holds the cron specs for periodic work.
var DefaultSchedule = Schedule{
	Recompute:         "@every 5m",
	Rollover:          "@every 1h",
	ThresholdCheck:    "@every 2m",
	Broadcast:         "@every 1m",
	BroadcastDebounce: time.Second,
}

// DefaultSnapshot holds stats projection preferences.
var DefaultSnapshot = Snapshot{
	TopSites: 10,
}

// DefaultScreenTimeGoal is the daily screen-time goal used until the user sets one.
const DefaultScreenTimeGoal = 4 * time.Hour

// DefaultProductiveSites seed the productive category list.
var DefaultProductiveSites = []string{
	"news.google.com", "bbc.com", "reuters.com", "npr.org",
	"linkedin.com", "indeed.com", "glassdoor.com",
	"udemy.com", "coursera.org", "khanacademy.org",
	"docs.google.com", "sheets.google.com", "github.com",
	"stackoverflow.com", "medium.com",
}

// DefaultUnproductiveSites seed the unproductive category list.
var DefaultUnproductiveSites = []string{
	"instagram.com", "tiktok.com", "youtube.com",
	"facebook.com", "twitter.com", "reddit.com",
	"twitch.tv", "netflix.com", "hulu.com",
}
