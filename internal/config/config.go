package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Neutral policies decide how neutral time enters the productivity split.
const (
	NeutralIgnore       = "ignore"
	NeutralProductive   = "productive"
	NeutralUnproductive = "unproductive"
)

// Config is the top-level purrwatch configuration. It is treated as an
// immutable value once loaded.
type Config struct {
	DBPath     string   `mapstructure:"db_path"`
	ListenAddr string   `mapstructure:"listen_addr"`
	Tracking   Tracking `mapstructure:"tracking"`
	Scoring    Scoring  `mapstructure:"scoring"`
	Popup      Popup    `mapstructure:"popup"`
	Schedule   Schedule `mapstructure:"schedule"`
	Snapshot   Snapshot `mapstructure:"snapshot"`
	Defaults   Seed     `mapstructure:"defaults"`
	Notify     Notify   `mapstructure:"notify"`
}

// Tracking bounds a closed interval. Intervals at or below MinInterval are
// dropped; longer ones are clamped to MaxInterval.
type Tracking struct {
	MinInterval time.Duration `mapstructure:"min_interval"`
	MaxInterval time.Duration `mapstructure:"max_interval"`
}

// PenaltyBand is one segment of the unproductive penalty curve. A band
// covers minutes from the previous band's upper bound (or the grace
// allowance) up to UpToMinutes. UpToMinutes of 0 means unbounded.
type PenaltyBand struct {
	UpToMinutes   float64 `mapstructure:"up_to_minutes"`
	RatePerMinute float64 `mapstructure:"rate_per_minute"`
}

// Scoring holds the health and happiness tuning constants.
type Scoring struct {
	ActivityFloorMinutes    float64       `mapstructure:"activity_floor_minutes"`
	Baseline                float64       `mapstructure:"baseline"`
	GraceMinutes            float64       `mapstructure:"grace_minutes"`
	PenaltyBands            []PenaltyBand `mapstructure:"penalty_bands"`
	ProductiveFloorMinutes  float64       `mapstructure:"productive_floor_minutes"`
	ProductiveRatePerMinute float64       `mapstructure:"productive_rate_per_minute"`
	MaxProductiveBonus      float64       `mapstructure:"max_productive_bonus"`
	ScreenTimeMarginMinutes float64       `mapstructure:"screen_time_margin_minutes"`
	ScreenTimeRatePerMinute float64       `mapstructure:"screen_time_rate_per_minute"`
	MaxScreenTimePenalty    float64       `mapstructure:"max_screen_time_penalty"`
	MaxStep                 float64       `mapstructure:"max_step"`
	HappinessOffset         float64       `mapstructure:"happiness_offset"`
	HappinessLag            float64       `mapstructure:"happiness_lag"`
	BaselineHealth          float64       `mapstructure:"baseline_health"`
	BaselineHappiness       float64       `mapstructure:"baseline_happiness"`
	NeutralPolicy           string        `mapstructure:"neutral_policy"`
}

// Popup gates the nag popup.
type Popup struct {
	HealthThreshold float64       `mapstructure:"health_threshold"`
	Cooldown        time.Duration `mapstructure:"cooldown"`
	MuteDuration    time.Duration `mapstructure:"mute_duration"`
}

// Schedule holds cron specs (robfig/cron syntax, e.g. "@every 5m") for the
// periodic ticks, plus the post-navigation broadcast debounce.
type Schedule struct {
	Recompute         string        `mapstructure:"recompute"`
	Rollover          string        `mapstructure:"rollover"`
	ThresholdCheck    string        `mapstructure:"threshold_check"`
	Broadcast         string        `mapstructure:"broadcast"`
	BroadcastDebounce time.Duration `mapstructure:"broadcast_debounce"`
}

// Snapshot defines stats projection preferences.
type Snapshot struct {
	TopSites int `mapstructure:"top_sites"`
}

// Seed holds the values written to the store the first time a key is read
// and found missing.
type Seed struct {
	ScreenTimeGoal    time.Duration `mapstructure:"screen_time_goal"`
	ProductiveSites   []string      `mapstructure:"productive_sites"`
	UnproductiveSites []string      `mapstructure:"unproductive_sites"`
}

// Notify controls the desktop notification fallback.
type Notify struct {
	Desktop bool `mapstructure:"desktop"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Default returns a Config with every default applied and no file read.
func Default() *Config {
	return &Config{
		DBPath:     filepath.Join(expandPath(DefaultConfigDir), DefaultDBName),
		ListenAddr: DefaultListenAddr,
		Tracking:   DefaultTracking,
		Scoring:    cloneScoring(DefaultScoring),
		Popup:      DefaultPopup,
		Schedule:   DefaultSchedule,
		Snapshot:   DefaultSnapshot,
		Defaults: Seed{
			ScreenTimeGoal:    DefaultScreenTimeGoal,
			ProductiveSites:   append([]string(nil), DefaultProductiveSites...),
			UnproductiveSites: append([]string(nil), DefaultUnproductiveSites...),
		},
		Notify: Notify{Desktop: true},
	}
}

func cloneScoring(s Scoring) Scoring {
	s.PenaltyBands = append([]PenaltyBand(nil), s.PenaltyBands...)
	return s
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	def := Default()

	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("tracking.min_interval", def.Tracking.MinInterval)
	v.SetDefault("tracking.max_interval", def.Tracking.MaxInterval)
	v.SetDefault("scoring.activity_floor_minutes", def.Scoring.ActivityFloorMinutes)
	v.SetDefault("scoring.baseline", def.Scoring.Baseline)
	v.SetDefault("scoring.grace_minutes", def.Scoring.GraceMinutes)
	v.SetDefault("scoring.productive_floor_minutes", def.Scoring.ProductiveFloorMinutes)
	v.SetDefault("scoring.productive_rate_per_minute", def.Scoring.ProductiveRatePerMinute)
	v.SetDefault("scoring.max_productive_bonus", def.Scoring.MaxProductiveBonus)
	v.SetDefault("scoring.screen_time_margin_minutes", def.Scoring.ScreenTimeMarginMinutes)
	v.SetDefault("scoring.screen_time_rate_per_minute", def.Scoring.ScreenTimeRatePerMinute)
	v.SetDefault("scoring.max_screen_time_penalty", def.Scoring.MaxScreenTimePenalty)
	v.SetDefault("scoring.max_step", def.Scoring.MaxStep)
	v.SetDefault("scoring.happiness_offset", def.Scoring.HappinessOffset)
	v.SetDefault("scoring.happiness_lag", def.Scoring.HappinessLag)
	v.SetDefault("scoring.baseline_health", def.Scoring.BaselineHealth)
	v.SetDefault("scoring.baseline_happiness", def.Scoring.BaselineHappiness)
	v.SetDefault("scoring.neutral_policy", def.Scoring.NeutralPolicy)
	v.SetDefault("popup.health_threshold", def.Popup.HealthThreshold)
	v.SetDefault("popup.cooldown", def.Popup.Cooldown)
	v.SetDefault("popup.mute_duration", def.Popup.MuteDuration)
	v.SetDefault("schedule.recompute", def.Schedule.Recompute)
	v.SetDefault("schedule.rollover", def.Schedule.Rollover)
	v.SetDefault("schedule.threshold_check", def.Schedule.ThresholdCheck)
	v.SetDefault("schedule.broadcast", def.Schedule.Broadcast)
	v.SetDefault("schedule.broadcast_debounce", def.Schedule.BroadcastDebounce)
	v.SetDefault("snapshot.top_sites", def.Snapshot.TopSites)
	v.SetDefault("defaults.screen_time_goal", def.Defaults.ScreenTimeGoal)
	v.SetDefault("defaults.productive_sites", def.Defaults.ProductiveSites)
	v.SetDefault("defaults.unproductive_sites", def.Defaults.UnproductiveSites)
	v.SetDefault("notify.desktop", def.Notify.Desktop)

	v.SetEnvPrefix("purrwatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Slices are not covered by SetDefault when the file omits the key.
	if len(cfg.Scoring.PenaltyBands) == 0 {
		cfg.Scoring.PenaltyBands = def.Scoring.PenaltyBands
	}

	cfg.DBPath = expandPath(cfg.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the tracker cannot run with.
func (c *Config) Validate() error {
	if c.Tracking.MinInterval < 0 || c.Tracking.MaxInterval <= c.Tracking.MinInterval {
		return fmt.Errorf("tracking: max_interval (%s) must exceed min_interval (%s)",
			c.Tracking.MaxInterval, c.Tracking.MinInterval)
	}
	if c.Scoring.MaxStep <= 0 {
		return fmt.Errorf("scoring: max_step must be positive, got %v", c.Scoring.MaxStep)
	}
	if c.Scoring.HappinessLag <= 0 || c.Scoring.HappinessLag > 1 {
		return fmt.Errorf("scoring: happiness_lag must be in (0, 1], got %v", c.Scoring.HappinessLag)
	}
	switch c.Scoring.NeutralPolicy {
	case NeutralIgnore, NeutralProductive, NeutralUnproductive:
	default:
		return fmt.Errorf("scoring: unknown neutral_policy %q", c.Scoring.NeutralPolicy)
	}
	// Only the last band may be open-ended. Upper bounds and rates must
	// both increase.
	lower := c.Scoring.GraceMinutes
	for i, b := range c.Scoring.PenaltyBands {
		if i > 0 {
			if prev := c.Scoring.PenaltyBands[i-1].RatePerMinute; b.RatePerMinute <= prev {
				return fmt.Errorf("scoring: penalty band %d rate %v must exceed %v", i, b.RatePerMinute, prev)
			}
		}
		if b.UpToMinutes == 0 {
			if i != len(c.Scoring.PenaltyBands)-1 {
				return fmt.Errorf("scoring: penalty band %d is unbounded but not last", i)
			}
			continue
		}
		if b.UpToMinutes <= lower {
			return fmt.Errorf("scoring: penalty band %d ends at %v, not above %v", i, b.UpToMinutes, lower)
		}
		lower = b.UpToMinutes
	}
	if c.Popup.Cooldown < 0 || c.Popup.MuteDuration <= 0 {
		return fmt.Errorf("popup: cooldown must be >= 0 and mute_duration > 0")
	}
	if c.Snapshot.TopSites <= 0 {
		return fmt.Errorf("snapshot: top_sites must be positive, got %d", c.Snapshot.TopSites)
	}
	if c.Defaults.ScreenTimeGoal <= 0 {
		return fmt.Errorf("defaults: screen_time_goal must be positive")
	}
	return nil
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
