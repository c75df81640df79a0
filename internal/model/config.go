package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds all lagna settings
type Config struct {
	Chart         ChartOptions        `yaml:"chart" mapstructure:"chart"`
	Rectification RectificationConfig `yaml:"rectification" mapstructure:"rectification"`
	Questions     QuestionConfig      `yaml:"questions" mapstructure:"questions"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency" mapstructure:"concurrency"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Session       SessionConfig       `yaml:"session" mapstructure:"session"`
	Logging       LoggingConfig       `yaml:"logging" mapstructure:"logging"`
}

// RectificationConfig tunes the confidence engine
type RectificationConfig struct {
	Resolution           time.Duration `yaml:"resolution" mapstructure:"resolution"`                         // Spacing of candidate instants
	DefaultHalfWindow    time.Duration `yaml:"default_half_window" mapstructure:"default_half_window"`       // Used when the query declares no window
	BoundaryProbe        time.Duration `yaml:"boundary_probe" mapstructure:"boundary_probe"`                 // Candidates evaluated beyond each window edge
	ConvergenceThreshold float64       `yaml:"convergence_threshold" mapstructure:"convergence_threshold"`   // Confidence (0-100) that ends accumulation
	CredibleMass         float64       `yaml:"credible_mass" mapstructure:"credible_mass"`                   // Posterior mass of the credible span
	WidthTolerance       time.Duration `yaml:"width_tolerance" mapstructure:"width_tolerance"`               // Credible span width that ends accumulation
	ClampedConfidenceCap float64       `yaml:"clamped_confidence_cap" mapstructure:"clamped_confidence_cap"` // Ceiling when the optimum lies outside the window
	MaxCandidates        int           `yaml:"max_candidates" mapstructure:"max_candidates"`
	EventOrb             time.Duration `yaml:"event_orb" mapstructure:"event_orb"` // Time the sensitive point takes to reach a transit
}

// QuestionConfig tunes the adaptive question selector
type QuestionConfig struct {
	FactorThreshold float64 `yaml:"factor_threshold" mapstructure:"factor_threshold"` // Mass on one factor value that marks it resolved
	MinGain         float64 `yaml:"min_gain" mapstructure:"min_gain"`                 // Expected entropy reduction (nats) worth asking for
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls snapshot memoization
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// SessionConfig controls the session store
type SessionConfig struct {
	TTL                  time.Duration `yaml:"ttl" mapstructure:"ttl"`
	SubmissionsPerSecond float64       `yaml:"submissions_per_second" mapstructure:"submissions_per_second"`
	Burst                int           `yaml:"burst" mapstructure:"burst"`
}

// LoggingConfig controls slog output
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "lagna-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".lagna", "cache")
	}

	return &Config{
		Chart: ChartOptions{
			Ayanamsa:          "lahiri",
			HouseSystem:       WholeSign,
			NodeMode:          NodeMean,
			Division:          D1,
			FallbackWholeSign: false,
		},
		Rectification: RectificationConfig{
			Resolution:           time.Minute,
			DefaultHalfWindow:    30 * time.Minute,
			BoundaryProbe:        10 * time.Minute,
			ConvergenceThreshold: 90,
			CredibleMass:         0.9,
			WidthTolerance:       5 * time.Minute,
			ClampedConfidenceCap: 60,
			MaxCandidates:        5000,
			EventOrb:             time.Minute,
		},
		Questions: QuestionConfig{
			FactorThreshold: 0.95,
			MinGain:         0.01,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Session: SessionConfig{
			TTL:                  2 * time.Hour,
			SubmissionsPerSecond: 5,
			Burst:                10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
