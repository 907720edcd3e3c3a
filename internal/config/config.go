package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scoring policies accepted by Config.Scoring.Policy.
const (
	PolicySubjectMean = "subject_mean"
	PolicyOutcomeMean = "outcome_mean"
)

// Config captures the settings required to boot the analytics engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Features  FeaturesConfig  `yaml:"features"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Geo       GeoConfig       `yaml:"geo"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig controls the HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// DatasetConfig points at the survey source file.
type DatasetConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

// FeaturesConfig tunes feature extraction.
type FeaturesConfig struct {
	// RequireYear drops records whose year cannot be parsed. When false
	// such records stay in year-agnostic aggregates and are only excluded
	// from year-bucketed views.
	RequireYear bool `yaml:"requireYear"`
	// MinYear/MaxYear bound the accepted survey years.
	MinYear int `yaml:"minYear"`
	MaxYear int `yaml:"maxYear"`
}

// ScoringConfig selects the performance-score policy.
type ScoringConfig struct {
	// Policy is "subject_mean" (mean of per-subject averages) or
	// "outcome_mean" (mean over every outcome column, which weights a
	// subject by how many outcomes it contributes).
	Policy string `yaml:"policy"`
}

// AnalyticsConfig tunes intervention flagging and correlation reporting.
type AnalyticsConfig struct {
	// InterventionThreshold is the number of national standard deviations
	// below the national mean at which a scope is flagged.
	InterventionThreshold float64 `yaml:"interventionThreshold"`
	// HighCorrelation is the coefficient at or above which a subject pair
	// is surfaced as strongly correlated.
	HighCorrelation float64 `yaml:"highCorrelation"`
}

// GeoConfig controls region lookup for tier assignments.
type GeoConfig struct {
	// RegionsPath optionally overrides the built-in state-to-region map
	// with a YAML file of `region: [states...]` entries.
	RegionsPath string `yaml:"regionsPath"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls the loader's parsed-table cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("NAS_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Dataset: DatasetConfig{
			Path:      "data/nas_class8_data.csv",
			Delimiter: ",",
		},
		Features: FeaturesConfig{
			RequireYear: false,
			MinYear:     2000,
			MaxYear:     2100,
		},
		Scoring: ScoringConfig{Policy: PolicySubjectMean},
		Analytics: AnalyticsConfig{
			InterventionThreshold: 1.0,
			HighCorrelation:       0.8,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache:   CacheConfig{Enabled: true},
	}
}

func validate(cfg *Config) error {
	switch cfg.Scoring.Policy {
	case PolicySubjectMean, PolicyOutcomeMean:
	default:
		return fmt.Errorf("unknown scoring policy %q", cfg.Scoring.Policy)
	}
	if cfg.Analytics.InterventionThreshold <= 0 {
		return fmt.Errorf("intervention threshold must be positive, got %v", cfg.Analytics.InterventionThreshold)
	}
	if cfg.Dataset.Path == "" {
		return fmt.Errorf("dataset path is required")
	}
	if len([]rune(cfg.Dataset.Delimiter)) != 1 {
		return fmt.Errorf("dataset delimiter must be a single character, got %q", cfg.Dataset.Delimiter)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NAS_ENGINE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("NAS_ENGINE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("NAS_ENGINE_DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("NAS_ENGINE_DATASET_DELIMITER"); v != "" {
		cfg.Dataset.Delimiter = v
	}
	if v := os.Getenv("NAS_ENGINE_REQUIRE_YEAR"); v != "" {
		cfg.Features.RequireYear = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("NAS_ENGINE_SCORING_POLICY"); v != "" {
		cfg.Scoring.Policy = v
	}
	if v := os.Getenv("NAS_ENGINE_INTERVENTION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analytics.InterventionThreshold = f
		}
	}
	if v := os.Getenv("NAS_ENGINE_HIGH_CORRELATION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analytics.HighCorrelation = f
		}
	}
	if v := os.Getenv("NAS_ENGINE_REGIONS_PATH"); v != "" {
		cfg.Geo.RegionsPath = v
	}
	if v := os.Getenv("NAS_ENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NAS_ENGINE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("NAS_ENGINE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
}

// DelimiterRune returns the dataset delimiter as a rune, defaulting to ','.
func (c DatasetConfig) DelimiterRune() rune {
	runes := []rune(c.Delimiter)
	if len(runes) != 1 {
		return ','
	}
	return runes[0]
}
