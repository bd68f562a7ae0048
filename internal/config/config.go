// Package config loads process configuration once at boot: .env file,
// environment variables, then an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/gamemode"
	"github.com/ovaphlow/pitchfork/service-bancho-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-bancho-go/pkg/utilities"
)

type Config struct {
	Log      utilities.Config `envPrefix:"LOG_" yaml:"log"`
	Database database.Config  `envPrefix:"DATABASE_" yaml:"database"`
	Bancho   Bancho           `envPrefix:"BANCHO_" yaml:"bancho"`
}

type Bancho struct {
	InactivityTimeout time.Duration `env:"INACTIVITY_TIMEOUT" envDefault:"300s" yaml:"inactivity_timeout"`
	DonorHorizon      time.Duration `env:"DONOR_HORIZON" envDefault:"720h" yaml:"donor_horizon"`
	BotName           string        `env:"BOT_NAME" envDefault:"Aika" yaml:"bot_name"`
	Domain            string        `env:"DOMAIN" envDefault:"localhost" yaml:"domain"`
	DataDir           string        `env:"DATA_DIR" envDefault:".data" yaml:"data_dir"`
	OpsAddr           string        `env:"OPS_ADDR" envDefault:"127.0.0.1:8432" yaml:"ops_addr"`
	SnowflakeNode     int64         `env:"SNOWFLAKE_NODE" envDefault:"1" yaml:"snowflake_node"`
	Surveillance      Surveillance  `envPrefix:"SURVEILLANCE_" yaml:"surveillance"`
}

type Surveillance struct {
	Enabled    bool      `env:"ENABLED" envDefault:"true" yaml:"enabled"`
	Webhook    string    `env:"WEBHOOK" yaml:"webhook"`
	Mode       string    `env:"MODE" envDefault:"taiko" yaml:"mode"`
	PressTimes Threshold `envPrefix:"PRESSTIME_" yaml:"hitobj_low_presstimes"`
	Thumbnail  string    `env:"THUMBNAIL" yaml:"thumbnail"`
	Journal    bool      `env:"JOURNAL" envDefault:"true" yaml:"journal"`
}

// Threshold flags a key whose mean press time (ms) is below Value once at
// least MinPresses samples exist.
type Threshold struct {
	Value      float64 `env:"VALUE" envDefault:"40" yaml:"value"`
	MinPresses int     `env:"MIN_PRESSES" envDefault:"100" yaml:"min_presses"`
}

// Active reports whether detections should run at all.
func (s Surveillance) Active() bool { return s.Enabled && s.Webhook != "" }

// ReplayDir is where finished score traces are stored.
func (b Bancho) ReplayDir() string { return filepath.Join(b.DataDir, "osr") }

// JournalDir is empty when journaling is off.
func (b Bancho) JournalDir() string {
	if !b.Surveillance.Journal {
		return ""
	}
	return filepath.Join(b.DataDir, "logs", "surveillance")
}

// Load reads .env (best effort), the environment and then, if path is not
// empty, a YAML file whose values win over the environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if path == "" {
		path = os.Getenv("BANCHO_CONFIG_FILE")
	}
	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}
	b := c.Bancho
	if b.InactivityTimeout <= 0 {
		errs = append(errs, fmt.Errorf("inactivity timeout must be positive, got %s", b.InactivityTimeout))
	}
	if b.DonorHorizon <= 0 {
		errs = append(errs, fmt.Errorf("donor horizon must be positive, got %s", b.DonorHorizon))
	}
	if b.BotName == "" {
		errs = append(errs, errors.New("bot name is empty"))
	}
	if b.SnowflakeNode < 0 || b.SnowflakeNode > 1023 {
		errs = append(errs, fmt.Errorf("snowflake node must be in [0, 1023], got %d", b.SnowflakeNode))
	}
	s := b.Surveillance
	if _, err := gamemode.Parse(s.Mode); err != nil {
		errs = append(errs, fmt.Errorf("surveillance mode: %w", err))
	}
	if s.PressTimes.Value <= 0 {
		errs = append(errs, fmt.Errorf("press time threshold must be positive, got %v", s.PressTimes.Value))
	}
	if s.PressTimes.MinPresses <= 0 {
		errs = append(errs, fmt.Errorf("press time min presses must be positive, got %d", s.PressTimes.MinPresses))
	}
	return errors.Join(errs...)
}

// SurveilledMode is the base game mode detections analyse.
func (s Surveillance) SurveilledMode() gamemode.GameMode {
	m, err := gamemode.Parse(s.Mode)
	if err != nil {
		return gamemode.VanillaTaiko
	}
	return m.AsVanilla()
}
