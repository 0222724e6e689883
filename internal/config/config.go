// Package config loads cubetimer's on-disk configuration, grounded on the
// teacher's flag-only Config (cmd/gopomodoro/main.go) generalized into a
// proper file-backed config the way the rest of the retrieved pack does it:
// BurntSushi/toml for the file itself, joho/godotenv for environment
// overrides suited to headless/CI runs of the same binary.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/cubeware/cubetimer/internal/core"
)

// Config is the on-disk shape of cubetimer's settings.
type Config struct {
	Category          string `toml:"category"`
	InspectionSeconds int64  `toml:"inspection_seconds"`
	HoldToStart       bool   `toml:"hold_to_start"`
	RefreshMillis     int64  `toml:"refresh_millis"`
	DatabasePath      string `toml:"database_path"`
	SoundEnabled      bool   `toml:"sound_enabled"`
	ToastEnabled      bool   `toml:"toast_enabled"`
}

// Default mirrors the WCA default: 15s inspection, no hold-to-start, every
// solve toasted and chimed.
func Default() Config {
	return Config{
		Category:          "3x3",
		InspectionSeconds: 15,
		HoldToStart:       false,
		RefreshMillis:     core.DefaultRefreshPeriodMs,
		DatabasePath:      "cubetimer.db",
		SoundEnabled:      true,
		ToastEnabled:      true,
	}
}

// Prototype converts to the engine's seed configuration.
func (c Config) Prototype() core.Prototype {
	return core.Prototype{
		InspectionDurationMs: c.InspectionSeconds * 1000,
		HoldToStartEnabled:   c.HoldToStart,
	}
}

// Load reads path if it exists (returning Default otherwise), then applies
// any CUBETIMER_-prefixed environment overrides, consulting an optional
// .env file first the way godotenv-using services in the retrieved pack do.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // optional; absence of .env is not an error

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg to path in TOML form.
func Save(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("CUBETIMER_CATEGORY"); ok {
		cfg.Category = v
	}
	if v, ok := os.LookupEnv("CUBETIMER_DATABASE_PATH"); ok {
		cfg.DatabasePath = v
	}
}
