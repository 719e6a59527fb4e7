// Package config loads egress settings from a YAML file, a .env file and
// EGRESS_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lifesaver/egress/internal/egress"
	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/logging"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "EGRESS_"

// Config is the full settings tree.
type Config struct {
	Analysis Analysis `yaml:"analysis"`
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`

	// DB is the database path. Empty means discover it.
	DB string `yaml:"db"`
}

// Analysis holds the defaults for analysis runs.
type Analysis struct {
	MaxTravel         float64 `yaml:"max_travel" validate:"gt=0"`
	InchesPerOccupant float64 `yaml:"inches_per_occupant" validate:"gt=0"`
	EgressParam       string  `yaml:"egress_param" validate:"required"`
	Workers           int     `yaml:"workers" validate:"gte=1,lte=256"`
}

// Server configures `egress serve`.
type Server struct {
	Addr      string `yaml:"addr" validate:"required"`
	CacheSize int    `yaml:"cache_size" validate:"gte=1"`
	Metrics   bool   `yaml:"metrics"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Analysis: Analysis{
			MaxTravel:         egress.DefaultMaxTravel,
			InchesPerOccupant: egress.DefaultInchesPerOccupant,
			EgressParam:       floor.DefaultEgressParam,
			Workers:           1,
		},
		Server: Server{
			Addr:      ":8080",
			CacheSize: 16,
			Metrics:   true,
		},
		Log: Log{Level: "info"},
	}
}

// DefaultPath is ~/.egress/egress.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".egress", "egress.yaml"), nil
}

// Load reads settings from path, or from DefaultPath when path is empty. A
// missing default file is not an error; a missing explicit file is. A .env
// file in the working directory is loaded before environment overrides are
// applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *float64) error {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = f
		return nil
	}
	integer := func(name string, dst *int) error {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("PARAM", &c.Analysis.EgressParam)
	str("ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("DB", &c.DB)
	if v := strings.TrimSpace(getenv(EnvPrefix + "METRICS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMETRICS: %w", EnvPrefix, err)
		}
		c.Server.Metrics = b
	}

	return errors.Join(
		num("MAX_TRAVEL", &c.Analysis.MaxTravel),
		num("INCHES_PER_OCCUPANT", &c.Analysis.InchesPerOccupant),
		integer("WORKERS", &c.Analysis.Workers),
		integer("CACHE_SIZE", &c.Server.CacheSize),
	)
}

// Options returns the analysis defaults as run options.
func (c *Config) Options() egress.Options {
	return egress.Options{
		MaxTravel:         c.Analysis.MaxTravel,
		InchesPerOccupant: c.Analysis.InchesPerOccupant,
		Workers:           c.Analysis.Workers,
	}
}

// Logging returns the logger settings. An unknown level falls back to info.
func (c *Config) Logging() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{
		Level:   level,
		Format:  logging.Format(c.Log.Format),
		Service: "egress",
	}
}
