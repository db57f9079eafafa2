package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"crewopt/internal/dataset"
	"crewopt/internal/fitness"
	"crewopt/internal/genetic"
	"crewopt/internal/planner"
	"crewopt/internal/simulation"
	"crewopt/internal/taguchi"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

const (
	EnvPrefix  = "CREWOPT_"
	ConfigFile = "CREWOPT_CONFIG"
)

type MetricsConfig struct {
	TextfilePath string `koanf:"textfile_path"`
	Namespace    string `koanf:"namespace"`
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string                 `koanf:"data_path" validate:"required"`
	ResultsDir          string                 `koanf:"results_dir"`
	LogDir              string                 `koanf:"log_dir"`
	Seed                int64                  `koanf:"seed"`
	Simulation          simulation.Config      `koanf:"simulation"`
	Genetic             genetic.Options        `koanf:"genetic"`
	Duration            taguchi.Config         `koanf:"duration"`
	Fitness             fitness.Model          `koanf:"fitness"`
	Database            dataset.PostgresConfig `koanf:"database"`
	Metrics             MetricsConfig          `koanf:"metrics"`
	EnableMermaidCharts bool                   `koanf:"enable_mermaid_charts"`
}

// Defaults returns the configuration used when nothing overrides it.
// Paths are resolved against base.
func Defaults(base string) *AppConfig {
	return &AppConfig{
		DataPath:   filepath.Join(base, "data"),
		ResultsDir: filepath.Join(base, "results"),
		LogDir:     filepath.Join(base, "logs"),
		Simulation: simulation.DefaultConfig(),
		Genetic:    genetic.DefaultOptions(),
		Duration:   taguchi.DefaultConfig(),
		Fitness:    fitness.DefaultModel(),
		Database:   dataset.DefaultPostgresConfig(),
		Metrics:    MetricsConfig{Namespace: "crewopt"},
	}
}

// Planner returns the engine settings.
func (c *AppConfig) Planner() planner.Config {
	return planner.Config{
		Seed:       c.Seed,
		Simulation: c.Simulation,
		Genetic:    c.Genetic,
		Duration:   c.Duration,
		Fitness:    c.Fitness,
	}
}

// Load layers .env files, defaults, an optional YAML file and CREWOPT_
// environment variables, then validates the result.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exeDir := "."
	if exePath, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	cfg, err := load(Defaults(exeDir))
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{cfg.LogDir, cfg.ResultsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create directory")
		}
	}
	return cfg, nil
}

func load(base *AppConfig) (*AppConfig, error) {
	k := koanf.New(".")

	if path := os.Getenv(ConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	// CREWOPT_SIMULATION__ITERATIONS -> simulation.iterations
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
