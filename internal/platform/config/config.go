package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Storage string

const (
	StorageMemory   Storage = "memory"
	StoragePostgres Storage = "postgres"
	StorageSQLite   Storage = "sqlite"
)

// DefaultAuditRetention es el techo de entradas de auditoría por cuenta.
const DefaultAuditRetention = 10000

type Config struct {
	Port    string  `yaml:"port" env:"PORT"`
	Storage Storage `yaml:"storage" env:"STORAGE"`

	DBDSN      string `yaml:"db_dsn" env:"DB_DSN"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`

	AuditRetention int `yaml:"audit_retention" env:"AUDIT_RETENTION"`

	Log  LogConfig  `yaml:"log"`
	Odin OdinConfig `yaml:"odin"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	App    string `yaml:"app" env:"APP_NAME"`
}

// OdinConfig: si BaseURL y APIKey vienen vacíos, el server corre en modo dev (X-Debug-User-ID).
type OdinConfig struct {
	BaseURL string `yaml:"base_url" env:"ODIN_BASE_URL"`
	APIKey  string `yaml:"api_key" env:"ODIN_API_KEY"`
}

func Default() Config {
	return Config{
		Port:           "8080",
		Storage:        StorageMemory,
		SQLitePath:     "shared-access.db",
		AuditRetention: DefaultAuditRetention,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			App:    "shared-access-core",
		},
	}
}

// Load arma la config en capas: defaults, archivo YAML opcional, env.
// Env siempre gana sobre el archivo.
func Load(path string) (Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			errs = append(errs, errors.New("DB_DSN is required when STORAGE=postgres"))
		}
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORAGE=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE %q: must be memory, postgres or sqlite", c.Storage))
	}

	if c.AuditRetention <= 0 {
		errs = append(errs, fmt.Errorf("AUDIT_RETENTION must be > 0, got %d", c.AuditRetention))
	}

	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
}

func (c Config) OdinEnabled() bool {
	return strings.TrimSpace(c.Odin.BaseURL) != "" && strings.TrimSpace(c.Odin.APIKey) != ""
}
