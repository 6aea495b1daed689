package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Engine    EngineConfig    `yaml:"engine"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Snapshot backends.
const (
	BackendFile     = "file"
	BackendJournal  = "journal"
	BackendPostgres = "postgres"
)

type SnapshotConfig struct {
	// Backend is one of file, journal or postgres. Defaults to file.
	Backend string `yaml:"backend"`
	// Path is the document file (file) or SQLite database (journal).
	Path string `yaml:"path"`
}

type EngineConfig struct {
	AdvisoryMaxRestDays int `yaml:"advisory_max_rest_days"`
	Workers             int `yaml:"workers"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix RESTDAY_ and underscore-separated paths:
//
//	RESTDAY_SERVER_HOST, RESTDAY_SERVER_PORT,
//	RESTDAY_DB_HOST, RESTDAY_DB_PORT, RESTDAY_DB_NAME,
//	RESTDAY_DB_USER, RESTDAY_DB_PASSWORD, RESTDAY_DB_SSLMODE,
//	RESTDAY_AUTH_API_KEY,
//	RESTDAY_TAILSCALE_ENABLED, RESTDAY_TAILSCALE_HOSTNAME, RESTDAY_TAILSCALE_STATE_DIR,
//	RESTDAY_SNAPSHOT_BACKEND, RESTDAY_SNAPSHOT_PATH,
//	RESTDAY_ENGINE_ADVISORY_MAX_REST_DAYS, RESTDAY_ENGINE_WORKERS
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RESTDAY_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	envInt("RESTDAY_SERVER_PORT", &cfg.Server.Port)
	if v := os.Getenv("RESTDAY_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	envInt("RESTDAY_DB_PORT", &cfg.Database.Port)
	if v := os.Getenv("RESTDAY_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("RESTDAY_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("RESTDAY_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("RESTDAY_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("RESTDAY_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("RESTDAY_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("RESTDAY_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("RESTDAY_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("RESTDAY_SNAPSHOT_BACKEND"); v != "" {
		cfg.Snapshot.Backend = v
	}
	if v := os.Getenv("RESTDAY_SNAPSHOT_PATH"); v != "" {
		cfg.Snapshot.Path = v
	}
	envInt("RESTDAY_ENGINE_ADVISORY_MAX_REST_DAYS", &cfg.Engine.AdvisoryMaxRestDays)
	envInt("RESTDAY_ENGINE_WORKERS", &cfg.Engine.Workers)
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Snapshot.Backend == "" {
		cfg.Snapshot.Backend = BackendFile
	}
	if cfg.Tailscale.Enabled && cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "restday"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch c.Snapshot.Backend {
	case BackendFile, BackendJournal:
		if c.Snapshot.Path == "" {
			return fmt.Errorf("snapshot.path is required for the %s backend", c.Snapshot.Backend)
		}
	case BackendPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("snapshot.backend %q is not one of file, journal, postgres", c.Snapshot.Backend)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative")
	}
	if c.Engine.AdvisoryMaxRestDays < 0 {
		return fmt.Errorf("engine.advisory_max_rest_days must not be negative")
	}
	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if d.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if d.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if d.User == "" {
		return fmt.Errorf("database.user is required")
	}
	return nil
}
