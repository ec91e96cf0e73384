// Package config loads the bot configuration: the reusable core sections plus
// gate, store, messages and metrics settings.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	coreconfig "github.com/m3rciful/gatebot/core/config"
	coredatabase "github.com/m3rciful/gatebot/core/database"
	"github.com/m3rciful/gatebot/internal/moderation"
	"github.com/m3rciful/gatebot/internal/store"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const (
	// DefaultStatePath is the snapshot file used by the file backend.
	DefaultStatePath = "state.json"
	// DefaultReferenceURL is the channel offered to new members when none is configured.
	DefaultReferenceURL = "https://www.youtube.com/channel/UCfyIOJ9fAt7GtnetPRACCxA"
)

// DefaultBlockedTerms apply when blocked_terms is not set at all. An explicit
// empty list disables term filtering.
var DefaultBlockedTerms = []string{"کسخل", "لاشی", "کس", "کص", "کیر"}

// GateConfig configures onboarding and content filtering.
type GateConfig struct {
	OwnerID      int64    `yaml:"owner_id" envconfig:"GATE_OWNER_ID"`
	ReferenceURL string   `yaml:"reference_url" envconfig:"GATE_REFERENCE_URL"`
	BlockedTerms []string `yaml:"blocked_terms" envconfig:"GATE_BLOCKED_TERMS"`
	// DeleteForeignScript removes messages containing Latin letters; nil means enabled.
	DeleteForeignScript *bool `yaml:"delete_foreign_script" envconfig:"GATE_DELETE_FOREIGN_SCRIPT"`
}

// ForeignScriptEnabled reports the effective foreign-script setting.
func (g GateConfig) ForeignScriptEnabled() bool {
	return g.DeleteForeignScript == nil || *g.DeleteForeignScript
}

// StoreConfig selects and configures the state backend.
type StoreConfig struct {
	Backend  string              `yaml:"backend" envconfig:"STORE_BACKEND"`
	FilePath string              `yaml:"file_path" envconfig:"STORE_FILE_PATH"`
	Redis    store.RedisConfig   `yaml:"redis" ignored:"true"`
	Postgres coredatabase.Config `yaml:"postgres" ignored:"true"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Gate     GateConfig          `yaml:"gate"`
	Store    StoreConfig         `yaml:"store"`
	Messages moderation.Messages `yaml:"messages"`
	Metrics  MetricsConfig       `yaml:"metrics"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the optional YAML file at path, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.ReadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.ProcessEnv(
		&cfg.Telegram, &cfg.Webhook, &cfg.Logging,
		&cfg.Gate, &cfg.Store, &cfg.Store.Redis, &cfg.Store.Postgres, &cfg.Metrics,
	); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	if cfg.Gate.OwnerID < 0 {
		return fmt.Errorf("gate.owner_id must be a user id")
	}
	cfg.Gate.ReferenceURL = strings.TrimSpace(cfg.Gate.ReferenceURL)
	if cfg.Gate.ReferenceURL == "" {
		cfg.Gate.ReferenceURL = DefaultReferenceURL
	}
	if u, err := url.Parse(cfg.Gate.ReferenceURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gate.reference_url %q is not an absolute URL", cfg.Gate.ReferenceURL)
	}
	if cfg.Gate.BlockedTerms == nil {
		cfg.Gate.BlockedTerms = slices.Clone(DefaultBlockedTerms)
	}
	terms := cfg.Gate.BlockedTerms[:0]
	for _, t := range cfg.Gate.BlockedTerms {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	cfg.Gate.BlockedTerms = terms

	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if backend == "" {
		backend = BackendFile
	}
	switch backend {
	case BackendFile:
		if strings.TrimSpace(cfg.Store.FilePath) == "" {
			cfg.Store.FilePath = DefaultStatePath
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.Store.Redis.Address) == "" {
			return fmt.Errorf("store.redis.address is required when store.backend is 'redis'")
		}
		if cfg.Store.Redis.Key == "" {
			cfg.Store.Redis.Key = store.DefaultRedisKey
		}
	case BackendPostgres:
		if strings.TrimSpace(cfg.Store.Postgres.Host) == "" || strings.TrimSpace(cfg.Store.Postgres.Name) == "" {
			return fmt.Errorf("store.postgres.host and store.postgres.name are required when store.backend is 'postgres'")
		}
		if cfg.Store.Postgres.Port == "" {
			cfg.Store.Postgres.Port = "5432"
		}
	default:
		return fmt.Errorf("invalid store.backend %q; allowed: file, redis, postgres", cfg.Store.Backend)
	}
	cfg.Store.Backend = backend

	cfg.Messages = cfg.Messages.WithDefaults()
	cfg.Metrics.Listen = strings.TrimSpace(cfg.Metrics.Listen)
	return nil
}
