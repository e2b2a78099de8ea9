package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-slots/pkg/simpleslots"
)

// slotEnv carries slot definitions given as DEFINED_SLOTS=doc:wikitext,meta:json
type slotEnv struct {
	DefinedSlots map[string]string `env:"DEFINED_SLOTS" env-separator:","`
}

// WithEnv applies environment variable overrides. Variables that are not set
// leave the current value alone.
//
// Server:
//
//	PORT, ENVIRONMENT
//
// Database:
//
//	DATABASE_URL - "memory" or "postgresql://..."; a postgres URL also sets
//	               DATABASE_TYPE=postgres
//	DATABASE_TYPE, DB_SCHEMA, AUTO_MIGRATE
//
// Storage:
//
//	STORAGE_URL - "memory://", "file:///path/to/data" or "s3://bucket?region=..."
//	BLOB_KEY_GENERATOR - "git-like" or "flat"
//
// Slots:
//
//	DEFINED_SLOTS - "doc:wikitext,meta:json"; an empty model uses the default
//	DEFAULT_CONTENT_MODEL, SEMANTIC_SLOTS (comma separated), DO_PURGE
//
// Secrets:
//
//	JWT_SECRET, CSRF_SECRET
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		if err := applyDatabaseURL(c); err != nil {
			return err
		}

		var slots slotEnv
		if err := cleanenv.ReadEnv(&slots); err != nil {
			return fmt.Errorf("failed to read DEFINED_SLOTS: %w", err)
		}
		applySlotModels(c, slots.DefinedSlots)
		return nil
	}
}

// WithFile loads a YAML, JSON or TOML file chosen by extension. Environment
// variables are applied on top, as with WithEnv.
func WithFile(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			return fmt.Errorf("config file path cannot be empty")
		}
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return applyDatabaseURL(c)
	}
}

// LoadFromEnvironment loads the file named by CONFIG_FILE when set, otherwise
// the environment alone. opts are applied first.
func LoadFromEnvironment(opts ...Option) (*ServerConfig, error) {
	source := WithEnv()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		source = WithFile(path)
	}
	return Load(append(opts, source)...)
}

// applyDatabaseURL derives the database type from the database URL
func applyDatabaseURL(c *ServerConfig) error {
	switch {
	case c.DatabaseURL == "":
		return nil
	case c.DatabaseURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(c.DatabaseURL, "postgresql://"), strings.HasPrefix(c.DatabaseURL, "postgres://"):
		c.DatabaseType = "postgres"
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", c.DatabaseURL)
	}
	return nil
}

func applySlotModels(c *ServerConfig, models map[string]string) {
	if len(models) == 0 {
		return
	}
	if c.DefinedSlots == nil {
		c.DefinedSlots = map[string]simpleslots.SlotDefinition{}
	}
	for name, model := range models {
		name = simpleslots.NormalizeSlotName(name)
		def := c.DefinedSlots[name]
		def.ContentModel = strings.TrimSpace(model)
		c.DefinedSlots[name] = def
	}
}
