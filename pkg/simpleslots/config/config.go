package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-slots/pkg/simpleslots"
	"github.com/tendant/simple-slots/pkg/simpleslots/blobkey"
	"github.com/tendant/simple-slots/pkg/simpleslots/repo/memory"
	repopg "github.com/tendant/simple-slots/pkg/simpleslots/repo/postgres"
	"github.com/tendant/simple-slots/pkg/simpleslots/semantic"
	fsstorage "github.com/tendant/simple-slots/pkg/simpleslots/storage/fs"
	memorystorage "github.com/tendant/simple-slots/pkg/simpleslots/storage/memory"
	s3storage "github.com/tendant/simple-slots/pkg/simpleslots/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:                  "8080",
		Environment:           "development",
		DatabaseType:          "memory",
		DBSchema:              "slots",
		StorageURL:            "",
		KeyGenerator:          "git-like",
		DefinedSlots:          map[string]simpleslots.SlotDefinition{},
		DefaultContentModel:   simpleslots.ModelWikitext,
		DefaultSlotRoleLayout: simpleslots.DefaultSlotRoleLayout,
		DoPurge:               true,
		EnableEventLogging:    true,
	}
}

// ServerConfig represents server configuration for the simple-slots service
type ServerConfig struct {
	Port        string `yaml:"port" json:"port" env:"PORT"`
	Environment string `yaml:"environment" json:"environment" env:"ENVIRONMENT"` // development, production, testing

	// Database configuration
	DatabaseURL  string `yaml:"database_url" json:"database_url" env:"DATABASE_URL"`
	DatabaseType string `yaml:"database_type" json:"database_type" env:"DATABASE_TYPE"` // "memory", "postgres"
	DBSchema     string `yaml:"db_schema" json:"db_schema" env:"DB_SCHEMA"`             // Postgres schema to use (default: slots)
	AutoMigrate  bool   `yaml:"auto_migrate" json:"auto_migrate" env:"AUTO_MIGRATE"`

	// Slot body storage: "" (inline), memory://, file:///path, s3://bucket?region=...
	// The postgres repository reads bodies back from it; the memory
	// repository only writes them through.
	StorageURL   string `yaml:"storage_url" json:"storage_url" env:"STORAGE_URL"`
	KeyGenerator string `yaml:"key_generator" json:"key_generator" env:"BLOB_KEY_GENERATOR"` // "git-like", "flat"

	// Slot configuration
	DefinedSlots          map[string]simpleslots.SlotDefinition `yaml:"defined_slots" json:"defined_slots"`
	DefaultContentModel   string                                `yaml:"default_content_model" json:"default_content_model" env:"DEFAULT_CONTENT_MODEL"`
	DefaultSlotRoleLayout simpleslots.SlotRoleLayout            `yaml:"default_slot_role_layout" json:"default_slot_role_layout"`
	SemanticSlots         []string                              `yaml:"semantic_slots" json:"semantic_slots" env:"SEMANTIC_SLOTS" env-separator:","`
	DoPurge               bool                                  `yaml:"do_purge" json:"do_purge" env:"DO_PURGE"`

	// API secrets
	JWTSecret  string `yaml:"jwt_secret" json:"jwt_secret" env:"JWT_SECRET"`
	CSRFSecret string `yaml:"csrf_secret" json:"csrf_secret" env:"CSRF_SECRET"`

	// Server options
	EnableEventLogging bool `yaml:"enable_event_logging" json:"enable_event_logging" env:"ENABLE_EVENT_LOGGING"`
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if _, err := parseStorageURL(c.StorageURL); err != nil {
		return err
	}

	if c.KeyGenerator != "git-like" && c.KeyGenerator != "flat" {
		return fmt.Errorf("invalid key generator: %s (valid: git-like, flat)", c.KeyGenerator)
	}

	models := simpleslots.NewContentModels()
	if !models.IsRegistered(c.DefaultContentModel) {
		return fmt.Errorf("unknown default content model: %s", c.DefaultContentModel)
	}
	for name, def := range c.DefinedSlots {
		if def.ContentModel != "" && !models.IsRegistered(def.ContentModel) {
			return fmt.Errorf("slot %s uses unknown content model: %s", name, def.ContentModel)
		}
	}

	roles := c.slotRoles()
	for _, slot := range c.SemanticSlots {
		if !roles.IsRegisteredSlot(simpleslots.NormalizeSlotName(slot)) {
			return fmt.Errorf("semantic slot %s is not a defined slot", slot)
		}
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return errors.New("jwt_secret is required in production")
		}
		if c.CSRFSecret == "" {
			return errors.New("csrf_secret is required in production")
		}
	}

	return nil
}

func (c *ServerConfig) slotRoles() *simpleslots.Registry {
	layout := c.DefaultSlotRoleLayout
	return simpleslots.NewSlotRoleRegistry(c.DefaultContentModel, &layout, c.DefinedSlots)
}

// BuildService creates a Service instance from the server configuration.
// options are applied after the configured ones.
func (c *ServerConfig) BuildService(options ...simpleslots.Option) (simpleslots.Service, error) {
	logger := slog.Default()

	store, err := c.BuildRepository(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	configured := []simpleslots.Option{
		simpleslots.WithLogger(logger),
		simpleslots.WithRepository(store),
		simpleslots.WithSemanticStore(store),
		simpleslots.WithSlotRoles(c.slotRoles()),
		simpleslots.WithExtractor(semantic.NewExtractor()),
		simpleslots.WithSemanticSlots(c.SemanticSlots...),
		simpleslots.WithDoPurge(c.DoPurge),
	}

	if c.EnableEventLogging {
		configured = append(configured, simpleslots.WithEventSink(simpleslots.NewLoggingEventSink(logger)))
	}

	return simpleslots.New(append(configured, options...)...)
}

// Store is a repository that persists revisions and semantic data
type Store interface {
	simpleslots.RevisionStore
	simpleslots.SemanticStore
}

// BuildRepository creates the repository selected by the configuration
func (c *ServerConfig) BuildRepository(ctx context.Context) (Store, error) {
	switch c.DatabaseType {
	case "memory":
		blobs, err := c.BuildBlobStore()
		if err != nil {
			return nil, fmt.Errorf("failed to build blob store: %w", err)
		}
		if blobs == nil {
			return memory.New(), nil
		}
		return memory.New(memory.WithBlobStore(blobs, c.keyGenerator())), nil
	case "postgres":
		pool, err := c.newPool(ctx)
		if err != nil {
			return nil, err
		}

		var repoOptions []repopg.Option
		blobs, err := c.BuildBlobStore()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to build blob store: %w", err)
		}
		if blobs != nil {
			repoOptions = append(repoOptions, repopg.WithBlobStore(blobs, c.keyGenerator()))
		}

		repo := repopg.NewWithPool(pool, repoOptions...)
		if c.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) newPool(ctx context.Context) (*pgxpool.Pool, error) {
	if c.DatabaseURL == "" {
		return nil, errors.New("database_url is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema := c.DBSchema; schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres with the configured schema
func (c *ServerConfig) PingPostgres() error {
	pool, err := c.newPool(context.Background())
	if err != nil {
		return err
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// BuildBlobStore creates the slot body store named by StorageURL. It returns
// nil when slot bodies are stored inline.
func (c *ServerConfig) BuildBlobStore() (simpleslots.BlobStore, error) {
	storage, err := parseStorageURL(c.StorageURL)
	if err != nil {
		return nil, err
	}

	switch storage.Type {
	case "":
		return nil, nil
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: storage.Path})
	case "s3":
		return s3storage.New(storage.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", storage.Type)
	}
}

func (c *ServerConfig) keyGenerator() blobkey.Generator {
	if c.KeyGenerator == "flat" {
		return blobkey.NewFlatGenerator()
	}
	return blobkey.NewGitLikeGenerator()
}
