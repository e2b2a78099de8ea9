package config

import (
	"fmt"

	"github.com/tendant/simple-slots/pkg/simpleslots"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate creates the Postgres tables on startup
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithStorageURL sets where repositories keep slot bodies
func WithStorageURL(storageURL string) Option {
	return func(c *ServerConfig) error {
		if _, err := parseStorageURL(storageURL); err != nil {
			return err
		}
		c.StorageURL = storageURL
		return nil
	}
}

// WithKeyGenerator sets the blob key strategy
// Valid values: "git-like", "flat"
func WithKeyGenerator(generator string) Option {
	return func(c *ServerConfig) error {
		if generator != "git-like" && generator != "flat" {
			return fmt.Errorf("invalid key generator: %s (valid: git-like, flat)", generator)
		}
		c.KeyGenerator = generator
		return nil
	}
}

// WithDefinedSlot registers a slot role. A nil layout uses the default layout.
func WithDefinedSlot(name, contentModel string, layout *simpleslots.SlotRoleLayout) Option {
	return func(c *ServerConfig) error {
		name = simpleslots.NormalizeSlotName(name)
		if c.DefinedSlots == nil {
			c.DefinedSlots = map[string]simpleslots.SlotDefinition{}
		}
		c.DefinedSlots[name] = simpleslots.SlotDefinition{
			ContentModel:   contentModel,
			SlotRoleLayout: layout,
		}
		return nil
	}
}

// WithDefaultContentModel sets the model of slots defined without one
func WithDefaultContentModel(model string) Option {
	return func(c *ServerConfig) error {
		if model == "" {
			return fmt.Errorf("default content model cannot be empty")
		}
		c.DefaultContentModel = model
		return nil
	}
}

// WithDefaultSlotRoleLayout sets the layout of slots defined without one
func WithDefaultSlotRoleLayout(layout simpleslots.SlotRoleLayout) Option {
	return func(c *ServerConfig) error {
		c.DefaultSlotRoleLayout = layout
		return nil
	}
}

// WithSemanticSlots replaces the list of semantic slots. Order is precedence.
func WithSemanticSlots(slots ...string) Option {
	return func(c *ServerConfig) error {
		c.SemanticSlots = append([]string(nil), slots...)
		return nil
	}
}

// WithDoPurge enables or disables the null edit after changing slot edits
func WithDoPurge(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.DoPurge = enabled
		return nil
	}
}

// WithSecrets sets the JWT signing secret and the CSRF token secret
func WithSecrets(jwtSecret, csrfSecret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = jwtSecret
		c.CSRFSecret = csrfSecret
		return nil
	}
}

// WithEventLogging enables or disables event logging
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithDefaults is a convenience option that applies sensible defaults
// This is useful as a base before applying more specific options
func WithDefaults() Option {
	return func(c *ServerConfig) error {
		*c = defaults()
		return nil
	}
}
