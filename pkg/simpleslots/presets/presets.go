package presets

import (
	"fmt"
	"os"
	"testing"

	"github.com/tendant/simple-slots/pkg/simpleslots"
	"github.com/tendant/simple-slots/pkg/simpleslots/config"
)

// Configuration Presets
//
// This package provides ready-made services for common use cases. Presets
// build on the config package and remain customizable through slot options.

// NewDevelopment creates a service configured for local development.
//
// Features:
//   - In-memory repository (instant startup, no setup required)
//   - Filesystem directory for slot bodies at ./dev-data/
//   - Event logging enabled (helpful for debugging)
//
// Returns:
//   - Service instance
//   - Cleanup function (call with defer to remove the dev-data directory)
//   - Error if setup fails
//
// Example:
//
//	svc, cleanup, err := presets.NewDevelopment(presets.WithDevSlot("doc", "wikitext"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
func NewDevelopment(opts ...DevelopmentOption) (simpleslots.Service, func(), error) {
	cfg := &devConfig{
		storageDir: "./dev-data",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := os.MkdirAll(cfg.storageDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create development storage: %w", err)
	}

	options := append([]config.Option{
		config.WithEnvironment("development"),
		config.WithDatabase("memory", ""),
		config.WithStorageURL("file://" + cfg.storageDir),
		config.WithEventLogging(true),
	}, cfg.slots...)

	serverConfig, err := config.Load(options...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load development config: %w", err)
	}

	svc, err := serverConfig.BuildService()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}

	cleanup := func() {
		os.RemoveAll(cfg.storageDir)
	}

	return svc, cleanup, nil
}

// NewTesting creates a service configured for unit and integration tests.
//
// Features:
//   - In-memory repository (isolated per test)
//   - No event logging (cleaner test output)
//   - Refresh after changing edits, as in production
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    svc := presets.NewTesting(t, presets.WithTestSlot("meta", "wikitext"), presets.WithTestSemanticSlots("meta"))
//	    // Use service in test...
//	}
func NewTesting(t *testing.T, opts ...TestingOption) simpleslots.Service {
	t.Helper()

	cfg := &testConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	options := append([]config.Option{
		config.WithEnvironment("testing"),
		config.WithDatabase("memory", ""),
		config.WithEventLogging(false),
	}, cfg.options...)

	serverConfig, err := config.Load(options...)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	svc, err := serverConfig.BuildService(cfg.serviceOptions...)
	if err != nil {
		t.Fatalf("failed to create test service: %v", err)
	}

	return svc
}

// Option types for customization

// devConfig holds development preset configuration
type devConfig struct {
	storageDir string
	slots      []config.Option
}

// testConfig holds testing preset configuration
type testConfig struct {
	options        []config.Option
	serviceOptions []simpleslots.Option
}

// DevelopmentOption is a functional option for NewDevelopment
type DevelopmentOption func(*devConfig)

// WithDevStorage sets the development storage directory
func WithDevStorage(dir string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.storageDir = dir
	}
}

// WithDevSlot defines a slot role for the development service
func WithDevSlot(name, contentModel string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.slots = append(cfg.slots, config.WithDefinedSlot(name, contentModel, nil))
	}
}

// TestingOption is a functional option for NewTesting
type TestingOption func(*testConfig)

// WithTestSlot defines a slot role for the test service
func WithTestSlot(name, contentModel string) TestingOption {
	return func(cfg *testConfig) {
		cfg.options = append(cfg.options, config.WithDefinedSlot(name, contentModel, nil))
	}
}

// WithTestSemanticSlots sets the semantic slots of the test service
func WithTestSemanticSlots(slots ...string) TestingOption {
	return func(cfg *testConfig) {
		cfg.options = append(cfg.options, config.WithSemanticSlots(slots...))
	}
}

// WithTestDoPurge enables or disables the refresh after changing edits
func WithTestDoPurge(enabled bool) TestingOption {
	return func(cfg *testConfig) {
		cfg.options = append(cfg.options, config.WithDoPurge(enabled))
	}
}

// WithTestServiceOptions passes service options such as hooks or an event
// sink through to the test service
func WithTestServiceOptions(options ...simpleslots.Option) TestingOption {
	return func(cfg *testConfig) {
		cfg.serviceOptions = append(cfg.serviceOptions, options...)
	}
}

// TestService is a convenience function that creates a test service
// This is an alias for NewTesting with no options
func TestService(t *testing.T) simpleslots.Service {
	return NewTesting(t)
}
