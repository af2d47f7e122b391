package provider

import (
	"fmt"

	"taxline/internal/config"
	"taxline/internal/port"
)

// Factory is a function that creates a DocumentProvider from an entry config.
type Factory func(cfg *config.ProviderEntryConfig) (port.DocumentProvider, error)

// registry of provider factories, populated by init() in each provider
// package or explicitly via Register.
var registry = map[string]Factory{}

// Register registers a provider factory by name.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New creates a DocumentProvider from an entry config using the registered factory.
func New(cfg *config.ProviderEntryConfig) (port.DocumentProvider, error) {
	factory, ok := registry[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown document provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewFromConfig builds the configured provider chain: the primary alone, or
// a fallback chain when a secondary is configured.
func NewFromConfig(cfg *config.ProviderConfig) (port.DocumentProvider, error) {
	primary, err := New(&cfg.Primary)
	if err != nil {
		return nil, err
	}
	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}
	secondary, err := New(secondaryCfg)
	if err != nil {
		return nil, err
	}
	return NewFallback(
		[]port.DocumentProvider{primary, secondary},
		[]string{cfg.Primary.Provider, secondaryCfg.Provider},
	), nil
}
