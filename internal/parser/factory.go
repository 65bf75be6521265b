package parser

import (
	"fmt"

	"medibill/internal/config"
	"medibill/internal/port"
)

// ProviderFactory is a function that creates a BillExtractor from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.BillExtractor, error)

// registry of extraction provider factories, populated via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an extraction provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates a BillExtractor from a provider config using the registered factory.
func NewExtractor(cfg *config.ParserProviderConfig) (port.BillExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
