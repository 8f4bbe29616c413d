// Package llm holds a registry of self-registering ports.LLMAdjudicator
// implementations, mirroring pkg/analyzer's registry so cmd/saqshy can
// select a provider by name from configuration instead of importing a
// concrete adapter package directly.
package llm

import (
	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/registry"
)

// Registry holds every registered adjudicator factory, keyed by provider name.
var Registry = registry.New[ports.LLMAdjudicator]("llm_adjudicators")

// Register adds a factory under name. Adapters call this from init().
func Register(name string, factory func(registry.Config) (ports.LLMAdjudicator, error)) {
	Registry.Register(name, factory)
}

// Create instantiates the named adjudicator.
func Create(name string, cfg registry.Config) (ports.LLMAdjudicator, error) {
	return Registry.Create(name, cfg)
}

// List returns every registered adjudicator name, sorted.
func List() []string { return Registry.List() }
