// Package analyzer defines the common Analyzer interface and a registry
// of self-registering analyzer implementations, so the set of analyzers a
// pipeline runs is assembled by name from configuration.
package analyzer

import (
	"context"

	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/types"
)

// Analyzer extracts one category of signal from a message. Implementations
// must tolerate a cancelled context by returning promptly; the pipeline
// substitutes zero-value signals for an analyzer that errors or times out
// rather than failing the whole decision.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, msg types.MessageContext) (types.Signals, error)
}

// Registry holds every registered analyzer factory, keyed by name.
var Registry = registry.New[Analyzer]("analyzers")

// Register adds a factory under name. Analyzers call this from init().
func Register(name string, factory func(registry.Config) (Analyzer, error)) {
	Registry.Register(name, factory)
}

// Create instantiates the named analyzer.
func Create(name string, cfg registry.Config) (Analyzer, error) {
	return Registry.Create(name, cfg)
}

// List returns every registered analyzer name, sorted.
func List() []string { return Registry.List() }
