package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nauanbek/saqshy/pkg/registry"
)

type component struct {
	name string
}

func TestCreate_InvokesFactoryWithConfig(t *testing.T) {
	r := registry.New[*component]("components")
	r.Register("alpha", func(cfg registry.Config) (*component, error) {
		return &component{name: registry.GetString(cfg, "name", "unnamed")}, nil
	})

	c, err := r.Create("alpha", registry.Config{"name": "configured"})
	require.NoError(t, err)
	assert.Equal(t, "configured", c.name)
}

func TestCreate_UnknownNameReturnsErrNotFound(t *testing.T) {
	r := registry.New[*component]("components")

	_, err := r.Create("missing", nil)
	assert.ErrorIs(t, err, registry.ErrNotFound)
	assert.Contains(t, err.Error(), "components")
}

func TestCreate_FactoryErrorPropagates(t *testing.T) {
	r := registry.New[*component]("components")
	sentinel := errors.New("bad config")
	r.Register("broken", func(registry.Config) (*component, error) { return nil, sentinel })

	_, err := r.Create("broken", nil)
	assert.ErrorIs(t, err, sentinel)
}

func TestRegister_ReplacesExistingFactory(t *testing.T) {
	r := registry.New[*component]("components")
	r.Register("x", func(registry.Config) (*component, error) { return &component{name: "first"}, nil })
	r.Register("x", func(registry.Config) (*component, error) { return &component{name: "second"}, nil })

	c, err := r.Create("x", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", c.name)
}

func TestList_SortedNames(t *testing.T) {
	r := registry.New[*component]("components")
	for _, name := range []string{"network", "content", "profile", "behavior"} {
		r.Register(name, func(registry.Config) (*component, error) { return &component{}, nil })
	}

	assert.Equal(t, []string{"behavior", "content", "network", "profile"}, r.List())
}

func TestHas(t *testing.T) {
	r := registry.New[*component]("components")
	r.Register("present", func(registry.Config) (*component, error) { return &component{}, nil })

	assert.True(t, r.Has("present"))
	assert.False(t, r.Has("absent"))
}
