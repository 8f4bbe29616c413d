package breaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nauanbek/saqshy/pkg/breaker"
)

func TestRegistry_OpensAfterConsecutiveFailures(t *testing.T) {
	var tripped []string
	reg := breaker.NewRegistry(breaker.Settings{FailureThreshold: 3, OpenTimeout: time.Hour}, func(name string) {
		tripped = append(tripped, name)
	})

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		err := reg.Do(context.Background(), "spam_db", func(ctx context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	}

	require.Equal(t, "open", reg.State("spam_db"))
	assert.Equal(t, []string{"spam_db"}, tripped)

	err := reg.Do(context.Background(), "spam_db", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, breaker.ErrCircuitOpen)
}

func TestRegistry_IndependentPerDependency(t *testing.T) {
	reg := breaker.NewRegistry(breaker.Settings{FailureThreshold: 1, OpenTimeout: time.Hour}, nil)

	_ = reg.Do(context.Background(), "llm", func(ctx context.Context) error { return errors.New("x") })
	require.Equal(t, "open", reg.State("llm"))
	require.Equal(t, "closed", reg.State("spam_db"))
}

func TestRegistry_ClosesAfterSuccessfulHalfOpenProbe(t *testing.T) {
	reg := breaker.NewRegistry(breaker.Settings{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond}, nil)

	_ = reg.Do(context.Background(), "messaging_client", func(ctx context.Context) error { return errors.New("x") })
	require.Equal(t, "open", reg.State("messaging_client"))

	time.Sleep(20 * time.Millisecond)

	err := reg.Do(context.Background(), "messaging_client", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "closed", reg.State("messaging_client"))
}
