package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/retry"
)

func fastConfig(maxAttempts int) retry.Config {
	return retry.Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(3), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastErrorOnExhaustion(t *testing.T) {
	sentinel := errors.New("still failing")
	calls := 0
	err := retry.Do(context.Background(), fastConfig(2), func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, calls)
}

func TestDo_ZeroMaxAttemptsMeansOneTry(t *testing.T) {
	calls := 0
	_ = retry.Do(context.Background(), retry.Config{}, func() error {
		calls++
		return errors.New("nope")
	})
	assert.Equal(t, 1, calls)
}

func TestDo_RetryableFuncStopsRetries(t *testing.T) {
	forbidden := &ports.ClassifiedError{Class: ports.ErrClassForbidden, Err: errors.New("bot not admin")}
	cfg := fastConfig(5)
	cfg.RetryableFunc = retry.TransientOnly

	calls := 0
	err := retry.Do(context.Background(), cfg, func() error {
		calls++
		return forbidden
	})
	assert.ErrorIs(t, err, forbidden)
	assert.Equal(t, 1, calls, "a forbidden error must not be retried")
}

func TestDo_ContextCancellationWins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(10)
	cfg.InitialDelay = 50 * time.Millisecond
	cfg.MaxDelay = 50 * time.Millisecond

	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := retry.Do(ctx, cfg, func() error {
		calls++
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestTransientOnly_Classification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"plain error is unknown, retried", errors.New("dial tcp: timeout"), true},
		{"network classified, retried", &ports.ClassifiedError{Class: ports.ErrClassNetwork, Err: errors.New("reset")}, true},
		{"rate limit, not retried", &ports.ClassifiedError{Class: ports.ErrClassRateLimit, Err: errors.New("429")}, false},
		{"forbidden, not retried", &ports.ClassifiedError{Class: ports.ErrClassForbidden, Err: errors.New("403")}, false},
		{"bad request, not retried", &ports.ClassifiedError{Class: ports.ErrClassBadRequest, Err: errors.New("400")}, false},
		{"api, not retried", &ports.ClassifiedError{Class: ports.ErrClassAPI, Err: errors.New("500")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retry, retry.TransientOnly(tt.err))
		})
	}
}

func TestDefaultConfig_IsSingleRetryWithJitter(t *testing.T) {
	cfg := retry.DefaultConfig()
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Positive(t, cfg.Jitter)
	assert.NotNil(t, cfg.RetryableFunc)
}
