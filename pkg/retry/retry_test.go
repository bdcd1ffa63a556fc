package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterRetry(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, func(_ context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	wantErr := errors.New("still failing")
	err := Do(context.Background(), Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}, func(_ context.Context) error {
		attempts++
		return wantErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 2, attempts)
}

func TestDo_TerminalStopsImmediately(t *testing.T) {
	attempts := 0
	wantErr := errors.New("bad input")
	err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}, func(_ context.Context) error {
		attempts++
		return Terminal(wantErr)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Policy{MaxAttempts: 3, BaseDelay: time.Minute}, func(_ context.Context) error {
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(Terminal(errors.New("x"))))
	assert.False(t, IsTerminal(errors.New("x")))
	assert.NoError(t, Terminal(nil))
}
