package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRecordingRetrier() (*Retrier, *[]time.Duration) {
	var slept []time.Duration
	r := NewRetrier(zap.NewNop())
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func TestRetrierSucceedsAfterFailures(t *testing.T) {
	r, slept := newRecordingRetrier()
	profile := DefaultRosterProfile()

	calls := 0
	err := r.Do(context.Background(), "https://example.com/teams/x", profile, func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return errors.New("empty roster")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, *slept)
}

func TestRetrierExhausts(t *testing.T) {
	r, slept := newRecordingRetrier()
	profile := DefaultRosterProfile()
	errEmpty := errors.New("empty roster")

	calls := 0
	err := r.Do(context.Background(), "https://example.com/teams/x", profile, func(context.Context, int) error {
		calls++
		return errEmpty
	})

	var exhausted *FetchExhausted
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 5, exhausted.Attempts)
	assert.Equal(t, "https://example.com/teams/x", exhausted.URL)
	assert.ErrorIs(t, err, errEmpty)
	assert.Equal(t, 5, calls)
	assert.Len(t, *slept, 4)
}

func TestRetrierStopsOnCancel(t *testing.T) {
	r, slept := newRecordingRetrier()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := r.Do(ctx, "u", DefaultDetailProfile(), func(context.Context, int) error {
		calls++
		cancel()
		return errors.New("navigation aborted")
	})

	require.ErrorIs(t, err, context.Canceled)
	var exhausted *FetchExhausted
	assert.False(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestRetrierStopsWhenBackoffInterrupted(t *testing.T) {
	r := NewRetrier(nil)
	r.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	calls := 0
	err := r.Do(context.Background(), "u", DefaultDetailProfile(), func(context.Context, int) error {
		calls++
		return errors.New("timeout")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), 0))
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
