package asyncx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSettled_KeepsOrderAndErrors(t *testing.T) {
	results := AllSettled(context.Background(),
		func(context.Context) (int, error) { time.Sleep(10 * time.Millisecond); return 1, nil },
		func(context.Context) (int, error) { return 0, errors.New("boom") },
		func(context.Context) (int, error) { return 3, nil },
	)

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.Equal(t, 1, results[0].Value)
	assert.False(t, results[1].OK())
	assert.Equal(t, 3, results[2].Value)
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	v, err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("not yet")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := RetryWithBackoff(ctx, 5, time.Hour, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithTimeout(t *testing.T) {
	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
