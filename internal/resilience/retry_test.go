package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = NewTransientError(errors.New("503 from ziplook"), 503)

// failing returns fn that fails with err for the first n calls.
func failing(n int, err error, calls *int) func(context.Context) error {
	return func(context.Context) error {
		*calls++
		if *calls <= n {
			return err
		}
		return nil
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		failures  int
		err       error
		wantCalls int
		wantErr   bool
		exhausted bool
	}{
		{"first try", 3, 0, errFlaky, 1, false, false},
		{"third try", 3, 2, errFlaky, 3, false, false},
		{"exhausted", 3, 10, errFlaky, 3, true, true},
		{"single attempt", 1, 10, errFlaky, 1, true, true},
		{"client error not retried", 3, 10, &StatusError{StatusCode: 404}, 1, true, false},
		{"plain error not retried", 3, 10, errors.New("parse"), 1, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), FixedRetryConfig(tt.attempts, time.Millisecond), failing(tt.failures, tt.err, &calls))
			assert.Equal(t, tt.wantCalls, calls)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.exhausted, IsExhausted(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDo_WaitsBetweenAttemptsOnly(t *testing.T) {
	var retried []int
	cfg := FixedRetryConfig(3, 25*time.Millisecond)
	cfg.OnRetry = func(n int, _ error) { retried = append(retried, n) }

	calls := 0
	start := time.Now()
	err := Do(context.Background(), cfg, failing(10, errFlaky, &calls))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, retried)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 75*time.Millisecond+time.Second)
}

func TestDo_CancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := FixedRetryConfig(5, time.Hour)
	cfg.OnRetry = func(int, error) { cancel() }

	calls := 0
	err := Do(ctx, cfg, failing(10, errFlaky, &calls))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, IsExhausted(err))
	assert.ErrorIs(t, err, errFlaky)
}

func TestDo_CustomShouldRetry(t *testing.T) {
	cfg := FixedRetryConfig(3, time.Millisecond)
	cfg.ShouldRetry = func(err error) bool { return err.Error() == "again" }

	calls := 0
	err := Do(context.Background(), cfg, failing(1, errors.New("again"), &calls))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoVal(t *testing.T) {
	calls := 0
	v, err := DoVal(context.Background(), FixedRetryConfig(3, time.Millisecond), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "partial", errFlaky
		}
		return "Flushing", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Flushing", v)

	n, err := DoVal(context.Background(), FixedRetryConfig(2, time.Millisecond), func(context.Context) (int, error) {
		return 42, errFlaky
	})
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestRetryConfigs(t *testing.T) {
	d := DefaultRetryConfig()
	assert.Equal(t, 3, d.MaxAttempts)
	assert.Equal(t, 2*time.Second, d.Wait)

	c := FromMillis(5, 250)
	assert.Equal(t, 5, c.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, c.Wait)

	c = FromMillis(0, -1)
	assert.Equal(t, d.MaxAttempts, c.MaxAttempts)
	assert.Equal(t, d.Wait, c.Wait)

	calls := 0
	require.NoError(t, Do(context.Background(), RetryConfig{}, failing(0, nil, &calls)))
	assert.Equal(t, 1, calls)
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}

func TestRetryLogger(t *testing.T) {
	assert.NotPanics(t, func() { RetryLogger("house", "lookup")(1, errFlaky) })
}
