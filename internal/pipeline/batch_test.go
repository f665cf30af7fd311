package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rep-ingest/internal/model"
	"github.com/sells-group/rep-ingest/internal/source"
)

func TestProcessBatch_OrderAndContinuation(t *testing.T) {
	st := newSQLiteStore(t)
	o := newFixtureOrchestrator(t, st)

	b := o.ProcessBatch(context.Background(), []string{"11354", "00000", "90210"}, BatchOptions{RunID: "run-1"})
	require.Len(t, b.Results, 3)
	assert.Equal(t, "run-1", b.RunID)
	assert.False(t, b.Interrupted)

	assert.Equal(t, "11354", b.Results[0].ZipCode)
	assert.True(t, b.Results[0].Success)
	assert.Equal(t, "00000", b.Results[1].ZipCode)
	assert.False(t, b.Results[1].Success)
	assert.Equal(t, "90210", b.Results[2].ZipCode)
	assert.True(t, b.Results[2].Success)

	s := Summarize(b)
	assert.Equal(t, Summary{RunID: "run-1", Total: 3, Succeeded: 2, Failed: 1}, s)
}

func TestProcessBatch_GeneratesRunID(t *testing.T) {
	o := newFixtureOrchestrator(t, newSQLiteStore(t))
	b := o.ProcessBatch(context.Background(), []string{"11354"}, BatchOptions{})
	assert.Len(t, b.RunID, 36)
}

func TestProcessBatch_PausesBetweenItemsOnly(t *testing.T) {
	o := New(stubResolver{}, nil, new(mockGateway))
	pause := 40 * time.Millisecond

	start := time.Now()
	b := o.ProcessBatch(context.Background(), []string{"00001", "00002", "00003"}, BatchOptions{Pause: pause})
	elapsed := time.Since(start)

	require.Len(t, b.Results, 3)
	assert.GreaterOrEqual(t, elapsed, 2*pause)
	assert.Less(t, elapsed, 3*pause+time.Second)
}

func TestProcessBatch_Empty(t *testing.T) {
	o := New(stubResolver{}, nil, new(mockGateway))
	b := o.ProcessBatch(context.Background(), nil, BatchOptions{Pause: time.Hour})
	assert.Empty(t, b.Results)
	assert.False(t, b.Interrupted)
}

// countingAdapter cancels the batch context after its first call.
type countingAdapter struct {
	calls  atomic.Int32
	cancel context.CancelFunc
}

func (c *countingAdapter) Name() string { return "counting" }

func (c *countingAdapter) Fetch(ctx context.Context, zip string, _ *model.Geography) (source.Result, error) {
	c.calls.Add(1)
	if c.cancel != nil {
		c.cancel()
	}
	// In-flight ZIP codes are detached from batch cancellation.
	if ctx.Err() != nil {
		return source.Result{}, ctx.Err()
	}
	return source.Result{Candidates: []model.Candidate{{Name: "Rep " + zip, Title: "Rep"}}}, nil
}

func TestProcessBatch_CancelStopsAtLoopBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := &countingAdapter{cancel: cancel}
	geos := stubResolver{
		"11111": {ZipCode: "11111"},
		"22222": {ZipCode: "22222"},
		"33333": {ZipCode: "33333"},
	}
	o := New(geos, []source.Adapter{adapter}, newSQLiteStore(t))

	b := o.ProcessBatch(ctx, []string{"11111", "22222", "33333"}, BatchOptions{Pause: 10 * time.Millisecond})
	assert.True(t, b.Interrupted)
	require.Len(t, b.Results, 1)
	assert.True(t, b.Results[0].Success, "in-flight zip should finish: %v", b.Results[0].Errors)
	assert.Equal(t, int32(1), adapter.calls.Load())
}

func TestProcessBatch_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(stubResolver{}, nil, new(mockGateway))
	b := o.ProcessBatch(ctx, []string{"11354", "90210"}, BatchOptions{})
	assert.True(t, b.Interrupted)
	assert.Empty(t, b.Results)
}

func TestProcessBatch_Parallel(t *testing.T) {
	st := newSQLiteStore(t)
	o := newFixtureOrchestrator(t, st)

	zips := []string{"11354", "00000", "90210", "20301", "abc"}
	b := o.ProcessBatch(context.Background(), zips, BatchOptions{Concurrency: 3})
	require.Len(t, b.Results, len(zips))
	for i, zip := range zips {
		assert.Equal(t, zip, b.Results[i].ZipCode)
	}
	assert.True(t, b.Results[0].Success)
	assert.False(t, b.Results[1].Success)
	assert.True(t, b.Results[2].Success)
	assert.True(t, b.Results[3].Success)
	assert.Equal(t, model.FailureInvalidZIP, b.Results[4].Reason)
}

func TestProcessBatch_ParallelSharedRepresentative(t *testing.T) {
	st := newSQLiteStore(t)
	o := newFixtureOrchestrator(t, st)

	b := o.ProcessBatch(context.Background(), []string{"11354", "11354", "11354"}, BatchOptions{Concurrency: 3})
	require.Len(t, b.Results, 3)
	for _, r := range b.Results {
		require.True(t, r.Success, "errors: %v", r.Errors)
	}
	assert.Equal(t, b.Results[0].Representatives[0].ID, b.Results[2].Representatives[0].ID)

	reps, err := st.ListRepresentativesByZIP(context.Background(), "11354")
	require.NoError(t, err)
	assert.Len(t, reps, 3)
}

func TestSleepCtx(t *testing.T) {
	assert.True(t, sleepCtx(context.Background(), 0))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
	assert.False(t, sleepCtx(ctx, 0))
}

func TestProcessBatch_CancelDuringLastZIP(t *testing.T) {
	for _, concurrency := range []int{1, 2} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			adapter := &mockAdapter{name: "house"}
			adapter.On("Fetch", mock.Anything, "11354", mock.Anything).
				Run(func(mock.Arguments) { cancel() }).
				Return(source.Result{Candidates: []model.Candidate{
					{Name: "Grace Meng", Title: "U.S. House Rep, NY-6"},
				}}, nil)

			o := New(stubResolver{"11354": {ZipCode: "11354", State: "NY"}}, []source.Adapter{adapter}, newSQLiteStore(t))
			b := o.ProcessBatch(ctx, []string{"11354"}, BatchOptions{Concurrency: concurrency})

			require.Len(t, b.Results, 1)
			assert.True(t, b.Results[0].Success, "in-flight ZIP code runs to completion")
			assert.True(t, b.Interrupted)
		})
	}
}
