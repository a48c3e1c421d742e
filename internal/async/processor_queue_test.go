package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/survey-extractor/internal/pipeline"
)

type blockingRunner struct {
	release   chan struct{}
	processed atomic.Int32
	retried   atomic.Int32
	sawDL     atomic.Bool
}

func (r *blockingRunner) wait(ctx context.Context) {
	if _, ok := ctx.Deadline(); ok {
		r.sawDL.Store(true)
	}
	if r.release != nil {
		<-r.release
	}
}

func (r *blockingRunner) Process(ctx context.Context, _ uuid.UUID) (pipeline.Result, error) {
	r.wait(ctx)
	r.processed.Add(1)
	return pipeline.Result{Success: true, FormsProcessed: 1, Method: "heuristic"}, nil
}

func (r *blockingRunner) Retry(ctx context.Context, _ uuid.UUID) (pipeline.Result, error) {
	r.wait(ctx)
	r.retried.Add(1)
	return pipeline.Result{}, errors.New("boom")
}

func TestQueue_RunsAndReportsDone(t *testing.T) {
	r := &blockingRunner{}
	var (
		mu   sync.Mutex
		seen []Job
	)
	q := NewProcessorQueue(r, nil, WithWorkers(2), WithQueueSize(4), WithOnDone(func(j Job, _ pipeline.Result, _ error) {
		mu.Lock()
		seen = append(seen, j)
		mu.Unlock()
	}))

	a, b := uuid.New(), uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: a}))
	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: b, Retry: true}))
	q.Shutdown(context.Background())

	assert.EqualValues(t, 1, r.processed.Load())
	assert.EqualValues(t, 1, r.retried.Load())
	assert.True(t, r.sawDL.Load())
	mu.Lock()
	assert.Len(t, seen, 2)
	mu.Unlock()
	assert.False(t, q.InFlight(a))
}

func TestQueue_DeduplicatesInFlightJob(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	q := NewProcessorQueue(r, nil, WithWorkers(1), WithQueueSize(4))

	id := uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: id}))
	assert.True(t, q.InFlight(id))
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{JobID: id, Retry: true}), ErrInFlight)

	close(r.release)
	require.Eventually(t, func() bool { return !q.InFlight(id) }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: id, Retry: true}))
	q.Shutdown(context.Background())
	assert.EqualValues(t, 1, r.retried.Load())
}

func TestQueue_FullAndClosed(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	q := NewProcessorQueue(r, nil, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: uuid.New()}))
	// the single worker picks the first job up, freeing the buffer slot
	require.Eventually(t, func() bool { return len(q.ch) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: uuid.New()}))
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{JobID: uuid.New()}), ErrQueueFull)

	close(r.release)
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{JobID: uuid.New()}), ErrQueueClosed)
	assert.EqualValues(t, 2, r.processed.Load())
}

func TestQueue_ShutdownHonoursContext(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	q := NewProcessorQueue(r, nil, WithWorkers(1))
	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: uuid.New()}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	q.Shutdown(ctx)
	assert.Less(t, time.Since(start), time.Second)
	close(r.release)
}

func TestQueue_DoSharesAdmission(t *testing.T) {
	r := &blockingRunner{release: make(chan struct{})}
	q := NewProcessorQueue(r, nil, WithWorkers(1))

	id := uuid.New()
	require.NoError(t, q.Enqueue(context.Background(), Job{JobID: id}))
	_, err := q.Do(context.Background(), Job{JobID: id})
	assert.ErrorIs(t, err, ErrInFlight)

	close(r.release)
	require.Eventually(t, func() bool { return !q.InFlight(id) }, time.Second, 5*time.Millisecond)
	res, err := q.Do(context.Background(), Job{JobID: id})
	require.NoError(t, err)
	assert.True(t, res.Success)
	q.Shutdown(context.Background())
}
