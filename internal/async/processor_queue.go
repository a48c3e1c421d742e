package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/pipeline"
)

// Runner is the part of pipeline.Processor the queue drives.
type Runner interface {
	Process(ctx context.Context, jobID uuid.UUID) (pipeline.Result, error)
	Retry(ctx context.Context, jobID uuid.UUID) (pipeline.Result, error)
}

// ProcessorQueue runs jobs on a fixed pool of workers. A job id is admitted
// once until its run finishes, so two runs of the same job never overlap.
type ProcessorQueue struct {
	proc    Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration
	done    func(Job, pipeline.Result, error)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu       sync.Mutex
	closed   bool
	inflight map[uuid.UUID]struct{}
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOnDone registers a hook called after every run, on the worker goroutine.
func WithOnDone(fn func(Job, pipeline.Result, error)) Option {
	return func(q *ProcessorQueue) { q.done = fn }
}

func NewProcessorQueue(proc Runner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:     proc,
		logger:   logger,
		workers:  2,
		timeout:  10 * time.Minute,
		ch:       make(chan Job, 64),
		inflight: map[uuid.UUID]struct{}{},
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	defer q.release(job.JobID)

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.RequestID != "" {
		ctx = common.WithRequestID(ctx, job.RequestID)
	}
	ctx = common.WithLogger(ctx, q.logger.With("worker_id", workerID))
	log := common.LoggerFromContext(ctx, nil).With("job_id", job.JobID, "retry", job.Retry)

	var (
		res pipeline.Result
		err error
	)
	if job.Retry {
		res, err = q.proc.Retry(ctx, job.JobID)
	} else {
		res, err = q.proc.Process(ctx, job.JobID)
	}
	if err != nil {
		log.Error("queue.job.failed", "error", err, "wait_ms", time.Since(job.SubmittedAt).Milliseconds())
	} else {
		log.Info("queue.job.done", "forms", res.FormsProcessed, "method", res.Method)
	}
	if q.done != nil {
		q.done(job, res, err)
	}
}

func (q *ProcessorQueue) release(id uuid.UUID) {
	q.mu.Lock()
	delete(q.inflight, id)
	q.mu.Unlock()
}

// Enqueue admits job without blocking. It fails with ErrInFlight when the
// same job id is queued or running and with ErrQueueFull when the buffer is
// exhausted.
func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "job_id", job.JobID)
		return ErrQueueClosed
	}
	if _, ok := q.inflight[job.JobID]; ok {
		q.logger.Info("queue.enqueue.duplicate", "job_id", job.JobID)
		return ErrInFlight
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.inflight[job.JobID] = struct{}{}
		q.logger.Info("queue.enqueue", "job_id", job.JobID, "retry", job.Retry, "depth", len(q.ch))
		return nil
	default:
		q.logger.Warn("queue.enqueue.full", "job_id", job.JobID, "capacity", cap(q.ch))
		return ErrQueueFull
	}
}

// Do runs job on the caller's goroutine under the same per-job admission as
// Enqueue, so a synchronous run never overlaps a queued one.
func (q *ProcessorQueue) Do(ctx context.Context, job Job) (pipeline.Result, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return pipeline.Result{}, ErrQueueClosed
	}
	if _, ok := q.inflight[job.JobID]; ok {
		q.mu.Unlock()
		return pipeline.Result{}, ErrInFlight
	}
	q.inflight[job.JobID] = struct{}{}
	q.mu.Unlock()
	defer q.release(job.JobID)

	if job.Retry {
		return q.proc.Retry(ctx, job.JobID)
	}
	return q.proc.Process(ctx, job.JobID)
}

// InFlight reports whether id is queued or running.
func (q *ProcessorQueue) InFlight(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.inflight[id]
	return ok
}

// Shutdown stops admission and waits for queued jobs to drain or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
