// Package worker runs analyses asynchronously on a bounded goroutine pool.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/doclens/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

// Task produces one analysis. It must return promptly once ctx is done.
type Task func(ctx context.Context) (*domain.Analysis, error)

type entry struct {
	job    domain.Job
	cancel context.CancelFunc
}

// JobRunner executes Tasks on an ants pool and tracks their status.
// Finished jobs are forgotten after the retention period.
type JobRunner struct {
	pool      *ants.Pool
	retention time.Duration
	logger    *logrus.Entry
	now       func() time.Time

	mu   sync.Mutex
	jobs map[string]*entry
}

// Option adjusts how a JobRunner admits work
type Option func(*runnerOptions)

type runnerOptions struct {
	queue    bool
	maxQueue int
}

// WithQueue makes Submit wait for a free worker instead of failing.
// At most maxWaiting submitters wait at once; 0 means no limit. Beyond
// that Submit still fails with domain.ErrWorkersBusy.
func WithQueue(maxWaiting int) Option {
	return func(o *runnerOptions) {
		o.queue = true
		o.maxQueue = max(0, maxWaiting)
	}
}

// NewJobRunner creates a runner with size workers. By default submissions
// beyond what the pool can take fail with domain.ErrWorkersBusy instead of
// blocking; see WithQueue.
func NewJobRunner(size int, retention time.Duration, logger *logrus.Entry, opts ...Option) (*JobRunner, error) {
	if size <= 0 {
		size = 4
	}
	if retention <= 0 {
		retention = time.Hour
	}
	if logger == nil {
		logger = logrus.WithField("component", "job_runner")
	}

	var o runnerOptions
	for _, opt := range opts {
		opt(&o)
	}

	poolOpts := []ants.Option{ants.WithNonblocking(!o.queue)}
	if o.queue {
		poolOpts = append(poolOpts, ants.WithMaxBlockingTasks(o.maxQueue))
	}

	pool, err := ants.NewPool(size, poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &JobRunner{
		pool:      pool,
		retention: retention,
		logger:    logger,
		now:       time.Now,
		jobs:      make(map[string]*entry),
	}, nil
}

// Submit queues task and returns its job id. The job outlives ctx's
// cancellation but keeps its values; use Cancel to stop it. A runner built
// WithQueue blocks here until a worker is free or the runner is released.
func (r *JobRunner) Submit(ctx context.Context, task Task) (string, error) {
	if task == nil {
		return "", domain.ErrInvalidRequest
	}

	r.prune()

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	id := uuid.NewString()

	r.mu.Lock()
	r.jobs[id] = &entry{
		job: domain.Job{
			ID:        id,
			Status:    domain.JobPending,
			CreatedAt: r.now().UTC(),
		},
		cancel: cancel,
	}
	r.mu.Unlock()

	err := r.pool.Submit(func() { r.run(jobCtx, id, task) })
	if err != nil {
		cancel()
		r.mu.Lock()
		delete(r.jobs, id)
		r.mu.Unlock()
		if errors.Is(err, ants.ErrPoolOverload) {
			return "", domain.ErrWorkersBusy
		}
		return "", fmt.Errorf("submit job: %w", err)
	}

	r.logger.WithField("job", id).Debug("job submitted")
	return id, nil
}

func (r *JobRunner) run(ctx context.Context, id string, task Task) {
	if !r.transition(id, domain.JobRunning) {
		return
	}

	analysis, err := task(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok {
		return
	}
	e.cancel()
	if e.job.Done() {
		return
	}

	e.job.FinishedAt = r.now().UTC()
	switch {
	case err == nil:
		e.job.Status = domain.JobSucceeded
		e.job.Analysis = analysis
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		e.job.Status = domain.JobCanceled
	default:
		e.job.Status = domain.JobFailed
		e.job.Error = err.Error()
	}

	r.logger.WithFields(logrus.Fields{
		"job":    id,
		"status": e.job.Status,
	}).Info("job finished")
}

// transition moves a pending job to status; false means it was canceled first
func (r *JobRunner) transition(id string, status domain.JobStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok || e.job.Status != domain.JobPending {
		return false
	}
	e.job.Status = status
	return true
}

// Get returns a snapshot of job id
func (r *JobRunner) Get(id string) (domain.Job, error) {
	r.prune()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return e.job, nil
}

// Cancel stops a pending or running job. Canceling a finished job is a no-op.
func (r *JobRunner) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if e.job.Done() {
		return nil
	}

	e.cancel()
	e.job.Status = domain.JobCanceled
	e.job.FinishedAt = r.now().UTC()

	r.logger.WithField("job", id).Info("job canceled")
	return nil
}

// Running returns the number of workers currently busy
func (r *JobRunner) Running() int {
	return r.pool.Running()
}

// Release cancels outstanding jobs and waits up to timeout for workers to exit
func (r *JobRunner) Release(timeout time.Duration) error {
	r.mu.Lock()
	for _, e := range r.jobs {
		e.cancel()
	}
	r.mu.Unlock()

	if timeout <= 0 {
		r.pool.Release()
		return nil
	}
	return r.pool.ReleaseTimeout(timeout)
}

// prune forgets jobs that finished more than retention ago
func (r *JobRunner) prune() {
	cutoff := r.now().UTC().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.jobs {
		if e.job.Done() && e.job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}
