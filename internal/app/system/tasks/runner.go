// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named piece of maintenance work run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds one run. Zero means one minute.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Runner runs jobs in the background, one goroutine per job.
type Runner struct {
	log  *zap.Logger
	jobs []Job

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewRunner creates a runner for jobs. Jobs with no Run func or a
// non-positive interval are skipped.
func NewRunner(logger *zap.Logger, jobs ...Job) *Runner {
	valid := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Run == nil || j.Interval <= 0 {
			logger.Warn("skipping invalid job", zap.String("job", j.Name))
			continue
		}
		valid = append(valid, j)
	}
	return &Runner{log: logger, jobs: valid}
}

// Start launches every job. Each job first runs after one interval. Calling
// Start twice has no effect.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	for _, j := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, j)
	}
	r.log.Info("task runner started", zap.Int("jobs", len(r.jobs)))
}

// Stop cancels running jobs and waits for their goroutines to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	r.log.Info("task runner stopped")
}

func (r *Runner) loop(ctx context.Context, j Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx, j)
		}
	}
}

// RunOnce runs j immediately with its timeout and logs the outcome.
func (r *Runner) RunOnce(ctx context.Context, j Job) error {
	return r.runOnce(ctx, j)
}

func (r *Runner) runOnce(ctx context.Context, j Job) error {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := j.Run(ctx)
	if err != nil {
		r.log.Error("job failed",
			zap.String("job", j.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return err
	}
	r.log.Debug("job finished",
		zap.String("job", j.Name),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
