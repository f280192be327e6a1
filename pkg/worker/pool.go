// Package worker runs queued jobs on a fixed pool of background workers.
package worker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/engine"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/jobs"
	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/logger"
)

// MetricsRecorder receives job outcome events, typically backed by the
// telemetry package.
type MetricsRecorder interface {
	RecordJob(jobType, outcome string)
}

// Stats reports pool activity counters.
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	QueueLen  int   `json:"queue_len"`
}

// Pool consumes job IDs from a bounded queue and drives each job through
// its engine, recording the outcome in the store.
type Pool struct {
	store   jobs.Store
	reg     *engine.Registry
	queue   chan int64
	workers int
	log     zerolog.Logger
	metrics MetricsRecorder

	mu        sync.Mutex
	processed int64
	failed    int64
	running   bool
}

func NewPool(store jobs.Store, reg *engine.Registry, workers, queueSize int) *Pool {
	return &Pool{
		store:   store,
		reg:     reg,
		queue:   make(chan int64, queueSize),
		workers: workers,
		log:     logger.With("worker_pool"),
	}
}

// SetMetrics attaches an outcome recorder. Call before Run.
func (p *Pool) SetMetrics(m MetricsRecorder) {
	p.metrics = m
}

// Enqueue hands a job to the pool. It blocks when the queue is full,
// giving submission backpressure, and fails only when ctx is done.
func (p *Pool) Enqueue(ctx context.Context, id int64) error {
	select {
	case p.queue <- id:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.log.Info().Int("workers", p.workers).Msg("Starting worker pool")

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case id := <-p.queue:
					p.process(ctx, id)
				}
			}
		})
	}
	return g.Wait()
}

func (p *Pool) process(ctx context.Context, id int64) {
	job, err := p.store.GetByID(ctx, id)
	if err != nil {
		p.log.Error().Err(err).Int64("job_id", id).Msg("Queued job not found")
		return
	}

	if err := p.store.SetRunning(ctx, id); err != nil {
		p.log.Error().Err(err).Int64("job_id", id).Msg("Failed to mark job running")
		return
	}

	result, runErr := p.execute(ctx, job)
	if runErr != nil {
		if err := p.store.SetFailed(ctx, id, runErr.Error()); err != nil {
			p.log.Error().Err(err).Int64("job_id", id).Msg("Failed to record job failure")
		}
		p.record(job, false)
		p.log.Warn().Err(runErr).Int64("job_id", id).Msg("Job failed")
		return
	}

	if err := p.store.SetResult(ctx, id, result); err != nil {
		p.log.Error().Err(err).Int64("job_id", id).Msg("Failed to record job result")
		p.record(job, false)
		return
	}
	p.record(job, true)
	p.log.Info().Int64("job_id", id).Msg("Job done")
}

func (p *Pool) record(job *jobs.Job, ok bool) {
	p.count(ok)
	if p.metrics == nil {
		return
	}
	outcome := "done"
	if !ok {
		outcome = "failed"
	}
	p.metrics.RecordJob(string(job.Type), outcome)
}

func (p *Pool) execute(ctx context.Context, job *jobs.Job) (json.RawMessage, error) {
	eng, err := p.reg.Lookup(job.Type)
	if err != nil {
		return nil, err
	}
	return eng.Process(ctx, job.InputURI)
}

func (p *Pool) count(ok bool) {
	p.mu.Lock()
	if ok {
		p.processed++
	} else {
		p.failed++
	}
	p.mu.Unlock()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Processed: p.processed,
		Failed:    p.failed,
		QueueLen:  len(p.queue),
	}
}

// Healthy reports whether the pool run loop is active.
func (p *Pool) Healthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
