package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/schemadoc/internal/config"
)

const (
	maxQueuedJobs = 16
	jobTTL        = time.Hour
)

// Orchestrator runs build jobs, either queued in the background for the
// HTTP surface or inline for the command line.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	log    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the orchestrator; call Start before Submit.
func NewOrchestrator(worker *Worker, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(jobTTL),
		queue:  make(chan *Job, maxQueuedJobs),
		worker: worker,
		log:    log,
	}
}

// Start launches the job consumer and the job store cleanup.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				o.worker.Process(workerCtx, job)
			}
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the orchestrator.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a build of targets and returns its job.
func (o *Orchestrator) Submit(targets []config.Target) (*Job, error) {
	job := NewJob(targets)
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return job, nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return job, fmt.Errorf("build queue is full (%d)", maxQueuedJobs)
	}
}

// Run builds targets inline and returns the finished job.
func (o *Orchestrator) Run(ctx context.Context, targets []config.Target) *Job {
	job := NewJob(targets)
	o.jobs.Put(job)
	o.worker.Process(ctx, job)
	return job
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
