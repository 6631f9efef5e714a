package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/schemadoc/internal/config"
)

// JobStatus represents the state of a build job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRendering JobStatus = "rendering"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Job tracks one build of a target list.
type Job struct {
	mu sync.Mutex

	ID      string          `json:"job_id"`
	Status  JobStatus       `json:"status"`
	Phase   string          `json:"phase"`
	Targets []config.Target `json:"-"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	errors []string
}

// Progress tracks build progress.
type Progress struct {
	TotalTargets int      `json:"total_targets"`
	Written      int      `json:"written"`
	Unchanged    int      `json:"unchanged"`
	Failed       int      `json:"failed"`
	Errors       []string `json:"errors"`
}

// NewJob creates a queued job for targets.
func NewJob(targets []config.Target) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Targets:   targets,
		Progress:  Progress{TotalTargets: len(targets)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// TargetFailed records a failed target.
func (j *Job) TargetFailed(name string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, fmt.Sprintf("%s: %s", name, err))
	j.Progress.Errors = j.errors
	j.Progress.Failed++
	j.UpdatedAt = time.Now()
}

// TargetDone records a finished target; written is false when the output
// already had the rendered content.
func (j *Job) TargetDone(written bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if written {
		j.Progress.Written++
	} else {
		j.Progress.Unchanged++
	}
	j.UpdatedAt = time.Now()
}

// Finish sets the terminal status from the recorded progress.
func (j *Job) Finish() {
	j.mu.Lock()
	p := j.Progress
	j.mu.Unlock()

	done := p.Written + p.Unchanged
	switch {
	case p.Failed == 0:
		j.SetStatus(StatusCompleted, "done")
	case done > 0:
		j.SetStatus(StatusPartial, "done")
	default:
		j.SetStatus(StatusFailed, "rendering")
	}
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			TotalTargets: j.Progress.TotalTargets,
			Written:      j.Progress.Written,
			Unchanged:    j.Progress.Unchanged,
			Failed:       j.Progress.Failed,
			Errors:       errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
