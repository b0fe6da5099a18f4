package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a background build job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job represents a background build run
type Job struct {
	ID            string    `json:"id"`
	Status        JobStatus `json:"status"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at,omitempty"`
	PostsAccepted int64     `json:"posts_accepted"`
	PostsRejected int64     `json:"posts_rejected"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Fresh         bool      `json:"fresh"`

	// Internal fields
	ctx    context.Context
	cancel context.CancelFunc
}

// JobManager tracks build jobs. Only one build may run at a time, since
// builds share the state database and output directory.
type JobManager struct {
	jobs   map[string]*Job
	mu     sync.RWMutex
	active string // ID of the pending/running job, if any
}

// NewJobManager creates a new job manager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*Job),
	}
}

// CreateJob registers a new build job. If a build is already pending or
// running, that job is returned instead of starting another.
func (m *JobManager) CreateJob(fresh bool) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != "" {
		if existing := m.jobs[m.active]; existing != nil &&
			(existing.Status == JobStatusPending || existing.Status == JobStatusRunning) {
			return existing, false
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobStatusPending,
		StartedAt: time.Now(),
		Fresh:     fresh,
		ctx:       ctx,
		cancel:    cancel,
	}

	m.jobs[job.ID] = job
	m.active = job.ID

	return job, true
}

// GetJob retrieves a job by ID
func (m *JobManager) GetJob(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[jobID]
}

// IsRunning reports whether a build is currently pending or running
func (m *JobManager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == "" {
		return false
	}
	job := m.jobs[m.active]
	return job != nil && (job.Status == JobStatusPending || job.Status == JobStatusRunning)
}

// UpdateStatus updates the status of a job
func (m *JobManager) UpdateStatus(jobID string, status JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	job.Status = status
	if status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled {
		job.CompletedAt = time.Now()
		if m.active == jobID {
			m.active = ""
		}
	}
	if errorMsg != "" {
		job.ErrorMessage = errorMsg
	}
}

// SetCounts records the outcome counts of a finished load
func (m *JobManager) SetCounts(jobID string, accepted, rejected int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		job.PostsAccepted = accepted
		job.PostsRejected = rejected
	}
}

// CancelAll cancels every pending or running job
func (m *JobManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.Status == JobStatusPending || job.Status == JobStatusRunning {
			job.cancel()
			job.Status = JobStatusCancelled
			job.CompletedAt = time.Now()
		}
	}
	m.active = ""
}

// Context returns the cancellation context for a job
func (m *JobManager) Context(jobID string) context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if job, exists := m.jobs[jobID]; exists {
		return job.ctx
	}
	return context.Background()
}
