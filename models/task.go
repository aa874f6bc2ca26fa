package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of an async task
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// PreviewTask represents an async product preview extraction
type PreviewTask struct {
	mu sync.RWMutex

	ID          string         `json:"id"`
	URL         string         `json:"url"`
	Status      TaskStatus     `json:"status"`
	Message     string         `json:"message"`
	Result      *ProductRecord `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// NewPreviewTask creates a new queued preview task
func NewPreviewTask(url string) *PreviewTask {
	return &PreviewTask{
		ID:        "task_" + uuid.NewString(),
		URL:       url,
		Status:    TaskStatusQueued,
		Message:   "Task queued for processing",
		CreatedAt: time.Now(),
	}
}

// Start marks the task as processing
func (t *PreviewTask) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusProcessing
	t.Message = "Extracting product data..."
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with result
func (t *PreviewTask) Complete(result *ProductRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusCompleted
	t.Message = "Extraction completed"
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed with error
func (t *PreviewTask) Fail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusFailed
	t.Message = "Extraction failed"
	t.Error = reason
	now := time.Now()
	t.CompletedAt = &now
}

// IsCompleted returns true if the task is in a final state
func (t *PreviewTask) IsCompleted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// CompletedBefore reports whether the task reached a final state at or before at
func (t *PreviewTask) CompletedBefore(at time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.CompletedAt != nil && !t.CompletedAt.After(at)
}

// IsActive returns true if the task is still running
func (t *PreviewTask) IsActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status == TaskStatusQueued || t.Status == TaskStatusProcessing
}

// Snapshot returns a copy safe to serialize while workers keep running
func (t *PreviewTask) Snapshot() PreviewTaskView {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return PreviewTaskView{
		ID:          t.ID,
		URL:         t.URL,
		Status:      t.Status,
		Message:     t.Message,
		Result:      t.Result,
		Error:       t.Error,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
}

// Duration returns the duration of the task
func (t *PreviewTask) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.StartedAt == nil {
		return 0
	}

	endTime := time.Now()
	if t.CompletedAt != nil {
		endTime = *t.CompletedAt
	}

	return endTime.Sub(*t.StartedAt)
}

// PreviewTaskView is the serialized form of a PreviewTask
type PreviewTaskView struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	Status      TaskStatus     `json:"status"`
	Message     string         `json:"message"`
	Result      *ProductRecord `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
