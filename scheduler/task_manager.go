package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"wishshare/models"
)

const (
	taskTimeout   = 2 * time.Minute
	taskRetention = time.Hour
)

// PreviewFunc extracts a product for an async task
type PreviewFunc func(ctx context.Context, url string) (*models.ProductRecord, error)

// TaskManager runs preview extractions on a bounded worker pool
type TaskManager struct {
	tasks      map[string]*models.PreviewTask
	taskQueue  chan *models.PreviewTask
	workers    int
	maxWorkers int
	preview    PreviewFunc
	mutex      sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	stopChan   chan struct{}
}

// NewTaskManager creates a new task manager
func NewTaskManager(preview PreviewFunc, maxWorkers int) *TaskManager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	tm := &TaskManager{
		tasks:      make(map[string]*models.PreviewTask),
		taskQueue:  make(chan *models.PreviewTask, 100),
		maxWorkers: maxWorkers,
		preview:    preview,
		ctx:        ctx,
		cancel:     cancel,
		stopChan:   make(chan struct{}),
	}

	go tm.processTasks()
	log.Printf("🚀 Task manager started with %d max workers", maxWorkers)
	return tm
}

// SubmitTask queues a preview of url
func (tm *TaskManager) SubmitTask(url string) *models.PreviewTask {
	task := models.NewPreviewTask(url)

	tm.mutex.Lock()
	tm.tasks[task.ID] = task
	tm.mutex.Unlock()

	select {
	case tm.taskQueue <- task:
		log.Printf("📝 Task %s submitted for %s", task.ID, url)
	default:
		task.Fail("Task queue is full")
		log.Printf("❌ Failed to submit task %s - queue full", task.ID)
	}

	return task
}

// GetTask returns a task by ID
func (tm *TaskManager) GetTask(taskID string) (*models.PreviewTask, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	task, exists := tm.tasks[taskID]
	return task, exists
}

// GetActiveTasks returns all queued or running tasks
func (tm *TaskManager) GetActiveTasks() []*models.PreviewTask {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	var activeTasks []*models.PreviewTask
	for _, task := range tm.tasks {
		if task.IsActive() {
			activeTasks = append(activeTasks, task)
		}
	}
	return activeTasks
}

// CleanupOldTasks removes tasks that finished more than maxAge ago
func (tm *TaskManager) CleanupOldTasks(maxAge time.Duration) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for taskID, task := range tm.tasks {
		if task.CompletedBefore(cutoff) {
			delete(tm.tasks, taskID)
			log.Printf("🧹 Cleaned up old task: %s", taskID)
		}
	}
}

func (tm *TaskManager) processTasks() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case task := <-tm.taskQueue:
			if tm.acquireWorker() {
				go tm.worker(task)
				continue
			}
			go tm.requeue(task)

		case <-ticker.C:
			tm.CleanupOldTasks(taskRetention)

		case <-tm.stopChan:
			log.Println("🛑 Task manager stopped")
			return
		}
	}
}

func (tm *TaskManager) requeue(task *models.PreviewTask) {
	select {
	case <-time.After(time.Second):
	case <-tm.stopChan:
		task.Fail("Task manager stopped")
		return
	}

	select {
	case tm.taskQueue <- task:
		log.Printf("🔄 Re-queued task %s (max workers reached)", task.ID)
	default:
		task.Fail("System overloaded, unable to process task")
		log.Printf("❌ Failed to re-queue task %s", task.ID)
	}
}

func (tm *TaskManager) acquireWorker() bool {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	if tm.workers >= tm.maxWorkers {
		return false
	}
	tm.workers++
	return true
}

func (tm *TaskManager) releaseWorker() int {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.workers--
	return tm.workers
}

func (tm *TaskManager) worker(task *models.PreviewTask) {
	defer func() {
		active := tm.releaseWorker()
		log.Printf("👷 Worker finished, active workers: %d", active)
	}()

	log.Printf("👷 Worker started processing task %s for %s", task.ID, task.URL)
	task.Start()

	ctx, cancel := context.WithTimeout(tm.ctx, taskTimeout)
	defer cancel()

	record, err := tm.preview(ctx, task.URL)
	if err != nil {
		task.Fail(err.Error())
		log.Printf("❌ Task %s failed: %v", task.ID, err)
		return
	}

	task.Complete(record)
	log.Printf("✅ Task %s completed in %v", task.ID, task.Duration())
}

// Stop stops the task manager and cancels running extractions
func (tm *TaskManager) Stop() {
	log.Println("🛑 Task manager stopping...")
	tm.cancel()
	close(tm.stopChan)
}

// GetStats returns task manager statistics
func (tm *TaskManager) GetStats() map[string]interface{} {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	statusCounts := make(map[string]int)
	for _, task := range tm.tasks {
		statusCounts[string(task.Snapshot().Status)]++
	}

	return map[string]interface{}{
		"total_tasks":     len(tm.tasks),
		"active_workers":  tm.workers,
		"max_workers":     tm.maxWorkers,
		"queue_size":      len(tm.taskQueue),
		"tasks_by_status": statusCounts,
	}
}
