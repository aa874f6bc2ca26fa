package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"wishshare/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskManagerCompletesTask(t *testing.T) {
	tm := NewTaskManager(func(ctx context.Context, url string) (*models.ProductRecord, error) {
		return &models.ProductRecord{Title: models.StringPtr("Lamp")}, nil
	}, 2)
	defer tm.Stop()

	task := tm.SubmitTask("https://shop.test/lamp")
	require.Equal(t, models.TaskStatusQueued, task.Snapshot().Status)

	require.Eventually(t, task.IsCompleted, 2*time.Second, 10*time.Millisecond)

	view := task.Snapshot()
	assert.Equal(t, models.TaskStatusCompleted, view.Status)
	require.NotNil(t, view.Result)
	assert.Equal(t, "Lamp", *view.Result.Title)

	got, ok := tm.GetTask(task.ID)
	require.True(t, ok)
	assert.Same(t, task, got)
}

func TestTaskManagerRecordsFailure(t *testing.T) {
	tm := NewTaskManager(func(ctx context.Context, url string) (*models.ProductRecord, error) {
		return nil, errors.New("domain not allowed: internal.test")
	}, 1)
	defer tm.Stop()

	task := tm.SubmitTask("https://internal.test")
	require.Eventually(t, task.IsCompleted, 2*time.Second, 10*time.Millisecond)

	view := task.Snapshot()
	assert.Equal(t, models.TaskStatusFailed, view.Status)
	assert.Contains(t, view.Error, "domain not allowed")
}

func TestTaskManagerRespectsWorkerLimit(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})
	tm := NewTaskManager(func(ctx context.Context, url string) (*models.ProductRecord, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return &models.ProductRecord{}, nil
	}, 2)
	defer tm.Stop()

	tasks := make([]*models.PreviewTask, 0, 4)
	for i := 0; i < 4; i++ {
		tasks = append(tasks, tm.SubmitTask("https://shop.test/item"))
	}

	require.Eventually(t, func() bool { return running.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	close(release)

	for _, task := range tasks {
		require.Eventually(t, task.IsCompleted, 5*time.Second, 20*time.Millisecond)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestTaskManagerCleanup(t *testing.T) {
	tm := NewTaskManager(func(ctx context.Context, url string) (*models.ProductRecord, error) {
		return &models.ProductRecord{}, nil
	}, 1)
	defer tm.Stop()

	task := tm.SubmitTask("https://shop.test/lamp")
	require.Eventually(t, task.IsCompleted, 2*time.Second, 10*time.Millisecond)

	tm.CleanupOldTasks(0)

	_, ok := tm.GetTask(task.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, tm.GetStats()["total_tasks"])
}

func TestTaskManagerCleanupCountsFromCompletion(t *testing.T) {
	tm := NewTaskManager(func(ctx context.Context, url string) (*models.ProductRecord, error) {
		return &models.ProductRecord{}, nil
	}, 1)
	defer tm.Stop()

	task := models.NewPreviewTask("https://shop.test/slow")
	task.CreatedAt = time.Now().Add(-2 * time.Hour)
	task.Start()
	task.Complete(&models.ProductRecord{})
	tm.mutex.Lock()
	tm.tasks[task.ID] = task
	tm.mutex.Unlock()

	tm.CleanupOldTasks(time.Hour)
	_, ok := tm.GetTask(task.ID)
	assert.True(t, ok, "a task queued long ago but just finished is kept")

	old := time.Now().Add(-90 * time.Minute)
	task.CompletedAt = &old
	tm.CleanupOldTasks(time.Hour)
	_, ok = tm.GetTask(task.ID)
	assert.False(t, ok)
}
