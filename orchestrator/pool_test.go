package orchestrator

import (
	"clipsplit/command"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCommand is a test command that simulates work
type MockCommand struct {
	id         string
	outputPath string
	duration   time.Duration
	shouldFail bool
	executed   atomic.Bool

	running *atomic.Int32
	peak    *atomic.Int32
}

func (m *MockCommand) Run(ctx context.Context) error {
	if m.running != nil {
		n := m.running.Add(1)
		defer m.running.Add(-1)
		for {
			old := m.peak.Load()
			if n <= old || m.peak.CompareAndSwap(old, n) {
				break
			}
		}
	}

	select {
	case <-time.After(m.duration):
	case <-ctx.Done():
		return ctx.Err()
	}

	m.executed.Store(true)
	if m.shouldFail {
		return errors.New("mock command failed")
	}
	return nil
}

func (m *MockCommand) BuildArgs() []string {
	return []string{"-i", "input.mp4", "-c", "copy", m.outputPath}
}

func (m *MockCommand) DryRun() (string, error) {
	return fmt.Sprintf("ffmpeg mock command %s", m.id), nil
}

func (m *MockCommand) GetTaskType() command.TaskType { return command.TaskTypeExtract }
func (m *MockCommand) GetInputPath() string          { return "input.mp4" }
func (m *MockCommand) GetOutputPath() string         { return m.outputPath }

func newTask(id string, cmd *MockCommand) *Task {
	cmd.id = id
	cmd.outputPath = "/tmp/" + id + ".mp4"
	return &Task{ID: id, Command: cmd}
}

func TestPool_AllTasksRunInOrder(t *testing.T) {
	pool := NewPool(2, zerolog.Nop())

	for i := 1; i <= 5; i++ {
		require.NoError(t, pool.AddTask(newTask(fmt.Sprintf("t%d", i), &MockCommand{duration: time.Duration(6-i) * time.Millisecond})))
	}

	tasks := pool.Execute(context.Background())
	require.Len(t, tasks, 5)
	for i, task := range tasks {
		assert.Equal(t, fmt.Sprintf("t%d", i+1), task.ID)
		assert.Equal(t, TaskCompleted, task.Status)
		assert.NoError(t, task.Error)
		assert.True(t, task.Command.(*MockCommand).executed.Load())
		assert.False(t, task.EndTime.Before(task.StartTime))
	}

	stats := pool.GetStats()
	assert.Equal(t, 5, stats["total"])
	assert.Equal(t, 5, stats["completed"])
}

func TestPool_FailureDoesNotStopOthers(t *testing.T) {
	pool := NewPool(3, zerolog.Nop())
	require.NoError(t, pool.AddTask(newTask("a", &MockCommand{duration: time.Millisecond})))
	require.NoError(t, pool.AddTask(newTask("b", &MockCommand{duration: time.Millisecond, shouldFail: true})))
	require.NoError(t, pool.AddTask(newTask("c", &MockCommand{duration: time.Millisecond})))

	tasks := pool.Execute(context.Background())

	assert.Equal(t, TaskCompleted, tasks[0].Status)
	assert.Equal(t, TaskFailed, tasks[1].Status)
	assert.EqualError(t, tasks[1].Error, "mock command failed")
	assert.Equal(t, TaskCompleted, tasks[2].Status)
	assert.Equal(t, 1, pool.GetStats()["failed"])
}

func TestPool_RespectsWorkerLimit(t *testing.T) {
	var running, peak atomic.Int32
	pool := NewPool(2, zerolog.Nop())
	for i := 0; i < 6; i++ {
		cmd := &MockCommand{duration: 20 * time.Millisecond, running: &running, peak: &peak}
		require.NoError(t, pool.AddTask(newTask(fmt.Sprintf("t%d", i), cmd)))
	}

	pool.Execute(context.Background())
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(0), running.Load())
}

func TestPool_ProgressCallback(t *testing.T) {
	pool := NewPool(4, zerolog.Nop())
	for i := 0; i < 4; i++ {
		require.NoError(t, pool.AddTask(newTask(fmt.Sprintf("t%d", i), &MockCommand{duration: time.Millisecond})))
	}

	var mu sync.Mutex
	var seen []int
	pool.SetProgressCallback(func(completed, total int, task *Task) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 4, total)
		seen = append(seen, completed)
	})
	pool.Execute(context.Background())

	assert.Equal(t, []int{1, 2, 3, 4}, seen)
}

func TestPool_Cancellation(t *testing.T) {
	pool := NewPool(1, zerolog.Nop())
	require.NoError(t, pool.AddTask(newTask("slow", &MockCommand{duration: time.Second})))
	require.NoError(t, pool.AddTask(newTask("never", &MockCommand{duration: time.Millisecond})))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	tasks := pool.Execute(ctx)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	for _, task := range tasks {
		assert.Equal(t, TaskFailed, task.Status)
		assert.True(t, errors.Is(task.Error, context.DeadlineExceeded), "got %v", task.Error)
	}
	assert.False(t, tasks[1].Command.(*MockCommand).executed.Load())
}

func TestPool_AddTaskErrors(t *testing.T) {
	pool := NewPool(1, zerolog.Nop())
	require.NoError(t, pool.AddTask(newTask("a", &MockCommand{})))

	assert.Error(t, pool.AddTask(newTask("a", &MockCommand{})))
	assert.Error(t, pool.AddTask(&Task{ID: "nil-command"}))
	assert.Error(t, pool.AddTask(nil))
}

func TestNewPool_DefaultWorkers(t *testing.T) {
	assert.Greater(t, NewPool(0, zerolog.Nop()).Workers(), 0)
	assert.Equal(t, 3, NewPool(3, zerolog.Nop()).Workers())
}

func TestTaskStatus_String(t *testing.T) {
	assert.Equal(t, "pending", TaskPending.String())
	assert.Equal(t, "running", TaskRunning.String())
	assert.Equal(t, "completed", TaskCompleted.String())
	assert.Equal(t, "failed", TaskFailed.String())
}
