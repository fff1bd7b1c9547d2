// Package orchestrator runs independent ffmpeg commands on a bounded number
// of workers.
package orchestrator

import (
	"clipsplit/command"
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is one unit of work: a command plus its outcome.
type Task struct {
	ID        string
	Command   command.Command
	Status    TaskStatus
	Error     error
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns how long the task ran.
func (t *Task) Duration() time.Duration {
	if t.StartTime.IsZero() || t.EndTime.IsZero() {
		return 0
	}
	return t.EndTime.Sub(t.StartTime)
}

// TaskStatus represents the current state of a task
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskCompleted
	TaskFailed
)

// String returns the lowercase status name.
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Pool executes tasks with at most Workers running at once.
//
// Tasks never share output paths, so no locking is needed around the
// commands themselves; the pool only guards its own bookkeeping.
type Pool struct {
	workers int
	logger  zerolog.Logger

	tasks      []*Task
	ids        map[string]struct{}
	tasksMutex sync.Mutex

	onProgress func(completed, total int, task *Task)
}

// NewPool creates a pool. workers <= 0 means one worker per CPU.
func NewPool(workers int, logger zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers: workers,
		logger:  logger.With().Str("component", "orchestrator").Logger(),
		ids:     make(map[string]struct{}),
	}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// AddTask queues a task. IDs must be unique.
func (p *Pool) AddTask(task *Task) error {
	p.tasksMutex.Lock()
	defer p.tasksMutex.Unlock()

	if task == nil || task.Command == nil {
		return fmt.Errorf("task must have a command")
	}
	if _, exists := p.ids[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}

	task.Status = TaskPending
	p.ids[task.ID] = struct{}{}
	p.tasks = append(p.tasks, task)
	return nil
}

// SetProgressCallback sets a callback invoked after every finished task.
// Calls are serialized and made while the pool holds its lock, so the
// callback must not call back into the pool.
func (p *Pool) SetProgressCallback(callback func(completed, total int, task *Task)) {
	p.onProgress = callback
}

// Execute runs every queued task and returns them in the order they were
// added. A failing task does not stop the others. When ctx is cancelled,
// running commands are killed and tasks not yet started fail with the
// context error.
func (p *Pool) Execute(ctx context.Context) []*Task {
	p.tasksMutex.Lock()
	tasks := append([]*Task(nil), p.tasks...)
	p.tasksMutex.Unlock()

	total := len(tasks)
	completed := 0
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	finish := func(task *Task, err error) {
		p.tasksMutex.Lock()
		defer p.tasksMutex.Unlock()

		task.EndTime = time.Now()
		if err != nil {
			task.Status = TaskFailed
			task.Error = err
		} else {
			task.Status = TaskCompleted
		}

		completed++
		if p.onProgress != nil {
			p.onProgress(completed, total, task)
		}
	}

	for _, task := range tasks {
		acquired := false
		select {
		case sem <- struct{}{}:
			acquired = true
		case <-ctx.Done():
		}
		if err := ctx.Err(); err != nil {
			if acquired {
				<-sem
			}
			finish(task, fmt.Errorf("not started: %w", err))
			continue
		}

		wg.Add(1)
		go func(task *Task) {
			defer wg.Done()
			defer func() { <-sem }()

			p.tasksMutex.Lock()
			task.Status = TaskRunning
			task.StartTime = time.Now()
			p.tasksMutex.Unlock()

			p.logger.Debug().Str("task", task.ID).Str("output", task.Command.GetOutputPath()).Msg("task started")
			err := task.Command.Run(ctx)
			finish(task, err)
		}(task)
	}

	wg.Wait()
	return tasks
}

// GetStats returns execution statistics
func (p *Pool) GetStats() map[string]int {
	p.tasksMutex.Lock()
	defer p.tasksMutex.Unlock()

	stats := map[string]int{"total": len(p.tasks)}
	for _, task := range p.tasks {
		stats[task.Status.String()]++
	}
	return stats
}
