// Package orchestrator runs output jobs (exports and renders) with
// dependencies and per-resource concurrency limits.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"mkvlink/command"
)

// ResourceType represents different kinds of work that compete for slots
type ResourceType string

const (
	ResourceIO     ResourceType = "io"     // Small file writes (parallel)
	ResourceFFmpeg ResourceType = "ffmpeg" // ffmpeg processes (sequential)
)

// Runner is the work a task performs. command.Command implementations
// satisfy it; see AddCommand.
type Runner interface {
	Run(ctx context.Context) error
	GetOutputPath() string
}

// Task represents a unit of work with dependencies and resource requirements
type Task struct {
	ID           string
	Runner       Runner
	Dependencies []string // IDs of tasks that must complete before this one
	Resource     ResourceType
	Status       TaskStatus
	Error        error
	StartTime    time.Time
	EndTime      time.Time
}

// TaskStatus represents the current state of a task
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskCompleted
	TaskFailed
)

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
	default:
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
}

// Result is the outcome of one task.
type Result struct {
	TaskID     string
	OutputPath string
	Success    bool
	Error      error
	Duration   time.Duration
}

// ResourceConstraint defines limits for a resource type
type ResourceConstraint struct {
	Type     ResourceType
	MaxSlots int // Maximum concurrent tasks for this resource, at least 1
}

// ErrDependencyFailed marks tasks skipped because a dependency failed.
var ErrDependencyFailed = errors.New("dependency failed")

// DAGOrchestrator manages task execution with dependencies and resource constraints
type DAGOrchestrator struct {
	mu          sync.Mutex
	tasks       map[string]*Task
	order       []string
	constraints map[ResourceType]int
	activeSlots map[ResourceType]int

	onProgress func(completed, total int, task *Task)
}

// NewDAGOrchestrator creates a new orchestrator with resource constraints
func NewDAGOrchestrator(constraints []ResourceConstraint) *DAGOrchestrator {
	constraintMap := make(map[ResourceType]int)
	for _, c := range constraints {
		constraintMap[c.Type] = max(c.MaxSlots, 1)
	}

	return &DAGOrchestrator{
		tasks:       make(map[string]*Task),
		constraints: constraintMap,
		activeSlots: make(map[ResourceType]int),
	}
}

// AddTask adds a task to the orchestrator
func (o *DAGOrchestrator) AddTask(task *Task) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if task.Runner == nil {
		return fmt.Errorf("task %s has no runner", task.ID)
	}
	if _, exists := o.tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}

	task.Status = TaskPending
	o.tasks[task.ID] = task
	o.order = append(o.order, task.ID)
	return nil
}

// AddCommand adds an external command as a task. The task is named after
// the command's task type and runs on the resource that type needs. The
// command is checked with DryRun first so an unrunnable command is rejected
// before anything starts.
func (o *DAGOrchestrator) AddCommand(cmd command.Command, deps ...string) error {
	if _, err := cmd.DryRun(); err != nil {
		return fmt.Errorf("%s: %w", cmd.GetTaskType(), err)
	}
	return o.AddTask(&Task{
		ID:           string(cmd.GetTaskType()),
		Runner:       cmd,
		Dependencies: deps,
		Resource:     resourceFor(cmd.GetTaskType()),
	})
}

func resourceFor(t command.TaskType) ResourceType {
	switch t {
	case command.TaskTypeRender:
		return ResourceFFmpeg
	default:
		return ResourceIO
	}
}

// SetProgressCallback sets a callback for progress updates. It is called
// from the goroutine running Execute.
func (o *DAGOrchestrator) SetProgressCallback(callback func(completed, total int, task *Task)) {
	o.onProgress = callback
}

// Execute runs all tasks respecting dependencies and resource constraints.
// Results are returned in the order tasks were added. The error joins the
// errors of all failed tasks.
//
// Cancelling ctx stops scheduling; running tasks receive the cancelled
// context and Execute waits for them before returning.
func (o *DAGOrchestrator) Execute(ctx context.Context) ([]Result, error) {
	// Validate DAG (no cycles, all dependencies exist)
	if err := o.validateDAG(); err != nil {
		return nil, err
	}

	total := len(o.tasks)
	completed := 0
	running := 0
	doneCh := make(chan *Task, total)

	for completed < total {
		if ctx.Err() == nil {
			o.failBlocked(func(t *Task) {
				completed++
				o.notify(completed, total, t)
			})
			for _, task := range o.readyTasks() {
				running++
				go o.executeTask(ctx, task, doneCh)
			}
		} else if running == 0 {
			o.cancelPending(ctx.Err())
			break
		}

		if completed == total {
			break
		}
		if running == 0 {
			// Nothing runs and nothing became ready: every remaining task
			// waits on a failed dependency, which failBlocked handled.
			continue
		}

		select {
		case task := <-doneCh:
			running--
			completed++
			o.notify(completed, total, task)
		case <-ctx.Done():
			task := <-doneCh
			running--
			completed++
			o.notify(completed, total, task)
		}
	}

	return o.results()
}

func (o *DAGOrchestrator) notify(completed, total int, task *Task) {
	if o.onProgress != nil {
		o.onProgress(completed, total, task)
	}
}

// readyTasks marks pending tasks whose dependencies are met and whose
// resource has a free slot as running, and returns them.
func (o *DAGOrchestrator) readyTasks() []*Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	var ready []*Task
	for _, id := range o.order {
		task := o.tasks[id]
		if task.Status != TaskPending || !o.dependenciesMet(task) {
			continue
		}
		if !o.tryAcquireResource(task.Resource) {
			continue
		}
		task.Status = TaskRunning
		task.StartTime = time.Now()
		ready = append(ready, task)
	}
	return ready
}

// dependenciesMet checks if all dependencies of a task are completed
func (o *DAGOrchestrator) dependenciesMet(task *Task) bool {
	for _, depID := range task.Dependencies {
		if o.tasks[depID].Status != TaskCompleted {
			return false
		}
	}
	return true
}

// tryAcquireResource attempts to acquire a resource slot
func (o *DAGOrchestrator) tryAcquireResource(resourceType ResourceType) bool {
	maxSlots, exists := o.constraints[resourceType]
	if !exists {
		// No constraint, allow execution
		return true
	}

	if o.activeSlots[resourceType] < maxSlots {
		o.activeSlots[resourceType]++
		return true
	}

	return false
}

// releaseResource releases a resource slot
func (o *DAGOrchestrator) releaseResource(resourceType ResourceType) {
	if o.activeSlots[resourceType] > 0 {
		o.activeSlots[resourceType]--
	}
}

// executeTask runs a single task
func (o *DAGOrchestrator) executeTask(ctx context.Context, task *Task, doneCh chan<- *Task) {
	err := task.Runner.Run(ctx)

	o.mu.Lock()
	o.releaseResource(task.Resource)
	task.EndTime = time.Now()
	if err != nil {
		task.Status = TaskFailed
		task.Error = err
	} else {
		task.Status = TaskCompleted
	}
	o.mu.Unlock()

	doneCh <- task
}

// failBlocked fails pending tasks that depend, directly or not, on a
// failed task.
func (o *DAGOrchestrator) failBlocked(onFail func(*Task)) {
	o.mu.Lock()
	var failed []*Task
	for changed := true; changed; {
		changed = false
		for _, id := range o.order {
			task := o.tasks[id]
			if task.Status != TaskPending || !o.hasFailedDependency(task) {
				continue
			}
			task.Status = TaskFailed
			task.Error = ErrDependencyFailed
			failed = append(failed, task)
			changed = true
		}
	}
	o.mu.Unlock()

	for _, task := range failed {
		onFail(task)
	}
}

// hasFailedDependency checks if any direct dependency has failed
func (o *DAGOrchestrator) hasFailedDependency(task *Task) bool {
	for _, depID := range task.Dependencies {
		if o.tasks[depID].Status == TaskFailed {
			return true
		}
	}
	return false
}

func (o *DAGOrchestrator) cancelPending(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, task := range o.tasks {
		if task.Status == TaskPending {
			task.Status = TaskFailed
			task.Error = err
		}
	}
}

func (o *DAGOrchestrator) results() ([]Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	results := make([]Result, 0, len(o.order))
	var errs []error
	for _, id := range o.order {
		task := o.tasks[id]
		r := Result{
			TaskID:     id,
			OutputPath: task.Runner.GetOutputPath(),
			Success:    task.Status == TaskCompleted,
			Error:      task.Error,
		}
		if !task.StartTime.IsZero() && !task.EndTime.IsZero() {
			r.Duration = task.EndTime.Sub(task.StartTime)
		}
		if task.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, task.Error))
		}
		results = append(results, r)
	}
	return results, errors.Join(errs...)
}

// validateDAG validates the task graph
func (o *DAGOrchestrator) validateDAG() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Check all dependencies exist
	for _, id := range o.order {
		for _, depID := range o.tasks[id].Dependencies {
			if _, exists := o.tasks[depID]; !exists {
				return fmt.Errorf("task %s depends on non-existent task %s", id, depID)
			}
		}
	}

	// Check for cycles (simple DFS-based cycle detection)
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(taskID string) bool
	hasCycle = func(taskID string) bool {
		visited[taskID] = true
		recStack[taskID] = true

		for _, depID := range o.tasks[taskID].Dependencies {
			if !visited[depID] {
				if hasCycle(depID) {
					return true
				}
			} else if recStack[depID] {
				return true
			}
		}

		recStack[taskID] = false
		return false
	}

	for _, id := range o.order {
		if !visited[id] && hasCycle(id) {
			return fmt.Errorf("cycle detected in task dependencies")
		}
	}

	return nil
}

// GetTaskStatus returns the status of a task
func (o *DAGOrchestrator) GetTaskStatus(taskID string) (TaskStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	task, exists := o.tasks[taskID]
	if !exists {
		return TaskPending, fmt.Errorf("task %s not found", taskID)
	}

	return task.Status, nil
}

// GetStats returns the number of tasks per status
func (o *DAGOrchestrator) GetStats() map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()

	stats := map[string]int{"total": len(o.tasks)}
	for _, s := range []TaskStatus{TaskPending, TaskRunning, TaskCompleted, TaskFailed} {
		stats[s.String()] = 0
	}
	for _, task := range o.tasks {
		stats[task.Status.String()]++
	}
	return stats
}

// TaskIDs returns the task IDs in sorted order.
func (o *DAGOrchestrator) TaskIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	ids := append([]string(nil), o.order...)
	sort.Strings(ids)
	return ids
}
