package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mkvlink/command"
)

// MockRunner is a test runner that simulates work
type MockRunner struct {
	outputPath string
	duration   time.Duration
	shouldFail bool
	executed   atomic.Bool

	// Shared across runners to observe concurrency
	active  *atomic.Int32
	maxSeen *atomic.Int32
	log     *orderLog
	id      string
}

type orderLog struct {
	mu  sync.Mutex
	ids []string
}

func (l *orderLog) add(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, id)
}

func (m *MockRunner) Run(ctx context.Context) error {
	if m.active != nil {
		n := m.active.Add(1)
		for {
			seen := m.maxSeen.Load()
			if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
				break
			}
		}
		defer m.active.Add(-1)
	}

	select {
	case <-time.After(m.duration):
	case <-ctx.Done():
		return ctx.Err()
	}

	m.executed.Store(true)
	if m.log != nil {
		m.log.add(m.id)
	}
	if m.shouldFail {
		return errors.New("mock runner failed")
	}
	return nil
}

func (m *MockRunner) GetOutputPath() string {
	return m.outputPath
}

func TestDAGOrchestrator_SimpleSequence(t *testing.T) {
	orch := NewDAGOrchestrator([]ResourceConstraint{
		{Type: ResourceIO, MaxSlots: 2},
	})

	log := &orderLog{}

	// Create tasks: A -> B -> C (sequential)
	for _, tc := range []struct {
		id   string
		deps []string
	}{
		{"C", []string{"B"}},
		{"A", nil},
		{"B", []string{"A"}},
	} {
		err := orch.AddTask(&Task{
			ID:           tc.id,
			Runner:       &MockRunner{id: tc.id, outputPath: "/tmp/" + tc.id, duration: 5 * time.Millisecond, log: log},
			Dependencies: tc.deps,
			Resource:     ResourceIO,
		})
		if err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
	}

	results, err := orch.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	// Results follow insertion order
	if results[0].TaskID != "C" || results[1].TaskID != "A" {
		t.Errorf("Unexpected result order: %+v", results)
	}
	for _, r := range results {
		if !r.Success {
			t.Errorf("Task %s failed: %v", r.TaskID, r.Error)
		}
	}

	want := []string{"A", "B", "C"}
	for i, id := range want {
		if log.ids[i] != id {
			t.Errorf("Expected execution order %v, got %v", want, log.ids)
			break
		}
	}
}

func TestDAGOrchestrator_ResourceConstraint(t *testing.T) {
	orch := NewDAGOrchestrator([]ResourceConstraint{
		{Type: ResourceFFmpeg, MaxSlots: 1},
		{Type: ResourceIO, MaxSlots: 3},
	})

	var ffActive, ffMax, ioActive, ioMax atomic.Int32
	for i := 0; i < 3; i++ {
		id := string(rune('a' + i))
		orch.AddTask(&Task{
			ID:       "render-" + id,
			Runner:   &MockRunner{duration: 10 * time.Millisecond, active: &ffActive, maxSeen: &ffMax},
			Resource: ResourceFFmpeg,
		})
		orch.AddTask(&Task{
			ID:       "export-" + id,
			Runner:   &MockRunner{duration: 20 * time.Millisecond, active: &ioActive, maxSeen: &ioMax},
			Resource: ResourceIO,
		})
	}

	if _, err := orch.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if ffMax.Load() != 1 {
		t.Errorf("Expected at most 1 concurrent ffmpeg task, saw %d", ffMax.Load())
	}
	if ioMax.Load() > 3 {
		t.Errorf("Expected at most 3 concurrent io tasks, saw %d", ioMax.Load())
	}
	if orch.GetStats()["completed"] != 6 {
		t.Errorf("Expected 6 completed tasks, got %v", orch.GetStats())
	}
}

func TestDAGOrchestrator_FailurePropagation(t *testing.T) {
	orch := NewDAGOrchestrator(nil)

	a := &MockRunner{duration: time.Millisecond, shouldFail: true}
	b := &MockRunner{duration: time.Millisecond}
	c := &MockRunner{duration: time.Millisecond}
	d := &MockRunner{duration: time.Millisecond}

	orch.AddTask(&Task{ID: "A", Runner: a})
	orch.AddTask(&Task{ID: "B", Runner: b, Dependencies: []string{"A"}})
	orch.AddTask(&Task{ID: "C", Runner: c, Dependencies: []string{"B"}})
	orch.AddTask(&Task{ID: "D", Runner: d})

	var progress []int
	orch.SetProgressCallback(func(completed, total int, task *Task) {
		progress = append(progress, completed)
		if total != 4 {
			t.Errorf("Expected total 4, got %d", total)
		}
	})

	results, err := orch.Execute(context.Background())
	if err == nil {
		t.Fatal("Expected error from failed task")
	}

	if b.executed.Load() || c.executed.Load() {
		t.Error("Dependents of a failed task must not run")
	}
	if !d.executed.Load() {
		t.Error("Independent task should still run")
	}
	if !errors.Is(results[1].Error, ErrDependencyFailed) || !errors.Is(results[2].Error, ErrDependencyFailed) {
		t.Errorf("Expected dependency failures, got %v / %v", results[1].Error, results[2].Error)
	}
	if len(progress) != 4 || progress[3] != 4 {
		t.Errorf("Expected 4 progress updates ending at 4, got %v", progress)
	}
}

func TestDAGOrchestrator_Cancellation(t *testing.T) {
	orch := NewDAGOrchestrator([]ResourceConstraint{{Type: ResourceFFmpeg, MaxSlots: 1}})

	slow := &MockRunner{duration: 5 * time.Second}
	next := &MockRunner{duration: time.Millisecond}
	orch.AddTask(&Task{ID: "slow", Runner: slow, Resource: ResourceFFmpeg})
	orch.AddTask(&Task{ID: "next", Runner: next, Resource: ResourceFFmpeg})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	results, err := orch.Execute(ctx)
	if time.Since(start) > 2*time.Second {
		t.Error("Execute did not stop on cancellation")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline error, got %v", err)
	}
	if next.executed.Load() {
		t.Error("Pending task should not start after cancellation")
	}
	for _, r := range results {
		if r.Success {
			t.Errorf("Task %s should not have succeeded", r.TaskID)
		}
	}
}

func TestDAGOrchestrator_Validation(t *testing.T) {
	t.Run("missing dependency", func(t *testing.T) {
		orch := NewDAGOrchestrator(nil)
		orch.AddTask(&Task{ID: "A", Runner: &MockRunner{}, Dependencies: []string{"Z"}})
		if _, err := orch.Execute(context.Background()); err == nil {
			t.Error("Expected error for missing dependency")
		}
	})

	t.Run("cycle", func(t *testing.T) {
		orch := NewDAGOrchestrator(nil)
		orch.AddTask(&Task{ID: "A", Runner: &MockRunner{}, Dependencies: []string{"B"}})
		orch.AddTask(&Task{ID: "B", Runner: &MockRunner{}, Dependencies: []string{"A"}})
		if _, err := orch.Execute(context.Background()); err == nil {
			t.Error("Expected error for cycle")
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		orch := NewDAGOrchestrator(nil)
		if err := orch.AddTask(&Task{ID: "A", Runner: &MockRunner{}}); err != nil {
			t.Fatal(err)
		}
		if err := orch.AddTask(&Task{ID: "A", Runner: &MockRunner{}}); err == nil {
			t.Error("Expected error for duplicate task")
		}
	})

	t.Run("no runner", func(t *testing.T) {
		orch := NewDAGOrchestrator(nil)
		if err := orch.AddTask(&Task{ID: "A"}); err == nil {
			t.Error("Expected error for task without runner")
		}
	})
}

func TestDAGOrchestrator_Empty(t *testing.T) {
	results, err := NewDAGOrchestrator(nil).Execute(context.Background())
	if err != nil || len(results) != 0 {
		t.Errorf("Expected no results and no error, got %v, %v", results, err)
	}
}

func TestDAGOrchestrator_ZeroSlotsTreatedAsOne(t *testing.T) {
	orch := NewDAGOrchestrator([]ResourceConstraint{{Type: ResourceIO, MaxSlots: 0}})
	r := &MockRunner{duration: time.Millisecond}
	orch.AddTask(&Task{ID: "A", Runner: r, Resource: ResourceIO})

	if _, err := orch.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !r.executed.Load() {
		t.Error("Task should have run")
	}
}

func TestGetTaskStatus(t *testing.T) {
	orch := NewDAGOrchestrator(nil)
	orch.AddTask(&Task{ID: "A", Runner: &MockRunner{}})

	status, err := orch.GetTaskStatus("A")
	if err != nil || status != TaskPending {
		t.Errorf("Expected pending, got %v (%v)", status, err)
	}
	if _, err := orch.GetTaskStatus("missing"); err == nil {
		t.Error("Expected error for unknown task")
	}
	if got := orch.TaskIDs(); len(got) != 1 || got[0] != "A" {
		t.Errorf("Unexpected task IDs %v", got)
	}
	if TaskFailed.String() != "failed" {
		t.Errorf("Unexpected status string %q", TaskFailed.String())
	}
}

// mockCommand is a command.Command backed by a MockRunner
type mockCommand struct {
	MockRunner
	taskType  command.TaskType
	dryRunErr error
}

func (m *mockCommand) BuildArgs() []string            { return []string{"-i", "in", m.outputPath} }
func (m *mockCommand) GetTaskType() command.TaskType { return m.taskType }
func (m *mockCommand) GetInputPath() string          { return "in" }

func (m *mockCommand) DryRun() (string, error) {
	if m.dryRunErr != nil {
		return "", m.dryRunErr
	}
	return "ffmpeg -i in " + m.outputPath, nil
}

func TestDAGOrchestrator_AddCommand(t *testing.T) {
	orch := NewDAGOrchestrator([]ResourceConstraint{{Type: ResourceFFmpeg, MaxSlots: 1}})

	export := &MockRunner{outputPath: "/out/flat.ffconcat", duration: time.Millisecond}
	orch.AddTask(&Task{ID: "ffconcat", Runner: export, Resource: ResourceIO})

	render := &mockCommand{
		MockRunner: MockRunner{outputPath: "/out/flat.mkv", duration: time.Millisecond},
		taskType:   command.TaskTypeRender,
	}
	if err := orch.AddCommand(render, "ffconcat"); err != nil {
		t.Fatalf("AddCommand failed: %v", err)
	}

	task := orch.tasks["render"]
	if task == nil {
		t.Fatal("Expected task named after the task type")
	}
	if task.Resource != ResourceFFmpeg {
		t.Errorf("Expected render on the ffmpeg resource, got %s", task.Resource)
	}

	results, err := orch.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !render.executed.Load() {
		t.Error("Command should have run")
	}
	if results[1].OutputPath != "/out/flat.mkv" {
		t.Errorf("Unexpected output path %q", results[1].OutputPath)
	}
}

func TestDAGOrchestrator_AddCommandRejectsInvalid(t *testing.T) {
	orch := NewDAGOrchestrator(nil)
	bad := &mockCommand{taskType: command.TaskTypeRender, dryRunErr: errors.New("invalid timeline")}

	err := orch.AddCommand(bad)
	if err == nil {
		t.Fatal("Expected error for a command that fails its dry run")
	}
	if len(orch.TaskIDs()) != 0 {
		t.Error("Rejected command must not be added")
	}
}
