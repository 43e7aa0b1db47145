package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/config"
)

// scanTask implements domain.ExecutableTask for testing
type scanTask struct {
	name     string
	enabled  bool
	execFunc func(ctx context.Context) (interface{}, error)
}

func (t *scanTask) Name() string    { return t.name }
func (t *scanTask) IsEnabled() bool { return t.enabled }

func (t *scanTask) Execute(ctx context.Context) (interface{}, error) {
	if t.execFunc != nil {
		return t.execFunc(ctx)
	}
	return nil, nil
}

func TestParallelExecutorFromConfig(t *testing.T) {
	executor := NewParallelExecutorFromConfig(&config.PerformanceConfig{
		MaxGoroutines:  8,
		TimeoutSeconds: 120,
	})
	if executor.maxConcurrency != 8 {
		t.Errorf("Expected concurrency 8, got %d", executor.maxConcurrency)
	}
	if executor.timeout != 120*time.Second {
		t.Errorf("Expected 120s timeout, got %v", executor.timeout)
	}

	fallback := NewParallelExecutorFromConfig(&config.PerformanceConfig{})
	if fallback.maxConcurrency != DefaultMaxConcurrency {
		t.Errorf("Zero config must fall back to %d, got %d", DefaultMaxConcurrency, fallback.maxConcurrency)
	}
	if fallback.timeout != DefaultTimeout {
		t.Errorf("Zero config must fall back to %v, got %v", DefaultTimeout, fallback.timeout)
	}
}

func TestParallelExecutorRunsAllEnabledTasks(t *testing.T) {
	executor := NewParallelExecutor()

	var ran atomic.Int32
	count := func(ctx context.Context) (interface{}, error) {
		ran.Add(1)
		return nil, nil
	}
	tasks := []domain.ExecutableTask{
		&scanTask{name: "core", enabled: true, execFunc: count},
		&scanTask{name: "web", enabled: true, execFunc: count},
		&scanTask{name: "docs", enabled: false, execFunc: count},
	}

	if err := executor.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if ran.Load() != 2 {
		t.Errorf("Expected 2 tasks to run, got %d", ran.Load())
	}
}

func TestParallelExecutorAggregatesFailures(t *testing.T) {
	executor := NewParallelExecutor()

	var ran atomic.Int32
	fail := errors.New("manifest unreadable")
	tasks := []domain.ExecutableTask{
		&scanTask{name: "core", enabled: true, execFunc: func(ctx context.Context) (interface{}, error) {
			ran.Add(1)
			return nil, fail
		}},
		&scanTask{name: "web", enabled: true, execFunc: func(ctx context.Context) (interface{}, error) {
			ran.Add(1)
			return nil, nil
		}},
		&scanTask{name: "cli", enabled: true, execFunc: func(ctx context.Context) (interface{}, error) {
			ran.Add(1)
			return nil, fail
		}},
	}

	err := executor.Execute(context.Background(), tasks)
	if err == nil {
		t.Fatal("Expected aggregated error")
	}
	if ran.Load() != 3 {
		t.Errorf("A failure must not stop sibling tasks, ran %d", ran.Load())
	}

	var agg *AggregatedError
	if !errors.As(err, &agg) {
		t.Fatalf("Expected AggregatedError, got %T", err)
	}
	if len(agg.Errors) != 2 {
		t.Errorf("Expected 2 task errors, got %d", len(agg.Errors))
	}
	if !errors.Is(err, fail) {
		t.Error("Aggregated error must unwrap to the underlying failure")
	}
	if !strings.Contains(agg.Error(), "2 tasks failed") {
		t.Errorf("Unexpected message: %s", agg.Error())
	}
}

func TestParallelExecutorHonorsConcurrencyLimit(t *testing.T) {
	executor := NewParallelExecutorFromConfig(&config.PerformanceConfig{
		MaxGoroutines:  2,
		TimeoutSeconds: 30,
	})

	var current, peak atomic.Int32
	var tasks []domain.ExecutableTask
	for i := 0; i < 5; i++ {
		tasks = append(tasks, &scanTask{name: "ws", enabled: true,
			execFunc: func(ctx context.Context) (interface{}, error) {
				n := current.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				current.Add(-1)
				return nil, nil
			}})
	}

	if err := executor.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("Concurrency must stay at 2, peaked at %d", peak.Load())
	}
}

func TestParallelExecutorTimeout(t *testing.T) {
	executor := NewParallelExecutor()
	executor.SetTimeout(50 * time.Millisecond)

	tasks := []domain.ExecutableTask{
		&scanTask{name: "slow", enabled: true, execFunc: func(ctx context.Context) (interface{}, error) {
			select {
			case <-time.After(2 * time.Second):
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}},
	}

	err := executor.Execute(context.Background(), tasks)
	if err == nil {
		t.Fatal("Expected timeout to surface as a task error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestParallelExecutorProgressReporting(t *testing.T) {
	var increments atomic.Int32
	var completed atomic.Bool
	pm := &recordingProgressManager{
		onIncrement: func(n int) { increments.Add(int32(n)) },
		onComplete:  func() { completed.Store(true) },
	}

	executor := NewParallelExecutorWithProgress(&config.PerformanceConfig{MaxGoroutines: 2}, pm)
	tasks := []domain.ExecutableTask{
		&scanTask{name: "a", enabled: true},
		&scanTask{name: "b", enabled: true},
	}

	if err := executor.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if increments.Load() != 2 {
		t.Errorf("Expected 2 increments, got %d", increments.Load())
	}
	if !completed.Load() {
		t.Error("Progress task must be completed")
	}
}

func TestParallelExecutorEmptyAndAllDisabled(t *testing.T) {
	executor := NewParallelExecutor()
	if err := executor.Execute(context.Background(), nil); err != nil {
		t.Errorf("Empty task list must succeed: %v", err)
	}
	tasks := []domain.ExecutableTask{&scanTask{name: "off"}}
	if err := executor.Execute(context.Background(), tasks); err != nil {
		t.Errorf("All-disabled list must succeed: %v", err)
	}
}

func TestParallelExecutorSettersRejectInvalid(t *testing.T) {
	executor := NewParallelExecutor()
	original := executor.maxConcurrency

	executor.SetMaxConcurrency(0)
	executor.SetMaxConcurrency(-3)
	if executor.maxConcurrency != original {
		t.Errorf("Invalid concurrency must be ignored, got %d", executor.maxConcurrency)
	}

	executor.SetTimeout(-time.Second)
	if executor.timeout != DefaultTimeout {
		t.Errorf("Invalid timeout must be ignored, got %v", executor.timeout)
	}
	executor.SetTimeout(time.Minute)
	if executor.timeout != time.Minute {
		t.Errorf("Valid timeout must apply, got %v", executor.timeout)
	}
}

// recordingProgressManager captures progress callbacks for assertions
type recordingProgressManager struct {
	onIncrement func(n int)
	onComplete  func()
}

func (m *recordingProgressManager) StartTask(string, int) domain.TaskProgress {
	return &recordingTaskProgress{m: m}
}
func (m *recordingProgressManager) IsInteractive() bool { return false }
func (m *recordingProgressManager) Close()              {}

type recordingTaskProgress struct{ m *recordingProgressManager }

func (tp *recordingTaskProgress) Increment(n int) {
	if tp.m.onIncrement != nil {
		tp.m.onIncrement(n)
	}
}
func (tp *recordingTaskProgress) Describe(string) {}
func (tp *recordingTaskProgress) Complete() {
	if tp.m.onComplete != nil {
		tp.m.onComplete()
	}
}
