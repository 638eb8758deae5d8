package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_ExecuteFunc(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())

	inputs := []int{1, 2, 3, 4, 5}
	results := pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})

	if len(results) != len(inputs) {
		t.Fatalf("Expected %d results, got %d", len(inputs), len(results))
	}

	for i, r := range results {
		if r.Error != nil {
			t.Errorf("Unexpected error for input %d: %v", inputs[i], r.Error)
		}
		if !r.Done {
			t.Errorf("Result %d not marked done", i)
		}
		if r.Index != i || r.Input != inputs[i] {
			t.Errorf("Result %d out of order: index=%d input=%d", i, r.Index, r.Input)
		}
		if r.Result != inputs[i]*2 {
			t.Errorf("Expected %d, got %d", inputs[i]*2, r.Result)
		}
	}
}

func TestWorkerPool_Empty(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())
	results := pool.ExecuteFunc(context.Background(), nil, func(ctx context.Context, input int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	if results != nil {
		t.Errorf("Expected nil results, got %v", results)
	}
}

func TestWorkerPool_TaskErrorsAttributed(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(3))
	errOdd := errors.New("odd")

	inputs := []int{0, 1, 2, 3, 4, 5, 6}
	results := pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		if input%2 == 1 {
			return 0, errOdd
		}
		return input, nil
	})

	for i, r := range results {
		wantErr := inputs[i]%2 == 1
		if wantErr != errors.Is(r.Error, errOdd) {
			t.Errorf("input %d: error = %v", inputs[i], r.Error)
		}
	}
}

func TestWorkerPool_CancelledContextFillsEveryResult(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(1))

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	inputs := make([]int, 20)
	for i := range inputs {
		inputs[i] = i
	}

	results := pool.ExecuteFunc(ctx, inputs, func(ctx context.Context, input int) (int, error) {
		if calls.Add(1) == 3 {
			cancel()
		}
		return input, nil
	})

	if len(results) != len(inputs) {
		t.Fatalf("Expected %d results, got %d", len(inputs), len(results))
	}

	skipped := 0
	for i, r := range results {
		if r.Done {
			continue
		}
		skipped++
		if !errors.Is(r.Error, context.Canceled) {
			t.Errorf("result %d: expected context.Canceled, got %v", i, r.Error)
		}
	}
	if skipped == 0 {
		t.Error("Expected some inputs to be skipped after cancel")
	}
	if int(calls.Load())+skipped != len(inputs) {
		t.Errorf("calls=%d skipped=%d, want total %d", calls.Load(), skipped, len(inputs))
	}
}

func TestWorkerPool_Timeout(t *testing.T) {
	config := DefaultPoolConfig().WithWorkers(2).WithTimeout(30 * time.Millisecond)
	pool := NewWorkerPool[int, int](config)

	inputs := make([]int, 10)
	results := pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return input, nil
		}
	})

	for i, r := range results {
		if !errors.Is(r.Error, context.DeadlineExceeded) {
			t.Errorf("result %d: expected deadline exceeded, got %v", i, r.Error)
		}
	}
}

func TestNewWorkerPool_Defaults(t *testing.T) {
	pool := NewWorkerPool[int, int](PoolConfig{})
	if pool.config.MaxWorkers != DefaultPoolConfig().MaxWorkers {
		t.Errorf("Expected default workers, got %d", pool.config.MaxWorkers)
	}
}
