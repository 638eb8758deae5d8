// Package parallel provides a generic ordered worker pool.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// ============================================================================
// Worker Pool Configuration
// ============================================================================

// PoolConfig configures the worker pool behavior.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8)
	MaxWorkers int

	// TaskBufferSize is the buffer size for the task channel.
	// Default: MaxWorkers * 2
	TaskBufferSize int

	// Timeout bounds the whole Execute call. Zero means no timeout.
	Timeout time.Duration
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := min(runtime.NumCPU(), 8)
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{
		MaxWorkers:     workers,
		TaskBufferSize: workers * 2,
	}
}

// WithWorkers returns a new config with the specified number of workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a new config with the specified timeout.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// ============================================================================
// Task Result
// ============================================================================

// TaskResult holds the outcome for one input.
// Done is false when the task never ran; Error then holds the context error.
type TaskResult[T any, R any] struct {
	Index    int
	Input    T
	Result   R
	Error    error
	Done     bool
	Duration time.Duration
}

// ============================================================================
// Worker Pool
// ============================================================================

// WorkerPool runs a function over inputs concurrently and returns
// results in input order.
type WorkerPool[T any, R any] struct {
	config PoolConfig
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultPoolConfig().MaxWorkers
	}
	if config.TaskBufferSize <= 0 {
		config.TaskBufferSize = config.MaxWorkers * 2
	}
	return &WorkerPool[T, R]{config: config}
}

// ExecuteFunc applies fn to every input and returns one result per input,
// in input order. Inputs not started before ctx is done are returned with
// Done=false and Error=ctx.Err(); no result is ever left zero-valued.
func (p *WorkerPool[T, R]) ExecuteFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []TaskResult[T, R] {
	if len(inputs) == 0 {
		return nil
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	results := make([]TaskResult[T, R], len(inputs))
	for i, in := range inputs {
		results[i] = TaskResult[T, R]{Index: i, Input: in}
	}

	taskCh := make(chan int, p.config.TaskBufferSize)

	var wg sync.WaitGroup
	numWorkers := min(p.config.MaxWorkers, len(inputs))
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskCh {
				if ctx.Err() != nil {
					continue
				}
				taskStart := time.Now()
				result, err := fn(ctx, inputs[idx])
				duration := time.Since(taskStart)

				r := &results[idx]
				r.Result = result
				r.Error = err
				r.Done = true
				r.Duration = duration
			}
		}()
	}

submit:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break submit
		case taskCh <- i:
		}
	}
	close(taskCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			if !results[i].Done {
				results[i].Error = err
			}
		}
	}

	return results
}
