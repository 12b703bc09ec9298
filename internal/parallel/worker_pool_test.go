// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobID(i int, _ int) string { return fmt.Sprintf("job_%d", i) }

func TestProcessKeepsInputOrder(t *testing.T) {
	inputs := []int{5, 1, 4, 2, 3}
	factory := func(int) (Handler[int, int], error) {
		return func(_ context.Context, n int) (int, error) {
			time.Sleep(time.Duration(n) * time.Millisecond)
			return n * n, nil
		}, nil
	}

	var progress []int
	results, stats, err := Process(context.Background(), 3, factory, inputs, jobID, nil,
		func(done, total int, _ string) {
			assert.Equal(t, len(inputs), total)
			progress = append(progress, done)
		})
	require.NoError(t, err)
	require.Len(t, results, len(inputs))
	for i, r := range results {
		assert.Equal(t, inputs[i]*inputs[i], r.Value)
		assert.Equal(t, fmt.Sprintf("job_%d", i), r.JobID)
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)
	assert.Equal(t, 5, stats.Succeeded)
	assert.Equal(t, 3, stats.WorkerCount)
}

func TestProcessOneHandlerPerWorker(t *testing.T) {
	var created atomic.Int32
	var mu sync.Mutex
	owners := make(map[int]int)

	factory := func(id int) (Handler[int, int], error) {
		created.Add(1)
		var inUse atomic.Bool
		return func(_ context.Context, n int) (int, error) {
			if !inUse.CompareAndSwap(false, true) {
				return 0, errors.New("handler shared between goroutines")
			}
			defer inUse.Store(false)
			mu.Lock()
			owners[n] = id
			mu.Unlock()
			time.Sleep(time.Millisecond)
			return n, nil
		}, nil
	}

	inputs := make([]int, 40)
	for i := range inputs {
		inputs[i] = i
	}
	results, _, err := Process(context.Background(), 4, factory, inputs, jobID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(4), created.Load())
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, owners[r.Input], r.WorkerID)
	}
}

func TestProcessFailuresAreIsolated(t *testing.T) {
	factory := func(int) (Handler[int, string], error) {
		return func(_ context.Context, n int) (string, error) {
			switch n {
			case 1:
				return "", errors.New("unreadable")
			case 2:
				panic("boom")
			}
			return "ok", nil
		}, nil
	}
	results, stats, err := Process(context.Background(), 2, factory, []int{0, 1, 2, 3}, jobID, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, results[0].Err)
	assert.EqualError(t, results[1].Err, "unreadable")
	assert.ErrorContains(t, results[2].Err, "panic")
	assert.Equal(t, "ok", results[3].Value)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 2, stats.Succeeded)
}

func TestProcessFactoryError(t *testing.T) {
	factory := func(id int) (Handler[int, int], error) {
		if id == 1 {
			return nil, errors.New("model unavailable")
		}
		return func(context.Context, int) (int, error) { return 0, nil }, nil
	}
	_, _, err := Process(context.Background(), 2, factory, []int{1, 2, 3}, jobID, nil, nil)
	assert.ErrorContains(t, err, "failed to create worker 1")
}

func TestProcessJobTimeout(t *testing.T) {
	pool := NewWorkerPool(1, func(int) (Handler[int, int], error) {
		return func(ctx context.Context, _ int) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		}, nil
	}, nil).WithJobTimeout(10 * time.Millisecond)

	ctx := context.Background()
	require.NoError(t, pool.Start(ctx))
	require.NoError(t, pool.Submit(ctx, Job[int]{ID: "slow"}))
	pool.Close()
	pool.Close()

	res := <-pool.Results()
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	_, open := <-pool.Results()
	assert.False(t, open)
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	factory := func(int) (Handler[int, int], error) {
		return func(_ context.Context, n int) (int, error) {
			if n == 0 {
				cancel()
			}
			return n, nil
		}, nil
	}
	inputs := make([]int, 100)
	_, _, err := Process(ctx, 1, factory, inputs, jobID, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessEmpty(t *testing.T) {
	factory := func(int) (Handler[int, int], error) {
		return func(context.Context, int) (int, error) { return 0, nil }, nil
	}
	results, stats, err := Process(context.Background(), 4, factory, nil, jobID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, stats.TotalJobs)
}

func TestDefaultWorkers(t *testing.T) {
	n := DefaultWorkers()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, MaxDefaultWorkers)
}
