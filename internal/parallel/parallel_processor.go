// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"pii-linkage/internal/observability"
)

// MaxDefaultWorkers caps the worker count picked by DefaultWorkers.
const MaxDefaultWorkers = 8

// DefaultWorkers returns NumCPU capped at MaxDefaultWorkers.
func DefaultWorkers() int {
	return min(runtime.NumCPU(), MaxDefaultWorkers)
}

// ProcessingStats summarizes one Process call.
type ProcessingStats struct {
	TotalJobs     int           `json:"total_jobs"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	TotalDuration time.Duration `json:"total_duration_ms"`
	WorkerCount   int           `json:"worker_count"`
	AvgJobTime    time.Duration `json:"avg_job_time_ms"`
}

// ProgressCallback is called as each job completes.
type ProgressCallback func(completed, total int, jobID string)

// Process runs every input through a new pool and returns the results in
// input order. Job failures are reported in the results, not as an error;
// the error is non-nil only when the pool cannot start or ctx ends first.
func Process[T, R any](ctx context.Context, workers int, factory HandlerFactory[T, R], inputs []T,
	jobID func(int, T) string, observer *observability.StandardObserver, progress ProgressCallback,
) ([]Result[T, R], *ProcessingStats, error) {
	start := time.Now()
	finishTiming := observer.StartTiming("parallel_processor", "process", "batch")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := NewWorkerPool(min(max(workers, 1), max(len(inputs), 1)), factory, observer)
	if err := pool.Start(ctx); err != nil {
		finishTiming(false, zap.Error(err))
		return nil, nil, err
	}

	go func() {
		defer pool.Close()
		for i, in := range inputs {
			if err := pool.Submit(ctx, Job[T]{ID: jobID(i, in), Index: i, Input: in}); err != nil {
				return
			}
		}
	}()

	results := make([]Result[T, R], len(inputs))
	stats := &ProcessingStats{TotalJobs: len(inputs), WorkerCount: pool.Workers()}
	var busy time.Duration
	completed := 0
	for res := range pool.Results() {
		results[res.Index] = res
		completed++
		busy += res.Duration
		if res.Err != nil {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
		if progress != nil {
			progress(completed, len(inputs), res.JobID)
		}
	}
	stats.TotalDuration = time.Since(start)
	stats.AvgJobTime = busy / time.Duration(max(completed, 1))

	if err := ctx.Err(); err != nil || completed < len(inputs) {
		if err == nil {
			err = context.Canceled
		}
		finishTiming(false, zap.Int("completed", completed))
		return results, stats, err
	}
	finishTiming(true,
		zap.Int("total_jobs", stats.TotalJobs),
		zap.Int("failed", stats.Failed),
		zap.Int("worker_count", stats.WorkerCount))
	return results, stats, nil
}
