// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package parallel runs jobs on a fixed set of workers. Each worker owns the
// state its handler closes over, so handlers holding non-thread-safe
// resources never share them.
package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pii-linkage/internal/observability"
)

// DefaultJobTimeout bounds a single job.
const DefaultJobTimeout = 5 * time.Minute

// Job is one unit of work.
type Job[T any] struct {
	ID    string
	Index int
	Input T
}

// Result is the outcome of one job.
type Result[T, R any] struct {
	JobID    string
	Index    int
	Input    T
	Value    R
	Err      error
	Duration time.Duration
	WorkerID int
}

// Handler processes one job on the worker that owns it.
type Handler[T, R any] func(ctx context.Context, in T) (R, error)

// HandlerFactory is called once per worker before any job runs.
type HandlerFactory[T, R any] func(workerID int) (Handler[T, R], error)

// WorkerPool manages parallel job processing.
type WorkerPool[T, R any] struct {
	workers    int
	factory    HandlerFactory[T, R]
	jobs       chan Job[T]
	results    chan Result[T, R]
	wg         sync.WaitGroup
	observer   *observability.StandardObserver
	jobTimeout time.Duration
	closeOnce  sync.Once
}

// NewWorkerPool creates a pool of workers. It does nothing until Start.
func NewWorkerPool[T, R any](workers int, factory HandlerFactory[T, R], observer *observability.StandardObserver) *WorkerPool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool[T, R]{
		workers:    workers,
		factory:    factory,
		jobs:       make(chan Job[T], workers*2),
		results:    make(chan Result[T, R], workers*2),
		observer:   observer,
		jobTimeout: DefaultJobTimeout,
	}
}

// WithJobTimeout overrides DefaultJobTimeout. Zero disables the limit.
func (wp *WorkerPool[T, R]) WithJobTimeout(d time.Duration) *WorkerPool[T, R] {
	wp.jobTimeout = d
	return wp
}

// Workers returns the number of workers.
func (wp *WorkerPool[T, R]) Workers() int { return wp.workers }

// Start builds every worker's handler, then launches the workers. If a
// handler cannot be built no worker is started. The results channel closes
// once the job queue is closed and drained.
func (wp *WorkerPool[T, R]) Start(ctx context.Context) error {
	handlers := make([]Handler[T, R], wp.workers)
	for i := range handlers {
		h, err := wp.factory(i)
		if err != nil {
			return fmt.Errorf("failed to create worker %d: %w", i, err)
		}
		handlers[i] = h
	}
	for i, h := range handlers {
		wp.wg.Add(1)
		go wp.worker(ctx, i, h)
	}
	go func() {
		wp.wg.Wait()
		close(wp.results)
	}()
	return nil
}

// Submit queues a job, blocking while the queue is full.
func (wp *WorkerPool[T, R]) Submit(ctx context.Context, job Job[T]) error {
	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the end of submissions.
func (wp *WorkerPool[T, R]) Close() {
	wp.closeOnce.Do(func() { close(wp.jobs) })
}

// Results returns the results channel.
func (wp *WorkerPool[T, R]) Results() <-chan Result[T, R] {
	return wp.results
}

func (wp *WorkerPool[T, R]) worker(ctx context.Context, id int, h Handler[T, R]) {
	defer wp.wg.Done()
	for job := range wp.jobs {
		result := wp.processJob(ctx, id, h, job)
		select {
		case wp.results <- result:
		case <-ctx.Done():
			// Keep draining so Submit never blocks on a dead pool.
		}
	}
}

func (wp *WorkerPool[T, R]) processJob(ctx context.Context, workerID int, h Handler[T, R], job Job[T]) (res Result[T, R]) {
	start := time.Now()
	finishTiming := wp.observer.StartTiming("worker_pool", "process_job", job.ID)

	res = Result[T, R]{JobID: job.ID, Index: job.Index, Input: job.Input, WorkerID: workerID}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic while processing job %s: %v", job.ID, r)
		}
		res.Duration = time.Since(start)
		finishTiming(res.Err == nil,
			zap.Int("worker_id", workerID),
			zap.Bool("had_error", res.Err != nil))
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	jobCtx := ctx
	if wp.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, wp.jobTimeout)
		defer cancel()
	}
	res.Value, res.Err = h(jobCtx, job.Input)
	return res
}
