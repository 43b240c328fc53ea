/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package sem bounds the connection manager's worker pool: each work-item
// goroutine holds one weighted unit for the duration of its callback, so no
// more than the configured worker count of callbacks run at once. Built on
// golang.org/x/sync/semaphore.
package sem

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Sem is both a context.Context (cancelled by DeferMain, or by the parent
// context passed to New) and a bounded worker admission gate.
type Sem interface {
	context.Context

	// NewWorker blocks until a worker slot is available or ctx is done.
	NewWorker() error

	// NewWorkerTry acquires a worker slot without blocking; unlimited
	// semaphores (Weighted() == -1) always succeed.
	NewWorkerTry() bool

	// DeferWorker releases a worker slot acquired via NewWorker/NewWorkerTry.
	DeferWorker()

	// WaitAll blocks until every outstanding worker has called DeferWorker.
	WaitAll() error

	// DeferMain cancels this Sem's own context, unblocking anything selecting
	// on Done().
	DeferMain()

	// Weighted returns the configured concurrency bound, or -1 if unlimited.
	Weighted() int64

	// New creates an independent Sem with the same bound, derived from this
	// Sem's context.
	New() Sem
}

// MaxSimultaneous returns runtime.GOMAXPROCS(0), the default worker bound
// used when a caller requests n < 1.
func MaxSimultaneous() int {
	return runtime.GOMAXPROCS(0)
}

// SetSimultaneous clamps n into [1, MaxSimultaneous()], returning
// MaxSimultaneous() for any n outside that range.
func SetSimultaneous(n int64) int64 {
	max := int64(MaxSimultaneous())
	if n < 1 || n > max {
		return max
	}
	return n
}

// New creates a Sem bounded to n concurrent workers. n < 0 means unlimited
// (backed by a sync.WaitGroup instead of a weighted semaphore); n == 0 maps
// to MaxSimultaneous().
func New(ctx context.Context, n int64) Sem {
	cctx, cancel := context.WithCancel(ctx)

	if n < 0 {
		return &semWG{ctx: cctx, cancel: cancel}
	}
	if n == 0 {
		n = int64(MaxSimultaneous())
	}

	return &semWeighted{
		ctx:    cctx,
		cancel: cancel,
		n:      n,
		w:      semaphore.NewWeighted(n),
	}
}
