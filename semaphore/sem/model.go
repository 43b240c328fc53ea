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

package sem

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// semWeighted bounds concurrency to a fixed number of simultaneous workers.
type semWeighted struct {
	ctx    context.Context
	cancel context.CancelFunc
	n      int64
	w      *semaphore.Weighted
}

func (s *semWeighted) Deadline() (time.Time, bool) { return s.ctx.Deadline() }
func (s *semWeighted) Done() <-chan struct{}       { return s.ctx.Done() }
func (s *semWeighted) Err() error                  { return s.ctx.Err() }
func (s *semWeighted) Value(key interface{}) interface{} {
	return s.ctx.Value(key)
}

func (s *semWeighted) NewWorker() error {
	return s.w.Acquire(s.ctx, 1)
}

func (s *semWeighted) NewWorkerTry() bool {
	return s.w.TryAcquire(1)
}

func (s *semWeighted) DeferWorker() {
	s.w.Release(1)
}

func (s *semWeighted) WaitAll() error {
	// acquiring the full weight blocks until every outstanding unit has
	// been released, then immediately gives it back.
	if err := s.w.Acquire(context.Background(), s.n); err != nil {
		return err
	}
	s.w.Release(s.n)
	return nil
}

func (s *semWeighted) DeferMain() {
	s.cancel()
}

func (s *semWeighted) Weighted() int64 {
	return s.n
}

func (s *semWeighted) New() Sem {
	return New(s.ctx, s.n)
}

// semWG implements an unlimited Sem backed by a sync.WaitGroup: every
// NewWorker/NewWorkerTry call always succeeds immediately.
type semWG struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *semWG) Deadline() (time.Time, bool) { return s.ctx.Deadline() }
func (s *semWG) Done() <-chan struct{}       { return s.ctx.Done() }
func (s *semWG) Err() error                  { return s.ctx.Err() }
func (s *semWG) Value(key interface{}) interface{} {
	return s.ctx.Value(key)
}

func (s *semWG) NewWorker() error {
	s.wg.Add(1)
	return nil
}

func (s *semWG) NewWorkerTry() bool {
	s.wg.Add(1)
	return true
}

func (s *semWG) DeferWorker() {
	s.wg.Done()
}

func (s *semWG) WaitAll() error {
	s.wg.Wait()
	return nil
}

func (s *semWG) DeferMain() {
	s.cancel()
}

func (s *semWG) Weighted() int64 {
	return -1
}

func (s *semWG) New() Sem {
	return New(s.ctx, -1)
}
