/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

package conn

import (
	"context"
	"sync"

	"github.com/go-conmgr/conmgr/logger"
	"github.com/go-conmgr/conmgr/semaphore/sem"
)

// workerPool runs queued WorkItems off the watch loop's goroutine,
// serialized per connection via work_active and bounded in aggregate
// concurrency by a weighted semaphore, per spec.md §4.4 / §5.4.
type workerPool struct {
	r   *registry
	s   sem.Sem
	log logger.Logger
	wg  sync.WaitGroup
}

func newWorkerPool(ctx context.Context, r *registry, workerCount int64, log logger.Logger) *workerPool {
	return &workerPool{
		r:   r,
		s:   sem.New(ctx, workerCount),
		log: log,
	}
}

// runnable is one (connection, item) pair selected for execution while the
// registry mutex was held; the item has already been popped from the
// connection's queue and work_active set.
type runnable struct {
	c    *Connection
	item workItem
}

// selectWork scans active connections for one whose work_queue holds an
// eligible (non-signal) item and work_active is false, pops that item and
// marks the connection active, per spec.md §4.3 step 4 / §4.4's selection
// rule. Caller must hold r.mu. May return multiple runnables, one per
// eligible connection, so a single watch loop iteration can dispatch all of
// them.
//
// Signal work items (isSignal) are left in place: they belong to
// dispatchSignalWork's own scan and must only run once their signal is
// actually delivered (spec.md §4.7), not as soon as the pool gets to them.
func (p *workerPool) selectWork() []runnable {
	var out []runnable
	for _, c := range p.r.allActive() {
		if c.workActive || c.closing || len(c.workQueue) == 0 {
			continue
		}
		idx := -1
		for i, it := range c.workQueue {
			if !it.isSignal {
				idx = i
				break
			}
		}
		if idx == -1 {
			continue
		}
		item := c.workQueue[idx]
		c.workQueue = append(c.workQueue[:idx:idx], c.workQueue[idx+1:]...)
		c.workActive = true
		out = append(out, runnable{c: c, item: item})
	}
	return out
}

// dispatch pops one runnable item per eligible connection and executes
// each in its own goroutine, bounded by the pool's semaphore. Completion
// clears work_active, so the connection's next item is selected on a later
// watch loop iteration.
func (p *workerPool) dispatch() {
	p.r.mu.Lock()
	work := p.selectWork()
	p.r.mu.Unlock()

	for _, rn := range work {
		rn := rn
		if err := p.s.NewWorker(); err != nil {
			// semaphore context cancelled: treat as shutdown, run the item
			// cancelled so it can release any owned resources.
			p.runOne(rn, WorkCancelled)
			continue
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			defer p.s.DeferWorker()
			p.runOne(rn, WorkRun)
		}()
	}
}

// cancelAll runs every item still waiting in an active connection's
// work_queue (signal items included) synchronously with WorkCancelled and
// empties the queues; items already handed to a worker are not affected.
// Used by Manager.Shutdown.
func (p *workerPool) cancelAll() {
	p.r.mu.Lock()
	var pending []runnable
	for _, c := range p.r.allActive() {
		for _, item := range c.workQueue {
			pending = append(pending, runnable{c: c, item: item})
		}
		c.workQueue = nil
	}
	p.r.mu.Unlock()

	for _, rn := range pending {
		if rn.item.isSignal {
			// matches dispatchSignalWork's own calling convention: signal
			// work runs unattached to any one connection.
			rn.item.fn(nil, WorkCancelled)
			continue
		}
		rn.item.fn(rn.c, WorkCancelled)
	}
}

func (p *workerPool) runOne(rn runnable, status WorkStatus) {
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				if p.log != nil {
					p.log.Error("work item panicked", rec)
				}
			}
		}()
		rn.item.fn(rn.c, status)
	}()

	p.r.mu.Lock()
	rn.c.workActive = false
	p.r.signalWake()
	p.r.mu.Unlock()
}

// wait blocks until every dispatched-but-not-yet-finished work item
// returns. Used by Manager.Stop after the watch loop has stopped.
func (p *workerPool) wait() {
	p.wg.Wait()
}
