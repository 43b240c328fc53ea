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
	"time"

	"github.com/go-conmgr/conmgr/logger"
	"github.com/go-conmgr/conmgr/runner/startStop"
)

// defaultPollTimeout bounds how long one watch loop iteration can block in
// poll() when nothing else would otherwise wake it, so a pending signal
// (delivered via interrupt, not via this timeout) is never the only way
// forward.
const defaultPollTimeout = 1 * time.Second

// watchLoop is the single goroutine described in spec.md §4.3: it
// recomputes desired polling kinds, polls for readiness, performs I/O,
// hands work to the pool, and reaps completed connections, in that order,
// every iteration.
type watchLoop struct {
	r    *registry
	poll poller
	pool *workerPool
	sig  *signalBridge
	log  logger.Logger

	mgr *Manager

	sr startStop.StartStop
}

func newWatchLoop(r *registry, p poller, pool *workerPool, sig *signalBridge, log logger.Logger, mgr *Manager) *watchLoop {
	w := &watchLoop{r: r, poll: p, pool: pool, sig: sig, log: log, mgr: mgr}
	w.sr = startStop.New(w.start, w.stop)
	return w
}

func (w *watchLoop) Start(ctx context.Context) error { return w.sr.Start(ctx) }
func (w *watchLoop) Stop(ctx context.Context) error  { return w.sr.Stop(ctx) }
func (w *watchLoop) IsRunning() bool                 { return w.sr.IsRunning() }

func (w *watchLoop) start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		w.iterate(ctx)

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

func (w *watchLoop) stop(_ context.Context) error {
	w.poll.interrupt()
	return nil
}

// iterate runs one pass of spec.md §4.3 steps 1-5: recompute desired
// polling kinds (step 1, via resolvePollKind applied per connection),
// poll for readiness (step 2), perform I/O and deliver signal work (step
// 3), dispatch queued work to the pool (step 4), and reap finalized
// connections (step 5).
func (w *watchLoop) iterate(ctx context.Context) {
	w.recomputePolling()

	events, err := w.poll.poll(defaultPollTimeout)
	if err != nil {
		if w.log != nil {
			w.log.Error("poll failed", err)
		}
		return
	}

	for _, sig := range w.sig.drain() {
		w.dispatchSignalWork(sig)
	}

	for _, ev := range events {
		w.handleReady(ev)
	}

	w.pool.dispatch()

	w.reap()
}

// recomputePolling asks every active/listen connection for its desired
// polling kind and reconciles it with the poller via resolvePollKind,
// applying linkFD on first registration and relinkFD thereafter.
func (w *watchLoop) recomputePolling() {
	w.r.mu.Lock()
	conns := append(append([]*Connection{}, w.r.allActive()...), w.r.listen...)
	w.r.mu.Unlock()

	for _, c := range conns {
		w.reconcileOne(c)
	}
}

func (w *watchLoop) reconcileOne(c *Connection) {
	w.r.mu.Lock()
	desired := c.desiredPollKind()
	sameFD := c.sameFD()
	curIn, curOut := c.pollIn, c.pollOut
	w.r.mu.Unlock()

	in, out := resolvePollKind(desired, sameFD, curIn, curOut)

	linkSide := func(fd int, want, cur PollKind) PollKind {
		if fd < 0 || want == cur {
			return want
		}
		if cur == PollNone {
			ok, err := w.poll.linkFD(fd, want)
			if err != nil {
				if w.log != nil {
					w.log.Error("linkFD failed", err)
				}
				return want
			}
			if !ok {
				return PollUnsupported
			}
			return want
		}
		if err := w.poll.relinkFD(fd, want); err != nil {
			if w.log != nil {
				w.log.Error("relinkFD failed", err)
			}
		}
		return want
	}

	newIn := linkSide(c.inputFD, in, curIn)
	var newOut PollKind
	if sameFD {
		newOut = newIn
	} else {
		newOut = linkSide(c.outputFD, out, curOut)
	}

	if w.mgr.cfg.DebugConmgr && w.log != nil && (newIn != curIn || newOut != curOut) {
		w.log.Debug("polling kind transition", nil, "name", c.Name(), "in", newIn.String(), "out", newOut.String())
	}

	w.r.mu.Lock()
	c.pollIn, c.pollOut = newIn, newOut
	w.r.mu.Unlock()
}

// handleReady performs the I/O step for one ready fd: reads into the
// connection's in-buffer (dispatching on_data/on_msg), or flushes queued
// out items, or finishes a pending non-blocking connect.
func (w *watchLoop) handleReady(ev readyEvent) {
	w.r.mu.Lock()
	c, ok := w.r.lookupByFD(ev.fd)
	w.r.mu.Unlock()
	if !ok {
		return
	}

	if c.isListen {
		if ev.readable {
			w.mgr.acceptOne(c)
		}
		return
	}

	if !c.isConnected {
		w.mgr.finishConnect(c, ev)
		return
	}

	if ev.err != nil {
		w.mgr.failConnection(c, ev.err)
		return
	}
	if ev.readable {
		w.mgr.readReady(c)
	}
	if ev.writable {
		w.mgr.writeReady(c)
	}
}

func (w *watchLoop) dispatchSignalWork(num int) {
	w.r.mu.Lock()
	var items []workItem
	for _, c := range w.r.allActive() {
		kept := c.workQueue[:0]
		for _, it := range c.workQueue {
			if it.isSignal && it.signal == num {
				items = append(items, it)
				continue
			}
			kept = append(kept, it)
		}
		c.workQueue = kept
	}
	w.r.mu.Unlock()

	for _, it := range items {
		it.fn(nil, WorkRun)
	}
}

// reap implements spec.md §4.3 step 3's "read_eof set and out_queue empty
// and no pending work → schedule close-finalization" rule, then finalizes
// every connection the close coordinator has already marked closing once
// its out queue and work queue have both drained — matching spec.md §8
// invariant 3 ("after shutdown completes ... the registry is empty")
// applied continuously rather than only at shutdown.
func (w *watchLoop) reap() {
	w.r.mu.Lock()
	var toClose []*Connection
	for _, c := range w.r.allActive() {
		if !c.closing && c.readEOF && len(c.out) == 0 && len(c.workQueue) == 0 && !c.workActive {
			toClose = append(toClose, c)
		}
	}
	w.r.mu.Unlock()

	for _, c := range toClose {
		w.mgr.QueueCloseFD(c)
	}

	w.r.mu.Lock()
	var done []*Connection
	for _, c := range w.r.allActive() {
		if c.closing && len(c.out) == 0 && len(c.workQueue) == 0 && !c.workActive {
			done = append(done, c)
		}
	}
	for _, c := range done {
		w.r.removeActive(c)
		c.st = stateComplete
	}
	w.r.mu.Unlock()

	for _, c := range done {
		w.mgr.finalize(c)
	}
}
