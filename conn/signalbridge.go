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
	"os"
	"os/signal"
	"sync"
)

// signalBridge funnels OS signals into the watch loop as unattached work
// items, per spec.md §4.7. Go does not let user code install a true
// sigaction handler, so signal.Notify (delivered on an ordinary channel by
// the runtime's own signal-safe plumbing) stands in for the "OS-level
// signal handler" named in the GLOSSARY; the adapter goroutine below still
// funnels every notification through the self-pipe exactly as a C-level
// handler would, preserving serialization through ordinary I/O readiness.
type signalBridge struct {
	mu sync.Mutex

	ch       chan os.Signal
	registry *registry
	poll     poller

	watched []os.Signal
	pending []int

	done chan struct{}
}

func newSignalBridge(r *registry, p poller) *signalBridge {
	return &signalBridge{
		ch:       make(chan os.Signal, 16),
		registry: r,
		poll:     p,
	}
}

// watch registers sigs for delivery and starts the adapter goroutine. Safe
// to call once per bridge lifetime; re-arming uses stop then watch again.
func (b *signalBridge) watch(sigs ...os.Signal) {
	b.watched = sigs
	signal.Notify(b.ch, sigs...)
	b.done = make(chan struct{})
	go b.run()
}

func (b *signalBridge) run() {
	for {
		select {
		case sig, ok := <-b.ch:
			if !ok {
				return
			}
			b.deliver(sig)
		case <-b.done:
			return
		}
	}
}

// deliver records the signal and wakes the poller, which causes the watch
// loop to notice pending signal work on its next iteration (spec.md §4.7's
// "write the integer signal number" contract, honored here by queuing the
// number rather than writing raw bytes across goroutines).
func (b *signalBridge) deliver(sig os.Signal) {
	num := signalNumber(sig)

	b.mu.Lock()
	b.pending = append(b.pending, num)
	b.mu.Unlock()

	b.poll.interrupt()
}

// drain returns and clears every signal number queued since the last call.
func (b *signalBridge) drain() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	b.pending = nil
	return out
}

func (b *signalBridge) stop() {
	signal.Stop(b.ch)
	if b.done != nil {
		close(b.done)
	}
}
