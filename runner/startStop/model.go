/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package startStop

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type runner struct {
	mu sync.Mutex

	fctStart FuncStart
	fctStop  FuncStop

	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	stopOnce  *sync.Once

	errMu sync.Mutex
	errs  []error
}

func (r *runner) addErr(e error) {
	if e == nil {
		return
	}
	r.errMu.Lock()
	r.errs = append(r.errs, e)
	r.errMu.Unlock()
}

func (r *runner) resetErr() {
	r.errMu.Lock()
	r.errs = nil
	r.errMu.Unlock()
}

func (r *runner) Start(ctx context.Context) error {
	if r.fctStart == nil {
		r.resetErr()
		r.addErr(fmt.Errorf("invalid start function"))
		return nil
	}

	// stop whatever instance is currently running before starting again.
	r.mu.Lock()
	prevCancel := r.cancel
	prevDone := r.done
	r.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		if prevDone != nil {
			<-prevDone
		}
	}

	r.resetErr()

	rctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.stopOnce = &sync.Once{}
	r.running = true
	r.startedAt = time.Now()
	r.mu.Unlock()

	go func() {
		err := r.fctStart(rctx)
		r.addErr(err)

		r.mu.Lock()
		r.running = false
		r.startedAt = time.Time{}
		r.mu.Unlock()

		close(done)
	}()

	return nil
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	done := r.done
	once := r.stopOnce
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}

	if once != nil {
		once.Do(func() {
			if r.fctStop == nil {
				r.addErr(fmt.Errorf("invalid stop function"))
				return
			}
			r.addErr(r.fctStop(ctx))
		})
	}

	return nil
}

func (r *runner) Restart(ctx context.Context) error {
	_ = r.Stop(ctx)
	return r.Start(ctx)
}

func (r *runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *runner) Uptime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running || r.startedAt.IsZero() {
		return 0
	}
	return time.Since(r.startedAt)
}

func (r *runner) ErrorsLast() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}
