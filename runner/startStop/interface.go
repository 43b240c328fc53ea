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

// Package startStop provides a restartable goroutine wrapped with a single
// start/stop function pair. The connection manager's watch loop and signal
// bridge are both modeled as a StartStop: each owns one dedicated goroutine,
// is started/stopped by a caller-supplied context, and reports its own
// errors instead of propagating them synchronously.
package startStop

import (
	"context"
	"time"
)

// FuncStart is run in its own goroutine when Start is called. It should
// block until ctx is cancelled (Stop was called) and return the first error
// it encountered, if any.
type FuncStart func(ctx context.Context) error

// FuncStop is run synchronously by Stop after the running FuncStart's
// context has been cancelled.
type FuncStop func(ctx context.Context) error

// StartStop is a single-instance restartable runner. It is not safe to call
// Start/Stop/Restart concurrently from multiple goroutines for the same
// instance; the connection manager serializes these calls under its own
// lifecycle lock.
type StartStop interface {
	// Start launches the start function in a new goroutine. If already
	// running, the previous instance is stopped first. Start itself never
	// blocks on the start function; failures are recorded and retrievable
	// via ErrorsLast/ErrorsList.
	Start(ctx context.Context) error

	// Stop cancels the running start function's context and waits for the
	// stop function to complete. Calling Stop when not running is a no-op.
	Stop(ctx context.Context) error

	// Restart stops then starts again.
	Restart(ctx context.Context) error

	// IsRunning reports whether the start function is currently executing.
	IsRunning() bool

	// Uptime returns how long the current run has been active, or zero if
	// not running.
	Uptime() time.Duration

	// ErrorsLast returns the most recently recorded error, or nil.
	ErrorsLast() error

	// ErrorsList returns every error recorded during the current run.
	ErrorsList() []error
}

// New creates a StartStop wrapping the given start/stop function pair.
// Either may be nil; calling Start/Stop with a nil function records an
// "invalid start/stop function" error instead of panicking.
func New(start FuncStart, stop FuncStop) StartStop {
	return &runner{
		fctStart: start,
		fctStop:  stop,
	}
}
