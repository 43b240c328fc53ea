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

import "time"

// readyEvent is one (fd, readable?, writable?, error?) tuple yielded by a
// poller's poll call, per spec.md §4.1.
type readyEvent struct {
	fd       int
	readable bool
	writable bool
	err      error
}

// poller wraps the platform readiness primitive. link_fd/relink_fd/
// unlink_fd/interrupt/poll mirror spec.md §4.1 exactly; "unsupported" is
// reported by linkFD returning ok=false rather than an error, since it is
// recoverable (the connection degrades to PollUnsupported). Every other
// failure is returned as an error; callers log it (watch loop, adopted
// listeners) or return it (listener creation) and none aborts the process.
type poller interface {
	// linkFD registers fd for the given interest kind. ok=false means the
	// registration is unsupported on this platform/fd type (sticky at the
	// call site); err != nil reports any other failure.
	linkFD(fd int, kind PollKind) (ok bool, err error)

	// relinkFD changes the interest kind already registered for fd.
	relinkFD(fd int, kind PollKind) error

	// unlinkFD deregisters fd. Errors are never fatal; closeNow and
	// finalize discard them.
	unlinkFD(fd int) error

	// interrupt causes a blocked poll call to return immediately.
	interrupt()

	// poll blocks up to timeout for readiness or interrupt.
	poll(timeout time.Duration) ([]readyEvent, error)

	// close releases the poller's own resources (epoll fd, self-pipe).
	close() error
}
