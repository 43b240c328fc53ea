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

	"golang.org/x/sys/unix"
)

// fdCloser adapts a raw fd to io.Closer so it can be registered with the
// manager's mapCloser safety net (see Manager.closers).
type fdCloser int

func (f fdCloser) Close() error { return unix.Close(int(f)) }

// QueueCloseFD is the sole path to close a connection, per spec.md §4.8.
// If work_active is true the close is deferred by queuing a close-work
// item, which runs once the active callback has returned, instead of
// mutating shared state mid-callback — this is
// the polarity the spec's own worked example gets backwards (see
// spec.md §9's "Ambiguity observed"); the invariant coded here is
// "defer while active, close otherwise", not the reverse.
func (m *Manager) QueueCloseFD(c *Connection) {
	m.registry.mu.Lock()
	active := c.workActive
	m.registry.mu.Unlock()

	if active {
		m.enqueueWork(c, func(c *Connection, status WorkStatus) {
			if status == WorkCancelled {
				return
			}
			// this item is now c's only active work (work_active is
			// set for it), so re-entering QueueCloseFD would only
			// defer again: close directly.
			m.closeNow(c)
		})
		return
	}

	m.closeNow(c)
}

// closeNow performs spec.md §4.8 steps 1-6 under the registry mutex.
func (m *Manager) closeNow(c *Connection) {
	m.registry.mu.Lock()
	defer m.registry.mu.Unlock()

	if c.inputFD < 0 {
		return
	}

	if c.isListen && c.unixSocketPath != "" {
		if err := os.Remove(c.unixSocketPath); err != nil && !os.IsNotExist(err) {
			if m.log != nil {
				m.log.Warning("unlink listener path failed", err)
			}
		}
	}

	_ = m.poll.unlinkFD(c.inputFD)
	if !c.sameFD() && c.outputFD >= 0 {
		_ = m.poll.unlinkFD(c.outputFD)
	}
	c.pollIn, c.pollOut = PollNone, PollNone

	c.readEOF = true
	c.canRead = false
	c.in.Reset()

	switch {
	case c.isListen:
		_ = unix.Close(c.inputFD)
	case !c.sameFD():
		_ = unix.Close(c.inputFD)
	default:
		_ = unix.Shutdown(c.inputFD, unix.SHUT_RD)
	}

	c.inputFD = -1
	c.closing = true

	if c.isListen {
		m.registry.removeListen(c)
		c.st = stateComplete
		go m.finalize(c)
	}

	m.registry.signalWake()
	m.poll.interrupt()
}

// finalize runs on_finish, closes output_fd if still open, and drops c
// from the registry. Called by the watch loop's reap step for active
// connections (once out_queue and work_queue are both empty) and directly
// by closeNow for listeners, which have no output half or queued work.
func (m *Manager) finalize(c *Connection) {
	if c.outputFD >= 0 {
		_ = m.poll.unlinkFD(c.outputFD)
		_ = unix.Close(c.outputFD)
		m.registry.mu.Lock()
		c.outputFD = -1
		m.registry.mu.Unlock()
	}

	if m.onFinish != nil {
		m.onFinish(c, c.arg)
	}
}
