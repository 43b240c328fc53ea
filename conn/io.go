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
	"golang.org/x/sys/unix"
)

// readReady performs step 4's read half for one fd: a single non-blocking
// recv into the connection's in_buffer, then (if any bytes landed) queues
// the user callback as work rather than invoking it from the watch
// goroutine, since the registry mutex must never be held across a user
// callback (spec.md §5).
func (m *Manager) readReady(c *Connection) {
	buf := make([]byte, 4096)

	m.registry.mu.Lock()
	n, err := unix.Read(c.inputFD, buf)
	switch {
	case n > 0:
		c.canRead = true
		c.in.Append(buf[:n])
		c.workQueue = append(c.workQueue, workItem{fn: m.deliverIncoming})
		m.registry.signalWake()
	case n == 0:
		c.readEOF = true
		c.canRead = false
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR:
		// nothing ready this pass
	default:
		m.registry.mu.Unlock()
		m.failConnection(c, err)
		return
	}
	m.registry.mu.Unlock()
}

// deliverIncoming is the queued work item that hands buffered bytes to the
// user callback, RAW (stream, on_data) or RPC (one framed message at a
// time, on_msg) per the connection's current type.
func (m *Manager) deliverIncoming(c *Connection, status WorkStatus) {
	if status == WorkCancelled {
		return
	}

	m.registry.mu.Lock()
	typ := c.typ
	unread := append([]byte(nil), c.in.Unread()...)
	m.registry.mu.Unlock()

	if len(unread) == 0 {
		return
	}

	switch typ {
	case RPC:
		if m.onMsg == nil {
			return
		}
		consumed := m.onMsg(c, unread, c.arg)
		if consumed > 0 {
			m.registry.mu.Lock()
			c.in.Advance(consumed)
			m.registry.mu.Unlock()
		}
	default:
		if m.onData == nil {
			return
		}
		consumed := m.onData(c, unread, c.arg)
		if consumed > 0 {
			m.registry.mu.Lock()
			c.in.Advance(consumed)
			m.registry.mu.Unlock()
		}
	}
}

// writeReady performs step 4's write half: drains queued out_queue items
// with non-blocking sends until the kernel buffer is full or the queue
// empties, running any writeCompleteQueue callbacks once it does.
func (m *Manager) writeReady(c *Connection) {
	m.registry.mu.Lock()
	defer m.registry.mu.Unlock()

	for len(c.out) > 0 {
		item := &c.out[0]
		n, err := unix.Write(c.outputFD, item.remaining())
		if n > 0 {
			item.offset += n
		}
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				break
			}
			go m.failConnection(c, err)
			return
		}
		if !item.drained() {
			break
		}
		c.out = c.out[1:]
	}

	if len(c.out) == 0 {
		for _, cb := range c.writeCompleteQueue {
			cb()
		}
		c.writeCompleteQueue = nil
	}

	m.registry.signalWake()
}

// Write enqueues p for transmission on c, matching spec.md §3's guarantee
// that out_queue is never discarded on close (it drains before finalize).
func (m *Manager) Write(c *Connection, p []byte) {
	if len(p) == 0 {
		return
	}
	cp := append([]byte(nil), p...)

	m.registry.mu.Lock()
	c.out = append(c.out, outItem{data: cp})
	m.registry.signalWake()
	m.registry.mu.Unlock()

	m.poll.interrupt()
}
