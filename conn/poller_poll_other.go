//go:build !linux && !windows

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
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

func newPoller() (poller, error) {
	p := &pollPoller{kinds: make(map[int]PollKind)}
	if err := p.pipe.open(); err != nil {
		return nil, err
	}
	return p, nil
}

// pollPoller implements poller with the portable poll(2) fallback, used on
// every non-Linux unix this module targets (spec.md §4.1's "poll(timeout)"
// taken literally where epoll is unavailable).
type pollPoller struct {
	mu    sync.Mutex
	kinds map[int]PollKind
	pipe  selfPipe
}

func (p *pollPoller) linkFD(fd int, kind PollKind) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds[fd] = kind
	return true, nil
}

func (p *pollPoller) relinkFD(fd int, kind PollKind) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if kind == PollNone {
		delete(p.kinds, fd)
		return nil
	}
	p.kinds[fd] = kind
	return nil
}

func (p *pollPoller) unlinkFD(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.kinds, fd)
	return nil
}

func (p *pollPoller) interrupt() {
	p.pipe.wake()
}

func pollEventsFor(kind PollKind) int16 {
	switch kind {
	case PollReadOnly, PollListen:
		return unix.POLLIN
	case PollWriteOnly, PollConnected:
		return unix.POLLOUT
	case PollReadWrite:
		return unix.POLLIN | unix.POLLOUT
	default:
		return 0
	}
}

func (p *pollPoller) poll(timeout time.Duration) ([]readyEvent, error) {
	p.mu.Lock()
	fds := make([]unix.PollFd, 0, len(p.kinds)+1)
	fds = append(fds, unix.PollFd{Fd: int32(p.pipe.readFD), Events: unix.POLLIN})
	order := make([]int, 0, len(p.kinds))
	for fd, kind := range p.kinds {
		ev := pollEventsFor(kind)
		if ev == 0 {
			continue
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: ev})
		order = append(order, fd)
	}
	p.mu.Unlock()

	ms := int(timeout / time.Millisecond)
	if timeout < 0 {
		ms = -1
	}

	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]readyEvent, 0, n)
	for i, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		if i == 0 {
			p.pipe.drain()
			continue
		}
		re := readyEvent{fd: int(pfd.Fd)}
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP) != 0 {
			re.readable = true
		}
		if pfd.Revents&unix.POLLOUT != 0 {
			re.writable = true
		}
		if pfd.Revents&unix.POLLERR != 0 {
			re.err = unix.ECONNRESET
		}
		out = append(out, re)
	}

	return out, nil
}

func (p *pollPoller) close() error {
	p.pipe.close()
	return nil
}
