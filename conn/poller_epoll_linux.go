//go:build linux

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
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	p := &epollPoller{epfd: epfd}

	if err := p.pipe.open(); err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, p.pipe.readFD, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(p.pipe.readFD),
	}); err != nil {
		p.pipe.close()
		_ = unix.Close(epfd)
		return nil, err
	}

	return p, nil
}

// epollPoller implements poller on Linux using epoll(7), the idiomatic
// readiness primitive for this platform.
type epollPoller struct {
	mu   sync.Mutex
	epfd int
	pipe selfPipe
}

func epollEventsFor(kind PollKind) uint32 {
	switch kind {
	case PollReadOnly, PollListen:
		return unix.EPOLLIN
	case PollWriteOnly, PollConnected:
		return unix.EPOLLOUT
	case PollReadWrite:
		return unix.EPOLLIN | unix.EPOLLOUT
	default:
		return 0
	}
}

func (p *epollPoller) linkFD(fd int, kind PollKind) (bool, error) {
	if kind == PollNone {
		return true, nil
	}
	ev := &unix.EpollEvent{Events: epollEventsFor(kind), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		if err == unix.EPERM {
			// fd type epoll cannot watch (e.g. a plain regular file):
			// unsupported, not fatal.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *epollPoller) relinkFD(fd int, kind PollKind) error {
	if kind == PollNone {
		return p.unlinkFD(fd)
	}
	ev := &unix.EpollEvent{Events: epollEventsFor(kind), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		if err == unix.ENOENT {
			return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev)
		}
		return err
	}
	return nil
}

func (p *epollPoller) unlinkFD(fd int) error {
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (p *epollPoller) interrupt() {
	p.pipe.wake()
}

func (p *epollPoller) poll(timeout time.Duration) ([]readyEvent, error) {
	ms := int(timeout / time.Millisecond)
	if timeout < 0 {
		ms = -1
	}

	events := make([]unix.EpollEvent, 64)

	n, err := unix.EpollWait(p.epfd, events, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	out := make([]readyEvent, 0, n)
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if fd == p.pipe.readFD {
			p.pipe.drain()
			continue
		}

		re := readyEvent{fd: fd}
		if events[i].Events&(unix.EPOLLIN|unix.EPOLLHUP) != 0 {
			re.readable = true
		}
		if events[i].Events&unix.EPOLLOUT != 0 {
			re.writable = true
		}
		if events[i].Events&unix.EPOLLERR != 0 {
			re.err = unix.ECONNRESET
		}
		out = append(out, re)
	}

	return out, nil
}

func (p *epollPoller) close() error {
	p.pipe.close()
	return unix.Close(p.epfd)
}
