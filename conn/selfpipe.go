//go:build !windows

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

// selfPipe is a non-blocking pipe the poller watches so that writing one
// byte interrupts a blocked poll call. The signal bridge uses it only
// through poller.interrupt: signal numbers themselves are queued in memory
// (signalBridge.pending), not written into the pipe. See spec.md §4.7 and
// the GLOSSARY entry "Self-pipe".
type selfPipe struct {
	readFD  int
	writeFD int
}

func (p *selfPipe) open() error {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return err
	}
	p.readFD = fds[0]
	p.writeFD = fds[1]
	return nil
}

// wake writes a single interrupt byte, retrying on EINTR, returning on
// EAGAIN (a full pipe already holds a pending wake byte) and swallowing
// EPIPE/EBADF (the shutdown race described in spec.md §4.7 and
// §8's boundary behavior).
func (p *selfPipe) wake() {
	buf := []byte{0}
	for {
		_, err := unix.Write(p.writeFD, buf)
		if err == nil {
			return
		}
		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return
		case unix.EPIPE, unix.EBADF:
			return
		default:
			return
		}
	}
}

// drain empties the read end after an interrupt; it never blocks thanks to
// O_NONBLOCK.
func (p *selfPipe) drain() {
	buf := make([]byte, 64)
	for {
		n, err := unix.Read(p.readFD, buf)
		if n <= 0 || err != nil {
			return
		}
	}
}

func (p *selfPipe) close() {
	if p.readFD != 0 {
		_ = unix.Close(p.readFD)
	}
	if p.writeFD != 0 {
		_ = unix.Close(p.writeFD)
	}
}
