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
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	connerr "github.com/go-conmgr/conmgr/errors"
)

// CreateConnectSocket implements spec.md §4.5/§6's connect operation: a
// non-blocking socket is created and connect(2) is issued immediately.
// EINPROGRESS/EAGAIN/EWOULDBLOCK means the connection is pending and the
// connection is registered PollConnected so the watch loop notices
// completion via write-readiness (spec.md §4.9).
func (m *Manager) CreateConnectSocket(typ Type, addr string) (*Connection, error) {
	path, tcp, err := parseListenAddr(addr)
	if err != nil {
		return nil, err
	}

	var (
		fd     int
		sa     unix.Sockaddr
		domain int
	)

	if path != "" {
		domain = unix.AF_UNIX
		fd, err = unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
		if err == nil {
			sa = &unix.SockaddrUnix{Name: path}
		}
	} else {
		domain = unix.AF_INET
		if tcp.IP != nil && tcp.IP.To4() == nil {
			domain = unix.AF_INET6
		}
		fd, err = unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
		if err == nil {
			sa, err = tcpAddrToSockaddr(tcp, domain)
		}
	}
	if err != nil {
		return nil, connerr.New(uint16(connerr.ConnectionError), "cannot create socket", err)
	}

	pending := false
	for {
		err = unix.Connect(fd, sa)
		if err == nil {
			break
		}
		switch err {
		case unix.EINTR:
			continue
		case unix.EINPROGRESS, unix.EAGAIN:
			pending = true
		default:
			_ = unix.Close(fd)
			return nil, connerr.New(uint16(connerr.ConnectionError), "connect failed", err)
		}
		break
	}

	c := &Connection{
		name:           uuid.NewString(),
		inputFD:        fd,
		outputFD:       fd,
		typ:            typ,
		isSocket:       true,
		isConnected:    !pending,
		canRead:        true,
		unixSocketPath: path,
		in:             newInBuffer(m.cfg.BufferStartSize, 0),
	}
	if tcp != nil {
		c.address = tcp
		if m.cfg.KeepAlive {
			setKeepAlive(fd, true)
		}
	}

	kind := PollReadOnly
	if pending {
		kind = PollConnected
	}
	ok, err := m.poll.linkFD(fd, kind)
	if err != nil {
		_ = unix.Close(fd)
		return nil, connerr.New(uint16(connerr.ConnectionError), "cannot register socket with poller", err)
	}
	if ok {
		c.pollIn = kind
	} else {
		c.pollIn = PollUnsupported
	}

	m.registry.mu.Lock()
	m.registry.addActive(c)
	m.registry.mu.Unlock()

	if m.onConnection != nil {
		c.arg = m.onConnection(c)
	}

	return c, nil
}

// finishConnect is called by the watch loop when a pending connect's fd
// reports writable: SO_ERROR distinguishes success from a failed connect.
func (m *Manager) finishConnect(c *Connection, ev readyEvent) {
	errno, err := unix.GetsockoptInt(c.inputFD, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		m.failConnection(c, err)
		return
	}
	if errno != 0 {
		m.failConnection(c, unix.Errno(errno))
		return
	}

	m.registry.mu.Lock()
	c.isConnected = true
	m.registry.mu.Unlock()
}

// failConnection reports a connection-level error via the close path
// rather than surfacing it synchronously, matching spec.md §7's mapping of
// kernel/peer I/O failures onto ConnectionError.
func (m *Manager) failConnection(c *Connection, cause error) {
	if m.log != nil {
		m.log.Warning("connection error", cause)
	}
	m.QueueCloseFD(c)
}
