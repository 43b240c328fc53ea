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
	"net"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	connerr "github.com/go-conmgr/conmgr/errors"
	errpool "github.com/go-conmgr/conmgr/errors/pool"
)

const unixPrefix = "unix:"

// parseListenAddr splits the host/port-or-unix-path addressing scheme
// described in spec.md §4.5/§6: a "unix:" prefix selects AF_UNIX, anything
// else is resolved as host:port via the standard library (the narrow
// "addrinfo resolver" contract spec.md §6 delegates to an external
// collaborator — net.ResolveTCPAddr satisfies it with no loss of meaning).
func parseListenAddr(addr string) (path string, tcp *net.TCPAddr, err error) {
	if strings.HasPrefix(addr, unixPrefix) {
		return strings.TrimPrefix(addr, unixPrefix), nil, nil
	}
	a, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return "", nil, connerr.New(uint16(connerr.InvalidArgument), "cannot resolve listen address", err)
	}
	return "", a, nil
}

// CreateListenSockets implements spec.md §6's listen operation for one or
// more addresses: each is bound, set non-blocking, registered as a
// listener connection and linked with the poller for PollListen readiness.
// A duplicate address (by family, per spec.md §4.2) is rejected without
// touching the kernel. Binding is best-effort across addrs: a failure on
// one address does not stop the others from being attempted, and every
// failure is collected into a single aggregated error via errors/pool
// rather than only ever surfacing the first one.
func (m *Manager) CreateListenSockets(typ Type, addrs ...string) ([]*Connection, error) {
	out := make([]*Connection, 0, len(addrs))
	errs := errpool.New()

	for _, a := range addrs {
		c, skipped, err := m.createOneListener(typ, a)
		if err != nil {
			errs.Add(err)
			continue
		}
		if skipped {
			continue
		}
		out = append(out, c)
	}

	return out, errs.Error()
}

// createOneListener binds addr and registers it as a listener. A duplicate
// address is not an error (spec.md §8 invariant 6 / scenario 2: the call
// still succeeds): it is silently skipped, logged at debug_conmgr verbosity
// only, and reported back via the skipped return so the caller neither adds
// a connection for it nor fails the overall call.
func (m *Manager) createOneListener(typ Type, addr string) (c *Connection, skipped bool, err error) {
	path, tcp, err := parseListenAddr(addr)
	if err != nil {
		return nil, false, err
	}

	m.registry.mu.Lock()
	var dup bool
	if path != "" {
		dup = m.registry.duplicateListener(path, nil)
	} else {
		dup = m.registry.duplicateListener("", tcp)
	}
	m.registry.mu.Unlock()
	if dup {
		if m.cfg.DebugConmgr && m.log != nil {
			m.log.Debug("skipped duplicate listener", nil, "addr", addr)
		}
		return nil, true, nil
	}

	var fd int
	if path != "" {
		fd, err = bindUnixListener(path, m.cfg.BacklogDepth)
	} else {
		fd, err = bindTCPListener(tcp, m.cfg.BacklogDepth)
	}
	if err != nil {
		return nil, false, connerr.New(uint16(connerr.ConnectionError), "cannot bind listener", err)
	}

	c := &Connection{
		name:           addr,
		inputFD:        fd,
		outputFD:       -1,
		typ:            typ,
		isSocket:       true,
		isListen:       true,
		isConnected:    true,
		unixSocketPath: path,
	}
	if tcp != nil {
		c.address = tcp
	}

	m.closers.Add(fdCloser(fd))

	ok, err := m.poll.linkFD(fd, PollListen)
	if err != nil {
		_ = unix.Close(fd)
		return nil, false, connerr.New(uint16(connerr.ConnectionError), "cannot register listener with poller", err)
	}
	if !ok {
		c.pollIn = PollUnsupported
	} else {
		c.pollIn = PollListen
	}

	m.registry.mu.Lock()
	m.registry.addListen(c)
	m.registry.mu.Unlock()

	return c, false, nil
}

func bindTCPListener(addr *net.TCPAddr, backlog int) (int, error) {
	domain := unix.AF_INET
	if addr.IP != nil && addr.IP.To4() == nil {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}

	sa, err := tcpAddrToSockaddr(addr, domain)
	if err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func bindUnixListener(path string, backlog int) (int, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return -1, err
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	sa := &unix.SockaddrUnix{Name: path}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func tcpAddrToSockaddr(addr *net.TCPAddr, domain int) (unix.Sockaddr, error) {
	if domain == unix.AF_INET6 {
		sa := &unix.SockaddrInet6{Port: addr.Port}
		if addr.IP != nil {
			copy(sa.Addr[:], addr.IP.To16())
		}
		return sa, nil
	}
	sa := &unix.SockaddrInet4{Port: addr.Port}
	if addr.IP != nil {
		copy(sa.Addr[:], addr.IP.To4())
	}
	return sa, nil
}

// setKeepAlive enables TCP keepalive on a connected stream socket, per
// spec.md §4's lifecycle note ("plus TCP keepalive for non-listen socket
// connections without a local-domain path"). Local-domain (AF_UNIX)
// sockets silently ignore SO_KEEPALIVE, so callers skip it for those.
func setKeepAlive(fd int, enable bool) {
	v := 0
	if enable {
		v = 1
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, v)
}

// acceptOne is called by the watch loop when a listener's fd reports
// readable: it accepts every pending connection (accept4 returning EAGAIN
// ends the loop), wraps each in a Connection and registers it active.
func (m *Manager) acceptOne(listener *Connection) {
	for {
		fd, _, err := unix.Accept4(listener.inputFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				return
			}
			if m.log != nil {
				m.log.Warning("accept failed", err)
			}
			return
		}

		c := &Connection{
			name:        uuid.NewString(),
			inputFD:     fd,
			outputFD:    fd,
			typ:         listener.typ,
			isSocket:    true,
			isConnected: true,
			canRead:     true,
			in:          newInBuffer(m.cfg.BufferStartSize, 0),
		}
		if listener.unixSocketPath != "" {
			c.unixSocketPath = listener.unixSocketPath
		} else if m.cfg.KeepAlive {
			setKeepAlive(fd, true)
		}

		m.registry.mu.Lock()
		m.registry.addActive(c)
		m.registry.mu.Unlock()

		if m.onConnection != nil {
			c.arg = m.onConnection(c)
		}
	}
}
