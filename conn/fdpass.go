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

	connerr "github.com/go-conmgr/conmgr/errors"
)

// AuthCreds is the peer credential set retrieved via SO_PEERCRED, per
// spec.md §6's fd_get_auth_creds.
type AuthCreds struct {
	PID int32
	UID uint32
	GID uint32
}

// QueueSendFD queues, as connection work, sending fd to the peer of c over
// SCM_RIGHTS ancillary data. c must be a connected AF_UNIX connection; for
// any other connection the work item logs a warning and returns without
// sending or closing fd, and no error reaches the caller.
func (m *Manager) QueueSendFD(c *Connection, fd int, payload []byte) {
	m.enqueueWork(c, func(c *Connection, status WorkStatus) {
		if status == WorkCancelled {
			return
		}
		if c.unixSocketPath == "" {
			if m.log != nil {
				m.log.Warning("send-fd on non-unix connection", nil)
			}
			return
		}

		rights := unix.UnixRights(fd)
		err := unix.Sendmsg(c.outputFD, payload, rights, nil, 0)
		// spec.md §4.6: the local copy is always closed after the send
		// attempt, successful or not — ownership passes to the peer.
		_ = unix.Close(fd)
		if err != nil {
			m.failConnection(c, err)
		}
	})
}

// QueueReceiveFD queues, as connection work, receiving one fd over c's
// SCM_RIGHTS ancillary data. On success the received fd is adopted as a
// fresh active connection of typ via process; on failure c itself is
// closed, since its state is now indeterminate (spec.md §4.6).
func (m *Manager) QueueReceiveFD(c *Connection, typ Type) {
	m.enqueueWork(c, func(c *Connection, status WorkStatus) {
		if status == WorkCancelled {
			return
		}
		if c.unixSocketPath == "" {
			if m.log != nil {
				m.log.Warning("receive-fd on non-unix connection", nil)
			}
			return
		}

		buf := make([]byte, 1)
		oob := make([]byte, unix.CmsgSpace(4))

		n, oobn, _, _, err := unix.Recvmsg(c.inputFD, buf, oob, 0)
		if err != nil || n == 0 {
			m.QueueCloseFD(c)
			return
		}

		scms, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			m.QueueCloseFD(c)
			return
		}
		for _, scm := range scms {
			fds, err := unix.ParseUnixRights(&scm)
			if err != nil {
				continue
			}
			for _, fd := range fds {
				m.ProcessFD(typ, fd, fd, nil)
			}
		}
	})
}

// FDGetAuthCreds returns the peer credentials of an AF_UNIX connection via
// SO_PEERCRED. Non-unix connections report NotSupported; a failed
// SO_PEERCRED query reports ConnectionError.
func (m *Manager) FDGetAuthCreds(c *Connection) (AuthCreds, error) {
	if c.unixSocketPath == "" {
		return AuthCreds{}, connerr.New(uint16(connerr.NotSupported), "auth creds require an AF_UNIX connection")
	}
	cred, err := unix.GetsockoptUcred(c.inputFD, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return AuthCreds{}, connerr.New(uint16(connerr.ConnectionError), "SO_PEERCRED failed", err)
	}
	return AuthCreds{PID: cred.Pid, UID: cred.Uid, GID: cred.Gid}, nil
}

func (m *Manager) enqueueWork(c *Connection, fn WorkFunc) {
	m.registry.mu.Lock()
	c.workQueue = append(c.workQueue, workItem{fn: fn})
	m.registry.signalWake()
	m.registry.mu.Unlock()
	m.poll.interrupt()
}
