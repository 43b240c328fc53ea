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
	"sync"

	atomictype "github.com/go-conmgr/conmgr/atomic"
)

// registry is the connection-manager singleton state S from spec.md §3:
// three ordered sequences (active, listen, complete) protected by one
// mutex, plus a one-slot wake channel in the place of the "watch_sleep"
// condition variable and a shutdown flag. Nothing in the package receives
// from the wake channel: the watch loop wakes on poller.interrupt or its
// poll timeout.
//
// complete connections are not retained: finalization (on_finish, fd close,
// free) runs synchronously as part of removal, so the "complete" sequence
// exists as a transient state rather than a persisted list — once a
// connection is finalized it is gone, matching invariant 3 of spec.md §8
// ("after shutdown completes ... the registry is empty").
type registry struct {
	mu sync.Mutex

	active map[int]*Connection
	listen []*Connection

	wake chan struct{}

	shutdown bool

	// totalAccepted is a lifetime counter of every connection ever added
	// to active (accepted, dialed or adopted), independent of the active
	// map's current size, exposed through Manager.Stats.
	totalAccepted atomictype.Value[int64]
}

func newRegistry() *registry {
	return &registry{
		active:        make(map[int]*Connection),
		wake:          make(chan struct{}, 1),
		totalAccepted: atomictype.NewValue[int64](),
	}
}

// signalWake records a pending wake in the one-slot wake channel, dropping
// it if one is already pending. It does not interrupt the poller. Safe to
// call with or without the registry mutex held.
func (r *registry) signalWake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// lookupByFD scans active then listen, matching spec.md §4.2 ("complete
// entries have no fds"). Caller must hold r.mu.
func (r *registry) lookupByFD(fd int) (*Connection, bool) {
	if fd < 0 {
		return nil, false
	}
	if c, ok := r.active[fd]; ok {
		return c, true
	}
	for _, c := range r.listen {
		if c.inputFD == fd {
			return c, true
		}
	}
	return nil, false
}

// addActive registers c in the active set, indexed by both its fds.
// Caller must hold r.mu.
func (r *registry) addActive(c *Connection) {
	c.st = stateActive
	if c.inputFD >= 0 {
		r.active[c.inputFD] = c
	}
	if c.outputFD >= 0 && c.outputFD != c.inputFD {
		r.active[c.outputFD] = c
	}
	r.totalAccepted.Store(r.totalAccepted.Load() + 1)
	r.signalWake()
}

// addListen registers c as a listener. Caller must hold r.mu.
func (r *registry) addListen(c *Connection) {
	c.st = stateListen
	c.isListen = true
	r.listen = append(r.listen, c)
	r.signalWake()
}

// removeActive drops c from the active index. Caller must hold r.mu.
func (r *registry) removeActive(c *Connection) {
	delete(r.active, c.inputFD)
	delete(r.active, c.outputFD)
}

// removeListen drops c from the listen list. Caller must hold r.mu.
func (r *registry) removeListen(c *Connection) {
	for i, l := range r.listen {
		if l == c {
			r.listen = append(r.listen[:i], r.listen[i+1:]...)
			return
		}
	}
}

// allActive returns a snapshot slice of every distinct active connection
// (the map may index one connection under two fds). Caller must hold r.mu.
func (r *registry) allActive() []*Connection {
	seen := make(map[*Connection]struct{}, len(r.active))
	out := make([]*Connection, 0, len(r.active))
	for _, c := range r.active {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// duplicateListener implements spec.md §4.2/§8 invariant 6: compare address
// by family (AF_INET by host:port, AF_INET6 by host:port:scope, AF_UNIX by
// path). Caller must hold r.mu.
func (r *registry) duplicateListener(path string, addr net.Addr) bool {
	for _, l := range r.listen {
		if path != "" {
			if l.unixSocketPath == path {
				return true
			}
			continue
		}
		if l.address == nil || addr == nil {
			continue
		}
		if sameNetAddr(l.address, addr) {
			return true
		}
	}
	return false
}

func sameNetAddr(a, b net.Addr) bool {
	ta, ok1 := a.(*net.TCPAddr)
	tb, ok2 := b.(*net.TCPAddr)
	if ok1 && ok2 {
		return ta.Port == tb.Port && ta.IP.Equal(tb.IP) && ta.Zone == tb.Zone
	}
	return a.Network() == b.Network() && a.String() == b.String()
}
