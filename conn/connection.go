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

import "net"

// Type distinguishes how a connection's bytes are delivered to user code.
type Type uint8

const (
	// Raw connections deliver bytes as a stream via on_data.
	Raw Type = iota

	// RPC connections deliver bytes as one framed message at a time via
	// on_msg.
	RPC
)

func (t Type) String() string {
	if t == RPC {
		return "RPC"
	}
	return "RAW"
}

// state is the registry list a Connection currently belongs to.
type state uint8

const (
	stateActive state = iota
	stateListen
	stateComplete
)

// Connection is a tracked fd or fd-pair with buffers, polling kind, and
// per-connection work. Every field below is read/written only while the
// owning Registry's mutex is held, except where noted.
type Connection struct {
	name string

	inputFD  int
	outputFD int

	typ Type

	pollIn, pollOut PollKind

	isSocket    bool
	isListen    bool
	isConnected bool
	readEOF     bool
	canRead     bool
	workActive  bool

	in  *inBuffer
	out []outItem

	workQueue          []workItem
	writeCompleteQueue []func()

	address        net.Addr
	unixSocketPath string

	arg interface{}

	st state

	// closing is set once close_con has begun finalizing this connection,
	// so a second close_con call (or a close-work retry) is a cheap no-op.
	closing bool
}

// Name returns the connection's stable identifying string. A connection
// with neither fd open reports "INVALID" per spec.md's boundary behavior.
func (c *Connection) Name() string {
	if c.inputFD < 0 && c.outputFD < 0 && c.name == "" {
		return "INVALID"
	}
	return c.name
}

// InputFD returns the current read-side fd, or -1 if closed/absent.
func (c *Connection) InputFD() int { return c.inputFD }

// OutputFD returns the current write-side fd, or -1 if closed/absent.
func (c *Connection) OutputFD() int { return c.outputFD }

func (c *Connection) sameFD() bool {
	return c.inputFD == c.outputFD
}

// Arg returns the per-connection handle returned by on_connection. It is
// opaque to the core: callers must not retain it past on_finish.
func (c *Connection) Arg() interface{} { return c.arg }

// Status mirrors spec.md's fd_get_status: a snapshot safe to read from
// within a running callback (the registry mutex is held by the caller of
// this accessor via the worker pool's callback-invocation discipline).
type Status struct {
	IsSocket    bool
	UnixSocket  bool
	IsListen    bool
	ReadEOF     bool
	IsConnected bool
}

func (c *Connection) status() Status {
	return Status{
		IsSocket:    c.isSocket,
		UnixSocket:  c.unixSocketPath != "",
		IsListen:    c.isListen,
		ReadEOF:     c.readEOF,
		IsConnected: c.isConnected,
	}
}

// desiredPollKind implements spec.md §4.3 step 1: decide the polling kind a
// connection wants given its current state, absent any registry-wide
// shutdown.
func (c *Connection) desiredPollKind() PollKind {
	if c.isListen {
		return PollListen
	}
	if !c.isConnected {
		return PollConnected
	}
	if c.readEOF && len(c.out) == 0 && len(c.workQueue) == 0 {
		return PollNone
	}

	kind := PollNone
	wantRead := c.canRead && !c.in.Full()
	wantWrite := len(c.out) > 0

	switch {
	case wantRead && wantWrite:
		kind = PollReadWrite
	case wantRead:
		kind = PollReadOnly
	case wantWrite:
		kind = PollWriteOnly
	}
	return kind
}
