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
	"context"
	"os"
	"sync"
	"syscall"

	"github.com/google/uuid"

	conmgrcfg "github.com/go-conmgr/conmgr/config"
	connerr "github.com/go-conmgr/conmgr/errors"
	"github.com/go-conmgr/conmgr/ioutils/fileDescriptor"
	"github.com/go-conmgr/conmgr/ioutils/mapCloser"
	"github.com/go-conmgr/conmgr/logger"
)

// OnConnectionFunc runs exactly once for a newly adopted non-listen
// connection; its return value becomes the connection's arg. A nil return
// does not close the connection: it stays registered with a nil arg.
type OnConnectionFunc func(c *Connection) interface{}

// OnDataFunc drains a RAW connection's in_buffer. data is the unread
// portion at call time; the callback returns how many leading bytes it
// consumed (0 means "need more data before anything can be processed").
type OnDataFunc func(c *Connection, data []byte, arg interface{}) int

// OnMsgFunc consumes one framed message from an RPC connection's
// in_buffer, returning the number of bytes consumed (0 means "need more
// data").
type OnMsgFunc func(c *Connection, msg []byte, arg interface{}) int

// OnFinishFunc runs once a connection has been fully drained and removed
// from the registry.
type OnFinishFunc func(c *Connection, arg interface{})

// Manager is the connection manager's external entry point: every
// operation in spec.md §6 is a method on it. Internals (registry, poller,
// worker pool, watch loop, signal bridge) are unexported.
type Manager struct {
	mu sync.RWMutex

	cfg conmgrcfg.Config
	log logger.Logger

	registry *registry
	poll     poller
	pool     *workerPool
	sig      *signalBridge
	watch    *watchLoop

	// closers is a mapCloser safety net: every raw listening fd is
	// registered here so an abrupt ctx cancellation (process shutdown
	// without a graceful Shutdown call) still closes kernel sockets
	// instead of leaking them.
	closers mapCloser.Closer

	onConnection OnConnectionFunc
	onData       OnDataFunc
	onMsg        OnMsgFunc
	onFinish     OnFinishFunc
}

// Option configures a Manager at construction, matching the teacher's
// functional-option idiom (logger/options.go).
type Option func(*Manager)

// WithLogger attaches l as the manager's logger; watch loop, worker pool
// and listener paths all log through it.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithConfig applies c's tunables (backlog depth, buffer sizing, worker
// count, ...). It takes effect only as an argument to New, which builds
// the worker pool from c's worker_count.
func WithConfig(c conmgrcfg.Config) Option {
	return func(m *Manager) { m.cfg = c }
}

// New constructs a Manager. It does not start the watch loop or signal
// bridge; call Start for that.
func New(ctx context.Context, opts ...Option) *Manager {
	m := &Manager{
		cfg: *conmgrcfg.Default(),
		log: logger.New(ctx),
	}
	for _, o := range opts {
		o(m)
	}

	m.registry = newRegistry()
	m.closers = mapCloser.New(ctx)

	if m.cfg.MaxFileDescriptors > 0 {
		if cur, max, ferr := fileDescriptor.SystemFileDescriptor(m.cfg.MaxFileDescriptors); ferr != nil {
			m.log.Warning("raising file descriptor limit failed", ferr, "requested", m.cfg.MaxFileDescriptors)
		} else {
			m.log.Debug("file descriptor limit", nil, "current", cur, "max", max)
		}
	}

	p, err := newPoller()
	if err != nil {
		m.log.Error("poller initialization failed", err)
		panic(connerr.New(uint16(connerr.Fatal), "poller initialization failed", err))
	}
	m.poll = p

	m.pool = newWorkerPool(ctx, m.registry, m.cfg.WorkerCount, m.log)
	m.sig = newSignalBridge(m.registry, m.poll)
	m.watch = newWatchLoop(m.registry, m.poll, m.pool, m.sig, m.log, m)

	return m
}

// OnConnection registers the on_connection callback.
func (m *Manager) OnConnection(fn OnConnectionFunc) { m.onConnection = fn }

// OnData registers the on_data callback used for RAW connections. Nothing
// checks that it is set: a RAW connection can be adopted without it, and
// its incoming bytes then stay in in_buffer undelivered.
func (m *Manager) OnData(fn OnDataFunc) { m.onData = fn }

// OnMsg registers the on_msg callback, required for RPC connections.
func (m *Manager) OnMsg(fn OnMsgFunc) { m.onMsg = fn }

// OnFinish registers the on_finish callback.
func (m *Manager) OnFinish(fn OnFinishFunc) { m.onFinish = fn }

// Start launches the watch loop and, if sigs is non-empty, the signal
// bridge, per spec.md §4.3/§4.7.
func (m *Manager) Start(ctx context.Context, sigs ...os.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(sigs) > 0 {
		m.sig.watch(sigs...)
	}
	return m.watch.Start(ctx)
}

// Stop stops the watch loop and signal bridge, then waits for any
// in-flight worker-pool callbacks to return.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sig.stop()
	err := m.watch.Stop(ctx)
	m.pool.wait()
	return err
}

// Shutdown queues a close for every active and listening connection (the
// normal close path, so out_queue drains before finalize), runs every
// still-queued work item with WorkCancelled, then stops the watch loop. It
// does not wait for the closed connections to be reaped: connections still
// draining when the loop stops stay in the registry. It is the explicit
// shutdown request named in spec.md §3's "Global state S" note.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.registry.mu.Lock()
	m.registry.shutdown = true
	conns := append(append([]*Connection{}, m.registry.allActive()...), m.registry.listen...)
	m.registry.mu.Unlock()

	for _, c := range conns {
		m.QueueCloseFD(c)
	}

	m.pool.cancelAll()

	err := m.Stop(ctx)
	_ = m.closers.Close()
	return err
}

// ProcessFD adopts an already-open fd pair as an active connection,
// matching spec.md §6's process_fd.
func (m *Manager) ProcessFD(typ Type, inputFD, outputFD int, arg interface{}) *Connection {
	_ = syscall.SetNonblock(inputFD, true)
	if outputFD != inputFD {
		_ = syscall.SetNonblock(outputFD, true)
	} else if m.cfg.KeepAlive {
		setKeepAlive(inputFD, true)
	}

	c := &Connection{
		name:        uuid.NewString(),
		inputFD:     inputFD,
		outputFD:    outputFD,
		typ:         typ,
		isSocket:    true,
		isConnected: true,
		canRead:     true,
		arg:         arg,
		in:          newInBuffer(m.cfg.BufferStartSize, 0),
	}

	m.registry.mu.Lock()
	m.registry.addActive(c)
	m.registry.mu.Unlock()

	if m.onConnection != nil {
		c.arg = m.onConnection(c)
	}

	m.poll.interrupt()
	return c
}

// ProcessFDListen adopts an already-bound, already-listening TCP fd.
func (m *Manager) ProcessFDListen(typ Type, fd int) *Connection {
	return m.adoptListenFD(typ, fd, "")
}

// ProcessFDUnixListen adopts an already-bound, already-listening
// local-domain fd.
func (m *Manager) ProcessFDUnixListen(typ Type, fd int, path string) *Connection {
	return m.adoptListenFD(typ, fd, path)
}

func (m *Manager) adoptListenFD(typ Type, fd int, path string) *Connection {
	_ = syscall.SetNonblock(fd, true)

	c := &Connection{
		name:           uuid.NewString(),
		inputFD:        fd,
		outputFD:       -1,
		typ:            typ,
		isSocket:       true,
		isListen:       true,
		isConnected:    true,
		unixSocketPath: path,
	}

	ok, err := m.poll.linkFD(fd, PollListen)
	if err != nil {
		if m.log != nil {
			m.log.Error("linkFD failed for adopted listener", err)
		}
	}
	if ok {
		c.pollIn = PollListen
	} else {
		c.pollIn = PollUnsupported
	}

	m.registry.mu.Lock()
	m.registry.addListen(c)
	m.registry.mu.Unlock()

	return c
}

// FDChangeMode switches a connection between RAW and RPC, permitted while
// the connection is live per spec.md §3.
func (m *Manager) FDChangeMode(c *Connection, typ Type) {
	m.registry.mu.Lock()
	c.typ = typ
	m.registry.signalWake()
	m.registry.mu.Unlock()
}

// FDGetStatus returns a snapshot of c's flags, callable only from within a
// running callback per spec.md §6.
func (m *Manager) FDGetStatus(c *Connection) Status {
	m.registry.mu.Lock()
	defer m.registry.mu.Unlock()
	return c.status()
}

// FDGetName returns c's stable identifying string.
func (m *Manager) FDGetName(c *Connection) string {
	return c.Name()
}

// QueueSignalWork registers fn to run the next time the signal bridge
// observes signal num (spec.md §4.7's "dispatches all work items whose
// on_signal_number matches"). fn is parked on c's work_queue, where the
// worker pool skips it; when num is delivered the watch loop removes it and
// runs it once, on the watch loop goroutine, with a nil connection. It is
// not serialized with c's other work.
func (m *Manager) QueueSignalWork(c *Connection, num int, fn WorkFunc) {
	m.registry.mu.Lock()
	c.workQueue = append(c.workQueue, workItem{fn: fn, signal: num, isSignal: true})
	m.registry.signalWake()
	m.registry.mu.Unlock()
}

// Stats is a point-in-time operational snapshot, the supplemental surface
// named in SPEC_FULL.md §7. It is only returned to the caller; nothing in
// the package logs or exports it (see DESIGN.md for the dropped-dependency
// note).
type Stats struct {
	Active        int
	Listen        int
	Queued        int
	WorkBusy      int
	TotalAccepted int64
}

// Stats reports current registry occupancy and work-queue depth.
func (m *Manager) Stats() Stats {
	m.registry.mu.Lock()
	defer m.registry.mu.Unlock()

	var queued, busy int
	for _, c := range m.registry.allActive() {
		queued += len(c.workQueue)
		if c.workActive {
			busy++
		}
	}

	return Stats{
		Active:        len(m.registry.allActive()),
		Listen:        len(m.registry.listen),
		Queued:        queued,
		WorkBusy:      busy,
		TotalAccepted: m.registry.totalAccepted.Load(),
	}
}
