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

package config

import (
	"fmt"

	connerr "github.com/go-conmgr/conmgr/errors"
)

const (
	// DefaultBacklogDepth is the listen(2) backlog used when BacklogDepth <= 0.
	DefaultBacklogDepth = 128

	// DefaultBufferStartSize is the initial capacity of a fresh connection's
	// in_buffer, in bytes.
	DefaultBufferStartSize = 4096

	// DefaultWorkerCount is the worker pool size used when WorkerCount <= 0.
	DefaultWorkerCount = 4
)

// Config is the connection manager's tunable option set (spec.md §6).
type Config struct {
	// BacklogDepth is the listen(2) backlog depth for every listener.
	BacklogDepth int `mapstructure:"backlog_depth" json:"backlog_depth" yaml:"backlog_depth"`

	// BufferStartSize is the initial capacity given to a connection's
	// in_buffer on creation.
	BufferStartSize int `mapstructure:"buffer_start_size" json:"buffer_start_size" yaml:"buffer_start_size"`

	// WorkerCount is the number of worker goroutines draining the work queue.
	WorkerCount int64 `mapstructure:"worker_count" json:"worker_count" yaml:"worker_count"`

	// DebugConmgr enables verbose tracing of registry/watch-loop/worker-pool
	// decisions (duplicate-listener rejections, polling-kind transitions).
	DebugConmgr bool `mapstructure:"debug_conmgr" json:"debug_conmgr" yaml:"debug_conmgr"`

	// KeepAlive enables TCP keepalive on accepted/dialed stream sockets that
	// are not local-domain. Defaults to true.
	KeepAlive bool `mapstructure:"keep_alive" json:"keep_alive" yaml:"keep_alive"`

	// MaxFileDescriptors, if > 0, is the soft rlimit the manager attempts to
	// raise its process to on construction, so a busy registry does not run
	// out of fds before it runs out of worker capacity. 0 leaves the
	// process's existing limit untouched.
	MaxFileDescriptors int `mapstructure:"max_file_descriptors" json:"max_file_descriptors" yaml:"max_file_descriptors"`
}

// Default returns a Config with every field set to its documented default.
func Default() *Config {
	return &Config{
		BacklogDepth:    DefaultBacklogDepth,
		BufferStartSize: DefaultBufferStartSize,
		WorkerCount:     DefaultWorkerCount,
		DebugConmgr:     false,
		KeepAlive:       true,
	}
}

// Validate checks the option set and fills in zero-valued numeric fields with
// their defaults, mirroring the teacher's component configs (validate-and-fill
// rather than reject-on-zero).
func (c *Config) Validate() error {
	if c == nil {
		return connerr.New(uint16(connerr.InvalidArgument), "nil config")
	}

	if c.BacklogDepth <= 0 {
		c.BacklogDepth = DefaultBacklogDepth
	}
	if c.BufferStartSize <= 0 {
		c.BufferStartSize = DefaultBufferStartSize
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.WorkerCount > 1<<16 {
		return connerr.New(uint16(connerr.InvalidArgument), fmt.Sprintf("worker_count %d exceeds sane upper bound", c.WorkerCount))
	}

	return nil
}

// Clone returns an independent copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	n := *c
	return &n
}

// Merge overwrites every non-zero numeric field of n onto c; DebugConmgr and
// KeepAlive are always copied from n, false included.
func (c *Config) Merge(n *Config) {
	if n == nil {
		return
	}
	if n.BacklogDepth > 0 {
		c.BacklogDepth = n.BacklogDepth
	}
	if n.BufferStartSize > 0 {
		c.BufferStartSize = n.BufferStartSize
	}
	if n.WorkerCount > 0 {
		c.WorkerCount = n.WorkerCount
	}
	c.DebugConmgr = n.DebugConmgr
	c.KeepAlive = n.KeepAlive
	if n.MaxFileDescriptors > 0 {
		c.MaxFileDescriptors = n.MaxFileDescriptors
	}
}
