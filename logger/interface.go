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

package logger

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"

	libctx "github.com/go-conmgr/conmgr/context"
	loglvl "github.com/go-conmgr/conmgr/logger/level"
)

// FuncLog returns a Logger instance. Used for dependency injection and lazy
// resolution, e.g. when bridging into hclog.Logger or a hashicorp/go-hclog
// consumer that only holds a factory.
type FuncLog func() Logger

// Logger is the structured logger used across the connection manager: every
// goroutine of the watch loop, worker pool and listener paths logs through
// this interface rather than calling logrus directly.
type Logger interface {
	io.Writer

	// SetLevel changes the minimal level of log message.
	SetLevel(lvl loglvl.Level)

	// GetLevel returns the minimal level of log message.
	GetLevel() loglvl.Level

	// SetFields replaces the default fields attached to every entry.
	SetFields(fields map[string]interface{})

	// GetFields returns a copy of the default fields.
	GetFields() map[string]interface{}

	// AddField stores a single default field.
	AddField(key string, value interface{})

	// SetOptions applies an output configuration (stdout/file, color, trace).
	SetOptions(opt *Options) error

	// GetOptions returns the current output configuration.
	GetOptions() *Options

	// Clone duplicates the logger: a copy of its level, fields and options,
	// each independent of the original, with its own output sink.
	Clone() (Logger, error)

	// GetStdLogger returns a standard library *log.Logger bridged to this
	// logger at the given level, for libraries that only accept log.Logger.
	GetStdLogger(lvl loglvl.Level, logFlags int) *log.Logger

	// Debug adds an entry with DebugLevel to the logger.
	Debug(message string, data interface{}, args ...interface{})

	// Info adds an entry with InfoLevel to the logger.
	Info(message string, data interface{}, args ...interface{})

	// Warning adds an entry with WarnLevel to the logger.
	Warning(message string, data interface{}, args ...interface{})

	// Error adds an entry with ErrorLevel to the logger.
	Error(message string, data interface{}, args ...interface{})

	// Fatal adds an entry with FatalLevel to the logger and calls os.Exit.
	Fatal(message string, data interface{}, args ...interface{})

	// Panic adds an entry with PanicLevel to the logger and panics.
	Panic(message string, data interface{}, args ...interface{})

	// CheckError logs err at lvlKO if non-nil; otherwise, if lvlOK is not
	// NilLevel, logs message at lvlOK. Returns true when err was nil.
	CheckError(lvlKO, lvlOK loglvl.Level, message string, err ...error) bool

	// Close releases any open output sink (log file) held by this logger.
	Close() error
}

const (
	keyLevel = iota
	keyLogrus
	keyOptions
	keyFields
	keyCloser
)

// New returns a new Logger with InfoLevel and colorized stdout as its only
// sink.
func New(ctx context.Context) Logger {
	l := &lgr{
		m: sync.RWMutex{},
		x: libctx.New[uint8](ctx),
		c: new(atomic.Value),
	}

	l.SetLevel(loglvl.InfoLevel)
	_ = l.SetOptions(DefaultOptions())

	return l
}

// NewFrom builds a Logger, optionally copying level/fields/options from an
// existing Logger or FuncLog found in other, then applying opt on top.
func NewFrom(ctx context.Context, opt *Options, other ...any) (Logger, error) {
	var base Logger

	for _, i := range other {
		if i == nil {
			continue
		}

		if f, k := i.(FuncLog); k && f != nil {
			if h := f(); h != nil {
				base = h
			}
		} else if g, k := i.(Logger); k && g != nil {
			base = g
		}
	}

	n := &lgr{
		m: sync.RWMutex{},
		x: libctx.New[uint8](ctx),
		c: new(atomic.Value),
	}

	n.SetLevel(loglvl.InfoLevel)

	if base != nil {
		n.SetLevel(base.GetLevel())
		n.SetFields(base.GetFields())
	}

	if opt == nil {
		opt = DefaultOptions()
	} else if base != nil {
		if o := base.GetOptions(); o != nil {
			oo := *o
			oo.Merge(opt)
			*opt = oo
		}
	}

	return n, n.SetOptions(opt)
}
