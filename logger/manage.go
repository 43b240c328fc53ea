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
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"

	libctx "github.com/go-conmgr/conmgr/context"
	loglvl "github.com/go-conmgr/conmgr/logger/level"
)

// SetLevel changes the minimum log level for this logger.
func (o *lgr) SetLevel(lvl loglvl.Level) {
	o.x.Store(keyLevel, lvl)
	o.setLogrusLevel(lvl)
}

// GetLevel returns the current minimum log level for this logger.
func (o *lgr) GetLevel() loglvl.Level {
	if o == nil || o.x == nil {
		return loglvl.NilLevel
	} else if i, l := o.x.Load(keyLevel); !l {
		return loglvl.NilLevel
	} else if v, k := i.(loglvl.Level); !k {
		return loglvl.NilLevel
	} else {
		return v
	}
}

// SetFields replaces all default fields attached to every subsequent entry.
func (o *lgr) SetFields(fields map[string]interface{}) {
	n := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		n[k] = v
	}
	o.x.Store(keyFields, n)
}

// GetFields returns a copy of the current default fields.
func (o *lgr) GetFields() map[string]interface{} {
	if i, l := o.x.Load(keyFields); l {
		if v, k := i.(map[string]interface{}); k {
			c := make(map[string]interface{}, len(v))
			for kk, vv := range v {
				c[kk] = vv
			}
			return c
		}
	}
	return make(map[string]interface{})
}

// AddField stores a single default field without touching the others.
func (o *lgr) AddField(key string, value interface{}) {
	f := o.GetFields()
	f[key] = value
	o.SetFields(f)
}

// SetOptions (re)configures the output sinks: stdout (colorized unless
// disabled) and, when LogFilePath is set, an additional plain-text file.
// The previous file sink, if any, is closed once the new one is in place.
func (o *lgr) SetOptions(opt *Options) error {
	if opt == nil {
		opt = DefaultOptions()
	}

	if err := opt.Validate(); err != nil {
		return err
	}

	var w io.Writer = io.Discard

	if !opt.DisableStandard {
		w = colorable.NewColorableStdout()
	}

	var closer io.Closer

	if opt.LogFilePath != "" {
		f, err := os.OpenFile(opt.LogFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}

		closer = f

		if opt.DisableStandard {
			w = f
		} else {
			w = io.MultiWriter(w, f)
		}
	}

	lg := logrus.New()
	lg.SetOutput(w)
	lg.SetFormatter(defaultFormatter(opt.DisableColor))
	lg.SetLevel(o.GetLevel().Logrus())

	o.x.Store(keyLogrus, lg)
	o.x.Store(keyOptions, opt.Clone())

	if old := o.c.Swap(closer); old != nil {
		if c, k := old.(io.Closer); k && c != nil {
			_ = c.Close()
		}
	}

	return nil
}

// GetOptions returns the current output configuration.
func (o *lgr) GetOptions() *Options {
	if i, l := o.x.Load(keyOptions); l {
		if v, k := i.(*Options); k {
			return v.Clone()
		}
	}
	return DefaultOptions()
}

// Clone duplicates the logger: same level and options, independent fields
// and its own logrus/file sink so Close on one does not affect the other.
func (o *lgr) Clone() (Logger, error) {
	if o == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	if e := o.x.Err(); e != nil {
		return nil, e
	}

	n := &lgr{
		m: sync.RWMutex{},
		x: libctx.New[uint8](o.x.GetContext()),
		c: new(atomic.Value),
	}

	n.SetLevel(o.GetLevel())
	n.SetFields(o.GetFields())

	if err := n.SetOptions(o.GetOptions()); err != nil {
		return nil, err
	}

	return n, nil
}

// Close releases the file sink, if any, opened by SetOptions.
func (o *lgr) Close() error {
	if i := o.c.Load(); i != nil {
		if c, k := i.(io.Closer); k && c != nil {
			return c.Close()
		}
	}
	return nil
}
