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
	"bytes"
	"path"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	libctx "github.com/go-conmgr/conmgr/context"
	loglvl "github.com/go-conmgr/conmgr/logger/level"
)

var self = path.Base(reflect.TypeOf(lgr{}).PkgPath())

// lgr is the concrete Logger. It keeps the logrus instance, level and
// options in a libctx.Config[uint8] map so Clone can take a point-in-time
// copy without racing writers, mirroring how the rest of this package keeps
// per-goroutine scoped state in a context-backed map.
type lgr struct {
	m sync.RWMutex
	x libctx.Config[uint8]
	c *atomic.Value
}

func defaultFormatter(disableColor bool) logrus.Formatter {
	return &logrus.TextFormatter{
		ForceColors:            !disableColor,
		DisableColors:          disableColor,
		ForceQuote:             true,
		QuoteEmptyFields:       true,
		DisableTimestamp:       false,
		FullTimestamp:          true,
		TimestampFormat:        time.RFC3339,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	}
}

func (o *lgr) setLogrusLevel(lvl loglvl.Level) {
	if v := o.getLogrus(); v != nil {
		v.SetLevel(lvl.Logrus())
	}
}

func (o *lgr) getLogrus() *logrus.Logger {
	if i, l := o.x.Load(keyLogrus); !l {
		return nil
	} else if v, k := i.(*logrus.Logger); !k {
		return nil
	} else {
		return v
	}
}

// getStack returns the numeric id of the calling goroutine, used to tag
// entries so concurrent watch-loop/worker-pool goroutines can be told apart
// in interleaved output.
func (o *lgr) getStack() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]

	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}

func (o *lgr) getCaller() runtime.Frame {
	pc := make([]uintptr, 10)
	n := runtime.Callers(1, pc)

	if n > 0 {
		frames := runtime.CallersFrames(pc[:n])
		more := true

		for more {
			var frame runtime.Frame
			frame, more = frames.Next()

			if strings.Contains(frame.Function, self) {
				continue
			}

			return frame
		}
	}

	return runtime.Frame{Function: "unknown", File: "unknown", Line: 0}
}
