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
	"log"

	"github.com/sirupsen/logrus"

	loglvl "github.com/go-conmgr/conmgr/logger/level"
)

// Write implements io.Writer so a *lgr can back a standard library
// *log.Logger (see GetStdLogger) or act as an hclog.Logger.StandardWriter.
func (o *lgr) Write(p []byte) (int, error) {
	o.Info(string(p), nil)
	return len(p), nil
}

func (o *lgr) entry(lvl loglvl.Level, message string, data interface{}, args []interface{}) *logrus.Entry {
	lg := o.getLogrus()
	if lg == nil {
		return nil
	}

	cur := o.GetLevel()
	if cur == loglvl.NilLevel || lvl > cur {
		return nil
	}

	fields := logrus.Fields{}
	for k, v := range o.GetFields() {
		fields[k] = v
	}

	if data != nil {
		fields["data"] = data
	}

	if opt := o.GetOptions(); opt != nil {
		if !opt.DisableStack {
			fields["goroutine"] = o.getStack()
		}
		if opt.EnableTrace {
			fr := o.getCaller()
			fields["caller"] = fmt.Sprintf("%s:%d", fr.File, fr.Line)
		}
	}

	msg := message
	if len(args) > 0 {
		msg = fmt.Sprintf(message, args...)
	}

	return lg.WithFields(fields).WithField("msg", msg)
}

func (o *lgr) log(lvl loglvl.Level, message string, data interface{}, args []interface{}) {
	e := o.entry(lvl, message, data, args)
	if e == nil {
		return
	}

	msg, _ := e.Data["msg"].(string)
	delete(e.Data, "msg")

	switch lvl {
	case loglvl.DebugLevel:
		e.Debug(msg)
	case loglvl.InfoLevel:
		e.Info(msg)
	case loglvl.WarnLevel:
		e.Warn(msg)
	case loglvl.ErrorLevel:
		e.Error(msg)
	case loglvl.FatalLevel:
		e.Fatal(msg)
	case loglvl.PanicLevel:
		e.Panic(msg)
	}
}

// Debug adds an entry with DebugLevel to the logger.
func (o *lgr) Debug(message string, data interface{}, args ...interface{}) {
	o.log(loglvl.DebugLevel, message, data, args)
}

// Info adds an entry with InfoLevel to the logger.
func (o *lgr) Info(message string, data interface{}, args ...interface{}) {
	o.log(loglvl.InfoLevel, message, data, args)
}

// Warning adds an entry with WarnLevel to the logger.
func (o *lgr) Warning(message string, data interface{}, args ...interface{}) {
	o.log(loglvl.WarnLevel, message, data, args)
}

// Error adds an entry with ErrorLevel to the logger.
func (o *lgr) Error(message string, data interface{}, args ...interface{}) {
	o.log(loglvl.ErrorLevel, message, data, args)
}

// Fatal adds an entry with FatalLevel to the logger; logrus.Entry.Fatal
// calls os.Exit(1) after logging.
func (o *lgr) Fatal(message string, data interface{}, args ...interface{}) {
	o.log(loglvl.FatalLevel, message, data, args)
}

// Panic adds an entry with PanicLevel to the logger; logrus.Entry.Panic
// panics after logging.
func (o *lgr) Panic(message string, data interface{}, args ...interface{}) {
	o.log(loglvl.PanicLevel, message, data, args)
}

// CheckError logs err at lvlKO when it is non-nil and returns false.
// Otherwise, if lvlOK is not NilLevel, it logs message at lvlOK and returns
// true.
func (o *lgr) CheckError(lvlKO, lvlOK loglvl.Level, message string, err ...error) bool {
	for _, e := range err {
		if e != nil {
			o.log(lvlKO, message, e, nil)
			return false
		}
	}

	if lvlOK != loglvl.NilLevel {
		o.log(lvlOK, message, nil, nil)
	}

	return true
}

// GetStdLogger returns a *log.Logger that writes into this logger at lvl.
func (o *lgr) GetStdLogger(lvl loglvl.Level, logFlags int) *log.Logger {
	return log.New(&stdBridge{l: o, lvl: lvl}, "", logFlags)
}

type stdBridge struct {
	l   *lgr
	lvl loglvl.Level
}

func (b *stdBridge) Write(p []byte) (int, error) {
	b.l.log(b.lvl, string(p), nil, nil)
	return len(p), nil
}
