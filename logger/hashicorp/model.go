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

// Package hashicorp bridges this module's Logger into an hclog.Logger, so
// third-party libraries written against hashicorp/go-hclog (as several of
// the connection manager's peers in the wider ecosystem are) can log through
// the same sinks as the rest of the process.
package hashicorp

import (
	"io"
	"log"
	"os"

	"github.com/hashicorp/go-hclog"

	liblog "github.com/go-conmgr/conmgr/logger"
	loglvl "github.com/go-conmgr/conmgr/logger/level"
)

const (
	// HCLogArgs is the field key used to store hclog With() arguments.
	HCLogArgs = "hclog.args"

	// HCLogName is the field key used to store the logger name from Named().
	HCLogName = "hclog.name"
)

// _hclog implements hclog.Logger, bridging to this module's Logger.
type _hclog struct {
	l liblog.FuncLog
}

func (o *_hclog) logger() liblog.Logger {
	if o.l == nil {
		return nil
	}
	return o.l()
}

// Log logs a message at the specified hclog level.
func (o *_hclog) Log(level hclog.Level, msg string, args ...interface{}) {
	lg := o.logger()
	if lg == nil {
		return
	}

	switch level {
	case hclog.NoLevel, hclog.Off:
		return
	case hclog.Trace, hclog.Debug:
		lg.Debug(msg, nil, args...)
	case hclog.Info:
		lg.Info(msg, nil, args...)
	case hclog.Warn:
		lg.Warning(msg, nil, args...)
	case hclog.Error:
		lg.Error(msg, nil, args...)
	}
}

func (o *_hclog) Trace(msg string, args ...interface{}) {
	if lg := o.logger(); lg != nil {
		lg.Debug(msg, nil, args...)
	}
}

func (o *_hclog) Debug(msg string, args ...interface{}) {
	if lg := o.logger(); lg != nil {
		lg.Debug(msg, nil, args...)
	}
}

func (o *_hclog) Info(msg string, args ...interface{}) {
	if lg := o.logger(); lg != nil {
		lg.Info(msg, nil, args...)
	}
}

func (o *_hclog) Warn(msg string, args ...interface{}) {
	if lg := o.logger(); lg != nil {
		lg.Warning(msg, nil, args...)
	}
}

func (o *_hclog) Error(msg string, args ...interface{}) {
	if lg := o.logger(); lg != nil {
		lg.Error(msg, nil, args...)
	}
}

// IsTrace reports whether EnableTrace is set on the bridged logger.
func (o *_hclog) IsTrace() bool {
	lg := o.logger()
	if lg == nil {
		return false
	}
	if opt := lg.GetOptions(); opt != nil {
		return opt.EnableTrace
	}
	return false
}

func (o *_hclog) IsDebug() bool {
	lg := o.logger()
	return lg != nil && lg.GetLevel() >= loglvl.DebugLevel
}

func (o *_hclog) IsInfo() bool {
	lg := o.logger()
	return lg != nil && lg.GetLevel() >= loglvl.InfoLevel
}

func (o *_hclog) IsWarn() bool {
	lg := o.logger()
	return lg != nil && lg.GetLevel() >= loglvl.WarnLevel
}

func (o *_hclog) IsError() bool {
	lg := o.logger()
	return lg != nil && lg.GetLevel() >= loglvl.ErrorLevel
}

// ImpliedArgs returns the context arguments added via With() calls.
func (o *_hclog) ImpliedArgs() []interface{} {
	lg := o.logger()
	if lg == nil {
		return make([]interface{}, 0)
	}

	if v, ok := lg.GetFields()[HCLogArgs].([]interface{}); ok {
		return v
	}
	return make([]interface{}, 0)
}

// With stores additional context arguments, retrieved via ImpliedArgs().
func (o *_hclog) With(args ...interface{}) hclog.Logger {
	if lg := o.logger(); lg != nil {
		lg.AddField(HCLogArgs, args)
	}
	return o
}

// Name returns the logger's name set via Named()/ResetNamed().
func (o *_hclog) Name() string {
	lg := o.logger()
	if lg == nil {
		return ""
	}
	if v, ok := lg.GetFields()[HCLogName].(string); ok {
		return v
	}
	return ""
}

func (o *_hclog) Named(name string) hclog.Logger {
	if lg := o.logger(); lg != nil {
		lg.AddField(HCLogName, name)
	}
	return o
}

func (o *_hclog) ResetNamed(name string) hclog.Logger {
	return o.Named(name)
}

// SetLevel sets the bridged logger's level. Trace additionally enables
// EnableTrace on the output options.
func (o *_hclog) SetLevel(level hclog.Level) {
	lg := o.logger()
	if lg == nil {
		return
	}

	switch level {
	case hclog.NoLevel, hclog.Off:
		lg.SetLevel(loglvl.NilLevel)
	case hclog.Trace:
		if opt := lg.GetOptions(); opt != nil {
			opt.EnableTrace = true
			_ = lg.SetOptions(opt)
		}
		lg.SetLevel(loglvl.DebugLevel)
	case hclog.Debug:
		lg.SetLevel(loglvl.DebugLevel)
	case hclog.Info:
		lg.SetLevel(loglvl.InfoLevel)
	case hclog.Warn:
		lg.SetLevel(loglvl.WarnLevel)
	case hclog.Error:
		lg.SetLevel(loglvl.ErrorLevel)
	}
}

// GetLevel returns the bridged logger's level as an hclog.Level.
func (o *_hclog) GetLevel() hclog.Level {
	lg := o.logger()
	if lg == nil {
		return hclog.NoLevel
	}

	switch lg.GetLevel() {
	case loglvl.NilLevel:
		return hclog.NoLevel
	case loglvl.DebugLevel:
		if o.IsTrace() {
			return hclog.Trace
		}
		return hclog.Debug
	case loglvl.InfoLevel:
		return hclog.Info
	case loglvl.WarnLevel:
		return hclog.Warn
	case loglvl.ErrorLevel:
		return hclog.Error
	default:
		return hclog.Off
	}
}

// StandardLogger returns a standard library *log.Logger backed by this
// adapter's bridged logger.
func (o *_hclog) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	lg := o.logger()
	if lg == nil {
		return log.Default()
	}

	var lvl loglvl.Level
	switch opts.ForceLevel {
	case hclog.NoLevel, hclog.Off:
		lvl = loglvl.NilLevel
	case hclog.Trace, hclog.Debug:
		lvl = loglvl.DebugLevel
	case hclog.Info:
		lvl = loglvl.InfoLevel
	case hclog.Warn:
		lvl = loglvl.WarnLevel
	case hclog.Error:
		lvl = loglvl.ErrorLevel
	}

	return lg.GetStdLogger(lvl, 0)
}

// StandardWriter returns an io.Writer backed by the bridged logger.
func (o *_hclog) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	lg := o.logger()
	if lg == nil {
		return os.Stdout
	}
	return lg
}
