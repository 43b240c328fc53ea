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

import "fmt"

// Options configures where and how a Logger writes its entries. It is
// deliberately smaller than a general-purpose logging framework's options:
// the connection manager is a single local daemon, not a multi-tenant log
// aggregation service, so one optional file sink alongside stdout is enough.
type Options struct {
	// DisableStandard disables writing to stdout/stderr entirely.
	DisableStandard bool `json:"disableStandard,omitempty" yaml:"disableStandard,omitempty" mapstructure:"disableStandard,omitempty"`

	// DisableColor forces plain (non-ANSI) output even on a tty.
	DisableColor bool `json:"disableColor,omitempty" yaml:"disableColor,omitempty" mapstructure:"disableColor,omitempty"`

	// EnableTrace adds the caller file:line to every entry.
	EnableTrace bool `json:"enableTrace,omitempty" yaml:"enableTrace,omitempty" mapstructure:"enableTrace,omitempty"`

	// DisableStack disables the goroutine id prefix on every entry.
	DisableStack bool `json:"disableStack,omitempty" yaml:"disableStack,omitempty" mapstructure:"disableStack,omitempty"`

	// LogFilePath, when non-empty, additionally appends every entry (in
	// plain, uncolored form) to the named file. The file is created if it
	// does not exist.
	LogFilePath string `json:"logFilePath,omitempty" yaml:"logFilePath,omitempty" mapstructure:"logFilePath,omitempty"`
}

// DefaultOptions returns the logger configuration used by New(): colorized
// stdout, no trace, no file sink.
func DefaultOptions() *Options {
	return &Options{}
}

// Validate reports whether the options are usable. LogFilePath has no
// further constraint here; SetOptions surfaces any open(2) failure when it
// actually tries to use the path.
func (o *Options) Validate() error {
	if o == nil {
		return fmt.Errorf("nil logger options")
	}
	return nil
}

// Clone returns an independent copy of o.
func (o *Options) Clone() *Options {
	if o == nil {
		return DefaultOptions()
	}
	c := *o
	return &c
}

// Merge overlays n onto o in place: every boolean field is copied from n,
// and LogFilePath only when n's is non-empty.
func (o *Options) Merge(n *Options) {
	if o == nil || n == nil {
		return
	}

	o.DisableStandard = n.DisableStandard
	o.DisableColor = n.DisableColor
	o.EnableTrace = n.EnableTrace
	o.DisableStack = n.DisableStack

	if n.LogFilePath != "" {
		o.LogFilePath = n.LogFilePath
	}
}
