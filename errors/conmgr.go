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

package errors

// Connection manager error codes, registered against the generic CodeError
// taxonomy above. Values start at 1000 to stay clear of any HTTP-status-like
// codes a caller might register for its own purposes.
const (
	// InvalidArgument means a caller supplied a value the manager rejects
	// outright (a nil fd, an unparsable address, a zero worker count, ...).
	InvalidArgument CodeError = iota + 1000

	// UnsupportedFamily means the requested socket/address family cannot be
	// handled on this platform or by this build.
	UnsupportedFamily

	// MissingSocket means an operation was attempted against a connection
	// that has no usable file descriptor (already closed, never opened).
	MissingSocket

	// ConnectionError wraps a failure reported by the kernel or peer while
	// reading, writing, accepting or connecting.
	ConnectionError

	// NotSupported means the operation is recognized but not implemented on
	// this platform (e.g. fd-passing on a non-Unix target).
	NotSupported

	// TransientRetry marks a condition the poll loop should retry on its own
	// (EAGAIN, EINTR, a short read); it is never returned across the public
	// API surface.
	TransientRetry

	// Fatal marks a condition the watch loop cannot recover from; the caller
	// owning the Manager should treat it as a signal to shut the process
	// down.
	Fatal
)

func init() {
	RegisterIdFctMessage(InvalidArgument, conmgrMessage)
}

func conmgrMessage(code CodeError) string {
	switch code {
	case InvalidArgument:
		return "invalid argument"
	case UnsupportedFamily:
		return "unsupported address family"
	case MissingSocket:
		return "connection has no usable socket"
	case ConnectionError:
		return "connection error"
	case NotSupported:
		return "operation not supported on this platform"
	case TransientRetry:
		return "transient retry condition"
	case Fatal:
		return "fatal condition"
	default:
		return UnknownMessage
	}
}
