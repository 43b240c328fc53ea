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

// PollKind is the interest level registered with the poller for one half
// (or, for a shared fd, both halves) of a connection. UNSUPPORTED is sticky:
// once observed for a given fd it is preserved by every later transition.
type PollKind uint8

const (
	// PollNone means the fd is not currently polled.
	PollNone PollKind = iota

	// PollReadOnly polls for read-readiness only.
	PollReadOnly

	// PollWriteOnly polls for write-readiness only.
	PollWriteOnly

	// PollReadWrite polls for both halves.
	PollReadWrite

	// PollConnected waits for a non-blocking connect to complete;
	// write-readiness satisfies it.
	PollConnected

	// PollListen polls for accept-readiness.
	PollListen

	// PollUnsupported marks an fd the poller could not register (e.g. a
	// plain file, or a platform-specific registration failure that is not
	// otherwise fatal). Sticky: see resolvePollKind.
	PollUnsupported
)

func (k PollKind) String() string {
	switch k {
	case PollNone:
		return "NONE"
	case PollReadOnly:
		return "READ_ONLY"
	case PollWriteOnly:
		return "WRITE_ONLY"
	case PollReadWrite:
		return "READ_WRITE"
	case PollConnected:
		return "CONNECTED"
	case PollListen:
		return "LISTEN"
	case PollUnsupported:
		return "UNSUPPORTED"
	default:
		return "UNKNOWN"
	}
}

// resolvePollKind maps a single desired kind onto the input/output polling
// kinds actually registered with the poller, per spec.md §4.9's normative
// table. sameFD reports whether input_fd == output_fd (a socket) as opposed
// to a distinct pipe pair.
//
// UNSUPPORTED on either side is preserved rather than clobbered by a new
// desired kind: once the poller has told us an fd cannot be registered, no
// later recomputation should silently paper over that.
func resolvePollKind(desired PollKind, sameFD bool, curIn, curOut PollKind) (in, out PollKind) {
	if curIn == PollUnsupported {
		in = PollUnsupported
	}
	if curOut == PollUnsupported {
		out = PollUnsupported
	}

	switch desired {
	case PollNone:
		if in != PollUnsupported {
			in = PollNone
		}
		if !sameFD && out != PollUnsupported {
			out = PollNone
		}
	case PollListen:
		if in != PollUnsupported {
			in = PollListen
		}
		// a listener has no output half regardless of sameFD.
	case PollConnected:
		if in != PollUnsupported {
			in = PollConnected
		}
		if !sameFD && out != PollUnsupported {
			out = PollConnected
		}
	case PollReadOnly:
		if in != PollUnsupported {
			in = PollReadOnly
		}
	case PollWriteOnly:
		if sameFD {
			if in != PollUnsupported {
				in = PollWriteOnly
			}
		} else if out != PollUnsupported {
			out = PollWriteOnly
		}
	case PollReadWrite:
		if sameFD {
			if in != PollUnsupported {
				in = PollReadWrite
			}
		} else {
			if in != PollUnsupported {
				in = PollReadOnly
			}
			if out != PollUnsupported {
				out = PollWriteOnly
			}
		}
	}

	return in, out
}
