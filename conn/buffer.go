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

// inBuffer is a bounded append-only byte buffer with a read cursor. Bytes
// before the cursor have already been consumed by on_data/on_msg. Advance
// moves the cursor and empties the backing slice once the cursor catches
// up with len(data); Reset empties both unconditionally.
type inBuffer struct {
	data   []byte
	cursor int
	max    int
}

func newInBuffer(startSize, max int) *inBuffer {
	if max <= 0 {
		max = startSize
	}
	return &inBuffer{
		data: make([]byte, 0, startSize),
		max:  max,
	}
}

// Full reports whether appending more bytes would exceed max.
func (b *inBuffer) Full() bool {
	return b.max > 0 && len(b.data) >= b.max
}

// Append adds p to the buffer, truncating to the remaining capacity if it
// would otherwise exceed max. Returns the number of bytes actually stored.
func (b *inBuffer) Append(p []byte) int {
	if b.max > 0 {
		room := b.max - len(b.data)
		if room <= 0 {
			return 0
		}
		if len(p) > room {
			p = p[:room]
		}
	}
	b.data = append(b.data, p...)
	return len(p)
}

// Unread returns the bytes not yet consumed.
func (b *inBuffer) Unread() []byte {
	return b.data[b.cursor:]
}

// Advance moves the read cursor forward by n bytes (clamped to len(data)),
// compacting the backing slice when fully consumed.
func (b *inBuffer) Advance(n int) {
	b.cursor += n
	if b.cursor >= len(b.data) {
		b.data = b.data[:0]
		b.cursor = 0
		return
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
}

// Reset clears the buffer and cursor, e.g. on close or on a RAW/RPC mode
// switch that rebases consumption.
func (b *inBuffer) Reset() {
	b.data = b.data[:0]
	b.cursor = 0
}

// Len reports how many unread bytes remain.
func (b *inBuffer) Len() int {
	return len(b.data) - b.cursor
}

// outItem is one buffer queued for transmission plus how much of it has
// already been written.
type outItem struct {
	data   []byte
	offset int
}

func (o *outItem) remaining() []byte {
	return o.data[o.offset:]
}

func (o *outItem) drained() bool {
	return o.offset >= len(o.data)
}
