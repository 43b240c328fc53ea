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

// WorkStatus tags a WorkItem as it is delivered to a worker.
type WorkStatus uint8

const (
	// WorkRun means the work item should execute normally.
	WorkRun WorkStatus = iota

	// WorkCancelled means shutdown reached this item before a worker did;
	// the callback must release any resources it owns and return without
	// touching the connection or registry.
	WorkCancelled
)

func (s WorkStatus) String() string {
	if s == WorkCancelled {
		return "CANCELLED"
	}
	return "RUN"
}

// WorkFunc is one unit of runnable work, optionally bound to a connection.
// It receives the connection it was queued against (nil for unattached
// signal work) and the delivery status.
type WorkFunc func(c *Connection, status WorkStatus)

// workItem pairs a WorkFunc with metadata the watch loop and worker pool
// need: whether it is signal work and, if so, which signal it answers.
type workItem struct {
	fn       WorkFunc
	signal   int
	isSignal bool
}
