// Copyright 2026 The sleuthgo Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rangelist implements an ordered, non-overlapping, coalescing
// set of [start,end) ranges over 63-bit integers, used to track
// acquisition errors, optical sessions, and corrupted-chunk regions.
package rangelist

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when start+size overflows or exceeds 2^63.
var ErrInvalidRange = errors.New("rangelist: invalid range")

const maxValue = uint64(1) << 63

// Range is one stored [Start, End) interval.
type Range struct {
	Start uint64
	End   uint64
}

// Size returns End-Start.
func (r Range) Size() uint64 { return r.End - r.Start }

// node is one entry of the internal doubly linked list. The cursor
// field on List remembers the last-visited node so that sequential
// append/lookup workloads (the common case for acquisition error lists
// and bad-sector scans) don't re-walk from the head every time.
type node struct {
	r          Range
	prev, next *node
}

// List is a doubly linked, ascending-order range list with an internal
// traversal cursor. The zero value is ready to use.
type List struct {
	head, tail *node
	cursor     *node
	len        int
}

// Len returns the number of stored ranges.
func (l *List) Len() int { return l.len }

// Ranges returns the stored ranges in ascending order. The returned
// slice is a fresh copy; mutating it does not affect the list.
func (l *List) Ranges() []Range {
	out := make([]Range, 0, l.len)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.r)
	}
	return out
}

func validate(start, size uint64) error {
	if size == 0 {
		return fmt.Errorf("%w: zero size", ErrInvalidRange)
	}
	end := start + size
	if end < start {
		return fmt.Errorf("%w: start+size overflows", ErrInvalidRange)
	}
	if start >= maxValue || end > maxValue {
		return fmt.Errorf("%w: exceeds 2^63", ErrInvalidRange)
	}
	return nil
}

// locate finds, starting from the cursor when possible, the first node
// whose End is >= start (the left neighbor candidate) and returns it, or
// nil when no such node exists.
func (l *List) locate(start uint64) *node {
	// Prefer resuming from the cursor for sequential workloads: if the
	// cursor's range still precedes start, walk forward from there
	// instead of restarting at the head.
	n := l.head
	if l.cursor != nil && l.cursor.r.Start <= start {
		n = l.cursor
	}
	for n != nil && n.r.End < start {
		n = n.next
	}
	return n
}

// AppendRange inserts [start, start+size) into the list, merging with
// any touching or overlapping entries so the list remains canonical.
func (l *List) AppendRange(start, size uint64) error {
	if err := validate(start, size); err != nil {
		return err
	}
	newStart, newEnd := start, start+size

	at := l.locate(start)

	// Absorb every existing node that touches or overlaps [newStart,newEnd).
	for at != nil && at.r.Start <= newEnd {
		if at.r.End < newStart {
			break
		}
		if at.r.Start < newStart {
			newStart = at.r.Start
		}
		if at.r.End > newEnd {
			newEnd = at.r.End
		}
		next := at.next
		l.unlink(at)
		at = next
	}

	n := &node{r: Range{Start: newStart, End: newEnd}}
	l.insertBefore(at, n)
	l.cursor = n
	return nil
}

// RemoveRange deletes [start, start+size) from the list, splitting the
// covering entry if the removed range falls strictly inside it.
func (l *List) RemoveRange(start, size uint64) error {
	if err := validate(start, size); err != nil {
		return err
	}
	removeStart, removeEnd := start, start+size

	n := l.head
	for n != nil {
		next := n.next
		switch {
		case n.r.End <= removeStart || n.r.Start >= removeEnd:
			// No overlap.
		case n.r.Start >= removeStart && n.r.End <= removeEnd:
			// Fully covered: delete.
			l.unlink(n)
		case n.r.Start < removeStart && n.r.End > removeEnd:
			// Removed range is a strict interior hole: split in two.
			rightStart, rightEnd := removeEnd, n.r.End
			n.r.End = removeStart
			right := &node{r: Range{Start: rightStart, End: rightEnd}}
			l.insertAfter(n, right)
		case n.r.Start < removeStart:
			// Overlap trims the tail of n.
			n.r.End = removeStart
		default:
			// Overlap trims the head of n.
			n.r.Start = removeEnd
		}
		n = next
	}
	l.cursor = nil
	return nil
}

// IsPresent reports whether any byte of [start, start+size) lies within
// any stored range.
func (l *List) IsPresent(start, size uint64) bool {
	if size == 0 {
		return false
	}
	end := start + size
	for n := l.head; n != nil; n = n.next {
		if n.r.Start >= end {
			return false
		}
		if n.r.End > start {
			return true
		}
	}
	return false
}

// GetRangeByValue returns the stored range covering v, if any.
func (l *List) GetRangeByValue(v uint64) (Range, bool) {
	for n := l.head; n != nil; n = n.next {
		if v < n.r.Start {
			return Range{}, false
		}
		if v < n.r.End {
			return n.r, true
		}
	}
	return Range{}, false
}

func (l *List) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	l.len--
}

// insertBefore inserts n immediately before at (at==nil means append at tail).
func (l *List) insertBefore(at, n *node) {
	if at == nil {
		n.prev = l.tail
		if l.tail != nil {
			l.tail.next = n
		} else {
			l.head = n
		}
		l.tail = n
		l.len++
		return
	}
	n.next = at
	n.prev = at.prev
	if at.prev != nil {
		at.prev.next = n
	} else {
		l.head = n
	}
	at.prev = n
	l.len++
}

func (l *List) insertAfter(at, n *node) {
	n.prev = at
	n.next = at.next
	if at.next != nil {
		at.next.prev = n
	} else {
		l.tail = n
	}
	at.next = n
	l.len++
}
