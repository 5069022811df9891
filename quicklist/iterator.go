// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package quicklist

import "github.com/coredb/coredb/pack"

// Iterator walks a List in one direction, forward or reverse. It survives
// deletion of the element it currently points to via DeleteCurrent, after
// which the next call to Next returns the following element in the
// iteration direction.
type Iterator struct {
	l       *List
	n       *node
	p       pack.Ptr
	reverse bool
	started bool
	valid   bool
}

// IteratorForward returns a head-to-tail iterator positioned before the
// first element.
func (l *List) IteratorForward() *Iterator {
	return &Iterator{l: l, n: l.head}
}

// IteratorReverse returns a tail-to-head iterator positioned before the
// last element.
func (l *List) IteratorReverse() *Iterator {
	return &Iterator{l: l, n: l.tail, reverse: true}
}

// IteratorAt returns a forward iterator positioned so that the next call
// to Next yields the element at the given signed global index.
func (l *List) IteratorAt(i int) *Iterator {
	if i < 0 {
		i = l.count + i
	}
	if i < 0 || i >= l.count {
		return &Iterator{l: l, started: true, valid: false}
	}
	if i == 0 {
		return l.IteratorForward()
	}
	pred, ok := l.Index(i - 1)
	if !ok {
		return &Iterator{l: l, started: true, valid: false}
	}
	return &Iterator{l: l, n: pred.n, p: pred.p, started: true, valid: true}
}

func lastPtr(n *node) (pack.Ptr, bool) {
	return n.open().Last()
}

func firstPtr(n *node) (pack.Ptr, bool) {
	return n.open().First()
}

// Next advances the iterator and returns the element there, or false at
// end-of-sequence.
func (it *Iterator) Next() (pack.Value, bool) {
	if it.l == nil {
		return pack.Value{}, false
	}
	if !it.started {
		it.started = true
		n := it.n
		for n != nil {
			var p pack.Ptr
			var ok bool
			if it.reverse {
				p, ok = lastPtr(n)
			} else {
				p, ok = firstPtr(n)
			}
			if ok {
				it.n, it.p, it.valid = n, p, true
				return it.get()
			}
			if it.reverse {
				n = n.prev
			} else {
				n = n.next
			}
		}
		it.valid = false
		return pack.Value{}, false
	}
	if !it.valid {
		return pack.Value{}, false
	}
	n := it.n
	seg := n.open()
	var np pack.Ptr
	var ok bool
	if it.reverse {
		np, ok = seg.Prev(it.p)
	} else {
		np, ok = seg.Next(it.p)
	}
	for !ok {
		if it.reverse {
			n = n.prev
		} else {
			n = n.next
		}
		if n == nil {
			it.valid = false
			return pack.Value{}, false
		}
		if it.reverse {
			np, ok = lastPtr(n)
		} else {
			np, ok = firstPtr(n)
		}
	}
	it.n, it.p = n, np
	return it.get()
}

func (it *Iterator) get() (pack.Value, bool) {
	seg := it.n.open()
	v, err := seg.Get(it.p)
	if err != nil {
		it.valid = false
		return pack.Value{}, false
	}
	return v, true
}

// Pos returns the Pos of the element the iterator currently holds.
func (it *Iterator) Pos() (Pos, bool) {
	if !it.valid {
		return Pos{}, false
	}
	return Pos{n: it.n, p: it.p}, true
}

// globalIndex returns the iterator's current element's zero-based forward
// position in the list. Splits and merges can relocate elements between
// nodes, so DeleteCurrent recovers its resume point this way rather than
// by chasing node pointers that a merge may have unlinked.
func (it *Iterator) globalIndex() int {
	idx := 0
	for n := it.l.head; n != it.n; n = n.next {
		idx += n.count
	}
	return idx + it.n.open().Index(it.p)
}

// DeleteCurrent deletes the element the iterator currently holds and
// repositions the iterator so that the next call to Next returns the
// following element in the iteration direction.
func (it *Iterator) DeleteCurrent() error {
	if !it.valid {
		return nil
	}
	idx := it.globalIndex()
	pos := Pos{n: it.n, p: it.p}
	if err := it.l.DeleteAt(pos); err != nil {
		return err
	}
	it.started = true
	resumeIdx := idx
	if it.reverse {
		resumeIdx = idx - 1
	}
	if resumeIdx < 0 || resumeIdx >= it.l.count {
		it.valid = false
		return nil
	}
	// Park on the neighbour Next steps away from, so that the next call to
	// Next yields the element at resumeIdx.
	anchor := resumeIdx - 1
	if it.reverse {
		anchor = resumeIdx + 1
	}
	if anchor < 0 || anchor >= it.l.count {
		it.n, it.started, it.valid = it.l.head, false, false
		if it.reverse {
			it.n = it.l.tail
		}
		return nil
	}
	p2, ok := it.l.Index(anchor)
	if !ok {
		it.valid = false
		return nil
	}
	it.n, it.p, it.valid = p2.n, p2.p, true
	return nil
}
