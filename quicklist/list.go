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

// Package quicklist implements the adaptive list container (QL): a
// doubly-linked chain of pack segments with bounded per-segment fill,
// optional interior-segment compression, and split/merge invariants. See
// SPEC_FULL.md §4.2.
package quicklist

import (
	"github.com/coredb/coredb/coreerr"
	"github.com/coredb/coredb/pack"
)

// hardCeiling is the safety ceiling applied when fill >= 0, per §4.2.
const hardCeiling = 8192

// tierLimits are the byte-size caps for fill in {-1, ..., -5}.
var tierLimits = [5]int{4096, 8192, 16384, 32768, 65536}

const maxBookmarks = 15

type bookmark struct {
	name string
	n    *node
}

// List is a quick list.
type List struct {
	head, tail    *node
	count         int
	segCount      int
	fill          int
	compressDepth int
	bookmarks     []bookmark
}

// New creates an empty quick list with the given fill parameter (positive
// = element-count cap, negative in {-1..-5} = byte-size tier) and
// compress-depth (0 disables compression).
func New(fill, compressDepth int) *List {
	return &List{fill: fill, compressDepth: compressDepth}
}

// CreateFromPack wraps an existing, already-populated pack segment as the
// sole node of a new quick list.
func CreateFromPack(seg *pack.Segment, fill, compressDepth int) *List {
	l := New(fill, compressDepth)
	n := &node{seg: seg, rawSize: seg.ByteLen(), count: seg.Len()}
	l.head, l.tail = n, n
	l.segCount = 1
	l.count = n.count
	l.enforceCompressDepth()
	return l
}

// AppendPack appends an entire pack segment as a new tail node, bypassing
// the fill-admission check (used for bulk import of pre-built segments).
func (l *List) AppendPack(seg *pack.Segment) {
	n := &node{seg: seg, rawSize: seg.ByteLen(), count: seg.Len()}
	l.linkAfter(l.tail, n)
	l.count += n.count
	l.enforceCompressDepth()
}

// Count returns the total element count across all segments.
func (l *List) Count() int { return l.count }

// SegmentCount returns the number of segments in the chain.
func (l *List) SegmentCount() int { return l.segCount }

// Destroy releases the list's nodes. Quick lists hold no external
// resources beyond Go-managed memory, so this simply unlinks them.
func (l *List) Destroy() {
	l.head, l.tail = nil, nil
	l.count, l.segCount = 0, 0
	l.bookmarks = nil
}

func (l *List) admits(n *node, data []byte) bool {
	if n == nil {
		return false
	}
	newCount := n.count + 1
	newSize := n.rawSize + pack.ElementSize(data)
	if l.fill >= 0 {
		return newCount <= l.fill && newSize <= hardCeiling
	}
	tier := tierLimits[-l.fill-1]
	return newSize <= tier
}

func (l *List) admitsMerge(a, b *node) bool {
	if a == nil || b == nil {
		return false
	}
	newCount := a.count + b.count
	newSize := a.rawSize + b.rawSize - pack.Overhead
	if l.fill >= 0 {
		return newCount <= l.fill && newSize <= hardCeiling
	}
	tier := tierLimits[-l.fill-1]
	return newSize <= tier
}

// linkAfter inserts n immediately after ref (ref == nil means "as the only
// node", used when the list is empty).
func (l *List) linkAfter(ref, n *node) {
	if ref == nil {
		n.prev, n.next = nil, nil
		l.head, l.tail = n, n
		l.segCount++
		return
	}
	n.prev = ref
	n.next = ref.next
	if ref.next != nil {
		ref.next.prev = n
	} else {
		l.tail = n
	}
	ref.next = n
	l.segCount++
}

// linkBefore inserts n immediately before ref (ref == nil means "as the
// only node").
func (l *List) linkBefore(ref, n *node) {
	if ref == nil {
		n.prev, n.next = nil, nil
		l.head, l.tail = n, n
		l.segCount++
		return
	}
	n.next = ref
	n.prev = ref.prev
	if ref.prev != nil {
		ref.prev.next = n
	} else {
		l.head = n
	}
	ref.prev = n
	l.segCount++
}

// unlink removes n from the chain (does not adjust l.count).
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
	l.segCount--
	l.advanceBookmarks(n)
	n.prev, n.next = nil, nil
}

// PushHead inserts data as the new first element.
func (l *List) PushHead(data []byte) error {
	if l.admits(l.head, data) {
		seg := l.head.open()
		if _, err := seg.Prepend(data); err != nil {
			return err
		}
		l.head.sync()
	} else {
		n := newNodeFromValue(data)
		l.linkBefore(l.head, n)
	}
	l.count++
	l.enforceCompressDepth()
	return nil
}

// PushTail inserts data as the new last element.
func (l *List) PushTail(data []byte) error {
	if l.admits(l.tail, data) {
		seg := l.tail.open()
		if _, err := seg.Append(data); err != nil {
			return err
		}
		l.tail.sync()
	} else {
		n := newNodeFromValue(data)
		l.linkAfter(l.tail, n)
	}
	l.count++
	l.enforceCompressDepth()
	return nil
}

// PopHead removes and returns the first element.
func (l *List) PopHead() ([]byte, bool) {
	if l.head == nil {
		return nil, false
	}
	seg := l.head.open()
	p, ok := seg.First()
	if !ok {
		return nil, false
	}
	v, _ := seg.Get(p)
	out := elementBytes(v)
	_, _ = seg.Delete(p)
	l.head.sync()
	l.count--
	if l.head.count == 0 {
		l.unlink(l.head)
	}
	l.enforceCompressDepth()
	return out, true
}

// PopTail removes and returns the last element.
func (l *List) PopTail() ([]byte, bool) {
	if l.tail == nil {
		return nil, false
	}
	seg := l.tail.open()
	p, ok := seg.Last()
	if !ok {
		return nil, false
	}
	v, _ := seg.Get(p)
	out := elementBytes(v)
	_, _ = seg.Delete(p)
	l.tail.sync()
	l.count--
	if l.tail.count == 0 {
		l.unlink(l.tail)
	}
	l.enforceCompressDepth()
	return out, true
}

// Rotate moves the tail element to the head.
func (l *List) Rotate() bool {
	v, ok := l.PopTail()
	if !ok {
		return false
	}
	_ = l.PushHead(v)
	return true
}

// enforceCompressDepth walks compressDepth segments in from each end,
// ensuring they are raw, and compresses every other segment (subject to
// the size/gain thresholds in tryCompress). Run after every structural
// change, per DESIGN.md Open Question 2.
func (l *List) enforceCompressDepth() {
	if l.compressDepth <= 0 {
		for n := l.head; n != nil; n = n.next {
			n.tryCompress(false)
		}
		return
	}
	inDepth := make(map[*node]bool)
	n := l.head
	for i := 0; i < l.compressDepth && n != nil; i++ {
		inDepth[n] = true
		n = n.next
	}
	n = l.tail
	for i := 0; i < l.compressDepth && n != nil; i++ {
		inDepth[n] = true
		n = n.prev
	}
	for n := l.head; n != nil; n = n.next {
		if inDepth[n] {
			n.tryCompress(false)
		} else {
			n.tryCompress(true)
		}
	}
}

// tryMergeAround attempts pairwise merges among
// {center.prev.prev, center.prev, center, center.next, center.next.next}
// in a fixed order, per the merge policy in §4.2.
func (l *List) tryMergeAround(center *node) {
	if center == nil {
		return
	}
	pp := center.prev
	var ppp *node
	if pp != nil {
		ppp = pp.prev
	}
	nx := center.next
	var nxx *node
	if nx != nil {
		nxx = nx.next
	}
	l.tryMergePair(ppp, pp)
	l.tryMergePair(nx, nxx)
	l.tryMergePair(center.prev, center)
	l.tryMergePair(center, center.next)
}

// tryMergePair merges b into a if admitted, unlinking b.
func (l *List) tryMergePair(a, b *node) bool {
	if !l.admitsMerge(a, b) {
		return false
	}
	aSeg := a.open()
	bSeg := b.open()
	for p, ok := bSeg.First(); ok; p, ok = bSeg.Next(p) {
		v, _ := bSeg.Get(p)
		_, _ = aSeg.Append(elementBytes(v))
	}
	a.sync()
	l.unlink(b)
	return true
}

// Pos is a stable reference to one element within a list: the node that
// holds it and its Ptr within that node's segment. A Pos is invalidated by
// any subsequent mutation of the node it refers to.
type Pos struct {
	n *node
	p pack.Ptr
}

// Index resolves a signed, zero-based global index (negative counts from
// the tail) to a Pos.
func (l *List) Index(i int) (Pos, bool) {
	if i < 0 {
		i = l.count + i
	}
	if i < 0 || i >= l.count {
		return Pos{}, false
	}
	for n := l.head; n != nil; n = n.next {
		if i < n.count {
			seg := n.open()
			p, ok := seg.Seek(i)
			if !ok {
				return Pos{}, false
			}
			return Pos{n: n, p: p}, true
		}
		i -= n.count
	}
	return Pos{}, false
}

// Get returns the element at the given signed global index.
func (l *List) Get(i int) (pack.Value, bool) {
	pos, ok := l.Index(i)
	if !ok {
		return pack.Value{}, false
	}
	seg := pos.n.open()
	v, err := seg.Get(pos.p)
	if err != nil {
		return pack.Value{}, false
	}
	return v, true
}

// InsertBefore inserts data immediately before pos, following the
// direct-insert / boundary-neighbor / new-node / split decision procedure
// of §4.2.
func (l *List) InsertBefore(pos Pos, data []byte) error {
	return l.insertAt(pos, data, false)
}

// InsertAfter inserts data immediately after pos.
func (l *List) InsertAfter(pos Pos, data []byte) error {
	return l.insertAt(pos, data, true)
}

func (l *List) insertAt(pos Pos, data []byte, after bool) error {
	n := pos.n
	seg := n.open()

	if l.admits(n, data) {
		var err error
		if after {
			_, err = seg.InsertAfter(pos.p, data)
		} else {
			_, err = seg.InsertBefore(pos.p, data)
		}
		if err != nil {
			return err
		}
		n.sync()
		l.count++
		l.enforceCompressDepth()
		return nil
	}

	first, _ := seg.First()
	last, _ := seg.Last()
	atHeadBoundary := !after && pos.p == first
	atTailBoundary := after && pos.p == last

	if atHeadBoundary && n.prev != nil && l.admits(n.prev, data) {
		prevSeg := n.prev.open()
		if _, err := prevSeg.Append(data); err != nil {
			return err
		}
		n.prev.sync()
		l.count++
		l.enforceCompressDepth()
		return nil
	}
	if atTailBoundary && n.next != nil && l.admits(n.next, data) {
		nextSeg := n.next.open()
		if _, err := nextSeg.Prepend(data); err != nil {
			return err
		}
		n.next.sync()
		l.count++
		l.enforceCompressDepth()
		return nil
	}
	if atHeadBoundary {
		nn := newNodeFromValue(data)
		l.linkBefore(n, nn)
		l.count++
		l.enforceCompressDepth()
		return nil
	}
	if atTailBoundary {
		nn := newNodeFromValue(data)
		l.linkAfter(n, nn)
		l.count++
		l.enforceCompressDepth()
		return nil
	}
	return l.splitAndInsert(n, pos.p, data, after)
}

// splitAndInsert handles an interior insertion: the elements from the
// split point onward move into a new node, preceded there by data, and the
// new node is then offered to the merge policy.
func (l *List) splitAndInsert(n *node, p pack.Ptr, data []byte, after bool) error {
	seg := n.open()
	moveFrom := p
	if after {
		nxt, ok := seg.Next(p)
		if !ok {
			// p was the node's last element; this is a tail-boundary
			// insert, not a true split.
			nn := newNodeFromValue(data)
			l.linkAfter(n, nn)
			l.count++
			l.enforceCompressDepth()
			return nil
		}
		moveFrom = nxt
	}

	var moved [][]byte
	for cur, ok := moveFrom, true; ok; {
		v, gerr := seg.Get(cur)
		if gerr != nil {
			break
		}
		moved = append(moved, elementBytes(v))
		cur, ok = seg.Next(cur)
	}
	if err := seg.DeleteRange(seg.Index(moveFrom), -1); err != nil {
		return err
	}
	n.sync()

	nn := newEmptyNode()
	if _, err := nn.seg.Append(data); err != nil {
		return err
	}
	for _, b := range moved {
		if _, err := nn.seg.Append(b); err != nil {
			return err
		}
	}
	nn.sync()
	l.linkAfter(n, nn)
	l.count++
	l.tryMergeAround(nn)
	l.enforceCompressDepth()
	return nil
}

// ReplaceAtIndex overwrites the element at the given signed global index.
func (l *List) ReplaceAtIndex(i int, data []byte) error {
	pos, ok := l.Index(i)
	if !ok {
		return coreerr.New("quicklist.ReplaceAtIndex", coreerr.NotFound)
	}
	seg := pos.n.open()
	if _, err := seg.Replace(pos.p, data); err != nil {
		return err
	}
	pos.n.sync()
	l.enforceCompressDepth()
	return nil
}

// DeleteAt removes the element at pos.
func (l *List) DeleteAt(pos Pos) error {
	n := pos.n
	seg := n.open()
	if _, err := seg.Delete(pos.p); err != nil {
		return err
	}
	n.sync()
	l.count--
	if n.count == 0 {
		l.unlink(n)
	} else {
		l.tryMergeAround(n)
	}
	l.enforceCompressDepth()
	return nil
}

// DeleteAtIndex removes the element at the given signed global index.
func (l *List) DeleteAtIndex(i int) error {
	pos, ok := l.Index(i)
	if !ok {
		return coreerr.New("quicklist.DeleteAtIndex", coreerr.NotFound)
	}
	return l.DeleteAt(pos)
}

// DeleteRange removes count elements starting at the signed global index
// start (negative counts from the tail). count < 0 means "through the
// end".
func (l *List) DeleteRange(start, count int) error {
	if start < 0 {
		start = l.count + start
	}
	if start < 0 || start >= l.count {
		return coreerr.New("quicklist.DeleteRange", coreerr.NotFound)
	}
	n := l.count - start
	if count >= 0 && count < n {
		n = count
	}
	for i := 0; i < n; i++ {
		if err := l.DeleteAtIndex(start); err != nil {
			return err
		}
	}
	return nil
}

// Duplicate returns a deep copy of the list: independent nodes holding
// independent buffers, sharing no memory with the original.
func (l *List) Duplicate() *List {
	out := New(l.fill, l.compressDepth)
	for n := l.head; n != nil; n = n.next {
		seg := n.open()
		buf := seg.Bytes()
		cp := make([]byte, len(buf))
		copy(cp, buf)
		newSeg := pack.FromBytes(cp)
		nn := &node{seg: newSeg, rawSize: newSeg.ByteLen(), count: newSeg.Len()}
		out.linkAfter(out.tail, nn)
	}
	out.count = l.count
	out.enforceCompressDepth()
	return out
}
