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

import (
	"strconv"

	"github.com/coredb/coredb/pack"
)

// node is one quick-list segment: it owns exactly one pack segment, either
// raw (seg != nil) or s2-compressed (packed != nil; see compress.go).
// compressed records the segment's *nominal* storage mode; a node may be
// temporarily decompressed (seg != nil, needsRecompress == true) while
// compressed is still true, per DESIGN.md Open Question 2.
type node struct {
	prev, next *node

	seg    *pack.Segment
	packed []byte

	compressed      bool
	needsRecompress bool

	rawSize int // byte size of the raw (uncompressed) pack segment
	count   int // cached element count
}

func newEmptyNode() *node {
	s := pack.New()
	return &node{seg: s, rawSize: s.ByteLen(), count: 0}
}

func newNodeFromValue(data []byte) *node {
	n := newEmptyNode()
	_, _ = n.seg.Append(data)
	n.sync()
	return n
}

// open returns the node's live, mutable pack segment, decompressing it if
// necessary.
func (n *node) open() *pack.Segment {
	if n.seg != nil {
		return n.seg
	}
	raw, err := defaultCompressor.decompress(n.packed, n.rawSize)
	if err != nil {
		panic("quicklist: corrupt compressed segment: " + err.Error())
	}
	n.seg = pack.FromBytes(raw)
	n.needsRecompress = true
	return n.seg
}

// sync refreshes the node's cached rawSize/count from its live segment
// after a mutation. Call after every pack-level mutation.
func (n *node) sync() {
	n.rawSize = n.seg.ByteLen()
	n.count = n.seg.Len()
}

// tryCompress compresses the node if its nominal mode is compressed (or it
// is large enough to become so) and doing so is worthwhile, per the
// compression discipline in SPEC_FULL.md §4.2.
func (n *node) tryCompress(wantCompressed bool) {
	if !wantCompressed {
		if n.seg == nil {
			n.open()
		}
		n.packed = nil
		n.needsRecompress = false
		n.compressed = false
		return
	}
	if n.seg == nil {
		// Already compressed and not currently open.
		return
	}
	out, ok := defaultCompressor.compress(n.seg.Bytes())
	if !ok {
		n.compressed = false
		n.needsRecompress = false
		return
	}
	n.packed = out
	n.seg = nil
	n.compressed = true
	n.needsRecompress = false
}

// elementBytes recovers a reinsertable byte form of v: the decimal string
// for integers (round-trip safe, since the narrowest encoding is a pure
// function of value), or a defensive copy of the borrowed string slice.
func elementBytes(v pack.Value) []byte {
	if v.IsInt {
		return []byte(strconv.FormatInt(v.Int, 10))
	}
	cp := make([]byte, len(v.Str))
	copy(cp, v.Str)
	return cp
}
