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

// Package pack implements the pack segment codec (PSC): a self-contained,
// forward- and reverse-parseable binary container for a short ordered
// sequence of small strings or integers. See SPEC_FULL.md §4.1.
//
// A Segment is a single contiguous []byte allocation. Header layout:
//
//	[0:4]  total byte length, little-endian uint32
//	[4:6]  element count, little-endian uint16 (saturates at 0xFFFF)
//	[6:N]  elements
//	[N]    terminator byte 0xFF
package pack

import (
	"encoding/binary"

	"github.com/coredb/coredb/coreerr"
)

const (
	headerLen    = 6 // 4-byte total length + 2-byte count
	terminator   = 0xFF
	countSaturate = 0xFFFF

	// MaxBufferSize is the largest a segment's byte buffer may ever grow to.
	MaxBufferSize = 1<<32 - 1

	// Overhead is the fixed header+terminator byte cost of any segment,
	// used by quicklist to approximate a merged segment's resulting size
	// without actually performing the merge.
	Overhead = headerLen + 1

	// maxBacklenBytes bounds the reverse-length varint; runs reaching a 6th
	// continuation byte are malformed (DESIGN.md Open Question 3).
	maxBacklenBytes = 5
)

// Ptr addresses one element within a Segment's buffer: the offset of its
// first encoding byte. NoPtr marks "no element" (end of sequence).
type Ptr int

// NoPtr is the sentinel Ptr returned at end-of-sequence.
const NoPtr Ptr = -1

// Value is the tagged result of Get: either a borrowed string slice into
// the segment's buffer, or a decoded integer. String slices are invalidated
// by any subsequent mutating operation on the same Segment.
type Value struct {
	IsInt bool
	Int   int64
	Str   []byte
}

// Segment is one pack segment: a single contiguous allocation holding a
// header, a sequence of elements, and a terminator byte.
type Segment struct {
	buf []byte
}

// New creates an empty pack segment.
func New() *Segment {
	s := &Segment{buf: make([]byte, headerLen+1)}
	binary.LittleEndian.PutUint32(s.buf[0:4], uint32(headerLen+1))
	binary.LittleEndian.PutUint16(s.buf[4:6], 0)
	s.buf[headerLen] = terminator
	return s
}

// FromBytes wraps an existing buffer as a Segment without copying. The
// caller must have validated it (or call Validate) before trusting it.
func FromBytes(buf []byte) *Segment {
	return &Segment{buf: buf}
}

// Bytes returns the segment's underlying buffer. Callers must not retain
// it across a mutating call.
func (s *Segment) Bytes() []byte { return s.buf }

// ByteLen returns the total byte size of the segment, header included.
func (s *Segment) ByteLen() int {
	return int(binary.LittleEndian.Uint32(s.buf[0:4]))
}

func (s *Segment) setByteLen(n int) {
	binary.LittleEndian.PutUint32(s.buf[0:4], uint32(n))
}

func (s *Segment) rawCount() int {
	return int(binary.LittleEndian.Uint16(s.buf[4:6]))
}

func (s *Segment) setRawCount(n int) {
	if n >= countSaturate {
		binary.LittleEndian.PutUint16(s.buf[4:6], countSaturate)
		return
	}
	binary.LittleEndian.PutUint16(s.buf[4:6], uint16(n))
}

// Len returns the element count, recovering it by a linear scan if the
// header count field has saturated at 0xFFFF.
func (s *Segment) Len() int {
	c := s.rawCount()
	if c < countSaturate {
		return c
	}
	n := 0
	p := Ptr(headerLen)
	for {
		if int(p) >= len(s.buf)-1 || s.buf[p] == terminator {
			break
		}
		elen, _, ok := decodeElementLen(s.buf, int(p))
		if !ok {
			break
		}
		blen := backlenSize(elen)
		p += Ptr(elen + blen)
		n++
	}
	if n < countSaturate {
		s.setRawCount(n)
	}
	return n
}

// Validate scans every element and verifies the terminator and header
// size, without trusting the element-count field.
func (s *Segment) Validate() error {
	if len(s.buf) < headerLen+1 {
		return coreerr.New("pack.Validate", coreerr.MalformedEncoding)
	}
	if s.ByteLen() != len(s.buf) {
		return coreerr.New("pack.Validate", coreerr.MalformedEncoding)
	}
	p := headerLen
	for {
		if p >= len(s.buf) {
			return coreerr.New("pack.Validate", coreerr.MalformedEncoding)
		}
		if s.buf[p] == terminator {
			break
		}
		elen, _, ok := decodeElementLen(s.buf, p)
		if !ok {
			return coreerr.New("pack.Validate", coreerr.MalformedEncoding)
		}
		blen, ok := verifyBacklen(s.buf, p+elen, elen)
		if !ok {
			return coreerr.New("pack.Validate", coreerr.MalformedEncoding)
		}
		p += elen + blen
	}
	if p != len(s.buf)-1 {
		return coreerr.New("pack.Validate", coreerr.MalformedEncoding)
	}
	return nil
}
