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

package pack

import "github.com/coredb/coredb/coreerr"

func (s *Segment) terminatorOffset() int { return s.ByteLen() - 1 }

// First returns the first element's Ptr, or NoPtr if the segment is empty.
func (s *Segment) First() (Ptr, bool) {
	if s.buf[headerLen] == terminator {
		return NoPtr, false
	}
	return Ptr(headerLen), true
}

// Last returns the last element's Ptr, or NoPtr if the segment is empty.
func (s *Segment) Last() (Ptr, bool) {
	end := s.terminatorOffset()
	if end == headerLen {
		return NoPtr, false
	}
	elen, back, ok := decodeBacklenAt(s.buf, end)
	if !ok {
		return NoPtr, false
	}
	return Ptr(end - back - elen), true
}

// Next returns the element following p, or NoPtr at end-of-sequence.
func (s *Segment) Next(p Ptr) (Ptr, bool) {
	elen, _, ok := decodeElementLen(s.buf, int(p))
	if !ok {
		return NoPtr, false
	}
	np := int(p) + elen + backlenSize(elen)
	if np >= len(s.buf) || s.buf[np] == terminator {
		return NoPtr, false
	}
	return Ptr(np), true
}

// Prev returns the element preceding p, or NoPtr if p is the first element.
func (s *Segment) Prev(p Ptr) (Ptr, bool) {
	if int(p) <= headerLen {
		return NoPtr, false
	}
	elen, back, ok := decodeBacklenAt(s.buf, int(p))
	if !ok {
		return NoPtr, false
	}
	return Ptr(int(p) - back - elen), true
}

// Seek returns the element at the given signed index (negative counts
// from the tail, -1 is the last element), or NoPtr if out of range.
func (s *Segment) Seek(index int) (Ptr, bool) {
	if index >= 0 {
		p, ok := s.First()
		for i := 0; ok && i < index; i++ {
			p, ok = s.Next(p)
		}
		return p, ok
	}
	p, ok := s.Last()
	for i := -1; ok && i > index; i-- {
		p, ok = s.Prev(p)
	}
	return p, ok
}

// Index returns p's zero-based forward position, or -1 if p is invalid.
func (s *Segment) Index(p Ptr) int {
	i := 0
	cur, ok := s.First()
	for ok {
		if cur == p {
			return i
		}
		cur, ok = s.Next(cur)
		i++
	}
	return -1
}

// Get decodes the element at p.
func (s *Segment) Get(p Ptr) (Value, error) {
	elen, _, ok := decodeElementLen(s.buf, int(p))
	if !ok {
		return Value{}, coreerr.New("pack.Get", coreerr.MalformedEncoding)
	}
	return decodeElement(s.buf, int(p), elen), nil
}

// elementTotalLen returns encoding+data+backlen size for the element at p.
func (s *Segment) elementTotalLen(p Ptr) (int, bool) {
	elen, _, ok := decodeElementLen(s.buf, int(p))
	if !ok {
		return 0, false
	}
	return elen + backlenSize(elen), true
}
