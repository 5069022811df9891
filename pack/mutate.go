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

func (s *Segment) incrementCount() {
	if c := s.rawCount(); c < countSaturate {
		s.setRawCount(c + 1)
	}
}

func (s *Segment) decrementCount() {
	if c := s.rawCount(); c < countSaturate && c > 0 {
		s.setRawCount(c - 1)
	}
}

// insertBytesAt grows the buffer by n bytes at offset, moving the tail
// forward. It returns false (leaving the buffer unchanged) if the result
// would exceed MaxBufferSize.
func (s *Segment) insertBytesAt(offset, n int) bool {
	newLen := len(s.buf) + n
	if newLen > MaxBufferSize {
		return false
	}
	newBuf := make([]byte, newLen)
	copy(newBuf[:offset], s.buf[:offset])
	copy(newBuf[offset+n:], s.buf[offset:])
	s.buf = newBuf
	return true
}

// removeBytesAt shrinks the buffer by n bytes at offset, moving the tail
// back.
func (s *Segment) removeBytesAt(offset, n int) {
	copy(s.buf[offset:], s.buf[offset+n:])
	s.buf = s.buf[:len(s.buf)-n]
}

func (s *Segment) insertElementAt(offset int, data []byte) (Ptr, error) {
	elen, _ := encodedElementLen(data)
	blen := backlenSize(elen)
	if !s.insertBytesAt(offset, elen+blen) {
		return NoPtr, coreerr.New("pack.insert", coreerr.CapacityExceeded)
	}
	encodeElement(s.buf, offset, data)
	encodeBacklen(s.buf, offset+elen, elen)
	s.setByteLen(len(s.buf))
	s.incrementCount()
	return Ptr(offset), nil
}

// Append adds data as the last element.
func (s *Segment) Append(data []byte) (Ptr, error) {
	return s.insertElementAt(s.terminatorOffset(), data)
}

// Prepend adds data as the first element.
func (s *Segment) Prepend(data []byte) (Ptr, error) {
	return s.insertElementAt(headerLen, data)
}

// InsertBefore adds data immediately before the element at p.
func (s *Segment) InsertBefore(p Ptr, data []byte) (Ptr, error) {
	return s.insertElementAt(int(p), data)
}

// InsertAfter adds data immediately after the element at p.
func (s *Segment) InsertAfter(p Ptr, data []byte) (Ptr, error) {
	total, ok := s.elementTotalLen(p)
	if !ok {
		return NoPtr, coreerr.New("pack.InsertAfter", coreerr.NotFound)
	}
	return s.insertElementAt(int(p)+total, data)
}

// Replace overwrites the element at p with data, growing or shrinking the
// buffer as needed.
func (s *Segment) Replace(p Ptr, data []byte) (Ptr, error) {
	offset := int(p)
	oldElen, _, ok := decodeElementLen(s.buf, offset)
	if !ok {
		return NoPtr, coreerr.New("pack.Replace", coreerr.NotFound)
	}
	oldTotal := oldElen + backlenSize(oldElen)
	newElen, _ := encodedElementLen(data)
	newTotal := newElen + backlenSize(newElen)
	delta := newTotal - oldTotal
	switch {
	case delta > 0:
		if !s.insertBytesAt(offset+oldTotal, delta) {
			return NoPtr, coreerr.New("pack.Replace", coreerr.CapacityExceeded)
		}
	case delta < 0:
		s.removeBytesAt(offset+newTotal, -delta)
	}
	encodeElement(s.buf, offset, data)
	encodeBacklen(s.buf, offset+newElen, newElen)
	s.setByteLen(len(s.buf))
	return Ptr(offset), nil
}

// Delete removes the element at p, returning the element that now
// occupies its place (the former next element), or NoPtr if p was last.
func (s *Segment) Delete(p Ptr) (Ptr, error) {
	offset := int(p)
	elen, _, ok := decodeElementLen(s.buf, offset)
	if !ok {
		return NoPtr, coreerr.New("pack.Delete", coreerr.NotFound)
	}
	total := elen + backlenSize(elen)
	s.removeBytesAt(offset, total)
	s.setByteLen(len(s.buf))
	s.decrementCount()
	if offset >= len(s.buf)-1 || s.buf[offset] == terminator {
		return NoPtr, nil
	}
	return Ptr(offset), nil
}

// DeleteRange removes count elements starting at the signed index start
// (negative counts from the tail). count < 0 means "through the end".
func (s *Segment) DeleteRange(start, count int) error {
	cur, ok := s.Seek(start)
	if !ok {
		return coreerr.New("pack.DeleteRange", coreerr.NotFound)
	}
	begin := int(cur)
	end := begin
	n := 0
	for count < 0 || n < count {
		elen, _, ok := decodeElementLen(s.buf, int(cur))
		if !ok {
			break
		}
		total := elen + backlenSize(elen)
		end = int(cur) + total
		n++
		next := end
		if next >= len(s.buf)-1 || s.buf[next] == terminator {
			break
		}
		cur = Ptr(next)
	}
	if n == 0 {
		return nil
	}
	s.removeBytesAt(begin, end-begin)
	s.setByteLen(len(s.buf))
	for i := 0; i < n; i++ {
		s.decrementCount()
	}
	return nil
}
