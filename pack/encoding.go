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

import "encoding/binary"

// Element encoding prefixes. Each constant's comment gives its bit pattern.
const (
	encInt7Mask   = 0x80 // 0xxxxxxx: 7-bit unsigned immediate
	encStr6Mask   = 0xC0 // 10xxxxxx: 6-bit string length
	encStr6Prefix = 0x80
	encInt13Mask   = 0xE0 // 110xxxxx xxxxxxxx: 13-bit signed integer
	encInt13Prefix = 0xC0
	encStr12Mask   = 0xF0 // 1110xxxx xxxxxxxx: 12-bit string length
	encStr12Prefix = 0xE0
	encStr32 = 0xF0 // + 4 bytes LE length
	encInt16 = 0xF1 // + 2 bytes LE
	encInt24 = 0xF2 // + 3 bytes LE
	encInt32 = 0xF3 // + 4 bytes LE
	encInt64 = 0xF4 // + 8 bytes LE
)

const (
	str6Max  = 1<<6 - 1
	str12Max = 1<<12 - 1

	int13Min = -(1 << 12)
	int13Max = 1<<12 - 1
	int16Min = -(1 << 15)
	int16Max = 1<<15 - 1
	int24Min = -(1 << 23)
	int24Max = 1<<23 - 1
	int32Min = -(1 << 31)
	int32Max = 1<<31 - 1
)

// parseInt implements the strict integer grammar from §4.1: optional
// leading '-', no leading zeros except the literal "0", digits only, and
// the result must fit in an int64.
func parseInt(data []byte) (int64, bool) {
	if len(data) == 0 {
		return 0, false
	}
	neg := false
	i := 0
	if data[0] == '-' {
		neg = true
		i++
	}
	if i >= len(data) {
		return 0, false
	}
	if data[i] == '0' {
		if i != len(data)-1 {
			return 0, false // leading zero, more digits follow
		}
		if neg {
			return 0, false // "-0" is not canonical
		}
		return 0, true
	}
	limit := uint64(1<<63 - 1)
	if neg {
		limit = 1 << 63 // magnitude of the most negative int64
	}
	var v uint64
	for ; i < len(data); i++ {
		c := data[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if v > (limit-d)/10 {
			return 0, false // would overflow int64
		}
		v = v*10 + d
	}
	if neg {
		if v > 1<<63 {
			return 0, false
		}
		return -int64(v), true
	}
	if v > 1<<63-1 {
		return 0, false
	}
	return int64(v), true
}

// encodedElementLen returns the total byte length (encoding+data, not
// including the trailing back-length) a value needs, and whether it
// would exceed any tier.
func encodedElementLen(data []byte) (int, bool) {
	if iv, ok := parseInt(data); ok {
		switch {
		case iv >= 0 && iv <= 127:
			return 1, true
		case iv >= int13Min && iv <= int13Max:
			return 2, true
		case iv >= int16Min && iv <= int16Max:
			return 3, true
		case iv >= int24Min && iv <= int24Max:
			return 4, true
		case iv >= int32Min && iv <= int32Max:
			return 5, true
		default:
			return 9, true
		}
	}
	n := len(data)
	switch {
	case n <= str6Max:
		return 1 + n, true
	case n <= str12Max:
		return 2 + n, true
	default:
		return 5 + n, true
	}
}

// encodeElement writes data's encoding+payload (not the back-length) into
// buf starting at offset, returning the number of bytes written.
func encodeElement(buf []byte, offset int, data []byte) int {
	if iv, ok := parseInt(data); ok {
		switch {
		case iv >= 0 && iv <= 127:
			buf[offset] = byte(iv)
			return 1
		case iv >= int13Min && iv <= int13Max:
			v := uint16(iv) & 0x1FFF
			buf[offset] = encInt13Prefix | byte(v>>8)
			buf[offset+1] = byte(v)
			return 2
		case iv >= int16Min && iv <= int16Max:
			buf[offset] = encInt16
			binary.LittleEndian.PutUint16(buf[offset+1:], uint16(iv))
			return 3
		case iv >= int24Min && iv <= int24Max:
			buf[offset] = encInt24
			v := uint32(iv) & 0xFFFFFF
			buf[offset+1] = byte(v)
			buf[offset+2] = byte(v >> 8)
			buf[offset+3] = byte(v >> 16)
			return 4
		case iv >= int32Min && iv <= int32Max:
			buf[offset] = encInt32
			binary.LittleEndian.PutUint32(buf[offset+1:], uint32(iv))
			return 5
		default:
			buf[offset] = encInt64
			binary.LittleEndian.PutUint64(buf[offset+1:], uint64(iv))
			return 9
		}
	}
	n := len(data)
	switch {
	case n <= str6Max:
		buf[offset] = encStr6Prefix | byte(n)
		copy(buf[offset+1:], data)
		return 1 + n
	case n <= str12Max:
		buf[offset] = encStr12Prefix | byte(n>>8)
		buf[offset+1] = byte(n)
		copy(buf[offset+2:], data)
		return 2 + n
	default:
		buf[offset] = encStr32
		binary.LittleEndian.PutUint32(buf[offset+1:], uint32(n))
		copy(buf[offset+5:], data)
		return 5 + n
	}
}

// ElementSize returns the encoding+data+backlen byte footprint data would
// occupy if appended now. Used by quicklist's fill-policy admission check
// without requiring the segment to be opened/decompressed.
func ElementSize(data []byte) int {
	elen, _ := encodedElementLen(data)
	return elen + backlenSize(elen)
}

// decodeElementLen returns the element's total encoding+data length at
// offset, and whether it is an integer encoding (for fast-pathing Get),
// without allocating.
func decodeElementLen(buf []byte, offset int) (length int, isInt bool, ok bool) {
	if offset >= len(buf) {
		return 0, false, false
	}
	b := buf[offset]
	switch {
	case b&encInt7Mask == 0:
		return 1, true, true
	case b&encStr6Mask == encStr6Prefix:
		if offset+1 > len(buf) {
			return 0, false, false
		}
		n := int(b & 0x3F)
		if offset+1+n > len(buf) {
			return 0, false, false
		}
		return 1 + n, false, true
	case b&encInt13Mask == encInt13Prefix:
		if offset+2 > len(buf) {
			return 0, false, false
		}
		return 2, true, true
	case b&encStr12Mask == encStr12Prefix:
		if offset+2 > len(buf) {
			return 0, false, false
		}
		n := (int(b&0x0F) << 8) | int(buf[offset+1])
		if offset+2+n > len(buf) {
			return 0, false, false
		}
		return 2 + n, false, true
	case b == encStr32:
		if offset+5 > len(buf) {
			return 0, false, false
		}
		n := int(binary.LittleEndian.Uint32(buf[offset+1:]))
		if n < 0 || offset+5+n > len(buf) {
			return 0, false, false
		}
		return 5 + n, false, true
	case b == encInt16:
		if offset+3 > len(buf) {
			return 0, false, false
		}
		return 3, true, true
	case b == encInt24:
		if offset+4 > len(buf) {
			return 0, false, false
		}
		return 4, true, true
	case b == encInt32:
		if offset+5 > len(buf) {
			return 0, false, false
		}
		return 5, true, true
	case b == encInt64:
		if offset+9 > len(buf) {
			return 0, false, false
		}
		return 9, true, true
	default:
		return 0, false, false
	}
}

// decodeElement decodes the element at offset into a Value. The returned
// Str (if any) borrows buf directly.
func decodeElement(buf []byte, offset, length int) Value {
	b := buf[offset]
	switch {
	case b&encInt7Mask == 0:
		return Value{IsInt: true, Int: int64(b)}
	case b&encStr6Mask == encStr6Prefix:
		return Value{Str: buf[offset+1 : offset+length]}
	case b&encInt13Mask == encInt13Prefix:
		raw := (uint16(b&0x1F) << 8) | uint16(buf[offset+1])
		if raw&0x1000 != 0 {
			return Value{IsInt: true, Int: int64(raw) - 0x2000}
		}
		return Value{IsInt: true, Int: int64(raw)}
	case b&encStr12Mask == encStr12Prefix:
		return Value{Str: buf[offset+2 : offset+length]}
	case b == encStr32:
		return Value{Str: buf[offset+5 : offset+length]}
	case b == encInt16:
		return Value{IsInt: true, Int: int64(int16(binary.LittleEndian.Uint16(buf[offset+1:])))}
	case b == encInt24:
		v := uint32(buf[offset+1]) | uint32(buf[offset+2])<<8 | uint32(buf[offset+3])<<16
		if v&0x800000 != 0 {
			v |= 0xFF000000
		}
		return Value{IsInt: true, Int: int64(int32(v))}
	case b == encInt32:
		return Value{IsInt: true, Int: int64(int32(binary.LittleEndian.Uint32(buf[offset+1:])))}
	case b == encInt64:
		return Value{IsInt: true, Int: int64(binary.LittleEndian.Uint64(buf[offset+1:]))}
	default:
		return Value{}
	}
}
