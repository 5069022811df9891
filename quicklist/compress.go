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

import "github.com/klauspost/compress/s2"

// minCompressSize: segments smaller than this are never compressed.
const minCompressSize = 48

// minCompressGain: compression is discarded unless it shrinks the segment
// by at least this many bytes.
const minCompressGain = 8

// compressor is the interior-segment codec. SPEC_FULL.md §4.2 explains why
// klauspost/compress/s2 (a direct teacher dependency) fills the role the
// spec describes as "LZF" — no LZF implementation exists anywhere in the
// retrieved example pack, and s2 is a real dependency serving the same
// single-shot block-codec role.
type compressor interface {
	// compress returns the compressed form and true if it is worth
	// keeping (shrinks by at least minCompressGain bytes).
	compress(raw []byte) ([]byte, bool)
	decompress(compressed []byte, rawSize int) ([]byte, error)
}

type s2Compressor struct{}

func (s2Compressor) compress(raw []byte) ([]byte, bool) {
	if len(raw) < minCompressSize {
		return nil, false
	}
	out := s2.Encode(nil, raw)
	if len(raw)-len(out) < minCompressGain {
		return nil, false
	}
	return out, true
}

func (s2Compressor) decompress(compressed []byte, rawSize int) ([]byte, error) {
	out := make([]byte, 0, rawSize)
	return s2.Decode(out, compressed)
}

var defaultCompressor compressor = s2Compressor{}
