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

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestIntegerEncodingScenario(t *testing.T) {
	s := New()
	values := [][]byte{
		[]byte("0"), []byte("-1"), []byte("127"), []byte("-4096"),
		[]byte("2147483647"), []byte("hello"), []byte(strings.Repeat("x", 200)),
	}
	for _, v := range values {
		_, err := s.Append(v)
		require.NoError(t, err)
	}
	require.Equal(t, 7, s.Len())
	require.NoError(t, s.Validate())

	p0, _ := s.Seek(0)
	v0, err := s.Get(p0)
	require.NoError(t, err)
	require.True(t, v0.IsInt)
	require.EqualValues(t, 0, v0.Int)

	p2, _ := s.Seek(2)
	v2, _ := s.Get(p2)
	require.True(t, v2.IsInt)
	require.EqualValues(t, 127, v2.Int)

	p3, _ := s.Seek(3)
	v3, _ := s.Get(p3)
	require.True(t, v3.IsInt)
	require.EqualValues(t, -4096, v3.Int)

	p4, _ := s.Seek(4)
	v4, _ := s.Get(p4)
	require.True(t, v4.IsInt)
	require.EqualValues(t, 2147483647, v4.Int)

	p5, _ := s.Seek(5)
	v5, _ := s.Get(p5)
	require.False(t, v5.IsInt)
	require.Equal(t, "hello", string(v5.Str))

	p6, _ := s.Seek(6)
	v6, _ := s.Get(p6)
	require.False(t, v6.IsInt)
	require.Equal(t, 200, len(v6.Str))

	// Reverse iteration yields the same sequence reversed.
	var forward, backward []string
	for p, ok := s.First(); ok; p, ok = s.Next(p) {
		v, _ := s.Get(p)
		forward = append(forward, valueString(v))
	}
	for p, ok := s.Last(); ok; p, ok = s.Prev(p) {
		v, _ := s.Get(p)
		backward = append(backward, valueString(v))
	}
	require.Equal(t, len(forward), len(backward))
	for i := range forward {
		require.Equal(t, forward[i], backward[len(backward)-1-i])
	}
}

func valueString(v Value) string {
	if v.IsInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return string(v.Str)
}

func TestBackLengthReverseParse(t *testing.T) {
	s := New()
	sizes := []int{100, 200, 300}
	var forwardAddrs []int
	for _, n := range sizes {
		p, err := s.Append([]byte(strings.Repeat("a", n)))
		require.NoError(t, err)
		forwardAddrs = append(forwardAddrs, int(p))
	}
	var reverseAddrs []int
	for p, ok := s.Last(); ok; p, ok = s.Prev(p) {
		reverseAddrs = append(reverseAddrs, int(p))
	}
	require.Equal(t, len(forwardAddrs), len(reverseAddrs))
	for i, a := range forwardAddrs {
		require.Equal(t, a, reverseAddrs[len(reverseAddrs)-1-i])
	}
}

func TestCapacityExceededLeavesBufferUnchanged(t *testing.T) {
	s := New()
	// Craft a buffer sitting exactly at MaxBufferSize, then attempt to grow it.
	s.buf = make([]byte, MaxBufferSize)
	s.setByteLen(MaxBufferSize)
	s.buf[MaxBufferSize-1] = terminator
	before := append([]byte(nil), s.buf...)
	_, err := s.Append([]byte("x"))
	require.Error(t, err)
	require.Equal(t, before, s.buf)
}

func TestRoundTripIntegers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Int64().Draw(t, "v")
		s := New()
		p, err := s.Append([]byte(strconv.FormatInt(v, 10)))
		require.NoError(t, err)
		got, err := s.Get(p)
		require.NoError(t, err)
		require.True(t, got.IsInt)
		require.Equal(t, v, got.Int)
		require.NoError(t, s.Validate())
	})
}

func TestRoundTripStrings(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 5000).Draw(t, "n")
		str := rapid.SliceOfN(rapid.ByteMax(255), n, n).Draw(t, "s")
		// avoid integer-shaped strings so the round trip exercises the string path
		str = append([]byte{'x'}, str...)
		s := New()
		p, err := s.Append(str)
		require.NoError(t, err)
		got, err := s.Get(p)
		require.NoError(t, err)
		require.False(t, got.IsInt)
		require.Equal(t, str, got.Str)
		require.NoError(t, s.Validate())
	})
}

func TestInsertDeleteSequenceInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := New()
		var model []string
		ops := rapid.IntRange(0, 40).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				v := rapid.StringMatching(`[a-zA-Z]{1,20}`).Draw(t, "append")
				_, err := s.Append([]byte(v))
				require.NoError(t, err)
				model = append(model, v)
			case 1:
				if len(model) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(model)-1).Draw(t, "idx")
				p, ok := s.Seek(idx)
				require.True(t, ok)
				_, err := s.Delete(p)
				require.NoError(t, err)
				model = append(model[:idx], model[idx+1:]...)
			case 2:
				if len(model) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(model)-1).Draw(t, "idx")
				v := rapid.StringMatching(`[a-zA-Z]{1,20}`).Draw(t, "replace")
				p, ok := s.Seek(idx)
				require.True(t, ok)
				_, err := s.Replace(p, []byte(v))
				require.NoError(t, err)
				model[idx] = v
			}
			require.NoError(t, s.Validate())
			require.Equal(t, len(model), s.Len())
		}
		i := 0
		for p, ok := s.First(); ok; p, ok = s.Next(p) {
			v, _ := s.Get(p)
			require.Equal(t, model[i], string(v.Str))
			i++
		}
	})
}
