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
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestFillThreeSplitAndMerge exercises the spec's fill=3 scenario: push six
// elements at the tail of a list with fill 3, producing two full segments,
// then delete from the middle and observe the merge policy fire.
func TestFillThreeSplitAndMerge(t *testing.T) {
	l := New(3, 0)
	for i := 0; i < 6; i++ {
		require.NoError(t, l.PushTail([]byte(strconv.Itoa(i))))
	}
	assert.Equal(t, 6, l.Count())
	assert.Equal(t, 2, l.SegmentCount())

	for i := 0; i < 6; i++ {
		v, ok := l.Get(i)
		require.True(t, ok)
		assert.Equal(t, int64(i), v.Int)
	}

	// Delete the middle four elements; the two single-element remainders
	// should merge back into one segment.
	require.NoError(t, l.DeleteRange(1, 4))
	assert.Equal(t, 2, l.Count())
	assert.Equal(t, 1, l.SegmentCount())
	v0, _ := l.Get(0)
	v1, _ := l.Get(1)
	assert.Equal(t, int64(0), v0.Int)
	assert.Equal(t, int64(5), v1.Int)
}

func TestPushPopRotate(t *testing.T) {
	l := New(4, 0)
	require.NoError(t, l.PushTail([]byte("a")))
	require.NoError(t, l.PushTail([]byte("b")))
	require.NoError(t, l.PushHead([]byte("z")))
	assert.Equal(t, 3, l.Count())

	v, ok := l.PopHead()
	require.True(t, ok)
	assert.Equal(t, "z", string(v))

	assert.True(t, l.Rotate())
	v0, _ := l.Get(0)
	assert.Equal(t, "b", string(v0.Str))

	v, ok = l.PopTail()
	require.True(t, ok)
	assert.Equal(t, "a", string(v))
}

func TestInsertAfterAtSegmentEnd(t *testing.T) {
	l := New(2, 0)
	for _, s := range []string{"a", "b", "c", "d"} {
		require.NoError(t, l.PushTail([]byte(s)))
	}
	pos, ok := l.Index(1) // "b"
	require.True(t, ok)
	require.NoError(t, l.InsertAfter(pos, []byte("x")))

	got := make([]string, 0, l.Count())
	it := l.IteratorForward()
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, string(v.Str))
	}
	assert.Equal(t, []string{"a", "b", "x", "c", "d"}, got)
}

func TestIteratorForwardReverseSymmetry(t *testing.T) {
	l := New(2, 0)
	for i := 0; i < 9; i++ {
		require.NoError(t, l.PushTail([]byte(fmt.Sprintf("v%d", i))))
	}
	var fwd []string
	itf := l.IteratorForward()
	for {
		v, ok := itf.Next()
		if !ok {
			break
		}
		fwd = append(fwd, string(v.Str))
	}
	var rev []string
	itr := l.IteratorReverse()
	for {
		v, ok := itr.Next()
		if !ok {
			break
		}
		rev = append(rev, string(v.Str))
	}
	require.Equal(t, len(fwd), len(rev))
	for i := range fwd {
		assert.Equal(t, fwd[i], rev[len(rev)-1-i])
	}
}

func TestIteratorDeleteCurrent(t *testing.T) {
	l := New(2, 0)
	for i := 0; i < 6; i++ {
		require.NoError(t, l.PushTail([]byte(strconv.Itoa(i))))
	}
	it := l.IteratorForward()
	var kept []string
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		if v.Int%2 == 0 {
			require.NoError(t, it.DeleteCurrent())
			continue
		}
		kept = append(kept, valueOf2(v.Int))
	}
	assert.Equal(t, []string{"1", "3", "5"}, kept)
	assert.Equal(t, 3, l.Count())
}

func valueOf2(i int64) string { return strconv.FormatInt(i, 10) }

func TestBookmarkSurvivesDeletesInOtherSegment(t *testing.T) {
	l := New(2, 0)
	for i := 0; i < 4; i++ {
		require.NoError(t, l.PushTail([]byte(strconv.Itoa(i))))
	}
	pos, ok := l.Index(2)
	require.True(t, ok)
	require.NoError(t, l.SetBookmark("mid", pos))

	require.NoError(t, l.DeleteAtIndex(0))
	require.NoError(t, l.DeleteAtIndex(0))

	bp, ok := l.FindBookmark("mid")
	require.True(t, ok)
	v, err := bp.n.open().Get(bp.p)
	require.NoError(t, err)
	assert.True(t, v.Int == 2 || v.Int == 3)
}

func TestBookmarkCapacity(t *testing.T) {
	l := New(4, 0)
	require.NoError(t, l.PushTail([]byte("only")))
	pos, _ := l.Index(0)
	for i := 0; i < maxBookmarks; i++ {
		require.NoError(t, l.SetBookmark(fmt.Sprintf("b%d", i), pos))
	}
	err := l.SetBookmark("overflow", pos)
	assert.Error(t, err)
}

func TestDuplicateIsIndependent(t *testing.T) {
	l := New(2, 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.PushTail([]byte(strconv.Itoa(i))))
	}
	dup := l.Duplicate()
	require.NoError(t, dup.ReplaceAtIndex(0, []byte("changed")))

	v0, _ := l.Get(0)
	assert.Equal(t, int64(0), v0.Int)
	d0, _ := dup.Get(0)
	assert.Equal(t, "changed", string(d0.Str))
}

// TestStructuralInvariants runs a rapid model test of push and pop
// operations at both ends, checking list-level invariants after each step:
// element count matches the sum of segment counts, the node chain's ends
// are properly nil-terminated, and the plain-slice model matches the
// list's observable contents.
func TestStructuralInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fill := rapid.SampledFrom([]int{-2, -1, 2, 3, 5}).Draw(t, "fill")
		l := New(fill, 1)
		var model []string

		numOps := rapid.IntRange(1, 40).Draw(t, "numOps")
		for i := 0; i < numOps; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				s := rapid.StringMatching(`[a-zA-Z]{1,6}`).Draw(t, "pushTailVal")
				require.NoError(t, l.PushTail([]byte("s" + s)))
				model = append(model, "s"+s)
			case 1:
				s := rapid.StringMatching(`[a-zA-Z]{1,6}`).Draw(t, "pushHeadVal")
				require.NoError(t, l.PushHead([]byte("s" + s)))
				model = append([]string{"s" + s}, model...)
			case 2:
				if len(model) == 0 {
					continue
				}
				v, ok := l.PopTail()
				require.True(t, ok)
				assert.Equal(t, model[len(model)-1], string(v))
				model = model[:len(model)-1]
			case 3:
				if len(model) == 0 {
					continue
				}
				v, ok := l.PopHead()
				require.True(t, ok)
				assert.Equal(t, model[0], string(v))
				model = model[1:]
			}

			assertChainInvariants(t, l)
			require.Equal(t, len(model), l.Count())
		}

		for i, want := range model {
			v, ok := l.Get(i)
			require.True(t, ok)
			assert.Equal(t, want, string(v.Str))
		}
	})
}

func assertChainInvariants(t *rapid.T, l *List) {
	if l.head == nil {
		require.Nil(t, l.tail)
		require.Equal(t, 0, l.Count())
		return
	}
	require.Nil(t, l.head.prev)
	require.Nil(t, l.tail.next)
	sum := 0
	segs := 0
	for n := l.head; n != nil; n = n.next {
		sum += n.count
		segs++
		require.NoError(t, n.open().Validate())
	}
	require.Equal(t, l.Count(), sum)
	require.Equal(t, l.SegmentCount(), segs)
}
