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

package eviction

// poolCap is the fixed eviction pool size spec.md §3 names.
const poolCap = 16

// poolEntry is one candidate: a database index, a sampled key, and the
// score it was inserted under. The "inline small-key cache" spec.md
// mentions is the key string itself — Go strings are already immutable
// and allocation-cheap for short keys, so no separate buffer is kept.
type poolEntry struct {
	db    int
	key   string
	score uint64
	seq   int64 // insertion order; ties are ordered by consider, which puts a new entry before existing equal-score entries
}

// pool is the ascending-by-score candidate table. Entries are unique by
// (db, key); size never exceeds poolCap.
type pool struct {
	entries []poolEntry
	nextSeq int64
}

func newPool() *pool {
	return &pool{entries: make([]poolEntry, 0, poolCap)}
}

// consider inserts (db, key, score) at its ascending position, evicting
// the lowest-scored entry if the pool is full and the candidate beats it,
// per spec.md §4.4 "insert into the pool at the correct position to keep
// it ascending; drop the lowest if the pool is full and the candidate is
// better."
func (p *pool) consider(db int, key string, score uint64) {
	for _, e := range p.entries {
		if e.db == db && e.key == key {
			return
		}
	}
	if len(p.entries) >= poolCap {
		if score <= p.entries[0].score {
			return
		}
		p.entries = p.entries[1:]
	}
	p.nextSeq++
	e := poolEntry{db: db, key: key, score: score, seq: p.nextSeq}
	i := 0
	for i < len(p.entries) && p.entries[i].score < e.score {
		i++
	}
	p.entries = append(p.entries, poolEntry{})
	copy(p.entries[i+1:], p.entries[i:])
	p.entries[i] = e
}

// drainTail removes and returns the highest-scored entry, or false if the
// pool is empty.
func (p *pool) drainTail() (poolEntry, bool) {
	if len(p.entries) == 0 {
		return poolEntry{}, false
	}
	last := len(p.entries) - 1
	e := p.entries[last]
	p.entries = p.entries[:last]
	return e, true
}

func (p *pool) len() int { return len(p.entries) }
