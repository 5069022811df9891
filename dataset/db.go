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

package dataset

import (
	"sync"
	"time"
)

// DB is one database: a main dictionary and an expiry dictionary, the two
// dicts EE's victim selection and LR's synchronous expiry-index update
// operate over (spec.md §4.3, §4.4).
type DB struct {
	mu      sync.RWMutex
	index   int
	dict    map[string]*Value
	expires map[string]int64 // absolute millis

	usedBytes int64
}

// NewDB creates an empty database numbered index.
func NewDB(index int) *DB {
	return &DB{
		index:   index,
		dict:    make(map[string]*Value),
		expires: make(map[string]int64),
	}
}

// Index returns the database's position in its Registry.
func (db *DB) Index() int { return db.index }

// Get returns the value stored at key.
func (db *DB) Get(key string) (*Value, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.dict[key]
	return v, ok
}

// Set stores v at key, replacing and accounting for any prior value.
func (db *DB) Set(key string, v *Value) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if old, ok := db.dict[key]; ok {
		db.usedBytes -= old.SizeBytes()
	}
	db.dict[key] = v
	db.usedBytes += v.SizeBytes()
	if at, ok := v.ExpireAt(); ok {
		db.expires[key] = at.UnixMilli()
	} else {
		delete(db.expires, key)
	}
}

// Delete removes key from both dictionaries, returning the removed value.
func (db *DB) Delete(key string) (*Value, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok := db.dict[key]
	if !ok {
		return nil, false
	}
	db.usedBytes -= v.SizeBytes()
	delete(db.dict, key)
	delete(db.expires, key)
	return v, true
}

// SetExpire attaches a TTL to key, updating both the value and the expiry
// dictionary. It is a no-op if key does not exist.
func (db *DB) SetExpire(key string, at time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok := db.dict[key]
	if !ok {
		return
	}
	v.SetExpireAt(at)
	db.expires[key] = at.UnixMilli()
}

// Persist clears any TTL on key.
func (db *DB) Persist(key string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if v, ok := db.dict[key]; ok {
		v.SetExpireAt(time.Time{})
	}
	delete(db.expires, key)
}

// ExpireAt returns key's absolute expiry time, if any.
func (db *DB) ExpireAt(key string) (time.Time, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	ms, ok := db.expires[key]
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// IsExpired reports whether key's TTL has passed as of now.
func (db *DB) IsExpired(key string, now time.Time) bool {
	at, ok := db.ExpireAt(key)
	return ok && !now.Before(at)
}

// Len returns the number of keys in the main dictionary.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.dict)
}

// ExpiresLen returns the number of keys carrying a TTL.
func (db *DB) ExpiresLen() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.expires)
}

// UsedBytes returns this database's approximate retained memory.
func (db *DB) UsedBytes() int64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.usedBytes
}

// SampleKeys draws up to n keys at random from the main dictionary
// (volatile=false) or the expiry dictionary (volatile=true), for the
// eviction pool refill of spec.md §4.4. Go's map iteration order is
// randomized per-run, which stands in for the source's reservoir sampling.
func (db *DB) SampleKeys(n int, volatile bool) []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]string, 0, n)
	if volatile {
		for k := range db.expires {
			out = append(out, k)
			if len(out) >= n {
				break
			}
		}
		return out
	}
	for k := range db.dict {
		out = append(out, k)
		if len(out) >= n {
			break
		}
	}
	return out
}

// RandomKey returns one key chosen at random from the main dictionary
// (volatile=false) or the expiry dictionary (volatile=true).
func (db *DB) RandomKey(volatile bool) (string, bool) {
	ks := db.SampleKeys(1, volatile)
	if len(ks) == 0 {
		return "", false
	}
	return ks[0], true
}

// Keys returns a snapshot of all keys in the main dictionary.
func (db *DB) Keys() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]string, 0, len(db.dict))
	for k := range db.dict {
		out = append(out, k)
	}
	return out
}
