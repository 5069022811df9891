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

	"github.com/coredb/coredb/coreerr"
)

// Registry is the round-robin multi-database container spec.md §4.4
// assumes ("a round-robin database") without defining.
type Registry struct {
	mu  sync.Mutex
	dbs []*DB
	rr  int
}

// NewRegistry creates a Registry of n databases, indexed 0..n-1.
func NewRegistry(n int) *Registry {
	dbs := make([]*DB, n)
	for i := range dbs {
		dbs[i] = NewDB(i)
	}
	return &Registry{dbs: dbs}
}

// Count returns the number of databases.
func (r *Registry) Count() int { return len(r.dbs) }

// DB returns the database at index i.
func (r *Registry) DB(i int) (*DB, error) {
	if i < 0 || i >= len(r.dbs) {
		return nil, coreerr.New("dataset.Registry.DB", coreerr.NotFound)
	}
	return r.dbs[i], nil
}

// Next returns the database the round-robin cursor points to and then
// advances the cursor, wrapping at the end. Used by all-random/volatile-random
// victim selection to spread sampling across databases.
func (r *Registry) Next() *DB {
	r.mu.Lock()
	defer r.mu.Unlock()
	db := r.dbs[r.rr]
	r.rr = (r.rr + 1) % len(r.dbs)
	return db
}

// UsedBytes sums the approximate retained memory across all databases.
func (r *Registry) UsedBytes() int64 {
	var total int64
	for _, db := range r.dbs {
		total += db.UsedBytes()
	}
	return total
}
