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

import (
	"time"

	"github.com/coredb/coredb/coreerr"
	"github.com/coredb/coredb/dataset"
	"github.com/coredb/coredb/lazyfree"
	"github.com/coredb/coredb/notify"
	"github.com/coredb/coredb/xlog"
)

// asyncRecheckEvery is the "every 16 async evictions" rule of spec.md §4.4.
const asyncRecheckEvery = 16

// Engine is the admission-trigger entry point: freeIfNeeded is called
// before executing a write command, per spec.md §4.4.
type Engine struct {
	Config    *Config
	Guards    *Guards
	Registry  *dataset.Registry
	Stats     *dataset.MemoryStats
	Reclaimer *lazyfree.Reclaimer
	Publisher notify.Publisher
	Log       xlog.Logger
}

// NewEngine wires the eviction engine to the collaborators it consults.
func NewEngine(cfg *Config, registry *dataset.Registry, stats *dataset.MemoryStats, reclaimer *lazyfree.Reclaimer, pub notify.Publisher, log xlog.Logger) *Engine {
	return &Engine{
		Config:    cfg,
		Guards:    &Guards{},
		Registry:  registry,
		Stats:     stats,
		Reclaimer: reclaimer,
		Publisher: pub,
		Log:       log,
	}
}

// FreeIfNeeded is the admission-trigger loop of spec.md §4.4: compute
// logical used memory, and if over the configured cap, evict victims
// until back under target or no candidates remain.
func (e *Engine) FreeIfNeeded() error {
	if e.Guards.blocked() {
		return nil
	}

	logical := e.Stats.Logical()
	memCap := e.Config.MaxMemory()
	if memCap == 0 || logical <= memCap {
		return nil
	}

	policy := e.Config.Policy()
	if policy == PolicyNone {
		return coreerr.New("eviction.FreeIfNeeded", coreerr.CapacityExceeded)
	}

	target := logical - memCap
	var freed int64
	var asyncCount int

	for freed < target {
		db, key, ok := e.selectVictim(policy)
		if !ok {
			break
		}

		v, ok := db.Get(key)
		if !ok {
			continue // ghost: sampled but already gone
		}
		size := v.SizeBytes()

		async := e.Config.LazyFreeOnEviction()
		if async {
			e.Reclaimer.DeleteAsync(db, key)
			asyncCount++
		} else {
			db.Delete(key)
		}
		freed += size

		e.Publisher.Publish(notify.KeyeventChannel(db.Index(), "evicted"), key)
		e.Log.Debug("eviction: evicted key", "db", db.Index(), "key", key, "bytes", size, "async", async)

		if async && asyncCount%asyncRecheckEvery == 0 {
			if e.Stats.Logical() <= memCap {
				return nil
			}
		}
	}

	if freed >= target {
		return nil
	}

	// No more candidates: give the background reclaimer a brief chance to
	// catch up, per spec.md §4.4 "polling a 1 ms sleep".
	for i := 0; i < 100 && e.Reclaimer.PendingWork() > 0; i++ {
		time.Sleep(time.Millisecond)
		if e.Stats.Logical() <= memCap {
			return nil
		}
	}
	return coreerr.New("eviction.FreeIfNeeded", coreerr.CapacityExceeded)
}

// selectVictim picks one candidate key per the policy's victim-selection
// rule (spec.md §4.4).
func (e *Engine) selectVictim(p Policy) (*dataset.DB, string, bool) {
	if p.random() {
		db := e.Registry.Next()
		key, ok := db.RandomKey(p.volatile())
		return db, key, ok
	}
	return e.refillAndDrain(p)
}

// refillAndDrain samples maxmemory-samples keys from every database into
// the scored pool, then drains the tail for the first key that still
// exists, per spec.md §4.4's LRU/LFU/TTL selection rule.
func (e *Engine) refillAndDrain(p Policy) (*dataset.DB, string, bool) {
	pl := newPool()
	samples := e.Config.Samples()
	decay := e.Config.LFUDecayTime()
	now := time.Now()

	for i := 0; i < e.Registry.Count(); i++ {
		db, err := e.Registry.DB(i)
		if err != nil {
			continue
		}
		for _, key := range db.SampleKeys(samples, p.volatile()) {
			v, ok := db.Get(key)
			if !ok {
				continue
			}
			pl.consider(db.Index(), key, e.score(p, v, now, decay))
		}
	}

	for {
		entry, ok := pl.drainTail()
		if !ok {
			return nil, "", false
		}
		db, err := e.Registry.DB(entry.db)
		if err != nil {
			continue
		}
		if _, ok := db.Get(entry.key); !ok {
			continue // ghost
		}
		return db, entry.key, true
	}
}

func (e *Engine) score(p Policy, v *dataset.Value, now time.Time, decay int) uint64 {
	switch p.scoreKind() {
	case scoreLFU:
		return lfuScore(v, now, decay)
	case scoreTTL:
		return ttlScore(v)
	default:
		return lruScore(v, now)
	}
}
