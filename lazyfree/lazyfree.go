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

// Package lazyfree is the boundary between synchronous deletion and
// background reclamation (spec.md §4.3): DeleteAsync detaches a key from
// its database, updates the expiry index synchronously, and either
// releases the value inline or hands it to a pool of background workers.
package lazyfree

import (
	"container/list"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/coredb/coredb/dataset"
	"github.com/coredb/coredb/xlog"
)

// workThreshold is the "work > 64" cutoff spec.md §4.3 names.
const workThreshold = 64

// Reclaimer owns the background worker pool and the shared FIFO. The
// main data-plane loop must never block on it.
type Reclaimer struct {
	log xlog.Logger

	mu      sync.Mutex
	fifo    *list.List
	signal  chan struct{}
	pending atomic.Int64
	closed  atomic.Bool

	g    *errgroup.Group
	done chan struct{}

	closeOnce sync.Once
}

// job is one queued release: the value object plus, for a list value, the
// owning segment chain is already reachable through it.
type job struct {
	v *dataset.Value
}

// NewReclaimer starts workers background goroutines draining the shared
// FIFO, matching spec.md §5's "pool of background reclamation workers
// owned by LR" and §4.3's "pending-work counter... atomic
// increments/decrements".
func NewReclaimer(workers int, log xlog.Logger) *Reclaimer {
	if workers < 1 {
		workers = 1
	}
	g := &errgroup.Group{}
	r := &Reclaimer{
		log:    log,
		fifo:   list.New(),
		signal: make(chan struct{}, workers),
		done:   make(chan struct{}),
		g:      g,
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			r.runWorker()
			return nil
		})
	}
	return r
}

// DeleteAsync implements the LR contract of spec.md §4.3: detach key from
// db, update the expiry index synchronously, then free the value inline
// or asynchronously depending on its work-to-free estimate and refcount.
func (r *Reclaimer) DeleteAsync(db *dataset.DB, key string) {
	v, ok := db.Delete(key)
	if !ok {
		return
	}
	if v.WorkToFree() > workThreshold && v.RefCount() == 1 {
		r.enqueue(v)
		return
	}
	v.Release()
}

// PendingWork returns the number of objects currently queued for
// background release. The eviction engine polls it after its eviction
// loop, waiting for background release to make progress.
func (r *Reclaimer) PendingWork() int64 { return r.pending.Load() }

func (r *Reclaimer) enqueue(v *dataset.Value) {
	r.mu.Lock()
	r.fifo.PushBack(job{v: v})
	r.mu.Unlock()
	r.pending.Add(1)
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *Reclaimer) dequeue() (job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.fifo.Front()
	if e == nil {
		return job{}, false
	}
	r.fifo.Remove(e)
	return e.Value.(job), true
}

func (r *Reclaimer) runWorker() {
	for {
		j, ok := r.dequeue()
		if !ok {
			if r.closed.Load() {
				return
			}
			select {
			case <-r.done:
			case <-r.signal:
			}
			continue
		}
		j.v.Release()
		r.pending.Add(-1)
		r.log.Debug("lazyfree: released object", "workToFree", j.v.WorkToFree())
	}
}

// Close drains the FIFO and waits for every worker to exit, for a clean
// composition-root shutdown. Items already queued are still released.
func (r *Reclaimer) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.done)
	})
	return r.g.Wait()
}
