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

package sentinel

import (
	"sync"
	"time"
)

// Tilt guards the supervisor against clock jumps and long blocking
// stalls, per spec.md §4.5.8: if the delta since the previous tick is
// negative or exceeds TiltTrigger, enter TILT for TiltPeriod, during
// which only information collection happens — no SDOWN/ODOWN transition,
// no failover start.
type Tilt struct {
	mu        sync.Mutex
	lastTick  time.Time
	enteredAt time.Time
}

// Tick records a new tick at now and reports whether TILT mode engaged
// this tick (i.e. the tick just triggered entry, not merely that TILT is
// still active from an earlier tick — callers use Active for that).
func (t *Tilt) Tick(now time.Time) (triggered bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.lastTick.IsZero() {
		delta := now.Sub(t.lastTick)
		if delta < 0 || delta > TiltTrigger {
			t.enteredAt = now
			triggered = true
		}
	}
	t.lastTick = now
	return triggered
}

// Active reports whether the supervisor is still within a TILT window.
func (t *Tilt) Active(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enteredAt.IsZero() {
		return false
	}
	return now.Sub(t.enteredAt) < TiltPeriod
}
