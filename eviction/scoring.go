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
	"math/rand"
	"time"

	"github.com/coredb/coredb/dataset"
)

// idleClockMask limits the LRU clock to 24 bits of 1-second ticks, per spec.md §4.4's "coarse clock (resolution 1
// second, 24-bit wraparound)".
const idleClockMask = 1<<24 - 1

// lruScore is idle milliseconds, coarsened to 1-second resolution and
// wrapped to 24 bits.
func lruScore(v *dataset.Value, now time.Time) uint64 {
	seconds := v.IdleMillis(now) / 1000
	return (uint64(seconds) & idleClockMask) * 1000
}

// lfuScore is 255 minus the decayed access counter: the least-frequently
// used key sorts highest (best eviction candidate), per spec.md §4.4.
func lfuScore(v *dataset.Value, now time.Time, decayMinutes int) uint64 {
	minutes, counter := v.LFUField()
	counter = decayLFU(minutes, counter, now, decayMinutes)
	return uint64(255 - counter)
}

// decayLFU applies spec.md §4.4's "periods = elapsed-minutes / decay-time;
// new counter = max(0, counter − periods)" read-time decay. decayMinutes
// <= 0 disables decay entirely.
func decayLFU(lastMinutes uint16, counter uint8, now time.Time, decayMinutes int) uint8 {
	if decayMinutes <= 0 {
		return counter
	}
	nowMinutes := uint16(now.Unix() / 60)
	elapsed := int(nowMinutes - lastMinutes) // wraps naturally, both 16-bit
	if elapsed < 0 {
		elapsed = 0
	}
	periods := elapsed / decayMinutes
	if periods <= 0 {
		return counter
	}
	if periods >= int(counter) {
		return 0
	}
	return counter - uint8(periods)
}

// lfuInitVal is the starting counter value for a freshly created object,
// per spec.md §3 "typically 5".
const lfuInitVal = 5

// lfuIncrement applies the probabilistic counter bump spec.md §4.4
// describes: with probability 1 / ((counter - init-val) * logFactor + 1),
// saturating at 255.
func lfuIncrement(counter uint8, logFactor int) uint8 {
	if counter == 255 {
		return counter
	}
	if logFactor < 1 {
		logFactor = 1
	}
	base := float64(counter) - lfuInitVal
	if base < 0 {
		base = 0
	}
	p := 1.0 / (base*float64(logFactor) + 1.0)
	if rand.Float64() < p {
		return counter + 1
	}
	return counter
}

// ttlScore is UINT64_MAX minus the absolute expiry time in millis, so the
// soonest-to-expire key sorts highest, per spec.md §4.4. Keys with no TTL
// never enter a volatile-ttl pool (callers only sample the expiry dict).
func ttlScore(v *dataset.Value) uint64 {
	at, ok := v.ExpireAt()
	if !ok {
		return 0
	}
	return ^uint64(0) - uint64(at.UnixMilli())
}
