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

// Package eviction implements the approximated-LRU/LFU/TTL eviction
// engine: sampled pool maintenance, scoring, policy dispatch, and the
// freeIfNeeded admission loop (spec.md §4.4).
package eviction

import "github.com/coredb/coredb/coreerr"

// Policy is the tagged maxmemory-policy value, per spec.md §3.
type Policy uint8

const (
	PolicyNone Policy = iota
	PolicyAllRandom
	PolicyAllLRU
	PolicyAllLFU
	PolicyVolatileRandom
	PolicyVolatileLRU
	PolicyVolatileLFU
	PolicyVolatileTTL
)

func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyAllRandom:
		return "all-random"
	case PolicyAllLRU:
		return "all-lru"
	case PolicyAllLFU:
		return "all-lfu"
	case PolicyVolatileRandom:
		return "volatile-random"
	case PolicyVolatileLRU:
		return "volatile-lru"
	case PolicyVolatileLFU:
		return "volatile-lfu"
	case PolicyVolatileTTL:
		return "volatile-ttl"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a maxmemory-policy directive value onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "none":
		return PolicyNone, nil
	case "all-random":
		return PolicyAllRandom, nil
	case "all-lru":
		return PolicyAllLRU, nil
	case "all-lfu":
		return PolicyAllLFU, nil
	case "volatile-random":
		return PolicyVolatileRandom, nil
	case "volatile-lru":
		return PolicyVolatileLRU, nil
	case "volatile-lfu":
		return PolicyVolatileLFU, nil
	case "volatile-ttl":
		return PolicyVolatileTTL, nil
	default:
		return PolicyNone, coreerr.New("eviction.ParsePolicy", coreerr.MalformedEncoding)
	}
}

// volatile reports whether the policy samples only keys carrying a TTL.
func (p Policy) volatile() bool {
	switch p {
	case PolicyVolatileRandom, PolicyVolatileLRU, PolicyVolatileLFU, PolicyVolatileTTL:
		return true
	default:
		return false
	}
}

// random reports whether the policy picks an arbitrary candidate rather
// than maintaining a scored pool.
func (p Policy) random() bool {
	return p == PolicyAllRandom || p == PolicyVolatileRandom
}

// scoreKind selects which of the three scoring functions the pool uses.
type scoreKind uint8

const (
	scoreLRU scoreKind = iota
	scoreLFU
	scoreTTL
)

func (p Policy) scoreKind() scoreKind {
	switch p {
	case PolicyAllLFU, PolicyVolatileLFU:
		return scoreLFU
	case PolicyVolatileTTL:
		return scoreTTL
	default:
		return scoreLRU
	}
}
