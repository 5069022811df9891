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

// MemoryStats feeds the eviction engine's freeIfNeeded computation:
// logical = used − replica-output-buffers − AOF-buffers, per spec.md §4.4.
type MemoryStats struct {
	Registry             *Registry
	ReplicaOutputBuffers int64
	AOFBuffers           int64
}

// NewMemoryStats binds a MemoryStats to the registry it accounts.
func NewMemoryStats(r *Registry) *MemoryStats {
	return &MemoryStats{Registry: r}
}

// Used returns the raw summed retained memory across all databases.
func (m *MemoryStats) Used() int64 { return m.Registry.UsedBytes() }

// Logical returns used memory minus the overhead buffers that should not
// count against the eviction cap.
func (m *MemoryStats) Logical() int64 {
	l := m.Used() - m.ReplicaOutputBuffers - m.AOFBuffers
	if l < 0 {
		return 0
	}
	return l
}
