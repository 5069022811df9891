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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coredb/coredb/xlog"
)

func TestSupervisorMonitorAndLookup(t *testing.T) {
	s := NewSupervisor("self", "10.0.0.9", 26379, DefaultSupervisorConfig(), nil, nil, xlog.NewNop())
	m := s.Monitor("mymaster", "10.0.0.1", 6379, 2)
	require.NotNil(t, m)

	got, ok := s.Master("mymaster")
	require.True(t, ok)
	require.Same(t, m, got)
	require.Len(t, s.Masters(), 1)
}

func TestSweepSDownFlagsStalePong(t *testing.T) {
	s := NewSupervisor("self", "10.0.0.9", 26379, DefaultSupervisorConfig(), nil, nil, xlog.NewNop())
	now := time.Now()
	master := s.Monitor("mymaster", "10.0.0.1", 6379, 2)
	master.mu.Lock()
	master.LastPong = now.Add(-2 * DefaultDownAfter)
	master.mu.Unlock()

	s.sweepSDown(master, now)

	master.mu.RLock()
	defer master.mu.RUnlock()
	require.True(t, master.SDown)
	require.False(t, master.SDownSince.IsZero())
}

func TestEvaluateODownRequiresQuorumOfAgreeingObservers(t *testing.T) {
	s := NewSupervisor("self", "10.0.0.9", 26379, DefaultSupervisorConfig(), nil, nil, xlog.NewNop())
	now := time.Now()
	master := s.Monitor("mymaster", "10.0.0.1", 6379, 2)
	master.mu.Lock()
	master.SDown = true
	master.Observers["obs-1"] = &Instance{Kind: KindObserver, RunID: "obs-1"}
	master.mu.Unlock()

	s.evaluateODown(master, now)
	master.mu.RLock()
	odownBefore := master.ODown
	master.mu.RUnlock()
	require.False(t, odownBefore, "self alone is 1 vote, quorum is 2")

	s.RecordDownVote(master, "obs-1", true)
	s.evaluateODown(master, now)

	master.mu.RLock()
	defer master.mu.RUnlock()
	require.True(t, master.ODown)
}

func TestEvaluateODownClearsWhenMasterNoLongerSDown(t *testing.T) {
	s := NewSupervisor("self", "10.0.0.9", 26379, DefaultSupervisorConfig(), nil, nil, xlog.NewNop())
	master := s.Monitor("mymaster", "10.0.0.1", 6379, 2)

	s.evaluateODown(master, time.Now())
	master.mu.RLock()
	defer master.mu.RUnlock()
	require.False(t, master.ODown)
}

func TestTickSkipsEvaluationWhileTilted(t *testing.T) {
	s := NewSupervisor("self", "10.0.0.9", 26379, DefaultSupervisorConfig(), nil, nil, xlog.NewNop())
	now := time.Now()
	master := s.Monitor("mymaster", "10.0.0.1", 6379, 2)
	master.mu.Lock()
	master.LastPong = now
	master.mu.Unlock()

	s.Tick(now) // establishes lastTick, master healthy

	// The master's pong has gone stale by the time the next tick fires,
	// but that tick also looks like a clock jump - TILT must suspend the
	// SDOWN evaluation that would otherwise fire.
	jumped := now.Add(TiltTrigger * 5)
	master.mu.Lock()
	master.LastPong = jumped.Add(-2 * DefaultDownAfter)
	master.mu.Unlock()
	s.Tick(jumped)

	master.mu.RLock()
	defer master.mu.RUnlock()
	require.False(t, master.SDown, "evaluation must be suspended during TILT")
}

func TestTickRunsSweepWhenNotTilted(t *testing.T) {
	s := NewSupervisor("self", "10.0.0.9", 26379, DefaultSupervisorConfig(), nil, nil, xlog.NewNop())
	now := time.Now()
	master := s.Monitor("mymaster", "10.0.0.1", 6379, 2)
	master.mu.Lock()
	master.LastPong = now.Add(-2 * DefaultDownAfter)
	master.mu.Unlock()

	s.Tick(now)
	s.Tick(now.Add(PingPeriod))

	master.mu.RLock()
	defer master.mu.RUnlock()
	require.True(t, master.SDown)
}

func TestHandleIsMasterDownByAddrReportsOwnSDownVerdict(t *testing.T) {
	s := NewSupervisor("self", "10.0.0.9", 26379, DefaultSupervisorConfig(), nil, nil, xlog.NewNop())
	master := s.Monitor("mymaster", "10.0.0.1", 6379, 2)
	master.mu.Lock()
	master.SDown = true
	master.mu.Unlock()

	down, leader, leaderEpoch := s.HandleIsMasterDownByAddr("10.0.0.1", 6379, 1, "*")
	require.True(t, down)
	require.Equal(t, "*", leader)
	require.Zero(t, leaderEpoch)

	down, _, _ = s.HandleIsMasterDownByAddr("10.0.0.99", 9999, 1, "*")
	require.False(t, down, "an address matching no monitored master is never down")
}

func TestHandleIsMasterDownByAddrGrantsFirstRequesterVotePerEpoch(t *testing.T) {
	s := NewSupervisor("self", "10.0.0.9", 26379, DefaultSupervisorConfig(), nil, nil, xlog.NewNop())
	s.Monitor("mymaster", "10.0.0.1", 6379, 2)

	_, leader, leaderEpoch := s.HandleIsMasterDownByAddr("10.0.0.1", 6379, 7, "observer-a")
	require.Equal(t, "observer-a", leader)
	require.EqualValues(t, 7, leaderEpoch)

	// A second, different requester in the same epoch must not change the vote.
	_, leader, _ = s.HandleIsMasterDownByAddr("10.0.0.1", 6379, 7, "observer-b")
	require.Equal(t, "observer-a", leader, "vote is fixed to the first requester for this epoch")

	// A stale epoch is rejected outright.
	_, leader, _ = s.HandleIsMasterDownByAddr("10.0.0.1", 6379, 6, "observer-c")
	require.Equal(t, "*", leader)
}
