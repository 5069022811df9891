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

import "sync"

// VoteBox tracks this observer's cast votes across epochs, enforcing
// spec.md §4.5.6: "a peer votes for the first requester it sees in an
// epoch >= its current vote epoch; it cannot change its vote within an
// epoch."
type VoteBox struct {
	mu       sync.Mutex
	votes    map[int64]string // epoch -> voted-for runid
	maxEpoch int64
}

// NewVoteBox creates an empty ballot box.
func NewVoteBox() *VoteBox {
	return &VoteBox{votes: make(map[int64]string)}
}

// Vote returns the runid this observer votes for in epoch, recording the
// first requester seen for that epoch and refusing to change it
// thereafter. Epochs below the highest epoch ever voted in are rejected
// outright (the rule is stated as ">= its current vote epoch").
func (vb *VoteBox) Vote(epoch int64, requester string) (string, bool) {
	vb.mu.Lock()
	defer vb.mu.Unlock()
	if epoch < vb.maxEpoch {
		return "", false
	}
	if v, ok := vb.votes[epoch]; ok {
		return v, true
	}
	vb.votes[epoch] = requester
	vb.maxEpoch = epoch
	return requester, true
}

// Election is one in-progress leader election attempt for a single
// epoch, per spec.md §4.5.6.
type Election struct {
	Epoch      int64
	SelfID     string
	Quorum     int
	KnownCount int // observers ∪ {self}
	votesFor   map[string]int
	votesTotal int
}

// NewElection starts tracking an election for epoch, requiring a simple
// majority of knownCount and at least quorum votes to win.
func NewElection(epoch int64, selfID string, quorum, knownCount int) *Election {
	return &Election{
		Epoch:      epoch,
		SelfID:     selfID,
		Quorum:     quorum,
		KnownCount: knownCount,
		votesFor:   make(map[string]int),
	}
}

// RecordVote tallies a peer's reported leader-runid for this epoch.
func (e *Election) RecordVote(leaderRunID string) {
	if leaderRunID == "" || leaderRunID == "*" {
		return
	}
	e.votesFor[leaderRunID]++
	e.votesTotal++
}

// Winner reports whether selfID has won: strictly more than half of
// KnownCount votes, and at least Quorum votes, per spec.md §4.5.6.
func (e *Election) Winner() bool {
	votes := e.votesFor[e.SelfID]
	return votes*2 > e.KnownCount && votes >= e.Quorum
}

// VotesFor returns the current vote count for runid.
func (e *Election) VotesFor(runID string) int { return e.votesFor[runID] }
