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

	"github.com/stretchr/testify/require"
)

func TestVoteBoxFirstRequesterWinsPerEpoch(t *testing.T) {
	vb := NewVoteBox()

	leader, ok := vb.Vote(5, "observer-a")
	require.True(t, ok)
	require.Equal(t, "observer-a", leader)

	// A later requester in the same epoch gets back the first vote, not its own.
	leader, ok = vb.Vote(5, "observer-b")
	require.True(t, ok)
	require.Equal(t, "observer-a", leader)

	leader, ok = vb.Vote(5, "observer-a")
	require.True(t, ok)
	require.Equal(t, "observer-a", leader)
}

func TestVoteBoxRejectsStaleEpoch(t *testing.T) {
	vb := NewVoteBox()
	_, _ = vb.Vote(10, "observer-a")

	_, granted := vb.Vote(9, "observer-b")
	require.False(t, granted)
}

func TestElectionWinnerRequiresMajorityAndQuorum(t *testing.T) {
	el := NewElection(1, "self", 2, 3)
	el.RecordVote("self")
	require.False(t, el.Winner(), "one of three votes is not a majority")

	el.RecordVote("self")
	require.True(t, el.Winner(), "two votes clears majority(>1.5) and quorum(2)")
}

func TestElectionIgnoresEmptyAndWildcardVotes(t *testing.T) {
	el := NewElection(1, "self", 1, 2)
	el.RecordVote("")
	el.RecordVote("*")
	require.False(t, el.Winner())
	require.Equal(t, 0, el.VotesFor("self"))
}

func TestElectionQuorumHigherThanMajority(t *testing.T) {
	el := NewElection(1, "self", 3, 3)
	el.RecordVote("self")
	el.RecordVote("self")
	el.RecordVote("self")
	require.True(t, el.Winner())

	el2 := NewElection(1, "self", 3, 3)
	el2.RecordVote("self")
	el2.RecordVote("self")
	require.False(t, el2.Winner(), "two of three is a majority, but quorum requires 3")
}
