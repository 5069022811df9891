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

package netlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelloRoundTrip(t *testing.T) {
	h := Hello{
		ObserverIP: "10.0.0.1", ObserverPort: 26379, ObserverID: "abc123",
		CurrentEpoch: 7, MasterName: "mymaster", MasterIP: "10.0.0.2",
		MasterPort: 6379, MasterConfigEpoch: 3,
	}
	parsed, err := ParseHello(h.Encode())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestParseHelloRejectsWrongFieldCount(t *testing.T) {
	_, err := ParseHello("a,b,c")
	assert.Error(t, err)
}

func TestIsMasterDownReplyRoundTrip(t *testing.T) {
	r := IsMasterDownReply{Down: true, LeaderRunID: "runid1", LeaderEpoch: 9}
	parsed, err := ParseIsMasterDownReply(EncodeIsMasterDownReply(r))
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}

func TestParseInfo(t *testing.T) {
	body := "run_id:abc\nrole:slave\nmaster_host:10.0.0.2\nmaster_port:6379\n" +
		"master_link_status:up\nslave_priority:100\nslave_repl_offset:1000\n" +
		"slave0:ip=10.0.0.3,port=6380,state=online\n"
	info := ParseInfo(body)
	assert.Equal(t, "abc", info.RunID)
	assert.Equal(t, "slave", info.Role)
	assert.Equal(t, "10.0.0.2", info.MasterHost)
	assert.Equal(t, 6379, info.MasterPort)
	assert.Equal(t, "up", info.MasterLinkStatus)
	assert.Equal(t, 100, info.SlavePriority)
	assert.EqualValues(t, 1000, info.SlaveReplOffset)
	require.Len(t, info.Replicas, 1)
	assert.Equal(t, "10.0.0.3", info.Replicas[0].IP)
	assert.Equal(t, 6380, info.Replicas[0].Port)
}
