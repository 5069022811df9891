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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLinkReconnectDialsBothConnections(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for i := 0; i < 2; i++ {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			defer c.Close()
		}
	}()

	link := NewLink(ln.Addr().String(), "test")
	require.True(t, link.Ready(time.Now()))

	cmd, pubsub, err := link.Reconnect(time.Now(), func(string) {}, func(string) {}, func(error) {})
	require.NoError(t, err)
	require.NotNil(t, cmd)
	require.NotNil(t, pubsub)
	require.True(t, link.Connected())

	require.NoError(t, link.Close())
}

func TestLinkRecordFailureGatesNextAttempt(t *testing.T) {
	link := NewLink("127.0.0.1:1", "test") // nothing listening
	now := time.Now()

	_, _, err := link.Reconnect(now, func(string) {}, func(string) {}, func(error) {})
	require.Error(t, err)
	require.False(t, link.Ready(now), "a failed attempt must gate the next try by at least PingPeriod")
	require.True(t, link.Ready(now.Add(PingPeriod*2)))
}
