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
)

func TestIsSDownRoleDemotionRequiresSustainedSlaveRole(t *testing.T) {
	now := time.Now()
	master := &Instance{Kind: KindMaster, LastPong: now}
	master.setRoleReported("slave", now)

	require.False(t, master.isSDown(now, DefaultDownAfter), "must not fire the instant the role flips")
	// Keep pongs fresh so only the role-demotion rule can fire.
	master.touchPong(now.Add(DefaultDownAfter + InfoPeriod))
	require.False(t, master.isSDown(now.Add(DefaultDownAfter+InfoPeriod), DefaultDownAfter),
		"must not fire before downAfter+2*InfoPeriod has elapsed since the role changed")
	master.touchPong(now.Add(DefaultDownAfter + 3*InfoPeriod))
	require.True(t, master.isSDown(now.Add(DefaultDownAfter+3*InfoPeriod), DefaultDownAfter),
		"must fire once the role has stayed slave past downAfter+2*InfoPeriod")
}

func TestIsSDownRoleDemotionResetsWhenRoleReturnsToMaster(t *testing.T) {
	now := time.Now()
	master := &Instance{Kind: KindMaster, LastPong: now}
	master.setRoleReported("slave", now)

	later := now.Add(DefaultDownAfter + 3*InfoPeriod)
	master.setRoleReported("master", later)
	master.touchPong(later)

	require.False(t, master.isSDown(later, DefaultDownAfter),
		"reporting role=master again must clear the demotion timer")
}

func TestSetRoleReportedIgnoresRepeatedSameRole(t *testing.T) {
	now := time.Now()
	in := &Instance{Kind: KindMaster}
	in.setRoleReported("slave", now)

	later := now.Add(time.Minute)
	in.setRoleReported("slave", later)

	in.mu.RLock()
	defer in.mu.RUnlock()
	require.Equal(t, now, in.RoleReportedSince, "since timestamp must not move while the role stays the same")
}
