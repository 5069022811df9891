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

func TestTiltNotTriggeredByNormalTicks(t *testing.T) {
	tilt := &Tilt{}
	base := time.Now()
	require.False(t, tilt.Tick(base))
	require.False(t, tilt.Tick(base.Add(PingPeriod)))
	require.False(t, tilt.Active(base.Add(PingPeriod)))
}

func TestTiltTriggersOnForwardJump(t *testing.T) {
	tilt := &Tilt{}
	base := time.Now()
	tilt.Tick(base)

	triggered := tilt.Tick(base.Add(TiltTrigger * 2))
	require.True(t, triggered)
	require.True(t, tilt.Active(base.Add(TiltTrigger*2)))
}

func TestTiltTriggersOnBackwardJump(t *testing.T) {
	tilt := &Tilt{}
	base := time.Now()
	tilt.Tick(base)

	triggered := tilt.Tick(base.Add(-time.Second))
	require.True(t, triggered)
}

func TestTiltExpiresAfterPeriod(t *testing.T) {
	tilt := &Tilt{}
	base := time.Now()
	tilt.Tick(base)
	tilt.Tick(base.Add(TiltTrigger * 2))

	require.False(t, tilt.Active(base.Add(TiltTrigger*2+TiltPeriod+time.Second)))
}
