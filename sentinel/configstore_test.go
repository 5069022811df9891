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

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/coredb/coredb/config"
	"github.com/coredb/coredb/xlog"
)

func newTestConfigStore(t *testing.T) (*ConfigStore, afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	path := "/etc/sentinel.conf"
	f, err := config.Load(fs, path)
	require.NoError(t, err)
	return NewConfigStore(f, xlog.NewNop()), fs, path
}

func TestConfigStorePersistsCurrentEpoch(t *testing.T) {
	cs, fs, path := newTestConfigStore(t)
	cs.SetCurrentEpoch(42)

	f2, err := config.Load(fs, path)
	require.NoError(t, err)
	cs2 := NewConfigStore(f2, xlog.NewNop())
	require.EqualValues(t, 42, cs2.LoadCurrentEpoch())
}

func TestConfigStoreSetMasterAddrRewritesMonitorDirective(t *testing.T) {
	cs, fs, path := newTestConfigStore(t)
	cs.SetMasterAddr("mymaster", "10.0.0.9", 6399, 2)

	f2, err := config.Load(fs, path)
	require.NoError(t, err)
	args, ok := f2.Get(config.SentinelMonitor)
	require.True(t, ok)
	require.Equal(t, []string{"mymaster", "10.0.0.9", "6399", "2"}, args)
}

func TestConfigStoreLoadMyIDNotFound(t *testing.T) {
	cs, _, _ := newTestConfigStore(t)
	_, err := cs.LoadMyID()
	require.Error(t, err)
}

func TestConfigStoreSetMyIDRoundTrips(t *testing.T) {
	cs, fs, path := newTestConfigStore(t)
	cs.SetMyID("abc123")

	f2, err := config.Load(fs, path)
	require.NoError(t, err)
	cs2 := NewConfigStore(f2, xlog.NewNop())
	id, err := cs2.LoadMyID()
	require.NoError(t, err)
	require.Equal(t, "abc123", id)
}
