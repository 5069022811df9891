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

package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/coredb/coredb/config"
	"github.com/coredb/coredb/eviction"
	"github.com/coredb/coredb/notify"
	"github.com/coredb/coredb/xlog"
)

func TestLoadEvictionConfigAppliesDirectives(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/etc/coredbd.conf"
	require.NoError(t, afero.WriteFile(fs, path, []byte(
		"maxmemory 1048576\n"+
			"maxmemory-policy all-lru\n"+
			"maxmemory-samples 8\n"+
			"lfu-log-factor 20\n"+
			"lfu-decay-time 2\n"+
			"lazyfree-lazy-eviction yes\n"), 0o644))

	file, err := config.Load(fs, path)
	require.NoError(t, err)

	cfg := loadEvictionConfig(file)
	require.EqualValues(t, 1048576, cfg.MaxMemory())
	require.Equal(t, eviction.PolicyAllLRU, cfg.Policy())
	require.Equal(t, 8, cfg.Samples())
	require.Equal(t, 20, cfg.LFULogFactor())
	require.Equal(t, 2, cfg.LFUDecayTime())
	require.True(t, cfg.LazyFreeOnEviction())
}

func TestLoadEvictionConfigDefaultsWhenDirectivesAbsent(t *testing.T) {
	file, err := config.Load(afero.NewMemMapFs(), "/etc/coredbd.conf")
	require.NoError(t, err)

	cfg := loadEvictionConfig(file)
	require.EqualValues(t, 0, cfg.MaxMemory())
	require.Equal(t, eviction.PolicyNone, cfg.Policy())
}

func TestNewSupervisorFromConfigWiresMonitoredMasters(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/etc/coredbd.conf"
	require.NoError(t, afero.WriteFile(fs, path, []byte(
		"sentinel monitor mymaster 10.0.0.1 6379 2\n"+
			"down-after-milliseconds 5000\n"+
			"parallel-syncs 3\n"), 0o644))

	file, err := config.Load(fs, path)
	require.NoError(t, err)

	sup, err := newSupervisorFromConfig(file, notify.NewBroker(), xlog.NewNop())
	require.NoError(t, err)

	m, ok := sup.Master("mymaster")
	require.True(t, ok)
	require.Equal(t, "10.0.0.1", m.Addr()[:8])
}
