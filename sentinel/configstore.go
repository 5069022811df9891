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
	"strconv"
	"sync"

	"github.com/coredb/coredb/config"
	"github.com/coredb/coredb/coreerr"
	"github.com/coredb/coredb/xlog"
)

// ConfigStore persists the supervisor's observable state mutations
// (epoch advance, vote cast, master address switch, known
// replicas/observers, quorum/timeout changes) via an atomic rewrite of
// the directive file, per spec.md §4.5.9.
type ConfigStore struct {
	mu   sync.Mutex
	file *config.File
	log  xlog.Logger
}

// NewConfigStore wraps an already-loaded directive file.
func NewConfigStore(f *config.File, log xlog.Logger) *ConfigStore {
	return &ConfigStore{file: f, log: log}
}

// persist rewrites the directive file, logging (not failing) on error
// per spec.md §7 "persist-failed is logged at warning level; the
// in-memory state continues to evolve."
func (cs *ConfigStore) persist() {
	if err := cs.file.Rewrite(); err != nil {
		cs.log.Warn("sentinel: config rewrite failed", "err", err)
	}
}

// SetCurrentEpoch persists a newly adopted current-epoch.
func (cs *ConfigStore) SetCurrentEpoch(epoch int64) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.file.Set(config.CurrentEpoch, strconv.FormatInt(epoch, 10))
	cs.persist()
}

// SetConfigEpoch persists a master's newly adopted config-epoch.
func (cs *ConfigStore) SetConfigEpoch(epoch int64) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.file.Set(config.ConfigEpoch, strconv.FormatInt(epoch, 10))
	cs.persist()
}

// SetLeaderEpoch persists the epoch this observer last cast a vote in.
func (cs *ConfigStore) SetLeaderEpoch(epoch int64) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.file.Set(config.LeaderEpoch, strconv.FormatInt(epoch, 10))
	cs.persist()
}

// AddKnownReplica appends a known-replica directive for master/ip/port.
func (cs *ConfigStore) AddKnownReplica(master, ip string, port int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.file.Add(config.KnownReplica, master, ip, strconv.Itoa(port))
	cs.persist()
}

// AddKnownSentinel appends a known-sentinel directive for
// master/ip/port/runid.
func (cs *ConfigStore) AddKnownSentinel(master, ip string, port int, runID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.file.Add(config.KnownSentinel, master, ip, strconv.Itoa(port), runID)
	cs.persist()
}

// SetMasterAddr rewrites the sentinel-monitor directive to the master's
// switched address, per spec.md §4.5.7 "update-config".
func (cs *ConfigStore) SetMasterAddr(name, ip string, port, quorum int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.file.Set(config.SentinelMonitor, name, ip, strconv.Itoa(port), strconv.Itoa(quorum))
	cs.persist()
}

// LoadCurrentEpoch reads the persisted current-epoch, defaulting to 0.
func (cs *ConfigStore) LoadCurrentEpoch() int64 {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	args, ok := cs.file.Get(config.CurrentEpoch)
	if !ok || len(args) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// LoadMyID reads the persisted myid directive, returning not-found if
// none has been generated yet.
func (cs *ConfigStore) LoadMyID() (string, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	args, ok := cs.file.Get(config.MyID)
	if !ok || len(args) == 0 {
		return "", coreerr.New("sentinel.ConfigStore.LoadMyID", coreerr.NotFound)
	}
	return args[0], nil
}

// SetMyID persists the supervisor's stable self-identifier.
func (cs *ConfigStore) SetMyID(id string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.file.Set(config.MyID, id)
	cs.persist()
}
