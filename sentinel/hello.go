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
	"time"

	"github.com/coredb/coredb/netlink"
)

// BuildHello renders this observer's hello payload for master, per
// spec.md §4.5.3.
func BuildHello(selfIP string, selfPort int, selfID string, currentEpoch int64, master *Instance) netlink.Hello {
	master.mu.RLock()
	defer master.mu.RUnlock()
	return netlink.Hello{
		ObserverIP:        selfIP,
		ObserverPort:      selfPort,
		ObserverID:        selfID,
		CurrentEpoch:      currentEpoch,
		MasterName:        master.Name,
		MasterIP:          master.IP,
		MasterPort:        master.Port,
		MasterConfigEpoch: master.ConfigEpoch,
	}
}

// ReconfigHook is invoked when a master's address changes via hello
// processing, letting the composition root notify clients
// (client-reconfig-script), per spec.md §4.5.4.
type ReconfigHook func(master *Instance, oldIP string, oldPort int)

// ProcessHello applies spec.md §4.5.4's hello-message processing rule to
// an incoming hello about master. selfCurrentEpoch is updated in place
// when the peer's epoch is newer; cs persists epoch adoptions and address
// switches.
func ProcessHello(master *Instance, h netlink.Hello, now time.Time, selfCurrentEpoch *int64, cs *ConfigStore, hook ReconfigHook) {
	master.mu.Lock()

	if obs, known := master.Observers[h.ObserverID]; known {
		obs.mu.Lock()
		obs.LastHello = now
		obs.mu.Unlock()
	} else {
		for _, obs := range master.Observers {
			obs.mu.Lock()
			sameAddr := obs.IP == h.ObserverIP && obs.Port == h.ObserverPort && obs.RunID != h.ObserverID
			if sameAddr {
				obs.Port = 0 // invalidate: port = 0 marker, per spec.md §4.5.4
			}
			obs.mu.Unlock()
		}
		newObs := &Instance{Kind: KindObserver, RunID: h.ObserverID, IP: h.ObserverIP, Port: h.ObserverPort, LastHello: now}
		master.Observers[h.ObserverID] = newObs
	}

	addrChanged := master.IP != h.MasterIP || master.Port != h.MasterPort
	oldIP, oldPort := master.IP, master.Port
	configEpochNewer := h.MasterConfigEpoch > master.ConfigEpoch

	master.mu.Unlock()

	if h.CurrentEpoch > *selfCurrentEpoch {
		*selfCurrentEpoch = h.CurrentEpoch
		if cs != nil {
			cs.SetCurrentEpoch(h.CurrentEpoch)
		}
	}

	if configEpochNewer && addrChanged {
		master.mu.Lock()
		master.ConfigEpoch = h.MasterConfigEpoch
		master.IP, master.Port = h.MasterIP, h.MasterPort
		resetMasterLocked(master)
		name, quorum := master.Name, master.Quorum
		master.mu.Unlock()
		if cs != nil {
			cs.SetConfigEpoch(h.MasterConfigEpoch)
			cs.SetMasterAddr(name, h.MasterIP, h.MasterPort, quorum)
		}
		if hook != nil {
			hook(master, oldIP, oldPort)
		}
	}
}

// resetMasterLocked clears a master's reported and failure-detection
// state while preserving its Observers set, per spec.md §4.5.4 "reset the
// master (preserving the observers set)". Caller must hold master.mu.
func resetMasterLocked(master *Instance) {
	master.RunID = ""
	master.RoleReported = ""
	master.RoleReportedSince = time.Time{}
	master.MasterLinkStatus = ""
	master.Priority = 0
	master.ReplOffset = 0
	master.SDown = false
	master.SDownSince = time.Time{}
	master.ODown = false
	master.Replicas = make(map[string]*Instance)
	master.Failover = nil
}
