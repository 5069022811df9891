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
	"time"

	"github.com/coredb/coredb/netlink"
)

// Kind tags an Instance's role in the topology.
type Kind uint8

const (
	KindMaster Kind = iota
	KindReplica
	KindObserver
)

// FailoverState is the master-instance failover state machine's current
// state, per spec.md §4.5.7.
type FailoverState uint8

const (
	StateNone FailoverState = iota
	StateWaitStart
	StateSelectReplica
	StateSendPromote
	StateWaitPromotion
	StateReconfReplicas
	StateUpdateConfig
)

// Instance is one observed entity: a master, replica, or observer. A
// master owns a Replicas set and an Observers set, per spec.md §4.5.1.
type Instance struct {
	mu sync.RWMutex

	Kind  Kind
	Name  string // master name; empty for replicas/observers
	RunID string
	IP    string
	Port  int

	// Link state.
	CmdLink    *netlink.Conn
	PubSubLink *netlink.Conn
	LastPong   time.Time
	LastInfo   time.Time
	LastHello  time.Time

	// INFO-reported state.
	RoleReported      string // "master" or "slave", as last reported by INFO
	RoleReportedSince time.Time
	MasterHost        string
	MasterPort        int
	MasterLinkStatus  string
	MasterLinkDown    time.Time
	Priority          int
	ReplOffset        int64

	// Failure-detection state.
	SDown      bool
	SDownSince time.Time
	ODown      bool
	downVote   bool // this observer's reply to the last is-master-down-by-addr query, when Kind == KindObserver

	// Master-only: topology and failover state.
	Replicas    map[string]*Instance // keyed by runid
	Observers   map[string]*Instance // keyed by runid
	ConfigEpoch int64
	Quorum      int

	Failover *FailoverRun
}

// NewMasterInstance creates a master Instance ready for monitoring, from
// a "sentinel monitor <name> <host> <port> <quorum>" directive.
func NewMasterInstance(name, ip string, port, quorum int) *Instance {
	return &Instance{
		Kind:      KindMaster,
		Name:      name,
		IP:        ip,
		Port:      port,
		Quorum:    quorum,
		Replicas:  make(map[string]*Instance),
		Observers: make(map[string]*Instance),
	}
}

// Addr returns the "ip:port" address of the instance.
func (in *Instance) Addr() string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.IP + ":" + strconv.Itoa(in.Port)
}

// SetAddr switches the instance's advertised address. Used by hello
// processing (§4.5.4) and by update-config (§4.5.7).
func (in *Instance) SetAddr(ip string, port int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.IP, in.Port = ip, port
}

// touchPong records a freshly received valid PING reply.
func (in *Instance) touchPong(now time.Time) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.LastPong = now
}

// setRoleReported records the role last seen in an INFO reply, tracking
// since when that role has held so isSDown can measure how long a role
// demotion has persisted rather than just INFO freshness.
func (in *Instance) setRoleReported(role string, now time.Time) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.RoleReported != role {
		in.RoleReported = role
		in.RoleReportedSince = now
	}
}

// isSDown evaluates spec.md §4.5.5's subjective-down rule: elapsed time
// since the last valid pong exceeds downAfter, or the instance is
// believed a master but has been reporting role=replica for longer than
// downAfter + 2*InfoPeriod.
func (in *Instance) isSDown(now time.Time, downAfter time.Duration) bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if !in.LastPong.IsZero() && now.Sub(in.LastPong) > downAfter {
		return true
	}
	if in.Kind == KindMaster && in.RoleReported == "slave" {
		if !in.RoleReportedSince.IsZero() && now.Sub(in.RoleReportedSince) > downAfter+2*InfoPeriod {
			return true
		}
	}
	return false
}
