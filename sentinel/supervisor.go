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

	"github.com/coredb/coredb/notify"
	"github.com/coredb/coredb/xlog"
)

// SupervisorConfig holds the directive-driven knobs a tick loop needs
// beyond what's already captured per-Instance, per spec.md §4.5.9.
type SupervisorConfig struct {
	DownAfter       time.Duration
	FailoverTimeout time.Duration
	ParallelSyncs   int
}

// DefaultSupervisorConfig mirrors spec.md §4.5.9's stated defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		DownAfter:       DefaultDownAfter,
		FailoverTimeout: FailoverTimeout,
		ParallelSyncs:   1,
	}
}

// Supervisor ties together the address book, failure detection, epoch
// election, and failover state machine of spec.md §4.5. Every mutation
// comes from the caller's single tick goroutine or an async I/O callback
// that caller serializes; Supervisor's own mutex protects the masters map
// only, not the Instance fields each Instance guards itself.
type Supervisor struct {
	mu      sync.RWMutex
	masters map[string]*Instance

	selfID       string
	selfIP       string
	selfPort     int
	currentEpoch int64

	config    SupervisorConfig
	cs        *ConfigStore
	publisher notify.Publisher
	tilt      *Tilt
	votes     *VoteBox
	log       xlog.Logger
}

// NewSupervisor constructs a Supervisor for one observer process.
func NewSupervisor(selfID, selfIP string, selfPort int, cfg SupervisorConfig, cs *ConfigStore, pub notify.Publisher, log xlog.Logger) *Supervisor {
	return &Supervisor{
		masters:   make(map[string]*Instance),
		selfID:    selfID,
		selfIP:    selfIP,
		selfPort:  selfPort,
		config:    cfg,
		cs:        cs,
		publisher: pub,
		tilt:      &Tilt{},
		votes:     NewVoteBox(),
		log:       log,
	}
}

// Monitor registers a master for monitoring, from a "sentinel monitor"
// directive.
func (s *Supervisor) Monitor(name, ip string, port, quorum int) *Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := NewMasterInstance(name, ip, port, quorum)
	s.masters[name] = m
	return m
}

// Master looks up a monitored master by name.
func (s *Supervisor) Master(name string) (*Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.masters[name]
	return m, ok
}

// Masters returns a snapshot of all monitored masters.
func (s *Supervisor) Masters() []*Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Instance, 0, len(s.masters))
	for _, m := range s.masters {
		out = append(out, m)
	}
	return out
}

// CurrentEpoch returns the last adopted epoch.
func (s *Supervisor) CurrentEpoch() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentEpoch
}

// SetCurrentEpoch restores a persisted epoch at startup, before any
// election has run in this process.
func (s *Supervisor) SetCurrentEpoch(epoch int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentEpoch = epoch
}

// Tick drives one round of the supervisor loop, per spec.md §4.5.8: TILT
// gating, SDOWN sweep, ODOWN evaluation, and failover stepping. Hello
// publishing and PING/INFO scheduling are the caller's responsibility
// (they own the netlink.Conn callbacks); Tick only evaluates state that's
// already been updated by those callbacks.
func (s *Supervisor) Tick(now time.Time) {
	tilted := s.tilt.Tick(now)
	if tilted || s.tilt.Active(now) {
		return
	}

	for _, m := range s.Masters() {
		s.sweepSDown(m, now)
		s.evaluateODown(m, now)
		s.maybeStartFailover(m, now)

		m.mu.RLock()
		inFailover := m.Failover != nil && m.Failover.State != StateNone
		m.mu.RUnlock()
		if inFailover {
			s.AdvanceFailover(m, now)
		}
	}
}

// sweepSDown updates SDown/SDownSince for master and every known replica,
// per spec.md §4.5.5.
func (s *Supervisor) sweepSDown(master *Instance, now time.Time) {
	down := master.isSDown(now, s.config.DownAfter)
	master.mu.Lock()
	if down && !master.SDown {
		master.SDown = true
		master.SDownSince = now
		s.log.Warn("sentinel: +sdown", "master", master.Name)
	} else if !down && master.SDown {
		master.SDown = false
		master.ODown = false
		s.log.Warn("sentinel: -sdown", "master", master.Name)
	}
	replicas := make([]*Instance, 0, len(master.Replicas))
	for _, r := range master.Replicas {
		replicas = append(replicas, r)
	}
	master.mu.Unlock()

	for _, r := range replicas {
		rDown := r.isSDown(now, s.config.DownAfter)
		r.mu.Lock()
		r.SDown = rDown
		r.mu.Unlock()
	}
}

// evaluateODown applies spec.md §4.5.5's objective-down rule: a SDOWN
// master becomes ODOWN once a quorum of observers (this one included)
// agree it's down. Agreement is recorded by RecordDownVote as
// is-master-down-by-addr replies arrive; this method only tallies.
func (s *Supervisor) evaluateODown(master *Instance, _ time.Time) {
	master.mu.Lock()
	defer master.mu.Unlock()
	if !master.SDown {
		master.ODown = false
		return
	}
	agree := 1 // self
	for _, obs := range master.Observers {
		obs.mu.RLock()
		if obs.downVote {
			agree++
		}
		obs.mu.RUnlock()
	}
	master.ODown = agree >= master.Quorum
}

// RecordDownVote records an observer's reply to an is-master-down-by-addr
// query about master, per spec.md §4.5.5.
func (s *Supervisor) RecordDownVote(master *Instance, observerRunID string, down bool) {
	master.mu.RLock()
	obs, ok := master.Observers[observerRunID]
	master.mu.RUnlock()
	if !ok {
		return
	}
	obs.mu.Lock()
	obs.downVote = down
	obs.mu.Unlock()
}

// masterByAddr finds the monitored master advertising ip:port, if any.
func (s *Supervisor) masterByAddr(ip string, port int) *Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.masters {
		if m.Addr() == ip+":"+strconv.Itoa(port) {
			return m
		}
	}
	return nil
}

// HandleIsMasterDownByAddr answers an incoming
// "is-master-down-by-addr <ip> <port> <epoch> <requested-runid>" query
// (§6): the responder half of both the ODOWN down-vote (§4.5.5) and
// leader election (§4.5.6). down reports this observer's own SDOWN
// verdict for the master at ip:port. When requestedRunID is "*" no vote
// is solicited and the reply carries no leader. Otherwise the reply
// carries whichever runid this observer's VoteBox committed to for
// epoch, the first requester it saw in that epoch, per §4.5.6's "cannot
// change its vote within an epoch" rule.
func (s *Supervisor) HandleIsMasterDownByAddr(ip string, port int, epoch int64, requestedRunID string) (down bool, leaderRunID string, leaderEpoch int64) {
	if master := s.masterByAddr(ip, port); master != nil {
		master.mu.RLock()
		down = master.SDown
		master.mu.RUnlock()
	}

	if requestedRunID == "" || requestedRunID == "*" {
		return down, "*", 0
	}

	voted, ok := s.votes.Vote(epoch, requestedRunID)
	if !ok {
		return down, "*", 0
	}
	return down, voted, epoch
}

// maybeStartFailover begins a new attempt once master is ODOWN, no
// attempt is already in flight, and the rate limit allows it, per
// spec.md §4.5.6.
func (s *Supervisor) maybeStartFailover(master *Instance, now time.Time) {
	master.mu.RLock()
	odown := master.ODown
	inFlight := master.Failover != nil && master.Failover.State != StateNone
	master.mu.RUnlock()
	if !odown || inFlight {
		return
	}
	if err := s.StartFailover(master, now); err != nil {
		s.log.Debug("sentinel: failover start deferred", "master", master.Name, "err", err)
	}
}
