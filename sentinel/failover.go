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
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/coredb/coredb/coreerr"
)

// FailoverRun tracks one failover attempt's progress through the state
// table of spec.md §4.5.7.
type FailoverRun struct {
	State          FailoverState
	Epoch          int64
	StartedAt      time.Time
	PromoteSentAt  time.Time
	Candidate      *Instance
	Election       *Election
	InProgress     map[string]bool // replicas currently being reconfigured
	Done           map[string]bool // replicas confirmed reconfigured
	LastAttemptEnd time.Time
}

// candidateSelection filters and ranks replicas per spec.md §4.5.7
// "Candidate selection": not SDOWN/ODOWN/disconnected; last pong within
// 5*PingPeriod; INFO fresh within 3*InfoPeriod (or 5*PingPeriod when the
// master is SDOWN); priority > 0; master-link-down time bounded. Survivors
// rank by (priority ascending, repl-offset descending, runid ascending);
// the minimum is taken.
func candidateSelection(master *Instance, now time.Time, downAfter time.Duration) *Instance {
	master.mu.RLock()
	replicas := make([]*Instance, 0, len(master.Replicas))
	for _, r := range master.Replicas {
		replicas = append(replicas, r)
	}
	sdownSince := master.SDownSince
	master.mu.RUnlock()

	infoFreshBound := 3 * InfoPeriod
	if !sdownSince.IsZero() {
		infoFreshBound = 5 * PingPeriod
	}

	var survivors []*Instance
	for _, r := range replicas {
		r.mu.RLock()
		ok := !r.SDown && !r.ODown &&
			!r.LastPong.IsZero() && now.Sub(r.LastPong) <= 5*PingPeriod &&
			!r.LastInfo.IsZero() && now.Sub(r.LastInfo) <= infoFreshBound &&
			r.Priority > 0
		linkDownOK := true
		if !r.MasterLinkDown.IsZero() && !sdownSince.IsZero() {
			linkDownOK = now.Sub(r.MasterLinkDown) <= now.Sub(sdownSince)+10*downAfter
		}
		r.mu.RUnlock()
		if ok && linkDownOK {
			survivors = append(survivors, r)
		}
	}
	if len(survivors) == 0 {
		return nil
	}

	sort.Slice(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		a.mu.RLock()
		b.mu.RLock()
		defer a.mu.RUnlock()
		defer b.mu.RUnlock()
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.ReplOffset != b.ReplOffset {
			return a.ReplOffset > b.ReplOffset
		}
		return a.RunID < b.RunID
	})
	return survivors[0]
}

// abortFailover resets a master's failover state to none, per spec.md
// §5 "Cancellation": clear the promoted-replica reference and leave the
// master available for a future attempt after the rate-limit interval.
func abortFailover(master *Instance, now time.Time) {
	master.mu.Lock()
	defer master.mu.Unlock()
	if master.Failover != nil {
		master.Failover.State = StateNone
		master.Failover.Candidate = nil
		master.Failover.LastAttemptEnd = now
	}
}

// canAttemptFailover gates a new attempt to 2*FailoverTimeout since the
// last one, per spec.md §4.5.6's thundering-herd guard (jitter applied
// by the caller's tick scheduling, not here).
func canAttemptFailover(master *Instance, now time.Time) bool {
	master.mu.RLock()
	defer master.mu.RUnlock()
	if master.Failover == nil || master.Failover.LastAttemptEnd.IsZero() {
		return true
	}
	return now.Sub(master.Failover.LastAttemptEnd) >= 2*FailoverTimeout
}

// electionDeadline is the capped election window of spec.md §4.5.6:
// "election-timeout, capped at failover-timeout".
func electionDeadline() time.Duration {
	if ElectionTimeout < FailoverTimeout {
		return ElectionTimeout
	}
	return FailoverTimeout
}

// StartFailover begins a new attempt on master: increments the epoch,
// opens an Election, and transitions to wait-start, per spec.md §4.5.6
// and the state table's initial `none` -> `wait-start` edge.
func (s *Supervisor) StartFailover(master *Instance, now time.Time) error {
	if !canAttemptFailover(master, now) {
		return coreerr.New("sentinel.StartFailover", coreerr.Busy)
	}
	master.mu.Lock()
	defer master.mu.Unlock()

	s.mu.Lock()
	s.currentEpoch++
	epoch := s.currentEpoch
	s.mu.Unlock()
	if s.cs != nil {
		s.cs.SetCurrentEpoch(epoch)
	}
	knownCount := len(master.Observers) + 1
	master.Failover = &FailoverRun{
		State:     StateWaitStart,
		Epoch:     epoch,
		StartedAt: now,
		Election:  NewElection(epoch, s.selfID, master.Quorum, knownCount),
	}
	return nil
}

// AdvanceFailover steps master's failover state machine by one table
// transition, per spec.md §4.5.7. Callers drive the underlying I/O
// (sending SLAVEOF, polling INFO) and feed the observed results back into
// the Instance fields this function reads; AdvanceFailover only decides
// the next state.
func (s *Supervisor) AdvanceFailover(master *Instance, now time.Time) {
	master.mu.Lock()
	fr := master.Failover
	master.mu.Unlock()
	if fr == nil {
		return
	}

	switch fr.State {
	case StateWaitStart:
		if fr.Election.Winner() {
			s.transition(master, StateSelectReplica)
			return
		}
		if now.Sub(fr.StartedAt) > electionDeadline() {
			abortFailover(master, now)
		}

	case StateSelectReplica:
		downAfter := s.downAfter(master)
		candidate := candidateSelection(master, now, downAfter)
		if candidate == nil {
			abortFailover(master, now)
			return
		}
		master.mu.Lock()
		master.Failover.Candidate = candidate
		master.Failover.State = StateSendPromote
		master.mu.Unlock()

	case StateSendPromote:
		s.sendPromote(master, fr.Candidate)
		master.mu.Lock()
		master.Failover.PromoteSentAt = now
		master.Failover.State = StateWaitPromotion
		master.mu.Unlock()

	case StateWaitPromotion:
		fr.Candidate.mu.RLock()
		promoted := fr.Candidate.RoleReported == "master"
		fr.Candidate.mu.RUnlock()
		if promoted {
			master.mu.Lock()
			master.Failover.State = StateReconfReplicas
			master.Failover.InProgress = make(map[string]bool)
			master.Failover.Done = make(map[string]bool)
			master.mu.Unlock()
			return
		}
		if now.Sub(fr.StartedAt) > FailoverTimeout {
			abortFailover(master, now)
		}

	case StateReconfReplicas:
		s.reconfReplicas(master, fr, now)

	case StateUpdateConfig:
		s.finalizeUpdateConfig(master, fr, now)
	}
}

// downAfter returns the down-after-milliseconds period configured for
// master (per-master in a full directive model; this repo uses a single
// supervisor-wide value, SupervisorConfig.DownAfter).
func (s *Supervisor) downAfter(_ *Instance) time.Duration { return s.config.DownAfter }

// sendPromote sends "become master" to the candidate, per spec.md
// §4.5.7 "send-promote": a single SLAVEOF NO ONE on the candidate's
// command link, then the master's config epoch + 1 is persisted through
// ConfigStore. The command is not wrapped in a transaction, no config
// rewrite is sent to the candidate, and no clients are killed.
func (s *Supervisor) sendPromote(master *Instance, candidate *Instance) {
	candidate.mu.RLock()
	link := candidate.CmdLink
	candidate.mu.RUnlock()
	if link != nil {
		_ = link.Send("SLAVEOF", "NO", "ONE")
	}
	if s.cs != nil {
		master.mu.RLock()
		epoch := master.ConfigEpoch + 1
		master.mu.RUnlock()
		s.cs.SetConfigEpoch(epoch)
	}
}

// reconfReplicas sends "slave-of <candidate>" to every remaining replica
// up to ParallelSyncs in flight, per spec.md §4.5.7 "reconf-replicas".
func (s *Supervisor) reconfReplicas(master *Instance, fr *FailoverRun, now time.Time) {
	master.mu.RLock()
	replicas := make([]*Instance, 0, len(master.Replicas))
	for _, r := range master.Replicas {
		replicas = append(replicas, r)
	}
	candidateAddr := fr.Candidate.Addr()
	master.mu.RUnlock()

	inFlight := 0
	allDone := true
	for _, r := range replicas {
		if r == fr.Candidate {
			continue
		}
		r.mu.RLock()
		runID := r.RunID
		reportedMaster := r.MasterHost + ":" + itoaPort(r.MasterPort)
		link := r.CmdLink
		r.mu.RUnlock()

		if fr.Done[runID] {
			continue
		}
		if reportedMaster == candidateAddr {
			fr.Done[runID] = true
			delete(fr.InProgress, runID)
			continue
		}
		allDone = false

		if fr.InProgress[runID] {
			inFlight++
			continue
		}
		if inFlight >= s.config.ParallelSyncs {
			continue
		}
		if link != nil {
			host, port, _ := splitAddr(candidateAddr)
			_ = link.Send("SLAVEOF", host, port)
		}
		fr.InProgress[runID] = true
		inFlight++
	}

	if allDone || now.Sub(fr.StartedAt) > FailoverTimeout {
		master.mu.Lock()
		master.Failover.State = StateUpdateConfig
		master.mu.Unlock()
	}
}

// finalizeUpdateConfig swaps the master's advertised address to the
// promoted candidate and emits +switch-master, per spec.md §4.5.7
// "update-config".
func (s *Supervisor) finalizeUpdateConfig(master *Instance, fr *FailoverRun, now time.Time) {
	candidate := fr.Candidate
	candidate.mu.RLock()
	newIP, newPort := candidate.IP, candidate.Port
	candidate.mu.RUnlock()

	master.mu.Lock()
	oldIP, oldPort := master.IP, master.Port
	master.IP, master.Port = newIP, newPort
	master.Failover.State = StateNone
	master.Failover.LastAttemptEnd = now
	name := master.Name
	quorum := master.Quorum
	master.mu.Unlock()

	if s.cs != nil {
		s.cs.SetMasterAddr(name, newIP, newPort, quorum)
	}
	if s.publisher != nil {
		s.publisher.Publish("+switch-master", name+" "+oldIP+" "+itoaPort(oldPort)+" "+newIP+" "+itoaPort(newPort))
	}
}

func (s *Supervisor) transition(master *Instance, state FailoverState) {
	master.mu.Lock()
	defer master.mu.Unlock()
	if master.Failover != nil {
		master.Failover.State = state
	}
}

func itoaPort(port int) string { return strconv.Itoa(port) }

// splitAddr splits an "ip:port" address built by Instance.Addr.
func splitAddr(addr string) (host, port string, ok bool) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", "", false
	}
	return addr[:idx], addr[idx+1:], true
}
