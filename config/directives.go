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

// Package config parses and atomically rewrites the directive file shared
// by the eviction engine's dynamic options and the HA supervisor's
// persisted state, per SPEC_FULL.md §4.4 and spec.md §4.5.9/§6.
package config

const (
	// MaxMemory - integer bytes; the eviction cap.
	MaxMemory = "maxmemory"

	// MaxMemoryPolicy - one of the eviction.Policy tag names.
	MaxMemoryPolicy = "maxmemory-policy"

	// MaxMemorySamples - 1..64; keys sampled per pool refill.
	MaxMemorySamples = "maxmemory-samples"

	// LFULogFactor - >= 1; governs probabilistic LFU counter increment.
	LFULogFactor = "lfu-log-factor"

	// LFUDecayTime - >= 0 minutes; LFU counter decay period.
	LFUDecayTime = "lfu-decay-time"

	// LazyFreeLazyEviction - bool; whether eviction deletes hand off to
	// the background reclaimer.
	LazyFreeLazyEviction = "lazyfree-lazy-eviction"
)

const (
	// SentinelMonitor - "sentinel monitor <name> <host> <port> <quorum>".
	SentinelMonitor = "sentinel monitor"

	// DownAfterMilliseconds - subjective-down threshold.
	DownAfterMilliseconds = "down-after-milliseconds"

	// FailoverTimeout - bounds election and promotion wait.
	FailoverTimeout = "failover-timeout"

	// ParallelSyncs - replicas reconfigured concurrently during failover.
	ParallelSyncs = "parallel-syncs"

	// NotificationScript - external hook invoked on warning-level events.
	NotificationScript = "notification-script"

	// ClientReconfigScript - external hook invoked on master address switch.
	ClientReconfigScript = "client-reconfig-script"

	AuthPass = "auth-pass"
	AuthUser = "auth-user"

	// MyID - the supervisor's own stable identifier.
	MyID = "myid"

	// CurrentEpoch - the last adopted epoch, persisted across restarts.
	CurrentEpoch = "current-epoch"

	// ConfigEpoch - a master's last-known config epoch.
	ConfigEpoch = "config-epoch"

	// LeaderEpoch - the epoch this observer last cast a vote in.
	LeaderEpoch = "leader-epoch"

	// KnownReplica - "known-replica <master> <ip> <port>", repeatable.
	KnownReplica = "known-replica"

	// KnownSentinel - "known-sentinel <master> <ip> <port> [runid]", repeatable.
	KnownSentinel = "known-sentinel"

	RenameCommand       = "rename-command"
	AnnounceIP          = "announce-ip"
	AnnouncePort        = "announce-port"
	DenyScriptsReconfig = "deny-scripts-reconfig"
)
