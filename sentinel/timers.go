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

// Package sentinel is the HA supervisor (HAS): an observer process that
// monitors a primary/replica topology, detects subjective and objective
// failure, elects a leader by epoch, and drives a failover state
// machine, per spec.md §4.5.
package sentinel

import "time"

// Default timer periods, per spec.md §4.5.1.
const (
	InfoPeriod       = 10000 * time.Millisecond
	PingPeriod       = 1000 * time.Millisecond
	AskPeriod        = 1000 * time.Millisecond
	PublishPeriod    = 2000 * time.Millisecond
	DefaultDownAfter = 30000 * time.Millisecond
	FailoverTimeout  = 180000 * time.Millisecond
	ElectionTimeout  = 10000 * time.Millisecond
	TiltTrigger      = 2000 * time.Millisecond
	TiltPeriod       = 30000 * time.Millisecond
)

// HelloChannel is the fixed pub/sub channel name, per spec.md §6
// ("PUBLISH __sentinel__:hello <payload>"); see DESIGN.md for the
// reconciliation with §4.5.1's differently-named mention of this channel.
const HelloChannel = "__sentinel__:hello"
