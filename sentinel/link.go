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
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/coredb/coredb/netlink"
)

// Link owns the command and pub/sub connections to one Instance and gates
// reconnect attempts per SPEC_FULL.md §4.5: "reconnect no more than once
// per PING period; backoff only smooths repeated-failure spacing within
// that gate" — the exponential backoff never overrides the PingPeriod
// floor, it only stretches the interval past it after repeated failures.
type Link struct {
	mu       sync.Mutex
	addr     string
	name     string
	cmd      *netlink.Conn
	pubsub   *netlink.Conn
	backoff  *backoff.ExponentialBackOff
	nextTry  time.Time
	lastFail time.Time
}

// NewLink creates an unconnected Link for addr ("ip:port").
func NewLink(addr, name string) *Link {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = PingPeriod
	b.MaxInterval = FailoverTimeout
	b.MaxElapsedTime = 0 // retry indefinitely; the caller decides when to give up monitoring
	return &Link{addr: addr, name: name, backoff: b}
}

// Ready reports whether now has reached the next allowed reconnect
// attempt.
func (l *Link) Ready(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextTry.IsZero() || !now.Before(l.nextTry)
}

// Connected reports whether both the command and pub/sub links are live.
func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cmd != nil && l.pubsub != nil
}

// Reconnect dials both connections if Ready, gating subsequent attempts
// by the exponential backoff on failure and resetting it on success.
func (l *Link) Reconnect(now time.Time, onCmdLine, onPubSubLine func(string), onErr func(error)) (*netlink.Conn, *netlink.Conn, error) {
	l.mu.Lock()
	if !l.nextTry.IsZero() && now.Before(l.nextTry) {
		l.mu.Unlock()
		return nil, nil, nil
	}
	l.mu.Unlock()

	cmd, err := netlink.Dial(l.addr, l.name+"-cmd", PingPeriod)
	if err != nil {
		l.recordFailure(now)
		return nil, nil, err
	}
	cmd.OnLine = onCmdLine
	cmd.OnErr = onErr

	pubsub, err := netlink.Dial(l.addr, l.name+"-pubsub", PingPeriod)
	if err != nil {
		cmd.Close()
		l.recordFailure(now)
		return nil, nil, err
	}
	pubsub.OnLine = onPubSubLine
	pubsub.OnErr = onErr

	l.mu.Lock()
	l.cmd, l.pubsub = cmd, pubsub
	l.backoff.Reset()
	l.nextTry = time.Time{}
	l.mu.Unlock()
	return cmd, pubsub, nil
}

func (l *Link) recordFailure(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastFail = now
	wait := l.backoff.NextBackOff()
	if wait < PingPeriod {
		wait = PingPeriod
	}
	l.nextTry = now.Add(wait)
}

// Close tears down both connections.
func (l *Link) Close() error {
	l.mu.Lock()
	cmd, pubsub := l.cmd, l.pubsub
	l.cmd, l.pubsub = nil, nil
	l.mu.Unlock()
	var err error
	if cmd != nil {
		err = cmd.Close()
	}
	if pubsub != nil {
		if perr := pubsub.Close(); err == nil {
			err = perr
		}
	}
	return err
}
