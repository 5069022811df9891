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

// Package netlink is the supervisor's async command/pub-sub connection
// pair (spec.md §4.5.2) and the text-protocol verbs it speaks (§6). All
// I/O is non-blocking from the caller's perspective: a connection reads
// in its own goroutine and delivers every line to a callback, the sole
// suspension point spec.md §5 describes for the supervisor.
package netlink

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/coredb/coredb/coreerr"
)

// Line is one reply or pushed message read off a connection.
type Line func(text string)

// Conn is a single async connection: a command link or a pub/sub link.
// Writes are synchronous (a short line write rarely blocks); reads are
// delivered asynchronously to OnLine.
type Conn struct {
	name string

	mu     sync.Mutex
	nc     net.Conn
	closed bool

	OnLine func(text string)
	OnErr  func(err error)
}

// Dial opens a TCP connection to addr and starts its read loop. name is
// recorded as the connection's client name and returned by Name; Dial
// does not send it to the peer.
func Dial(addr, name string, timeout time.Duration) (*Conn, error) {
	nc, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, coreerr.Wrap("netlink.Dial", coreerr.TransientIO, err)
	}
	c := &Conn{name: name, nc: nc}
	go c.readLoop()
	return c, nil
}

func (c *Conn) readLoop() {
	sc := bufio.NewScanner(c.nc)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		c.mu.Lock()
		cb := c.OnLine
		c.mu.Unlock()
		if cb != nil {
			cb(line)
		}
	}
	if err := sc.Err(); err != nil {
		c.mu.Lock()
		cb := c.OnErr
		c.mu.Unlock()
		if cb != nil {
			cb(err)
		}
	}
}

// Send writes a single text-protocol line, space-joining args.
func (c *Conn) Send(verb string, args ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return coreerr.New("netlink.Conn.Send", coreerr.TransientIO)
	}
	line := verb
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	_, err := c.nc.Write([]byte(line + "\r\n"))
	if err != nil {
		return coreerr.Wrap("netlink.Conn.Send", coreerr.TransientIO, err)
	}
	return nil
}

// Name returns the client name given to Dial.
func (c *Conn) Name() string { return c.name }

// Close tears down the underlying socket.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.nc.Close()
}
