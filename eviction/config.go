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

package eviction

import (
	"sync"

	"github.com/coredb/coredb/coreerr"
)

// Config is the dynamic configuration object spec.md §9 names:
// "{maxmemory: integer bytes; maxmemory-policy: tag; maxmemory-samples:
// 1..64; lfu-log-factor: >=1; lfu-decay-time: >=0 minutes;
// lazyfree-lazy-eviction: bool}". Each field is reachable through a
// validated setter bound to the matching config directive name
// (SPEC_FULL.md §4.4).
type Config struct {
	mu sync.RWMutex

	maxMemory          int64
	policy             Policy
	samples            int
	lfuLogFactor       int
	lfuDecayTime       int
	lazyFreeOnEviction bool
}

// NewConfig returns a Config with the reference defaults: no cap, policy
// none, 5 samples, log-factor 10, decay-time 1 minute, lazy eviction off.
func NewConfig() *Config {
	return &Config{
		samples:      5,
		lfuLogFactor: 10,
		lfuDecayTime: 1,
	}
}

func (c *Config) MaxMemory() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxMemory
}

// SetMaxMemory sets the eviction cap in bytes; 0 disables the cap.
func (c *Config) SetMaxMemory(bytes int64) error {
	if bytes < 0 {
		return coreerr.New("eviction.Config.SetMaxMemory", coreerr.MalformedEncoding)
	}
	c.mu.Lock()
	c.maxMemory = bytes
	c.mu.Unlock()
	return nil
}

func (c *Config) Policy() Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.policy
}

// SetPolicy parses and sets the maxmemory-policy tag.
func (c *Config) SetPolicy(tag string) error {
	p, err := ParsePolicy(tag)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.policy = p
	c.mu.Unlock()
	return nil
}

func (c *Config) Samples() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.samples
}

// SetSamples sets maxmemory-samples, validated to 1..64.
func (c *Config) SetSamples(n int) error {
	if n < 1 || n > 64 {
		return coreerr.New("eviction.Config.SetSamples", coreerr.MalformedEncoding)
	}
	c.mu.Lock()
	c.samples = n
	c.mu.Unlock()
	return nil
}

func (c *Config) LFULogFactor() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lfuLogFactor
}

// SetLFULogFactor sets lfu-log-factor, validated to >= 1.
func (c *Config) SetLFULogFactor(n int) error {
	if n < 1 {
		return coreerr.New("eviction.Config.SetLFULogFactor", coreerr.MalformedEncoding)
	}
	c.mu.Lock()
	c.lfuLogFactor = n
	c.mu.Unlock()
	return nil
}

func (c *Config) LFUDecayTime() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lfuDecayTime
}

// SetLFUDecayTime sets lfu-decay-time in minutes, validated to >= 0.
func (c *Config) SetLFUDecayTime(n int) error {
	if n < 0 {
		return coreerr.New("eviction.Config.SetLFUDecayTime", coreerr.MalformedEncoding)
	}
	c.mu.Lock()
	c.lfuDecayTime = n
	c.mu.Unlock()
	return nil
}

func (c *Config) LazyFreeOnEviction() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lazyFreeOnEviction
}

// SetLazyFreeOnEviction sets lazyfree-lazy-eviction.
func (c *Config) SetLazyFreeOnEviction(b bool) {
	c.mu.Lock()
	c.lazyFreeOnEviction = b
	c.mu.Unlock()
}

// Guards gates eviction entirely, per spec.md §4.4 "Safety guards":
// skipped while a script runs, the database is loading, or clients are
// paused. Like the eviction pool itself, Guards belongs to the single
// data-plane thread and needs no internal locking (spec.md §5).
type Guards struct {
	ScriptRunning bool
	Loading       bool
	ClientsPaused bool
}

func (g *Guards) blocked() bool {
	return g.ScriptRunning || g.Loading || g.ClientsPaused
}
