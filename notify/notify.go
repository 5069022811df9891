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

// Package notify is the keyspace-notification publish surface spec.md §6
// describes: a channel-family fan-out the eviction engine publishes
// evicted events into, with the full client pub/sub fan-out left to an
// external collaborator per the Non-goals. Nothing in this module
// publishes expired events.
package notify

import "fmt"

// Class is one of the event-class filter flags spec.md §6 enumerates:
// 'g' generic, '$' string, 'l' list, 's' set, 'h' hash, 'z' zset,
// 'x' expired, 'e' evicted, 't' stream, 'm' key-miss, 'A' all classes,
// 'K' keyspace channels, 'E' keyevent channels.
type Class byte

const (
	ClassGeneric  Class = 'g'
	ClassString   Class = '$'
	ClassList     Class = 'l'
	ClassSet      Class = 's'
	ClassHash     Class = 'h'
	ClassZSet     Class = 'z'
	ClassExpired  Class = 'x'
	ClassEvicted  Class = 'e'
	ClassStream   Class = 't'
	ClassKeyMiss  Class = 'm'
	ClassAll      Class = 'A'
	ClassKeyspace Class = 'K'
	ClassKeyevent Class = 'E'
)

// Publisher is the narrow boundary the data plane calls into. It is
// satisfied by Broker below, or by an external pub/sub bridge.
type Publisher interface {
	Publish(channel, payload string)
}

// KeyspaceChannel formats the "__keyspace@<db>__:<key>" channel name.
func KeyspaceChannel(db int, key string) string {
	return fmt.Sprintf("__keyspace@%d__:%s", db, key)
}

// KeyeventChannel formats the "__keyevent@<db>__:<event>" channel name.
func KeyeventChannel(db int, event string) string {
	return fmt.Sprintf("__keyevent@%d__:%s", db, event)
}

// Subscriber receives payloads published to a channel it subscribed to.
type Subscriber func(channel, payload string)

// Broker is a minimal in-memory fan-out: every Publish call is delivered
// synchronously to every subscriber registered for that exact channel
// name. It exists so the composition root runs standalone; a real
// deployment swaps in a network-backed Publisher instead.
type Broker struct {
	classes     map[Class]bool
	subscribers map[string][]Subscriber
}

// NewBroker creates a Broker with every class enabled by default; call
// SetClasses to narrow it to the directive-configured subset.
func NewBroker() *Broker {
	return &Broker{
		classes:     map[Class]bool{ClassAll: true},
		subscribers: make(map[string][]Subscriber),
	}
}

// SetClasses replaces the enabled event classes, mirroring the
// "notify-keyspace-events" directive's flag string semantics.
func (b *Broker) SetClasses(classes ...Class) {
	b.classes = make(map[Class]bool, len(classes))
	for _, c := range classes {
		b.classes[c] = true
	}
}

func (b *Broker) enabled(c Class) bool {
	return b.classes[ClassAll] || b.classes[c]
}

// Subscribe registers fn to receive every Publish call on channel.
func (b *Broker) Subscribe(channel string, fn Subscriber) {
	b.subscribers[channel] = append(b.subscribers[channel], fn)
}

// Publish delivers payload to every subscriber of channel.
func (b *Broker) Publish(channel, payload string) {
	for _, fn := range b.subscribers[channel] {
		fn(channel, payload)
	}
}

// NotifyKeyspaceEvent publishes both the keyspace and keyevent forms of a
// data-plane event, per spec.md §6, gated by the event's Class and the
// 'K'/'E' channel-family flags.
func (b *Broker) NotifyKeyspaceEvent(class Class, event string, db int, key string) {
	if !b.enabled(class) {
		return
	}
	if b.enabled(ClassKeyspace) {
		b.Publish(KeyspaceChannel(db, key), event)
	}
	if b.enabled(ClassKeyevent) {
		b.Publish(KeyeventChannel(db, event), key)
	}
}
