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

// Package coreerr defines the error kinds shared by the pack, quicklist,
// lazyfree, eviction and sentinel packages.
package coreerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a core failure per the error handling design.
type Kind int

const (
	// Unknown is the zero value; never returned deliberately.
	Unknown Kind = iota
	// CapacityExceeded: an operation would exceed the 2^32-1 byte buffer cap.
	CapacityExceeded
	// MalformedEncoding: a decode produced an impossible length.
	MalformedEncoding
	// NotFound: index/bookmark/key lookup failed.
	NotFound
	// Busy: script running, database loading, or clients paused.
	Busy
	// TransientIO: a peer link is down; retry later.
	TransientIO
	// QuorumUnreachable: not enough observers agreed to reach ODOWN/election.
	QuorumUnreachable
	// ElectionTimeout: a leader election did not conclude in time.
	ElectionTimeout
	// PromotionTimeout: a replica did not confirm promotion in time.
	PromotionTimeout
	// PersistFailed: the config rewrite failed; state continues in memory.
	PersistFailed
)

func (k Kind) String() string {
	switch k {
	case CapacityExceeded:
		return "capacity-exceeded"
	case MalformedEncoding:
		return "malformed-encoding"
	case NotFound:
		return "not-found"
	case Busy:
		return "busy"
	case TransientIO:
		return "transient-io"
	case QuorumUnreachable:
		return "quorum-unreachable"
	case ElectionTimeout:
		return "election-timeout"
	case PromotionTimeout:
		return "promotion-timeout"
	case PersistFailed:
		return "persist-failed"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind the caller can switch on.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a bare Error of the given kind, with no wrapped cause.
func New(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attaches a Kind to an existing error via github.com/pkg/errors, which
// preserves a stack trace for the deeper async callback chains inside the
// supervisor. It is the only wrapping helper the module uses.
func Wrap(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: errors.WithStack(err)}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		err = errors.Unwrap(err)
	}
	return e != nil && e.Kind == kind
}
