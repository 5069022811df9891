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
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateRunID creates a 40-hex-char stable self-identifier, the same
// shape as the source's 40-hex runid (spec.md §3).
func GenerateRunID() (string, error) {
	var b [20]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// CorrelationID generates a random debugging/tracing id — not a protocol
// field, purely diagnostic. No code path in this module calls it.
func CorrelationID() string {
	return uuid.NewString()
}
