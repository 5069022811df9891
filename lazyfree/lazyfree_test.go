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

package lazyfree

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredb/coredb/dataset"
	"github.com/coredb/coredb/xlog"
)

func bigHash(n int) *dataset.Value {
	h := dataset.NewHash()
	for i := 0; i < n; i++ {
		h.Hash[fmt.Sprintf("field-%d", i)] = []byte("v")
	}
	return h
}

func TestDeleteAsyncInlineForSmallValue(t *testing.T) {
	r := NewReclaimer(2, xlog.NewNop())
	defer r.Close()

	db := dataset.NewDB(0)
	db.Set("k", dataset.NewString([]byte("v")))

	r.DeleteAsync(db, "k")
	_, ok := db.Get("k")
	assert.False(t, ok)
	assert.EqualValues(t, 0, r.PendingWork())
}

func TestDeleteAsyncHandsOffLargeValue(t *testing.T) {
	r := NewReclaimer(2, xlog.NewNop())
	defer r.Close()

	db := dataset.NewDB(0)
	db.Set("big", bigHash(100))

	r.DeleteAsync(db, "big")
	_, ok := db.Get("big")
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		return r.PendingWork() == 0
	}, time.Second, time.Millisecond)
}

func TestDeleteAsyncMissingKeyIsNoop(t *testing.T) {
	r := NewReclaimer(1, xlog.NewNop())
	defer r.Close()

	db := dataset.NewDB(0)
	r.DeleteAsync(db, "missing")
	assert.EqualValues(t, 0, r.PendingWork())
}

func TestCloseDrainsQueueBeforeReturning(t *testing.T) {
	r := NewReclaimer(1, xlog.NewNop())

	db := dataset.NewDB(0)
	db.Set("big", bigHash(200))
	r.DeleteAsync(db, "big")

	require.NoError(t, r.Close())
	assert.EqualValues(t, 0, r.PendingWork())
}
