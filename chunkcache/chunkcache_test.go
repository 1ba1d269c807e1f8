// Copyright 2026 The sleuthgo Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chunkcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetMiss(t *testing.T) {
	c := New()
	_, ok := c.Get(0)
	require.False(t, ok)
}

func TestPutThenGet(t *testing.T) {
	c := New()
	c.Put(5, []byte("chunk5"), false)
	data, ok := c.Get(5)
	require.True(t, ok)
	require.Equal(t, []byte("chunk5"), data)
}

func TestTwoSlotRotation(t *testing.T) {
	c := New()
	c.Put(0, []byte("a"), false)
	c.Put(1, []byte("b"), false)
	// Both still present: exactly two slots, both filled.
	_, ok0 := c.Get(0)
	_, ok1 := c.Get(1)
	require.True(t, ok0)
	require.True(t, ok1)

	// A third distinct chunk evicts the oldest (rotation-order) slot.
	c.Put(2, []byte("c"), false)
	_, ok0 = c.Get(0)
	require.False(t, ok0)
	_, ok2 := c.Get(2)
	require.True(t, ok2)
}

func TestPutUpdatesInPlaceOnHit(t *testing.T) {
	c := New()
	c.Put(0, []byte("a"), false)
	c.Put(1, []byte("b"), false)
	c.Put(0, []byte("a2"), false) // update slot 0 in place, not rotate

	data, ok := c.Get(0)
	require.True(t, ok)
	require.Equal(t, []byte("a2"), data)
	_, ok1 := c.Get(1)
	require.True(t, ok1, "updating an existing entry must not evict the other slot")
}

func TestIterDirtyAndMarkClean(t *testing.T) {
	c := New()
	c.Put(0, []byte("a"), true)
	c.Put(1, []byte("b"), false)

	var dirty []int
	c.IterDirty(func(e Entry) { dirty = append(dirty, e.ChunkIndex) })
	require.Equal(t, []int{0}, dirty)

	c.MarkClean(0)
	dirty = nil
	c.IterDirty(func(e Entry) { dirty = append(dirty, e.ChunkIndex) })
	require.Empty(t, dirty)
}

func TestReset(t *testing.T) {
	c := New()
	c.Put(0, []byte("a"), false)
	c.Reset()
	_, ok := c.Get(0)
	require.False(t, ok)
}
