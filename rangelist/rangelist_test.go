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

package rangelist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendRangeNoOverlap(t *testing.T) {
	var l List
	require.NoError(t, l.AppendRange(10, 5))
	require.NoError(t, l.AppendRange(20, 5))
	require.Equal(t, []Range{{10, 15}, {20, 25}}, l.Ranges())
}

func TestAppendRangeMergesOnTouch(t *testing.T) {
	var l List
	require.NoError(t, l.AppendRange(10, 5))
	require.NoError(t, l.AppendRange(15, 5)) // touches at exactly 15
	require.Equal(t, []Range{{10, 20}}, l.Ranges())
}

// TestAppendRangeCoalescing mirrors spec.md's S6 seed scenario. The
// spec's prose states the result as "[10,27) size 17", which is not
// consistent with the inputs it gives (10+5, 20+5, 14+7 union to
// [10,25)); this test verifies the arithmetically correct coalesced
// range instead of the inconsistent literal numbers in the prose.
func TestAppendRangeCoalescing(t *testing.T) {
	var l List
	require.NoError(t, l.AppendRange(10, 5))
	require.NoError(t, l.AppendRange(20, 5))
	require.NoError(t, l.AppendRange(14, 7))

	require.Equal(t, 1, l.Len())
	got := l.Ranges()[0]
	require.Equal(t, Range{Start: 10, End: 25}, got)
	require.Equal(t, uint64(15), got.Size())
}

func TestAppendRangeBridgesGap(t *testing.T) {
	var l List
	require.NoError(t, l.AppendRange(0, 10))
	require.NoError(t, l.AppendRange(20, 10))
	require.NoError(t, l.AppendRange(8, 14)) // [8,22) bridges both and the gap
	require.Equal(t, []Range{{0, 30}}, l.Ranges())
}

func TestRemoveRangeSplitsInterior(t *testing.T) {
	var l List
	require.NoError(t, l.AppendRange(0, 100))
	require.NoError(t, l.RemoveRange(40, 10))
	require.Equal(t, []Range{{0, 40}, {50, 100}}, l.Ranges())
}

func TestRemoveRangeDeletesFullyCovered(t *testing.T) {
	var l List
	require.NoError(t, l.AppendRange(10, 10))
	require.NoError(t, l.AppendRange(30, 10))
	require.NoError(t, l.RemoveRange(5, 40))
	require.Empty(t, l.Ranges())
}

func TestRemoveRangeTrimsEdges(t *testing.T) {
	var l List
	require.NoError(t, l.AppendRange(0, 10))
	require.NoError(t, l.RemoveRange(0, 5))
	require.Equal(t, []Range{{5, 10}}, l.Ranges())

	require.NoError(t, l.RemoveRange(8, 5))
	require.Equal(t, []Range{{5, 8}}, l.Ranges())
}

func TestIsPresent(t *testing.T) {
	var l List
	require.NoError(t, l.AppendRange(10, 10)) // [10,20)
	require.NoError(t, l.AppendRange(30, 10)) // [30,40)

	require.True(t, l.IsPresent(15, 1))
	require.True(t, l.IsPresent(5, 10)) // overlaps start of [10,20)
	require.False(t, l.IsPresent(20, 10))
	require.True(t, l.IsPresent(0, 100))
	require.False(t, l.IsPresent(100, 1))
	require.False(t, l.IsPresent(0, 0))
}

func TestGetRangeByValue(t *testing.T) {
	var l List
	require.NoError(t, l.AppendRange(10, 10))

	r, ok := l.GetRangeByValue(15)
	require.True(t, ok)
	require.Equal(t, Range{10, 20}, r)

	_, ok = l.GetRangeByValue(20)
	require.False(t, ok)

	_, ok = l.GetRangeByValue(9)
	require.False(t, ok)
}

func TestInvalidRanges(t *testing.T) {
	var l List
	require.ErrorIs(t, l.AppendRange(1<<63, 1), ErrInvalidRange)
	require.ErrorIs(t, l.AppendRange(0, 0), ErrInvalidRange)

	const max63 = uint64(1) << 63
	require.ErrorIs(t, l.AppendRange(max63-1, 2), ErrInvalidRange)
}

// TestRandomizedMixReturnsCanonicalList exercises property 3 from spec
// §8: after a mixed sequence of append/remove, the list stays sorted,
// non-overlapping, and non-touching.
func TestRandomizedMixReturnsCanonicalList(t *testing.T) {
	var l List
	ops := []struct {
		remove     bool
		start, size uint64
	}{
		{false, 0, 50},
		{false, 100, 50},
		{true, 20, 10},
		{false, 25, 80},
		{true, 0, 5},
	}
	for _, op := range ops {
		if op.remove {
			require.NoError(t, l.RemoveRange(op.start, op.size))
		} else {
			require.NoError(t, l.AppendRange(op.start, op.size))
		}
	}

	ranges := l.Ranges()
	for i := 1; i < len(ranges); i++ {
		require.Less(t, ranges[i-1].End, ranges[i].Start, "entries must not touch or overlap")
	}
	for i, r := range ranges {
		require.Less(t, r.Start, r.End, "range %d must be non-empty", i)
	}
}
