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

package chunktable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedSizer struct{ size uint64 }

func (f fixedSizer) LastEntrySize(uint64) uint64 { return f.size }

func TestResolveSingleSection(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AppendSection(1, 1000,
		[]uint32{0, 100, 250},
		[]bool{false, true, false},
		fixedSizer{size: 32768},
	))
	require.Equal(t, 3, tbl.TotalChunks())

	e0, err := tbl.Resolve(0)
	require.NoError(t, err)
	require.Equal(t, Entry{SegmentNumber: 1, ByteOffset: 1000, EncodedSize: 100, Compressed: false}, e0)

	e1, err := tbl.Resolve(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1100), e1.ByteOffset)
	require.Equal(t, uint64(150), e1.EncodedSize)
	require.True(t, e1.Compressed)

	e2, err := tbl.Resolve(2)
	require.NoError(t, err)
	require.Equal(t, uint64(32768), e2.EncodedSize)
}

func TestResolveSpansMultipleSections(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AppendSection(1, 0, []uint32{0, 50}, []bool{false, false}, fixedSizer{size: 50}))
	require.NoError(t, tbl.AppendSection(2, 0, []uint32{0, 75}, []bool{false, false}, fixedSizer{size: 75}))

	require.Equal(t, 4, tbl.TotalChunks())

	e, err := tbl.Resolve(2) // first entry of the second section
	require.NoError(t, err)
	require.Equal(t, 2, e.SegmentNumber)
	require.Equal(t, uint64(0), e.ByteOffset)

	e, err = tbl.Resolve(3)
	require.NoError(t, err)
	require.Equal(t, uint64(75), e.ByteOffset)
}

func TestResolveOutOfRange(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AppendSection(1, 0, []uint32{0}, []bool{false}, fixedSizer{size: 10}))

	_, err := tbl.Resolve(-1)
	require.Error(t, err)
	_, err = tbl.Resolve(1)
	require.Error(t, err)
}

func TestZeroSizeEntryIsSparse(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AppendSection(1, 0, []uint32{0, 0, 10}, []bool{false, false, false}, fixedSizer{size: 10}))

	e, err := tbl.Resolve(0)
	require.NoError(t, err)
	require.True(t, e.Sparse)
	require.Equal(t, uint64(0), e.EncodedSize)
}

func TestAppendSectionRejectsMismatchedLengths(t *testing.T) {
	tbl := New()
	err := tbl.AppendSection(1, 0, []uint32{0, 1}, []bool{false}, fixedSizer{size: 1})
	require.Error(t, err)
}

func TestAppendSectionRequiresSizerWhenNoTrailer(t *testing.T) {
	tbl := New()
	err := tbl.AppendSection(1, 0, []uint32{0}, []bool{false}, nil)
	require.Error(t, err)
}
