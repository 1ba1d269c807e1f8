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

package segment

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSectionHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSectionHeader(&buf, KindSectors, 1234, 5678))

	h, err := ReadSectionHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, KindSectors, h.KindString())
	require.Equal(t, uint64(1234), h.NextOffset)
	require.Equal(t, uint64(5678), h.Size)
}

// TestSectionHeaderDetectsCorruption verifies property 6: corruption of
// any single byte in the first 72 bytes is detected.
func TestSectionHeaderDetectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSectionHeader(&buf, KindTable, 100, 200))
	data := buf.Bytes()

	for i := 0; i < 72; i++ {
		corrupt := append([]byte(nil), data...)
		corrupt[i] ^= 0xFF
		_, err := ReadSectionHeader(bytes.NewReader(corrupt))
		require.ErrorIs(t, err, ErrSectionCRCMismatch, "byte %d", i)
	}
}

func TestSectionHeaderShortRead(t *testing.T) {
	_, err := ReadSectionHeader(bytes.NewReader(make([]byte, 10)))
	require.ErrorIs(t, err, ErrShortRead)
}

func TestKindStringTrimsPadding(t *testing.T) {
	var h SectionHeader
	copy(h.TypeDefinition[:], "table2")
	require.Equal(t, Kind("table2"), h.KindString())
}
