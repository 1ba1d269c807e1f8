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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableRoundTrip(t *testing.T) {
	entries := []TableEntry{
		TableEntry(0),
		TableEntry(100) | TableEntry(tableEntryCompressedBit),
		TableEntry(250),
	}
	payload := WriteTable(512, entries)

	parsed, err := ReadTable(payload)
	require.NoError(t, err)
	require.Equal(t, uint64(512), parsed.BaseOffset)
	require.Equal(t, entries, parsed.Entries)
	require.True(t, parsed.Entries[1].Compressed())
	require.Equal(t, uint32(100), parsed.Entries[1].RawOffset())
	require.False(t, parsed.Entries[0].Compressed())
}

// TestTableCRCFallback models seed scenario S4: corrupting the table's
// entry array must be detected so the caller knows to fall back to
// table2.
func TestTableCRCFallback(t *testing.T) {
	payload := WriteTable(0, []TableEntry{1, 2, 3})
	payload[len(payload)-5] ^= 0xFF // corrupt the last byte of the entry array

	_, err := ReadTable(payload)
	require.ErrorIs(t, err, ErrTableCRCMismatch)
}

func TestReadVolumeDescriptorShortForm(t *testing.T) {
	payload := make([]byte, 94)
	byteOrder.PutUint32(payload[4:8], 4)    // chunk count
	byteOrder.PutUint32(payload[8:12], 64)  // sectors per chunk
	byteOrder.PutUint32(payload[12:16], 512) // bytes per sector
	byteOrder.PutUint32(payload[16:20], 256) // sector counts

	vol, err := ReadVolumeDescriptor(payload, VariantEWF1)
	require.NoError(t, err)
	require.Equal(t, uint32(4), vol.NumberOfChunks)
	require.Equal(t, uint32(64*512), vol.ChunkSize())
}

func TestReadVolumeDescriptorTooShort(t *testing.T) {
	_, err := ReadVolumeDescriptor(make([]byte, 10), VariantEWF1)
	require.Error(t, err)
}

func TestReconcileVolumeDescriptorsConflict(t *testing.T) {
	a := &VolumeDescriptor{MediaType: 1, SectorsPerChunk: 64, BytesPerSector: 512}
	b := &VolumeDescriptor{MediaType: 1, SectorsPerChunk: 32, BytesPerSector: 512}
	require.Error(t, ReconcileVolumeDescriptors(a, b))

	c := &VolumeDescriptor{MediaType: 1, SectorsPerChunk: 64, BytesPerSector: 512}
	require.NoError(t, ReconcileVolumeDescriptors(a, c))
}

func TestReadError2AndSessions(t *testing.T) {
	errPayload := make([]byte, 4+16)
	byteOrder.PutUint32(errPayload[0:4], 2)
	byteOrder.PutUint32(errPayload[4:8], 100)
	byteOrder.PutUint32(errPayload[8:12], 10)
	byteOrder.PutUint32(errPayload[12:16], 500)
	byteOrder.PutUint32(errPayload[16:20], 20)

	ranges, err := ReadError2(errPayload)
	require.NoError(t, err)
	require.Equal(t, []ErrorRange{{100, 10}, {500, 20}}, ranges)

	sessPayload := make([]byte, 4+8)
	byteOrder.PutUint32(sessPayload[0:4], 1)
	byteOrder.PutUint32(sessPayload[4:8], 0)
	byteOrder.PutUint32(sessPayload[8:12], 0)

	sessions, err := ReadSessions(sessPayload)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func TestReadDigestLengths(t *testing.T) {
	d, err := ReadDigest(make([]byte, 16))
	require.NoError(t, err)
	require.True(t, d.HasMD5)
	require.False(t, d.HasSHA1)

	d, err = ReadDigest(make([]byte, 36))
	require.NoError(t, err)
	require.True(t, d.HasMD5)
	require.True(t, d.HasSHA1)

	_, err = ReadDigest(make([]byte, 5))
	require.Error(t, err)
}
