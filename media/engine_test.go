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

package media

import (
	"hash/adler32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sleuthgo/ewf/segment"
)

// writeSingleSegment builds one segment file with the given chunk
// payloads (already checksummed, as AppendChunk expects) and returns
// its path — modeling seed scenario S1/S2/S3 setups without going
// through a real acquisition.
func writeSingleSegment(t *testing.T, dir string, numberOfChunks uint32, sectorsPerChunk, bytesPerSector uint32, chunks [][]byte, sparse int) string {
	t.Helper()
	path := filepath.Join(dir, "image.E01")
	f, err := os.Create(path)
	require.NoError(t, err)

	wr, err := segment.NewWriter(f, segment.VariantEWF1, 1)
	require.NoError(t, err)

	vol := &segment.VolumeDescriptor{
		NumberOfChunks:  numberOfChunks,
		SectorsPerChunk: sectorsPerChunk,
		BytesPerSector:  bytesPerSector,
		NumberOfSectors: uint64(numberOfChunks * sectorsPerChunk),
	}
	require.NoError(t, wr.WriteVolume(vol))
	require.NoError(t, wr.BeginSectors())
	for i, c := range chunks {
		if i == sparse {
			require.NoError(t, wr.AppendSparseChunk())
			continue
		}
		require.NoError(t, wr.AppendChunk(c, false))
	}
	require.NoError(t, wr.CloseSectors())
	require.NoError(t, wr.Finalize(true))
	require.NoError(t, f.Close())
	return path
}

func rawChunk(fill byte, size int) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = fill
	}
	sum := adler32.Checksum(payload)
	out := make([]byte, size+4)
	copy(out, payload)
	out[size] = byte(sum)
	out[size+1] = byte(sum >> 8)
	out[size+2] = byte(sum >> 16)
	out[size+3] = byte(sum >> 24)
	return out
}

func TestOpenReadAndReadBufferRoundTrip(t *testing.T) {
	dir := t.TempDir()
	chunkBytes := 512
	chunks := [][]byte{rawChunk(0xAA, chunkBytes), rawChunk(0xBB, chunkBytes)}
	path := writeSingleSegment(t, dir, 2, 1, uint32(chunkBytes), chunks, -1)

	e := New()
	require.NoError(t, e.OpenRead([]string{path}))
	require.Equal(t, StateOpenReadOnly, e.State())
	require.Equal(t, uint64(2*chunkBytes), e.GetMediaSize())

	out, err := e.ReadBuffer(chunkBytes)
	require.NoError(t, err)
	require.Equal(t, chunks[0][:chunkBytes], out)

	out, err = e.ReadBuffer(chunkBytes)
	require.NoError(t, err)
	require.Equal(t, chunks[1][:chunkBytes], out)

	// Past end-of-media: zero bytes, no error.
	out, err = e.ReadBuffer(10)
	require.NoError(t, err)
	require.Empty(t, out)

	require.NoError(t, e.Close())
}

func TestReadBufferCrossesChunkBoundary(t *testing.T) {
	dir := t.TempDir()
	chunkBytes := 16
	chunks := [][]byte{rawChunk(0x11, chunkBytes), rawChunk(0x22, chunkBytes)}
	path := writeSingleSegment(t, dir, 2, 1, uint32(chunkBytes), chunks, -1)

	e := New()
	require.NoError(t, e.OpenRead([]string{path}))

	_, err := e.Seek(int64(chunkBytes-4), SeekSet)
	require.NoError(t, err)

	out, err := e.ReadBuffer(8)
	require.NoError(t, err)
	require.Len(t, out, 8)
	require.Equal(t, []byte{0x11, 0x11, 0x11, 0x11}, out[:4])
	require.Equal(t, []byte{0x22, 0x22, 0x22, 0x22}, out[4:])
}

func TestSparseChunkReadsAsZero(t *testing.T) {
	dir := t.TempDir()
	chunkBytes := 32
	chunks := [][]byte{rawChunk(0xFF, chunkBytes), rawChunk(0xFF, chunkBytes)}
	path := writeSingleSegment(t, dir, 2, 1, uint32(chunkBytes), chunks, 0)

	e := New()
	require.NoError(t, e.OpenRead([]string{path}))

	out, err := e.ReadBuffer(chunkBytes)
	require.NoError(t, err)
	for _, b := range out {
		require.Equal(t, byte(0), b)
	}
}

func TestSeekRejectsNegativeOffset(t *testing.T) {
	dir := t.TempDir()
	chunkBytes := 16
	path := writeSingleSegment(t, dir, 1, 1, uint32(chunkBytes), [][]byte{rawChunk(0x01, chunkBytes)}, -1)

	e := New()
	require.NoError(t, e.OpenRead([]string{path}))

	_, err := e.Seek(-1, SeekSet)
	require.ErrorIs(t, err, ErrNegativeOffset)
}

func TestSeekClampsToMediaSizeOnReadOnly(t *testing.T) {
	dir := t.TempDir()
	chunkBytes := 16
	path := writeSingleSegment(t, dir, 1, 1, uint32(chunkBytes), [][]byte{rawChunk(0x01, chunkBytes)}, -1)

	e := New()
	require.NoError(t, e.OpenRead([]string{path}))

	off, err := e.Seek(1000, SeekSet)
	require.NoError(t, err)
	require.Equal(t, int64(chunkBytes), off)
}

func TestOpenReadRejectsEmptyPathList(t *testing.T) {
	e := New()
	err := e.OpenRead(nil)
	require.ErrorIs(t, err, ErrNoSegments)
}

func TestWriteBufferRejectedWhenReadOnly(t *testing.T) {
	dir := t.TempDir()
	chunkBytes := 16
	path := writeSingleSegment(t, dir, 1, 1, uint32(chunkBytes), [][]byte{rawChunk(0x01, chunkBytes)}, -1)

	e := New()
	require.NoError(t, e.OpenRead([]string{path}))

	_, err := e.WriteBuffer([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestOpenReadTwiceIsInvalidTransition(t *testing.T) {
	dir := t.TempDir()
	chunkBytes := 16
	path := writeSingleSegment(t, dir, 1, 1, uint32(chunkBytes), [][]byte{rawChunk(0x01, chunkBytes)}, -1)

	e := New()
	require.NoError(t, e.OpenRead([]string{path}))
	err := e.OpenRead([]string{path})
	require.ErrorIs(t, err, ErrInvalidTransition)
}
