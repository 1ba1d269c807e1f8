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
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"io"
	"os"

	"github.com/klauspost/compress/flate"

	"github.com/sleuthgo/ewf/aescrypt"
)

// ReadBuffer implements read_buffer(handle, out, len) from spec §4.7:
// reads from the engine's current logical offset (set by Seek),
// advancing it by the number of bytes actually returned. Clamps to the
// remaining media size, then walks chunk-at-a-time, serving from the
// chunk cache on hit and resolving/decoding on miss.
func (e *Engine) ReadBuffer(length int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOpenReadOnly && e.state != StateOpenAcquiring {
		return nil, ErrNotOpen
	}
	offset := e.offset
	if length <= 0 || uint64(offset) >= e.mediaSize {
		return nil, nil // out-of-range offset is EOF, not an error (spec §4.7)
	}

	remaining := e.mediaSize - uint64(offset)
	if uint64(length) > remaining {
		length = int(remaining)
	}

	out := make([]byte, 0, length)
	pos := offset
	left := length
	for left > 0 {
		chunkIndex := int(uint64(pos) / uint64(e.chunkSize))
		inChunk := int(uint64(pos) % uint64(e.chunkSize))

		var chunkData []byte
		if data, ok := e.cache.Get(chunkIndex); ok {
			e.stats.CacheHits++
			chunkData = data
		} else {
			e.stats.CacheMisses++
			data, err := e.loadChunk(chunkIndex)
			if err != nil {
				return nil, err
			}
			e.cache.Put(chunkIndex, data, false)
			chunkData = data
		}

		n := len(chunkData) - inChunk
		if n > left {
			n = left
		}
		if n < 0 {
			n = 0
		}
		out = append(out, chunkData[inChunk:inChunk+n]...)
		pos += int64(n)
		left -= n
		if n == 0 {
			break // chunk shorter than expected; stop rather than loop forever
		}
	}
	e.offset += int64(len(out))
	return out, nil
}

// loadChunk resolves and decodes one chunk: sparse synthesis, segment
// read via the handle pool, optional inflate, checksum verification
// (raw chunks), and optional AES decryption (spec §4.7 step 2).
func (e *Engine) loadChunk(chunkIndex int) ([]byte, error) {
	entry, err := e.table.Resolve(chunkIndex)
	if err != nil {
		return nil, err
	}
	if entry.Sparse {
		return make([]byte, e.chunkSize), nil
	}

	rec, err := e.segmentRecordFor(entry.SegmentNumber)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = e.pool.WithOpen(rec.poolID, func(f *os.File) error {
		if _, serr := f.Seek(int64(entry.ByteOffset), io.SeekStart); serr != nil {
			return fmt.Errorf("media: seek segment %d: %w", entry.SegmentNumber, serr)
		}
		buf := make([]byte, entry.EncodedSize)
		if _, rerr := io.ReadFull(f, buf); rerr != nil {
			return fmt.Errorf("media: short read in segment %d: %w", entry.SegmentNumber, rerr)
		}
		raw = buf
		return nil
	})
	if err != nil {
		return nil, err
	}

	var payload []byte
	if entry.Compressed {
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		limited := io.LimitReader(fr, int64(e.chunkSize)+1)
		decoded, derr := io.ReadAll(limited)
		if derr != nil {
			e.stats.ChunkIntegrityFailures++
			return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, derr)
		}
		payload = decoded
	} else {
		if len(raw) < 4 {
			return nil, fmt.Errorf("%w: raw chunk too short for checksum trailer", ErrChunkIntegrityFailed)
		}
		body := raw[:len(raw)-4]
		trailer := binary.LittleEndian.Uint32(raw[len(raw)-4:])
		if adler32.Checksum(body) != trailer {
			e.stats.ChunkIntegrityFailures++
			return nil, ErrChunkIntegrityFailed
		}
		payload = body
	}

	if e.aes != nil {
		iv := chunkIV(chunkIndex)
		decrypted := make([]byte, len(payload))
		if err := e.aes.CBC(aescrypt.ModeDecrypt, iv, payload, decrypted); err != nil {
			return nil, fmt.Errorf("media: decrypt chunk %d: %w", chunkIndex, err)
		}
		payload = decrypted
	}

	return payload, nil
}

// chunkIV derives the per-chunk AES-CBC IV from the chunk index:
// little-endian, zero-padded to 16 bytes (spec §4.7). SPEC_FULL.md §9
// flags this derivation as unverified against reference images for
// write support; it is used here for decryption only, per §9's
// open-question decision.
func chunkIV(chunkIndex int) []byte {
	iv := make([]byte, 16)
	binary.LittleEndian.PutUint64(iv[:8], uint64(chunkIndex))
	return iv
}

func (e *Engine) segmentRecordFor(segmentNumber int) (*segmentRecord, error) {
	for i := range e.segments {
		if e.segments[i].segmentNumber == segmentNumber {
			return &e.segments[i], nil
		}
	}
	return nil, fmt.Errorf("media: no open segment file for segment number %d", segmentNumber)
}
