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
	"fmt"
	"hash/adler32"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"

	"github.com/sleuthgo/ewf/chunkcache"
	"github.com/sleuthgo/ewf/fdpool"
	"github.com/sleuthgo/ewf/segment"
)

// AcquisitionConfig carries the geometry and policy needed to start a
// new acquisition (spec §4.7 "open(paths[], access)" for the write
// side); the acqconfig package is the usual source of these values.
type AcquisitionConfig struct {
	BaseName         string // path prefix; ".E01" etc. is appended per segment
	MediaType        uint8
	SectorsPerChunk  uint32
	BytesPerSector   uint32
	NumberOfSectors  uint64
	CompressionLevel uint8 // 0 none, 1 good, 2 best (maps to flate levels below)
	SegmentCapBytes  uint64
}

// OpenWrite begins a new acquisition, creating the first segment file
// and writing its volume/disk section (spec §4.7 "open" for
// acquisition, state transition new --open_write--> open_acq).
func (e *Engine) OpenWrite(cfg AcquisitionConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateNew {
		return fmt.Errorf("%w: from %s", ErrInvalidTransition, e.state)
	}

	numberOfChunks := cfg.NumberOfSectors / uint64(cfg.SectorsPerChunk)
	if cfg.NumberOfSectors%uint64(cfg.SectorsPerChunk) != 0 {
		numberOfChunks++
	}
	e.volume = &segment.VolumeDescriptor{
		MediaType:        cfg.MediaType,
		NumberOfChunks:   uint32(numberOfChunks),
		SectorsPerChunk:  cfg.SectorsPerChunk,
		BytesPerSector:   cfg.BytesPerSector,
		NumberOfSectors:  cfg.NumberOfSectors,
		CompressionLevel: cfg.CompressionLevel,
	}
	// set_identifier is a per-acquisition random GUID (EnCase6 convention)
	// distinguishing segments of this acquisition from any other, even if
	// they share a base name; generated fresh every OpenWrite.
	id := uuid.New()
	copy(e.volume.SetIdentifier[:], id[:])
	e.chunkSize = e.volume.ChunkSize()
	e.mediaSize = cfg.NumberOfSectors * uint64(cfg.BytesPerSector)
	e.segmentCapBytes = cfg.SegmentCapBytes

	if err := e.rollSegmentLocked(cfg.BaseName, 1); err != nil {
		return err
	}
	e.state = StateOpenAcquiring
	e.logger.Debug().Str("base_name", cfg.BaseName).Msg("acquisition started")
	return nil
}

func (e *Engine) rollSegmentLocked(baseName string, segmentNumber int) error {
	ext, err := segment.Extension(segment.VariantEWF1, segmentNumber)
	if err != nil {
		return err
	}
	path := baseName + ext
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("media: create segment %s: %w", path, err)
	}

	wr, err := segment.NewWriter(f, segment.VariantEWF1, segmentNumber)
	if err != nil {
		f.Close()
		return err
	}
	if err := wr.WriteVolume(e.volume); err != nil {
		f.Close()
		return err
	}
	if err := wr.BeginSectors(); err != nil {
		f.Close()
		return err
	}

	poolID := e.pool.Add(path, fdpool.AccessWriteTruncate)
	e.segments = append(e.segments, segmentRecord{path: path, segmentNumber: segmentNumber, poolID: poolID})
	e.writer = wr
	e.currentSegment = segmentNumber

	// The writer already owns an *os.File it opened directly (needed so
	// Writer can Seek to patch section headers); the pool entry only
	// registers the same path, opened with AccessWriteTruncate. No chunk
	// table is built while writing, so after Finalize reads of the
	// acquired data do not resolve; reading the image back requires
	// opening it again with OpenRead.
	e.writerFile = f
	return nil
}

// WriteBuffer appends data to the active acquisition at the engine's
// current logical write offset, compressing/encoding whole chunks as
// they fill and rolling to a new segment when the size cap is reached
// (spec §4.7 "Write algorithm").
func (e *Engine) WriteBuffer(data []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateOpenAcquiring {
		return 0, ErrReadOnly
	}

	written := 0
	for len(data) > 0 {
		chunkIndex := int(e.offset / int64(e.chunkSize))
		inChunk := int(e.offset % int64(e.chunkSize))
		n := int(e.chunkSize) - inChunk
		if n > len(data) {
			n = len(data)
		}

		// Partial chunks accumulate in the cache as a dirty entry until a
		// full chunk is available to flush (spec §4.6 "consistency with
		// writes").
		existing, _ := e.cache.Get(chunkIndex)
		buf := make([]byte, e.chunkSize)
		copy(buf, existing)
		copy(buf[inChunk:], data[:n])
		e.cache.Put(chunkIndex, buf, true)

		data = data[n:]
		e.offset += int64(n)
		written += n

		if inChunk+n == int(e.chunkSize) {
			if err := e.flushChunkLocked(chunkIndex, buf); err != nil {
				return written, err
			}
		}

		if sz, err := e.writerFile.Seek(0, io.SeekCurrent); err == nil && e.segmentCapBytes > 0 && uint64(sz) >= e.segmentCapBytes {
			if err := e.rollOverLocked(); err != nil {
				return written, err
			}
		}
	}
	if uint64(e.offset) > e.mediaSize {
		e.mediaSize = uint64(e.offset)
	}
	return written, nil
}

func (e *Engine) flushChunkLocked(chunkIndex int, plaintext []byte) error {
	var encoded []byte
	compressed := false
	if e.volume.CompressionLevel != 0 {
		var buf bytes.Buffer
		level := flate.DefaultCompression
		if e.volume.CompressionLevel == 2 {
			level = flate.BestCompression
		}
		fw, err := flate.NewWriter(&buf, level)
		if err != nil {
			return fmt.Errorf("media: deflate writer: %w", err)
		}
		if _, err := fw.Write(plaintext); err != nil {
			return err
		}
		if err := fw.Close(); err != nil {
			return err
		}
		if buf.Len() < len(plaintext) {
			encoded = buf.Bytes()
			compressed = true
		}
	}
	if encoded == nil {
		trailer := adler32.Checksum(plaintext)
		encoded = make([]byte, len(plaintext)+4)
		copy(encoded, plaintext)
		putUint32LE(encoded[len(plaintext):], trailer)
	}

	if err := e.writer.AppendChunk(encoded, compressed); err != nil {
		return err
	}
	e.cache.MarkClean(chunkIndex)
	return nil
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// flushDirtyLocked flushes any chunk still marked dirty in the cache
// (a final partial chunk that never filled), zero-padding it to a full
// chunk before encoding, so sectors sections only ever hold
// whole-chunk payloads (spec §4.4).
func (e *Engine) flushDirtyLocked() error {
	var flushErr error
	e.cache.IterDirty(func(entry chunkcache.Entry) {
		if flushErr != nil {
			return
		}
		padded := entry.Data
		if len(padded) < int(e.chunkSize) {
			padded = make([]byte, e.chunkSize)
			copy(padded, entry.Data)
		}
		flushErr = e.flushChunkLocked(entry.ChunkIndex, padded)
	})
	return flushErr
}

// rollOverLocked closes the current segment's sectors/table/table2,
// emits a next terminator, and opens a fresh segment (spec §4.7, §4.4
// "Write").
func (e *Engine) rollOverLocked() error {
	if err := e.flushDirtyLocked(); err != nil {
		return err
	}
	if err := e.writer.CloseSectors(); err != nil {
		return err
	}
	if err := e.writer.Finalize(false); err != nil {
		return err
	}
	if err := e.writerFile.Close(); err != nil {
		return err
	}

	baseName := e.segments[len(e.segments)-1].path
	ext, err := segment.Extension(segment.VariantEWF1, e.currentSegment)
	if err != nil {
		return err
	}
	baseName = baseName[:len(baseName)-len(ext)]
	return e.rollSegmentLocked(baseName, e.currentSegment+1)
}

// finalizeAcquisitionLocked closes out the final segment with a done
// terminator (state transition open_acq --finalize--> open_ro).
func (e *Engine) finalizeAcquisitionLocked() error {
	if err := e.flushDirtyLocked(); err != nil {
		return err
	}
	if err := e.writer.CloseSectors(); err != nil {
		return err
	}
	if err := e.writer.Finalize(true); err != nil {
		return err
	}
	if err := e.writerFile.Close(); err != nil {
		return err
	}
	e.writer = nil
	e.writerFile = nil
	e.state = StateOpenReadOnly
	return nil
}
