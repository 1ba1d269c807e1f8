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
	"encoding/binary"
	"fmt"
	"io"
)

// Writer mirrors the read path for acquisition: it emits the file
// signature, post-signature header, volume/disk section, a growing
// sectors section, and on roll-over/finalize the table/table2 pair and
// a next/done terminator (spec §4.4 "Write").
type Writer struct {
	w             io.WriteSeeker
	variant       Variant
	segmentNumber int

	sectorsStart   int64 // absolute offset where the open sectors section's payload begins
	sectorsSection bool  // true while a sectors section header has been written but not closed
	pendingEntries []TableEntry
	baseOffset     uint64

	lastHeaderOffset int64  // offset of the previous section's header, -1 if none yet
	lastKind         Kind   // kind of the section at lastHeaderOffset
	lastSize         uint64 // size field of the section at lastHeaderOffset
}

// NewWriter writes the file signature and post-signature header to w
// and returns a Writer ready to accept a volume/disk section.
func NewWriter(w io.WriteSeeker, variant Variant, segmentNumber int) (*Writer, error) {
	var sig [FileSignatureSize]byte
	switch variant {
	case VariantEWF2:
		sig = SignatureEWF2
	case VariantLogical:
		sig = SignatureLVF
	default:
		sig = SignatureEWF1
	}
	if _, err := w.Write(sig[:]); err != nil {
		return nil, fmt.Errorf("segment: write signature: %w", err)
	}

	if variant == VariantEWF2 {
		buf := make([]byte, 8)
		buf[0] = 1
		binary.LittleEndian.PutUint32(buf[1:5], uint32(segmentNumber))
		if _, err := w.Write(buf); err != nil {
			return nil, fmt.Errorf("segment: write ewf2 file header: %w", err)
		}
	} else {
		buf := make([]byte, 5)
		buf[0] = 1
		binary.LittleEndian.PutUint16(buf[1:3], uint16(segmentNumber))
		if _, err := w.Write(buf); err != nil {
			return nil, fmt.Errorf("segment: write file header: %w", err)
		}
	}

	return &Writer{w: w, variant: variant, segmentNumber: segmentNumber, lastHeaderOffset: -1}, nil
}

// writeSection writes one complete section (header + body), returning
// the absolute offset of the section header so the caller can patch in
// NextOffset once the following section's offset is known. The body
// passed in already excludes the 76-byte header.
func (wr *Writer) writeSection(kind Kind, body []byte) (headerOffset int64, err error) {
	headerOffset, err = wr.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("segment: locate section offset: %w", err)
	}
	if wr.lastHeaderOffset >= 0 {
		if err := wr.patchNextOffset(wr.lastHeaderOffset, headerOffset); err != nil {
			return 0, err
		}
	}

	size := uint64(SectionHeaderSize + len(body))
	if err := WriteSectionHeader(wr.w, kind, 0, size); err != nil {
		return 0, fmt.Errorf("segment: write %q header: %w", kind, err)
	}
	if len(body) > 0 {
		if _, err := wr.w.Write(body); err != nil {
			return 0, fmt.Errorf("segment: write %q body: %w", kind, err)
		}
	}
	wr.lastHeaderOffset = headerOffset
	wr.lastKind = kind
	wr.lastSize = size
	return headerOffset, nil
}

// patchNextOffset rewrites the section header at headerOffset (the most
// recently written one) with its NextOffset field (bytes [16:24)) set
// once the following section's start is known, recomputing the header
// checksum, then re-seeks to the end of the file.
func (wr *Writer) patchNextOffset(headerOffset, nextOffset int64) error {
	end, err := wr.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := wr.w.Seek(headerOffset, io.SeekStart); err != nil {
		return fmt.Errorf("segment: seek to patch next-offset: %w", err)
	}
	if err := WriteSectionHeader(wr.w, wr.lastKind, uint64(nextOffset), wr.lastSize); err != nil {
		return fmt.Errorf("segment: patch next-offset: %w", err)
	}
	_, err = wr.w.Seek(end, io.SeekStart)
	return err
}

// WriteVolume emits the volume/disk section. vol's size and chunk
// geometry must already be finalized (spec §4.4: "volume/disk ... sizes
// are known up front").
func (wr *Writer) WriteVolume(vol *VolumeDescriptor) error {
	d := diskSMART1052{
		MediaType:        vol.MediaType,
		ChunkCount:       vol.NumberOfChunks,
		ChunkSectors:     vol.SectorsPerChunk,
		SectorBytes:      vol.BytesPerSector,
		SectorsCount:     vol.NumberOfSectors,
		CHSCylinders:     vol.CHSCylinders,
		CHSHeads:         vol.CHSHeads,
		CHSSectors:       vol.CHSSectors,
		MediaFlag:        vol.MediaFlags,
		CompressionLevel: vol.CompressionLevel,
		ErrorGranularity: vol.ErrorGranularity,
		SetIdentifier:    vol.SetIdentifier,
	}
	copy(d.Signature[:], "main\x00")
	body := make([]byte, 0, 1052)
	body = appendBinary(body, d)
	d.Checksum = adler32Of(body[:len(body)-4])
	body = appendBinary(body[:0], d)

	_, err := wr.writeSection(KindVolume, body)
	return err
}

func appendBinary(dst []byte, v interface{}) []byte {
	// Minimal local helper kept private to this file: binary.Write needs
	// an io.Writer, so this adapts a growable []byte the same way
	// bytes.Buffer would, without pulling in a second allocation site per
	// call.
	buf := growableWriter{buf: dst}
	_ = binary.Write(&buf, byteOrder, v)
	return buf.buf
}

type growableWriter struct{ buf []byte }

func (g *growableWriter) Write(p []byte) (int, error) {
	g.buf = append(g.buf, p...)
	return len(p), nil
}

// BeginSectors opens a new sectors section for appending chunk bytes.
func (wr *Writer) BeginSectors() error {
	off, err := wr.writeSection(KindSectors, nil)
	if err != nil {
		return err
	}
	wr.sectorsStart = off + SectionHeaderSize
	wr.sectorsSection = true
	wr.baseOffset = uint64(wr.sectorsStart)
	return nil
}

// AppendChunk writes one already-encoded chunk (compressed or raw,
// with any trailing checksum/encryption already applied by the media
// layer) to the open sectors section and records its table entry.
func (wr *Writer) AppendChunk(encoded []byte, compressed bool) error {
	if !wr.sectorsSection {
		return fmt.Errorf("segment: AppendChunk called with no open sectors section")
	}
	pos, err := wr.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	rawOffset := uint32(pos - int64(wr.baseOffset))
	entry := TableEntry(rawOffset)
	if compressed {
		entry |= TableEntry(tableEntryCompressedBit)
	}
	wr.pendingEntries = append(wr.pendingEntries, entry)

	if _, err := wr.w.Write(encoded); err != nil {
		return fmt.Errorf("segment: append chunk: %w", err)
	}
	return nil
}

// AppendSparseChunk records a table entry for a chunk with no on-disk
// bytes at all (spec §6 "Sparse: no on-disk bytes; marker carried in
// the table entry's high bit combined with a zero encoded_size
// convention"). It shares its raw_offset with whatever entry follows
// it, which package chunktable reads as a zero-size (sparse) entry.
func (wr *Writer) AppendSparseChunk() error {
	if !wr.sectorsSection {
		return fmt.Errorf("segment: AppendSparseChunk called with no open sectors section")
	}
	pos, err := wr.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	rawOffset := uint32(pos - int64(wr.baseOffset))
	wr.pendingEntries = append(wr.pendingEntries, TableEntry(rawOffset))
	return nil
}

// CloseSectors closes the open sectors section by patching its size,
// emits table and table2, and clears the pending-entries buffer ready
// for the next segment (spec §4.4: "on segment roll-over, the current
// segment's sectors section is closed, its table/table2 are written").
func (wr *Writer) CloseSectors() error {
	if !wr.sectorsSection {
		return fmt.Errorf("segment: CloseSectors called with no open sectors section")
	}
	end, err := wr.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	sectionHeaderOffset := wr.sectorsStart - SectionHeaderSize
	if err := wr.patchSize(sectionHeaderOffset, uint64(end-sectionHeaderOffset)); err != nil {
		return err
	}
	wr.sectorsSection = false

	tableBody := WriteTable(wr.baseOffset, wr.pendingEntries)
	if _, err := wr.writeSection(KindTable, tableBody); err != nil {
		return err
	}
	if _, err := wr.writeSection(KindTable2, tableBody); err != nil {
		return err
	}
	wr.pendingEntries = nil
	return nil
}

// patchSize rewrites the open sectors section's header (the most
// recently written one, whose NextOffset is still 0) with its final
// size, recomputing the header checksum.
func (wr *Writer) patchSize(headerOffset int64, size uint64) error {
	end, err := wr.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := wr.w.Seek(headerOffset, io.SeekStart); err != nil {
		return fmt.Errorf("segment: seek to patch size: %w", err)
	}
	if err := WriteSectionHeader(wr.w, wr.lastKind, 0, size); err != nil {
		return fmt.Errorf("segment: patch size: %w", err)
	}
	wr.lastSize = size
	_, err = wr.w.Seek(end, io.SeekStart)
	return err
}

// Finalize writes the terminating section (next for a mid-acquisition
// roll-over, done for the last segment) and returns.
func (wr *Writer) Finalize(last bool) error {
	kind := KindNext
	if last {
		kind = KindDone
	}
	_, err := wr.writeSection(kind, nil)
	return err
}
