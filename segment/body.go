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
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// ErrTableCRCMismatch is returned when a table section's entry array
// fails its trailing Adler-32 check.
var ErrTableCRCMismatch = fmt.Errorf("segment: table checksum mismatch")

// ReadVolumeDescriptor parses a volume/disk section payload (the
// 1052-byte long form, the 94-byte short form, or the EWF2 variant,
// normalized to one VolumeDescriptor, per SPEC_FULL.md §4.4).
func ReadVolumeDescriptor(payload []byte, variant Variant) (*VolumeDescriptor, error) {
	switch {
	case variant == VariantEWF2:
		return readVolumeEWF2(payload)
	case len(payload) >= 1052:
		return readDiskSMART(payload)
	case len(payload) >= 94:
		return readEWFSpecification94(payload)
	default:
		return nil, fmt.Errorf("segment: volume/disk payload too short (%d bytes)", len(payload))
	}
}

func readDiskSMART(payload []byte) (*VolumeDescriptor, error) {
	var d diskSMART1052
	if err := binary.Read(bytes.NewReader(payload), byteOrder, &d); err != nil {
		return nil, fmt.Errorf("segment: decode disk/volume (long form): %w", err)
	}
	return &VolumeDescriptor{
		MediaType:        d.MediaType,
		MediaFlags:       d.MediaFlag,
		NumberOfChunks:   d.ChunkCount,
		SectorsPerChunk:  d.ChunkSectors,
		BytesPerSector:   d.SectorBytes,
		NumberOfSectors:  d.SectorsCount,
		CHSCylinders:     d.CHSCylinders,
		CHSHeads:         d.CHSHeads,
		CHSSectors:       d.CHSSectors,
		CompressionLevel: d.CompressionLevel,
		ErrorGranularity: d.ErrorGranularity,
		SetIdentifier:    d.SetIdentifier,
	}, nil
}

func readEWFSpecification94(payload []byte) (*VolumeDescriptor, error) {
	var s ewfSpecification94
	if err := binary.Read(bytes.NewReader(payload), byteOrder, &s); err != nil {
		return nil, fmt.Errorf("segment: decode volume (short form): %w", err)
	}
	return &VolumeDescriptor{
		NumberOfChunks:  s.ChunkCount,
		SectorsPerChunk: s.ChunkSectors,
		BytesPerSector:  s.SectorBytes,
		NumberOfSectors: uint64(s.SectorCounts),
	}, nil
}

// ewf2VolumeSection is the EWF2 volume section's fixed layout: it adds
// chunk_ratio and folds the classic media descriptor fields into the
// same record (SPEC_FULL.md §4.4 — not elaborated in spec.md's
// dispatch table, so fixed here as this package's documented choice).
type ewf2VolumeSection struct {
	MediaType        uint8
	MediaFlags       uint8
	_                [2]byte
	NumberOfChunks   uint32
	SectorsPerChunk  uint32
	BytesPerSector   uint32
	NumberOfSectors  uint64
	ChunkRatio       uint32
	ErrorGranularity uint32
	CompressionLevel uint8
	_                [3]byte
	SetIdentifier    [16]byte
}

func readVolumeEWF2(payload []byte) (*VolumeDescriptor, error) {
	var v ewf2VolumeSection
	if len(payload) < binary.Size(v) {
		return nil, fmt.Errorf("segment: ewf2 volume payload too short (%d bytes)", len(payload))
	}
	if err := binary.Read(bytes.NewReader(payload), byteOrder, &v); err != nil {
		return nil, fmt.Errorf("segment: decode ewf2 volume: %w", err)
	}
	return &VolumeDescriptor{
		MediaType:        v.MediaType,
		MediaFlags:       v.MediaFlags,
		NumberOfChunks:   v.NumberOfChunks,
		SectorsPerChunk:  v.SectorsPerChunk,
		BytesPerSector:   v.BytesPerSector,
		NumberOfSectors:  v.NumberOfSectors,
		CompressionLevel: v.CompressionLevel,
		ErrorGranularity: v.ErrorGranularity,
		SetIdentifier:    v.SetIdentifier,
		ChunkRatio:       v.ChunkRatio,
	}, nil
}

// ReconcileVolumeDescriptors enforces that every segment's media
// descriptor agrees on identity fields (spec §4.4: "identical fields
// are required; conflicts are fatal").
func ReconcileVolumeDescriptors(a, b *VolumeDescriptor) error {
	switch {
	case a.MediaType != b.MediaType,
		a.SectorsPerChunk != b.SectorsPerChunk,
		a.BytesPerSector != b.BytesPerSector,
		a.SetIdentifier != b.SetIdentifier:
		return fmt.Errorf("segment: conflicting media descriptor across segments")
	}
	return nil
}

// Table is a parsed table (or table2) section: the base offset and the
// ordered entry array.
type Table struct {
	BaseOffset uint64
	Entries    []TableEntry
}

// ReadTable parses a table/table2 section payload, verifying the
// trailing Adler-32 over the entry array (spec §6, "Table section").
func ReadTable(payload []byte) (*Table, error) {
	if len(payload) < 24 {
		return nil, fmt.Errorf("segment: table payload too short (%d bytes)", len(payload))
	}
	var h tableHeader
	if err := binary.Read(bytes.NewReader(payload[:24]), byteOrder, &h); err != nil {
		return nil, fmt.Errorf("segment: decode table header: %w", err)
	}
	if adler32Of(payload[:20]) != h.Checksum {
		return nil, fmt.Errorf("%w: header", ErrTableCRCMismatch)
	}

	entryBytes := payload[24:]
	wantLen := int(h.NumberOfEntries)*4 + 4
	if len(entryBytes) < wantLen {
		return nil, fmt.Errorf("segment: table entry array too short: have %d want %d", len(entryBytes), wantLen)
	}
	body, err := verifyAdler32(entryBytes[:wantLen])
	if err != nil {
		return nil, fmt.Errorf("%w: entry array", ErrTableCRCMismatch)
	}

	entries := make([]TableEntry, h.NumberOfEntries)
	for i := range entries {
		entries[i] = TableEntry(byteOrder.Uint32(body[i*4:]))
	}
	return &Table{BaseOffset: h.BaseOffset, Entries: entries}, nil
}

func adler32Of(b []byte) uint32 {
	full := appendAdler32(b)
	return byteOrder.Uint32(full[len(b):])
}

// WriteTable serializes a table/table2 section payload (header +
// entries + trailing checksum), mirroring ReadTable.
func WriteTable(baseOffset uint64, entries []TableEntry) []byte {
	var buf bytes.Buffer
	h := tableHeader{
		NumberOfEntries: uint32(len(entries)),
		BaseOffset:      baseOffset,
	}
	binary.Write(&buf, byteOrder, h.NumberOfEntries)
	binary.Write(&buf, byteOrder, h.Padding1)
	binary.Write(&buf, byteOrder, h.BaseOffset)
	binary.Write(&buf, byteOrder, h.Padding2)
	h.Checksum = adler32Of(buf.Bytes())
	binary.Write(&buf, byteOrder, h.Checksum)

	entryBuf := make([]byte, len(entries)*4)
	for i, e := range entries {
		byteOrder.PutUint32(entryBuf[i*4:], uint32(e))
	}
	buf.Write(appendAdler32(entryBuf))
	return buf.Bytes()
}

// ErrorRange is one (start_sector, sector_count) pair from an error2
// section.
type ErrorRange struct {
	StartSector uint32
	SectorCount uint32
}

// ReadError2 parses an error2 section payload into its list of bad
// sector ranges (spec §4.4).
func ReadError2(payload []byte) ([]ErrorRange, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("segment: error2 payload too short")
	}
	count := byteOrder.Uint32(payload[:4])
	body := payload[4:]
	const entrySize = 8
	if uint32(len(body)) < count*entrySize {
		return nil, fmt.Errorf("segment: error2 entry array truncated")
	}
	out := make([]ErrorRange, count)
	for i := range out {
		var e error2Entry
		if err := binary.Read(bytes.NewReader(body[i*entrySize:(i+1)*entrySize]), byteOrder, &e); err != nil {
			return nil, fmt.Errorf("segment: decode error2 entry %d: %w", i, err)
		}
		out[i] = ErrorRange{StartSector: e.StartSector, SectorCount: e.SectorCount}
	}
	return out, nil
}

// Session is one (flags, start_sector) pair from a session section.
type Session struct {
	Flags       uint32
	StartSector uint32
}

// ReadSessions parses a session section payload (spec §4.4).
func ReadSessions(payload []byte) ([]Session, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("segment: session payload too short")
	}
	count := byteOrder.Uint32(payload[:4])
	body := payload[4:]
	const entrySize = 8
	if uint32(len(body)) < count*entrySize {
		return nil, fmt.Errorf("segment: session entry array truncated")
	}
	out := make([]Session, count)
	for i := range out {
		var e sessionEntry
		if err := binary.Read(bytes.NewReader(body[i*entrySize:(i+1)*entrySize]), byteOrder, &e); err != nil {
			return nil, fmt.Errorf("segment: decode session entry %d: %w", i, err)
		}
		out[i] = Session{Flags: e.Flags, StartSector: e.StartSector}
	}
	return out, nil
}

// Digest holds whichever of MD5/SHA1 a digest or hash section carries.
type Digest struct {
	MD5     [16]byte
	HasMD5  bool
	SHA1    [20]byte
	HasSHA1 bool
}

// ReadDigest parses a digest/hash section payload (spec §4.4): a
// 16-byte MD5 and/or a 20-byte SHA1 of the whole acquired media.
func ReadDigest(payload []byte) (Digest, error) {
	var d Digest
	switch len(payload) {
	case 16:
		copy(d.MD5[:], payload)
		d.HasMD5 = true
	case 20:
		copy(d.SHA1[:], payload)
		d.HasSHA1 = true
	case 36:
		copy(d.MD5[:], payload[:16])
		d.HasMD5 = true
		copy(d.SHA1[:], payload[16:36])
		d.HasSHA1 = true
	default:
		return d, fmt.Errorf("segment: unexpected digest/hash payload length %d", len(payload))
	}
	return d, nil
}

// InflateXHeader decompresses an xheader section's zlib payload,
// returning the opaque UTF-8 XML blob unparsed (Non-goal: textual
// header grammar is out of scope, SPEC_FULL.md §4.4).
func InflateXHeader(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("segment: xheader zlib: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
