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

// Package segment parses and writes EWF/EWF2/logical-evidence segment
// files: the file signature and post-signature header, the 76-byte
// section framing chain, and the volume/disk, table/table2, sectors,
// error2, session, digest/hash, ltype/ltree and done/next section
// bodies. It does not interpret chunk payload bytes beyond locating
// them — decompression, decryption, and checksum verification of chunk
// contents is the media layer's job (package media); this package's
// job ends at handing out exact byte ranges and parsed section bodies.
package segment

import "encoding/binary"

// SectionHeaderSize is the fixed 76-byte section header (spec §6).
const SectionHeaderSize = 76

// Kind is a 16-byte, NUL-padded ASCII section type tag.
type Kind string

const (
	KindHeader  Kind = "header"
	KindHeader2 Kind = "header2"
	KindXHeader Kind = "xheader"
	KindVolume  Kind = "volume"
	KindDisk    Kind = "disk"
	KindData    Kind = "data"
	KindSectors Kind = "sectors"
	KindTable   Kind = "table"
	KindTable2  Kind = "table2"
	KindError2  Kind = "error2"
	KindSession Kind = "session"
	KindDigest  Kind = "digest"
	KindHash    Kind = "hash"
	KindLtype   Kind = "ltype"
	KindLtree   Kind = "ltree"
	KindDone    Kind = "done"
	KindNext    Kind = "next"
)

// SectionHeader is the 76-byte framing header preceding every section's
// payload, laid out exactly per spec §6.
type SectionHeader struct {
	TypeDefinition [16]byte
	NextOffset     uint64
	Size           uint64
	Padding        [40]byte
	Checksum       uint32
}

// KindString trims the NUL padding from TypeDefinition.
func (h *SectionHeader) KindString() Kind {
	n := 0
	for n < len(h.TypeDefinition) && h.TypeDefinition[n] != 0 {
		n++
	}
	return Kind(h.TypeDefinition[:n])
}

func kindBytes(k Kind) [16]byte {
	var out [16]byte
	copy(out[:], k)
	return out
}

// byteOrder is the wire byte order for every multi-byte field in the
// format: little-endian throughout (spec §6).
var byteOrder = binary.LittleEndian

// FileSignatureSize is the 8-byte magic preceding every segment file.
const FileSignatureSize = 8

var (
	// SignatureEWF1 marks a classic (.E01) segment file.
	SignatureEWF1 = [FileSignatureSize]byte{0x45, 0x56, 0x46, 0x09, 0x0D, 0x0A, 0xFF, 0x00}
	// SignatureLVF marks a logical evidence (.L01) segment file.
	SignatureLVF = [FileSignatureSize]byte{0x4C, 0x56, 0x46, 0x09, 0x0D, 0x0A, 0xFF, 0x00}
	// SignatureEWF2 marks an EWF2 (.Ex01) segment file.
	SignatureEWF2 = [FileSignatureSize]byte{0x45, 0x56, 0x46, 0x32, 0x0D, 0x0A, 0x81, 0x00}
)

// Variant distinguishes the three segment-file families named in §6.
type Variant int

const (
	VariantEWF1 Variant = iota
	VariantEWF2
	VariantLogical
)

func (v Variant) String() string {
	switch v {
	case VariantEWF1:
		return "ewf1"
	case VariantEWF2:
		return "ewf2"
	case VariantLogical:
		return "logical"
	default:
		return "unknown"
	}
}

// FileHeaderV1 is the 5-byte post-signature header for EWF1/logical
// segment files: fields_start, segment_number (LE u16 split across two
// bytes), fields_end.
type FileHeaderV1 struct {
	FieldsStart   uint8
	SegmentNumber uint16
	FieldsEnd     uint16
}

// FileHeaderV2 is the EWF2 post-signature header. §6 names the variant
// without giving its byte layout; this struct is this package's
// documented choice (SPEC_FULL.md §6): fields_start, a 32-bit segment
// number (EWF2 supports more than 65535 segments), a sector-size byte,
// and fields_end, for the same 5-byte-plus-wide-segment-number budget
// the format allots the v2 header.
type FileHeaderV2 struct {
	FieldsStart   uint8
	SegmentNumber uint32
	SectorSize    uint8
	FieldsEnd     uint16
}

// VolumeDescriptor normalizes the legacy 94-byte EWFSpecification, the
// 1052-byte DiskSMART form, and the EWF2 volume section to one shape
// (SPEC_FULL.md §4.4).
type VolumeDescriptor struct {
	MediaType         uint8
	MediaFlags        uint8
	NumberOfChunks    uint32
	SectorsPerChunk   uint32
	BytesPerSector    uint32
	NumberOfSectors   uint64
	CHSCylinders      uint32
	CHSHeads          uint32
	CHSSectors        uint32
	CompressionLevel  uint8
	ErrorGranularity  uint32
	SetIdentifier     [16]byte
	// ChunkRatio is EWF2-only: the number of chunks per sectors-section,
	// absent from the EWF1 wire form (SPEC_FULL.md §4.4).
	ChunkRatio uint32
}

// ChunkSize returns sectors_per_chunk * bytes_per_sector.
func (v *VolumeDescriptor) ChunkSize() uint32 {
	return v.SectorsPerChunk * v.BytesPerSector
}

// ewfSpecification94 is the legacy 94-byte short form (spec.md §4.4,
// "Volume and Disk" in the reference ewfgo parser).
type ewfSpecification94 struct {
	Reserved     uint32
	ChunkCount   uint32
	ChunkSectors uint32
	SectorBytes  uint32
	SectorCounts uint32
	Reserved2    [20]byte
	Padding      [45]byte
	Signature    [5]byte
	Checksum     uint32
}

// diskSMART1052 is the 1052-byte long form laid out bit-exactly per
// spec §6: media_type@0, number_of_chunks@4, sectors_per_chunk@8,
// bytes_per_sector@12, number_of_sectors@16, chs_cylinders/heads/
// sectors@24/28/32, media_flags@36, compression_level@197,
// error_granularity@198, set_identifier@208, signature@224, trailing
// Adler-32 of the preceding 1048 bytes. spec §6 doesn't define the
// reserved region between media_flags and compression_level (bytes
// 37..196, where real EnCase volume sections carry PALM/SMART-log
// fields this specification doesn't document the sub-layout of), so
// it's left as opaque padding rather than guessing at undocumented
// sub-offsets.
type diskSMART1052 struct {
	MediaType        uint8
	Space            [3]byte
	ChunkCount       uint32
	ChunkSectors     uint32
	SectorBytes      uint32
	SectorsCount     uint64
	CHSCylinders     uint32
	CHSHeads         uint32
	CHSSectors       uint32
	MediaFlag        uint8
	Reserved         [160]byte // bytes 37..196, undocumented by spec §6
	CompressionLevel uint8
	ErrorGranularity uint32
	Space2           [6]byte // bytes 202..207, pad to set_identifier@208
	SetIdentifier    [16]byte
	Signature        [5]byte
	Space3           [819]byte // bytes 229..1047, pad to the trailing checksum
	Checksum         uint32
}

// tableHeader is the fixed part of a table/table2 section (spec §6).
type tableHeader struct {
	NumberOfEntries uint32
	Padding1        uint32
	BaseOffset      uint64
	Padding2        uint32
	Checksum        uint32
}

// TableEntry is one 32-bit table entry: bit 31 is the compressed flag,
// bits 0..30 are the raw offset (spec §6).
type TableEntry uint32

const tableEntryCompressedBit = uint32(1) << 31

// Compressed reports the entry's bit 31.
func (e TableEntry) Compressed() bool {
	return uint32(e)&tableEntryCompressedBit != 0
}

// RawOffset returns bits 0..30.
func (e TableEntry) RawOffset() uint32 {
	return uint32(e) &^ tableEntryCompressedBit
}

// error2Entry is one (start_sector, sector_count) pair (spec §4.4).
type error2Entry struct {
	StartSector uint32
	SectorCount uint32
}

// sessionEntry is one (flags, start_sector) pair (spec §4.4).
type sessionEntry struct {
	Flags       uint32
	StartSector uint32
}
