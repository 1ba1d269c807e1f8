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
	"os"
)

// ErrSignatureMismatch is returned when a segment file's leading 8
// bytes don't match any known signature.
var ErrSignatureMismatch = fmt.Errorf("segment: signature mismatch")

// SectorsRange records one sectors section's raw chunk byte range
// within its segment (spec §4.4: "record (segment, start_offset,
// end_offset) — the raw chunk bytes live here").
type SectorsRange struct {
	StartOffset uint64
	EndOffset   uint64
}

// ParsedSegment is the result of walking one segment file's section
// chain to completion.
type ParsedSegment struct {
	Variant       Variant
	SegmentNumber int

	Volume  *VolumeDescriptor
	Sectors []SectorsRange
	Tables  []*Table    // one per table section encountered, in order
	XHeader []byte      // opaque, decompressed (nil if absent)
	Errors  []ErrorRange
	Sessions []Session
	Digest  *Digest
	LtreeRaw []byte // raw ltype/ltree blob, handed to package fileentry

	// MmapTables holds any table/table2 section that was resolved via
	// ReadTableMmap instead of ReadTable (MmapTableThreshold exceeded);
	// the caller must Close each one once the segment is no longer in
	// use (media.Engine does this in its Close).
	MmapTables []*MmapTable

	// TableFallbacks counts how many times this segment's table section
	// failed its checksum and table2 was used instead (seed scenario S4).
	TableFallbacks int

	terminated bool
}

// ReadSeekerAt is the minimal handle surface this package needs: a
// segment file opened for reading via the handle pool.
type ReadSeekerAt interface {
	io.Reader
	io.Seeker
}

// DetectSignature reads and classifies the 8-byte file signature at
// the current position (which must be offset 0).
func DetectSignature(r io.Reader) (Variant, error) {
	var sig [FileSignatureSize]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	switch sig {
	case SignatureEWF1:
		return VariantEWF1, nil
	case SignatureLVF:
		return VariantLogical, nil
	case SignatureEWF2:
		return VariantEWF2, nil
	default:
		return 0, ErrSignatureMismatch
	}
}

// ReadFileHeader reads the post-signature header immediately following
// the 8-byte signature (8 bytes for EWF2, 5 bytes otherwise) and
// returns the segment number.
func ReadFileHeader(r io.Reader, variant Variant) (int, error) {
	if variant == VariantEWF2 {
		var h FileHeaderV2
		buf := make([]byte, 8) // fields_start(1) + segment_number(4) + sector_size(1) + fields_end(2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrShortRead, err)
		}
		h.FieldsStart = buf[0]
		h.SegmentNumber = binary.LittleEndian.Uint32(buf[1:5])
		h.SectorSize = buf[5]
		h.FieldsEnd = binary.LittleEndian.Uint16(buf[6:8])
		return int(h.SegmentNumber), nil
	}
	var h FileHeaderV1
	buf := make([]byte, 5)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	h.FieldsStart = buf[0]
	h.SegmentNumber = binary.LittleEndian.Uint16(buf[1:3])
	h.FieldsEnd = binary.LittleEndian.Uint16(buf[3:5])
	return int(h.SegmentNumber), nil
}

// ReadSegment walks r's entire section chain from the start of the
// file, dispatching each section by kind (spec §4.4's dispatch table).
// r must be positioned at offset 0; ReadSegment repositions it via
// Seek as it follows each section's NextOffset.
func ReadSegment(r ReadSeekerAt) (*ParsedSegment, error) {
	variant, err := DetectSignature(r)
	if err != nil {
		return nil, err
	}
	segNum, err := ReadFileHeader(r, variant)
	if err != nil {
		return nil, err
	}

	ps := &ParsedSegment{Variant: variant, SegmentNumber: segNum}

	var pendingTable *Table
	for {
		if ps.terminated {
			break
		}
		h, err := ReadSectionHeader(r)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", segNum, err)
		}

		payloadSize := int64(h.Size) - SectionHeaderSize
		if payloadSize < 0 {
			return nil, fmt.Errorf("segment %d: section %q has negative payload size", segNum, h.KindString())
		}

		kind := h.KindString()
		if (kind == KindTable || kind == KindTable2) && payloadSize > MmapTableThreshold {
			if f, ok := r.(*os.File); ok {
				payloadStart, err := r.Seek(0, io.SeekCurrent)
				if err != nil {
					return nil, fmt.Errorf("segment %d: locate table payload: %w", segNum, err)
				}
				mt, mmapErr := ReadTableMmap(f, payloadStart, payloadSize)
				if mmapErr == nil {
					ps.MmapTables = append(ps.MmapTables, mt)
					if kind == KindTable {
						err = handleTable(ps, mt.Table, nil, &pendingTable)
					} else {
						err = handleTable2(ps, mt.Table, nil, &pendingTable)
					}
					if err != nil {
						return nil, fmt.Errorf("segment %d section %q: %w", segNum, kind, err)
					}
					if _, err := r.Seek(payloadStart+payloadSize, io.SeekStart); err != nil {
						return nil, fmt.Errorf("segment %d: seek past mmapped table: %w", segNum, err)
					}
					goto next
				}
				// Mmap failed (e.g. unsupported filesystem); fall through to
				// the normal in-memory path below.
			}
		}
		if kind == KindSectors {
			// The sectors section carries the actual chunk bytes — often
			// the bulk of a multi-gigabyte image — so it is never buffered
			// into memory here. Record its byte range and skip over it; the
			// media layer reads individual chunks from it later using the
			// offsets resolved from the paired table section.
			payloadStart, err := r.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, fmt.Errorf("segment %d: locate sectors payload: %w", segNum, err)
			}
			ps.Sectors = append(ps.Sectors, SectorsRange{
				StartOffset: uint64(payloadStart),
				EndOffset:   uint64(payloadStart) + uint64(payloadSize),
			})
		} else {
			payload := make([]byte, payloadSize)
			if payloadSize > 0 {
				if _, err := io.ReadFull(r, payload); err != nil {
					return nil, fmt.Errorf("segment %d section %q: %w", segNum, kind, ErrShortRead)
				}
			}
			if err := dispatchSection(ps, kind, payload, &pendingTable, variant); err != nil {
				return nil, fmt.Errorf("segment %d section %q: %w", segNum, kind, err)
			}
		}

	next:
		if ps.terminated {
			break
		}
		if h.NextOffset == 0 {
			return nil, fmt.Errorf("segment %d: section %q missing next-section offset before terminator", segNum, h.KindString())
		}
		if _, err := r.Seek(int64(h.NextOffset), io.SeekStart); err != nil {
			return nil, fmt.Errorf("segment %d: seek to next section: %w", segNum, err)
		}
	}
	return ps, nil
}

func dispatchSection(ps *ParsedSegment, kind Kind, payload []byte, pendingTable **Table, variant Variant) error {
	switch kind {
	case KindVolume, KindDisk:
		vol, err := ReadVolumeDescriptor(payload, variant)
		if err != nil {
			return err
		}
		if ps.Volume != nil {
			if err := ReconcileVolumeDescriptors(ps.Volume, vol); err != nil {
				return err
			}
		}
		ps.Volume = vol

	case KindTable:
		t, err := ReadTable(payload)
		return handleTable(ps, t, err, pendingTable)

	case KindTable2:
		t2, err := ReadTable(payload)
		return handleTable2(ps, t2, err, pendingTable)

	case KindError2:
		errs, err := ReadError2(payload)
		if err != nil {
			return err
		}
		ps.Errors = append(ps.Errors, errs...)

	case KindSession:
		sessions, err := ReadSessions(payload)
		if err != nil {
			return err
		}
		ps.Sessions = append(ps.Sessions, sessions...)

	case KindDigest, KindHash:
		d, err := ReadDigest(payload)
		if err != nil {
			return err
		}
		ps.Digest = &d

	case KindLtype, KindLtree:
		ps.LtreeRaw = payload

	case KindDone, KindNext:
		ps.terminated = true

	case KindHeader, KindHeader2, KindXHeader:
		xh, err := InflateXHeader(payload)
		if err == nil {
			ps.XHeader = xh
		}

	default:
		// Unknown/unsupported section kinds for this format version are
		// skipped rather than fatal, matching libewf's historical
		// tolerance of vendor extension sections it doesn't recognize.
	}
	return nil
}

// handleTable and handleTable2 implement the table/table2 CRC-fallback
// rule (spec §4.4) over an already-parsed table, independent of
// whether it came from an in-memory payload (ReadTable) or a
// memory-mapped one (ReadTableMmap) — shared by both the normal and
// large-table-mmap paths in ReadSegment.
func handleTable(ps *ParsedSegment, t *Table, err error, pendingTable **Table) error {
	if err != nil {
		// Defer to table2 per spec §4.4's CRC-fallback rule; record the
		// fallback but don't fail yet.
		ps.TableFallbacks++
		*pendingTable = nil
		return nil
	}
	*pendingTable = t
	ps.Tables = append(ps.Tables, t)
	return nil
}

func handleTable2(ps *ParsedSegment, t2 *Table, err error, pendingTable **Table) error {
	if err != nil {
		if *pendingTable == nil {
			return fmt.Errorf("%w: table and table2 both failed", ErrTableCRCMismatch)
		}
		// table2 also failed, but table already succeeded: nothing to do.
		return nil
	}
	if *pendingTable == nil {
		// table had failed; table2 rescues the chunk range.
		ps.Tables = append(ps.Tables, t2)
	}
	*pendingTable = nil
	return nil
}
