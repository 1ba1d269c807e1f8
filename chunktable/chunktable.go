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

// Package chunktable resolves a global chunk index to its physical
// location (segment, byte offset, encoded size, compression/sparse
// flags). It is built incrementally as table sections are encountered
// while walking the segment chain (package segment), represented as a
// two-level structure — one slice per table section, plus a cumulative
// entry-count prefix — so resolution is O(log T) in the number of
// table sections T rather than O(total chunks) (spec §4.5).
package chunktable

import (
	"fmt"
	"sort"
)

// Entry is one table entry resolved to absolute terms.
type Entry struct {
	SegmentNumber int
	ByteOffset    uint64
	EncodedSize   uint64
	Compressed    bool
	Sparse        bool
}

// section is one table section's contribution: the segment it belongs
// to, its entries already resolved to absolute byte offsets, and each
// entry's computed encoded size.
type section struct {
	segmentNumber int
	entries       []Entry
}

// Table is the two-level chunk index.
type Table struct {
	sections []section
	// prefix[i] is the total entry count across sections[0:i]; prefix has
	// len(sections)+1 elements, prefix[0] == 0.
	prefix []int
}

// New returns an empty Table.
func New() *Table {
	return &Table{prefix: []int{0}}
}

// LastChunkSizer supplies the encoded size of a table section's final
// entry (spec §4.4 table entry semantics, policy (b)): some format
// versions store it in a trailer field, others require deriving it
// from the containing sectors section's end offset (see DESIGN.md's
// open-question decision).
type LastChunkSizer interface {
	// LastEntrySize returns the encoded size of the table's final entry,
	// given its byte offset.
	LastEntrySize(byteOffset uint64) uint64
}

// AppendSection adds one table section's raw entries to the table.
// rawOffsets holds each entry's {compressed, raw_offset} already split
// out (package segment's TableEntry); baseOffset anchors raw_offset to
// an absolute byte offset within segmentNumber. last supplies the
// final entry's size when the format doesn't carry it in a trailer.
func (t *Table) AppendSection(segmentNumber int, baseOffset uint64, rawOffsets []uint32, compressedBits []bool, last LastChunkSizer) error {
	if len(rawOffsets) != len(compressedBits) {
		return fmt.Errorf("chunktable: rawOffsets/compressedBits length mismatch")
	}
	entries := make([]Entry, len(rawOffsets))
	for i, raw := range rawOffsets {
		byteOffset := baseOffset + uint64(raw)
		var size uint64
		sparse := false
		switch {
		case i+1 < len(rawOffsets):
			size = uint64(rawOffsets[i+1]) - uint64(raw)
		case last != nil:
			size = last.LastEntrySize(byteOffset)
		default:
			return fmt.Errorf("chunktable: no way to size final entry of section (segment %d)", segmentNumber)
		}
		if size == 0 {
			sparse = true
		}
		entries[i] = Entry{
			SegmentNumber: segmentNumber,
			ByteOffset:    byteOffset,
			EncodedSize:   size,
			Compressed:    compressedBits[i],
			Sparse:        sparse,
		}
	}

	t.sections = append(t.sections, section{segmentNumber: segmentNumber, entries: entries})
	t.prefix = append(t.prefix, t.prefix[len(t.prefix)-1]+len(entries))
	return nil
}

// TotalChunks returns the number of chunks resolvable across every
// appended section.
func (t *Table) TotalChunks() int {
	return t.prefix[len(t.prefix)-1]
}

// Resolve maps a global chunk index to its physical location in
// O(log T) time via sort.Search over the cumulative prefix.
func (t *Table) Resolve(chunkIndex int) (Entry, error) {
	if chunkIndex < 0 || chunkIndex >= t.TotalChunks() {
		return Entry{}, fmt.Errorf("chunktable: chunk index %d out of range [0,%d)", chunkIndex, t.TotalChunks())
	}
	// sort.Search finds the first section whose cumulative count exceeds
	// chunkIndex; that's the section containing it.
	secIdx := sort.Search(len(t.sections), func(i int) bool {
		return t.prefix[i+1] > chunkIndex
	})
	localIdx := chunkIndex - t.prefix[secIdx]
	return t.sections[secIdx].entries[localIdx], nil
}
