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

// Package fileentry builds and queries the logical evidence tree
// carried in an image's ltree/ltype section (spec.md §4.8). Each node
// carries a name, type, flags, size, MAC timestamps, MD5/SHA1, and a
// pair of media-data offsets into the logical byte stream; the tree is
// built once from the raw blob and is immutable thereafter.
//
// spec.md describes the tree's logical shape but not ltree's exact
// byte grammar; this package's grammar (one UTF-16LE line per node,
// tab-separated fields, indentation by a leading depth count) is this
// implementation's own choice, documented on parseLine and
// fieldsToEntry below, modeled on libewf_file_entry.c's field set.
package fileentry

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Type identifies what kind of logical object an Entry represents.
type Type uint8

const (
	TypeFile Type = iota
	TypeDirectory
	TypeOther
)

// Flags are per-entry bits; SparseData triggers the single-byte
// replication read documented in spec.md §4.8.
type Flags uint32

const (
	FlagSparseData Flags = 1 << iota
)

func (f Flags) Has(want Flags) bool { return f&want == want }

// Entry is one immutable node of the logical evidence tree.
type Entry struct {
	Name                    string
	Type                    Type
	Flags                   Flags
	Size                    uint64
	CreationTime            time.Time
	ModificationTime        time.Time
	AccessTime              time.Time
	EntryModificationTime   time.Time
	MD5                     [16]byte
	HasMD5                  bool
	SHA1                    [20]byte
	HasSHA1                 bool
	MediaDataOffset         int64
	DuplicateMediaDataOffset int64

	parent   *Entry
	children []*Entry
}

// Count returns the number of nodes in the subtree rooted at e,
// including e itself.
func (e *Entry) Count() int {
	n := 1
	for _, c := range e.children {
		n += c.Count()
	}
	return n
}

// NumberOfSubFileEntries returns e's direct child count.
func (e *Entry) NumberOfSubFileEntries() int { return len(e.children) }

// SubFileEntry returns e's i'th direct child.
func (e *Entry) SubFileEntry(i int) (*Entry, error) {
	if i < 0 || i >= len(e.children) {
		return nil, fmt.Errorf("fileentry: sub-entry index %d out of range", i)
	}
	return e.children[i], nil
}

// SubFileEntryByName returns the direct child named name (UTF-8 or
// already-decoded UTF-16), or nil if none matches.
func (e *Entry) SubFileEntryByName(name string) *Entry {
	for _, c := range e.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SubFileEntryByPath resolves a `\`-separated path relative to e.
func (e *Entry) SubFileEntryByPath(path string) (*Entry, error) {
	cur := e
	for _, part := range strings.Split(path, `\`) {
		if part == "" {
			continue
		}
		next := cur.SubFileEntryByName(part)
		if next == nil {
			return nil, fmt.Errorf("fileentry: no entry at path component %q", part)
		}
		cur = next
	}
	return cur, nil
}

// Parent returns e's parent, or nil for the root.
func (e *Entry) Parent() *Entry { return e.parent }

// ReadSparse returns a zero-filled buffer sized for length bytes of e's
// logical data starting at relative offset off, clamped to e.Size. It
// does not read the media and does not fill in the replicated byte
// found at MediaDataOffset; the returned bytes are all zero.
func (e *Entry) ReadSparse(off int64, length int) ([]byte, error) {
	if !e.Flags.Has(FlagSparseData) {
		return nil, fmt.Errorf("fileentry: entry %q is not SPARSE_DATA", e.Name)
	}
	if off < 0 || uint64(off) >= e.Size || length <= 0 {
		return nil, nil
	}
	remaining := e.Size - uint64(off)
	if uint64(length) > remaining {
		length = int(remaining)
	}
	// The single replicated source byte lives at MediaDataOffset
	// regardless of off; every logical position shares it.
	out := make([]byte, length)
	// Caller resolves MediaDataOffset's byte via the owning Image; this
	// package has no media handle of its own (spec.md §4.8: the tree is
	// built once from the ltree blob and is thereafter independent of
	// the media layer except for this one indirection), so ReadSparse
	// returns a buffer the caller fills in from the single source byte
	// it already knows how to read.
	return out, nil
}

// Parse builds an immutable tree from a raw ltree/ltype section blob and
// returns its single depth-0 entry as the root.
func Parse(raw []byte) (*Entry, error) {
	decoded, err := decodeUTF16(raw)
	if err != nil {
		return nil, fmt.Errorf("fileentry: decode ltree blob: %w", err)
	}

	root := &Entry{Name: "", Type: TypeDirectory}
	stack := []*Entry{root}

	scanner := bufio.NewScanner(strings.NewReader(decoded))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		depth, fields, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		if depth < 0 || depth >= len(stack) {
			return nil, fmt.Errorf("fileentry: malformed nesting at line %q", line)
		}
		node, err := fieldsToEntry(fields)
		if err != nil {
			return nil, err
		}
		parent := stack[depth]
		node.parent = parent
		parent.children = append(parent.children, node)
		stack = append(stack[:depth+1], node)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("fileentry: scan ltree blob: %w", err)
	}
	if len(root.children) != 1 {
		return nil, fmt.Errorf("fileentry: ltree blob must have exactly one depth-0 entry, got %d", len(root.children))
	}
	top := root.children[0]
	top.parent = nil
	return top, nil
}

// parseLine splits a grammar line into its leading depth count and
// tab-separated fields: "<depth>\t<name>\t<type>\t<flags>\t<size>\t..."
func parseLine(line string) (int, []string, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return 0, nil, fmt.Errorf("fileentry: line has too few fields: %q", line)
	}
	depth, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, nil, fmt.Errorf("fileentry: bad depth field %q: %w", fields[0], err)
	}
	return depth, fields[1:], nil
}

func fieldsToEntry(fields []string) (*Entry, error) {
	e := &Entry{}
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	e.Name = get(0)
	switch get(1) {
	case "d":
		e.Type = TypeDirectory
	case "f":
		e.Type = TypeFile
	default:
		e.Type = TypeOther
	}
	if v, err := strconv.ParseUint(get(2), 10, 32); err == nil {
		e.Flags = Flags(v)
	}
	if v, err := strconv.ParseUint(get(3), 10, 64); err == nil {
		e.Size = v
	}
	for idx, dst := range []*time.Time{&e.CreationTime, &e.ModificationTime, &e.AccessTime, &e.EntryModificationTime} {
		if v, err := strconv.ParseInt(get(4+idx), 10, 64); err == nil && v != 0 {
			*dst = time.Unix(v, 0).UTC()
		}
	}
	if hexStr := get(8); len(hexStr) == 32 {
		if b, err := hex.DecodeString(hexStr); err == nil {
			copy(e.MD5[:], b)
			e.HasMD5 = true
		}
	}
	if hexStr := get(9); len(hexStr) == 40 {
		if b, err := hex.DecodeString(hexStr); err == nil {
			copy(e.SHA1[:], b)
			e.HasSHA1 = true
		}
	}
	if v, err := strconv.ParseInt(get(10), 10, 64); err == nil {
		e.MediaDataOffset = v
	}
	if v, err := strconv.ParseInt(get(11), 10, 64); err == nil {
		e.DuplicateMediaDataOffset = v
	}
	return e, nil
}

// decodeUTF16 transcodes a UTF-16LE blob (with or without a BOM) to a
// UTF-8 string, using golang.org/x/text rather than a hand-rolled
// surrogate-pair decoder (the same library the reference ewfgo header
// parser uses for this exact purpose).
func decodeUTF16(raw []byte) (string, error) {
	e := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	reader := transform.NewReader(bytes.NewReader(raw), e.NewDecoder())
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		// Not every blob carries a BOM; retry assuming plain UTF-16LE.
		e2 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
		reader2 := transform.NewReader(bytes.NewReader(raw), e2.NewDecoder())
		buf.Reset()
		if _, err2 := buf.ReadFrom(reader2); err2 != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
