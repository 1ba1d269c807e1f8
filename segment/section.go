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
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"io"
)

// ErrSectionCRCMismatch is returned when a section header's trailing
// Adler-32 does not match the preceding 72 bytes.
var ErrSectionCRCMismatch = fmt.Errorf("segment: section checksum mismatch")

// ErrShortRead is returned when fewer bytes than requested could be
// read from the backing file, indicating a truncated segment.
var ErrShortRead = fmt.Errorf("segment: short read")

// ReadSectionHeader reads and validates the 76-byte section header at
// the reader's current position (spec §6, "Section binary layout").
func ReadSectionHeader(r io.Reader) (*SectionHeader, error) {
	buf := make([]byte, SectionHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortRead, err)
	}

	var h SectionHeader
	if err := binary.Read(bytes.NewReader(buf), byteOrder, &h); err != nil {
		return nil, fmt.Errorf("segment: decode section header: %w", err)
	}

	want := adler32.Checksum(buf[:72])
	if want != h.Checksum {
		return nil, fmt.Errorf("%w: kind %q", ErrSectionCRCMismatch, h.KindString())
	}
	return &h, nil
}

// WriteSectionHeader serializes h, recomputing its checksum over the
// other fields before writing. TypeDefinition is set from kind and
// NextOffset/Size from next/size.
func WriteSectionHeader(w io.Writer, kind Kind, next, size uint64) error {
	h := SectionHeader{
		TypeDefinition: kindBytes(kind),
		NextOffset:     next,
		Size:           size,
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, byteOrder, h.TypeDefinition); err != nil {
		return err
	}
	if err := binary.Write(&buf, byteOrder, h.NextOffset); err != nil {
		return err
	}
	if err := binary.Write(&buf, byteOrder, h.Size); err != nil {
		return err
	}
	if err := binary.Write(&buf, byteOrder, h.Padding); err != nil {
		return err
	}
	h.Checksum = adler32.Checksum(buf.Bytes())
	if err := binary.Write(&buf, byteOrder, h.Checksum); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// verifyAdler32 checks that payload's trailing 4-byte LE Adler-32
// matches a checksum computed over the bytes preceding it, returning
// the payload without the trailer.
func verifyAdler32(payload []byte) ([]byte, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: payload too short for checksum trailer", ErrSectionCRCMismatch)
	}
	body := payload[:len(payload)-4]
	trailer := byteOrder.Uint32(payload[len(payload)-4:])
	if adler32.Checksum(body) != trailer {
		return nil, ErrSectionCRCMismatch
	}
	return body, nil
}

func appendAdler32(body []byte) []byte {
	out := make([]byte, len(body)+4)
	copy(out, body)
	byteOrder.PutUint32(out[len(body):], adler32.Checksum(body))
	return out
}
