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

// Package ewf exposes a virtual, contiguous, byte-addressable view of an
// acquired storage device backed by one or more EWF (EnCase/Expert
// Witness) segment files.
package ewf

import "errors"

// Sentinel errors, grouped the way the format distinguishes failure
// classes. Wrap these with fmt.Errorf("...: %w", err) for context and
// recover them with errors.Is.
var (
	// Argument errors.
	ErrInvalidArgument = errors.New("ewf: invalid argument")
	ErrAlreadySet      = errors.New("ewf: value already set")

	// I/O errors.
	ErrIO         = errors.New("ewf: i/o error")
	ErrShortRead  = errors.New("ewf: short read from segment file")
	ErrIOAborted  = errors.New("ewf: i/o aborted")

	// Format errors.
	ErrSignatureMismatch        = errors.New("ewf: segment file signature mismatch")
	ErrSectionCRCMismatch       = errors.New("ewf: section checksum mismatch")
	ErrTableCRCMismatch         = errors.New("ewf: table checksum mismatch")
	ErrTruncatedSegment         = errors.New("ewf: truncated segment file")
	ErrConflictingDescriptor    = errors.New("ewf: conflicting media descriptor across segments")
	ErrUnsupportedSectionKind   = errors.New("ewf: unsupported section kind for this format version")
	ErrNonContiguousSegments    = errors.New("ewf: segment numbers are not contiguous")

	// Integrity errors.
	ErrChunkIntegrityFailed = errors.New("ewf: chunk checksum mismatch")
	ErrDecompressionFailed  = errors.New("ewf: chunk decompression failed")
	ErrHashMismatch         = errors.New("ewf: media hash mismatch at close")

	// Encryption errors.
	ErrUnsupportedKeySize = errors.New("ewf: unsupported AES key size")
	ErrUnsupportedMode    = errors.New("ewf: unsupported cipher mode")
	ErrKeyNotSet          = errors.New("ewf: encryption key not set")
	ErrIVTooLong          = errors.New("ewf: CCM initialization vector too long")
	ErrDecryptFailed      = errors.New("ewf: decrypt integrity failure")

	// Resource errors.
	ErrOutOfMemory    = errors.New("ewf: out of memory")
	ErrPoolExhausted  = errors.New("ewf: handle pool has no evictable victim")

	// State machine.
	ErrReadOnly         = errors.New("ewf: image is read-only")
	ErrAlreadyOpen      = errors.New("ewf: image already open")
	ErrNotOpen          = errors.New("ewf: image not open")
	ErrInvalidTransition = errors.New("ewf: invalid state transition")
)
