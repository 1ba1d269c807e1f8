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

// Package media is the I/O engine (spec §4.7): the orchestrator that
// glues package segment (section framing), package chunktable (chunk
// index), package chunkcache (the two-slot cache), package fdpool (the
// bounded handle pool), package aescrypt (per-chunk decryption), and
// package rangelist (acquisition-error/session/corruption tracking)
// behind one read/write/seek facade.
//
// This package owns its own sentinel errors rather than importing the
// root ewf package's, to avoid an import cycle (ewf wraps media, not
// the reverse) — the root package maps these onto its own public
// sentinels at the API boundary (see DESIGN.md's internal notes).
package media

import "errors"

var (
	ErrReadOnly             = errors.New("media: image is read-only")
	ErrNotOpen              = errors.New("media: image not open")
	ErrAlreadyOpen          = errors.New("media: image already open")
	ErrInvalidTransition    = errors.New("media: invalid state transition")
	ErrChunkIntegrityFailed = errors.New("media: chunk checksum mismatch")
	ErrDecompressionFailed  = errors.New("media: chunk decompression failed")
	ErrNoSegments           = errors.New("media: no segment files supplied")
	ErrNegativeOffset       = errors.New("media: resulting offset is negative")
	ErrEncryptionNotConfigured = errors.New("media: media is encrypted but no key was set")
)
