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

package ewf

// AccessFlags controls how an image is opened.
type AccessFlags uint8

const (
	// Read opens the image for reading.
	Read AccessFlags = 1 << iota
	// Write opens the image for acquisition (writing new segments).
	Write
	// Resume appends to an in-progress acquisition rather than starting over.
	Resume
	// Truncate discards any existing segment data on first open. Cleared by
	// the handle pool after the first open so a reopen-on-evict never
	// truncates acquired data a second time.
	Truncate
)

// Has reports whether all bits in want are set.
func (a AccessFlags) Has(want AccessFlags) bool {
	return a&want == want
}

// Whence selects the reference point for Image.Seek, mirroring io.Seeker.
type Whence int

const (
	SeekSet Whence = iota
	SeekCur
	SeekEnd
)

// MediaType identifies the kind of acquired source, per EWF's volume/disk
// section media_type byte.
type MediaType uint8

const (
	MediaRemovable MediaType = 0x00
	MediaFixed     MediaType = 0x01
	MediaOptical   MediaType = 0x03
	MediaLogical   MediaType = 0x0e
	MediaMemory    MediaType = 0x10
)

// MediaFlags is the volume/disk section's media_flags byte.
type MediaFlags uint8

const (
	FlagImageFile            MediaFlags = 0x01
	FlagPhysicalDevice       MediaFlags = 0x02
	FlagFastblocWriteBlocker MediaFlags = 0x04
	FlagTableauWriteBlocker  MediaFlags = 0x08
)

// CompressionLevel is the volume/disk section's compression_level byte.
type CompressionLevel uint8

const (
	CompressionNone CompressionLevel = 0x00
	CompressionGood  CompressionLevel = 0x01
	CompressionBest  CompressionLevel = 0x02
)

// State is the image lifecycle state machine from spec §4.7.
type State int

const (
	StateNew State = iota
	StateOpenReadOnly
	StateOpenAcquiring
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateOpenReadOnly:
		return "open_ro"
	case StateOpenAcquiring:
		return "open_acq"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
