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

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sleuthgo/ewf/acqconfig"
	"github.com/sleuthgo/ewf/fileentry"
	"github.com/sleuthgo/ewf/media"
)

// Image is the public handle described by spec.md §7: open a set of
// segment files (or start acquiring a new set), then read, write, and
// seek over the single logical media stream they represent. Image
// wraps a media.Engine and translates its package-local sentinel
// errors onto this package's Err* values so callers never need to
// import package media themselves.
type Image struct {
	engine *media.Engine
	root   *fileentry.Entry // lazily built from engine.LtreeRaw on first access
}

// Option configures an Image at construction.
type Option func(*media.Engine)

// WithLogger attaches a zerolog.Logger for internal diagnostics.
func WithLogger(l zerolog.Logger) Option { return Option(media.WithLogger(l)) }

// WithMaxOpenHandles bounds the number of segment files kept open at
// once (AccessFlags.Resume-style bounded acquisitions and large
// multi-segment reads both benefit from this); pass 0 for unlimited.
func WithMaxOpenHandles(n int) Option { return Option(media.WithMaxOpenHandles(n)) }

// Open opens an existing image read-only from its ordered segment file
// paths (any order; segment files are sorted by embedded segment
// number, not filename, per spec.md §6).
func Open(paths []string, opts ...Option) (*Image, error) {
	e := media.New(toMediaOptions(opts)...)
	if err := e.OpenRead(paths); err != nil {
		return nil, translateErr(err)
	}
	return &Image{engine: e}, nil
}

// OpenWrite starts a new acquisition at cfg.BaseName, writing the
// first segment's volume/disk section immediately.
func OpenWrite(cfg acqconfig.Config, opts ...Option) (*Image, error) {
	e := media.New(toMediaOptions(opts)...)
	mediaCfg := media.AcquisitionConfig{
		BaseName:         cfg.BaseName,
		MediaType:        uint8(cfg.MediaType),
		SectorsPerChunk:  cfg.SectorsPerChunk,
		BytesPerSector:   cfg.BytesPerSector,
		NumberOfSectors:  cfg.NumberOfSectors,
		CompressionLevel: uint8(cfg.CompressionLevel),
		SegmentCapBytes:  cfg.SegmentCapBytes,
	}
	if err := e.OpenWrite(mediaCfg); err != nil {
		return nil, translateErr(err)
	}
	return &Image{engine: e}, nil
}

// Close finalizes an in-progress acquisition (if any) and releases
// every open segment-file handle.
func (img *Image) Close() error {
	return translateErr(img.engine.Close())
}

// ReadBuffer reads up to length bytes starting at the image's current
// seek position, returning fewer bytes only at end-of-media.
func (img *Image) ReadBuffer(length int) ([]byte, error) {
	out, err := img.engine.ReadBuffer(length)
	return out, translateErr(err)
}

// WriteBuffer appends data to an in-progress acquisition.
func (img *Image) WriteBuffer(data []byte) (int, error) {
	n, err := img.engine.WriteBuffer(data)
	return n, translateErr(err)
}

// SeekOffset repositions the image's logical cursor (spec.md §6
// "Seek whence").
func (img *Image) SeekOffset(offset int64, whence Whence) (int64, error) {
	off, err := img.engine.Seek(offset, media.Whence(whence))
	return off, translateErr(err)
}

func (img *Image) GetMediaSize() uint64       { return img.engine.GetMediaSize() }
func (img *Image) GetChunkSize() uint32       { return img.engine.GetChunkSize() }
func (img *Image) GetSectorsPerChunk() uint32 { return img.engine.GetSectorsPerChunk() }
func (img *Image) GetBytesPerSector() uint32  { return img.engine.GetBytesPerSector() }
func (img *Image) GetNumberOfSectors() uint64 { return img.engine.GetNumberOfSectors() }

func (img *Image) GetNumberOfAcquiryErrors() int { return img.engine.GetNumberOfAcquiryErrors() }

func (img *Image) GetAcquiryError(i int) (uint64, uint64, error) {
	start, count, err := img.engine.GetAcquiryError(i)
	return start, count, translateErr(err)
}

func (img *Image) GetNumberOfSessions() int { return img.engine.GetNumberOfSessions() }

func (img *Image) GetSession(i int) (uint64, uint64, error) {
	start, count, err := img.engine.GetSession(i)
	return start, count, translateErr(err)
}

// GetHashValue returns the named acquisition digest ("md5" or "sha1")
// stored in the image's digest section, if any.
func (img *Image) GetHashValue(name string) ([]byte, bool) {
	return img.engine.GetHashValue(name)
}

// SetHashValue configures an AES decryption key for encrypted (EWFX)
// media; despite the name (kept for spec.md §7 API parity) this sets
// the decryption key, not a stored hash value, matching the upstream
// EWFX key-setting call the spec describes.
func (img *Image) SetHashValue(keyBits int, key []byte) error {
	return translateErr(img.engine.SetDecryptionKey(keyBits, key))
}

// GetRootFileEntry returns the root of the logical evidence tree
// carried in the ltree section, if this image has one (Non-goal:
// physical/disk images typically do not).
func (img *Image) GetRootFileEntry() (*fileentry.Entry, error) {
	if img.root != nil {
		return img.root, nil
	}
	raw := img.engine.LtreeRaw
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: image carries no ltree section", ErrUnsupportedSectionKind)
	}
	root, err := fileentry.Parse(raw)
	if err != nil {
		return nil, err
	}
	img.root = root
	return root, nil
}

// GetNumberOfFileEntries returns the total node count of the logical
// evidence tree, or 0 if this image carries none.
func (img *Image) GetNumberOfFileEntries() int {
	root, err := img.GetRootFileEntry()
	if err != nil {
		return 0
	}
	return root.Count()
}

func toMediaOptions(opts []Option) []media.Option {
	out := make([]media.Option, len(opts))
	for i, o := range opts {
		out[i] = media.Option(o)
	}
	return out
}

// translateErr maps package media's local sentinels onto this
// package's Err* values at the API boundary (media can't import ewf
// without creating a cycle, since ewf wraps media — see DESIGN.md).
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, media.ErrReadOnly):
		return fmt.Errorf("%w", ErrReadOnly)
	case errors.Is(err, media.ErrNotOpen):
		return fmt.Errorf("%w", ErrNotOpen)
	case errors.Is(err, media.ErrAlreadyOpen):
		return fmt.Errorf("%w", ErrAlreadyOpen)
	case errors.Is(err, media.ErrInvalidTransition):
		return fmt.Errorf("%w", ErrInvalidTransition)
	case errors.Is(err, media.ErrChunkIntegrityFailed):
		return fmt.Errorf("%w", ErrChunkIntegrityFailed)
	case errors.Is(err, media.ErrDecompressionFailed):
		return fmt.Errorf("%w", ErrDecompressionFailed)
	case errors.Is(err, media.ErrNoSegments):
		return fmt.Errorf("%w: no segment files supplied", ErrInvalidArgument)
	case errors.Is(err, media.ErrNegativeOffset):
		return fmt.Errorf("%w: seek would produce a negative offset", ErrInvalidArgument)
	case errors.Is(err, media.ErrEncryptionNotConfigured):
		return fmt.Errorf("%w", ErrKeyNotSet)
	default:
		return err
	}
}
