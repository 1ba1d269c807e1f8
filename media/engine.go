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

package media

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sleuthgo/ewf/aescrypt"
	"github.com/sleuthgo/ewf/chunkcache"
	"github.com/sleuthgo/ewf/chunktable"
	"github.com/sleuthgo/ewf/fdpool"
	"github.com/sleuthgo/ewf/rangelist"
	"github.com/sleuthgo/ewf/segment"
)

// segmentRecord is one ordered segment file's bookkeeping.
type segmentRecord struct {
	path          string
	segmentNumber int
	poolID        fdpool.ID
	sectors       []segment.SectorsRange
}

// Engine is the I/O engine described in spec §4.7: the single object
// that owns the chunk table, chunk cache, handle pool, and (for
// encrypted media) an AES engine, behind one sync.RWMutex per the
// concurrency model in spec §5.
type Engine struct {
	mu    sync.RWMutex
	state State

	logger zerolog.Logger
	stats  Stats

	volume    *segment.VolumeDescriptor
	chunkSize uint32
	mediaSize uint64

	segments   []segmentRecord
	mmapTables []*segment.MmapTable // closed in Close(); populated only for very large table sections
	table      *chunktable.Table
	cache      *chunkcache.Cache
	pool       *fdpool.Pool
	aes        *aescrypt.Engine // nil unless media is encrypted

	acquisitionErrors *rangelist.List // sector ranges, from error2 sections
	sessions          *rangelist.List // sector ranges, from session sections
	corrupt           *rangelist.List // chunk-index ranges; nothing adds to it: when table and table2 both fail, OpenRead returns an error

	digest *segment.Digest

	// XHeader/Ltree are handed to callers uninterpreted (Non-goal: header
	// grammar is out of scope; the logical-evidence tree is package
	// fileentry's job, kept decoupled from media to avoid an import
	// cycle and because not every image carries one).
	XHeader []byte
	LtreeRaw []byte

	// Acquisition (write) state.
	writer          *segment.Writer
	writerFile      *os.File
	currentSegment  int
	segmentCapBytes uint64

	offset int64 // current logical seek position
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger overrides the default disabled logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxOpenHandles sets the handle pool's LRU cap (fdpool.Unlimited
// disables eviction).
func WithMaxOpenHandles(n int) Option {
	return func(e *Engine) {
		p, err := fdpool.New(n)
		if err == nil {
			e.pool = p
		}
	}
}

// New constructs an unopened Engine.
func New(opts ...Option) *Engine {
	pool, _ := fdpool.New(fdpool.Unlimited)
	e := &Engine{
		state:             StateNew,
		logger:            zerolog.Nop(),
		cache:             chunkcache.New(),
		pool:              pool,
		acquisitionErrors: &rangelist.List{},
		sessions:          &rangelist.List{},
		corrupt:           &rangelist.List{},
		table:             chunktable.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Stats returns a snapshot of the observable counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// sectorsEndSizer implements chunktable.LastChunkSizer using the
// sectors section's own end offset, the fallback policy chosen for
// this implementation (DESIGN.md open-question decision): the wire
// format as specified here carries no explicit last-chunk-size trailer
// field, so every table's final entry is sized by its sectors
// section's end.
type sectorsEndSizer struct{ end uint64 }

func (s sectorsEndSizer) LastEntrySize(byteOffset uint64) uint64 {
	if s.end <= byteOffset {
		return 0
	}
	return s.end - byteOffset
}

// OpenRead opens an image for reading, given every segment file path
// belonging to one acquisition, in any order (spec §4.7 "open").
func (e *Engine) OpenRead(paths []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateNew {
		return fmt.Errorf("%w: from %s", ErrInvalidTransition, e.state)
	}
	if len(paths) == 0 {
		return ErrNoSegments
	}

	type parsed struct {
		path string
		ps   *segment.ParsedSegment
	}
	all := make([]parsed, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("media: open %s: %w", p, err)
		}
		ps, err := segment.ReadSegment(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("media: parse %s: %w", p, err)
		}
		all = append(all, parsed{path: p, ps: ps})
	}

	candidates := make([]segment.Candidate, len(all))
	for i, a := range all {
		candidates[i] = segment.Candidate{Path: a.path, SegmentNumber: a.ps.SegmentNumber}
	}
	ordered, err := segment.OrderBySegmentNumber(candidates)
	if err != nil {
		return err
	}

	byPath := make(map[string]*segment.ParsedSegment, len(all))
	for _, a := range all {
		byPath[a.path] = a.ps
	}

	for _, c := range ordered {
		ps := byPath[c.Path]

		if ps.Volume != nil {
			if e.volume == nil {
				e.volume = ps.Volume
			} else if err := segment.ReconcileVolumeDescriptors(e.volume, ps.Volume); err != nil {
				return err
			}
		}
		e.mmapTables = append(e.mmapTables, ps.MmapTables...)
		e.stats.TableFallbacks += ps.TableFallbacks
		if ps.Digest != nil {
			e.digest = ps.Digest
		}
		if len(ps.XHeader) > 0 {
			e.XHeader = ps.XHeader
		}
		if len(ps.LtreeRaw) > 0 {
			e.LtreeRaw = ps.LtreeRaw
		}

		for _, er := range ps.Errors {
			if err := e.acquisitionErrors.AppendRange(uint64(er.StartSector), uint64(er.SectorCount)); err != nil {
				e.logger.Warn().Err(err).Msg("dropping malformed error2 range")
			}
		}
		for _, s := range ps.Sessions {
			// session entries carry only a start; treat as width 1 until
			// the next session's start is known (normalized below is out
			// of scope — spec doesn't define session width derivation
			// beyond start_sector, so one sector is recorded as a marker).
			if err := e.sessions.AppendRange(uint64(s.StartSector), 1); err != nil {
				e.logger.Warn().Err(err).Msg("dropping malformed session range")
			}
		}

		for i, tbl := range ps.Tables {
			var sizer chunktable.LastChunkSizer
			if i < len(ps.Sectors) {
				sizer = sectorsEndSizer{end: ps.Sectors[i].EndOffset}
			}
			rawOffsets := make([]uint32, len(tbl.Entries))
			compressedBits := make([]bool, len(tbl.Entries))
			for j, ent := range tbl.Entries {
				rawOffsets[j] = ent.RawOffset()
				compressedBits[j] = ent.Compressed()
			}
			if err := e.table.AppendSection(c.SegmentNumber, tbl.BaseOffset, rawOffsets, compressedBits, sizer); err != nil {
				return fmt.Errorf("media: segment %d: %w", c.SegmentNumber, err)
			}
		}

		poolID := e.pool.Add(c.Path, fdpool.AccessRead)
		e.segments = append(e.segments, segmentRecord{
			path:          c.Path,
			segmentNumber: c.SegmentNumber,
			poolID:        poolID,
			sectors:       ps.Sectors,
		})
	}

	if e.volume == nil {
		return fmt.Errorf("media: no volume/disk section found across %d segment(s)", len(paths))
	}
	e.chunkSize = e.volume.ChunkSize()
	e.mediaSize = e.volume.NumberOfSectors * uint64(e.volume.BytesPerSector)
	e.state = StateOpenReadOnly
	e.logger.Debug().
		Int("segments", len(e.segments)).
		Uint64("media_size", e.mediaSize).
		Int("table_fallbacks", e.stats.TableFallbacks).
		Msg("image opened read-only")
	return nil
}

// SetDecryptionKey configures AES-CBC/CCM decryption for encrypted
// (EWFX) media opened for reading.
func (e *Engine) SetDecryptionKey(keyBits int, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	eng, err := aescrypt.NewEngine(aescrypt.ModeDecrypt, keyBits, key)
	if err != nil {
		return err
	}
	e.aes = eng
	return nil
}

// Close releases every open segment-file handle.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return nil
	}
	if e.state == StateOpenAcquiring && e.writer != nil {
		if err := e.finalizeAcquisitionLocked(); err != nil {
			return err
		}
	}
	err := e.pool.CloseAll()
	for _, mt := range e.mmapTables {
		if cerr := mt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	e.state = StateClosed
	return err
}

// GetMediaSize returns the logical size of the acquired media.
func (e *Engine) GetMediaSize() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mediaSize
}

// GetChunkSize returns sectors_per_chunk * bytes_per_sector.
func (e *Engine) GetChunkSize() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.chunkSize
}

// GetSectorsPerChunk returns the volume descriptor's sectors_per_chunk.
func (e *Engine) GetSectorsPerChunk() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.volume == nil {
		return 0
	}
	return e.volume.SectorsPerChunk
}

// GetBytesPerSector returns the volume descriptor's bytes_per_sector.
func (e *Engine) GetBytesPerSector() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.volume == nil {
		return 0
	}
	return e.volume.BytesPerSector
}

// GetNumberOfSectors returns the volume descriptor's number_of_sectors.
func (e *Engine) GetNumberOfSectors() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.volume == nil {
		return 0
	}
	return e.volume.NumberOfSectors
}

// GetNumberOfAcquiryErrors returns the number of recorded bad-sector
// ranges.
func (e *Engine) GetNumberOfAcquiryErrors() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.acquisitionErrors.Len()
}

// GetAcquiryError returns the i'th bad-sector range as (start, count).
func (e *Engine) GetAcquiryError(i int) (uint64, uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ranges := e.acquisitionErrors.Ranges()
	if i < 0 || i >= len(ranges) {
		return 0, 0, fmt.Errorf("media: acquiry error index %d out of range", i)
	}
	return ranges[i].Start, ranges[i].Size(), nil
}

// GetNumberOfSessions returns the number of recorded optical sessions.
func (e *Engine) GetNumberOfSessions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessions.Len()
}

// GetSession returns the i'th session range as (start, count).
func (e *Engine) GetSession(i int) (uint64, uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ranges := e.sessions.Ranges()
	if i < 0 || i >= len(ranges) {
		return 0, 0, fmt.Errorf("media: session index %d out of range", i)
	}
	return ranges[i].Start, ranges[i].Size(), nil
}

// GetHashValue returns the named digest ("md5" or "sha1") if present.
func (e *Engine) GetHashValue(name string) ([]byte, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.digest == nil {
		return nil, false
	}
	switch name {
	case "md5":
		if !e.digest.HasMD5 {
			return nil, false
		}
		return e.digest.MD5[:], true
	case "sha1":
		if !e.digest.HasSHA1 {
			return nil, false
		}
		return e.digest.SHA1[:], true
	default:
		return nil, false
	}
}
