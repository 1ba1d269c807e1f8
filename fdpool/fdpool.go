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

// Package fdpool implements the bounded handle pool that multiplexes
// kernel file descriptors across many EWF segment files under an LRU
// eviction policy (spec §4.3). Segments are added once with Add and
// thereafter only ever touched via WithOpen, which guarantees the
// backing file is open for the duration of the callback and is the
// sole path by which a caller acquires a descriptor.
package fdpool

import (
	"fmt"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Unlimited disables the LRU policy entirely: every added handle stays
// open for the lifetime of the pool.
const Unlimited = 0

// AccessMode controls how a segment file is (re)opened.
type AccessMode int

const (
	AccessRead AccessMode = iota
	AccessWrite
	AccessReadWrite
	// AccessWriteTruncate behaves like AccessWrite on first open, then the
	// pool demotes it to AccessWrite internally so a reopen on eviction
	// never re-truncates already-acquired data.
	AccessWriteTruncate
)

func (m AccessMode) osFlags() int {
	switch m {
	case AccessRead:
		return os.O_RDONLY
	case AccessWrite:
		return os.O_WRONLY | os.O_CREATE
	case AccessReadWrite:
		return os.O_RDWR | os.O_CREATE
	case AccessWriteTruncate:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	default:
		return os.O_RDONLY
	}
}

// ID identifies one registered handle (typically the segment number).
type ID int

// entry tracks one registered-but-possibly-closed backing file.
type entry struct {
	path   string
	access AccessMode
	file   *os.File
	offset int64 // logical offset to restore on reopen
}

// Pool is the bounded LRU handle pool. The zero value is not usable;
// construct with New. Pool is not safe for concurrent use — per spec
// §4.3 it is single-threaded by contract, and a caller that needs
// concurrent access wraps it in one mutex (the media layer does this
// with its own read-write lock, spec §5).
type Pool struct {
	mu      sync.Mutex // guards entries/nextID only; not part of the single-thread contract below
	entries map[ID]*entry
	nextID  ID

	maxOpen int
	lru     *lru.Cache[ID, struct{}]
	// unlimitedOpen holds every handle when maxOpen == Unlimited.
	unlimitedOpen map[ID]struct{}
}

// New creates a pool with the given maximum number of simultaneously
// open handles. Pass Unlimited to disable eviction.
func New(maxOpen int) (*Pool, error) {
	p := &Pool{
		entries: make(map[ID]*entry),
		maxOpen: maxOpen,
	}
	if maxOpen == Unlimited {
		p.unlimitedOpen = make(map[ID]struct{})
		return p, nil
	}
	if maxOpen <= 0 {
		return nil, fmt.Errorf("fdpool: maxOpen must be positive or Unlimited, got %d", maxOpen)
	}
	c, err := lru.NewWithEvict(maxOpen, func(id ID, _ struct{}) {
		p.evict(id)
	})
	if err != nil {
		return nil, fmt.Errorf("fdpool: %w", err)
	}
	p.lru = c
	return p, nil
}

// Add registers path for later access and returns its handle ID. The
// file is not opened until the first WithOpen call.
func (p *Pool) Add(path string, access AccessMode) ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.entries[id] = &entry{path: path, access: access}
	return id
}

// SetMaxOpen changes the eviction cap. Every currently open handle is
// closed immediately; each reopens transparently on its next WithOpen.
func (p *Pool) SetMaxOpen(maxOpen int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if maxOpen != Unlimited && maxOpen <= 0 {
		return fmt.Errorf("fdpool: maxOpen must be positive or Unlimited, got %d", maxOpen)
	}
	if p.lru != nil {
		p.lru.Purge() // closes each handle via the eviction callback
	} else {
		for id := range p.unlimitedOpen {
			p.evict(id)
		}
	}
	if maxOpen == Unlimited {
		p.maxOpen = Unlimited
		p.lru = nil
		p.unlimitedOpen = make(map[ID]struct{})
		return nil
	}
	if maxOpen <= 0 {
		return fmt.Errorf("fdpool: maxOpen must be positive or Unlimited, got %d", maxOpen)
	}
	c, err := lru.NewWithEvict(maxOpen, func(id ID, _ struct{}) {
		p.evict(id)
	})
	if err != nil {
		return fmt.Errorf("fdpool: %w", err)
	}
	p.maxOpen = maxOpen
	p.lru = c
	p.unlimitedOpen = nil
	return nil
}

// OpenCount returns the number of currently open handles.
func (p *Pool) OpenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lru != nil {
		return p.lru.Len()
	}
	return len(p.unlimitedOpen)
}

// WithOpen guarantees e's backing file is open before invoking fn, then
// invokes fn with the open *os.File. If the handle is already open it
// is promoted to most-recently-used (mirroring the LRU cache's own Get
// promotion) and fn runs immediately; otherwise, if the pool is at
// capacity, the least-recently-used handle is evicted first.
func (p *Pool) WithOpen(id ID, fn func(f *os.File) error) error {
	p.mu.Lock()
	e, ok := p.entries[id]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("fdpool: unknown handle %d", id)
	}

	if e.file == nil {
		if err := p.openLocked(id, e); err != nil {
			p.mu.Unlock()
			return err
		}
	} else if p.lru != nil {
		p.lru.Get(id) // promote to MRU
	}
	f := e.file
	p.mu.Unlock()

	return fn(f)
}

// openLocked opens e's backing file, evicting an LRU victim first if
// the pool is at capacity. Must be called with p.mu held.
func (p *Pool) openLocked(id ID, e *entry) error {
	// lru.Cache.Add evicts the LRU tail itself once at capacity, via the
	// eviction callback registered in New/SetMaxOpen, so there's nothing
	// to do here beyond opening the file and adding it.
	f, err := os.OpenFile(e.path, e.access.osFlags(), 0o644)
	if err != nil {
		return fmt.Errorf("fdpool: open %s: %w", e.path, err)
	}
	if e.access == AccessWriteTruncate {
		// Reopen-on-evict must never truncate again.
		e.access = AccessWrite
	}
	if e.offset != 0 {
		if _, serr := f.Seek(e.offset, 0); serr != nil {
			f.Close()
			return fmt.Errorf("fdpool: seek %s to %d: %w", e.path, e.offset, serr)
		}
	}
	e.file = f
	if p.lru != nil {
		p.lru.Add(id, struct{}{})
	} else {
		p.unlimitedOpen[id] = struct{}{}
	}
	return nil
}

// evict is the LRU eviction callback: it records the handle's current
// logical offset and closes the backing file. Invoked synchronously
// from within lru.Cache.Add, so p.mu is already held by the caller.
func (p *Pool) evict(id ID) {
	e, ok := p.entries[id]
	if !ok || e.file == nil {
		return
	}
	if off, err := e.file.Seek(0, 1); err == nil {
		e.offset = off
	}
	e.file.Close()
	e.file = nil
}

// Close closes id's backing file if open, without forgetting the
// registration (a later WithOpen reopens it transparently).
func (p *Pool) Close(id ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[id]
	if !ok {
		return fmt.Errorf("fdpool: unknown handle %d", id)
	}
	if e.file == nil {
		return nil
	}
	if p.lru != nil {
		p.lru.Remove(id) // triggers evict via the callback
	} else {
		p.evict(id)
		delete(p.unlimitedOpen, id)
	}
	return nil
}

// CloseAll closes every open handle.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lru != nil {
		p.lru.Purge()
		return nil
	}
	for id := range p.unlimitedOpen {
		p.evict(id)
	}
	p.unlimitedOpen = make(map[ID]struct{})
	return nil
}
