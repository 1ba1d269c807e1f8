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

import "fmt"

// Seek repositions the engine's logical offset (spec §4.7/§6): a
// negative resulting offset is always an error; an offset past the
// current media size is accepted while acquiring (the caller is
// extending the image) but clamped to media_size on a read-only image,
// since nothing beyond it exists yet to seek into.
func (e *Engine) Seek(offset int64, whence Whence) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOpenReadOnly && e.state != StateOpenAcquiring {
		return 0, ErrNotOpen
	}

	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = e.offset
	case SeekEnd:
		base = int64(e.mediaSize)
	default:
		return 0, fmt.Errorf("media: invalid whence %d", whence)
	}

	next := base + offset
	if next < 0 {
		return 0, ErrNegativeOffset
	}
	if e.state == StateOpenReadOnly && uint64(next) > e.mediaSize {
		next = int64(e.mediaSize)
	}

	e.offset = next
	e.cache.Reset()
	return e.offset, nil
}
