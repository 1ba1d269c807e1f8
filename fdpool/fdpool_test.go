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

package fdpool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func segmentFiles(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, string(rune('a'+i))+".E01")
		require.NoError(t, os.WriteFile(p, []byte("segment"), 0o644))
		paths[i] = p
	}
	return paths
}

func touch(t *testing.T, p *Pool, id ID) {
	t.Helper()
	require.NoError(t, p.WithOpen(id, func(f *os.File) error { return nil }))
}

// TestMaxOpenBound exercises S5: 5 segments, max_open=2, touch order
// 1,2,3,1,2,3 (here 0-indexed: 0,1,2,0,1,2). Open count must never
// exceed max_open after any touch.
func TestMaxOpenBound(t *testing.T) {
	paths := segmentFiles(t, 5)
	p, err := New(2)
	require.NoError(t, err)

	ids := make([]ID, len(paths))
	for i, path := range paths {
		ids[i] = p.Add(path, AccessRead)
	}

	order := []int{0, 1, 2, 0, 1, 2}
	for _, idx := range order {
		touch(t, p, ids[idx])
		require.LessOrEqual(t, p.OpenCount(), 2)
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	paths := segmentFiles(t, 3)
	p, err := New(2)
	require.NoError(t, err)

	id0 := p.Add(paths[0], AccessRead)
	id1 := p.Add(paths[1], AccessRead)
	id2 := p.Add(paths[2], AccessRead)

	touch(t, p, id0)
	touch(t, p, id1)
	// {id0, id1} open. Touching id2 should evict id0 (LRU).
	touch(t, p, id2)
	require.Equal(t, 2, p.OpenCount())

	// id0 must reopen transparently.
	touch(t, p, id0)
	require.Equal(t, 2, p.OpenCount())
}

func TestUnlimitedNeverEvicts(t *testing.T) {
	paths := segmentFiles(t, 5)
	p, err := New(Unlimited)
	require.NoError(t, err)

	ids := make([]ID, len(paths))
	for i, path := range paths {
		ids[i] = p.Add(path, AccessRead)
		touch(t, p, ids[i])
	}
	require.Equal(t, 5, p.OpenCount())
}

func TestCloseAllResetsOpenCount(t *testing.T) {
	paths := segmentFiles(t, 3)
	p, err := New(2)
	require.NoError(t, err)
	for _, path := range paths {
		id := p.Add(path, AccessRead)
		touch(t, p, id)
	}
	require.NoError(t, p.CloseAll())
	require.Equal(t, 0, p.OpenCount())
}

func TestWithOpenUnknownHandle(t *testing.T) {
	p, err := New(1)
	require.NoError(t, err)
	err = p.WithOpen(ID(42), func(f *os.File) error { return nil })
	require.Error(t, err)
}

func TestSetMaxOpenShrinksImmediately(t *testing.T) {
	paths := segmentFiles(t, 3)
	p, err := New(3)
	require.NoError(t, err)
	ids := make([]ID, 3)
	for i, path := range paths {
		ids[i] = p.Add(path, AccessRead)
		touch(t, p, ids[i])
	}
	require.Equal(t, 3, p.OpenCount())

	require.NoError(t, p.SetMaxOpen(1))
	require.Equal(t, 0, p.OpenCount())

	touch(t, p, ids[0])
	require.Equal(t, 1, p.OpenCount())
}

func TestWriteTruncateOnlyTruncatesOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.E01")
	p, err := New(1)
	require.NoError(t, err)
	id := p.Add(path, AccessWriteTruncate)

	require.NoError(t, p.WithOpen(id, func(f *os.File) error {
		_, err := f.Write([]byte("hello"))
		return err
	}))
	require.NoError(t, p.Close(id))

	// Reopening must not re-truncate: the access mode should have been
	// demoted to AccessWrite after the first open.
	require.NoError(t, p.WithOpen(id, func(f *os.File) error { return nil }))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}
