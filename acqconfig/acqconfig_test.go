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

package acqconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsEnCase6Compatible(t *testing.T) {
	cfg := Default("/tmp/image", 1000)
	assert.Equal(t, uint32(DefaultSectorsPerChunk), cfg.SectorsPerChunk)
	assert.Equal(t, uint32(DefaultBytesPerSector), cfg.BytesPerSector)
	assert.Equal(t, DefaultTableEntryCap, cfg.TableEntryCap)
	assert.Equal(t, CompressionGood, cfg.CompressionLevel)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acq.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
sectors_per_chunk = 32
compression_level = "best"
segment_cap_bytes = 2048
`), 0o644))

	cfg, err := Load(path, "/tmp/image", 500)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), cfg.SectorsPerChunk)
	assert.Equal(t, CompressionBest, cfg.CompressionLevel)
	assert.Equal(t, uint64(2048), cfg.SegmentCapBytes)
	// Fields absent from the file keep their compiled-in default.
	assert.Equal(t, uint32(DefaultBytesPerSector), cfg.BytesPerSector)
}

func TestLoadOrDefaultIgnoresMissingFile(t *testing.T) {
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"), "/tmp/image", 10)
	assert.Equal(t, Default("/tmp/image", 10), cfg)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o644))

	_, err := Load(path, "/tmp/image", 10)
	require.Error(t, err)
}
