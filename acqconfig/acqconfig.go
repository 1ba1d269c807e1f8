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

// Package acqconfig loads acquisition parameters (chunk geometry,
// compression, segment size cap) from an optional TOML file, falling
// back to compiled-in EnCase6-compatible defaults (spec.md §4.9).
package acqconfig

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// MediaType mirrors the root package's byte encoding without importing
// it (acqconfig is a low-level dependency of the root package, so the
// reverse import would cycle).
type MediaType uint8

const (
	MediaRemovable MediaType = 0x00
	MediaFixed     MediaType = 0x01
	MediaOptical   MediaType = 0x03
	MediaLogical   MediaType = 0x0e
)

// CompressionLevel mirrors the volume/disk section's compression_level byte.
type CompressionLevel uint8

const (
	CompressionNone CompressionLevel = 0x00
	CompressionGood CompressionLevel = 0x01
	CompressionBest CompressionLevel = 0x02
)

// EnCase6 default geometry: 64 sectors per chunk, 512-byte sectors, a
// 16375-entry table cap (EnCase 6's documented per-table-section
// limit), good (zlib level 6 equivalent) compression, and a 1.5 GiB
// segment cap.
const (
	DefaultSectorsPerChunk = 64
	DefaultBytesPerSector  = 512
	DefaultTableEntryCap   = 16375
	DefaultSegmentCapBytes = 1610612736 // 1.5 GiB
)

// Config carries the parameters an acquisition needs before the first
// segment file can be written.
type Config struct {
	BaseName         string
	MediaType        MediaType
	SectorsPerChunk  uint32
	BytesPerSector   uint32
	NumberOfSectors  uint64
	CompressionLevel CompressionLevel
	SegmentCapBytes  uint64
	TableEntryCap    int
}

// fileConfig is the TOML schema; only the fields an operator would
// reasonably override are exposed (BaseName and NumberOfSectors are
// supplied programmatically by the caller, not read from the file).
type fileConfig struct {
	SectorsPerChunk  uint32 `toml:"sectors_per_chunk"`
	BytesPerSector   uint32 `toml:"bytes_per_sector"`
	CompressionLevel string `toml:"compression_level"`
	SegmentCapBytes  uint64 `toml:"segment_cap_bytes"`
	TableEntryCap    int    `toml:"table_entry_cap"`
}

// Default returns the compiled-in EnCase6-compatible defaults for a
// physical-media acquisition of the given size.
func Default(baseName string, numberOfSectors uint64) Config {
	return Config{
		BaseName:         baseName,
		MediaType:        MediaFixed,
		SectorsPerChunk:  DefaultSectorsPerChunk,
		BytesPerSector:   DefaultBytesPerSector,
		NumberOfSectors:  numberOfSectors,
		CompressionLevel: CompressionGood,
		SegmentCapBytes:  DefaultSegmentCapBytes,
		TableEntryCap:    DefaultTableEntryCap,
	}
}

// Load reads path and overlays it onto the EnCase6 defaults. Fields
// absent from the file keep their default value. A missing file is not
// an error in LoadOrDefault; Load itself always requires the file to
// exist and parse.
func Load(path, baseName string, numberOfSectors uint64) (Config, error) {
	cfg := Default(baseName, numberOfSectors)
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return Config{}, fmt.Errorf("acqconfig: decode %s: %w", path, err)
	}
	applyOverrides(&cfg, fc)
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the EnCase6 defaults,
// without error, when path is empty or does not exist.
func LoadOrDefault(path, baseName string, numberOfSectors uint64) Config {
	cfg := Default(baseName, numberOfSectors)
	if path == "" {
		return cfg
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return cfg
	}
	applyOverrides(&cfg, fc)
	return cfg
}

func applyOverrides(cfg *Config, fc fileConfig) {
	if fc.SectorsPerChunk != 0 {
		cfg.SectorsPerChunk = fc.SectorsPerChunk
	}
	if fc.BytesPerSector != 0 {
		cfg.BytesPerSector = fc.BytesPerSector
	}
	if fc.SegmentCapBytes != 0 {
		cfg.SegmentCapBytes = fc.SegmentCapBytes
	}
	if fc.TableEntryCap != 0 {
		cfg.TableEntryCap = fc.TableEntryCap
	}
	switch fc.CompressionLevel {
	case "none":
		cfg.CompressionLevel = CompressionNone
	case "good":
		cfg.CompressionLevel = CompressionGood
	case "best":
		cfg.CompressionLevel = CompressionBest
	}
}
