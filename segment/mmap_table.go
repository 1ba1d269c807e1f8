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

package segment

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MmapTableThreshold is the table-section payload size above which
// ReadTableMmap is preferred over ReadTable, mirroring the teacher's
// mmapTableReader fast path for large chunk indexes.
const MmapTableThreshold = 1 << 20 // 1 MiB of table entries (~262k chunks)

// MmapTable pairs a parsed table with the memory-mapped region it was
// parsed from. The parsed entries are a copy on the Go heap (ReadTable
// copies them out of the region). The caller must call Close when
// done; media.Engine releases them in its Close.
type MmapTable struct {
	region mmap.MMap
	*Table
}

// Close unmaps the backing region.
func (m *MmapTable) Close() error {
	if m.region == nil {
		return nil
	}
	err := m.region.Unmap()
	m.region = nil
	return err
}

// ReadTableMmap memory-maps f from its start up to offset+size (f's
// current position does not matter) and parses the table/table2
// payload found at [offset, offset+size) with ReadTable, which copies
// the entry array onto the Go heap.
func ReadTableMmap(f *os.File, offset, size int64) (*MmapTable, error) {
	region, err := mmap.MapRegion(f, int(offset+size), mmap.RDONLY, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("segment: mmap table section: %w", err)
	}
	if int64(len(region)) < offset+size {
		region.Unmap()
		return nil, fmt.Errorf("segment: mmap region shorter than table section")
	}
	t, err := ReadTable(region[offset : offset+size])
	if err != nil {
		region.Unmap()
		return nil, err
	}
	return &MmapTable{region: region, Table: t}, nil
}
