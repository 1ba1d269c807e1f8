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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtensionEWF1(t *testing.T) {
	ext, err := Extension(VariantEWF1, 1)
	require.NoError(t, err)
	require.Equal(t, ".E01", ext)

	ext, err = Extension(VariantEWF1, 99)
	require.NoError(t, err)
	require.Equal(t, ".E99", ext)

	ext, err = Extension(VariantEWF1, 100)
	require.NoError(t, err)
	require.Equal(t, ".EAA", ext)
}

func TestExtensionLogical(t *testing.T) {
	ext, err := Extension(VariantLogical, 1)
	require.NoError(t, err)
	require.Equal(t, ".L01", ext)
}

func TestOrderBySegmentNumberSortsNotByFilename(t *testing.T) {
	in := []Candidate{
		{Path: "z.E03", SegmentNumber: 3},
		{Path: "a.E01", SegmentNumber: 1},
		{Path: "m.E02", SegmentNumber: 2},
	}
	out, err := OrderBySegmentNumber(in)
	require.NoError(t, err)
	require.Equal(t, []string{"a.E01", "m.E02", "z.E03"}, []string{out[0].Path, out[1].Path, out[2].Path})
}

func TestOrderBySegmentNumberRejectsGaps(t *testing.T) {
	in := []Candidate{
		{Path: "a.E01", SegmentNumber: 1},
		{Path: "c.E03", SegmentNumber: 3},
	}
	_, err := OrderBySegmentNumber(in)
	require.Error(t, err)
}
