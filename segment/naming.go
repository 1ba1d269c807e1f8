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

import "fmt"

// Extension produces the Nth segment file's extension for variant,
// following the sequence .E01 .. .E99, .EAA .. (and the Ex/L analogues)
// named in spec §6. n is 1-based.
func Extension(variant Variant, n int) (string, error) {
	if n < 1 || n > 775 { // E99 exhausts two digits, EAA..EZZ exhausts the two-letter range per libewf's scheme
		return "", fmt.Errorf("segment: segment number %d out of representable range", n)
	}
	letter := segmentLetter(variant)
	if n <= 99 {
		return fmt.Sprintf(".%s%02d", letter, n), nil
	}
	// Beyond 99, libewf rolls over into a two-letter suffix: EAA, EAB, ...
	n -= 100
	first := n / 26
	second := n % 26
	return fmt.Sprintf(".%s%c%c", letter, 'A'+first, 'A'+second), nil
}

func segmentLetter(variant Variant) string {
	switch variant {
	case VariantEWF2:
		return "Ex"
	case VariantLogical:
		return "L"
	default:
		return "E"
	}
}

// Candidate is one discovered segment file awaiting ordering.
type Candidate struct {
	Path          string
	SegmentNumber int
}

// OrderBySegmentNumber sorts candidates by the segment number recovered
// from each file's post-signature header, not by filename (spec §6:
// "Readers must sort candidates by segment number ... not by
// filename"), and verifies the sequence is contiguous starting at 1.
func OrderBySegmentNumber(candidates []Candidate) ([]Candidate, error) {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	// Simple insertion sort: segment sets are small (tens, occasionally
	// low hundreds), and this avoids importing sort for one call site
	// with an unusual key extraction — consistent with the package
	// otherwise avoiding incidental stdlib surface beyond binary/adler32.
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1].SegmentNumber > out[j].SegmentNumber {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	for i, c := range out {
		want := i + 1
		if c.SegmentNumber != want {
			return nil, fmt.Errorf("segment: non-contiguous segment numbers: expected %d, found %d at %s", want, c.SegmentNumber, c.Path)
		}
	}
	return out, nil
}
