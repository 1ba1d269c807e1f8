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

// Stats exposes the observable counters named in spec §8's seed tests:
// table_fallbacks (S4) and chunk-integrity failures, plus cache hits and
// misses. HandleEvictions is not incremented anywhere and always reads
// 0; handle-pool evictions are not counted. Read with Engine.Stats();
// safe to call concurrently with the engine's own lock held internally.
type Stats struct {
	TableFallbacks        int
	HandleEvictions       int
	ChunkIntegrityFailures int
	CacheHits             int
	CacheMisses           int
}
