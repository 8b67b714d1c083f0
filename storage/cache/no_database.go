// Copyright 2025 corate Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import "context"

// NoDatabase disables similarity caching: every lookup misses and writes are
// dropped, so all similarities are recomputed on demand.
type NoDatabase struct{}

// Close method of NoDatabase does nothing.
func (NoDatabase) Close() error {
	return nil
}

// Get method of NoDatabase always misses.
func (NoDatabase) Get(_ context.Context, _, _, _ string) (Score, error) {
	return Score{}, ErrCacheMiss
}

// Put method of NoDatabase drops all records.
func (NoDatabase) Put(_ context.Context, _ ...Score) error {
	return nil
}

// Invalidate method of NoDatabase does nothing.
func (NoDatabase) Invalidate(_ context.Context, _ string) error {
	return nil
}

// Purge method of NoDatabase does nothing.
func (NoDatabase) Purge(_ context.Context) error {
	return nil
}
