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

import (
	"context"
	"strings"
	"time"

	"github.com/juju/errors"
)

const (
	NonePrefix   = "none://"
	MemoryPrefix = "memory://"
	RedisPrefix  = "redis://"
)

// ScoreVersion is the version of serialized similarity records. Bump it when
// the record layout changes so stale persisted records read as misses.
const ScoreVersion = 1

// ErrCacheMiss is returned by Get when no fresh entry exists for a pair. A
// miss always falls through to recomputation, never to a failure.
var ErrCacheMiss = errors.New("cache miss")

// Score is a memoized similarity between two entities. A and B are stored in
// canonical order (A < B) since similarity is symmetric.
type Score struct {
	Version    int       `json:"version"`
	A          string    `json:"a"`
	B          string    `json:"b"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	Support    int       `json:"support"`
	ComputedAt time.Time `json:"computed_at"`
}

// NewScore creates a similarity record with canonical entity order and the
// current timestamp.
func NewScore(a, b, metric string, value float64, support int) Score {
	a, b = Key(a, b)
	return Score{
		Version:    ScoreVersion,
		A:          a,
		B:          b,
		Metric:     metric,
		Value:      value,
		Support:    support,
		ComputedAt: time.Now(),
	}
}

// Key returns the canonical order of an unordered entity pair: the
// lexicographically smaller id first.
func Key(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Database is the interface of similarity caches. Keys are unordered entity
// pairs plus a metric name. Implementations must be safe for concurrent use;
// concurrent writers to the same key are last-write-wins since recomputation
// is idempotent.
type Database interface {
	Close() error
	// Get returns the cached similarity of a pair or ErrCacheMiss.
	Get(ctx context.Context, a, b, metric string) (Score, error)
	// Put stores similarity records, each write atomic per key.
	Put(ctx context.Context, scores ...Score) error
	// Invalidate removes every entry referencing the entity. It must be
	// called whenever the entity's underlying ratings change: a stale
	// similarity silently corrupts downstream predictions, a miss only
	// costs a recomputation.
	Invalidate(ctx context.Context, entity string) error
	// Purge removes all entries.
	Purge(ctx context.Context) error
}

// Open a similarity cache database specified by the connection URL:
// memory:// for the in-process TTL cache, redis:// for a shared Redis
// instance, none:// to disable caching.
func Open(path string, opts ...Option) (Database, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	switch {
	case strings.HasPrefix(path, NonePrefix):
		return NoDatabase{}, nil
	case strings.HasPrefix(path, MemoryPrefix):
		return openMemory(options), nil
	case strings.HasPrefix(path, RedisPrefix):
		return openRedis(path, options)
	}
	return nil, errors.NotSupportedf("cache storage %q", path)
}
