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
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jellydator/ttlcache/v3"
)

// Memory is an in-process similarity cache backed by a TTL cache. A secondary
// index maps each entity to the keys of all records referencing it, so
// Invalidate runs in time proportional to the entity's entry count.
type Memory struct {
	scores *ttlcache.Cache[string, Score]

	mu    sync.Mutex
	index map[string]mapset.Set[string]
}

func openMemory(options Options) *Memory {
	opts := []ttlcache.Option[string, Score]{
		ttlcache.WithDisableTouchOnHit[string, Score](),
	}
	if options.TTL > 0 {
		opts = append(opts, ttlcache.WithTTL[string, Score](options.TTL))
	}
	m := &Memory{
		scores: ttlcache.New[string, Score](opts...),
		index:  make(map[string]mapset.Set[string]),
	}
	go m.scores.Start()
	return m
}

func scoreKey(a, b, metric string) string {
	a, b = Key(a, b)
	return strings.Join([]string{a, b, metric}, "/")
}

// Close stops the expiry loop.
func (m *Memory) Close() error {
	m.scores.Stop()
	return nil
}

// Get returns the cached similarity of a pair or ErrCacheMiss. Expired
// entries read as misses.
func (m *Memory) Get(_ context.Context, a, b, metric string) (Score, error) {
	item := m.scores.Get(scoreKey(a, b, metric))
	if item == nil {
		GetScoreMissTimes.Inc()
		return Score{}, ErrCacheMiss
	}
	GetScoreHitTimes.Inc()
	return item.Value(), nil
}

// Put stores similarity records. Each write is atomic per key and
// last-write-wins.
func (m *Memory) Put(_ context.Context, scores ...Score) error {
	for _, score := range scores {
		key := scoreKey(score.A, score.B, score.Metric)
		m.scores.Set(key, score, ttlcache.DefaultTTL)
		m.mu.Lock()
		for _, entity := range []string{score.A, score.B} {
			if _, exist := m.index[entity]; !exist {
				m.index[entity] = mapset.NewThreadUnsafeSet[string]()
			}
			m.index[entity].Add(key)
		}
		m.mu.Unlock()
		PutScoreTimes.Inc()
	}
	return nil
}

// Invalidate removes every record referencing the entity. Records between
// unrelated pairs are left untouched.
func (m *Memory) Invalidate(_ context.Context, entity string) error {
	m.mu.Lock()
	keys, exist := m.index[entity]
	delete(m.index, entity)
	m.mu.Unlock()
	if exist {
		keys.Each(func(key string) bool {
			m.scores.Delete(key)
			return false
		})
	}
	InvalidateTimes.Inc()
	return nil
}

// Purge removes all records.
func (m *Memory) Purge(_ context.Context) error {
	m.scores.DeleteAll()
	m.mu.Lock()
	m.index = make(map[string]mapset.Set[string])
	m.mu.Unlock()
	return nil
}
