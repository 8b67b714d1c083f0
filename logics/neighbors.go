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

package logics

import (
	"context"
	"sort"

	"github.com/corate-io/corate/base/log"
	"github.com/corate-io/corate/storage/cache"
	"github.com/corate-io/corate/storage/rating"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Neighbor is one entry of a neighborhood: a candidate entity, its similarity
// to the target and the co-rated count backing that similarity.
type Neighbor struct {
	Id         string
	Similarity float64
	Support    int
}

// Neighborhood is sorted descending by similarity, ties broken by larger
// support (more evidence) and then by id so results are reproducible.
type Neighborhood []Neighbor

// Contains reports whether the neighborhood includes the entity.
func (n Neighborhood) Contains(id string) bool {
	for _, neighbor := range n {
		if neighbor.Id == id {
			return true
		}
	}
	return false
}

// NeighborSearch ranks candidate entities by similarity to a target over one
// view of the rating matrix. Computed similarities are memoized in the cache;
// cache entries referencing entities unknown to the view are treated as
// misses and recomputed.
type NeighborSearch struct {
	view  rating.View
	cache cache.Database
}

func NewNeighborSearch(view rating.View, cacheClient cache.Database) *NeighborSearch {
	return &NeighborSearch{
		view:  view,
		cache: cacheClient,
	}
}

// Search returns the top k entities most similar to the target. Candidates
// with fewer than minSupport co-rated items or non-positive similarity are
// discarded: "no overlap" and "measured-and-dissimilar" both disqualify, they
// are never conflated with low similarity. If fewer than k candidates
// qualify, the result is shorter, never padded.
func (s *NeighborSearch) Search(ctx context.Context, target string, metric Metric, k, minSupport int) (Neighborhood, error) {
	if k <= 0 {
		return nil, errors.NotValidf("neighborhood size %d", k)
	}
	similarity, err := SimilarityOf(metric)
	if err != nil {
		return nil, errors.Trace(err)
	}
	targetRatings, err := s.view.Ratings(target)
	if err != nil {
		return nil, errors.Trace(err)
	}
	neighbors := make(Neighborhood, 0)
	for _, candidate := range s.view.IDs() {
		if candidate == target {
			continue
		}
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		value, support, err := s.similarity(ctx, target, candidate, targetRatings, metric, similarity)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if support == 0 || support < minSupport || value <= 0 {
			continue
		}
		neighbors = append(neighbors, Neighbor{Id: candidate, Similarity: value, Support: support})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		if neighbors[i].Support != neighbors[j].Support {
			return neighbors[i].Support > neighbors[j].Support
		}
		return neighbors[i].Id < neighbors[j].Id
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// similarity returns the memoized similarity of a pair, computing and caching
// it on a miss.
func (s *NeighborSearch) similarity(ctx context.Context, target, candidate string, targetRatings map[string]float64, metric Metric, similarity SimilarityFunc) (float64, int, error) {
	score, err := s.cache.Get(ctx, target, candidate, string(metric))
	if err == nil {
		if score.Support > 0 {
			return score.Value, score.Support, nil
		}
		// An undefined similarity must never have been cached: treat the
		// inconsistent entry as a miss and recompute.
		log.Logger().Warn("inconsistent cache entry",
			zap.String("a", score.A), zap.String("b", score.B),
			zap.String("metric", score.Metric), zap.Int("support", score.Support))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		return 0, 0, errors.Trace(err)
	}
	candidateRatings, err := s.view.Ratings(candidate)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			// The candidate disappeared from the store after enumeration.
			log.Logger().Warn("candidate vanished from rating store",
				zap.String("candidate", candidate), zap.String("kind", string(s.view.Kind())))
			return 0, 0, nil
		}
		return 0, 0, errors.Trace(err)
	}
	value, support := similarity(targetRatings, candidateRatings)
	if support > 0 {
		if err = s.cache.Put(ctx, cache.NewScore(target, candidate, string(metric), value, support)); err != nil {
			return 0, 0, errors.Trace(err)
		}
	}
	return value, support, nil
}
