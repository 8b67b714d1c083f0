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

	"github.com/corate-io/corate/common/heap"
	"github.com/corate-io/corate/common/parallel"
	"github.com/corate-io/corate/config"
	"github.com/corate-io/corate/storage/cache"
	"github.com/corate-io/corate/storage/rating"
	"github.com/juju/errors"
)

// ErrColdStart signals that no usable neighborhood exists for a prediction:
// a new user, an item nobody in the neighborhood rated, or no positively
// similar neighbors at all. It is an expected, recoverable result, never
// coerced into a numeric guess.
var ErrColdStart = errors.New("cold start")

// Prediction is a predicted preference with the evidence behind it.
// Confidence is the mean similarity of the contributing neighbors; callers
// use it to suppress low-confidence recommendations.
type Prediction struct {
	UserId     string
	ItemId     string
	Value      float64
	Confidence float64
	Neighbors  int
}

// Source is the common contract of ranking sources. The neighborhood model,
// the popularity fallback and any future model (e.g. matrix factorization)
// implement the same interface, selected by configuration instead of
// branching at call sites.
type Source interface {
	// Predict estimates the rating userId would give itemId, or ErrColdStart.
	Predict(ctx context.Context, userId, itemId string) (Prediction, error)
	// TopN returns up to n recommended items for userId, best first,
	// excluding items the user has already rated.
	TopN(ctx context.Context, userId string, n int) ([]Prediction, error)
}

// KNN is the user-based neighborhood predictor: the prediction for a (user,
// item) pair is the similarity-weighted average of the ratings the user's
// neighbors gave the item.
type KNN struct {
	cfg       config.RecommendConfig
	store     *rating.Store
	neighbors *NeighborSearch
}

func NewKNN(cfg config.RecommendConfig, store *rating.Store, cacheClient cache.Database) *KNN {
	return &KNN{
		cfg:       cfg,
		store:     store,
		neighbors: NewNeighborSearch(store.UserView(), cacheClient),
	}
}

// Predict estimates the rating userId would give itemId:
//
//	value = Σ(sim_i * rating_i) / Σ(sim_i)
//
// over the neighbors of userId that rated itemId. The result is clamped into
// the configured rating range since extrapolation may leave it slightly
// outside.
func (k *KNN) Predict(ctx context.Context, userId, itemId string) (Prediction, error) {
	neighborhood, err := k.neighbors.Search(ctx, userId, Metric(k.cfg.Metric), k.cfg.NeighborhoodSize, k.cfg.MinSupport)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			// an unknown user has no neighborhood
			return Prediction{}, ErrColdStart
		}
		return Prediction{}, errors.Trace(err)
	}
	itemRatings, err := k.store.ItemRatings(itemId)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return Prediction{}, ErrColdStart
		}
		return Prediction{}, errors.Trace(err)
	}
	var weightedSum, weightTotal float64
	count := 0
	for _, neighbor := range neighborhood {
		if value, rated := itemRatings[neighbor.Id]; rated {
			weightedSum += neighbor.Similarity * value
			weightTotal += neighbor.Similarity
			count++
		}
	}
	if count == 0 {
		return Prediction{}, ErrColdStart
	}
	min, max := k.store.Range()
	value := weightedSum / weightTotal
	if value < min {
		value = min
	} else if value > max {
		value = max
	}
	return Prediction{
		UserId:     userId,
		ItemId:     itemId,
		Value:      value,
		Confidence: weightTotal / float64(count),
		Neighbors:  count,
	}, nil
}

// TopN scores the items the user has not rated and returns the n best
// predictions. Candidates are restricted to items rated by at least one
// neighbor, bounded by the configured pool size: the pool keeps the items
// with the largest summed neighbor similarity.
func (k *KNN) TopN(ctx context.Context, userId string, n int) ([]Prediction, error) {
	if n <= 0 {
		return nil, errors.NotValidf("recommendation count %d", n)
	}
	neighborhood, err := k.neighbors.Search(ctx, userId, Metric(k.cfg.Metric), k.cfg.NeighborhoodSize, k.cfg.MinSupport)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, nil
		}
		return nil, errors.Trace(err)
	}
	userRatings, err := k.store.UserRatings(userId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	// collect candidates rated by neighbors
	weights := make(map[string]float64)
	for _, neighbor := range neighborhood {
		neighborRatings, err := k.store.UserRatings(neighbor.Id)
		if err != nil {
			return nil, errors.Trace(err)
		}
		for itemId := range neighborRatings {
			if _, rated := userRatings[itemId]; !rated {
				weights[itemId] += neighbor.Similarity
			}
		}
	}
	// bound the candidate pool
	filter := heap.NewTopKFilter[string, float64](k.cfg.CandidatePool)
	for itemId, weight := range weights {
		filter.Push(itemId, weight)
	}
	candidates := filter.PopAllValues()
	// predict in parallel
	predictions := make([]*Prediction, len(candidates))
	err = parallel.Parallel(ctx, len(candidates), k.cfg.Jobs, func(_, jobId int) error {
		prediction, err := k.Predict(ctx, userId, candidates[jobId])
		if err != nil {
			if errors.Is(err, ErrColdStart) {
				return nil
			}
			return errors.Trace(err)
		}
		predictions[jobId] = &prediction
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	results := make([]Prediction, 0, len(candidates))
	for _, prediction := range predictions {
		if prediction != nil {
			results = append(results, *prediction)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Value != results[j].Value {
			return results[i].Value > results[j].Value
		}
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].ItemId < results[j].ItemId
	})
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}
