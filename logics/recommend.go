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

	"github.com/corate-io/corate/config"
	"github.com/corate-io/corate/storage/cache"
	"github.com/corate-io/corate/storage/rating"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
)

// Recommender combines the neighborhood model with the popularity fallback:
// collaborative-filtering predictions always outrank backfill, and backfill
// only tops the list up to the requested length. It implements Source, so
// callers cannot tell it apart from a single model.
type Recommender struct {
	store   *rating.Store
	knn     *KNN
	popular *Popularity
}

func NewRecommender(cfg config.RecommendConfig, store *rating.Store, cacheClient cache.Database) (*Recommender, error) {
	popular, err := NewPopularity(cfg.Popular, store)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Recommender{
		store:   store,
		knn:     NewKNN(cfg, store, cacheClient),
		popular: popular,
	}, nil
}

// Predict tries the neighborhood model first and falls back to the item's
// global popularity on a cold start. If the fallback cannot produce a value
// either, ErrColdStart propagates to the caller.
func (r *Recommender) Predict(ctx context.Context, userId, itemId string) (Prediction, error) {
	prediction, err := r.knn.Predict(ctx, userId, itemId)
	if err == nil {
		return prediction, nil
	}
	if !errors.Is(err, ErrColdStart) {
		return Prediction{}, errors.Trace(err)
	}
	prediction, err = r.popular.Predict(ctx, userId, itemId)
	if err != nil && !errors.Is(err, ErrColdStart) {
		return Prediction{}, errors.Trace(err)
	}
	return prediction, errors.Trace(err)
}

// TopN returns up to n items: collaborative-filtering predictions first, then
// popularity backfill excluding duplicates and the user's rated items. The
// caller always receives n items whenever that many qualify system-wide,
// never an arbitrarily short list.
func (r *Recommender) TopN(ctx context.Context, userId string, n int) ([]Prediction, error) {
	if n <= 0 {
		return nil, errors.NotValidf("recommendation count %d", n)
	}
	results, err := r.knn.TopN(ctx, userId, n)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(results) >= n {
		return results, nil
	}
	// backfill from popularity
	excludeSet := mapset.NewSet[string]()
	for _, prediction := range results {
		excludeSet.Add(prediction.ItemId)
	}
	backfill, err := r.popular.TopN(ctx, userId, n)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, prediction := range backfill {
		if len(results) >= n {
			break
		}
		if !excludeSet.Contains(prediction.ItemId) {
			results = append(results, prediction)
			excludeSet.Add(prediction.ItemId)
		}
	}
	return results, nil
}
