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

package eval

import (
	"context"
	"sync"
	"time"

	"github.com/corate-io/corate/base/progress"
	"github.com/corate-io/corate/common/parallel"
	"github.com/corate-io/corate/config"
	"github.com/corate-io/corate/logics"
	"github.com/corate-io/corate/storage/cache"
	"github.com/corate-io/corate/storage/rating"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Report is the immutable aggregate of one evaluation run.
type Report struct {
	// rating-accuracy mode
	RMSE        float64
	MAE         float64
	TestCount   int
	Predictable int
	ColdStarts  int
	// ranking-quality mode
	TopK          int
	Precision     float64
	Recall        float64
	RankedUsers   int
	EmptyRelevant int
	CreatedAt     time.Time
}

// Evaluate measures the neighborhood model on a train/test split: the model
// predicts each held-out rating from the train set alone, and per-user top-K
// lists are scored against the held-out relevant items. Cold-start pairs are
// counted, not scored; they are expected, not failures.
func Evaluate(ctx context.Context, cfg *config.Config, train, test []rating.Rating) (*Report, error) {
	if len(train) == 0 || len(test) == 0 {
		return nil, errors.NotValidf("empty train or test set")
	}
	store := rating.NewStore(cfg.Ratings.Min, cfg.Ratings.Max)
	for _, r := range train {
		if err := store.Upsert(r.UserId, r.ItemId, r.Value); err != nil {
			return nil, errors.Trace(err)
		}
	}
	// a run-local cache, so repeated evaluations stay isolated
	cacheClient, err := cache.Open("memory://")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer cacheClient.Close()
	recommender, err := logics.NewRecommender(cfg.Recommend, store, cacheClient)
	if err != nil {
		return nil, errors.Trace(err)
	}
	report := &Report{
		TestCount: len(test),
		TopK:      cfg.Evaluate.TopK,
		CreatedAt: time.Now(),
	}

	// rating-accuracy mode
	knn := logics.NewKNN(cfg.Recommend, store, cacheClient)
	predictions := make([]*logics.Prediction, len(test))
	_, predictSpan := progress.Start(ctx, "predict ratings", len(test))
	err = parallel.Parallel(ctx, len(test), cfg.Recommend.Jobs, func(_, jobId int) error {
		defer predictSpan.Add(1)
		prediction, err := knn.Predict(ctx, test[jobId].UserId, test[jobId].ItemId)
		if err != nil {
			if errors.Is(err, logics.ErrColdStart) {
				return nil
			}
			return errors.Trace(err)
		}
		predictions[jobId] = &prediction
		return nil
	})
	if err != nil {
		progress.Fail(ctx, err)
		return nil, errors.Trace(err)
	}
	predictSpan.End()
	var predicted, actual []float64
	for i, prediction := range predictions {
		if prediction == nil {
			report.ColdStarts++
			continue
		}
		predicted = append(predicted, prediction.Value)
		actual = append(actual, test[i].Value)
	}
	report.Predictable = len(predicted)
	if report.Predictable > 0 {
		if report.RMSE, err = RMSE(predicted, actual); err != nil {
			return nil, errors.Trace(err)
		}
		if report.MAE, err = MAE(predicted, actual); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// ranking-quality mode
	relevantSets := make(map[string]mapset.Set[string])
	for _, r := range test {
		if r.Value >= cfg.Evaluate.RelevanceThreshold {
			if _, exist := relevantSets[r.UserId]; !exist {
				relevantSets[r.UserId] = mapset.NewThreadUnsafeSet[string]()
			}
			relevantSets[r.UserId].Add(r.ItemId)
		}
	}
	users := lo.Uniq(lo.Map(test, func(r rating.Rating, _ int) string {
		return r.UserId
	}))
	var mu sync.Mutex
	var precisionSum, recallSum float64
	var rankErr error
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if rankErr == nil {
			rankErr = err
		}
	}
	_, rankSpan := progress.Start(ctx, "rank users", len(users))
	err = parallel.ForEach(ctx, users, cfg.Recommend.Jobs, func(_ int, userId string) {
		defer rankSpan.Add(1)
		ranked, err := recommender.TopN(ctx, userId, cfg.Evaluate.TopK)
		if err != nil {
			fail(errors.Trace(err))
			return
		}
		rankList := lo.Map(ranked, func(p logics.Prediction, _ int) string {
			return p.ItemId
		})
		relevant, exist := relevantSets[userId]
		if !exist {
			relevant = mapset.NewThreadUnsafeSet[string]()
		}
		precision, err := Precision(rankList, relevant, cfg.Evaluate.TopK)
		if err != nil {
			fail(errors.Trace(err))
			return
		}
		recall, err := Recall(rankList, relevant, cfg.Evaluate.TopK)
		if err != nil {
			fail(errors.Trace(err))
			return
		}
		mu.Lock()
		defer mu.Unlock()
		precisionSum += precision
		recallSum += recall
		report.RankedUsers++
		if relevant.Cardinality() == 0 {
			// recall was defined as zero, flag it
			report.EmptyRelevant++
		}
	})
	if err == nil {
		err = rankErr
	}
	if err != nil {
		progress.Fail(ctx, err)
		return nil, errors.Trace(err)
	}
	rankSpan.End()
	if report.RankedUsers > 0 {
		report.Precision = precisionSum / float64(report.RankedUsers)
		report.Recall = recallSum / float64(report.RankedUsers)
	}
	return report, nil
}
