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
	"math"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/corate-io/corate/config"
	"github.com/corate-io/corate/storage/rating"
	"github.com/juju/errors"
)

// SearchResult is the best neighborhood configuration found by a search.
type SearchResult struct {
	Metric           string
	NeighborhoodSize int
	MinSupport       int
	RMSE             float64
	Report           *Report
}

// Search tunes the neighborhood knobs (metric, k, minimum support) against
// hold-out RMSE.
type Search struct {
	cfg    *config.Config
	train  []rating.Rating
	test   []rating.Rating
	result SearchResult
}

func NewSearch(cfg *config.Config, train, test []rating.Rating) *Search {
	return &Search{
		cfg:    cfg,
		train:  train,
		test:   test,
		result: SearchResult{RMSE: math.Inf(1)},
	}
}

// Objective evaluates one trial configuration and returns its hold-out RMSE.
func (s *Search) Objective(trial goptuna.Trial) (float64, error) {
	metric, err := trial.SuggestCategorical("metric", []string{"cosine", "pearson", "euclidean"})
	if err != nil {
		return 0, errors.Trace(err)
	}
	neighborhoodSize, err := trial.SuggestInt("neighborhood_size", 1, s.cfg.Tune.MaxNeighbors)
	if err != nil {
		return 0, errors.Trace(err)
	}
	minSupport, err := trial.SuggestInt("min_support", 1, s.cfg.Tune.MaxMinSupport)
	if err != nil {
		return 0, errors.Trace(err)
	}
	trialConfig := *s.cfg
	trialConfig.Recommend.Metric = metric
	trialConfig.Recommend.NeighborhoodSize = neighborhoodSize
	trialConfig.Recommend.MinSupport = minSupport
	report, err := Evaluate(context.Background(), &trialConfig, s.train, s.test)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if report.Predictable == 0 {
		// nothing was predictable under this configuration
		return math.MaxFloat64, nil
	}
	if report.RMSE < s.result.RMSE {
		s.result = SearchResult{
			Metric:           metric,
			NeighborhoodSize: neighborhoodSize,
			MinSupport:       minSupport,
			RMSE:             report.RMSE,
			Report:           report,
		}
	}
	return report.RMSE, nil
}

// Result returns the best configuration seen so far.
func (s *Search) Result() SearchResult {
	return s.result
}

// Tune runs a TPE search over the neighborhood knobs, minimizing hold-out
// RMSE over the configured number of trials.
func Tune(cfg *config.Config, train, test []rating.Rating) (SearchResult, error) {
	search := NewSearch(cfg, train, test)
	study, err := goptuna.CreateStudy("corate",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler()))
	if err != nil {
		return SearchResult{}, errors.Trace(err)
	}
	if err = study.Optimize(search.Objective, cfg.Tune.Trials); err != nil {
		return SearchResult{}, errors.Trace(err)
	}
	return search.Result(), nil
}
