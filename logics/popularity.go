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
	"fmt"
	"reflect"
	"sort"

	"github.com/corate-io/corate/config"
	"github.com/corate-io/corate/storage/rating"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/juju/errors"
)

// ItemStats are the global aggregates of one item, the inputs of the
// popularity score and filter expressions.
type ItemStats struct {
	ItemId string
	Mean   float64
	Count  int
}

// Popularity is the non-personalized ranking source used as the cold-start
// fallback: items are ranked by an expression over their global aggregates
// instead of a per-user neighborhood. The score and the qualifying filter are
// expressions over {mean, count} so deployments can switch to e.g.
// count-weighted scores by configuration.
type Popularity struct {
	store      *rating.Store
	scoreFunc  *vm.Program
	filterFunc *vm.Program
}

func popularityEnv() map[string]any {
	return map[string]any{
		"mean":  float64(0),
		"count": 0,
	}
}

func NewPopularity(cfg config.PopularConfig, store *rating.Store) (*Popularity, error) {
	// compile score expression
	scoreFunc, err := expr.Compile(cfg.Score, expr.Env(popularityEnv()))
	if err != nil {
		return nil, errors.Trace(err)
	}
	switch scoreFunc.Node().Type().Kind() {
	case reflect.Float64, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return nil, errors.New("score expression must return a number")
	}
	// compile filter expression
	filter := cfg.Filter
	if filter == "" {
		filter = fmt.Sprintf("count >= %d", cfg.MinRatings)
	}
	filterFunc, err := expr.Compile(filter, expr.Env(popularityEnv()))
	if err != nil {
		return nil, errors.Trace(err)
	}
	if filterFunc.Node().Type().Kind() != reflect.Bool {
		return nil, errors.New("filter expression must return a bool")
	}
	return &Popularity{
		store:      store,
		scoreFunc:  scoreFunc,
		filterFunc: filterFunc,
	}, nil
}

// Stats returns the global aggregates of an item.
func (p *Popularity) Stats(itemId string) (ItemStats, error) {
	ratings, err := p.store.ItemRatings(itemId)
	if err != nil {
		return ItemStats{}, errors.Trace(err)
	}
	var sum float64
	for _, value := range ratings {
		sum += value
	}
	return ItemStats{
		ItemId: itemId,
		Mean:   sum / float64(len(ratings)),
		Count:  len(ratings),
	}, nil
}

func (p *Popularity) evaluate(stats ItemStats) (score float64, qualified bool, err error) {
	env := map[string]any{
		"mean":  stats.Mean,
		"count": stats.Count,
	}
	result, err := expr.Run(p.filterFunc, env)
	if err != nil {
		return 0, false, errors.Trace(err)
	}
	if !result.(bool) {
		return 0, false, nil
	}
	result, err = expr.Run(p.scoreFunc, env)
	if err != nil {
		return 0, false, errors.Trace(err)
	}
	switch typed := result.(type) {
	case float64:
		score = typed
	case int:
		score = float64(typed)
	case int8:
		score = float64(typed)
	case int16:
		score = float64(typed)
	case int32:
		score = float64(typed)
	case int64:
		score = float64(typed)
	default:
		return 0, false, errors.Errorf("score expression returned %T", result)
	}
	return score, true, nil
}

// Predict returns the item's global mean rating regardless of the user. Items
// unknown to the store or failing the qualifying filter are cold starts.
func (p *Popularity) Predict(_ context.Context, userId, itemId string) (Prediction, error) {
	stats, err := p.Stats(itemId)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return Prediction{}, ErrColdStart
		}
		return Prediction{}, errors.Trace(err)
	}
	if _, qualified, err := p.evaluate(stats); err != nil {
		return Prediction{}, errors.Trace(err)
	} else if !qualified {
		return Prediction{}, ErrColdStart
	}
	return Prediction{
		UserId: userId,
		ItemId: itemId,
		Value:  stats.Mean,
	}, nil
}

// TopN ranks qualifying items by score, ties broken by larger rating count
// and then by id for determinism. Items the user has already rated are
// excluded; unknown users receive the unfiltered ranking.
func (p *Popularity) TopN(ctx context.Context, userId string, n int) ([]Prediction, error) {
	if n <= 0 {
		return nil, errors.NotValidf("recommendation count %d", n)
	}
	userRatings, err := p.store.UserRatings(userId)
	if err != nil && !errors.Is(err, errors.NotFound) {
		return nil, errors.Trace(err)
	}
	type scoredItem struct {
		stats ItemStats
		score float64
	}
	scored := make([]scoredItem, 0)
	for _, itemId := range p.store.Items() {
		if err = ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		if _, rated := userRatings[itemId]; rated {
			continue
		}
		stats, err := p.Stats(itemId)
		if err != nil {
			return nil, errors.Trace(err)
		}
		score, qualified, err := p.evaluate(stats)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if qualified {
			scored = append(scored, scoredItem{stats: stats, score: score})
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].stats.Count != scored[j].stats.Count {
			return scored[i].stats.Count > scored[j].stats.Count
		}
		return scored[i].stats.ItemId < scored[j].stats.ItemId
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	predictions := make([]Prediction, 0, len(scored))
	for _, item := range scored {
		predictions = append(predictions, Prediction{
			UserId: userId,
			ItemId: item.stats.ItemId,
			Value:  item.stats.Mean,
		})
	}
	return predictions, nil
}
