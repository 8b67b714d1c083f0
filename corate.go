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

// Package corate assembles the rating store, similarity cache and
// neighborhood model into one engine.
package corate

import (
	"context"

	"github.com/corate-io/corate/base/log"
	"github.com/corate-io/corate/base/progress"
	"github.com/corate-io/corate/config"
	"github.com/corate-io/corate/logics"
	"github.com/corate-io/corate/storage/cache"
	"github.com/corate-io/corate/storage/rating"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Engine wires the configured components together. All state lives in the
// injected store and cache, so engines are safe to create per process.
type Engine struct {
	cfg         *config.Config
	store       *rating.Store
	cache       cache.Database
	recommender *logics.Recommender
}

// NewEngine opens the configured cache backend and assembles the engine
// around an empty rating store.
func NewEngine(cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	cacheClient, err := cache.Open(cfg.Cache.Store, cache.WithTTL(cfg.Cache.TTL))
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("open similarity cache",
		zap.String("store", log.RedactCacheURL(cfg.Cache.Store)),
		zap.Duration("ttl", cfg.Cache.TTL))
	store := rating.NewStore(cfg.Ratings.Min, cfg.Ratings.Max)
	recommender, err := logics.NewRecommender(cfg.Recommend, store, cacheClient)
	if err != nil {
		_ = cacheClient.Close()
		return nil, errors.Trace(err)
	}
	return &Engine{
		cfg:         cfg,
		store:       store,
		cache:       cacheClient,
		recommender: recommender,
	}, nil
}

// Store exposes the underlying rating store.
func (e *Engine) Store() *rating.Store {
	return e.store
}

func (e *Engine) Close() error {
	return e.cache.Close()
}

// UpsertRating writes one rating and drops every cached similarity the new
// rating may have changed, on both sides of the matrix.
func (e *Engine) UpsertRating(ctx context.Context, userId, itemId string, value float64) error {
	if err := e.store.Upsert(userId, itemId, value); err != nil {
		return errors.Trace(err)
	}
	if err := e.cache.Invalidate(ctx, userId); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(e.cache.Invalidate(ctx, itemId))
}

// LoadRatings bulk-writes ratings and purges the similarity cache once at the
// end instead of invalidating per rating.
func (e *Engine) LoadRatings(ctx context.Context, ratings []rating.Rating) error {
	for _, r := range ratings {
		if err := e.store.Upsert(r.UserId, r.ItemId, r.Value); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(e.cache.Purge(ctx))
}

// Predict estimates one user's rating of one item, falling back to item
// popularity for cold-start pairs.
func (e *Engine) Predict(ctx context.Context, userId, itemId string) (logics.Prediction, error) {
	return e.recommender.Predict(ctx, userId, itemId)
}

// TopN recommends up to n unseen items for a user.
func (e *Engine) TopN(ctx context.Context, userId string, n int) ([]logics.Prediction, error) {
	return e.recommender.TopN(ctx, userId, n)
}

// UserNeighbors returns the users most similar to the given user under the
// configured metric.
func (e *Engine) UserNeighbors(ctx context.Context, userId string, k int) (logics.Neighborhood, error) {
	return e.neighbors(ctx, e.store.UserView(), userId, k)
}

// ItemNeighbors returns the items most similar to the given item under the
// configured metric.
func (e *Engine) ItemNeighbors(ctx context.Context, itemId string, k int) (logics.Neighborhood, error) {
	return e.neighbors(ctx, e.store.ItemView(), itemId, k)
}

func (e *Engine) neighbors(ctx context.Context, view rating.View, target string, k int) (logics.Neighborhood, error) {
	search := logics.NewNeighborSearch(view, e.cache)
	return search.Search(ctx, target,
		logics.Metric(e.cfg.Recommend.Metric), k, e.cfg.Recommend.MinSupport)
}

// Precompute warms the similarity cache for every pair of the chosen kind.
func (e *Engine) Precompute(ctx context.Context, kind rating.Kind, tracer *progress.Tracer) (logics.BatchStats, error) {
	batch := logics.NewBatch(e.store.ViewOf(kind), e.cache,
		logics.Metric(e.cfg.Recommend.Metric), e.cfg.Recommend.Jobs, tracer)
	return batch.Run(ctx)
}
