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
	"testing"

	"github.com/corate-io/corate/storage/cache"
	"github.com/corate-io/corate/storage/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchRun(t *testing.T) {
	ctx := context.Background()
	store := newMovieStore(t)
	db, err := cache.Open("memory://")
	require.NoError(t, err)
	defer db.Close()
	batch := NewBatch(store.UserView(), db, Cosine, 2, nil)
	stats, err := batch.Run(ctx)
	assert.NoError(t, err)
	// every pair overlaps in the movie scenario: C(5,2) similarities
	assert.Equal(t, 5, stats.Entities)
	assert.Equal(t, 10, stats.Computed)
	assert.Zero(t, stats.Skipped)
	assert.Zero(t, stats.Undefined)
	// all pairs are cached afterwards
	score, err := db.Get(ctx, "alice", "diana", string(Cosine))
	assert.NoError(t, err)
	assert.InDelta(t, 0.995, score.Value, 1e-3)
	// a second run skips everything: safe to restart
	stats, err = batch.Run(ctx)
	assert.NoError(t, err)
	assert.Zero(t, stats.Computed)
	assert.Equal(t, 10, stats.Skipped)
}

func TestBatchUndefinedPairs(t *testing.T) {
	ctx := context.Background()
	store := rating.NewStore(1, 5)
	require.NoError(t, store.Upsert("a", "m1", 5))
	require.NoError(t, store.Upsert("b", "m1", 4))
	require.NoError(t, store.Upsert("c", "m2", 3))
	db, err := cache.Open("memory://")
	require.NoError(t, err)
	defer db.Close()
	batch := NewBatch(store.UserView(), db, Cosine, 1, nil)
	stats, err := batch.Run(ctx)
	assert.NoError(t, err)
	// no-overlap pairs are never cached, they stay undefined
	assert.Equal(t, 1, stats.Computed)
	assert.Equal(t, 2, stats.Undefined)
	_, err = db.Get(ctx, "a", "c", string(Cosine))
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestBatchItemView(t *testing.T) {
	ctx := context.Background()
	store := newMovieStore(t)
	db, err := cache.Open("memory://")
	require.NoError(t, err)
	defer db.Close()
	batch := NewBatch(store.ItemView(), db, Pearson, 2, nil)
	stats, err := batch.Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 4, stats.Entities)
	assert.Greater(t, stats.Computed, 0)
	_, err = db.Get(ctx, "inception", "matrix", string(Pearson))
	assert.NoError(t, err)
}

func TestBatchCancellation(t *testing.T) {
	store := newMovieStore(t)
	db, err := cache.Open("memory://")
	require.NoError(t, err)
	defer db.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	batch := NewBatch(store.UserView(), db, Cosine, 1, nil)
	_, err = batch.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchInvalidMetric(t *testing.T) {
	store := newMovieStore(t)
	batch := NewBatch(store.UserView(), cache.NoDatabase{}, "jaccard", 1, nil)
	_, err := batch.Run(context.Background())
	assert.Error(t, err)
}
