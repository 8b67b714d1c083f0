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
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMovieStore builds the five-user movie scenario: Alice and Diana share
// near-identical high ratings, Eve rates oppositely.
func newMovieStore(t *testing.T) *rating.Store {
	store := rating.NewStore(1, 5)
	ratings := []struct {
		user  string
		item  string
		value float64
	}{
		{"alice", "inception", 5}, {"alice", "matrix", 5}, {"alice", "interstellar", 4}, {"alice", "titanic", 1},
		{"bob", "inception", 3}, {"bob", "matrix", 4}, {"bob", "titanic", 3},
		{"carol", "inception", 4}, {"carol", "interstellar", 3}, {"carol", "titanic", 2},
		{"diana", "inception", 5}, {"diana", "matrix", 4}, {"diana", "interstellar", 4},
		{"eve", "inception", 1}, {"eve", "matrix", 2}, {"eve", "interstellar", 1}, {"eve", "titanic", 5},
	}
	for _, r := range ratings {
		require.NoError(t, store.Upsert(r.user, r.item, r.value))
	}
	return store
}

func TestNeighborSearch(t *testing.T) {
	ctx := context.Background()
	store := newMovieStore(t)
	search := NewNeighborSearch(store.UserView(), cache.NoDatabase{})
	neighbors, err := search.Search(ctx, "alice", Cosine, 3, 2)
	assert.NoError(t, err)
	require.Len(t, neighbors, 3)
	// Alice and Diana are the closest pair in the whole set
	assert.Equal(t, "diana", neighbors[0].Id)
	assert.Equal(t, "carol", neighbors[1].Id)
	assert.Equal(t, "bob", neighbors[2].Id)
	// Eve is the farthest candidate from Alice
	neighbors, err = search.Search(ctx, "alice", Cosine, 4, 2)
	assert.NoError(t, err)
	require.Len(t, neighbors, 4)
	assert.Equal(t, "eve", neighbors[3].Id)
}

func TestNeighborSearchHighestPair(t *testing.T) {
	ctx := context.Background()
	store := newMovieStore(t)
	search := NewNeighborSearch(store.UserView(), cache.NoDatabase{})
	// Alice-Diana is the highest pairwise similarity in the set
	var highestPair [2]string
	highest := -1.0
	users := store.Users()
	for _, a := range users {
		neighbors, err := search.Search(ctx, a, Cosine, len(users), 1)
		assert.NoError(t, err)
		for _, neighbor := range neighbors {
			if neighbor.Similarity > highest && neighbor.Id > a {
				highest = neighbor.Similarity
				highestPair = [2]string{a, neighbor.Id}
			}
		}
	}
	assert.Equal(t, [2]string{"alice", "diana"}, highestPair)
}

func TestNeighborSearchDeterminism(t *testing.T) {
	ctx := context.Background()
	store := rating.NewStore(1, 5)
	for _, user := range []string{"t", "c1", "c2"} {
		require.NoError(t, store.Upsert(user, "m1", 5))
		require.NoError(t, store.Upsert(user, "m2", 4))
	}
	// c3 matches on one item only: same similarity, less evidence
	require.NoError(t, store.Upsert("c3", "m1", 5))
	search := NewNeighborSearch(store.UserView(), cache.NoDatabase{})
	neighbors, err := search.Search(ctx, "t", Cosine, 3, 1)
	assert.NoError(t, err)
	require.Len(t, neighbors, 3)
	// equal similarity and support: lexicographic id order
	assert.Equal(t, "c1", neighbors[0].Id)
	assert.Equal(t, "c2", neighbors[1].Id)
	// equal similarity, less support sorts last
	assert.Equal(t, "c3", neighbors[2].Id)
	assert.Equal(t, 1, neighbors[2].Support)
	// min support discards weak evidence instead of padding
	neighbors, err = search.Search(ctx, "t", Cosine, 3, 2)
	assert.NoError(t, err)
	assert.Len(t, neighbors, 2)
	assert.False(t, neighbors.Contains("c3"))
}

func TestNeighborSearchExcludesNegative(t *testing.T) {
	ctx := context.Background()
	store := newMovieStore(t)
	search := NewNeighborSearch(store.UserView(), cache.NoDatabase{})
	// under Pearson, Eve correlates negatively with Alice and is excluded
	neighbors, err := search.Search(ctx, "alice", Pearson, 10, 2)
	assert.NoError(t, err)
	assert.False(t, neighbors.Contains("eve"))
	for _, neighbor := range neighbors {
		assert.Greater(t, neighbor.Similarity, 0.0)
	}
}

func TestNeighborSearchInvalidInput(t *testing.T) {
	ctx := context.Background()
	store := newMovieStore(t)
	search := NewNeighborSearch(store.UserView(), cache.NoDatabase{})
	_, err := search.Search(ctx, "alice", Cosine, 0, 1)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = search.Search(ctx, "alice", "jaccard", 3, 1)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = search.Search(ctx, "nobody", Cosine, 3, 1)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestNeighborSearchUsesCache(t *testing.T) {
	ctx := context.Background()
	store := newMovieStore(t)
	db, err := cache.Open("memory://")
	require.NoError(t, err)
	defer db.Close()
	search := NewNeighborSearch(store.UserView(), db)
	// the first search fills the cache
	first, err := search.Search(ctx, "alice", Cosine, 4, 1)
	assert.NoError(t, err)
	_, err = db.Get(ctx, "alice", "diana", string(Cosine))
	assert.NoError(t, err)
	// a crafted cache entry overrides recomputation
	require.NoError(t, db.Put(ctx, cache.NewScore("alice", "bob", string(Cosine), 0.999, 3)))
	second, err := search.Search(ctx, "alice", Cosine, 4, 1)
	assert.NoError(t, err)
	assert.Equal(t, "bob", second[0].Id)
	assert.NotEqual(t, first[0].Id, second[0].Id)
}

func TestNeighborSearchInconsistentCacheEntry(t *testing.T) {
	ctx := context.Background()
	store := newMovieStore(t)
	db, err := cache.Open("memory://")
	require.NoError(t, err)
	defer db.Close()
	// a support-0 record must never be produced; reading one is treated as
	// a miss and recomputed, not trusted
	bogus := cache.NewScore("alice", "diana", string(Cosine), 0.999, 0)
	require.NoError(t, db.Put(ctx, bogus))
	search := NewNeighborSearch(store.UserView(), db)
	neighbors, err := search.Search(ctx, "alice", Cosine, 4, 1)
	assert.NoError(t, err)
	assert.True(t, neighbors.Contains("diana"))
	score, err := db.Get(ctx, "alice", "diana", string(Cosine))
	assert.NoError(t, err)
	assert.Equal(t, 3, score.Support)
	assert.InDelta(t, 0.995, score.Value, 1e-3)
}
