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

	"github.com/bits-and-blooms/bitset"
	"github.com/corate-io/corate/base/progress"
	"github.com/corate-io/corate/common/parallel"
	"github.com/corate-io/corate/storage/cache"
	"github.com/corate-io/corate/storage/rating"
	"github.com/juju/errors"
	"go.uber.org/atomic"
)

// Batch precomputes all pairwise similarities of one view of the rating
// matrix and writes them to the cache, the nightly warm-up run. Pairs already
// cached are skipped, so an interrupted run resumes where it stopped; each
// cache write is atomic per key, so restarting never corrupts the cache.
// Cancellation is observed between pairs, never inside one.
type Batch struct {
	view   rating.View
	cache  cache.Database
	metric Metric
	jobs   int
	tracer *progress.Tracer
}

// BatchStats summarizes one precompute run.
type BatchStats struct {
	// Entities is the number of entities in the view.
	Entities int
	// Computed is the number of similarities computed and cached.
	Computed int
	// Skipped is the number of pairs already cached.
	Skipped int
	// Undefined is the number of pairs with no co-rated items.
	Undefined int
}

func NewBatch(view rating.View, cacheClient cache.Database, metric Metric, jobs int, tracer *progress.Tracer) *Batch {
	if tracer == nil {
		tracer = progress.NewTracer("batch")
	}
	return &Batch{
		view:   view,
		cache:  cacheClient,
		metric: metric,
		jobs:   jobs,
		tracer: tracer,
	}
}

// Run computes the similarity of every entity pair in the view. Rows are
// distributed across workers; pairs within a row share no state with other
// rows, so last-write-wins cache writes are safe.
func (b *Batch) Run(ctx context.Context) (BatchStats, error) {
	similarity, err := SimilarityOf(b.metric)
	if err != nil {
		return BatchStats{}, errors.Trace(err)
	}
	ids := b.view.IDs()
	// Load all rating maps up front and index counterparts, so zero-overlap
	// pairs are rejected by a bitset intersection without touching the maps.
	counterparts := make(map[string]uint)
	ratings := make([]map[string]float64, len(ids))
	masks := make([]*bitset.BitSet, len(ids))
	for i, id := range ids {
		if ratings[i], err = b.view.Ratings(id); err != nil {
			return BatchStats{}, errors.Trace(err)
		}
		for key := range ratings[i] {
			if _, exist := counterparts[key]; !exist {
				counterparts[key] = uint(len(counterparts))
			}
		}
	}
	for i := range ids {
		masks[i] = bitset.New(uint(len(counterparts)))
		for key := range ratings[i] {
			masks[i].Set(counterparts[key])
		}
	}
	ctx, span := b.tracer.Start(ctx, "batch similarities", len(ids))
	var computed, skipped, undefined atomic.Int64
	err = parallel.Parallel(ctx, len(ids), b.jobs, func(_, i int) error {
		for j := i + 1; j < len(ids); j++ {
			// cancellation is checked between pairs
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			if masks[i].IntersectionCardinality(masks[j]) == 0 {
				undefined.Inc()
				continue
			}
			if _, err := b.cache.Get(ctx, ids[i], ids[j], string(b.metric)); err == nil {
				skipped.Inc()
				continue
			} else if !errors.Is(err, cache.ErrCacheMiss) {
				return errors.Trace(err)
			}
			value, support := similarity(ratings[i], ratings[j])
			if support == 0 {
				undefined.Inc()
				continue
			}
			if err := b.cache.Put(ctx, cache.NewScore(ids[i], ids[j], string(b.metric), value, support)); err != nil {
				return errors.Trace(err)
			}
			computed.Inc()
		}
		span.Add(1)
		return nil
	})
	if err != nil {
		span.Fail(err)
		return BatchStats{}, errors.Trace(err)
	}
	span.End()
	return BatchStats{
		Entities:  len(ids),
		Computed:  int(computed.Load()),
		Skipped:   int(skipped.Load()),
		Undefined: int(undefined.Load()),
	}, nil
}
