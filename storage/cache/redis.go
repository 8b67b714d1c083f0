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

package cache

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

const (
	redisScorePrefix  = "corate:score:"
	redisEntityPrefix = "corate:entity:"
)

// Redis is a shared similarity cache. Records are stored as flat versioned
// JSON documents so they can be inspected and invalidated by age; a set per
// entity indexes the score keys referencing it.
type Redis struct {
	client  *redis.Client
	options Options
}

func openRedis(path string, options Options) (*Redis, error) {
	opt, err := redis.ParseURL(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Redis{
		client:  redis.NewClient(opt),
		options: options,
	}, nil
}

// Close redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get returns the cached similarity of a pair or ErrCacheMiss. Records with a
// foreign version read as misses.
func (r *Redis) Get(ctx context.Context, a, b, metric string) (Score, error) {
	data, err := r.client.Get(ctx, redisScorePrefix+scoreKey(a, b, metric)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			GetScoreMissTimes.Inc()
			return Score{}, ErrCacheMiss
		}
		return Score{}, errors.Trace(err)
	}
	var score Score
	if err = json.Unmarshal([]byte(data), &score); err != nil {
		return Score{}, errors.Trace(err)
	}
	if score.Version != ScoreVersion {
		GetScoreMissTimes.Inc()
		return Score{}, ErrCacheMiss
	}
	GetScoreHitTimes.Inc()
	return score, nil
}

// Put stores similarity records and indexes them under both entities.
func (r *Redis) Put(ctx context.Context, scores ...Score) error {
	p := r.client.Pipeline()
	for _, score := range scores {
		data, err := json.Marshal(score)
		if err != nil {
			return errors.Trace(err)
		}
		key := redisScorePrefix + scoreKey(score.A, score.B, score.Metric)
		p.Set(ctx, key, string(data), r.options.TTL)
		p.SAdd(ctx, redisEntityPrefix+score.A, key)
		p.SAdd(ctx, redisEntityPrefix+score.B, key)
		PutScoreTimes.Inc()
	}
	_, err := p.Exec(ctx)
	return errors.Trace(err)
}

// Invalidate removes every record referencing the entity. Index members whose
// records expired are deleted along the way.
func (r *Redis) Invalidate(ctx context.Context, entity string) error {
	indexKey := redisEntityPrefix + entity
	keys, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return errors.Trace(err)
	}
	p := r.client.Pipeline()
	if len(keys) > 0 {
		p.Del(ctx, keys...)
	}
	p.Del(ctx, indexKey)
	if _, err = p.Exec(ctx); err != nil {
		return errors.Trace(err)
	}
	InvalidateTimes.Inc()
	return nil
}

// Purge removes all records.
func (r *Redis) Purge(ctx context.Context) error {
	for _, pattern := range []string{redisScorePrefix + "*", redisEntityPrefix + "*"} {
		var cursor uint64
		for {
			keys, next, err := r.client.Scan(ctx, cursor, pattern, 1024).Result()
			if err != nil {
				return errors.Trace(err)
			}
			if len(keys) > 0 {
				if err = r.client.Del(ctx, keys...).Err(); err != nil {
					return errors.Trace(err)
				}
			}
			if cursor = next; cursor == 0 {
				break
			}
		}
	}
	return nil
}
