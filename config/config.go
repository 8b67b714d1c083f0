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

package config

import (
	"runtime"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of the recommendation engine. Everything a
// component needs is passed in explicitly; there is no ambient state besides
// this struct.
type Config struct {
	Cache     CacheConfig     `mapstructure:"cache"`
	Ratings   RatingsConfig   `mapstructure:"ratings"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Evaluate  EvaluateConfig  `mapstructure:"evaluate"`
	Tune      TuneConfig      `mapstructure:"tune"`
}

// CacheConfig selects the similarity cache backend.
type CacheConfig struct {
	// Store is the connection URL of the similarity cache: memory://,
	// redis://host:port/db or none://.
	Store string `mapstructure:"store" validate:"required"`
	// TTL is the lifetime of cached similarity scores. Zero disables
	// expiry by age.
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// RatingsConfig is the accepted rating value range. Values outside the range
// are rejected on ingestion and predictions are clamped into it.
type RatingsConfig struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max" validate:"gtfield=Min"`
}

// RecommendConfig holds the knobs of the neighborhood model.
type RecommendConfig struct {
	// Metric is the similarity measure used to build neighborhoods.
	Metric string `mapstructure:"metric" validate:"oneof=cosine pearson euclidean"`
	// NeighborhoodSize is the number of neighbors (k) used for prediction.
	NeighborhoodSize int `mapstructure:"neighborhood_size" validate:"gt=0"`
	// MinSupport is the minimum co-rated count before a similarity score
	// counts as evidence.
	MinSupport int `mapstructure:"min_support" validate:"gte=1"`
	// CandidatePool bounds the number of unrated items scored per top-N
	// request on catalogs too large to score exhaustively.
	CandidatePool int `mapstructure:"candidate_pool" validate:"gt=0"`
	// Jobs is the number of parallel workers for prediction and the batch
	// similarity precompute.
	Jobs    int           `mapstructure:"jobs" validate:"gte=1"`
	Popular PopularConfig `mapstructure:"popular"`
}

// PopularConfig configures the non-personalized popularity ranker used as the
// cold-start fallback. Score and Filter are expressions over the per-item
// aggregates {mean, count}.
type PopularConfig struct {
	Score  string `mapstructure:"score" validate:"required"`
	Filter string `mapstructure:"filter"`
	// MinRatings is the minimum rating count before an item may be ranked,
	// so a single outlier rating cannot dominate the ranking. Ignored when
	// Filter is set explicitly.
	MinRatings int `mapstructure:"min_ratings" validate:"gte=1"`
}

// EvaluateConfig configures offline evaluation.
type EvaluateConfig struct {
	// TestRatio is the fraction of ratings held out for testing.
	TestRatio float64 `mapstructure:"test_ratio" validate:"gt=0,lt=1"`
	// TopK is the list length for Precision@K and Recall@K.
	TopK int `mapstructure:"top_k" validate:"gt=0"`
	// RelevanceThreshold is the minimum held-out rating for an item to
	// count as relevant in ranking metrics.
	RelevanceThreshold float64 `mapstructure:"relevance_threshold"`
	// Seed makes hold-out splits reproducible.
	Seed int64 `mapstructure:"seed"`
}

// TuneConfig configures the hyperparameter search.
type TuneConfig struct {
	Trials        int `mapstructure:"trials" validate:"gt=0"`
	MaxNeighbors  int `mapstructure:"max_neighbors" validate:"gt=0"`
	MaxMinSupport int `mapstructure:"max_min_support" validate:"gte=1"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Store: "memory://",
		},
		Ratings: RatingsConfig{
			Min: 1,
			Max: 5,
		},
		Recommend: RecommendConfig{
			Metric:           "cosine",
			NeighborhoodSize: 10,
			MinSupport:       2,
			CandidatePool:    1000,
			Jobs:             runtime.NumCPU(),
			Popular: PopularConfig{
				Score:      "mean",
				MinRatings: 2,
			},
		},
		Evaluate: EvaluateConfig{
			TestRatio:          0.2,
			TopK:               10,
			RelevanceThreshold: 4,
			Seed:               0,
		},
		Tune: TuneConfig{
			Trials:        20,
			MaxNeighbors:  50,
			MaxMinSupport: 5,
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [cache]
	viper.SetDefault("cache.store", defaultConfig.Cache.Store)
	viper.SetDefault("cache.ttl", defaultConfig.Cache.TTL)
	// [ratings]
	viper.SetDefault("ratings.min", defaultConfig.Ratings.Min)
	viper.SetDefault("ratings.max", defaultConfig.Ratings.Max)
	// [recommend]
	viper.SetDefault("recommend.metric", defaultConfig.Recommend.Metric)
	viper.SetDefault("recommend.neighborhood_size", defaultConfig.Recommend.NeighborhoodSize)
	viper.SetDefault("recommend.min_support", defaultConfig.Recommend.MinSupport)
	viper.SetDefault("recommend.candidate_pool", defaultConfig.Recommend.CandidatePool)
	viper.SetDefault("recommend.jobs", defaultConfig.Recommend.Jobs)
	// [recommend.popular]
	viper.SetDefault("recommend.popular.score", defaultConfig.Recommend.Popular.Score)
	viper.SetDefault("recommend.popular.filter", defaultConfig.Recommend.Popular.Filter)
	viper.SetDefault("recommend.popular.min_ratings", defaultConfig.Recommend.Popular.MinRatings)
	// [evaluate]
	viper.SetDefault("evaluate.test_ratio", defaultConfig.Evaluate.TestRatio)
	viper.SetDefault("evaluate.top_k", defaultConfig.Evaluate.TopK)
	viper.SetDefault("evaluate.relevance_threshold", defaultConfig.Evaluate.RelevanceThreshold)
	viper.SetDefault("evaluate.seed", defaultConfig.Evaluate.Seed)
	// [tune]
	viper.SetDefault("tune.trials", defaultConfig.Tune.Trials)
	viper.SetDefault("tune.max_neighbors", defaultConfig.Tune.MaxNeighbors)
	viper.SetDefault("tune.max_min_support", defaultConfig.Tune.MaxMinSupport)
}

func durationHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// LoadConfig loads and validates the configuration from a TOML file.
// Environment variables prefixed with CORATE_ override file values, e.g.
// CORATE_CACHE_STORE overrides cache.store.
func LoadConfig(path string) (*Config, error) {
	setDefault()

	// load config file
	viper.SetConfigType("toml")
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Trace(err)
	}

	// load environment variables
	viper.SetEnvPrefix("corate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var conf Config
	if err := viper.Unmarshal(&conf, viper.DecodeHook(durationHook())); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
