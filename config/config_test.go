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
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestUnmarshal(t *testing.T) {
	data, err := os.ReadFile("config.toml.template")
	assert.NoError(t, err)
	text := string(data)
	text = strings.Replace(text, "ttl = \"0s\"", "ttl = \"24h\"", 1)
	viper.SetConfigType("toml")
	err = viper.ReadConfig(strings.NewReader(text))
	assert.NoError(t, err)
	var config Config
	err = viper.Unmarshal(&config, viper.DecodeHook(durationHook()))
	assert.NoError(t, err)

	// [cache]
	assert.Equal(t, "memory://", config.Cache.Store)
	assert.Equal(t, 24*time.Hour, config.Cache.TTL)
	// [ratings]
	assert.Equal(t, 1.0, config.Ratings.Min)
	assert.Equal(t, 5.0, config.Ratings.Max)
	// [recommend]
	assert.Equal(t, "cosine", config.Recommend.Metric)
	assert.Equal(t, 10, config.Recommend.NeighborhoodSize)
	assert.Equal(t, 2, config.Recommend.MinSupport)
	assert.Equal(t, 1000, config.Recommend.CandidatePool)
	// [recommend.popular]
	assert.Equal(t, "mean", config.Recommend.Popular.Score)
	assert.Empty(t, config.Recommend.Popular.Filter)
	assert.Equal(t, 2, config.Recommend.Popular.MinRatings)
	// [evaluate]
	assert.Equal(t, 0.2, config.Evaluate.TestRatio)
	assert.Equal(t, 10, config.Evaluate.TopK)
	assert.Equal(t, 4.0, config.Evaluate.RelevanceThreshold)
	// [tune]
	assert.Equal(t, 20, config.Tune.Trials)
	assert.Equal(t, 50, config.Tune.MaxNeighbors)
	assert.Equal(t, 5, config.Tune.MaxMinSupport)
}

func TestLoadConfig(t *testing.T) {
	path := t.TempDir() + "/config.toml"
	data, err := os.ReadFile("config.toml.template")
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(path, data, 0644))

	t.Setenv("CORATE_RECOMMEND_METRIC", "pearson")
	t.Setenv("CORATE_RECOMMEND_NEIGHBORHOOD_SIZE", "25")
	t.Setenv("CORATE_CACHE_TTL", "1h")

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	// environment variables override file values
	assert.Equal(t, "pearson", config.Recommend.Metric)
	assert.Equal(t, 25, config.Recommend.NeighborhoodSize)
	assert.Equal(t, time.Hour, config.Cache.TTL)
	// file values survive where no override exists
	assert.Equal(t, "memory://", config.Cache.Store)
}

func TestDefaultMatchesTemplate(t *testing.T) {
	path := t.TempDir() + "/config.toml"
	data, err := os.ReadFile("config.toml.template")
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(path, data, 0644))
	config, err := LoadConfig(path)
	assert.NoError(t, err)
	defaultConfig := GetDefaultConfig()
	// jobs defaults to the number of CPUs, not a template value
	config.Recommend.Jobs = defaultConfig.Recommend.Jobs
	assert.Equal(t, defaultConfig, config)
}
