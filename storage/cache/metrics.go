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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GetScoreHitTimes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corate",
		Subsystem: "cache",
		Name:      "get_score_hit_times",
	})
	GetScoreMissTimes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corate",
		Subsystem: "cache",
		Name:      "get_score_miss_times",
	})
	PutScoreTimes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corate",
		Subsystem: "cache",
		Name:      "put_score_times",
	})
	InvalidateTimes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "corate",
		Subsystem: "cache",
		Name:      "invalidate_times",
	})
)
