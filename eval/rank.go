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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
)

func hits(rankList []string, relevant mapset.Set[string], k int) int {
	if len(rankList) > k {
		rankList = rankList[:k]
	}
	count := 0
	for _, id := range rankList {
		if relevant.Contains(id) {
			count++
		}
	}
	return count
}

// Precision is the fraction of the top-K recommended items that are relevant:
//
//	Precision@K = |top_K ∩ relevant| / K
func Precision(rankList []string, relevant mapset.Set[string], k int) (float64, error) {
	if k <= 0 {
		return 0, errors.NotValidf("cutoff %d", k)
	}
	return float64(hits(rankList, relevant, k)) / float64(k), nil
}

// Recall is the fraction of relevant items that made the top-K:
//
//	Recall@K = |top_K ∩ relevant| / |relevant|
//
// An empty relevant set yields 0, not NaN; callers flag that case in the
// report instead of dividing by zero.
func Recall(rankList []string, relevant mapset.Set[string], k int) (float64, error) {
	if k <= 0 {
		return 0, errors.NotValidf("cutoff %d", k)
	}
	if relevant.Cardinality() == 0 {
		return 0, nil
	}
	return float64(hits(rankList, relevant, k)) / float64(relevant.Cardinality()), nil
}
