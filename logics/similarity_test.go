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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

const simEpsilon = 1e-3

func TestCosineSimilarity(t *testing.T) {
	alice := map[string]float64{"m1": 5, "m2": 3, "m3": 4}
	bob := map[string]float64{"m1": 4, "m2": 2, "m3": 3}
	value, support := CosineSimilarity(alice, bob)
	assert.Equal(t, 3, support)
	assert.InDelta(t, 0.998, value, simEpsilon)
	// Identical non-zero vectors
	value, support = CosineSimilarity(alice, alice)
	assert.Equal(t, 3, support)
	assert.InDelta(t, 1.0, value, simEpsilon)
	// Zero magnitude on the co-rated subset is undefined
	value, support = CosineSimilarity(map[string]float64{"m1": 0}, map[string]float64{"m1": 4})
	assert.Zero(t, value)
	assert.Zero(t, support)
}

func TestPearsonSimilarity(t *testing.T) {
	alice := map[string]float64{"m1": 5, "m2": 3, "m3": 4}
	bob := map[string]float64{"m1": 4, "m2": 2, "m3": 3}
	// Bob's ratings are Alice's shifted by a constant
	value, support := PearsonSimilarity(alice, bob)
	assert.Equal(t, 3, support)
	assert.InDelta(t, 1.0, value, simEpsilon)
	// Centering uses the co-rated subset, not the full history
	carol := map[string]float64{"m1": 4, "m2": 2, "m3": 3, "m9": 5, "m10": 5}
	value, support = PearsonSimilarity(alice, carol)
	assert.Equal(t, 3, support)
	assert.InDelta(t, 1.0, value, simEpsilon)
	// Zero variance on the co-rated subset is undefined
	value, support = PearsonSimilarity(
		map[string]float64{"m1": 3, "m2": 3},
		map[string]float64{"m1": 2, "m2": 4})
	assert.Zero(t, value)
	assert.Zero(t, support)
}

func TestEuclideanSimilarity(t *testing.T) {
	alice := map[string]float64{"m1": 5, "m2": 3, "m3": 4}
	bob := map[string]float64{"m1": 4, "m2": 2, "m3": 3}
	value, support := EuclideanSimilarity(alice, bob)
	assert.Equal(t, 3, support)
	assert.InDelta(t, 0.366, value, simEpsilon)
	// Identical co-rated values give exactly 1
	value, support = EuclideanSimilarity(alice, alice)
	assert.Equal(t, 3, support)
	assert.Equal(t, 1.0, value)
}

func TestSimilaritySymmetry(t *testing.T) {
	a := map[string]float64{"m1": 5, "m2": 1, "m4": 3}
	b := map[string]float64{"m1": 2, "m2": 4, "m5": 5}
	for _, metric := range []Metric{Cosine, Pearson, Euclidean} {
		sim, err := SimilarityOf(metric)
		assert.NoError(t, err)
		ab, supportAB := sim(a, b)
		ba, supportBA := sim(b, a)
		assert.Equal(t, supportAB, supportBA)
		assert.InDelta(t, ab, ba, 1e-12)
	}
}

func TestSimilarityNoOverlap(t *testing.T) {
	a := map[string]float64{"m1": 5}
	b := map[string]float64{"m2": 4}
	for _, metric := range []Metric{Cosine, Pearson, Euclidean} {
		sim, err := SimilarityOf(metric)
		assert.NoError(t, err)
		value, support := sim(a, b)
		assert.Zero(t, value)
		assert.Zero(t, support)
	}
}

func TestSimilarityOf(t *testing.T) {
	for _, metric := range []Metric{Cosine, Pearson, Euclidean} {
		sim, err := SimilarityOf(metric)
		assert.NoError(t, err)
		assert.NotNil(t, sim)
	}
	_, err := SimilarityOf("jaccard")
	assert.True(t, errors.Is(err, errors.NotValid))
}
