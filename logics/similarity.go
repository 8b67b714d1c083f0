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
	"math"

	"github.com/corate-io/corate/storage/rating"
	"github.com/juju/errors"
)

// Metric names a similarity measure for config and CLI selection.
type Metric string

const (
	Cosine    Metric = "cosine"
	Pearson   Metric = "pearson"
	Euclidean Metric = "euclidean"
)

// SimilarityFunc computes the similarity of two rating maps over their
// co-rated counterparts. Support is the co-rated count; support 0 means the
// score is undefined and the pair must be excluded, never treated as
// similarity zero.
type SimilarityFunc func(a, b map[string]float64) (value float64, support int)

var similarityFuncs = map[Metric]SimilarityFunc{
	Cosine:    CosineSimilarity,
	Pearson:   PearsonSimilarity,
	Euclidean: EuclideanSimilarity,
}

// SimilarityOf returns the implementation of the named metric.
func SimilarityOf(metric Metric) (SimilarityFunc, error) {
	if f, exist := similarityFuncs[metric]; exist {
		return f, nil
	}
	return nil, errors.NotValidf("similarity metric %q", metric)
}

// CosineSimilarity is the cosine of the angle between the co-rated value
// vectors. Undefined when either co-rated magnitude is zero.
func CosineSimilarity(a, b map[string]float64) (float64, int) {
	pairs := rating.Intersect(a, b)
	if len(pairs) == 0 {
		return 0, 0
	}
	var dot, normA, normB float64
	for _, p := range pairs {
		dot += p.A * p.B
		normA += p.A * p.A
		normB += p.B * p.B
	}
	if normA == 0 || normB == 0 {
		return 0, 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), len(pairs)
}

// PearsonSimilarity is the correlation of the co-rated values, each side
// centered on its mean over the co-rated subset only, so two users who agree
// up to a constant offset correlate perfectly. Undefined when either side
// has zero variance on the subset.
func PearsonSimilarity(a, b map[string]float64) (float64, int) {
	pairs := rating.Intersect(a, b)
	if len(pairs) == 0 {
		return 0, 0
	}
	var meanA, meanB float64
	for _, p := range pairs {
		meanA += p.A
		meanB += p.B
	}
	meanA /= float64(len(pairs))
	meanB /= float64(len(pairs))
	var dot, normA, normB float64
	for _, p := range pairs {
		da, db := p.A-meanA, p.B-meanB
		dot += da * db
		normA += da * da
		normB += db * db
	}
	if normA == 0 || normB == 0 {
		return 0, 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), len(pairs)
}

// EuclideanSimilarity converts the euclidean distance over co-rated values
// to a similarity in (0, 1]:
//
//	sim(a, b) = 1/(1+sqrt(sum((a_i-b_i)^2)))
//
// Identical co-rated values give exactly 1.
func EuclideanSimilarity(a, b map[string]float64) (float64, int) {
	pairs := rating.Intersect(a, b)
	if len(pairs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, p := range pairs {
		d := p.A - p.B
		sum += d * d
	}
	return 1 / (1 + math.Sqrt(sum)), len(pairs)
}
