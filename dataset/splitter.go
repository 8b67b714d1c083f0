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

package dataset

import (
	"math/rand"

	"github.com/corate-io/corate/storage/rating"
	"github.com/juju/errors"
)

// Split shuffles ratings with the given seed and cuts off testRatio of them
// as the hold-out set. The same seed always produces the same split.
func Split(ratings []rating.Rating, testRatio float64, seed int64) (train, test []rating.Rating, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, errors.NotValidf("test ratio %v", testRatio)
	}
	if len(ratings) == 0 {
		return nil, nil, errors.NotValidf("empty dataset")
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(ratings))
	testSize := int(float64(len(ratings)) * testRatio)
	test = make([]rating.Rating, 0, testSize)
	train = make([]rating.Rating, 0, len(ratings)-testSize)
	for _, index := range perm[:testSize] {
		test = append(test, ratings[index])
	}
	for _, index := range perm[testSize:] {
		train = append(train, ratings[index])
	}
	return train, test, nil
}

// Fold is one train/test pair of a k-fold split.
type Fold struct {
	Train []rating.Rating
	Test  []rating.Rating
}

// KFold shuffles ratings with the given seed and partitions them into k folds,
// each rating landing in exactly one test fold.
func KFold(ratings []rating.Rating, k int, seed int64) ([]Fold, error) {
	if k < 2 || k > len(ratings) {
		return nil, errors.NotValidf("fold count %d for %d ratings", k, len(ratings))
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(ratings))
	folds := make([]Fold, k)
	foldSize := len(ratings) / k
	begin, end := 0, 0
	for i := 0; i < k; i++ {
		end += foldSize
		if i < len(ratings)%k {
			end++
		}
		fold := Fold{
			Test:  make([]rating.Rating, 0, end-begin),
			Train: make([]rating.Rating, 0, len(ratings)-(end-begin)),
		}
		for _, index := range perm[begin:end] {
			fold.Test = append(fold.Test, ratings[index])
		}
		for _, index := range append(append([]int{}, perm[:begin]...), perm[end:]...) {
			fold.Train = append(fold.Train, ratings[index])
		}
		folds[i] = fold
		begin = end
	}
	return folds, nil
}
