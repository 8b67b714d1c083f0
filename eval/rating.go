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

// Package eval computes offline quality metrics for recommendation models:
// rating accuracy (RMSE, MAE) over held-out predictions and ranking quality
// (Precision@K, Recall@K) over recommended lists.
package eval

import (
	"math"

	"github.com/juju/errors"
)

func checkParallel(predictions, truth []float64) error {
	if len(predictions) == 0 {
		return errors.NotValidf("empty input")
	}
	if len(predictions) != len(truth) {
		// mismatched lengths are a usage error, never silently truncated
		return errors.NotValidf("mismatched lengths %d and %d", len(predictions), len(truth))
	}
	return nil
}

// RMSE is the root mean square error of predictions against truth.
func RMSE(predictions, truth []float64) (float64, error) {
	if err := checkParallel(predictions, truth); err != nil {
		return 0, errors.Trace(err)
	}
	var sum float64
	for i := range predictions {
		diff := predictions[i] - truth[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(predictions))), nil
}

// MAE is the mean absolute error of predictions against truth.
func MAE(predictions, truth []float64) (float64, error) {
	if err := checkParallel(predictions, truth); err != nil {
		return 0, errors.Trace(err)
	}
	var sum float64
	for i := range predictions {
		sum += math.Abs(predictions[i] - truth[i])
	}
	return sum / float64(len(predictions)), nil
}
