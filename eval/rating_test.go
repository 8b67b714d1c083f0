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
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestRMSE(t *testing.T) {
	// perfect predictions score zero
	rmse, err := RMSE([]float64{1, 2, 3}, []float64{1, 2, 3})
	assert.NoError(t, err)
	assert.Zero(t, rmse)

	// constant error of 2 scores 2
	rmse, err = RMSE([]float64{3, 4, 5}, []float64{1, 2, 3})
	assert.NoError(t, err)
	assert.InDelta(t, 2.0, rmse, 1e-9)

	// sqrt((1+4+9)/3)
	rmse, err = RMSE([]float64{2, 4, 6}, []float64{1, 2, 3})
	assert.NoError(t, err)
	assert.InDelta(t, math.Sqrt(14.0/3.0), rmse, 1e-9)
}

func TestMAE(t *testing.T) {
	mae, err := MAE([]float64{1, 2, 3}, []float64{1, 2, 3})
	assert.NoError(t, err)
	assert.Zero(t, mae)

	// sign of the error does not matter
	mae, err = MAE([]float64{2, 1, 4}, []float64{1, 2, 3})
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, mae, 1e-9)
}

func TestRMSEDominatesMAE(t *testing.T) {
	predictions := []float64{1.5, 2.3, 4.9, 3.1}
	truth := []float64{1, 3, 4, 5}
	rmse, err := RMSE(predictions, truth)
	assert.NoError(t, err)
	mae, err := MAE(predictions, truth)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, rmse, mae)
}

func TestInvalidInput(t *testing.T) {
	_, err := RMSE(nil, nil)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = MAE([]float64{1}, []float64{1, 2})
	assert.True(t, errors.Is(err, errors.NotValid))
}
