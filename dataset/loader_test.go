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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/corate-io/corate/storage/rating"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTempCSV(t, "user_id,item_id,rating,timestamp\n"+
		"alice,inception,5,2024-03-01\n"+
		"bob,matrix,4,2024-03-02T15:04:05Z\n"+
		"\n"+
		"carol,titanic,2,\n")
	ratings, err := LoadCSV(path, ",", true)
	require.NoError(t, err)
	require.Len(t, ratings, 3)
	assert.Equal(t, rating.Rating{
		UserId:    "alice",
		ItemId:    "inception",
		Value:     5,
		Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, ratings[0])
	assert.Equal(t, "bob", ratings[1].UserId)
	assert.Equal(t, 2024, ratings[1].Timestamp.Year())
	// missing timestamp stays zero
	assert.True(t, ratings[2].Timestamp.IsZero())
}

func TestLoadCSVSeparators(t *testing.T) {
	path := writeTempCSV(t, "alice::inception::5\nbob::matrix::4\n")
	ratings, err := LoadCSV(path, "::", false)
	require.NoError(t, err)
	assert.Len(t, ratings, 2)

	path = writeTempCSV(t, "alice\tinception\t5\n")
	ratings, err = LoadCSV(path, "\t", false)
	require.NoError(t, err)
	assert.Len(t, ratings, 1)
}

func TestLoadCSVMalformed(t *testing.T) {
	// too few fields
	path := writeTempCSV(t, "alice,inception\n")
	_, err := LoadCSV(path, ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))

	// rating is not a number
	path = writeTempCSV(t, "alice,inception,five\n")
	_, err = LoadCSV(path, ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))

	// empty item id
	path = writeTempCSV(t, "alice,,5\n")
	_, err = LoadCSV(path, ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))

	// garbage timestamp
	path = writeTempCSV(t, "alice,inception,5,whenever\n")
	_, err = LoadCSV(path, ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), ",", false)
	assert.Error(t, err)
}
