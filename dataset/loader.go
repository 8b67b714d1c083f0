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

// Package dataset loads rating files and splits them for offline evaluation.
package dataset

import (
	"bufio"
	"os"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/corate-io/corate/common/util"
	"github.com/corate-io/corate/storage/rating"
	"github.com/juju/errors"
)

// LoadCSV reads ratings from a delimited file. Each row carries a user id,
// an item id, a rating value and an optional timestamp in any common layout.
// Blank lines and, when hasHeader is set, the first line are skipped.
func LoadCSV(path, sep string, hasHeader bool) ([]rating.Rating, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	var ratings []rating.Rating
	lineNumber := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if hasHeader {
			hasHeader = false
			continue
		}
		splits := strings.Split(line, sep)
		if len(splits) < 3 {
			return nil, errors.NotValidf("expect at least 3 fields at line %d", lineNumber)
		}
		r := rating.Rating{
			UserId: strings.TrimSpace(splits[0]),
			ItemId: strings.TrimSpace(splits[1]),
		}
		if r.UserId == "" || r.ItemId == "" {
			return nil, errors.NotValidf("empty user or item id at line %d", lineNumber)
		}
		if r.Value, err = util.ParseFloat[float64](strings.TrimSpace(splits[2])); err != nil {
			return nil, errors.NotValidf("rating `%v` at line %d", splits[2], lineNumber)
		}
		if len(splits) > 3 && strings.TrimSpace(splits[3]) != "" {
			if r.Timestamp, err = dateparse.ParseAny(strings.TrimSpace(splits[3])); err != nil {
				return nil, errors.NotValidf("timestamp `%v` at line %d", splits[3], lineNumber)
			}
		}
		ratings = append(ratings, r)
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return ratings, nil
}
