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
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
)

type RedisTestSuite struct {
	baseTestSuite
}

func (suite *RedisTestSuite) SetupSuite() {
	uri, exist := os.LookupEnv("REDIS_URI")
	if !exist {
		suite.T().Skip("REDIS_URI is not set")
	}
	var err error
	suite.Database, err = Open(uri)
	suite.NoError(err)
}

func (suite *RedisTestSuite) SetupTest() {
	suite.NoError(suite.Database.Purge(context.Background()))
}

func (suite *RedisTestSuite) TearDownSuite() {
	if suite.Database != nil {
		suite.NoError(suite.Database.Close())
	}
}

func TestRedis(t *testing.T) {
	suite.Run(t, new(RedisTestSuite))
}
