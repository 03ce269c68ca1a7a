// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"testing"

	docopt "github.com/docopt/docopt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_usage(t *testing.T) {
	opts, err := docopt.ParseArgs(usage,
		[]string{"--explain", "-t", "5s", "query", "geo.yaml", "a", "b"}, "")
	require.NoError(t, err)
	var parsed options
	require.NoError(t, opts.Bind(&parsed))
	assert.True(t, parsed.Query)
	assert.False(t, parsed.List)
	assert.True(t, parsed.Explain)
	assert.False(t, parsed.NoInfer)
	assert.Equal(t, "5s", parsed.TimeoutString)
	assert.Equal(t, "geo.yaml", parsed.Filename)
	assert.Equal(t, []string{"a", "b"}, parsed.Names)

	opts, err = docopt.ParseArgs(usage, []string{"--no-infer", "stats", "geo.yaml"}, "")
	require.NoError(t, err)
	var stats options
	require.NoError(t, opts.Bind(&stats))
	assert.True(t, stats.Show)
	assert.True(t, stats.NoInfer)
	assert.Equal(t, "1m", stats.TimeoutString)
	assert.Empty(t, stats.Names)
}
