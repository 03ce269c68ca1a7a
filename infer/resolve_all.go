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

package infer

import (
	"context"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/answer"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/util/parallel"
)

// ResolveAll resolves independent queries concurrently, each in its own
// resolution run, and returns their answers in the order of 'queries'. At most
// opts.Parallelism queries run at once. If any query fails, the others are
// canceled and the first error is returned.
func ResolveAll(ctx context.Context, g graph.Graph, rules []*logic.Rule, queries []*logic.Query, opts Options) ([][]answer.Answer, error) {
	res := make([][]answer.Answer, len(queries))
	opts = opts.withDefaults()
	err := parallel.InvokeLimit(ctx, len(queries), opts.Parallelism, func(ctx context.Context, i int) error {
		it, err := Resolve(ctx, g, rules, queries[i], opts)
		if err != nil {
			return err
		}
		res[i], err = Collect(it)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
