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

// Package cache provides the caches used during a single resolution run: the
// StructuralCache, which reuses compiled plans across queries of the same
// shape, and the AnswerCache, which remembers the answers found for each
// atomic query.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/answer"
	"github.com/pluraliseseverythings/grakn-sub001/query/exec"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/planner"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
	log "github.com/sirupsen/logrus"
)

// Design notes
// Plans are keyed by the structural hash of their query: the shape of the
// query without variable names or IDs. A bucket holds one plan per
// structurally distinct query with that hash. A plan compiled for one query
// is reused for any structurally equivalent one by rewriting its IDs, and the
// rows it produces are renamed into the asking query's variables.
// The cache reads the graph at the time of each Get, so answers reflect writes
// made since the plan was compiled. It must still be discarded when the
// schema changes.

// DefaultStructuralCacheSize is the number of plan buckets kept when
// NewStructuralCache is given a non-positive size.
const DefaultStructuralCacheSize = 256

// A StructuralCache finds the direct answers to queries in the graph, reusing
// compiled plans for structurally equivalent queries. It's not safe for
// concurrent use.
type StructuralCache struct {
	graph     graph.Graph
	plans     *lru.Cache[uint64, []cachedPlan]
	hits      int
	misses    int
	evictions int
}

type cachedPlan struct {
	query *logic.Query
	plan  *planner.Plan
}

// NewStructuralCache returns an empty cache over 'g' that keeps at most 'size'
// plan buckets.
func NewStructuralCache(g graph.Graph, size int) *StructuralCache {
	if size <= 0 {
		size = DefaultStructuralCacheSize
	}
	c := &StructuralCache{graph: g}
	plans, err := lru.NewWithEvict[uint64, []cachedPlan](size, c.onEvict)
	if err != nil {
		log.Panicf("Unable to create plan cache of size %d: %v", size, err)
	}
	c.plans = plans
	return c
}

func (c *StructuralCache) onEvict(uint64, []cachedPlan) {
	c.evictions++
}

// Get returns an iterator over the answers to 'q' found directly in the graph.
// Each answer binds every variable of 'q' and is explained by a Lookup of 'q'.
// It returns an error if 'q' can't be compiled.
func (c *StructuralCache) Get(ctx context.Context, q *logic.Query) (answer.Iterator, error) {
	h := logic.Hash(q, logic.Structural)
	bucket, _ := c.plans.Get(h)
	for _, cached := range bucket {
		mu := logic.MultiUnifier(cached.query, q, logic.Structural, nil)
		if mu.IsEmpty() {
			continue
		}
		c.hits++
		u, err := mu.Any()
		if err != nil {
			return nil, err
		}
		plan := cached.plan.Transform(logic.IDTransform(cached.query, q, u))
		return &lookupIterator{
			rows:        exec.Execute(ctx, plan, c.graph),
			unifier:     u,
			explanation: answer.NewLookup(q),
		}, nil
	}
	c.misses++
	span, _ := opentracing.StartSpanFromContext(ctx, "structuralCache.compile")
	span.SetTag("query", q.String())
	plan, err := planner.Compile(q, c.graph.Schema(), c.graph)
	span.Finish()
	if err != nil {
		return nil, err
	}
	c.plans.Add(h, append(bucket, cachedPlan{query: q, plan: plan}))
	return &lookupIterator{
		rows:        exec.Execute(ctx, plan, c.graph),
		explanation: answer.NewLookup(q),
	}, nil
}

// Hits returns the number of Get calls that reused a plan.
func (c *StructuralCache) Hits() int {
	return c.hits
}

// Misses returns the number of Get calls that compiled a plan.
func (c *StructuralCache) Misses() int {
	return c.misses
}

// Evictions returns the number of plan buckets dropped to respect the size
// limit.
func (c *StructuralCache) Evictions() int {
	return c.evictions
}

// Len returns the number of plan buckets held.
func (c *StructuralCache) Len() int {
	return c.plans.Len()
}

// lookupIterator renames the rows of a reused plan into the asking query's
// variables and explains them.
type lookupIterator struct {
	rows        *exec.Rows
	unifier     unifier.Unifier
	explanation answer.Explanation
}

func (it *lookupIterator) Next() (answer.Answer, bool) {
	for {
		a, ok := it.rows.Next()
		if !ok {
			return answer.Answer{}, false
		}
		if !it.unifier.IsEmpty() {
			if a, ok = a.Unify(it.unifier); !ok {
				continue
			}
		}
		return a.Explain(it.explanation), true
	}
}
