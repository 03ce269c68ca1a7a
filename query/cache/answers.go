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

package cache

import (
	"github.com/pluraliseseverythings/grakn-sub001/query/answer"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
	log "github.com/sirupsen/logrus"
)

// An AnswerCache remembers the answers found for atomic queries during a
// resolution run. Alpha-equivalent queries, including their ID predicates,
// share one entry. It's not safe for concurrent use.
type AnswerCache struct {
	entries *logic.EquivalenceMap[*entry]
	size    int
	hits    int
	misses  int
}

// entry holds the answers to the class representative, in its variables.
type entry struct {
	query    *logic.AtomicQuery
	answers  []answer.Answer
	keys     map[string]struct{}
	complete bool
}

// NewAnswerCache returns an empty cache.
func NewAnswerCache() *AnswerCache {
	return &AnswerCache{
		entries: logic.NewEquivalenceMap[*entry](logic.Exact),
	}
}

// View returns the entry for 'q', creating an empty one if there's none. Hit
// is false if the entry was created.
func (c *AnswerCache) View(q *logic.AtomicQuery) (v *View, hit bool) {
	_, e, mu, ok := c.entries.Get(q.Query)
	if ok {
		u, err := mu.Any()
		if err != nil {
			log.Panicf("Answer cache entry %v has no unifier to %v: %v", e.query, q, err)
		}
		c.hits++
		return &View{cache: c, entry: e, query: q, toView: u, toEntry: u.Inverse()}, true
	}
	c.misses++
	e = &entry{query: q, keys: make(map[string]struct{})}
	c.entries.Put(q.Query, e)
	return &View{cache: c, entry: e, query: q}, false
}

// Size returns the total number of answers recorded across all entries.
func (c *AnswerCache) Size() int {
	return c.size
}

// Len returns the number of entries.
func (c *AnswerCache) Len() int {
	return c.entries.Len()
}

// Hits returns the number of View calls that found an existing entry.
func (c *AnswerCache) Hits() int {
	return c.hits
}

// Misses returns the number of View calls that created an entry.
func (c *AnswerCache) Misses() int {
	return c.misses
}

// A View accesses a cache entry in the variables of one query. Answers are
// read and recorded in the query's variables and are translated to and from
// the entry's own.
type View struct {
	cache *AnswerCache
	entry *entry
	query *logic.AtomicQuery
	// toView maps the entry's variables onto the query's; toEntry is its
	// inverse. Both are empty when the query is the entry's representative.
	toView  unifier.Unifier
	toEntry unifier.Unifier
}

// Query returns the query the view reads answers for.
func (v *View) Query() *logic.AtomicQuery {
	return v.query
}

// Len returns the number of answers in the entry. It grows as answers are
// recorded, including through other views of the same entry.
func (v *View) Len() int {
	return len(v.entry.answers)
}

// Answer returns the i-th answer of the entry. Its explanation is reset to
// answer the view's query.
func (v *View) Answer(i int) answer.Answer {
	a := v.entry.answers[i]
	if v.toView.IsEmpty() {
		return a
	}
	res, ok := a.Unify(v.toView)
	if !ok {
		log.Panicf("Cached answer %v doesn't unify with %v", a, v.toView)
	}
	if e := a.Explanation(); e != nil {
		res = res.Explain(e.SetQuery(v.query.Query))
	}
	return res
}

// Record adds an answer to the view's query. It returns false if the entry
// already had an answer with the same bindings.
func (v *View) Record(a answer.Answer) bool {
	stored := a
	if !v.toEntry.IsEmpty() {
		var ok bool
		stored, ok = a.Unify(v.toEntry)
		if !ok {
			log.Panicf("Answer %v doesn't unify with %v", a, v.toEntry)
		}
		if e := a.Explanation(); e != nil {
			stored = stored.Explain(e.SetQuery(v.entry.query.Query))
		}
	}
	key := cmp.GetKey(stored)
	if _, exists := v.entry.keys[key]; exists {
		return false
	}
	v.entry.keys[key] = struct{}{}
	v.entry.answers = append(v.entry.answers, stored)
	v.cache.size++
	return true
}

// Complete returns true once every answer to the query has been recorded.
func (v *View) Complete() bool {
	return v.entry.complete
}

// MarkComplete records that the entry holds every answer to the query.
func (v *View) MarkComplete() {
	v.entry.complete = true
}
