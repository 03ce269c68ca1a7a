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
	"context"
	"testing"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/graph/memgraph"
	"github.com/pluraliseseverythings/grakn-sub001/query/answer"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locatedIn(r, x, y term.Var) logic.Relation {
	return logic.NewRelation(r, memgraph.IsLocatedIn,
		logic.RolePlayer{Role: memgraph.LocatedSubject, Player: x},
		logic.RolePlayer{Role: memgraph.Locality, Player: y})
}

func ids(answers []answer.Answer, v term.Var) []graph.ConceptID {
	var res []graph.ConceptID
	for _, a := range answers {
		c, _ := a.Get(v)
		res = append(res, c.ID)
	}
	return res
}

func Test_StructuralCache_reusesPlans(t *testing.T) {
	assert := assert.New(t)
	g, places := memgraph.NewGeo()
	c := NewStructuralCache(g, 0)
	ctx := context.Background()

	q1 := logic.MustQuery(locatedIn("_r", "x", "y"), logic.IDPredicate{Var: "x", ID: places["Warsaw"]})
	it, err := c.Get(ctx, q1)
	require.NoError(t, err)
	a1 := answer.Drain(it)
	assert.Equal([]graph.ConceptID{places["Masovia"]}, ids(a1, "y"))
	assert.Equal(0, c.Hits())
	assert.Equal(1, c.Misses())

	q2 := logic.MustQuery(locatedIn("_s", "a", "b"), logic.IDPredicate{Var: "a", ID: places["Silesia"]})
	it, err = c.Get(ctx, q2)
	require.NoError(t, err)
	a2 := answer.Drain(it)
	assert.Equal([]graph.ConceptID{places["Poland"]}, ids(a2, "b"))
	assert.Equal(term.VarSet{"_s", "a", "b"}, a2[0].Vars())
	assert.Equal(1, c.Hits())
	assert.Equal(1, c.Len())

	lookup, ok := a2[0].Explanation().(*answer.Lookup)
	require.True(t, ok)
	assert.Same(q2, lookup.Query(), "explanation must reference the asked query")

	q3 := logic.MustQuery(locatedIn("_s", "a", "b"), logic.IDPredicate{Var: "b", ID: places["Poland"]})
	it, err = c.Get(ctx, q3)
	require.NoError(t, err)
	assert.ElementsMatch([]graph.ConceptID{places["Masovia"], places["Silesia"]}, ids(answer.Drain(it), "a"))
	assert.Equal(2, c.Misses())
	assert.Equal(1, c.Len(), "same hash bucket")
}

func Test_StructuralCache_transparency(t *testing.T) {
	g, places := memgraph.NewGeo()
	ctx := context.Background()
	cached := NewStructuralCache(g, 4)
	for name := range places {
		q := logic.MustQuery(locatedIn("_r", "x", "y"), logic.IDPredicate{Var: "y", ID: places[name]})
		it, err := cached.Get(ctx, q)
		require.NoError(t, err)
		got := answer.Drain(it)
		it, err = NewStructuralCache(g, 4).Get(ctx, q)
		require.NoError(t, err)
		fresh := answer.Drain(it)
		if assert.Equal(t, len(fresh), len(got), name) {
			for i := range got {
				assert.True(t, got[i].Equal(fresh[i]), name)
			}
		}
	}
	assert.Equal(t, len(places)-1, cached.Hits())
}

func Test_StructuralCache_seesWrites(t *testing.T) {
	g, places := memgraph.NewGeo()
	c := NewStructuralCache(g, 1)
	q := logic.MustQuery(locatedIn("_r", "x", "y"), logic.IDPredicate{Var: "x", ID: places["Warsaw"]})
	it, err := c.Get(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, answer.Drain(it), 1)
	_, _, err = g.PutRelation(memgraph.IsLocatedIn, []graph.RolePlayer{
		{Role: memgraph.LocatedSubject, Player: places["Warsaw"]},
		{Role: memgraph.Locality, Player: places["Poland"]},
	})
	require.NoError(t, err)
	it, err = c.Get(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, answer.Drain(it), 2)
}

func Test_StructuralCache_evicts(t *testing.T) {
	g, _ := memgraph.NewGeo()
	c := NewStructuralCache(g, 1)
	for _, typ := range []graph.Label{memgraph.City, memgraph.Country, memgraph.City} {
		it, err := c.Get(context.Background(), logic.MustQuery(logic.Isa{Var: "x", Type: typ}))
		require.NoError(t, err)
		answer.Drain(it)
	}
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Evictions())
	assert.Equal(t, 3, c.Misses())
}

func Test_StructuralCache_error(t *testing.T) {
	g, _ := memgraph.NewGeo()
	c := NewStructuralCache(g, 1)
	_, err := c.Get(context.Background(), logic.MustQuery(logic.Isa{Var: "x", Type: "planet"}))
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func Test_AnswerCache(t *testing.T) {
	assert := assert.New(t)
	warsaw := graph.Concept{ID: "V1", Type: memgraph.City}
	masovia := graph.Concept{ID: "V3", Type: memgraph.Region}
	c := NewAnswerCache()

	q1 := logic.MustAtomic(locatedIn("_r", "x", "y"))
	v1, hit := c.View(q1)
	assert.False(hit)
	assert.Same(q1, v1.Query())
	a := answer.New(map[term.Var]graph.Concept{"x": warsaw, "y": masovia}, answer.NewLookup(q1.Query))
	assert.True(v1.Record(a))
	assert.False(v1.Record(a))
	assert.Equal(1, v1.Len())
	assert.False(v1.Complete())

	q2 := logic.MustAtomic(locatedIn("_s", "a", "b"))
	v2, hit := c.View(q2)
	assert.True(hit)
	require.Equal(t, 1, v2.Len())
	got := v2.Answer(0)
	assert.Equal(term.VarSet{"a", "b"}, got.Vars())
	b, _ := got.Get("b")
	assert.Equal(masovia, b)
	assert.Same(q2.Query, got.Explanation().Query())

	assert.False(v2.Record(answer.New(map[term.Var]graph.Concept{"a": warsaw, "b": masovia}, nil)))
	assert.True(v2.Record(answer.New(map[term.Var]graph.Concept{"a": masovia, "b": warsaw}, nil)))
	assert.Equal(2, v1.Len())
	second := v1.Answer(1)
	x, _ := second.Get("x")
	assert.Equal(masovia, x)

	v2.MarkComplete()
	assert.True(v1.Complete())
	assert.Equal(2, c.Size())
	assert.Equal(1, c.Len())

	q3 := logic.MustAtomic(locatedIn("_r", "x", "y"), logic.IDPredicate{Var: "x", ID: "V1"})
	v3, hit := c.View(q3)
	assert.False(hit)
	assert.Equal(0, v3.Len())
	assert.Equal(2, c.Len())
	assert.Equal(1, c.Hits())
	assert.Equal(2, c.Misses())
}

func Test_View_Answer_keepsExplanation(t *testing.T) {
	warsaw := graph.Concept{ID: "V1", Type: memgraph.City}
	poland := graph.Concept{ID: "V2", Type: memgraph.Country}
	rule, err := logic.NewRule("direct",
		logic.MustQuery(locatedIn("_b", "x", "y")), locatedIn("_r", "x", "y"))
	require.NoError(t, err)
	body := answer.New(map[term.Var]graph.Concept{"x": warsaw, "y": poland}, nil)
	c := NewAnswerCache()

	q1 := logic.MustAtomic(locatedIn("_r", "x", "y"))
	v1, _ := c.View(q1)
	v1.Record(answer.New(map[term.Var]graph.Concept{"x": warsaw, "y": poland},
		answer.NewRule(q1.Query, rule, body)))

	// An equivalent query is served the stored derivation rather than a
	// lookup of its own.
	q2 := logic.MustAtomic(locatedIn("_s", "a", "b"))
	v2, hit := c.View(q2)
	require.True(t, hit)
	got := v2.Answer(0)
	e, ok := got.Explanation().(*answer.Rule)
	require.True(t, ok, "explanation %T", got.Explanation())
	assert.Same(t, q2.Query, e.Query())
	assert.Same(t, rule, e.Rule())
	if assert.Len(t, e.Answers(), 1) {
		assert.True(t, body.Equal(e.Answers()[0]))
	}

	// The entry's own view returns the answer as stored.
	e, ok = v1.Answer(0).Explanation().(*answer.Rule)
	require.True(t, ok)
	assert.Same(t, q1.Query, e.Query())
}
