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
	"testing"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/graph/memgraph"
	"github.com/pluraliseseverythings/grakn-sub001/query/answer"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// family returns a graph of people where each person is the parent of the
// next one, named "p0", "p1", ...
func family(t *testing.T, size int) (*memgraph.Graph, map[string]graph.ConceptID) {
	s := graph.NewSchema()
	require.NoError(t, s.AddEntityType("person", ""))
	require.NoError(t, s.AddRelationType("parentship", "", "parent", "child"))
	require.NoError(t, s.AddRelationType("ancestry", "", "ancestor", "descendant"))
	require.NoError(t, s.AddRelationType("odd-link", "", "from", "to"))
	require.NoError(t, s.AddRelationType("even-link", "", "from", "to"))
	g := memgraph.New(s)
	ids := make(map[string]graph.ConceptID)
	var prev graph.ConceptID
	for i := 0; i < size; i++ {
		p, err := g.AddEntity("person")
		require.NoError(t, err)
		ids["p"+string(rune('0'+i))] = p.ID
		if i > 0 {
			_, err = g.AddRelation("parentship",
				graph.RolePlayer{Role: "parent", Player: prev},
				graph.RolePlayer{Role: "child", Player: p.ID})
			require.NoError(t, err)
		}
		prev = p.ID
	}
	return g, ids
}

func rel(typ graph.Label, r term.Var, roles [2]graph.Label, x, y term.Var) logic.Relation {
	return logic.NewRelation(r, typ,
		logic.RolePlayer{Role: roles[0], Player: x},
		logic.RolePlayer{Role: roles[1], Player: y})
}

func parentship(r, x, y term.Var) logic.Relation {
	return rel("parentship", r, [2]graph.Label{"parent", "child"}, x, y)
}

func ancestry(r, x, y term.Var) logic.Relation {
	return rel("ancestry", r, [2]graph.Label{"ancestor", "descendant"}, x, y)
}

func newRule(t *testing.T, id string, head logic.Atom, body ...logic.Atom) *logic.Rule {
	rule, err := logic.NewRule(id, logic.MustQuery(body...), head)
	require.NoError(t, err)
	return rule
}

func ancestryRules(t *testing.T, recursion string) []*logic.Rule {
	base := newRule(t, "base", ancestry("_r", "x", "y"), parentship("_p", "x", "y"))
	switch recursion {
	case "left":
		return []*logic.Rule{base, newRule(t, "left", ancestry("_r", "x", "z"),
			ancestry("_a", "x", "y"), parentship("_p", "y", "z"))}
	case "right":
		return []*logic.Rule{base, newRule(t, "right", ancestry("_r", "x", "z"),
			parentship("_p", "x", "y"), ancestry("_a", "y", "z"))}
	case "double":
		return []*logic.Rule{base, newRule(t, "double", ancestry("_r", "x", "z"),
			ancestry("_a", "x", "y"), ancestry("_b", "y", "z"))}
	}
	t.Fatalf("unknown recursion %v", recursion)
	return nil
}

func Test_Resolve_recursion(t *testing.T) {
	for _, recursion := range []string{"left", "right", "double"} {
		t.Run(recursion, func(t *testing.T) {
			g, ids := family(t, 5)
			rules := ancestryRules(t, recursion)

			q := logic.MustQuery(ancestry("_q", "a", "d"),
				logic.IDPredicate{Var: "a", ID: ids["p1"]})
			answers, _ := resolveAll(t, g, rules, q, DefaultOptions())
			assert.Equal(t, []string{"p2", "p3", "p4"}, names(ids, answers, "d"))

			q = logic.MustQuery(ancestry("_q", "a", "d"),
				logic.IDPredicate{Var: "d", ID: ids["p3"]})
			answers, _ = resolveAll(t, g, rules, q, DefaultOptions())
			assert.Equal(t, []string{"p0", "p1", "p2"}, names(ids, answers, "a"))

			q = logic.MustQuery(ancestry("_q", "a", "d"))
			answers, _ = resolveAll(t, g, rules, q, DefaultOptions())
			assert.Len(t, answers, 10)
		})
	}
}

func Test_Resolve_cyclicReflexive(t *testing.T) {
	for _, recursion := range []string{"left", "right"} {
		t.Run(recursion, func(t *testing.T) {
			g, ids := family(t, 3)
			_, err := g.AddRelation("parentship",
				graph.RolePlayer{Role: "parent", Player: ids["p2"]},
				graph.RolePlayer{Role: "child", Player: ids["p0"]})
			require.NoError(t, err)
			rules := ancestryRules(t, recursion)

			answers, _ := resolveAll(t, g, rules, logic.MustQuery(ancestry("_q", "a", "d")), DefaultOptions())
			assert.Len(t, answers, 9)

			// The rule heads unify with both players bound to $a, so the
			// body has to keep its two variables equal.
			answers, _ = resolveAll(t, g, rules, logic.MustQuery(ancestry("_q", "a", "a")), DefaultOptions())
			assert.Equal(t, []string{"p0", "p1", "p2"}, names(ids, answers, "a"))
		})
	}
}

func Test_Resolve_mutualRecursion(t *testing.T) {
	g, ids := family(t, 5)
	link := func(typ graph.Label, r, x, y term.Var) logic.Relation {
		return rel(typ, r, [2]graph.Label{"from", "to"}, x, y)
	}
	rules := []*logic.Rule{
		newRule(t, "odd-base", link("odd-link", "_r", "x", "y"), parentship("_p", "x", "y")),
		newRule(t, "even", link("even-link", "_r", "x", "z"),
			link("odd-link", "_o", "x", "y"), parentship("_p", "y", "z")),
		newRule(t, "odd", link("odd-link", "_r", "x", "z"),
			link("even-link", "_e", "x", "y"), parentship("_p", "y", "z")),
	}
	odd := logic.MustQuery(link("odd-link", "_q", "a", "b"),
		logic.IDPredicate{Var: "a", ID: ids["p0"]})
	answers, stats := resolveAll(t, g, rules, odd, DefaultOptions())
	assert.Equal(t, []string{"p1", "p3"}, names(ids, answers, "b"))
	assert.True(t, stats.RequiresReiteration)

	even := logic.MustQuery(link("even-link", "_q", "a", "b"),
		logic.IDPredicate{Var: "a", ID: ids["p0"]})
	answers, _ = resolveAll(t, g, rules, even, DefaultOptions())
	assert.Equal(t, []string{"p2", "p4"}, names(ids, answers, "b"))
}

func Test_Resolve_materialiseIsIdempotent(t *testing.T) {
	g, _ := family(t, 4)
	rules := ancestryRules(t, "double")
	q := logic.MustQuery(ancestry("_q", "a", "d"))
	opts := DefaultOptions()
	opts.Materialise = true

	first, stats := resolveAll(t, g, rules, q, opts)
	assert.Len(t, first, 6)
	writes := g.Writes()
	assert.Equal(t, 6, writes)
	assert.Equal(t, writes, stats.Materialised)
	assert.Len(t, g.Relations("ancestry"), 6)

	second, stats := resolveAll(t, g, rules, q, opts)
	assert.Equal(t, writes, g.Writes())
	assert.Zero(t, stats.Materialised)
	assert.ElementsMatch(t, keys(first), keys(second))

	// The materialised facts are now found without rules.
	third, _ := resolveAll(t, g, rules, q, noInfer())
	assert.ElementsMatch(t, keys(first), keys(third))
}

func keys(answers []answer.Answer) []string {
	res := make([]string, len(answers))
	for i, a := range answers {
		res[i] = a.String()
	}
	return res
}

func Test_Resolve_namedRelationVarIsMaterialised(t *testing.T) {
	g, ids := family(t, 3)
	rules := ancestryRules(t, "right")
	q := logic.MustQuery(ancestry("rel", "a", "d"),
		logic.IDPredicate{Var: "a", ID: ids["p0"]})
	answers, _ := resolveAll(t, g, rules, q, DefaultOptions())
	require.Len(t, answers, 2)
	for _, a := range answers {
		c, ok := a.Get("rel")
		if assert.True(t, ok, "answer %v", a) {
			assert.Equal(t, graph.Label("ancestry"), c.Type)
			r, ok := g.Relation(c.ID)
			assert.True(t, ok)
			assert.True(t, r.Inferred)
		}
	}
	assert.Equal(t, 2, g.Writes())
}

func Test_Resolve_attributeRule(t *testing.T) {
	g, ids := memgraph.NewGeo()
	require.NoError(t, g.Schema().AddAttributeType("tag", "", graph.KString))
	polish := logic.Condition{Op: logic.OpEq, Value: graph.AString("polish")}
	tagged, err := logic.NewRule("polish-places",
		logic.MustQuery(
			locatedIn("_r1", "x", "y"),
			logic.Attribute{Owner: "y", Type: memgraph.Name, Var: "_n",
				Predicate: logic.Condition{Op: logic.OpEq, Value: graph.AString("Poland")}}),
		logic.Attribute{Owner: "x", Type: "tag", Var: "_t", Predicate: polish})
	require.NoError(t, err)
	rules := []*logic.Rule{tagged, transitiveLocation(t)}

	q := logic.MustQuery(logic.Attribute{Owner: "place", Type: "tag", Var: "t", Predicate: polish})
	answers, _ := resolveAll(t, g, rules, q, DefaultOptions())
	assert.Equal(t, []string{"Katowice", "Masovia", "Silesia", "Warsaw"}, names(ids, answers, "place"))
	for _, a := range answers {
		c, ok := a.Get("t")
		if assert.True(t, ok) {
			assert.Equal(t, graph.AString("polish"), c.Value)
		}
	}
	assert.Equal(t, 4, g.Writes())

	// A value that contradicts the rule's head doesn't apply it.
	q = logic.MustQuery(logic.Attribute{Owner: "place", Type: "tag", Var: "t",
		Predicate: logic.Condition{Op: logic.OpEq, Value: graph.AString("french")}})
	answers, _ = resolveAll(t, g, rules, q, DefaultOptions())
	assert.Empty(t, answers)
}
