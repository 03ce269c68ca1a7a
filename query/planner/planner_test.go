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

package planner

import (
	"testing"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/graph/memgraph"
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

func Test_Compile(t *testing.T) {
	g, _ := memgraph.NewGeo()
	tests := []struct {
		name  string
		query *logic.Query
		plan  string
	}{
		{
			name: "id lookup first",
			query: logic.MustQuery(locatedIn("_r", "x", "y"),
				logic.IDPredicate{Var: "x", ID: "V1"},
				logic.Isa{Var: "y", Type: memgraph.Country}),
			plan: `
LookupID $x V1
MatchRelation $_r (locality: $y, located-subject: $x) isa is-located-in via $x
Filter $y isa country
`,
		},
		{
			name: "join",
			query: logic.MustQuery(locatedIn("_r2", "y", "z"), locatedIn("_r1", "x", "y"),
				logic.Isa{Var: "x", Type: memgraph.City}),
			plan: `
MatchRelation $_r1 (locality: $y, located-subject: $x) isa is-located-in
Filter $x isa city
MatchRelation $_r2 (locality: $z, located-subject: $y) isa is-located-in via $y
`,
		},
		{
			name: "attribute and neq",
			query: logic.MustQuery(
				logic.Attribute{Owner: "x", Type: memgraph.Name, Var: "n"},
				logic.Isa{Var: "y", Type: memgraph.Country},
				logic.NeqPredicate{Var: "x", Other: "y"},
				logic.ValuePredicate{Var: "n", Condition: logic.Condition{Op: logic.OpContains, Value: graph.AString("a")}},
			),
			plan: `
ScanIsa $y isa country
MatchAttribute $x has name $n
Filter $n contains "a"
Filter $x != $y
`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			plan, err := Compile(test.query, g.Schema(), g)
			require.NoError(t, err)
			assert.Equal(t, test.plan[1:], plan.String())
			assert.Same(t, test.query, plan.Query)
		})
	}
}

func Test_Compile_errors(t *testing.T) {
	g, _ := memgraph.NewGeo()
	_, err := Compile(logic.MustQuery(logic.Isa{Var: "x", Type: "planet"}), g.Schema(), g)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "unknown type planet")
		assert.Contains(t, err.Error(), "compiling query {$x isa planet;}")
	}
	_, err = Compile(logic.MustQuery(logic.NewRelation("_r", memgraph.IsLocatedIn,
		logic.RolePlayer{Role: "orbits", Player: "x"})), g.Schema(), g)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "unknown role orbits")
	}
}

func Test_Plan_Transform(t *testing.T) {
	g, _ := memgraph.NewGeo()
	q := logic.MustQuery(locatedIn("_r", "x", "y"),
		logic.IDPredicate{Var: "x", ID: "V1"},
		logic.IDPredicate{Var: "y", ID: "V1"})
	plan, err := Compile(q, g.Schema(), g)
	require.NoError(t, err)
	assert.Equal(t, "LookupID $x V1\nLookupID $y V1\n"+
		"MatchRelation $_r (locality: $y, located-subject: $x) isa is-located-in via $x\n", plan.String())

	moved := plan.Transform(map[term.Var]graph.ConceptID{"x": "V7"})
	assert.Equal(t, "LookupID $x V7\nLookupID $y V1\n"+
		"MatchRelation $_r (locality: $y, located-subject: $x) isa is-located-in via $x\n", moved.String())
	assert.Equal(t, map[term.Var]graph.ConceptID{"x": "V7", "y": "V1"}, moved.Query.Substitution())
	assert.Equal(t, "LookupID $x V1", plan.Steps[0].String())
	assert.Same(t, plan, plan.Transform(nil))
	assert.Equal(t, term.VarSet{"_r", "x", "y"}, plan.Vars())
}

func Test_operatorWithIDs_filter(t *testing.T) {
	op := &Filter{Atom: logic.IDPredicate{Var: "x", ID: "V1"}}
	res := operatorWithIDs(op, map[term.Var]graph.ConceptID{"x": "V2"})
	assert.Equal(t, "Filter $x id V2", res.String())
	assert.Equal(t, "Filter $x id V1", op.String())
	scan := &ScanIsa{Atom: logic.Isa{Var: "x", Type: "city"}}
	assert.Same(t, scan, operatorWithIDs(scan, map[term.Var]graph.ConceptID{"x": "V2"}))
}
