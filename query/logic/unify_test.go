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

package logic

import (
	"testing"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MultiUnifier_exact(t *testing.T) {
	q1 := MustQuery(locatedIn("_r", "x", "y"), Isa{"x", "city"})
	q2 := MustQuery(Isa{"a", "city"}, locatedIn("_s", "a", "b"))
	mu := MultiUnifier(q1, q2, Exact, nil)
	u, err := mu.Unifier()
	require.NoError(t, err)
	assert.True(t, u.Equal(unifier.Vars("_r", "_s", "x", "a", "y", "b")), "got %v", u)

	q3 := MustQuery(Isa{"b", "city"}, locatedIn("_s", "a", "b"))
	assert.True(t, MultiUnifier(q1, q3, Exact, nil).IsEmpty())
}

func Test_MultiUnifier_userNamedMustMatch(t *testing.T) {
	q1 := MustQuery(locatedIn("_r", "x", "y"))
	q2 := MustQuery(locatedIn("_s", "a", "_b"))
	assert.True(t, MultiUnifier(q1, q2, Exact, nil).IsEmpty())
	q3 := MustQuery(locatedIn("r", "a", "b"))
	assert.True(t, MultiUnifier(q1, q3, Exact, nil).IsEmpty())
}

func Test_MultiUnifier_structural(t *testing.T) {
	q1 := MustQuery(locatedIn("_r", "x", "y"), IDPredicate{"x", "V1"})
	q2 := MustQuery(locatedIn("_s", "a", "b"), IDPredicate{"a", "V2"})
	assert.True(t, MultiUnifier(q1, q2, Exact, nil).IsEmpty())
	assert.Equal(t, 1, MultiUnifier(q1, q2, Structural, nil).Size())

	q3 := MustQuery(locatedIn("_s", "a", "b"), IDPredicate{"b", "V1"})
	assert.True(t, MultiUnifier(q1, q3, Structural, nil).IsEmpty())
}

func Test_MultiUnifier_symmetricRoles(t *testing.T) {
	q1 := MustQuery(borders("_r", "x", "y"))
	q2 := MustQuery(borders("_s", "a", "b"))
	mu := MultiUnifier(q1, q2, Exact, nil)
	assert.Equal(t, 2, mu.Size())
	assert.True(t, mu.Contains(unifier.Vars("x", "a", "y", "b")))
	assert.True(t, mu.Contains(unifier.Vars("x", "b", "y", "a")))
}

func Test_MultiUnifier_neq(t *testing.T) {
	q1 := MustQuery(borders("_r", "x", "y"), NeqPredicate{"x", "y"})
	q2 := MustQuery(borders("_s", "a", "b"), NeqPredicate{"b", "a"})
	assert.Equal(t, 2, MultiUnifier(q1, q2, Exact, nil).Size())
}

func Test_AtomUnifiers_rule(t *testing.T) {
	schema := testSchema()
	tests := []struct {
		name   string
		child  Atom
		parent Atom
		expect []unifier.Unifier
	}{
		{
			name:   "same type",
			child:  locatedIn("_h", "x", "z"),
			parent: locatedIn("_r", "a", "b"),
			expect: []unifier.Unifier{unifier.Vars("_h", "_r", "x", "a", "z", "b")},
		},
		{
			name:   "reflexive parent",
			child:  locatedIn("_h", "x", "z"),
			parent: locatedIn("_r", "a", "a"),
			expect: []unifier.Unifier{unifier.Vars("_h", "_r", "x", "a", "z", "a")},
		},
		{
			name: "specialised type and role",
			child: NewRelation("_h", "is-capital-of",
				RolePlayer{Role: "capital", Player: "x"},
				RolePlayer{Role: "locality", Player: "z"}),
			parent: locatedIn("_r", "a", "b"),
			expect: []unifier.Unifier{unifier.Vars("_h", "_r", "x", "a", "z", "b")},
		},
		{
			name:   "parent more specific",
			child:  locatedIn("_h", "x", "z"),
			parent: NewRelation("_r", "is-capital-of", RolePlayer{Role: "capital", Player: "a"}),
		},
		{
			name:   "parent with fewer role players",
			child:  locatedIn("_h", "x", "z"),
			parent: NewRelation("_r", "is-located-in", RolePlayer{Role: "", Player: "a"}),
			expect: []unifier.Unifier{
				unifier.Vars("_h", "_r", "x", "a"),
				unifier.Vars("_h", "_r", "z", "a"),
			},
		},
		{
			name:   "different types",
			child:  borders("_h", "x", "z"),
			parent: locatedIn("_r", "a", "b"),
		},
		{
			name:   "compatible attribute",
			child:  Attribute{Owner: "x", Type: "name", Var: "_n", Predicate: Condition{OpEq, graph.AString("Poland")}},
			parent: Attribute{Owner: "a", Type: "name", Var: "n", Predicate: Condition{OpContains, graph.AString("land")}},
			expect: []unifier.Unifier{unifier.Vars("x", "a", "_n", "n")},
		},
		{
			name:   "incompatible attribute",
			child:  Attribute{Owner: "x", Type: "name", Var: "_n", Predicate: Condition{OpEq, graph.AString("Poland")}},
			parent: Attribute{Owner: "a", Type: "name", Var: "n", Predicate: Condition{OpEq, graph.AString("France")}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mu := AtomUnifiers(test.child, test.parent, RuleUnification, schema)
			assert.True(t, mu.Equal(unifier.NewMulti(test.expect...)), "got %v", mu)
		})
	}
}

func Test_UnifierType_String(t *testing.T) {
	assert.Equal(t, "Exact", Exact.String())
	assert.Equal(t, "Structural", Structural.String())
	assert.Equal(t, "Rule", RuleUnification.String())
	assert.Equal(t, "UnifierType(7)", UnifierType(7).String())
}
