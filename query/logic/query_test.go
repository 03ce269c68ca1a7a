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
	"errors"
	"testing"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewQuery_normalises(t *testing.T) {
	assert := assert.New(t)
	q1 := MustQuery(Isa{"x", "city"}, locatedIn("_r", "x", "y"), Isa{"x", "city"})
	q2 := MustQuery(locatedIn("_r", "x", "y"), Isa{"x", "city"})
	assert.Len(q1.Atoms(), 2)
	assert.True(q1.Equal(q2))
	assert.Equal(q1.String(), q2.String())
	assert.Equal(term.VarSet{"_r", "x", "y"}, q1.Vars())
	assert.Equal(term.VarSet{"x", "y"}, q1.AnswerVars())
	assert.Equal([]Atom{locatedIn("_r", "x", "y")}, q1.SelectAtoms())
	assert.True(q1.IsAtomic())
}

func Test_NewQuery_errors(t *testing.T) {
	_, err := NewQuery()
	assert.True(t, errors.Is(err, ErrInvalidQuery))
	_, err = NewQuery(IDPredicate{"x", "V1"})
	assert.True(t, errors.Is(err, ErrInvalidQuery))
	_, err = NewQuery(Isa{"x", "city"}, NeqPredicate{"x", "y"})
	assert.True(t, errors.Is(err, ErrUnboundVariable))
	assert.Contains(t, err.Error(), "$y")
	assert.Panics(t, func() { MustQuery() })
}

func Test_NewAtomic(t *testing.T) {
	_, err := NewAtomic(locatedIn("_r", "x", "y"), locatedIn("_s", "y", "z"))
	assert.True(t, errors.Is(err, ErrInvalidQuery))
	_, err = NewAtomic(Isa{"x", "city"}, Isa{"y", "country"})
	assert.True(t, errors.Is(err, ErrInvalidQuery))

	aq, err := NewAtomic(locatedIn("_r", "x", "y"), Isa{"y", "country"})
	require.NoError(t, err)
	assert.Equal(t, locatedIn("_r", "x", "y"), aq.Atom())
	assert.Len(t, aq.Atoms(), 2)
}

func Test_Query_Substitution(t *testing.T) {
	q := MustQuery(locatedIn("_r", "x", "y"), IDPredicate{"x", "V1"})
	assert.Equal(t, map[term.Var]graph.ConceptID{"x": "V1"}, q.Substitution())
	assert.False(t, q.IsGround())
	q = q.WithSubstitution(map[term.Var]graph.ConceptID{"y": "V2", "unused": "V3"})
	assert.True(t, q.IsGround())
	assert.Equal(t, "$_r (locality: $y, located-subject: $x) isa is-located-in; $x id V1; $y id V2;",
		q.String())
}

func Test_Query_Apply(t *testing.T) {
	q := MustQuery(locatedIn("_r", "x", "y"))
	u := unifier.New(map[term.Var]term.Term{"x": term.Var("a"), "y": term.ID("V1")})
	res := q.Apply(u)
	assert.Equal(t, "$_r (locality: $y, located-subject: $a) isa is-located-in; $y id V1;",
		res.String())
	assert.Same(t, q, q.Apply(unifier.Unifier{}))
}

func Test_Query_AtomicQuery(t *testing.T) {
	assert := assert.New(t)
	q := MustQuery(
		locatedIn("_r", "x", "y"),
		Isa{"y", "country"},
		Isa{"z", "city"},
		IDPredicate{"x", "V1"},
		NeqPredicate{"x", "z"},
	)
	assert.Len(q.SelectAtoms(), 2)
	aq := q.AtomicQuery(locatedIn("_r", "x", "y"))
	assert.Equal("$_r (locality: $y, located-subject: $x) isa is-located-in; $x id V1; $y isa country;",
		aq.String())
	assert.Equal(locatedIn("_r", "x", "y"), aq.Atom())
	aqs := q.AtomicQueries()
	if assert.Len(aqs, 2) {
		assert.Equal("$z isa city;", aqs[1].String())
	}
	assert.Equal([]NeqPredicate{{"x", "z"}}, q.NeqPredicates())
}

func Test_Query_IDTransform(t *testing.T) {
	from := MustQuery(locatedIn("_r", "x", "y"), IDPredicate{"x", "V1"})
	to := MustQuery(locatedIn("_s", "a", "b"), IDPredicate{"a", "V2"})
	u := unifier.Vars("_r", "_s", "x", "a", "y", "b")
	transform := IDTransform(from, to, u)
	assert.Equal(t, map[term.Var]graph.ConceptID{"x": "V2"}, transform)
	assert.Equal(t, "$_r (locality: $y, located-subject: $x) isa is-located-in; $x id V2;",
		from.TransformIDs(transform).String())
}
