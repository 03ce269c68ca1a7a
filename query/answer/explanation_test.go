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

package answer

import (
	"strings"
	"testing"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locatedIn(r, x, y term.Var) logic.Relation {
	return logic.NewRelation(r, "is-located-in",
		logic.RolePlayer{Role: "located-subject", Player: x},
		logic.RolePlayer{Role: "locality", Player: y})
}

func derived(t *testing.T) (Answer, *logic.Rule) {
	rule, err := logic.NewRule("transitivity",
		logic.MustQuery(locatedIn("_r1", "x", "y"), locatedIn("_r2", "y", "z")),
		locatedIn("_r", "x", "z"))
	require.NoError(t, err)
	q1 := logic.MustQuery(locatedIn("_r1", "x", "y"))
	q2 := logic.MustQuery(locatedIn("_r2", "y", "z"))
	l1 := New(map[term.Var]graph.Concept{"x": warsaw, "y": masovia}, NewLookup(q1))
	l2 := New(map[term.Var]graph.Concept{"y": masovia, "z": poland}, NewLookup(q2))
	body := New(map[term.Var]graph.Concept{"x": warsaw, "y": masovia, "z": poland},
		NewJoin(rule.Body, l1, l2))
	top := New(map[term.Var]graph.Concept{"a": warsaw, "b": poland},
		NewRule(logic.MustQuery(locatedIn("_q", "a", "b")), rule, body))
	return top, rule
}

func Test_Explanation_immutable(t *testing.T) {
	assert := assert.New(t)
	q1 := logic.MustQuery(locatedIn("_r1", "x", "y"))
	q2 := logic.MustQuery(locatedIn("_r2", "y", "z"))
	j := NewJoin(q1)
	j2 := j.WithAnswers(New(nil, nil))
	assert.Empty(j.Answers())
	assert.Len(j2.Answers(), 1)
	j3 := j2.SetQuery(q2)
	assert.Same(q1, j2.Query())
	assert.Same(q2, j3.Query())
	assert.Len(j3.Answers(), 1)

	l := NewLookup(q1)
	assert.Same(q2, l.SetQuery(q2).Query())
	assert.Same(q1, l.Query())
	assert.Equal(Explanation(l), l.WithAnswers())
	assert.Panics(func() { l.WithAnswers(New(nil, nil)) })

	top, rule := derived(t)
	r := Explain(top).(*Rule)
	assert.Same(rule, r.Rule())
	r2 := r.SetQuery(q1).(*Rule)
	assert.Same(rule, r2.Rule())
	assert.Len(r2.Answers(), 1)
	assert.Empty(r.WithAnswers().Answers())
	assert.Len(r.Answers(), 1)
}

func Test_Describe(t *testing.T) {
	top, _ := derived(t)
	assert.Equal(t, "rule transitivity", Describe(top.Explanation()))
	assert.Equal(t, "join", Describe(NewJoin(nil)))
	assert.Equal(t, "lookup", Describe(NewLookup(nil)))
	assert.Equal(t, "unexplained", Describe(nil))
	assert.Equal(t, []string{"transitivity"}, Rules(top))
}

func Test_WriteTree(t *testing.T) {
	top, _ := derived(t)
	var b strings.Builder
	require.NoError(t, WriteTree(&b, top))
	assert.Equal(t, `{$a=V1:city $b=V3:country} by rule transitivity: $_q (locality: $b, located-subject: $a) isa is-located-in;
    {$x=V1:city $y=V2:region $z=V3:country} by join: $_r1 (locality: $y, located-subject: $x) isa is-located-in; $_r2 (locality: $z, located-subject: $y) isa is-located-in;
        {$x=V1:city $y=V2:region} by lookup: $_r1 (locality: $y, located-subject: $x) isa is-located-in;
        {$y=V2:region $z=V3:country} by lookup: $_r2 (locality: $z, located-subject: $y) isa is-located-in;
`, b.String())
}

func Test_WriteDot(t *testing.T) {
	top, _ := derived(t)
	var b strings.Builder
	require.NoError(t, WriteDot(&b, top))
	dot := b.String()
	assert.True(t, strings.HasPrefix(dot, "digraph explanation {\n"))
	assert.Contains(t, dot, "n0 -> n1;")
	assert.Contains(t, dot, "n1 -> n2;")
	assert.Contains(t, dot, "n1 -> n3;")
	assert.Contains(t, dot, `rule transitivity`)
	assert.Equal(t, 4, strings.Count(dot, "[label="))
}
