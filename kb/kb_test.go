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

package kb

import (
	"context"
	"testing"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/infer"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadGeo(t *testing.T) *KB {
	kb, err := Load("testdata/geo.yaml")
	require.NoError(t, err)
	return kb
}

func Test_Load(t *testing.T) {
	kb := loadGeo(t)
	assert.Len(t, kb.Entities, 6)
	assert.Equal(t, 2, kb.Graph.Count("city"))
	assert.Len(t, kb.Graph.Relations("is-located-in"), 5)
	assert.True(t, kb.Graph.Schema().IsSubRole("capital", "located-subject"))
	assert.True(t, kb.Graph.Schema().IsSubtype("is-capital-of", "is-located-in"))

	pop, ok := kb.Graph.AttributeByValue("population", graph.AnInt(1790658))
	if assert.True(t, ok) {
		owners := kb.Graph.OwnersOf(pop.ID)
		require.Len(t, owners, 1)
		assert.Equal(t, "warsaw", kb.EntityName(owners[0].Owner))
	}

	require.Len(t, kb.Rules, 1)
	assert.Equal(t, "transitive-location", kb.Rules[0].ID)
	assert.IsType(t, logic.Relation{}, kb.Rules[0].Head)

	var names []string
	for _, q := range kb.Queries {
		names = append(names, q.Name)
	}
	assert.Equal(t, []string{"warsaw-locations", "self-located", "big-polish-cities", "distinct-places"}, names)
	q, ok := kb.Query("warsaw-locations")
	require.True(t, ok)
	assert.Equal(t, term.NewVarSet("place", "where"), q.AnswerVars())
	assert.Equal(t, map[term.Var]graph.ConceptID{"place": kb.Entities["warsaw"]}, q.Substitution())
	_, ok = kb.Query("nope")
	assert.False(t, ok)
}

func resolve(t *testing.T, kb *KB, name string, opts infer.Options) []string {
	q, ok := kb.Query(name)
	require.True(t, ok, name)
	it, err := infer.Resolve(context.Background(), kb.Graph, kb.Rules, q, opts)
	require.NoError(t, err)
	answers, err := infer.Collect(it)
	require.NoError(t, err)
	var res []string
	for _, a := range answers {
		res = append(res, a.String())
	}
	return res
}

func Test_Load_queriesResolve(t *testing.T) {
	kb := loadGeo(t)
	opts := infer.DefaultOptions()
	noInfer := opts
	noInfer.Infer = false

	assert.Len(t, resolve(t, kb, "warsaw-locations", opts), 3)
	assert.Len(t, resolve(t, kb, "warsaw-locations", noInfer), 1)
	assert.Empty(t, resolve(t, kb, "self-located", opts))
	assert.Len(t, resolve(t, kb, "distinct-places", noInfer), 2)
	assert.Len(t, resolve(t, kb, "distinct-places", opts), 32)

	big := resolve(t, kb, "big-polish-cities", opts)
	if assert.Len(t, big, 1) {
		assert.Contains(t, big[0], "$city="+string(kb.Entities["warsaw"])+":city")
	}
	assert.Empty(t, resolve(t, kb, "big-polish-cities", noInfer))
}

func Test_Parse_anonymousRule(t *testing.T) {
	kb, err := Parse([]byte(`
schema:
  entities: [{label: person}]
  relations:
    - {label: friendship, roles: [friend]}
entities:
  - {name: ann, type: person}
  - {name: bob, type: person}
relations:
  - {type: friendship, players: {friend: ann}}
rules:
  - when:
      - relation: {type: friendship, players: [{role: friend, player: $x}]}
    then:
      relation: {var: $f, type: friendship, players: [{role: friend, player: $x}, {role: friend, player: $x}]}
`))
	require.NoError(t, err)
	require.Len(t, kb.Rules, 1)
	assert.Len(t, kb.Rules[0].ID, 36)
	assert.Empty(t, kb.Queries)
}

func Test_Parse_errors(t *testing.T) {
	schema := `
schema:
  entities: [{label: person}]
  relations: [{label: friendship, roles: [friend]}]
  attributes: [{label: age, datatype: long}]
entities:
  - {name: ann, type: person}
`
	tests := []struct {
		name string
		yaml string
		err  string
	}{
		{"empty", ``, "empty knowledge base"},
		{"unknown key", `koala: true`, "field koala not found"},
		{"bad datatype", `
schema:
  attributes: [{label: age, datatype: integer}]`, `unknown datatype "integer"`},
		{"unknown type", `
entities:
  - {name: ann, type: person}`, "entity ann: unknown type person"},
		{"unknown entity", schema + `
relations:
  - {type: friendship, players: {friend: bob}}`, `unknown entity "bob"`},
		{"duplicate entity", schema + `
  - {name: ann, type: person}`, "entity ann defined twice"},
		{"bad value", schema + `
attributes:
  - {owner: ann, type: age, value: old}`, "holds long values"},
		{"bad variable", schema + `
queries:
  - name: q
    match:
      - isa: {var: x, type: person}`, `invalid variable "x"`},
		{"two kinds", schema + `
queries:
  - name: q
    match:
      - isa: {var: $x, type: person}
        neq: [$x, $y]`, "found 2"},
		{"bad operator", schema + `
queries:
  - name: q
    match:
      - has: {owner: $x, type: age, op: "~", value: 3}`, `unknown operator "~"`},
		{"unbound predicate", schema + `
queries:
  - name: q
    match:
      - isa: {var: $x, type: person}
      - neq: [$x, $y]`, "unbound variable"},
		{"free head variable", schema + `
rules:
  - id: r
    when:
      - isa: {var: $x, type: person}
    then:
      relation: {type: friendship, players: [{role: friend, player: $y}]}`, "not bound by the body"},
		{"duplicate query", schema + `
queries:
  - name: q
    match: [{isa: {var: $x, type: person}}]
  - name: q
    match: [{isa: {var: $x, type: person}}]`, "query q defined twice"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.yaml))
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), test.err)
			}
		})
	}
}

func Test_Load_fileErrors(t *testing.T) {
	_, err := Load("testdata/404.yaml")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "404.yaml")
	}
}
