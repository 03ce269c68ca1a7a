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

// Package kb loads knowledge bases from YAML files. A knowledge base holds a
// schema, the facts of an in-memory graph, a set of rules and named queries.
//
// The file format is:
//
//	schema:
//	  entities:   [{label: city, super: geo-entity}, ...]
//	  relations:  [{label: is-located-in, roles: [located-subject, locality]}, ...]
//	  attributes: [{label: name, datatype: string}, ...]
//	  roles:      [{label: capital, super: located-subject}, ...]
//	entities:
//	  - {name: warsaw, type: city}
//	relations:
//	  - type: is-located-in
//	    players: {located-subject: warsaw, locality: masovia}
//	attributes:
//	  - {owner: warsaw, type: name, value: Warsaw}
//	rules:
//	  - id: transitive-location
//	    when: [pattern, ...]
//	    then: pattern
//	queries:
//	  - name: warsaw
//	    match: [pattern, ...]
//
// Each pattern is a map with exactly one of the keys isa, relation, has, id,
// value or neq. Variables are written "$name"; the variable of a relation or
// an attribute may be left out. Entities are referenced by their name in the
// file.
package kb

import (
	"bytes"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/graph/memgraph"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"gopkg.in/yaml.v3"
)

// KB is a loaded knowledge base.
type KB struct {
	Graph *memgraph.Graph
	Rules []*logic.Rule
	// Queries holds the named queries in file order.
	Queries []NamedQuery
	// Entities maps the entity names used in the file to concept IDs.
	Entities map[string]graph.ConceptID
}

// A NamedQuery is a query with the name it was given in the file.
type NamedQuery struct {
	Name  string
	Query *logic.Query
}

// Query returns the query with the given name.
func (kb *KB) Query(name string) (*logic.Query, bool) {
	for _, q := range kb.Queries {
		if q.Name == name {
			return q.Query, true
		}
	}
	return nil, false
}

// EntityName returns the name of the entity with the given ID, or the empty
// string.
func (kb *KB) EntityName(id graph.ConceptID) string {
	for name, eid := range kb.Entities {
		if eid == id {
			return name
		}
	}
	return ""
}

type file struct {
	Schema     schemaSpec      `yaml:"schema"`
	Entities   []entitySpec    `yaml:"entities"`
	Relations  []relationFact  `yaml:"relations"`
	Attributes []attributeFact `yaml:"attributes"`
	Rules      []ruleSpec      `yaml:"rules"`
	Queries    []querySpec     `yaml:"queries"`
}

type schemaSpec struct {
	Entities   []typeSpec `yaml:"entities"`
	Relations  []typeSpec `yaml:"relations"`
	Attributes []typeSpec `yaml:"attributes"`
	Roles      []typeSpec `yaml:"roles"`
}

type typeSpec struct {
	Label    string   `yaml:"label"`
	Super    string   `yaml:"super"`
	Roles    []string `yaml:"roles"`
	DataType string   `yaml:"datatype"`
}

type entitySpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type relationFact struct {
	Type    string            `yaml:"type"`
	Players map[string]string `yaml:"players"`
}

type attributeFact struct {
	Owner string      `yaml:"owner"`
	Type  string      `yaml:"type"`
	Value interface{} `yaml:"value"`
}

type ruleSpec struct {
	ID   string        `yaml:"id"`
	When []patternSpec `yaml:"when"`
	Then patternSpec   `yaml:"then"`
}

type querySpec struct {
	Name  string        `yaml:"name"`
	Match []patternSpec `yaml:"match"`
}

// Load reads a knowledge base from a YAML file.
func Load(filename string) (*KB, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	kb, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %v", filename)
	}
	return kb, nil
}

// Parse reads a knowledge base from YAML text.
func Parse(data []byte) (*KB, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a knowledge base from a YAML stream. Unknown keys are errors.
func Decode(r io.Reader) (*KB, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var in file
	if err := dec.Decode(&in); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty knowledge base")
		}
		return nil, errors.Wrap(err, "decoding YAML")
	}
	schema, err := buildSchema(&in.Schema)
	if err != nil {
		return nil, errors.Wrap(err, "schema")
	}
	kb := &KB{
		Graph:    memgraph.New(schema),
		Entities: make(map[string]graph.ConceptID),
	}
	if err := kb.addFacts(&in); err != nil {
		return nil, err
	}
	for i, spec := range in.Rules {
		rule, err := kb.buildRule(&spec)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d", i+1)
		}
		kb.Rules = append(kb.Rules, rule)
	}
	for i, spec := range in.Queries {
		if spec.Name == "" {
			return nil, errors.Errorf("query %d has no name", i+1)
		}
		if _, exists := kb.Query(spec.Name); exists {
			return nil, errors.Errorf("query %v defined twice", spec.Name)
		}
		p := newPatternParser(kb, "")
		q, err := p.query(spec.Match)
		if err != nil {
			return nil, errors.Wrapf(err, "query %v", spec.Name)
		}
		kb.Queries = append(kb.Queries, NamedQuery{Name: spec.Name, Query: q})
	}
	return kb, nil
}

var dataTypes = map[string]graph.ValueKind{
	"":        graph.KNone,
	"string":  graph.KString,
	"long":    graph.KInt,
	"double":  graph.KFloat,
	"boolean": graph.KBool,
}

func buildSchema(spec *schemaSpec) (*graph.Schema, error) {
	s := graph.NewSchema()
	for _, t := range spec.Entities {
		if err := s.AddEntityType(graph.Label(t.Label), graph.Label(t.Super)); err != nil {
			return nil, err
		}
	}
	for _, t := range spec.Relations {
		roles := make([]graph.Label, len(t.Roles))
		for i, r := range t.Roles {
			roles[i] = graph.Label(r)
		}
		if err := s.AddRelationType(graph.Label(t.Label), graph.Label(t.Super), roles...); err != nil {
			return nil, err
		}
	}
	// Roles are declared by relation types; this adds their hierarchy.
	for _, r := range spec.Roles {
		if err := s.AddRole(graph.Label(r.Label), graph.Label(r.Super)); err != nil {
			return nil, err
		}
	}
	for _, t := range spec.Attributes {
		kind, ok := dataTypes[t.DataType]
		if !ok {
			return nil, errors.Errorf("attribute type %v has unknown datatype %q", t.Label, t.DataType)
		}
		if err := s.AddAttributeType(graph.Label(t.Label), graph.Label(t.Super), kind); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (kb *KB) entity(name string) (graph.ConceptID, error) {
	id, ok := kb.Entities[name]
	if !ok {
		return "", errors.Errorf("unknown entity %q", name)
	}
	return id, nil
}

func (kb *KB) addFacts(in *file) error {
	for _, e := range in.Entities {
		if e.Name == "" {
			return errors.Errorf("entity of type %v has no name", e.Type)
		}
		if _, exists := kb.Entities[e.Name]; exists {
			return errors.Errorf("entity %v defined twice", e.Name)
		}
		c, err := kb.Graph.AddEntity(graph.Label(e.Type))
		if err != nil {
			return errors.Wrapf(err, "entity %v", e.Name)
		}
		kb.Entities[e.Name] = c.ID
	}
	for i, r := range in.Relations {
		players := make([]graph.RolePlayer, 0, len(r.Players))
		for role, name := range r.Players {
			id, err := kb.entity(name)
			if err != nil {
				return errors.Wrapf(err, "relation %d", i+1)
			}
			players = append(players, graph.RolePlayer{Role: graph.Label(role), Player: id})
		}
		if _, err := kb.Graph.AddRelation(graph.Label(r.Type), players...); err != nil {
			return errors.Wrapf(err, "relation %d", i+1)
		}
	}
	for i, a := range in.Attributes {
		v, err := graph.ValueOf(a.Value)
		if err != nil {
			return errors.Wrapf(err, "attribute %d", i+1)
		}
		var owner graph.ConceptID
		if a.Owner != "" {
			if owner, err = kb.entity(a.Owner); err != nil {
				return errors.Wrapf(err, "attribute %d", i+1)
			}
		}
		if _, err := kb.Graph.AddAttribute(owner, graph.Label(a.Type), v); err != nil {
			return errors.Wrapf(err, "attribute %d", i+1)
		}
	}
	return nil
}

func (kb *KB) buildRule(spec *ruleSpec) (*logic.Rule, error) {
	id := spec.ID
	if id == "" {
		id = uuid.New().String()
	}
	p := newPatternParser(kb, "")
	body, err := p.query(spec.When)
	if err != nil {
		return nil, errors.Wrapf(err, "%v: body", id)
	}
	head, err := p.atom(&spec.Then)
	if err != nil {
		return nil, errors.Wrapf(err, "%v: head", id)
	}
	return logic.NewRule(id, body, head)
}
