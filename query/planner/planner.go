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

// Package planner compiles reasoner queries into plans of graph lookups. A
// plan is an ordered list of steps; the exec package runs it against a graph.
// Plans carry the IDs of the query they were compiled from, and Transform
// rewrites them so that a plan can be reused for any query of the same
// structure.
package planner

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
)

// A Plan is a compiled query.
type Plan struct {
	// Query is the query the plan answers.
	Query *logic.Query
	// Steps are run in order.
	Steps []Operator
}

// Compile returns a plan for 'q'. Atoms are visited in the order given by
// logic.OrderAtomics, variables fixed by ID predicates are looked up before
// they're first used, and every other constraint is checked as soon as its
// variables are bound. It returns an error if the query refers to types or
// roles the schema doesn't declare.
func Compile(q *logic.Query, schema *graph.Schema, stats logic.Stats) (*Plan, error) {
	if err := checkSchema(q, schema); err != nil {
		return nil, errors.Wrapf(err, "compiling query {%v}", q)
	}
	plan := &Plan{Query: q}
	sub := q.Substitution()
	var bound term.VarSet
	emitted := make(map[string]bool)

	var filters []logic.Atom
	for _, a := range q.Atoms() {
		switch a.(type) {
		case logic.Relation, logic.Attribute:
			continue
		case logic.Isa:
			if isSelectable(q, a) {
				continue
			}
		}
		filters = append(filters, a)
	}
	emitFilters := func() {
		for _, f := range filters {
			key := cmp.GetKey(f)
			if !emitted[key] && bound.ContainsSet(f.Vars()) {
				emitted[key] = true
				plan.Steps = append(plan.Steps, &Filter{Atom: f})
			}
		}
	}

	for _, aq := range logic.OrderAtomics(q, nil, stats, nil) {
		atom := aq.Atom()
		for _, v := range atom.Vars() {
			id, ok := sub[v]
			if !ok || bound.Contains(v) {
				continue
			}
			plan.Steps = append(plan.Steps, &LookupID{Var: v, ID: id})
			emitted[cmp.GetKey(logic.IDPredicate{Var: v, ID: id})] = true
			bound = bound.Union(term.VarSet{v})
		}
		switch atom := atom.(type) {
		case logic.Isa:
			plan.Steps = append(plan.Steps, &ScanIsa{Atom: atom})
		case logic.Relation:
			op := &MatchRelation{Atom: atom}
			if !bound.Contains(atom.Var) {
				if via := atom.Players().Intersect(bound); len(via) > 0 {
					op.Via = via[0]
				}
			}
			plan.Steps = append(plan.Steps, op)
		case logic.Attribute:
			plan.Steps = append(plan.Steps, &MatchAttribute{
				Atom:      atom,
				FromOwner: bound.Contains(atom.Owner),
			})
		}
		bound = bound.Union(atom.Vars())
		emitFilters()
	}
	return plan, nil
}

func isSelectable(q *logic.Query, a logic.Atom) bool {
	key := cmp.GetKey(a)
	for _, s := range q.SelectAtoms() {
		if cmp.GetKey(s) == key {
			return true
		}
	}
	return false
}

func checkSchema(q *logic.Query, schema *graph.Schema) error {
	for _, a := range q.Atoms() {
		typ := logic.Type(a)
		if typ == "" {
			continue
		}
		if _, ok := schema.Type(typ); !ok {
			return errors.Errorf("unknown type %v in %v", typ, a)
		}
		if rel, ok := a.(logic.Relation); ok {
			for _, rp := range rel.Roles {
				if rp.Role != "" && !schema.HasRole(rp.Role) {
					return errors.Errorf("unknown role %v in %v", rp.Role, a)
				}
			}
		}
	}
	return nil
}

// Vars returns the variables the plan binds.
func (plan *Plan) Vars() term.VarSet {
	return plan.Query.Vars()
}

// Transform returns a copy of the plan whose ID lookups and ID filters use the
// IDs given by 'transform' for their variables. It's used with
// logic.IDTransform to reuse a plan for a structurally equivalent query.
func (plan *Plan) Transform(transform map[term.Var]graph.ConceptID) *Plan {
	if len(transform) == 0 {
		return plan
	}
	res := &Plan{
		Query: plan.Query.TransformIDs(transform),
		Steps: make([]Operator, len(plan.Steps)),
	}
	for i, op := range plan.Steps {
		res.Steps[i] = operatorWithIDs(op, transform)
	}
	return res
}

// String returns the steps of the plan, one per line.
func (plan *Plan) String() string {
	var b strings.Builder
	for _, op := range plan.Steps {
		op.Key(&b)
		b.WriteByte('\n')
	}
	return b.String()
}
