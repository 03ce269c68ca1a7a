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

// Package exec runs compiled plans against a graph. Execution is lazy: rows
// are produced one at a time as the caller asks for them, by backtracking
// through the plan's steps.
package exec

import (
	"context"
	"fmt"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/answer"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/planner"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	log "github.com/sirupsen/logrus"
)

// row is a partial set of bindings. Rows are never modified once created.
type row map[term.Var]graph.Concept

func (r row) with(v term.Var, c graph.Concept) row {
	res := make(row, len(r)+1)
	for k, x := range r {
		res[k] = x
	}
	res[v] = c
	return res
}

// frame holds the candidate rows produced by one step for one input row.
type frame struct {
	rows []row
	next int
}

// Rows is a lazy iterator over the answers to a plan. It implements
// answer.Iterator. Answers have no explanation; the caller provides one.
type Rows struct {
	ctx   context.Context
	plan  *planner.Plan
	graph graph.Graph
	stack []frame
	err   error
	done  bool
}

// Execute starts running 'plan' against 'g'. Nothing is read from the graph
// until the first call to Next.
func Execute(ctx context.Context, plan *planner.Plan, g graph.Graph) *Rows {
	return &Rows{
		ctx:   ctx,
		plan:  plan,
		graph: g,
		stack: []frame{{rows: []row{{}}}},
	}
}

// Next implements answer.Iterator. It returns false once the plan is
// exhausted or the context is canceled; see Err.
func (it *Rows) Next() (answer.Answer, bool) {
	for !it.done {
		if err := it.ctx.Err(); err != nil {
			it.err = err
			it.done = true
			break
		}
		top := &it.stack[len(it.stack)-1]
		if top.next == len(top.rows) {
			it.stack = it.stack[:len(it.stack)-1]
			if len(it.stack) == 0 {
				it.done = true
			}
			continue
		}
		r := top.rows[top.next]
		top.next++
		depth := len(it.stack) - 1
		if depth == len(it.plan.Steps) {
			return answer.New(r, nil), true
		}
		it.stack = append(it.stack, frame{rows: run(it.graph, it.plan.Steps[depth], r)})
	}
	return answer.Answer{}, false
}

// Err returns the error that stopped the iteration early, if any.
func (it *Rows) Err() error {
	return it.err
}

var _ answer.Iterator = (*Rows)(nil)

// run applies one step to a row, returning the resulting rows.
func run(g graph.Graph, op planner.Operator, r row) []row {
	switch op := op.(type) {
	case *planner.LookupID:
		return lookupID(g, op, r)
	case *planner.ScanIsa:
		return scanIsa(g, op, r)
	case *planner.MatchRelation:
		return matchRelation(g, op, r)
	case *planner.MatchAttribute:
		return matchAttribute(g, op, r)
	case *planner.Filter:
		if filter(g.Schema(), op.Atom, r) {
			return []row{r}
		}
		return nil
	}
	log.Panicf("Unexpected operator type: %T %v", op, op)
	return nil
}

func lookupID(g graph.Graph, op *planner.LookupID, r row) []row {
	if c, bound := r[op.Var]; bound {
		if c.ID == op.ID {
			return []row{r}
		}
		return nil
	}
	c, ok := g.Concept(op.ID)
	if !ok {
		return nil
	}
	return []row{r.with(op.Var, c)}
}

func scanIsa(g graph.Graph, op *planner.ScanIsa, r row) []row {
	if c, bound := r[op.Atom.Var]; bound {
		if g.Schema().IsSubtype(c.Type, op.Atom.Type) {
			return []row{r}
		}
		return nil
	}
	instances := g.Instances(op.Atom.Type)
	res := make([]row, len(instances))
	for i, c := range instances {
		res[i] = r.with(op.Atom.Var, c)
	}
	return res
}

func matchRelation(g graph.Graph, op *planner.MatchRelation, r row) []row {
	atom := op.Atom
	schema := g.Schema()
	var candidates []graph.Relation
	if c, bound := r[atom.Var]; bound {
		if rel, ok := g.Relation(c.ID); ok {
			candidates = []graph.Relation{rel}
		}
	} else if c, bound := r[op.Via]; op.Via != "" && bound {
		candidates = g.RelationsByPlayer(c.ID)
	} else {
		candidates = g.Relations(atom.Type)
	}
	var res []row
	seen := make(map[string]bool)
	for _, rel := range candidates {
		if !schema.IsSubtype(rel.Type, atom.Type) {
			continue
		}
		base := r
		if _, bound := r[atom.Var]; !bound {
			base = r.with(atom.Var, rel.Concept)
		}
		for _, match := range matchRolePlayers(g, schema, atom.Roles, rel.Players, base) {
			key := rowKey(match)
			if !seen[key] {
				seen[key] = true
				res = append(res, match)
			}
		}
	}
	return res
}

// matchRolePlayers returns every extension of 'r' in which each atom role
// player is matched to a distinct relation role player.
func matchRolePlayers(g graph.Graph, schema *graph.Schema, roles []logic.RolePlayer, players []graph.RolePlayer, r row) []row {
	var res []row
	used := make([]bool, len(players))
	var visit func(i int, r row)
	visit = func(i int, r row) {
		if i == len(roles) {
			res = append(res, r)
			return
		}
		want := roles[i]
		for j, p := range players {
			if used[j] || !schema.IsSubRole(p.Role, want.Role) {
				continue
			}
			next := r
			if c, bound := r[want.Player]; bound {
				if c.ID != p.Player {
					continue
				}
			} else {
				c, ok := g.Concept(p.Player)
				if !ok {
					continue
				}
				next = r.with(want.Player, c)
			}
			used[j] = true
			visit(i+1, next)
			used[j] = false
		}
	}
	visit(0, r)
	return res
}

func matchAttribute(g graph.Graph, op *planner.MatchAttribute, r row) []row {
	atom := op.Atom
	schema := g.Schema()
	var candidates []graph.Ownership
	if c, bound := r[atom.Var]; bound {
		candidates = g.OwnersOf(c.ID)
	} else if c, bound := r[atom.Owner]; op.FromOwner && bound {
		candidates = g.AttributesOf(c.ID)
	} else {
		candidates = g.Ownerships(atom.Type)
	}
	var res []row
	for _, o := range candidates {
		if !schema.IsSubtype(o.Attribute.Type, atom.Type) || !atom.Predicate.Matches(o.Attribute.Value) {
			continue
		}
		next := r
		if c, bound := r[atom.Owner]; bound {
			if c.ID != o.Owner {
				continue
			}
		} else {
			owner, ok := g.Concept(o.Owner)
			if !ok {
				continue
			}
			next = next.with(atom.Owner, owner)
		}
		if c, bound := r[atom.Var]; bound {
			if c.ID != o.Attribute.ID {
				continue
			}
		} else {
			next = next.with(atom.Var, o.Attribute)
		}
		res = append(res, next)
	}
	return res
}

// filter returns true if the row satisfies the atom. All the atom's variables
// must be bound.
func filter(schema *graph.Schema, atom logic.Atom, r row) bool {
	switch a := atom.(type) {
	case logic.IDPredicate:
		return r[a.Var].ID == a.ID
	case logic.Isa:
		return schema.IsSubtype(r[a.Var].Type, a.Type)
	case logic.ValuePredicate:
		return a.Condition.Matches(r[a.Var].Value)
	case logic.NeqPredicate:
		return r[a.Var].ID != r[a.Other].ID
	}
	panic(fmt.Sprintf("filter: unexpected atom %T %v", atom, atom))
}

func rowKey(r row) string {
	return answer.New(r, nil).String()
}

// Satisfies returns true if the answer satisfies every predicate and isa atom
// of 'atoms' whose variables it binds. It's used to apply constraints to
// answers that didn't come from executing a plan.
func Satisfies(schema *graph.Schema, a answer.Answer, atoms []logic.Atom) bool {
	r := row(a.Map())
	for _, atom := range atoms {
		switch atom.(type) {
		case logic.Relation, logic.Attribute:
			continue
		}
		if !a.Vars().ContainsSet(atom.Vars()) {
			continue
		}
		if !filter(schema, atom, r) {
			return false
		}
	}
	return true
}
