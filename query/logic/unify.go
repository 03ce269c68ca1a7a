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
	"fmt"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
)

// UnifierType selects how strictly two queries must agree to be aligned.
type UnifierType int

const (
	// Exact aligns alpha-equivalent queries: the same atoms up to a bijective
	// renaming of variables that maps user-named variables to user-named
	// ones, including literal IDs and values.
	Exact UnifierType = iota
	// Structural is like Exact but ignores the concrete IDs of ID predicates.
	Structural
	// RuleUnification aligns a rule head (the child) with a query atom (the parent). The
	// head may specialise the parent's type and roles, and several head
	// variables may map onto one parent variable.
	RuleUnification
)

func (t UnifierType) String() string {
	switch t {
	case Exact:
		return "Exact"
	case Structural:
		return "Structural"
	case RuleUnification:
		return "Rule"
	}
	return fmt.Sprintf("UnifierType(%d)", int(t))
}

// pairing is a partial mapping from child variables to parent variables.
// For Exact and Structural unification it must stay a bijection.
type pairing struct {
	forward  map[term.Var]term.Var
	backward map[term.Var]term.Var
	strict   bool
}

func newPairing(typ UnifierType) *pairing {
	return &pairing{
		forward:  make(map[term.Var]term.Var),
		backward: make(map[term.Var]term.Var),
		strict:   typ != RuleUnification,
	}
}

func (p *pairing) clone() *pairing {
	res := &pairing{
		forward:  make(map[term.Var]term.Var, len(p.forward)),
		backward: make(map[term.Var]term.Var, len(p.backward)),
		strict:   p.strict,
	}
	for k, v := range p.forward {
		res.forward[k] = v
	}
	for k, v := range p.backward {
		res.backward[k] = v
	}
	return res
}

// add records child->parent, returning false if it conflicts with an
// existing mapping.
func (p *pairing) add(child, parent term.Var) bool {
	if existing, ok := p.forward[child]; ok {
		return existing == parent
	}
	if p.strict {
		if _, ok := p.backward[parent]; ok {
			return false
		}
		if child.IsUserNamed() != parent.IsUserNamed() {
			return false
		}
	}
	p.forward[child] = parent
	p.backward[parent] = child
	return true
}

func (p *pairing) unifier() unifier.Unifier {
	m := make(map[term.Var]term.Term, len(p.forward))
	for k, v := range p.forward {
		m[k] = v
	}
	return unifier.New(m)
}

// unifyAtoms extends 'p' with every way of aligning the child atom with the
// parent atom. It returns nil if they can't be aligned.
func unifyAtoms(child, parent Atom, typ UnifierType, schema *graph.Schema, p *pairing) []*pairing {
	one := func(pairs ...term.Var) []*pairing {
		res := p.clone()
		for i := 0; i < len(pairs); i += 2 {
			if !res.add(pairs[i], pairs[i+1]) {
				return nil
			}
		}
		return []*pairing{res}
	}
	switch c := child.(type) {
	case Isa:
		par, ok := parent.(Isa)
		if !ok || !typeMatches(c.Type, par.Type, typ, schema) {
			return nil
		}
		return one(c.Var, par.Var)

	case Relation:
		par, ok := parent.(Relation)
		if !ok || !typeMatches(c.Type, par.Type, typ, schema) {
			return nil
		}
		start := one(c.Var, par.Var)
		if start == nil {
			return nil
		}
		return unifyRolePlayers(c.Roles, par.Roles, typ, schema, start[0])

	case Attribute:
		par, ok := parent.(Attribute)
		if !ok || !typeMatches(c.Type, par.Type, typ, schema) {
			return nil
		}
		if typ == RuleUnification {
			if !c.Predicate.CompatibleWith(par.Predicate) {
				return nil
			}
		} else if c.Predicate != par.Predicate {
			return nil
		}
		return one(c.Owner, par.Owner, c.Var, par.Var)

	case IDPredicate:
		par, ok := parent.(IDPredicate)
		if !ok || (typ != Structural && c.ID != par.ID) {
			return nil
		}
		return one(c.Var, par.Var)

	case ValuePredicate:
		par, ok := parent.(ValuePredicate)
		if !ok || c.Condition != par.Condition {
			return nil
		}
		return one(c.Var, par.Var)

	case NeqPredicate:
		par, ok := parent.(NeqPredicate)
		if !ok {
			return nil
		}
		return append(one(c.Var, par.Var, c.Other, par.Other),
			one(c.Var, par.Other, c.Other, par.Var)...)
	}
	panic(fmt.Sprintf("unifyAtoms: unexpected atom %T", child))
}

// typeMatches returns true if a child atom of type 'child' can be aligned with
// a parent atom of type 'parent'.
func typeMatches(child, parent graph.Label, typ UnifierType, schema *graph.Schema) bool {
	if child == parent {
		return true
	}
	if typ != RuleUnification {
		return false
	}
	if parent == "" {
		return true
	}
	return schema != nil && schema.IsSubtype(child, parent)
}

// unifyRolePlayers enumerates the alignments of role players. For Exact and
// Structural unification every role player must be paired with a distinct
// role player with the same role. For Rule unification every parent role
// player must be paired with a distinct child role player whose role is the
// same or more specific; the child may have extra role players.
func unifyRolePlayers(child, parent []RolePlayer, typ UnifierType, schema *graph.Schema, p *pairing) []*pairing {
	if typ != RuleUnification && len(child) != len(parent) {
		return nil
	}
	var res []*pairing
	used := make([]bool, len(child))
	var visit func(i int, p *pairing)
	visit = func(i int, p *pairing) {
		if i == len(parent) {
			res = append(res, p)
			return
		}
		for j, c := range child {
			if used[j] || !roleMatches(c.Role, parent[i].Role, typ, schema) {
				continue
			}
			next := p.clone()
			if !next.add(c.Player, parent[i].Player) {
				continue
			}
			used[j] = true
			visit(i+1, next)
			used[j] = false
		}
	}
	visit(0, p)
	return res
}

func roleMatches(child, parent graph.Label, typ UnifierType, schema *graph.Schema) bool {
	if child == parent {
		return true
	}
	if typ != RuleUnification {
		return false
	}
	if parent == "" {
		return true
	}
	return schema != nil && schema.IsSubRole(child, parent)
}

// MultiUnifier returns every unifier mapping the variables of 'child' onto
// those of 'parent' such that the renamed child is equivalent to the parent
// under 'typ'. It returns an empty MultiUnifier if there is none. Rules should
// use Rule.Unifiers instead; here RuleUnification behaves like Exact except
// that types and roles may be specialised.
func MultiUnifier(child, parent *Query, typ UnifierType, schema *graph.Schema) unifier.MultiUnifier {
	if len(child.atoms) != len(parent.atoms) {
		return unifier.MultiUnifier{}
	}
	var found []unifier.Unifier
	used := make([]bool, len(parent.atoms))
	var visit func(i int, p *pairing)
	visit = func(i int, p *pairing) {
		if i == len(child.atoms) {
			found = append(found, p.unifier())
			return
		}
		for j, par := range parent.atoms {
			if used[j] {
				continue
			}
			for _, next := range unifyAtoms(child.atoms[i], par, typ, schema, p) {
				used[j] = true
				visit(i+1, next)
				used[j] = false
			}
		}
	}
	visit(0, newPairing(typ))
	return unifier.NewMulti(found...)
}

// AtomUnifiers returns every unifier aligning the child atom with the parent
// atom under 'typ'.
func AtomUnifiers(child, parent Atom, typ UnifierType, schema *graph.Schema) unifier.MultiUnifier {
	pairings := unifyAtoms(child, parent, typ, schema, newPairing(typ))
	unifiers := make([]unifier.Unifier, len(pairings))
	for i, p := range pairings {
		unifiers[i] = p.unifier()
	}
	return unifier.NewMulti(unifiers...)
}
