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
	"sort"
	"strings"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
)

// A Query is an immutable conjunction of atoms. Atoms are deduplicated and
// kept in key order, so two queries built from the same atoms in a
// different order are identical.
type Query struct {
	atoms      []Atom
	keys       []string
	vars       term.VarSet
	selectable []Atom
}

// NewQuery returns the conjunction of the given atoms. It returns an error
// wrapping ErrInvalidQuery if there are no binding atoms, or
// ErrUnboundVariable if a predicate references a variable that no binding
// atom binds.
func NewQuery(atoms ...Atom) (*Query, error) {
	q := build(atoms)
	var bound term.VarSet
	for _, a := range q.atoms {
		if IsBinding(a) {
			bound = bound.Union(a.Vars())
		}
	}
	if len(bound) == 0 {
		return nil, fmt.Errorf("%w: query {%v} has no atoms that bind variables", ErrInvalidQuery, q)
	}
	if unbound := q.vars.Sub(bound); len(unbound) > 0 {
		return nil, fmt.Errorf("%w: %v in query {%v}", ErrUnboundVariable, unbound, q)
	}
	return q, nil
}

// MustQuery is like NewQuery but panics on error. It's intended for tests and
// for queries derived from already-valid queries.
func MustQuery(atoms ...Atom) *Query {
	q, err := NewQuery(atoms...)
	if err != nil {
		panic(err)
	}
	return q
}

func build(in []Atom) *Query {
	type keyed struct {
		key  string
		atom Atom
	}
	all := make([]keyed, len(in))
	for i, a := range in {
		all[i] = keyed{cmp.GetKey(a), a}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].key < all[j].key
	})
	q := &Query{}
	for i, k := range all {
		if i > 0 && k.key == all[i-1].key {
			continue
		}
		q.atoms = append(q.atoms, k.atom)
		q.keys = append(q.keys, k.key)
		q.vars = q.vars.Union(k.atom.Vars())
	}
	var related term.VarSet
	for _, a := range q.atoms {
		switch a.(type) {
		case Relation, Attribute:
			related = related.Union(a.Vars())
		}
	}
	for _, a := range q.atoms {
		switch a := a.(type) {
		case Relation, Attribute:
			q.selectable = append(q.selectable, a)
		case Isa:
			if !related.Contains(a.Var) {
				q.selectable = append(q.selectable, a)
			}
		}
	}
	return q
}

// Atoms returns all the atoms of the query in key order. The caller must not
// modify the returned slice.
func (q *Query) Atoms() []Atom {
	return q.atoms
}

// Vars returns every variable mentioned by the query.
func (q *Query) Vars() term.VarSet {
	return q.vars
}

// AnswerVars returns the variables an answer to the query binds: the
// user-named ones.
func (q *Query) AnswerVars() term.VarSet {
	return q.vars.UserNamed()
}

// SelectAtoms returns the atoms that must be resolved: relations, attributes,
// and the isa atoms whose variable isn't already bound by one of those. The
// other atoms are constraints folded into the selected ones.
func (q *Query) SelectAtoms() []Atom {
	return q.selectable
}

// IsAtomic returns true if the query has exactly one selectable atom.
func (q *Query) IsAtomic() bool {
	return len(q.selectable) == 1
}

// Substitution returns the variables fixed to concepts by ID predicates.
func (q *Query) Substitution() map[term.Var]graph.ConceptID {
	sub := make(map[term.Var]graph.ConceptID)
	for _, a := range q.atoms {
		if p, ok := a.(IDPredicate); ok {
			if _, exists := sub[p.Var]; !exists {
				sub[p.Var] = p.ID
			}
		}
	}
	return sub
}

// IsGround returns true if every answer variable is fixed by an ID
// predicate.
func (q *Query) IsGround() bool {
	sub := q.Substitution()
	for _, v := range q.AnswerVars() {
		if _, ok := sub[v]; !ok {
			return false
		}
	}
	return true
}

// WithSubstitution returns the query with an ID predicate added for every
// variable of the query that 'sub' fixes. Variables not in the query are
// ignored.
func (q *Query) WithSubstitution(sub map[term.Var]graph.ConceptID) *Query {
	atoms := append([]Atom(nil), q.atoms...)
	added := false
	for _, v := range q.vars {
		if id, ok := sub[v]; ok {
			atoms = append(atoms, IDPredicate{Var: v, ID: id})
			added = true
		}
	}
	if !added {
		return q
	}
	return build(atoms)
}

// Apply renames the query's variables with 'u'. Variables that 'u' maps to
// IDs keep their name and gain an ID predicate.
func (q *Query) Apply(u unifier.Unifier) *Query {
	if u.IsEmpty() {
		return q
	}
	atoms := make([]Atom, 0, len(q.atoms))
	for _, a := range q.atoms {
		atoms = append(atoms, a.rename(u))
	}
	for _, e := range u.Entries() {
		if id, ok := e.To.(term.ID); ok && q.vars.Contains(e.From) {
			atoms = append(atoms, IDPredicate{Var: e.From, ID: id.ConceptID()})
		}
	}
	return build(atoms)
}

// TransformIDs returns the query with the ID of each ID predicate on a
// variable in 'transform' replaced.
func (q *Query) TransformIDs(transform map[term.Var]graph.ConceptID) *Query {
	if len(transform) == 0 {
		return q
	}
	atoms := make([]Atom, len(q.atoms))
	for i, a := range q.atoms {
		if p, ok := a.(IDPredicate); ok {
			if id, ok := transform[p.Var]; ok {
				a = IDPredicate{Var: p.Var, ID: id}
			}
		}
		atoms[i] = a
	}
	return build(atoms)
}

// IDTransform returns, for each ID predicate variable of 'from', the ID that
// 'to' fixes the corresponding variable to, where 'u' maps the variables of
// 'from' onto those of 'to'. Applying the result with TransformIDs to 'from'
// gives a query with the same IDs as 'to'.
func IDTransform(from, to *Query, u unifier.Unifier) map[term.Var]graph.ConceptID {
	toSub := to.Substitution()
	transform := make(map[term.Var]graph.ConceptID)
	for v := range from.Substitution() {
		target, ok := u.Apply(v).(term.Var)
		if !ok {
			continue
		}
		if id, ok := toSub[target]; ok {
			transform[v] = id
		}
	}
	return transform
}

// Constraints returns the non-selected atoms that constrain the variables of
// 'selected': isa atoms and predicates whose variables all belong to it.
func (q *Query) Constraints(selected Atom) []Atom {
	vars := selected.Vars()
	var res []Atom
	for _, a := range q.atoms {
		if cmp.GetKey(a) == cmp.GetKey(selected) {
			continue
		}
		switch a.(type) {
		case Relation, Attribute:
			continue
		case Isa:
			if q.isSelected(a) {
				continue
			}
		}
		if vars.ContainsSet(a.Vars()) {
			res = append(res, a)
		}
	}
	return res
}

func (q *Query) isSelected(a Atom) bool {
	key := cmp.GetKey(a)
	for _, s := range q.selectable {
		if cmp.GetKey(s) == key {
			return true
		}
	}
	return false
}

// AtomicQuery returns the atomic query made of the selected atom 'selected'
// and its constraints.
func (q *Query) AtomicQuery(selected Atom) *AtomicQuery {
	atoms := append([]Atom{selected}, q.Constraints(selected)...)
	return &AtomicQuery{Query: build(atoms), atom: selected}
}

// AtomicQueries returns the atomic query of every selectable atom, in key
// order.
func (q *Query) AtomicQueries() []*AtomicQuery {
	res := make([]*AtomicQuery, len(q.selectable))
	for i, a := range q.selectable {
		res[i] = q.AtomicQuery(a)
	}
	return res
}

// NeqPredicates returns the inequality predicates of the query.
func (q *Query) NeqPredicates() []NeqPredicate {
	var res []NeqPredicate
	for _, a := range q.atoms {
		if p, ok := a.(NeqPredicate); ok {
			res = append(res, p)
		}
	}
	return res
}

// Equal returns true if both queries have exactly the same atoms.
func (q *Query) Equal(other *Query) bool {
	if len(q.keys) != len(other.keys) {
		return false
	}
	for i := range q.keys {
		if q.keys[i] != other.keys[i] {
			return false
		}
	}
	return true
}

// String returns a string like "$x isa city; $x id V1;".
func (q *Query) String() string {
	var b strings.Builder
	q.Key(&b)
	return b.String()
}

// Key implements cmp.Key.
func (q *Query) Key(b *strings.Builder) {
	for i, k := range q.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte(';')
	}
}

// An AtomicQuery is a Query with exactly one selectable atom: the base unit
// of resolution.
type AtomicQuery struct {
	*Query
	atom Atom
}

// NewAtomic returns the atomic query of the given atoms. It returns an error
// wrapping ErrInvalidQuery if they don't contain exactly one selectable atom.
func NewAtomic(atoms ...Atom) (*AtomicQuery, error) {
	q, err := NewQuery(atoms...)
	if err != nil {
		return nil, err
	}
	return q.Atomic()
}

// MustAtomic is like NewAtomic but panics on error.
func MustAtomic(atoms ...Atom) *AtomicQuery {
	q, err := NewAtomic(atoms...)
	if err != nil {
		panic(err)
	}
	return q
}

// Atomic returns the query as an AtomicQuery. It returns an error wrapping
// ErrInvalidQuery if the query doesn't have exactly one selectable atom.
func (q *Query) Atomic() (*AtomicQuery, error) {
	if !q.IsAtomic() {
		return nil, fmt.Errorf("%w: query {%v} has %d resolvable atoms, expected 1",
			ErrInvalidQuery, q, len(q.selectable))
	}
	return &AtomicQuery{Query: q, atom: q.selectable[0]}, nil
}

// Atom returns the selectable atom.
func (q *AtomicQuery) Atom() Atom {
	return q.atom
}

// WithSubstitution is like Query.WithSubstitution but keeps the query atomic.
func (q *AtomicQuery) WithSubstitution(sub map[term.Var]graph.ConceptID) *AtomicQuery {
	res := q.Query.WithSubstitution(sub)
	if res == q.Query {
		return q
	}
	return &AtomicQuery{Query: res, atom: q.atom}
}
