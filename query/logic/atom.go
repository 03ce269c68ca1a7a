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

// An Atom is an indivisible constraint of a query. The set of Atom types is
// closed; see ImplementAtom.
type Atom interface {
	String() string
	cmp.Key
	// Vars returns the variables the atom mentions.
	Vars() term.VarSet
	// rename returns a copy of the atom with its variables renamed by the
	// variable to variable mappings of 'u'.
	rename(u unifier.Unifier) Atom
	anAtom()
}

// ImplementAtom is a list of types that implement Atom. This serves as
// documentation and as a compile-time check.
var ImplementAtom = []Atom{
	Isa{},
	Relation{},
	Attribute{},
	IDPredicate{},
	ValuePredicate{},
	NeqPredicate{},
}

// IsBinding returns true for atoms that bind their variables to concepts
// (Isa, Relation, Attribute), and false for predicates that only filter.
func IsBinding(a Atom) bool {
	switch a.(type) {
	case Isa, Relation, Attribute:
		return true
	case IDPredicate, ValuePredicate, NeqPredicate:
		return false
	}
	panic(fmt.Sprintf("IsBinding: unexpected atom %T", a))
}

// Type returns the schema type an atom refers to, or "" for predicates.
func Type(a Atom) graph.Label {
	switch a := a.(type) {
	case Isa:
		return a.Type
	case Relation:
		return a.Type
	case Attribute:
		return a.Type
	}
	return ""
}

func renameVar(u unifier.Unifier, v term.Var) term.Var {
	if to, ok := u.Get(v); ok {
		if tv, ok := to.(term.Var); ok {
			return tv
		}
	}
	return v
}

// Isa constrains Var to be an instance of Type or of one of its subtypes.
type Isa struct {
	Var  term.Var
	Type graph.Label
}

func (Isa) anAtom() {}

// Vars implements Atom.
func (a Isa) Vars() term.VarSet {
	return term.VarSet{a.Var}
}

func (a Isa) rename(u unifier.Unifier) Atom {
	return Isa{Var: renameVar(u, a.Var), Type: a.Type}
}

// String returns a string like "$x isa city".
func (a Isa) String() string {
	return cmp.GetKey(a)
}

// Key implements cmp.Key.
func (a Isa) Key(b *strings.Builder) {
	a.Var.Key(b)
	b.WriteString(" isa ")
	b.WriteString(string(a.Type))
}

// A RolePlayer is a variable playing a role in a Relation atom. An empty Role
// matches any role.
type RolePlayer struct {
	Role   graph.Label
	Player term.Var
}

// Relation constrains Var to be a relation of Type (or a subtype) whose role
// players include Roles.
type Relation struct {
	// Var is the relation instance. It's a generated variable when the user
	// didn't name the relation.
	Var  term.Var
	Type graph.Label
	// Roles is sorted by role and then player; use NewRelation to build one.
	Roles []RolePlayer
}

// NewRelation returns a Relation atom with its role players sorted.
func NewRelation(v term.Var, typ graph.Label, roles ...RolePlayer) Relation {
	sorted := append([]RolePlayer(nil), roles...)
	sortRolePlayers(sorted)
	return Relation{Var: v, Type: typ, Roles: sorted}
}

func sortRolePlayers(rps []RolePlayer) {
	sort.Slice(rps, func(i, j int) bool {
		if rps[i].Role != rps[j].Role {
			return rps[i].Role < rps[j].Role
		}
		return rps[i].Player < rps[j].Player
	})
}

func (Relation) anAtom() {}

// Vars implements Atom.
func (a Relation) Vars() term.VarSet {
	vars := make([]term.Var, 0, len(a.Roles)+1)
	vars = append(vars, a.Var)
	for _, rp := range a.Roles {
		vars = append(vars, rp.Player)
	}
	return term.NewVarSet(vars...)
}

// RoleMap returns the players of each role.
func (a Relation) RoleMap() map[graph.Label]term.VarSet {
	res := make(map[graph.Label]term.VarSet, len(a.Roles))
	for _, rp := range a.Roles {
		res[rp.Role] = res[rp.Role].Union(term.VarSet{rp.Player})
	}
	return res
}

// Players returns the role player variables.
func (a Relation) Players() term.VarSet {
	return a.Vars().Sub(term.VarSet{a.Var})
}

func (a Relation) rename(u unifier.Unifier) Atom {
	roles := make([]RolePlayer, len(a.Roles))
	for i, rp := range a.Roles {
		roles[i] = RolePlayer{Role: rp.Role, Player: renameVar(u, rp.Player)}
	}
	return NewRelation(renameVar(u, a.Var), a.Type, roles...)
}

// String returns a string like "$r (located-subject: $x, locality: $y) isa
// is-located-in".
func (a Relation) String() string {
	return cmp.GetKey(a)
}

// Key implements cmp.Key.
func (a Relation) Key(b *strings.Builder) {
	a.Var.Key(b)
	b.WriteString(" (")
	for i, rp := range a.Roles {
		if i > 0 {
			b.WriteString(", ")
		}
		if rp.Role != "" {
			b.WriteString(string(rp.Role))
			b.WriteString(": ")
		}
		rp.Player.Key(b)
	}
	b.WriteString(") isa ")
	b.WriteString(string(a.Type))
}

// Attribute constrains Owner to own Var, an attribute of Type (or a subtype),
// optionally with a value satisfying Predicate.
type Attribute struct {
	Owner term.Var
	Type  graph.Label
	// Var is the attribute instance. It's a generated variable when the user
	// didn't name the attribute.
	Var       term.Var
	Predicate Condition
}

func (Attribute) anAtom() {}

// Vars implements Atom.
func (a Attribute) Vars() term.VarSet {
	return term.NewVarSet(a.Owner, a.Var)
}

func (a Attribute) rename(u unifier.Unifier) Atom {
	return Attribute{
		Owner:     renameVar(u, a.Owner),
		Type:      a.Type,
		Var:       renameVar(u, a.Var),
		Predicate: a.Predicate,
	}
}

// String returns a string like `$x has name $n == "Poland"`.
func (a Attribute) String() string {
	return cmp.GetKey(a)
}

// Key implements cmp.Key.
func (a Attribute) Key(b *strings.Builder) {
	a.Owner.Key(b)
	b.WriteString(" has ")
	b.WriteString(string(a.Type))
	b.WriteByte(' ')
	a.Var.Key(b)
	if a.Predicate.IsSet() {
		b.WriteByte(' ')
		a.Predicate.Key(b)
	}
}

// IDPredicate constrains Var to be the concept with the given ID.
type IDPredicate struct {
	Var term.Var
	ID  graph.ConceptID
}

func (IDPredicate) anAtom() {}

// Vars implements Atom.
func (a IDPredicate) Vars() term.VarSet {
	return term.VarSet{a.Var}
}

func (a IDPredicate) rename(u unifier.Unifier) Atom {
	return IDPredicate{Var: renameVar(u, a.Var), ID: a.ID}
}

// String returns a string like "$x id V1".
func (a IDPredicate) String() string {
	return cmp.GetKey(a)
}

// Key implements cmp.Key.
func (a IDPredicate) Key(b *strings.Builder) {
	a.Var.Key(b)
	b.WriteString(" id ")
	b.WriteString(string(a.ID))
}

// ValuePredicate constrains the value of the attribute Var.
type ValuePredicate struct {
	Var       term.Var
	Condition Condition
}

func (ValuePredicate) anAtom() {}

// Vars implements Atom.
func (a ValuePredicate) Vars() term.VarSet {
	return term.VarSet{a.Var}
}

func (a ValuePredicate) rename(u unifier.Unifier) Atom {
	return ValuePredicate{Var: renameVar(u, a.Var), Condition: a.Condition}
}

// String returns a string like `$n contains "sia"`.
func (a ValuePredicate) String() string {
	return cmp.GetKey(a)
}

// Key implements cmp.Key.
func (a ValuePredicate) Key(b *strings.Builder) {
	a.Var.Key(b)
	b.WriteByte(' ')
	a.Condition.Key(b)
}

// NeqPredicate constrains Var and Other to be different concepts.
type NeqPredicate struct {
	Var   term.Var
	Other term.Var
}

func (NeqPredicate) anAtom() {}

// Vars implements Atom.
func (a NeqPredicate) Vars() term.VarSet {
	return term.NewVarSet(a.Var, a.Other)
}

func (a NeqPredicate) rename(u unifier.Unifier) Atom {
	return NeqPredicate{Var: renameVar(u, a.Var), Other: renameVar(u, a.Other)}
}

// String returns a string like "$x != $y".
func (a NeqPredicate) String() string {
	return cmp.GetKey(a)
}

// Key implements cmp.Key.
func (a NeqPredicate) Key(b *strings.Builder) {
	a.Var.Key(b)
	b.WriteString(" != ")
	a.Other.Key(b)
}
