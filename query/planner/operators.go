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

package planner

import (
	"fmt"
	"strings"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
)

// An Operator is a single step of a Plan. The executor runs the steps in
// order, each one extending or filtering the rows produced by the previous
// steps. The set of Operator types is closed; see ImplementOperator.
type Operator interface {
	String() string
	cmp.Key
	// Binds returns the variables the operator binds when they aren't bound
	// already.
	Binds() term.VarSet
	anOperator()
}

// ImplementOperator is a list of types that implement Operator. This serves as
// documentation and as a compile-time check.
var ImplementOperator = []Operator{
	&LookupID{},
	&ScanIsa{},
	&MatchRelation{},
	&MatchAttribute{},
	&Filter{},
}

// LookupID binds Var to the concept with the given ID, or checks that Var is
// already bound to it.
type LookupID struct {
	Var term.Var
	ID  graph.ConceptID
}

func (*LookupID) anOperator() {}

// Binds implements Operator.
func (op *LookupID) Binds() term.VarSet {
	return term.VarSet{op.Var}
}

// String returns a string like "LookupID $x V1".
func (op *LookupID) String() string {
	return cmp.GetKey(op)
}

// Key implements cmp.Key.
func (op *LookupID) Key(b *strings.Builder) {
	b.WriteString("LookupID ")
	op.Var.Key(b)
	b.WriteByte(' ')
	b.WriteString(string(op.ID))
}

// ScanIsa binds Var to each instance of Type, or checks the type of an
// already bound Var.
type ScanIsa struct {
	Atom logic.Isa
}

func (*ScanIsa) anOperator() {}

// Binds implements Operator.
func (op *ScanIsa) Binds() term.VarSet {
	return op.Atom.Vars()
}

// String returns a string like "ScanIsa $x isa city".
func (op *ScanIsa) String() string {
	return cmp.GetKey(op)
}

// Key implements cmp.Key.
func (op *ScanIsa) Key(b *strings.Builder) {
	b.WriteString("ScanIsa ")
	op.Atom.Key(b)
}

// MatchRelation finds the relations matching Atom. If Via is set, the
// relations are found from the concept bound to that variable, which must be
// a role player bound by an earlier step; otherwise they're scanned by type.
type MatchRelation struct {
	Atom logic.Relation
	Via  term.Var
}

func (*MatchRelation) anOperator() {}

// Binds implements Operator.
func (op *MatchRelation) Binds() term.VarSet {
	return op.Atom.Vars()
}

// String returns a string like "MatchRelation $r (locality: $y) isa
// is-located-in via $y".
func (op *MatchRelation) String() string {
	return cmp.GetKey(op)
}

// Key implements cmp.Key.
func (op *MatchRelation) Key(b *strings.Builder) {
	b.WriteString("MatchRelation ")
	op.Atom.Key(b)
	if op.Via != "" {
		b.WriteString(" via ")
		op.Via.Key(b)
	}
}

// MatchAttribute finds the ownerships matching Atom. If FromOwner is set, they
// are found from the owner bound by an earlier step; otherwise they're
// scanned by attribute type.
type MatchAttribute struct {
	Atom      logic.Attribute
	FromOwner bool
}

func (*MatchAttribute) anOperator() {}

// Binds implements Operator.
func (op *MatchAttribute) Binds() term.VarSet {
	return op.Atom.Vars()
}

// String returns a string like `MatchAttribute $x has name $n == "Poland"
// from owner`.
func (op *MatchAttribute) String() string {
	return cmp.GetKey(op)
}

// Key implements cmp.Key.
func (op *MatchAttribute) Key(b *strings.Builder) {
	b.WriteString("MatchAttribute ")
	op.Atom.Key(b)
	if op.FromOwner {
		b.WriteString(" from owner")
	}
}

// Filter drops the rows that don't satisfy a predicate or isa atom whose
// variables are all bound.
type Filter struct {
	Atom logic.Atom
}

func (*Filter) anOperator() {}

// Binds implements Operator. Filters never bind.
func (op *Filter) Binds() term.VarSet {
	return nil
}

// String returns a string like "Filter $x != $y".
func (op *Filter) String() string {
	return cmp.GetKey(op)
}

// Key implements cmp.Key.
func (op *Filter) Key(b *strings.Builder) {
	b.WriteString("Filter ")
	op.Atom.Key(b)
}

func operatorWithIDs(op Operator, transform map[term.Var]graph.ConceptID) Operator {
	switch op := op.(type) {
	case *LookupID:
		if id, ok := transform[op.Var]; ok {
			return &LookupID{Var: op.Var, ID: id}
		}
	case *Filter:
		if p, ok := op.Atom.(logic.IDPredicate); ok {
			if id, ok := transform[p.Var]; ok {
				return &Filter{Atom: logic.IDPredicate{Var: p.Var, ID: id}}
			}
		}
	case *ScanIsa, *MatchRelation, *MatchAttribute:
	default:
		panic(fmt.Sprintf("Unexpected operator type: %T %v", op, op))
	}
	return op
}
