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

// Package term defines the variables and terms that queries, unifiers and
// answers are expressed over.
package term

import (
	"strconv"
	"strings"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
)

// A Term is something a Unifier can map a variable to: either another Var or
// a concrete concept ID.
type Term interface {
	String() string
	cmp.Key
	aTerm()
}

// ImplementTerm is a list of types that implement Term. This serves as
// documentation and as a compile-time check.
var ImplementTerm = []Term{
	Var(""),
	ID(""),
}

// A Var is a query variable. Variables whose name starts with '_' are
// generated by the system (for example the implicit variable of a relation
// that the user did not name); all others are user-named. Two Vars are equal
// iff their names are equal.
type Var string

// GeneratedPrefix starts the name of every system-generated variable.
const GeneratedPrefix = "_"

func (Var) aTerm() {}

// Name returns the variable's name without the '$' sigil.
func (v Var) Name() string {
	return string(v)
}

// IsUserNamed returns true if the variable was named by the user rather than
// generated.
func (v Var) IsUserNamed() bool {
	return !strings.HasPrefix(string(v), GeneratedPrefix)
}

// String returns a string like "$foo".
func (v Var) String() string {
	return "$" + string(v)
}

// Key implements cmp.Key.
func (v Var) Key(b *strings.Builder) {
	b.WriteByte('$')
	b.WriteString(string(v))
}

// An ID is a Term for a concrete concept.
type ID graph.ConceptID

func (ID) aTerm() {}

// ConceptID returns the ID as a graph.ConceptID.
func (id ID) ConceptID() graph.ConceptID {
	return graph.ConceptID(id)
}

// String returns a string like "#V12".
func (id ID) String() string {
	return "#" + string(id)
}

// Key implements cmp.Key.
func (id ID) Key(b *strings.Builder) {
	b.WriteByte('#')
	b.WriteString(string(id))
}

// Equal returns true if the two terms are the same variable or the same ID.
func Equal(a, b Term) bool {
	return a == b
}

// A VarGen generates fresh variables for a single query or rule. The zero
// value is ready to use.
type VarGen struct {
	// Hint is included in generated names to make them easier to read.
	Hint string
	next int
}

// Next returns a generated variable that this VarGen has not returned before.
func (g *VarGen) Next() Var {
	g.next++
	return Var(GeneratedPrefix + g.Hint + strconv.Itoa(g.next))
}
