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

// Package unifier implements the algebra used to align the variables of two
// queries: a Unifier is a finite mapping from variables to terms and a
// MultiUnifier is a set of alternative Unifiers.
package unifier

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
)

// ErrUnifierConflict is returned when merging two unifiers that map the same
// variable to different terms.
var ErrUnifierConflict = errors.New("conflicting unifiers")

// ErrNonExistentUnifier is returned when a single unifier is required but
// none (or more than one) exists.
var ErrNonExistentUnifier = errors.New("unifier does not exist")

// A Unifier is an immutable mapping from variables to terms. The zero value
// is the empty unifier, which maps every variable to itself.
type Unifier struct {
	// m is never modified after construction; nil is empty.
	m map[term.Var]term.Term
}

// An Entry is one mapping of a Unifier.
type Entry struct {
	From term.Var
	To   term.Term
}

// New returns a unifier with the given mappings. The map is copied.
func New(mappings map[term.Var]term.Term) Unifier {
	if len(mappings) == 0 {
		return Unifier{}
	}
	m := make(map[term.Var]term.Term, len(mappings))
	for k, v := range mappings {
		m[k] = v
	}
	return Unifier{m: m}
}

// Vars is a convenience constructor for a variable to variable unifier. It
// takes alternating from and to variables: Vars("x", "a", "y", "b") maps $x to
// $a and $y to $b. It panics on an odd number of arguments.
func Vars(pairs ...term.Var) Unifier {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("unifier.Vars needs an even number of variables, got %d", len(pairs)))
	}
	m := make(map[term.Var]term.Term, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return Unifier{m: m}
}

// Get returns the term 'v' is mapped to.
func (u Unifier) Get(v term.Var) (term.Term, bool) {
	t, ok := u.m[v]
	return t, ok
}

// ContainsKey returns true if 'v' is in the domain of the unifier.
func (u Unifier) ContainsKey(v term.Var) bool {
	_, ok := u.m[v]
	return ok
}

// ContainsValue returns true if some variable is mapped to 't'.
func (u Unifier) ContainsValue(t term.Term) bool {
	for _, v := range u.m {
		if v == t {
			return true
		}
	}
	return false
}

// Size returns the number of mappings.
func (u Unifier) Size() int {
	return len(u.m)
}

// IsEmpty returns true if the unifier has no mappings.
func (u Unifier) IsEmpty() bool {
	return len(u.m) == 0
}

// Keys returns the domain of the unifier.
func (u Unifier) Keys() term.VarSet {
	keys := make([]term.Var, 0, len(u.m))
	for k := range u.m {
		keys = append(keys, k)
	}
	return term.NewVarSet(keys...)
}

// Entries returns the mappings ordered by variable.
func (u Unifier) Entries() []Entry {
	res := make([]Entry, 0, len(u.m))
	for k, v := range u.m {
		res = append(res, Entry{From: k, To: v})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].From < res[j].From
	})
	return res
}

// Apply returns the term 't' is mapped to. Terms outside the domain,
// including every ID, map to themselves.
func (u Unifier) Apply(t term.Term) term.Term {
	if v, ok := t.(term.Var); ok {
		if mapped, ok := u.m[v]; ok {
			return mapped
		}
	}
	return t
}

// ApplyAll applies the unifier to each term.
func (u Unifier) ApplyAll(terms []term.Term) []term.Term {
	res := make([]term.Term, len(terms))
	for i, t := range terms {
		res[i] = u.Apply(t)
	}
	return res
}

// Merge returns the union of the two unifiers. It returns an error wrapping
// ErrUnifierConflict if they map the same variable to different terms.
func (u Unifier) Merge(other Unifier) (Unifier, error) {
	if other.IsEmpty() {
		return u, nil
	}
	if u.IsEmpty() {
		return other, nil
	}
	m := make(map[term.Var]term.Term, len(u.m)+len(other.m))
	for k, v := range u.m {
		m[k] = v
	}
	for k, v := range other.m {
		if existing, ok := m[k]; ok && existing != v {
			return Unifier{}, fmt.Errorf("%w: %v maps to both %v and %v",
				ErrUnifierConflict, k, existing, v)
		}
		m[k] = v
	}
	return Unifier{m: m}, nil
}

// MustMerge is like Merge but panics on a conflict. It's for callers that
// have already established the unifiers are compatible.
func (u Unifier) MustMerge(other Unifier) Unifier {
	res, err := u.Merge(other)
	if err != nil {
		panic(err)
	}
	return res
}

// Combine returns the composition of the two unifiers: applying the result is
// the same as applying 'other' and then 'u'.
func (u Unifier) Combine(other Unifier) Unifier {
	m := make(map[term.Var]term.Term, len(u.m)+len(other.m))
	for k, v := range other.m {
		m[k] = u.Apply(v)
	}
	for k, v := range u.m {
		if _, ok := other.m[k]; !ok {
			m[k] = v
		}
	}
	return New(m)
}

// IsInjective returns true if no two variables map to the same term.
func (u Unifier) IsInjective() bool {
	seen := make(map[term.Term]bool, len(u.m))
	for _, v := range u.m {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Inverse swaps the keys and values of the variable to variable mappings;
// mappings to IDs are dropped. If several variables map to the same
// variable, the inverse maps it to the smallest of them, so the round trip
// only holds for injective unifiers.
func (u Unifier) Inverse() Unifier {
	m := make(map[term.Var]term.Term, len(u.m))
	for _, e := range u.Entries() {
		to, ok := e.To.(term.Var)
		if !ok {
			continue
		}
		if _, exists := m[to]; !exists {
			m[to] = e.From
		}
	}
	return New(m)
}

// ContainsAll returns true if every mapping of 'other' is also a mapping of
// 'u'.
func (u Unifier) ContainsAll(other Unifier) bool {
	for k, v := range other.m {
		if mine, ok := u.m[k]; !ok || mine != v {
			return false
		}
	}
	return true
}

// Equal returns true if the unifiers have the same mappings.
func (u Unifier) Equal(other Unifier) bool {
	return len(u.m) == len(other.m) && u.ContainsAll(other)
}

// Restrict returns the mappings of the unifier whose key is in 'vars'.
func (u Unifier) Restrict(vars term.VarSet) Unifier {
	m := make(map[term.Var]term.Term, len(u.m))
	for k, v := range u.m {
		if vars.Contains(k) {
			m[k] = v
		}
	}
	return New(m)
}

// String returns a string like "{$x->$a $y->#V1}".
func (u Unifier) String() string {
	var b strings.Builder
	b.WriteByte('{')
	u.Key(&b)
	b.WriteByte('}')
	return b.String()
}

// Key implements cmp.Key.
func (u Unifier) Key(b *strings.Builder) {
	for i, e := range u.Entries() {
		if i > 0 {
			b.WriteByte(' ')
		}
		e.From.Key(b)
		b.WriteString("->")
		e.To.Key(b)
	}
}

var _ cmp.Key = Unifier{}
