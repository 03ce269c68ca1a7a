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
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
)

// Hash returns a hash of the query's shape that ignores variable names. Two
// queries that are equivalent under 'typ' (Exact or Structural) have the same
// hash. For Structural the IDs of ID predicates are also ignored.
func Hash(q *Query, typ UnifierType) uint64 {
	sigs := make([]string, len(q.atoms))
	for i, a := range q.atoms {
		sigs[i] = signature(a, typ)
	}
	sort.Strings(sigs)
	return xxhash.Sum64String(strings.Join(sigs, ";"))
}

// signature describes an atom without its variables.
func signature(a Atom, typ UnifierType) string {
	var b strings.Builder
	switch a := a.(type) {
	case Isa:
		b.WriteString("isa ")
		b.WriteString(string(a.Type))
	case Relation:
		b.WriteString("rel ")
		b.WriteString(string(a.Type))
		for _, rp := range a.Roles {
			b.WriteByte(' ')
			b.WriteString(string(rp.Role))
		}
	case Attribute:
		b.WriteString("has ")
		b.WriteString(string(a.Type))
		b.WriteByte(' ')
		a.Predicate.Key(&b)
	case IDPredicate:
		b.WriteString("id")
		if typ != Structural {
			b.WriteByte(' ')
			b.WriteString(string(a.ID))
		}
	case ValuePredicate:
		b.WriteString("val ")
		a.Condition.Key(&b)
	case NeqPredicate:
		b.WriteString("neq")
	}
	return b.String()
}

// Equivalent returns true if 'a' and 'b' are the same query up to variable
// renaming (Exact) or up to variable renaming and concrete IDs (Structural).
func Equivalent(a, b *Query, typ UnifierType) bool {
	if len(a.atoms) != len(b.atoms) || len(a.vars) != len(b.vars) {
		return false
	}
	if Hash(a, typ) != Hash(b, typ) {
		return false
	}
	return !MultiUnifier(a, b, typ, nil).IsEmpty()
}

// An EquivalenceMap maps equivalence classes of queries to values. Each class
// is represented by the first query put in it. The zero value is not usable;
// call NewEquivalenceMap.
type EquivalenceMap[V any] struct {
	typ     UnifierType
	buckets map[uint64][]equivalenceEntry[V]
	len     int
}

type equivalenceEntry[V any] struct {
	rep   *Query
	value V
}

// NewEquivalenceMap returns an empty map for the given equivalence, which
// must be Exact or Structural.
func NewEquivalenceMap[V any](typ UnifierType) *EquivalenceMap[V] {
	if typ == RuleUnification {
		panic("NewEquivalenceMap: Rule unification isn't an equivalence")
	}
	return &EquivalenceMap[V]{
		typ:     typ,
		buckets: make(map[uint64][]equivalenceEntry[V]),
	}
}

// Get looks up the class of 'q'. It returns the class representative, its
// value, and the unifiers mapping the representative's variables onto those
// of 'q'.
func (m *EquivalenceMap[V]) Get(q *Query) (rep *Query, value V, mu unifier.MultiUnifier, ok bool) {
	for _, e := range m.buckets[Hash(q, m.typ)] {
		mu = MultiUnifier(e.rep, q, m.typ, nil)
		if !mu.IsEmpty() {
			return e.rep, e.value, mu, true
		}
	}
	return nil, value, unifier.MultiUnifier{}, false
}

// Put sets the value of the class of 'q', making 'q' its representative if
// the class is new.
func (m *EquivalenceMap[V]) Put(q *Query, value V) {
	h := Hash(q, m.typ)
	bucket := m.buckets[h]
	for i, e := range bucket {
		if !MultiUnifier(e.rep, q, m.typ, nil).IsEmpty() {
			bucket[i].value = value
			return
		}
	}
	m.buckets[h] = append(bucket, equivalenceEntry[V]{rep: q, value: value})
	m.len++
}

// Len returns the number of classes in the map.
func (m *EquivalenceMap[V]) Len() int {
	return m.len
}

// Range calls fn for each class until fn returns false. The order is
// unspecified.
func (m *EquivalenceMap[V]) Range(fn func(rep *Query, value V) bool) {
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			if !fn(e.rep, e.value) {
				return
			}
		}
	}
}

