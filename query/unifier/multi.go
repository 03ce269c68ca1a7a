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

package unifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
)

// A MultiUnifier is an immutable set of distinct Unifiers: all the ways two
// queries can be aligned. The zero value is the empty set, meaning the
// queries can't be aligned at all. Trivial() is the set containing only the
// empty unifier, meaning they align without any renaming.
type MultiUnifier struct {
	// sorted by key, no duplicates.
	unifiers []Unifier
	keys     []string
}

// NewMulti returns the set of the given unifiers, removing duplicates.
func NewMulti(unifiers ...Unifier) MultiUnifier {
	if len(unifiers) == 0 {
		return MultiUnifier{}
	}
	type keyed struct {
		key string
		u   Unifier
	}
	all := make([]keyed, len(unifiers))
	for i, u := range unifiers {
		all[i] = keyed{cmp.GetKey(u), u}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].key < all[j].key
	})
	res := MultiUnifier{}
	for i, k := range all {
		if i > 0 && k.key == all[i-1].key {
			continue
		}
		res.unifiers = append(res.unifiers, k.u)
		res.keys = append(res.keys, k.key)
	}
	return res
}

// Trivial returns the MultiUnifier containing only the empty unifier.
func Trivial() MultiUnifier {
	return NewMulti(Unifier{})
}

// Unifiers returns the members of the set, ordered by key. The caller must
// not modify the returned slice.
func (mu MultiUnifier) Unifiers() []Unifier {
	return mu.unifiers
}

// Size returns the number of unifiers in the set.
func (mu MultiUnifier) Size() int {
	return len(mu.unifiers)
}

// IsEmpty returns true if the set has no unifiers.
func (mu MultiUnifier) IsEmpty() bool {
	return len(mu.unifiers) == 0
}

// Any returns some member of the set. It returns ErrNonExistentUnifier if the
// set is empty.
func (mu MultiUnifier) Any() (Unifier, error) {
	if mu.IsEmpty() {
		return Unifier{}, ErrNonExistentUnifier
	}
	return mu.unifiers[0], nil
}

// Unifier returns the only member of the set. It returns an error wrapping
// ErrNonExistentUnifier if the set doesn't have exactly one member.
func (mu MultiUnifier) Unifier() (Unifier, error) {
	if len(mu.unifiers) != 1 {
		return Unifier{}, fmt.Errorf("%w: expected exactly one unifier, have %d",
			ErrNonExistentUnifier, len(mu.unifiers))
	}
	return mu.unifiers[0], nil
}

// Merge merges 'u' into every member of the set. Members that conflict with
// 'u' are dropped.
func (mu MultiUnifier) Merge(u Unifier) MultiUnifier {
	merged := make([]Unifier, 0, len(mu.unifiers))
	for _, member := range mu.unifiers {
		m, err := member.Merge(u)
		if err == nil {
			merged = append(merged, m)
		}
	}
	return NewMulti(merged...)
}

// Combine composes every member of the set with 'u' (see Unifier.Combine).
func (mu MultiUnifier) Combine(u Unifier) MultiUnifier {
	res := make([]Unifier, len(mu.unifiers))
	for i, member := range mu.unifiers {
		res[i] = member.Combine(u)
	}
	return NewMulti(res...)
}

// Inverse returns the set of inverses of the members.
func (mu MultiUnifier) Inverse() MultiUnifier {
	res := make([]Unifier, len(mu.unifiers))
	for i, u := range mu.unifiers {
		res[i] = u.Inverse()
	}
	return NewMulti(res...)
}

// Contains returns true if some member of the set contains every mapping of
// 'u'.
func (mu MultiUnifier) Contains(u Unifier) bool {
	for _, member := range mu.unifiers {
		if member.ContainsAll(u) {
			return true
		}
	}
	return false
}

// ContainsAll returns true if every member of 'other' is contained in some
// member of this set.
func (mu MultiUnifier) ContainsAll(other MultiUnifier) bool {
	for _, u := range other.unifiers {
		if !mu.Contains(u) {
			return false
		}
	}
	return true
}

// Equal returns true if both sets have the same members.
func (mu MultiUnifier) Equal(other MultiUnifier) bool {
	if len(mu.keys) != len(other.keys) {
		return false
	}
	for i := range mu.keys {
		if mu.keys[i] != other.keys[i] {
			return false
		}
	}
	return true
}

// String returns a string like "[{$x->$a} {$x->$b}]".
func (mu MultiUnifier) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, u := range mu.unifiers {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(u.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Key implements cmp.Key.
func (mu MultiUnifier) Key(b *strings.Builder) {
	for i, k := range mu.keys {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(k)
	}
}
