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

package term

import (
	"sort"
	"strings"
)

// A VarSet is a set of variables. It's represented as an ordered slice of
// unique variables.
type VarSet []Var

// NewVarSet creates a new VarSet from the given variables, which may contain
// duplicates.
func NewVarSet(in ...Var) VarSet {
	if len(in) == 0 {
		return nil
	}
	set := append(VarSet(nil), in...)
	sort.Slice(set, func(i, j int) bool {
		return set[i] < set[j]
	})
	out := set[:1]
	for _, v := range set[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// Contains returns true if v is in the set, false otherwise.
func (set VarSet) Contains(v Var) bool {
	i := sort.Search(len(set),
		func(i int) bool {
			return set[i] >= v
		})
	return i < len(set) && set[i] == v
}

// ContainsSet return true if all variables in 'other' are in 'set', false
// otherwise.
func (set VarSet) ContainsSet(other VarSet) bool {
	for _, v := range other {
		if !set.Contains(v) {
			return false
		}
	}
	return true
}

// Intersect returns a new set with the variables present in both 'set' and
// 'other'.
func (set VarSet) Intersect(other VarSet) VarSet {
	var both VarSet
	left, right := set, other
	for len(left) > 0 && len(right) > 0 {
		switch {
		case left[0] == right[0]:
			both = append(both, left[0])
			left = left[1:]
			right = right[1:]
		case left[0] < right[0]:
			left = left[1:]
		default:
			right = right[1:]
		}
	}
	return both
}

// Union returns a new set with the variables present in either 'set' or 'other'.
func (set VarSet) Union(other VarSet) VarSet {
	var either VarSet
	left, right := set, other
	for len(left) > 0 && len(right) > 0 {
		switch {
		case left[0] == right[0]:
			either = append(either, left[0])
			left = left[1:]
			right = right[1:]
		case left[0] < right[0]:
			either = append(either, left[0])
			left = left[1:]
		default:
			either = append(either, right[0])
			right = right[1:]
		}
	}
	either = append(either, left...)
	return append(either, right...)
}

// Sub returns a new set with the variables present in 'set' but not 'other'.
func (set VarSet) Sub(other VarSet) VarSet {
	var diff VarSet
	for _, v := range set {
		if !other.Contains(v) {
			diff = append(diff, v)
		}
	}
	return diff
}

// UserNamed returns the subset of variables that were named by the user.
func (set VarSet) UserNamed() VarSet {
	var named VarSet
	for _, v := range set {
		if v.IsUserNamed() {
			named = append(named, v)
		}
	}
	return named
}

// Equal returns true if the two sets contain the same variables, false
// otherwise.
func (set VarSet) Equal(other VarSet) bool {
	if len(set) != len(other) {
		return false
	}
	for i := range set {
		if set[i] != other[i] {
			return false
		}
	}
	return true
}

// String returns a space-delimited ordered list of variables.
func (set VarSet) String() string {
	res := strings.Builder{}
	set.Key(&res)
	return res.String()
}

// Key implements cmp.Key.
func (set VarSet) Key(b *strings.Builder) {
	for i, v := range set {
		if i > 0 {
			b.WriteByte(' ')
		}
		v.Key(b)
	}
}
