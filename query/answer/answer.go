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

// Package answer defines the answers produced by query resolution and the
// explanations recording how each answer was derived.
package answer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
)

// ErrConflictingAnswers is returned when merging two answers that bind the
// same variable to different concepts.
var ErrConflictingAnswers = errors.New("conflicting answers")

// An Answer binds query variables to concepts. It carries the explanation of
// how it was derived. Answers are immutable; the methods that change an
// Answer return a new one.
type Answer struct {
	m           map[term.Var]graph.Concept
	explanation Explanation
}

// New returns an answer with the given bindings and explanation. The map is
// copied.
func New(bindings map[term.Var]graph.Concept, e Explanation) Answer {
	m := make(map[term.Var]graph.Concept, len(bindings))
	for k, v := range bindings {
		m[k] = v
	}
	return Answer{m: m, explanation: e}
}

// Get returns the concept bound to 'v'.
func (a Answer) Get(v term.Var) (graph.Concept, bool) {
	c, ok := a.m[v]
	return c, ok
}

// Vars returns the bound variables.
func (a Answer) Vars() term.VarSet {
	vars := make([]term.Var, 0, len(a.m))
	for v := range a.m {
		vars = append(vars, v)
	}
	return term.NewVarSet(vars...)
}

// Size returns the number of bound variables.
func (a Answer) Size() int {
	return len(a.m)
}

// IsEmpty returns true if the answer binds no variables.
func (a Answer) IsEmpty() bool {
	return len(a.m) == 0
}

// Map returns a copy of the bindings.
func (a Answer) Map() map[term.Var]graph.Concept {
	m := make(map[term.Var]graph.Concept, len(a.m))
	for k, v := range a.m {
		m[k] = v
	}
	return m
}

// Substitution returns the ID bound to each variable.
func (a Answer) Substitution() map[term.Var]graph.ConceptID {
	sub := make(map[term.Var]graph.ConceptID, len(a.m))
	for k, v := range a.m {
		sub[k] = v.ID
	}
	return sub
}

// Explanation returns how the answer was derived. It may be nil.
func (a Answer) Explanation() Explanation {
	return a.explanation
}

// Explain returns a copy of the answer with the given explanation.
func (a Answer) Explain(e Explanation) Answer {
	return Answer{m: a.m, explanation: e}
}

// Merge returns the union of the bindings of 'a' and 'other', with no
// explanation. It returns an error wrapping ErrConflictingAnswers if they
// bind a shared variable to different concepts.
func (a Answer) Merge(other Answer) (Answer, error) {
	m := make(map[term.Var]graph.Concept, len(a.m)+len(other.m))
	for k, v := range a.m {
		m[k] = v
	}
	for k, v := range other.m {
		if existing, ok := m[k]; ok && existing.ID != v.ID {
			return Answer{}, fmt.Errorf("%w: %v bound to both %v and %v",
				ErrConflictingAnswers, k, existing.ID, v.ID)
		}
		m[k] = v
	}
	return Answer{m: m}, nil
}

// Project returns the answer restricted to the given variables. The
// explanation is kept.
func (a Answer) Project(vars term.VarSet) Answer {
	m := make(map[term.Var]graph.Concept, len(vars))
	for _, v := range vars {
		if c, ok := a.m[v]; ok {
			m[v] = c
		}
	}
	return Answer{m: m, explanation: a.explanation}
}

// Unify renames the answer's variables with 'u', moving it into the frame of
// the query that 'u' maps onto. Variables that 'u' doesn't map are dropped.
// It returns false if the renamed answer is inconsistent: two variables
// mapped onto one bound to different concepts, or a variable mapped onto an
// ID bound to another concept. The explanation is kept.
func (a Answer) Unify(u unifier.Unifier) (Answer, bool) {
	m := make(map[term.Var]graph.Concept, len(a.m))
	for _, e := range u.Entries() {
		c, ok := a.m[e.From]
		if !ok {
			continue
		}
		switch to := e.To.(type) {
		case term.Var:
			if existing, ok := m[to]; ok && existing.ID != c.ID {
				return Answer{}, false
			}
			m[to] = c
		case term.ID:
			if to.ConceptID() != c.ID {
				return Answer{}, false
			}
		}
	}
	return Answer{m: m, explanation: a.explanation}, true
}

// Equal returns true if both answers have the same bindings. Explanations
// are ignored.
func (a Answer) Equal(other Answer) bool {
	if len(a.m) != len(other.m) {
		return false
	}
	for k, v := range a.m {
		if o, ok := other.m[k]; !ok || o.ID != v.ID {
			return false
		}
	}
	return true
}

// String returns a string like "{$x=V1:city $y=V3:country}".
func (a Answer) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range a.Vars() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.String())
		b.WriteByte('=')
		b.WriteString(a.m[v].String())
	}
	b.WriteByte('}')
	return b.String()
}

// Key implements cmp.Key. It identifies the bindings only.
func (a Answer) Key(b *strings.Builder) {
	vars := make([]term.Var, 0, len(a.m))
	for v := range a.m {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool {
		return vars[i] < vars[j]
	})
	for i, v := range vars {
		if i > 0 {
			b.WriteByte(' ')
		}
		v.Key(b)
		b.WriteByte('=')
		b.WriteString(string(a.m[v].ID))
	}
}

// An Iterator produces answers one at a time.
type Iterator interface {
	// Next returns the next answer, or false once there are no more.
	Next() (Answer, bool)
}

// Slice is an Iterator over a fixed list of answers.
type Slice struct {
	answers []Answer
}

// NewSlice returns an Iterator over 'answers'.
func NewSlice(answers ...Answer) *Slice {
	return &Slice{answers: answers}
}

// Next implements Iterator.
func (s *Slice) Next() (Answer, bool) {
	if len(s.answers) == 0 {
		return Answer{}, false
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, true
}

// Drain reads all the remaining answers from an Iterator.
func Drain(it Iterator) []Answer {
	var res []Answer
	for {
		a, ok := it.Next()
		if !ok {
			return res
		}
		res = append(res, a)
	}
}
