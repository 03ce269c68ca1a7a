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
	"strings"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
)

// A Rule derives its Head whenever its Body holds. Rules are immutable.
type Rule struct {
	// ID identifies the rule in explanations.
	ID string
	// Body is the condition of the rule.
	Body *Query
	// Head is a Relation or Attribute atom.
	Head Atom
}

// NewRule returns a rule after checking that it's well formed: the head must
// be a Relation or Attribute, and its variables must be bound by the body.
// Two head variables may be unbound: the variable of a relation, which names
// the derived relation; and the variable of an attribute with an equality
// predicate, which names the derived attribute. Errors wrap ErrInvalidQuery.
func NewRule(id string, body *Query, head Atom) (*Rule, error) {
	free := head.Vars().Sub(body.Vars())
	switch h := head.(type) {
	case Relation:
		if len(h.Roles) == 0 {
			return nil, fmt.Errorf("%w: rule %v: relation head has no role players", ErrInvalidQuery, id)
		}
		free = free.Sub(term.VarSet{h.Var})
	case Attribute:
		if h.Predicate.Op == OpEq {
			free = free.Sub(term.VarSet{h.Var})
		}
	default:
		return nil, fmt.Errorf("%w: rule %v: head %v must be a relation or an attribute",
			ErrInvalidQuery, id, head)
	}
	if len(free) > 0 {
		return nil, fmt.Errorf("%w: rule %v: head variables %v not bound by the body",
			ErrInvalidQuery, id, free)
	}
	return &Rule{ID: id, Body: body, Head: head}, nil
}

// HeadQuery returns the head atom as an atomic query.
func (r *Rule) HeadQuery() *AtomicQuery {
	return &AtomicQuery{Query: build([]Atom{r.Head}), atom: r.Head}
}

// Unifiers returns the unifiers mapping the variables of the rule's head onto
// the variables of 'parent'. Several head variables may map onto the same
// parent variable. Unifiers under which the head contradicts a value
// predicate of 'parent' are excluded.
func (r *Rule) Unifiers(parent *AtomicQuery, schema *graph.Schema) unifier.MultiUnifier {
	mu := AtomUnifiers(r.Head, parent.Atom(), RuleUnification, schema)
	if mu.IsEmpty() {
		return mu
	}
	head, ok := r.Head.(Attribute)
	if !ok || !head.Predicate.IsSet() {
		return mu
	}
	var res []unifier.Unifier
	for _, u := range mu.Unifiers() {
		target, _ := u.Apply(head.Var).(term.Var)
		if compatibleValue(parent.Query, target, head.Predicate) {
			res = append(res, u)
		}
	}
	return unifier.NewMulti(res...)
}

// compatibleValue returns false if a value predicate of 'q' on 'v' conflicts
// with 'c'.
func compatibleValue(q *Query, v term.Var, c Condition) bool {
	for _, a := range q.atoms {
		if p, ok := a.(ValuePredicate); ok && p.Var == v && !c.CompatibleWith(p.Condition) {
			return false
		}
	}
	return true
}

// Applicable returns true if the rule can derive answers to 'parent'.
func (r *Rule) Applicable(parent *AtomicQuery, schema *graph.Schema) bool {
	return !r.Unifiers(parent, schema).IsEmpty()
}

// String returns a string like "transitivity: $x isa city; => $x has name
// $n".
func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString(r.ID)
	b.WriteString(": ")
	r.Body.Key(&b)
	b.WriteString(" => ")
	r.Head.Key(&b)
	return b.String()
}

// A RuleUnifier pairs a rule with one way of unifying its head with a query.
type RuleUnifier struct {
	Rule *Rule
	// Unifier maps the head's variables onto the query's variables.
	Unifier unifier.Unifier
}

// ApplicableRules returns a RuleUnifier for every rule and every way its head
// unifies with 'parent', in rule order.
func ApplicableRules(rules []*Rule, parent *AtomicQuery, schema *graph.Schema) []RuleUnifier {
	var res []RuleUnifier
	for _, r := range rules {
		for _, u := range r.Unifiers(parent, schema).Unifiers() {
			res = append(res, RuleUnifier{Rule: r, Unifier: u})
		}
	}
	return res
}

// IsRuleResolvable returns true if any rule can derive answers to a
// selectable atom of 'q'.
func IsRuleResolvable(q *Query, rules []*Rule, schema *graph.Schema) bool {
	for _, a := range q.selectable {
		aq := q.AtomicQuery(a)
		for _, r := range rules {
			if r.Applicable(aq, schema) {
				return true
			}
		}
	}
	return false
}

// RequiresReiteration returns true if the rules that can contribute answers to
// 'q' depend on each other in a loop. Resolving such a query needs more than
// one pass to reach a fixpoint.
func RequiresReiteration(q *Query, rules []*Rule, schema *graph.Schema) bool {
	applicable := func(body *Query) []int {
		var res []int
		for _, a := range body.selectable {
			aq := body.AtomicQuery(a)
			for i, r := range rules {
				if r.Applicable(aq, schema) {
					res = append(res, i)
				}
			}
		}
		return res
	}
	deps := make([][]int, len(rules))
	for i, r := range rules {
		deps[i] = applicable(r.Body)
	}
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, len(rules))
	var loops func(i int) bool
	loops = func(i int) bool {
		switch state[i] {
		case active:
			return true
		case done:
			return false
		}
		state[i] = active
		for _, j := range deps[i] {
			if loops(j) {
				return true
			}
		}
		state[i] = done
		return false
	}
	for _, i := range applicable(q) {
		if loops(i) {
			return true
		}
	}
	return false
}
