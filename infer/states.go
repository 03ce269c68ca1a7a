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

package infer

import (
	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/answer"
	"github.com/pluraliseseverythings/grakn-sub001/query/cache"
	"github.com/pluraliseseverythings/grakn-sub001/query/exec"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/query/unifier"
	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
	log "github.com/sirupsen/logrus"
)

// stateID addresses a state in the resolver's arena.
type stateID int32

// noState is the parent of the root state. Answers sent to it are returned
// to the caller.
const noState stateID = -1

// A state is a node of the resolution tree. Each state knows the state that
// receives its answers. The set of state types is closed; see
// implementState.
type state interface {
	parentID() stateID
	aState()
}

// implementState is a list of types that implement state. This serves as
// documentation and as a compile-time check.
var implementState = []state{
	new(atomicState),
	new(ruleState),
	new(conjunctiveState),
	new(cumulativeState),
	new(answerState),
}

// An answerState carries one answer up to its parent.
type answerState struct {
	parent stateID
	answer answer.Answer
	// children are the atomic answers a conjunction was built from. It's only
	// set on answers sent to a conjunctiveState.
	children []answer.Answer
}

func (s *answerState) parentID() stateID { return s.parent }
func (*answerState) aState()             {}

// An atomicState resolves one atomic query: first from the answer cache,
// which is seeded with the graph's answers, then by applying rules.
type atomicState struct {
	parent stateID
	query  *logic.AtomicQuery
	view   *cache.View
	// next is the index of the next cached answer to send.
	next int
	// sent holds the keys of the answers sent to the parent.
	sent    map[string]struct{}
	started bool
	// explored is set once rule application began. If it finishes without
	// reading any incomplete answers, the cache entry is complete.
	explored     bool
	rules        []logic.RuleUnifier
	nextRule     int
	incompleteAt int
}

func (s *atomicState) parentID() stateID { return s.parent }
func (*atomicState) aState()             {}

func newAtomicState(r *resolver, parent stateID, q *logic.AtomicQuery) (*atomicState, error) {
	view, hit := r.answers.View(q)
	if hit {
		metrics.answerCacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.answerCacheLookups.WithLabelValues("miss").Inc()
		it, err := r.lookup(q.Query)
		if err != nil {
			return nil, err
		}
		for a, ok := it.Next(); ok; a, ok = it.Next() {
			view.Record(a)
		}
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}
	}
	return &atomicState{
		parent:       parent,
		query:        q,
		view:         view,
		sent:         make(map[string]struct{}),
		incompleteAt: r.incompleteReads,
	}, nil
}

// send returns the answer as a state for the parent, or nil if it was
// already sent.
func (s *atomicState) send(a answer.Answer) state {
	key := cmp.GetKey(a)
	if _, sent := s.sent[key]; sent {
		return nil
	}
	s.sent[key] = struct{}{}
	return &answerState{parent: s.parent, answer: a}
}

func (s *atomicState) generate(r *resolver, self stateID) (state, error) {
	for s.next < s.view.Len() {
		a := s.view.Answer(s.next)
		s.next++
		if next := s.send(a); next != nil {
			return next, nil
		}
	}
	if !s.started {
		s.started = true
		s.start(r)
	}
	if s.nextRule < len(s.rules) {
		ru := s.rules[s.nextRule]
		s.nextRule++
		r.stats.RuleApplications++
		rs, err := newRuleState(r, self, s.query, ru)
		if err != nil {
			return nil, err
		}
		return rs, nil
	}
	if s.explored && r.incompleteReads == s.incompleteAt && !s.view.Complete() {
		s.view.MarkComplete()
	}
	return nil, nil
}

// start decides whether rules should be applied to the query.
func (s *atomicState) start(r *resolver) {
	switch {
	case s.view.Complete():
	case r.isVisited(s.query.Query):
		// The query is being resolved further down the stack. Its answers
		// so far are all there is to read in this pass.
		r.incompleteReads++
	case s.query.IsGround() && s.view.Len() > 0:
	default:
		r.visited.Put(s.query.Query, struct{}{})
		s.rules = logic.ApplicableRules(r.rules, s.query, r.schema)
		s.explored = true
	}
}

// propagate receives an answer derived by a rule.
func (s *atomicState) propagate(r *resolver, a *answerState) (state, error) {
	s.view.Record(a.answer)
	return s.send(a.answer), nil
}

// A ruleState applies one rule to its parent's atomic query: it resolves the
// rule's body, instantiated with the query's constraints, and unifies each
// body answer back into the query.
type ruleState struct {
	parent  stateID
	rule    *logic.Rule
	unifier unifier.Unifier
	query   *logic.AtomicQuery
	body    *logic.Query
	// merged maps body variables renamed away by instantiateBody onto the
	// variable that replaced them.
	merged  unifier.Unifier
	started bool
	pruned  bool
}

func (s *ruleState) parentID() stateID { return s.parent }
func (*ruleState) aState()             {}

func newRuleState(r *resolver, parent stateID, q *logic.AtomicQuery, ru logic.RuleUnifier) (*ruleState, error) {
	body, merged, err := instantiateBody(ru.Rule, ru.Unifier, q)
	if err != nil {
		return nil, err
	}
	s := &ruleState{
		parent:  parent,
		rule:    ru.Rule,
		unifier: ru.Unifier,
		query:   q,
		body:    body,
		merged:  merged,
	}
	for id := parent; id != noState; id = r.arena[id].parentID() {
		if anc, ok := r.arena[id].(*ruleState); ok && anc.rule == s.rule &&
			logic.Equivalent(anc.body, body, logic.Exact) {
			s.pruned = true
			r.incompleteReads++
			r.stats.SubGoalsPruned++
			metrics.subGoalsPrunedTotal.Inc()
			break
		}
	}
	return s, nil
}

// instantiateBody returns the body of the rule constrained by the query's
// substitution and by the predicates and types on the query's variables.
// Body variables that the unifier maps onto the same query variable must be
// equal, so they're renamed to one of them; the returned unifier records that
// renaming.
func instantiateBody(rule *logic.Rule, u unifier.Unifier, q *logic.AtomicQuery) (*logic.Query, unifier.Unifier, error) {
	bodyVars := rule.Body.Vars()
	// heads maps each query variable onto the body variable that stands for
	// it. Entries are ordered, so the first body variable seen wins.
	heads := make(map[term.Var]term.Var)
	merges := make(map[term.Var]term.Term)
	for _, e := range u.Entries() {
		to, ok := e.To.(term.Var)
		if !ok || !bodyVars.Contains(e.From) {
			continue
		}
		if h, seen := heads[to]; seen {
			merges[e.From] = h
			continue
		}
		heads[to] = e.From
	}
	merged := unifier.New(merges)
	var extra []logic.Atom
	for _, a := range q.Constraints(q.Atom()) {
		switch a := a.(type) {
		case logic.IDPredicate:
			if h, ok := heads[a.Var]; ok {
				extra = append(extra, logic.IDPredicate{Var: h, ID: a.ID})
			}
		case logic.Isa:
			if h, ok := heads[a.Var]; ok {
				extra = append(extra, logic.Isa{Var: h, Type: a.Type})
			}
		case logic.ValuePredicate:
			if h, ok := heads[a.Var]; ok {
				extra = append(extra, logic.ValuePredicate{Var: h, Condition: a.Condition})
			}
		case logic.NeqPredicate:
			h, ok := heads[a.Var]
			o, ok2 := heads[a.Other]
			if ok && ok2 {
				extra = append(extra, logic.NeqPredicate{Var: h, Other: o})
			}
		case logic.Relation, logic.Attribute:
		default:
			log.Panicf("Unexpected atom type %T", a)
		}
	}
	if len(extra) == 0 && merged.IsEmpty() {
		return rule.Body, merged, nil
	}
	body := rule.Body.Apply(merged)
	if len(extra) == 0 {
		return body, merged, nil
	}
	res, err := logic.NewQuery(append(append([]logic.Atom(nil), body.Atoms()...), extra...)...)
	return res, merged, err
}

// unmerge binds the body variables that instantiateBody renamed away to the
// concept bound to their replacement.
func (s *ruleState) unmerge(body answer.Answer) (answer.Answer, error) {
	if s.merged.IsEmpty() {
		return body, nil
	}
	extra := make(map[term.Var]graph.Concept)
	for _, e := range s.merged.Entries() {
		if c, ok := body.Get(e.To.(term.Var)); ok {
			extra[e.From] = c
		}
	}
	res, err := body.Merge(answer.New(extra, nil))
	if err != nil {
		return body, err
	}
	return res.Explain(body.Explanation()), nil
}

func (s *ruleState) generate(r *resolver, self stateID) (state, error) {
	if s.pruned || s.started {
		return nil, nil
	}
	s.started = true
	k, err := newConjunctiveState(r, self, s.body)
	if err != nil {
		return nil, err
	}
	return k, nil
}

// propagate receives an answer to the rule's body and derives an answer to
// the query from it.
func (s *ruleState) propagate(r *resolver, a *answerState) (state, error) {
	body, err := s.unmerge(a.answer)
	if err != nil {
		return nil, err
	}
	derived, ok := body.Unify(s.unifier)
	if !ok {
		return nil, nil
	}
	atoms := s.query.Atoms()
	if !exec.Satisfies(r.schema, derived, atoms) {
		return nil, nil
	}
	derived, err = r.completeDerived(s.rule, s.unifier, body, derived)
	if err != nil {
		return nil, err
	}
	if !exec.Satisfies(r.schema, derived, atoms) {
		return nil, nil
	}
	derived = derived.Explain(answer.NewRule(s.query.Query, s.rule, body))
	return &answerState{parent: s.parent, answer: derived}, nil
}

// completeDerived binds the query variables of a derived answer that the
// rule's body doesn't bind, writing the derived fact to the graph when it's
// needed to name them or when materialising.
func (r *resolver) completeDerived(rule *logic.Rule, u unifier.Unifier, body, derived answer.Answer) (answer.Answer, error) {
	target := func(v term.Var) (term.Var, bool) {
		t, ok := u.Get(v)
		if !ok {
			return "", false
		}
		tv, ok := t.(term.Var)
		return tv, ok
	}
	bind := func(v term.Var, c graph.Concept) (answer.Answer, error) {
		if _, bound := derived.Get(v); bound {
			return derived, nil
		}
		return derived.Merge(answer.New(map[term.Var]graph.Concept{v: c}, nil))
	}
	switch head := rule.Head.(type) {
	case logic.Relation:
		qv, mapped := target(head.Var)
		_, bound := body.Get(head.Var)
		needed := mapped && !bound && qv.IsUserNamed()
		if !r.opts.Materialise && !needed {
			return derived, nil
		}
		if r.writer == nil {
			return derived, nil
		}
		players := make([]graph.RolePlayer, 0, len(head.Roles))
		for _, rp := range head.Roles {
			c, ok := body.Get(rp.Player)
			if !ok {
				log.Panicf("Rule %v: body answer %v doesn't bind head player %v", rule.ID, body, rp.Player)
			}
			players = append(players, graph.RolePlayer{Role: rp.Role, Player: c.ID})
		}
		rel, inserted, err := r.writer.PutRelation(head.Type, players)
		if err != nil {
			return derived, err
		}
		r.materialised(inserted)
		if mapped && !bound {
			return bind(qv, rel)
		}
		return derived, nil

	case logic.Attribute:
		owner, ok := body.Get(head.Owner)
		if !ok {
			log.Panicf("Rule %v: body answer %v doesn't bind head owner %v", rule.ID, body, head.Owner)
		}
		value := head.Predicate.Value
		attr, bound := body.Get(head.Var)
		if bound {
			value = attr.Value
		}
		qv, mapped := target(head.Var)
		if bound && !r.opts.Materialise {
			return derived, nil
		}
		if r.writer == nil {
			if c, exists := r.graph.AttributeByValue(head.Type, value); exists && mapped {
				return bind(qv, c)
			}
			return derived, nil
		}
		c, inserted, err := r.writer.PutAttribute(owner.ID, head.Type, value)
		if err != nil {
			return derived, err
		}
		r.materialised(inserted)
		if mapped {
			return bind(qv, c)
		}
		return derived, nil

	default:
		log.Panicf("Rule %v has unexpected head type %T", rule.ID, head)
		return derived, nil
	}
}

// A conjunctiveState resolves a conjunction of atoms. Without applicable
// rules the graph answers it in one lookup. Otherwise its atomic queries are
// resolved in turn by a chain of cumulativeStates.
type conjunctiveState struct {
	parent  stateID
	query   *logic.Query
	direct  answer.Iterator
	started bool
	sent    map[string]struct{}
}

func (s *conjunctiveState) parentID() stateID { return s.parent }
func (*conjunctiveState) aState()             {}

func newConjunctiveState(r *resolver, parent stateID, q *logic.Query) (*conjunctiveState, error) {
	s := &conjunctiveState{
		parent: parent,
		query:  q,
		sent:   make(map[string]struct{}),
	}
	if !r.opts.Infer || !logic.IsRuleResolvable(q, r.rules, r.schema) {
		it, err := r.lookup(q)
		if err != nil {
			return nil, err
		}
		s.direct = it
	}
	return s, nil
}

func (s *conjunctiveState) generate(r *resolver, self stateID) (state, error) {
	if s.direct != nil {
		for a, ok := s.direct.Next(); ok; a, ok = s.direct.Next() {
			var children []answer.Answer
			for _, aq := range s.query.AtomicQueries() {
				children = append(children, a.Project(aq.Vars()).Explain(answer.NewLookup(aq.Query)))
			}
			if next := s.send(a, children); next != nil {
				return next, nil
			}
		}
		return nil, r.ctx.Err()
	}
	if s.started {
		return nil, nil
	}
	s.started = true
	resolvable := func(aq *logic.AtomicQuery) bool {
		return logic.IsRuleResolvable(aq.Query, r.rules, r.schema)
	}
	queue := logic.OrderAtomics(s.query, nil, r.graph, resolvable)
	return newCumulativeState(self, queue, answer.New(nil, nil), nil), nil
}

// propagate receives a complete answer to the conjunction from a
// cumulativeState.
func (s *conjunctiveState) propagate(r *resolver, a *answerState) (state, error) {
	if !exec.Satisfies(r.schema, a.answer, s.query.Atoms()) {
		return nil, nil
	}
	return s.send(a.answer, a.children), nil
}

func (s *conjunctiveState) send(a answer.Answer, children []answer.Answer) state {
	a = a.Project(s.query.Vars())
	key := cmp.GetKey(a)
	if _, sent := s.sent[key]; sent {
		return nil
	}
	s.sent[key] = struct{}{}
	return &answerState{
		parent: s.parent,
		answer: a.Explain(answer.NewJoin(s.query, children...)),
	}
}

// A cumulativeState resolves the first of a queue of atomic queries, given
// the bindings of those resolved before it. Each answer either completes the
// conjunction or starts a new cumulativeState for the rest of the queue.
type cumulativeState struct {
	parent   stateID
	queue    []*logic.AtomicQuery
	partial  answer.Answer
	children []answer.Answer
	started  bool
}

func (s *cumulativeState) parentID() stateID { return s.parent }
func (*cumulativeState) aState()             {}

func newCumulativeState(parent stateID, queue []*logic.AtomicQuery,
	partial answer.Answer, children []answer.Answer) *cumulativeState {
	if len(queue) == 0 {
		log.Panicf("Cumulative state with an empty queue")
	}
	return &cumulativeState{
		parent:   parent,
		queue:    queue,
		partial:  partial,
		children: children,
	}
}

func (s *cumulativeState) generate(r *resolver, self stateID) (state, error) {
	if s.started {
		return nil, nil
	}
	s.started = true
	q := s.queue[0].WithSubstitution(s.partial.Substitution())
	a, err := newAtomicState(r, self, q)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// propagate receives an answer to the first atomic query of the queue.
func (s *cumulativeState) propagate(r *resolver, a *answerState) (state, error) {
	merged, err := s.partial.Merge(a.answer)
	if err != nil {
		return nil, nil
	}
	children := make([]answer.Answer, len(s.children), len(s.children)+1)
	copy(children, s.children)
	children = append(children, a.answer)
	if len(s.queue) == 1 {
		return &answerState{parent: s.parent, answer: merged, children: children}, nil
	}
	return newCumulativeState(s.parent, s.queue[1:], merged, children), nil
}
