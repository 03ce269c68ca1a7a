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

package answer

import (
	"fmt"
	"io"
	"strings"

	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	log "github.com/sirupsen/logrus"
)

// An Explanation records how an answer was derived. It's one of *Lookup,
// *Join and *Rule. Explanations are immutable and may be shared between
// answers.
type Explanation interface {
	// Query returns the query the answer answers.
	Query() *logic.Query
	// Answers returns the answers the explained answer was derived from.
	Answers() []Answer
	// WithAnswers returns a copy of the explanation with different children.
	WithAnswers(answers ...Answer) Explanation
	// SetQuery returns a copy of the explanation for a different query.
	SetQuery(q *logic.Query) Explanation
	anExplanation()
}

// ImplementExplanation is a list of types that implement Explanation. This
// serves as documentation and as a compile-time check.
var ImplementExplanation = []Explanation{
	new(Lookup),
	new(Join),
	new(Rule),
}

// Explain returns the explanation of an answer.
func Explain(a Answer) Explanation {
	return a.explanation
}

// Lookup explains an answer found directly in the graph.
type Lookup struct {
	query *logic.Query
}

// NewLookup returns a Lookup explanation for an answer to 'q'.
func NewLookup(q *logic.Query) *Lookup {
	return &Lookup{query: q}
}

func (*Lookup) anExplanation() {}

// Query implements Explanation.
func (e *Lookup) Query() *logic.Query {
	return e.query
}

// Answers implements Explanation. A lookup has no children.
func (e *Lookup) Answers() []Answer {
	return nil
}

// WithAnswers implements Explanation. Lookups can't have children, so it
// panics if 'answers' isn't empty.
func (e *Lookup) WithAnswers(answers ...Answer) Explanation {
	if len(answers) > 0 {
		log.Panicf("Lookup explanation can't have child answers: %v", answers)
	}
	return e
}

// SetQuery implements Explanation.
func (e *Lookup) SetQuery(q *logic.Query) Explanation {
	return &Lookup{query: q}
}

// Join explains an answer to a conjunctive query by the answers to its atomic
// sub-queries.
type Join struct {
	query   *logic.Query
	answers []Answer
}

// NewJoin returns a Join explanation for an answer to 'q' derived from the
// given sub-answers.
func NewJoin(q *logic.Query, answers ...Answer) *Join {
	return &Join{query: q, answers: answers}
}

func (*Join) anExplanation() {}

// Query implements Explanation.
func (e *Join) Query() *logic.Query {
	return e.query
}

// Answers implements Explanation.
func (e *Join) Answers() []Answer {
	return e.answers
}

// WithAnswers implements Explanation.
func (e *Join) WithAnswers(answers ...Answer) Explanation {
	return &Join{query: e.query, answers: answers}
}

// SetQuery implements Explanation.
func (e *Join) SetQuery(q *logic.Query) Explanation {
	return &Join{query: q, answers: e.answers}
}

// Rule explains an answer derived by applying a rule. Its child is the answer
// to the rule's body.
type Rule struct {
	query   *logic.Query
	rule    *logic.Rule
	answers []Answer
}

// NewRule returns a Rule explanation for an answer to 'q' derived by 'rule'
// from the given body answers.
func NewRule(q *logic.Query, rule *logic.Rule, answers ...Answer) *Rule {
	return &Rule{query: q, rule: rule, answers: answers}
}

func (*Rule) anExplanation() {}

// Query implements Explanation.
func (e *Rule) Query() *logic.Query {
	return e.query
}

// Rule returns the rule that derived the answer.
func (e *Rule) Rule() *logic.Rule {
	return e.rule
}

// Answers implements Explanation.
func (e *Rule) Answers() []Answer {
	return e.answers
}

// WithAnswers implements Explanation.
func (e *Rule) WithAnswers(answers ...Answer) Explanation {
	return &Rule{query: e.query, rule: e.rule, answers: answers}
}

// SetQuery implements Explanation.
func (e *Rule) SetQuery(q *logic.Query) Explanation {
	return &Rule{query: q, rule: e.rule, answers: e.answers}
}

// Describe returns a one-line description of an explanation, like "rule
// transitivity" or "lookup".
func Describe(e Explanation) string {
	switch e := e.(type) {
	case nil:
		return "unexplained"
	case *Lookup:
		return "lookup"
	case *Join:
		return "join"
	case *Rule:
		return "rule " + e.rule.ID
	}
	log.Panicf("Describe: unexpected explanation %T", e)
	return ""
}

// Rules returns the IDs of every rule used to derive the answer, in the order
// they're first found walking the explanation tree depth first.
func Rules(a Answer) []string {
	var res []string
	seen := make(map[string]bool)
	var visit func(a Answer)
	visit = func(a Answer) {
		e := a.explanation
		if e == nil {
			return
		}
		if r, ok := e.(*Rule); ok && !seen[r.rule.ID] {
			seen[r.rule.ID] = true
			res = append(res, r.rule.ID)
		}
		for _, child := range e.Answers() {
			visit(child)
		}
	}
	visit(a)
	return res
}

// WriteTree writes the explanation tree of an answer as indented text.
func WriteTree(w io.Writer, a Answer) error {
	var visit func(a Answer, indent string) error
	visit = func(a Answer, indent string) error {
		var query string
		if e := a.explanation; e != nil && e.Query() != nil {
			query = " " + e.Query().String()
		}
		_, err := fmt.Fprintf(w, "%s%v by %s:%s\n", indent, a, Describe(a.explanation), query)
		if err != nil {
			return err
		}
		if a.explanation == nil {
			return nil
		}
		for _, child := range a.explanation.Answers() {
			if err := visit(child, indent+"    "); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(a, "")
}

// WriteDot writes the explanation of an answer as a Graphviz digraph. Each
// node is an answer labelled with its bindings and how it was derived; edges
// point from an answer to the answers it was derived from. Answers with the
// same bindings and explanation are drawn once.
func WriteDot(w io.Writer, a Answer) error {
	var b strings.Builder
	b.WriteString("digraph explanation {\n")
	b.WriteString("\tnode [shape=box fontname=\"Helvetica\"];\n")
	type nodeKey struct {
		answer      string
		explanation Explanation
	}
	ids := make(map[nodeKey]int)
	var visit func(a Answer) int
	visit = func(a Answer) int {
		var key strings.Builder
		a.Key(&key)
		k := nodeKey{key.String(), a.explanation}
		if id, ok := ids[k]; ok {
			return id
		}
		id := len(ids)
		ids[k] = id
		fmt.Fprintf(&b, "\tn%d [label=%q];\n", id, a.String()+"\n"+Describe(a.explanation))
		if a.explanation != nil {
			for _, child := range a.explanation.Answers() {
				fmt.Fprintf(&b, "\tn%d -> n%d;\n", id, visit(child))
			}
		}
		return id
	}
	visit(a)
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
