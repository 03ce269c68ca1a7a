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

package kb

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/logic"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
)

// patternSpec is one atom of a query or rule. Exactly one field is set.
type patternSpec struct {
	Isa      *isaSpec      `yaml:"isa"`
	Relation *relationSpec `yaml:"relation"`
	Has      *hasSpec      `yaml:"has"`
	ID       *idSpec       `yaml:"id"`
	Value    *valueSpec    `yaml:"value"`
	Neq      []string      `yaml:"neq"`
}

type isaSpec struct {
	Var  string `yaml:"var"`
	Type string `yaml:"type"`
}

type relationSpec struct {
	Var     string       `yaml:"var"`
	Type    string       `yaml:"type"`
	Players []playerSpec `yaml:"players"`
}

type playerSpec struct {
	Role   string `yaml:"role"`
	Player string `yaml:"player"`
}

type hasSpec struct {
	Owner string      `yaml:"owner"`
	Type  string      `yaml:"type"`
	Var   string      `yaml:"var"`
	Op    string      `yaml:"op"`
	Value interface{} `yaml:"value"`
}

type idSpec struct {
	Var    string `yaml:"var"`
	Entity string `yaml:"entity"`
}

type valueSpec struct {
	Var   string      `yaml:"var"`
	Op    string      `yaml:"op"`
	Value interface{} `yaml:"value"`
}

// patternParser turns pattern specs into atoms. It generates the variables
// left out of relations and attributes; one parser is used per query or
// rule so that generated names don't collide.
type patternParser struct {
	kb  *KB
	gen term.VarGen
}

func newPatternParser(kb *KB, hint string) *patternParser {
	return &patternParser{kb: kb, gen: term.VarGen{Hint: hint}}
}

func (p *patternParser) query(specs []patternSpec) (*logic.Query, error) {
	atoms := make([]logic.Atom, 0, len(specs))
	for i := range specs {
		a, err := p.atom(&specs[i])
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %d", i+1)
		}
		atoms = append(atoms, a)
	}
	return logic.NewQuery(atoms...)
}

func (p *patternParser) atom(spec *patternSpec) (logic.Atom, error) {
	set := 0
	for _, isSet := range []bool{spec.Isa != nil, spec.Relation != nil, spec.Has != nil,
		spec.ID != nil, spec.Value != nil, spec.Neq != nil} {
		if isSet {
			set++
		}
	}
	if set != 1 {
		return nil, errors.Errorf("pattern must have exactly one of isa, relation, has, id, value or neq; found %d", set)
	}
	switch {
	case spec.Isa != nil:
		v, err := parseVar(spec.Isa.Var)
		if err != nil {
			return nil, err
		}
		return logic.Isa{Var: v, Type: graph.Label(spec.Isa.Type)}, nil

	case spec.Relation != nil:
		r := spec.Relation
		v, err := p.optionalVar(r.Var)
		if err != nil {
			return nil, err
		}
		if len(r.Players) == 0 {
			return nil, errors.Errorf("relation %v has no players", r.Type)
		}
		players := make([]logic.RolePlayer, len(r.Players))
		for i, rp := range r.Players {
			pv, err := parseVar(rp.Player)
			if err != nil {
				return nil, err
			}
			players[i] = logic.RolePlayer{Role: graph.Label(rp.Role), Player: pv}
		}
		return logic.NewRelation(v, graph.Label(r.Type), players...), nil

	case spec.Has != nil:
		h := spec.Has
		owner, err := parseVar(h.Owner)
		if err != nil {
			return nil, err
		}
		v, err := p.optionalVar(h.Var)
		if err != nil {
			return nil, err
		}
		cond, err := parseCondition(h.Op, h.Value)
		if err != nil {
			return nil, err
		}
		return logic.Attribute{Owner: owner, Type: graph.Label(h.Type), Var: v, Predicate: cond}, nil

	case spec.ID != nil:
		v, err := parseVar(spec.ID.Var)
		if err != nil {
			return nil, err
		}
		id, err := p.kb.entity(spec.ID.Entity)
		if err != nil {
			return nil, err
		}
		return logic.IDPredicate{Var: v, ID: id}, nil

	case spec.Value != nil:
		v, err := parseVar(spec.Value.Var)
		if err != nil {
			return nil, err
		}
		cond, err := parseCondition(spec.Value.Op, spec.Value.Value)
		if err != nil {
			return nil, err
		}
		if !cond.IsSet() {
			return nil, errors.Errorf("value pattern on %v has no value", v)
		}
		return logic.ValuePredicate{Var: v, Condition: cond}, nil

	default:
		if len(spec.Neq) != 2 {
			return nil, errors.Errorf("neq takes two variables, got %d", len(spec.Neq))
		}
		a, err := parseVar(spec.Neq[0])
		if err != nil {
			return nil, err
		}
		b, err := parseVar(spec.Neq[1])
		if err != nil {
			return nil, err
		}
		return logic.NeqPredicate{Var: a, Other: b}, nil
	}
}

// parseVar parses a variable written "$name".
func parseVar(s string) (term.Var, error) {
	if !strings.HasPrefix(s, "$") || len(s) < 2 {
		return "", errors.Errorf("invalid variable %q, expected $name", s)
	}
	return term.Var(s[1:]), nil
}

func (p *patternParser) optionalVar(s string) (term.Var, error) {
	if s == "" {
		return p.gen.Next(), nil
	}
	return parseVar(s)
}

// parseCondition returns the condition comparing with 'value'. The operator
// defaults to equality; a missing value is no condition.
func parseCondition(op string, value interface{}) (logic.Condition, error) {
	if value == nil {
		if op != "" {
			return logic.Condition{}, errors.Errorf("operator %v has no value", op)
		}
		return logic.Condition{}, nil
	}
	v, err := graph.ValueOf(value)
	if err != nil {
		return logic.Condition{}, err
	}
	if op == "" {
		return logic.Condition{Op: logic.OpEq, Value: v}, nil
	}
	parsed, ok := logic.ParseOp(op)
	if !ok {
		return logic.Condition{}, errors.Errorf("unknown operator %q", op)
	}
	return logic.Condition{Op: parsed, Value: v}, nil
}
