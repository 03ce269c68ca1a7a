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
	"strings"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
)

// Op is a comparison operator of a Condition.
type Op string

// The supported comparison operators.
const (
	OpNone     Op = ""
	OpEq       Op = "=="
	OpNotEq    Op = "!="
	OpGt       Op = ">"
	OpGte      Op = ">="
	OpLt       Op = "<"
	OpLte      Op = "<="
	OpContains Op = "contains"
)

// ParseOp returns the operator with the given textual form.
func ParseOp(s string) (Op, bool) {
	switch op := Op(s); op {
	case OpEq, OpNotEq, OpGt, OpGte, OpLt, OpLte, OpContains:
		return op, true
	}
	return OpNone, false
}

// A Condition compares an attribute's value with a constant. The zero value
// is no condition and matches everything.
type Condition struct {
	Op    Op
	Value graph.Value
}

// IsSet returns true if the condition constrains anything.
func (c Condition) IsSet() bool {
	return c.Op != OpNone
}

// Matches returns true if 'v' satisfies the condition. Incomparable values
// never match.
func (c Condition) Matches(v graph.Value) bool {
	switch c.Op {
	case OpNone:
		return true
	case OpContains:
		return v.Kind == graph.KString && c.Value.Kind == graph.KString &&
			strings.Contains(v.Str, c.Value.Str)
	}
	res, ok := v.Compare(c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return res == 0
	case OpNotEq:
		return res != 0
	case OpGt:
		return res > 0
	case OpGte:
		return res >= 0
	case OpLt:
		return res < 0
	case OpLte:
		return res <= 0
	}
	return false
}

// CompatibleWith returns false if no value can satisfy both conditions. It
// only detects conflicts involving an equality; anything else is assumed
// compatible.
func (c Condition) CompatibleWith(other Condition) bool {
	switch {
	case c.Op == OpEq:
		return other.Matches(c.Value)
	case other.Op == OpEq:
		return c.Matches(other.Value)
	}
	return true
}

// String returns a string like `== "Poland"`.
func (c Condition) String() string {
	var b strings.Builder
	c.Key(&b)
	return b.String()
}

// Key implements cmp.Key.
func (c Condition) Key(b *strings.Builder) {
	if !c.IsSet() {
		return
	}
	b.WriteString(string(c.Op))
	b.WriteByte(' ')
	b.WriteString(c.Value.String())
}
