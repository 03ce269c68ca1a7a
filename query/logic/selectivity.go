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
	"math"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
	"github.com/pluraliseseverythings/grakn-sub001/util/cmp"
)

// Stats provides the cardinality estimates used to order atoms. graph.Graph
// implements Stats.
type Stats interface {
	// Count estimates the number of instances of a type.
	Count(typ graph.Label) int
}

// Cost estimates the number of answers to the atomic query 'q' when the
// variables in 'bound' are already bound. The estimate is the instance count
// of the atom's type raised to the fraction of the atom's variables that
// remain unbound; ID predicates count as bound. Atoms that rules can derive
// cost twice as much, since their instance count is an underestimate.
func Cost(q *AtomicQuery, bound term.VarSet, stats Stats, resolvable bool) float64 {
	vars := q.atom.Vars()
	for v := range q.Substitution() {
		bound = bound.Union(term.VarSet{v})
	}
	base := float64(stats.Count(Type(q.atom)) + 1)
	unbound := float64(len(vars.Sub(bound))) / float64(len(vars))
	cost := math.Pow(base, unbound)
	if resolvable {
		cost *= 2
	}
	return cost
}

// OrderAtomics decomposes 'q' into its atomic queries and orders them for
// resolution: most selective first, given the variables bound by the atoms
// already picked. Atoms sharing a variable with an already picked atom are
// preferred over unconnected ones, to avoid Cartesian products. Ties are
// broken by atom key, so the order is deterministic. 'resolvable' reports
// whether rules can derive answers to an atomic query; it may be nil.
func OrderAtomics(q *Query, bound term.VarSet, stats Stats, resolvable func(*AtomicQuery) bool) []*AtomicQuery {
	type candidate struct {
		aq         *AtomicQuery
		key        string
		resolvable bool
	}
	pending := make([]candidate, len(q.selectable))
	for i, a := range q.selectable {
		aq := q.AtomicQuery(a)
		pending[i] = candidate{
			aq:         aq,
			key:        cmp.GetKey(a),
			resolvable: resolvable != nil && resolvable(aq),
		}
	}
	res := make([]*AtomicQuery, 0, len(pending))
	for len(pending) > 0 {
		best := -1
		bestConnected := false
		bestCost := 0.0
		for i, c := range pending {
			connected := len(c.aq.atom.Vars().Intersect(bound)) > 0
			cost := Cost(c.aq, bound, stats, c.resolvable)
			var better bool
			switch {
			case best < 0:
				better = true
			case connected != bestConnected:
				better = connected
			case cost != bestCost:
				better = cost < bestCost
			default:
				better = c.key < pending[best].key
			}
			if better {
				best, bestConnected, bestCost = i, connected, cost
			}
		}
		picked := pending[best]
		res = append(res, picked.aq)
		bound = bound.Union(picked.aq.Vars())
		pending = append(pending[:best], pending[best+1:]...)
	}
	return res
}
