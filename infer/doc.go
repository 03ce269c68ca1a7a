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

// Package infer answers queries over a knowledge graph by combining direct
// lookups with rule application.
//
// Resolution is a depth-first search over a stack of states. A conjunctive
// query is split into atomic queries, which are resolved one after another,
// each with the bindings of those before it. An atomic query is answered from
// the answer cache, from the graph, and by every rule whose head unifies with
// it: the rule's body is resolved as a new conjunctive query and its answers
// are unified back into the atomic query.
//
// For example, given the facts
//
//	is-located-in(Warsaw, Masovia)
//	is-located-in(Masovia, Poland)
//
// and the rule
//
//	is-located-in($x, $y), is-located-in($y, $z) => is-located-in($x, $z)
//
// then the query is-located-in(Warsaw, $where) yields Masovia from the graph
// and Poland from the rule.
//
// Recursive rules are cut off when an atomic query is asked again below
// itself. Answers read from a query that was cut off may be incomplete, so
// resolution repeats the search, keeping the answer cache, until a pass adds
// no answers. Each answer carries an explanation of how it was derived.
package infer
