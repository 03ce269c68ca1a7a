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
	"github.com/pluraliseseverythings/grakn-sub001/graph"
	"github.com/pluraliseseverythings/grakn-sub001/graph/memgraph"
	"github.com/pluraliseseverythings/grakn-sub001/query/term"
)

func locatedIn(r, x, y term.Var) Relation {
	return NewRelation(r, memgraph.IsLocatedIn,
		RolePlayer{Role: memgraph.LocatedSubject, Player: x},
		RolePlayer{Role: memgraph.Locality, Player: y})
}

// testSchema is the geographic schema plus a specialised relation type and
// role, and a symmetric relation type.
func testSchema() *graph.Schema {
	s := memgraph.GeoSchema()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(s.AddRole("capital", memgraph.LocatedSubject))
	must(s.AddRelationType("is-capital-of", memgraph.IsLocatedIn, "capital"))
	must(s.AddRelationType("borders", "", "neighbour"))
	return s
}

func borders(r, x, y term.Var) Relation {
	return NewRelation(r, "borders",
		RolePlayer{Role: "neighbour", Player: x},
		RolePlayer{Role: "neighbour", Player: y})
}
