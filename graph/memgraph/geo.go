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

package memgraph

import (
	"fmt"

	"github.com/pluraliseseverythings/grakn-sub001/graph"
)

// Labels used by the geographic graph built by NewGeo.
const (
	GeoEntity      graph.Label = "geo-entity"
	City           graph.Label = "city"
	Region         graph.Label = "region"
	Country        graph.Label = "country"
	Continent      graph.Label = "continent"
	IsLocatedIn    graph.Label = "is-located-in"
	LocatedSubject graph.Label = "located-subject"
	Locality       graph.Label = "locality"
	Name           graph.Label = "name"
)

// GeoSchema returns the schema of the geographic graph.
func GeoSchema() *graph.Schema {
	s := graph.NewSchema()
	must(s.AddEntityType(GeoEntity, ""))
	for _, t := range []graph.Label{City, Region, Country, Continent} {
		must(s.AddEntityType(t, GeoEntity))
	}
	must(s.AddRelationType(IsLocatedIn, "", LocatedSubject, Locality))
	must(s.AddAttributeType(Name, "", graph.KString))
	return s
}

// NewGeo returns a small geographic graph: Warsaw is located in Masovia,
// Masovia in Poland and Poland in Europe; Katowice is located in Silesia and
// Silesia in Poland. Every place has a name. The returned map gives the ID of
// each place by name.
func NewGeo() (*Graph, map[string]graph.ConceptID) {
	g := New(GeoSchema())
	ids := make(map[string]graph.ConceptID)
	places := []struct {
		name string
		typ  graph.Label
	}{
		{"Warsaw", City},
		{"Katowice", City},
		{"Masovia", Region},
		{"Silesia", Region},
		{"Poland", Country},
		{"Europe", Continent},
	}
	for _, p := range places {
		c, err := g.AddEntity(p.typ)
		must(err)
		ids[p.name] = c.ID
		_, err = g.AddAttribute(c.ID, Name, graph.AString(p.name))
		must(err)
	}
	for _, pair := range [][2]string{
		{"Warsaw", "Masovia"},
		{"Masovia", "Poland"},
		{"Poland", "Europe"},
		{"Katowice", "Silesia"},
		{"Silesia", "Poland"},
	} {
		_, err := g.AddRelation(IsLocatedIn,
			graph.RolePlayer{Role: LocatedSubject, Player: ids[pair[0]]},
			graph.RolePlayer{Role: Locality, Player: ids[pair[1]]})
		must(err)
	}
	return g, ids
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("memgraph: building fixture: %v", err))
	}
}
