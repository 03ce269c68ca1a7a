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

// Package graph defines how the reasoner sees the knowledge graph: typed
// concepts, the schema's type hierarchy, the read path used by direct
// lookups, and the write path used to materialise inferred facts.
package graph

import (
	"sort"
	"strings"
)

// A ConceptID uniquely identifies an entity, relation or attribute instance.
type ConceptID string

// A Label names a schema type or role.
type Label string

// A Concept is an instance stored in the graph.
type Concept struct {
	ID   ConceptID
	Type Label
	// Value is set for attribute instances only.
	Value Value
}

// String returns a string like "V12:city" or "V7:name=\"Poland\"".
func (c Concept) String() string {
	var b strings.Builder
	b.WriteString(string(c.ID))
	b.WriteByte(':')
	b.WriteString(string(c.Type))
	if c.Value.IsSet() {
		b.WriteByte('=')
		b.WriteString(c.Value.String())
	}
	return b.String()
}

// A RolePlayer is a concept playing a role in a relation.
type RolePlayer struct {
	Role   Label
	Player ConceptID
}

// A Relation is a relation instance with its role players.
type Relation struct {
	Concept
	// Players is sorted by role and then player.
	Players []RolePlayer
	// Inferred is true for relations that were materialised by the reasoner.
	Inferred bool
}

// SortRolePlayers orders role players by role, then by player.
func SortRolePlayers(rps []RolePlayer) {
	sort.Slice(rps, func(i, j int) bool {
		if rps[i].Role != rps[j].Role {
			return rps[i].Role < rps[j].Role
		}
		return rps[i].Player < rps[j].Player
	})
}

// An Ownership links an owner concept to one of its attributes.
type Ownership struct {
	Owner     ConceptID
	Attribute Concept
	// Inferred is true for ownerships that were materialised by the reasoner.
	Inferred bool
}

// Graph is the read path into the knowledge graph. All the lookups that take
// a type label include instances of the label's subtypes. Results are in a
// deterministic order. Implementations must be safe for concurrent use.
type Graph interface {
	// Schema returns the type hierarchy of the graph.
	Schema() *Schema
	// Concept returns the concept with the given ID.
	Concept(id ConceptID) (Concept, bool)
	// Instances returns the entities, relations or attributes of a type.
	Instances(typ Label) []Concept
	// Relations returns the relation instances of a relation type.
	Relations(typ Label) []Relation
	// Relation returns the relation instance with the given ID.
	Relation(id ConceptID) (Relation, bool)
	// RelationsByPlayer returns the relations the given concept plays a role
	// in.
	RelationsByPlayer(player ConceptID) []Relation
	// Ownerships returns all ownerships of attributes of the given type.
	Ownerships(attrType Label) []Ownership
	// AttributesOf returns the ownerships with the given owner.
	AttributesOf(owner ConceptID) []Ownership
	// OwnersOf returns the ownerships of the given attribute.
	OwnersOf(attr ConceptID) []Ownership
	// AttributeByValue returns the attribute of the exact given type holding
	// the value.
	AttributeByValue(attrType Label, v Value) (Concept, bool)
	// Count estimates the number of instances of a type: entities, relations,
	// or attribute ownerships.
	Count(typ Label) int
}

// Writer is the write path into the knowledge graph. Every method is
// idempotent: putting something that already exists returns the existing
// concept and inserted=false.
type Writer interface {
	// PutEntity creates a new entity of the given type. It always inserts.
	PutEntity(typ Label) (Concept, error)
	// PutRelation returns the relation of the given type with exactly the
	// given role players, creating it if needed.
	PutRelation(typ Label, players []RolePlayer) (rel Concept, inserted bool, err error)
	// PutAttribute returns the attribute of the given type and value, creating
	// it if needed, and makes sure 'owner' owns it. An empty owner puts only
	// the attribute. 'inserted' is true if either the attribute or the
	// ownership was created.
	PutAttribute(owner ConceptID, attrType Label, v Value) (attr Concept, inserted bool, err error)
}

// A WritableGraph can be both read and written.
type WritableGraph interface {
	Graph
	Writer
}
