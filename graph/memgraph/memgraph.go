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

// Package memgraph is an in-memory implementation of graph.Graph and
// graph.Writer. It's used by unit tests and by the command-line tool, and is
// safe for concurrent access.
package memgraph

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/pluraliseseverythings/grakn-sub001/graph"
)

// Graph is an in-memory knowledge graph. Base facts are added with the Add
// methods; the graph.Writer methods are used for inferred facts and are
// counted by Writes.
type Graph struct {
	schema *graph.Schema

	lock     sync.RWMutex
	lastID   uint64
	concepts map[graph.ConceptID]graph.Concept
	// relations holds the role players of every relation instance.
	relations map[graph.ConceptID]*graph.Relation
	// relationKeys dedups relations by type and role players.
	relationKeys map[string]graph.ConceptID
	attrByValue  map[attrKey]graph.ConceptID
	// inferredOwnerships holds ownerships created through PutAttribute.
	inferredOwnerships map[ownership]bool
	// byType contains pair{type, concept ID} for every concept.
	byType *btree.BTree
	// byPlayer contains pair{player ID, relation ID}.
	byPlayer *btree.BTree
	// ownedBy contains pair{owner ID, attribute ID}.
	ownedBy *btree.BTree
	// owners contains pair{attribute ID, owner ID}.
	owners *btree.BTree
	writes int
}

type attrKey struct {
	typ   graph.Label
	value graph.Value
}

type ownership struct {
	owner graph.ConceptID
	attr  graph.ConceptID
}

// pair is the btree item used by every index.
type pair struct {
	a, b string
}

func (p pair) Less(than btree.Item) bool {
	o := than.(pair)
	if p.a != o.a {
		return p.a < o.a
	}
	return p.b < o.b
}

// ascend calls fn with the second half of every pair whose first half is
// 'a', in order, until fn returns false.
func ascend(tree *btree.BTree, a string, fn func(b string) bool) {
	tree.AscendGreaterOrEqual(pair{a: a}, func(item btree.Item) bool {
		p := item.(pair)
		if p.a != a {
			return false
		}
		return fn(p.b)
	})
}

// New returns an empty graph over the given schema.
func New(schema *graph.Schema) *Graph {
	return &Graph{
		schema:             schema,
		concepts:           make(map[graph.ConceptID]graph.Concept),
		relations:          make(map[graph.ConceptID]*graph.Relation),
		relationKeys:       make(map[string]graph.ConceptID),
		attrByValue:        make(map[attrKey]graph.ConceptID),
		inferredOwnerships: make(map[ownership]bool),
		byType:             btree.New(16),
		byPlayer:           btree.New(16),
		ownedBy:            btree.New(16),
		owners:             btree.New(16),
	}
}

// Schema implements graph.Graph.
func (g *Graph) Schema() *graph.Schema {
	return g.schema
}

// Writes returns the number of facts inserted through the graph.Writer
// methods.
func (g *Graph) Writes() int {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.writes
}

func (g *Graph) newID() graph.ConceptID {
	g.lastID++
	return graph.ConceptID("V" + strconv.FormatUint(g.lastID, 10))
}

func (g *Graph) checkType(typ graph.Label, kind graph.TypeKind) error {
	t, ok := g.schema.Type(typ)
	if !ok {
		return fmt.Errorf("unknown type %v", typ)
	}
	if t.Kind != kind {
		return fmt.Errorf("%v is a %v type, not a %v type", typ, t.Kind, kind)
	}
	return nil
}

// AddEntity adds a new entity of the given type.
func (g *Graph) AddEntity(typ graph.Label) (graph.Concept, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.addEntityLocked(typ)
}

func (g *Graph) addEntityLocked(typ graph.Label) (graph.Concept, error) {
	if err := g.checkType(typ, graph.EntityType); err != nil {
		return graph.Concept{}, err
	}
	c := graph.Concept{ID: g.newID(), Type: typ}
	g.concepts[c.ID] = c
	g.byType.ReplaceOrInsert(pair{string(typ), string(c.ID)})
	return c, nil
}

// AddRelation adds a base relation. Adding a relation that already exists
// returns the existing one.
func (g *Graph) AddRelation(typ graph.Label, players ...graph.RolePlayer) (graph.Concept, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	c, _, err := g.putRelationLocked(typ, players, false)
	return c, err
}

// AddAttribute adds a base attribute and, if owner isn't empty, its
// ownership.
func (g *Graph) AddAttribute(owner graph.ConceptID, typ graph.Label, v graph.Value) (graph.Concept, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	c, _, err := g.putAttributeLocked(owner, typ, v, false)
	return c, err
}

// PutEntity implements graph.Writer.
func (g *Graph) PutEntity(typ graph.Label) (graph.Concept, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	c, err := g.addEntityLocked(typ)
	if err == nil {
		g.writes++
	}
	return c, err
}

// PutRelation implements graph.Writer.
func (g *Graph) PutRelation(typ graph.Label, players []graph.RolePlayer) (graph.Concept, bool, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.putRelationLocked(typ, players, true)
}

// PutAttribute implements graph.Writer.
func (g *Graph) PutAttribute(owner graph.ConceptID, typ graph.Label, v graph.Value) (graph.Concept, bool, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.putAttributeLocked(owner, typ, v, true)
}

func relationKey(typ graph.Label, players []graph.RolePlayer) string {
	var b strings.Builder
	b.WriteString(string(typ))
	for _, rp := range players {
		b.WriteByte(' ')
		b.WriteString(string(rp.Role))
		b.WriteByte(':')
		b.WriteString(string(rp.Player))
	}
	return b.String()
}

func (g *Graph) putRelationLocked(typ graph.Label, players []graph.RolePlayer, inferred bool) (graph.Concept, bool, error) {
	if err := g.checkType(typ, graph.RelationType); err != nil {
		return graph.Concept{}, false, err
	}
	if len(players) == 0 {
		return graph.Concept{}, false, fmt.Errorf("relation of type %v needs at least one role player", typ)
	}
	players = append([]graph.RolePlayer(nil), players...)
	graph.SortRolePlayers(players)
	for _, rp := range players {
		if !g.schema.HasRole(rp.Role) {
			return graph.Concept{}, false, fmt.Errorf("unknown role %v in relation of type %v", rp.Role, typ)
		}
		if _, exists := g.concepts[rp.Player]; !exists {
			return graph.Concept{}, false, fmt.Errorf("unknown role player %v in relation of type %v", rp.Player, typ)
		}
	}
	key := relationKey(typ, players)
	if id, exists := g.relationKeys[key]; exists {
		return g.concepts[id], false, nil
	}
	rel := &graph.Relation{
		Concept:  graph.Concept{ID: g.newID(), Type: typ},
		Players:  players,
		Inferred: inferred,
	}
	g.concepts[rel.ID] = rel.Concept
	g.relations[rel.ID] = rel
	g.relationKeys[key] = rel.ID
	g.byType.ReplaceOrInsert(pair{string(typ), string(rel.ID)})
	for _, rp := range players {
		g.byPlayer.ReplaceOrInsert(pair{string(rp.Player), string(rel.ID)})
	}
	if inferred {
		g.writes++
	}
	return rel.Concept, true, nil
}

func (g *Graph) putAttributeLocked(owner graph.ConceptID, typ graph.Label, v graph.Value, inferred bool) (graph.Concept, bool, error) {
	if err := g.checkType(typ, graph.AttributeType); err != nil {
		return graph.Concept{}, false, err
	}
	t, _ := g.schema.Type(typ)
	if t.DataType != graph.KNone && t.DataType != v.Kind {
		return graph.Concept{}, false, fmt.Errorf("attribute type %v holds %v values, got %v", typ, t.DataType, v)
	}
	if owner != "" {
		if _, exists := g.concepts[owner]; !exists {
			return graph.Concept{}, false, fmt.Errorf("unknown owner %v of attribute %v", owner, typ)
		}
	}
	inserted := false
	id, exists := g.attrByValue[attrKey{typ, v}]
	if !exists {
		id = g.newID()
		g.concepts[id] = graph.Concept{ID: id, Type: typ, Value: v}
		g.attrByValue[attrKey{typ, v}] = id
		g.byType.ReplaceOrInsert(pair{string(typ), string(id)})
		inserted = true
	}
	if owner != "" && !g.ownedBy.Has(pair{string(owner), string(id)}) {
		g.ownedBy.ReplaceOrInsert(pair{string(owner), string(id)})
		g.owners.ReplaceOrInsert(pair{string(id), string(owner)})
		if inferred {
			g.inferredOwnerships[ownership{owner, id}] = true
		}
		inserted = true
	}
	if inserted && inferred {
		g.writes++
	}
	return g.concepts[id], inserted, nil
}

// Concept implements graph.Graph.
func (g *Graph) Concept(id graph.ConceptID) (graph.Concept, bool) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	c, ok := g.concepts[id]
	return c, ok
}

// Instances implements graph.Graph.
func (g *Graph) Instances(typ graph.Label) []graph.Concept {
	g.lock.RLock()
	defer g.lock.RUnlock()
	var res []graph.Concept
	for _, sub := range g.schema.Subtypes(typ) {
		ascend(g.byType, string(sub), func(id string) bool {
			res = append(res, g.concepts[graph.ConceptID(id)])
			return true
		})
	}
	return res
}

// Relations implements graph.Graph.
func (g *Graph) Relations(typ graph.Label) []graph.Relation {
	g.lock.RLock()
	defer g.lock.RUnlock()
	var res []graph.Relation
	for _, sub := range g.schema.Subtypes(typ) {
		ascend(g.byType, string(sub), func(id string) bool {
			if rel, ok := g.relations[graph.ConceptID(id)]; ok {
				res = append(res, *rel)
			}
			return true
		})
	}
	return res
}

// Relation implements graph.Graph.
func (g *Graph) Relation(id graph.ConceptID) (graph.Relation, bool) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	rel, ok := g.relations[id]
	if !ok {
		return graph.Relation{}, false
	}
	return *rel, true
}

// RelationsByPlayer implements graph.Graph.
func (g *Graph) RelationsByPlayer(player graph.ConceptID) []graph.Relation {
	g.lock.RLock()
	defer g.lock.RUnlock()
	var res []graph.Relation
	ascend(g.byPlayer, string(player), func(id string) bool {
		res = append(res, *g.relations[graph.ConceptID(id)])
		return true
	})
	return res
}

func (g *Graph) ownershipLocked(owner, attr graph.ConceptID) graph.Ownership {
	return graph.Ownership{
		Owner:     owner,
		Attribute: g.concepts[attr],
		Inferred:  g.inferredOwnerships[ownership{owner, attr}],
	}
}

// Ownerships implements graph.Graph.
func (g *Graph) Ownerships(attrType graph.Label) []graph.Ownership {
	g.lock.RLock()
	defer g.lock.RUnlock()
	var res []graph.Ownership
	for _, sub := range g.schema.Subtypes(attrType) {
		ascend(g.byType, string(sub), func(attr string) bool {
			ascend(g.owners, attr, func(owner string) bool {
				res = append(res, g.ownershipLocked(graph.ConceptID(owner), graph.ConceptID(attr)))
				return true
			})
			return true
		})
	}
	return res
}

// AttributesOf implements graph.Graph.
func (g *Graph) AttributesOf(owner graph.ConceptID) []graph.Ownership {
	g.lock.RLock()
	defer g.lock.RUnlock()
	var res []graph.Ownership
	ascend(g.ownedBy, string(owner), func(attr string) bool {
		res = append(res, g.ownershipLocked(owner, graph.ConceptID(attr)))
		return true
	})
	return res
}

// OwnersOf implements graph.Graph.
func (g *Graph) OwnersOf(attr graph.ConceptID) []graph.Ownership {
	g.lock.RLock()
	defer g.lock.RUnlock()
	var res []graph.Ownership
	ascend(g.owners, string(attr), func(owner string) bool {
		res = append(res, g.ownershipLocked(graph.ConceptID(owner), attr))
		return true
	})
	return res
}

// AttributeByValue implements graph.Graph.
func (g *Graph) AttributeByValue(attrType graph.Label, v graph.Value) (graph.Concept, bool) {
	g.lock.RLock()
	defer g.lock.RUnlock()
	id, ok := g.attrByValue[attrKey{attrType, v}]
	if !ok {
		return graph.Concept{}, false
	}
	return g.concepts[id], true
}

// Count implements graph.Graph. For attribute types it counts ownerships,
// since that's what an attribute atom matches.
func (g *Graph) Count(typ graph.Label) int {
	g.lock.RLock()
	defer g.lock.RUnlock()
	t, ok := g.schema.Type(typ)
	if !ok {
		return 0
	}
	count := 0
	for _, sub := range g.schema.Subtypes(typ) {
		ascend(g.byType, string(sub), func(id string) bool {
			if t.Kind == graph.AttributeType {
				ascend(g.owners, id, func(string) bool {
					count++
					return true
				})
			} else {
				count++
			}
			return true
		})
	}
	return count
}

// Stats summarizes the contents of a Graph.
type Stats struct {
	Entities           int
	Relations          int
	InferredRelations  int
	Attributes         int
	Ownerships         int
	InferredOwnerships int
	Writes             int
}

// Stats returns a summary of the graph's contents.
func (g *Graph) Stats() Stats {
	g.lock.RLock()
	defer g.lock.RUnlock()
	s := Stats{
		Relations:          len(g.relations),
		Attributes:         len(g.attrByValue),
		Ownerships:         g.ownedBy.Len(),
		InferredOwnerships: len(g.inferredOwnerships),
		Writes:             g.writes,
	}
	s.Entities = len(g.concepts) - s.Relations - s.Attributes
	for _, rel := range g.relations {
		if rel.Inferred {
			s.InferredRelations++
		}
	}
	return s
}
