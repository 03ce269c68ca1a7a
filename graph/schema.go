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

package graph

import (
	"fmt"
	"sort"
	"sync"
)

// TypeKind identifies what kind of things a type has as instances.
type TypeKind uint8

// The kinds of types.
const (
	EntityType TypeKind = iota + 1
	RelationType
	AttributeType
)

func (k TypeKind) String() string {
	switch k {
	case EntityType:
		return "entity"
	case RelationType:
		return "relation"
	case AttributeType:
		return "attribute"
	}
	return fmt.Sprintf("TypeKind(%d)", uint8(k))
}

// A Type describes one schema type.
type Type struct {
	Label Label
	Kind  TypeKind
	// Super is the direct supertype, or "" for a top-level type.
	Super Label
	// Roles are the roles a relation type relates, not including the roles
	// of its supertypes.
	Roles []Label
	// DataType is the kind of value held by instances of an attribute type.
	DataType ValueKind
}

// A Schema is the type hierarchy the reasoner consumes. Types and roles each
// have at most one supertype. A Schema is safe for concurrent use once
// constructed; the Add methods must not be called concurrently with readers.
type Schema struct {
	types     map[Label]*Type
	roleSuper map[Label]Label

	lock     sync.Mutex
	subtypes map[Label][]Label
}

// NewSchema returns an empty Schema.
func NewSchema() *Schema {
	return &Schema{
		types:     make(map[Label]*Type),
		roleSuper: make(map[Label]Label),
	}
}

// AddEntityType declares an entity type.
func (s *Schema) AddEntityType(label, super Label) error {
	return s.add(&Type{Label: label, Kind: EntityType, Super: super})
}

// AddRelationType declares a relation type and the roles it relates. Roles
// are declared implicitly with no super-role unless declared with AddRole.
func (s *Schema) AddRelationType(label, super Label, roles ...Label) error {
	if err := s.add(&Type{Label: label, Kind: RelationType, Super: super, Roles: roles}); err != nil {
		return err
	}
	for _, r := range roles {
		if _, exists := s.roleSuper[r]; !exists {
			s.roleSuper[r] = ""
		}
	}
	return nil
}

// AddAttributeType declares an attribute type holding values of the given kind.
func (s *Schema) AddAttributeType(label, super Label, dataType ValueKind) error {
	return s.add(&Type{Label: label, Kind: AttributeType, Super: super, DataType: dataType})
}

// AddRole declares a role with an optional super-role.
func (s *Schema) AddRole(role, super Label) error {
	if super != "" {
		if _, exists := s.roleSuper[super]; !exists {
			return fmt.Errorf("super-role %v of %v is not declared", super, role)
		}
	}
	s.roleSuper[role] = super
	s.invalidate()
	return nil
}

func (s *Schema) add(t *Type) error {
	if t.Label == "" {
		return fmt.Errorf("%v type must have a label", t.Kind)
	}
	if _, exists := s.types[t.Label]; exists {
		return fmt.Errorf("type %v already declared", t.Label)
	}
	if t.Super != "" {
		super, exists := s.types[t.Super]
		if !exists {
			return fmt.Errorf("supertype %v of %v is not declared", t.Super, t.Label)
		}
		if super.Kind != t.Kind {
			return fmt.Errorf("%v type %v can't specialise %v type %v",
				t.Kind, t.Label, super.Kind, super.Label)
		}
		if t.Kind == AttributeType && t.DataType == KNone {
			t.DataType = super.DataType
		}
	}
	s.types[t.Label] = t
	s.invalidate()
	return nil
}

func (s *Schema) invalidate() {
	s.lock.Lock()
	s.subtypes = nil
	s.lock.Unlock()
}

// Type returns the type with the given label.
func (s *Schema) Type(label Label) (*Type, bool) {
	t, ok := s.types[label]
	return t, ok
}

// Types returns all the declared types ordered by label.
func (s *Schema) Types() []*Type {
	res := make([]*Type, 0, len(s.types))
	for _, t := range s.types {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Label < res[j].Label
	})
	return res
}

// HasRole returns true if the role has been declared.
func (s *Schema) HasRole(role Label) bool {
	_, exists := s.roleSuper[role]
	return exists
}

// Subtypes returns the label and all its transitive subtypes, in sorted order.
// It returns nil for an unknown label.
func (s *Schema) Subtypes(label Label) []Label {
	if _, exists := s.types[label]; !exists {
		return nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.subtypes == nil {
		parents := make(map[Label]Label, len(s.types))
		for l, t := range s.types {
			parents[l] = t.Super
		}
		s.subtypes = closeHierarchy(parents)
	}
	return s.subtypes[label]
}

// Supertypes returns the label and all its transitive supertypes, nearest
// first.
func (s *Schema) Supertypes(label Label) []Label {
	var res []Label
	for t, ok := s.types[label]; ok; t, ok = s.types[t.Super] {
		res = append(res, t.Label)
	}
	return res
}

// IsSubtype returns true if sub is sup or a transitive subtype of it.
func (s *Schema) IsSubtype(sub, sup Label) bool {
	for t, ok := s.types[sub]; ok; t, ok = s.types[t.Super] {
		if t.Label == sup {
			return true
		}
	}
	return false
}

// IsSubRole returns true if sub is sup or a transitive sub-role of it. The
// empty role is the root of every role hierarchy.
func (s *Schema) IsSubRole(sub, sup Label) bool {
	if sup == "" {
		return true
	}
	for r := sub; r != ""; r = s.roleSuper[r] {
		if r == sup {
			return true
		}
	}
	return false
}

// Roles returns every role a relation type relates, including those of its
// supertypes.
func (s *Schema) Roles(relationType Label) []Label {
	var res []Label
	for _, l := range s.Supertypes(relationType) {
		res = append(res, s.types[l].Roles...)
	}
	return res
}

// closeHierarchy computes, for every node in the parent map, the sorted list
// of the node and its descendants.
func closeHierarchy(parents map[Label]Label) map[Label][]Label {
	res := make(map[Label][]Label, len(parents))
	for l := range parents {
		res[l] = append(res[l], l)
		seen := map[Label]bool{l: true}
		for p := parents[l]; p != "" && !seen[p]; p = parents[p] {
			seen[p] = true
			res[p] = append(res[p], l)
		}
	}
	for _, subs := range res {
		sort.Slice(subs, func(i, j int) bool {
			return subs[i] < subs[j]
		})
	}
	return res
}
