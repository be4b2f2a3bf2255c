// Package relationship holds the directed relationship edge model and its
// stores. Edges are polymorphic (typed endpoints); the engine only traverses
// edges whose endpoints are both persons.
package relationship

import "stemma/pkg/domain"

// Relationship types the engine interprets. Everything else is passed through
// untouched by the stores and ignored by the engine.
const (
	TypeParentChild = "parent_child"
	TypeAdoption    = "adoption"
	TypeMarriage    = "marriage"
)

// EntityTypePerson marks a person endpoint.
const EntityTypePerson = "person"

// IsLineageType reports whether t can carry a succession claim.
// Both biological and adoptive parent-child edges are lineage edges; rule
// configs decide separately whether adoption is admissible.
func IsLineageType(t string) bool {
	return t == TypeParentChild || t == TypeAdoption
}

// Relationship is a directed edge between two typed entities. For lineage
// types the left endpoint is the parent and the right endpoint the child;
// for marriages the orientation carries no meaning.
type Relationship struct {
	ID               int64  `json:"id"`
	RelationshipType string `json:"relationship_type"`

	LeftEntityType  string `json:"left_entity_type"`
	LeftEntityID    int64  `json:"left_entity_id"`
	RightEntityType string `json:"right_entity_type"`
	RightEntityID   int64  `json:"right_entity_id"`

	// Interval during which the asserted relationship holds.
	ValidFrom domain.Date  `json:"valid_from"`
	ValidTo   *domain.Date `json:"valid_to"`

	// Evidentiary references, passed through but never interpreted.
	SourceIDs []int64 `json:"source_ids"`
}

// ActiveAt reports whether the edge is active as of the given date.
// A nil asOf means open evaluation: every edge counts regardless of interval.
func (r *Relationship) ActiveAt(asOf *domain.Date) bool {
	if asOf == nil {
		return true
	}
	if r.ValidFrom.After(*asOf) {
		return false
	}
	if r.ValidTo == nil {
		return true
	}
	return !r.ValidTo.Before(*asOf)
}

// IsPersonToPerson reports whether both endpoints are persons.
func (r *Relationship) IsPersonToPerson() bool {
	return r.LeftEntityType == EntityTypePerson && r.RightEntityType == EntityTypePerson
}

// Clone returns a deep copy so store callers cannot alias internal state.
func (r *Relationship) Clone() *Relationship {
	cp := *r
	if r.ValidTo != nil {
		d := *r.ValidTo
		cp.ValidTo = &d
	}
	if r.SourceIDs != nil {
		cp.SourceIDs = append([]int64(nil), r.SourceIDs...)
	}
	return &cp
}
