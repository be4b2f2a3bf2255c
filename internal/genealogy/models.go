// Package genealogy builds ancestor/descendant subtrees around a root person
// and audits them for temporal and structural impossibilities.
package genealogy

import (
	"fmt"

	"stemma/pkg/domain"
)

// Direction selects which way lineage edges are expanded from the root.
type Direction string

const (
	DirectionAncestors   Direction = "ancestors"
	DirectionDescendants Direction = "descendants"
	DirectionBoth        Direction = "both"
)

// ParseDirection validates a caller-supplied direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionAncestors, DirectionDescendants, DirectionBoth:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Depth bounds for tree building. Out-of-range values are clamped rather
// than rejected; the bound exists to keep breadth expansion tractable.
const (
	MinDepth = 1
	MaxDepth = 10
)

// ClampDepth forces depth into [MinDepth, MaxDepth].
func ClampDepth(depth int) int {
	if depth < MinDepth {
		return MinDepth
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}

// PersonNode is the per-person slice of a tree response.
type PersonNode struct {
	ID          int64        `json:"id"`
	PrimaryName string       `json:"primary_name"`
	BirthDate   *domain.Date `json:"birth_date"`
	DeathDate   *domain.Date `json:"death_date"`
}

// Edge is a relationship projected onto its person endpoints. For lineage
// types From is the parent and To the child.
type Edge struct {
	ID               int64        `json:"id"`
	RelationshipType string       `json:"relationship_type"`
	FromPersonID     int64        `json:"from_person_id"`
	ToPersonID       int64        `json:"to_person_id"`
	ValidFrom        domain.Date  `json:"valid_from"`
	ValidTo          *domain.Date `json:"valid_to"`
	SourceIDs        []int64      `json:"source_ids"`
}

// TreeLevel is one breadth generation; level 0 holds only the root.
type TreeLevel struct {
	Level     int     `json:"level"`
	PersonIDs []int64 `json:"person_ids"`
}

// Tree is the result of one BuildPersonTree call. Nodes and edges are sorted
// by id; levels are computed per direction from lineage edges only, so spouse
// nodes attached through marriages never receive a level.
type Tree struct {
	RootPersonID int64        `json:"root_person_id"`
	Direction    Direction    `json:"direction"`
	Depth        int          `json:"depth"`
	Nodes        []PersonNode `json:"nodes"`
	Edges        []Edge       `json:"edges"`

	LevelsAncestors   []TreeLevel `json:"levels_ancestors"`
	LevelsDescendants []TreeLevel `json:"levels_descendants"`
}

// Issue severities. Timeline findings are result values, never errors.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Issue codes emitted by the timeline consistency checker.
const (
	CodePersonBirthAfterDeath      = "PERSON_BIRTH_AFTER_DEATH"
	CodeRelValidToBeforeValidFrom  = "REL_VALID_TO_BEFORE_VALID_FROM"
	CodeParentBornAfterChild       = "PARENT_BORN_AFTER_CHILD"
	CodeParentDiedBeforeChildBirth = "PARENT_DIED_BEFORE_CHILD_BIRTH"
	CodeRelStartBeforeChildBirth   = "REL_START_BEFORE_CHILD_BIRTH"
	CodeMarriageBeforeSpouseABirth = "MARRIAGE_BEFORE_SPOUSE_A_BIRTH"
	CodeMarriageBeforeSpouseBBirth = "MARRIAGE_BEFORE_SPOUSE_B_BIRTH"
	CodeMarriageAfterSpouseADeath  = "MARRIAGE_AFTER_SPOUSE_A_DEATH"
	CodeMarriageAfterSpouseBDeath  = "MARRIAGE_AFTER_SPOUSE_B_DEATH"
	CodeAncestryCycleDetected      = "ANCESTRY_CYCLE_DETECTED"
)

// Issue is one timeline finding, addressed to a person or a relationship.
type Issue struct {
	Severity       string `json:"severity"`
	Code           string `json:"code"`
	Message        string `json:"message"`
	PersonID       *int64 `json:"person_id,omitempty"`
	RelationshipID *int64 `json:"relationship_id,omitempty"`
}

// CheckResult is the outcome of one timeline consistency check.
type CheckResult struct {
	RootPersonID int64   `json:"root_person_id"`
	Depth        int     `json:"depth"`
	Issues       []Issue `json:"issues"`
}
