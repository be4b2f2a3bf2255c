// Package succession evaluates whether a candidate person legitimately
// succeeds a root person under a parameterized dynastic rule. Verdicts are
// three-valued: missing evidence yields UNCERTAIN, never a silent
// VALID or INVALID.
package succession

import "stemma/pkg/domain"

// Status is the verdict of an evaluation.
type Status string

const (
	StatusValid     Status = "VALID"
	StatusInvalid   Status = "INVALID"
	StatusUncertain Status = "UNCERTAIN"
)

// Reason severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Reason codes emitted by the evaluator.
const (
	CodeNoLineagePath          = "NO_LINEAGE_PATH"
	CodeAdoptionNotAllowed     = "ADOPTION_NOT_ALLOWED"
	CodeCandidateSexUnknown    = "CANDIDATE_SEX_UNKNOWN"
	CodeCandidateSexDisallowed = "CANDIDATE_SEX_DISALLOWED"
	CodeAncestorSexUnknown     = "ANCESTOR_SEX_UNKNOWN"
	CodeAncestorSexDisallowed  = "ANCESTOR_SEX_DISALLOWED"
)

// Reason explains one step of a verdict, addressed to a person or an edge.
type Reason struct {
	Severity       string `json:"severity"`
	Code           string `json:"code"`
	Message        string `json:"message"`
	PersonID       *int64 `json:"person_id,omitempty"`
	RelationshipID *int64 `json:"relationship_id,omitempty"`
}

// Result is the structured verdict of one evaluation. PathPersonIDs and
// RelationshipIDs are nil when no lineage path exists; CheckedPaths counts
// the paths actually evaluated before the decision, not all paths that exist.
type Result struct {
	RootPersonID      int64        `json:"root_person_id"`
	CandidatePersonID int64        `json:"candidate_person_id"`
	RuleType          RuleType     `json:"rule_type"`
	Status            Status       `json:"status"`
	AsOf              *domain.Date `json:"as_of"`

	PathPersonIDs   []int64 `json:"path_person_ids"`
	RelationshipIDs []int64 `json:"relationship_ids"`

	CheckedPaths int      `json:"checked_paths"`
	Reasons      []Reason `json:"reasons"`

	AppliedRule RuleConfig `json:"applied_rule"`
}
