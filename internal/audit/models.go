// Package audit records succession verdicts after the evaluator returns.
// The engine itself never writes; handlers emit events post-result, and
// losing an audit event must never fail the evaluation it describes.
package audit

import "time"

// KindSuccessionEvaluation is the only event kind recorded today.
const KindSuccessionEvaluation = "succession_evaluation"

// Event is one recorded evaluation verdict.
type Event struct {
	ID                string    `json:"id"`
	Kind              string    `json:"kind"`
	RootPersonID      int64     `json:"root_person_id"`
	CandidatePersonID int64     `json:"candidate_person_id"`
	RuleType          string    `json:"rule_type"`
	Status            string    `json:"status"`
	CheckedPaths      int       `json:"checked_paths"`
	RequestID         string    `json:"request_id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}
