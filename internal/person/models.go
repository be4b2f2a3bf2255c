// Package person holds the person snapshot model and its stores.
//
// The engine treats persons as immutable snapshots for the duration of one
// evaluation call; nothing here mutates records after load.
package person

import "stemma/pkg/domain"

// Person is a recorded individual. Sex is free-form but semantically one of
// M, F, or unknown; a nil Sex means the fact was never asserted, which is
// distinct from any known value and routes succession verdicts to UNCERTAIN.
type Person struct {
	ID          int64        `json:"id"`
	PrimaryName string       `json:"primary_name"`
	Sex         *string      `json:"sex"`
	BirthDate   *domain.Date `json:"birth_date"`
	DeathDate   *domain.Date `json:"death_date"`

	// Assertion validity interval; distinct from the biological dates above.
	ValidFrom domain.Date  `json:"valid_from"`
	ValidTo   *domain.Date `json:"valid_to"`
}

// Clone returns a deep copy so store callers cannot alias internal state.
func (p *Person) Clone() *Person {
	cp := *p
	if p.Sex != nil {
		s := *p.Sex
		cp.Sex = &s
	}
	if p.BirthDate != nil {
		d := *p.BirthDate
		cp.BirthDate = &d
	}
	if p.DeathDate != nil {
		d := *p.DeathDate
		cp.DeathDate = &d
	}
	if p.ValidTo != nil {
		d := *p.ValidTo
		cp.ValidTo = &d
	}
	return &cp
}
