package relationship

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"stemma/pkg/domain"
)

// Postgres reads relationship edges from the relationships table.
//
// Expected schema:
//
//	CREATE TABLE relationships (
//	    id                BIGINT PRIMARY KEY,
//	    relationship_type TEXT NOT NULL,
//	    left_entity_type  TEXT NOT NULL,
//	    left_entity_id    BIGINT NOT NULL,
//	    right_entity_type TEXT NOT NULL,
//	    right_entity_id   BIGINT NOT NULL,
//	    valid_from        DATE NOT NULL,
//	    valid_to          DATE,
//	    source_ids        BIGINT[] NOT NULL DEFAULT '{}'
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const relationshipColumns = `id, relationship_type, left_entity_type, left_entity_id,
	right_entity_type, right_entity_id, valid_from, valid_to, source_ids`

func (s *Postgres) ListLineage(ctx context.Context, q LineageQuery) ([]*Relationship, error) {
	types := []string{TypeParentChild}
	if q.AllowAdoption {
		types = append(types, TypeAdoption)
	}

	clauses := []string{
		"left_entity_type = $1",
		"right_entity_type = $1",
		"relationship_type = ANY($2)",
	}
	args := []any{EntityTypePerson, pq.Array(types)}

	if q.AsOf != nil {
		args = append(args, *q.AsOf)
		clauses = append(clauses, fmt.Sprintf(
			"valid_from <= $%d AND (valid_to IS NULL OR valid_to >= $%d)", len(args), len(args)))
	}
	if q.ParentIDs != nil {
		args = append(args, pq.Array(q.ParentIDs))
		clauses = append(clauses, fmt.Sprintf("left_entity_id = ANY($%d)", len(args)))
	}
	if q.ChildIDs != nil {
		args = append(args, pq.Array(q.ChildIDs))
		clauses = append(clauses, fmt.Sprintf("right_entity_id = ANY($%d)", len(args)))
	}

	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id`
	return s.list(ctx, query, args...)
}

func (s *Postgres) ListMarriagesOf(ctx context.Context, personIDs []int64, asOf *domain.Date) ([]*Relationship, error) {
	clauses := []string{
		"left_entity_type = $1",
		"right_entity_type = $1",
		"relationship_type = $2",
	}
	args := []any{EntityTypePerson, TypeMarriage}

	if asOf != nil {
		args = append(args, *asOf)
		clauses = append(clauses, fmt.Sprintf(
			"valid_from <= $%d AND (valid_to IS NULL OR valid_to >= $%d)", len(args), len(args)))
	}
	if personIDs != nil {
		args = append(args, pq.Array(personIDs))
		clauses = append(clauses, fmt.Sprintf(
			"(left_entity_id = ANY($%d) OR right_entity_id = ANY($%d))", len(args), len(args)))
	}

	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id`
	return s.list(ctx, query, args...)
}

func (s *Postgres) Put(ctx context.Context, r *Relationship) error {
	sourceIDs := r.SourceIDs
	if sourceIDs == nil {
		sourceIDs = []int64{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relationships (`+relationshipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			relationship_type = EXCLUDED.relationship_type,
			left_entity_type  = EXCLUDED.left_entity_type,
			left_entity_id    = EXCLUDED.left_entity_id,
			right_entity_type = EXCLUDED.right_entity_type,
			right_entity_id   = EXCLUDED.right_entity_id,
			valid_from        = EXCLUDED.valid_from,
			valid_to          = EXCLUDED.valid_to,
			source_ids        = EXCLUDED.source_ids`,
		r.ID, r.RelationshipType, r.LeftEntityType, r.LeftEntityID,
		r.RightEntityType, r.RightEntityID, r.ValidFrom, nullableDate(r.ValidTo),
		pq.Array(sourceIDs))
	if err != nil {
		return fmt.Errorf("put relationship %d: %w", r.ID, err)
	}
	return nil
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*Relationship, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var out []*Relationship
	for rows.Next() {
		var (
			r         Relationship
			validFrom domain.Date
			validTo   sql.NullTime
			sourceIDs pq.Int64Array
		)
		if err := rows.Scan(&r.ID, &r.RelationshipType, &r.LeftEntityType, &r.LeftEntityID,
			&r.RightEntityType, &r.RightEntityID, &validFrom, &validTo, &sourceIDs); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		r.ValidFrom = validFrom
		if validTo.Valid {
			d := domain.DateOf(validTo.Time)
			r.ValidTo = &d
		}
		r.SourceIDs = []int64(sourceIDs)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	return out, nil
}

func nullableDate(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return *d
}
