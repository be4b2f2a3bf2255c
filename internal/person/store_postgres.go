package person

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"stemma/pkg/domain"
	"stemma/pkg/platform/sentinel"
)

// Postgres reads person snapshots from the persons table.
//
// Expected schema:
//
//	CREATE TABLE persons (
//	    id           BIGINT PRIMARY KEY,
//	    primary_name TEXT NOT NULL,
//	    sex          TEXT,
//	    birth_date   DATE,
//	    death_date   DATE,
//	    valid_from   DATE NOT NULL,
//	    valid_to     DATE
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const personColumns = `id, primary_name, sex, birth_date, death_date, valid_from, valid_to`

func (s *Postgres) Get(ctx context.Context, id int64) (*Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1`, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get person %d: %w", id, err)
	}
	return p, nil
}

func (s *Postgres) GetMany(ctx context.Context, ids []int64) (map[int64]*Person, error) {
	out := make(map[int64]*Person, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get persons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get persons: %w", err)
	}
	return out, nil
}

func (s *Postgres) Put(ctx context.Context, p *Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (`+personColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			primary_name = EXCLUDED.primary_name,
			sex          = EXCLUDED.sex,
			birth_date   = EXCLUDED.birth_date,
			death_date   = EXCLUDED.death_date,
			valid_from   = EXCLUDED.valid_from,
			valid_to     = EXCLUDED.valid_to`,
		p.ID, p.PrimaryName, p.Sex, nullableDate(p.BirthDate), nullableDate(p.DeathDate),
		p.ValidFrom, nullableDate(p.ValidTo))
	if err != nil {
		return fmt.Errorf("put person %d: %w", p.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*Person, error) {
	var (
		p         Person
		sex       sql.NullString
		birth     sql.NullTime
		death     sql.NullTime
		validFrom domain.Date
		validTo   sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.PrimaryName, &sex, &birth, &death, &validFrom, &validTo); err != nil {
		return nil, err
	}
	if sex.Valid {
		p.Sex = &sex.String
	}
	p.BirthDate = datePtr(birth)
	p.DeathDate = datePtr(death)
	p.ValidFrom = validFrom
	p.ValidTo = datePtr(validTo)
	return &p, nil
}

func datePtr(t sql.NullTime) *domain.Date {
	if !t.Valid {
		return nil
	}
	d := domain.DateOf(t.Time)
	return &d
}

func nullableDate(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return *d
}
