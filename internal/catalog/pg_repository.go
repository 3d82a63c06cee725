package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, name, description string) (*Specialty, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO specialties (name, description, created_at)
		VALUES ($1, $2, now())
		RETURNING name, description, created_at
	`, name, description)

	var sp Specialty
	if err := row.Scan(&sp.Name, &sp.Description, &sp.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("insert specialty: %w", err)
	}

	return &sp, nil
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Specialty, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, description, created_at
		FROM specialties
		ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query specialties: %w", err)
	}
	defer rows.Close()

	var specialties []Specialty
	for rows.Next() {
		var sp Specialty
		if err := rows.Scan(&sp.Name, &sp.Description, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan specialty: %w", err)
		}
		specialties = append(specialties, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query specialties: %w", err)
	}

	return specialties, nil
}
