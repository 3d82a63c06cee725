package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgSlotRepository struct {
	pool *pgxpool.Pool
}

func NewPgSlotRepository(pool *pgxpool.Pool) *PgSlotRepository {
	return &PgSlotRepository{pool: pool}
}

const slotColumns = `id, starts_at, physician, specialty, description, available, holder, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var holder *string

	err := row.Scan(
		&s.ID,
		&s.StartsAt,
		&s.Physician,
		&s.Specialty,
		&s.Description,
		&s.Available,
		&holder,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.Holder = holder
	return &s, nil
}

func (r *PgSlotRepository) Create(ctx context.Context, in NewSlot) (*Slot, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO slots (id, starts_at, physician, specialty, description, available, holder, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NULL, now(), now())
		RETURNING `+slotColumns+`
	`, id, in.StartsAt, in.Physician, in.Specialty, in.Description)

	s, err := scanSlot(row)
	if err != nil {
		return nil, storeError("create slot", err)
	}
	return s, nil
}

func (r *PgSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE id = $1
	`, id)

	s, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
		return nil, storeError("get slot by id", err)
	}
	return s, nil
}

func (r *PgSlotRepository) List(ctx context.Context, filter SlotFilter) ([]Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE 1=1`
	args := []any{}

	if filter.Available != nil {
		args = append(args, *filter.Available)
		query += fmt.Sprintf(" AND available = $%d", len(args))
	}
	if filter.Holder != nil {
		args = append(args, *filter.Holder)
		query += fmt.Sprintf(" AND holder = $%d", len(args))
	}
	if filter.Specialty != "" {
		args = append(args, filter.Specialty)
		query += fmt.Sprintf(" AND specialty = $%d", len(args))
	}
	query += " ORDER BY starts_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError("list slots", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, storeError("scan slot", err)
		}
		slots = append(slots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list slots", err)
	}

	return slots, nil
}

// ReserveIfAvailable is the single-record compare-and-set: the UPDATE only
// applies while the stored row still has available = TRUE, so among
// concurrent callers exactly one commits and the rest see no row updated.
func (r *PgSlotRepository) ReserveIfAvailable(ctx context.Context, id uuid.UUID, holder string) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots
		SET available = FALSE,
		    holder = $2,
		    updated_at = now()
		WHERE id = $1
		  AND available
		RETURNING `+slotColumns+`
	`, id, holder)

	s, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			// No available row matched: either the slot is gone or someone
			// else holds it. Re-read once to report which.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrAlreadyReserved
		}
		return nil, storeError("reserve slot", err)
	}

	return s, nil
}

// storeError classifies transient infrastructure failures as
// ErrStoreUnavailable so callers can retry; everything else passes through
// wrapped.
func storeError(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
