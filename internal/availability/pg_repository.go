package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const eventColumns = `id, kind, starts_at, ends_at, weekly_recurring, created_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	var recurring *bool

	err := row.Scan(
		&ev.ID,
		&ev.Kind,
		&ev.StartsAt,
		&ev.EndsAt,
		&recurring,
		&ev.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	ev.WeeklyRecurring = recurring != nil && *recurring
	return &ev, nil
}

// ListEventsInWindow keeps insertion order so repeated computations over the
// same rows produce the same slot order.
func (r *PgRepository) ListEventsInWindow(ctx context.Context, start, end time.Time) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE (weekly_recurring = true AND starts_at < $2)
		   OR (ends_at >= $1 AND starts_at < $2)
		ORDER BY created_at, id
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = $1
	`, id)
	return scanEvent(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev NewEvent) (*Event, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (id, kind, starts_at, ends_at, weekly_recurring, created_at)
		VALUES ($1, $2, $3, $4, $5, clock_timestamp())
		RETURNING `+eventColumns+`
	`, uuid.New(), ev.Kind, ev.StartsAt, ev.EndsAt, ev.WeeklyRecurring)

	created, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

func (r *PgRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}
