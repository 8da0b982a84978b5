package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"racelog/internal/domain"
)

const raceColumns = `id, user_id, name, date, url, source, location, distance, description, level, surface, weather, created_at, updated_at`

// RaceRepositoryPG implements domain.RaceRepository backed by PostgreSQL.
type RaceRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewRaceRepository creates a new RaceRepositoryPG.
func NewRaceRepository(pool *pgxpool.Pool) *RaceRepositoryPG {
	return &RaceRepositoryPG{pool: pool}
}

// Insert persists a new race entry and backfills the database timestamps.
func (r *RaceRepositoryPG) Insert(ctx context.Context, race *domain.Race) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO races (id, user_id, name, date, url, source, location, distance, description, level, surface, weather)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING created_at, updated_at;
`,
		race.ID,
		race.UserID,
		race.Name,
		race.Date,
		race.URL,
		race.Source,
		race.Location,
		race.Distance,
		race.Description,
		race.Level,
		race.Surface,
		race.Weather,
	)
	return row.Scan(&race.CreatedAt, &race.UpdatedAt)
}

// GetByID fetches a race owned by ownerID. A race under a different owner is
// indistinguishable from an absent one.
func (r *RaceRepositoryPG) GetByID(ctx context.Context, ownerID, id string) (*domain.Race, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+raceColumns+` FROM races WHERE id = $1 AND user_id = $2`, id, ownerID)
	return scanRace(row)
}

// List returns the owner's races matching the filter, newest race date first.
// Ties on date keep insertion order.
func (r *RaceRepositoryPG) List(ctx context.Context, ownerID string, filter domain.RaceFilter) ([]domain.Race, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + raceColumns + ` FROM races WHERE user_id = $1`)
	args = append(args, ownerID)

	addExact := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		fmt.Fprintf(&sb, ` AND %s = $%d`, column, len(args))
	}

	if filter.Search != "" {
		args = append(args, filter.Search)
		fmt.Fprintf(&sb, ` AND (name ILIKE '%%' || $%d || '%%' OR location ILIKE '%%' || $%d || '%%')`, len(args), len(args))
	}
	addExact("source", filter.Source)
	addExact("level", filter.Level)
	addExact("surface", filter.Surface)
	addExact("weather", filter.Weather)

	sb.WriteString(` ORDER BY date DESC, created_at ASC, id ASC`)

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *race)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites a race row. The owner predicate keeps the update from ever
// touching another account's record.
func (r *RaceRepositoryPG) Update(ctx context.Context, race *domain.Race) error {
	row := r.pool.QueryRow(ctx, `
UPDATE races
SET name = $3,
    date = $4,
    url = $5,
    source = $6,
    location = $7,
    distance = $8,
    description = $9,
    level = $10,
    surface = $11,
    weather = $12,
    updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING updated_at;
`,
		race.ID,
		race.UserID,
		race.Name,
		race.Date,
		race.URL,
		race.Source,
		race.Location,
		race.Distance,
		race.Description,
		race.Level,
		race.Surface,
		race.Weather,
	)
	if err := row.Scan(&race.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a race owned by ownerID. Deleting an absent or foreign race
// reports domain.ErrNotFound.
func (r *RaceRepositoryPG) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM races WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRace(row pgx.Row) (*domain.Race, error) {
	var race domain.Race
	err := row.Scan(
		&race.ID,
		&race.UserID,
		&race.Name,
		&race.Date,
		&race.URL,
		&race.Source,
		&race.Location,
		&race.Distance,
		&race.Description,
		&race.Level,
		&race.Surface,
		&race.Weather,
		&race.CreatedAt,
		&race.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &race, nil
}
