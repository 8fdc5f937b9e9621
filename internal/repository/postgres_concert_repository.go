package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const concertColumns = `id, artist_id, arena_id, date, launch_date, floor_date,
	max_multiplier, COALESCE(charity_ids, '{}'), created_at`

// PostgresConcertRepository implements ConcertRepository using PostgreSQL
type PostgresConcertRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresConcertRepository creates a new PostgresConcertRepository
func NewPostgresConcertRepository(pool *pgxpool.Pool) *PostgresConcertRepository {
	return &PostgresConcertRepository{pool: pool}
}

func scanConcert(row pgx.Row) (*domain.Concert, error) {
	c := &domain.Concert{}
	err := row.Scan(
		&c.ID,
		&c.ArtistID,
		&c.ArenaID,
		&c.Date,
		&c.LaunchDate,
		&c.FloorDate,
		&c.MaxMultiplier,
		&c.CharityIDs,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a concert
func (r *PostgresConcertRepository) Create(ctx context.Context, concert *domain.Concert) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.concert.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("concert_id", concert.ID),
		attribute.String("artist_id", concert.ArtistID),
	)

	charityIDs := concert.CharityIDs
	if charityIDs == nil {
		charityIDs = []string{}
	}

	query := `
		INSERT INTO concerts (
			id, artist_id, arena_id, date, launch_date, floor_date,
			max_multiplier, charity_ids, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		concert.ID,
		concert.ArtistID,
		concert.ArenaID,
		concert.Date,
		concert.LaunchDate,
		concert.FloorDate,
		concert.MaxMultiplier,
		charityIDs,
		concert.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create concert: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a concert by its ID
func (r *PostgresConcertRepository) GetByID(ctx context.Context, id string) (*domain.Concert, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.concert.get_by_id")
	defer span.End()
	span.SetAttributes(attribute.String("concert_id", id))

	c, err := scanConcert(r.pool.QueryRow(ctx, `SELECT `+concertColumns+` FROM concerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrConcertNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get concert: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return c, nil
}

// List returns concerts ordered by date
func (r *PostgresConcertRepository) List(ctx context.Context, artistID string) ([]*domain.Concert, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.concert.list")
	defer span.End()

	query := `SELECT ` + concertColumns + ` FROM concerts
		WHERE $1 = '' OR artist_id = $1
		ORDER BY date`

	rows, err := r.pool.Query(ctx, query, artistID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list concerts: %w", err)
	}
	defer rows.Close()

	concerts := []*domain.Concert{}
	for rows.Next() {
		c, err := scanConcert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan concert: %w", err)
		}
		concerts = append(concerts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating concerts: %w", err)
	}

	span.SetAttributes(attribute.Int("result_count", len(concerts)))
	span.SetStatus(codes.Ok, "")
	return concerts, nil
}

var _ ConcertRepository = (*PostgresConcertRepository)(nil)
