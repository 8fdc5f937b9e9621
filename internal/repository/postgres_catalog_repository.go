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

const artistColumns = `id, name, COALESCE(genre, '') as genre,
	COALESCE(description, '') as description, COALESCE(image, '') as image`

const sectionColumns = `id, arena_id, name, base_price, total_seats, available_seats`

// PostgresCatalogRepository implements CatalogRepository using PostgreSQL
type PostgresCatalogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCatalogRepository creates a new PostgresCatalogRepository
func NewPostgresCatalogRepository(pool *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{pool: pool}
}

func scanArtist(row pgx.Row) (*domain.Artist, error) {
	a := &domain.Artist{}
	if err := row.Scan(&a.ID, &a.Name, &a.Genre, &a.Description, &a.Image); err != nil {
		return nil, err
	}
	return a, nil
}

func scanSection(row pgx.Row) (*domain.ArenaSection, error) {
	s := &domain.ArenaSection{}
	err := row.Scan(&s.ID, &s.ArenaID, &s.Name, &s.BasePrice, &s.TotalSeats, &s.AvailableSeats)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetArtist loads an artist together with their charity causes
func (r *PostgresCatalogRepository) GetArtist(ctx context.Context, id string) (*domain.Artist, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.get_artist")
	defer span.End()
	span.SetAttributes(attribute.String("artist_id", id))

	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = $1`
	artist, err := scanArtist(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrArtistNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}

	causes, err := r.causesByArtist(ctx, []string{id})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	artist.CharityCauses = causes[id]

	span.SetStatus(codes.Ok, "")
	return artist, nil
}

// SearchArtists returns artists whose name contains query, ignoring case
func (r *PostgresCatalogRepository) SearchArtists(ctx context.Context, query string) ([]*domain.Artist, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.search_artists")
	defer span.End()

	sql := `SELECT ` + artistColumns + ` FROM artists
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		ORDER BY name`

	rows, err := r.pool.Query(ctx, sql, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to search artists: %w", err)
	}
	defer rows.Close()

	var artists []*domain.Artist
	var ids []string
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artists: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Artist{}, nil
	}

	causes, err := r.causesByArtist(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range artists {
		a.CharityCauses = causes[a.ID]
	}

	span.SetAttributes(attribute.Int("result_count", len(artists)))
	span.SetStatus(codes.Ok, "")
	return artists, nil
}

func (r *PostgresCatalogRepository) causesByArtist(ctx context.Context, artistIDs []string) (map[string][]domain.CharityCause, error) {
	query := `
		SELECT artist_id, id, name, COALESCE(description, ''), COALESCE(icon, '')
		FROM charity_causes
		WHERE artist_id = ANY($1)
		ORDER BY artist_id, sort_order, id
	`
	rows, err := r.pool.Query(ctx, query, artistIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load charity causes: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.CharityCause, len(artistIDs))
	for rows.Next() {
		var artistID string
		var c domain.CharityCause
		if err := rows.Scan(&artistID, &c.ID, &c.Name, &c.Description, &c.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan charity cause: %w", err)
		}
		out[artistID] = append(out[artistID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating charity causes: %w", err)
	}
	return out, nil
}

// GetArena loads an arena and its sections
func (r *PostgresCatalogRepository) GetArena(ctx context.Context, id string) (*domain.Arena, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.get_arena")
	defer span.End()
	span.SetAttributes(attribute.String("arena_id", id))

	arena := &domain.Arena{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(city, ''), capacity FROM arenas WHERE id = $1`, id,
	).Scan(&arena.ID, &arena.Name, &arena.City, &arena.Capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrArenaNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get arena: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+sectionColumns+` FROM arena_sections WHERE arena_id = $1 ORDER BY sort_order, id`, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		arena.Sections = append(arena.Sections, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sections: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return arena, nil
}

// GetSection loads a single section
func (r *PostgresCatalogRepository) GetSection(ctx context.Context, id string) (*domain.ArenaSection, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.catalog.get_section")
	defer span.End()
	span.SetAttributes(attribute.String("section_id", id))

	s, err := scanSection(r.pool.QueryRow(ctx,
		`SELECT `+sectionColumns+` FROM arena_sections WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrSectionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return s, nil
}

var _ CatalogRepository = (*PostgresCatalogRepository)(nil)
