package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const watcherColumns = `id, user_id, concert_id, section_id, target_price, created_at,
	triggered_at, COALESCE(triggered_price, 0)`

// PostgresWatcherRepository implements WatcherRepository using PostgreSQL
type PostgresWatcherRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresWatcherRepository creates a new PostgresWatcherRepository
func NewPostgresWatcherRepository(pool *pgxpool.Pool) *PostgresWatcherRepository {
	return &PostgresWatcherRepository{pool: pool}
}

func scanWatcher(row pgx.Row) (*domain.Watcher, error) {
	w := &domain.Watcher{}
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.ConcertID,
		&w.SectionID,
		&w.TargetPrice,
		&w.CreatedAt,
		&w.TriggeredAt,
		&w.TriggeredPrice,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *PostgresWatcherRepository) Create(ctx context.Context, w *domain.Watcher) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.watcher.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("watcher_id", w.ID),
		attribute.String("concert_id", w.ConcertID),
	)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO price_watchers (id, user_id, concert_id, section_id, target_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, w.ID, w.UserID, w.ConcertID, w.SectionID, w.TargetPrice, w.CreatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresWatcherRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Watcher, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.watcher.list_by_user")
	defer span.End()

	return r.query(ctx, `SELECT `+watcherColumns+` FROM price_watchers
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *PostgresWatcherRepository) ListPending(ctx context.Context) ([]*domain.Watcher, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.watcher.list_pending")
	defer span.End()

	return r.query(ctx, `SELECT `+watcherColumns+` FROM price_watchers
		WHERE triggered_at IS NULL ORDER BY created_at`)
}

// MarkTriggered sets triggered_at only on rows that have not fired yet
func (r *PostgresWatcherRepository) MarkTriggered(ctx context.Context, id string, at time.Time, price float64) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.watcher.mark_triggered")
	defer span.End()
	span.SetAttributes(attribute.String("watcher_id", id))

	tag, err := r.pool.Exec(ctx, `
		UPDATE price_watchers
		SET triggered_at = $2, triggered_price = $3
		WHERE id = $1 AND triggered_at IS NULL
	`, id, at, price)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to mark watcher triggered: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresWatcherRepository) query(ctx context.Context, sql string, args ...any) ([]*domain.Watcher, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchers: %w", err)
	}
	defer rows.Close()

	watchers := []*domain.Watcher{}
	for rows.Next() {
		w, err := scanWatcher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watcher: %w", err)
		}
		watchers = append(watchers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchers: %w", err)
	}
	return watchers, nil
}

var _ WatcherRepository = (*PostgresWatcherRepository)(nil)
