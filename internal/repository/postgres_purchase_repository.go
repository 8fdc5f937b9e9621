package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prohmpiriya/decaying-tickets/internal/domain"
	"github.com/prohmpiriya/decaying-tickets/pkg/database"
	"github.com/prohmpiriya/decaying-tickets/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const purchaseColumns = `id, user_id, COALESCE(user_email, ''), concert_id, section_id,
	section_name, artist_name, arena_name, total_price, donation_amount,
	purchase_date, event_date, COALESCE(impact_story, ''), COALESCE(charity_names, '{}'),
	COALESCE(receipt_summary, '')`

// PostgresPurchaseRepository implements PurchaseRepository using PostgreSQL
type PostgresPurchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPurchaseRepository creates a new PostgresPurchaseRepository
func NewPostgresPurchaseRepository(pool *pgxpool.Pool) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{pool: pool}
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	p := &domain.Purchase{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.UserEmail,
		&p.ConcertID,
		&p.SectionID,
		&p.SectionName,
		&p.ArtistName,
		&p.ArenaName,
		&p.TotalPrice,
		&p.DonationAmount,
		&p.PurchaseDate,
		&p.EventDate,
		&p.ImpactStory,
		&p.CharityNames,
		&p.ReceiptSummary,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create debits one seat from the section and inserts the purchase in a
// single transaction. No rows updated means the section is sold out.
func (r *PostgresPurchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.purchase.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("purchase_id", p.ID),
		attribute.String("user_id", p.UserID),
		attribute.String("concert_id", p.ConcertID),
		attribute.String("section_id", p.SectionID),
	)

	charityNames := p.CharityNames
	if charityNames == nil {
		charityNames = []string{}
	}

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE arena_sections
			SET available_seats = available_seats - 1, updated_at = NOW()
			WHERE id = $1 AND available_seats >= 1
		`, p.SectionID)
		if err != nil {
			return fmt.Errorf("failed to debit section: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrSoldOut
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO purchases (
				id, user_id, user_email, concert_id, section_id,
				section_name, artist_name, arena_name, total_price, donation_amount,
				purchase_date, event_date, impact_story, charity_names, receipt_summary
			) VALUES (
				$1, $2, $3, $4, $5,
				$6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15
			)
		`,
			p.ID,
			p.UserID,
			p.UserEmail,
			p.ConcertID,
			p.SectionID,
			p.SectionName,
			p.ArtistName,
			p.ArenaName,
			p.TotalPrice,
			p.DonationAmount,
			p.PurchaseDate,
			p.EventDate,
			p.ImpactStory,
			charityNames,
			p.ReceiptSummary,
		)
		if err != nil {
			return fmt.Errorf("failed to insert purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListByUser returns a user's purchases, newest first
func (r *PostgresPurchaseRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Purchase, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.purchase.list_by_user")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	return r.list(ctx, `WHERE user_id = $1`, []any{userID}, limit, offset)
}

// ListAll returns every purchase, newest first
func (r *PostgresPurchaseRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Purchase, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.purchase.list_all")
	defer span.End()

	return r.list(ctx, ``, nil, limit, offset)
}

func (r *PostgresPurchaseRepository) list(ctx context.Context, where string, args []any, limit, offset int) ([]*domain.Purchase, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM purchases %s
		ORDER BY purchase_date DESC, id
		LIMIT $%d OFFSET $%d`, purchaseColumns, where, n+1, n+2)

	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []*domain.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating purchases: %w", err)
	}
	return purchases, total, nil
}

var _ PurchaseRepository = (*PostgresPurchaseRepository)(nil)
