package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/repository"
)

// PromotionRepository is a PostgreSQL implementation of repository.PromotionRepository.
type PromotionRepository struct {
	q Querier
}

// NewPromotionRepository creates a new PostgreSQL promotion repository.
func NewPromotionRepository(db *sql.DB) *PromotionRepository {
	return &PromotionRepository{q: db}
}

// GetByCode retrieves a promotion by its normalised code.
func (r *PromotionRepository) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	query := `
		SELECT id, code, discount_type, value, max_discount, min_amount, expires_at, usage_limit, used_count, active
		FROM promotions WHERE code = $1
	`

	var p domain.Promotion
	var expiresAt sql.NullTime
	err := r.q.QueryRowContext(ctx, query, domain.NormalizePromoCode(code)).Scan(
		&p.ID,
		&p.Code,
		&p.Type,
		&p.Value,
		&p.MaxDiscount,
		&p.MinAmount,
		&expiresAt,
		&p.UsageLimit,
		&p.UsedCount,
		&p.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if expiresAt.Valid {
		p.ExpiresAt = expiresAt.Time
	}
	return &p, nil
}

// ConsumeUsage atomically increments the used count of an eligible promotion.
func (r *PromotionRepository) ConsumeUsage(ctx context.Context, code string, now time.Time) (bool, error) {
	query := `
		UPDATE promotions
		SET used_count = used_count + 1
		WHERE code = $1 AND active AND used_count < usage_limit
			AND (expires_at IS NULL OR expires_at > $2)
	`
	result, err := r.q.ExecContext(ctx, query, domain.NormalizePromoCode(code), now)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Ensure PromotionRepository implements repository.PromotionRepository.
var _ repository.PromotionRepository = (*PromotionRepository)(nil)
