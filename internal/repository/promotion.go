package repository

import (
	"context"
	"time"

	"tripdispatch/internal/domain"
)

// PromotionRepository defines the persistence operations for promo codes.
type PromotionRepository interface {
	// GetByCode retrieves a promotion by its normalised code.
	GetByCode(ctx context.Context, code string) (*domain.Promotion, error)

	// ConsumeUsage atomically increments the used count if the promotion is
	// active, unexpired at now and below its usage limit. It reports whether
	// the increment happened.
	ConsumeUsage(ctx context.Context, code string, now time.Time) (bool, error)
}
