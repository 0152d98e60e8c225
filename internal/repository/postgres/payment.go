package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

const paymentColumns = `id, trip_id, amount, method, status, idempotency_key, created_at`

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	err := row.Scan(
		&payment.ID,
		&payment.TripID,
		&payment.Amount,
		&payment.Method,
		&payment.Status,
		&payment.IdempotencyKey,
		&payment.CreatedAt,
	)
	return &payment, err
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, trip_id, amount, method, status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.TripID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.IdempotencyKey,
		payment.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetByIdempotencyKey retrieves a payment by its idempotency key.
// Returns nil if no payment exists with the given key.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// UpdateStatus updates the status of a payment.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE payments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// Ensure PaymentRepository implements repository.PaymentRepository.
var _ repository.PaymentRepository = (*PaymentRepository)(nil)
