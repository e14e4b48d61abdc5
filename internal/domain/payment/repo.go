package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists payments.
type Repository interface {
	// Upsert records the charge for a visit, overwriting any stale
	// pending row left by an earlier attempt.
	Upsert(ctx context.Context, p *Payment) error
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Payment, error)
}
