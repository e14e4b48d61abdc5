package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

func (r *repoPG) Upsert(ctx context.Context, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment (id, visit_id, amount, status, paid_at, cashier_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (visit_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			status = EXCLUDED.status,
			paid_at = EXCLUDED.paid_at,
			cashier_id = EXCLUDED.cashier_id,
			updated_at = NOW()`,
		p.ID, p.VisitID, p.Amount, p.Status, p.PaidAt, p.CashierID)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "upsert payment")
	}
	return nil
}

func (r *repoPG) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Payment, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_id, amount, status, paid_at, cashier_id, created_at, updated_at
		FROM payment WHERE visit_id = $1`, visitID)

	var p Payment
	err := row.Scan(&p.ID, &p.VisitID, &p.Amount, &p.Status, &p.PaidAt, &p.CashierID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "payment not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "scan payment")
	}
	return &p, nil
}
