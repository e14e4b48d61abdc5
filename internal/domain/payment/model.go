package payment

import (
	"time"

	"github.com/google/uuid"
)

// Payment status values. PAID is terminal.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
)

// Payment maps to the payment table, at most one row per visit.
type Payment struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	VisitID   uuid.UUID  `db:"visit_id" json:"visitId"`
	Amount    *float64   `db:"amount" json:"amount,omitempty"`
	Status    string     `db:"status" json:"status"`
	PaidAt    *time.Time `db:"paid_at" json:"paidAt,omitempty"`
	CashierID uuid.UUID  `db:"cashier_id" json:"cashierId"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// MarkPaidInput is the cashier's charge form. Amount is optional; the
// department waives fees case by case.
type MarkPaidInput struct {
	Amount *float64 `json:"amount,omitempty"`
}
