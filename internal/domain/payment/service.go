package payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/domain/triage"
	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/db"
	"github.com/edflow/edflow/internal/platform/events"
)

type Service struct {
	payments Repository
	visits   triage.VisitRepository
	runner   db.Runner
	pub      events.Publisher
}

func NewService(payments Repository, visits triage.VisitRepository, runner db.Runner, pub events.Publisher) *Service {
	return &Service{payments: payments, visits: visits, runner: runner, pub: pub}
}

// MarkPaid settles a visit. The operation is idempotent: charging an
// already-paid visit returns the current state without touching it and
// without re-notifying anyone. The visit row lock serializes this
// against concurrent claims and revaluations.
func (s *Service) MarkPaid(ctx context.Context, cashierID, visitID uuid.UUID, in MarkPaidInput) (*triage.Detail, error) {
	if in.Amount != nil && *in.Amount < 0 {
		return nil, apperr.New(apperr.Validation, "amount must not be negative")
	}

	var (
		detail  *triage.Detail
		changed bool
	)
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		v, err := s.visits.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}

		if v.PaidStatus != triage.PaidPaid {
			v.PaidStatus = triage.PaidPaid
			if err := s.visits.Update(ctx, v); err != nil {
				return err
			}
			now := time.Now().UTC()
			p := &Payment{
				VisitID:   visitID,
				Amount:    in.Amount,
				Status:    StatusPaid,
				PaidAt:    &now,
				CashierID: cashierID,
			}
			if err := s.payments.Upsert(ctx, p); err != nil {
				return err
			}
			changed = true
		}

		detail, err = s.visits.GetDetail(ctx, visitID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.pub.Publish(events.TriageUpdated, visitID.String(), detail)
		s.pub.Publish(events.PaymentPaid, visitID.String(), detail)
	}
	return detail, nil
}

// GetByVisit returns the payment recorded for a visit.
func (s *Service) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Payment, error) {
	return s.payments.GetByVisit(ctx, visitID)
}
