package triage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PatientRepository persists patients.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// GetByExpediente returns the patient with the given chart number,
	// or a NotFound error.
	GetByExpediente(ctx context.Context, expediente string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
}

// VisitRepository persists visits and serves the worklist projections.
type VisitRepository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	// GetForUpdate locks the visit row for the rest of the enclosing
	// transaction. Concurrent state transitions serialize on this lock.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error)
	Update(ctx context.Context, v *Visit) error
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)

	// Worklists. All take the [start, end) window of the department's
	// civil day and order by classification desc, then arrival asc.
	ListCashierPending(ctx context.Context, start, end time.Time) ([]*QueueEntry, error)
	ListDoctorQueue(ctx context.Context, start, end time.Time) ([]*QueueEntry, error)
	ListDoctorWaiting(ctx context.Context, start, end time.Time) ([]*QueueEntry, error)
	ListNurseRecent(ctx context.Context, nurseID uuid.UUID, start, end time.Time) ([]*QueueEntry, error)
}
