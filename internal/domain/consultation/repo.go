package consultation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/domain/triage"
)

// Repository persists consultation notes and serves the doctor's own
// worklists.
type Repository interface {
	Create(ctx context.Context, n *Note) error
	Update(ctx context.Context, n *Note) error
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Note, error)

	// ListConsulting returns today's paid visits the doctor has open
	// (started, not finished). ListAttended returns the finished ones,
	// newest arrival first.
	ListConsulting(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*triage.QueueEntry, error)
	ListAttended(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*triage.QueueEntry, error)
}
