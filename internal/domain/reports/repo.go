package reports

import (
	"context"
	"time"

	"github.com/edflow/edflow/internal/domain/triage"
)

// Filter is the resolved attended-listing filter.
type Filter struct {
	Start          time.Time
	End            time.Time
	Classification *triage.Severity
	Search         string
}

// Repository reads finished visits for reporting.
type Repository interface {
	// ListAttended returns visits whose consultation finished, in
	// arrival order, within [Start, End).
	ListAttended(ctx context.Context, f Filter) ([]*AttendedRow, error)
}
