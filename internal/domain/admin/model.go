package admin

import (
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/domain/consultation"
	"github.com/edflow/edflow/internal/domain/triage"
)

// Detail is the administrator's full view of a visit: everything the
// consultation room sees plus the note body.
type Detail struct {
	triage.Detail
	Note *consultation.Note `json:"note,omitempty"`
}

// PatientEdit is a partial patient correction. Nil means keep.
type PatientEdit struct {
	Expediente      *string `json:"expediente,omitempty"`
	FullName        *string `json:"fullName,omitempty"`
	Age             *int    `json:"age,omitempty"`
	Sex             *string `json:"sex,omitempty"`
	SpeaksMaya      *bool   `json:"speaksMaya,omitempty"`
	ResponsibleName *string `json:"responsibleName,omitempty"`
}

// VisitEdit is a partial visit correction. Axis edits recompute the
// classification; it cannot be set directly.
type VisitEdit struct {
	Reason *string `json:"reason,omitempty"`
	triage.RevalueInput
}

// NoteEdit is a partial note correction. Unlike the doctor's own
// editing, the administrator may adjust the consultation stamps to fix
// data-entry mistakes.
type NoteEdit struct {
	consultation.NoteInput
	StartedAt  *time.Time `json:"consultationStartedAt,omitempty"`
	FinishedAt *time.Time `json:"consultationFinishedAt,omitempty"`
}

// PaymentEdit is a partial payment correction.
type PaymentEdit struct {
	Status    *string    `json:"status,omitempty"`
	Amount    *float64   `json:"amount,omitempty"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`
	CashierID *uuid.UUID `json:"cashierId,omitempty"`
}

// UpdateDetailInput bundles the cross-cutting edit. All sections are
// optional and applied in one transaction.
type UpdateDetailInput struct {
	Patient *PatientEdit `json:"patient,omitempty"`
	Visit   *VisitEdit   `json:"visit,omitempty"`
	Note    *NoteEdit    `json:"note,omitempty"`
	Payment *PaymentEdit `json:"payment,omitempty"`
}
