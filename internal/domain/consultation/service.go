package consultation

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
	notes  Repository
	visits triage.VisitRepository
	runner db.Runner
	pub    events.Publisher
	loc    *time.Location
}

func NewService(notes Repository, visits triage.VisitRepository, runner db.Runner, pub events.Publisher, loc *time.Location) *Service {
	return &Service{notes: notes, visits: visits, runner: runner, pub: pub, loc: loc}
}

// Claim takes the visit into the consultation room. It requires the
// visit to be paid and refuses a visit another doctor already started.
// The visit row lock serializes concurrent claims so exactly one
// doctor wins; the loser gets a conflict. Re-claiming your own open
// visit is a no-op confirmation.
func (s *Service) Claim(ctx context.Context, doctorID, visitID uuid.UUID) (*Note, error) {
	var (
		note    *Note
		started bool
	)
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		v, err := s.visits.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		if v.PaidStatus != triage.PaidPaid {
			return apperr.New(apperr.Precondition, "visit is not paid yet")
		}

		existing, err := s.notes.GetByVisit(ctx, visitID)
		switch {
		case apperr.IsKind(err, apperr.NotFound):
			now := time.Now().UTC()
			note = &Note{VisitID: visitID, DoctorID: doctorID, StartedAt: &now}
			started = true
			return s.notes.Create(ctx, note)
		case err != nil:
			return err
		}

		if existing.StartedAt != nil && existing.DoctorID != doctorID {
			return apperr.New(apperr.Conflict, "visit is already being attended by another doctor")
		}

		note = existing
		note.DoctorID = doctorID
		if note.StartedAt == nil {
			now := time.Now().UTC()
			note.StartedAt = &now
			started = true
		}
		return s.notes.Update(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	if started {
		s.pub.Publish(events.ConsultationStarted, visitID.String(), claimPayload{VisitID: visitID, DoctorID: doctorID})
	}
	return note, nil
}

type claimPayload struct {
	VisitID  uuid.UUID `json:"visitId"`
	DoctorID uuid.UUID `json:"doctorId"`
}

// UpdateNote merges the doctor's edits into the note. Only the owning
// doctor may write, a finished note is read-only and the started and
// finished stamps are never touched here.
func (s *Service) UpdateNote(ctx context.Context, doctorID, visitID uuid.UUID, in NoteInput) (*Note, error) {
	var note *Note
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.visits.GetForUpdate(ctx, visitID); err != nil {
			return err
		}
		existing, err := s.notes.GetByVisit(ctx, visitID)
		if err != nil {
			return err
		}
		if existing.DoctorID != doctorID {
			return apperr.New(apperr.Conflict, "visit belongs to another doctor")
		}
		if existing.FinishedAt != nil {
			return apperr.New(apperr.Conflict, "consultation already finished")
		}

		applyNoteInput(existing, in)
		note = existing
		return s.notes.Update(ctx, existing)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

func applyNoteInput(n *Note, in NoteInput) {
	if in.PresentIllness != nil {
		n.PresentIllness = *in.PresentIllness
	}
	if in.History != nil {
		n.History = *in.History
	}
	if in.PhysicalExam != nil {
		n.PhysicalExam = *in.PhysicalExam
	}
	if in.Studies != nil {
		n.Studies = *in.Studies
	}
	if in.Diagnosis != nil {
		n.Diagnosis = *in.Diagnosis
	}
	if in.TreatmentPlan != nil {
		n.TreatmentPlan = *in.TreatmentPlan
	}
	if in.Prognosis != nil {
		n.Prognosis = *in.Prognosis
	}
	if in.WatchFor != nil {
		n.WatchFor = *in.WatchFor
	}
	if in.ReferralFollowUp != nil {
		n.ReferralFollowUp = *in.ReferralFollowUp
	}
	if in.ReferralWhen != nil {
		n.ReferralWhen = in.ReferralWhen
	}
	if !n.ReferralFollowUp {
		n.ReferralWhen = nil
	}
}

// Finish closes the consultation. Owner-only and terminal: a second
// finish returns the note unchanged with its original timestamp.
func (s *Service) Finish(ctx context.Context, doctorID, visitID uuid.UUID) (*Note, error) {
	var (
		note     *Note
		finished bool
	)
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.visits.GetForUpdate(ctx, visitID); err != nil {
			return err
		}
		existing, err := s.notes.GetByVisit(ctx, visitID)
		if err != nil {
			return err
		}
		if existing.DoctorID != doctorID {
			return apperr.New(apperr.Conflict, "visit belongs to another doctor")
		}

		if existing.FinishedAt == nil {
			now := time.Now().UTC()
			existing.FinishedAt = &now
			if err := s.notes.Update(ctx, existing); err != nil {
				return err
			}
			finished = true
		}
		note = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if finished {
		s.pub.Publish(events.ConsultationFinished, visitID.String(), claimPayload{VisitID: visitID, DoctorID: doctorID})
	}
	return note, nil
}

// GetNote returns the note for a visit.
func (s *Service) GetNote(ctx context.Context, visitID uuid.UUID) (*Note, error) {
	return s.notes.GetByVisit(ctx, visitID)
}

// MyConsulting lists the doctor's open consultations today.
func (s *Service) MyConsulting(ctx context.Context, doctorID uuid.UUID) ([]*triage.QueueEntry, error) {
	start, end := triage.DayWindow(time.Now(), s.loc)
	return s.notes.ListConsulting(ctx, doctorID, start, end)
}

// MyAttended lists the doctor's finished consultations today.
func (s *Service) MyAttended(ctx context.Context, doctorID uuid.UUID) ([]*triage.QueueEntry, error) {
	start, end := triage.DayWindow(time.Now(), s.loc)
	return s.notes.ListAttended(ctx, doctorID, start, end)
}
