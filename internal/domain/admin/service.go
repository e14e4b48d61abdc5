package admin

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/domain/consultation"
	"github.com/edflow/edflow/internal/domain/payment"
	"github.com/edflow/edflow/internal/domain/triage"
	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/db"
	"github.com/edflow/edflow/internal/platform/events"
)

type Service struct {
	patients triage.PatientRepository
	visits   triage.VisitRepository
	notes    consultation.Repository
	payments payment.Repository
	runner   db.Runner
	pub      events.Publisher
}

func NewService(patients triage.PatientRepository, visits triage.VisitRepository,
	notes consultation.Repository, payments payment.Repository,
	runner db.Runner, pub events.Publisher) *Service {
	return &Service{patients: patients, visits: visits, notes: notes, payments: payments, runner: runner, pub: pub}
}

// GetDetail returns the full visit picture including the note body.
func (s *Service) GetDetail(ctx context.Context, visitID uuid.UUID) (*Detail, error) {
	base, err := s.visits.GetDetail(ctx, visitID)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Detail: *base}

	note, err := s.notes.GetByVisit(ctx, visitID)
	switch {
	case err == nil:
		detail.Note = note
	case !apperr.IsKind(err, apperr.NotFound):
		return nil, err
	}
	return detail, nil
}

// UpdateDetail applies corrections across the patient, visit, note and
// payment in one transaction, holding the visit row lock so concurrent
// cashier and doctor operations serialize against it. Every connected
// role is told afterwards.
func (s *Service) UpdateDetail(ctx context.Context, visitID uuid.UUID, in UpdateDetailInput) (*Detail, error) {
	var detail *Detail
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		v, err := s.visits.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}

		if in.Patient != nil {
			if err := s.applyPatient(ctx, v.PatientID, *in.Patient); err != nil {
				return err
			}
		}
		if in.Visit != nil {
			if err := applyVisit(v, *in.Visit); err != nil {
				return err
			}
			if err := s.visits.Update(ctx, v); err != nil {
				return err
			}
		}
		if in.Note != nil {
			if err := s.applyNote(ctx, visitID, *in.Note); err != nil {
				return err
			}
		}
		if in.Payment != nil {
			if err := s.applyPayment(ctx, v, *in.Payment); err != nil {
				return err
			}
		}

		detail, err = s.getDetailTx(ctx, visitID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.pub.Publish(events.AdminUpdated, visitID.String(), detail)
	return detail, nil
}

func (s *Service) getDetailTx(ctx context.Context, visitID uuid.UUID) (*Detail, error) {
	base, err := s.visits.GetDetail(ctx, visitID)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Detail: *base}
	note, err := s.notes.GetByVisit(ctx, visitID)
	switch {
	case err == nil:
		detail.Note = note
	case !apperr.IsKind(err, apperr.NotFound):
		return nil, err
	}
	return detail, nil
}

func (s *Service) applyPatient(ctx context.Context, patientID uuid.UUID, in PatientEdit) error {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return err
	}
	if in.Expediente != nil {
		p.Expediente = trimmedOrNil(in.Expediente)
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return apperr.New(apperr.Validation, "patient name must not be empty")
		}
		p.FullName = name
	}
	if in.Age != nil {
		p.Age = in.Age
	}
	if in.Sex != nil {
		switch strings.ToUpper(strings.TrimSpace(*in.Sex)) {
		case "M":
			p.Sex = strPtr("M")
		case "F":
			p.Sex = strPtr("F")
		case "O", "X":
			p.Sex = strPtr("O")
		default:
			return apperr.New(apperr.Validation, "unknown sex %q", *in.Sex)
		}
	}
	if in.SpeaksMaya != nil {
		p.SpeaksMaya = *in.SpeaksMaya
	}
	if in.ResponsibleName != nil {
		p.ResponsibleName = trimmedOrNil(in.ResponsibleName)
	}
	return s.patients.Update(ctx, p)
}

// applyVisit merges the edit and re-derives the classification. The
// classification is never set directly, even by the administrator.
func applyVisit(v *triage.Visit, in VisitEdit) error {
	if in.Reason != nil {
		reason := strings.TrimSpace(*in.Reason)
		if reason == "" {
			return apperr.New(apperr.Validation, "reason must not be empty")
		}
		v.Reason = reason
	}

	appearance, breathing, circulation := v.Appearance, v.Breathing, v.Circulation
	var err error
	if in.Appearance != nil {
		if appearance, err = triage.ParseSeverity(*in.Appearance); err != nil {
			return err
		}
	}
	if in.Breathing != nil {
		if breathing, err = triage.ParseSeverity(*in.Breathing); err != nil {
			return err
		}
	}
	if in.Circulation != nil {
		if circulation, err = triage.ParseSeverity(*in.Circulation); err != nil {
			return err
		}
	}
	v.Appearance, v.Breathing, v.Circulation = appearance, breathing, circulation
	v.Classification = triage.Worst(appearance, breathing, circulation)

	if in.WeightKg != nil {
		v.WeightKg = in.WeightKg
	}
	if in.HeightCm != nil {
		v.HeightCm = in.HeightCm
	}
	if in.TemperatureC != nil {
		v.TemperatureC = in.TemperatureC
	}
	if in.HeartRate != nil {
		v.HeartRate = in.HeartRate
	}
	if in.RespiratoryRate != nil {
		v.RespiratoryRate = in.RespiratoryRate
	}
	if in.BloodPressure != nil {
		v.BloodPressure = trimmedOrNil(in.BloodPressure)
	}
	if in.HadPriorCare != nil {
		v.HadPriorCare = *in.HadPriorCare
	}
	if in.PriorCarePlace != nil {
		v.PriorCarePlace = trimmedOrNil(in.PriorCarePlace)
	}
	if in.HasReferral != nil {
		v.HasReferral = *in.HasReferral
	}
	if in.ReferralPlace != nil {
		v.ReferralPlace = trimmedOrNil(in.ReferralPlace)
	}
	return nil
}

// applyNote merges the edit into an existing note. A visit without a
// note cannot take note corrections.
func (s *Service) applyNote(ctx context.Context, visitID uuid.UUID, in NoteEdit) error {
	n, err := s.notes.GetByVisit(ctx, visitID)
	if err != nil {
		return err
	}

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
	if in.StartedAt != nil {
		n.StartedAt = in.StartedAt
	}
	if in.FinishedAt != nil {
		n.FinishedAt = in.FinishedAt
	}
	return s.notes.Update(ctx, n)
}

// applyPayment corrects the payment and keeps the visit's paid flag in
// step with it.
func (s *Service) applyPayment(ctx context.Context, v *triage.Visit, in PaymentEdit) error {
	p, err := s.payments.GetByVisit(ctx, v.ID)
	if apperr.IsKind(err, apperr.NotFound) {
		p = &payment.Payment{VisitID: v.ID, Status: payment.StatusPending}
	} else if err != nil {
		return err
	}

	if in.Status != nil {
		switch *in.Status {
		case payment.StatusPending, payment.StatusPaid:
			p.Status = *in.Status
		default:
			return apperr.New(apperr.Validation, "unknown payment status %q", *in.Status)
		}
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return apperr.New(apperr.Validation, "amount must not be negative")
		}
		p.Amount = in.Amount
	}
	if in.PaidAt != nil {
		p.PaidAt = in.PaidAt
	}
	if in.CashierID != nil {
		p.CashierID = *in.CashierID
	}

	if err := s.payments.Upsert(ctx, p); err != nil {
		return err
	}

	if v.PaidStatus != p.Status {
		v.PaidStatus = p.Status
		return s.visits.Update(ctx, v)
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func strPtr(s string) *string { return &s }
