package triage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/db"
	"github.com/edflow/edflow/internal/platform/events"
)

type Service struct {
	patients PatientRepository
	visits   VisitRepository
	runner   db.Runner
	pub      events.Publisher
	loc      *time.Location
}

func NewService(patients PatientRepository, visits VisitRepository, runner db.Runner, pub events.Publisher, loc *time.Location) *Service {
	return &Service{patients: patients, visits: visits, runner: runner, pub: pub, loc: loc}
}

// CreateVisit registers a triage intake: it resolves or creates the
// patient, derives the classification from the three assessment axes
// and inserts the visit as payment-pending. Cashiers and doctors are
// notified after the transaction commits.
func (s *Service) CreateVisit(ctx context.Context, nurseID uuid.UUID, in CreateVisitInput) (*Detail, error) {
	reason := strings.TrimSpace(in.Reason)
	fullName := strings.TrimSpace(in.PatientFullName)
	if reason == "" || fullName == "" {
		return nil, apperr.New(apperr.Validation, "reason and patient full name are required")
	}

	appearance, err := ParseSeverity(in.Appearance)
	if err != nil {
		return nil, err
	}
	breathing, err := ParseSeverity(in.Breathing)
	if err != nil {
		return nil, err
	}
	circulation, err := ParseSeverity(in.Circulation)
	if err != nil {
		return nil, err
	}

	var birthDate *time.Time
	if in.BirthDate != nil && strings.TrimSpace(*in.BirthDate) != "" {
		bd, err := parseDate(*in.BirthDate)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "invalid birth date %q", *in.BirthDate)
		}
		birthDate = &bd
	}

	visit := &Visit{
		TriageAt:        time.Now().UTC(),
		Reason:          reason,
		Appearance:      appearance,
		Breathing:       breathing,
		Circulation:     circulation,
		Classification:  Worst(appearance, breathing, circulation),
		WeightKg:        in.WeightKg,
		HeightCm:        in.HeightCm,
		TemperatureC:    in.TemperatureC,
		HeartRate:       in.HeartRate,
		RespiratoryRate: in.RespiratoryRate,
		BloodPressure:   trimmedOrNil(in.BloodPressure),
		HadPriorCare:    in.HadPriorCare,
		PriorCarePlace:  placeFor(in.HadPriorCare, in.PriorCarePlace),
		HasReferral:     in.HasReferral,
		ReferralPlace:   placeFor(in.HasReferral, in.ReferralPlace),
		PaidStatus:      PaidPending,
		NurseID:         nurseID,
	}

	var detail *Detail
	err = s.runner.InTx(ctx, func(ctx context.Context) error {
		patient, err := s.resolvePatient(ctx, fullName, birthDate, in)
		if err != nil {
			return err
		}
		visit.PatientID = patient.ID
		if err := s.visits.Create(ctx, visit); err != nil {
			return err
		}
		detail, err = s.visits.GetDetail(ctx, visit.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.pub.Publish(events.TriageNew, visit.ID.String(), detail)
	return detail, nil
}

// resolvePatient reuses the chart when a known chart number is given,
// otherwise registers a new patient.
func (s *Service) resolvePatient(ctx context.Context, fullName string, birthDate *time.Time, in CreateVisitInput) (*Patient, error) {
	if exp := trimmedOrNil(in.Expediente); exp != nil {
		existing, err := s.patients.GetByExpediente(ctx, *exp)
		if err == nil {
			return existing, nil
		}
		if !apperr.IsKind(err, apperr.NotFound) {
			return nil, err
		}
		p := s.newPatient(fullName, birthDate, in)
		p.Expediente = exp
		return p, s.patients.Create(ctx, p)
	}
	p := s.newPatient(fullName, birthDate, in)
	return p, s.patients.Create(ctx, p)
}

func (s *Service) newPatient(fullName string, birthDate *time.Time, in CreateVisitInput) *Patient {
	return &Patient{
		FullName:        fullName,
		BirthDate:       birthDate,
		Age:             in.PatientAge,
		Sex:             normalizeSex(in.Sex),
		SpeaksMaya:      in.SpeaksMaya,
		ResponsibleName: trimmedOrNil(in.ResponsibleName),
	}
}

// Revalue re-assesses a visit the nurse owns. Once the doctor has the
// patient in the room the triage record is frozen.
func (s *Service) Revalue(ctx context.Context, nurseID, visitID uuid.UUID, in RevalueInput) (*Detail, error) {
	var detail *Detail
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		v, err := s.visits.GetForUpdate(ctx, visitID)
		if err != nil {
			return err
		}
		current, err := s.visits.GetDetail(ctx, visitID)
		if err != nil {
			return err
		}
		if current.ConsultStart != nil {
			return apperr.New(apperr.Conflict, "consultation already started")
		}
		if v.NurseID != nurseID {
			return apperr.New(apperr.NotFound, "visit not found")
		}

		if err := applyRevalue(v, in); err != nil {
			return err
		}
		if err := s.visits.Update(ctx, v); err != nil {
			return err
		}
		detail, err = s.visits.GetDetail(ctx, visitID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.pub.Publish(events.TriageUpdated, visitID.String(), detail)
	return detail, nil
}

// applyRevalue merges a partial update into the visit. Nil fields keep
// the stored value; any changed axis recomputes the classification.
func applyRevalue(v *Visit, in RevalueInput) error {
	var err error
	appearance, breathing, circulation := v.Appearance, v.Breathing, v.Circulation
	if in.Appearance != nil {
		if appearance, err = ParseSeverity(*in.Appearance); err != nil {
			return err
		}
	}
	if in.Breathing != nil {
		if breathing, err = ParseSeverity(*in.Breathing); err != nil {
			return err
		}
	}
	if in.Circulation != nil {
		if circulation, err = ParseSeverity(*in.Circulation); err != nil {
			return err
		}
	}
	v.Appearance, v.Breathing, v.Circulation = appearance, breathing, circulation
	v.Classification = Worst(appearance, breathing, circulation)

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
	if !v.HadPriorCare {
		v.PriorCarePlace = nil
	}
	if in.HasReferral != nil {
		v.HasReferral = *in.HasReferral
	}
	if in.ReferralPlace != nil {
		v.ReferralPlace = trimmedOrNil(in.ReferralPlace)
	}
	if !v.HasReferral {
		v.ReferralPlace = nil
	}
	return nil
}

// GetDetail returns the full visit picture for the consultation room.
func (s *Service) GetDetail(ctx context.Context, visitID uuid.UUID) (*Detail, error) {
	return s.visits.GetDetail(ctx, visitID)
}

// CashierPending lists today's unpaid visits in urgency order.
func (s *Service) CashierPending(ctx context.Context) ([]*QueueEntry, error) {
	start, end := DayWindow(time.Now(), s.loc)
	return s.visits.ListCashierPending(ctx, start, end)
}

// DoctorQueue lists today's paid visits regardless of note state.
func (s *Service) DoctorQueue(ctx context.Context) ([]*QueueEntry, error) {
	start, end := DayWindow(time.Now(), s.loc)
	return s.visits.ListDoctorQueue(ctx, start, end)
}

// DoctorWaiting lists today's paid visits no doctor has claimed yet.
func (s *Service) DoctorWaiting(ctx context.Context) ([]*QueueEntry, error) {
	start, end := DayWindow(time.Now(), s.loc)
	return s.visits.ListDoctorWaiting(ctx, start, end)
}

// NurseRecent lists today's intakes registered by the calling nurse.
func (s *Service) NurseRecent(ctx context.Context, nurseID uuid.UUID) ([]*QueueEntry, error) {
	start, end := DayWindow(time.Now(), s.loc)
	return s.visits.ListNurseRecent(ctx, nurseID, start, end)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func normalizeSex(s *string) *string {
	if s == nil {
		return nil
	}
	switch strings.ToUpper(strings.TrimSpace(*s)) {
	case "M":
		return strPtr("M")
	case "F":
		return strPtr("F")
	case "O", "X":
		return strPtr("O")
	}
	return nil
}

func placeFor(flag bool, place *string) *string {
	if !flag {
		return nil
	}
	return trimmedOrNil(place)
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
