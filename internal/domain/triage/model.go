package triage

import (
	"time"

	"github.com/google/uuid"
)

// Paid status of a visit. Mirrors the payment record but lives on the
// visit row so queue queries never need a join to filter on it.
const (
	PaidPending = "PENDING"
	PaidPaid    = "PAID"
)

// Patient maps to the patient table. The chart number ("expediente")
// is optional; when present it is unique and identifies a returning
// patient.
type Patient struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Expediente      *string    `db:"expediente" json:"expediente,omitempty"`
	FullName        string     `db:"full_name" json:"fullName"`
	BirthDate       *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	Age             *int       `db:"age" json:"age,omitempty"`
	Sex             *string    `db:"sex" json:"sex,omitempty"`
	SpeaksMaya      bool       `db:"speaks_maya" json:"speaksMaya"`
	ResponsibleName *string    `db:"responsible_name" json:"responsibleName,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// Visit maps to the visit table: one emergency episode for one patient.
type Visit struct {
	ID             uuid.UUID `db:"id" json:"id"`
	TriageAt       time.Time `db:"triage_at" json:"triageAt"`
	Reason         string    `db:"reason" json:"reason"`
	Appearance     Severity  `db:"appearance" json:"appearance"`
	Breathing      Severity  `db:"breathing" json:"breathing"`
	Circulation    Severity  `db:"circulation" json:"circulation"`
	Classification Severity  `db:"classification" json:"classification"`

	WeightKg        *float64 `db:"weight_kg" json:"weightKg,omitempty"`
	HeightCm        *float64 `db:"height_cm" json:"heightCm,omitempty"`
	TemperatureC    *float64 `db:"temperature_c" json:"temperatureC,omitempty"`
	HeartRate       *int     `db:"heart_rate" json:"heartRate,omitempty"`
	RespiratoryRate *int     `db:"respiratory_rate" json:"respiratoryRate,omitempty"`
	BloodPressure   *string  `db:"blood_pressure" json:"bloodPressure,omitempty"`

	HadPriorCare   bool    `db:"had_prior_care" json:"hadPriorCare"`
	PriorCarePlace *string `db:"prior_care_place" json:"priorCarePlace,omitempty"`
	HasReferral    bool    `db:"has_referral" json:"hasReferral"`
	ReferralPlace  *string `db:"referral_place" json:"referralPlace,omitempty"`

	PaidStatus string    `db:"paid_status" json:"paidStatus"`
	NurseID    uuid.UUID `db:"nurse_id" json:"nurseId"`
	PatientID  uuid.UUID `db:"patient_id" json:"patientId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// QueueEntry is a visit projected for a worklist: the visit plus the
// patient and enough note/payment state to render the row.
type QueueEntry struct {
	Visit
	Patient       Patient    `json:"patient"`
	NurseName     string     `json:"nurseName"`
	DoctorID      *uuid.UUID `json:"doctorId,omitempty"`
	DoctorName    *string    `json:"doctorName,omitempty"`
	ConsultStart  *time.Time `json:"consultationStartedAt,omitempty"`
	ConsultFinish *time.Time `json:"consultationFinishedAt,omitempty"`
}

// Detail is the full picture of a visit for the consultation room and
// the administrator: visit, patient, staff names, payment and note
// state.
type Detail struct {
	Visit         Visit      `json:"visit"`
	Patient       Patient    `json:"patient"`
	NurseName     string     `json:"nurseName"`
	PaymentStatus *string    `json:"paymentStatus,omitempty"`
	PaymentAmount *float64   `json:"paymentAmount,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	CashierName   *string    `json:"cashierName,omitempty"`
	DoctorID      *uuid.UUID `json:"doctorId,omitempty"`
	DoctorName    *string    `json:"doctorName,omitempty"`
	DoctorCedula  *string    `json:"doctorCedula,omitempty"`
	ConsultStart  *time.Time `json:"consultationStartedAt,omitempty"`
	ConsultFinish *time.Time `json:"consultationFinishedAt,omitempty"`
}

// CreateVisitInput is the nurse intake form.
type CreateVisitInput struct {
	Reason          string  `json:"reason"`
	PatientFullName string  `json:"patientFullName"`
	Expediente      *string `json:"expediente,omitempty"`
	BirthDate       *string `json:"birthDate,omitempty"`
	PatientAge      *int    `json:"patientAge,omitempty"`
	Sex             *string `json:"sex,omitempty"`
	SpeaksMaya      bool    `json:"speaksMaya"`
	ResponsibleName *string `json:"responsibleName,omitempty"`

	Appearance  string `json:"appearance"`
	Breathing   string `json:"breathing"`
	Circulation string `json:"circulation"`

	WeightKg        *float64 `json:"weightKg,omitempty"`
	HeightCm        *float64 `json:"heightCm,omitempty"`
	TemperatureC    *float64 `json:"temperatureC,omitempty"`
	HeartRate       *int     `json:"heartRate,omitempty"`
	RespiratoryRate *int     `json:"respiratoryRate,omitempty"`
	BloodPressure   *string  `json:"bloodPressure,omitempty"`

	HadPriorCare   bool    `json:"hadPriorCare"`
	PriorCarePlace *string `json:"priorCarePlace,omitempty"`
	HasReferral    bool    `json:"hasReferral"`
	ReferralPlace  *string `json:"referralPlace,omitempty"`
}

// RevalueInput is a partial update: nil means keep the stored value.
type RevalueInput struct {
	Appearance  *string `json:"appearance,omitempty"`
	Breathing   *string `json:"breathing,omitempty"`
	Circulation *string `json:"circulation,omitempty"`

	WeightKg        *float64 `json:"weightKg,omitempty"`
	HeightCm        *float64 `json:"heightCm,omitempty"`
	TemperatureC    *float64 `json:"temperatureC,omitempty"`
	HeartRate       *int     `json:"heartRate,omitempty"`
	RespiratoryRate *int     `json:"respiratoryRate,omitempty"`
	BloodPressure   *string  `json:"bloodPressure,omitempty"`

	HadPriorCare   *bool   `json:"hadPriorCare,omitempty"`
	PriorCarePlace *string `json:"priorCarePlace,omitempty"`
	HasReferral    *bool   `json:"hasReferral,omitempty"`
	ReferralPlace  *string `json:"referralPlace,omitempty"`
}

// DayWindow returns the [start, end) bounds of the civil day containing
// t in the department's timezone. Queue and report "today" filters all
// use this window.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
