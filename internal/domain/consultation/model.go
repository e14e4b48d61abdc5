package consultation

import (
	"time"

	"github.com/google/uuid"
)

// WatchFor is the discharge surveillance checklist: the signs the
// caregiver must return for. Fixed columns, one per named sign.
type WatchFor struct {
	Fever                     bool `db:"wf_fever" json:"fever"`
	Seizures                  bool `db:"wf_seizures" json:"seizures"`
	AlteredConsciousness      bool `db:"wf_altered_consciousness" json:"alteredConsciousness"`
	ActiveBleeding            bool `db:"wf_active_bleeding" json:"activeBleeding"`
	Dehydration               bool `db:"wf_dehydration" json:"dehydration"`
	FrequentVomiting          bool `db:"wf_frequent_vomiting" json:"frequentVomiting"`
	Irritability              bool `db:"wf_irritability" json:"irritability"`
	InconsolableCrying        bool `db:"wf_inconsolable_crying" json:"inconsolableCrying"`
	RespiratoryDistress       bool `db:"wf_respiratory_distress" json:"respiratoryDistress"`
	Shock                     bool `db:"wf_shock" json:"shock"`
	NeurologicalDeterioration bool `db:"wf_neurological_deterioration" json:"neurologicalDeterioration"`
}

// Note maps to the consultation_note table, at most one row per visit.
// StartedAt is set when a doctor claims the visit; FinishedAt closes
// the episode.
type Note struct {
	ID      uuid.UUID `db:"id" json:"id"`
	VisitID uuid.UUID `db:"visit_id" json:"visitId"`

	PresentIllness string `db:"present_illness" json:"presentIllness"`
	History        string `db:"history" json:"history"`
	PhysicalExam   string `db:"physical_exam" json:"physicalExam"`
	Studies        string `db:"studies" json:"studies"`
	Diagnosis      string `db:"diagnosis" json:"diagnosis"`
	TreatmentPlan  string `db:"treatment_plan" json:"treatmentPlan"`
	Prognosis      string `db:"prognosis" json:"prognosis"`

	WatchFor WatchFor `json:"watchFor"`

	ReferralFollowUp bool    `db:"referral_follow_up" json:"referralFollowUp"`
	ReferralWhen     *string `db:"referral_when" json:"referralWhen,omitempty"`

	DoctorID   uuid.UUID  `db:"doctor_id" json:"doctorId"`
	StartedAt  *time.Time `db:"consultation_started_at" json:"consultationStartedAt,omitempty"`
	FinishedAt *time.Time `db:"consultation_finished_at" json:"consultationFinishedAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// NoteInput is a partial update: nil means keep the stored value.
type NoteInput struct {
	PresentIllness *string `json:"presentIllness,omitempty"`
	History        *string `json:"history,omitempty"`
	PhysicalExam   *string `json:"physicalExam,omitempty"`
	Studies        *string `json:"studies,omitempty"`
	Diagnosis      *string `json:"diagnosis,omitempty"`
	TreatmentPlan  *string `json:"treatmentPlan,omitempty"`
	Prognosis      *string `json:"prognosis,omitempty"`

	WatchFor *WatchFor `json:"watchFor,omitempty"`

	ReferralFollowUp *bool   `json:"referralFollowUp,omitempty"`
	ReferralWhen     *string `json:"referralWhen,omitempty"`
}
