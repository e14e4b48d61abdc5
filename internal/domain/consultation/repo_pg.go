package consultation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edflow/edflow/internal/domain/triage"
	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const noteCols = `id, visit_id, present_illness, history, physical_exam, studies, diagnosis,
	treatment_plan, prognosis,
	wf_fever, wf_seizures, wf_altered_consciousness, wf_active_bleeding, wf_dehydration,
	wf_frequent_vomiting, wf_irritability, wf_inconsolable_crying, wf_respiratory_distress,
	wf_shock, wf_neurological_deterioration,
	referral_follow_up, referral_when, doctor_id,
	consultation_started_at, consultation_finished_at, created_at, updated_at`

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.VisitID, &n.PresentIllness, &n.History, &n.PhysicalExam, &n.Studies, &n.Diagnosis,
		&n.TreatmentPlan, &n.Prognosis,
		&n.WatchFor.Fever, &n.WatchFor.Seizures, &n.WatchFor.AlteredConsciousness, &n.WatchFor.ActiveBleeding,
		&n.WatchFor.Dehydration, &n.WatchFor.FrequentVomiting, &n.WatchFor.Irritability,
		&n.WatchFor.InconsolableCrying, &n.WatchFor.RespiratoryDistress, &n.WatchFor.Shock,
		&n.WatchFor.NeurologicalDeterioration,
		&n.ReferralFollowUp, &n.ReferralWhen, &n.DoctorID,
		&n.StartedAt, &n.FinishedAt, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "consultation note not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "scan consultation note")
	}
	return &n, nil
}

func (r *repoPG) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultation_note (id, visit_id, present_illness, history, physical_exam, studies,
			diagnosis, treatment_plan, prognosis,
			wf_fever, wf_seizures, wf_altered_consciousness, wf_active_bleeding, wf_dehydration,
			wf_frequent_vomiting, wf_irritability, wf_inconsolable_crying, wf_respiratory_distress,
			wf_shock, wf_neurological_deterioration,
			referral_follow_up, referral_when, doctor_id, consultation_started_at, consultation_finished_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)`,
		n.ID, n.VisitID, n.PresentIllness, n.History, n.PhysicalExam, n.Studies,
		n.Diagnosis, n.TreatmentPlan, n.Prognosis,
		n.WatchFor.Fever, n.WatchFor.Seizures, n.WatchFor.AlteredConsciousness, n.WatchFor.ActiveBleeding,
		n.WatchFor.Dehydration, n.WatchFor.FrequentVomiting, n.WatchFor.Irritability,
		n.WatchFor.InconsolableCrying, n.WatchFor.RespiratoryDistress, n.WatchFor.Shock,
		n.WatchFor.NeurologicalDeterioration,
		n.ReferralFollowUp, n.ReferralWhen, n.DoctorID, n.StartedAt, n.FinishedAt)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "insert consultation note")
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, n *Note) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultation_note SET present_illness=$2, history=$3, physical_exam=$4, studies=$5,
			diagnosis=$6, treatment_plan=$7, prognosis=$8,
			wf_fever=$9, wf_seizures=$10, wf_altered_consciousness=$11, wf_active_bleeding=$12,
			wf_dehydration=$13, wf_frequent_vomiting=$14, wf_irritability=$15,
			wf_inconsolable_crying=$16, wf_respiratory_distress=$17, wf_shock=$18,
			wf_neurological_deterioration=$19,
			referral_follow_up=$20, referral_when=$21, doctor_id=$22,
			consultation_started_at=$23, consultation_finished_at=$24, updated_at=NOW()
		WHERE id = $1`,
		n.ID, n.PresentIllness, n.History, n.PhysicalExam, n.Studies,
		n.Diagnosis, n.TreatmentPlan, n.Prognosis,
		n.WatchFor.Fever, n.WatchFor.Seizures, n.WatchFor.AlteredConsciousness, n.WatchFor.ActiveBleeding,
		n.WatchFor.Dehydration, n.WatchFor.FrequentVomiting, n.WatchFor.Irritability,
		n.WatchFor.InconsolableCrying, n.WatchFor.RespiratoryDistress, n.WatchFor.Shock,
		n.WatchFor.NeurologicalDeterioration,
		n.ReferralFollowUp, n.ReferralWhen, n.DoctorID,
		n.StartedAt, n.FinishedAt)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "update consultation note")
	}
	return nil
}

func (r *repoPG) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Note, error) {
	return scanNote(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noteCols+` FROM consultation_note WHERE visit_id = $1`, visitID))
}

// doctorListSQL mirrors the worklist projection: visit joined with
// patient, nurse and the doctor's own note.
const doctorListSQL = `
	SELECT v.id, v.triage_at, v.reason, v.appearance, v.breathing, v.circulation, v.classification,
		v.weight_kg, v.height_cm, v.temperature_c, v.heart_rate, v.respiratory_rate, v.blood_pressure,
		v.had_prior_care, v.prior_care_place, v.has_referral, v.referral_place,
		v.paid_status, v.nurse_id, v.patient_id, v.created_at, v.updated_at,
		p.id, p.expediente, p.full_name, p.birth_date, p.age, p.sex, p.speaks_maya, p.responsible_name, p.created_at, p.updated_at,
		n.name,
		cn.doctor_id, d.name, cn.consultation_started_at, cn.consultation_finished_at
	FROM visit v
	JOIN patient p ON p.id = v.patient_id
	JOIN app_user n ON n.id = v.nurse_id
	JOIN consultation_note cn ON cn.visit_id = v.id
	JOIN app_user d ON d.id = cn.doctor_id
	WHERE v.paid_status = 'PAID' AND v.triage_at >= $1 AND v.triage_at < $2 AND cn.doctor_id = $3`

func (r *repoPG) queryDoctorList(ctx context.Context, sql string, args ...interface{}) ([]*triage.QueueEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "query doctor worklist")
	}
	defer rows.Close()
	var items []*triage.QueueEntry
	for rows.Next() {
		var e triage.QueueEntry
		err := rows.Scan(&e.Visit.ID, &e.TriageAt, &e.Reason, &e.Appearance, &e.Breathing, &e.Circulation, &e.Classification,
			&e.WeightKg, &e.HeightCm, &e.TemperatureC, &e.HeartRate, &e.RespiratoryRate, &e.BloodPressure,
			&e.HadPriorCare, &e.PriorCarePlace, &e.HasReferral, &e.ReferralPlace,
			&e.PaidStatus, &e.NurseID, &e.Visit.PatientID, &e.Visit.CreatedAt, &e.Visit.UpdatedAt,
			&e.Patient.ID, &e.Patient.Expediente, &e.Patient.FullName, &e.Patient.BirthDate, &e.Patient.Age,
			&e.Patient.Sex, &e.Patient.SpeaksMaya, &e.Patient.ResponsibleName, &e.Patient.CreatedAt, &e.Patient.UpdatedAt,
			&e.NurseName,
			&e.DoctorID, &e.DoctorName, &e.ConsultStart, &e.ConsultFinish)
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, err, "scan doctor worklist row")
		}
		items = append(items, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "read doctor worklist rows")
	}
	return items, nil
}

func (r *repoPG) ListConsulting(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*triage.QueueEntry, error) {
	sql := doctorListSQL + `
		AND cn.consultation_started_at IS NOT NULL AND cn.consultation_finished_at IS NULL
		ORDER BY CASE v.classification WHEN 'RED' THEN 3 WHEN 'YELLOW' THEN 2 ELSE 1 END DESC,
			v.triage_at ASC
		LIMIT 300`
	return r.queryDoctorList(ctx, sql, start, end, doctorID)
}

func (r *repoPG) ListAttended(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*triage.QueueEntry, error) {
	sql := doctorListSQL + `
		AND cn.consultation_finished_at IS NOT NULL
		ORDER BY v.triage_at DESC
		LIMIT 300`
	return r.queryDoctorList(ctx, sql, start, end, doctorID)
}
