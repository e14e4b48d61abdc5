package triage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/db"
)

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const patientCols = `id, expediente, full_name, birth_date, age, sex, speaks_maya, responsible_name, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Expediente, &p.FullName, &p.BirthDate, &p.Age, &p.Sex,
		&p.SpeaksMaya, &p.ResponsibleName, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "patient not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "scan patient")
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, expediente, full_name, birth_date, age, sex, speaks_maya, responsible_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Expediente, p.FullName, p.BirthDate, p.Age, p.Sex, p.SpeaksMaya, p.ResponsibleName)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "insert patient")
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByExpediente(ctx context.Context, expediente string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE expediente = $1`, expediente))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET expediente=$2, full_name=$3, birth_date=$4, age=$5, sex=$6,
			speaks_maya=$7, responsible_name=$8, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Expediente, p.FullName, p.BirthDate, p.Age, p.Sex, p.SpeaksMaya, p.ResponsibleName)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "update patient")
	}
	return nil
}

// =========== Visit Repository ===========

type visitRepoPG struct{ pool *pgxpool.Pool }

func NewVisitRepoPG(pool *pgxpool.Pool) VisitRepository { return &visitRepoPG{pool: pool} }

func (r *visitRepoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

const visitCols = `id, triage_at, reason, appearance, breathing, circulation, classification,
	weight_kg, height_cm, temperature_c, heart_rate, respiratory_rate, blood_pressure,
	had_prior_care, prior_care_place, has_referral, referral_place,
	paid_status, nurse_id, patient_id, created_at, updated_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.TriageAt, &v.Reason, &v.Appearance, &v.Breathing, &v.Circulation, &v.Classification,
		&v.WeightKg, &v.HeightCm, &v.TemperatureC, &v.HeartRate, &v.RespiratoryRate, &v.BloodPressure,
		&v.HadPriorCare, &v.PriorCarePlace, &v.HasReferral, &v.ReferralPlace,
		&v.PaidStatus, &v.NurseID, &v.PatientID, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "visit not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "scan visit")
	}
	return &v, nil
}

func (r *visitRepoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit (id, triage_at, reason, appearance, breathing, circulation, classification,
			weight_kg, height_cm, temperature_c, heart_rate, respiratory_rate, blood_pressure,
			had_prior_care, prior_care_place, has_referral, referral_place,
			paid_status, nurse_id, patient_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		v.ID, v.TriageAt, v.Reason, v.Appearance, v.Breathing, v.Circulation, v.Classification,
		v.WeightKg, v.HeightCm, v.TemperatureC, v.HeartRate, v.RespiratoryRate, v.BloodPressure,
		v.HadPriorCare, v.PriorCarePlace, v.HasReferral, v.ReferralPlace,
		v.PaidStatus, v.NurseID, v.PatientID)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "insert visit")
	}
	return nil
}

func (r *visitRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1`, id))
}

func (r *visitRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1 FOR UPDATE`, id))
}

func (r *visitRepoPG) Update(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit SET reason=$2, appearance=$3, breathing=$4, circulation=$5, classification=$6,
			weight_kg=$7, height_cm=$8, temperature_c=$9, heart_rate=$10, respiratory_rate=$11,
			blood_pressure=$12, had_prior_care=$13, prior_care_place=$14, has_referral=$15,
			referral_place=$16, paid_status=$17, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.Reason, v.Appearance, v.Breathing, v.Circulation, v.Classification,
		v.WeightKg, v.HeightCm, v.TemperatureC, v.HeartRate, v.RespiratoryRate,
		v.BloodPressure, v.HadPriorCare, v.PriorCarePlace, v.HasReferral,
		v.ReferralPlace, v.PaidStatus)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "update visit")
	}
	return nil
}

// queueSQL joins the visit with its patient, triage nurse and note
// state. Urgency first, then arrival order.
const queueSQL = `
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
	LEFT JOIN consultation_note cn ON cn.visit_id = v.id
	LEFT JOIN app_user d ON d.id = cn.doctor_id
	WHERE v.triage_at >= $1 AND v.triage_at < $2`

const queueOrderSQL = `
	ORDER BY CASE v.classification WHEN 'RED' THEN 3 WHEN 'YELLOW' THEN 2 ELSE 1 END DESC,
		v.triage_at ASC
	LIMIT 200`

func (r *visitRepoPG) queryQueue(ctx context.Context, sql string, args ...interface{}) ([]*QueueEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "query worklist")
	}
	defer rows.Close()
	var items []*QueueEntry
	for rows.Next() {
		var e QueueEntry
		err := rows.Scan(&e.Visit.ID, &e.TriageAt, &e.Reason, &e.Appearance, &e.Breathing, &e.Circulation, &e.Classification,
			&e.WeightKg, &e.HeightCm, &e.TemperatureC, &e.HeartRate, &e.RespiratoryRate, &e.BloodPressure,
			&e.HadPriorCare, &e.PriorCarePlace, &e.HasReferral, &e.ReferralPlace,
			&e.PaidStatus, &e.NurseID, &e.Visit.PatientID, &e.Visit.CreatedAt, &e.Visit.UpdatedAt,
			&e.Patient.ID, &e.Patient.Expediente, &e.Patient.FullName, &e.Patient.BirthDate, &e.Patient.Age,
			&e.Patient.Sex, &e.Patient.SpeaksMaya, &e.Patient.ResponsibleName, &e.Patient.CreatedAt, &e.Patient.UpdatedAt,
			&e.NurseName,
			&e.DoctorID, &e.DoctorName, &e.ConsultStart, &e.ConsultFinish)
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, err, "scan worklist row")
		}
		items = append(items, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "read worklist rows")
	}
	return items, nil
}

func (r *visitRepoPG) ListCashierPending(ctx context.Context, start, end time.Time) ([]*QueueEntry, error) {
	return r.queryQueue(ctx, queueSQL+` AND v.paid_status = 'PENDING'`+queueOrderSQL, start, end)
}

func (r *visitRepoPG) ListDoctorQueue(ctx context.Context, start, end time.Time) ([]*QueueEntry, error) {
	return r.queryQueue(ctx, queueSQL+` AND v.paid_status = 'PAID'`+queueOrderSQL, start, end)
}

func (r *visitRepoPG) ListDoctorWaiting(ctx context.Context, start, end time.Time) ([]*QueueEntry, error) {
	return r.queryQueue(ctx, queueSQL+` AND v.paid_status = 'PAID' AND cn.id IS NULL`+queueOrderSQL, start, end)
}

func (r *visitRepoPG) ListNurseRecent(ctx context.Context, nurseID uuid.UUID, start, end time.Time) ([]*QueueEntry, error) {
	return r.queryQueue(ctx, queueSQL+` AND v.nurse_id = $3`+queueOrderSQL, start, end, nurseID)
}

func (r *visitRepoPG) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT v.id, v.triage_at, v.reason, v.appearance, v.breathing, v.circulation, v.classification,
			v.weight_kg, v.height_cm, v.temperature_c, v.heart_rate, v.respiratory_rate, v.blood_pressure,
			v.had_prior_care, v.prior_care_place, v.has_referral, v.referral_place,
			v.paid_status, v.nurse_id, v.patient_id, v.created_at, v.updated_at,
			p.id, p.expediente, p.full_name, p.birth_date, p.age, p.sex, p.speaks_maya, p.responsible_name, p.created_at, p.updated_at,
			n.name,
			pay.status, pay.amount, pay.paid_at, cash.name,
			cn.doctor_id, d.name, d.cedula, cn.consultation_started_at, cn.consultation_finished_at
		FROM visit v
		JOIN patient p ON p.id = v.patient_id
		JOIN app_user n ON n.id = v.nurse_id
		LEFT JOIN payment pay ON pay.visit_id = v.id
		LEFT JOIN app_user cash ON cash.id = pay.cashier_id
		LEFT JOIN consultation_note cn ON cn.visit_id = v.id
		LEFT JOIN app_user d ON d.id = cn.doctor_id
		WHERE v.id = $1`, id)

	var dt Detail
	err := row.Scan(&dt.Visit.ID, &dt.Visit.TriageAt, &dt.Visit.Reason, &dt.Visit.Appearance, &dt.Visit.Breathing,
		&dt.Visit.Circulation, &dt.Visit.Classification,
		&dt.Visit.WeightKg, &dt.Visit.HeightCm, &dt.Visit.TemperatureC, &dt.Visit.HeartRate,
		&dt.Visit.RespiratoryRate, &dt.Visit.BloodPressure,
		&dt.Visit.HadPriorCare, &dt.Visit.PriorCarePlace, &dt.Visit.HasReferral, &dt.Visit.ReferralPlace,
		&dt.Visit.PaidStatus, &dt.Visit.NurseID, &dt.Visit.PatientID, &dt.Visit.CreatedAt, &dt.Visit.UpdatedAt,
		&dt.Patient.ID, &dt.Patient.Expediente, &dt.Patient.FullName, &dt.Patient.BirthDate, &dt.Patient.Age,
		&dt.Patient.Sex, &dt.Patient.SpeaksMaya, &dt.Patient.ResponsibleName, &dt.Patient.CreatedAt, &dt.Patient.UpdatedAt,
		&dt.NurseName,
		&dt.PaymentStatus, &dt.PaymentAmount, &dt.PaidAt, &dt.CashierName,
		&dt.DoctorID, &dt.DoctorName, &dt.DoctorCedula, &dt.ConsultStart, &dt.ConsultFinish)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "visit not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "scan visit detail")
	}
	return &dt, nil
}
