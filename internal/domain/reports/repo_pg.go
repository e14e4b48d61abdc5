package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edflow/edflow/internal/platform/apperr"
	"github.com/edflow/edflow/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable { return db.Conn(ctx, r.pool) }

func (r *repoPG) ListAttended(ctx context.Context, f Filter) ([]*AttendedRow, error) {
	query := `
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
		WHERE cn.consultation_finished_at IS NOT NULL
			AND v.triage_at >= $1 AND v.triage_at < $2`
	args := []interface{}{f.Start, f.End}
	idx := 3

	if f.Classification != nil {
		query += fmt.Sprintf(` AND v.classification = $%d`, idx)
		args = append(args, *f.Classification)
		idx++
	}
	if f.Search != "" {
		query += fmt.Sprintf(` AND (p.full_name ILIKE $%d OR p.expediente ILIKE $%d)`, idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	query += ` ORDER BY v.triage_at ASC LIMIT 2000`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "query attended visits")
	}
	defer rows.Close()

	var items []*AttendedRow
	for rows.Next() {
		var row AttendedRow
		e := &row.QueueEntry
		err := rows.Scan(&e.Visit.ID, &e.TriageAt, &e.Reason, &e.Appearance, &e.Breathing, &e.Circulation, &e.Classification,
			&e.WeightKg, &e.HeightCm, &e.TemperatureC, &e.HeartRate, &e.RespiratoryRate, &e.BloodPressure,
			&e.HadPriorCare, &e.PriorCarePlace, &e.HasReferral, &e.ReferralPlace,
			&e.PaidStatus, &e.NurseID, &e.Visit.PatientID, &e.Visit.CreatedAt, &e.Visit.UpdatedAt,
			&e.Patient.ID, &e.Patient.Expediente, &e.Patient.FullName, &e.Patient.BirthDate, &e.Patient.Age,
			&e.Patient.Sex, &e.Patient.SpeaksMaya, &e.Patient.ResponsibleName, &e.Patient.CreatedAt, &e.Patient.UpdatedAt,
			&e.NurseName,
			&e.DoctorID, &e.DoctorName, &e.ConsultStart, &e.ConsultFinish)
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, err, "scan attended row")
		}
		items = append(items, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "read attended rows")
	}
	return items, nil
}
