package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, slot_id, sub_slot_id, appointment_date,
	appointment_time, appointment_end_time, duration_minutes, booking_type,
	queue_position, booking_reference, status, consultation_fee, consultation_type,
	reason, symptoms, notes, cancelled_by, cancelled_at, cancellation_reason,
	rescheduled_to, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.SlotID, &a.SubSlotID,
		&a.Date, &a.StartTime, &a.EndTime, &a.DurationMins, &a.BookingType,
		&a.QueuePosition, &a.BookingReference, &a.Status, &a.ConsultationFee,
		&a.ConsultationType, &a.Reason, &a.Symptoms, &a.Notes,
		&a.CancelledBy, &a.CancelledAt, &a.CancellationReason,
		&a.RescheduledTo, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, slot_id, sub_slot_id,
			appointment_date, appointment_time, appointment_end_time, duration_minutes,
			booking_type, queue_position, booking_reference, status, consultation_fee,
			consultation_type, reason, symptoms, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		a.ID, a.PatientID, a.DoctorID, a.SlotID, a.SubSlotID,
		a.Date, a.StartTime, a.EndTime, a.DurationMins,
		a.BookingType, a.QueuePosition, a.BookingReference, a.Status,
		a.ConsultationFee, a.ConsultationType, a.Reason, a.Symptoms, a.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("appointment not found")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status=$2, notes=$3, cancelled_by=$4, cancelled_at=$5,
			cancellation_reason=$6, rescheduled_to=$7, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Status, a.Notes, a.CancelledBy, a.CancelledAt,
		a.CancellationReason, a.RescheduledTo)
	return err
}

func (r *repoPG) list(ctx context.Context, ownerCol string, ownerID uuid.UUID, filters ListFilters, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointments WHERE ` + ownerCol + ` = $1`
	countQuery := `SELECT COUNT(*) FROM appointments WHERE ` + ownerCol + ` = $1`
	args := []interface{}{ownerID}
	idx := 2

	addFilter := func(clause string, arg interface{}) {
		cond := fmt.Sprintf(clause, idx)
		query += cond
		countQuery += cond
		args = append(args, arg)
		idx++
	}

	if filters.Status != "" {
		addFilter(` AND status = $%d`, filters.Status)
	}
	if filters.FromDate != nil {
		addFilter(` AND appointment_date >= $%d`, *filters.FromDate)
	}
	if filters.UpToDate != nil {
		addFilter(` AND appointment_date <= $%d`, *filters.UpToDate)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY appointment_date DESC, appointment_time DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, filters ListFilters, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "patient_id", patientID, filters, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, filters ListFilters, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "doctor_id", doctorID, filters, limit, offset)
}
