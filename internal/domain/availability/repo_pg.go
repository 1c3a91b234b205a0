package availability

import (
	"context"
	"errors"
	"time"

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

const slotCols = `id, doctor_id, slot_date, start_time, end_time, schedule_type,
	sub_slot_duration, capacity_per_sub_slot, total_capacity, current_bookings,
	consultation_type, is_active, notes, created_at, updated_at`

const subSlotCols = `id, slot_id, start_time, end_time, max_capacity, current_bookings, status`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.DoctorID, &s.Date, &s.StartTime, &s.EndTime,
		&s.ScheduleType, &s.SubSlotDuration, &s.CapacityPerSubSlot,
		&s.TotalCapacity, &s.CurrentBookings, &s.ConsultationType,
		&s.IsActive, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func scanSubSlot(row pgx.Row) (*SubSlot, error) {
	var ss SubSlot
	err := row.Scan(&ss.ID, &ss.SlotID, &ss.StartTime, &ss.EndTime,
		&ss.MaxCapacity, &ss.CurrentBookings, &ss.Status)
	return &ss, err
}

func (r *repoPG) CreateSlot(ctx context.Context, s *Slot) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO availability_slots (id, doctor_id, slot_date, start_time, end_time,
			schedule_type, sub_slot_duration, capacity_per_sub_slot, total_capacity,
			current_bookings, consultation_type, is_active, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		s.ID, s.DoctorID, s.Date, s.StartTime, s.EndTime, s.ScheduleType,
		s.SubSlotDuration, s.CapacityPerSubSlot, s.TotalCapacity,
		s.CurrentBookings, s.ConsultationType, s.IsActive, s.Notes)
	return err
}

func (r *repoPG) CreateSubSlots(ctx context.Context, subs []*SubSlot) error {
	for _, ss := range subs {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO appointment_sub_slots (id, slot_id, start_time, end_time,
				max_capacity, current_bookings, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			ss.ID, ss.SlotID, ss.StartTime, ss.EndTime,
			ss.MaxCapacity, ss.CurrentBookings, ss.Status)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) getSlot(ctx context.Context, id uuid.UUID, lock bool) (*Slot, error) {
	query := `SELECT ` + slotCols + ` FROM availability_slots WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	s, err := scanSlot(r.conn(ctx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("slot not found")
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return r.getSlot(ctx, id, false)
}

func (r *repoPG) GetSlotForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return r.getSlot(ctx, id, true)
}

func (r *repoPG) UpdateSlot(ctx context.Context, s *Slot) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE availability_slots SET start_time=$2, end_time=$3, schedule_type=$4,
			sub_slot_duration=$5, total_capacity=$6, consultation_type=$7,
			is_active=$8, notes=$9, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.StartTime, s.EndTime, s.ScheduleType, s.SubSlotDuration,
		s.TotalCapacity, s.ConsultationType, s.IsActive, s.Notes)
	return err
}

func (r *repoPG) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM appointment_sub_slots WHERE slot_id = $1`, id); err != nil {
		return err
	}
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM availability_slots WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListSlots(ctx context.Context, doctorID uuid.UUID, date *time.Time, activeOnly bool) ([]*Slot, error) {
	query := `SELECT ` + slotCols + ` FROM availability_slots WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	if date != nil {
		query += ` AND slot_date = $2`
		args = append(args, *date)
	} else {
		query += ` AND slot_date >= CURRENT_DATE`
	}
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY slot_date, start_time`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range slots {
		subs, err := r.SubSlots(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		s.SubSlots = subs
	}
	return slots, nil
}

func (r *repoPG) Overlapping(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM availability_slots
			WHERE doctor_id = $1 AND slot_date = $2 AND is_active = TRUE
			  AND (($3 >= start_time AND $3 < end_time)
			    OR ($4 > start_time AND $4 <= end_time)
			    OR ($3 <= start_time AND $4 >= end_time))`
	args := []interface{}{doctorID, date, startTime, endTime}
	if excludeID != nil {
		query += ` AND id <> $5`
		args = append(args, *excludeID)
	}
	query += `)`

	var exists bool
	err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&exists)
	return exists, err
}

func (r *repoPG) SubSlots(ctx context.Context, slotID uuid.UUID) ([]*SubSlot, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+subSlotCols+` FROM appointment_sub_slots WHERE slot_id = $1 ORDER BY start_time`,
		slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*SubSlot
	for rows.Next() {
		ss, err := scanSubSlot(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, ss)
	}
	return subs, rows.Err()
}

func (r *repoPG) FindSubSlotForUpdate(ctx context.Context, slotID uuid.UUID, startTime *string) (*SubSlot, error) {
	query := `SELECT ` + subSlotCols + ` FROM appointment_sub_slots
		WHERE slot_id = $1 AND status = 'available' AND current_bookings < max_capacity`
	args := []interface{}{slotID}
	if startTime != nil {
		query += ` AND start_time = $2`
		args = append(args, *startTime)
	}
	query += ` ORDER BY start_time LIMIT 1 FOR UPDATE`

	ss, err := scanSubSlot(r.conn(ctx).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("sub-slot not found")
	}
	if err != nil {
		return nil, err
	}
	return ss, nil
}

func (r *repoPG) GetSubSlotForUpdate(ctx context.Context, id uuid.UUID) (*SubSlot, error) {
	ss, err := scanSubSlot(r.conn(ctx).QueryRow(ctx,
		`SELECT `+subSlotCols+` FROM appointment_sub_slots WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("sub-slot not found")
	}
	if err != nil {
		return nil, err
	}
	return ss, nil
}

func (r *repoPG) DeleteFreeSubSlots(ctx context.Context, slotID uuid.UUID) ([]string, error) {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM appointment_sub_slots
		WHERE slot_id = $1 AND id NOT IN (
			SELECT sub_slot_id FROM appointments
			WHERE sub_slot_id IS NOT NULL AND slot_id = $1
			  AND status NOT IN ('cancelled', 'rescheduled'))`, slotID)
	if err != nil {
		return nil, err
	}

	survivors, err := r.conn(ctx).Query(ctx,
		`SELECT start_time FROM appointment_sub_slots WHERE slot_id = $1`, slotID)
	if err != nil {
		return nil, err
	}
	defer survivors.Close()

	var kept []string
	for survivors.Next() {
		var t string
		if err := survivors.Scan(&t); err != nil {
			return nil, err
		}
		kept = append(kept, t)
	}
	return kept, survivors.Err()
}

func (r *repoPG) AdjustSlotCapacity(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE availability_slots
		SET current_bookings = LEAST(GREATEST(current_bookings + $2, 0), total_capacity),
		    updated_at = NOW()
		WHERE id = $1`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("slot not found")
	}
	return nil
}

func (r *repoPG) AdjustSubSlotCapacity(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment_sub_slots
		SET current_bookings = LEAST(GREATEST(current_bookings + $2, 0), max_capacity),
		    status = CASE
			WHEN status = 'inactive' THEN status
			WHEN LEAST(GREATEST(current_bookings + $2, 0), max_capacity) >= max_capacity THEN 'full'
			ELSE 'available'
		    END
		WHERE id = $1`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("sub-slot not found")
	}
	return nil
}

func (r *repoPG) OpenAppointments(ctx context.Context, slotID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE slot_id = $1 AND status NOT IN ('cancelled', 'rescheduled')`, slotID).Scan(&n)
	return n, err
}
