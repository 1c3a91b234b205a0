package doctor

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

const doctorCols = `id, name, email, specialization, experience_years, education, bio,
	clinic_address, consultation_fee, default_schedule_type, default_slot_duration,
	advance_booking_days, same_day_booking_cutoff, is_accepting_patients,
	created_at, updated_at`

func (r *repoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Specialization, &d.ExperienceYears,
		&d.Education, &d.Bio, &d.ClinicAddress, &d.ConsultationFee,
		&d.DefaultScheduleType, &d.DefaultSlotDuration,
		&d.AdvanceBookingDays, &d.SameDayCutoffMins, &d.AcceptingPatients,
		&d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := r.scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("doctor not found")
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET specialization=$2, experience_years=$3, education=$4, bio=$5,
			clinic_address=$6, consultation_fee=$7, default_schedule_type=$8,
			default_slot_duration=$9, advance_booking_days=$10,
			same_day_booking_cutoff=$11, is_accepting_patients=$12, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Specialization, d.ExperienceYears, d.Education, d.Bio,
		d.ClinicAddress, d.ConsultationFee, d.DefaultScheduleType,
		d.DefaultSlotDuration, d.AdvanceBookingDays,
		d.SameDayCutoffMins, d.AcceptingPatients)
	return err
}

func (r *repoPG) List(ctx context.Context, filters Filters, limit, offset int) ([]*Doctor, int, error) {
	query := `SELECT ` + doctorCols + ` FROM doctors WHERE is_accepting_patients = TRUE`
	countQuery := `SELECT COUNT(*) FROM doctors WHERE is_accepting_patients = TRUE`
	var args []interface{}
	idx := 1

	addFilter := func(clause string, arg interface{}) {
		cond := fmt.Sprintf(clause, idx)
		query += cond
		countQuery += cond
		args = append(args, arg)
		idx++
	}

	if filters.Specialization != "" {
		addFilter(` AND LOWER(specialization) LIKE LOWER($%d)`, "%"+filters.Specialization+"%")
	}
	if filters.MinExperienceYears > 0 {
		addFilter(` AND experience_years >= $%d`, filters.MinExperienceYears)
	}
	if filters.MaxConsultationFee > 0 {
		addFilter(` AND consultation_fee <= $%d`, filters.MaxConsultationFee)
	}
	if filters.Search != "" {
		cond := fmt.Sprintf(` AND (LOWER(name) LIKE LOWER($%d) OR LOWER(specialization) LIKE LOWER($%d))`, idx, idx)
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY experience_years DESC NULLS LAST LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}
