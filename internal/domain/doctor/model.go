package doctor

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleType is a doctor's scheduling discipline: wave slots carry
// fixed-time sub-slots, stream slots queue patients sequentially.
type ScheduleType string

const (
	ScheduleWave   ScheduleType = "wave"
	ScheduleStream ScheduleType = "stream"
)

func (s ScheduleType) Valid() bool {
	return s == ScheduleWave || s == ScheduleStream
}

// Doctor maps to the doctors table: identity plus the scheduling defaults
// the availability and booking services consult.
type Doctor struct {
	ID                  uuid.UUID    `db:"id" json:"id"`
	Name                string       `db:"name" json:"name"`
	Email               string       `db:"email" json:"email"`
	Specialization      string       `db:"specialization" json:"specialization"`
	ExperienceYears     *int         `db:"experience_years" json:"experience_years,omitempty"`
	Education           *string      `db:"education" json:"education,omitempty"`
	Bio                 *string      `db:"bio" json:"bio,omitempty"`
	ClinicAddress       *string      `db:"clinic_address" json:"clinic_address,omitempty"`
	ConsultationFee     float64      `db:"consultation_fee" json:"consultation_fee"`
	DefaultScheduleType ScheduleType `db:"default_schedule_type" json:"default_schedule_type"`
	DefaultSlotDuration int          `db:"default_slot_duration" json:"default_slot_duration"`
	AdvanceBookingDays  int          `db:"advance_booking_days" json:"advance_booking_days"`
	SameDayCutoffMins   int          `db:"same_day_booking_cutoff" json:"same_day_booking_cutoff"`
	AcceptingPatients   bool         `db:"is_accepting_patients" json:"is_accepting_patients"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updated_at"`
}

// ProfilePatch carries the fields a doctor may change on their profile.
type ProfilePatch struct {
	Specialization      *string       `json:"specialization,omitempty"`
	ExperienceYears     *int          `json:"experience_years,omitempty"`
	Education           *string       `json:"education,omitempty"`
	Bio                 *string       `json:"bio,omitempty"`
	ClinicAddress       *string       `json:"clinic_address,omitempty"`
	ConsultationFee     *float64      `json:"consultation_fee,omitempty"`
	DefaultScheduleType *ScheduleType `json:"default_schedule_type,omitempty"`
	DefaultSlotDuration *int          `json:"default_slot_duration,omitempty"`
	AdvanceBookingDays  *int          `json:"advance_booking_days,omitempty"`
	SameDayCutoffMins   *int          `json:"same_day_booking_cutoff,omitempty"`
	AcceptingPatients   *bool         `json:"is_accepting_patients,omitempty"`
}

// Filters narrows the patient-facing doctor directory.
type Filters struct {
	Specialization     string
	MinExperienceYears int
	MaxConsultationFee float64
	Search             string
}
