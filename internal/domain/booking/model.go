package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
)

type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
	StatusRescheduled Status = "rescheduled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// transitions is the status machine. Cancellation is driven through the
// cancel operations so capacity release always accompanies it; the bare
// status update rejects "cancelled" as a target.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCompleted, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusNoShow},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

const (
	// cancelGuard is the minimum lead time before the appointment for a
	// cancellation; rescheduleGuard likewise for a reschedule.
	cancelGuard     = 2 * time.Hour
	rescheduleGuard = 4 * time.Hour
)

// Appointment is the booking ledger row. Times mirror the slot's
// wall-clock strings; Date is date-only.
type Appointment struct {
	ID               uuid.UUID           `json:"id"`
	PatientID        uuid.UUID           `json:"patient_id"`
	DoctorID         uuid.UUID           `json:"doctor_id"`
	SlotID           uuid.UUID           `json:"slot_id"`
	SubSlotID        *uuid.UUID          `json:"sub_slot_id,omitempty"`
	Date             time.Time           `json:"appointment_date"`
	StartTime        string              `json:"appointment_time"`
	EndTime          string              `json:"appointment_end_time"`
	DurationMins     int                 `json:"duration_minutes"`
	BookingType      doctor.ScheduleType `json:"booking_type"`
	QueuePosition    int                 `json:"queue_position,omitempty"`
	BookingReference string              `json:"booking_reference"`
	Status           Status              `json:"status"`
	ConsultationFee  float64             `json:"consultation_fee"`
	ConsultationType string              `json:"consultation_type"`
	Reason           string              `json:"reason,omitempty"`
	Symptoms         string              `json:"symptoms,omitempty"`
	Notes            string              `json:"notes,omitempty"`

	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	RescheduledTo      *uuid.UUID `json:"rescheduled_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// startsAt combines the appointment's calendar date and wall-clock start
// time into an instant in loc. Stored times are zone-naive, so the
// caller's clock location decides the interpretation; using now's
// location keeps the guard arithmetic a pure wall-clock comparison.
func (a *Appointment) startsAt(loc *time.Location) time.Time {
	t, err := time.Parse("15:04:05", a.StartTime)
	if err != nil {
		return a.Date
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(),
		t.Hour(), t.Minute(), 0, 0, loc)
}

func (a *Appointment) active() bool {
	return a.Status == StatusScheduled || a.Status == StatusConfirmed
}

// CanCancel reports whether the appointment may still be cancelled at
// now: active status and more than the guard period before its start.
func (a *Appointment) CanCancel(now time.Time) bool {
	return a.active() && a.startsAt(now.Location()).Sub(now) > cancelGuard
}

// CanReschedule has a longer lead-time requirement than cancellation.
func (a *Appointment) CanReschedule(now time.Time) bool {
	return a.active() && a.startsAt(now.Location()).Sub(now) > rescheduleGuard
}

// View decorates an appointment with the action flags clients render
// buttons from.
type View struct {
	*Appointment
	CanCancel     bool `json:"can_cancel"`
	CanReschedule bool `json:"can_reschedule"`
}

type BookRequest struct {
	SlotID        uuid.UUID `json:"slot_id"`
	PreferredTime string    `json:"preferred_time"`
	Reason        string    `json:"reason"`
	Symptoms      string    `json:"symptoms"`
}

type RescheduleRequest struct {
	SlotID        uuid.UUID `json:"new_slot_id"`
	PreferredTime string    `json:"preferred_time"`
	Reason        string    `json:"reason"`
}

type ListFilters struct {
	Status   Status
	FromDate *time.Time
	UpToDate *time.Time
}
