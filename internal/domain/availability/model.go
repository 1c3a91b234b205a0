package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
)

// SubSlotStatus tracks whether a sub-slot can take another booking.
type SubSlotStatus string

const (
	SubSlotAvailable SubSlotStatus = "available"
	SubSlotFull      SubSlotStatus = "full"
	SubSlotInactive  SubSlotStatus = "inactive"
)

// Slot is one working window of a doctor's day. Times are wall-clock
// strings ("HH:MM:SS") interpreted in the clinic's local zone; the date
// carries no time component.
type Slot struct {
	ID                 uuid.UUID           `json:"id"`
	DoctorID           uuid.UUID           `json:"doctor_id"`
	Date               time.Time           `json:"date"`
	StartTime          string              `json:"start_time"`
	EndTime            string              `json:"end_time"`
	ScheduleType       doctor.ScheduleType `json:"schedule_type"`
	SubSlotDuration    int                 `json:"sub_slot_duration"`
	CapacityPerSubSlot int                 `json:"capacity_per_sub_slot"`
	TotalCapacity      int                 `json:"total_capacity"`
	CurrentBookings    int                 `json:"current_bookings"`
	ConsultationType   string              `json:"consultation_type"`
	IsActive           bool                `json:"is_active"`
	Notes              string              `json:"notes,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`

	SubSlots []*SubSlot `json:"sub_slots,omitempty"`
}

// Remaining reports how many more bookings the slot window can take.
func (s *Slot) Remaining() int {
	return s.TotalCapacity - s.CurrentBookings
}

// SubSlot is one appointment-sized position inside a wave slot's window.
type SubSlot struct {
	ID              uuid.UUID     `json:"id"`
	SlotID          uuid.UUID     `json:"slot_id"`
	StartTime       string        `json:"start_time"`
	EndTime         string        `json:"end_time"`
	MaxCapacity     int           `json:"max_capacity"`
	CurrentBookings int           `json:"current_bookings"`
	Status          SubSlotStatus `json:"status"`
}

// CreateSlotRequest creates a single slot, or a batch when Recurring is
// set (one slot per matching weekday in the date range).
type CreateSlotRequest struct {
	Date             string              `json:"date"`
	StartTime        string              `json:"start_time"`
	EndTime          string              `json:"end_time"`
	ScheduleType     doctor.ScheduleType `json:"schedule_type"`
	SubSlotDuration  int                 `json:"sub_slot_duration"`
	ConsultationType string              `json:"consultation_type"`
	Notes            string              `json:"notes"`

	Recurring    bool     `json:"recurring"`
	RecurringEnd string   `json:"recurring_end_date"`
	Weekdays     []string `json:"weekdays"`
}

// SlotPatch is a partial update; nil fields are left unchanged.
// Structural fields (times, duration, type) are rejected once the slot
// has appointments.
type SlotPatch struct {
	StartTime        *string              `json:"start_time"`
	EndTime          *string              `json:"end_time"`
	ScheduleType     *doctor.ScheduleType `json:"schedule_type"`
	SubSlotDuration  *int                 `json:"sub_slot_duration"`
	ConsultationType *string              `json:"consultation_type"`
	Notes            *string              `json:"notes"`
	IsActive         *bool                `json:"is_active"`
}

func (p SlotPatch) structural() bool {
	return p.StartTime != nil || p.EndTime != nil || p.ScheduleType != nil || p.SubSlotDuration != nil
}

// SubSlotView is the patient-facing shape of one bookable position.
type SubSlotView struct {
	SubSlotID *uuid.UUID `json:"sub_slot_id,omitempty"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	SpotsLeft int        `json:"spots_left"`
	Position  int        `json:"queue_position,omitempty"`
}

// AvailableSlot is one slot of a doctor's day as seen by patients.
type AvailableSlot struct {
	SlotID           uuid.UUID           `json:"slot_id"`
	StartTime        string              `json:"start_time"`
	EndTime          string              `json:"end_time"`
	ScheduleType     doctor.ScheduleType `json:"schedule_type"`
	ConsultationType string              `json:"consultation_type"`
	SpotsRemaining   int                 `json:"spots_remaining"`
	SubSlots         []SubSlotView       `json:"available_times"`
}

// DayAvailability is the discovery response for one doctor and date.
type DayAvailability struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	DoctorName     string    `json:"doctor_name"`
	Specialization string    `json:"specialization"`
	Date           string    `json:"date"`
	Slots          []*AvailableSlot `json:"slots"`
}
