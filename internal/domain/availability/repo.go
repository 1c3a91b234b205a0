package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence surface for slots and sub-slots. The
// ForUpdate and Adjust methods are only meaningful inside a db.Txer scope;
// the booking allocator drives them under a single transaction.
type Repository interface {
	CreateSlot(ctx context.Context, s *Slot) error
	CreateSubSlots(ctx context.Context, subs []*SubSlot) error
	GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
	GetSlotForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error)
	UpdateSlot(ctx context.Context, s *Slot) error
	DeleteSlot(ctx context.Context, id uuid.UUID) error

	// ListSlots returns a doctor's slots for one date, or for every date
	// from today onward when date is nil. Sub-slots are attached.
	ListSlots(ctx context.Context, doctorID uuid.UUID, date *time.Time, activeOnly bool) ([]*Slot, error)

	// Overlapping reports slots of the doctor on the date whose window
	// overlaps [startTime, endTime), excluding excludeID when non-nil.
	Overlapping(ctx context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) (bool, error)

	SubSlots(ctx context.Context, slotID uuid.UUID) ([]*SubSlot, error)

	// FindSubSlotForUpdate locks and returns an available sub-slot of the
	// slot: the one starting at startTime when non-nil, otherwise the
	// earliest with spare capacity. NotFound when none qualifies.
	FindSubSlotForUpdate(ctx context.Context, slotID uuid.UUID, startTime *string) (*SubSlot, error)

	GetSubSlotForUpdate(ctx context.Context, id uuid.UUID) (*SubSlot, error)

	// DeleteFreeSubSlots removes the slot's sub-slots that no appointment
	// references and returns the start times of the survivors.
	DeleteFreeSubSlots(ctx context.Context, slotID uuid.UUID) ([]string, error)

	// AdjustSlotCapacity applies delta to current_bookings, clamped to
	// [0, total_capacity]. The row must already be locked.
	AdjustSlotCapacity(ctx context.Context, id uuid.UUID, delta int) error

	// AdjustSubSlotCapacity applies delta to the sub-slot's counter with
	// the same clamping and flips status between available and full.
	AdjustSubSlotCapacity(ctx context.Context, id uuid.UUID, delta int) error

	// OpenAppointments counts the slot's non-cancelled, non-rescheduled
	// appointments.
	OpenAppointments(ctx context.Context, slotID uuid.UUID) (int, error)
}
