package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/availability"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/timegrid"
)

// assignment is what a strategy reserved: the concrete time window plus
// the discipline-specific reference (sub-slot id or queue position).
// Capacity on the sub-slot is already incremented when reserve returns;
// the caller owns the parent slot counter and the appointment insert.
type assignment struct {
	subSlotID     *uuid.UUID
	queuePosition int
	startTime     string
	endTime       string
}

// allocator assigns one booking to a position inside a locked slot.
// Implementations run inside the booking transaction; the slot row is
// already held FOR UPDATE and capacity has been re-validated.
type allocator interface {
	reserve(ctx context.Context, slot *availability.Slot, preferredTime string) (assignment, error)
}

func allocatorFor(t doctor.ScheduleType, slots availability.Repository) allocator {
	if t == doctor.ScheduleStream {
		return &streamAllocator{}
	}
	return &waveAllocator{slots: slots}
}

// waveAllocator picks a specific sub-slot: the one matching the
// preferred start time, or the earliest with spare capacity.
type waveAllocator struct {
	slots availability.Repository
}

func (w *waveAllocator) reserve(ctx context.Context, slot *availability.Slot, preferredTime string) (assignment, error) {
	var preferred *string
	if preferredTime != "" {
		mins, err := timegrid.ToMinutes(preferredTime)
		if err != nil {
			return assignment{}, apperr.Validationf("invalid preferred time: %v", err)
		}
		t := timegrid.FromMinutes(mins)
		preferred = &t
	}

	sub, err := w.slots.FindSubSlotForUpdate(ctx, slot.ID, preferred)
	if err != nil {
		if !apperr.IsNotFound(err) {
			return assignment{}, err
		}
		if preferred == nil {
			return assignment{}, apperr.Conflictf("no open times remain in this slot")
		}
		// Distinguish a nonexistent preferred time from a taken one.
		subs, lerr := w.slots.SubSlots(ctx, slot.ID)
		if lerr != nil {
			return assignment{}, lerr
		}
		for _, ss := range subs {
			if ss.StartTime == *preferred {
				return assignment{}, apperr.Conflictf("the %s time is already booked", preferredTime)
			}
		}
		return assignment{}, apperr.Validationf("no %s time exists in this slot", preferredTime)
	}

	if err := w.slots.AdjustSubSlotCapacity(ctx, sub.ID, 1); err != nil {
		return assignment{}, err
	}
	id := sub.ID
	return assignment{
		subSlotID: &id,
		startTime: sub.StartTime,
		endTime:   sub.EndTime,
	}, nil
}

// streamAllocator assigns the next sequential queue position and derives
// its window arithmetically from the slot's counter.
type streamAllocator struct{}

func (s *streamAllocator) reserve(_ context.Context, slot *availability.Slot, preferredTime string) (assignment, error) {
	start, err := timegrid.ToMinutes(slot.StartTime)
	if err != nil {
		return assignment{}, apperr.Internalf(err, "slot has malformed start time")
	}
	end, err := timegrid.ToMinutes(slot.EndTime)
	if err != nil {
		return assignment{}, apperr.Internalf(err, "slot has malformed end time")
	}

	position := slot.CurrentBookings + 1
	assignedStart := start + slot.CurrentBookings*slot.SubSlotDuration
	assignedEnd := assignedStart + slot.SubSlotDuration
	if assignedEnd > end {
		return assignment{}, apperr.Conflictf("no queue positions remain in this slot")
	}

	if preferredTime != "" {
		mins, perr := timegrid.ToMinutes(preferredTime)
		if perr != nil {
			return assignment{}, apperr.Validationf("invalid preferred time: %v", perr)
		}
		if mins != assignedStart {
			return assignment{}, apperr.Conflictf("next available time is %s, not %s",
				timegrid.FromMinutes(assignedStart), preferredTime)
		}
	}

	return assignment{
		queuePosition: position,
		startTime:     timegrid.FromMinutes(assignedStart),
		endTime:       timegrid.FromMinutes(assignedEnd),
	}, nil
}
