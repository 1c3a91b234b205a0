package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/timegrid"
)

const dateLayout = "2006-01-02"

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// streamPreviewSize caps how many queue positions discovery shows ahead.
const streamPreviewSize = 3

// DoctorDefaults resolves a doctor's scheduling defaults. Satisfied by the
// doctor service's cached lookup.
type DoctorDefaults interface {
	Defaults(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

type Service struct {
	slots   Repository
	doctors DoctorDefaults
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(slots Repository, doctors DoctorDefaults, logger zerolog.Logger) *Service {
	return &Service{slots: slots, doctors: doctors, logger: logger, now: time.Now}
}

func today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, apperr.Validationf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return d, nil
}

// CreateSlot creates one slot, or one per matching weekday of the
// recurring range. At least one created slot is required; per-day
// failures are logged and skipped.
func (s *Service) CreateSlot(ctx context.Context, doctorID uuid.UUID, req CreateSlotRequest) ([]*Slot, error) {
	doc, err := s.doctors.Defaults(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	scheduleType := req.ScheduleType
	if scheduleType == "" {
		scheduleType = doc.DefaultScheduleType
	}
	if !scheduleType.Valid() {
		return nil, apperr.Validationf("invalid schedule type %q", scheduleType)
	}
	duration := req.SubSlotDuration
	if duration == 0 {
		duration = doc.DefaultSlotDuration
	}
	if duration <= 0 {
		return nil, apperr.Validationf("sub-slot duration must be positive")
	}

	start, err := timegrid.ToMinutes(req.StartTime)
	if err != nil {
		return nil, apperr.Validationf("invalid start time: %v", err)
	}
	end, err := timegrid.ToMinutes(req.EndTime)
	if err != nil {
		return nil, apperr.Validationf("invalid end time: %v", err)
	}
	if start >= end {
		return nil, apperr.Validationf("start time must be before end time")
	}

	first, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	dates := []time.Time{first}
	if req.Recurring {
		dates, err = expandRecurring(first, req.RecurringEnd, req.Weekdays)
		if err != nil {
			return nil, err
		}
	}

	var created []*Slot
	for _, date := range dates {
		slot, err := s.createOne(ctx, doctorID, date, start, end, scheduleType, duration, req)
		if err != nil {
			if !req.Recurring {
				return nil, err
			}
			s.logger.Warn().
				Str("doctor_id", doctorID.String()).
				Str("date", date.Format(dateLayout)).
				Err(err).
				Msg("skipping recurring slot day")
			continue
		}
		created = append(created, slot)
	}
	if len(created) == 0 {
		return nil, apperr.Conflictf("no slots could be created for the requested days")
	}
	return created, nil
}

func (s *Service) createOne(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end int, scheduleType doctor.ScheduleType, duration int, req CreateSlotRequest) (*Slot, error) {
	if date.Before(today(s.now())) {
		return nil, apperr.Validationf("cannot create slots in the past")
	}

	startStr := timegrid.FromMinutes(start)
	endStr := timegrid.FromMinutes(end)
	overlap, err := s.slots.Overlapping(ctx, doctorID, date, startStr, endStr, nil)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, apperr.Conflictf("slot overlaps an existing slot on %s", date.Format(dateLayout))
	}

	slot := &Slot{
		ID:                 uuid.New(),
		DoctorID:           doctorID,
		Date:               date,
		StartTime:          startStr,
		EndTime:            endStr,
		ScheduleType:       scheduleType,
		SubSlotDuration:    duration,
		CapacityPerSubSlot: 1,
		TotalCapacity:      (end - start) / duration,
		ConsultationType:   req.ConsultationType,
		IsActive:           true,
		Notes:              req.Notes,
	}
	if slot.TotalCapacity == 0 {
		return nil, apperr.Validationf("slot window is shorter than one appointment")
	}
	if err := s.slots.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}

	slot.SubSlots = buildSubSlots(slot.ID, start, end, duration, nil)
	if err := s.slots.CreateSubSlots(ctx, slot.SubSlots); err != nil {
		return nil, err
	}
	return slot, nil
}

// buildSubSlots walks the window in duration steps. The final step is
// clamped to the window end, so a 90-minute window with 60-minute
// appointments yields 13:00-14:00 and 14:00-14:30. Sub-slots whose start
// time appears in skip are not regenerated.
func buildSubSlots(slotID uuid.UUID, start, end, duration int, skip map[string]bool) []*SubSlot {
	var subs []*SubSlot
	for t := start; t < end; t += duration {
		subEnd := t + duration
		if subEnd > end {
			subEnd = end
		}
		startStr := timegrid.FromMinutes(t)
		if skip[startStr] {
			continue
		}
		subs = append(subs, &SubSlot{
			ID:          uuid.New(),
			SlotID:      slotID,
			StartTime:   startStr,
			EndTime:     timegrid.FromMinutes(subEnd),
			MaxCapacity: 1,
			Status:      SubSlotAvailable,
		})
	}
	return subs
}

func expandRecurring(first time.Time, endRaw string, weekdays []string) ([]time.Time, error) {
	if endRaw == "" {
		return nil, apperr.Validationf("recurring_end_date is required for recurring slots")
	}
	last, err := parseDate(endRaw)
	if err != nil {
		return nil, err
	}
	if last.Before(first) {
		return nil, apperr.Validationf("recurring_end_date is before the start date")
	}
	if len(weekdays) == 0 {
		return nil, apperr.Validationf("weekdays are required for recurring slots")
	}

	wanted := make(map[time.Weekday]bool, len(weekdays))
	for _, name := range weekdays {
		wd, ok := weekdayNames[name]
		if !ok {
			return nil, apperr.Validationf("unknown weekday %q", name)
		}
		wanted[wd] = true
	}

	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if wanted[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return nil, apperr.Validationf("no dates in the range match the requested weekdays")
	}
	return dates, nil
}

// UpdateSlot applies a patch. Structural fields are rejected while the
// slot has open appointments; a structural change regenerates sub-slots,
// keeping any that appointments still reference.
func (s *Service) UpdateSlot(ctx context.Context, doctorID, slotID uuid.UUID, patch SlotPatch) (*Slot, error) {
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.DoctorID != doctorID {
		return nil, apperr.NotFoundf("slot not found")
	}

	if patch.structural() {
		open, err := s.slots.OpenAppointments(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if open > 0 {
			return nil, apperr.Validationf("cannot change slot times while %d appointments exist; only notes and consultation type may change", open)
		}
	}

	if patch.StartTime != nil {
		slot.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		slot.EndTime = *patch.EndTime
	}
	if patch.ScheduleType != nil {
		if !patch.ScheduleType.Valid() {
			return nil, apperr.Validationf("invalid schedule type %q", *patch.ScheduleType)
		}
		slot.ScheduleType = *patch.ScheduleType
	}
	if patch.SubSlotDuration != nil {
		slot.SubSlotDuration = *patch.SubSlotDuration
	}
	if patch.ConsultationType != nil {
		slot.ConsultationType = *patch.ConsultationType
	}
	if patch.Notes != nil {
		slot.Notes = *patch.Notes
	}
	if patch.IsActive != nil {
		slot.IsActive = *patch.IsActive
	}

	start, err := timegrid.ToMinutes(slot.StartTime)
	if err != nil {
		return nil, apperr.Validationf("invalid start time: %v", err)
	}
	end, err := timegrid.ToMinutes(slot.EndTime)
	if err != nil {
		return nil, apperr.Validationf("invalid end time: %v", err)
	}
	if start >= end {
		return nil, apperr.Validationf("start time must be before end time")
	}
	if slot.SubSlotDuration <= 0 {
		return nil, apperr.Validationf("sub-slot duration must be positive")
	}

	if patch.StartTime != nil || patch.EndTime != nil {
		overlap, err := s.slots.Overlapping(ctx, doctorID, slot.Date, slot.StartTime, slot.EndTime, &slot.ID)
		if err != nil {
			return nil, err
		}
		if overlap {
			return nil, apperr.Conflictf("updated slot overlaps an existing slot")
		}
	}

	if patch.structural() {
		slot.TotalCapacity = (end - start) / slot.SubSlotDuration
		if slot.TotalCapacity == 0 {
			return nil, apperr.Validationf("slot window is shorter than one appointment")
		}
		kept, err := s.slots.DeleteFreeSubSlots(ctx, slotID)
		if err != nil {
			return nil, err
		}
		skip := make(map[string]bool, len(kept))
		for _, t := range kept {
			skip[t] = true
		}
		fresh := buildSubSlots(slot.ID, start, end, slot.SubSlotDuration, skip)
		if err := s.slots.CreateSubSlots(ctx, fresh); err != nil {
			return nil, err
		}
	}

	if err := s.slots.UpdateSlot(ctx, slot); err != nil {
		return nil, err
	}
	slot.SubSlots, err = s.slots.SubSlots(ctx, slotID)
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// DeleteSlot removes a slot and its sub-slots. Refused while any
// non-cancelled appointment references the slot.
func (s *Service) DeleteSlot(ctx context.Context, doctorID, slotID uuid.UUID) error {
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.DoctorID != doctorID {
		return apperr.NotFoundf("slot not found")
	}
	open, err := s.slots.OpenAppointments(ctx, slotID)
	if err != nil {
		return err
	}
	if open > 0 {
		return apperr.Validationf("cannot delete slot with %d active appointments; cancel them first or deactivate the slot", open)
	}
	return s.slots.DeleteSlot(ctx, slotID)
}

// GetDoctorAvailableSlots is the patient-facing discovery read: every
// active slot of the doctor on the date with its open positions. Slots
// with nothing left are dropped.
func (s *Service) GetDoctorAvailableSlots(ctx context.Context, doctorID uuid.UUID, dateRaw string) (*DayAvailability, error) {
	doc, err := s.doctors.Defaults(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(dateRaw)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if date.Before(today(now)) {
		return nil, apperr.Validationf("cannot query availability for past dates")
	}
	horizon := today(now).AddDate(0, 0, doc.AdvanceBookingDays)
	if date.After(horizon) {
		return nil, apperr.Validationf("doctor only accepts bookings up to %d days in advance", doc.AdvanceBookingDays)
	}

	slots, err := s.slots.ListSlots(ctx, doctorID, &date, true)
	if err != nil {
		return nil, err
	}

	day := &DayAvailability{
		DoctorID:       doc.ID,
		DoctorName:     doc.Name,
		Specialization: doc.Specialization,
		Date:           date.Format(dateLayout),
	}
	for _, slot := range slots {
		if slot.Remaining() <= 0 {
			continue
		}
		view := &AvailableSlot{
			SlotID:           slot.ID,
			StartTime:        slot.StartTime,
			EndTime:          slot.EndTime,
			ScheduleType:     slot.ScheduleType,
			ConsultationType: slot.ConsultationType,
			SpotsRemaining:   slot.Remaining(),
		}
		switch slot.ScheduleType {
		case doctor.ScheduleWave:
			for _, ss := range slot.SubSlots {
				if ss.Status != SubSlotAvailable || ss.CurrentBookings >= ss.MaxCapacity {
					continue
				}
				id := ss.ID
				view.SubSlots = append(view.SubSlots, SubSlotView{
					SubSlotID: &id,
					StartTime: ss.StartTime,
					EndTime:   ss.EndTime,
					SpotsLeft: ss.MaxCapacity - ss.CurrentBookings,
				})
			}
		case doctor.ScheduleStream:
			view.SubSlots = streamPreview(slot)
		}
		if len(view.SubSlots) == 0 {
			continue
		}
		day.Slots = append(day.Slots, view)
	}
	return day, nil
}

// streamPreview computes the next few queue positions from the slot's
// counter, using the same arithmetic the allocator assigns with.
func streamPreview(slot *Slot) []SubSlotView {
	start, err := timegrid.ToMinutes(slot.StartTime)
	if err != nil {
		return nil
	}
	end, err := timegrid.ToMinutes(slot.EndTime)
	if err != nil {
		return nil
	}

	var views []SubSlotView
	for i := 0; i < streamPreviewSize; i++ {
		position := slot.CurrentBookings + 1 + i
		if position > slot.TotalCapacity {
			break
		}
		t := start + (position-1)*slot.SubSlotDuration
		if t+slot.SubSlotDuration > end {
			break
		}
		views = append(views, SubSlotView{
			StartTime: timegrid.FromMinutes(t),
			EndTime:   timegrid.FromMinutes(t + slot.SubSlotDuration),
			SpotsLeft: 1,
			Position:  position,
		})
	}
	return views
}

// ListDoctorAvailability is the doctor-facing listing: all slots for a
// date, or every upcoming slot when date is empty. Inactive slots are
// included.
func (s *Service) ListDoctorAvailability(ctx context.Context, doctorID uuid.UUID, dateRaw string) ([]*Slot, error) {
	var date *time.Time
	if dateRaw != "" {
		d, err := parseDate(dateRaw)
		if err != nil {
			return nil, err
		}
		date = &d
	}
	slots, err := s.slots.ListSlots(ctx, doctorID, date, false)
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// GetSlot returns one slot with sub-slots, scoped to its owner.
func (s *Service) GetSlot(ctx context.Context, doctorID, slotID uuid.UUID) (*Slot, error) {
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.DoctorID != doctorID {
		return nil, apperr.NotFoundf("slot not found")
	}
	slot.SubSlots, err = s.slots.SubSlots(ctx, slotID)
	if err != nil {
		return nil, err
	}
	return slot, nil
}
