package availability

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/timegrid"
)

type mockRepo struct {
	mu       sync.Mutex
	slots    map[uuid.UUID]*Slot
	subSlots map[uuid.UUID]*SubSlot
	// appointments per slot, counted by OpenAppointments
	open map[uuid.UUID]int
	// sub-slot ids referenced by open appointments
	referenced map[uuid.UUID]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		slots:      make(map[uuid.UUID]*Slot),
		subSlots:   make(map[uuid.UUID]*SubSlot),
		open:       make(map[uuid.UUID]int),
		referenced: make(map[uuid.UUID]bool),
	}
}

func (m *mockRepo) CreateSlot(_ context.Context, s *Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.SubSlots = nil
	m.slots[s.ID] = &cp
	return nil
}

func (m *mockRepo) CreateSubSlots(_ context.Context, subs []*SubSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ss := range subs {
		cp := *ss
		m.subSlots[ss.ID] = &cp
	}
	return nil
}

func (m *mockRepo) GetSlot(_ context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, apperr.NotFoundf("slot not found")
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) GetSlotForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return m.GetSlot(ctx, id)
}

func (m *mockRepo) UpdateSlot(_ context.Context, s *Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.slots[s.ID]
	if !ok {
		return apperr.NotFoundf("slot not found")
	}
	cp := *s
	cp.SubSlots = nil
	cp.CurrentBookings = stored.CurrentBookings
	m.slots[s.ID] = &cp
	return nil
}

func (m *mockRepo) DeleteSlot(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, id)
	for ssID, ss := range m.subSlots {
		if ss.SlotID == id {
			delete(m.subSlots, ssID)
		}
	}
	return nil
}

func (m *mockRepo) ListSlots(_ context.Context, doctorID uuid.UUID, date *time.Time, activeOnly bool) ([]*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Slot
	for _, s := range m.slots {
		if s.DoctorID != doctorID {
			continue
		}
		if date != nil && !s.Date.Equal(*date) {
			continue
		}
		if activeOnly && !s.IsActive {
			continue
		}
		cp := *s
		cp.SubSlots = m.subSlotsOf(s.ID)
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockRepo) subSlotsOf(slotID uuid.UUID) []*SubSlot {
	var subs []*SubSlot
	for _, ss := range m.subSlots {
		if ss.SlotID == slotID {
			cp := *ss
			subs = append(subs, &cp)
		}
	}
	for i := 0; i < len(subs); i++ {
		for j := i + 1; j < len(subs); j++ {
			if subs[j].StartTime < subs[i].StartTime {
				subs[i], subs[j] = subs[j], subs[i]
			}
		}
	}
	return subs
}

func (m *mockRepo) Overlapping(_ context.Context, doctorID uuid.UUID, date time.Time, startTime, endTime string, excludeID *uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, _ := timegrid.ToMinutes(startTime)
	ne, _ := timegrid.ToMinutes(endTime)
	for _, s := range m.slots {
		if s.DoctorID != doctorID || !s.Date.Equal(date) || !s.IsActive {
			continue
		}
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		es, _ := timegrid.ToMinutes(s.StartTime)
		ee, _ := timegrid.ToMinutes(s.EndTime)
		if timegrid.Overlaps(ns, ne, es, ee) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) SubSlots(_ context.Context, slotID uuid.UUID) ([]*SubSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subSlotsOf(slotID), nil
}

func (m *mockRepo) FindSubSlotForUpdate(_ context.Context, slotID uuid.UUID, startTime *string) (*SubSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ss := range m.subSlotsOf(slotID) {
		if ss.Status != SubSlotAvailable || ss.CurrentBookings >= ss.MaxCapacity {
			continue
		}
		if startTime != nil && ss.StartTime != *startTime {
			continue
		}
		return ss, nil
	}
	return nil, apperr.NotFoundf("sub-slot not found")
}

func (m *mockRepo) GetSubSlotForUpdate(_ context.Context, id uuid.UUID) (*SubSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ss, ok := m.subSlots[id]
	if !ok {
		return nil, apperr.NotFoundf("sub-slot not found")
	}
	cp := *ss
	return &cp, nil
}

func (m *mockRepo) DeleteFreeSubSlots(_ context.Context, slotID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []string
	for id, ss := range m.subSlots {
		if ss.SlotID != slotID {
			continue
		}
		if m.referenced[id] {
			kept = append(kept, ss.StartTime)
			continue
		}
		delete(m.subSlots, id)
	}
	return kept, nil
}

func (m *mockRepo) AdjustSlotCapacity(_ context.Context, id uuid.UUID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return apperr.NotFoundf("slot not found")
	}
	s.CurrentBookings += delta
	if s.CurrentBookings < 0 {
		s.CurrentBookings = 0
	}
	if s.CurrentBookings > s.TotalCapacity {
		s.CurrentBookings = s.TotalCapacity
	}
	return nil
}

func (m *mockRepo) AdjustSubSlotCapacity(_ context.Context, id uuid.UUID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ss, ok := m.subSlots[id]
	if !ok {
		return apperr.NotFoundf("sub-slot not found")
	}
	ss.CurrentBookings += delta
	if ss.CurrentBookings < 0 {
		ss.CurrentBookings = 0
	}
	if ss.CurrentBookings > ss.MaxCapacity {
		ss.CurrentBookings = ss.MaxCapacity
	}
	if ss.Status != SubSlotInactive {
		if ss.CurrentBookings >= ss.MaxCapacity {
			ss.Status = SubSlotFull
		} else {
			ss.Status = SubSlotAvailable
		}
	}
	return nil
}

func (m *mockRepo) OpenAppointments(_ context.Context, slotID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open[slotID], nil
}

type mockDefaults struct {
	doctors map[uuid.UUID]*doctor.Doctor
}

func (m *mockDefaults) Defaults(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.NotFoundf("doctor not found")
	}
	return d, nil
}

var fixedNow = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *mockRepo, *doctor.Doctor) {
	t.Helper()
	repo := newMockRepo()
	doc := &doctor.Doctor{
		ID:                  uuid.New(),
		Name:                "Dr. Okafor",
		Specialization:      "dermatology",
		DefaultScheduleType: doctor.ScheduleWave,
		DefaultSlotDuration: 30,
		AdvanceBookingDays:  30,
		SameDayCutoffMins:   120,
		AcceptingPatients:   true,
	}
	defaults := &mockDefaults{doctors: map[uuid.UUID]*doctor.Doctor{doc.ID: doc}}
	svc := NewService(repo, defaults, zerolog.New(os.Stderr))
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, doc
}

func mustCreate(t *testing.T, svc *Service, doctorID uuid.UUID, req CreateSlotRequest) *Slot {
	t.Helper()
	slots, err := svc.CreateSlot(context.Background(), doctorID, req)
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	return slots[0]
}

func TestCreateSlot_CapacityAndSubSlots(t *testing.T) {
	svc, _, doc := newTestService(t)

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date:            "2026-03-10",
		StartTime:       "09:00",
		EndTime:         "11:00",
		ScheduleType:    doctor.ScheduleWave,
		SubSlotDuration: 30,
	})

	if slot.TotalCapacity != 4 {
		t.Errorf("expected capacity 4, got %d", slot.TotalCapacity)
	}
	if len(slot.SubSlots) != 4 {
		t.Fatalf("expected 4 sub-slots, got %d", len(slot.SubSlots))
	}
	if slot.SubSlots[0].StartTime != "09:00:00" || slot.SubSlots[3].EndTime != "11:00:00" {
		t.Errorf("unexpected sub-slot bounds: %s .. %s",
			slot.SubSlots[0].StartTime, slot.SubSlots[3].EndTime)
	}
	for _, ss := range slot.SubSlots {
		if ss.MaxCapacity != 1 || ss.Status != SubSlotAvailable {
			t.Errorf("sub-slot %s: capacity %d status %s", ss.StartTime, ss.MaxCapacity, ss.Status)
		}
	}
}

func TestCreateSlot_ClampedFinalSubSlot(t *testing.T) {
	svc, _, doc := newTestService(t)

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date:            "2026-03-10",
		StartTime:       "13:00",
		EndTime:         "14:30",
		SubSlotDuration: 60,
	})

	if slot.TotalCapacity != 1 {
		t.Errorf("expected floor capacity 1, got %d", slot.TotalCapacity)
	}
	if len(slot.SubSlots) != 2 {
		t.Fatalf("expected 2 sub-slots (last clamped), got %d", len(slot.SubSlots))
	}
	last := slot.SubSlots[1]
	if last.StartTime != "14:00:00" || last.EndTime != "14:30:00" {
		t.Errorf("expected clamped final sub-slot 14:00-14:30, got %s-%s", last.StartTime, last.EndTime)
	}
}

func TestCreateSlot_Validation(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateSlotRequest
	}{
		{"past date", CreateSlotRequest{Date: "2026-03-01", StartTime: "09:00", EndTime: "10:00", SubSlotDuration: 30}},
		{"start after end", CreateSlotRequest{Date: "2026-03-10", StartTime: "11:00", EndTime: "09:00", SubSlotDuration: 30}},
		{"start equals end", CreateSlotRequest{Date: "2026-03-10", StartTime: "09:00", EndTime: "09:00", SubSlotDuration: 30}},
		{"bad date", CreateSlotRequest{Date: "10-03-2026", StartTime: "09:00", EndTime: "10:00", SubSlotDuration: 30}},
		{"window shorter than one appointment", CreateSlotRequest{Date: "2026-03-10", StartTime: "09:00", EndTime: "09:20", SubSlotDuration: 30}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateSlot(ctx, doc.ID, tc.req); !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateSlot_OverlapMatrix(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "10:00", EndTime: "12:00", SubSlotDuration: 30,
	})

	overlapping := []struct{ name, start, end string }{
		{"starts inside", "11:00", "13:00"},
		{"ends inside", "09:00", "11:00"},
		{"contains", "09:00", "13:00"},
		{"contained", "10:30", "11:30"},
		{"identical", "10:00", "12:00"},
	}
	for _, tc := range overlapping {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSlot(ctx, doc.ID, CreateSlotRequest{
				Date: "2026-03-10", StartTime: tc.start, EndTime: tc.end, SubSlotDuration: 30,
			})
			if !apperr.IsConflict(err) {
				t.Errorf("expected conflict, got %v", err)
			}
		})
	}

	// Abutting windows and other days are fine.
	mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "12:00", EndTime: "13:00", SubSlotDuration: 30,
	})
	mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-11", StartTime: "10:00", EndTime: "12:00", SubSlotDuration: 30,
	})
}

func TestCreateSlot_Recurring(t *testing.T) {
	svc, _, doc := newTestService(t)

	// 2026-03-02 is a Monday.
	slots, err := svc.CreateSlot(context.Background(), doc.ID, CreateSlotRequest{
		Date:            "2026-03-02",
		StartTime:       "09:00",
		EndTime:         "10:00",
		SubSlotDuration: 30,
		Recurring:       true,
		RecurringEnd:    "2026-03-15",
		Weekdays:        []string{"monday", "wednesday"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots (2 mondays + 2 wednesdays), got %d", len(slots))
	}
	for _, s := range slots {
		wd := s.Date.Weekday()
		if wd != time.Monday && wd != time.Wednesday {
			t.Errorf("unexpected weekday %s for %s", wd, s.Date.Format("2006-01-02"))
		}
	}
}

func TestCreateSlot_RecurringSkipsConflictingDays(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()

	// Pre-existing slot on the first Monday.
	mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-02", StartTime: "09:00", EndTime: "10:00", SubSlotDuration: 30,
	})

	slots, err := svc.CreateSlot(ctx, doc.ID, CreateSlotRequest{
		Date:            "2026-03-02",
		StartTime:       "09:00",
		EndTime:         "10:00",
		SubSlotDuration: 30,
		Recurring:       true,
		RecurringEnd:    "2026-03-09",
		Weekdays:        []string{"monday"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot (conflicting monday skipped), got %d", len(slots))
	}

	// Every day conflicting yields a Conflict.
	_, err = svc.CreateSlot(ctx, doc.ID, CreateSlotRequest{
		Date:            "2026-03-02",
		StartTime:       "09:00",
		EndTime:         "10:00",
		SubSlotDuration: 30,
		Recurring:       true,
		RecurringEnd:    "2026-03-02",
		Weekdays:        []string{"monday"},
	})
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict when no day succeeds, got %v", err)
	}
}

func TestUpdateSlot_StructuralGuard(t *testing.T) {
	svc, repo, doc := newTestService(t)
	ctx := context.Background()

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "09:00", EndTime: "11:00", SubSlotDuration: 30,
	})
	repo.open[slot.ID] = 1

	newStart := "10:00:00"
	if _, err := svc.UpdateSlot(ctx, doc.ID, slot.ID, SlotPatch{StartTime: &newStart}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for structural edit with appointments, got %v", err)
	}

	// Non-structural fields still pass.
	notes := "bring referral letter"
	updated, err := svc.UpdateSlot(ctx, doc.ID, slot.ID, SlotPatch{Notes: &notes})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Notes != notes {
		t.Errorf("notes not applied: %q", updated.Notes)
	}
}

func TestUpdateSlot_RegeneratesSubSlots(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "09:00", EndTime: "11:00", SubSlotDuration: 30,
	})
	if len(slot.SubSlots) != 4 {
		t.Fatalf("expected 4 sub-slots, got %d", len(slot.SubSlots))
	}

	duration := 60
	updated, err := svc.UpdateSlot(ctx, doc.ID, slot.ID, SlotPatch{SubSlotDuration: &duration})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.TotalCapacity != 2 {
		t.Errorf("expected recomputed capacity 2, got %d", updated.TotalCapacity)
	}
	if len(updated.SubSlots) != 2 {
		t.Errorf("expected 2 regenerated sub-slots, got %d", len(updated.SubSlots))
	}
}

func TestUpdateSlot_OverlapExcludesSelf(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "09:00", EndTime: "11:00", SubSlotDuration: 30,
	})
	mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "13:00", EndTime: "14:00", SubSlotDuration: 30,
	})

	// Shrinking within its own window is not a self-conflict.
	end := "10:00:00"
	if _, err := svc.UpdateSlot(ctx, doc.ID, slot.ID, SlotPatch{EndTime: &end}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Stretching into the sibling is.
	end = "13:30:00"
	if _, err := svc.UpdateSlot(ctx, doc.ID, slot.ID, SlotPatch{EndTime: &end}); !apperr.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestDeleteSlot_Guard(t *testing.T) {
	svc, repo, doc := newTestService(t)
	ctx := context.Background()

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "09:00", EndTime: "11:00", SubSlotDuration: 30,
	})
	repo.open[slot.ID] = 2

	if err := svc.DeleteSlot(ctx, doc.ID, slot.ID); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	repo.open[slot.ID] = 0
	if err := svc.DeleteSlot(ctx, doc.ID, slot.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetSlot(ctx, doc.ID, slot.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected slot gone, got %v", err)
	}
}

func TestDeleteSlot_OtherDoctor(t *testing.T) {
	svc, _, doc := newTestService(t)
	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "09:00", EndTime: "11:00", SubSlotDuration: 30,
	})
	if err := svc.DeleteSlot(context.Background(), uuid.New(), slot.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for foreign doctor, got %v", err)
	}
}

func TestGetAvailableSlots_WaveView(t *testing.T) {
	svc, repo, doc := newTestService(t)
	ctx := context.Background()

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "09:00", EndTime: "10:00", SubSlotDuration: 30,
	})

	// Fill the first sub-slot.
	subs, _ := repo.SubSlots(ctx, slot.ID)
	if err := repo.AdjustSubSlotCapacity(ctx, subs[0].ID, 1); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if err := repo.AdjustSlotCapacity(ctx, slot.ID, 1); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	day, err := svc.GetDoctorAvailableSlots(ctx, doc.ID, "2026-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.DoctorName != doc.Name {
		t.Errorf("expected doctor header, got %q", day.DoctorName)
	}
	if len(day.Slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(day.Slots))
	}
	view := day.Slots[0]
	if view.SpotsRemaining != 1 {
		t.Errorf("expected 1 spot remaining, got %d", view.SpotsRemaining)
	}
	if len(view.SubSlots) != 1 || view.SubSlots[0].StartTime != "09:30:00" {
		t.Errorf("expected only the free 09:30 sub-slot, got %+v", view.SubSlots)
	}
}

func TestGetAvailableSlots_StreamPreview(t *testing.T) {
	svc, repo, doc := newTestService(t)
	ctx := context.Background()

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "09:00", EndTime: "12:00",
		ScheduleType: doctor.ScheduleStream, SubSlotDuration: 30,
	})
	if err := repo.AdjustSlotCapacity(ctx, slot.ID, 2); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	day, err := svc.GetDoctorAvailableSlots(ctx, doc.ID, "2026-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(day.Slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(day.Slots))
	}
	preview := day.Slots[0].SubSlots
	if len(preview) != 3 {
		t.Fatalf("expected 3 preview positions, got %d", len(preview))
	}
	want := []struct {
		pos   int
		start string
	}{{3, "10:00:00"}, {4, "10:30:00"}, {5, "11:00:00"}}
	for i, w := range want {
		if preview[i].Position != w.pos || preview[i].StartTime != w.start {
			t.Errorf("position %d: got %d at %s, want %d at %s",
				i, preview[i].Position, preview[i].StartTime, w.pos, w.start)
		}
	}
}

func TestGetAvailableSlots_FullSlotsDropped(t *testing.T) {
	svc, repo, doc := newTestService(t)
	ctx := context.Background()

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "09:00", EndTime: "10:00", SubSlotDuration: 30,
	})
	if err := repo.AdjustSlotCapacity(ctx, slot.ID, slot.TotalCapacity); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	day, err := svc.GetDoctorAvailableSlots(ctx, doc.ID, "2026-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(day.Slots) != 0 {
		t.Errorf("expected full slot to be dropped, got %d slots", len(day.Slots))
	}
}

func TestGetAvailableSlots_Horizon(t *testing.T) {
	svc, _, doc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetDoctorAvailableSlots(ctx, doc.ID, "2026-03-01"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for past date, got %v", err)
	}
	// Horizon is 30 days from 2026-03-02, so 2026-04-01 is the last
	// bookable day.
	if _, err := svc.GetDoctorAvailableSlots(ctx, doc.ID, "2026-04-01"); err != nil {
		t.Errorf("expected last in-horizon day to pass, got %v", err)
	}
	if _, err := svc.GetDoctorAvailableSlots(ctx, doc.ID, "2026-04-02"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error beyond horizon, got %v", err)
	}
}

func TestAdjustCapacity_Clamped(t *testing.T) {
	svc, repo, doc := newTestService(t)
	ctx := context.Background()

	slot := mustCreate(t, svc, doc.ID, CreateSlotRequest{
		Date: "2026-03-10", StartTime: "09:00", EndTime: "10:00", SubSlotDuration: 30,
	})

	if err := repo.AdjustSlotCapacity(ctx, slot.ID, -5); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	got, _ := repo.GetSlot(ctx, slot.ID)
	if got.CurrentBookings != 0 {
		t.Errorf("expected floor at 0, got %d", got.CurrentBookings)
	}

	if err := repo.AdjustSlotCapacity(ctx, slot.ID, 99); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	got, _ = repo.GetSlot(ctx, slot.ID)
	if got.CurrentBookings != got.TotalCapacity {
		t.Errorf("expected ceiling at capacity, got %d/%d", got.CurrentBookings, got.TotalCapacity)
	}
}
