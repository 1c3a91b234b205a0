package doctor

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

type mockRepo struct {
	doctors map[uuid.UUID]*Doctor
	gets    int
}

func newMockRepo() *mockRepo {
	return &mockRepo{doctors: make(map[uuid.UUID]*Doctor)}
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	m.gets++
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.NotFoundf("doctor not found")
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, d *Doctor) error {
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, filters Filters, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		if d.AcceptingPatients {
			result = append(result, d)
		}
	}
	return result, len(result), nil
}

func newTestService(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	repo := newMockRepo()
	svc, err := NewService(repo, 16, zerolog.New(os.Stderr))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func seedDoctor(repo *mockRepo) *Doctor {
	d := &Doctor{
		ID:                  uuid.New(),
		Name:                "Dr. Adams",
		Specialization:      "cardiology",
		DefaultScheduleType: ScheduleStream,
		DefaultSlotDuration: 15,
		AdvanceBookingDays:  30,
		SameDayCutoffMins:   120,
		AcceptingPatients:   true,
	}
	repo.doctors[d.ID] = d
	return d
}

func TestDefaults_Cached(t *testing.T) {
	svc, repo := newTestService(t)
	d := seedDoctor(repo)

	for i := 0; i < 3; i++ {
		got, err := svc.Defaults(context.Background(), d.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.SameDayCutoffMins != 120 {
			t.Errorf("expected cutoff 120, got %d", got.SameDayCutoffMins)
		}
	}
	if repo.gets != 1 {
		t.Errorf("expected a single repo read behind the cache, got %d", repo.gets)
	}
}

func TestUpdateProfile_InvalidatesCache(t *testing.T) {
	svc, repo := newTestService(t)
	d := seedDoctor(repo)

	if _, err := svc.Defaults(context.Background(), d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cutoff := 60
	if _, err := svc.UpdateProfile(context.Background(), d.ID, ProfilePatch{SameDayCutoffMins: &cutoff}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Defaults(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SameDayCutoffMins != 60 {
		t.Errorf("expected fresh cutoff 60 after invalidation, got %d", got.SameDayCutoffMins)
	}
}

func TestUpdateProfile_ConsultationFee(t *testing.T) {
	svc, repo := newTestService(t)
	d := seedDoctor(repo)
	d.ConsultationFee = 80
	repo.doctors[d.ID] = d

	fee := 95.50
	updated, err := svc.UpdateProfile(context.Background(), d.ID, ProfilePatch{ConsultationFee: &fee})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ConsultationFee != 95.50 {
		t.Errorf("expected fee 95.50, got %v", updated.ConsultationFee)
	}

	// Omitting the field leaves the stored fee alone.
	updated, err = svc.UpdateProfile(context.Background(), d.ID, ProfilePatch{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ConsultationFee != 95.50 {
		t.Errorf("expected fee unchanged, got %v", updated.ConsultationFee)
	}
}

func TestUpdateProfile_Validation(t *testing.T) {
	svc, repo := newTestService(t)
	d := seedDoctor(repo)

	bad := ScheduleType("round-robin")
	if _, err := svc.UpdateProfile(context.Background(), d.ID, ProfilePatch{DefaultScheduleType: &bad}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad schedule type, got %v", err)
	}

	zero := 0
	if _, err := svc.UpdateProfile(context.Background(), d.ID, ProfilePatch{DefaultSlotDuration: &zero}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for zero duration, got %v", err)
	}

	neg := -1
	if _, err := svc.UpdateProfile(context.Background(), d.ID, ProfilePatch{SameDayCutoffMins: &neg}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for negative cutoff, got %v", err)
	}
}

func TestUpdateProfile_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.UpdateProfile(context.Background(), uuid.New(), ProfilePatch{}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
