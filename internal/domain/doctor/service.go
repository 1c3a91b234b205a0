package doctor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

// Service owns doctor profiles and serves their scheduling defaults to
// the availability and booking paths. Defaults are read on every booking
// and discovery call, so they sit behind a bounded LRU cache that is
// invalidated whenever the profile changes.
type Service struct {
	doctors Repository
	logger  zerolog.Logger

	mu    sync.RWMutex
	cache *lru.Cache[uuid.UUID, *Doctor]
}

func NewService(doctors Repository, cacheSize int, logger zerolog.Logger) (*Service, error) {
	cache, err := lru.New[uuid.UUID, *Doctor](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{doctors: doctors, cache: cache, logger: logger}, nil
}

// Defaults returns the doctor's scheduling defaults, from cache when
// possible. The cached copy may trail a concurrent profile update by one
// invalidation; booking correctness never depends on these fields.
func (s *Service) Defaults(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	s.mu.RLock()
	d, ok := s.cache.Get(id)
	s.mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache.Add(id, d)
	s.mu.Unlock()
	return d, nil
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

// UpdateProfile applies the patch and drops the cached defaults.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.DefaultScheduleType != nil && !patch.DefaultScheduleType.Valid() {
		return nil, apperr.Validationf("invalid schedule type: %s", *patch.DefaultScheduleType)
	}
	if patch.DefaultSlotDuration != nil && *patch.DefaultSlotDuration <= 0 {
		return nil, apperr.Validationf("default slot duration must be positive")
	}
	if patch.AdvanceBookingDays != nil && *patch.AdvanceBookingDays <= 0 {
		return nil, apperr.Validationf("advance booking days must be positive")
	}
	if patch.SameDayCutoffMins != nil && *patch.SameDayCutoffMins < 0 {
		return nil, apperr.Validationf("same-day booking cutoff must not be negative")
	}

	applyPatch(d, patch)

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache.Remove(id)
	s.mu.Unlock()

	s.logger.Info().Str("doctor_id", id.String()).Msg("doctor profile updated")
	return d, nil
}

// ListDoctors returns the patient-facing directory of doctors accepting
// patients, filtered and paginated.
func (s *Service) ListDoctors(ctx context.Context, filters Filters, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, filters, limit, offset)
}

func applyPatch(d *Doctor, p ProfilePatch) {
	if p.Specialization != nil {
		d.Specialization = *p.Specialization
	}
	if p.ExperienceYears != nil {
		d.ExperienceYears = p.ExperienceYears
	}
	if p.Education != nil {
		d.Education = p.Education
	}
	if p.Bio != nil {
		d.Bio = p.Bio
	}
	if p.ClinicAddress != nil {
		d.ClinicAddress = p.ClinicAddress
	}
	if p.ConsultationFee != nil {
		d.ConsultationFee = *p.ConsultationFee
	}
	if p.DefaultScheduleType != nil {
		d.DefaultScheduleType = *p.DefaultScheduleType
	}
	if p.DefaultSlotDuration != nil {
		d.DefaultSlotDuration = *p.DefaultSlotDuration
	}
	if p.AdvanceBookingDays != nil {
		d.AdvanceBookingDays = *p.AdvanceBookingDays
	}
	if p.SameDayCutoffMins != nil {
		d.SameDayCutoffMins = *p.SameDayCutoffMins
	}
	if p.AcceptingPatients != nil {
		d.AcceptingPatients = *p.AcceptingPatients
	}
}
