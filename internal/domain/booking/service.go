package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/availability"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/timegrid"
)

const dateLayout = "2006-01-02"

// referenceRetries bounds how many times a booking restarts after a
// booking_reference collision.
const referenceRetries = 3

type Service struct {
	appointments Repository
	slots        availability.Repository
	patients     patient.Repository
	doctors      availability.DoctorDefaults
	txer         db.Txer
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(appointments Repository, slots availability.Repository, patients patient.Repository, doctors availability.DoctorDefaults, txer db.Txer, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		slots:        slots,
		patients:     patients,
		doctors:      doctors,
		txer:         txer,
		logger:       logger,
		now:          time.Now,
	}
}

// Book creates an appointment against a slot. Cheap preconditions run
// outside the transaction; the lock-revalidate-reserve-insert sequence
// runs inside one, so a failure at any point leaves no trace.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req BookRequest) (*Appointment, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}

	slot, err := s.slots.GetSlot(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if !slot.IsActive {
		return nil, apperr.NotFoundf("slot is no longer available")
	}
	doc, err := s.doctors.Defaults(ctx, slot.DoctorID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCutoff(slot, doc); err != nil {
		return nil, err
	}
	// Fast-path rejection before paying for a transaction. The
	// authoritative check runs again under the row lock.
	if slot.Remaining() <= 0 {
		return nil, apperr.Conflictf("slot is fully booked")
	}

	var appt *Appointment
	for attempt := 0; ; attempt++ {
		appt, err = s.bookTx(ctx, patientID, slot.ID, doc, req)
		if err == nil {
			return appt, nil
		}
		if db.IsUniqueViolation(err, "") && attempt < referenceRetries {
			s.logger.Warn().Str("slot_id", slot.ID.String()).Msg("booking reference collision, retrying")
			continue
		}
		if apperr.IsKnown(err) {
			return nil, err
		}
		s.logger.Error().
			Str("patient_id", patientID.String()).
			Str("slot_id", slot.ID.String()).
			Err(err).
			Msg("booking transaction failed")
		return nil, apperr.Internalf(err, "booking failed")
	}
}

func (s *Service) bookTx(ctx context.Context, patientID, slotID uuid.UUID, doc *doctor.Doctor, req BookRequest) (*Appointment, error) {
	var appt *Appointment
	err := s.txer.WithTx(ctx, func(ctx context.Context) error {
		slot, err := s.slots.GetSlotForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.Remaining() <= 0 {
			return apperr.Conflictf("slot is fully booked")
		}

		asn, err := allocatorFor(slot.ScheduleType, s.slots).reserve(ctx, slot, req.PreferredTime)
		if err != nil {
			return err
		}

		ref, err := newBookingReference()
		if err != nil {
			return err
		}

		appt = &Appointment{
			ID:               uuid.New(),
			PatientID:        patientID,
			DoctorID:         slot.DoctorID,
			SlotID:           slot.ID,
			SubSlotID:        asn.subSlotID,
			Date:             slot.Date,
			StartTime:        asn.startTime,
			EndTime:          asn.endTime,
			DurationMins:     slot.SubSlotDuration,
			BookingType:      slot.ScheduleType,
			QueuePosition:    asn.queuePosition,
			BookingReference: ref,
			Status:           StatusScheduled,
			ConsultationFee:  doc.ConsultationFee,
			ConsultationType: slot.ConsultationType,
			Reason:           req.Reason,
			Symptoms:         req.Symptoms,
		}
		if err := s.appointments.Create(ctx, appt); err != nil {
			return err
		}
		return s.slots.AdjustSlotCapacity(ctx, slot.ID, 1)
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// checkCutoff enforces the same-day booking cutoff: a booking for today
// must be placed at least the doctor's cutoff minutes before the slot
// starts. Future dates are unaffected. Slot times are zone-naive clinic
// wall-clock, so "today" and the minute arithmetic both follow the
// clock's own location.
func (s *Service) checkCutoff(slot *availability.Slot, doc *doctor.Doctor) error {
	now := s.now()
	if slot.Date.Format(dateLayout) != now.Format(dateLayout) {
		return nil
	}
	start, err := timegrid.ToMinutes(slot.StartTime)
	if err != nil {
		return apperr.Internalf(err, "slot has malformed start time")
	}
	nowMins := now.Hour()*60 + now.Minute()
	if nowMins+doc.SameDayCutoffMins > start {
		return apperr.Validationf("same-day bookings require at least %d minutes notice", doc.SameDayCutoffMins)
	}
	return nil
}

// CancelByPatient cancels the patient's own appointment and releases the
// reserved capacity in the same transaction.
func (s *Service) CancelByPatient(ctx context.Context, patientID, apptID uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != patientID {
		return nil, apperr.NotFoundf("appointment not found")
	}
	return s.cancel(ctx, appt, "patient", reason)
}

// CancelByDoctor is the doctor-side cancellation, subject to the same
// lead-time guard.
func (s *Service) CancelByDoctor(ctx context.Context, doctorID, apptID uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, apperr.NotFoundf("appointment not found")
	}
	return s.cancel(ctx, appt, "doctor", reason)
}

func (s *Service) cancel(ctx context.Context, appt *Appointment, by, reason string) (*Appointment, error) {
	now := s.now()
	if !appt.CanCancel(now) {
		if !appt.active() {
			return nil, apperr.Validationf("appointment is already %s", appt.Status)
		}
		return nil, apperr.Validationf("appointments can only be cancelled more than %d hours in advance", int(cancelGuard.Hours()))
	}

	err := s.txer.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.slots.GetSlotForUpdate(ctx, appt.SlotID); err != nil {
			return err
		}
		appt.Status = StatusCancelled
		appt.CancelledBy = by
		appt.CancelledAt = &now
		appt.CancellationReason = reason
		if err := s.appointments.Update(ctx, appt); err != nil {
			return err
		}
		if appt.SubSlotID != nil {
			if err := s.slots.AdjustSubSlotCapacity(ctx, *appt.SubSlotID, -1); err != nil {
				return err
			}
		}
		return s.slots.AdjustSlotCapacity(ctx, appt.SlotID, -1)
	})
	if err != nil {
		if apperr.IsKnown(err) {
			return nil, err
		}
		s.logger.Error().
			Str("appointment_id", appt.ID.String()).
			Err(err).
			Msg("cancellation transaction failed")
		return nil, apperr.Internalf(err, "cancellation failed")
	}
	return appt, nil
}

// Reschedule books the patient into a new slot, then marks the original
// rescheduled and releases its capacity. The new booking commits first;
// if the release then fails the patient holds both reservations, which
// reconciliation treats the same as a missed cancellation.
func (s *Service) Reschedule(ctx context.Context, patientID, apptID uuid.UUID, req RescheduleRequest) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != patientID {
		return nil, apperr.NotFoundf("appointment not found")
	}
	now := s.now()
	if !appt.CanReschedule(now) {
		if !appt.active() {
			return nil, apperr.Validationf("appointment is already %s", appt.Status)
		}
		return nil, apperr.Validationf("appointments can only be rescheduled more than %d hours in advance", int(rescheduleGuard.Hours()))
	}

	successor, err := s.Book(ctx, patientID, BookRequest{
		SlotID:        req.SlotID,
		PreferredTime: req.PreferredTime,
		Reason:        appt.Reason,
		Symptoms:      appt.Symptoms,
	})
	if err != nil {
		return nil, err
	}

	err = s.txer.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.slots.GetSlotForUpdate(ctx, appt.SlotID); err != nil {
			return err
		}
		appt.Status = StatusRescheduled
		appt.RescheduledTo = &successor.ID
		appt.CancellationReason = req.Reason
		if err := s.appointments.Update(ctx, appt); err != nil {
			return err
		}
		if appt.SubSlotID != nil {
			if err := s.slots.AdjustSubSlotCapacity(ctx, *appt.SubSlotID, -1); err != nil {
				return err
			}
		}
		return s.slots.AdjustSlotCapacity(ctx, appt.SlotID, -1)
	})
	if err != nil {
		s.logger.Error().
			Str("appointment_id", appt.ID.String()).
			Str("successor_id", successor.ID.String()).
			Err(err).
			Msg("failed to release original appointment after reschedule")
		if apperr.IsKnown(err) {
			return nil, err
		}
		return nil, apperr.Internalf(err, "reschedule failed")
	}
	return successor, nil
}

// UpdateStatus moves a doctor's appointment through the status machine.
// Cancellation and rescheduling have their own operations because they
// release capacity; they are not reachable from here.
func (s *Service) UpdateStatus(ctx context.Context, doctorID, apptID uuid.UUID, status Status, notes string) (*Appointment, error) {
	if !status.Valid() {
		return nil, apperr.Validationf("invalid status %q", status)
	}
	if status == StatusCancelled || status == StatusRescheduled {
		return nil, apperr.Validationf("use the cancel or reschedule operation to set %s", status)
	}

	appt, err := s.appointments.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, apperr.NotFoundf("appointment not found")
	}
	if !canTransition(appt.Status, status) {
		return nil, apperr.Validationf("cannot move a %s appointment to %s", appt.Status, status)
	}

	appt.Status = status
	if notes != "" {
		appt.Notes = notes
	}
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) view(appts []*Appointment) []*View {
	now := s.now()
	views := make([]*View, len(appts))
	for i, a := range appts {
		views[i] = &View{
			Appointment:   a,
			CanCancel:     a.CanCancel(now),
			CanReschedule: a.CanReschedule(now),
		}
	}
	return views
}

func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID, filters ListFilters, limit, offset int) ([]*View, int, error) {
	appts, total, err := s.appointments.ListByPatient(ctx, patientID, filters, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return s.view(appts), total, nil
}

func (s *Service) ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID, filters ListFilters, limit, offset int) ([]*View, int, error) {
	appts, total, err := s.appointments.ListByDoctor(ctx, doctorID, filters, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return s.view(appts), total, nil
}

// GetAppointment returns one appointment visible to the requesting
// actor, patient or doctor.
func (s *Service) GetAppointment(ctx context.Context, actorID, apptID uuid.UUID) (*View, error) {
	appt, err := s.appointments.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != actorID && appt.DoctorID != actorID {
		return nil, apperr.NotFoundf("appointment not found")
	}
	now := s.now()
	return &View{
		Appointment:   appt,
		CanCancel:     appt.CanCancel(now),
		CanReschedule: appt.CanReschedule(now),
	}, nil
}
