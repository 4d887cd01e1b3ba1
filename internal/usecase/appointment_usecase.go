package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hospital-management-system/internal/converter"
	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/delivery/http/middleware"
	"hospital-management-system/internal/domain/entity"
	"hospital-management-system/internal/domain/repository"
	"hospital-management-system/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrPatientNotFound       = errors.New("patient not found")
	ErrDoctorNotFound        = errors.New("doctor not found")
	ErrSlotNotFound          = errors.New("slot not found")
	ErrSlotAlreadyBooked     = errors.New("slot is already booked")
	ErrSlotInPast            = errors.New("slot is in the past")
	ErrSlotWrongDoctor       = errors.New("slot belongs to a different doctor")
	ErrPastAppointmentTime   = errors.New("appointment time must be in the future")
	ErrInvalidTransition     = errors.New("appointment status does not allow this transition")
	ErrAlreadyCancelled      = errors.New("appointment is already cancelled")
	ErrAppointmentNotOwned   = errors.New("appointment does not belong to you")
	ErrAppointmentNotStarted = errors.New("appointment time has not passed yet")
	ErrInvalidID             = errors.New("invalid identifier")
	ErrInvalidDate           = errors.New("invalid date format")
)

type AppointmentUsecase interface {
	Book(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	Confirm(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	Reschedule(ctx context.Context, appointmentID uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	Complete(ctx context.Context, appointmentID uuid.UUID, req *dto.CompleteAppointmentRequest) (*dto.AppointmentResponse, error)
	MarkNoShow(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	GetByID(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	List(ctx context.Context, req *dto.AppointmentFilterRequest) (*dto.AppointmentListResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	slotRepo        repository.SlotRepository
	patientRepo     repository.PatientProfileRepository
	doctorRepo      repository.DoctorProfileRepository
	scheduler       *service.ReminderScheduler
	audit           service.AuditService

	now func() time.Time
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	slotRepo repository.SlotRepository,
	patientRepo repository.PatientProfileRepository,
	doctorRepo repository.DoctorProfileRepository,
	scheduler *service.ReminderScheduler,
	audit service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		slotRepo:        slotRepo,
		patientRepo:     patientRepo,
		doctorRepo:      doctorRepo,
		scheduler:       scheduler,
		audit:           audit,
		now:             time.Now,
	}
}

// Book creates an appointment in status=scheduled.
//
// Flow:
// 1. Resolve patient (self for patient role, explicit for admin) and doctor
// 2. Resolve the slot when slot_id is given; the slot dictates date/duration
// 3. Reject appointment dates that are not in the future
// 4. Transaction: atomically book the slot, insert the appointment, audit
// 5. Best-effort: register 24h/1h reminders plus an immediate confirmation;
//    a reminder failure never fails the booking
func (u *appointmentUsecase) Book(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)

	patientID := userID
	if req.PatientID != "" {
		if roleID != entity.RoleIDAdmin {
			return nil, ErrAppointmentNotOwned
		}
		parsed, err := uuid.Parse(req.PatientID)
		if err != nil {
			return nil, ErrInvalidID
		}
		patientID = parsed
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, ErrInvalidID
	}

	patient, err := u.patientRepo.FindByUserID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	now := u.now()

	// The slot, when given, is the source of truth for date and duration.
	var slotID *uuid.UUID
	appointmentDate := time.Time{}
	duration := req.DurationMinutes
	if duration == 0 {
		duration = 30
	}

	if req.SlotID != "" {
		parsed, err := uuid.Parse(req.SlotID)
		if err != nil {
			return nil, ErrInvalidID
		}
		slot, err := u.slotRepo.FindByID(u.db.WithContext(ctx), parsed)
		if err != nil {
			u.log.Warnf("Failed to find slot %s: %+v", parsed, err)
			return nil, err
		}
		if slot == nil {
			return nil, ErrSlotNotFound
		}
		if slot.DoctorID != doctorID {
			return nil, ErrSlotWrongDoctor
		}
		slotID = &slot.ID
		appointmentDate = slot.StartTime
		duration = int(slot.EndTime.Sub(slot.StartTime).Minutes())
	} else {
		appointmentDate, err = time.Parse(time.RFC3339, req.AppointmentDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
	}

	if !appointmentDate.After(now) {
		return nil, ErrPastAppointmentTime
	}

	appointment := &entity.Appointment{
		PatientID:       patientID,
		DoctorID:        doctorID,
		SlotID:          slotID,
		AppointmentDate: appointmentDate,
		DurationMinutes: duration,
		Status:          entity.AppointmentStatusScheduled,
		Type:            entity.AppointmentType(req.Type),
		Reason:          req.Reason,
		Symptoms:        req.Symptoms,
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if slotID != nil {
		booked, err := u.slotRepo.Book(tx, *slotID, now)
		if err != nil {
			u.log.Warnf("Failed to book slot %s: %+v", *slotID, err)
			return nil, err
		}
		if booked == 0 {
			tx.Rollback()
			return nil, u.classifySlotBookFailure(ctx, *slotID, now)
		}
	}

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	u.audit.Record(tx, &userID, entity.AuditActionAppointmentBook, entity.JSON{
		"appointment_id": appointment.ID.String(),
		"doctor_id":      doctorID.String(),
	})

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit booking transaction: %+v", err)
		return nil, err
	}

	u.registerReminders(ctx, appointment)

	return u.expand(ctx, appointment.ID)
}

// classifySlotBookFailure re-reads a slot whose conditional book matched zero
// rows to report why.
func (u *appointmentUsecase) classifySlotBookFailure(ctx context.Context, slotID uuid.UUID, now time.Time) error {
	slot, err := u.slotRepo.FindByID(u.db.WithContext(ctx), slotID)
	if err != nil {
		return err
	}
	switch {
	case slot == nil:
		return ErrSlotNotFound
	case slot.IsBooked:
		return ErrSlotAlreadyBooked
	case slot.IsPast(now):
		return ErrSlotInPast
	default:
		return ErrSlotAlreadyBooked
	}
}

// registerReminders registers future reminders and the immediate confirmation.
// Failures are logged only; the appointment already exists.
func (u *appointmentUsecase) registerReminders(ctx context.Context, appointment *entity.Appointment) {
	if err := u.scheduler.RegisterForAppointment(ctx, appointment); err != nil {
		u.log.Warnf("Failed to register reminders for appointment %s: %+v", appointment.ID, err)
	}

	when := appointment.AppointmentDate.Format("Mon, 02 Jan 2006 at 15:04")
	title := "Appointment confirmed"
	body := fmt.Sprintf("Your appointment has been booked for %s.", when)
	if err := u.scheduler.SendImmediate(ctx, appointment, entity.ReminderTypeConfirmed, title, body); err != nil {
		u.log.Warnf("Failed to send booking confirmation for appointment %s: %+v", appointment.ID, err)
	}
}

// Confirm transitions scheduled -> confirmed. Doctor of the appointment or admin only.
func (u *appointmentUsecase) Confirm(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	userID, roleID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.fetch(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if roleID != entity.RoleIDAdmin && appointment.DoctorID != userID {
		return nil, ErrAppointmentNotOwned
	}
	if !appointment.Status.CanTransitionTo(entity.AppointmentStatusConfirmed) {
		return nil, ErrInvalidTransition
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	updated, err := u.appointmentRepo.UpdateStatus(tx, appointmentID,
		[]entity.AppointmentStatus{entity.AppointmentStatusScheduled},
		entity.AppointmentStatusConfirmed)
	if err != nil {
		u.log.Warnf("Failed to confirm appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if updated == 0 {
		return nil, ErrInvalidTransition
	}

	u.audit.Record(tx, &userID, entity.AuditActionAppointmentConfirm, entity.JSON{
		"appointment_id": appointmentID.String(),
	})

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return u.expand(ctx, appointmentID)
}

// Reschedule moves a scheduled appointment onto a new free future slot of the
// same doctor. The old slot, referenced explicitly by the appointment, is
// released in the same transaction that books the new one.
func (u *appointmentUsecase) Reschedule(ctx context.Context, appointmentID uuid.UUID, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	userID, roleID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	newSlotID, err := uuid.Parse(req.NewSlotID)
	if err != nil {
		return nil, ErrInvalidID
	}

	appointment, err := u.fetch(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(appointment, userID, roleID); err != nil {
		return nil, err
	}
	if appointment.Status != entity.AppointmentStatusScheduled {
		return nil, ErrInvalidTransition
	}

	newSlot, err := u.slotRepo.FindByID(u.db.WithContext(ctx), newSlotID)
	if err != nil {
		u.log.Warnf("Failed to find slot %s: %+v", newSlotID, err)
		return nil, err
	}
	if newSlot == nil {
		return nil, ErrSlotNotFound
	}
	if newSlot.DoctorID != appointment.DoctorID {
		return nil, ErrSlotWrongDoctor
	}

	now := u.now()

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	booked, err := u.slotRepo.Book(tx, newSlotID, now)
	if err != nil {
		u.log.Warnf("Failed to book slot %s: %+v", newSlotID, err)
		return nil, err
	}
	if booked == 0 {
		tx.Rollback()
		return nil, u.classifySlotBookFailure(ctx, newSlotID, now)
	}

	if appointment.SlotID != nil {
		released, err := u.slotRepo.Release(tx, *appointment.SlotID)
		if err != nil {
			u.log.Warnf("Failed to release slot %s: %+v", *appointment.SlotID, err)
			return nil, err
		}
		if released == 0 {
			u.log.Warnf("Old slot %s for appointment %s was not booked", *appointment.SlotID, appointmentID)
		}
	}

	appointment.SlotID = &newSlot.ID
	appointment.AppointmentDate = newSlot.StartTime
	appointment.DurationMinutes = int(newSlot.EndTime.Sub(newSlot.StartTime).Minutes())
	if err := u.appointmentRepo.Update(tx, appointment); err != nil {
		u.log.Warnf("Failed to update appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	u.audit.Record(tx, &userID, entity.AuditActionAppointmentReschedule, entity.JSON{
		"appointment_id": appointmentID.String(),
		"new_slot_id":    newSlotID.String(),
	})

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit reschedule transaction: %+v", err)
		return nil, err
	}

	// Stale reminders must never fire for the old time.
	if err := u.scheduler.CancelForAppointment(ctx, appointmentID); err != nil {
		u.log.Warnf("Failed to cancel reminders for appointment %s: %+v", appointmentID, err)
	}
	if err := u.scheduler.RegisterForAppointment(ctx, appointment); err != nil {
		u.log.Warnf("Failed to register reminders for appointment %s: %+v", appointmentID, err)
	}
	when := appointment.AppointmentDate.Format("Mon, 02 Jan 2006 at 15:04")
	if err := u.scheduler.SendImmediate(ctx, appointment, entity.ReminderTypeRescheduled,
		"Appointment rescheduled", fmt.Sprintf("Your appointment has been moved to %s.", when)); err != nil {
		u.log.Warnf("Failed to send reschedule notice for appointment %s: %+v", appointmentID, err)
	}

	return u.expand(ctx, appointmentID)
}

// Cancel transitions to cancelled, releases the slot and appends the reason to
// the notes. Cancellation is a status transition, never a row deletion.
func (u *appointmentUsecase) Cancel(ctx context.Context, appointmentID uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	userID, roleID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.fetch(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(appointment, userID, roleID); err != nil {
		return nil, err
	}
	if appointment.IsCancelled() {
		return nil, ErrAlreadyCancelled
	}
	if !appointment.Status.CanTransitionTo(entity.AppointmentStatusCancelled) {
		return nil, ErrInvalidTransition
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	cancelled, err := u.appointmentRepo.Cancel(tx, appointmentID, req.Reason)
	if err != nil {
		u.log.Warnf("Failed to cancel appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if cancelled == 0 {
		// Lost a race against another transition.
		return nil, ErrInvalidTransition
	}

	if appointment.SlotID != nil {
		released, err := u.slotRepo.Release(tx, *appointment.SlotID)
		if err != nil {
			u.log.Warnf("Failed to release slot %s: %+v", *appointment.SlotID, err)
			return nil, err
		}
		if released == 0 {
			u.log.Warnf("Slot %s for cancelled appointment %s was not booked", *appointment.SlotID, appointmentID)
		}
	}

	u.audit.Record(tx, &userID, entity.AuditActionAppointmentCancel, entity.JSON{
		"appointment_id": appointmentID.String(),
		"reason":         req.Reason,
	})

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit cancel transaction: %+v", err)
		return nil, err
	}

	if err := u.scheduler.CancelForAppointment(ctx, appointmentID); err != nil {
		u.log.Warnf("Failed to cancel reminders for appointment %s: %+v", appointmentID, err)
	}
	if err := u.scheduler.SendImmediate(ctx, appointment, entity.ReminderTypeCancelled,
		"Appointment cancelled", "Your appointment has been cancelled."); err != nil {
		u.log.Warnf("Failed to send cancellation notice for appointment %s: %+v", appointmentID, err)
	}

	return u.expand(ctx, appointmentID)
}

// Complete closes the visit with the doctor's findings. Doctor of the
// appointment or admin only.
func (u *appointmentUsecase) Complete(ctx context.Context, appointmentID uuid.UUID, req *dto.CompleteAppointmentRequest) (*dto.AppointmentResponse, error) {
	userID, roleID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.fetch(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if roleID != entity.RoleIDAdmin && appointment.DoctorID != userID {
		return nil, ErrAppointmentNotOwned
	}
	if !appointment.Status.CanTransitionTo(entity.AppointmentStatusCompleted) {
		return nil, ErrInvalidTransition
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	updated, err := u.appointmentRepo.UpdateStatus(tx, appointmentID,
		[]entity.AppointmentStatus{entity.AppointmentStatusScheduled, entity.AppointmentStatusConfirmed},
		entity.AppointmentStatusCompleted)
	if err != nil {
		u.log.Warnf("Failed to complete appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if updated == 0 {
		return nil, ErrInvalidTransition
	}

	appointment.Status = entity.AppointmentStatusCompleted
	appointment.Diagnosis = req.Diagnosis
	appointment.Treatment = req.Treatment
	if req.Notes != "" {
		appointment.Notes = req.Notes
	}
	if err := u.appointmentRepo.Update(tx, appointment); err != nil {
		u.log.Warnf("Failed to record findings for appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	u.audit.Record(tx, &userID, entity.AuditActionAppointmentComplete, entity.JSON{
		"appointment_id": appointmentID.String(),
	})

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return u.expand(ctx, appointmentID)
}

// MarkNoShow flags a patient who never arrived. Only allowed once the
// appointment time has passed.
func (u *appointmentUsecase) MarkNoShow(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	userID, roleID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.fetch(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if roleID != entity.RoleIDAdmin && appointment.DoctorID != userID {
		return nil, ErrAppointmentNotOwned
	}
	if !appointment.Status.CanTransitionTo(entity.AppointmentStatusNoShow) {
		return nil, ErrInvalidTransition
	}
	if appointment.AppointmentDate.After(u.now()) {
		return nil, ErrAppointmentNotStarted
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	updated, err := u.appointmentRepo.UpdateStatus(tx, appointmentID,
		[]entity.AppointmentStatus{entity.AppointmentStatusScheduled, entity.AppointmentStatusConfirmed},
		entity.AppointmentStatusNoShow)
	if err != nil {
		u.log.Warnf("Failed to mark appointment %s as no-show: %+v", appointmentID, err)
		return nil, err
	}
	if updated == 0 {
		return nil, ErrInvalidTransition
	}

	u.audit.Record(tx, &userID, entity.AuditActionAppointmentNoShow, entity.JSON{
		"appointment_id": appointmentID.String(),
	})

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return u.expand(ctx, appointmentID)
}

// GetByID returns one appointment; patients and doctors only see their own
func (u *appointmentUsecase) GetByID(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	userID, roleID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.fetch(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(appointment, userID, roleID); err != nil {
		return nil, err
	}

	return converter.AppointmentToResponse(appointment), nil
}

// List returns appointments scoped by the caller's role: patients see their
// own, doctors see their schedule, admins see everything.
func (u *appointmentUsecase) List(ctx context.Context, req *dto.AppointmentFilterRequest) (*dto.AppointmentListResponse, error) {
	userID, roleID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	filter, err := buildFilter(req)
	if err != nil {
		return nil, err
	}

	db := u.db.WithContext(ctx)
	var appointments []entity.Appointment
	switch roleID {
	case entity.RoleIDAdmin:
		appointments, err = u.appointmentRepo.FindAll(db, filter)
	case entity.RoleIDDoctor:
		appointments, err = u.appointmentRepo.FindByDoctorID(db, userID, filter)
	default:
		appointments, err = u.appointmentRepo.FindByPatientID(db, userID, filter)
	}
	if err != nil {
		u.log.Warnf("Failed to list appointments for user %s: %+v", userID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) fetch(ctx context.Context, appointmentID uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

// expand re-reads the appointment with patient/doctor preloaded for the response
func (u *appointmentUsecase) expand(ctx context.Context, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return converter.AppointmentToResponse(appointment), nil
}

func actor(ctx context.Context) (uuid.UUID, int, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, 0, errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)
	return userID, roleID, nil
}

// authorizeModify allows the owning patient or an admin to change an appointment
func authorizeModify(appointment *entity.Appointment, userID uuid.UUID, roleID int) error {
	if roleID == entity.RoleIDAdmin {
		return nil
	}
	if roleID == entity.RoleIDPatient && appointment.PatientID == userID {
		return nil
	}
	return ErrAppointmentNotOwned
}

// authorizeRead additionally allows the appointment's doctor
func authorizeRead(appointment *entity.Appointment, userID uuid.UUID, roleID int) error {
	if roleID == entity.RoleIDDoctor && appointment.DoctorID == userID {
		return nil
	}
	return authorizeModify(appointment, userID, roleID)
}

func buildFilter(req *dto.AppointmentFilterRequest) (*entity.AppointmentFilter, error) {
	if req == nil {
		return nil, nil
	}

	filter := &entity.AppointmentFilter{
		Status: entity.AppointmentStatus(req.Status),
		Type:   entity.AppointmentType(req.Type),
	}
	if req.From != "" {
		from, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			return nil, ErrInvalidDate
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			return nil, ErrInvalidDate
		}
		filter.To = &to
	}
	return filter, nil
}
