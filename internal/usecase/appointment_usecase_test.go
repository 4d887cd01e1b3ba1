package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"hospital-management-system/config"
	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/delivery/http/middleware"
	"hospital-management-system/internal/domain/entity"
	"hospital-management-system/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 mockDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// Repository stubs. The db handle is ignored; transaction boundaries are
// asserted through sqlmock Begin/Commit/Rollback expectations instead.

type appointmentRepoStub struct {
	stored       *entity.Appointment
	createErr    error
	updateCalls  int
	updateStatus func(from []entity.AppointmentStatus, to entity.AppointmentStatus) (int64, error)
	cancelRows   int64
	findAll      bool
	findByDoctor bool
	findByPat    bool
}

func (s *appointmentRepoStub) Create(_ *gorm.DB, appointment *entity.Appointment) error {
	if s.createErr != nil {
		return s.createErr
	}
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	s.stored = appointment
	return nil
}

func (s *appointmentRepoStub) Update(_ *gorm.DB, appointment *entity.Appointment) error {
	s.updateCalls++
	s.stored = appointment
	return nil
}

func (s *appointmentRepoStub) UpdateStatus(_ *gorm.DB, _ uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus) (int64, error) {
	if s.updateStatus != nil {
		return s.updateStatus(from, to)
	}
	return 1, nil
}

func (s *appointmentRepoStub) Cancel(_ *gorm.DB, _ uuid.UUID, _ string) (int64, error) {
	return s.cancelRows, nil
}

func (s *appointmentRepoStub) FindByID(_ *gorm.DB, _ uuid.UUID) (*entity.Appointment, error) {
	return s.stored, nil
}

func (s *appointmentRepoStub) FindByPatientID(_ *gorm.DB, _ uuid.UUID, _ *entity.AppointmentFilter) ([]entity.Appointment, error) {
	s.findByPat = true
	return nil, nil
}

func (s *appointmentRepoStub) FindByDoctorID(_ *gorm.DB, _ uuid.UUID, _ *entity.AppointmentFilter) ([]entity.Appointment, error) {
	s.findByDoctor = true
	return nil, nil
}

func (s *appointmentRepoStub) FindAll(_ *gorm.DB, _ *entity.AppointmentFilter) ([]entity.Appointment, error) {
	s.findAll = true
	return nil, nil
}

func (s *appointmentRepoStub) FindInTimeWindow(_ *gorm.DB, _, _ time.Time, _ []entity.AppointmentStatus) ([]entity.Appointment, error) {
	return nil, nil
}

type slotRepoStub struct {
	slot         *entity.Slot
	bookRows     int64
	bookCalls    int
	releaseRows  int64
	releaseCalls int
}

func (s *slotRepoStub) CreateBatch(_ *gorm.DB, _ []entity.Slot) error { return nil }

func (s *slotRepoStub) FindByID(_ *gorm.DB, _ uuid.UUID) (*entity.Slot, error) {
	return s.slot, nil
}

func (s *slotRepoStub) FindAvailable(_ *gorm.DB, _ uuid.UUID, _, _ time.Time) ([]entity.Slot, error) {
	return nil, nil
}

func (s *slotRepoStub) Book(_ *gorm.DB, _ uuid.UUID, _ time.Time) (int64, error) {
	s.bookCalls++
	return s.bookRows, nil
}

func (s *slotRepoStub) Release(_ *gorm.DB, _ uuid.UUID) (int64, error) {
	s.releaseCalls++
	return s.releaseRows, nil
}

func (s *slotRepoStub) DeleteUnbookedInRange(_ *gorm.DB, _ uuid.UUID, _, _ time.Time) (int64, error) {
	return 0, nil
}

func (s *slotRepoStub) PurgeBefore(_ *gorm.DB, _ time.Time) (int64, error) { return 0, nil }

type patientRepoStub struct {
	profile *entity.PatientProfile
}

func (s *patientRepoStub) Create(_ *gorm.DB, _ *entity.PatientProfile) error { return nil }
func (s *patientRepoStub) FindByUserID(_ *gorm.DB, _ uuid.UUID) (*entity.PatientProfile, error) {
	return s.profile, nil
}
func (s *patientRepoStub) FindAll(_ *gorm.DB) ([]entity.PatientProfile, error) { return nil, nil }
func (s *patientRepoStub) Update(_ *gorm.DB, _ *entity.PatientProfile) error   { return nil }

type doctorRepoStub struct {
	profile *entity.DoctorProfile
}

func (s *doctorRepoStub) Create(_ *gorm.DB, _ *entity.DoctorProfile) error { return nil }
func (s *doctorRepoStub) FindByUserID(_ *gorm.DB, _ uuid.UUID) (*entity.DoctorProfile, error) {
	return s.profile, nil
}
func (s *doctorRepoStub) FindAllActive(_ *gorm.DB, _, _ string) ([]entity.DoctorProfile, error) {
	return nil, nil
}
func (s *doctorRepoStub) Update(_ *gorm.DB, _ *entity.DoctorProfile) error { return nil }
func (s *doctorRepoStub) Delete(_ *gorm.DB, _ uuid.UUID) error             { return nil }

type auditStub struct {
	actions []string
}

func (s *auditStub) Record(_ *gorm.DB, _ *uuid.UUID, action string, _ entity.JSON) {
	s.actions = append(s.actions, action)
}

// Notification-side stubs backing the real reminder scheduler.

type notificationLogStub struct {
	createErr      error
	created        []*entity.NotificationLog
	deletedPending int
}

func (s *notificationLogStub) Create(_ *gorm.DB, row *entity.NotificationLog) error {
	if s.createErr != nil {
		return s.createErr
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	s.created = append(s.created, row)
	return nil
}

func (s *notificationLogStub) FindDue(_ *gorm.DB, _ time.Time, _ int) ([]entity.NotificationLog, error) {
	return nil, nil
}

func (s *notificationLogStub) FindByPatientID(_ *gorm.DB, _ uuid.UUID, _ int) ([]entity.NotificationLog, error) {
	return nil, nil
}

func (s *notificationLogStub) FindByAppointmentID(_ *gorm.DB, _ uuid.UUID) ([]entity.NotificationLog, error) {
	return nil, nil
}

func (s *notificationLogStub) MarkSent(_ *gorm.DB, _ uuid.UUID) (int64, error) { return 1, nil }

func (s *notificationLogStub) MarkFailed(_ *gorm.DB, _ uuid.UUID, _ string) error { return nil }

func (s *notificationLogStub) DeletePendingByAppointment(_ *gorm.DB, _ uuid.UUID) (int64, error) {
	s.deletedPending++
	return 2, nil
}

type settingStub struct{}

func (settingStub) FindByPatientID(_ *gorm.DB, patientID uuid.UUID) (*entity.NotificationSetting, error) {
	return entity.DefaultNotificationSetting(patientID), nil
}
func (settingStub) Create(_ *gorm.DB, _ *entity.NotificationSetting) error { return nil }
func (settingStub) Update(_ *gorm.DB, _ *entity.NotificationSetting) error { return nil }

type sinkStub struct {
	titles []string
}

func (s *sinkStub) Send(_ context.Context, _ uuid.UUID, title, _ string, _ map[string]string) error {
	s.titles = append(s.titles, title)
	return nil
}

type passLock struct{}

func (passLock) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Shared fixture

type fixture struct {
	usecase     AppointmentUsecase
	mock        sqlmock.Sqlmock
	appointment *appointmentRepoStub
	slots       *slotRepoStub
	logs        *notificationLogStub
	sink        *sinkStub
	audit       *auditStub

	patientID uuid.UUID
	doctorID  uuid.UUID
	adminID   uuid.UUID
	slot      *entity.Slot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock := newMockDB(t)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	f := &fixture{
		mock:      mock,
		patientID: uuid.New(),
		doctorID:  uuid.New(),
		adminID:   uuid.New(),
	}

	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	f.slot = &entity.Slot{
		ID:        uuid.New(),
		DoctorID:  f.doctorID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}

	f.appointment = &appointmentRepoStub{}
	f.slots = &slotRepoStub{slot: f.slot, bookRows: 1, releaseRows: 1}
	f.logs = &notificationLogStub{}
	f.sink = &sinkStub{}
	f.audit = &auditStub{}

	scheduler := service.NewReminderScheduler(db, log, f.appointment, f.logs, settingStub{}, f.slots,
		f.sink, passLock{}, config.SchedulerConfig{SweepBatchSize: 50})

	f.usecase = NewAppointmentUsecase(db, log, f.appointment, f.slots,
		&patientRepoStub{profile: &entity.PatientProfile{UserID: f.patientID}},
		&doctorRepoStub{profile: &entity.DoctorProfile{UserID: f.doctorID}},
		scheduler, f.audit)

	return f
}

func (f *fixture) asPatient() context.Context {
	return middleware.WithActor(context.Background(), f.patientID, "patient@example.com", entity.RoleIDPatient, "token")
}

func (f *fixture) asDoctor() context.Context {
	return middleware.WithActor(context.Background(), f.doctorID, "doctor@example.com", entity.RoleIDDoctor, "token")
}

func (f *fixture) asAdmin() context.Context {
	return middleware.WithActor(context.Background(), f.adminID, "admin@example.com", entity.RoleIDAdmin, "token")
}

func (f *fixture) bookRequest() *dto.BookAppointmentRequest {
	return &dto.BookAppointmentRequest{
		DoctorID: f.doctorID.String(),
		SlotID:   f.slot.ID.String(),
		Type:     string(entity.AppointmentTypeConsultation),
		Reason:   "recurring headaches",
	}
}

func (f *fixture) scheduledAppointment() *entity.Appointment {
	f.appointment.stored = &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       f.patientID,
		DoctorID:        f.doctorID,
		SlotID:          &f.slot.ID,
		AppointmentDate: f.slot.StartTime,
		DurationMinutes: 30,
		Status:          entity.AppointmentStatusScheduled,
		Type:            entity.AppointmentTypeConsultation,
	}
	return f.appointment.stored
}

func TestBookWithSlot(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.usecase.Book(f.asPatient(), f.bookRequest())
	require.NoError(t, err)

	assert.Equal(t, f.patientID, resp.PatientID)
	assert.Equal(t, f.doctorID, resp.DoctorID)
	require.NotNil(t, resp.SlotID)
	assert.Equal(t, f.slot.ID, *resp.SlotID)
	assert.Equal(t, f.slot.StartTime, resp.AppointmentDate)
	assert.Equal(t, 30, resp.DurationMinutes)
	assert.Equal(t, string(entity.AppointmentStatusScheduled), resp.Status)

	assert.Equal(t, 1, f.slots.bookCalls)
	assert.Equal(t, []string{entity.AuditActionAppointmentBook}, f.audit.actions)

	// Two future reminders plus the immediate confirmation ledger row.
	assert.Len(t, f.logs.created, 3)
	assert.Equal(t, []string{"Appointment confirmed"}, f.sink.titles)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookSlotAlreadyBooked(t *testing.T) {
	f := newFixture(t)
	f.slot.IsBooked = true
	f.slots.bookRows = 0
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.usecase.Book(f.asPatient(), f.bookRequest())

	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
	assert.Nil(t, f.appointment.stored)
	assert.Empty(t, f.sink.titles)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookSlotOfDifferentDoctor(t *testing.T) {
	f := newFixture(t)
	f.slot.DoctorID = uuid.New()

	_, err := f.usecase.Book(f.asPatient(), f.bookRequest())

	assert.ErrorIs(t, err, ErrSlotWrongDoctor)
	assert.Zero(t, f.slots.bookCalls)
}

func TestBookWithoutSlotRejectsPastDate(t *testing.T) {
	f := newFixture(t)
	req := f.bookRequest()
	req.SlotID = ""
	req.AppointmentDate = time.Now().Add(-time.Hour).Format(time.RFC3339)

	_, err := f.usecase.Book(f.asPatient(), req)

	assert.ErrorIs(t, err, ErrPastAppointmentTime)
}

func TestBookForOtherPatientRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	req := f.bookRequest()
	req.PatientID = uuid.New().String()

	_, err := f.usecase.Book(f.asPatient(), req)
	assert.ErrorIs(t, err, ErrAppointmentNotOwned)

	// The admin path only needs the patient profile to resolve.
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	req.PatientID = f.patientID.String()
	_, err = f.usecase.Book(f.asAdmin(), req)
	assert.NoError(t, err)
}

func TestBookSucceedsWhenRemindersFail(t *testing.T) {
	f := newFixture(t)
	f.logs.createErr = errors.New("notification store down")
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.usecase.Book(f.asPatient(), f.bookRequest())

	// Reminder registration is best-effort; the booking must stand.
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusScheduled), resp.Status)
	assert.Empty(t, f.sink.titles)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment()
	f.appointment.cancelRows = 1
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.usecase.Cancel(f.asPatient(), f.appointment.stored.ID,
		&dto.CancelAppointmentRequest{Reason: "feeling better"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.slots.releaseCalls)
	assert.Equal(t, 1, f.logs.deletedPending)
	assert.Equal(t, []string{"Appointment cancelled"}, f.sink.titles)
	assert.Equal(t, []string{entity.AuditActionAppointmentCancel}, f.audit.actions)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCancelAlreadyCancelled(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment().Status = entity.AppointmentStatusCancelled

	_, err := f.usecase.Cancel(f.asPatient(), f.appointment.stored.ID,
		&dto.CancelAppointmentRequest{Reason: "changed my mind"})

	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Zero(t, f.slots.releaseCalls)
}

func TestCancelByStranger(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment()

	stranger := middleware.WithActor(context.Background(), uuid.New(), "other@example.com", entity.RoleIDPatient, "token")
	_, err := f.usecase.Cancel(stranger, f.appointment.stored.ID,
		&dto.CancelAppointmentRequest{Reason: "not mine"})

	assert.ErrorIs(t, err, ErrAppointmentNotOwned)
}

func TestCancelLostRace(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment()
	f.appointment.cancelRows = 0
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.usecase.Cancel(f.asPatient(), f.appointment.stored.ID,
		&dto.CancelAppointmentRequest{Reason: "too late"})

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, f.sink.titles)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	appointment := f.scheduledAppointment()
	oldSlotID := *appointment.SlotID

	newStart := time.Now().Add(72 * time.Hour).Truncate(time.Minute)
	newSlot := &entity.Slot{
		ID:        uuid.New(),
		DoctorID:  f.doctorID,
		StartTime: newStart,
		EndTime:   newStart.Add(30 * time.Minute),
	}
	f.slots.slot = newSlot

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.usecase.Reschedule(f.asPatient(), appointment.ID,
		&dto.RescheduleAppointmentRequest{NewSlotID: newSlot.ID.String()})
	require.NoError(t, err)

	require.NotNil(t, resp.SlotID)
	assert.Equal(t, newSlot.ID, *resp.SlotID)
	assert.NotEqual(t, oldSlotID, *resp.SlotID)
	assert.Equal(t, newStart, resp.AppointmentDate)

	assert.Equal(t, 1, f.slots.bookCalls)
	assert.Equal(t, 1, f.slots.releaseCalls)
	assert.Equal(t, 1, f.logs.deletedPending)
	assert.Contains(t, f.sink.titles, "Appointment rescheduled")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRescheduleRequiresScheduledStatus(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment().Status = entity.AppointmentStatusConfirmed

	_, err := f.usecase.Reschedule(f.asPatient(), f.appointment.stored.ID,
		&dto.RescheduleAppointmentRequest{NewSlotID: uuid.New().String()})

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, f.slots.bookCalls)
}

func TestConfirmByDoctor(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.usecase.Confirm(f.asDoctor(), f.appointment.stored.ID)

	require.NoError(t, err)
	assert.Equal(t, []string{entity.AuditActionAppointmentConfirm}, f.audit.actions)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmByOtherDoctor(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment()

	other := middleware.WithActor(context.Background(), uuid.New(), "other@example.com", entity.RoleIDDoctor, "token")
	_, err := f.usecase.Confirm(other, f.appointment.stored.ID)

	assert.ErrorIs(t, err, ErrAppointmentNotOwned)
}

func TestConfirmTerminalAppointment(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment().Status = entity.AppointmentStatusCompleted

	_, err := f.usecase.Confirm(f.asDoctor(), f.appointment.stored.ID)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteRecordsFindings(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment().Status = entity.AppointmentStatusConfirmed
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.usecase.Complete(f.asDoctor(), f.appointment.stored.ID,
		&dto.CompleteAppointmentRequest{Diagnosis: "tension headache", Treatment: "rest and hydration"})
	require.NoError(t, err)

	assert.Equal(t, string(entity.AppointmentStatusCompleted), resp.Status)
	assert.Equal(t, "tension headache", resp.Diagnosis)
	assert.Equal(t, "rest and hydration", resp.Treatment)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestMarkNoShowBeforeAppointmentTime(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment()

	_, err := f.usecase.MarkNoShow(f.asDoctor(), f.appointment.stored.ID)

	assert.ErrorIs(t, err, ErrAppointmentNotStarted)
}

func TestMarkNoShowAfterAppointmentTime(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment().AppointmentDate = time.Now().Add(-2 * time.Hour)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.usecase.MarkNoShow(f.asDoctor(), f.appointment.stored.ID)

	require.NoError(t, err)
	assert.Equal(t, []string{entity.AuditActionAppointmentNoShow}, f.audit.actions)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestListScopedByRole(t *testing.T) {
	t.Run("admin sees everything", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.usecase.List(f.asAdmin(), nil)
		require.NoError(t, err)
		assert.True(t, f.appointment.findAll)
	})

	t.Run("doctor sees own schedule", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.usecase.List(f.asDoctor(), nil)
		require.NoError(t, err)
		assert.True(t, f.appointment.findByDoctor)
	})

	t.Run("patient sees own appointments", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.usecase.List(f.asPatient(), nil)
		require.NoError(t, err)
		assert.True(t, f.appointment.findByPat)
	})
}

func TestGetByIDAuthorization(t *testing.T) {
	f := newFixture(t)
	f.scheduledAppointment()

	t.Run("owning patient", func(t *testing.T) {
		_, err := f.usecase.GetByID(f.asPatient(), f.appointment.stored.ID)
		assert.NoError(t, err)
	})

	t.Run("appointment doctor", func(t *testing.T) {
		_, err := f.usecase.GetByID(f.asDoctor(), f.appointment.stored.ID)
		assert.NoError(t, err)
	})

	t.Run("unrelated patient", func(t *testing.T) {
		other := middleware.WithActor(context.Background(), uuid.New(), "other@example.com", entity.RoleIDPatient, "token")
		_, err := f.usecase.GetByID(other, f.appointment.stored.ID)
		assert.ErrorIs(t, err, ErrAppointmentNotOwned)
	})
}
