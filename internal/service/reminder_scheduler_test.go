package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hospital-management-system/config"
	"hospital-management-system/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	mockDB, _, err := sqlmock.New()
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
	return db
}

// Stub repositories ignore the db handle; behavior is driven by function fields.

type stubNotificationLogRepo struct {
	created   []*entity.NotificationLog
	due       []entity.NotificationLog
	dueErr    error
	sentIDs   []uuid.UUID
	markSent  func(id uuid.UUID) (int64, error)
	failedIDs []uuid.UUID
	reasons   []string
	deleted   int64
}

func (s *stubNotificationLogRepo) Create(_ *gorm.DB, row *entity.NotificationLog) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	s.created = append(s.created, row)
	return nil
}

func (s *stubNotificationLogRepo) FindDue(_ *gorm.DB, _ time.Time, _ int) ([]entity.NotificationLog, error) {
	return s.due, s.dueErr
}

func (s *stubNotificationLogRepo) FindByPatientID(_ *gorm.DB, _ uuid.UUID, _ int) ([]entity.NotificationLog, error) {
	return nil, nil
}

func (s *stubNotificationLogRepo) FindByAppointmentID(_ *gorm.DB, appointmentID uuid.UUID) ([]entity.NotificationLog, error) {
	var rows []entity.NotificationLog
	for _, row := range s.created {
		if row.AppointmentID == appointmentID {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func (s *stubNotificationLogRepo) MarkSent(_ *gorm.DB, id uuid.UUID) (int64, error) {
	if s.markSent != nil {
		return s.markSent(id)
	}
	s.sentIDs = append(s.sentIDs, id)
	return 1, nil
}

func (s *stubNotificationLogRepo) MarkFailed(_ *gorm.DB, id uuid.UUID, reason string) error {
	s.failedIDs = append(s.failedIDs, id)
	s.reasons = append(s.reasons, reason)
	return nil
}

func (s *stubNotificationLogRepo) DeletePendingByAppointment(_ *gorm.DB, _ uuid.UUID) (int64, error) {
	return s.deleted, nil
}

type stubSettingRepo struct {
	setting *entity.NotificationSetting
	err     error
	created []*entity.NotificationSetting
}

func (s *stubSettingRepo) FindByPatientID(_ *gorm.DB, _ uuid.UUID) (*entity.NotificationSetting, error) {
	return s.setting, s.err
}

func (s *stubSettingRepo) Create(_ *gorm.DB, setting *entity.NotificationSetting) error {
	s.created = append(s.created, setting)
	return nil
}

func (s *stubSettingRepo) Update(_ *gorm.DB, _ *entity.NotificationSetting) error {
	return nil
}

type stubAppointmentRepo struct {
	upcoming []entity.Appointment
}

func (s *stubAppointmentRepo) Create(_ *gorm.DB, _ *entity.Appointment) error { return nil }
func (s *stubAppointmentRepo) Update(_ *gorm.DB, _ *entity.Appointment) error { return nil }
func (s *stubAppointmentRepo) UpdateStatus(_ *gorm.DB, _ uuid.UUID, _ []entity.AppointmentStatus, _ entity.AppointmentStatus) (int64, error) {
	return 1, nil
}
func (s *stubAppointmentRepo) Cancel(_ *gorm.DB, _ uuid.UUID, _ string) (int64, error) {
	return 1, nil
}
func (s *stubAppointmentRepo) FindByID(_ *gorm.DB, _ uuid.UUID) (*entity.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentRepo) FindByPatientID(_ *gorm.DB, _ uuid.UUID, _ *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentRepo) FindByDoctorID(_ *gorm.DB, _ uuid.UUID, _ *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentRepo) FindAll(_ *gorm.DB, _ *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentRepo) FindInTimeWindow(_ *gorm.DB, _, _ time.Time, _ []entity.AppointmentStatus) ([]entity.Appointment, error) {
	return s.upcoming, nil
}

type stubSlotRepo struct {
	purged int64
}

func (s *stubSlotRepo) CreateBatch(_ *gorm.DB, _ []entity.Slot) error { return nil }
func (s *stubSlotRepo) FindByID(_ *gorm.DB, _ uuid.UUID) (*entity.Slot, error) {
	return nil, nil
}
func (s *stubSlotRepo) FindAvailable(_ *gorm.DB, _ uuid.UUID, _, _ time.Time) ([]entity.Slot, error) {
	return nil, nil
}
func (s *stubSlotRepo) Book(_ *gorm.DB, _ uuid.UUID, _ time.Time) (int64, error)    { return 1, nil }
func (s *stubSlotRepo) Release(_ *gorm.DB, _ uuid.UUID) (int64, error)              { return 1, nil }
func (s *stubSlotRepo) DeleteUnbookedInRange(_ *gorm.DB, _ uuid.UUID, _, _ time.Time) (int64, error) {
	return 0, nil
}
func (s *stubSlotRepo) PurgeBefore(_ *gorm.DB, _ time.Time) (int64, error) {
	return s.purged, nil
}

type fakeSink struct {
	sent []string
	err  error
}

func (f *fakeSink) Send(_ context.Context, _ uuid.UUID, title, _ string, _ map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, title)
	return nil
}

type fakeLock struct {
	err   error
	calls int
}

func (f *fakeLock) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		SweepInterval:  10 * time.Minute,
		SweepBatchSize: 50,
		LockTTL:        2 * time.Minute,
	}
}

func newTestScheduler(t *testing.T, logRepo *stubNotificationLogRepo, settingRepo *stubSettingRepo, sink Sink, lock SweepLock) *ReminderScheduler {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	s := NewReminderScheduler(newTestDB(t), log, &stubAppointmentRepo{}, logRepo, settingRepo, &stubSlotRepo{}, sink, lock, testSchedulerConfig())
	s.now = func() time.Time { return time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC) }
	return s
}

func dueRow(reminderType entity.ReminderType) entity.NotificationLog {
	return entity.NotificationLog{
		ID:            uuid.New(),
		AppointmentID: uuid.New(),
		PatientID:     uuid.New(),
		ReminderType:  reminderType,
		ScheduledFor:  time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
		Status:        entity.NotificationStatusPending,
		Title:         "Appointment tomorrow",
		Body:          "You have an appointment.",
	}
}

func TestReminderTimes(t *testing.T) {
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)

	t.Run("far future keeps both reminders", func(t *testing.T) {
		reminders := ReminderTimes(now.Add(48*time.Hour), now)
		require.Len(t, reminders, 2)
		assert.Equal(t, entity.ReminderType24h, reminders[0].Type)
		assert.Equal(t, now.Add(24*time.Hour), reminders[0].At)
		assert.Equal(t, entity.ReminderType1h, reminders[1].Type)
		assert.Equal(t, now.Add(47*time.Hour), reminders[1].At)
	})

	t.Run("inside 24h drops the 24h reminder", func(t *testing.T) {
		reminders := ReminderTimes(now.Add(3*time.Hour), now)
		require.Len(t, reminders, 1)
		assert.Equal(t, entity.ReminderType1h, reminders[0].Type)
	})

	t.Run("inside 1h drops everything", func(t *testing.T) {
		assert.Empty(t, ReminderTimes(now.Add(30*time.Minute), now))
	})

	t.Run("past appointment yields nothing", func(t *testing.T) {
		assert.Empty(t, ReminderTimes(now.Add(-time.Hour), now))
	})
}

func TestRegisterForAppointment(t *testing.T) {
	logRepo := &stubNotificationLogRepo{}
	settingRepo := &stubSettingRepo{}
	scheduler := newTestScheduler(t, logRepo, settingRepo, &fakeSink{}, &fakeLock{})

	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		AppointmentDate: time.Date(2026, 9, 9, 10, 0, 0, 0, time.UTC),
	}

	err := scheduler.RegisterForAppointment(context.Background(), appointment)
	require.NoError(t, err)

	require.Len(t, logRepo.created, 2)
	assert.Equal(t, entity.ReminderType24h, logRepo.created[0].ReminderType)
	assert.Equal(t, entity.ReminderType1h, logRepo.created[1].ReminderType)
	for _, row := range logRepo.created {
		assert.Equal(t, appointment.ID, row.AppointmentID)
		assert.Equal(t, entity.NotificationStatusPending, row.Status)
		assert.True(t, row.ScheduledFor.Before(appointment.AppointmentDate))
	}
}

func TestRegisterForAppointmentSoon(t *testing.T) {
	logRepo := &stubNotificationLogRepo{}
	scheduler := newTestScheduler(t, logRepo, &stubSettingRepo{}, &fakeSink{}, &fakeLock{})

	// Two hours out: only the 1h reminder is still in the future.
	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		AppointmentDate: time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC),
	}

	require.NoError(t, scheduler.RegisterForAppointment(context.Background(), appointment))
	require.Len(t, logRepo.created, 1)
	assert.Equal(t, entity.ReminderType1h, logRepo.created[0].ReminderType)
}

func TestSweepDispatchesDueRows(t *testing.T) {
	logRepo := &stubNotificationLogRepo{
		due: []entity.NotificationLog{dueRow(entity.ReminderType24h), dueRow(entity.ReminderType1h)},
	}
	settingRepo := &stubSettingRepo{setting: entity.DefaultNotificationSetting(uuid.New())}
	sink := &fakeSink{}
	lock := &fakeLock{}
	scheduler := newTestScheduler(t, logRepo, settingRepo, sink, lock)

	dispatched, err := scheduler.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, dispatched)
	assert.Len(t, sink.sent, 2)
	assert.Len(t, logRepo.sentIDs, 2)
	assert.Equal(t, 1, lock.calls)
}

func TestSweepSuppressedByPreferences(t *testing.T) {
	row := dueRow(entity.ReminderType24h)
	logRepo := &stubNotificationLogRepo{due: []entity.NotificationLog{row}}

	setting := entity.DefaultNotificationSetting(row.PatientID)
	setting.Reminder24h = false
	settingRepo := &stubSettingRepo{setting: setting}

	sink := &fakeSink{}
	scheduler := newTestScheduler(t, logRepo, settingRepo, sink, &fakeLock{})

	dispatched, err := scheduler.Sweep(context.Background())
	require.NoError(t, err)

	// Suppressed rows are marked sent so they never retry, but the sink is
	// never reached.
	assert.Equal(t, 0, dispatched)
	assert.Empty(t, sink.sent)
	assert.Equal(t, []uuid.UUID{row.ID}, logRepo.sentIDs)
}

func TestSweepClaimLostToAnotherSweep(t *testing.T) {
	row := dueRow(entity.ReminderType1h)
	logRepo := &stubNotificationLogRepo{
		due:      []entity.NotificationLog{row},
		markSent: func(uuid.UUID) (int64, error) { return 0, nil },
	}
	settingRepo := &stubSettingRepo{setting: entity.DefaultNotificationSetting(row.PatientID)}
	sink := &fakeSink{}
	scheduler := newTestScheduler(t, logRepo, settingRepo, sink, &fakeLock{})

	dispatched, err := scheduler.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, dispatched)
	assert.Empty(t, sink.sent)
}

func TestSweepSinkFailureMarksRowFailed(t *testing.T) {
	row := dueRow(entity.ReminderType1h)
	logRepo := &stubNotificationLogRepo{due: []entity.NotificationLog{row}}
	settingRepo := &stubSettingRepo{setting: entity.DefaultNotificationSetting(row.PatientID)}
	sink := &fakeSink{err: errors.New("push gateway unavailable")}
	scheduler := newTestScheduler(t, logRepo, settingRepo, sink, &fakeLock{})

	dispatched, err := scheduler.Sweep(context.Background())

	// Row-level failures never abort the sweep.
	require.NoError(t, err)
	assert.Equal(t, 0, dispatched)
	require.Len(t, logRepo.failedIDs, 1)
	assert.Equal(t, row.ID, logRepo.failedIDs[0])
	assert.Contains(t, logRepo.reasons[0], "push gateway unavailable")
}

func TestSweepSkipsWhenLockHeldElsewhere(t *testing.T) {
	logRepo := &stubNotificationLogRepo{due: []entity.NotificationLog{dueRow(entity.ReminderType1h)}}
	scheduler := newTestScheduler(t, logRepo, &stubSettingRepo{}, &fakeSink{}, &fakeLock{err: ErrSweepLockHeld})

	dispatched, err := scheduler.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, dispatched)
	assert.Empty(t, logRepo.sentIDs)
}

func TestSweepSkipsOverlappingRun(t *testing.T) {
	lock := &fakeLock{}
	scheduler := newTestScheduler(t, &stubNotificationLogRepo{}, &stubSettingRepo{}, &fakeSink{}, lock)

	scheduler.running.Store(true)
	dispatched, err := scheduler.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, dispatched)
	assert.Zero(t, lock.calls)
}

func TestSweepCreatesDefaultPreferences(t *testing.T) {
	row := dueRow(entity.ReminderType24h)
	logRepo := &stubNotificationLogRepo{due: []entity.NotificationLog{row}}
	settingRepo := &stubSettingRepo{setting: nil}
	sink := &fakeSink{}
	scheduler := newTestScheduler(t, logRepo, settingRepo, sink, &fakeLock{})

	dispatched, err := scheduler.Sweep(context.Background())
	require.NoError(t, err)

	// First contact with the patient lazily persists defaults-on settings.
	assert.Equal(t, 1, dispatched)
	require.Len(t, settingRepo.created, 1)
	assert.True(t, settingRepo.created[0].NotificationsEnabled)
}

func TestSweepBackfillsMissingReminders(t *testing.T) {
	logRepo := &stubNotificationLogRepo{}
	settingRepo := &stubSettingRepo{setting: entity.DefaultNotificationSetting(uuid.New())}
	scheduler := newTestScheduler(t, logRepo, settingRepo, &fakeSink{}, &fakeLock{})

	// An appointment inside the 1h horizon with no ledger rows at all, as if
	// registration failed at booking time.
	appointment := entity.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		AppointmentDate: time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC),
		Status:          entity.AppointmentStatusScheduled,
	}
	scheduler.appointmentRepo = &stubAppointmentRepo{upcoming: []entity.Appointment{appointment}}

	_, err := scheduler.Sweep(context.Background())
	require.NoError(t, err)

	require.Len(t, logRepo.created, 1)
	assert.Equal(t, entity.ReminderType1h, logRepo.created[0].ReminderType)
	assert.Equal(t, appointment.ID, logRepo.created[0].AppointmentID)

	// A second sweep sees the existing row and does not duplicate it.
	_, err = scheduler.Sweep(context.Background())
	require.NoError(t, err)
	assert.Len(t, logRepo.created, 1)
}

func TestSendImmediate(t *testing.T) {
	logRepo := &stubNotificationLogRepo{}
	settingRepo := &stubSettingRepo{setting: entity.DefaultNotificationSetting(uuid.New())}
	sink := &fakeSink{}
	scheduler := newTestScheduler(t, logRepo, settingRepo, sink, &fakeLock{})

	appointment := &entity.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		AppointmentDate: time.Date(2026, 9, 9, 10, 0, 0, 0, time.UTC),
	}

	err := scheduler.SendImmediate(context.Background(), appointment, entity.ReminderTypeCancelled,
		"Appointment cancelled", "Your appointment has been cancelled.")
	require.NoError(t, err)

	require.Len(t, logRepo.created, 1)
	assert.Equal(t, entity.ReminderTypeCancelled, logRepo.created[0].ReminderType)
	assert.Equal(t, []string{"Appointment cancelled"}, sink.sent)
}
