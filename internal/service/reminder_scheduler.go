package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"hospital-management-system/config"
	"hospital-management-system/internal/domain/entity"
	"hospital-management-system/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReminderOffsets maps a reminder category to how long before the
// appointment it fires.
var ReminderOffsets = map[entity.ReminderType]time.Duration{
	entity.ReminderType24h: 24 * time.Hour,
	entity.ReminderType1h:  time.Hour,
}

// ScheduledReminder is one computed future reminder instance
type ScheduledReminder struct {
	Type entity.ReminderType
	At   time.Time
}

// ReminderTimes computes the reminder instants for an appointment. Instants
// that have already passed at registration time are dropped, so a ledger row
// is never created with a scheduled_for in the past.
func ReminderTimes(appointmentDate, now time.Time) []ScheduledReminder {
	var out []ScheduledReminder
	for _, t := range []entity.ReminderType{entity.ReminderType24h, entity.ReminderType1h} {
		at := appointmentDate.Add(-ReminderOffsets[t])
		if at.After(now) {
			out = append(out, ScheduledReminder{Type: t, At: at})
		}
	}
	return out
}

// ReminderScheduler owns the notification ledger lifecycle: it registers
// future reminders when appointments are booked, invalidates them on
// reschedule/cancel, and periodically sweeps due rows to the Sink.
//
// The sweep is reentrancy-guarded twice: an in-process flag skips overlapping
// ticks, and a distributed lock keeps multiple scheduler instances from
// sweeping the same rows.
type ReminderScheduler struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	logRepo         repository.NotificationLogRepository
	settingRepo     repository.NotificationSettingRepository
	slotRepo        repository.SlotRepository
	sink            Sink
	lock            SweepLock
	cfg             config.SchedulerConfig

	running   atomic.Bool
	lastPurge atomic.Int64

	now func() time.Time
}

func NewReminderScheduler(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	logRepo repository.NotificationLogRepository,
	settingRepo repository.NotificationSettingRepository,
	slotRepo repository.SlotRepository,
	sink Sink,
	lock SweepLock,
	cfg config.SchedulerConfig,
) *ReminderScheduler {
	return &ReminderScheduler{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		logRepo:         logRepo,
		settingRepo:     settingRepo,
		slotRepo:        slotRepo,
		sink:            sink,
		lock:            lock,
		cfg:             cfg,
		now:             time.Now,
	}
}

// RegisterForAppointment inserts pending 24h/1h ledger rows for a newly booked
// or rescheduled appointment. Reminders whose time has already passed are
// skipped.
func (s *ReminderScheduler) RegisterForAppointment(ctx context.Context, appointment *entity.Appointment) error {
	now := s.now()
	var firstErr error

	for _, reminder := range ReminderTimes(appointment.AppointmentDate, now) {
		if err := s.createReminderRow(ctx, appointment, reminder); err != nil {
			s.log.Warnf("Failed to register %s reminder for appointment %s: %+v", reminder.Type, appointment.ID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (s *ReminderScheduler) createReminderRow(ctx context.Context, appointment *entity.Appointment, reminder ScheduledReminder) error {
	title, body := reminderMessage(appointment, reminder.Type)
	row := &entity.NotificationLog{
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		ReminderType:  reminder.Type,
		ScheduledFor:  reminder.At,
		Status:        entity.NotificationStatusPending,
		Title:         title,
		Body:          body,
	}
	return s.logRepo.Create(s.db.WithContext(ctx), row)
}

// CancelForAppointment removes all still-pending ledger rows for an
// appointment so stale reminders never fire after a reschedule or cancel.
func (s *ReminderScheduler) CancelForAppointment(ctx context.Context, appointmentID uuid.UUID) error {
	removed, err := s.logRepo.DeletePendingByAppointment(s.db.WithContext(ctx), appointmentID)
	if err != nil {
		return fmt.Errorf("cancel pending reminders for appointment %s: %w", appointmentID, err)
	}
	if removed > 0 {
		s.log.Infof("Cancelled %d pending reminders for appointment %s", removed, appointmentID)
	}
	return nil
}

// SendImmediate records a ledger row due now and attempts delivery right away
func (s *ReminderScheduler) SendImmediate(ctx context.Context, appointment *entity.Appointment, reminderType entity.ReminderType, title, body string) error {
	row := &entity.NotificationLog{
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		ReminderType:  reminderType,
		ScheduledFor:  s.now(),
		Status:        entity.NotificationStatusPending,
		Title:         title,
		Body:          body,
	}
	if err := s.logRepo.Create(s.db.WithContext(ctx), row); err != nil {
		return fmt.Errorf("record immediate notification: %w", err)
	}

	_, err := s.deliver(ctx, row)
	return err
}

// Sweep dispatches due pending rows once. Overlapping invocations are
// skipped, not queued. Returns the number of notifications handed to the Sink.
func (s *ReminderScheduler) Sweep(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("Sweep already in progress, skipping")
		return 0, nil
	}
	defer s.running.Store(false)

	dispatched := 0
	err := s.lock.WithLock(ctx, func(ctx context.Context) error {
		if err := s.backfillReminders(ctx); err != nil {
			s.log.Warnf("Reminder backfill failed: %+v", err)
		}

		due, err := s.logRepo.FindDue(s.db.WithContext(ctx), s.now(), s.cfg.SweepBatchSize)
		if err != nil {
			return fmt.Errorf("load due reminders: %w", err)
		}

		for i := range due {
			sent, err := s.deliver(ctx, &due[i])
			if err != nil {
				// Row-level failures are recorded on the row; keep sweeping.
				s.log.Warnf("Failed to deliver notification %s: %+v", due[i].ID, err)
				continue
			}
			if sent {
				dispatched++
			}
		}
		return nil
	})

	if errors.Is(err, ErrSweepLockHeld) {
		s.log.Debug("Sweep lock held elsewhere, skipping")
		return 0, nil
	}
	return dispatched, err
}

// backfillReminders looks ahead over appointments entering the reminder
// horizon and registers any ledger row that is missing, recovering from
// registrations lost to a best-effort failure at booking time. Rows that were
// cancelled along with their appointment never reappear because cancelled
// appointments fall outside the status filter, and already-resolved rows
// count as present whatever their status.
func (s *ReminderScheduler) backfillReminders(ctx context.Context) error {
	now := s.now()
	horizon := now.Add(24*time.Hour + s.cfg.SweepInterval)

	appointments, err := s.appointmentRepo.FindInTimeWindow(s.db.WithContext(ctx), now, horizon,
		[]entity.AppointmentStatus{entity.AppointmentStatusScheduled, entity.AppointmentStatusConfirmed})
	if err != nil {
		return fmt.Errorf("load upcoming appointments: %w", err)
	}

	for i := range appointments {
		appointment := &appointments[i]

		rows, err := s.logRepo.FindByAppointmentID(s.db.WithContext(ctx), appointment.ID)
		if err != nil {
			s.log.Warnf("Failed to load ledger rows for appointment %s: %+v", appointment.ID, err)
			continue
		}
		registered := make(map[entity.ReminderType]bool, len(rows))
		for _, row := range rows {
			registered[row.ReminderType] = true
		}

		for _, reminder := range ReminderTimes(appointment.AppointmentDate, now) {
			if registered[reminder.Type] {
				continue
			}
			if err := s.createReminderRow(ctx, appointment, reminder); err != nil {
				s.log.Warnf("Failed to backfill %s reminder for appointment %s: %+v", reminder.Type, appointment.ID, err)
				continue
			}
			s.log.Infof("Backfilled %s reminder for appointment %s", reminder.Type, appointment.ID)
		}
	}
	return nil
}

// deliver resolves a single ledger row: preference-gate check, claim, dispatch.
// Returns true when the row was actually handed to the Sink.
func (s *ReminderScheduler) deliver(ctx context.Context, row *entity.NotificationLog) (bool, error) {
	db := s.db.WithContext(ctx)

	setting, err := s.preferences(db, row.PatientID)
	if err != nil {
		// Leave the row pending; the next sweep retries the gate lookup.
		return false, fmt.Errorf("load notification settings: %w", err)
	}

	if !setting.CanSend(row.ReminderType) {
		// Suppressed sends are marked sent so they are not retried.
		if _, err := s.logRepo.MarkSent(db, row.ID); err != nil {
			return false, fmt.Errorf("suppress notification: %w", err)
		}
		return false, nil
	}

	// Claim the row before dispatching; zero rows means another sweep got it.
	claimed, err := s.logRepo.MarkSent(db, row.ID)
	if err != nil {
		return false, fmt.Errorf("claim notification: %w", err)
	}
	if claimed == 0 {
		return false, nil
	}

	metadata := map[string]string{
		"appointment_id": row.AppointmentID.String(),
		"reminder_type":  string(row.ReminderType),
	}
	if err := s.sink.Send(ctx, row.PatientID, row.Title, row.Body, metadata); err != nil {
		if markErr := s.logRepo.MarkFailed(db, row.ID, err.Error()); markErr != nil {
			s.log.Errorf("Failed to mark notification %s as failed: %+v", row.ID, markErr)
		}
		return false, fmt.Errorf("dispatch notification: %w", err)
	}

	return true, nil
}

// preferences implements the get-or-create behavior of the preference gate
func (s *ReminderScheduler) preferences(db *gorm.DB, patientID uuid.UUID) (*entity.NotificationSetting, error) {
	setting, err := s.settingRepo.FindByPatientID(db, patientID)
	if err != nil {
		return nil, err
	}
	if setting != nil {
		return setting, nil
	}

	setting = entity.DefaultNotificationSetting(patientID)
	if err := s.settingRepo.Create(db, setting); err != nil {
		// Another caller may have created the row concurrently; fall back to
		// defaults for this delivery.
		s.log.Warnf("Failed to create default notification settings for patient %s: %+v", patientID, err)
	}
	return setting, nil
}

// Run drives the periodic sweep until the context is cancelled
func (s *ReminderScheduler) Run(ctx context.Context) {
	s.log.Infof("Reminder scheduler starting: interval=%s batch=%d", s.cfg.SweepInterval, s.cfg.SweepBatchSize)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reminder scheduler stopping")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *ReminderScheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTTL)
	defer cancel()

	start := s.now()
	dispatched, err := s.Sweep(runCtx)
	if err != nil {
		s.log.Errorf("Sweep failed: %+v", err)
	} else if dispatched > 0 {
		s.log.Infof("Sweep dispatched %d notifications in %s", dispatched, time.Since(start))
	}

	s.maybePurgeSlots(runCtx)
}

// maybePurgeSlots deletes long-past slots at most once per purge interval
func (s *ReminderScheduler) maybePurgeSlots(ctx context.Context) {
	if s.cfg.PurgeInterval <= 0 {
		return
	}

	now := s.now()
	last := s.lastPurge.Load()
	if now.Unix()-last < int64(s.cfg.PurgeInterval.Seconds()) {
		return
	}
	if !s.lastPurge.CompareAndSwap(last, now.Unix()) {
		return
	}

	cutoff := now.Add(-s.cfg.SlotRetention)
	purged, err := s.slotRepo.PurgeBefore(s.db.WithContext(ctx), cutoff)
	if err != nil {
		s.log.Errorf("Slot purge failed: %+v", err)
		return
	}
	if purged > 0 {
		s.log.Infof("Purged %d slots older than %s", purged, cutoff.Format(time.RFC3339))
	}
}

func reminderMessage(appointment *entity.Appointment, reminderType entity.ReminderType) (string, string) {
	when := appointment.AppointmentDate.Format("Mon, 02 Jan 2006 at 15:04")
	switch reminderType {
	case entity.ReminderType24h:
		return "Appointment tomorrow", fmt.Sprintf("You have an appointment on %s. Reply to reschedule if needed.", when)
	case entity.ReminderType1h:
		return "Appointment in 1 hour", fmt.Sprintf("Your appointment starts at %s. Please arrive 10 minutes early.", when)
	default:
		return "Appointment update", fmt.Sprintf("There is an update for your appointment on %s.", when)
	}
}
