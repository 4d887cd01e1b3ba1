package usecase

import (
	"context"
	"errors"
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

var ErrInvalidSlotRange = errors.New("invalid slot generation range")

type SlotUsecase interface {
	GenerateSlots(ctx context.Context, req *dto.GenerateSlotsRequest) (*dto.SlotListResponse, error)
	GetAvailableSlots(ctx context.Context, req *dto.AvailableSlotsRequest) (*dto.SlotListResponse, error)
	PurgePastSlots(ctx context.Context, retention time.Duration) (int64, error)
}

type slotUsecase struct {
	db         *gorm.DB
	log        *logrus.Logger
	slotRepo   repository.SlotRepository
	doctorRepo repository.DoctorProfileRepository
	audit      service.AuditService
	hours      entity.WorkingHoursPolicy

	now func() time.Time
}

func NewSlotUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	slotRepo repository.SlotRepository,
	doctorRepo repository.DoctorProfileRepository,
	audit service.AuditService,
) SlotUsecase {
	return &slotUsecase{
		db:         db,
		log:        log,
		slotRepo:   slotRepo,
		doctorRepo: doctorRepo,
		audit:      audit,
		hours:      entity.DefaultWorkingHours(),
		now:        time.Now,
	}
}

// GenerateSlots bulk-creates a doctor's slots over a date range from the
// working-hours policy. Regeneration is idempotent for free slots: unbooked
// slots in the range are cleared first, booked ones are left untouched so the
// unique (doctor, start_time) index rejects regenerating over them.
func (u *slotUsecase) GenerateSlots(ctx context.Context, req *dto.GenerateSlotsRequest) (*dto.SlotListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, ErrInvalidID
	}
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if to.Before(from) {
		return nil, ErrInvalidSlotRange
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
	var slots []entity.Slot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, start := range u.hours.SlotStarts(day) {
			// Never generate slots that are already unbookable.
			if !start.After(now) {
				continue
			}
			slots = append(slots, entity.Slot{
				DoctorID:  doctorID,
				StartTime: start,
				EndTime:   start.Add(u.hours.SlotDuration),
			})
		}
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	rangeEnd := to.AddDate(0, 0, 1)
	if _, err := u.slotRepo.DeleteUnbookedInRange(tx, doctorID, from, rangeEnd); err != nil {
		u.log.Warnf("Failed to clear unbooked slots for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if len(slots) > 0 {
		if err := u.slotRepo.CreateBatch(tx, slots); err != nil {
			u.log.Warnf("Failed to create slots for doctor %s: %+v", doctorID, err)
			return nil, err
		}
	}

	u.audit.Record(tx, &userID, entity.AuditActionSlotsGenerate, entity.JSON{
		"doctor_id": doctorID.String(),
		"from":      req.From,
		"to":        req.To,
		"count":     len(slots),
	})

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit slot generation: %+v", err)
		return nil, err
	}

	return &dto.SlotListResponse{
		Slots: converter.SlotsToResponses(slots),
		Total: len(slots),
	}, nil
}

// GetAvailableSlots returns a doctor's free future slots in the given window.
// The window defaults to the next 7 days.
func (u *slotUsecase) GetAvailableSlots(ctx context.Context, req *dto.AvailableSlotsRequest) (*dto.SlotListResponse, error) {
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, ErrInvalidID
	}

	now := u.now()
	from := now
	to := now.AddDate(0, 0, 7)
	if req.From != "" {
		from, err = time.Parse(time.RFC3339, req.From)
		if err != nil {
			return nil, ErrInvalidDate
		}
	}
	if req.To != "" {
		to, err = time.Parse(time.RFC3339, req.To)
		if err != nil {
			return nil, ErrInvalidDate
		}
	}
	// Past slots are never bookable regardless of the requested window.
	if from.Before(now) {
		from = now
	}

	slots, err := u.slotRepo.FindAvailable(u.db.WithContext(ctx), doctorID, from, to)
	if err != nil {
		u.log.Warnf("Failed to find available slots for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	return &dto.SlotListResponse{
		Slots: converter.SlotsToResponses(slots),
		Total: len(slots),
	}, nil
}

// PurgePastSlots deletes slots older than the retention window
func (u *slotUsecase) PurgePastSlots(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := u.now().Add(-retention)
	purged, err := u.slotRepo.PurgeBefore(u.db.WithContext(ctx), cutoff)
	if err != nil {
		u.log.Warnf("Failed to purge slots before %s: %+v", cutoff, err)
		return 0, err
	}
	if purged > 0 {
		u.log.Infof("Purged %d slots older than %s", purged, cutoff.Format(time.RFC3339))
	}
	return purged, nil
}
