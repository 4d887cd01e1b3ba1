package usecase

import (
	"context"

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

type DoctorUsecase interface {
	GetAll(ctx context.Context, specialization, name string) (*dto.DoctorListResponse, error)
	GetByID(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	Update(ctx context.Context, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
	Deactivate(ctx context.Context, doctorID uuid.UUID) error
}

type doctorUsecase struct {
	db         *gorm.DB
	log        *logrus.Logger
	doctorRepo repository.DoctorProfileRepository
	userRepo   repository.UserRepository
	audit      service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorProfileRepository,
	userRepo repository.UserRepository,
	audit service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:         db,
		log:        log,
		doctorRepo: doctorRepo,
		userRepo:   userRepo,
		audit:      audit,
	}
}

// GetAll returns active doctors, optionally filtered by specialization or name
func (u *doctorUsecase) GetAll(ctx context.Context, specialization, name string) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindAllActive(u.db.WithContext(ctx), specialization, name)
	if err != nil {
		u.log.Warnf("Failed to list doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

func (u *doctorUsecase) GetByID(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	return converter.DoctorToResponse(doctor), nil
}

// Update patches the doctor's profile and, for admins, the active flag
func (u *doctorUsecase) Update(ctx context.Context, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotFound
	}

	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	if req.LicenseNumber != "" {
		doctor.LicenseNumber = req.LicenseNumber
	}
	if req.Specialization != "" {
		doctor.Specialization = req.Specialization
	}
	if req.Biography != "" {
		doctor.Biography = req.Biography
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.doctorRepo.Update(tx, doctor); err != nil {
		if isDuplicateKeyError(err, "license_number") {
			return nil, ErrLicenseExists
		}
		u.log.Warnf("Failed to update doctor %s: %+v", doctorID, err)
		return nil, err
	}

	if req.FullName != "" || req.IsActive != nil {
		user, err := u.userRepo.FindByID(tx, doctorID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrDoctorNotFound
		}
		if req.FullName != "" {
			user.FullName = req.FullName
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if err := u.userRepo.Update(tx, user); err != nil {
			u.log.Warnf("Failed to update doctor user %s: %+v", doctorID, err)
			return nil, err
		}
		doctor.User = *user
	}

	u.audit.Record(tx, &userID, entity.AuditActionDoctorUpdate, entity.JSON{
		"doctor_id": doctorID.String(),
	})

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.DoctorToResponse(doctor), nil
}

// Deactivate disables the doctor's account; profile data is retained
func (u *doctorUsecase) Deactivate(ctx context.Context, doctorID uuid.UUID) error {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUserNotFound
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	user, err := u.userRepo.FindByID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", doctorID, err)
		return err
	}
	if user == nil || user.RoleID != entity.RoleIDDoctor {
		return ErrDoctorNotFound
	}

	user.IsActive = false
	if err := u.userRepo.Update(tx, user); err != nil {
		u.log.Warnf("Failed to deactivate doctor %s: %+v", doctorID, err)
		return err
	}

	u.audit.Record(tx, &userID, entity.AuditActionDoctorDelete, entity.JSON{
		"doctor_id": doctorID.String(),
	})

	return tx.Commit().Error
}
