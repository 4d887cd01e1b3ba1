package converter

import (
	"hospital-management-system/internal/delivery/dto"
	"hospital-management-system/internal/domain/entity"
)

// PatientProfileToResponse converts a PatientProfile entity to its nested DTO
func PatientProfileToResponse(profile *entity.PatientProfile) *dto.PatientProfileResponse {
	if profile == nil {
		return nil
	}

	return &dto.PatientProfileResponse{
		UserID:              profile.UserID,
		MedicalRecordNumber: profile.MedicalRecordNumber,
		PhoneNumber:         profile.PhoneNumber,
		DateOfBirth:         profile.DateOfBirth.Format("2006-01-02"),
		Gender:              profile.Gender,
		Address:             profile.Address,
	}
}

// PatientToResponse converts a PatientProfile entity (with its User preloaded)
// to a flat PatientResponse DTO
func PatientToResponse(profile *entity.PatientProfile) *dto.PatientResponse {
	if profile == nil {
		return nil
	}

	return &dto.PatientResponse{
		ID:                  profile.UserID,
		Email:               profile.User.Email,
		FullName:            profile.User.FullName,
		MedicalRecordNumber: profile.MedicalRecordNumber,
		PhoneNumber:         profile.PhoneNumber,
		DateOfBirth:         profile.DateOfBirth.Format("2006-01-02"),
		Gender:              profile.Gender,
		Address:             profile.Address,
		CreatedAt:           profile.User.CreatedAt,
		UpdatedAt:           profile.User.UpdatedAt,
	}
}

// PatientsToResponses converts a slice of PatientProfile entities to slice of PatientResponse DTOs
func PatientsToResponses(profiles []entity.PatientProfile) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, len(profiles))
	for i, profile := range profiles {
		resp := PatientToResponse(&profile)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
