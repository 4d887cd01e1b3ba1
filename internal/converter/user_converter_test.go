package converter

import (
	"testing"

	"hospital-management-system/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserToResponse(t *testing.T) {
	t.Run("nil user", func(t *testing.T) {
		assert.Nil(t, UserToResponse(nil))
	})

	t.Run("user with preloaded role", func(t *testing.T) {
		user := &entity.User{
			ID:       uuid.New(),
			RoleID:   entity.RoleIDPatient,
			Email:    "patient@example.com",
			FullName: "Ayesha Rahman",
			Role:     entity.Role{ID: entity.RoleIDPatient, Name: entity.RolePatient},
		}

		resp := UserToResponse(user)
		require.NotNil(t, resp)
		assert.Equal(t, user.ID, resp.ID)
		assert.Equal(t, "patient@example.com", resp.Email)
		assert.Equal(t, "Ayesha Rahman", resp.FullName)
		assert.Equal(t, entity.RolePatient, resp.Role)
		assert.Nil(t, resp.DoctorProfile)
		assert.Nil(t, resp.PatientProfile)
	})

	t.Run("doctor with profile", func(t *testing.T) {
		userID := uuid.New()
		user := &entity.User{
			ID:       userID,
			RoleID:   entity.RoleIDDoctor,
			Email:    "doctor@example.com",
			FullName: "Dr. Chen",
			Role:     entity.Role{ID: entity.RoleIDDoctor, Name: entity.RoleDoctor},
			DoctorProfile: &entity.DoctorProfile{
				UserID:         userID,
				Specialization: "Cardiology",
			},
		}

		resp := UserToResponse(user)
		require.NotNil(t, resp)
		assert.Equal(t, entity.RoleDoctor, resp.Role)
		require.NotNil(t, resp.DoctorProfile)
		assert.Equal(t, "Cardiology", resp.DoctorProfile.Specialization)
	})
}
