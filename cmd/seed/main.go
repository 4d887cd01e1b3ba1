package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"hospital-management-system/config"
	"hospital-management-system/internal/domain/entity"
	"hospital-management-system/internal/infrastructure/database"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	doctorCount  = 10
	patientCount = 50
	seedPassword = "password123"
)

var specializations = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Neurology",
	"Orthopedics",
	"Pediatrics",
	"Psychiatry",
}

// Seeds demo doctors, patients and two weeks of slots for local development.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	hashed, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	if err := seedAdmin(db, string(hashed)); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	doctors, err := seedDoctors(db, string(hashed))
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(db, string(hashed)); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSlots(db, doctors); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedAdmin(db *gorm.DB, password string) error {
	admin := &entity.User{
		RoleID:   entity.RoleIDAdmin,
		Email:    "admin@hospital.local",
		Password: password,
		FullName: "System Administrator",
		IsActive: true,
	}
	return db.Create(admin).Error
}

func seedDoctors(db *gorm.DB, password string) ([]entity.DoctorProfile, error) {
	log.Printf("seeding %d doctors", doctorCount)

	doctors := make([]entity.DoctorProfile, 0, doctorCount)
	err := db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < doctorCount; i++ {
			name := gofakeit.Name()
			user := &entity.User{
				RoleID:   entity.RoleIDDoctor,
				Email:    fmt.Sprintf("doctor%d@hospital.local", i+1),
				Password: password,
				FullName: "Dr. " + name,
				IsActive: true,
			}
			if err := tx.Create(user).Error; err != nil {
				return err
			}

			profile := entity.DoctorProfile{
				UserID:         user.ID,
				LicenseNumber:  fmt.Sprintf("LIC-%06d", gofakeit.Number(100000, 999999)),
				Specialization: specializations[gofakeit.Number(0, len(specializations)-1)],
				Biography:      gofakeit.Sentence(12),
			}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
			doctors = append(doctors, profile)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return doctors, nil
}

func seedPatients(db *gorm.DB, password string) error {
	log.Printf("seeding %d patients", patientCount)

	return db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < patientCount; i++ {
			gender := entity.GenderFemale
			if gofakeit.Bool() {
				gender = entity.GenderMale
			}

			user := &entity.User{
				RoleID:   entity.RoleIDPatient,
				Email:    fmt.Sprintf("patient%d@example.com", i+1),
				Password: password,
				FullName: gofakeit.Name(),
				IsActive: true,
			}
			if err := tx.Create(user).Error; err != nil {
				return err
			}

			profile := entity.PatientProfile{
				UserID:              user.ID,
				MedicalRecordNumber: fmt.Sprintf("MRN-%07d", i+1),
				PhoneNumber:         strings.ReplaceAll(gofakeit.Phone(), "-", ""),
				DateOfBirth:         gofakeit.DateRange(time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC)),
				Gender:              gender,
				Address:             gofakeit.Address().Address,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func seedSlots(db *gorm.DB, doctors []entity.DoctorProfile) error {
	log.Println("seeding slots for the next 14 days")

	hours := entity.DefaultWorkingHours()
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return db.Transaction(func(tx *gorm.DB) error {
		for _, doctor := range doctors {
			var slots []entity.Slot
			for d := 0; d < 14; d++ {
				day := today.AddDate(0, 0, d)
				for _, start := range hours.SlotStarts(day) {
					if !start.After(now) {
						continue
					}
					slots = append(slots, entity.Slot{
						DoctorID:  doctor.UserID,
						StartTime: start,
						EndTime:   start.Add(hours.SlotDuration),
					})
				}
			}
			if err := tx.CreateInBatches(slots, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
