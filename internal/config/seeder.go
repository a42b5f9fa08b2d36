package config

import (
	"context"
	"fmt"
	"log"

	"hospital-directory/internal/adapters/persistence/models"
	"hospital-directory/internal/adapters/persistence/repositories"
	"hospital-directory/internal/core/domain"
	"hospital-directory/internal/pkg/password"
)

// Demo account created by the seeder
const (
	DemoDoctorEmail    = "demo.doctor@example.com"
	DemoDoctorPassword = "doctor123456"
)

// Seeder handles database seeding
type Seeder struct {
	users     repositories.UserRepository
	hospitals repositories.HospitalRepository
	hasher    *password.Hasher
}

// NewSeeder creates a new seeder instance
func NewSeeder(users repositories.UserRepository, hospitals repositories.HospitalRepository, hasher *password.Hasher) *Seeder {
	return &Seeder{users: users, hospitals: hospitals, hasher: hasher}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedDemoDoctor(ctx); err != nil {
		return fmt.Errorf("seed demo doctor: %w", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedDemoDoctor seeds a doctor account with one hospital.
// This is for development only.
func (s *Seeder) seedDemoDoctor(ctx context.Context) error {
	exists, err := s.users.ExistsByEmail(ctx, DemoDoctorEmail)
	if err != nil {
		return err
	}
	if exists {
		return nil // Demo doctor already exists
	}

	hashedPassword, err := s.hasher.Hash(DemoDoctorPassword)
	if err != nil {
		return err
	}

	doctor := &models.User{
		Name:     "Demo Doctor",
		Email:    DemoDoctorEmail,
		Password: hashedPassword,
		Role:     string(domain.RoleDoctor),
	}
	if err := s.users.Create(ctx, doctor); err != nil {
		return err
	}

	hospital := &models.Hospital{
		HospitalName:       "Demo General Hospital",
		PhoneNumber:        "+91 20 1234 5678",
		Address:            "1 Demo Street",
		City:               "Pune",
		State:              "Maharashtra",
		Pincode:            "411001",
		RegistrationFees:   250,
		HospitalType:       string(domain.HospitalGovernment),
		Description:        "Seeded for local development",
		EstablishedYear:    1990,
		EmergencyAvailable: true,
		AmbulanceAvailable: true,
		Specialities:       []string{"General Medicine", "Cardiology"},
		DoctorID:           doctor.ID,
	}
	if err := s.hospitals.Create(ctx, hospital); err != nil {
		return err
	}

	log.Printf("✅ Demo doctor created: %s", doctor.Email)
	return nil
}
