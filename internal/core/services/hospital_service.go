package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"hospital-directory/internal/adapters/persistence/models"
	"hospital-directory/internal/adapters/persistence/repositories"
	"hospital-directory/internal/core/domain"
	"hospital-directory/internal/pkg/pagination"

	"gorm.io/gorm"
)

// Hospital errors
var (
	ErrHospitalNotFound = errors.New("hospital not found")
	ErrNotDoctor        = errors.New("only doctors can manage hospitals")
	ErrNotOwner         = errors.New("hospital belongs to another doctor")
)

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,17}[0-9]$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

const minEstablishedYear = 1800

// Column sizes of the hospitals table
const (
	maxHospitalNameLength = 255
	maxPlaceLength        = 100
)

// HospitalService handles hospital registration and directory browsing
type HospitalService struct {
	hospitalRepo repositories.HospitalRepository
	userRepo     repositories.UserRepository
	now          func() time.Time
}

// NewHospitalService creates a new hospital service
func NewHospitalService(
	hospitalRepo repositories.HospitalRepository,
	userRepo repositories.UserRepository,
) *HospitalService {
	return &HospitalService{
		hospitalRepo: hospitalRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

// HospitalInput represents the fields of a new hospital
type HospitalInput struct {
	HospitalName       string   `json:"hospitalName"`
	PhoneNumber        string   `json:"phoneNumber"`
	Address            string   `json:"address"`
	City               string   `json:"city"`
	State              string   `json:"state"`
	Pincode            string   `json:"pincode"`
	RegistrationFees   *float64 `json:"registrationFees"`
	HospitalType       string   `json:"hospitalType"`
	Description        string   `json:"description"`
	EstablishedYear    int      `json:"establishedYear"`
	EmergencyAvailable bool     `json:"emergencyAvailable"`
	AmbulanceAvailable bool     `json:"ambulanceAvailable"`
	Specialities       []string `json:"specialities"`
}

// HospitalPatch represents a partial hospital update; nil fields are left as is
type HospitalPatch struct {
	HospitalName       *string   `json:"hospitalName"`
	PhoneNumber        *string   `json:"phoneNumber"`
	Address            *string   `json:"address"`
	City               *string   `json:"city"`
	State              *string   `json:"state"`
	Pincode            *string   `json:"pincode"`
	RegistrationFees   *float64  `json:"registrationFees"`
	HospitalType       *string   `json:"hospitalType"`
	Description        *string   `json:"description"`
	EstablishedYear    *int      `json:"establishedYear"`
	EmergencyAvailable *bool     `json:"emergencyAvailable"`
	AmbulanceAvailable *bool     `json:"ambulanceAvailable"`
	Specialities       *[]string `json:"specialities"`
}

// Register creates a hospital owned by the calling doctor. The caller is
// re-fetched so a role change after login is honoured.
func (s *HospitalService) Register(ctx context.Context, callerID uint, input *HospitalInput) (*models.Hospital, error) {
	doctor, err := s.resolveDoctor(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if input.RegistrationFees == nil {
		return nil, domain.Invalid("registrationFees", "Registration fees is required")
	}

	hospital := &models.Hospital{
		HospitalName:       strings.TrimSpace(input.HospitalName),
		PhoneNumber:        strings.TrimSpace(input.PhoneNumber),
		Address:            strings.TrimSpace(input.Address),
		City:               strings.TrimSpace(input.City),
		State:              strings.TrimSpace(input.State),
		Pincode:            strings.TrimSpace(input.Pincode),
		RegistrationFees:   *input.RegistrationFees,
		HospitalType:       strings.TrimSpace(input.HospitalType),
		Description:        strings.TrimSpace(input.Description),
		EstablishedYear:    input.EstablishedYear,
		EmergencyAvailable: input.EmergencyAvailable,
		AmbulanceAvailable: input.AmbulanceAvailable,
		Specialities:       normalizeSpecialities(input.Specialities),
		DoctorID:           doctor.ID,
	}

	if err := s.validate(hospital); err != nil {
		return nil, err
	}

	if err := s.hospitalRepo.Create(ctx, hospital); err != nil {
		return nil, fmt.Errorf("create hospital: %w", err)
	}

	log.Printf("✅ Hospital registered: %d by doctor %d", hospital.ID, doctor.ID)
	return hospital, nil
}

// Update applies a patch to a hospital owned by the calling doctor
func (s *HospitalService) Update(ctx context.Context, callerID, id uint, patch *HospitalPatch) (*models.Hospital, error) {
	hospital, err := s.ownedHospital(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	applyPatch(hospital, patch)

	if err := s.validate(hospital); err != nil {
		return nil, err
	}

	if err := s.hospitalRepo.Update(ctx, hospital); err != nil {
		return nil, fmt.Errorf("update hospital: %w", err)
	}

	log.Printf("✅ Hospital updated: %d", hospital.ID)
	return hospital, nil
}

// Delete removes a hospital owned by the calling doctor
func (s *HospitalService) Delete(ctx context.Context, callerID, id uint) error {
	if _, err := s.ownedHospital(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.hospitalRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHospitalNotFound
		}
		return fmt.Errorf("delete hospital: %w", err)
	}

	log.Printf("✅ Hospital deleted: %d", id)
	return nil
}

// Get returns a single hospital
func (s *HospitalService) Get(ctx context.Context, id uint) (*models.Hospital, error) {
	hospital, err := s.hospitalRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHospitalNotFound
		}
		return nil, fmt.Errorf("find hospital: %w", err)
	}
	return hospital, nil
}

// List returns one page of hospitals matching filter
func (s *HospitalService) List(ctx context.Context, filter repositories.HospitalFilter, params *pagination.Params) (*pagination.Page[*models.Hospital], error) {
	hospitals, total, err := s.hospitalRepo.List(ctx, filter, params.Offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	return pagination.NewPage(hospitals, params, total), nil
}

// resolveDoctor re-fetches the caller and requires the doctor role
func (s *HospitalService) resolveDoctor(ctx context.Context, callerID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("find caller: %w", err)
	}
	if !user.IsDoctor() {
		return nil, fmt.Errorf("%w: %w", domain.ErrForbidden, ErrNotDoctor)
	}
	return user, nil
}

// ownedHospital loads a hospital and checks the caller is its doctor
func (s *HospitalService) ownedHospital(ctx context.Context, callerID, id uint) (*models.Hospital, error) {
	doctor, err := s.resolveDoctor(ctx, callerID)
	if err != nil {
		return nil, err
	}

	hospital, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if hospital.DoctorID != doctor.ID {
		return nil, fmt.Errorf("%w: %w", domain.ErrForbidden, ErrNotOwner)
	}
	return hospital, nil
}

func (s *HospitalService) validate(h *models.Hospital) error {
	switch {
	case h.HospitalName == "":
		return domain.Invalid("hospitalName", "Hospital name is required")
	case utf8.RuneCountInString(h.HospitalName) > maxHospitalNameLength:
		return domain.Invalid("hospitalName", fmt.Sprintf("Hospital name must be at most %d characters", maxHospitalNameLength))
	case h.PhoneNumber == "":
		return domain.Invalid("phoneNumber", "Phone number is required")
	case !phonePattern.MatchString(h.PhoneNumber):
		return domain.Invalid("phoneNumber", "Phone number is invalid")
	case h.Address == "":
		return domain.Invalid("address", "Address is required")
	case h.City == "":
		return domain.Invalid("city", "City is required")
	case utf8.RuneCountInString(h.City) > maxPlaceLength:
		return domain.Invalid("city", fmt.Sprintf("City must be at most %d characters", maxPlaceLength))
	case h.State == "":
		return domain.Invalid("state", "State is required")
	case utf8.RuneCountInString(h.State) > maxPlaceLength:
		return domain.Invalid("state", fmt.Sprintf("State must be at most %d characters", maxPlaceLength))
	case !pincodePattern.MatchString(h.Pincode):
		return domain.Invalid("pincode", "Pincode is invalid")
	case h.RegistrationFees < 0:
		return domain.Invalid("registrationFees", "Registration fees is invalid")
	case !domain.HospitalType(h.HospitalType).Valid():
		return domain.Invalid("hospitalType", "Hospital type must be Government, Private or Clinic")
	case h.EstablishedYear != 0 && (h.EstablishedYear < minEstablishedYear || h.EstablishedYear > s.now().Year()):
		return domain.Invalid("establishedYear", "Established year is invalid")
	case len(h.Specialities) == 0:
		return domain.Invalid("specialities", "At least one speciality is required")
	}
	return nil
}

func applyPatch(h *models.Hospital, p *HospitalPatch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}

	setString(&h.HospitalName, p.HospitalName)
	setString(&h.PhoneNumber, p.PhoneNumber)
	setString(&h.Address, p.Address)
	setString(&h.City, p.City)
	setString(&h.State, p.State)
	setString(&h.Pincode, p.Pincode)
	setString(&h.HospitalType, p.HospitalType)
	setString(&h.Description, p.Description)

	if p.RegistrationFees != nil {
		h.RegistrationFees = *p.RegistrationFees
	}
	if p.EstablishedYear != nil {
		h.EstablishedYear = *p.EstablishedYear
	}
	if p.EmergencyAvailable != nil {
		h.EmergencyAvailable = *p.EmergencyAvailable
	}
	if p.AmbulanceAvailable != nil {
		h.AmbulanceAvailable = *p.AmbulanceAvailable
	}
	if p.Specialities != nil {
		h.Specialities = normalizeSpecialities(*p.Specialities)
	}
}

// normalizeSpecialities trims entries and drops blanks and case-insensitive duplicates
func normalizeSpecialities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
