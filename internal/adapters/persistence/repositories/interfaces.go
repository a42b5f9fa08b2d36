package repositories

import (
	"context"
	"time"

	"hospital-directory/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error)

	// Password reset codes. Each write is a single conditional statement on
	// the reset columns; false means the condition no longer held.
	StoreResetCode(ctx context.Context, id uint, codeHash string, expiresAt, replaceableUntil time.Time) (bool, error)
	ClaimResetAttempt(ctx context.Context, id uint, codeHash string, maxAttempts int) (bool, error)
	ReleaseResetAttempt(ctx context.Context, id uint, codeHash string) error
	ConsumeResetCode(ctx context.Context, id uint, codeHash, passwordHash string, now time.Time) (bool, error)
	ClearResetCode(ctx context.Context, id uint, codeHash string) error
}

// HospitalFilter narrows a hospital listing. Zero values are ignored.
type HospitalFilter struct {
	Search       string
	City         string
	State        string
	HospitalType string
	Speciality   string
	Emergency    *bool
	DoctorID     uint
}

// HospitalRepository defines hospital repository interface
type HospitalRepository interface {
	Create(ctx context.Context, hospital *models.Hospital) error
	GetByID(ctx context.Context, id uint) (*models.Hospital, error)
	Update(ctx context.Context, hospital *models.Hospital) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter HospitalFilter, offset, limit int) ([]*models.Hospital, int64, error)
}
