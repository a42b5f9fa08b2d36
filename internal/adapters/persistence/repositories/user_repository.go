package repositories

import (
	"context"
	"errors"
	"time"

	"hospital-directory/internal/adapters/persistence/models"
	"hospital-directory/internal/core/domain"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user. A unique index violation on email is reported
// as domain.ErrDuplicateEmail, so racing signups fail for the loser.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if isDuplicateKey(err) {
		return domain.ErrDuplicateEmail
	}
	return err
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail checks if email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// ClearExpiredCodes drops password reset and verification codes that expired before now
func (r *userRepository) ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	reset := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("forgot_password_expiry < ?", now).
		Updates(map[string]interface{}{
			"forgot_password_token":    nil,
			"forgot_password_expiry":   nil,
			"forgot_password_attempts": 0,
		})
	if reset.Error != nil {
		return 0, reset.Error
	}

	verify := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("verify_token_expiry < ?", now).
		Updates(map[string]interface{}{
			"verify_token":        nil,
			"verify_token_expiry": nil,
		})
	if verify.Error != nil {
		return reset.RowsAffected, verify.Error
	}

	return reset.RowsAffected + verify.RowsAffected, nil
}

// StoreResetCode sets a new reset code unless the pending one expires after
// replaceableUntil
func (r *userRepository) StoreResetCode(ctx context.Context, id uint, codeHash string, expiresAt, replaceableUntil time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Where("forgot_password_token IS NULL OR forgot_password_expiry IS NULL OR forgot_password_expiry <= ?", replaceableUntil).
		Updates(map[string]interface{}{
			"forgot_password_token":    codeHash,
			"forgot_password_expiry":   expiresAt,
			"forgot_password_attempts": 0,
		})
	return result.RowsAffected == 1, result.Error
}

// ClaimResetAttempt counts one guess against the pending code codeHash while
// fewer than maxAttempts have been made
func (r *userRepository) ClaimResetAttempt(ctx context.Context, id uint, codeHash string, maxAttempts int) (bool, error) {
	result := r.pendingCode(ctx, id, codeHash).
		Where("forgot_password_attempts < ?", maxAttempts).
		UpdateColumn("forgot_password_attempts", gorm.Expr("forgot_password_attempts + ?", 1))
	return result.RowsAffected == 1, result.Error
}

// ReleaseResetAttempt gives back an attempt taken by a correct guess
func (r *userRepository) ReleaseResetAttempt(ctx context.Context, id uint, codeHash string) error {
	return r.pendingCode(ctx, id, codeHash).
		Where("forgot_password_attempts > 0").
		UpdateColumn("forgot_password_attempts", gorm.Expr("forgot_password_attempts - ?", 1)).
		Error
}

// ConsumeResetCode stores passwordHash and drops the code, provided codeHash
// is still pending and unexpired at now
func (r *userRepository) ConsumeResetCode(ctx context.Context, id uint, codeHash, passwordHash string, now time.Time) (bool, error) {
	result := r.pendingCode(ctx, id, codeHash).
		Where("forgot_password_expiry > ?", now).
		Updates(map[string]interface{}{
			"password":                 passwordHash,
			"forgot_password_token":    nil,
			"forgot_password_expiry":   nil,
			"forgot_password_attempts": 0,
		})
	return result.RowsAffected == 1, result.Error
}

// ClearResetCode drops the pending code if it is still codeHash
func (r *userRepository) ClearResetCode(ctx context.Context, id uint, codeHash string) error {
	return r.pendingCode(ctx, id, codeHash).
		Updates(map[string]interface{}{
			"forgot_password_token":    nil,
			"forgot_password_expiry":   nil,
			"forgot_password_attempts": 0,
		}).Error
}

func (r *userRepository) pendingCode(ctx context.Context, id uint, codeHash string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND forgot_password_token = ?", id, codeHash)
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldrv.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
