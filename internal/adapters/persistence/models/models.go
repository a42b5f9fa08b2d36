package models

import (
	"time"

	"hospital-directory/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Accounts
// ============================================================

// User represents users table
type User struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	Name                   string         `gorm:"size:100;not null" json:"name"`
	Email                  string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password               string         `gorm:"size:255;not null" json:"-"`
	Role                   string         `gorm:"size:20;not null;default:'patient'" json:"role"`
	ForgotPasswordToken    *string        `gorm:"size:255" json:"-"`
	ForgotPasswordExpiry   *time.Time     `json:"-"`
	ForgotPasswordAttempts int            `gorm:"default:0" json:"-"`
	VerifyToken            *string        `gorm:"size:255" json:"-"`
	VerifyTokenExpiry      *time.Time     `json:"-"`
	CreatedAt              time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsDoctor reports whether the user may own hospitals
func (u *User) IsDoctor() bool {
	return domain.Role(u.Role) == domain.RoleDoctor
}

// ToPublic returns the client-safe projection of the user
func (u *User) ToPublic() *domain.PublicUser {
	return &domain.PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  domain.Role(u.Role),
	}
}

// HasLiveResetCode reports whether a password reset code is pending at now
func (u *User) HasLiveResetCode(now time.Time) bool {
	return u.ForgotPasswordToken != nil && u.ForgotPasswordExpiry != nil && now.Before(*u.ForgotPasswordExpiry)
}

// ClearResetCode drops any pending password reset code
func (u *User) ClearResetCode() {
	u.ForgotPasswordToken = nil
	u.ForgotPasswordExpiry = nil
	u.ForgotPasswordAttempts = 0
}

// ============================================================
// Hospital directory
// ============================================================

// Hospital represents hospitals table
type Hospital struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	HospitalName       string    `gorm:"size:255;not null;index" json:"hospitalName"`
	PhoneNumber        string    `gorm:"size:20;not null" json:"phoneNumber"`
	Address            string    `gorm:"type:text;not null" json:"address"`
	City               string    `gorm:"size:100;not null;index" json:"city"`
	State              string    `gorm:"size:100;not null;index" json:"state"`
	Pincode            string    `gorm:"size:10;not null" json:"pincode"`
	RegistrationFees   float64   `gorm:"type:decimal(10,2);not null" json:"registrationFees"`
	HospitalType       string    `gorm:"size:20;not null;index" json:"hospitalType"`
	Description        string    `gorm:"type:text" json:"description"`
	EstablishedYear    int       `json:"establishedYear,omitempty"`
	EmergencyAvailable bool      `gorm:"default:false" json:"emergencyAvailable"`
	AmbulanceAvailable bool      `gorm:"default:false" json:"ambulanceAvailable"`
	Specialities       []string  `gorm:"serializer:json;type:json;not null" json:"specialities"`
	DoctorID           uint      `gorm:"index;not null" json:"doctor"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	Doctor             User      `gorm:"foreignKey:DoctorID" json:"-"`
}

func (Hospital) TableName() string {
	return "hospitals"
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Hospital{},
	)
}
