package domain

import "strings"

// Role represents user role in the system
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ParseRole maps a client supplied role to a Role. An empty value means patient.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RolePatient:
		return RolePatient, true
	case RoleDoctor:
		return RoleDoctor, true
	}
	return "", false
}

// HospitalType is the kind of facility
type HospitalType string

const (
	HospitalGovernment HospitalType = "Government"
	HospitalPrivate    HospitalType = "Private"
	HospitalClinic     HospitalType = "Clinic"
)

// Valid reports whether t is one of the known hospital types
func (t HospitalType) Valid() bool {
	switch t {
	case HospitalGovernment, HospitalPrivate, HospitalClinic:
		return true
	}
	return false
}

// PublicUser is the part of a user record safe to return to clients
type PublicUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
