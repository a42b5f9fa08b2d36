// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hospital-directory/internal/adapters/persistence/models"
	"hospital-directory/internal/adapters/persistence/repositories"
	"hospital-directory/internal/core/domain"

	"gorm.io/gorm"
)

// Users is an in-memory UserRepository. Err, when set, is returned by every call.
type Users struct {
	mu     sync.Mutex
	byID   map[uint]models.User
	nextID uint
	Err    error
}

var _ repositories.UserRepository = (*Users)(nil)

// NewUsers creates an empty user store
func NewUsers() *Users {
	return &Users{byID: make(map[uint]models.User)}
}

func (r *Users) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = string(domain.RolePatient)
	}
	r.byID[user.ID] = *user
	return nil
}

func (r *Users) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// Put overwrites a stored user; tests use it to arrange state directly
func (r *Users) Put(user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.UpdatedAt = time.Now()
	r.byID[user.ID] = *user
}

func (r *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *Users) ClearExpiredCodes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	var n int64
	for id, u := range r.byID {
		if u.ForgotPasswordExpiry != nil && u.ForgotPasswordExpiry.Before(now) {
			u.ClearResetCode()
			n++
		}
		if u.VerifyTokenExpiry != nil && u.VerifyTokenExpiry.Before(now) {
			u.VerifyToken = nil
			u.VerifyTokenExpiry = nil
			n++
		}
		r.byID[id] = u
	}
	return n, nil
}

func (r *Users) StoreResetCode(_ context.Context, id uint, codeHash string, expiresAt, replaceableUntil time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	u, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	if u.ForgotPasswordToken != nil && u.ForgotPasswordExpiry != nil && u.ForgotPasswordExpiry.After(replaceableUntil) {
		return false, nil
	}
	u.ForgotPasswordToken = &codeHash
	u.ForgotPasswordExpiry = &expiresAt
	u.ForgotPasswordAttempts = 0
	r.byID[id] = u
	return true, nil
}

func (r *Users) ClaimResetAttempt(_ context.Context, id uint, codeHash string, maxAttempts int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	u, ok := r.pending(id, codeHash)
	if !ok || u.ForgotPasswordAttempts >= maxAttempts {
		return false, nil
	}
	u.ForgotPasswordAttempts++
	r.byID[id] = u
	return true, nil
}

func (r *Users) ReleaseResetAttempt(_ context.Context, id uint, codeHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if u, ok := r.pending(id, codeHash); ok && u.ForgotPasswordAttempts > 0 {
		u.ForgotPasswordAttempts--
		r.byID[id] = u
	}
	return nil
}

func (r *Users) ConsumeResetCode(_ context.Context, id uint, codeHash, passwordHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	u, ok := r.pending(id, codeHash)
	if !ok || u.ForgotPasswordExpiry == nil || !u.ForgotPasswordExpiry.After(now) {
		return false, nil
	}
	u.Password = passwordHash
	u.ClearResetCode()
	r.byID[id] = u
	return true, nil
}

func (r *Users) ClearResetCode(_ context.Context, id uint, codeHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if u, ok := r.pending(id, codeHash); ok {
		u.ClearResetCode()
		r.byID[id] = u
	}
	return nil
}

// pending returns the stored user when codeHash is its pending reset code; r.mu must be held
func (r *Users) pending(id uint, codeHash string) (models.User, bool) {
	u, ok := r.byID[id]
	if !ok || u.ForgotPasswordToken == nil || *u.ForgotPasswordToken != codeHash {
		return models.User{}, false
	}
	return u, true
}

// Delete removes a user; no application flow deletes users, tests use it to
// simulate an account vanishing behind a live session.
func (r *Users) Delete(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// SetRole changes a stored user's role
func (r *Users) SetRole(id uint, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.Role = string(role)
		r.byID[id] = u
	}
}

// Hospitals is an in-memory HospitalRepository
type Hospitals struct {
	mu     sync.Mutex
	byID   map[uint]models.Hospital
	nextID uint
	Err    error
}

var _ repositories.HospitalRepository = (*Hospitals)(nil)

// NewHospitals creates an empty hospital store
func NewHospitals() *Hospitals {
	return &Hospitals{byID: make(map[uint]models.Hospital)}
}

func (r *Hospitals) Create(_ context.Context, h *models.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.nextID++
	h.ID = r.nextID
	h.CreatedAt = time.Now().Add(time.Duration(h.ID) * time.Millisecond)
	h.UpdatedAt = h.CreatedAt
	r.byID[h.ID] = cloneHospital(*h)
	return nil
}

func (r *Hospitals) GetByID(_ context.Context, id uint) (*models.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	h, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	h = cloneHospital(h)
	return &h, nil
}

func (r *Hospitals) Update(_ context.Context, h *models.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	h.UpdatedAt = time.Now()
	r.byID[h.ID] = cloneHospital(*h)
	return nil
}

func (r *Hospitals) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *Hospitals) List(_ context.Context, f repositories.HospitalFilter, offset, limit int) ([]*models.Hospital, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	var matched []*models.Hospital
	for _, h := range r.byID {
		if matches(h, f) {
			h := cloneHospital(h)
			matched = append(matched, &h)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func matches(h models.Hospital, f repositories.HospitalFilter) bool {
	if f.Search != "" &&
		!strings.Contains(h.HospitalName, f.Search) &&
		!strings.Contains(h.Description, f.Search) {
		return false
	}
	if f.City != "" && h.City != f.City {
		return false
	}
	if f.State != "" && h.State != f.State {
		return false
	}
	if f.HospitalType != "" && h.HospitalType != f.HospitalType {
		return false
	}
	if f.Emergency != nil && h.EmergencyAvailable != *f.Emergency {
		return false
	}
	if f.DoctorID != 0 && h.DoctorID != f.DoctorID {
		return false
	}
	if f.Speciality != "" {
		for _, s := range h.Specialities {
			if s == f.Speciality {
				return true
			}
		}
		return false
	}
	return true
}

func cloneHospital(h models.Hospital) models.Hospital {
	h.Specialities = append([]string(nil), h.Specialities...)
	return h
}
