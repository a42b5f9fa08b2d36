package repositories

import (
	"context"
	"strings"

	"hospital-directory/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// hospitalRepository implements HospitalRepository interface
type hospitalRepository struct {
	db *gorm.DB
}

// NewHospitalRepository creates a new hospital repository
func NewHospitalRepository(db *gorm.DB) HospitalRepository {
	return &hospitalRepository{db: db}
}

// Create creates a new hospital
func (r *hospitalRepository) Create(ctx context.Context, hospital *models.Hospital) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(hospital).Error
}

// GetByID gets a hospital by ID
func (r *hospitalRepository) GetByID(ctx context.Context, id uint) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&hospital).Error
	if err != nil {
		return nil, err
	}
	return &hospital, nil
}

// Update saves all fields of a hospital (last write wins)
func (r *hospitalRepository) Update(ctx context.Context, hospital *models.Hospital) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(hospital).Error
}

// Delete deletes a hospital
func (r *hospitalRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Hospital{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List lists hospitals matching filter, newest first
func (r *hospitalRepository) List(ctx context.Context, filter HospitalFilter, offset, limit int) ([]*models.Hospital, int64, error) {
	var hospitals []*models.Hospital
	var total int64

	// Count total
	countQuery := applyHospitalFilter(r.db.WithContext(ctx).Model(&models.Hospital{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageQuery := applyHospitalFilter(r.db.WithContext(ctx), filter)
	if err := pageQuery.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&hospitals).Error; err != nil {
		return nil, 0, err
	}

	return hospitals, total, nil
}

// likeEscaper makes user text match literally inside LIKE; backslash is the
// MySQL default escape character
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func applyHospitalFilter(q *gorm.DB, f HospitalFilter) *gorm.DB {
	if f.Search != "" {
		like := "%" + likeEscaper.Replace(f.Search) + "%"
		q = q.Where("hospital_name LIKE ? OR description LIKE ?", like, like)
	}
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}
	if f.HospitalType != "" {
		q = q.Where("hospital_type = ?", f.HospitalType)
	}
	if f.Speciality != "" {
		q = q.Where("JSON_CONTAINS(specialities, JSON_QUOTE(?))", f.Speciality)
	}
	if f.Emergency != nil {
		q = q.Where("emergency_available = ?", *f.Emergency)
	}
	if f.DoctorID != 0 {
		q = q.Where("doctor_id = ?", f.DoctorID)
	}
	return q
}
