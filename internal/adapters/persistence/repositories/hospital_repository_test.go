package repositories

import (
	"context"
	"testing"
	"time"

	"hospital-directory/internal/adapters/persistence/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestHospitalRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHospitalRepository(db)

	mock.ExpectExec("INSERT INTO `hospitals`").
		WillReturnResult(sqlmock.NewResult(5, 1))

	h := &models.Hospital{
		HospitalName: "City Care",
		HospitalType: "Private",
		Specialities: []string{"Cardiology"},
		DoctorID:     3,
	}
	require.NoError(t, repo.Create(context.Background(), h))
	assert.Equal(t, uint(5), h.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalRepository_GetByID_DecodesSpecialities(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHospitalRepository(db)

	rows := sqlmock.NewRows([]string{"id", "hospital_name", "specialities", "doctor_id", "created_at"}).
		AddRow(5, "City Care", []byte(`["Cardiology","Pediatrics"]`), 3, time.Now())
	mock.ExpectQuery("SELECT \\* FROM `hospitals` WHERE id = \\?").
		WillReturnRows(rows)

	h, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiology", "Pediatrics"}, h.Specialities)
	assert.Equal(t, uint(3), h.DoctorID)
}

func TestHospitalRepository_Delete_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHospitalRepository(db)

	mock.ExpectExec("DELETE FROM `hospitals`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestHospitalRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHospitalRepository(db)

	mock.ExpectExec("UPDATE `hospitals` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := &models.Hospital{ID: 5, HospitalName: "Renamed", Specialities: []string{}, DoctorID: 3}
	require.NoError(t, repo.Update(context.Background(), h))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalRepository_List_AppliesFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHospitalRepository(db)

	emergency := true
	filter := HospitalFilter{City: "Pune", Speciality: "Cardiology", Emergency: &emergency}

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `hospitals` WHERE city = \\? AND JSON_CONTAINS\\(specialities, JSON_QUOTE\\(\\?\\)\\) AND emergency_available = \\?").
		WithArgs("Pune", "Cardiology", true).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectQuery("SELECT \\* FROM `hospitals` WHERE city = \\? AND JSON_CONTAINS.* ORDER BY created_at DESC, id DESC LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "hospital_name", "city", "specialities"}).
			AddRow(1, "City Care", "Pune", []byte(`["Cardiology"]`)))

	hospitals, total, err := repo.List(context.Background(), filter, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, hospitals, 1)
	assert.Equal(t, "City Care", hospitals[0].HospitalName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHospitalRepository_List_SearchMatchesWildcardsLiterally(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewHospitalRepository(db)

	want := `%50\%\_off\\%`
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `hospitals` WHERE \\(?hospital_name LIKE \\? OR description LIKE \\?").
		WithArgs(want, want).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectQuery("SELECT \\* FROM `hospitals` WHERE \\(?hospital_name LIKE \\? OR description LIKE \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	hospitals, total, err := repo.List(context.Background(), HospitalFilter{Search: `50%_off\`}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, hospitals)
	require.NoError(t, mock.ExpectationsWereMet())
}
