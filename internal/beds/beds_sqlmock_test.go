package beds

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"emergency-ops-backend/internal/model"
)

// newMockDB builds a gorm handle over sqlmock so the query shapes can
// be pinned against the postgres dialect used in production.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestListByStatus_QueryShape(t *testing.T) {
	gormDB, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "beds" WHERE ward = $1 AND status = $2`)).
		WithArgs("ER", string(model.BedAvailable)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "number", "ward", "status"}).
			AddRow("b1", "ER-01", "ER", "AVAILABLE"))

	out, err := ListByStatus(gormDB, "ER", model.BedAvailable)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ER-01", out[0].Number)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFoundMapsToDomainError(t *testing.T) {
	gormDB, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "beds" WHERE id = $1`)).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := Get(gormDB, "missing")
	assert.ErrorIs(t, err, ErrBedNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
