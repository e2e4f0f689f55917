package beds

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"emergency-ops-backend/internal/db"
	"emergency-ops-backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func TestCreate(t *testing.T) {
	gdb := newTestDB(t)

	bed, err := Create(gdb, "ER-01", "ER", "")
	require.NoError(t, err)
	assert.Equal(t, model.BedAvailable, bed.Status)
	assert.NotEmpty(t, bed.ID)

	// Same number in the same ward is rejected.
	_, err = Create(gdb, "ER-01", "ER", "")
	assert.ErrorIs(t, err, ErrDuplicateBedNumber)

	// Same number in another ward is fine.
	_, err = Create(gdb, "ER-01", "ICU", "")
	assert.NoError(t, err)

	// Provisioning materializes the ward rows.
	var wards []model.Ward
	require.NoError(t, gdb.Order("name").Find(&wards).Error)
	require.Len(t, wards, 2)
	assert.Equal(t, "ER", wards[0].Name)
	assert.Equal(t, "ICU", wards[1].Name)
}

func TestAssignRelease(t *testing.T) {
	gdb := newTestDB(t)

	bed, err := Create(gdb, "ER-01", "ER", "")
	require.NoError(t, err)

	require.NoError(t, Assign(gdb, bed.ID, "case-1"))

	got, err := Get(gdb, bed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BedOccupied, got.Status)
	require.NotNil(t, got.AssignedCaseID)
	assert.Equal(t, "case-1", *got.AssignedCaseID)

	// A second assign must lose.
	assert.ErrorIs(t, Assign(gdb, bed.ID, "case-2"), ErrBedUnavailable)

	require.NoError(t, Release(gdb, bed.ID))

	got, err = Get(gdb, bed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BedAvailable, got.Status)
	assert.Nil(t, got.AssignedCaseID)

	// Releasing an already-free bed reports the inconsistency.
	assert.ErrorIs(t, Release(gdb, bed.ID), ErrBedNotOccupied)
}

func TestAssignUnknownBed(t *testing.T) {
	gdb := newTestDB(t)

	assert.ErrorIs(t, Assign(gdb, "nope", "case-1"), ErrBedNotFound)
	assert.ErrorIs(t, Release(gdb, "nope"), ErrBedNotFound)
}

func TestSetMaintenance(t *testing.T) {
	gdb := newTestDB(t)

	bed, err := Create(gdb, "ER-01", "ER", "")
	require.NoError(t, err)

	require.NoError(t, SetMaintenance(gdb, bed.ID, true))
	got, _ := Get(gdb, bed.ID)
	assert.Equal(t, model.BedMaintenance, got.Status)

	// An occupied bed cannot enter maintenance.
	require.NoError(t, SetMaintenance(gdb, bed.ID, false))
	require.NoError(t, Assign(gdb, bed.ID, "case-1"))
	assert.ErrorIs(t, SetMaintenance(gdb, bed.ID, true), ErrBedOccupied)

	// Toggling to the current state is a no-op.
	require.NoError(t, Release(gdb, bed.ID))
	require.NoError(t, SetMaintenance(gdb, bed.ID, false))
	got, _ = Get(gdb, bed.ID)
	assert.Equal(t, model.BedAvailable, got.Status)
}

func TestListByStatus(t *testing.T) {
	gdb := newTestDB(t)

	b1, err := Create(gdb, "ER-01", "ER", "")
	require.NoError(t, err)
	_, err = Create(gdb, "ER-02", "ER", "")
	require.NoError(t, err)
	_, err = Create(gdb, "ICU-01", "ICU", "")
	require.NoError(t, err)

	require.NoError(t, Assign(gdb, b1.ID, "case-1"))

	all, err := ListByStatus(gdb, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	er, err := ListByStatus(gdb, "ER", "")
	require.NoError(t, err)
	assert.Len(t, er, 2)

	available, err := ListByStatus(gdb, "ER", model.BedAvailable)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "ER-02", available[0].Number)
}
