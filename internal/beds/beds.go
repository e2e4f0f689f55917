// Package beds is the single source of truth for bed occupancy. All
// mutating operations take the caller's *gorm.DB handle so the case
// lifecycle engine can run them inside its own transaction; they never
// touch a case record.
package beds

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"emergency-ops-backend/internal/model"
)

var (
	// ErrBedNotFound is returned when no bed exists with the given id.
	ErrBedNotFound = errors.New("bed not found")
	// ErrBedUnavailable is returned by Assign when the bed is not AVAILABLE.
	ErrBedUnavailable = errors.New("bed is not available")
	// ErrBedNotOccupied is returned by Release when the bed is not OCCUPIED.
	ErrBedNotOccupied = errors.New("bed is not occupied")
	// ErrBedOccupied is returned when an occupied bed is moved to maintenance.
	ErrBedOccupied = errors.New("bed is occupied")
	// ErrDuplicateBedNumber is returned when a ward already has a bed
	// with the requested number.
	ErrDuplicateBedNumber = errors.New("bed number already exists in ward")
)

// Assign marks a bed OCCUPIED by the given case. The status check and
// the flip happen in one guarded UPDATE, so of two racing assigns at
// most one can win; the loser sees ErrBedUnavailable.
func Assign(db *gorm.DB, bedID, caseID string) error {
	res := db.Model(&model.Bed{}).
		Where("id = ? AND status = ?", bedID, model.BedAvailable).
		Updates(map[string]any{
			"status":           model.BedOccupied,
			"assigned_case_id": caseID,
		})
	if res.Error != nil {
		return fmt.Errorf("assign bed %s: %w", bedID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := Get(db, bedID); err != nil {
			return err
		}
		return ErrBedUnavailable
	}
	return nil
}

// Release marks an occupied bed AVAILABLE and clears its case link.
func Release(db *gorm.DB, bedID string) error {
	res := db.Model(&model.Bed{}).
		Where("id = ? AND status = ?", bedID, model.BedOccupied).
		Updates(map[string]any{
			"status":           model.BedAvailable,
			"assigned_case_id": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("release bed %s: %w", bedID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := Get(db, bedID); err != nil {
			return err
		}
		return ErrBedNotOccupied
	}
	return nil
}

// SetMaintenance toggles a bed in or out of maintenance. A bed can only
// enter maintenance from AVAILABLE and only leave it from MAINTENANCE.
func SetMaintenance(db *gorm.DB, bedID string, inMaintenance bool) error {
	from, to := model.BedAvailable, model.BedMaintenance
	if !inMaintenance {
		from, to = model.BedMaintenance, model.BedAvailable
	}

	res := db.Model(&model.Bed{}).
		Where("id = ? AND status = ?", bedID, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("set maintenance on bed %s: %w", bedID, res.Error)
	}
	if res.RowsAffected == 0 {
		bed, err := Get(db, bedID)
		if err != nil {
			return err
		}
		if bed.Status == model.BedOccupied {
			return ErrBedOccupied
		}
		// Already in the requested state.
		return nil
	}
	return nil
}

// Get returns a single bed by id.
func Get(db *gorm.DB, bedID string) (*model.Bed, error) {
	var bed model.Bed
	if err := db.First(&bed, "id = ?", bedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBedNotFound
		}
		return nil, err
	}
	return &bed, nil
}

// ListByStatus returns beds ordered by ward and number, optionally
// filtered by ward and/or status. Empty filters match everything.
func ListByStatus(db *gorm.DB, ward string, status model.BedStatus) ([]model.Bed, error) {
	q := db.Model(&model.Bed{})
	if ward != "" {
		q = q.Where("ward = ?", ward)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var out []model.Bed
	if err := q.Order("ward").Order("number").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Create provisions a new bed in AVAILABLE state and makes sure the
// ward row exists for subscription mapping.
func Create(db *gorm.DB, number, ward, notes string) (*model.Bed, error) {
	bed := model.Bed{
		ID:     uuid.NewString(),
		Number: number,
		Ward:   ward,
		Status: model.BedAvailable,
		Notes:  notes,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Bed{}).
			Where("ward = ? AND number = ?", ward, number).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateBedNumber
		}

		if err := tx.Where(model.Ward{Name: ward}).
			FirstOrCreate(&model.Ward{Name: ward}).Error; err != nil {
			return fmt.Errorf("ensure ward %q: %w", ward, err)
		}

		return tx.Create(&bed).Error
	})
	if err != nil {
		return nil, err
	}
	return &bed, nil
}
