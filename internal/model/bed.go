package model

import "time"

// BedStatus enumerates the occupancy states of a physical bed.
type BedStatus string

const (
	BedAvailable   BedStatus = "AVAILABLE"
	BedOccupied    BedStatus = "OCCUPIED"
	BedMaintenance BedStatus = "MAINTENANCE"
)

// Bed represents a physical bed. Beds are provisioned once and never
// deleted; only their status moves.
type Bed struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Number         string    `gorm:"size:32;not null;uniqueIndex:idx_beds_ward_number" json:"number"`
	Ward           string    `gorm:"size:64;not null;uniqueIndex:idx_beds_ward_number;index" json:"ward"`
	Status         BedStatus `gorm:"size:16;not null;index" json:"status"`
	AssignedCaseID *string   `gorm:"size:36" json:"assignedCaseId,omitempty"`
	Notes          string    `gorm:"size:512" json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Ward is a physical grouping of beds, materialized so push
// subscriptions can reference it.
type Ward struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
