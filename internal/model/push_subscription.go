package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Staff subscribe to bed-freed alerts per ward and optionally to
// critical-intake alerts.
type PushSubscription struct {
	Endpoint       string    `gorm:"primaryKey"`
	P256DH         string    `gorm:"column:p256dh;not null"`
	Auth           string    `gorm:"not null"`
	CriticalAlerts bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"not null"`

	// Associations
	Wards []*Ward `gorm:"many2many:subscription_ward_mapping;"`
}
