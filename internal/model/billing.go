package model

import "time"

// The types below are read models over tables owned by the billing and
// scheduling services. This service only ever reads them, so no write
// paths or associations beyond what the revenue rollup needs.

// InvoicePaid is the only invoice status that counts toward revenue.
const InvoicePaid = "PAID"

// Specialty is a medical specialty doctors belong to.
type Specialty struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"uniqueIndex;size:128;not null" json:"name"`
}

// Doctor links a practitioner to a specialty.
type Doctor struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:128;not null" json:"name"`
	SpecialtyID string `gorm:"size:36;index" json:"specialtyId"`
}

// Invoice is a billing record attributed to a doctor.
type Invoice struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	DoctorID    string    `gorm:"size:36;index" json:"doctorId"`
	Total       float64   `gorm:"not null" json:"total"`
	Status      string    `gorm:"size:32;not null;index" json:"status"`
	InvoiceDate time.Time `gorm:"not null;index" json:"invoiceDate"`
}

// Appointment is a scheduling record attributed to a doctor.
type Appointment struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	DoctorID        string    `gorm:"size:36;index" json:"doctorId"`
	AppointmentDate time.Time `gorm:"not null;index" json:"appointmentDate"`
}
