package model

import "time"

// CaseStatus enumerates the lifecycle states of an emergency case.
type CaseStatus string

const (
	CaseTriage      CaseStatus = "TRIAGE"
	CaseAdmitted    CaseStatus = "ADMITTED"
	CaseObservation CaseStatus = "OBSERVATION"
	CaseDischarged  CaseStatus = "DISCHARGED"
	CaseTransferred CaseStatus = "TRANSFERRED"
)

// Terminal reports whether no further transitions are permitted.
func (s CaseStatus) Terminal() bool {
	return s == CaseDischarged || s == CaseTransferred
}

// NonTerminalCaseStatuses lists the states in which a case is still in
// the department.
var NonTerminalCaseStatuses = []CaseStatus{CaseTriage, CaseAdmitted, CaseObservation}

// VitalSigns holds the last recorded vitals for a case.
type VitalSigns struct {
	HeartRate     int     `json:"hr,omitempty"`
	BloodPressure string  `gorm:"size:16" json:"bp,omitempty"`
	Temperature   float64 `json:"temp,omitempty"`
	SpO2          int     `json:"spo2,omitempty"`
}

// EmergencyCase represents a single ED case from triage intake to
// discharge or transfer. Cases are never physically deleted; terminal
// rows are retained for reporting.
type EmergencyCase struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	PatientID      *string    `gorm:"size:36;index" json:"patientId,omitempty"`
	PatientName    string     `gorm:"size:128" json:"patientName,omitempty"`
	PatientAge     *int       `json:"patientAge,omitempty"`
	AdmissionDate  time.Time  `gorm:"not null;index" json:"admissionDate"`
	TriageLevel    int        `gorm:"not null;index" json:"triageLevel"`
	ChiefComplaint string     `gorm:"size:512;not null" json:"chiefComplaint"`
	Diagnosis      string     `gorm:"size:512" json:"diagnosis,omitempty"`
	VitalSigns     VitalSigns `gorm:"embedded;embeddedPrefix:vital_" json:"vitalSigns"`
	BedID          *string    `gorm:"size:36;index" json:"bedId,omitempty"`
	BedNumber      string     `gorm:"size:32" json:"bedNumber,omitempty"`
	DoctorID       *string    `gorm:"size:36" json:"doctorId,omitempty"`
	DoctorName     string     `gorm:"size:128" json:"doctorName,omitempty"`
	Status         CaseStatus `gorm:"size:16;not null;index" json:"status"`
	Notes          string     `gorm:"size:1024" json:"notes,omitempty"`
	DischargeDate  *time.Time `json:"dischargeDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
