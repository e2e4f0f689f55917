// Package cases owns the emergency case state machine. It is the only
// writer of case status, bed linkage and discharge dates, and the only
// caller of the bed registry's mutating operations, so the case/bed
// consistency invariant is enforced in one place.
package cases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"emergency-ops-backend/internal/beds"
	"emergency-ops-backend/internal/model"
	"emergency-ops-backend/internal/notification"
	"emergency-ops-backend/internal/registry"
)

// criticalTriageLevel is the highest (least severe) triage level that
// still counts as critical.
const criticalTriageLevel = 2

// Engine coordinates case transitions with the bed registry.
type Engine struct {
	db       *gorm.DB
	logger   *zap.Logger
	registry *registry.Client
	notifier notification.Dispatcher
}

// NewEngine creates a lifecycle engine. registry and notifier may be
// nil; enrichment and alerts are then skipped.
func NewEngine(db *gorm.DB, logger *zap.Logger, reg *registry.Client, notifier notification.Dispatcher) *Engine {
	return &Engine{
		db:       db,
		logger:   logger,
		registry: reg,
		notifier: notifier,
	}
}

// IntakeData is the validated input for creating a case at triage.
type IntakeData struct {
	PatientID      *string
	PatientName    string
	PatientAge     *int
	TriageLevel    int
	ChiefComplaint string
	Diagnosis      string
	VitalSigns     model.VitalSigns
	DoctorID       *string
	Notes          string
}

// CreateCase validates intake data and opens a case in TRIAGE state.
// Registry enrichment is best-effort: a failed lookup never fails the
// intake.
func (e *Engine) CreateCase(ctx context.Context, intake IntakeData) (*model.EmergencyCase, error) {
	if intake.TriageLevel < 1 || intake.TriageLevel > 5 {
		return nil, &ValidationError{Field: "triageLevel", Reason: "must be between 1 and 5"}
	}
	if intake.ChiefComplaint == "" {
		return nil, &ValidationError{Field: "chiefComplaint", Reason: "must not be empty"}
	}

	now := time.Now().UTC()
	ec := model.EmergencyCase{
		ID:             uuid.NewString(),
		PatientID:      intake.PatientID,
		PatientName:    intake.PatientName,
		PatientAge:     intake.PatientAge,
		AdmissionDate:  now,
		TriageLevel:    intake.TriageLevel,
		ChiefComplaint: intake.ChiefComplaint,
		Diagnosis:      intake.Diagnosis,
		VitalSigns:     intake.VitalSigns,
		DoctorID:       intake.DoctorID,
		Status:         model.CaseTriage,
		Notes:          intake.Notes,
	}
	e.enrich(ctx, &ec)

	if err := e.db.WithContext(ctx).Create(&ec).Error; err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	if ec.TriageLevel <= criticalTriageLevel && e.notifier != nil {
		e.notifier.Dispatch(notification.Event{
			Kind:  notification.EventCriticalIntake,
			Title: fmt.Sprintf("Critical intake (triage %d)", ec.TriageLevel),
			Body:  ec.ChiefComplaint,
		})
	}

	return &ec, nil
}

// enrich fills missing display names from the external registry.
func (e *Engine) enrich(ctx context.Context, ec *model.EmergencyCase) {
	if !e.registry.Enabled() {
		return
	}

	if ec.PatientID != nil && ec.PatientName == "" {
		if p, err := e.registry.LookupPatient(ctx, *ec.PatientID); err != nil {
			e.logger.Warn("patient registry lookup failed",
				zap.String("patient_id", *ec.PatientID), zap.Error(err))
		} else {
			ec.PatientName = p.Name
			if ec.PatientAge == nil {
				age := p.Age
				ec.PatientAge = &age
			}
		}
	}

	if ec.DoctorID != nil && ec.DoctorName == "" {
		if d, err := e.registry.LookupDoctor(ctx, *ec.DoctorID); err != nil {
			e.logger.Warn("doctor registry lookup failed",
				zap.String("doctor_id", *ec.DoctorID), zap.Error(err))
		} else {
			ec.DoctorName = d.Name
		}
	}
}

// Admit assigns a bed and moves the case to ADMITTED. The bed flip and
// the case update commit or roll back together; a racing admit for the
// same bed loses with beds.ErrBedUnavailable and leaves its case
// untouched.
func (e *Engine) Admit(ctx context.Context, caseID, bedID string, doctorID *string) (*model.EmergencyCase, error) {
	var doctorName string
	if doctorID != nil && e.registry.Enabled() {
		if d, err := e.registry.LookupDoctor(ctx, *doctorID); err != nil {
			e.logger.Warn("doctor registry lookup failed",
				zap.String("doctor_id", *doctorID), zap.Error(err))
		} else {
			doctorName = d.Name
		}
	}

	var out model.EmergencyCase
	var staleBedID string

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ec, err := loadCase(tx, caseID)
		if err != nil {
			return err
		}
		if ec.Status != model.CaseTriage && ec.Status != model.CaseObservation {
			return &InvalidTransitionError{From: ec.Status, To: model.CaseAdmitted}
		}

		sameBed := ec.BedID != nil && *ec.BedID == bedID
		if !sameBed {
			if err := beds.Assign(tx, bedID, ec.ID); err != nil {
				return err
			}
			if ec.BedID != nil {
				// The case moves beds; free the old one.
				if err := beds.Release(tx, *ec.BedID); err != nil {
					if errors.Is(err, beds.ErrBedNotOccupied) || errors.Is(err, beds.ErrBedNotFound) {
						staleBedID = *ec.BedID
					} else {
						return err
					}
				}
			}
		}

		bed, err := beds.Get(tx, bedID)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"status":     model.CaseAdmitted,
			"bed_id":     bed.ID,
			"bed_number": bed.Number,
		}
		if doctorID != nil {
			updates["doctor_id"] = *doctorID
			if doctorName != "" {
				updates["doctor_name"] = doctorName
			}
		}

		return e.applyTransition(tx, ec, model.CaseAdmitted, updates, &out)
	})
	if err != nil {
		return nil, err
	}

	// Logged after the commit; a rolled-back admit is not an inconsistency.
	if staleBedID != "" {
		e.logger.Warn("consistency warning: previous bed was not occupied",
			zap.String("case_id", caseID),
			zap.String("bed_id", staleBedID))
	}

	return &out, nil
}

// TransitionFields carries the optional fields a transition may set.
type TransitionFields struct {
	Diagnosis string
	Notes     string
}

// TransitionTo validates the target against the transition table and
// applies it. Transitions into a terminal state release the bed in the
// same transaction; a bed that was already free is logged as a
// consistency warning and does not fail the transition.
func (e *Engine) TransitionTo(ctx context.Context, caseID string, target model.CaseStatus, fields TransitionFields) (*model.EmergencyCase, error) {
	var out model.EmergencyCase
	var freedWard, freedBedNumber, staleBedID string

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ec, err := loadCase(tx, caseID)
		if err != nil {
			return err
		}
		if !canTransition(ec.Status, target) {
			return &InvalidTransitionError{From: ec.Status, To: target}
		}
		if target == model.CaseAdmitted && ec.Status == model.CaseTriage {
			// Admission needs a bed; callers must use Admit.
			return &ValidationError{Field: "bedId", Reason: "admission requires a bed, use the admit operation"}
		}

		updates := map[string]any{"status": target}
		if fields.Diagnosis != "" {
			updates["diagnosis"] = fields.Diagnosis
		}
		if fields.Notes != "" {
			updates["notes"] = fields.Notes
		}

		if releasesBed(target) {
			updates["discharge_date"] = time.Now().UTC()
			if ec.BedID != nil {
				bed, getErr := beds.Get(tx, *ec.BedID)
				if getErr == nil {
					freedWard = bed.Ward
					freedBedNumber = bed.Number
				}
				if err := beds.Release(tx, *ec.BedID); err != nil {
					if errors.Is(err, beds.ErrBedNotOccupied) || errors.Is(err, beds.ErrBedNotFound) {
						staleBedID = *ec.BedID
						freedWard = ""
					} else {
						return err
					}
				}
				updates["bed_id"] = nil
				updates["bed_number"] = ""
			}
		}

		return e.applyTransition(tx, ec, target, updates, &out)
	})
	if err != nil {
		return nil, err
	}

	// Logged after the commit; a transition that lost the status race
	// rolled back and left nothing inconsistent behind.
	if staleBedID != "" {
		e.logger.Warn("consistency warning: bed already free on release",
			zap.String("case_id", caseID),
			zap.String("bed_id", staleBedID))
	}

	if freedWard != "" && e.notifier != nil {
		e.notifier.Dispatch(notification.Event{
			Kind:  notification.EventBedFreed,
			Ward:  freedWard,
			Title: fmt.Sprintf("Bed available in %s", freedWard),
			Body:  fmt.Sprintf("Bed %s was freed", freedBedNumber),
		})
	}

	return &out, nil
}

// applyTransition performs the guarded status flip. The WHERE clause on
// the previous status serializes concurrent transitions on the same
// case: the loser matches zero rows and the transaction rolls back.
func (e *Engine) applyTransition(tx *gorm.DB, ec *model.EmergencyCase, target model.CaseStatus, updates map[string]any, out *model.EmergencyCase) error {
	res := tx.Model(&model.EmergencyCase{}).
		Where("id = ? AND status = ?", ec.ID, ec.Status).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("transition case %s: %w", ec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := loadCase(tx, ec.ID)
		if err != nil {
			return err
		}
		return &InvalidTransitionError{From: current.Status, To: target}
	}

	return tx.First(out, "id = ?", ec.ID).Error
}

// UpdateFields carries the fields a plain update may touch. Status, bed
// linkage and discharge dates move only through Admit/TransitionTo.
type UpdateFields struct {
	PatientName *string
	PatientAge  *int
	TriageLevel *int
	Diagnosis   *string
	VitalSigns  *model.VitalSigns
	Notes       *string
}

// Update applies partial edits to a non-terminal case.
func (e *Engine) Update(ctx context.Context, caseID string, fields UpdateFields) (*model.EmergencyCase, error) {
	if fields.TriageLevel != nil && (*fields.TriageLevel < 1 || *fields.TriageLevel > 5) {
		return nil, &ValidationError{Field: "triageLevel", Reason: "must be between 1 and 5"}
	}

	var out model.EmergencyCase
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ec, err := loadCase(tx, caseID)
		if err != nil {
			return err
		}
		if ec.Status.Terminal() {
			return ErrCaseTerminal
		}

		updates := map[string]any{}
		if fields.PatientName != nil {
			updates["patient_name"] = *fields.PatientName
		}
		if fields.PatientAge != nil {
			updates["patient_age"] = *fields.PatientAge
		}
		if fields.TriageLevel != nil {
			updates["triage_level"] = *fields.TriageLevel
		}
		if fields.Diagnosis != nil {
			updates["diagnosis"] = *fields.Diagnosis
		}
		if fields.Notes != nil {
			updates["notes"] = *fields.Notes
		}
		if fields.VitalSigns != nil {
			updates["vital_heart_rate"] = fields.VitalSigns.HeartRate
			updates["vital_blood_pressure"] = fields.VitalSigns.BloodPressure
			updates["vital_temperature"] = fields.VitalSigns.Temperature
			updates["vital_sp_o2"] = fields.VitalSigns.SpO2
		}
		if len(updates) == 0 {
			out = *ec
			return nil
		}

		if err := tx.Model(&model.EmergencyCase{}).
			Where("id = ?", ec.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("update case %s: %w", ec.ID, err)
		}
		return tx.First(&out, "id = ?", ec.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns a single case by id.
func (e *Engine) Get(ctx context.Context, caseID string) (*model.EmergencyCase, error) {
	return loadCase(e.db.WithContext(ctx), caseID)
}

// ListCritical returns all non-terminal cases ordered by triage level,
// most critical first.
func (e *Engine) ListCritical(ctx context.Context) ([]model.EmergencyCase, error) {
	var out []model.EmergencyCase
	err := e.db.WithContext(ctx).
		Where("status IN ?", nonTerminalStatuses()).
		Order("triage_level ASC").
		Order("admission_date ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PatientHistory returns a patient's cases, newest admission first.
func (e *Engine) PatientHistory(ctx context.Context, patientID string) ([]model.EmergencyCase, error) {
	var out []model.EmergencyCase
	err := e.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("admission_date DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadCase(db *gorm.DB, caseID string) (*model.EmergencyCase, error) {
	var ec model.EmergencyCase
	if err := db.First(&ec, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return &ec, nil
}

func nonTerminalStatuses() []model.CaseStatus {
	return model.NonTerminalCaseStatuses
}
