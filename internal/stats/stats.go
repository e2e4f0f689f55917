// Package stats computes read-only derived views over cases, beds and
// the billing/appointment read models. Every query runs inside a single
// read transaction so callers never observe a case mid-transition, and
// calling any of them twice against unchanged state yields identical
// results.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"emergency-ops-backend/internal/model"
)

// ErrAggregationTimeout is returned when an aggregation query exceeds
// its deadline. Aggregations are read-only, so retrying is always safe.
var ErrAggregationTimeout = errors.New("aggregation timed out")

// criticalTriageLevel mirrors the lifecycle engine's threshold.
const criticalTriageLevel = 2

// Engine computes the derived views.
type Engine struct {
	db             *gorm.DB
	defaultTimeout time.Duration
	txOpts         *sql.TxOptions
}

// NewEngine creates an aggregation engine. defaultTimeout bounds
// queries whose context carries no deadline of its own.
func NewEngine(db *gorm.DB, defaultTimeout time.Duration) *Engine {
	e := &Engine{db: db, defaultTimeout: defaultTimeout}
	// Multi-statement reads need one snapshot; READ COMMITTED would let
	// a case/bed write commit between statements. The sqlite driver used
	// in tests rejects custom isolation and serializes writers anyway.
	if db.Dialector.Name() == "postgres" {
		e.txOpts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return e
}

// BedCounts is the dashboard's bed occupancy breakdown.
type BedCounts struct {
	Total       int64 `json:"total"`
	Available   int64 `json:"available"`
	Occupied    int64 `json:"occupied"`
	Maintenance int64 `json:"maintenance"`
}

// DashboardSummary is the top-level ED dashboard view.
type DashboardSummary struct {
	CriticalPatients int64     `json:"criticalPatients"`
	Beds             BedCounts `json:"beds"`
	OccupancyRate    int       `json:"occupancyRate"`
}

// WardStat is the per-ward bed rollup.
type WardStat struct {
	Ward        string `json:"ward"`
	Total       int64  `json:"total"`
	Available   int64  `json:"available"`
	Occupied    int64  `json:"occupied"`
	Maintenance int64  `json:"maintenance"`
}

// SpecialtyRevenueSnapshot is the per-specialty revenue/patient rollup
// over a window. Derived fresh on every call, never persisted.
type SpecialtyRevenueSnapshot struct {
	Area     string  `json:"area"`
	Patients int64   `json:"patients"`
	Revenue  float64 `json:"revenue"`
}

// Summary computes the dashboard summary: count of non-terminal cases
// at triage level 1 or 2, plus a tally of the current bed snapshot.
func (e *Engine) Summary(ctx context.Context) (*DashboardSummary, error) {
	var out DashboardSummary
	err := e.read(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&model.EmergencyCase{}).
			Where("status IN ? AND triage_level <= ?", model.NonTerminalCaseStatuses, criticalTriageLevel).
			Count(&out.CriticalPatients).Error; err != nil {
			return fmt.Errorf("count critical patients: %w", err)
		}

		type statusRow struct {
			Status model.BedStatus
			Count  int64
		}
		var rows []statusRow
		if err := tx.Model(&model.Bed{}).
			Select("status, COUNT(*) as count").
			Group("status").
			Scan(&rows).Error; err != nil {
			return fmt.Errorf("tally beds: %w", err)
		}

		for _, r := range rows {
			out.Beds.Total += r.Count
			switch r.Status {
			case model.BedAvailable:
				out.Beds.Available = r.Count
			case model.BedOccupied:
				out.Beds.Occupied = r.Count
			case model.BedMaintenance:
				out.Beds.Maintenance = r.Count
			}
		}
		if out.Beds.Total > 0 {
			out.OccupancyRate = int(out.Beds.Occupied * 100 / out.Beds.Total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// WardStats groups the bed snapshot by ward. An empty ward returns all
// wards.
func (e *Engine) WardStats(ctx context.Context, ward string) ([]WardStat, error) {
	var out []WardStat
	err := e.read(ctx, func(tx *gorm.DB) error {
		type wardRow struct {
			Ward   string
			Status model.BedStatus
			Count  int64
		}
		q := tx.Model(&model.Bed{}).
			Select("ward, status, COUNT(*) as count").
			Group("ward").Group("status")
		if ward != "" {
			q = q.Where("ward = ?", ward)
		}

		var rows []wardRow
		if err := q.Order("ward").Scan(&rows).Error; err != nil {
			return fmt.Errorf("group beds by ward: %w", err)
		}

		byWard := make(map[string]*WardStat)
		var order []string
		for _, r := range rows {
			stat, ok := byWard[r.Ward]
			if !ok {
				stat = &WardStat{Ward: r.Ward}
				byWard[r.Ward] = stat
				order = append(order, r.Ward)
			}
			stat.Total += r.Count
			switch r.Status {
			case model.BedAvailable:
				stat.Available = r.Count
			case model.BedOccupied:
				stat.Occupied = r.Count
			case model.BedMaintenance:
				stat.Maintenance = r.Count
			}
		}

		out = make([]WardStat, 0, len(order))
		for _, name := range order {
			out = append(out, *byWard[name])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SpecialtyRevenue sums paid invoices and counts appointments per
// specialty over [from, to). Every known specialty appears in the
// result; absence of invoices means zero, not omission.
func (e *Engine) SpecialtyRevenue(ctx context.Context, from, to time.Time) ([]SpecialtyRevenueSnapshot, error) {
	var out []SpecialtyRevenueSnapshot
	err := e.read(ctx, func(tx *gorm.DB) error {
		var specialties []model.Specialty
		if err := tx.Order("name").Find(&specialties).Error; err != nil {
			return fmt.Errorf("list specialties: %w", err)
		}

		type aggRow struct {
			SpecialtyID string
			Revenue     float64
			Patients    int64
		}

		var revenueRows []aggRow
		if err := tx.Model(&model.Invoice{}).
			Select("doctors.specialty_id as specialty_id, SUM(invoices.total) as revenue").
			Joins("JOIN doctors ON doctors.id = invoices.doctor_id").
			Where("invoices.status = ?", model.InvoicePaid).
			Where("invoices.invoice_date >= ? AND invoices.invoice_date < ?", from, to).
			Group("doctors.specialty_id").
			Scan(&revenueRows).Error; err != nil {
			return fmt.Errorf("sum invoices by specialty: %w", err)
		}

		var patientRows []aggRow
		if err := tx.Model(&model.Appointment{}).
			Select("doctors.specialty_id as specialty_id, COUNT(*) as patients").
			Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
			Where("appointments.appointment_date >= ? AND appointments.appointment_date < ?", from, to).
			Group("doctors.specialty_id").
			Scan(&patientRows).Error; err != nil {
			return fmt.Errorf("count appointments by specialty: %w", err)
		}

		revenueByID := make(map[string]float64, len(revenueRows))
		for _, r := range revenueRows {
			revenueByID[r.SpecialtyID] = r.Revenue
		}
		patientsByID := make(map[string]int64, len(patientRows))
		for _, r := range patientRows {
			patientsByID[r.SpecialtyID] = r.Patients
		}

		out = make([]SpecialtyRevenueSnapshot, 0, len(specialties))
		for _, sp := range specialties {
			out = append(out, SpecialtyRevenueSnapshot{
				Area:     sp.Name,
				Patients: patientsByID[sp.ID],
				Revenue:  revenueByID[sp.ID],
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// read runs fn inside a read transaction with a deadline, translating
// deadline expiry into ErrAggregationTimeout.
func (e *Engine) read(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if _, ok := ctx.Deadline(); !ok && e.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.defaultTimeout)
		defer cancel()
	}

	var opts []*sql.TxOptions
	if e.txOpts != nil {
		opts = append(opts, e.txOpts)
	}
	err := e.db.WithContext(ctx).Transaction(fn, opts...)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return ErrAggregationTimeout
	}
	return err
}
