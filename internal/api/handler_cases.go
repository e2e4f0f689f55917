package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"emergency-ops-backend/internal/cases"
	"emergency-ops-backend/internal/model"
)

type createCaseRequest struct {
	PatientID      *string           `json:"patientId"`
	PatientName    string            `json:"patientName"`
	PatientAge     *int              `json:"patientAge"`
	TriageLevel    int               `json:"triageLevel" binding:"required"`
	ChiefComplaint string            `json:"chiefComplaint"`
	Diagnosis      string            `json:"diagnosis"`
	VitalSigns     *model.VitalSigns `json:"vitalSigns"`
	DoctorID       *string           `json:"doctorId"`
	Notes          string            `json:"notes"`
}

// CreateCase handles POST /api/cases.
func (h *Handler) CreateCase(c *gin.Context) {
	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intake := cases.IntakeData{
		PatientID:      req.PatientID,
		PatientName:    req.PatientName,
		PatientAge:     req.PatientAge,
		TriageLevel:    req.TriageLevel,
		ChiefComplaint: req.ChiefComplaint,
		Diagnosis:      req.Diagnosis,
		DoctorID:       req.DoctorID,
		Notes:          req.Notes,
	}
	if req.VitalSigns != nil {
		intake.VitalSigns = *req.VitalSigns
	}

	ec, err := h.cases.CreateCase(c.Request.Context(), intake)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ec)
}

// GetCase handles GET /api/cases/{id}.
func (h *Handler) GetCase(c *gin.Context) {
	ec, err := h.cases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ec)
}

// ListCases handles GET /api/cases?patient_id=. Without a patient id it
// returns the critical list, matching the dashboard's default view.
func (h *Handler) ListCases(c *gin.Context) {
	if patientID := c.Query("patient_id"); patientID != "" {
		history, err := h.cases.PatientHistory(c.Request.Context(), patientID)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
		return
	}

	critical, err := h.cases.ListCritical(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, critical)
}

// ListCriticalCases handles GET /api/cases/critical.
func (h *Handler) ListCriticalCases(c *gin.Context) {
	critical, err := h.cases.ListCritical(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, critical)
}

type admitRequest struct {
	BedID    string  `json:"bedId" binding:"required"`
	DoctorID *string `json:"doctorId"`
}

// AdmitCase handles POST /api/cases/{id}/admit.
func (h *Handler) AdmitCase(c *gin.Context) {
	var req admitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ec, err := h.cases.Admit(c.Request.Context(), c.Param("id"), req.BedID, req.DoctorID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ec)
}

type transitionRequest struct {
	TargetStatus model.CaseStatus `json:"targetStatus" binding:"required"`
	Diagnosis    string           `json:"diagnosis"`
	Notes        string           `json:"notes"`
}

// TransitionCase handles POST /api/cases/{id}/transition.
func (h *Handler) TransitionCase(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ec, err := h.cases.TransitionTo(c.Request.Context(), c.Param("id"), req.TargetStatus, cases.TransitionFields{
		Diagnosis: req.Diagnosis,
		Notes:     req.Notes,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ec)
}

type updateCaseRequest struct {
	Status      *string           `json:"status"`
	BedID       *string           `json:"bedId"`
	PatientName *string           `json:"patientName"`
	PatientAge  *int              `json:"patientAge"`
	TriageLevel *int              `json:"triageLevel"`
	Diagnosis   *string           `json:"diagnosis"`
	VitalSigns  *model.VitalSigns `json:"vitalSigns"`
	Notes       *string           `json:"notes"`
}

// UpdateCase handles PATCH /api/cases/{id}. Status and bed changes are
// rejected here; they go through the admit/transition operations.
func (h *Handler) UpdateCase(c *gin.Context) {
	var req updateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != nil || req.BedID != nil {
		writeDomainError(c, cases.ErrStatusNotUpdatable)
		return
	}

	ec, err := h.cases.Update(c.Request.Context(), c.Param("id"), cases.UpdateFields{
		PatientName: req.PatientName,
		PatientAge:  req.PatientAge,
		TriageLevel: req.TriageLevel,
		Diagnosis:   req.Diagnosis,
		VitalSigns:  req.VitalSigns,
		Notes:       req.Notes,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ec)
}
