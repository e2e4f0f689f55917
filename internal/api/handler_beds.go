package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"emergency-ops-backend/internal/beds"
	"emergency-ops-backend/internal/model"
)

type createBedRequest struct {
	Number string `json:"number" binding:"required"`
	Ward   string `json:"ward" binding:"required"`
	Notes  string `json:"notes"`
}

// CreateBed handles POST /api/beds (provisioning).
func (h *Handler) CreateBed(c *gin.Context) {
	var req createBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bed, err := beds.Create(h.db.WithContext(c.Request.Context()), req.Number, req.Ward, req.Notes)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bed)
}

// ListBeds handles GET /api/beds?ward=&status=.
func (h *Handler) ListBeds(c *gin.Context) {
	status := model.BedStatus(c.Query("status"))
	switch status {
	case "", model.BedAvailable, model.BedOccupied, model.BedMaintenance:
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	out, err := beds.ListByStatus(h.db.WithContext(c.Request.Context()), c.Query("ward"), status)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetBed handles GET /api/beds/{id}.
func (h *Handler) GetBed(c *gin.Context) {
	bed, err := beds.Get(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bed)
}

type maintenanceRequest struct {
	InMaintenance *bool `json:"inMaintenance" binding:"required"`
}

// SetBedMaintenance handles POST /api/beds/{id}/maintenance.
func (h *Handler) SetBedMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	if err := beds.SetMaintenance(db, c.Param("id"), *req.InMaintenance); err != nil {
		writeDomainError(c, err)
		return
	}

	bed, err := beds.Get(db, c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bed)
}
