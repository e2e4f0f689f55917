package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetDashboard handles GET /api/dashboard.
func (h *Handler) GetDashboard(c *gin.Context) {
	summary, err := h.stats.Summary(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetWardStats handles GET /api/wards/stats?ward=.
func (h *Handler) GetWardStats(c *gin.Context) {
	out, err := h.stats.WardStats(c.Request.Context(), c.Query("ward"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// parseWindowTime accepts RFC3339 timestamps or plain dates.
func parseWindowTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// GetSpecialtyRevenue handles GET /api/specialties/revenue?from=&to=.
// An optional timeout= (seconds) bounds the query; on expiry the caller
// gets a 504 and may simply retry.
func (h *Handler) GetSpecialtyRevenue(c *gin.Context) {
	from, err := parseWindowTime(c.Query("from"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid 'from': use RFC3339 or YYYY-MM-DD"})
		return
	}
	to, err := parseWindowTime(c.Query("to"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid 'to': use RFC3339 or YYYY-MM-DD"})
		return
	}
	if !to.After(from) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "'to' must be after 'from'"})
		return
	}

	ctx := c.Request.Context()
	if timeoutParam := c.Query("timeout"); timeoutParam != "" {
		seconds, err := strconv.Atoi(timeoutParam)
		if err != nil || seconds <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid 'timeout': must be a positive number of seconds"})
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
		defer cancel()
	}

	out, err := h.stats.SpecialtyRevenue(ctx, from, to)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
