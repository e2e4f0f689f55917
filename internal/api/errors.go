package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"emergency-ops-backend/internal/beds"
	"emergency-ops-backend/internal/cases"
	"emergency-ops-backend/internal/stats"
)

// writeDomainError maps a domain failure to a response. Every error the
// engines can return gets a distinct, deliberate status; nothing is
// swallowed.
func writeDomainError(c *gin.Context, err error) {
	var validation *cases.ValidationError
	var invalidTransition *cases.InvalidTransitionError

	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": validation.Error(),
			"field": validation.Field,
		})
	case errors.Is(err, cases.ErrStatusNotUpdatable):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &invalidTransition):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": invalidTransition.Error(),
			"from":  invalidTransition.From,
			"to":    invalidTransition.To,
		})
	case errors.Is(err, cases.ErrCaseTerminal),
		errors.Is(err, beds.ErrBedUnavailable),
		errors.Is(err, beds.ErrBedOccupied),
		errors.Is(err, beds.ErrBedNotOccupied),
		errors.Is(err, beds.ErrDuplicateBedNumber):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, cases.ErrCaseNotFound), errors.Is(err, beds.ErrBedNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, stats.ErrAggregationTimeout):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
