package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"emergency-ops-backend/internal/cases"
	"emergency-ops-backend/internal/stats"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	db      *gorm.DB
	cases   *cases.Engine
	stats   *stats.Engine
	webpush *webpush.Options
	logger  *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(db *gorm.DB, caseEngine *cases.Engine, statsEngine *stats.Engine, webpushOptions *webpush.Options, logger *zap.Logger) *Handler {
	return &Handler{
		db:      db,
		cases:   caseEngine,
		stats:   statsEngine,
		webpush: webpushOptions,
		logger:  logger,
	}
}
