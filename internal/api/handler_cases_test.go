package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"emergency-ops-backend/config"
	"emergency-ops-backend/internal/beds"
	"emergency-ops-backend/internal/cases"
	"emergency-ops-backend/internal/db"
	"emergency-ops-backend/internal/model"
	"emergency-ops-backend/internal/stats"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	handler := NewHandler(
		gdb,
		cases.NewEngine(gdb, logger, nil, nil),
		stats.NewEngine(gdb, 0),
		&webpush.Options{VAPIDPublicKey: "test-key"},
		logger,
	)
	srvCfg := config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	return NewRouter(handler, &srvCfg), gdb
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateCase_BadTriageLevel(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/cases", `{"triageLevel":9,"chiefComplaint":"dizzy"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "triageLevel", resp["field"])
}

func TestTransition_InvalidIsConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/cases", `{"triageLevel":3,"chiefComplaint":"nausea"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.EmergencyCase
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPost, "/api/cases/"+created.ID+"/transition", `{"targetStatus":"OBSERVATION"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdmit_ConflictOnOccupiedBed(t *testing.T) {
	router, gdb := newTestRouter(t)

	bed, err := beds.Create(gdb, "ER-01", "ER", "")
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/cases", `{"triageLevel":2,"chiefComplaint":"fracture"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var first model.EmergencyCase
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = doJSON(t, router, http.MethodPost, "/api/cases", `{"triageLevel":3,"chiefComplaint":"burn"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var second model.EmergencyCase
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))

	body := fmt.Sprintf(`{"bedId":%q}`, bed.ID)
	w = doJSON(t, router, http.MethodPost, "/api/cases/"+first.ID+"/admit", body)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/cases/"+second.ID+"/admit", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdate_StatusRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/cases", `{"triageLevel":3,"chiefComplaint":"nausea"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.EmergencyCase
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPatch, "/api/cases/"+created.ID, `{"status":"DISCHARGED"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCase_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/cases/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSpecialtyRevenue_BadWindow(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/specialties/revenue?from=nope&to=2026-02-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/specialties/revenue?from=2026-02-01&to=2026-01-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVAPIDPublicKey(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-key")
}
