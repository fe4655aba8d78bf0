package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rolegate.backend/internal/infrastructure/repositories"
	"rolegate.backend/internal/interfaces/http/handlers"
	"rolegate.backend/internal/usecases"
	"rolegate.backend/pkg/jwt"
	"rolegate.backend/pkg/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *jwt.Service) {
	gin.SetMode(gin.TestMode)
	logger.Init("development")

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS pending_invoices (
		payment_hash TEXT PRIMARY KEY,
		requester_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`).Error)

	repo := repositories.NewPendingInvoiceRepository(db)
	uc := usecases.NewInvoiceUsecase(repo, nil, nil, "c1")
	jwtService := jwt.NewService("test-secret", time.Hour)

	r := gin.New()
	registerRoutes(r, routeDeps{
		db:             sqlDB,
		jwtService:     jwtService,
		authHandler:    handlers.NewAuthHandler(jwtService, ""),
		invoiceHandler: handlers.NewInvoiceHandler(uc, 1000, "access pass"),
	})
	return r, jwtService
}

func TestHealthRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)
}

func TestMetricsRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvoiceRoutesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvoiceListWithToken(t *testing.T) {
	r, svc := newTestRouter(t)

	token, err := svc.Generate("admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
