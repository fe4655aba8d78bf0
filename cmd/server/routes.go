package main

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"rolegate.backend/internal/interfaces/http/handlers"
	"rolegate.backend/internal/interfaces/http/middleware"
	"rolegate.backend/pkg/jwt"
	"rolegate.backend/pkg/metrics"
)

type routeDeps struct {
	db             *sql.DB
	jwtService     *jwt.Service
	authHandler    *handlers.AuthHandler
	invoiceHandler *handlers.InvoiceHandler
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	r.GET("/health", func(c *gin.Context) {
		status, state, dbState := http.StatusOK, "ok", "up"
		if err := d.db.Ping(); err != nil {
			status, state, dbState = http.StatusServiceUnavailable, "degraded", "down"
		}
		c.JSON(status, gin.H{"status": state, "database": dbState})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", d.authHandler.Login)

		invoices := v1.Group("/invoices")
		invoices.Use(middleware.Auth(d.jwtService))
		{
			invoices.POST("", middleware.Idempotency(), d.invoiceHandler.Create)
			invoices.GET("", d.invoiceHandler.List)
			invoices.GET("/stats", d.invoiceHandler.Stats)
		}
	}
}
