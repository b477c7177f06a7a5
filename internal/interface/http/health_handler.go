package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	pginfra "github.com/oksasatya/go-user-registry/internal/infrastructure/postgres"
)

type HealthHandler struct {
	DB     pginfra.Pinger
	Logger logrus.FieldLogger
}

func NewHealthHandler(db pginfra.Pinger, logger logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{DB: db, Logger: logger}
}

// Check reports 200 when Postgres answers a ping within two seconds.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		h.Logger.WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
