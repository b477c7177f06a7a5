package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-user-registry/internal/interface/http"
)

// HealthModule mounts GET /healthz outside the /api group.
type HealthModule struct {
	Handler *handlers.HealthHandler
}

func NewHealthModule(h *handlers.HealthHandler) *HealthModule {
	return &HealthModule{Handler: h}
}

func (m *HealthModule) RegisterRoot(engine *gin.Engine) {
	engine.GET("/healthz", m.Handler.Check)
	engine.HEAD("/healthz", m.Handler.Check)
}
