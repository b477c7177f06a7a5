package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/go-user-registry/internal/interface/http"
	"github.com/oksasatya/go-user-registry/internal/interface/middleware"
)

// UserModule wires the user CRUD routes:
// POST /api/registro
// GET /api/usuarios, GET|PUT|DELETE /api/usuarios/:id
type UserModule struct {
	Handler *handlers.UserHandler
	Redis   *redis.Client
	Logger  logrus.FieldLogger
	// RegisterPerMinute limits registrations per client IP; 0 disables.
	RegisterPerMinute int
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, logger logrus.FieldLogger, registerPerMinute int) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, Logger: logger, RegisterPerMinute: registerPerMinute}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(m.Redis, m.RegisterPerMinute, time.Minute, middleware.KeyByIPAndPath(), nil, m.Logger)

	rg.POST("/registro", registerLimiter, m.Handler.Register)

	users := rg.Group("/usuarios")
	{
		users.GET("", m.Handler.List)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
	}
}
