package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-registry/internal/interface/middleware"
)

type DebugModule struct {
	Redis  *redis.Client
	Logger logrus.FieldLogger
}

func NewDebugModule(rdb *redis.Client, logger logrus.FieldLogger) *DebugModule {
	return &DebugModule{Redis: rdb, Logger: logger}
}

// Register exposes expvar under /api/debug/vars. Public clients are
// rate-limited per IP; private networks bypass the limit.
func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP(), m.Logger)
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}

// RegisterRoot mounts the Prometheus scrape endpoint at /metrics.
func (m *DebugModule) RegisterRoot(engine *gin.Engine) {
	rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP(), m.Logger)
	engine.GET("/metrics", rl, gin.WrapH(promhttp.Handler()))
}
