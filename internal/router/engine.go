package router

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-registry/internal/container"
	"github.com/oksasatya/go-user-registry/internal/interface/middleware"
)

// NewEngine builds the Gin engine with global middleware and every module
// registered.
func NewEngine(c *container.Container) (*gin.Engine, error) {
	cfg := c.Config

	r := gin.New()
	if err := middleware.TrustProxies(r, cfg.TrustedProxyList()); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	if cfg.AccessLogEnabled() {
		r.Use(middleware.AccessLog(c.Logger))
	}
	if cfg.DebugMetricsEnabled {
		r.Use(middleware.Metrics())
	}

	// CORS: no configured origins means any origin, as a public form would need.
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	} else {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	reg := NewRegistry(r)
	InitModules(reg, c)
	reg.RegisterAll()
	return r, nil
}
