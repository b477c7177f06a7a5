package router

import (
	"github.com/oksasatya/go-user-registry/config"
	appuser "github.com/oksasatya/go-user-registry/internal/application"
	"github.com/oksasatya/go-user-registry/internal/container"
	handlers "github.com/oksasatya/go-user-registry/internal/interface/http"
	"github.com/oksasatya/go-user-registry/internal/interface/middleware"
	"github.com/oksasatya/go-user-registry/internal/router/modules"
)

type UserModuleDeps struct {
	Service *appuser.Service
	Handler *handlers.UserHandler
}

func buildUserDeps(c *container.Container) UserModuleDeps {
	service := appuser.NewService(
		c.Users,
		c.Images,
		c.Logger,
		appuser.Options{
			CleanupOrphanedUploads: c.Config.CleanupOrphanedUploads,
			DeleteReplacedImages:   c.Config.DeleteReplacedImages,
		},
	)
	handler := handlers.NewUserHandler(service, c.Logger, c.Config.ImageMaxBytes)
	return UserModuleDeps{Service: service, Handler: handler}
}

// multipartOverhead is the allowance for form fields and part headers on
// top of the image itself.
const multipartOverhead = 1 << 20

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	// Every /api body is at most one image plus form fields.
	r.Use(middleware.MaxBodyBytes(cfg.ImageMaxBytes + multipartOverhead))

	userDeps := buildUserDeps(c)
	r.Add(modules.NewUserModule(userDeps.Handler, c.Redis, c.Logger, cfg.RegisterRateLimit))

	r.AddRoot(modules.NewHealthModule(handlers.NewHealthHandler(c.DB, c.Logger)))

	if cfg.DebugMetricsEnabled {
		debug := modules.NewDebugModule(c.Redis, c.Logger)
		r.Add(debug)
		r.AddRoot(debug)
	}

	uploadsDir := ""
	if cfg.ImageStore == config.ImageStoreLocal {
		uploadsDir = cfg.UploadsDir
	}
	static := modules.NewStaticModule(cfg.StaticDir, uploadsDir)
	r.AddRoot(static)
	r.Fallback(static.Fallback())
}
