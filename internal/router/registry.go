package router

import "github.com/gin-gonic/gin"

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
	roots       []RootModule
	fallback    gin.HandlerFunc
}

func NewRegistry(engine *gin.Engine) *Registry {
	api := engine.Group("/api")
	return &Registry{Engine: engine, API: api}
}

// Use adds middleware applied to the /api group only.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) AddRoot(mod RootModule) {
	r.roots = append(r.roots, mod)
}

// Fallback sets the handler for requests no module matched.
func (r *Registry) Fallback(h gin.HandlerFunc) {
	r.fallback = h
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
	for _, m := range r.roots {
		m.RegisterRoot(r.Engine)
	}
	if r.fallback != nil {
		r.Engine.NoRoute(r.fallback)
	}
}
