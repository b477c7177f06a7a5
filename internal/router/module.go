package router

import "github.com/gin-gonic/gin"

// Module registers routes under the /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// RootModule registers routes on the engine itself, outside /api
// (health checks, static files, scrape endpoints).
type RootModule interface {
	RegisterRoot(engine *gin.Engine)
}
