package modules

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-registry/pkg/response"
)

// StaticModule serves the browser UI and locally stored uploads.
type StaticModule struct {
	Dir        string // UI root containing index.html
	UploadsDir string // empty when images live in GCS
}

func NewStaticModule(dir, uploadsDir string) *StaticModule {
	return &StaticModule{Dir: dir, UploadsDir: uploadsDir}
}

func (m *StaticModule) RegisterRoot(engine *gin.Engine) {
	if m.UploadsDir != "" {
		engine.Static("/uploads", m.UploadsDir)
	}
}

// Fallback handles unmatched routes: JSON 404 under /api, otherwise the
// requested UI asset or index.html for client-side routing.
func (m *StaticModule) Fallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == "/api" || strings.HasPrefix(p, "/api/") {
			response.Error(c, http.StatusNotFound, "Ruta no encontrada", nil)
			return
		}
		if m.Dir == "" || strings.HasPrefix(p, "/uploads/") ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			response.Error(c, http.StatusNotFound, "Ruta no encontrada", nil)
			return
		}

		asset := filepath.Join(m.Dir, filepath.FromSlash(path.Clean("/"+p)))
		if fi, err := os.Stat(asset); err == nil && !fi.IsDir() {
			c.File(asset)
			return
		}
		index := filepath.Join(m.Dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			response.Error(c, http.StatusNotFound, "Ruta no encontrada", nil)
			return
		}
		c.File(index)
	}
}
