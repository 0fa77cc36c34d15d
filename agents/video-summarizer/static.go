package videosummarizer

import (
	"embed"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

//go:embed static/index.html
var staticFiles embed.FS

func (s *Server) index(c *gin.Context) {
	if s.deps.StaticDir != "" {
		c.File(filepath.Join(s.deps.StaticDir, "index.html"))
		return
	}

	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "landing page missing")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
