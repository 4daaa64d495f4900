package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// StaticHandler serves a built single page app. Unknown GET paths get
// index.html so client side routes survive a reload.
type StaticHandler struct {
	root string
}

func NewStaticHandler(root string) *StaticHandler {
	return &StaticHandler{root: root}
}

func (h *StaticHandler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.Status(http.StatusNotFound)
		return
	}
	rel := filepath.Clean("/" + strings.TrimPrefix(c.Request.URL.Path, "/"))
	p := filepath.Join(h.root, filepath.FromSlash(rel))
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		c.File(p)
		return
	}
	c.File(filepath.Join(h.root, "index.html"))
}
