package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	engine string
	model  string
}

func NewHealthHandler(engine, model string) *HealthHandler {
	return &HealthHandler{engine: engine, model: model}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Healthz reports liveness plus the generation backend in use.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"engine": h.engine,
		"model":  h.model,
	})
}
