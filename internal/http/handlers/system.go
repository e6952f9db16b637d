package handlers

import (
	"context"
	"net/http"
	"time"

	"rideshare/internal/repositories"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "rideshare backend running"})
}

func (h *Handler) DBCheck(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unreachable: " + err.Error()})
		return
	}
	if checker, ok := h.Store.(repositories.SchemaChecker); ok {
		if missing := checker.MissingTables(ctx); len(missing) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "schema incomplete", "missing_tables": missing})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "store connection OK"})
}

func (h *Handler) Routes(c *gin.Context) {
	if h.Engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}
	routes := h.Engine.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{"method": rt.Method, "path": rt.Path})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
