package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrasunaBista/zuzu/internal/service"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	svc *service.Services
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(svc *service.Services) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// Health 健康检查
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"app":     h.svc.Config.App.Name,
		"version": h.svc.Config.App.Version,
	})
}
