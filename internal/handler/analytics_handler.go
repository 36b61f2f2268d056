package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/PrasunaBista/zuzu/internal/middleware"
	"github.com/PrasunaBista/zuzu/internal/service"
)

// AnalyticsHandler 分析处理器
type AnalyticsHandler struct {
	svc *service.Services
}

// NewAnalyticsHandler 创建分析处理器
func NewAnalyticsHandler(svc *service.Services) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// GetAnalytics 获取分析数据
// GET /api/analytics
// 管理员看到全局数据，普通设备只看到自己的
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	deviceID, _ := middleware.GetDeviceID(c)
	if middleware.IsAdmin(c) {
		deviceID = ""
	}

	result, err := h.svc.Analytics.GetAnalytics(c.Request.Context(), deviceID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, result)
}
