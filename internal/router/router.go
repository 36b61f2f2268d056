package router

import (
	"github.com/gin-gonic/gin"

	"github.com/PrasunaBista/zuzu/internal/handler"
	"github.com/PrasunaBista/zuzu/internal/middleware"
	"github.com/PrasunaBista/zuzu/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware(svc.Config.Server.AllowedOrigins))

	// 健康检查
	r.GET("/health", h.Health.Health)

	// 管理员验证不要求设备头
	r.POST("/api/admin/verify", h.Admin.Verify)

	// 设备级接口
	api := r.Group("/api")
	api.Use(middleware.DeviceMiddleware())
	api.Use(middleware.AdminMiddleware(svc.Auth))
	{
		// 会话管理
		chats := api.Group("/chats")
		{
			chats.POST("", h.Chat.CreateChat)
			chats.GET("", h.Chat.ListChats)
			chats.GET("/:id/messages", h.Chat.GetMessages)
			chats.DELETE("/:id", h.Chat.DeleteChat)
		}

		// 对话
		api.POST("/chat", h.Chat.SendMessage)
		api.POST("/track-category", h.Chat.TrackCategory)

		// 分析
		api.GET("/analytics", h.Analytics.GetAnalytics)

		// 知识检索
		api.GET("/search", h.Search.Search)
	}

	return r
}
