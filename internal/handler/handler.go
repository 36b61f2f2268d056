package handler

import (
	"github.com/PrasunaBista/zuzu/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Chat      *ChatHandler
	Analytics *AnalyticsHandler
	Admin     *AdminHandler
	Search    *SearchHandler
	Health    *HealthHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Chat:      NewChatHandler(svc),
		Analytics: NewAnalyticsHandler(svc),
		Admin:     NewAdminHandler(svc),
		Search:    NewSearchHandler(svc),
		Health:    NewHealthHandler(svc),
	}
}
