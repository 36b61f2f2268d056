package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/PrasunaBista/zuzu/internal/middleware"
	"github.com/PrasunaBista/zuzu/internal/service"
	"github.com/PrasunaBista/zuzu/internal/service/chat"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建对话处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// SendMessage 处理一轮对话
// POST /api/chat
func (h *ChatHandler) SendMessage(c *gin.Context) {
	deviceID, _ := middleware.GetDeviceID(c)

	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	reply, err := h.svc.Chat.SendMessage(c.Request.Context(), deviceID, &req)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			badRequest(c, "Empty message")
			return
		}
		errorResponse(c, err)
		return
	}

	success(c, reply)
}

// TrackCategory 记录类目选择
// POST /api/track-category
func (h *ChatHandler) TrackCategory(c *gin.Context) {
	deviceID, _ := middleware.GetDeviceID(c)

	var req chat.TrackCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.svc.Chat.TrackCategory(c.Request.Context(), deviceID, &req); err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"ok": true})
}

// CreateChat 创建会话
// POST /api/chats
func (h *ChatHandler) CreateChat(c *gin.Context) {
	deviceID, _ := middleware.GetDeviceID(c)

	// 空请求体也允许，使用默认标题
	var req chat.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = chat.CreateChatRequest{}
	}

	newChat, err := h.svc.Chat.CreateChat(c.Request.Context(), deviceID, &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, newChat)
}

// ListChats 列出设备的会话
// GET /api/chats
func (h *ChatHandler) ListChats(c *gin.Context) {
	deviceID, _ := middleware.GetDeviceID(c)
	page, size := getPagination(c)

	chats, err := h.svc.Chat.ListChats(c.Request.Context(), deviceID, page, size)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, chats)
}

// GetMessages 获取会话消息
// GET /api/chats/:id/messages
func (h *ChatHandler) GetMessages(c *gin.Context) {
	deviceID, _ := middleware.GetDeviceID(c)
	chatID := c.Param("id")

	messages, err := h.svc.Chat.GetMessages(c.Request.Context(), deviceID, chatID)
	if err != nil {
		if errors.Is(err, chat.ErrChatNotFound) {
			notFound(c, "Chat not found or does not belong to this device")
			return
		}
		errorResponse(c, err)
		return
	}

	success(c, messages)
}

// DeleteChat 删除会话
// DELETE /api/chats/:id
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	deviceID, _ := middleware.GetDeviceID(c)
	chatID := c.Param("id")

	if err := h.svc.Chat.DeleteChat(c.Request.Context(), deviceID, chatID); err != nil {
		if errors.Is(err, chat.ErrChatNotFound) {
			notFound(c, "Chat not found or does not belong to this device")
			return
		}
		errorResponse(c, err)
		return
	}

	success(c, gin.H{"ok": true})
}
