package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/PrasunaBista/zuzu/internal/service"
	"github.com/PrasunaBista/zuzu/internal/service/auth"
)

// AdminHandler 管理员处理器
type AdminHandler struct {
	svc *service.Services
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(svc *service.Services) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// VerifyRequest 管理员验证请求
type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// Verify 校验管理员访问码并签发令牌
// POST /api/admin/verify
func (h *AdminHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.svc.Auth.VerifyCode(ctx, req.Code); err != nil {
		if errors.Is(err, auth.ErrInvalidCode) {
			unauthorized(c, "Invalid admin code")
			return
		}
		errorResponse(c, err)
		return
	}

	token, expiresAt, err := h.svc.Auth.IssueToken(ctx)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	})
}
