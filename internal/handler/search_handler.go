package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PrasunaBista/zuzu/internal/service"
)

// SearchHandler 知识检索处理器
type SearchHandler struct {
	svc *service.Services
}

// NewSearchHandler 创建检索处理器
func NewSearchHandler(svc *service.Services) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search 检索知识片段
// GET /api/search?q=...&top_k=...
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, "Missing query parameter q")
		return
	}

	topK, _ := strconv.Atoi(c.DefaultQuery("top_k", "0"))

	snippets := h.svc.Search.Search(c.Request.Context(), query, topK)
	success(c, gin.H{
		"query":   query,
		"results": snippets,
	})
}
