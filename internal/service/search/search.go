// Package search 提供入学知识库的向量检索
package search

import (
	"context"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// Snippet 检索片段
type Snippet struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Service 知识库检索服务
// 检索器缺失或检索失败时返回空结果，对话流程不依赖检索成功
type Service struct {
	retriever retriever.Retriever
	topK      int
}

// NewService 创建检索服务
func NewService(r retriever.Retriever, topK int) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{retriever: r, topK: topK}
}

// Available 检索器是否可用
func (s *Service) Available() bool {
	return s != nil && s.retriever != nil
}

// Search 按查询检索片段
func (s *Service) Search(ctx context.Context, query string, topK int) []Snippet {
	if !s.Available() || strings.TrimSpace(query) == "" {
		return nil
	}
	if topK <= 0 {
		topK = s.topK
	}

	docs, err := s.retriever.Retrieve(ctx, query, retriever.WithTopK(topK))
	if err != nil {
		log.Printf("search: retrieve %q: %v", query, err)
		return nil
	}

	snippets := make([]Snippet, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			continue
		}
		snippets = append(snippets, Snippet{
			ID:      doc.ID,
			Title:   docTitle(doc),
			Content: doc.Content,
			Score:   doc.Score(),
		})
	}
	return snippets
}

// Context 把检索结果拼成提示词上下文，超长截断
func (s *Service) Context(ctx context.Context, query string, maxChars int) string {
	snippets := s.Search(ctx, query, 0)
	if len(snippets) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, sn := range snippets {
		text := strings.TrimSpace(sn.Content)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		if sn.Title != "" {
			sb.WriteString(sn.Title)
			sb.WriteString(": ")
		}
		sb.WriteString(text)
		if maxChars > 0 && sb.Len() >= maxChars {
			break
		}
	}

	out := sb.String()
	if maxChars > 0 && len(out) > maxChars {
		out = out[:maxChars]
	}
	return out
}

func docTitle(doc *schema.Document) string {
	if doc.MetaData == nil {
		return ""
	}
	if title, ok := doc.MetaData["title"].(string); ok {
		return title
	}
	return ""
}
