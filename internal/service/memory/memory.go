// Package memory 提供会话短期记忆
// 最近若干轮对话缓存在 Redis 中，超过阈值的旧内容压缩成摘要
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/PrasunaBista/zuzu/internal/config"
)

const (
	historyKeyPrefix = "chat:history:"
	summaryKeyPrefix = "chat:summary:"
)

const summarizePrompt = "Summarize the following conversation between an international student " +
	"and an onboarding assistant in at most 5 sentences. Keep concrete facts such as dates, " +
	"deadlines, form names and decisions. Do not add new information."

// turnData 单条历史消息的 Redis 存储形式
type turnData struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Manager 会话记忆管理器
// Redis 不可用时所有操作静默退化，不影响主对话流程
type Manager struct {
	redis     *redis.Client
	chatModel model.ChatModel
	cfg       config.MemoryConfig
}

// NewManager 创建记忆管理器
func NewManager(redisClient *redis.Client, chatModel model.ChatModel, cfg config.MemoryConfig) *Manager {
	if cfg.LastTurns <= 0 {
		cfg.LastTurns = 6
	}
	if cfg.SummaryThreshold <= 0 {
		cfg.SummaryThreshold = 8
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24
	}
	return &Manager{
		redis:     redisClient,
		chatModel: chatModel,
		cfg:       cfg,
	}
}

func (m *Manager) ttl() time.Duration {
	return time.Duration(m.cfg.TTL) * time.Hour
}

// Recent 获取最近的历史消息，按时间正序
func (m *Manager) Recent(ctx context.Context, chatID string) []*schema.Message {
	if m.redis == nil {
		return nil
	}

	data, err := m.redis.Get(ctx, historyKeyPrefix+chatID).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("memory: load history for chat %s: %v", chatID, err)
		}
		return nil
	}

	var turns []turnData
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		log.Printf("memory: decode history for chat %s: %v", chatID, err)
		return nil
	}

	messages := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, &schema.Message{
			Role:    roleToSchema(t.Role),
			Content: t.Content,
		})
	}
	return messages
}

// Append 追加一轮消息并裁剪窗口
func (m *Manager) Append(ctx context.Context, chatID, role, content string) {
	if m.redis == nil {
		return
	}

	key := historyKeyPrefix + chatID

	var turns []turnData
	if data, err := m.redis.Get(ctx, key).Result(); err == nil {
		if err := json.Unmarshal([]byte(data), &turns); err != nil {
			turns = nil
		}
	}

	turns = append(turns, turnData{Role: role, Content: content})

	// 窗口按消息数裁剪，一轮等于一问一答
	max := m.cfg.LastTurns * 2
	if len(turns) > max {
		dropped := turns[:len(turns)-max]
		turns = turns[len(turns)-max:]
		if len(dropped)+max >= m.cfg.SummaryThreshold {
			m.summarizeDropped(ctx, chatID, dropped)
		}
	}

	data, err := json.Marshal(turns)
	if err != nil {
		log.Printf("memory: encode history for chat %s: %v", chatID, err)
		return
	}
	if err := m.redis.Set(ctx, key, data, m.ttl()).Err(); err != nil {
		log.Printf("memory: save history for chat %s: %v", chatID, err)
	}
}

// Summary 获取会话摘要，没有则返回空串
func (m *Manager) Summary(ctx context.Context, chatID string) string {
	if m.redis == nil {
		return ""
	}
	summary, err := m.redis.Get(ctx, summaryKeyPrefix+chatID).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("memory: load summary for chat %s: %v", chatID, err)
		}
		return ""
	}
	return summary
}

// Clear 清空会话的历史和摘要
func (m *Manager) Clear(ctx context.Context, chatID string) {
	if m.redis == nil {
		return
	}
	if err := m.redis.Del(ctx, historyKeyPrefix+chatID, summaryKeyPrefix+chatID).Err(); err != nil {
		log.Printf("memory: clear chat %s: %v", chatID, err)
	}
}

// summarizeDropped 把滑出窗口的旧消息并入摘要
func (m *Manager) summarizeDropped(ctx context.Context, chatID string, dropped []turnData) {
	if !m.cfg.Summarize || m.chatModel == nil || len(dropped) == 0 {
		return
	}

	var sb strings.Builder
	if existing := m.Summary(ctx, chatID); existing != "" {
		sb.WriteString("Previous summary:\n")
		sb.WriteString(existing)
		sb.WriteString("\n\nNew messages:\n")
	}
	for _, t := range dropped {
		fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Content)
	}

	resp, err := m.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: summarizePrompt},
		{Role: schema.User, Content: sb.String()},
	})
	if err != nil {
		log.Printf("memory: summarize chat %s: %v", chatID, err)
		return
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return
	}

	if err := m.redis.Set(ctx, summaryKeyPrefix+chatID, resp.Content, m.ttl()).Err(); err != nil {
		log.Printf("memory: save summary for chat %s: %v", chatID, err)
	}
}

func roleToSchema(role string) schema.RoleType {
	switch role {
	case "system":
		return schema.System
	case "assistant":
		return schema.Assistant
	default:
		return schema.User
	}
}
