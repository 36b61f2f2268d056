// Package chat 提供对话编排
// 一次对话依次经过个人信息检查、落库、记忆装配、知识检索和模型生成
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/PrasunaBista/zuzu/internal/config"
	appmodel "github.com/PrasunaBista/zuzu/internal/model"
	"github.com/PrasunaBista/zuzu/internal/service/category"
	"github.com/PrasunaBista/zuzu/internal/service/memory"
	"github.com/PrasunaBista/zuzu/internal/service/pii"
	"github.com/PrasunaBista/zuzu/internal/service/search"
)

var (
	// ErrEmptyMessage 消息为空
	ErrEmptyMessage = errors.New("empty message")
	// ErrChatNotFound 会话不存在或不属于该设备
	ErrChatNotFound = errors.New("chat not found or does not belong to this device")
	// ErrModelUnavailable 对话模型未配置
	ErrModelUnavailable = errors.New("chat model not configured")
)

const systemPrompt = `You are ZUZU, a friendly and knowledgeable assistant helping international students navigate their onboarding at Wright State University. Your mission is to make the transition smooth, welcoming, and stress-free.

Be patient and supportive. Never assume prior knowledge of U.S. university systems or cultural norms. Cover housing, admissions, visas and immigration, travel and arrival, forms, money and banking, campus life, health and safety, phones and connectivity, work, and daily life around campus. When you are not sure, say so and point the student to the right university office instead of guessing.`

const piiRefusal = "Oops, this message looks like it includes personal details " +
	"such as your full name, address, phone number, or ID number.\n\n" +
	"For your safety, I can't use or store that kind of information, " +
	"so this message wasn't saved or sent anywhere.\n\n" +
	"Please ask your question again without any personal details. " +
	"For example, you can say \"a student like me\" instead of your " +
	"real name or exact information."

const contextMaxChars = 4000

// ChatStore 会话存储接口，便于测试
type ChatStore interface {
	CreateChat(chat *appmodel.Chat) error
	EnsureChat(chatID, deviceID string) error
	BelongsToDevice(chatID, deviceID string) (bool, error)
	ListChats(deviceID string, offset, limit int) ([]*appmodel.Chat, error)
	TouchChat(chatID string) error
	DeleteChat(id string) error
	AppendMessage(msg *appmodel.Message) error
	GetMessages(chatID string) ([]*appmodel.Message, error)
	GetRecentMessages(chatID string, limit int) ([]*appmodel.Message, error)
}

// EventStore 事件存储接口
type EventStore interface {
	RecordMessageEvent(event *appmodel.MessageEvent) error
	RecordPIIEvent(event *appmodel.PIIEvent) error
}

// Service 对话服务
type Service struct {
	chats     ChatStore
	events    EventStore
	chatModel model.ChatModel
	memory    *memory.Manager
	search    *search.Service
	cfg       config.MemoryConfig

	// 可替换的检查与分类函数
	containsPII func(string) bool
	classify    func(string) string
}

// NewService 创建对话服务
func NewService(chats ChatStore, events EventStore, chatModel model.ChatModel, mem *memory.Manager, searchSvc *search.Service, cfg config.MemoryConfig) *Service {
	if cfg.LastTurns <= 0 {
		cfg.LastTurns = 6
	}
	return &Service{
		chats:       chats,
		events:      events,
		chatModel:   chatModel,
		memory:      mem,
		search:      searchSvc,
		cfg:         cfg,
		containsPII: pii.ContainsPII,
		classify:    category.Classify,
	}
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	ChatID  string `json:"chat_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// Reply 对话回复
type Reply struct {
	ChatID     string           `json:"chat_id"`
	Reply      string           `json:"reply"`
	Sources    []search.Snippet `json:"sources,omitempty"`
	PIIBlocked bool             `json:"pii_blocked,omitempty"`
	Warning    string           `json:"warning,omitempty"`
}

// SendMessage 处理一轮对话
func (s *Service) SendMessage(ctx context.Context, deviceID string, req *SendMessageRequest) (*Reply, error) {
	userMsg := strings.TrimSpace(req.Message)
	if userMsg == "" {
		return nil, ErrEmptyMessage
	}
	if s.chatModel == nil {
		return nil, ErrModelUnavailable
	}
	chatID := req.ChatID

	if err := s.chats.EnsureChat(chatID, deviceID); err != nil {
		return nil, fmt.Errorf("failed to ensure chat: %w", err)
	}

	// 含个人信息的消息不落库也不发给模型
	if s.containsPII(userMsg) {
		if err := s.events.RecordPIIEvent(&appmodel.PIIEvent{
			ChatID:   chatID,
			DeviceID: deviceID,
			PIIType:  "generic",
		}); err != nil {
			log.Printf("chat: record pii event for chat %s: %v", chatID, err)
		}
		return &Reply{
			ChatID:     chatID,
			Reply:      piiRefusal,
			PIIBlocked: true,
			Warning:    "Personal information detected. Message ignored for your safety.",
		}, nil
	}

	if err := s.persistTurn(chatID, deviceID, "user", userMsg); err != nil {
		return nil, err
	}

	snippets := s.retrieveSnippets(ctx, userMsg)
	prompt := s.buildPrompt(ctx, chatID, userMsg, formatContext(snippets))

	resp, err := s.chatModel.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}
	reply := resp.Content

	if err := s.persistTurn(chatID, deviceID, "assistant", reply); err != nil {
		return nil, err
	}

	if s.memory != nil {
		s.memory.Append(ctx, chatID, "user", userMsg)
		s.memory.Append(ctx, chatID, "assistant", reply)
	}

	return &Reply{
		ChatID:  chatID,
		Reply:   reply,
		Sources: snippets,
	}, nil
}

// persistTurn 落库一条消息并记录事件
func (s *Service) persistTurn(chatID, deviceID, role, content string) error {
	if err := s.chats.AppendMessage(&appmodel.Message{
		ID:      uuid.New().String(),
		ChatID:  chatID,
		Role:    role,
		Content: content,
	}); err != nil {
		return fmt.Errorf("failed to store %s message: %w", role, err)
	}

	if err := s.events.RecordMessageEvent(&appmodel.MessageEvent{
		ChatID:   chatID,
		DeviceID: deviceID,
		Role:     role,
		Category: s.classify(content),
	}); err != nil {
		log.Printf("chat: record message event for chat %s: %v", chatID, err)
	}
	if err := s.chats.TouchChat(chatID); err != nil {
		log.Printf("chat: touch chat %s: %v", chatID, err)
	}
	return nil
}

// buildPrompt 装配提示词，末尾固定是本轮用户消息
func (s *Service) buildPrompt(ctx context.Context, chatID, userMsg, contextBlock string) []*schema.Message {
	prompt := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
	}

	var recent []*schema.Message
	var summary string
	if s.memory != nil {
		recent = s.memory.Recent(ctx, chatID)
		summary = s.memory.Summary(ctx, chatID)
	}
	if len(recent) == 0 {
		recent = s.recentFromStore(chatID)
		// 本轮用户消息已落库，避免在历史里重复出现
		if n := len(recent); n > 0 && recent[n-1].Role == schema.User && recent[n-1].Content == userMsg {
			recent = recent[:n-1]
		}
	}

	if summary != "" {
		prompt = append(prompt, &schema.Message{
			Role:    schema.System,
			Content: "Conversation so far (summary for context):\n" + summary,
		})
	}
	if contextBlock != "" {
		prompt = append(prompt, &schema.Message{
			Role: schema.System,
			Content: "Here are ZUZU knowledge snippets that might be relevant. " +
				"Use them when helpful, and cite the source in your answer when you use one.\n\n" + contextBlock,
		})
	}
	prompt = append(prompt, recent...)
	prompt = append(prompt, &schema.Message{Role: schema.User, Content: userMsg})
	return prompt
}

// recentFromStore 记忆缓存未命中时从数据库取最近几轮
func (s *Service) recentFromStore(chatID string) []*schema.Message {
	messages, err := s.chats.GetRecentMessages(chatID, s.cfg.LastTurns*2)
	if err != nil {
		log.Printf("chat: load recent messages for chat %s: %v", chatID, err)
		return nil
	}

	recent := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		role := schema.User
		if m.Role == "assistant" {
			role = schema.Assistant
		}
		recent = append(recent, &schema.Message{Role: role, Content: m.Content})
	}
	return recent
}

func (s *Service) retrieveSnippets(ctx context.Context, query string) []search.Snippet {
	if s.search == nil || !s.search.Available() {
		return nil
	}
	return s.search.Search(ctx, query, 0)
}

func formatContext(snippets []search.Snippet) string {
	if len(snippets) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, sn := range snippets {
		line := strings.TrimSpace(sn.Content)
		if line == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		if sn.Title != "" {
			fmt.Fprintf(&sb, "[%s] %s", sn.Title, line)
		} else {
			sb.WriteString(line)
		}
		if sb.Len() >= contextMaxChars {
			break
		}
	}
	out := sb.String()
	if len(out) > contextMaxChars {
		out = out[:contextMaxChars]
	}
	return out
}

// TrackCategoryRequest 类目打点请求
type TrackCategoryRequest struct {
	ChatID      string `json:"chat_id" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Subcategory string `json:"subcategory"`
	Detail      string `json:"detail"`
}

// TrackCategory 记录一次类目选择，不产生可见消息
func (s *Service) TrackCategory(ctx context.Context, deviceID string, req *TrackCategoryRequest) error {
	cat := strings.TrimSpace(req.Category)
	if cat == "" {
		cat = category.Fallback
	}

	if err := s.events.RecordMessageEvent(&appmodel.MessageEvent{
		ChatID:   req.ChatID,
		DeviceID: deviceID,
		Role:     "user",
		Category: cat,
	}); err != nil {
		return fmt.Errorf("failed to record category event: %w", err)
	}
	if err := s.chats.TouchChat(req.ChatID); err != nil {
		log.Printf("chat: touch chat %s: %v", req.ChatID, err)
	}
	return nil
}

// ========== 会话管理 ==========

// CreateChatRequest 创建会话请求
type CreateChatRequest struct {
	Title string `json:"title"`
}

// CreateChat 创建会话
func (s *Service) CreateChat(ctx context.Context, deviceID string, req *CreateChatRequest) (*appmodel.Chat, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New Conversation"
	}

	chat := &appmodel.Chat{
		ID:       uuid.New().String(),
		DeviceID: deviceID,
		Title:    title,
	}
	if err := s.chats.CreateChat(chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// ListChats 列出设备的会话
func (s *Service) ListChats(ctx context.Context, deviceID string, page, size int) ([]*appmodel.Chat, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 50
	}

	chats, err := s.chats.ListChats(deviceID, (page-1)*size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}

// GetMessages 获取会话消息，校验归属
func (s *Service) GetMessages(ctx context.Context, deviceID, chatID string) ([]*appmodel.Message, error) {
	owned, err := s.chats.BelongsToDevice(chatID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check chat ownership: %w", err)
	}
	if !owned {
		return nil, ErrChatNotFound
	}
	return s.chats.GetMessages(chatID)
}

// DeleteChat 删除会话，校验归属
func (s *Service) DeleteChat(ctx context.Context, deviceID, chatID string) error {
	owned, err := s.chats.BelongsToDevice(chatID, deviceID)
	if err != nil {
		return fmt.Errorf("failed to check chat ownership: %w", err)
	}
	if !owned {
		return ErrChatNotFound
	}

	if s.memory != nil {
		s.memory.Clear(ctx, chatID)
	}
	return s.chats.DeleteChat(chatID)
}
