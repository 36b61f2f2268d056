package repository

import (
	"errors"

	"github.com/PrasunaBista/zuzu/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository 会话数据访问
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建会话仓库
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateChat 创建会话
func (r *ChatRepository) CreateChat(chat *model.Chat) error {
	return r.db.Create(chat).Error
}

// EnsureChat 确保会话存在并归属于指定设备（不存在则创建）
func (r *ChatRepository) EnsureChat(chatID, deviceID string) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Chat{
		ID:       chatID,
		DeviceID: deviceID,
		Title:    "New Conversation",
	}).Error
}

// GetChatByID 获取会话
func (r *ChatRepository) GetChatByID(id string) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.Where("id = ?", id).First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// BelongsToDevice 会话是否属于指定设备
func (r *ChatRepository) BelongsToDevice(chatID, deviceID string) (bool, error) {
	var chat model.Chat
	err := r.db.Select("id").Where("id = ? AND device_id = ?", chatID, deviceID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListChats 列出设备的会话，最近更新在前
func (r *ChatRepository) ListChats(deviceID string, offset, limit int) ([]*model.Chat, error) {
	var chats []*model.Chat
	err := r.db.Where("device_id = ?", deviceID).
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&chats).Error
	return chats, err
}

// TouchChat 更新会话活跃时间
func (r *ChatRepository) TouchChat(chatID string) error {
	return r.db.Model(&model.Chat{}).Where("id = ?", chatID).
		Update("updated_at", gorm.Expr("now()")).Error
}

// DeleteChat 删除会话及其消息
func (r *ChatRepository) DeleteChat(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Message{}, "chat_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.MessageEvent{}, "chat_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Chat{}, "id = ?", id).Error
	})
}

// AppendMessage 追加消息
func (r *ChatRepository) AppendMessage(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// GetMessages 获取会话的全部消息，按时间升序
// 会话不存在时返回空列表而不是错误
func (r *ChatRepository) GetMessages(chatID string) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("chat_id = ?", chatID).Order("created_at ASC").Find(&messages).Error
	return messages, err
}

// GetRecentMessages 获取会话最近的 N 条消息，按时间升序返回
func (r *ChatRepository) GetRecentMessages(chatID string, limit int) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// 反转为时间升序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
