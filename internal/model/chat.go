package model

import "time"

// Chat 会话
type Chat struct {
	ID        string    `gorm:"primaryKey;size:36" json:"chat_id"`
	DeviceID  string    `gorm:"index;size:64" json:"device_id"`
	Title     string    `gorm:"size:255" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updated_at"`
	Messages  []Message `gorm:"foreignKey:ChatID" json:"-"`
}

// Message 会话消息
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ChatID    string    `gorm:"index;size:36" json:"chat_id"`
	Role      string    `gorm:"size:20;index" json:"role"` // user, assistant
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (Chat) TableName() string {
	return "chats"
}

func (Message) TableName() string {
	return "messages"
}
