package model

import "time"

// MessageEvent 消息事件，按角色和类目记录每条消息，用于统计
type MessageEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID    string    `gorm:"index;size:36" json:"chat_id"`
	DeviceID  string    `gorm:"index;size:64" json:"device_id"`
	Role      string    `gorm:"size:20;index" json:"role"`
	Category  string    `gorm:"size:64;index" json:"category"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// PIIEvent 个人信息拦截事件
type PIIEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID    string    `gorm:"index;size:36" json:"chat_id"`
	DeviceID  string    `gorm:"index;size:64" json:"device_id"`
	PIIType   string    `gorm:"size:32" json:"pii_type"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (MessageEvent) TableName() string {
	return "message_events"
}

func (PIIEvent) TableName() string {
	return "pii_events"
}
