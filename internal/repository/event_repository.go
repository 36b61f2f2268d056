package repository

import (
	"github.com/PrasunaBista/zuzu/internal/model"
	"gorm.io/gorm"
)

// EventRepository 事件数据访问
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓库
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// RecordMessageEvent 记录消息事件
func (r *EventRepository) RecordMessageEvent(event *model.MessageEvent) error {
	return r.db.Create(event).Error
}

// RecordPIIEvent 记录个人信息拦截事件
func (r *EventRepository) RecordPIIEvent(event *model.PIIEvent) error {
	return r.db.Create(event).Error
}
