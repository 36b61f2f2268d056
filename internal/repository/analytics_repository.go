package repository

import (
	"time"

	"github.com/PrasunaBista/zuzu/internal/model"
	"gorm.io/gorm"
)

// AnalyticsRepository 分析用的计数查询
// 纯分组计数，与一致性引擎相互独立
type AnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建分析仓库
func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CategoryCount 类目计数
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// DayCount 按天计数
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Totals 基础汇总
type Totals struct {
	Chats      int64 `json:"chats"`
	Users      int64 `json:"users"`
	PIIFlags   int64 `json:"pii_flags"`
	PIIDevices int64 `json:"pii_devices"`
}

// CountChats 会话总数；deviceID 为空表示全局
func (r *AnalyticsRepository) CountChats(deviceID string) (int64, error) {
	var count int64
	query := r.db.Model(&model.Chat{})
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}
	err := query.Count(&count).Error
	return count, err
}

// CountDevices 出现过会话的设备总数
func (r *AnalyticsRepository) CountDevices() (int64, error) {
	var count int64
	err := r.db.Model(&model.Chat{}).Distinct("device_id").Count(&count).Error
	return count, err
}

// CountPIIFlags 个人信息拦截次数；deviceID 为空表示全局
func (r *AnalyticsRepository) CountPIIFlags(deviceID string) (int64, error) {
	var count int64
	query := r.db.Model(&model.PIIEvent{})
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}
	err := query.Count(&count).Error
	return count, err
}

// CountPIIDevices 触发过拦截的设备数
func (r *AnalyticsRepository) CountPIIDevices() (int64, error) {
	var count int64
	err := r.db.Model(&model.PIIEvent{}).Distinct("device_id").Count(&count).Error
	return count, err
}

// TopCategories 用户消息的类目分布，按数量降序
func (r *AnalyticsRepository) TopCategories(deviceID string) ([]CategoryCount, error) {
	var rows []CategoryCount
	query := r.db.Model(&model.MessageEvent{}).
		Select("category, COUNT(*) AS count").
		Where("role = ?", "user")
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}
	err := query.Group("category").Order("count DESC").Scan(&rows).Error
	return rows, err
}

// DailyUsage 最近 days 天的用户消息数，按天分组
func (r *AnalyticsRepository) DailyUsage(deviceID string, days int) ([]DayCount, error) {
	since := time.Now().AddDate(0, 0, -days)

	var rows []DayCount
	query := r.db.Model(&model.MessageEvent{}).
		Select("TO_CHAR(created_at::date, 'YYYY-MM-DD') AS date, COUNT(*) AS count").
		Where("role = ?", "user").
		Where("created_at >= ?", since)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}
	err := query.Group("date").Order("date").Scan(&rows).Error
	return rows, err
}

// RecentChatIDs 最近活跃的会话ID，最多 limit 条
func (r *AnalyticsRepository) RecentChatIDs(deviceID string, limit int) ([]string, error) {
	var ids []string
	query := r.db.Model(&model.Chat{}).
		Order("updated_at DESC").
		Limit(limit)
	if deviceID != "" {
		query = query.Where("device_id = ?", deviceID)
	}
	err := query.Pluck("id", &ids).Error
	return ids, err
}
