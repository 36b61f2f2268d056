package analytics

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/PrasunaBista/zuzu/internal/config"
	"github.com/PrasunaBista/zuzu/internal/repository"
	"github.com/PrasunaBista/zuzu/internal/service/category"
)

// Response 分析接口的完整返回
// 基础计数来自数据库分组查询，一致性得分来自向量计算，两者在此合并
type Response struct {
	Totals                repository.Totals          `json:"totals"`
	TopCategories         []repository.CategoryCount `json:"top_categories"`
	ByDay                 []repository.DayCount      `json:"by_day"`
	ConsistencyScore      float64                    `json:"consistencyScore"`
	ConsistencyByCategory map[string]float64         `json:"consistencyByCategory"`
}

// Service 分析服务
type Service struct {
	repo   *repository.Repositories
	engine *Engine
	cfg    config.AnalyticsConfig
}

// NewService 创建分析服务
func NewService(repo *repository.Repositories, embedder embedding.Embedder, cfg config.AnalyticsConfig) *Service {
	return &Service{
		repo:   repo,
		engine: NewEngine(repo.Chat, embedder, cfg),
		cfg:    cfg,
	}
}

// GetAnalytics 计算分析数据；deviceID 为空表示全局（管理员）视角
func (s *Service) GetAnalytics(ctx context.Context, deviceID string) (*Response, error) {
	totals, err := s.fetchTotals(deviceID)
	if err != nil {
		return nil, err
	}

	topCategories, err := s.repo.Analytics.TopCategories(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	for i := range topCategories {
		if topCategories[i].Category == "" {
			topCategories[i].Category = category.Fallback
		}
	}

	byDay, err := s.repo.Analytics.DailyUsage(deviceID, 7)
	if err != nil {
		return nil, fmt.Errorf("failed to count daily usage: %w", err)
	}

	chatIDs, err := s.repo.Analytics.RecentChatIDs(deviceID, s.cfg.RecentChatLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent chats: %w", err)
	}

	consistency := s.engine.ComputeConsistency(ctx, chatIDs)

	return &Response{
		Totals:                totals,
		TopCategories:         topCategories,
		ByDay:                 byDay,
		ConsistencyScore:      consistency.Score,
		ConsistencyByCategory: consistency.ByCategory,
	}, nil
}

// fetchTotals 基础汇总计数
func (s *Service) fetchTotals(deviceID string) (repository.Totals, error) {
	var totals repository.Totals
	var err error

	totals.Chats, err = s.repo.Analytics.CountChats(deviceID)
	if err != nil {
		return totals, fmt.Errorf("failed to count chats: %w", err)
	}

	// 设备总数始终是全局口径
	totals.Users, err = s.repo.Analytics.CountDevices()
	if err != nil {
		return totals, fmt.Errorf("failed to count devices: %w", err)
	}

	totals.PIIFlags, err = s.repo.Analytics.CountPIIFlags(deviceID)
	if err != nil {
		return totals, fmt.Errorf("failed to count pii flags: %w", err)
	}

	if deviceID != "" {
		// 单设备视角：只区分触发过/没触发过
		if totals.PIIFlags > 0 {
			totals.PIIDevices = 1
		}
		return totals, nil
	}

	totals.PIIDevices, err = s.repo.Analytics.CountPIIDevices()
	if err != nil {
		return totals, fmt.Errorf("failed to count pii devices: %w", err)
	}
	return totals, nil
}
