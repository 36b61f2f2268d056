// Package analytics 提供分析服务
// 核心是回答一致性引擎：找出被重复提问的问题，
// 对其历史回答做向量相似度计算，得出全局与分类目的一致性得分
package analytics

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"golang.org/x/sync/semaphore"

	"github.com/PrasunaBista/zuzu/internal/config"
	"github.com/PrasunaBista/zuzu/internal/model"
	"github.com/PrasunaBista/zuzu/internal/service/category"
	"github.com/PrasunaBista/zuzu/internal/service/pii"
)

// MessageSource 消息来源
// 会话不存在时返回空列表而不是错误
type MessageSource interface {
	GetMessages(chatID string) ([]*model.Message, error)
}

// Engine 回答一致性引擎
// 每次计算的状态都是调用内局部的，可被多个请求并发使用；
// 唯一共享的资源是向量化并发闸和 embedder 客户端
type Engine struct {
	source   MessageSource
	embedder embedding.Embedder
	classify func(string) string
	mask     func(string) string
	sem      *semaphore.Weighted
	cfg      config.AnalyticsConfig
}

// NewEngine 创建一致性引擎
func NewEngine(source MessageSource, embedder embedding.Embedder, cfg config.AnalyticsConfig) *Engine {
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = 8
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 15
	}
	if cfg.AnswerMaxLen <= 0 {
		cfg.AnswerMaxLen = 2000
	}
	if cfg.QuestionKeyLen <= 0 {
		cfg.QuestionKeyLen = 200
	}

	return &Engine{
		source:   source,
		embedder: embedder,
		classify: category.Classify,
		mask:     pii.Mask,
		sem:      semaphore.NewWeighted(int64(cfg.EmbedConcurrency)),
		cfg:      cfg,
	}
}

// ConsistencyResult 一致性计算结果
// 计数字段用于观测：向量服务整体不可用时得分会退回默认值 100，
// 单看分数与"回答真的一致"无法区分，必须配合 EmbedFailed/ScoredGroups 判断
type ConsistencyResult struct {
	Score      float64            `json:"consistencyScore"`
	ByCategory map[string]float64 `json:"consistencyByCategory"`

	GroupCount   int `json:"-"` // 被问过 2 次以上的问题组数
	ScoredGroups int `json:"-"` // 实际产生相似度样本的组数
	EmbedOK      int `json:"-"` // 向量化成功条数
	EmbedFailed  int `json:"-"` // 向量化失败条数（含超时与空文本）
	SourceErrors int `json:"-"` // 消息拉取失败的会话数
}

// ComputeConsistency 计算给定会话集合的回答一致性
// 输入数据问题（空集合、空会话、只问过一次的问题）一律按定义返回默认值，
// 不作为错误上抛；向量化失败按条目吸收，只体现为样本数减少
func (e *Engine) ComputeConsistency(ctx context.Context, chatIDs []string) *ConsistencyResult {
	result := &ConsistencyResult{
		Score:      100.0,
		ByCategory: defaultCategoryScores(),
	}

	// 汇总全部会话的问答对
	var pairs []QAPair
	for _, chatID := range chatIDs {
		messages, err := e.source.GetMessages(chatID)
		if err != nil {
			result.SourceErrors++
			log.Printf("consistency: failed to load chat %s: %v", chatID, err)
			continue
		}
		pairs = append(pairs, ExtractPairs(messages, e.classify)...)
	}

	groups := ScoreableGroups(GroupPairs(pairs, e.cfg.QuestionKeyLen))
	result.GroupCount = len(groups)
	if len(groups) == 0 {
		return result
	}

	vectors := e.embedGroups(ctx, groups, result)

	// 逐组计算平均两两余弦相似度
	var allSims []float64
	perCatSims := make(map[string][]float64)

	for i, g := range groups {
		sim, ok := groupSimilarity(vectors[i])
		if !ok {
			// 成功向量化的条目不足 2 条，或全部两两配对都退化，等同单次提问
			continue
		}

		// 组的归属类目取首条问答的类目；分类器对同一问题
		// 的不同出现给出不同类目时也不拆组
		cat := g.Items[0].Category
		if cat == "" {
			cat = category.Fallback
		}

		allSims = append(allSims, sim)
		perCatSims[cat] = append(perCatSims[cat], sim)
	}

	result.ScoredGroups = len(allSims)

	log.Printf("consistency: %d groups, %d scored, embed ok=%d failed=%d, source errors=%d",
		result.GroupCount, result.ScoredGroups, result.EmbedOK, result.EmbedFailed, result.SourceErrors)

	if len(allSims) == 0 {
		return result
	}

	result.Score = toScore(mean(allSims))
	for cat, sims := range perCatSims {
		result.ByCategory[cat] = toScore(mean(sims))
	}
	return result
}

// embedTask 单条待向量化的回答
type embedTask struct {
	group int
	item  int
	text  string
}

// embedGroups 并发向量化所有组内回答
// 并发度受信号量约束；结果按条目位置回填，与完成顺序无关
func (e *Engine) embedGroups(ctx context.Context, groups []*Group, result *ConsistencyResult) [][][]float64 {
	vectors := make([][][]float64, len(groups))

	var tasks []embedTask
	for gi, g := range groups {
		vectors[gi] = make([][]float64, len(g.Items))
		for ii, item := range g.Items {
			text := e.mask(item.Answer)
			if runes := []rune(text); len(runes) > e.cfg.AnswerMaxLen {
				text = string(runes[:e.cfg.AnswerMaxLen])
			}
			tasks = append(tasks, embedTask{group: gi, item: ii, text: text})
		}
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		failed int
	)

	for _, task := range tasks {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			// 请求被取消，剩余条目按失败计
			mu.Lock()
			failed++
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(task embedTask) {
			defer wg.Done()
			defer e.sem.Release(1)

			vec, err := e.embedOne(ctx, task.text)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			vectors[task.group][task.item] = vec
			ok++
		}(task)
	}
	wg.Wait()

	result.EmbedOK = ok
	result.EmbedFailed = failed
	return vectors
}

var (
	// errEmptyInput 空文本不送往向量服务
	errEmptyInput = errors.New("empty embedding input")
	// errNoEmbedder 向量服务未配置
	errNoEmbedder = errors.New("embedder not configured")
)

// embedOne 向量化单条文本，带单次调用超时
func (e *Engine) embedOne(ctx context.Context, text string) ([]float64, error) {
	if e.embedder == nil {
		return nil, errNoEmbedder
	}
	if text == "" {
		return nil, errEmptyInput
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.EmbedTimeout)*time.Second)
	defer cancel()

	vecs, err := e.embedder.EmbedStrings(callCtx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, errEmptyInput
	}
	return vecs[0], nil
}

// groupSimilarity 组内所有有效两两配对的平均余弦相似度
// 失败条目的向量为 nil，跳过；零范数向量的配对也跳过，避免除零
func groupSimilarity(vectors [][]float64) (float64, bool) {
	var embedded [][]float64
	for _, v := range vectors {
		if v != nil {
			embedded = append(embedded, v)
		}
	}
	if len(embedded) < 2 {
		return 0, false
	}

	total := 0.0
	count := 0
	for i := 0; i < len(embedded); i++ {
		for j := i + 1; j < len(embedded); j++ {
			if sim, ok := cosineSimilarity(embedded[i], embedded[j]); ok {
				total += sim
				count++
			}
		}
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

// cosineSimilarity 余弦相似度
// 任一向量范数为零或维度不一致时返回 ok=false
func cosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// toScore 相似度均值换算为 0-100 的一位小数得分
// 先钳到 [0,1] 再放大，浮点误差不会把得分推出值域
func toScore(sim float64) float64 {
	return math.Round(clamp01(sim)*1000) / 10
}

func clamp01(x float64) float64 {
	return math.Max(0.0, math.Min(1.0, x))
}

func mean(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

// defaultCategoryScores 所有固定类目的默认满分表
// 没有任何重复提问时返回的"空真"结果
func defaultCategoryScores() map[string]float64 {
	scores := make(map[string]float64, len(category.Categories))
	for _, c := range category.Categories {
		scores[c] = 100.0
	}
	return scores
}
