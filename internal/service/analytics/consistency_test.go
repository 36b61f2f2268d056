// Package analytics 提供一致性引擎单元测试
package analytics

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/PrasunaBista/zuzu/internal/config"
	"github.com/PrasunaBista/zuzu/internal/model"
	"github.com/PrasunaBista/zuzu/internal/service/category"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// mockSource 测试用消息来源
type mockSource struct {
	chats  map[string][]*model.Message
	errors map[string]error
}

func (m *mockSource) GetMessages(chatID string) ([]*model.Message, error) {
	if err, ok := m.errors[chatID]; ok {
		return nil, err
	}
	return m.chats[chatID], nil
}

// mockEmbedder 测试用向量服务
// 按文本返回固定向量；可对指定文本注入失败
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float64
	failures map[string]error
	failAll  bool
	calls    int
}

func (m *mockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.failAll {
		return nil, errors.New("embedding provider down")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([][]float64, len(texts))
	for i, text := range texts {
		if err, ok := m.failures[text]; ok {
			return nil, err
		}
		if vec, ok := m.vectors[text]; ok {
			result[i] = vec
		} else {
			// 未登记的文本给单位向量，彼此完全一致
			result[i] = []float64{1, 0}
		}
	}
	return result, nil
}

func newTestEngine(source *mockSource, embedder *mockEmbedder) *Engine {
	return NewEngine(source, embedder, config.AnalyticsConfig{
		EmbedConcurrency: 4,
		EmbedTimeout:     5,
		AnswerMaxLen:     2000,
		QuestionKeyLen:   200,
	})
}

// ========== cosineSimilarity 测试 ==========

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
		ok       bool
	}{
		{
			name:     "identical vectors",
			a:        []float64{1, 2, 3},
			b:        []float64{1, 2, 3},
			expected: 1.0,
			ok:       true,
		},
		{
			name:     "orthogonal vectors",
			a:        []float64{1, 0},
			b:        []float64{0, 1},
			expected: 0.0,
			ok:       true,
		},
		{
			name:     "opposite vectors",
			a:        []float64{1, 0},
			b:        []float64{-1, 0},
			expected: -1.0,
			ok:       true,
		},
		{
			name:     "scale invariant",
			a:        []float64{1, 1},
			b:        []float64{10, 10},
			expected: 1.0,
			ok:       true,
		},
		{
			name: "zero norm left",
			a:    []float64{0, 0},
			b:    []float64{1, 0},
			ok:   false,
		},
		{
			name: "zero norm right",
			a:    []float64{1, 0},
			b:    []float64{0, 0},
			ok:   false,
		},
		{
			name: "dimension mismatch",
			a:    []float64{1, 0},
			b:    []float64{1, 0, 0},
			ok:   false,
		},
		{
			name: "empty vectors",
			a:    nil,
			b:    nil,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cosineSimilarity(tt.a, tt.b)
			if ok != tt.ok {
				t.Fatalf("cosineSimilarity() ok = %v, want %v", ok, tt.ok)
			}
			if ok && !almostEqual(got, tt.expected, 1e-9) {
				t.Errorf("cosineSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float64{0.3, -0.5, 0.8}
	b := []float64{-0.2, 0.9, 0.1}

	ab, _ := cosineSimilarity(a, b)
	ba, _ := cosineSimilarity(b, a)
	if ab != ba {
		t.Errorf("cosineSimilarity not symmetric: %v vs %v", ab, ba)
	}
}

// ========== groupSimilarity 测试 ==========

func TestGroupSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		vectors  [][]float64
		expected float64
		ok       bool
	}{
		{
			name:     "two identical",
			vectors:  [][]float64{{1, 0}, {1, 0}},
			expected: 1.0,
			ok:       true,
		},
		{
			name: "three vectors averaged",
			// 配对相似度：1.0、0.0、0.0，均值 1/3
			vectors:  [][]float64{{1, 0}, {1, 0}, {0, 1}},
			expected: 1.0 / 3.0,
			ok:       true,
		},
		{
			name:    "failed item dropped",
			vectors: [][]float64{{1, 0}, nil},
			ok:      false,
		},
		{
			name:     "failed item in trio",
			vectors:  [][]float64{{1, 0}, nil, {1, 0}},
			expected: 1.0,
			ok:       true,
		},
		{
			name:    "all failed",
			vectors: [][]float64{nil, nil, nil},
			ok:      false,
		},
		{
			name:    "all zero norm",
			vectors: [][]float64{{0, 0}, {0, 0}},
			ok:      false,
		},
		{
			name: "zero norm pair skipped",
			// 只有 (a,c) 是有效配对
			vectors:  [][]float64{{1, 0}, {0, 0}, {1, 0}},
			expected: 1.0,
			ok:       true,
		},
		{
			name:    "single vector",
			vectors: [][]float64{{1, 0}},
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := groupSimilarity(tt.vectors)
			if ok != tt.ok {
				t.Fatalf("groupSimilarity() ok = %v, want %v", ok, tt.ok)
			}
			if ok && !almostEqual(got, tt.expected, 1e-9) {
				t.Errorf("groupSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// ========== toScore 测试 ==========

func TestToScore(t *testing.T) {
	tests := []struct {
		name     string
		sim      float64
		expected float64
	}{
		{name: "perfect", sim: 1.0, expected: 100.0},
		{name: "zero", sim: 0.0, expected: 0.0},
		{name: "typical", sim: 0.4, expected: 40.0},
		{name: "rounded to one decimal", sim: 0.4567, expected: 45.7},
		{name: "clamped above one", sim: 1.0000001, expected: 100.0},
		{name: "negative clamped to zero", sim: -0.3, expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toScore(tt.sim); got != tt.expected {
				t.Errorf("toScore(%v) = %v, want %v", tt.sim, got, tt.expected)
			}
		})
	}
}

// ========== ComputeConsistency 测试 ==========

func TestComputeConsistency_VacuousDefaults(t *testing.T) {
	tests := []struct {
		name   string
		source *mockSource
		ids    []string
	}{
		{
			name:   "no chats",
			source: &mockSource{},
			ids:    nil,
		},
		{
			name: "chats without repeated questions",
			source: &mockSource{chats: map[string][]*model.Message{
				"c1": {msg("user", "question one"), msg("assistant", "answer one")},
				"c2": {msg("user", "question two"), msg("assistant", "answer two")},
			}},
			ids: []string{"c1", "c2"},
		},
		{
			name: "empty conversation",
			source: &mockSource{chats: map[string][]*model.Message{
				"c1": {},
			}},
			ids: []string{"c1", "missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(tt.source, &mockEmbedder{})
			result := engine.ComputeConsistency(context.Background(), tt.ids)

			if result.Score != 100.0 {
				t.Errorf("Score = %v, want vacuous 100.0", result.Score)
			}
			for _, c := range category.Categories {
				if result.ByCategory[c] != 100.0 {
					t.Errorf("ByCategory[%q] = %v, want 100.0", c, result.ByCategory[c])
				}
			}
		})
	}
}

func TestComputeConsistency_MoveInDateScenario(t *testing.T) {
	// 两个会话问同一个问题，回答给出不同日期，余弦相似度 0.4
	source := &mockSource{chats: map[string][]*model.Message{
		"c1": {
			msg("user", "what's the move-in date?"),
			msg("assistant", "August 15."),
		},
		"c2": {
			msg("user", "What's the move-in   date?"),
			msg("assistant", "The move-in date is August 18."),
		},
	}}
	embedder := &mockEmbedder{vectors: map[string][]float64{
		"August 15.":                     {1, 0},
		"The move-in date is August 18.": {0.4, math.Sqrt(1 - 0.16)},
	}}

	engine := newTestEngine(source, embedder)
	result := engine.ComputeConsistency(context.Background(), []string{"c1", "c2"})

	if result.Score != 40.0 {
		t.Errorf("Score = %v, want 40.0", result.Score)
	}
	if result.ByCategory["Housing"] != 40.0 {
		t.Errorf("Housing score = %v, want 40.0", result.ByCategory["Housing"])
	}
	// 其余类目保持默认满分
	if result.ByCategory["Admissions"] != 100.0 {
		t.Errorf("Admissions score = %v, want default 100.0", result.ByCategory["Admissions"])
	}
	if result.GroupCount != 1 || result.ScoredGroups != 1 {
		t.Errorf("GroupCount = %d, ScoredGroups = %d, want 1/1", result.GroupCount, result.ScoredGroups)
	}
	if result.EmbedOK != 2 || result.EmbedFailed != 0 {
		t.Errorf("EmbedOK = %d, EmbedFailed = %d, want 2/0", result.EmbedOK, result.EmbedFailed)
	}
}

func TestComputeConsistency_IdenticalAnswersSaturate(t *testing.T) {
	source := &mockSource{chats: map[string][]*model.Message{
		"c1": {msg("user", "same question"), msg("assistant", "same answer")},
		"c2": {msg("user", "same question"), msg("assistant", "same answer")},
	}}
	engine := newTestEngine(source, &mockEmbedder{vectors: map[string][]float64{
		"same answer": {0.6, 0.8},
	}})

	result := engine.ComputeConsistency(context.Background(), []string{"c1", "c2"})
	if result.Score != 100.0 {
		t.Errorf("Score = %v, want 100.0 for identical answers", result.Score)
	}
}

func TestComputeConsistency_FailureIsolation(t *testing.T) {
	source := &mockSource{chats: map[string][]*model.Message{
		"c1": {msg("user", "q"), msg("assistant", "answer a")},
		"c2": {msg("user", "q"), msg("assistant", "answer b")},
		"c3": {msg("user", "q"), msg("assistant", "answer c")},
	}}
	embedder := &mockEmbedder{
		vectors: map[string][]float64{
			"answer a": {1, 0},
			"answer b": {1, 0},
		},
		failures: map[string]error{
			"answer c": errors.New("timeout"),
		},
	}

	engine := newTestEngine(source, embedder)
	result := engine.ComputeConsistency(context.Background(), []string{"c1", "c2", "c3"})

	// 剩余两条仍构成有效组
	if result.Score != 100.0 {
		t.Errorf("Score = %v, want 100.0 from surviving pair", result.Score)
	}
	if result.EmbedOK != 2 || result.EmbedFailed != 1 {
		t.Errorf("EmbedOK = %d, EmbedFailed = %d, want 2/1", result.EmbedOK, result.EmbedFailed)
	}
}

func TestComputeConsistency_TotalProviderOutage(t *testing.T) {
	source := &mockSource{chats: map[string][]*model.Message{
		"c1": {msg("user", "q"), msg("assistant", "a1")},
		"c2": {msg("user", "q"), msg("assistant", "a2")},
	}}
	embedder := &mockEmbedder{failAll: true}

	engine := newTestEngine(source, embedder)
	result := engine.ComputeConsistency(context.Background(), []string{"c1", "c2"})

	// 得分退回默认值，但计数字段暴露了故障
	if result.Score != 100.0 {
		t.Errorf("Score = %v, want vacuous 100.0", result.Score)
	}
	if result.ScoredGroups != 0 {
		t.Errorf("ScoredGroups = %d, want 0", result.ScoredGroups)
	}
	if result.EmbedFailed != 2 || result.EmbedOK != 0 {
		t.Errorf("EmbedOK = %d, EmbedFailed = %d, want 0/2", result.EmbedOK, result.EmbedFailed)
	}
	if result.GroupCount != 1 {
		t.Errorf("GroupCount = %d, want 1", result.GroupCount)
	}
}

func TestComputeConsistency_SourceErrorsAbsorbed(t *testing.T) {
	source := &mockSource{
		chats: map[string][]*model.Message{
			"good1": {msg("user", "q"), msg("assistant", "a")},
			"good2": {msg("user", "q"), msg("assistant", "a")},
		},
		errors: map[string]error{
			"bad": errors.New("connection reset"),
		},
	}

	engine := newTestEngine(source, &mockEmbedder{})
	result := engine.ComputeConsistency(context.Background(), []string{"good1", "bad", "good2"})

	if result.SourceErrors != 1 {
		t.Errorf("SourceErrors = %d, want 1", result.SourceErrors)
	}
	// 其余会话照常参与计算
	if result.Score != 100.0 || result.ScoredGroups != 1 {
		t.Errorf("Score = %v, ScoredGroups = %d; partial data should still score",
			result.Score, result.ScoredGroups)
	}
}

func TestComputeConsistency_Deterministic(t *testing.T) {
	source := &mockSource{chats: map[string][]*model.Message{
		"c1": {
			msg("user", "housing question"),
			msg("assistant", "answer one"),
			msg("user", "visa question"),
			msg("assistant", "answer two"),
		},
		"c2": {
			msg("user", "housing question"),
			msg("assistant", "answer three"),
			msg("user", "visa question"),
			msg("assistant", "answer four"),
		},
	}}
	embedder := &mockEmbedder{vectors: map[string][]float64{
		"answer one":   {1, 0},
		"answer three": {0.8, 0.6},
		"answer two":   {0, 1},
		"answer four":  {0.6, 0.8},
	}}

	engine := newTestEngine(source, embedder)
	first := engine.ComputeConsistency(context.Background(), []string{"c1", "c2"})

	for i := 0; i < 5; i++ {
		again := engine.ComputeConsistency(context.Background(), []string{"c1", "c2"})
		if again.Score != first.Score {
			t.Fatalf("run %d: Score = %v, want %v", i, again.Score, first.Score)
		}
		for cat, score := range first.ByCategory {
			if again.ByCategory[cat] != score {
				t.Fatalf("run %d: ByCategory[%q] = %v, want %v", i, cat, again.ByCategory[cat], score)
			}
		}
	}
}

func TestComputeConsistency_Bounds(t *testing.T) {
	// 反向向量的余弦是 -1，钳位后得分不得越界
	source := &mockSource{chats: map[string][]*model.Message{
		"c1": {msg("user", "q"), msg("assistant", "pos")},
		"c2": {msg("user", "q"), msg("assistant", "neg")},
	}}
	embedder := &mockEmbedder{vectors: map[string][]float64{
		"pos": {1, 0},
		"neg": {-1, 0},
	}}

	engine := newTestEngine(source, embedder)
	result := engine.ComputeConsistency(context.Background(), []string{"c1", "c2"})

	if result.Score < 0.0 || result.Score > 100.0 {
		t.Errorf("Score = %v, out of [0, 100]", result.Score)
	}
	if result.Score != 0.0 {
		t.Errorf("Score = %v, want 0.0 after clamping", result.Score)
	}
	for cat, score := range result.ByCategory {
		if score < 0.0 || score > 100.0 {
			t.Errorf("ByCategory[%q] = %v, out of [0, 100]", cat, score)
		}
	}
}

func TestComputeConsistency_CategoryCompleteness(t *testing.T) {
	engine := newTestEngine(&mockSource{}, &mockEmbedder{})
	result := engine.ComputeConsistency(context.Background(), nil)

	if len(result.ByCategory) != len(category.Categories) {
		t.Errorf("ByCategory has %d entries, want %d", len(result.ByCategory), len(category.Categories))
	}
	for _, c := range category.Categories {
		if _, ok := result.ByCategory[c]; !ok {
			t.Errorf("ByCategory missing fixed category %q", c)
		}
	}
}

func TestComputeConsistency_GroupCategoryIsFirstSeen(t *testing.T) {
	// 同一问题跨会话归到一个组，组的类目取第一次出现的
	source := &mockSource{chats: map[string][]*model.Message{
		"c1": {msg("user", "where is the dorm?"), msg("assistant", "north campus")},
		"c2": {msg("user", "where is the dorm?"), msg("assistant", "by the river")},
	}}
	embedder := &mockEmbedder{vectors: map[string][]float64{
		"north campus": {1, 0},
		"by the river": {0, 1},
	}}

	engine := newTestEngine(source, embedder)
	result := engine.ComputeConsistency(context.Background(), []string{"c1", "c2"})

	// "dorm" 命中 Housing；该组相似度 0 → Housing 得 0，其余默认
	if result.ByCategory["Housing"] != 0.0 {
		t.Errorf("Housing = %v, want 0.0", result.ByCategory["Housing"])
	}
	if result.ByCategory["Admissions"] != 100.0 {
		t.Errorf("Admissions = %v, want default 100.0", result.ByCategory["Admissions"])
	}
}

func TestComputeConsistency_MasksAnswersBeforeEmbedding(t *testing.T) {
	source := &mockSource{chats: map[string][]*model.Message{
		"c1": {msg("user", "contact?"), msg("assistant", "email student@wright.edu now")},
		"c2": {msg("user", "contact?"), msg("assistant", "email student@wright.edu now")},
	}}
	embedder := &mockEmbedder{vectors: map[string][]float64{}}

	var seen []string
	recorder := &recordingEmbedder{inner: embedder, seen: &seen}

	engine := NewEngine(source, recorder, config.AnalyticsConfig{
		EmbedConcurrency: 1, EmbedTimeout: 5, AnswerMaxLen: 2000, QuestionKeyLen: 200,
	})
	engine.ComputeConsistency(context.Background(), []string{"c1", "c2"})

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("embedder saw %d texts, want 2", len(seen))
	}
	for _, text := range seen {
		if text != "email <PII> now" {
			t.Errorf("embedder saw %q, want masked text", text)
		}
	}
}

// recordingEmbedder 记录送入向量服务的文本
type recordingEmbedder struct {
	inner *mockEmbedder
	mu    sync.Mutex
	seen  *[]string
}

func (r *recordingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	r.mu.Lock()
	*r.seen = append(*r.seen, texts...)
	r.mu.Unlock()
	return r.inner.EmbedStrings(ctx, texts, opts...)
}

func TestComputeConsistency_TruncatesLongAnswers(t *testing.T) {
	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'x'
	}

	source := &mockSource{chats: map[string][]*model.Message{
		"c1": {msg("user", "q"), msg("assistant", string(long))},
		"c2": {msg("user", "q"), msg("assistant", string(long))},
	}}

	var seen []string
	recorder := &recordingEmbedder{inner: &mockEmbedder{}, seen: &seen}

	engine := NewEngine(source, recorder, config.AnalyticsConfig{
		EmbedConcurrency: 1, EmbedTimeout: 5, AnswerMaxLen: 2000, QuestionKeyLen: 200,
	})
	engine.ComputeConsistency(context.Background(), []string{"c1", "c2"})

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	for _, text := range seen {
		if len(text) != 2000 {
			t.Errorf("embedded text length = %d, want 2000", len(text))
		}
	}
}
