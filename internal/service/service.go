package service

import (
	"context"
	"log"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/retriever/es8"
	"github.com/cloudwego/eino-ext/components/retriever/es8/search_mode"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"github.com/PrasunaBista/zuzu/internal/config"
	"github.com/PrasunaBista/zuzu/internal/repository"
	"github.com/PrasunaBista/zuzu/internal/service/analytics"
	"github.com/PrasunaBista/zuzu/internal/service/auth"
	"github.com/PrasunaBista/zuzu/internal/service/chat"
	"github.com/PrasunaBista/zuzu/internal/service/memory"
	"github.com/PrasunaBista/zuzu/internal/service/search"
)

// Services 服务集合
type Services struct {
	// 业务服务
	Chat      *chat.Service
	Analytics *analytics.Service
	Auth      *auth.Service
	Search    *search.Service

	// 配置与基础设施
	Config *config.Config
	Memory *memory.Manager

	// Eino 组件（直接使用 eino 类型，无封装）
	Embedder  embedding.Embedder
	ChatModel model.ChatModel
	Retriever retriever.Retriever
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	chatModel := newChatModel(ctx, cfg)
	embedder := newEmbedder(ctx, cfg)

	var es8Retriever retriever.Retriever
	if embedder != nil {
		if r := newES8Retriever(ctx, cfg, embedder); r != nil {
			es8Retriever = r
		}
	}

	memoryMgr := memory.NewManager(redisClient, chatModel, cfg.Memory)
	searchSvc := search.NewService(es8Retriever, 6)

	return &Services{
		Chat:      chat.NewService(repo.Chat, repo.Event, chatModel, memoryMgr, searchSvc, cfg.Memory),
		Analytics: analytics.NewService(repo, embedder, cfg.Analytics),
		Auth:      auth.NewService(cfg.Admin),
		Search:    searchSvc,

		Config: cfg,
		Memory: memoryMgr,

		Embedder:  embedder,
		ChatModel: chatModel,
		Retriever: es8Retriever,
	}, nil
}

// newChatModel 创建 ChatModel（兼容 Azure OpenAI）
func newChatModel(ctx context.Context, cfg *config.Config) model.ChatModel {
	aiCfg := cfg.AI.OpenAI

	if aiCfg.APIKey == "" {
		log.Printf("Warning: openai api key not configured, chat model disabled")
		return nil
	}

	modelName := aiCfg.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	modelCfg := &openaimodel.ChatModelConfig{
		APIKey:  aiCfg.APIKey,
		BaseURL: aiCfg.BaseURL,
		Model:   modelName,
		ByAzure: aiCfg.ByAzure,
	}
	if aiCfg.ByAzure {
		modelCfg.APIVersion = aiCfg.APIVersion
	}
	if aiCfg.Timeout > 0 {
		modelCfg.Timeout = time.Duration(aiCfg.Timeout) * time.Second
	}

	chatModel, err := openaimodel.NewChatModel(ctx, modelCfg)
	if err != nil {
		log.Printf("Warning: failed to create chat model: %v", err)
		return nil
	}
	return chatModel
}

// newEmbedder 创建 Embedding 器（兼容 Azure OpenAI）
func newEmbedder(ctx context.Context, cfg *config.Config) embedding.Embedder {
	embCfg := cfg.AI.Embedding

	if embCfg.APIKey == "" {
		log.Printf("Warning: embedding api key not configured, embedder disabled")
		return nil
	}

	modelName := embCfg.Model
	if modelName == "" {
		modelName = "text-embedding-3-small"
	}

	embConfig := &openai.EmbeddingConfig{
		APIKey:  embCfg.APIKey,
		BaseURL: embCfg.BaseURL,
		Model:   modelName,
		ByAzure: embCfg.ByAzure,
	}
	if embCfg.ByAzure {
		embConfig.APIVersion = embCfg.APIVersion
	}
	if embCfg.Timeout > 0 {
		embConfig.Timeout = time.Duration(embCfg.Timeout) * time.Second
	}
	if embCfg.Dimensions > 0 {
		embConfig.Dimensions = &embCfg.Dimensions
	}

	embedder, err := openai.NewEmbedder(ctx, embConfig)
	if err != nil {
		log.Printf("Warning: failed to create embedder: %v", err)
		return nil
	}
	return embedder
}

// newES8Retriever 创建 ES8 检索器
func newES8Retriever(ctx context.Context, cfg *config.Config, embedder embedding.Embedder) *es8.Retriever {
	esCfg := cfg.Elastic

	if esCfg.Host == "" {
		log.Printf("Warning: elasticsearch host not configured, search disabled")
		return nil
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esCfg.Host},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
	})
	if err != nil {
		log.Printf("Warning: failed to create es client: %v", err)
		return nil
	}

	indexName := esCfg.IndexPrefix + "_docs"

	r, err := es8.NewRetriever(ctx, &es8.RetrieverConfig{
		Client:     esClient,
		Index:      indexName,
		TopK:       6,
		SearchMode: search_mode.SearchModeDenseVectorSimilarity(search_mode.DenseVectorSimilarityTypeCosineSimilarity, "content_vector"),
		Embedding:  embedder,
	})
	if err != nil {
		log.Printf("Warning: failed to create retriever: %v", err)
		return nil
	}
	return r
}
