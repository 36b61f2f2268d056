package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Elastic   ElasticConfig
	AI        AIConfig
	Admin     AdminConfig
	Memory    MemoryConfig
	Analytics AnalyticsConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string
	Port           int
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ElasticConfig Elasticsearch配置
type ElasticConfig struct {
	Host        string
	Username    string
	Password    string
	IndexPrefix string
}

// AIConfig AI配置
type AIConfig struct {
	OpenAI    OpenAIConfig
	Embedding EmbeddingConfig
}

// OpenAIConfig 对话模型配置（兼容 Azure OpenAI）
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	ByAzure    bool
	APIVersion string
	Timeout    int
}

// EmbeddingConfig 向量模型配置
type EmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	ByAzure    bool
	APIVersion string
	Timeout    int
	Dimensions int
}

// AdminConfig 管理员配置
type AdminConfig struct {
	// CodeHash 管理码的 bcrypt 哈希；为空时退回明文 Code 比较（仅开发环境）
	CodeHash  string
	Code      string
	JWTSecret string
	TokenTTL  int // 小时
}

// MemoryConfig 会话记忆配置
type MemoryConfig struct {
	LastTurns        int
	Summarize        bool
	SummaryThreshold int
	TTL              int // 小时
}

// AnalyticsConfig 分析配置
type AnalyticsConfig struct {
	RecentChatLimit  int // 参与一致性计算的最近会话数
	EmbedConcurrency int // 向量化并发上限
	EmbedTimeout     int // 单次向量化超时（秒）
	AnswerMaxLen     int // 向量化前答案截断长度
	QuestionKeyLen   int // 问题分组键截断长度
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		setDefaults(v)
	}

	// 环境变量
	v.SetEnvPrefix("ZUZU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyFallbacks(&cfg)

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// applyFallbacks 填补配置文件缺省的零值
func applyFallbacks(cfg *Config) {
	if cfg.Memory.LastTurns <= 0 {
		cfg.Memory.LastTurns = 6
	}
	if cfg.Memory.SummaryThreshold <= 0 {
		cfg.Memory.SummaryThreshold = 8
	}
	if cfg.Memory.TTL <= 0 {
		cfg.Memory.TTL = 24
	}
	if cfg.Analytics.RecentChatLimit <= 0 {
		cfg.Analytics.RecentChatLimit = 200
	}
	if cfg.Analytics.EmbedConcurrency <= 0 {
		cfg.Analytics.EmbedConcurrency = 8
	}
	if cfg.Analytics.EmbedTimeout <= 0 {
		cfg.Analytics.EmbedTimeout = 15
	}
	if cfg.Analytics.AnswerMaxLen <= 0 {
		cfg.Analytics.AnswerMaxLen = 2000
	}
	if cfg.Analytics.QuestionKeyLen <= 0 {
		cfg.Analytics.QuestionKeyLen = 200
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 12
	}
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "zuzu")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readtimeout", 30)
	v.SetDefault("server.writetimeout", 60)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "zuzu")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxopenconns", 10)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.maxlifetime", 3600)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Memory
	v.SetDefault("memory.lastturns", 6)
	v.SetDefault("memory.summarize", true)
	v.SetDefault("memory.summarythreshold", 8)
	v.SetDefault("memory.ttl", 24)

	// Analytics
	v.SetDefault("analytics.recentchatlimit", 200)
	v.SetDefault("analytics.embedconcurrency", 8)
	v.SetDefault("analytics.embedtimeout", 15)
	v.SetDefault("analytics.answermaxlen", 2000)
	v.SetDefault("analytics.questionkeylen", 200)

	// Admin
	v.SetDefault("admin.tokenttl", 12)
}
