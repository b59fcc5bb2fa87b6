package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Learning  LearningConfig  `mapstructure:"learning"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// StorageConfig 学生进度的持久化方式：file（默认，JSON 整体落盘）或 mysql
type StorageConfig struct {
	Type     string `mapstructure:"type"`
	FilePath string `mapstructure:"file_path"`
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

type KnowledgeConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

// LearningConfig 评估与路径构建的可调参数
type LearningConfig struct {
	// 诊断测试各难度的抽题配额
	DiagnosticBeginner     int `mapstructure:"diagnostic_beginner"`
	DiagnosticIntermediate int `mapstructure:"diagnostic_intermediate"`
	DiagnosticAdvanced     int `mapstructure:"diagnostic_advanced"`
	MaxTestQuestions       int `mapstructure:"max_test_questions"`

	MaxRecommendations int `mapstructure:"max_recommendations"`
	MaxPathLength      int `mapstructure:"max_path_length"`

	// 是否仅推荐与学生综合水平同级的子主题
	FilterRecommendationsByLevel bool `mapstructure:"filter_recommendations_by_level"`

	// 主题测验未达标时是否仍推进学习路径游标
	AdvanceOnFailedQuiz bool    `mapstructure:"advance_on_failed_quiz"`
	QuizPassThreshold   float64 `mapstructure:"quiz_pass_threshold"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("ADAPT_LEARN")
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.file_path", "STORAGE_FILE_PATH")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	viper.BindEnv("knowledge.catalog_path", "KNOWLEDGE_CATALOG_PATH")

	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	setLearningDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "file"
	}
	if cfg.Storage.Type != "file" && cfg.Storage.Type != "mysql" {
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Storage.Type)
	}

	return &cfg, nil
}

func setLearningDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("storage.file_path", "data/student_progress.json")
	viper.SetDefault("knowledge.catalog_path", "configs/knowledge_base.yaml")

	viper.SetDefault("learning.diagnostic_beginner", 2)
	viper.SetDefault("learning.diagnostic_intermediate", 1)
	viper.SetDefault("learning.diagnostic_advanced", 0)
	viper.SetDefault("learning.max_test_questions", 10)
	viper.SetDefault("learning.max_recommendations", 5)
	viper.SetDefault("learning.max_path_length", 15)
	viper.SetDefault("learning.filter_recommendations_by_level", false)
	viper.SetDefault("learning.advance_on_failed_quiz", true)
	viper.SetDefault("learning.quiz_pass_threshold", 0.6)

	viper.SetDefault("rate_limit.max_requests", 1000)
	viper.SetDefault("rate_limit.window_minutes", 1)
}
