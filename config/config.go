// Package config 提供引擎的 YAML 配置（支持默认值），
// 把融合权重、阈值、缓存 key、冷启动标签表等做成可调参数而非硬编码。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是引擎的全量配置。
type Config struct {
	// Mode 日志模式：dev / prod
	Mode string `yaml:"mode"`

	Redis      RedisConfig      `yaml:"redis"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	ColdStart  ColdStartConfig  `yaml:"cold_start"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// RedisConfig 是矩阵缓存的 Redis 连接配置。
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// SimilarityConfig 是两个相似度引擎的参数。
type SimilarityConfig struct {
	// CollaborativeKey / ContentKey 是矩阵在缓存中的固定 key
	CollaborativeKey string `yaml:"collaborative_key"`
	ContentKey       string `yaml:"content_key"`

	// CacheTTL 矩阵缓存过期时间（秒，0 表示不过期）
	CacheTTL int `yaml:"cache_ttl"`

	// Alpha 协同矩阵融合权重：alpha*cosine + (1-alpha)*jaccard
	Alpha float64 `yaml:"alpha"`

	// 内容矩阵文本相似度内部权重：name/desc
	TextNameWeight float64 `yaml:"text_name_weight"`
	TextDescWeight float64 `yaml:"text_desc_weight"`

	// 内容矩阵融合权重：text/category/price
	ContentTextWeight     float64 `yaml:"content_text_weight"`
	ContentCategoryWeight float64 `yaml:"content_category_weight"`
	ContentPriceWeight    float64 `yaml:"content_price_weight"`

	// ContentThreshold 内容矩阵稀疏化阈值：低于该值的条目不存储
	ContentThreshold float64 `yaml:"content_threshold"`

	// AllowLazyCompute 缓存未命中时是否允许就地触发重算（见并发治理说明）。
	// 生产建议关闭，由调度器/手动触发批量重算。
	AllowLazyCompute bool `yaml:"allow_lazy_compute"`

	// LazyComputeIntervalSec 惰性重算的最小间隔（秒），防止未命中风暴
	LazyComputeIntervalSec int `yaml:"lazy_compute_interval_sec"`
}

// RecommendConfig 是打分/混合阶段的参数。
type RecommendConfig struct {
	// 混合推荐融合权重：final = cf_weight*cf + cb_weight*cb
	HybridCFWeight float64 `yaml:"hybrid_cf_weight"`
	HybridCBWeight float64 `yaml:"hybrid_cb_weight"`

	// NewUserThreshold 交互总数小于等于该值视为新用户，走冷启动
	NewUserThreshold int `yaml:"new_user_threshold"`
}

// ColdStartConfig 是冷启动标签到类目的映射表（可注入、可调参）。
type ColdStartConfig struct {
	// TagCategories 标签 -> 偏好类目 ID 集合
	TagCategories map[string][]string `yaml:"tag_categories"`

	// DefaultCategories 无任何标签命中时的兜底类目集合
	DefaultCategories []string `yaml:"default_categories"`

	// SeedLimit 种子商品上限
	SeedLimit int `yaml:"seed_limit"`

	// HotKey 热门商品有序集合的 key（类目兜底也无商品时使用）
	HotKey string `yaml:"hot_key"`
}

// SchedulerConfig 是批量重算的定时配置。
type SchedulerConfig struct {
	// Cron 标准 5 段 cron 表达式，如 "0 3 * * *"（每天凌晨 3 点）
	Cron string `yaml:"cron"`
}

// DefaultConfig 返回与线上一致的默认参数。
func DefaultConfig() *Config {
	return &Config{
		Mode: "dev",
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
			DB:   0,
		},
		Similarity: SimilarityConfig{
			CollaborativeKey:       "mallrec:matrix:collaborative",
			ContentKey:             "mallrec:matrix:content",
			CacheTTL:               0,
			Alpha:                  0.7,
			TextNameWeight:         0.7,
			TextDescWeight:         0.3,
			ContentTextWeight:      0.6,
			ContentCategoryWeight:  0.3,
			ContentPriceWeight:     0.1,
			ContentThreshold:       0.1,
			AllowLazyCompute:       true,
			LazyComputeIntervalSec: 60,
		},
		Recommend: RecommendConfig{
			HybridCFWeight:   0.7,
			HybridCBWeight:   0.3,
			NewUserThreshold: 3,
		},
		ColdStart: ColdStartConfig{
			TagCategories:     map[string][]string{},
			DefaultCategories: []string{},
			SeedLimit:         10,
			HotKey:            "mallrec:hot:products",
		},
		Scheduler: SchedulerConfig{
			Cron: "0 3 * * *",
		},
	}
}

// LoadFromYAML 从 YAML 文件加载配置，未指定的字段保留默认值。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return cfg, nil
}
