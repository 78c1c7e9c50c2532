// Package train 是离线批量训练入口：抽取交互、构建矩阵、拟合索引、发布工件。
package train

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/bookrec/core"
)

// Config 是一次训练运行的全部参数（YAML）。
type Config struct {
	Data struct {
		// BooksCSV 外部书目数据集（';' 分隔、Latin-1）
		BooksCSV string `yaml:"books_csv"`
		// ExtraBooksCSV 可选的补充书目数据集（UTF-8），不存在时跳过
		ExtraBooksCSV string `yaml:"extra_books_csv"`
		// RatingsCSV 外部评分数据集
		RatingsCSV string `yaml:"ratings_csv"`
	} `yaml:"data"`

	App struct {
		// Store 后端：redis / memory，空表示不接入应用侧记录
		Store     string `yaml:"store"`
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
		// KeyPrefix 书架记录的 key 前缀，默认 "library"
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"app"`

	Ratings struct {
		ExplicitScale float64 `yaml:"explicit_scale"`
		ExplicitMin   float64 `yaml:"explicit_min"`
		// States 阅读状态 -> 隐式评分，空时取 dataset.DefaultStateRatings
		States map[string]float64 `yaml:"states"`
	} `yaml:"ratings"`

	Filter struct {
		MinUserRatings int `yaml:"min_user_ratings"`
		MinItemRatings int `yaml:"min_item_ratings"`
	} `yaml:"filter"`

	Model struct {
		// Neighbors 训练时记录的默认邻域宽度 k
		Neighbors int `yaml:"neighbors"`
	} `yaml:"model"`

	Artifacts struct {
		// Dir 工件目录；版本目录和 CURRENT 指针都写在这里
		Dir string `yaml:"dir"`
		// PopularKey 热门榜单 zset key，空取默认
		PopularKey string `yaml:"popular_key"`
	} `yaml:"artifacts"`
}

// LoadConfig 从 YAML 文件加载训练配置。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("train: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("train: parse config: %w", err)
	}
	if cfg.Data.BooksCSV == "" || cfg.Data.RatingsCSV == "" {
		return nil, fmt.Errorf("train: config must set data.books_csv and data.ratings_csv")
	}
	if cfg.Artifacts.Dir == "" {
		return nil, fmt.Errorf("train: config must set artifacts.dir")
	}
	return &cfg, nil
}

// StateRatings 把配置里的状态映射转换成领域类型。
func (c *Config) StateRatings() map[core.ReadingState]float64 {
	if len(c.Ratings.States) == 0 {
		return nil // Extractor 落到默认映射
	}
	out := make(map[core.ReadingState]float64, len(c.Ratings.States))
	for state, score := range c.Ratings.States {
		out[core.ReadingState(state)] = score
	}
	return out
}
