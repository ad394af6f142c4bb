package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`     // 服务器配置
	Database  DatabaseConfig  `mapstructure:"database"`   // PostgreSQL配置
	Crawler   CrawlerConfig   `mapstructure:"crawler"`    // 抓取子进程配置
	TimeRange TimeRangeConfig `mapstructure:"time_range"` // 事件时间窗口配置
	Schedule  ScheduleConfig  `mapstructure:"schedule"`   // 调度配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// CrawlerConfig 抓取子进程配置
type CrawlerConfig struct {
	Runtime      string        `mapstructure:"runtime"`       // 脚本运行时（如 node）
	SearchScript string        `mapstructure:"search_script"` // 搜索脚本路径
	DetailScript string        `mapstructure:"detail_script"` // 详情脚本路径
	SearchLimit  int           `mapstructure:"search_limit"`  // 搜索结果上限
	DetailLimit  int           `mapstructure:"detail_limit"`  // 详情抓取条数上限
	DetailDelay  time.Duration `mapstructure:"detail_delay"`  // 详情抓取间隔（对目标站限速）
	Timeout      time.Duration `mapstructure:"timeout"`       // 单次子进程超时
}

// TimeRangeConfig 事件开播时间过滤窗口
type TimeRangeConfig struct {
	PastDays   int `mapstructure:"past_days"`   // 保留过去N天内开播的事件
	FutureDays int `mapstructure:"future_days"` // 保留未来N天内开播的事件
}

// ScheduleConfig 定时抓取调度配置
type ScheduleConfig struct {
	Enabled     bool   `mapstructure:"enabled"`      // 是否启用定时抓取
	DefaultCron string `mapstructure:"default_cron"` // 品牌与平台均未配置时的兜底Cron
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	cfg.applyDefaults()
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CRAWLER_RUNTIME"); v != "" {
		cfg.Crawler.Runtime = v
	}
}

// applyDefaults 给未配置项补默认值，保证核心流程参数可用
func (c *Config) applyDefaults() {
	if c.Crawler.SearchLimit <= 0 {
		c.Crawler.SearchLimit = 50
	}
	if c.Crawler.DetailLimit <= 0 {
		c.Crawler.DetailLimit = 20
	}
	if c.Crawler.DetailDelay <= 0 {
		c.Crawler.DetailDelay = 2 * time.Second
	}
	if c.Crawler.Timeout <= 0 {
		c.Crawler.Timeout = 60 * time.Second
	}
	if c.TimeRange.PastDays <= 0 {
		c.TimeRange.PastDays = 7
	}
	if c.TimeRange.FutureDays <= 0 {
		c.TimeRange.FutureDays = 14
	}
}
