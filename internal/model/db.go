package model

import (
	"time"

	"gorm.io/datatypes"
)

type Platform struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	PlatformUUID string    `gorm:"column:platform_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	Name         string    `gorm:"column:name;type:varchar(64);uniqueIndex;not null;comment:平台名称"`
	URLPattern   string    `gorm:"column:url_pattern;type:varchar(512);not null;comment:搜索URL模板，必须含{query}占位符"`
	Status       string    `gorm:"column:status;type:varchar(16);default:active;comment:状态：active/inactive"`
	DefaultCron  string    `gorm:"column:default_cron;type:varchar(64);comment:平台默认抓取Cron表达式，可为空"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt    time.Time `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

type Brand struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	BrandUUID  string    `gorm:"column:brand_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	Name       string    `gorm:"column:name;type:varchar(128);not null;comment:品牌名称"`
	SearchText string    `gorm:"column:search_text;type:varchar(256);not null;comment:平台搜索关键词"`
	PlatformID uint64    `gorm:"column:platform_id;type:bigint;index;not null;comment:所属平台ID"`
	Status     string    `gorm:"column:status;type:varchar(16);default:active;comment:状态：active/inactive"`
	Cron       string    `gorm:"column:cron;type:varchar(64);comment:品牌级Cron覆盖，空则用平台默认"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`

	Platform *Platform `gorm:"foreignKey:PlatformID"`
}

// CrawlerExecution 抓取执行台账，只追加不删除。
// 单飞约束（同一品牌+平台最多一条 pending/running）由部分唯一索引
// uniq_brand_platform_active 保证，索引在 main 中建表后用原生SQL创建。
type CrawlerExecution struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	ExecutionUUID string     `gorm:"column:execution_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	BrandID       uint64     `gorm:"column:brand_id;type:bigint;not null;index:idx_exec_brand_platform;comment:关联品牌ID"`
	PlatformID    uint64     `gorm:"column:platform_id;type:bigint;not null;index:idx_exec_brand_platform;comment:关联平台ID"`
	TriggerType   string     `gorm:"column:trigger_type;type:varchar(16);not null;comment:触发方式：scheduled/manual"`
	Status        string     `gorm:"column:status;type:varchar(16);not null;default:pending;comment:状态：pending/running/success/failed"`
	StartedAt     time.Time  `gorm:"column:started_at;type:timestamp;not null;comment:开始时间"`
	CompletedAt   *time.Time `gorm:"column:completed_at;type:timestamp;comment:结束时间，仅终态有值"`
	ItemsFound    int        `gorm:"column:items_found;type:int;default:0;comment:本次入库事件数，仅success有值"`
	ErrorMessage  string     `gorm:"column:error_message;type:text;comment:失败原因，仅failed有值"`
}

type Event struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	EventUUID     string          `gorm:"column:event_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	PlatformID    uint64          `gorm:"column:platform_id;type:bigint;not null;uniqueIndex:uk_platform_external;comment:关联平台ID"`
	ExternalID    string          `gorm:"column:external_id;type:varchar(128);not null;uniqueIndex:uk_platform_external;comment:平台原生广播ID"`
	BrandID       uint64          `gorm:"column:brand_id;type:bigint;index;not null;comment:关联品牌ID"`
	ExecutionID   uint64          `gorm:"column:execution_id;type:bigint;not null;comment:最近一次写入该行的执行ID"`
	Title         string          `gorm:"column:title;type:varchar(512);not null;comment:广播标题"`
	URL           string          `gorm:"column:url;type:varchar(1024);comment:广播页面URL"`
	StartDate     *time.Time      `gorm:"column:start_date;type:timestamp;comment:开播时间，源站缺失时为空"`
	EndDate       *time.Time      `gorm:"column:end_date;type:timestamp;comment:结束时间，可为空"`
	Status        string          `gorm:"column:status;type:varchar(16);comment:状态：upcoming/ongoing/ended，无法识别时为空"`
	EventType     string          `gorm:"column:event_type;type:varchar(16);comment:类型：live/replay，无法识别时为空"`
	RawData       datatypes.JSON  `gorm:"column:raw_data;type:jsonb;not null;comment:抓取阶段原始输出，留作审计"`
	ExtractedData *datatypes.JSON `gorm:"column:extracted_data;type:jsonb;comment:下游提取结果，本系统不写入"`
	CreatedAt     time.Time       `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

func (Platform) TableName() string         { return "platforms" }
func (Brand) TableName() string            { return "brands" }
func (CrawlerExecution) TableName() string { return "crawler_executions" }
func (Event) TableName() string            { return "events" }
