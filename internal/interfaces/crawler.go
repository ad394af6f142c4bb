package interfaces

import (
	"context"

	"BroadcastSync/internal/model"
	"BroadcastSync/internal/subprocess"
)

// SubprocessRunner 外部抓取脚本执行接口，测试中可替换为假实现
type SubprocessRunner interface {
	Run(ctx context.Context, script string, args ...string) (*subprocess.Result, error)
}

// BrandRepository 品牌查询接口（核心流程只读）
type BrandRepository interface {
	// FindByIDWithPlatform 按ID查品牌并带出所属平台
	FindByIDWithPlatform(ctx context.Context, id uint64) (*model.Brand, error)
}

// ExecutionRepository 执行台账操作接口，状态机流转全部经由此处
type ExecutionRepository interface {
	// Create 新建pending执行记录；命中单飞索引冲突时返回ErrExecutionConflict
	Create(ctx context.Context, exec *model.CrawlerExecution) error
	// HasRunning 是否已有该品牌+平台的pending/running执行（插入前的廉价预检）
	HasRunning(ctx context.Context, brandID, platformID uint64) (bool, error)
	// MarkRunning pending → running
	MarkRunning(ctx context.Context, id uint64) error
	// MarkSuccess 非终态 → success，写completed_at与items_found
	MarkSuccess(ctx context.Context, id uint64, itemsFound int) error
	// MarkFailed 非终态 → failed，写completed_at与error_message
	MarkFailed(ctx context.Context, id uint64, errMsg string) error
}

// EventRepository 广播事件入库接口
type EventRepository interface {
	// BulkUpsert 按(platform_id, external_id)批量upsert，冲突时整行覆盖，返回写入行数
	BulkUpsert(ctx context.Context, events []*model.Event) (int64, error)
}
