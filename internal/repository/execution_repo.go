package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BroadcastSync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrExecutionConflict 同一品牌+平台已有pending/running执行（单飞索引冲突）
var ErrExecutionConflict = errors.New("该品牌已有进行中的抓取执行")

// ErrIllegalTransition 对终态执行记录做状态流转（编程错误，必须暴露）
var ErrIllegalTransition = errors.New("非法的执行状态流转")

// 单飞部分唯一索引名，Create时据此识别冲突
const activeExecutionIndex = "uniq_brand_platform_active"

// ExecutionFilter 执行列表筛选条件
type ExecutionFilter struct {
	BrandID    uint64 // 可选：按品牌过滤
	PlatformID uint64 // 可选：按平台过滤
	Status     string // 可选：pending/running/success/failed
}

// ExecutionRepository 执行台账仓储。状态机：pending → running → {success, failed}，
// 终态不可再流转；记录只追加不删除。
type ExecutionRepository interface {
	Create(ctx context.Context, exec *model.CrawlerExecution) error
	HasRunning(ctx context.Context, brandID, platformID uint64) (bool, error)
	MarkRunning(ctx context.Context, id uint64) error
	MarkSuccess(ctx context.Context, id uint64, itemsFound int) error
	MarkFailed(ctx context.Context, id uint64, errMsg string) error
	// FindByUUID 按execution_uuid查执行记录
	FindByUUID(ctx context.Context, executionUUID string) (*model.CrawlerExecution, error)
	// List 分页查询执行记录，按开始时间倒序
	List(ctx context.Context, filter ExecutionFilter, page, pageSize int) ([]*model.CrawlerExecution, int64, error)
}

type executionRepository struct {
	db *gorm.DB
}

// NewExecutionRepository 创建ExecutionRepository实例
func NewExecutionRepository(db *gorm.DB) ExecutionRepository {
	return &executionRepository{db: db}
}

// Create 新建pending执行记录。单飞约束由部分唯一索引在插入时原子保证，
// 冲突映射为ErrExecutionConflict，调用方据此软失败。
func (r *executionRepository) Create(ctx context.Context, exec *model.CrawlerExecution) error {
	if exec.ExecutionUUID == "" {
		exec.ExecutionUUID = uuid.NewString()
	}
	if exec.Status == "" {
		exec.Status = string(model.ExecutionPending)
	}
	if exec.StartedAt.IsZero() {
		exec.StartedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(exec).Error; err != nil {
		if strings.Contains(err.Error(), activeExecutionIndex) {
			return ErrExecutionConflict
		}
		return fmt.Errorf("创建执行记录失败: %w", err)
	}
	return nil
}

// HasRunning 插入前的廉价预检，常见冲突场景不消耗一次插入
func (r *executionRepository) HasRunning(ctx context.Context, brandID, platformID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CrawlerExecution{}).
		Where("brand_id = ? AND platform_id = ?", brandID, platformID).
		Where("status IN ?", []string{string(model.ExecutionPending), string(model.ExecutionRunning)}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询进行中执行失败: %w", err)
	}
	return count > 0, nil
}

// MarkRunning pending → running，不更新时间戳
func (r *executionRepository) MarkRunning(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Model(&model.CrawlerExecution{}).
		Where("id = ? AND status = ?", id, model.ExecutionPending).
		Update("status", model.ExecutionRunning)
	if res.Error != nil {
		return fmt.Errorf("更新执行状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 执行%d不在pending状态", ErrIllegalTransition, id)
	}
	return nil
}

// MarkSuccess 非终态 → success。Where限定非终态，终态记录零行命中即报错
func (r *executionRepository) MarkSuccess(ctx context.Context, id uint64, itemsFound int) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.CrawlerExecution{}).
		Where("id = ? AND status IN ?", id, []string{string(model.ExecutionPending), string(model.ExecutionRunning)}).
		Updates(map[string]interface{}{
			"status":       model.ExecutionSuccess,
			"completed_at": now,
			"items_found":  itemsFound,
		})
	if res.Error != nil {
		return fmt.Errorf("更新执行状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 执行%d已是终态", ErrIllegalTransition, id)
	}
	return nil
}

// MarkFailed 非终态 → failed，写入失败原因
func (r *executionRepository) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.CrawlerExecution{}).
		Where("id = ? AND status IN ?", id, []string{string(model.ExecutionPending), string(model.ExecutionRunning)}).
		Updates(map[string]interface{}{
			"status":        model.ExecutionFailed,
			"completed_at":  now,
			"error_message": errMsg,
		})
	if res.Error != nil {
		return fmt.Errorf("更新执行状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: 执行%d已是终态", ErrIllegalTransition, id)
	}
	return nil
}

func (r *executionRepository) FindByUUID(ctx context.Context, executionUUID string) (*model.CrawlerExecution, error) {
	var exec model.CrawlerExecution
	if err := r.db.WithContext(ctx).First(&exec, "execution_uuid = ?", executionUUID).Error; err != nil {
		return nil, err
	}
	return &exec, nil
}

func (r *executionRepository) List(ctx context.Context, filter ExecutionFilter, page, pageSize int) ([]*model.CrawlerExecution, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.CrawlerExecution{})
	if filter.BrandID > 0 {
		db = db.Where("brand_id = ?", filter.BrandID)
	}
	if filter.PlatformID > 0 {
		db = db.Where("platform_id = ?", filter.PlatformID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var execs []*model.CrawlerExecution
	if err := db.Order("started_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&execs).Error; err != nil {
		return nil, 0, err
	}
	return execs, total, nil
}
