package repository

import (
	"context"
	"fmt"

	"BroadcastSync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventFilter 事件列表筛选条件
type EventFilter struct {
	BrandID    uint64 // 可选：按品牌过滤
	PlatformID uint64 // 可选：按平台过滤
	Status     string // 可选：upcoming/ongoing/ended
	EventType  string // 可选：live/replay
}

// EventRepository 广播事件仓储
type EventRepository interface {
	// BulkUpsert 按(platform_id, external_id)批量upsert，冲突整行覆盖（last-write-wins）
	BulkUpsert(ctx context.Context, events []*model.Event) (int64, error)
	// List 分页查询事件，按开播时间倒序（空时间排最后）
	List(ctx context.Context, filter EventFilter, page, pageSize int) ([]*model.Event, int64, error)
	// GetByUUID 按event_uuid查事件
	GetByUUID(ctx context.Context, eventUUID string) (*model.Event, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建EventRepository实例
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// BulkUpsert 单条SQL完成整批写入。冲突键(platform_id, external_id)命中时
// 覆盖全部非键字段，不做新旧字段合并；整批失败时一条都不落库。
func (r *eventRepository) BulkUpsert(ctx context.Context, events []*model.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	for i := range events {
		if events[i].EventUUID == "" {
			events[i].EventUUID = uuid.NewString()
		}
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"brand_id", "execution_id", "title", "url",
			"start_date", "end_date", "status", "event_type",
			"raw_data", "extracted_data", "updated_at",
		}),
	}).Create(&events)
	if res.Error != nil {
		return 0, fmt.Errorf("批量写入事件失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter, page, pageSize int) ([]*model.Event, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.Event{})
	if filter.BrandID > 0 {
		db = db.Where("brand_id = ?", filter.BrandID)
	}
	if filter.PlatformID > 0 {
		db = db.Where("platform_id = ?", filter.PlatformID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.EventType != "" {
		db = db.Where("event_type = ?", filter.EventType)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []*model.Event
	if err := db.Order("start_date DESC NULLS LAST").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) GetByUUID(ctx context.Context, eventUUID string) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).First(&event, "event_uuid = ?", eventUUID).Error; err != nil {
		return nil, err
	}
	return &event, nil
}
