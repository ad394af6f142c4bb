package repository

import (
	"context"

	"BroadcastSync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlatformRepository 平台仓储（管理端CRUD）
type PlatformRepository interface {
	// FindByUUID 按platform_uuid查平台
	FindByUUID(ctx context.Context, platformUUID string) (*model.Platform, error)
	// FindByName 按名称查平台
	FindByName(ctx context.Context, name string) (*model.Platform, error)
	// List 查询全部平台（平台数量有限，不分页）
	List(ctx context.Context) ([]*model.Platform, error)
	// Create 新建平台
	Create(ctx context.Context, platform *model.Platform) error
	// Update 更新平台
	Update(ctx context.Context, platform *model.Platform) error
}

type platformRepository struct {
	db *gorm.DB
}

// NewPlatformRepository 创建PlatformRepository实例
func NewPlatformRepository(db *gorm.DB) PlatformRepository {
	return &platformRepository{db: db}
}

func (r *platformRepository) FindByUUID(ctx context.Context, platformUUID string) (*model.Platform, error) {
	var platform model.Platform
	if err := r.db.WithContext(ctx).First(&platform, "platform_uuid = ?", platformUUID).Error; err != nil {
		return nil, err
	}
	return &platform, nil
}

func (r *platformRepository) FindByName(ctx context.Context, name string) (*model.Platform, error) {
	var platform model.Platform
	if err := r.db.WithContext(ctx).First(&platform, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &platform, nil
}

func (r *platformRepository) List(ctx context.Context) ([]*model.Platform, error) {
	var platforms []*model.Platform
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&platforms).Error; err != nil {
		return nil, err
	}
	return platforms, nil
}

func (r *platformRepository) Create(ctx context.Context, platform *model.Platform) error {
	if platform.PlatformUUID == "" {
		platform.PlatformUUID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(platform).Error
}

func (r *platformRepository) Update(ctx context.Context, platform *model.Platform) error {
	return r.db.WithContext(ctx).Save(platform).Error
}
