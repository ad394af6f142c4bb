package repository

import (
	"context"

	"BroadcastSync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BrandFilter 品牌列表筛选条件
type BrandFilter struct {
	Status     string // active / inactive
	PlatformID uint64 // 可选：按平台过滤
}

// BrandRepository 品牌仓储（核心流程 + 管理端CRUD）
type BrandRepository interface {
	// FindByIDWithPlatform 按ID查品牌并带出所属平台
	FindByIDWithPlatform(ctx context.Context, id uint64) (*model.Brand, error)
	// FindByUUID 按brand_uuid查品牌
	FindByUUID(ctx context.Context, brandUUID string) (*model.Brand, error)
	// List 分页查询品牌
	List(ctx context.Context, filter BrandFilter, page, pageSize int) ([]*model.Brand, int64, error)
	// ListActiveWithPlatform 所有active品牌（供调度器注册定时任务）
	ListActiveWithPlatform(ctx context.Context) ([]*model.Brand, error)
	// Create 新建品牌
	Create(ctx context.Context, brand *model.Brand) error
	// Update 更新品牌
	Update(ctx context.Context, brand *model.Brand) error
}

type brandRepository struct {
	db *gorm.DB
}

// NewBrandRepository 创建BrandRepository实例
func NewBrandRepository(db *gorm.DB) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) FindByIDWithPlatform(ctx context.Context, id uint64) (*model.Brand, error) {
	var brand model.Brand
	if err := r.db.WithContext(ctx).
		Preload("Platform").
		First(&brand, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepository) FindByUUID(ctx context.Context, brandUUID string) (*model.Brand, error) {
	var brand model.Brand
	if err := r.db.WithContext(ctx).
		Preload("Platform").
		First(&brand, "brand_uuid = ?", brandUUID).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepository) List(ctx context.Context, filter BrandFilter, page, pageSize int) ([]*model.Brand, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.Brand{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.PlatformID > 0 {
		db = db.Where("platform_id = ?", filter.PlatformID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var brands []*model.Brand
	if err := db.Preload("Platform").
		Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&brands).Error; err != nil {
		return nil, 0, err
	}
	return brands, total, nil
}

func (r *brandRepository) ListActiveWithPlatform(ctx context.Context) ([]*model.Brand, error) {
	var brands []*model.Brand
	if err := r.db.WithContext(ctx).
		Preload("Platform").
		Where("status = ?", model.StatusActive).
		Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *brandRepository) Create(ctx context.Context, brand *model.Brand) error {
	if brand.BrandUUID == "" {
		brand.BrandUUID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(brand).Error
}

func (r *brandRepository) Update(ctx context.Context, brand *model.Brand) error {
	return r.db.WithContext(ctx).Save(brand).Error
}
