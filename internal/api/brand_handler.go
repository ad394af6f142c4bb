package api

import (
	"errors"
	"net/http"
	"strconv"

	"BroadcastSync/internal/model"
	"BroadcastSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ScheduleReloader 品牌/平台变更后刷新定时任务，调度未启用时为nil
type ScheduleReloader interface {
	Reload() error
}

// BrandHandler 品牌管理接口
type BrandHandler struct {
	brandRepo    repository.BrandRepository
	platformRepo repository.PlatformRepository
	scheduler    ScheduleReloader
	logger       *logrus.Logger
}

// NewBrandHandler 创建BrandHandler。scheduler为nil时变更不触发调度刷新
func NewBrandHandler(db *gorm.DB, logger *logrus.Logger, scheduler ScheduleReloader) *BrandHandler {
	return &BrandHandler{
		brandRepo:    repository.NewBrandRepository(db),
		platformRepo: repository.NewPlatformRepository(db),
		scheduler:    scheduler,
		logger:       logger,
	}
}

type brandRequest struct {
	Name         string `json:"name" binding:"required"`
	SearchText   string `json:"search_text" binding:"required"`
	PlatformUUID string `json:"platform_uuid" binding:"required"`
	Status       string `json:"status"`
	Cron         string `json:"cron"`
}

// ListBrands 品牌列表 GET /api/brands?status=active&platform_id=1&page=1&page_size=20
func (h *BrandHandler) ListBrands(c *gin.Context) {
	platformID, _ := strconv.ParseUint(c.Query("platform_id"), 10, 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.BrandFilter{
		Status:     c.Query("status"),
		PlatformID: platformID,
	}

	brands, total, err := h.brandRepo.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListBrands failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"list":  brands,
	})
}

// GetBrand 品牌详情 GET /api/brands/:brand_uuid
func (h *BrandHandler) GetBrand(c *gin.Context) {
	brand, err := h.brandRepo.FindByUUID(c.Request.Context(), c.Param("brand_uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "品牌不存在"})
			return
		}
		h.logger.WithError(err).Error("GetBrand failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, brand)
}

// CreateBrand 新建品牌 POST /api/brands
func (h *BrandHandler) CreateBrand(c *gin.Context) {
	var req brandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform, err := h.platformRepo.FindByUUID(c.Request.Context(), req.PlatformUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "指定的平台不存在"})
			return
		}
		h.logger.WithError(err).Error("CreateBrand 查询平台失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := req.Status
	if status == "" {
		status = model.StatusActive
	}
	brand := &model.Brand{
		Name:       req.Name,
		SearchText: req.SearchText,
		PlatformID: platform.ID,
		Status:     status,
		Cron:       req.Cron,
	}
	if err := h.brandRepo.Create(c.Request.Context(), brand); err != nil {
		h.logger.WithError(err).Error("CreateBrand failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reloadSchedule()
	c.JSON(http.StatusCreated, brand)
}

// UpdateBrand 更新品牌 PUT /api/brands/:brand_uuid
func (h *BrandHandler) UpdateBrand(c *gin.Context) {
	brand, err := h.brandRepo.FindByUUID(c.Request.Context(), c.Param("brand_uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "品牌不存在"})
			return
		}
		h.logger.WithError(err).Error("UpdateBrand 查询品牌失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req brandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform, err := h.platformRepo.FindByUUID(c.Request.Context(), req.PlatformUUID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "指定的平台不存在"})
		return
	}

	brand.Name = req.Name
	brand.SearchText = req.SearchText
	brand.PlatformID = platform.ID
	brand.Cron = req.Cron
	if req.Status != "" {
		brand.Status = req.Status
	}
	brand.Platform = nil // 避免Save级联写平台行
	if err := h.brandRepo.Update(c.Request.Context(), brand); err != nil {
		h.logger.WithError(err).Error("UpdateBrand failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reloadSchedule()
	c.JSON(http.StatusOK, brand)
}

func (h *BrandHandler) reloadSchedule() {
	if h.scheduler == nil {
		return
	}
	if err := h.scheduler.Reload(); err != nil {
		h.logger.WithError(err).Error("刷新定时任务失败")
	}
}
