package api

import (
	"errors"
	"net/http"
	"strings"

	"BroadcastSync/internal/model"
	"BroadcastSync/internal/repository"
	"BroadcastSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PlatformHandler 平台管理接口
type PlatformHandler struct {
	platformRepo repository.PlatformRepository
	scheduler    ScheduleReloader
	logger       *logrus.Logger
}

// NewPlatformHandler 创建PlatformHandler
func NewPlatformHandler(db *gorm.DB, logger *logrus.Logger, scheduler ScheduleReloader) *PlatformHandler {
	return &PlatformHandler{
		platformRepo: repository.NewPlatformRepository(db),
		scheduler:    scheduler,
		logger:       logger,
	}
}

type platformRequest struct {
	Name        string `json:"name" binding:"required"`
	URLPattern  string `json:"url_pattern" binding:"required"`
	Status      string `json:"status"`
	DefaultCron string `json:"default_cron"`
}

// ListPlatforms 平台列表 GET /api/platforms
func (h *PlatformHandler) ListPlatforms(c *gin.Context) {
	platforms, err := h.platformRepo.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListPlatforms failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": platforms})
}

// GetPlatform 平台详情 GET /api/platforms/:platform_uuid
func (h *PlatformHandler) GetPlatform(c *gin.Context) {
	platform, err := h.platformRepo.FindByUUID(c.Request.Context(), c.Param("platform_uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "平台不存在"})
			return
		}
		h.logger.WithError(err).Error("GetPlatform failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, platform)
}

// CreatePlatform 新建平台 POST /api/platforms
// url_pattern必须含{query}占位符，进库前校验，避免抓取时才暴露坏模板
func (h *PlatformHandler) CreatePlatform(c *gin.Context) {
	var req platformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.Contains(req.URLPattern, service.QueryPlaceholder) {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMissingPlaceholder.Error()})
		return
	}

	status := req.Status
	if status == "" {
		status = model.StatusActive
	}
	platform := &model.Platform{
		Name:        req.Name,
		URLPattern:  req.URLPattern,
		Status:      status,
		DefaultCron: req.DefaultCron,
	}
	if err := h.platformRepo.Create(c.Request.Context(), platform); err != nil {
		h.logger.WithError(err).Error("CreatePlatform failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reloadSchedule()
	c.JSON(http.StatusCreated, platform)
}

// UpdatePlatform 更新平台 PUT /api/platforms/:platform_uuid
func (h *PlatformHandler) UpdatePlatform(c *gin.Context) {
	platform, err := h.platformRepo.FindByUUID(c.Request.Context(), c.Param("platform_uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "平台不存在"})
			return
		}
		h.logger.WithError(err).Error("UpdatePlatform 查询平台失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req platformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !strings.Contains(req.URLPattern, service.QueryPlaceholder) {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMissingPlaceholder.Error()})
		return
	}

	platform.Name = req.Name
	platform.URLPattern = req.URLPattern
	platform.DefaultCron = req.DefaultCron
	if req.Status != "" {
		platform.Status = req.Status
	}
	if err := h.platformRepo.Update(c.Request.Context(), platform); err != nil {
		h.logger.WithError(err).Error("UpdatePlatform failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reloadSchedule()
	c.JSON(http.StatusOK, platform)
}

func (h *PlatformHandler) reloadSchedule() {
	if h.scheduler == nil {
		return
	}
	if err := h.scheduler.Reload(); err != nil {
		h.logger.WithError(err).Error("刷新定时任务失败")
	}
}
