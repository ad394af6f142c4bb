package api

import (
	"context"
	"errors"
	"net/http"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/model"
	"BroadcastSync/internal/repository"
	"BroadcastSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CrawlHandler 抓取触发接口
type CrawlHandler struct {
	crawlService *service.CrawlService
	brandRepo    repository.BrandRepository
	logger       *logrus.Logger
}

// NewCrawlHandler 创建CrawlHandler
func NewCrawlHandler(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *CrawlHandler {
	return &CrawlHandler{
		crawlService: service.NewCrawlService(db, logger, cfg),
		brandRepo:    repository.NewBrandRepository(db),
		logger:       logger,
	}
}

// TriggerCrawl 手动触发一次抓取 POST /api/crawl/brands/:brand_uuid/trigger?mode=async
// 默认异步发后即忘（抓取要等子进程，不能占着请求协程）；mode=sync阻塞等结果，仅供调试
func (h *CrawlHandler) TriggerCrawl(c *gin.Context) {
	brandUUID := c.Param("brand_uuid")
	if brandUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "brand_uuid is required"})
		return
	}

	brand, err := h.brandRepo.FindByUUID(c.Request.Context(), brandUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "品牌不存在"})
			return
		}
		h.logger.WithError(err).Error("TriggerCrawl 查询品牌失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if c.DefaultQuery("mode", "async") == "sync" {
		result, err := h.crawlService.ExecuteCrawl(c.Request.Context(), brand.ID, model.TriggerManual)
		if err != nil {
			resp := gin.H{"success": false, "error": err.Error()}
			if result != nil && result.ExecutionUUID != "" {
				resp["execution_id"] = result.ExecutionUUID
			}
			c.JSON(crawlErrorStatus(err), resp)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	// 异步触发：不继承请求context（执行一旦开始就跑到终态，没有取消语义）
	go func() {
		if _, err := h.crawlService.ExecuteCrawl(context.Background(), brand.ID, model.TriggerManual); err != nil {
			if errors.Is(err, service.ErrAlreadyRunning) {
				h.logger.Infof("品牌%s已有进行中的执行，本次触发跳过", brand.Name)
				return
			}
			h.logger.WithError(err).Errorf("品牌%s异步抓取失败", brand.Name)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "抓取已触发", "brand_uuid": brand.BrandUUID})
}

// crawlErrorStatus 错误分类到HTTP状态码
func crawlErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrBrandNotFound), errors.Is(err, service.ErrPlatformNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, service.ErrBrandInactive),
		errors.Is(err, service.ErrPlatformInactive),
		errors.Is(err, service.ErrMissingPlaceholder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
