package api

import (
	"errors"
	"net/http"
	"strconv"

	"BroadcastSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EventHandler 广播事件查询接口（给前端面板用）
type EventHandler struct {
	eventRepo repository.EventRepository
	logger    *logrus.Logger
}

// NewEventHandler 创建EventHandler
func NewEventHandler(db *gorm.DB, logger *logrus.Logger) *EventHandler {
	return &EventHandler{
		eventRepo: repository.NewEventRepository(db),
		logger:    logger,
	}
}

// ListEvents 事件列表 GET /api/events?brand_id=1&platform_id=2&status=ongoing&type=live&page=1&page_size=20
func (h *EventHandler) ListEvents(c *gin.Context) {
	brandID, _ := strconv.ParseUint(c.Query("brand_id"), 10, 64)
	platformID, _ := strconv.ParseUint(c.Query("platform_id"), 10, 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.EventFilter{
		BrandID:    brandID,
		PlatformID: platformID,
		Status:     c.Query("status"),
		EventType:  c.Query("type"),
	}

	events, total, err := h.eventRepo.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListEvents failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"list":  events,
	})
}

// GetEvent 事件详情（含raw_data审计数据） GET /api/events/:event_uuid
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventUUID := c.Param("event_uuid")
	if eventUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_uuid is required"})
		return
	}

	event, err := h.eventRepo.GetByUUID(c.Request.Context(), eventUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "事件不存在"})
			return
		}
		h.logger.WithError(err).Error("GetEvent failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}
