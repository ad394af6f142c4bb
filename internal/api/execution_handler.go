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

// ExecutionHandler 执行台账查询接口（只读，台账只追加不修改）
type ExecutionHandler struct {
	executionRepo repository.ExecutionRepository
	logger        *logrus.Logger
}

// NewExecutionHandler 创建ExecutionHandler
func NewExecutionHandler(db *gorm.DB, logger *logrus.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		executionRepo: repository.NewExecutionRepository(db),
		logger:        logger,
	}
}

// ListExecutions 执行列表 GET /api/executions?brand_id=1&platform_id=2&status=failed&page=1&page_size=20
func (h *ExecutionHandler) ListExecutions(c *gin.Context) {
	brandID, _ := strconv.ParseUint(c.Query("brand_id"), 10, 64)
	platformID, _ := strconv.ParseUint(c.Query("platform_id"), 10, 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.ExecutionFilter{
		BrandID:    brandID,
		PlatformID: platformID,
		Status:     c.Query("status"),
	}

	execs, total, err := h.executionRepo.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListExecutions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"list":  execs,
	})
}

// GetExecution 执行详情 GET /api/executions/:execution_uuid
func (h *ExecutionHandler) GetExecution(c *gin.Context) {
	executionUUID := c.Param("execution_uuid")
	if executionUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "execution_uuid is required"})
		return
	}

	exec, err := h.executionRepo.FindByUUID(c.Request.Context(), executionUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "执行记录不存在"})
			return
		}
		h.logger.WithError(err).Error("GetExecution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, exec)
}
