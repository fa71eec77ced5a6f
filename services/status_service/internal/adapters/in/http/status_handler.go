package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qwqdev/livestatus/pkg/status"
	"github.com/qwqdev/livestatus/pkg/zlog"
	"github.com/qwqdev/livestatus/services/status_service/internal/ports/in"
	statusErr "github.com/qwqdev/livestatus/services/status_service/pkg/errors"
)

// StatusHandler HTTP状态控制器
type StatusHandler struct {
	statusUseCase in.StatusUseCase
	singleSlot    bool
	metrics       *Metrics
}

// NewStatusHandler 创建状态控制器；singleSlot 为 true 时 GET 返回单个对象
func NewStatusHandler(statusUseCase in.StatusUseCase, singleSlot bool, metrics *Metrics) *StatusHandler {
	return &StatusHandler{statusUseCase: statusUseCase, singleSlot: singleSlot, metrics: metrics}
}

// RegisterRoutes 注册路由，写接口前挂上 writeGuards（限流、鉴权）
func (h *StatusHandler) RegisterRoutes(r *gin.RouterGroup, writeGuards ...gin.HandlerFunc) {
	r.GET("/status", h.GetStatus)

	put := append(append([]gin.HandlerFunc{}, writeGuards...), h.PutStatus)
	r.PUT("/status", put...)
}

// statusRequest 用指针区分“缺字段”和“空字符串”，四个字段都必须出现
type statusRequest struct {
	Title           *string `json:"title" binding:"required"`
	AppName         *string `json:"app_name" binding:"required"`
	OSName          *string `json:"os_name" binding:"required"`
	ForceStatusType *string `json:"force_status_type" binding:"required"`
}

func (r statusRequest) toStatus() status.Status {
	return status.Status{
		Title:           *r.Title,
		AppName:         *r.AppName,
		OSName:          *r.OSName,
		ForceStatusType: *r.ForceStatusType,
	}
}

// PutStatus 上报状态
func (h *StatusHandler) PutStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.C(c.Request.Context()).Debug("bad status body", zap.Error(err))
		h.metrics.reportRejected(reasonInvalidBody)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": statusErr.ErrInvalidBody.Error()})
		return
	}

	stored := h.statusUseCase.Report(c.Request.Context(), req.toStatus())
	h.metrics.reportAccepted(stored.OSName)
	c.Status(http.StatusOK)
}

// GetStatus 查询新鲜状态
func (h *StatusHandler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	if h.singleSlot {
		current := h.statusUseCase.Current(ctx)
		fresh := 1
		if current == status.Offline() {
			fresh = 0
		}
		h.metrics.queried(fresh)
		c.JSON(http.StatusOK, current)
		return
	}

	statuses := h.statusUseCase.Query(ctx)
	h.metrics.queried(len(statuses))
	c.JSON(http.StatusOK, statuses)
}
