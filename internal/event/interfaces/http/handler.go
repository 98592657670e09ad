// Package http 行为事件的 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/event/application"
	"github.com/wyfcoding/ecommerce/internal/event/domain"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// EventHandler 事件 HTTP 处理器
type EventHandler struct {
	service *application.EventService
}

// NewEventHandler 创建事件处理器
func NewEventHandler(service *application.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// RegisterRoutes 注册路由。上报开放给匿名访客，查询仅限管理员。
func (h *EventHandler) RegisterRoutes(rg *gin.RouterGroup, authed, adminOnly gin.HandlerFunc) {
	events := rg.Group("/events")
	{
		events.POST("/log", h.Log)
		events.GET("", authed, adminOnly, h.List)
	}
}

type logEventRequest struct {
	UserID    string          `json:"userId"`
	SessionID string          `json:"sessionId"`
	ProductID string          `json:"productId"`
	Action    string          `json:"action"`
	Metadata  domain.Metadata `json:"metadata"`
}

// Log 上报一条事件。窗口内重复上报返回 rateLimited，不视为错误。
func (h *EventHandler) Log(c *gin.Context) {
	var req logEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Log(c.Request.Context(), application.LogCommand{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		ProductID: req.ProductID,
		Action:    domain.Action(req.Action),
		Metadata:  req.Metadata,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	if result.RateLimited {
		response.Success(c, gin.H{"rateLimited": true}, "Event throttled")
		return
	}
	response.Created(c, gin.H{"event": result.Event}, "Event logged")
}

// List 查询事件（管理端），支持 action / userId / limit 过滤
func (h *EventHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	events, err := h.service.List(c.Request.Context(), domain.ListFilter{
		Action: domain.Action(c.Query("action")),
		UserID: c.Query("userId"),
		Limit:  limit,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"events": events}, "Events fetched successfully")
}

func (h *EventHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrMissingAction),
		errors.Is(err, domain.ErrInvalidAction):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, "Internal server error")
	}
}
