// Package http 订单的 HTTP 接口层
package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/order/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

const maxWebhookBody = 1 << 20

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	service *application.OrderService
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(service *application.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 注册路由。webhook 不经鉴权，靠签名校验。
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup, authed, adminOnly gin.HandlerFunc) {
	orders := rg.Group("/order")
	{
		orders.POST("/webhook", h.Webhook)

		orders.POST("/place", authed, h.Place)
		orders.POST("/stripe", authed, h.PlaceStripe)
		orders.POST("/verifyStripe", authed, h.VerifyStripe)
		orders.GET("/userorders", authed, h.UserOrders)

		orders.GET("/list", authed, adminOnly, h.List)
		orders.PUT("/status/:orderId", authed, adminOnly, h.UpdateStatus)
	}
}

type addressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
}

func (a addressRequest) toDomain() domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		Country: a.Country,
		Pincode: a.Pincode,
		Phone:   a.Phone,
	}
}

type placeOrderRequest struct {
	Address addressRequest `json:"address"`
}

// Place 货到付款下单
func (h *OrderHandler) Place(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.GetCurrentUser(c)
	order, err := h.service.PlaceOrder(c.Request.Context(), user.ID, req.Address.toDomain())
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, gin.H{"order": order}, "Order placed successfully")
}

// PlaceStripe Stripe 下单，返回收银台跳转地址
func (h *OrderHandler) PlaceStripe(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.GetCurrentUser(c)
	order, session, err := h.service.PlaceOrderStripe(c.Request.Context(), user.ID, req.Address.toDomain())
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, gin.H{
		"order":      order,
		"sessionUrl": session.URL,
	}, "Stripe session created")
}

type verifyStripeRequest struct {
	OrderID string `json:"orderId"`
	Success string `json:"success"`
}

// VerifyStripe 前端支付回跳确认
func (h *OrderHandler) VerifyStripe(c *gin.Context) {
	var req verifyStripeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.GetCurrentUser(c)
	err := h.service.VerifyStripe(c.Request.Context(), user.ID, req.OrderID, req.Success == "true")
	if err != nil {
		h.writeError(c, err)
		return
	}

	if req.Success == "true" {
		response.Success(c, gin.H{"paid": true}, "Payment verified")
		return
	}
	response.Success(c, gin.H{"paid": false}, "Order cancelled")
}

// Webhook Stripe 回调入口。签名校验失败时返回纯文本 400，与 Stripe 重试语义对齐。
func (h *OrderHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusBadRequest, "failed to read request body")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.service.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, application.ErrInvalidSignature) {
			c.String(http.StatusBadRequest, "webhook signature verification failed")
			return
		}
		c.String(http.StatusInternalServerError, "webhook processing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// UserOrders 当前用户订单
func (h *OrderHandler) UserOrders(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	orders, err := h.service.UserOrders(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"orders": orders}, "Orders fetched successfully")
}

// List 全部订单（管理端）
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.service.AllOrders(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"orders": orders}, "Orders fetched successfully")
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus 管理端改单
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.service.UpdateStatus(c.Request.Context(), c.Param("orderId"), domain.Status(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil, "Order status updated")
}

func (h *OrderHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrEmptyCart),
		errors.Is(err, application.ErrMissingAddress),
		errors.Is(err, domain.ErrInvalidStatus):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotOrderOwner):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error())
	default:
		response.Error(c, "Internal server error")
	}
}
