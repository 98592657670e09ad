// Package http 购物车的 HTTP 接口层
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/cart/application"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// CartHandler 购物车 HTTP 处理器
type CartHandler struct {
	service *application.CartService
}

// NewCartHandler 创建购物车处理器
func NewCartHandler(service *application.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes 注册路由，全部需要登录
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup, authed gin.HandlerFunc) {
	cart := rg.Group("/cart", authed)
	{
		cart.GET("", h.Get)
		cart.POST("/add", h.Add)
		cart.PUT("/update", h.Update)
		cart.DELETE("/remove", h.Remove)
		cart.DELETE("/clear", h.Clear)
	}
}

// 店面端历史上把商品 ID 叫 itemId，两个字段名都接受
type cartItemRequest struct {
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
}

func (r cartItemRequest) productID() string {
	if r.ItemID != "" {
		return r.ItemID
	}
	return r.ProductID
}

type cartUpdateRequest struct {
	ItemID    string `json:"itemId"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  *int   `json:"quantity"`
}

func (r cartUpdateRequest) productID() string {
	if r.ItemID != "" {
		return r.ItemID
	}
	return r.ProductID
}

// Add 加购一件
func (h *CartHandler) Add(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.GetCurrentUser(c)
	if err := h.service.AddItem(c.Request.Context(), user.ID, req.productID(), req.Size); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil, "Item added to cart")
}

// Update 设置某行数量
func (h *CartHandler) Update(c *gin.Context) {
	var req cartUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.GetCurrentUser(c)
	if err := h.service.UpdateItem(c.Request.Context(), user.ID, req.productID(), req.Size, *req.Quantity); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil, "Cart updated")
}

// Remove 移除某行
func (h *CartHandler) Remove(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.GetCurrentUser(c)
	if err := h.service.RemoveItem(c.Request.Context(), user.ID, req.productID(), req.Size); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, nil, "Item removed from cart")
}

// Clear 清空购物车
func (h *CartHandler) Clear(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if err := h.service.ClearCart(c.Request.Context(), user.ID); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, nil, "Cart cleared")
}

// Get 获取购物车
func (h *CartHandler) Get(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	cart, err := h.service.GetCart(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"cartData": cart}, "Cart fetched successfully")
}

func (h *CartHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrMissingFields),
		errors.Is(err, application.ErrSizeNotOffered),
		errors.Is(err, domain.ErrInvalidQuantity):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error())
	default:
		response.Error(c, "Internal server error")
	}
}
