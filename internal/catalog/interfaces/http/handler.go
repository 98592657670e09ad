// Package http 商品目录的 HTTP 接口层
package http

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/application"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// 商品图片的 multipart 字段名，最多四张
var imageFields = []string{"image1", "image2", "image3", "image4"}

// ProductHandler 商品 HTTP 处理器
type ProductHandler struct {
	service *application.ProductService
}

// NewProductHandler 创建商品处理器
func NewProductHandler(service *application.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup, authed, adminOnly gin.HandlerFunc) {
	products := rg.Group("/product")
	{
		products.GET("", h.List)
		products.GET("/recommendations", authed, h.Recommendations)
		products.GET("/:id", h.Get)

		products.POST("/add", authed, adminOnly, h.Add)
		products.DELETE("/:id", authed, adminOnly, h.Remove)
	}
}

// Add 新增商品（multipart 表单，图片字段 image1..image4）
func (h *ProductHandler) Add(c *gin.Context) {
	price, err := decimal.NewFromString(c.PostForm("price"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid price")
		return
	}

	var sizes []string
	if raw := c.PostForm("sizes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &sizes); err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "Invalid sizes")
			return
		}
	}

	var openFiles []multipart.File
	defer func() {
		for _, f := range openFiles {
			f.Close()
		}
	}()

	var images []application.ImageUpload
	for _, field := range imageFields {
		header, err := c.FormFile(field)
		if err != nil {
			continue
		}
		file, err := header.Open()
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "Failed to read uploaded image")
			return
		}
		openFiles = append(openFiles, file)
		images = append(images, application.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		})
	}

	product, err := h.service.AddProduct(c.Request.Context(), application.AddProductCommand{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Price:       price,
		Category:    c.PostForm("category"),
		SubCategory: c.PostForm("subCategory"),
		Sizes:       sizes,
		Bestseller:  c.PostForm("bestseller") == "true",
		Images:      images,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, product, "Product added successfully")
}

// List 商品列表
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"products": products}, "Products fetched successfully")
}

// Get 商品详情
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"product": product}, "Product fetched successfully")
}

// Remove 删除商品
func (h *ProductHandler) Remove(c *gin.Context) {
	if err := h.service.RemoveProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, nil, "Product removed successfully")
}

// Recommendations 当前用户的推荐商品
func (h *ProductHandler) Recommendations(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	products, err := h.service.Recommendations(c.Request.Context(), user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"products": products}, "Recommendations fetched successfully")
}

func (h *ProductHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrMissingFields),
		errors.Is(err, application.ErrInvalidPrice),
		errors.Is(err, application.ErrNoImages):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, "Internal server error")
	}
}
