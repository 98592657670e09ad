// Package application 商品目录应用服务
package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

// 应用层错误
var (
	ErrMissingFields = errors.New("required fields are missing")
	ErrInvalidPrice  = errors.New("price must be a positive number")
	ErrNoImages      = errors.New("at least one product image is required")
)

const (
	recommendationSize = 10

	productListCacheKey = "catalog:products"
	productListCacheTTL = 5 * time.Minute
)

// ImageStore 商品图片存储
type ImageStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

// Recommender 推荐服务，返回按推荐度排序的商品 ID
type Recommender interface {
	Recommend(ctx context.Context, userID string, n int) ([]string, error)
}

// Cache 商品列表缓存，由 Redis 实现
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ProductService 商品应用服务
type ProductService struct {
	repo        domain.ProductRepository
	images      ImageStore
	recommender Recommender
	cache       Cache
}

// NewProductService 创建商品应用服务。cache 可为 nil，此时每次直查数据库。
func NewProductService(repo domain.ProductRepository, images ImageStore, recommender Recommender, cache Cache) *ProductService {
	return &ProductService{repo: repo, images: images, recommender: recommender, cache: cache}
}

// ImageUpload 待上传的图片
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// AddProductCommand 新增商品命令
type AddProductCommand struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	SubCategory string
	Sizes       []string
	Bestseller  bool
	Images      []ImageUpload
}

// AddProduct 上传图片并创建商品
func (s *ProductService) AddProduct(ctx context.Context, cmd AddProductCommand) (*domain.Product, error) {
	if strings.TrimSpace(cmd.Name) == "" || strings.TrimSpace(cmd.Category) == "" {
		return nil, ErrMissingFields
	}
	if cmd.Price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrice
	}
	if len(cmd.Images) == 0 {
		return nil, ErrNoImages
	}

	urls := make([]string, 0, len(cmd.Images))
	for _, img := range cmd.Images {
		url, err := s.images.Upload(ctx, img.Filename, img.ContentType, img.Body)
		if err != nil {
			// 回滚已上传的图片，失败只记日志
			for _, uploaded := range urls {
				if derr := s.images.Delete(ctx, uploaded); derr != nil {
					logger.Warn(ctx, "Failed to clean up uploaded image", "url", uploaded, "error", derr)
				}
			}
			return nil, err
		}
		urls = append(urls, url)
	}

	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(cmd.Name),
		Description: cmd.Description,
		Price:       cmd.Price,
		Images:      urls,
		Category:    cmd.Category,
		SubCategory: cmd.SubCategory,
		Sizes:       cmd.Sizes,
		Bestseller:  cmd.Bestseller,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	s.refreshActiveGauge(ctx)
	logger.Info(ctx, "Product added", "product_id", product.ID, "name", product.Name)
	return product, nil
}

// ListProducts 全量商品列表，带 Redis 缓存
func (s *ProductService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	if s.cache != nil {
		var cached []*domain.Product
		if err := s.cache.GetJSON(ctx, productListCacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(products) > 0 {
		if err := s.cache.SetJSON(ctx, productListCacheKey, products, productListCacheTTL); err != nil {
			logger.Warn(ctx, "Failed to cache product list", "error", err)
		}
	}
	return products, nil
}

// GetProduct 按 ID 获取商品
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// RemoveProduct 删除商品及其图片
func (s *ProductService) RemoveProduct(ctx context.Context, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	for _, url := range product.Images {
		if err := s.images.Delete(ctx, url); err != nil {
			logger.Warn(ctx, "Failed to delete product image", "url", url, "error", err)
		}
	}

	s.invalidateListCache(ctx)
	s.refreshActiveGauge(ctx)
	logger.Info(ctx, "Product removed", "product_id", id)
	return nil
}

// Recommendations 个性化推荐。推荐服务不可用或结果为空时回退到精选商品。
func (s *ProductService) Recommendations(ctx context.Context, userID string) ([]*domain.Product, error) {
	ids, err := s.recommender.Recommend(ctx, userID, recommendationSize)
	if err != nil || len(ids) == 0 {
		if err != nil {
			logger.Warn(ctx, "Recommender unavailable, falling back to bestsellers", "error", err)
		}
		return s.repo.ListBestsellers(ctx, recommendationSize)
	}

	products, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// 按推荐顺序重排，已下架的商品直接丢弃
	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	if len(ordered) == 0 {
		return s.repo.ListBestsellers(ctx, recommendationSize)
	}
	return ordered, nil
}

func (s *ProductService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productListCacheKey); err != nil {
		logger.Warn(ctx, "Failed to invalidate product list cache", "error", err)
	}
}

func (s *ProductService) refreshActiveGauge(ctx context.Context) {
	if count, err := s.repo.Count(ctx); err == nil {
		metrics.ActiveProducts.Set(float64(count))
	}
}
