// Package application 购物车应用服务
package application

import (
	"context"
	"errors"

	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

// 应用层错误
var (
	ErrMissingFields  = errors.New("itemId and size are required")
	ErrSizeNotOffered = errors.New("selected size is not available for this product")
)

// ProductFinder 查询商品是否存在及其尺码
type ProductFinder interface {
	GetProduct(ctx context.Context, id string) (*catalogdomain.Product, error)
}

// CartService 购物车应用服务
type CartService struct {
	repo     domain.CartRepository
	products ProductFinder
}

// NewCartService 创建购物车应用服务
func NewCartService(repo domain.CartRepository, products ProductFinder) *CartService {
	return &CartService{repo: repo, products: products}
}

// AddItem 加购一件，已有行数量 +1
func (s *CartService) AddItem(ctx context.Context, userID, productID, size string) error {
	if productID == "" || size == "" {
		return ErrMissingFields
	}
	if err := s.checkProductSize(ctx, productID, size); err != nil {
		return err
	}

	if err := s.repo.AddOne(ctx, userID, productID, size); err != nil {
		return err
	}
	metrics.CartMutations.WithLabelValues("add").Inc()
	return nil
}

// UpdateItem 设置数量，0 删除该行，负数拒绝
func (s *CartService) UpdateItem(ctx context.Context, userID, productID, size string, quantity int) error {
	if productID == "" || size == "" {
		return ErrMissingFields
	}
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	if quantity > 0 {
		if err := s.checkProductSize(ctx, productID, size); err != nil {
			return err
		}
	}

	if err := s.repo.SetQuantity(ctx, userID, productID, size, quantity); err != nil {
		return err
	}
	metrics.CartMutations.WithLabelValues("update").Inc()
	return nil
}

// RemoveItem 移除一行
func (s *CartService) RemoveItem(ctx context.Context, userID, productID, size string) error {
	if productID == "" || size == "" {
		return ErrMissingFields
	}
	if err := s.repo.Remove(ctx, userID, productID, size); err != nil {
		return err
	}
	metrics.CartMutations.WithLabelValues("remove").Inc()
	return nil
}

// ClearCart 清空购物车
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return err
	}
	metrics.CartMutations.WithLabelValues("clear").Inc()
	return nil
}

// GetCart 获取购物车，形状为 productID → size → quantity
func (s *CartService) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	items, err := s.repo.GetItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.BuildCart(items), nil
}

// Items 购物车原始行，下单时做快照用
func (s *CartService) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return s.repo.GetItems(ctx, userID)
}

func (s *CartService) checkProductSize(ctx context.Context, productID, size string) error {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if len(product.Sizes) > 0 && !product.HasSize(size) {
		return ErrSizeNotOffered
	}
	return nil
}
