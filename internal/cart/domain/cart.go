// Package domain 购物车领域模型
package domain

import (
	"context"
	"errors"
	"time"
)

// 购物车错误
var (
	ErrInvalidQuantity = errors.New("quantity cannot be negative")
	ErrItemNotFound    = errors.New("cart item not found")
)

// CartItem 购物车行：一个用户对某商品某尺码的数量。
// (user_id, product_id, size) 唯一，数量变更用单条语句完成，避免读改写竞态。
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);uniqueIndex:uk_cart_line;not null" json:"-"`
	ProductID string    `gorm:"column:product_id;type:varchar(36);uniqueIndex:uk_cart_line;not null" json:"productId"`
	Size      string    `gorm:"column:size;type:varchar(20);uniqueIndex:uk_cart_line;not null" json:"size"`
	Quantity  int       `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (CartItem) TableName() string { return "cart_items" }

// Cart 对外形状：productID → size → quantity
type Cart map[string]map[string]int

// BuildCart 把购物车行聚合成嵌套 map
func BuildCart(items []CartItem) Cart {
	cart := make(Cart, len(items))
	for _, item := range items {
		sizes, ok := cart[item.ProductID]
		if !ok {
			sizes = make(map[string]int)
			cart[item.ProductID] = sizes
		}
		sizes[item.Size] = item.Quantity
	}
	return cart
}

// CartRepository 购物车仓储接口，所有变更均为单语句原子操作
type CartRepository interface {
	// 数量 +1，行不存在则以数量 1 插入
	AddOne(ctx context.Context, userID, productID, size string) error
	// 数量设为 quantity，quantity 为 0 时删除该行
	SetQuantity(ctx context.Context, userID, productID, size string, quantity int) error
	// 删除一行
	Remove(ctx context.Context, userID, productID, size string) error
	// 清空用户购物车
	Clear(ctx context.Context, userID string) error
	// 用户全部购物车行
	GetItems(ctx context.Context, userID string) ([]CartItem, error)
}
