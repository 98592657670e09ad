// Package mysql 购物车的 MySQL 仓储实现
package mysql

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

// AddOne 单条 upsert：冲突时 quantity = quantity + 1
func (r *cartRepository) AddOne(ctx context.Context, userID, productID, size string) error {
	item := domain.CartItem{
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Quantity:  1,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "size"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + 1"),
		}),
	}).Create(&item).Error
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID, size string, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	tx := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND size = ?", userID, productID, size)

	if quantity == 0 {
		return tx.Delete(&domain.CartItem{}).Error
	}

	res := tx.Model(&domain.CartItem{}).Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 行不存在则插入，与设置语义一致
		item := domain.CartItem{
			UserID:    userID,
			ProductID: productID,
			Size:      size,
			Quantity:  quantity,
		}
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "size"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": quantity,
			}),
		}).Create(&item).Error
	}
	return nil
}

func (r *cartRepository) Remove(ctx context.Context, userID, productID, size string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND size = ?", userID, productID, size).
		Delete(&domain.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.CartItem{}).Error
}

func (r *cartRepository) GetItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
