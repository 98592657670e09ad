// Package mysql 用户模块的 MySQL 仓储实现
package mysql

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Preload("Addresses").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Preload("Addresses").First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Addresses").
		Where("google_id = ? OR email = ?", googleID, email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Save 全量保存用户，地址整体替换
func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(user.Addresses) > 0 {
			if err := tx.Where("user_id = ?", user.ID).Delete(&domain.Address{}).Error; err != nil {
				return err
			}
			for i := range user.Addresses {
				user.Addresses[i].ID = 0
			}
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(user).Error
	})
}

func (r *userRepository) SaveRefreshToken(ctx context.Context, userID, token string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("refresh_token", token).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash).Error
}
