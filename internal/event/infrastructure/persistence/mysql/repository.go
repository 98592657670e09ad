// Package mysql 行为事件的 MySQL 仓储实现
package mysql

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/event/domain"
	"gorm.io/gorm"
)

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓储
func NewEventRepository(db *gorm.DB) domain.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Event, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Event{})
	if filter.Action != "" {
		tx = tx.Where("action = ?", filter.Action)
	}
	if filter.UserID != "" {
		tx = tx.Where("user_id = ?", filter.UserID)
	}

	var events []*domain.Event
	err := tx.Order("created_at DESC").Limit(filter.Limit).Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
