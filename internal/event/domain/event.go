// Package domain 行为事件的领域模型
package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAction 非法事件类型
var ErrInvalidAction = errors.New("invalid event action")

// Action 事件类型
type Action string

const (
	ActionView      Action = "view"
	ActionAddToCart Action = "add_to_cart"
	ActionPurchase  Action = "purchase"
	ActionSearch    Action = "search"
	ActionRating    Action = "rating"
)

// ValidAction 是否为合法事件类型
func ValidAction(a Action) bool {
	switch a {
	case ActionView, ActionAddToCart, ActionPurchase, ActionSearch, ActionRating:
		return true
	}
	return false
}

// Metadata 事件附加字段，JSON 存储
type Metadata map[string]interface{}

// Value 实现 driver.Valuer
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for Metadata: %T", value)
	}
	return json.Unmarshal(data, m)
}

// Event 一条行为事件。匿名访客以 sessionId 标识，两者皆空时退化为 IP。
type Event struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// 登录用户 ID，匿名为空
	UserID string `gorm:"column:user_id;type:varchar(36);index:idx_events_user_created" json:"userId,omitempty"`
	// 匿名会话 ID
	SessionID string `gorm:"column:session_id;type:varchar(64);index:idx_events_session_created" json:"sessionId,omitempty"`
	// 关联商品，search 等事件可为空
	ProductID string `gorm:"column:product_id;type:varchar(36);index:idx_events_product_action" json:"productId,omitempty"`
	// 事件类型
	Action Action `gorm:"column:action;type:varchar(20);index:idx_events_product_action;not null" json:"action"`
	// 附加字段（搜索词、评分值等）
	Metadata Metadata `gorm:"column:metadata;type:json" json:"metadata,omitempty"`
	// 客户端 IP
	IP string `gorm:"column:ip;type:varchar(45)" json:"-"`
	// 客户端 UA
	UserAgent string `gorm:"column:user_agent;type:varchar(255)" json:"-"`

	CreatedAt time.Time `gorm:"index:idx_events_user_created;index:idx_events_session_created" json:"createdAt"`
}

func (Event) TableName() string { return "events" }

// ListFilter 查询过滤条件
type ListFilter struct {
	Action Action
	UserID string
	Limit  int
}

// EventRepository 事件仓储接口
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// 按过滤条件查询，创建时间倒序
	List(ctx context.Context, filter ListFilter) ([]*Event, error)
}
