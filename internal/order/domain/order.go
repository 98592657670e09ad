// Package domain 订单领域模型
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// 订单错误
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrNotOrderOwner = errors.New("order does not belong to this user")
)

// Status 订单状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ValidStatus 是否为合法状态值
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentStripe PaymentMethod = "stripe"
)

// OrderItem 下单时的商品快照，后续改价不影响历史订单
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	OrderID   string          `gorm:"column:order_id;type:varchar(36);index;not null" json:"-"`
	ProductID string          `gorm:"column:product_id;type:varchar(36);not null" json:"productId"`
	Name      string          `gorm:"column:name;type:varchar(255)" json:"name"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(20,2)" json:"price"`
	Size      string          `gorm:"column:size;type:varchar(20)" json:"size"`
	Quantity  int             `gorm:"column:quantity" json:"quantity"`
	Image     string          `gorm:"column:image;type:varchar(512)" json:"image"`
}

func (OrderItem) TableName() string { return "order_items" }

// ShippingAddress 下单时的地址快照
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
}

// Order 订单实体
type Order struct {
	// 订单 ID
	ID string `gorm:"column:id;type:varchar(36);primaryKey" json:"_id"`
	// 下单用户
	UserID string `gorm:"column:user_id;type:varchar(36);index;not null" json:"userId"`
	// 商品快照
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	// 应付总额（含运费）
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	// 地址快照，JSON 序列化存储
	Address ShippingAddress `gorm:"column:address;type:json;serializer:json" json:"address"`
	// 状态
	Status Status `gorm:"column:status;type:varchar(20);index;default:pending" json:"status"`
	// 支付方式
	PaymentMethod PaymentMethod `gorm:"column:payment_method;type:varchar(20)" json:"paymentMethod"`
	// 是否已支付。只能由 false 变 true，永不回退。
	Payment bool `gorm:"column:payment;default:false" json:"payment"`
	// Stripe checkout session ID，COD 订单为空
	StripeSessionID string `gorm:"column:stripe_session_id;type:varchar(255)" json:"-"`

	CreatedAt time.Time `json:"date"`
	UpdatedAt time.Time `json:"-"`
}

func (Order) TableName() string { return "orders" }

// MarkPaid 标记已支付并进入处理中。重复调用无副作用，返回是否发生了状态变化。
func (o *Order) MarkPaid() bool {
	if o.Payment {
		return false
	}
	o.Payment = true
	o.Status = StatusProcessing
	return true
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// 用户订单，创建时间倒序
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	// 全部订单，创建时间倒序
	ListAll(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	// 仅当尚未支付时置为已支付，返回是否更新了行
	MarkPaid(ctx context.Context, id string) (bool, error)
	// 记录 Stripe checkout session ID
	SetStripeSession(ctx context.Context, id, sessionID string) error
	Delete(ctx context.Context, id string) error
}
