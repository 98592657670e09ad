// Package application 订单与支付对账的应用服务
package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

// 应用层错误
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrMissingAddress   = errors.New("shipping address is required")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)

// CheckoutSession 支付网关创建的收银台会话
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentEvent 支付网关回调的结算事件
type PaymentEvent struct {
	OrderID   string
	SessionID string
	Amount    decimal.Decimal
}

// PaymentGateway 支付网关接口
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, order *domain.Order) (*CheckoutSession, error)
	// 校验签名并提取结算事件，无关事件返回 (nil, nil)
	ParseEvent(payload []byte, signature string) (*PaymentEvent, error)
}

// CartStore 购物车读清接口，由 cart 模块实现
type CartStore interface {
	Items(ctx context.Context, userID string) ([]cartdomain.CartItem, error)
	ClearCart(ctx context.Context, userID string) error
}

// ProductFinder 商品批量查询，由 catalog 模块实现
type ProductFinder interface {
	GetByIDs(ctx context.Context, ids []string) ([]*catalogdomain.Product, error)
}

// OrderService 订单应用服务
type OrderService struct {
	repo           domain.OrderRepository
	cart           CartStore
	products       ProductFinder
	gateway        PaymentGateway
	deliveryCharge decimal.Decimal
}

// NewOrderService 创建订单应用服务
func NewOrderService(
	repo domain.OrderRepository,
	cart CartStore,
	products ProductFinder,
	gateway PaymentGateway,
	deliveryCharge decimal.Decimal,
) *OrderService {
	return &OrderService{
		repo:           repo,
		cart:           cart,
		products:       products,
		gateway:        gateway,
		deliveryCharge: deliveryCharge,
	}
}

// buildOrder 从购物车构建订单快照，金额与单价均以当前商品价格为准
func (s *OrderService) buildOrder(ctx context.Context, userID string, address domain.ShippingAddress, method domain.PaymentMethod) (*domain.Order, error) {
	if address.Street == "" || address.City == "" || address.Pincode == "" {
		return nil, ErrMissingAddress
	}

	cartItems, err := s.cart.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(cartItems))
	for _, item := range cartItems {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*catalogdomain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	orderID := uuid.New().String()
	amount := decimal.Zero
	items := make([]domain.OrderItem, 0, len(cartItems))
	for _, line := range cartItems {
		product, ok := byID[line.ProductID]
		if !ok {
			// 商品已下架，跳过该行
			logger.Warn(ctx, "Skipping cart line for missing product", "product_id", line.ProductID)
			continue
		}
		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		items = append(items, domain.OrderItem{
			OrderID:   orderID,
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Size:      line.Size,
			Quantity:  line.Quantity,
			Image:     image,
		})
		amount = amount.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	return &domain.Order{
		ID:            orderID,
		UserID:        userID,
		Items:         items,
		Amount:        amount.Add(s.deliveryCharge),
		Address:       address,
		Status:        domain.StatusPending,
		PaymentMethod: method,
	}, nil
}

// PlaceOrder 货到付款下单，下单即清空购物车
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, address domain.ShippingAddress) (*domain.Order, error) {
	order, err := s.buildOrder(ctx, userID, address, domain.PaymentCOD)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	if err := s.cart.ClearCart(ctx, userID); err != nil {
		logger.Error(ctx, "Failed to clear cart after COD order", "order_id", order.ID, "error", err)
	}

	metrics.OrdersTotal.WithLabelValues(string(domain.PaymentCOD)).Inc()
	logger.Info(ctx, "Order placed", "order_id", order.ID, "user_id", userID, "amount", order.Amount.String())
	return order, nil
}

// PlaceOrderStripe 创建 Stripe 订单与收银台会话。
// 购物车保留到支付确认（verify 或 webhook），支付失败不丢购物车。
func (s *OrderService) PlaceOrderStripe(ctx context.Context, userID string, address domain.ShippingAddress) (*domain.Order, *CheckoutSession, error) {
	order, err := s.buildOrder(ctx, userID, address, domain.PaymentStripe)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, order)
	if err != nil {
		// 会话创建失败的订单直接回收
		if derr := s.repo.Delete(ctx, order.ID); derr != nil {
			logger.Error(ctx, "Failed to delete order after session failure", "order_id", order.ID, "error", derr)
		}
		return nil, nil, err
	}

	if err := s.repo.SetStripeSession(ctx, order.ID, session.ID); err != nil {
		logger.Error(ctx, "Failed to record stripe session", "order_id", order.ID, "error", err)
	}
	order.StripeSessionID = session.ID

	metrics.OrdersTotal.WithLabelValues(string(domain.PaymentStripe)).Inc()
	logger.Info(ctx, "Stripe order created", "order_id", order.ID, "session_id", session.ID)
	return order, session, nil
}

// VerifyStripe 前端回跳确认：成功则标记支付并清空购物车，取消则删除订单
func (s *OrderService) VerifyStripe(ctx context.Context, userID, orderID string, success bool) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return domain.ErrNotOrderOwner
	}

	if !success {
		// 已支付的订单不因回跳取消而删除，webhook 可能先到
		if order.Payment {
			return nil
		}
		metrics.PaymentsTotal.WithLabelValues("cancelled").Inc()
		return s.repo.Delete(ctx, orderID)
	}

	updated, err := s.repo.MarkPaid(ctx, orderID)
	if err != nil {
		return err
	}
	if updated {
		metrics.PaymentsTotal.WithLabelValues("succeeded").Inc()
		logger.Info(ctx, "Payment confirmed via redirect", "order_id", orderID)
	}
	if err := s.cart.ClearCart(ctx, userID); err != nil {
		logger.Error(ctx, "Failed to clear cart after payment", "order_id", orderID, "error", err)
	}
	return nil
}

// HandleWebhook 处理 Stripe webhook。幂等：重复投递对已支付订单无副作用。
func (s *OrderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		return err
	}
	if event == nil || event.OrderID == "" {
		return nil
	}

	order, err := s.repo.GetByID(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			logger.Warn(ctx, "Webhook for unknown order", "order_id", event.OrderID)
			return nil
		}
		return err
	}

	if !order.Amount.Equal(event.Amount) {
		logger.Warn(ctx, "Webhook amount mismatch",
			"order_id", order.ID,
			"order_amount", order.Amount.String(),
			"paid_amount", event.Amount.String(),
		)
	}

	updated, err := s.repo.MarkPaid(ctx, order.ID)
	if err != nil {
		return err
	}
	if !updated {
		// 已由 verify 或上一次投递处理过
		return nil
	}

	metrics.PaymentsTotal.WithLabelValues("succeeded").Inc()
	logger.Info(ctx, "Payment confirmed via webhook", "order_id", order.ID, "session_id", event.SessionID)

	if err := s.cart.ClearCart(ctx, order.UserID); err != nil {
		logger.Error(ctx, "Failed to clear cart after webhook payment", "order_id", order.ID, "error", err)
	}
	return nil
}

// UserOrders 当前用户的订单
func (s *OrderService) UserOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// AllOrders 全部订单（管理端）
func (s *OrderService) AllOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.ListAll(ctx)
}

// UpdateStatus 管理端改单，任意合法状态间可迁移
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	if !domain.ValidStatus(status) {
		return domain.ErrInvalidStatus
	}
	return s.repo.UpdateStatus(ctx, orderID, status)
}
