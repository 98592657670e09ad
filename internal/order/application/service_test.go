package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
)

type fakeOrderRepo struct {
	orders map[string]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListAll(_ context.Context) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (r *fakeOrderRepo) MarkPaid(_ context.Context, id string) (bool, error) {
	order, ok := r.orders[id]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	if order.Payment {
		return false, nil
	}
	order.Payment = true
	order.Status = domain.StatusProcessing
	return true, nil
}

func (r *fakeOrderRepo) SetStripeSession(_ context.Context, id, sessionID string) error {
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.StripeSessionID = sessionID
	return nil
}

func (r *fakeOrderRepo) Delete(_ context.Context, id string) error {
	delete(r.orders, id)
	return nil
}

type fakeCartStore struct {
	items   map[string][]cartdomain.CartItem
	cleared int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{items: make(map[string][]cartdomain.CartItem)}
}

func (c *fakeCartStore) Items(_ context.Context, userID string) ([]cartdomain.CartItem, error) {
	return c.items[userID], nil
}

func (c *fakeCartStore) ClearCart(_ context.Context, userID string) error {
	delete(c.items, userID)
	c.cleared++
	return nil
}

type fakeProductFinder struct {
	products map[string]*catalogdomain.Product
}

func (f *fakeProductFinder) GetByIDs(_ context.Context, ids []string) ([]*catalogdomain.Product, error) {
	var out []*catalogdomain.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeGateway struct {
	session    *CheckoutSession
	sessionErr error
	event      *PaymentEvent
	eventErr   error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, _ *domain.Order) (*CheckoutSession, error) {
	return g.session, g.sessionErr
}

func (g *fakeGateway) ParseEvent(_ []byte, _ string) (*PaymentEvent, error) {
	return g.event, g.eventErr
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:  "1 Main St",
		City:    "Pune",
		State:   "MH",
		Country: "IN",
		Pincode: "411001",
	}
}

func newTestService(repo *fakeOrderRepo, cart *fakeCartStore, gateway PaymentGateway) *OrderService {
	products := &fakeProductFinder{products: map[string]*catalogdomain.Product{
		"p1": {ID: "p1", Name: "Shirt", Price: decimal.NewFromInt(100)},
		"p2": {ID: "p2", Name: "Shoes", Price: decimal.NewFromInt(250)},
	}}
	return NewOrderService(repo, cart, products, gateway, decimal.NewFromInt(10))
}

func seedCart(cart *fakeCartStore, userID string) {
	cart.items[userID] = []cartdomain.CartItem{
		{UserID: userID, ProductID: "p1", Size: "M", Quantity: 2},
		{UserID: userID, ProductID: "p2", Size: "42", Quantity: 1},
	}
}

func TestPlaceOrderCODClearsCart(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	svc := newTestService(repo, cart, &fakeGateway{})

	order, err := svc.PlaceOrder(context.Background(), "u1", testAddress())
	require.NoError(t, err)

	// 2*100 + 1*250 + 10 运费
	assert.True(t, order.Amount.Equal(decimal.NewFromInt(460)), "amount = %s", order.Amount)
	assert.Equal(t, domain.PaymentCOD, order.PaymentMethod)
	assert.False(t, order.Payment)
	assert.Len(t, order.Items, 2)
	assert.Empty(t, cart.items["u1"], "COD order should clear the cart")
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc := newTestService(newFakeOrderRepo(), newFakeCartStore(), &fakeGateway{})

	_, err := svc.PlaceOrder(context.Background(), "u1", testAddress())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderMissingAddress(t *testing.T) {
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	svc := newTestService(newFakeOrderRepo(), cart, &fakeGateway{})

	_, err := svc.PlaceOrder(context.Background(), "u1", domain.ShippingAddress{})
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestPlaceOrderStripeKeepsCart(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	gateway := &fakeGateway{session: &CheckoutSession{ID: "cs_1", URL: "https://stripe/session"}}
	svc := newTestService(repo, cart, gateway)

	order, session, err := svc.PlaceOrderStripe(context.Background(), "u1", testAddress())
	require.NoError(t, err)

	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "cs_1", order.StripeSessionID)
	assert.False(t, order.Payment)
	assert.Len(t, cart.items["u1"], 2, "cart must survive until payment confirmation")
}

func TestPlaceOrderStripeSessionFailureRollsBack(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	gateway := &fakeGateway{sessionErr: assert.AnError}
	svc := newTestService(repo, cart, gateway)

	_, _, err := svc.PlaceOrderStripe(context.Background(), "u1", testAddress())
	require.Error(t, err)
	assert.Empty(t, repo.orders, "failed session must not leave an orphan order")
}

func TestVerifyStripeSuccess(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	gateway := &fakeGateway{session: &CheckoutSession{ID: "cs_1"}}
	svc := newTestService(repo, cart, gateway)

	order, _, err := svc.PlaceOrderStripe(context.Background(), "u1", testAddress())
	require.NoError(t, err)

	require.NoError(t, svc.VerifyStripe(context.Background(), "u1", order.ID, true))

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Payment)
	assert.Equal(t, domain.StatusProcessing, stored.Status)
	assert.Empty(t, cart.items["u1"])
}

func TestVerifyStripeCancelDeletesOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	gateway := &fakeGateway{session: &CheckoutSession{ID: "cs_1"}}
	svc := newTestService(repo, cart, gateway)

	order, _, err := svc.PlaceOrderStripe(context.Background(), "u1", testAddress())
	require.NoError(t, err)

	require.NoError(t, svc.VerifyStripe(context.Background(), "u1", order.ID, false))

	_, err = repo.GetByID(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Len(t, cart.items["u1"], 2, "cancelled payment keeps the cart")
}

func TestVerifyStripeOwnerCheck(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	gateway := &fakeGateway{session: &CheckoutSession{ID: "cs_1"}}
	svc := newTestService(repo, cart, gateway)

	order, _, err := svc.PlaceOrderStripe(context.Background(), "u1", testAddress())
	require.NoError(t, err)

	err = svc.VerifyStripe(context.Background(), "intruder", order.ID, true)
	assert.ErrorIs(t, err, domain.ErrNotOrderOwner)
}

func TestVerifyStripeCancelAfterPaymentIsNoop(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	gateway := &fakeGateway{session: &CheckoutSession{ID: "cs_1"}}
	svc := newTestService(repo, cart, gateway)

	order, _, err := svc.PlaceOrderStripe(context.Background(), "u1", testAddress())
	require.NoError(t, err)

	_, err = repo.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)

	// webhook 已确认支付，迟到的取消回跳不能删单
	require.NoError(t, svc.VerifyStripe(context.Background(), "u1", order.ID, false))
	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Payment)
}

func TestHandleWebhookMarksPaidAndClearsCart(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	gateway := &fakeGateway{session: &CheckoutSession{ID: "cs_1"}}
	svc := newTestService(repo, cart, gateway)

	order, _, err := svc.PlaceOrderStripe(context.Background(), "u1", testAddress())
	require.NoError(t, err)

	gateway.event = &PaymentEvent{OrderID: order.ID, SessionID: "cs_1", Amount: order.Amount}
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Payment)
	assert.Empty(t, cart.items["u1"])
}

func TestHandleWebhookIdempotent(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	gateway := &fakeGateway{session: &CheckoutSession{ID: "cs_1"}}
	svc := newTestService(repo, cart, gateway)

	order, _, err := svc.PlaceOrderStripe(context.Background(), "u1", testAddress())
	require.NoError(t, err)

	gateway.event = &PaymentEvent{OrderID: order.ID, SessionID: "cs_1", Amount: order.Amount}
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	clearedOnce := cart.cleared

	// 重复投递不再清购物车，也不报错
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Equal(t, clearedOnce, cart.cleared)
}

func TestHandleWebhookInvalidSignature(t *testing.T) {
	gateway := &fakeGateway{eventErr: ErrInvalidSignature}
	svc := newTestService(newFakeOrderRepo(), newFakeCartStore(), gateway)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestHandleWebhookUnknownOrderIgnored(t *testing.T) {
	gateway := &fakeGateway{event: &PaymentEvent{OrderID: "missing", Amount: decimal.NewFromInt(1)}}
	svc := newTestService(newFakeOrderRepo(), newFakeCartStore(), gateway)

	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
}

func TestHandleWebhookIrrelevantEventIgnored(t *testing.T) {
	svc := newTestService(newFakeOrderRepo(), newFakeCartStore(), &fakeGateway{})
	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
}

func TestUpdateStatusValidation(t *testing.T) {
	repo := newFakeOrderRepo()
	cart := newFakeCartStore()
	seedCart(cart, "u1")
	svc := newTestService(repo, cart, &fakeGateway{})

	order, err := svc.PlaceOrder(context.Background(), "u1", testAddress())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), order.ID, "teleported"), domain.ErrInvalidStatus)

	require.NoError(t, svc.UpdateStatus(context.Background(), order.ID, domain.StatusShipped))
	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, stored.Status)
}
