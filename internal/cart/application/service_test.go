package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

type line struct {
	productID string
	size      string
}

// fakeCartRepo 以 map 模拟单语句原子操作的语义
type fakeCartRepo struct {
	rows map[string]map[line]int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{rows: make(map[string]map[line]int)}
}

func (r *fakeCartRepo) userRows(userID string) map[line]int {
	if r.rows[userID] == nil {
		r.rows[userID] = make(map[line]int)
	}
	return r.rows[userID]
}

func (r *fakeCartRepo) AddOne(_ context.Context, userID, productID, size string) error {
	r.userRows(userID)[line{productID, size}]++
	return nil
}

func (r *fakeCartRepo) SetQuantity(_ context.Context, userID, productID, size string, quantity int) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	key := line{productID, size}
	if quantity == 0 {
		delete(r.userRows(userID), key)
		return nil
	}
	r.userRows(userID)[key] = quantity
	return nil
}

func (r *fakeCartRepo) Remove(_ context.Context, userID, productID, size string) error {
	key := line{productID, size}
	if _, ok := r.userRows(userID)[key]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.userRows(userID), key)
	return nil
}

func (r *fakeCartRepo) Clear(_ context.Context, userID string) error {
	delete(r.rows, userID)
	return nil
}

func (r *fakeCartRepo) GetItems(_ context.Context, userID string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	for key, qty := range r.rows[userID] {
		items = append(items, domain.CartItem{
			UserID:    userID,
			ProductID: key.productID,
			Size:      key.size,
			Quantity:  qty,
		})
	}
	return items, nil
}

type fakeProductFinder struct {
	products map[string]*catalogdomain.Product
}

func (f *fakeProductFinder) GetProduct(_ context.Context, id string) (*catalogdomain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	return p, nil
}

func newTestService(repo domain.CartRepository) *CartService {
	finder := &fakeProductFinder{products: map[string]*catalogdomain.Product{
		"p1": {ID: "p1", Name: "Shirt", Price: decimal.NewFromInt(100), Sizes: []string{"S", "M", "L"}},
		"p2": {ID: "p2", Name: "Mug", Price: decimal.NewFromInt(20)},
	}}
	return NewCartService(repo, finder)
}

func TestAddItemTwiceIncrementsQuantity(t *testing.T) {
	repo := newFakeCartRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "p1", "M"))
	require.NoError(t, svc.AddItem(ctx, "u1", "p1", "M"))

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart["p1"]["M"])
}

func TestAddItemValidatesProductAndSize(t *testing.T) {
	svc := newTestService(newFakeCartRepo())
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddItem(ctx, "u1", "missing", "M"), catalogdomain.ErrProductNotFound)
	assert.ErrorIs(t, svc.AddItem(ctx, "u1", "p1", "XXL"), ErrSizeNotOffered)
	assert.ErrorIs(t, svc.AddItem(ctx, "u1", "", "M"), ErrMissingFields)

	// 未声明尺码的商品接受任意尺码
	assert.NoError(t, svc.AddItem(ctx, "u1", "p2", "one-size"))
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	repo := newFakeCartRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "p1", "M"))
	require.NoError(t, svc.UpdateItem(ctx, "u1", "p1", "M", 0))

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, cart, "p1")
}

func TestUpdateItemNegativeRejected(t *testing.T) {
	svc := newTestService(newFakeCartRepo())

	err := svc.UpdateItem(context.Background(), "u1", "p1", "M", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestUpdateItemSetsQuantity(t *testing.T) {
	repo := newFakeCartRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.UpdateItem(ctx, "u1", "p1", "L", 5))

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, cart["p1"]["L"])
}

func TestClearCart(t *testing.T) {
	repo := newFakeCartRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "p1", "M"))
	require.NoError(t, svc.AddItem(ctx, "u1", "p2", "one-size"))
	require.NoError(t, svc.ClearCart(ctx, "u1"))

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestBuildCartShape(t *testing.T) {
	items := []domain.CartItem{
		{ProductID: "p1", Size: "M", Quantity: 2},
		{ProductID: "p1", Size: "L", Quantity: 1},
		{ProductID: "p2", Size: "42", Quantity: 3},
	}

	cart := domain.BuildCart(items)
	assert.Equal(t, domain.Cart{
		"p1": {"M": 2, "L": 1},
		"p2": {"42": 3},
	}, cart)
}
