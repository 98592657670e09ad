package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/cart/application"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

type cartLine struct {
	productID string
	size      string
}

type memoryCartRepo struct {
	rows map[string]map[cartLine]int
}

func newMemoryCartRepo() *memoryCartRepo {
	return &memoryCartRepo{rows: make(map[string]map[cartLine]int)}
}

func (r *memoryCartRepo) userRows(userID string) map[cartLine]int {
	if r.rows[userID] == nil {
		r.rows[userID] = make(map[cartLine]int)
	}
	return r.rows[userID]
}

func (r *memoryCartRepo) AddOne(_ context.Context, userID, productID, size string) error {
	r.userRows(userID)[cartLine{productID, size}]++
	return nil
}

func (r *memoryCartRepo) SetQuantity(_ context.Context, userID, productID, size string, quantity int) error {
	key := cartLine{productID, size}
	if quantity == 0 {
		delete(r.userRows(userID), key)
		return nil
	}
	r.userRows(userID)[key] = quantity
	return nil
}

func (r *memoryCartRepo) Remove(_ context.Context, userID, productID, size string) error {
	key := cartLine{productID, size}
	if _, ok := r.userRows(userID)[key]; !ok {
		return domain.ErrItemNotFound
	}
	delete(r.userRows(userID), key)
	return nil
}

func (r *memoryCartRepo) Clear(_ context.Context, userID string) error {
	delete(r.rows, userID)
	return nil
}

func (r *memoryCartRepo) GetItems(_ context.Context, userID string) ([]domain.CartItem, error) {
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

type staticProductFinder struct {
	products map[string]*catalogdomain.Product
}

func (f *staticProductFinder) GetProduct(_ context.Context, id string) (*catalogdomain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	return p, nil
}

// stubAuth 绕过真实 JWT 校验，直接注入登录用户
func stubAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CurrentUserKey, &middleware.CurrentUser{ID: userID, Role: "user"})
		c.Next()
	}
}

func newCartRouter(t *testing.T) (*gin.Engine, *memoryCartRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemoryCartRepo()
	finder := &staticProductFinder{products: map[string]*catalogdomain.Product{
		"p1": {ID: "p1", Name: "Shirt", Price: decimal.NewFromInt(100), Sizes: []string{"S", "M", "L"}},
	}}
	handler := NewCartHandler(application.NewCartService(repo, finder))

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"), stubAuth("u1"))
	return router, repo
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope response.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestAddAcceptsItemIDField(t *testing.T) {
	router, repo := newCartRouter(t)

	// 店面端发送的字段名是 itemId
	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/cart/add", `{"itemId":"p1","size":"M"}`)

	require.Equal(t, http.StatusOK, rec.Code, envelope.Message)
	assert.True(t, envelope.Success)
	assert.Equal(t, 1, repo.rows["u1"][cartLine{"p1", "M"}])
}

func TestAddAcceptsProductIDField(t *testing.T) {
	router, repo := newCartRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/cart/add", `{"productId":"p1","size":"M"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, repo.rows["u1"][cartLine{"p1", "M"}])
}

func TestUpdateAndRemoveByItemID(t *testing.T) {
	router, repo := newCartRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/cart/add", `{"itemId":"p1","size":"M"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPut, "/api/v1/cart/update", `{"itemId":"p1","size":"M","quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, repo.rows["u1"][cartLine{"p1", "M"}])

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/v1/cart/remove", `{"itemId":"p1","size":"M"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, repo.rows["u1"], cartLine{"p1", "M"})
}

func TestAddMissingSizeRejected(t *testing.T) {
	router, _ := newCartRouter(t)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/cart/add", `{"itemId":"p1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, envelope.Success)
}
