package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

type fakeProductRepo struct {
	products map[string]*domain.Product
	order    []string
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*domain.Product)}
}

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) error {
	r.products[product.ID] = product
	r.order = append(r.order, product.ID)
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) GetByIDs(_ context.Context, ids []string) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range r.order {
		out = append(out, r.products[id])
	}
	return out, nil
}

func (r *fakeProductRepo) ListBestsellers(_ context.Context, limit int) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range r.order {
		p := r.products[id]
		if p.Bestseller {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.products)), nil
}

type fakeImageStore struct {
	uploads int
	deleted []string
	failAt  int
}

func (s *fakeImageStore) Upload(_ context.Context, filename, _ string, _ io.Reader) (string, error) {
	s.uploads++
	if s.failAt > 0 && s.uploads >= s.failAt {
		return "", assert.AnError
	}
	return "https://cdn.test/" + filename, nil
}

func (s *fakeImageStore) Delete(_ context.Context, url string) error {
	s.deleted = append(s.deleted, url)
	return nil
}

type fakeRecommender struct {
	ids []string
	err error
}

func (r *fakeRecommender) Recommend(_ context.Context, _ string, _ int) ([]string, error) {
	return r.ids, r.err
}

func upload(name string) ImageUpload {
	return ImageUpload{Filename: name, ContentType: "image/png", Body: bytes.NewReader([]byte("png"))}
}

func validCommand() AddProductCommand {
	return AddProductCommand{
		Name:     "Shirt",
		Price:    decimal.NewFromInt(100),
		Category: "men",
		Sizes:    []string{"S", "M"},
		Images:   []ImageUpload{upload("a.png")},
	}
}

func TestAddProduct(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewProductService(repo, &fakeImageStore{}, &fakeRecommender{}, nil)

	product, err := svc.AddProduct(context.Background(), validCommand())
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, []string{"https://cdn.test/a.png"}, []string(product.Images))
	assert.Len(t, repo.products, 1)
}

func TestAddProductValidation(t *testing.T) {
	svc := NewProductService(newFakeProductRepo(), &fakeImageStore{}, &fakeRecommender{}, nil)
	ctx := context.Background()

	cmd := validCommand()
	cmd.Name = ""
	_, err := svc.AddProduct(ctx, cmd)
	assert.ErrorIs(t, err, ErrMissingFields)

	cmd = validCommand()
	cmd.Price = decimal.Zero
	_, err = svc.AddProduct(ctx, cmd)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	cmd = validCommand()
	cmd.Images = nil
	_, err = svc.AddProduct(ctx, cmd)
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestAddProductCleansUpOnUploadFailure(t *testing.T) {
	store := &fakeImageStore{failAt: 2}
	svc := NewProductService(newFakeProductRepo(), store, &fakeRecommender{}, nil)

	cmd := validCommand()
	cmd.Images = []ImageUpload{upload("a.png"), upload("b.png")}

	_, err := svc.AddProduct(context.Background(), cmd)
	require.Error(t, err)
	assert.Equal(t, []string{"https://cdn.test/a.png"}, store.deleted, "first upload must be rolled back")
}

func TestRemoveProductDeletesImages(t *testing.T) {
	repo := newFakeProductRepo()
	store := &fakeImageStore{}
	svc := NewProductService(repo, store, &fakeRecommender{}, nil)

	product, err := svc.AddProduct(context.Background(), validCommand())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveProduct(context.Background(), product.ID))
	assert.Empty(t, repo.products)
	assert.Equal(t, []string{"https://cdn.test/a.png"}, store.deleted)

	assert.ErrorIs(t, svc.RemoveProduct(context.Background(), product.ID), domain.ErrProductNotFound)
}

func seedProducts(t *testing.T, repo *fakeProductRepo, n int, bestseller bool) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p%d", i)
		require.NoError(t, repo.Create(context.Background(), &domain.Product{
			ID:         id,
			Name:       "Product " + id,
			Price:      decimal.NewFromInt(10),
			Bestseller: bestseller,
		}))
		ids = append(ids, id)
	}
	return ids
}

func TestRecommendationsPreserveOrder(t *testing.T) {
	repo := newFakeProductRepo()
	seedProducts(t, repo, 4, false)
	rec := &fakeRecommender{ids: []string{"p2", "p0", "missing", "p3"}}
	svc := NewProductService(repo, &fakeImageStore{}, rec, nil)

	products, err := svc.Recommendations(context.Background(), "u1")
	require.NoError(t, err)

	got := make([]string, len(products))
	for i, p := range products {
		got[i] = p.ID
	}
	// 推荐顺序保留，缺失的商品被丢弃
	assert.Equal(t, []string{"p2", "p0", "p3"}, got)
}

func TestRecommendationsFallbackToBestsellers(t *testing.T) {
	repo := newFakeProductRepo()
	seedProducts(t, repo, 3, true)
	rec := &fakeRecommender{err: assert.AnError}
	svc := NewProductService(repo, &fakeImageStore{}, rec, nil)

	products, err := svc.Recommendations(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, products, 3)
	for _, p := range products {
		assert.True(t, p.Bestseller)
	}
}

func TestRecommendationsEmptyResultFallsBack(t *testing.T) {
	repo := newFakeProductRepo()
	seedProducts(t, repo, 2, true)
	rec := &fakeRecommender{ids: []string{"gone-1", "gone-2"}}
	svc := NewProductService(repo, &fakeImageStore{}, rec, nil)

	products, err := svc.Recommendations(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, products, 2, "all-stale recommendations fall back to bestsellers")
}
