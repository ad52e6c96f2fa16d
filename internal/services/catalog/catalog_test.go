package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"commerce/internal/domain/apperr"
	"commerce/internal/domain/models"
	"commerce/internal/storage"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) SaveProduct(ctx context.Context, product models.Product) (models.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *MockProductStore) UpdateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *MockProductStore) DeleteProduct(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductStore) ProductByID(ctx context.Context, id int) (models.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *MockProductStore) ListProducts(ctx context.Context, query string, tags []string) ([]models.Product, error) {
	args := m.Called(ctx, query, tags)
	return args.Get(0).([]models.Product), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Oat Milk", Tags: []string{"dairy-free"}},
		{ID: 2, Name: "Secret Item", Hidden: true},
	}
}

func TestProducts_CacheMissFallsThroughToStore(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	products := testProducts()
	payload, err := json.Marshal(products)
	require.NoError(t, err)

	// No version counter yet: generation 0.
	redisMock.ExpectGet("products:ver").RedisNil()
	redisMock.ExpectGet("products:v0:q=:tags=").RedisNil()
	redisMock.ExpectGet("products:ver").RedisNil()
	redisMock.ExpectSet("products:v0:q=:tags=", payload, time.Minute).SetVal("OK")

	store := new(MockProductStore)
	store.On("ListProducts", mock.Anything, "", []string(nil)).Return(products, nil)

	c := New(discardLogger(), store, NewListCache(rdb, time.Minute))

	got, err := c.Products(context.Background(), "", nil, true)
	require.NoError(t, err)
	assert.Equal(t, products, got)

	store.AssertExpectations(t)
	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestProducts_CacheHitSkipsStore(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	products := testProducts()
	payload, err := json.Marshal(products)
	require.NoError(t, err)

	redisMock.ExpectGet("products:ver").SetVal("3")
	redisMock.ExpectGet("products:v3:q=milk:tags=").SetVal(string(payload))

	store := new(MockProductStore)

	c := New(discardLogger(), store, NewListCache(rdb, time.Minute))

	got, err := c.Products(context.Background(), "milk", nil, true)
	require.NoError(t, err)
	assert.Equal(t, products, got)

	store.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything, mock.Anything)
	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestProducts_HiddenStrippedForNonAdmin(t *testing.T) {
	store := new(MockProductStore)
	store.On("ListProducts", mock.Anything, "", []string(nil)).Return(testProducts(), nil)

	c := New(discardLogger(), store, nil)

	got, err := c.Products(context.Background(), "", nil, false)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Oat Milk", got[0].Name)
}

func TestProducts_CacheErrorDoesNotFailListing(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	products := testProducts()

	redisMock.ExpectGet("products:ver").SetErr(assert.AnError)

	store := new(MockProductStore)
	store.On("ListProducts", mock.Anything, "", []string(nil)).Return(products, nil)

	c := New(discardLogger(), store, NewListCache(rdb, time.Minute))

	got, err := c.Products(context.Background(), "", nil, true)
	require.NoError(t, err)
	assert.Equal(t, products, got)
}

func TestCreateProduct_BumpsCacheGeneration(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	redisMock.ExpectIncr("products:ver").SetVal(1)

	product := models.Product{Name: "Oat Milk"}
	saved := product
	saved.ID = 10

	store := new(MockProductStore)
	store.On("SaveProduct", mock.Anything, product).Return(saved, nil)

	c := New(discardLogger(), store, NewListCache(rdb, time.Minute))

	got, err := c.CreateProduct(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, 10, got.ID)

	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestUpdateProduct_NotFound(t *testing.T) {
	store := new(MockProductStore)
	store.On("UpdateProduct", mock.Anything, mock.Anything).
		Return(models.Product{}, storage.ErrProductNotFound)

	c := New(discardLogger(), store, nil)

	_, err := c.UpdateProduct(context.Background(), models.Product{ID: 99})
	require.ErrorIs(t, err, apperr.ErrProductNotFound)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Product 99 not found", appErr.RenderMessage())
}

func TestDeleteProduct_NotFound(t *testing.T) {
	store := new(MockProductStore)
	store.On("DeleteProduct", mock.Anything, 5).Return(storage.ErrProductNotFound)

	c := New(discardLogger(), store, nil)

	err := c.DeleteProduct(context.Background(), 5)
	assert.ErrorIs(t, err, apperr.ErrProductNotFound)
}
