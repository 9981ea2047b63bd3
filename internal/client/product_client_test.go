package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	handler "product-api/internal/handler/http"
	"product-api/internal/model"
	"product-api/internal/repository"
	"product-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newAPI(t *testing.T) *ProductClient {
	t.Helper()
	store := repository.NewMemoryProductRepository()
	router := handler.NewRouter(
		handler.NewProductHandler(store),
		handler.NewHealthHandler(service.NewHealthService(store)),
		handler.JSONErrorReporter{},
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return NewProductClient(srv.URL, 5*time.Second)
}

func TestProductClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t)

	products, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	created, err := c.Create(ctx, model.Product{Name: "Gloves", Description: "good to wear", Price: ptr(15.0)})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	id := created.ID.Hex()

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := c.Update(ctx, id, model.ProductUpdate{Name: ptr("Mittens")})
	require.NoError(t, err)
	assert.Equal(t, "Mittens", updated.Name)
	assert.Equal(t, "good to wear", updated.Description)

	products, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, *updated, products[0])

	deleted, err := c.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, updated, deleted)

	_, err = c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Delete(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductClient_APIErrors(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t)

	_, err := c.Create(ctx, model.Product{Name: "no description"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Product validation failed: description: Path `description` is required.", apiErr.Message)

	_, err = c.Get(ctx, "abc")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, `Cast to ObjectId failed for value "abc" (type string) at path "_id" for model "Product"`, apiErr.Message)
}

func TestHTTPClient_SetsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL+"/", time.Second)
	c.SetDefaultHeader("X-Client", "product-cli")

	resp, err := c.Do(context.Background(), RequestOptions{
		Method:      http.MethodPost,
		URL:         "/api/products",
		Body:        map[string]string{"name": "x"},
		QueryParams: map[string]string{"dry": "1"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.True(t, resp.IsClientError())
	assert.Equal(t, "product-cli", got.Get("X-Client"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Len(t, got.Get("X-Trace-ID"), 32)
}

func TestHTTPClient_BuildURL(t *testing.T) {
	c := NewHTTPClient("http://localhost:3000/", time.Second)

	u, err := c.buildURL("api/products", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/api/products", u)

	u, err = c.buildURL("https://example.com/x", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x?a=b", u)
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "api error: status 502", (&APIError{StatusCode: 502}).Error())
	assert.Equal(t, "api error: status 500: boom", (&APIError{StatusCode: 500, Message: "boom"}).Error())
}
