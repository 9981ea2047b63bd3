package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"product-api/internal/model"
)

const productsPath = "/api/products"

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer other than 404.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// ProductClient calls the product API.
type ProductClient struct {
	http *HTTPClient
}

func NewProductClient(baseURL string, timeout time.Duration) *ProductClient {
	return &ProductClient{http: NewHTTPClient(baseURL, timeout)}
}

// Create posts p without its id; the server assigns one.
func (c *ProductClient) Create(ctx context.Context, p model.Product) (*model.Product, error) {
	body := struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Price       *float64 `json:"price,omitempty"`
	}{p.Name, p.Description, p.Price}

	var out model.Product
	if err := c.call(ctx, http.MethodPost, productsPath, body, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ProductClient) List(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	if err := c.call(ctx, http.MethodGet, productsPath, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProductClient) Get(ctx context.Context, id string) (*model.Product, error) {
	var out model.Product
	if err := c.call(ctx, http.MethodGet, productPath(id), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ProductClient) Update(ctx context.Context, id string, u model.ProductUpdate) (*model.Product, error) {
	var out model.Product
	if err := c.call(ctx, http.MethodPut, productPath(id), u, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ProductClient) Delete(ctx context.Context, id string) (*model.Product, error) {
	var out model.Product
	if err := c.call(ctx, http.MethodDelete, productPath(id), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func productPath(id string) string {
	return productsPath + "/" + url.PathEscape(id)
}

func (c *ProductClient) call(ctx context.Context, method, path string, body any, want int, out any) error {
	resp, err := c.http.Do(ctx, RequestOptions{Method: method, URL: path, Body: body})
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == want:
		if err := json.Unmarshal(resp.RawBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(resp.RawBody, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
}
