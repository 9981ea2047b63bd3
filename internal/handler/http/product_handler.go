package http

import (
	"errors"
	"net/http"

	"product-api/internal/model"
	"product-api/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const productIDParam = "productId"

// ProductHandler maps product requests onto exactly one store call each.
type ProductHandler struct {
	store repository.ProductStore
}

var ProductHandlerTracer = otel.Tracer("HttpProductHandler")

func NewProductHandler(store repository.ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(r *http.Request) (*Response, error) {
	ctx, span := ProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Create")
	defer span.End()

	fields, err := decodeObject(r)
	if err != nil {
		return nil, err
	}
	product, err := repository.CastProduct(fields)
	if err != nil {
		return nil, err
	}

	created, err := h.store.Create(ctx, product)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("product.id", created.ID.Hex()))
	return JSON(http.StatusCreated, created), nil
}

// List handles GET /api/products.
func (h *ProductHandler) List(r *http.Request) (*Response, error) {
	ctx, span := ProductHandlerTracer.Start(r.Context(), "HttpProductHandler.List")
	defer span.End()

	products, err := h.store.Find(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return JSON(http.StatusOK, products), nil
}

// GetByID handles GET /api/products/{productId}.
func (h *ProductHandler) GetByID(r *http.Request) (*Response, error) {
	ctx, span := ProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetByID")
	defer span.End()

	id := r.PathValue(productIDParam)
	span.SetAttributes(attribute.String("product.id", id))

	product, err := h.store.FindByID(ctx, id)
	return found(product, err)
}

// Update handles PUT /api/products/{productId} and answers with the updated document.
func (h *ProductHandler) Update(r *http.Request) (*Response, error) {
	ctx, span := ProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Update")
	defer span.End()

	id := r.PathValue(productIDParam)
	span.SetAttributes(attribute.String("product.id", id))

	fields, err := decodeObject(r)
	if err != nil {
		return nil, err
	}
	update, err := repository.CastProductUpdate(fields)
	if err != nil {
		return nil, err
	}

	product, err := h.store.FindByIDAndUpdate(ctx, id, update)
	return found(product, err)
}

// Delete handles DELETE /api/products/{productId} and answers with the removed document.
func (h *ProductHandler) Delete(r *http.Request) (*Response, error) {
	ctx, span := ProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Delete")
	defer span.End()

	id := r.PathValue(productIDParam)
	span.SetAttributes(attribute.String("product.id", id))

	product, err := h.store.FindByIDAndDelete(ctx, id)
	return found(product, err)
}

// found maps a by-id lookup: a product is 200, ErrNotFound is an empty 404,
// anything else is forwarded as is.
func found(product *model.Product, err error) (*Response, error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return Empty(http.StatusNotFound), nil
	case err != nil:
		return nil, err
	case product == nil:
		return Empty(http.StatusNotFound), nil
	default:
		return JSON(http.StatusOK, product), nil
	}
}
