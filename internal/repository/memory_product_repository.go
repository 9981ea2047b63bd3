package repository

import (
	"context"
	"fmt"
	"sync"

	"product-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryProductRepository keeps products in process memory. It applies the same
// validation and id rules as the MongoDB repository and lists in insertion order.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]model.Product
	order    []primitive.ObjectID
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[primitive.ObjectID]model.Product),
	}
}

func (r *MemoryProductRepository) Create(_ context.Context, p *model.Product) (*model.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, ok := r.products[p.ID]; ok {
		return nil, fmt.Errorf("E11000 duplicate key error collection: %s index: _id_ dup key: { _id: ObjectId('%s') }", ProductCollection, p.ID.Hex())
	}
	r.products[p.ID] = clone(*p)
	r.order = append(r.order, p.ID)
	return p, nil
}

func (r *MemoryProductRepository) Find(_ context.Context) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]model.Product, 0, len(r.order))
	for _, id := range r.order {
		products = append(products, clone(r.products[id]))
	}
	return products, nil
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id string) (*model.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[oid]
	if !ok {
		return nil, ErrNotFound
	}
	product = clone(product)
	return &product, nil
}

func (r *MemoryProductRepository) FindByIDAndUpdate(_ context.Context, id string, u model.ProductUpdate) (*model.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[oid]
	if !ok {
		return nil, ErrNotFound
	}
	u.Apply(&product)
	r.products[oid] = product

	product = clone(product)
	return &product, nil
}

func (r *MemoryProductRepository) FindByIDAndDelete(_ context.Context, id string) (*model.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[oid]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.products, oid)
	for i, existing := range r.order {
		if existing == oid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return &product, nil
}

func (r *MemoryProductRepository) Ping(context.Context) error {
	return nil
}

func clone(p model.Product) model.Product {
	if p.Price != nil {
		price := *p.Price
		p.Price = &price
	}
	return p
}
