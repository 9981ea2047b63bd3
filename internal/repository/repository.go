package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"product-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const productModelName = "Product"

// ErrNotFound is returned when no product matches the requested id.
// It signals absence, not a failure of the store.
var ErrNotFound = errors.New("product not found")

// ProductStore is the persistence collaborator of the product handlers.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	Find(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// FindByIDAndUpdate applies u and returns the document as it is after the update.
	FindByIDAndUpdate(ctx context.Context, id string, u model.ProductUpdate) (*model.Product, error)
	// FindByIDAndDelete removes the document and returns it as it was before removal.
	FindByIDAndDelete(ctx context.Context, id string) (*model.Product, error)
	Ping(ctx context.Context) error
}

// FieldError describes one rejected field of a document. Kind is the failed
// validator tag, or "cast" when the value could not be converted to CastTo.
type FieldError struct {
	Path      string
	Kind      string
	CastTo    string
	Value     string
	ValueType string
}

func (e FieldError) Message() string {
	switch e.Kind {
	case "required":
		return fmt.Sprintf("Path `%s` is required.", e.Path)
	case "cast":
		return castMessage(e.CastTo, e.Value, e.ValueType, e.Path)
	}
	return fmt.Sprintf("Validator failed for path `%s`", e.Path)
}

// ValidationError is returned when a document fails its schema rules at write time.
type ValidationError struct {
	Model  string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Path+": "+f.Message())
	}
	return e.Model + " validation failed: " + strings.Join(parts, ", ")
}

// CastError is returned when a value cannot be converted to the type of its
// path. Kind defaults to ObjectId and ValueType to string; string values are
// quoted in the message, others are shown as given.
type CastError struct {
	Model     string
	Path      string
	Value     string
	Kind      string
	ValueType string
}

func (e *CastError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "ObjectId"
	}
	return castMessage(kind, e.Value, e.ValueType, e.Path) + fmt.Sprintf(" for model %q", e.Model)
}

func castMessage(kind, value, valueType, path string) string {
	if valueType == "" || valueType == "string" {
		valueType = "string"
		value = strconv.Quote(value)
	}
	return fmt.Sprintf("Cast to %s failed for value %s (type %s) at path %q", kind, value, valueType, path)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &CastError{Model: productModelName, Path: "_id", Value: id}
	}
	return oid, nil
}
